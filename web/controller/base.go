// Package controller provides the HTTP handlers of the user-account gateway.
package controller

import (
	"net/http"

	"github.com/usergate/usergate/web/session"

	"github.com/gin-gonic/gin"
)

// BaseController provides the authentication guard shared by the
// session-protected routes.
type BaseController struct{}

// checkLogin aborts with 401 unless the request carries a signed-in session.
func (a *BaseController) checkLogin(c *gin.Context) {
	if !session.IsLogin(c) {
		jsonError(c, apiError(http.StatusUnauthorized, "You must be logged in to use this function"))
		c.Abort()
		return
	}
	c.Next()
}
