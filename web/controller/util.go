package controller

import (
	"errors"
	"net/http"

	"github.com/usergate/usergate/database"
	"github.com/usergate/usergate/logger"
	"github.com/usergate/usergate/web/entity"

	"github.com/gin-gonic/gin"
)

func jsonOK(c *gin.Context, msg string) {
	c.JSON(http.StatusOK, entity.Msg{Ok: true, Message: msg})
}

func jsonUser(c *gin.Context, user map[string]any) {
	c.JSON(http.StatusOK, entity.Msg{Ok: true, User: user})
}

func jsonUsers(c *gin.Context, users []map[string]any) {
	c.JSON(http.StatusOK, entity.Msg{Ok: true, Users: users})
}

// jsonError writes the error envelope. ApiErrors carry their own status and
// wire fields; store misses map to 404; anything else is a 500.
func jsonError(c *gin.Context, err error) {
	var apiErr *entity.ApiError
	if !errors.As(err, &apiErr) {
		status := http.StatusInternalServerError
		if database.IsNotFound(err) {
			status = http.StatusNotFound
		}
		apiErr = entity.NewApiError(status, err.Error())
	}
	if apiErr.StatusCode() >= http.StatusInternalServerError {
		logger.Warning("request failed:", apiErr.Message)
	}
	apiErr.Status = apiErr.StatusCode()
	c.JSON(apiErr.Status, apiErr)
}

func apiError(status int, message string) *entity.ApiError {
	return entity.NewApiError(status, message)
}

func getRemoteIp(c *gin.Context) string {
	if value := c.GetHeader("X-Real-IP"); value != "" {
		return value
	}
	return c.ClientIP()
}
