// Package session wraps gin-contrib/sessions with typed accessors for the
// signed-in user and the extra claims supplied by the validate hook.
package session

import (
	"encoding/gob"
	"time"

	"github.com/usergate/usergate/database/model"

	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"
)

// CookieName is the session cookie registered by the web server.
const CookieName = "usergate"

const (
	loginUser = "LOGIN_USER"
	claims    = "CLAIMS"
)

func init() {
	gob.Register(model.User{})
	gob.Register(model.Roles{})
	gob.Register(time.Time{})
	gob.Register(map[string]any{})
}

// Regenerate drops all existing session state before the new user is stored,
// so nothing from a previous principal survives a signin.
func Regenerate(c *gin.Context) {
	s := sessions.Default(c)
	s.Clear()
}

// SetLoginUser stores a sanitized copy of the user; the caller still owns Save.
func SetLoginUser(c *gin.Context, user *model.User) {
	s := sessions.Default(c)
	s.Set(loginUser, user.Sanitized())
}

// SetClaims stores extra claims returned by the validate hook.
func SetClaims(c *gin.Context, data map[string]any) {
	if len(data) == 0 {
		return
	}
	s := sessions.Default(c)
	s.Set(claims, data)
}

func GetClaims(c *gin.Context) map[string]any {
	s := sessions.Default(c)
	if obj := s.Get(claims); obj != nil {
		if data, ok := obj.(map[string]any); ok {
			return data
		}
	}
	return nil
}

func GetLoginUser(c *gin.Context) *model.User {
	s := sessions.Default(c)
	if obj := s.Get(loginUser); obj != nil {
		if user, ok := obj.(model.User); ok {
			return &user
		}
	}
	return nil
}

func IsLogin(c *gin.Context) bool {
	return GetLoginUser(c) != nil
}

func SetMaxAge(c *gin.Context, maxAge int) {
	s := sessions.Default(c)
	s.Options(sessions.Options{
		Path:     "/",
		MaxAge:   maxAge,
		HttpOnly: true,
	})
}

func Save(c *gin.Context) error {
	return sessions.Default(c).Save()
}

// ClearSession destroys the session and expires the cookie.
func ClearSession(c *gin.Context) error {
	s := sessions.Default(c)
	s.Clear()
	s.Options(sessions.Options{
		Path:   "/",
		MaxAge: -1,
	})
	if err := s.Save(); err != nil {
		return err
	}
	c.SetCookie(CookieName, "", -1, "/", "", false, true)
	return nil
}
