package controller

import (
	"time"

	"github.com/usergate/usergate/config"
	"github.com/usergate/usergate/database/model"
	"github.com/usergate/usergate/web/service"

	"github.com/gin-gonic/gin"
)

// DefaultAPIPrefix is where the gateway mounts unless overridden.
const DefaultAPIPrefix = "/api/user"

// SignupForm is the registration payload. Extra is populated by a
// PopulateUser hook with any additional fields the hook wants stored
// alongside the user; only allow-listed fields ever come back out.
type SignupForm struct {
	Name     string      `json:"name" form:"name"`
	Password string      `json:"password" form:"password"`
	Email    string      `json:"email" form:"email"`
	Roles    model.Roles `json:"roles" form:"roles"`
	Enabled  *bool       `json:"enabled" form:"enabled"`
}

// Options configures a gateway instance. The zero value works for embedding:
// defaults are applied by NewUserController.
type Options struct {
	// APIPrefix is the mount point of the gateway routes. Defaults to
	// DefaultAPIPrefix. Ignored when the caller mounts the controller on a
	// group of its own.
	APIPrefix string

	// SafeUserFields is the redaction allow-list. Defaults to name, email,
	// roles. Secrets are excluded even if listed.
	SafeUserFields []string

	// AdminRoles gates the cross-user profile operations. Unconfigured
	// means every signed-in user passes.
	AdminRoles config.AdminRoles

	// Verify requires email verification before signin and makes signup
	// send a confirmation email.
	Verify bool

	// SessionMaxAge bounds the signin session and its cookie. Zero means a
	// browser-session cookie.
	SessionMaxAge time.Duration

	// CodeTTL bounds the life of reset and verification tokens. Zero
	// disables expiry.
	CodeTTL time.Duration

	App   service.AppInfo
	Email service.EmailConfig

	// GetEmailLocale picks the template locale for a recipient. Empty means
	// the locale-less template set and English subjects.
	GetEmailLocale func(user *model.User, c *gin.Context) string

	// PopulateUser runs before signup validation and may adjust the form.
	PopulateUser func(c *gin.Context, form *SignupForm) error

	// PopulateVerifiedUser runs after a verification code is accepted,
	// before the record is persisted.
	PopulateVerifiedUser func(user *model.User) error

	// ValidateUser runs after the credential check and policy gates on
	// signin. Returned claims are stored in the session; an error rejects
	// the signin with the error's status (401 when it carries none).
	ValidateUser func(c *gin.Context, user *model.User) (map[string]any, error)
}

func (o *Options) setDefaults() {
	if len(o.SafeUserFields) == 0 {
		o.SafeUserFields = []string{"name", "email", "roles"}
	}
	if o.GetEmailLocale == nil {
		o.GetEmailLocale = func(*model.User, *gin.Context) string { return "" }
	}
	if o.PopulateUser == nil {
		o.PopulateUser = func(*gin.Context, *SignupForm) error { return nil }
	}
	if o.PopulateVerifiedUser == nil {
		o.PopulateVerifiedUser = func(*model.User) error { return nil }
	}
	if o.ValidateUser == nil {
		o.ValidateUser = func(*gin.Context, *model.User) (map[string]any, error) {
			return nil, nil
		}
	}
}
