package controller

import (
	"net/http"
	"strings"
	"time"

	"github.com/usergate/usergate/database"
	"github.com/usergate/usergate/database/model"
	"github.com/usergate/usergate/logger"
	"github.com/usergate/usergate/web/entity"
	"github.com/usergate/usergate/web/service"
	"github.com/usergate/usergate/web/session"

	"github.com/gin-gonic/gin"
)

// SigninForm is the authentication payload.
type SigninForm struct {
	Name     string `json:"name" form:"name"`
	Password string `json:"password" form:"password"`
}

// UserController implements the account gateway's HTTP surface. One instance
// owns its services and options; nothing is shared through package state.
type UserController struct {
	BaseController

	opts        Options
	prefix      string
	userService *service.UserService
	mailService *service.MailService
}

// NewUserController registers the gateway routes on g and returns the
// controller. The group's base path is used to build email links.
func NewUserController(g *gin.RouterGroup, opts Options, userService *service.UserService, mailService *service.MailService) *UserController {
	opts.setDefaults()
	a := &UserController{
		opts:        opts,
		prefix:      g.BasePath(),
		userService: userService,
		mailService: mailService,
	}
	a.initRouter(g)
	return a
}

func (a *UserController) initRouter(g *gin.RouterGroup) {
	g.POST("/signup", a.signup)
	g.POST("/signin", a.signin)
	g.POST("/signout", a.signout)
	g.POST("/forgot", a.forgot)
	g.GET("/code/:code", a.resolveResetCode)
	g.POST("/reset", a.reset)
	g.POST("/verify", a.requestVerification)
	g.GET("/verify/:code", a.acceptVerification)

	g.GET("/current", a.current)
	g.GET("/:name", a.checkLogin, a.get)
	g.PUT("/:name", a.checkLogin, a.update)
	g.DELETE("/:name", a.checkLogin, a.delete)
	g.POST("", a.checkLogin, a.create)
	g.GET("", a.checkLogin, a.list)
}

func (a *UserController) redact(user *model.User) map[string]any {
	return user.Redact(a.opts.SafeUserFields)
}

// hasAdminPermission passes everyone when no allow-list is configured,
// otherwise requires a role intersection.
func (a *UserController) hasAdminPermission(user *model.User) bool {
	if !a.opts.AdminRoles.Configured() {
		return true
	}
	return a.opts.AdminRoles.Match(user.Roles)
}

// appInfo resolves the application identity for emails, deriving the URL
// from the request host when none is configured.
func (a *UserController) appInfo(c *gin.Context) service.AppInfo {
	app := a.opts.App
	if app.URL == "" {
		app.URL = "http://" + c.Request.Host
	}
	return app
}

// sendVerification issues a fresh verification code and emails it. Errors
// propagate to the caller explicitly; the persisted code is not rolled back
// when the send fails.
func (a *UserController) sendVerification(c *gin.Context, user *model.User) error {
	code, err := a.userService.IssueVerificationCode(user)
	if err != nil {
		return err
	}
	if !a.mailService.Configured() {
		return apiError(http.StatusInternalServerError, "Mail transport is not configured!")
	}
	app := a.appInfo(c)
	link := app.URL + a.prefix + "/verify/" + code
	return a.mailService.Send(service.MailConfirm, a.opts.GetEmailLocale(user, c), user, app, code, link)
}

func (a *UserController) signup(c *gin.Context) {
	var form SignupForm
	if err := c.ShouldBind(&form); err != nil {
		jsonError(c, entity.NewApiErrorCode(http.StatusBadRequest, "missing_params",
			"A name, password, email address and roles are required."))
		return
	}

	if err := a.opts.PopulateUser(c, &form); err != nil {
		jsonError(c, err)
		return
	}

	if form.Name == "" || form.Password == "" || form.Email == "" || len(form.Roles) == 0 {
		jsonError(c, entity.NewApiErrorCode(http.StatusBadRequest, "missing_params",
			"A name, password, email address and roles are required."))
		return
	}

	// Advisory lookup for a friendly error; the unique index is what makes
	// the insert race safe.
	if _, err := a.userService.GetByEmail(form.Email); err == nil {
		jsonError(c, emailExistsError())
		return
	} else if !database.IsNotFound(err) {
		jsonError(c, err)
		return
	}

	user := &model.User{
		Username: form.Name,
		Email:    form.Email,
		Roles:    form.Roles,
		Enabled:  form.Enabled == nil || *form.Enabled,
	}
	if err := a.userService.Create(user, form.Password); err != nil {
		if database.IsDuplicate(err) {
			jsonError(c, emailExistsError())
			return
		}
		jsonError(c, err)
		return
	}

	if a.opts.Verify {
		if err := a.sendVerification(c, user); err != nil {
			jsonError(c, err)
			return
		}
		jsonUser(c, a.redact(user))
		return
	}

	c.JSON(http.StatusOK, entity.Msg{Ok: true, Id: user.Id, User: a.redact(user)})
}

func emailExistsError() *entity.ApiError {
	return entity.NewApiErrorCode(http.StatusBadRequest, "email_already_exists",
		"A user with this email address already exists. Try resetting your password instead.")
}

func (a *UserController) signin(c *gin.Context) {
	var form SigninForm
	if err := c.ShouldBind(&form); err != nil || form.Name == "" || form.Password == "" {
		jsonError(c, apiError(http.StatusBadRequest, "A name, and password are required."))
		return
	}

	user := a.userService.CheckUser(form.Name, form.Password)
	if user == nil {
		logger.Warningf("failed signin for %q from %s", form.Name, getRemoteIp(c))
		jsonError(c, &entity.ApiError{
			Status:  http.StatusUnauthorized,
			Err:     "unauthorized",
			Message: "Name or password is incorrect.",
		})
		return
	}

	if a.opts.Verify && user.Verified == nil {
		jsonError(c, apiError(http.StatusUnauthorized,
			"You must verify your account before you can log in.  Please check your email (including spam folder) for more details."))
		return
	}

	if !user.Enabled {
		jsonError(c, disabledError())
		return
	}

	claims, err := a.opts.ValidateUser(c, user)
	if err != nil {
		var apiErr *entity.ApiError
		if e, ok := err.(*entity.ApiError); ok {
			apiErr = e
		} else {
			apiErr = &entity.ApiError{Message: err.Error()}
		}
		if apiErr.Status == 0 {
			apiErr.Status = http.StatusUnauthorized
		}
		if apiErr.Message == "" {
			apiErr.Message = "Invalid User Login"
		}
		if apiErr.Err == "" {
			apiErr.Err = "unauthorized"
		}
		jsonError(c, apiErr)
		return
	}

	session.Regenerate(c)
	if a.opts.SessionMaxAge > 0 {
		session.SetMaxAge(c, int(a.opts.SessionMaxAge/time.Second))
	}
	session.SetLoginUser(c, user)
	session.SetClaims(c, claims)
	if err := session.Save(c); err != nil {
		logger.Warning("Unable to save session:", err)
		jsonError(c, err)
		return
	}

	logger.Infof("%s signed in from %s", user.Username, getRemoteIp(c))
	jsonUser(c, a.redact(user))
}

func disabledError() *entity.ApiError {
	return entity.NewApiError(http.StatusForbidden,
		"Your account is no longer enabled.  Please contact an Administrator to enable your account.")
}

func (a *UserController) signout(c *gin.Context) {
	if err := session.ClearSession(c); err != nil {
		logger.Warning("Error destroying session during logout:", err)
	}
	jsonOK(c, "You have successfully logged out.")
}

func (a *UserController) forgot(c *gin.Context) {
	var form struct {
		Email string `json:"email" form:"email"`
	}
	if err := c.ShouldBind(&form); err != nil || form.Email == "" {
		jsonError(c, apiError(http.StatusBadRequest, "An email address is required."))
		return
	}

	user, err := a.userService.GetByEmail(form.Email)
	if err != nil {
		if database.IsNotFound(err) {
			// Kept at 500 for wire compatibility with existing clients.
			jsonError(c, apiError(http.StatusInternalServerError, "No user found with that email."))
			return
		}
		jsonError(c, err)
		return
	}

	if !user.Enabled {
		jsonError(c, disabledError())
		return
	}

	code, err := a.userService.IssueResetCode(user)
	if err != nil {
		jsonError(c, err)
		return
	}

	if !a.mailService.Configured() {
		jsonError(c, apiError(http.StatusInternalServerError, "Mail transport is not configured!"))
		return
	}

	app := a.appInfo(c)
	link := app.URL + a.prefix + "/code/" + code
	if err := a.mailService.Send(service.MailForgot, a.opts.GetEmailLocale(user, c), user, app, code, link); err != nil {
		jsonError(c, err)
		return
	}

	jsonOK(c, "forgot password link sent...")
}

func (a *UserController) resolveResetCode(c *gin.Context) {
	code := c.Param("code")
	if code == "" {
		jsonError(c, apiError(http.StatusInternalServerError, "You must provide a code parameter."))
		return
	}

	user, err := a.userService.GetByResetCode(code)
	if err != nil || a.userService.CodeExpired(user, a.opts.CodeTTL) {
		// Kept at 500 for wire compatibility with existing clients.
		jsonError(c, apiError(http.StatusInternalServerError, "Reset code is not valid."))
		return
	}

	jsonUser(c, a.redact(user))
}

func (a *UserController) reset(c *gin.Context) {
	var form struct {
		Code     string `json:"code" form:"code"`
		Password string `json:"password" form:"password"`
	}
	if err := c.ShouldBind(&form); err != nil || form.Code == "" || form.Password == "" {
		jsonError(c, apiError(http.StatusBadRequest, "A password and valid password reset code are required."))
		return
	}

	user, err := a.userService.GetByResetCode(form.Code)
	if err != nil || a.userService.CodeExpired(user, a.opts.CodeTTL) {
		// Kept at 500 for wire compatibility with existing clients.
		jsonError(c, apiError(http.StatusInternalServerError, "Not Found"))
		return
	}

	if err := a.userService.ResetPassword(user, form.Password); err != nil {
		jsonError(c, err)
		return
	}

	jsonUser(c, a.redact(user))
}

func (a *UserController) requestVerification(c *gin.Context) {
	var form struct {
		Email string `json:"email" form:"email"`
	}
	if err := c.ShouldBind(&form); err != nil || form.Email == "" {
		jsonError(c, apiError(http.StatusBadRequest,
			"An email address must be passed as part of the query string before a verification code can be sent."))
		return
	}

	user, err := a.userService.GetByEmail(form.Email)
	if err != nil {
		if database.IsNotFound(err) {
			jsonError(c, apiError(http.StatusNotFound, "No user found with the specified email address."))
			return
		}
		jsonError(c, err)
		return
	}

	if err := a.sendVerification(c, user); err != nil {
		jsonError(c, err)
		return
	}

	jsonOK(c, "Verification code sent...")
}

func (a *UserController) acceptVerification(c *gin.Context) {
	code := c.Param("code")
	if code == "" {
		jsonError(c, apiError(http.StatusBadRequest, "A verification code is required."))
		return
	}

	user, err := a.userService.GetByVerificationCode(code)
	if err != nil {
		if database.IsNotFound(err) {
			jsonError(c, apiError(http.StatusBadRequest, "Invalid verification code."))
			return
		}
		jsonError(c, err)
		return
	}

	if user.VerificationCode != code || a.userService.CodeExpired(user, a.opts.CodeTTL) {
		jsonError(c, apiError(http.StatusBadRequest,
			"The verification code you attempted to use does not match our records."))
		return
	}

	if err := a.opts.PopulateVerifiedUser(user); err != nil {
		jsonError(c, err)
		return
	}

	if err := a.userService.MarkVerified(user); err != nil {
		jsonError(c, err)
		return
	}

	jsonOK(c, "Account verified.")
}

func (a *UserController) current(c *gin.Context) {
	user := session.GetLoginUser(c)
	if user == nil {
		jsonError(c, apiError(http.StatusUnauthorized, "Not currently logged in."))
		return
	}
	jsonUser(c, a.redact(user))
}

func (a *UserController) get(c *gin.Context) {
	user, err := a.userService.GetByName(c.Param("name"))
	if err != nil {
		jsonError(c, err)
		return
	}
	jsonUser(c, a.redact(user))
}

func (a *UserController) update(c *gin.Context) {
	caller := session.GetLoginUser(c)
	targetName := c.Param("name")

	isAdmin := a.hasAdminPermission(caller)
	if a.opts.AdminRoles.Configured() && !isAdmin && caller.Username != targetName {
		jsonError(c, apiError(http.StatusForbidden, "You do not have permission to use this function."))
		return
	}

	var updates map[string]any
	if err := c.ShouldBindJSON(&updates); err != nil {
		jsonError(c, apiError(http.StatusBadRequest, "A JSON body is required."))
		return
	}

	user, err := a.userService.GetByName(targetName)
	if err != nil {
		jsonError(c, err)
		return
	}

	a.applyUpdates(user, updates, isAdmin)

	if err := a.userService.Save(user); err != nil {
		jsonError(c, err)
		return
	}

	// Self-edits refresh the session copy so /current stays accurate.
	if caller.Username == targetName {
		session.SetLoginUser(c, user)
		if err := session.Save(c); err != nil {
			logger.Warning("Unable to refresh session after update:", err)
		}
	}

	jsonUser(c, a.redact(user))
}

// applyUpdates applies the allow-listed subset of submitted fields. Role
// changes from non-admins are dropped with a log line, not rejected.
func (a *UserController) applyUpdates(user *model.User, updates map[string]any, isAdmin bool) {
	for _, field := range a.opts.SafeUserFields {
		value, submitted := updates[field]
		if !submitted {
			continue
		}
		switch field {
		case "name", "username":
			if s, ok := value.(string); ok && s != "" {
				user.Username = s
			}
		case "email":
			if s, ok := value.(string); ok && s != "" {
				user.Email = s
			}
		case "enabled":
			if b, ok := value.(bool); ok {
				user.Enabled = b
			}
		case "roles":
			if !isAdmin {
				logger.Warning("Stripped updated role information, non-admin users are not allowed to change roles.")
				continue
			}
			if roles, ok := toRoles(value); ok {
				user.Roles = roles
			}
		}
	}
}

func toRoles(value any) (model.Roles, bool) {
	items, ok := value.([]any)
	if !ok {
		return nil, false
	}
	roles := make(model.Roles, 0, len(items))
	for _, item := range items {
		s, ok := item.(string)
		if !ok {
			return nil, false
		}
		roles = append(roles, s)
	}
	return roles, true
}

func (a *UserController) delete(c *gin.Context) {
	caller := session.GetLoginUser(c)
	if a.opts.AdminRoles.Configured() && !a.hasAdminPermission(caller) {
		jsonError(c, apiError(http.StatusForbidden, "You do not have permission to use this function."))
		return
	}

	targetName := c.Param("name")
	user, err := a.userService.GetByName(targetName)
	if err != nil {
		jsonError(c, err)
		return
	}

	if err := a.userService.Delete(user); err != nil {
		jsonError(c, err)
		return
	}

	// Self-deletes also log the caller out.
	if caller.Username == targetName {
		if err := session.ClearSession(c); err != nil {
			logger.Warningf("Error destroying session for %s: %v", targetName, err)
		}
	}

	jsonOK(c, "User "+targetName+" deleted.")
}

func (a *UserController) create(c *gin.Context) {
	caller := session.GetLoginUser(c)
	if a.opts.AdminRoles.Configured() && !a.hasAdminPermission(caller) {
		jsonError(c, apiError(http.StatusForbidden, "You do not have permission to use this function."))
		return
	}

	var form SignupForm
	if err := c.ShouldBind(&form); err != nil || form.Name == "" || form.Password == "" {
		jsonError(c, entity.NewApiErrorCode(http.StatusBadRequest, "missing_params",
			"A name, password, email address and roles are required."))
		return
	}

	user := &model.User{
		Username: form.Name,
		Email:    form.Email,
		Roles:    form.Roles,
		Enabled:  form.Enabled == nil || *form.Enabled,
	}
	if err := a.userService.Create(user, form.Password); err != nil {
		if database.IsDuplicate(err) {
			jsonError(c, emailExistsError())
			return
		}
		jsonError(c, err)
		return
	}

	c.JSON(http.StatusOK, entity.Msg{Ok: true, Data: gin.H{"id": user.Id}})
}

func (a *UserController) list(c *gin.Context) {
	caller := session.GetLoginUser(c)
	if a.opts.AdminRoles.Configured() && !a.hasAdminPermission(caller) {
		jsonError(c, apiError(http.StatusForbidden, "You do not have permission to use this function."))
		return
	}

	rolesParam := c.Query("roles")
	if rolesParam == "" {
		jsonError(c, apiError(http.StatusBadRequest, "Roles are required!"))
		return
	}

	users, err := a.userService.ListByRoles(strings.Split(rolesParam, ","))
	if err != nil {
		jsonError(c, err)
		return
	}

	redacted := make([]map[string]any, 0, len(users))
	for i := range users {
		redacted = append(redacted, a.redact(&users[i]))
	}
	jsonUsers(c, redacted)
}
