package userauth

import (
	"strings"

	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/go-ozzo/ozzo-validation/is"
	"github.com/goliatone/go-router"
	"github.com/google/uuid"
)

// RouteRegistrar captures the router methods used by the controller.
type RouteRegistrar interface {
	Get(path string, handler router.HandlerFunc, mw ...router.MiddlewareFunc) router.RouteInfo
	Post(path string, handler router.HandlerFunc, mw ...router.MiddlewareFunc) router.RouteInfo
	Put(path string, handler router.HandlerFunc, mw ...router.MiddlewareFunc) router.RouteInfo
}

// HTTPController exposes the account operations as a JSON API.
type HTTPController struct {
	Accounts *Accounts
	Roles    *RoleManager
	Logger   Logger
}

// HTTPControllerOption mutates the controller during construction.
type HTTPControllerOption func(*HTTPController) *HTTPController

// NewHTTPController builds the JSON controller.
func NewHTTPController(accounts *Accounts, roles *RoleManager, opts ...HTTPControllerOption) *HTTPController {
	c := &HTTPController{
		Accounts: accounts,
		Roles:    roles,
	}

	for _, opt := range opts {
		if opt != nil {
			c = opt(c)
		}
	}

	if c.Logger == nil {
		_, c.Logger = ResolveLogger("userauth.http", nil, nil)
	}

	if c.Accounts == nil {
		panic("Missing Accounts manager in http controller...")
	}

	return c
}

// WithControllerLogger sets the controller logger.
func WithControllerLogger(logger Logger) HTTPControllerOption {
	return func(c *HTTPController) *HTTPController {
		c.Logger = logger
		return c
	}
}

// RegisterRoutes mounts the account routes on the given registrar.
func (h *HTTPController) RegisterRoutes(group RouteRegistrar) {
	group.Post("/signup", h.Signup)
	group.Get("/activate", h.Activate)
	group.Post("/login", h.Login)
	group.Post("/session", h.RefreshSession)
	group.Post("/password", h.ChangePassword)
	group.Post("/password-reset", h.RequestPasswordReset)
	group.Post("/password-reset/complete", h.CompletePasswordReset)
	group.Put("/roles", h.SetRoles)
}

// SignupPayload is the registration request body.
type SignupPayload struct {
	FirstName string `form:"first_name" json:"first_name"`
	LastName  string `form:"last_name" json:"last_name"`
	Email     string `form:"email" json:"email"`
	Password  string `form:"password" json:"password"`
}

// Validate will run validation rules
func (r SignupPayload) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.FirstName, validation.Length(0, 200)),
		validation.Field(&r.LastName, validation.Length(0, 200)),
		validation.Field(&r.Email, validation.Required, validation.Length(6, 100), is.Email),
		validation.Field(&r.Password, validation.Required, validation.Length(8, 100)),
	)
}

func (h *HTTPController) Signup(ctx router.Context) error {
	payload := new(SignupPayload)

	if err := ctx.Bind(payload); err != nil {
		h.Logger.Error("signup parse payload", "error", err)
		return WriteValidationError(ctx, err)
	}

	if err := payload.Validate(); err != nil {
		return WriteValidationError(ctx, err)
	}

	result, err := h.Accounts.Signup(ctx.Context(), SignupMessage{
		Email:     payload.Email,
		Password:  payload.Password,
		FirstName: payload.FirstName,
		LastName:  payload.LastName,
	})
	if err != nil {
		return WriteError(ctx, err, h.Logger)
	}

	return ctx.JSON(router.StatusCreated, accountResponse(result))
}

func (h *HTTPController) Activate(ctx router.Context) error {
	rawID := ctx.Query("id", "")

	userID, err := uuid.Parse(rawID)
	if err != nil {
		return ctx.JSON(router.StatusBadRequest, map[string]string{
			"error": "activation requires a valid user id",
		})
	}

	result, err := h.Accounts.Activate(ctx.Context(), userID)
	if err != nil {
		return WriteError(ctx, err, h.Logger)
	}

	return ctx.JSON(router.StatusOK, accountResponse(result))
}

// LoginPayload is the credential request body.
type LoginPayload struct {
	Email    string `form:"email" json:"email"`
	Password string `form:"password" json:"password"`
}

// Validate will run validation rules
func (r LoginPayload) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Email, validation.Required, is.Email),
		validation.Field(&r.Password, validation.Required),
	)
}

func (h *HTTPController) Login(ctx router.Context) error {
	payload := new(LoginPayload)

	if err := ctx.Bind(payload); err != nil {
		h.Logger.Error("login parse payload", "error", err)
		return WriteValidationError(ctx, err)
	}

	if err := payload.Validate(); err != nil {
		return WriteValidationError(ctx, err)
	}

	result, err := h.Accounts.Login(ctx.Context(), payload.Email, payload.Password)
	if err != nil {
		return WriteError(ctx, err, h.Logger)
	}

	return ctx.JSON(router.StatusOK, map[string]any{
		"user":          result.User,
		"main_token":    result.MainToken,
		"session_token": result.SessionToken,
	})
}

func (h *HTTPController) RefreshSession(ctx router.Context) error {
	mainToken := bearerToken(ctx)
	if mainToken == "" {
		return ctx.JSON(router.StatusUnauthorized, map[string]string{
			"error": "missing bearer token",
		})
	}

	sessionToken, err := h.Accounts.RefreshSession(ctx.Context(), mainToken)
	if err != nil {
		return WriteError(ctx, err, h.Logger)
	}

	return ctx.JSON(router.StatusOK, map[string]string{
		"session_token": sessionToken,
	})
}

// ChangePasswordPayload carries the current and replacement passwords.
type ChangePasswordPayload struct {
	CurrentPassword string `form:"current_password" json:"current_password"`
	NewPassword     string `form:"new_password" json:"new_password"`
}

// Validate will run validation rules
func (r ChangePasswordPayload) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.CurrentPassword, validation.Required),
		validation.Field(&r.NewPassword, validation.Required, validation.Length(8, 100)),
	)
}

func (h *HTTPController) ChangePassword(ctx router.Context) error {
	mainToken := bearerToken(ctx)
	if mainToken == "" {
		return ctx.JSON(router.StatusUnauthorized, map[string]string{
			"error": "missing bearer token",
		})
	}

	claims, err := h.Accounts.Codec().VerifyMainToken(mainToken)
	if err != nil {
		return WriteError(ctx, err, h.Logger)
	}

	userID, err := uuid.Parse(claims.UserID())
	if err != nil {
		return ctx.JSON(router.StatusUnauthorized, map[string]string{
			"error": "token subject is not a valid user id",
		})
	}

	payload := new(ChangePasswordPayload)

	if err := ctx.Bind(payload); err != nil {
		h.Logger.Error("change password parse payload", "error", err)
		return WriteValidationError(ctx, err)
	}

	if err := payload.Validate(); err != nil {
		return WriteValidationError(ctx, err)
	}

	if err := h.Accounts.VerifyPassword(ctx.Context(), userID, payload.CurrentPassword); err != nil {
		return WriteError(ctx, err, h.Logger)
	}

	user, err := h.Accounts.ChangePassword(ctx.Context(), userID, payload.NewPassword)
	if err != nil {
		return WriteError(ctx, err, h.Logger)
	}

	return ctx.JSON(router.StatusOK, map[string]any{
		"user": user,
	})
}

// PasswordResetPayload carries the account email for recovery.
type PasswordResetPayload struct {
	Email string `form:"email" json:"email"`
}

// Validate will run validation rules
func (r PasswordResetPayload) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Email, validation.Required, is.Email),
	)
}

func (h *HTTPController) RequestPasswordReset(ctx router.Context) error {
	payload := new(PasswordResetPayload)

	if err := ctx.Bind(payload); err != nil {
		h.Logger.Error("password reset parse payload", "error", err)
		return WriteValidationError(ctx, err)
	}

	if err := payload.Validate(); err != nil {
		return WriteValidationError(ctx, err)
	}

	result, err := h.Accounts.RequestPasswordReset(ctx.Context(), payload.Email)
	if err != nil {
		return WriteError(ctx, err, h.Logger)
	}

	return ctx.JSON(router.StatusOK, accountResponse(result))
}

// CompleteResetPayload redeems a recovery token for a new password.
type CompleteResetPayload struct {
	Token       string `form:"token" json:"token"`
	NewPassword string `form:"new_password" json:"new_password"`
}

// Validate will run validation rules
func (r CompleteResetPayload) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Token, validation.Required),
		validation.Field(&r.NewPassword, validation.Required, validation.Length(8, 100)),
	)
}

func (h *HTTPController) CompletePasswordReset(ctx router.Context) error {
	payload := new(CompleteResetPayload)

	if err := ctx.Bind(payload); err != nil {
		h.Logger.Error("password reset complete parse payload", "error", err)
		return WriteValidationError(ctx, err)
	}

	if err := payload.Validate(); err != nil {
		return WriteValidationError(ctx, err)
	}

	user, err := h.Accounts.CompletePasswordReset(ctx.Context(), payload.Token, payload.NewPassword)
	if err != nil {
		return WriteError(ctx, err, h.Logger)
	}

	return ctx.JSON(router.StatusOK, map[string]any{
		"user": user,
	})
}

// SetRolesPayload replaces a user's role set.
type SetRolesPayload struct {
	UserID string   `form:"user_id" json:"user_id"`
	Roles  []string `form:"roles" json:"roles"`
}

// Validate will run validation rules
func (r SetRolesPayload) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.UserID, validation.Required, is.UUID),
		validation.Field(&r.Roles, validation.Required),
	)
}

func (h *HTTPController) SetRoles(ctx router.Context) error {
	if h.Roles == nil {
		return ctx.JSON(router.StatusNotFound, map[string]string{
			"error": "role management is not enabled",
		})
	}

	payload := new(SetRolesPayload)

	if err := ctx.Bind(payload); err != nil {
		h.Logger.Error("set roles parse payload", "error", err)
		return WriteValidationError(ctx, err)
	}

	if err := payload.Validate(); err != nil {
		return WriteValidationError(ctx, err)
	}

	userID, err := uuid.Parse(payload.UserID)
	if err != nil {
		return WriteValidationError(ctx, err)
	}

	user, err := h.Roles.SetRoles(ctx.Context(), userID, payload.Roles)
	if err != nil {
		return WriteError(ctx, err, h.Logger)
	}

	return ctx.JSON(router.StatusOK, map[string]any{
		"user": user,
	})
}

func accountResponse(result *AccountResult) map[string]any {
	body := map[string]any{
		"user": result.User,
	}
	if result.Warning != nil {
		body["warning"] = result.Warning.Error()
	}
	if len(result.Notifications) > 0 {
		body["notifications"] = result.Notifications
	}
	return body
}

func bearerToken(ctx router.Context) string {
	header := ctx.GetString("Authorization", "")
	if header == "" {
		return ""
	}

	const scheme = "Bearer"
	if len(header) > len(scheme) && strings.EqualFold(header[:len(scheme)], scheme) {
		return strings.TrimSpace(header[len(scheme):])
	}

	return ""
}
