package identity

import (
	"errors"
	"fmt"
	"time"

	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/go-ozzo/ozzo-validation/is"
	"github.com/gofiber/fiber/v2"
	goerrors "github.com/goliatone/go-errors"
	"github.com/goliatone/go-print"
	"github.com/nyaruka/phonenumbers"

	"github.com/selvahq/go-identity/ratelimit"
)

type AuthControllerRoutes struct {
	Register       string
	Login          string
	Refresh        string
	Verify         string
	ForgotPassword string
	VerifyOtp      string
	ResetPassword  string
	AdminLogin     string
	AdminLogout    string
	AdminRefresh   string
}

// AuthController exposes the credential lifecycle over JSON. Regular users
// carry tokens as bearer payloads; admin endpoints bind them to cookies.
type AuthController struct {
	Debug    bool
	Logger   Logger
	Repo     RepositoryManager
	Auther   Authenticator
	Tokens   TokenService
	Notifier Notifier
	Config   Config
	Routes   *AuthControllerRoutes
	Limiter  ratelimit.Limiter
}

type AuthControllerOption func(*AuthController) *AuthController

func NewAuthController(opts ...AuthControllerOption) *AuthController {
	c := &AuthController{
		Logger: defLogger{},
		Routes: &AuthControllerRoutes{
			Register:       "/auth/users/register",
			Login:          "/auth/users/login",
			Refresh:        "/auth/users/refresh",
			Verify:         "/auth/users/verify",
			ForgotPassword: "/auth/common/forgot-password",
			VerifyOtp:      "/auth/common/verify-otp",
			ResetPassword:  "/auth/common/reset-password",
			AdminLogin:     "/auth/admin/login",
			AdminLogout:    "/auth/admin/logout",
			AdminRefresh:   "/auth/admin/refresh",
		},
	}

	for _, opt := range opts {
		c = opt(c)
	}

	if c.Repo == nil {
		panic("Missing RepositoryManager in auth controller...")
	}

	if c.Auther == nil {
		panic("Missing Authenticator in auth controller...")
	}

	if c.Tokens == nil {
		panic("Missing TokenService in auth controller...")
	}

	if c.Config == nil {
		panic("Missing Config in auth controller...")
	}

	if c.Notifier == nil {
		c.Notifier = NewLogNotifier(c.Logger)
	}

	return c
}

func WithControllerLogger(logger Logger) AuthControllerOption {
	return func(c *AuthController) *AuthController {
		if logger != nil {
			c.Logger = logger
		}
		return c
	}
}

func WithControllerRepo(repo RepositoryManager) AuthControllerOption {
	return func(c *AuthController) *AuthController {
		c.Repo = repo
		return c
	}
}

func WithControllerAuther(auther Authenticator) AuthControllerOption {
	return func(c *AuthController) *AuthController {
		c.Auther = auther
		return c
	}
}

func WithControllerTokens(tokens TokenService) AuthControllerOption {
	return func(c *AuthController) *AuthController {
		c.Tokens = tokens
		return c
	}
}

func WithControllerNotifier(notifier Notifier) AuthControllerOption {
	return func(c *AuthController) *AuthController {
		c.Notifier = notifier
		return c
	}
}

func WithControllerConfig(cfg Config) AuthControllerOption {
	return func(c *AuthController) *AuthController {
		c.Config = cfg
		return c
	}
}

func WithControllerLimiter(limiter ratelimit.Limiter) AuthControllerOption {
	return func(c *AuthController) *AuthController {
		c.Limiter = limiter
		return c
	}
}

func WithControllerDebug(debug bool) AuthControllerOption {
	return func(c *AuthController) *AuthController {
		c.Debug = debug
		return c
	}
}

// RegisterRoutes mounts every auth endpoint on the given router. Each
// endpoint category gets its own rate limit scope when a limiter is set.
func (a *AuthController) RegisterRoutes(app fiber.Router) {
	limit := func(scope string) fiber.Handler {
		if a.Limiter == nil {
			return func(c *fiber.Ctx) error { return c.Next() }
		}
		return ratelimit.Middleware(scope, a.Limiter)
	}

	app.Post(a.Routes.Register, limit(ratelimit.ScopeRegister), a.Register)
	app.Post(a.Routes.Login, limit(ratelimit.ScopeLogin), a.Login)
	app.Post(a.Routes.Refresh, limit(ratelimit.ScopeRefresh), a.Refresh)
	app.Post(a.Routes.Verify, limit(ratelimit.ScopeVerify), a.Verify)

	app.Post(a.Routes.ForgotPassword, limit(ratelimit.ScopeForgot), a.ForgotPassword)
	app.Post(a.Routes.VerifyOtp, limit(ratelimit.ScopeForgot), a.VerifyOtp)
	app.Patch(a.Routes.ResetPassword, limit(ratelimit.ScopeForgot), a.ResetPassword)

	app.Post(a.Routes.AdminLogin, limit(ratelimit.ScopeAdminLogin), a.AdminLogin)
	app.Post(a.Routes.AdminLogout, a.AdminLogout)
	app.Post(a.Routes.AdminRefresh, limit(ratelimit.ScopeRefresh), a.AdminRefresh)
}

// RegisterRequest payload
type RegisterRequest struct {
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Email     string `json:"email"`
	Phone     string `json:"phone"`
	Password  string `json:"password"`
}

// Validate will run validation rules
func (r RegisterRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.FirstName, validation.Required, validation.Length(1, 200)),
		validation.Field(&r.LastName, validation.Required, validation.Length(1, 200)),
		validation.Field(&r.Email, validation.Required, validation.Length(6, 100), is.Email),
		validation.Field(&r.Phone, validation.Required, validation.By(ValidatePhoneNumber)),
		validation.Field(&r.Password, validation.Required, validation.Length(8, 100)),
	)
}

func (a *AuthController) Register(c *fiber.Ctx) error {
	payload := new(RegisterRequest)

	if err := c.BodyParser(payload); err != nil {
		a.Logger.Error("register parse payload", "error", err)
		return a.parseError(c)
	}

	if err := payload.Validate(); err != nil {
		return a.validationError(c, err)
	}

	if a.Debug {
		fmt.Println("======= AUTH REGISTER ======")
		fmt.Println(print.MaybePrettyJSON(payload))
		fmt.Println("============================")
	}

	registerUser := NewRegisterUserHandler(a.Repo, a.Notifier, a.signingKey()).WithLogger(a.Logger)

	user, err := registerUser.Execute(c.UserContext(), RegisterUserMessage{
		FirstName: payload.FirstName,
		LastName:  payload.LastName,
		Email:     payload.Email,
		Phone:     payload.Phone,
		Password:  payload.Password,
	})
	if err != nil {
		return a.errorResponse(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"id":         user.ID,
		"email":      user.Email,
		"first_name": user.FirstName,
		"last_name":  user.LastName,
		"phone":      user.Phone,
	})
}

// LoginRequest payload
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Validate will run validation rules
func (r LoginRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Email, validation.Required, is.Email),
		validation.Field(&r.Password, validation.Required),
	)
}

func (a *AuthController) Login(c *fiber.Ctx) error {
	payload := new(LoginRequest)

	if err := c.BodyParser(payload); err != nil {
		a.Logger.Error("login parse payload", "error", err)
		return a.parseError(c)
	}

	if err := payload.Validate(); err != nil {
		return a.validationError(c, err)
	}

	pair, err := a.Auther.Login(c.UserContext(), payload.Email, payload.Password)
	if err != nil {
		return a.errorResponse(c, err)
	}

	return c.JSON(pair)
}

// RefreshRequest payload
type RefreshRequest struct {
	Refresh string `json:"refresh"`
}

// Validate will run validation rules
func (r RefreshRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Refresh, validation.Required),
	)
}

func (a *AuthController) Refresh(c *fiber.Ctx) error {
	payload := new(RefreshRequest)

	if err := c.BodyParser(payload); err != nil {
		a.Logger.Error("refresh parse payload", "error", err)
		return a.parseError(c)
	}

	if err := payload.Validate(); err != nil {
		return a.validationError(c, err)
	}

	pair, err := a.Auther.Refresh(c.UserContext(), payload.Refresh)
	if err != nil {
		return a.errorResponse(c, err)
	}

	return c.JSON(pair)
}

// VerifyRequest payload
type VerifyRequest struct {
	Token string `json:"token"`
}

// Validate will run validation rules
func (r VerifyRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Token, validation.Required),
	)
}

func (a *AuthController) Verify(c *fiber.Ctx) error {
	payload := new(VerifyRequest)

	if err := c.BodyParser(payload); err != nil {
		a.Logger.Error("verify parse payload", "error", err)
		return a.parseError(c)
	}

	if err := payload.Validate(); err != nil {
		return a.validationError(c, err)
	}

	verifyAccount := NewVerifyAccountHandler(a.Repo, a.signingKey())

	if err := verifyAccount.Execute(c.UserContext(), VerifyAccountMessage{Token: payload.Token}); err != nil {
		return a.errorResponse(c, err)
	}

	return c.JSON(fiber.Map{"message": "account verified"})
}

// ForgotPasswordRequest payload
type ForgotPasswordRequest struct {
	Email string `json:"email"`
}

// Validate will run validation rules
func (r ForgotPasswordRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Email, validation.Required, is.Email),
	)
}

func (a *AuthController) ForgotPassword(c *fiber.Ctx) error {
	payload := new(ForgotPasswordRequest)

	if err := c.BodyParser(payload); err != nil {
		a.Logger.Error("forgot password parse payload", "error", err)
		return a.parseError(c)
	}

	if err := payload.Validate(); err != nil {
		return a.validationError(c, err)
	}

	requestOtp := NewRequestOtpHandler(a.Repo, a.Notifier).WithLogger(a.Logger)

	if err := requestOtp.Execute(c.UserContext(), RequestOtpMessage{Email: payload.Email}); err != nil {
		return a.errorResponse(c, err)
	}

	return c.JSON(fiber.Map{"message": "passcode sent"})
}

// VerifyOtpRequest payload
type VerifyOtpRequest struct {
	Email string `json:"email"`
	Otp   string `json:"otp"`
}

// Validate will run validation rules
func (r VerifyOtpRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Email, validation.Required, is.Email),
		validation.Field(&r.Otp, validation.Required, validation.Length(OtpLength, OtpLength), is.Digit),
	)
}

func (a *AuthController) VerifyOtp(c *fiber.Ctx) error {
	payload := new(VerifyOtpRequest)

	if err := c.BodyParser(payload); err != nil {
		a.Logger.Error("verify otp parse payload", "error", err)
		return a.parseError(c)
	}

	if err := payload.Validate(); err != nil {
		return a.validationError(c, err)
	}

	verifyOtp := NewVerifyOtpHandler(a.Repo)

	if err := verifyOtp.Execute(c.UserContext(), VerifyOtpMessage{
		Email: payload.Email,
		Otp:   payload.Otp,
	}); err != nil {
		return a.errorResponse(c, err)
	}

	return c.JSON(fiber.Map{"message": "passcode verified"})
}

// ResetPasswordRequest payload
type ResetPasswordRequest struct {
	Email    string `json:"email"`
	Otp      string `json:"otp"`
	Password string `json:"password"`
}

// Validate will run validation rules
func (r ResetPasswordRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Email, validation.Required, is.Email),
		validation.Field(&r.Otp, validation.Required, validation.Length(OtpLength, OtpLength), is.Digit),
		validation.Field(&r.Password, validation.Required, validation.Length(8, 100)),
	)
}

func (a *AuthController) ResetPassword(c *fiber.Ctx) error {
	payload := new(ResetPasswordRequest)

	if err := c.BodyParser(payload); err != nil {
		a.Logger.Error("reset password parse payload", "error", err)
		return a.parseError(c)
	}

	if err := payload.Validate(); err != nil {
		return a.validationError(c, err)
	}

	resetPassword := NewResetPasswordHandler(a.Repo)

	if err := resetPassword.Execute(c.UserContext(), ResetPasswordMessage{
		Email:    payload.Email,
		Otp:      payload.Otp,
		Password: payload.Password,
	}); err != nil {
		return a.errorResponse(c, err)
	}

	return c.JSON(fiber.Map{"message": "password reset successful"})
}

func (a *AuthController) AdminLogin(c *fiber.Ctx) error {
	payload := new(LoginRequest)

	if err := c.BodyParser(payload); err != nil {
		a.Logger.Error("admin login parse payload", "error", err)
		return a.parseError(c)
	}

	if err := payload.Validate(); err != nil {
		return a.validationError(c, err)
	}

	pair, err := a.Auther.AdminLogin(c.UserContext(), payload.Email, payload.Password)
	if err != nil {
		return a.errorResponse(c, err)
	}

	a.setAuthCookies(c, pair)

	return c.JSON(fiber.Map{"message": "login successful"})
}

// AdminLogout revokes the refresh cookie when one is present and clears
// both cookies either way. A missing cookie is not an error.
func (a *AuthController) AdminLogout(c *fiber.Ctx) error {
	if refresh := c.Cookies(a.Config.GetRefreshCookieName()); refresh != "" {
		if err := a.Auther.Logout(c.UserContext(), refresh); err != nil {
			a.Logger.Warn("admin logout token revocation failed", "error", err)
		}
	}

	a.clearAuthCookies(c)

	return c.JSON(fiber.Map{"message": "logout successful"})
}

// AdminRefresh rotates the cookie-bound pair. It requires a valid access
// cookie carrying admin claims and a present refresh cookie.
func (a *AuthController) AdminRefresh(c *fiber.Ctx) error {
	access := c.Cookies(a.Config.GetAccessCookieName())
	refresh := c.Cookies(a.Config.GetRefreshCookieName())

	if access == "" || refresh == "" {
		return a.errorResponse(c, ErrMissingCredential)
	}

	claims, err := a.Tokens.ValidateAccess(access)
	if err != nil {
		return a.errorResponse(c, err)
	}

	if !claims.Admin() || !claims.Superuser() {
		return a.errorResponse(c, ErrAdminPrivilegeRequired)
	}

	// the refresh cookie must belong to the same account as the access
	// cookie, or a stolen refresh token would mint cookies for its owner
	refreshClaims, err := a.Tokens.ValidateRefresh(refresh)
	if err != nil {
		return a.errorResponse(c, err)
	}
	if refreshClaims.UserID() != claims.UserID() {
		return a.errorResponse(c, ErrTokenPairMismatch)
	}

	pair, err := a.Auther.Refresh(c.UserContext(), refresh)
	if err != nil {
		return a.errorResponse(c, err)
	}

	a.setAuthCookies(c, pair)

	return c.JSON(fiber.Map{"message": "token pair refreshed"})
}

func (a *AuthController) signingKey() []byte {
	return []byte(a.Config.GetSigningKey())
}

func (a *AuthController) setAuthCookies(c *fiber.Ctx, pair *TokenPair) {
	now := time.Now()
	a.setCookie(c, a.Config.GetAccessCookieName(), pair.Access, now.Add(a.Config.GetAccessTokenTTL()))
	a.setCookie(c, a.Config.GetRefreshCookieName(), pair.Refresh, now.Add(a.Config.GetRefreshTokenTTL()))
}

func (a *AuthController) clearAuthCookies(c *fiber.Ctx) {
	expired := time.Now().Add(-time.Hour * (24 * 365))
	a.setCookie(c, a.Config.GetAccessCookieName(), "", expired)
	a.setCookie(c, a.Config.GetRefreshCookieName(), "", expired)
}

func (a *AuthController) setCookie(c *fiber.Ctx, name, value string, expires time.Time) {
	c.Cookie(&fiber.Cookie{
		Name:     name,
		Value:    value,
		Expires:  expires,
		Path:     "/",
		Secure:   a.Config.GetCookieSecure(),
		HTTPOnly: a.Config.GetCookieHTTPOnly(),
		SameSite: a.Config.GetCookieSameSite(),
	})
}

func (a *AuthController) parseError(c *fiber.Ctx) error {
	return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
		"error": "failed to parse request body",
	})
}

func (a *AuthController) validationError(c *fiber.Ctx, err error) error {
	var fields validation.Errors
	if errors.As(err, &fields) {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error":  "validation failed",
			"fields": fields,
		})
	}

	return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
		"error": err.Error(),
	})
}

func (a *AuthController) errorResponse(c *fiber.Ctx, err error) error {
	var richErr *goerrors.Error
	if !goerrors.As(err, &richErr) {
		richErr = goerrors.Wrap(err, goerrors.CategoryInternal, "an unexpected server error occurred").
			WithCode(goerrors.CodeInternal)
	}

	status := richErr.Code
	if status == 0 {
		status = statusForError(richErr)
	}

	if status >= fiber.StatusInternalServerError {
		a.Logger.Error(
			"request failed",
			"error", richErr.Message,
			"category", richErr.Category,
			"path", c.OriginalURL(),
		)
		return c.Status(status).JSON(fiber.Map{
			"error": "internal server error",
		})
	}

	return c.Status(status).JSON(fiber.Map{
		"error":     richErr.Message,
		"text_code": richErr.TextCode,
	})
}

func statusForError(richErr *goerrors.Error) int {
	switch richErr.Category {
	case goerrors.CategoryAuth:
		return fiber.StatusUnauthorized
	case goerrors.CategoryAuthz:
		return fiber.StatusForbidden
	case goerrors.CategoryValidation, goerrors.CategoryBadInput, goerrors.CategoryConflict:
		return fiber.StatusBadRequest
	case goerrors.CategoryNotFound:
		return fiber.StatusNotFound
	case goerrors.CategoryRateLimit:
		return fiber.StatusTooManyRequests
	default:
		return fiber.StatusInternalServerError
	}
}

// ValidatePhoneNumber accepts E.164 numbers and US national formats. An
// empty value passes; pair with validation.Required when the field is
// mandatory.
func ValidatePhoneNumber(value any) error {
	s, _ := value.(string)
	if s == "" {
		return nil
	}

	num, err := phonenumbers.Parse(s, "US")
	if err != nil {
		return errors.New("must be a valid phone number")
	}

	if !phonenumbers.IsValidNumber(num) {
		return errors.New("must be a valid phone number")
	}

	return nil
}
