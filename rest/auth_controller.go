package rest

import (
	"github.com/gofiber/fiber/v2"
	"github.com/goliatone/go-errors"

	"github.com/gemstone-system/gemauth"
	"github.com/gemstone-system/gemauth/middleware/authware"
)

// forgotPasswordMessage never varies with account existence.
const forgotPasswordMessage = "If your email is registered, you will receive password reset instructions."

// AuthController serves the public authentication endpoints.
type AuthController struct {
	svc       *gemauth.Service
	logger    gemauth.Logger
	cookies   CookieSettings
	passwords PasswordPolicy
}

type AuthControllerOption func(*AuthController)

func WithLogger(logger gemauth.Logger) AuthControllerOption {
	return func(a *AuthController) {
		if logger != nil {
			a.logger = logger
		}
	}
}

func WithCookieSettings(cs CookieSettings) AuthControllerOption {
	return func(a *AuthController) {
		a.cookies = cs
	}
}

func WithPasswordPolicy(policy PasswordPolicy) AuthControllerOption {
	return func(a *AuthController) {
		a.passwords = policy
	}
}

func NewAuthController(svc *gemauth.Service, opts ...AuthControllerOption) *AuthController {
	a := &AuthController{
		svc:    svc,
		logger: NopLogger{},
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Register handles POST /api/auth/register.
func (a *AuthController) Register(c *fiber.Ctx) error {
	payload := RegisterPayload{}
	if err := c.BodyParser(&payload); err != nil {
		return badBody(err)
	}
	if err := payload.Validate(a.passwords); err != nil {
		return err
	}

	user, tokens, err := a.svc.Register(c.UserContext(), gemauth.RegisterInput{
		Name:     payload.Name,
		Email:    payload.Email,
		Password: payload.Password,
		Phone:    optional(payload.Phone),
	})
	if err != nil {
		return err
	}

	a.cookies.setSessionCookies(c, tokens)

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"status":  "success",
		"message": "User registered successfully. Please check your email to verify your account.",
		"data": fiber.Map{
			"user":         user,
			"token":        tokens.AccessToken,
			"refreshToken": tokens.RefreshToken,
		},
	})
}

// RegisterProfessional handles POST /api/auth/register/professional.
func (a *AuthController) RegisterProfessional(c *fiber.Ctx) error {
	payload := RegisterProfessionalPayload{}
	if err := c.BodyParser(&payload); err != nil {
		return badBody(err)
	}
	if err := payload.Validate(a.passwords); err != nil {
		return err
	}

	user, tokens, err := a.svc.RegisterProfessional(c.UserContext(), gemauth.RegisterProfessionalInput{
		RegisterInput: gemauth.RegisterInput{
			Name:     payload.Name,
			Email:    payload.Email,
			Password: payload.Password,
			Phone:    optional(payload.Phone),
		},
		ProfessionalType:  gemauth.Role(payload.ProfessionalType),
		BusinessName:      payload.BusinessName,
		LicenseNumber:     optional(payload.LicenseNumber),
		YearsOfExperience: payload.YearsOfExperience,
	})
	if err != nil {
		return err
	}

	a.cookies.setSessionCookies(c, tokens)

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"status":  "success",
		"message": "Professional account registered. Please check your email to verify your account.",
		"data": fiber.Map{
			"user":         user,
			"token":        tokens.AccessToken,
			"refreshToken": tokens.RefreshToken,
		},
	})
}

// Login handles POST /api/auth/login.
func (a *AuthController) Login(c *fiber.Ctx) error {
	payload := LoginPayload{}
	if err := c.BodyParser(&payload); err != nil {
		return badBody(err)
	}
	if err := payload.Validate(); err != nil {
		return err
	}

	user, tokens, err := a.svc.Login(c.UserContext(), payload.Email, payload.Password)
	if err != nil {
		return err
	}

	a.cookies.setSessionCookies(c, tokens)

	return c.JSON(fiber.Map{
		"status":  "success",
		"message": "Login successful",
		"data": fiber.Map{
			"user":         user,
			"token":        tokens.AccessToken,
			"refreshToken": tokens.RefreshToken,
		},
	})
}

// Logout handles POST /api/auth/logout. Tokens are stateless so logout
// only clears the cookies.
func (a *AuthController) Logout(c *fiber.Ctx) error {
	a.cookies.clearSessionCookies(c)

	return c.JSON(fiber.Map{
		"status":  "success",
		"message": "Logged out successfully",
	})
}

// Me handles GET /api/auth/me, re-reading the account so the response
// reflects the current state, not the token snapshot.
func (a *AuthController) Me(c *fiber.Ctx) error {
	principal, ok := authware.PrincipalFrom(c)
	if !ok {
		return gemauth.ErrAuthenticationRequired
	}

	user, err := a.svc.CurrentUser(c.UserContext(), principal.UserID)
	if err != nil {
		return err
	}

	return c.JSON(fiber.Map{
		"status": "success",
		"data":   user,
	})
}

// Refresh handles POST /api/auth/refresh-token. The refresh token comes
// from the cookie when present, from the body otherwise.
func (a *AuthController) Refresh(c *fiber.Ctx) error {
	refreshToken := c.Cookies(RefreshCookieName)
	if refreshToken == "" {
		payload := RefreshPayload{}
		if err := c.BodyParser(&payload); err == nil {
			refreshToken = payload.RefreshToken
		}
	}

	if refreshToken == "" {
		return errors.New("Refresh token is required", errors.CategoryBadInput).
			WithCode(errors.CodeBadRequest)
	}

	tokens, err := a.svc.RefreshToken(c.UserContext(), refreshToken)
	if err != nil {
		return err
	}

	a.cookies.setSessionCookies(c, tokens)

	return c.JSON(fiber.Map{
		"status": "success",
		"data": fiber.Map{
			"token":        tokens.AccessToken,
			"refreshToken": tokens.RefreshToken,
		},
	})
}

// VerifyEmail handles POST /api/auth/verify-email.
func (a *AuthController) VerifyEmail(c *fiber.Ctx) error {
	payload := VerifyEmailPayload{}
	if err := c.BodyParser(&payload); err != nil {
		return badBody(err)
	}
	if err := payload.Validate(); err != nil {
		return err
	}

	if _, err := a.svc.VerifyEmail(c.UserContext(), payload.Token); err != nil {
		return err
	}

	return c.JSON(fiber.Map{
		"status":  "success",
		"message": "Email verified successfully. You can now log in.",
	})
}

// ForgotPassword handles POST /api/auth/forgot-password.
func (a *AuthController) ForgotPassword(c *fiber.Ctx) error {
	payload := ForgotPasswordPayload{}
	if err := c.BodyParser(&payload); err != nil {
		return badBody(err)
	}
	if err := payload.Validate(); err != nil {
		return err
	}

	if err := a.svc.ForgotPassword(c.UserContext(), payload.Email); err != nil {
		return err
	}

	return c.JSON(fiber.Map{
		"status":  "success",
		"message": forgotPasswordMessage,
	})
}

// ResetPassword handles POST /api/auth/reset-password.
func (a *AuthController) ResetPassword(c *fiber.Ctx) error {
	payload := ResetPasswordPayload{}
	if err := c.BodyParser(&payload); err != nil {
		return badBody(err)
	}
	if err := payload.Validate(a.passwords); err != nil {
		return err
	}

	if err := a.svc.ResetPassword(c.UserContext(), payload.Token, payload.NewPassword); err != nil {
		return err
	}

	return c.JSON(fiber.Map{
		"status":  "success",
		"message": "Password has been reset successfully. You can now log in with your new password.",
	})
}

// ChangePassword handles POST /api/auth/change-password.
func (a *AuthController) ChangePassword(c *fiber.Ctx) error {
	principal, ok := authware.PrincipalFrom(c)
	if !ok {
		return gemauth.ErrAuthenticationRequired
	}

	payload := ChangePasswordPayload{}
	if err := c.BodyParser(&payload); err != nil {
		return badBody(err)
	}
	if err := payload.Validate(a.passwords); err != nil {
		return err
	}

	err := a.svc.ChangePassword(c.UserContext(), principal.UserID, payload.CurrentPassword, payload.NewPassword)
	if err != nil {
		return err
	}

	return c.JSON(fiber.Map{
		"status":  "success",
		"message": "Password changed successfully.",
	})
}

func badBody(err error) error {
	return errors.Wrap(err, errors.CategoryBadInput, "Invalid request body").
		WithCode(errors.CodeBadRequest)
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
