package rest

import (
	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/gofiber/fiber/v2"

	"github.com/gemstone-system/gemauth"
)

// AdminController serves the admin session endpoints and the profile
// review actions. Admin sessions live in their own cookie scoped to the
// /admin path so a leaked storefront session never grants admin access.
type AdminController struct {
	svc     *gemauth.Service
	repo    gemauth.RepositoryManager
	logger  gemauth.Logger
	cookies CookieSettings
}

func NewAdminController(svc *gemauth.Service, repo gemauth.RepositoryManager, opts ...AuthControllerOption) *AdminController {
	base := &AuthController{logger: NopLogger{}}
	for _, opt := range opts {
		opt(base)
	}

	return &AdminController{
		svc:     svc,
		repo:    repo,
		logger:  base.logger,
		cookies: base.cookies,
	}
}

// Login handles POST /admin/auth/login. Non admin credentials fail the
// same way wrong passwords do.
func (a *AdminController) Login(c *fiber.Ctx) error {
	payload := LoginPayload{}
	if err := c.BodyParser(&payload); err != nil {
		return badBody(err)
	}
	if err := payload.Validate(); err != nil {
		return err
	}

	user, tokens, err := a.svc.LoginAdmin(c.UserContext(), payload.Email, payload.Password)
	if err != nil {
		return err
	}

	a.cookies.setAdminCookie(c, tokens.AccessToken)

	return c.JSON(fiber.Map{
		"status":  "success",
		"message": "Login successful",
		"data": fiber.Map{
			"user":  user,
			"token": tokens.AccessToken,
		},
	})
}

// Logout handles POST /admin/auth/logout.
func (a *AdminController) Logout(c *fiber.Ctx) error {
	a.cookies.clearAdminCookie(c)

	return c.JSON(fiber.Map{
		"status":  "success",
		"message": "Logged out successfully",
	})
}

type reviewProfilePayload struct {
	Status string `json:"status"`
}

func (r reviewProfilePayload) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Status,
			validation.Required,
			validation.In(
				string(gemauth.VerificationVerified),
				string(gemauth.VerificationRejected),
				string(gemauth.VerificationPending),
			),
		),
	)
}

// ReviewProfile handles PATCH /admin/professional-profiles/:id, moving a
// profile through the review states.
func (a *AdminController) ReviewProfile(c *fiber.Ctx) error {
	payload := reviewProfilePayload{}
	if err := c.BodyParser(&payload); err != nil {
		return badBody(err)
	}
	if err := payload.Validate(); err != nil {
		return err
	}

	profile, err := a.repo.Professionals().GetByID(c.UserContext(), c.Params("id"))
	if err != nil {
		return gemauth.TranslateStorageError(err)
	}

	profile, err = a.repo.Professionals().SetVerificationStatus(
		c.UserContext(),
		profile.ID,
		gemauth.VerificationStatus(payload.Status),
	)
	if err != nil {
		return gemauth.TranslateStorageError(err)
	}

	a.logger.Info("profile %s moved to %s", profile.ID, profile.VerificationStatus)

	return c.JSON(fiber.Map{
		"status": "success",
		"data":   profile,
	})
}

// ListPendingProfiles handles GET /admin/professional-profiles/pending,
// the queue admins review.
func (a *AdminController) ListPendingProfiles(c *fiber.Ctx) error {
	profiles, err := a.repo.Professionals().ListByStatus(c.UserContext(), gemauth.VerificationPending)
	if err != nil {
		return gemauth.TranslateStorageError(err)
	}

	return c.JSON(fiber.Map{
		"status": "success",
		"data":   profiles,
	})
}
