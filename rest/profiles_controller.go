package rest

import (
	"context"

	"github.com/gofiber/fiber/v2"
	"github.com/goliatone/go-errors"
	"github.com/goliatone/go-repository-bun"

	"github.com/gemstone-system/gemauth"
	"github.com/gemstone-system/gemauth/middleware/authware"
)

// ProfileController serves professional profiles to their owners.
type ProfileController struct {
	repo gemauth.RepositoryManager
}

func NewProfileController(repo gemauth.RepositoryManager) *ProfileController {
	return &ProfileController{repo: repo}
}

// Mine handles GET /api/professional-profiles/me.
func (p *ProfileController) Mine(c *fiber.Ctx) error {
	principal, ok := authware.PrincipalFrom(c)
	if !ok {
		return gemauth.ErrAuthenticationRequired
	}

	profile, err := p.repo.Professionals().GetByUserID(c.UserContext(), principal.UserID)
	if err != nil {
		if repository.IsRecordNotFound(err) {
			return profileNotFound()
		}
		return gemauth.TranslateStorageError(err)
	}

	return c.JSON(fiber.Map{
		"status": "success",
		"data":   profile,
	})
}

// Show handles GET /api/professional-profiles/:id. The ownership guard in
// front of it has already loaded and checked the record, this handler only
// renders it.
func (p *ProfileController) Show(c *fiber.Ctx) error {
	profile, err := p.repo.Professionals().GetByID(c.UserContext(), c.Params("id"))
	if err != nil {
		if repository.IsRecordNotFound(err) {
			return profileNotFound()
		}
		return gemauth.TranslateStorageError(err)
	}

	return c.JSON(fiber.Map{
		"status": "success",
		"data":   profile,
	})
}

// ProfileLookup adapts the profiles repository to the ownership guard.
func ProfileLookup(repo gemauth.RepositoryManager) authware.OwnershipLookup {
	return func(ctx context.Context, id string) (any, error) {
		profile, err := repo.Professionals().GetByID(ctx, id)
		if err != nil {
			if repository.IsRecordNotFound(err) {
				return nil, profileNotFound()
			}
			return nil, gemauth.TranslateStorageError(err)
		}
		return profile, nil
	}
}

func profileNotFound() error {
	return errors.New("Professional profile not found", errors.CategoryNotFound).
		WithCode(errors.CodeNotFound)
}
