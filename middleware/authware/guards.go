package authware

import (
	"context"

	"github.com/gofiber/fiber/v2"

	"github.com/gemstone-system/gemauth"
)

// OwnershipLookup loads the record named by a path id so its owner can be
// compared against the principal. Return a not found error for unknown ids.
type OwnershipLookup func(ctx context.Context, id string) (any, error)

// RequireRoles admits only principals whose role is in the allowed list.
// Admins get no implicit pass, include gemauth.RoleAdmin when they should.
func RequireRoles(roles ...gemauth.Role) fiber.Handler {
	allowed := make(map[gemauth.Role]struct{}, len(roles))
	for _, role := range roles {
		allowed[role] = struct{}{}
	}

	return func(c *fiber.Ctx) error {
		principal, ok := PrincipalFrom(c)
		if !ok {
			return gemauth.ErrAuthenticationRequired
		}

		if _, ok := allowed[principal.Role]; !ok {
			return gemauth.ErrInsufficientRole
		}

		return c.Next()
	}
}

// RequireOwner admits the owner of the record behind the :param path id,
// or an admin. The record is loaded before the admin check so missing ids
// stay a 404 for everyone.
func RequireOwner(param string, lookup OwnershipLookup) fiber.Handler {
	return func(c *fiber.Ctx) error {
		principal, ok := PrincipalFrom(c)
		if !ok {
			return gemauth.ErrAuthenticationRequired
		}

		id := c.Params(param)
		if id == "" {
			return gemauth.ErrMissingResourceID
		}

		record, err := lookup(c.UserContext(), id)
		if err != nil {
			return err
		}

		if principal.IsAdmin() {
			return c.Next()
		}

		if isOwner(record, principal) {
			return c.Next()
		}

		return gemauth.ErrNotResourceOwner
	}
}

// isOwner checks user_id style ownership first, then owner_id style.
func isOwner(record any, principal gemauth.Principal) bool {
	if owned, ok := record.(gemauth.UserOwned); ok {
		return owned.GetUserID() == principal.UserID
	}
	if owned, ok := record.(gemauth.OwnerOwned); ok {
		return owned.GetOwnerID() == principal.UserID
	}
	return false
}
