package rest

import (
	"github.com/gofiber/fiber/v2"

	"github.com/gemstone-system/gemauth"
	"github.com/gemstone-system/gemauth/middleware/authware"
)

// Deps bundles everything the HTTP surface needs.
type Deps struct {
	Service   *gemauth.Service
	Repo      gemauth.RepositoryManager
	Tokens    gemauth.TokenService
	Logger    gemauth.Logger
	Cookies   CookieSettings
	Passwords PasswordPolicy
}

// RegisterRoutes mounts the public auth API, the owner scoped profile
// routes, and the admin surface.
func RegisterRoutes(app *fiber.App, deps Deps) {
	authCtrl := NewAuthController(deps.Service,
		WithLogger(deps.Logger),
		WithCookieSettings(deps.Cookies),
		WithPasswordPolicy(deps.Passwords),
	)
	adminCtrl := NewAdminController(deps.Service, deps.Repo,
		WithLogger(deps.Logger),
		WithCookieSettings(deps.Cookies),
	)
	profileCtrl := NewProfileController(deps.Repo)

	session := authware.New(authware.Config{
		Validator:   deps.Tokens,
		TokenLookup: "header:Authorization,cookie:" + SessionCookieName,
	})
	adminSession := authware.New(authware.Config{
		Validator:   deps.Tokens,
		TokenLookup: "header:Authorization,cookie:" + AdminCookieName,
	})

	auth := app.Group("/api/auth")
	auth.Post("/register", authCtrl.Register)
	auth.Post("/register/professional", authCtrl.RegisterProfessional)
	auth.Post("/login", authCtrl.Login)
	auth.Post("/forgot-password", authCtrl.ForgotPassword)
	auth.Post("/reset-password", authCtrl.ResetPassword)
	auth.Post("/verify-email", authCtrl.VerifyEmail)
	auth.Post("/refresh-token", authCtrl.Refresh)
	auth.Get("/me", session, authCtrl.Me)
	auth.Post("/change-password", session, authCtrl.ChangePassword)
	auth.Post("/logout", session, authCtrl.Logout)

	profiles := app.Group("/api/professional-profiles", session)
	profiles.Get("/me", profileCtrl.Mine)
	profiles.Get("/:id", authware.RequireOwner("id", ProfileLookup(deps.Repo)), profileCtrl.Show)

	admin := app.Group("/admin")
	admin.Post("/auth/login", adminCtrl.Login)
	admin.Post("/auth/logout", adminCtrl.Logout)

	review := admin.Group("/professional-profiles", adminSession, authware.RequireRoles(gemauth.RoleAdmin))
	review.Get("/pending", adminCtrl.ListPendingProfiles)
	review.Patch("/:id", adminCtrl.ReviewProfile)
}
