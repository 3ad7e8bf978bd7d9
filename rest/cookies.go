package rest

import (
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/gemstone-system/gemauth"
)

// Cookie names shared between the session middleware and the handlers.
const (
	SessionCookieName = "token"
	RefreshCookieName = "refreshToken"
	AdminCookieName   = "adminToken"
)

const cookieDuration = 7 * 24 * time.Hour

// CookieSettings carries the environment dependent cookie flags.
type CookieSettings struct {
	Domain string
	// Secure should be on everywhere TLS terminates, so everywhere but
	// local development.
	Secure bool
}

func (cs CookieSettings) set(c *fiber.Ctx, name, value, path string, duration time.Duration) {
	c.Cookie(&fiber.Cookie{
		Name:     name,
		Value:    value,
		Path:     path,
		Domain:   cs.Domain,
		Expires:  time.Now().Add(duration),
		HTTPOnly: true,
		Secure:   cs.Secure,
		SameSite: fiber.CookieSameSiteStrictMode,
	})
}

func (cs CookieSettings) clear(c *fiber.Ctx, name, path string) {
	c.Cookie(&fiber.Cookie{
		Name:     name,
		Value:    "",
		Path:     path,
		Domain:   cs.Domain,
		Expires:  time.Now().Add(-time.Hour * 24 * 365),
		HTTPOnly: true,
		Secure:   cs.Secure,
		SameSite: fiber.CookieSameSiteStrictMode,
	})
}

// setSessionCookies mirrors the token pair into cookies for browser
// clients. API clients keep using the JSON body.
func (cs CookieSettings) setSessionCookies(c *fiber.Ctx, tokens *gemauth.Tokens) {
	cs.set(c, SessionCookieName, tokens.AccessToken, "/", cookieDuration)
	cs.set(c, RefreshCookieName, tokens.RefreshToken, "/", cookieDuration)
}

func (cs CookieSettings) clearSessionCookies(c *fiber.Ctx) {
	cs.clear(c, SessionCookieName, "/")
	cs.clear(c, RefreshCookieName, "/")
}

// setAdminCookie scopes the admin session to the admin surface only.
func (cs CookieSettings) setAdminCookie(c *fiber.Ctx, token string) {
	cs.set(c, AdminCookieName, token, "/admin", cookieDuration)
}

func (cs CookieSettings) clearAdminCookie(c *fiber.Ctx) {
	cs.clear(c, AdminCookieName, "/admin")
}
