// Package authware provides the fiber middleware that turns a signed
// session token into a request principal, plus the role and ownership
// guards built on top of it.
package authware

import (
	"github.com/gofiber/fiber/v2"

	"github.com/gemstone-system/gemauth"
)

// DefaultTokenLookup checks the Authorization header first and falls back
// to the session cookie.
const DefaultTokenLookup = "header:Authorization,cookie:token"

// DefaultContextKey is where the principal lands in fiber locals.
const DefaultContextKey = "principal"

// TokenValidator verifies a raw token and returns its claims. The access
// token service satisfies it.
type TokenValidator interface {
	Validate(token string) (*gemauth.SessionClaims, error)
}

// Config configures the session middleware.
type Config struct {
	// Validator is required.
	Validator TokenValidator

	// Filter skips the middleware when it returns true.
	Filter func(*fiber.Ctx) bool

	// SuccessHandler runs after the principal is attached. Defaults to
	// ctx.Next().
	SuccessHandler fiber.Handler

	// ErrorHandler runs on extraction or validation failure. Defaults to
	// returning the error so the app error handler renders it.
	ErrorHandler fiber.ErrorHandler

	// ContextKey is the fiber locals key for the principal.
	ContextKey string

	// TokenLookup is a comma separated list of sources in the form
	// "header:<name>", "cookie:<name>", "query:<name>", "param:<name>".
	TokenLookup string

	// AuthScheme is the expected header prefix, defaults to "Bearer".
	AuthScheme string
}

// New creates the session middleware. Requests without a valid access
// token never reach the wrapped handlers.
func New(config ...Config) fiber.Handler {
	cfg := configDefault(config...)

	return func(c *fiber.Ctx) error {
		if cfg.Filter != nil && cfg.Filter(c) {
			return c.Next()
		}

		raw, err := extractRawToken(c, cfg.extractors())
		if err != nil {
			return cfg.ErrorHandler(c, gemauth.ErrAuthenticationRequired)
		}

		claims, err := cfg.Validator.Validate(raw)
		if err != nil {
			return cfg.ErrorHandler(c, err)
		}

		principal, err := gemauth.PrincipalFromClaims(claims)
		if err != nil {
			return cfg.ErrorHandler(c, err)
		}

		c.Locals(cfg.ContextKey, principal)
		c.SetUserContext(gemauth.WithPrincipal(c.UserContext(), principal))

		return cfg.SuccessHandler(c)
	}
}

// PrincipalFrom finds the authenticated principal on a request. It checks
// fiber locals first, then the user context.
func PrincipalFrom(c *fiber.Ctx) (gemauth.Principal, bool) {
	if p, ok := c.Locals(DefaultContextKey).(gemauth.Principal); ok {
		return p, true
	}
	return gemauth.PrincipalFromContext(c.UserContext())
}

func configDefault(config ...Config) (cfg Config) {
	if len(config) > 0 {
		cfg = config[0]
	}

	if cfg.Validator == nil {
		panic("AUTH: session middleware configuration: Validator is required.")
	}

	if cfg.SuccessHandler == nil {
		cfg.SuccessHandler = func(c *fiber.Ctx) error {
			return c.Next()
		}
	}

	if cfg.ErrorHandler == nil {
		cfg.ErrorHandler = func(c *fiber.Ctx, err error) error {
			return err
		}
	}

	if cfg.ContextKey == "" {
		cfg.ContextKey = DefaultContextKey
	}

	if cfg.TokenLookup == "" {
		cfg.TokenLookup = DefaultTokenLookup
	}

	if cfg.AuthScheme == "" {
		cfg.AuthScheme = "Bearer"
	}

	return cfg
}

func (cfg *Config) extractors() []TokenExtractor {
	return GetExtractors(cfg.TokenLookup, cfg.AuthScheme)
}
