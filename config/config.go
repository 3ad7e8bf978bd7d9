package config

import (
	"time"

	"github.com/gemstone-system/gemauth/mailer"
)

// App is the top level configuration of the auth server.
type App struct {
	Env        string `env:"APP_ENV" envDefault:"development"`
	Port       int    `env:"PORT" envDefault:"3000"`
	BaseURL    string `env:"BASE_URL" envDefault:"http://localhost:3000"`
	LogLevel   string `env:"LOG_LEVEL" envDefault:"info"`
	CORSOrigin string `env:"CORS_ORIGIN"`

	Database Database
	Auth     Auth
	Email    mailer.Config
}

// Database points the server at Postgres.
type Database struct {
	DSN     string `env:"DATABASE_URL,required"`
	Debug   bool   `env:"DATABASE_DEBUG" envDefault:"false"`
	MaxOpen int    `env:"DATABASE_MAX_OPEN" envDefault:"16"`
}

// Auth holds token signing and cookie parameters.
type Auth struct {
	JWTSecret         string        `env:"JWT_SECRET,required"`
	AccessTokenTTL    time.Duration `env:"ACCESS_TOKEN_TTL" envDefault:"24h"`
	RefreshTokenTTL   time.Duration `env:"REFRESH_TOKEN_TTL" envDefault:"168h"`
	Issuer            string        `env:"JWT_ISSUER" envDefault:"gemstone-system"`
	CookieDomain      string        `env:"COOKIE_DOMAIN"`
	PasswordMinLength int           `env:"PASSWORD_MIN_LENGTH" envDefault:"8"`
}

// IsProduction reports whether the server runs with production hardening,
// secure cookies and terse error bodies.
func (a App) IsProduction() bool {
	return a.Env == "production"
}

// IsDevelopment reports whether development conveniences are on.
func (a App) IsDevelopment() bool {
	return !a.IsProduction()
}
