package main

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/driver/pgdriver"
	"github.com/uptrace/bun/extra/bundebug"

	"github.com/gemstone-system/gemauth"
	"github.com/gemstone-system/gemauth/config"
	"github.com/gemstone-system/gemauth/mailer"
	"github.com/gemstone-system/gemauth/rest"
)

func main() {
	var cfg config.App
	config.MustLoad(&cfg)

	db := mustOpenDB(cfg)
	defer db.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	if err := gemauth.EnsureSchema(ctx, db); err != nil {
		cancel()
		log.Fatalf("schema bootstrap failed: %v", err)
	}
	cancel()

	repo := gemauth.NewRepositoryManager(db)
	repo.MustValidate()

	tokens, err := gemauth.NewTokenService(
		[]byte(cfg.Auth.JWTSecret),
		gemauth.WithTokenTTLs(cfg.Auth.AccessTokenTTL, cfg.Auth.RefreshTokenTTL),
		gemauth.WithTokenIssuer(cfg.Auth.Issuer),
	)
	if err != nil {
		log.Fatalf("token service init failed: %v", err)
	}

	svc := gemauth.NewService(repo, tokens, mailNotifier(cfg)).
		WithBaseURL(cfg.BaseURL)

	app := fiber.New(fiber.Config{
		AppName:      "gemstone-auth",
		ErrorHandler: rest.NewErrorHandler(nil, cfg.IsProduction()),
	})
	// Credentialed CORS needs an explicit origin, the wildcard default
	// stays cookie-less.
	corsCfg := cors.Config{}
	if cfg.CORSOrigin != "" {
		corsCfg.AllowOrigins = cfg.CORSOrigin
		corsCfg.AllowCredentials = true
	}
	app.Use(cors.New(corsCfg))

	rest.RegisterRoutes(app, rest.Deps{
		Service: svc,
		Repo:    repo,
		Tokens:  tokens,
		Cookies: rest.CookieSettings{
			Domain: cfg.Auth.CookieDomain,
			Secure: cfg.IsProduction(),
		},
		Passwords: rest.PasswordPolicy{
			MinLength: cfg.Auth.PasswordMinLength,
		},
	})

	go func() {
		if err := app.Listen(fmt.Sprintf(":%d", cfg.Port)); err != nil {
			log.Fatalf("server stopped: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("shutting down")
	if err := app.ShutdownWithTimeout(10 * time.Second); err != nil {
		log.Printf("shutdown error: %v", err)
	}
}

func mustOpenDB(cfg config.App) *bun.DB {
	sqldb := sql.OpenDB(pgdriver.NewConnector(pgdriver.WithDSN(cfg.Database.DSN)))
	sqldb.SetMaxOpenConns(cfg.Database.MaxOpen)

	db := bun.NewDB(sqldb, pgdialect.New())
	if cfg.Database.Debug {
		db.AddQueryHook(bundebug.NewQueryHook(bundebug.WithVerbose(true)))
	}

	if err := db.Ping(); err != nil {
		log.Fatalf("database unreachable: %v", err)
	}

	return db
}

// mailNotifier picks Postmark when tokens are configured, otherwise the
// file backed development sender.
func mailNotifier(cfg config.App) gemauth.Sender {
	if cfg.Email.PostmarkServerToken != "" && cfg.Email.PostmarkAccountToken != "" {
		sender, err := mailer.NewPostmarkClient(cfg.Email)
		if err != nil {
			log.Fatalf("mailer init failed: %v", err)
		}
		return mailer.NewNotifier(sender)
	}

	log.Println("no postmark tokens configured, writing emails to", cfg.Email.DevOutputDir)
	return mailer.NewNotifier(mailer.NewDevSender(cfg.Email.DevOutputDir))
}
