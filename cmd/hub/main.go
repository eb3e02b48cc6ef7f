package main

import (
	"context"
	"log/slog"
	"os"

	"github.com/corpident/identity-hub/pkg/audit"
	"github.com/corpident/identity-hub/pkg/config"
	"github.com/corpident/identity-hub/pkg/delegation"
	"github.com/corpident/identity-hub/pkg/directory"
	"github.com/corpident/identity-hub/pkg/login"
	"github.com/corpident/identity-hub/pkg/notification"
	"github.com/corpident/identity-hub/pkg/password"
	"github.com/corpident/identity-hub/pkg/permission"
	"github.com/corpident/identity-hub/pkg/tokengenerator"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/jwtauth/v5"
	"github.com/ilyakaznacheev/cleanenv"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/tendant/chi-demo/app"
	dbutils "github.com/tendant/db-utils/db"
)

func main() {
	// Load .env file when present; real deployments set the environment
	// directly.
	if err := godotenv.Load(); err != nil {
		slog.Debug("No .env file found")
	}

	cfg := config.Config{}
	if err := cleanenv.ReadEnv(&cfg); err != nil {
		slog.Error("Failed reading config", "err", err)
		os.Exit(-1)
	}

	server := app.DefaultApp()
	app.RoutesHealthz(server.R)
	app.RoutesHealthzReady(server.R)

	dbConfig := cfg.HubDbConfig.ToDbConfig()
	pool, err := dbutils.NewDbPool(context.Background(), dbConfig)
	if err != nil {
		slog.Error("Failed creating dbpool", "db", dbConfig.Database, "host", dbConfig.Host, "port", dbConfig.Port, "user", dbConfig.User)
		os.Exit(-1)
	}

	directoryRepo := directory.NewPostgresDirectoryRepository(pool)
	auditRepo := audit.NewPostgresAuditRepository(pool)
	delegationRepo := delegation.NewPostgresDelegationRepository(pool, auditRepo)

	// Notifications
	notificationManager := notification.NewNotificationManager()
	emailNotifier, err := notification.NewEmailNotifier(notification.SMTPConfig{
		Host:     cfg.EmailConfig.Host,
		Port:     cfg.EmailConfig.Port,
		TLS:      cfg.EmailConfig.TLS,
		Username: cfg.EmailConfig.Username,
		Password: cfg.EmailConfig.Password,
		From:     cfg.EmailConfig.From,
	})
	if err != nil {
		slog.Error("Failed creating email notifier", "err", err)
		os.Exit(-1)
	}
	notificationManager.RegisterNotifier(notification.EmailSystem, emailNotifier)
	if err := notification.RegisterDefaultTemplates(notificationManager); err != nil {
		slog.Error("Failed registering notification templates", "err", err)
		os.Exit(-1)
	}

	// Tokens
	jwtService := tokengenerator.NewJwtService(
		tokengenerator.WithDefaultTokenGenerator(
			tokengenerator.NewJwtTokenGenerator(cfg.JwtConfig.Secret, cfg.JwtConfig.Issuer, cfg.JwtConfig.Audience)),
		tokengenerator.WithAccessTokenExpiry(
			config.ParseDuration(cfg.JwtConfig.AccessTokenExpiry, tokengenerator.DefaultAccessTokenExpiry)),
		tokengenerator.WithTempTokenExpiry(
			config.ParseDuration(cfg.JwtConfig.TempTokenExpiry, tokengenerator.DefaultTempTokenExpiry)),
	)

	// Services
	hasher := login.NewBcryptHasher()
	directoryService := directory.NewDirectoryService(directoryRepo)
	loginService := login.NewLoginService(directoryRepo, hasher, jwtService)
	resetTokens := password.NewResetTokenGenerator(cfg.JwtConfig.Secret,
		config.ParseDuration(cfg.ResetConfig.ResetTokenTTL, password.DefaultResetTokenTTL))
	passwordService := password.NewPasswordService(directoryRepo, hasher, resetTokens, notificationManager, cfg.ResetConfig.BaseURL)
	delegationService := delegation.NewDelegationService(directoryRepo, delegationRepo, auditRepo)

	loginHandle := login.NewHandle(loginService)
	passwordHandle := password.NewHandle(passwordService)
	delegationHandle := delegation.NewHandle(delegationService)
	directoryHandle := directory.NewHandle(directoryService, hasher)

	// Public routes, throttled since they are the unauthenticated surface
	server.R.Group(func(r chi.Router) {
		r.Use(middleware.Throttle(cfg.RateLimitConfig.MaxConcurrent))
		login.Routes(r, loginHandle)
		password.PublicRoutes(r, passwordHandle)
	})
	server.R.Handle("/metrics", promhttp.Handler())

	// Password change accepts any authenticated token, so freshly provisioned
	// users can satisfy the mandatory change before selecting a company.
	tokenAuth := jwtauth.New("HS256", []byte(cfg.JwtConfig.Secret), nil)
	server.R.Group(func(r chi.Router) {
		r.Use(jwtauth.Verifier(tokenAuth))
		r.Use(jwtauth.Authenticator(tokenAuth))
		password.ProtectedRoutes(r, passwordHandle)
	})

	// Delegation, the catalog, and provisioning require a company-scoped
	// session
	server.R.Group(func(r chi.Router) {
		r.Use(jwtauth.Verifier(tokenAuth))
		r.Use(jwtauth.Authenticator(tokenAuth))
		r.Use(login.RequireScopedToken)
		delegation.Routes(r, delegationHandle)
		permission.Routes(r)
		directory.Routes(r, directoryHandle)
	})

	slog.Info("Starting identity hub", "issuer", cfg.JwtConfig.Issuer)
	server.Run()
}
