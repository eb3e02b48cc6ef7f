// Package main runs the identity hub without a database, backed by the
// in-memory repositories and seeded with a small demo directory. Useful for
// development and for exploring the API; all data is lost on shutdown.
package main

import (
	"context"
	"log/slog"
	"os"

	"github.com/corpident/identity-hub/pkg/audit"
	"github.com/corpident/identity-hub/pkg/delegation"
	"github.com/corpident/identity-hub/pkg/directory"
	"github.com/corpident/identity-hub/pkg/login"
	"github.com/corpident/identity-hub/pkg/notification"
	"github.com/corpident/identity-hub/pkg/password"
	"github.com/corpident/identity-hub/pkg/permission"
	"github.com/corpident/identity-hub/pkg/tokengenerator"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/jwtauth/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/tendant/chi-demo/app"
)

const (
	jwtSecret = "inmem-dev-secret-change-in-production"
	baseURL   = "http://localhost:4000"
	issuer    = "identity-hub-dev"
)

func main() {
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	slog.Info("Starting in-memory identity hub (no database required)")

	directoryRepo := directory.NewInMemoryDirectoryRepository()
	auditRepo := audit.NewInMemoryAuditRepository()
	directoryRepo.SetAuditRefChecker(auditRepo.RefersTo)
	delegationRepo := delegation.NewInMemoryDelegationRepository(directoryRepo, auditRepo)

	notificationManager := notification.NewNotificationManager()
	notificationManager.RegisterNotifier(notification.EmailSystem, &notification.MockNotifier{})
	if err := notification.RegisterDefaultTemplates(notificationManager); err != nil {
		slog.Error("Failed registering notification templates", "err", err)
		os.Exit(-1)
	}

	jwtService := tokengenerator.NewJwtService(
		tokengenerator.WithDefaultTokenGenerator(
			tokengenerator.NewJwtTokenGenerator(jwtSecret, issuer, issuer)),
	)

	hasher := login.NewBcryptHasher()
	directoryService := directory.NewDirectoryService(directoryRepo)
	loginService := login.NewLoginService(directoryRepo, hasher, jwtService)
	resetTokens := password.NewResetTokenGenerator(jwtSecret, password.DefaultResetTokenTTL)
	passwordService := password.NewPasswordService(directoryRepo, hasher, resetTokens, notificationManager, baseURL)
	delegationService := delegation.NewDelegationService(directoryRepo, delegationRepo, auditRepo)

	seedDemoDirectory(directoryRepo, hasher)

	server := app.DefaultApp()
	app.RoutesHealthz(server.R)
	app.RoutesHealthzReady(server.R)

	loginHandle := login.NewHandle(loginService)
	passwordHandle := password.NewHandle(passwordService)
	delegationHandle := delegation.NewHandle(delegationService)
	directoryHandle := directory.NewHandle(directoryService, hasher)

	login.Routes(server.R, loginHandle)
	password.PublicRoutes(server.R, passwordHandle)
	server.R.Handle("/metrics", promhttp.Handler())

	tokenAuth := jwtauth.New("HS256", []byte(jwtSecret), nil)
	server.R.Group(func(r chi.Router) {
		r.Use(jwtauth.Verifier(tokenAuth))
		r.Use(jwtauth.Authenticator(tokenAuth))
		password.ProtectedRoutes(r, passwordHandle)
	})
	server.R.Group(func(r chi.Router) {
		r.Use(jwtauth.Verifier(tokenAuth))
		r.Use(jwtauth.Authenticator(tokenAuth))
		r.Use(login.RequireScopedToken)
		delegation.Routes(r, delegationHandle)
		permission.Routes(r)
		directory.Routes(r, directoryHandle)
	})

	slog.Info("Demo users ready", "manager", "mvaldez", "analyst", "vrojas", "password", "changeme123")
	server.Run()
}

// seedDemoDirectory provisions two companies, two areas, and a manager plus
// an analyst sharing the Finance area of Beta Logistics.
func seedDemoDirectory(repo *directory.InMemoryDirectoryRepository, hasher login.PasswordHasher) {
	ctx := context.Background()

	must := func(err error) {
		if err != nil {
			slog.Error("Failed seeding demo data", "err", err)
			os.Exit(-1)
		}
	}

	alfa, err := repo.CreateCompany(ctx, "Alfa Retail", "alfa")
	must(err)
	beta, err := repo.CreateCompany(ctx, "Beta Logistics", "beta")
	must(err)
	finance, err := repo.CreateArea(ctx, "Finance", "fin")
	must(err)

	managerRole, err := repo.CreateRole(ctx, directory.CreateRoleParams{
		Name:        "Finance Manager",
		Permissions: []string{"reports.view", "reports.export", "procurement.approve_order"},
		Profile:     &directory.RoleProfile{AreaID: finance.ID, Managerial: true},
	})
	must(err)
	analystRole, err := repo.CreateRole(ctx, directory.CreateRoleParams{
		Name:        "Finance Analyst",
		Permissions: []string{"reports.view", "procurement.access"},
		Profile:     &directory.RoleProfile{AreaID: finance.ID, Managerial: false},
	})
	must(err)
	chatbotRole, err := repo.CreateRole(ctx, directory.CreateRoleParams{
		Name:        "Chatbot User",
		Permissions: []string{"chatbot.access"},
	})
	must(err)

	hash, err := hasher.Hash("changeme123")
	must(err)

	manager, err := repo.CreateUser(ctx, directory.CreateUserParams{
		Username:     "mvaldez",
		Email:        "marcela.valdez@example.com",
		FirstName:    "Marcela",
		LastName:     "Valdez",
		PasswordHash: hash,
	})
	must(err)
	analyst, err := repo.CreateUser(ctx, directory.CreateUserParams{
		Username:     "vrojas",
		Email:        "valeria.rojas@example.com",
		FirstName:    "Valeria",
		LastName:     "Rojas",
		PasswordHash: hash,
	})
	must(err)

	_, err = repo.CreateMembership(ctx, directory.CreateMembershipParams{
		UserID: manager.ID, CompanyID: beta.ID, RoleID: managerRole.ID,
	})
	must(err)
	_, err = repo.CreateMembership(ctx, directory.CreateMembershipParams{
		UserID: analyst.ID, CompanyID: beta.ID, RoleID: analystRole.ID,
	})
	must(err)
	_, err = repo.CreateMembership(ctx, directory.CreateMembershipParams{
		UserID: analyst.ID, CompanyID: alfa.ID, RoleID: chatbotRole.ID,
	})
	must(err)
}
