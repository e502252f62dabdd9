package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/uservault/uservault-api/internal/config"
	"github.com/uservault/uservault-api/internal/domain"
	"github.com/uservault/uservault-api/internal/platform/postgres"
	"github.com/uservault/uservault-api/internal/service"
	"github.com/uservault/uservault-api/internal/service/auth"
	"github.com/uservault/uservault-api/internal/store"
)

// application holds all the shared application dependencies to simplify
// management and ensure proper cleanup on shutdown.
type application struct {
	config *config.Config
	logger *slog.Logger
	db     *sql.DB

	accountStore store.AccountStore

	jwtService     auth.JWTService
	passwordHasher auth.PasswordHasher
	accountService service.AccountService
}

// newApplication creates a new application instance with all dependencies
// initialized. Core dependencies (config, logger, database) must be
// established before application initialization.
func newApplication(
	ctx context.Context,
	cfg *config.Config,
	logger *slog.Logger,
	db *sql.DB,
) (*application, error) {
	app := &application{
		config: cfg,
		logger: logger,
		db:     db,
	}

	var err error
	app.jwtService, err = auth.NewJWTService(cfg.Auth)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize JWT service: %w", err)
	}
	logger.Info("JWT authentication service initialized",
		"token_lifetime_minutes", cfg.Auth.TokenLifetimeMinutes)

	app.passwordHasher = auth.NewBcryptHasher(bcrypt.DefaultCost)

	app.accountStore = postgres.NewPostgresAccountStore(db, logger)

	app.accountService = service.NewAccountService(
		app.accountStore,
		db,
		app.passwordHasher,
		logger,
	)

	if err := app.bootstrapAdmin(ctx); err != nil {
		return nil, fmt.Errorf("failed to bootstrap admin account: %w", err)
	}

	logger.Info("Application initialized successfully")
	return app, nil
}

// bootstrapAdmin creates the initial admin account when none exists yet.
// Without it a fresh deployment has no way to mint the first token. The
// account is only created when a bootstrap password is configured.
func (app *application) bootstrapAdmin(ctx context.Context) error {
	_, err := app.accountStore.GetByLogin(ctx, "admin")
	if err == nil {
		return nil
	}
	if !errors.Is(err, store.ErrAccountNotFound) {
		return err
	}

	if app.config.Auth.BootstrapAdminPassword == "" {
		app.logger.Warn("no admin account exists and no bootstrap password configured")
		return nil
	}

	_, err = app.accountService.Create(ctx, service.CreateAccountParams{
		Login:    "admin",
		Password: app.config.Auth.BootstrapAdminPassword,
		Name:     "Administrator",
		Admin:    true,
	}, "system")
	if err != nil {
		if errors.Is(err, service.ErrLoginTaken) {
			// Another instance won the race.
			return nil
		}
		if domain.IsValidationError(err) {
			return fmt.Errorf("bootstrap admin password rejected: %w", err)
		}
		return err
	}

	app.logger.Info("bootstrap admin account created", "login", "admin")
	return nil
}

// Run starts the application server, handling lifecycle and cleanup.
func (app *application) Run(ctx context.Context) error {
	router := app.setupRouter()

	if err := app.startHTTPServer(ctx, router); err != nil {
		return fmt.Errorf("server error: %w", err)
	}
	return nil
}

// tokenLifetime returns the configured access token lifetime.
func (app *application) tokenLifetime() time.Duration {
	return time.Duration(app.config.Auth.TokenLifetimeMinutes) * time.Minute
}

// cleanup handles graceful shutdown of application resources.
func (app *application) cleanup() {
	if app.db != nil {
		if err := app.db.Close(); err != nil {
			app.logger.Error("Error closing database connection", "error", err)
		}
	}
	app.logger.Info("Application shutdown completed")
}
