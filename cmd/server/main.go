// Package main implements the entry point for the UserVault API server,
// an account directory with token-based authentication and admin tooling.
package main

import (
	"context"
	"flag"
	"log"
	"os"

	"github.com/uservault/uservault-api/internal/config"
	"github.com/uservault/uservault-api/internal/platform/logger"
)

func main() {
	migrateOnly := flag.Bool("migrate", false, "apply pending migrations and exit")
	flag.Parse()

	if err := run(*migrateOnly); err != nil {
		log.Fatalf("Failed to start application: %v", err)
	}
}

// run loads configuration and wires the application together. Split from
// main so initialization failures surface as errors instead of os.Exit
// scattered through the setup path.
func run(migrateOnly bool) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	appLogger, err := logger.Setup(cfg.Server)
	if err != nil {
		return err
	}
	appLogger.Info("configuration loaded",
		"port", cfg.Server.Port,
		"log_level", cfg.Server.LogLevel)

	db, err := setupAppDatabase(cfg, appLogger)
	if err != nil {
		return err
	}

	if err := runMigrations(db, appLogger); err != nil {
		closeErr := db.Close()
		if closeErr != nil {
			appLogger.Error("failed to close database", "error", closeErr)
		}
		return err
	}
	if migrateOnly {
		appLogger.Info("migrations applied, exiting")
		return db.Close()
	}

	ctx := context.Background()
	app, err := newApplication(ctx, cfg, appLogger, db)
	if err != nil {
		closeErr := db.Close()
		if closeErr != nil {
			appLogger.Error("failed to close database", "error", closeErr)
		}
		return err
	}

	if err := app.Run(ctx); err != nil {
		appLogger.Error("server exited with error", "error", err)
		os.Exit(1)
	}
	return nil
}
