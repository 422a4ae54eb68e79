// Command server runs the questions API: HTTP transport, PostgreSQL storage,
// the tag validation cache and the outbox dispatcher that feeds downstream
// projections.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"

	"github.com/SFrisendal/overflow/internal/config"
	"github.com/SFrisendal/overflow/internal/platform/logger"
)

func main() {
	migrate := flag.String("migrate", "", "run migrations (up, down, status, version) and exit")
	flag.Parse()

	if err := run(*migrate); err != nil {
		fmt.Fprintf(os.Stderr, "server failed to start: %v\n", err)
		os.Exit(1)
	}
}

func run(migrateCommand string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	log, err := logger.Setup(cfg.Server)
	if err != nil {
		return fmt.Errorf("failed to set up logging: %w", err)
	}
	slog.SetDefault(log)

	ctx := context.Background()

	db, err := openDatabase(ctx, cfg.Database, log)
	if err != nil {
		return err
	}

	if migrateCommand != "" {
		defer func() {
			if err := db.Close(); err != nil {
				log.Error("failed to close database", "error", err)
			}
		}()
		return runMigrations(ctx, db, migrateCommand, log)
	}

	if err := runMigrations(ctx, db, "up", log); err != nil {
		if closeErr := db.Close(); closeErr != nil {
			log.Error("failed to close database", "error", closeErr)
		}
		return err
	}

	app, err := newApplication(ctx, cfg, log, db)
	if err != nil {
		if closeErr := db.Close(); closeErr != nil {
			log.Error("failed to close database", "error", closeErr)
		}
		return fmt.Errorf("failed to initialize application: %w", err)
	}

	return app.Run(ctx)
}
