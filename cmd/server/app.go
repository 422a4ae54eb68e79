package main

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	"github.com/SFrisendal/overflow/internal/api"
	"github.com/SFrisendal/overflow/internal/api/middleware"
	"github.com/SFrisendal/overflow/internal/config"
	"github.com/SFrisendal/overflow/internal/events"
	"github.com/SFrisendal/overflow/internal/outbox"
	"github.com/SFrisendal/overflow/internal/platform/postgres"
	"github.com/SFrisendal/overflow/internal/search"
	"github.com/SFrisendal/overflow/internal/service"
	"github.com/SFrisendal/overflow/internal/service/auth"
	"github.com/SFrisendal/overflow/internal/tags"
)

// application holds the assembled components of the running server.
type application struct {
	config *config.Config
	logger *slog.Logger
	db     *sql.DB

	tagCache    *tags.ValidationCache
	searchIndex *search.Projection
	dispatcher  *outbox.Dispatcher

	authHandler     *api.AuthHandler
	questionHandler *api.QuestionHandler
	authMiddleware  *middleware.AuthMiddleware
}

// newApplication wires every component together. The outbox dispatcher is
// constructed but not started; Run starts and stops it around the HTTP server.
func newApplication(ctx context.Context, cfg *config.Config, log *slog.Logger, db *sql.DB) (*application, error) {
	userStore := postgres.NewPostgresUserStore(db, log)
	questionStore := postgres.NewPostgresQuestionStore(db, log)
	outboxStore := postgres.NewPostgresOutboxStore(db, log)
	tagStore := postgres.NewPostgresTagStore(db, log)

	tagCache := tags.NewValidationCache(
		tagStore,
		time.Duration(cfg.Tags.CacheTTLMinutes)*time.Minute,
		log,
	)
	if err := tagCache.Refresh(ctx); err != nil {
		// Tag validation refuses writes until a snapshot exists; reads and
		// authentication still work, so start anyway and let a later
		// validation retry the load.
		log.Warn("tag catalog unavailable at startup", "error", err)
	}

	bus := events.NewBus(log)
	searchIndex := search.NewProjection(log)
	bus.Subscribe(searchIndex)

	publisher := events.NewRetryingPublisher(bus, events.RetryConfig{
		MaxRetries: cfg.Outbox.MaxRetries,
	}, log)

	dispatcher := outbox.NewDispatcher(outboxStore, publisher, outbox.DispatcherConfig{
		PollInterval: time.Duration(cfg.Outbox.PollIntervalSeconds) * time.Second,
		BatchSize:    cfg.Outbox.BatchSize,
	}, log)

	jwtService, err := auth.NewJWTService(cfg.Auth)
	if err != nil {
		return nil, fmt.Errorf("failed to create JWT service: %w", err)
	}
	hasher := auth.NewBcryptHasher(0)

	questionService, err := service.NewQuestionService(
		db, questionStore, outboxStore, tagCache, dispatcher, log)
	if err != nil {
		return nil, fmt.Errorf("failed to create question service: %w", err)
	}

	return &application{
		config:          cfg,
		logger:          log,
		db:              db,
		tagCache:        tagCache,
		searchIndex:     searchIndex,
		dispatcher:      dispatcher,
		authHandler:     api.NewAuthHandler(userStore, jwtService, hasher, hasher, log),
		questionHandler: api.NewQuestionHandler(questionService, log),
		authMiddleware:  middleware.NewAuthMiddleware(jwtService),
	}, nil
}

// Run starts the outbox dispatcher and the HTTP server, blocks until
// shutdown, then releases every resource the application holds.
func (app *application) Run(ctx context.Context) error {
	app.dispatcher.Start()

	router := app.setupRouter()
	err := startHTTPServer(ctx, app.config.Server, router, app.logger)

	app.cleanup()
	return err
}

// cleanup drains the dispatcher and closes the database.
func (app *application) cleanup() {
	app.dispatcher.Stop()

	// One final sweep so events committed during shutdown still go out.
	sweepCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	app.dispatcher.Sweep(sweepCtx)

	if err := app.db.Close(); err != nil {
		app.logger.Error("failed to close database", "error", err)
	}
	app.logger.Info("application shut down")
}
