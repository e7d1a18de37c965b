// Package app wires configuration into the stores, the remote source and the
// services shared by the syncer and server binaries.
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"

	"hn_reader/internal/cache"
	"hn_reader/internal/config"
	"hn_reader/internal/domain"
	"hn_reader/internal/publisher"
	"hn_reader/internal/service"
	"hn_reader/internal/source/hn"
	"hn_reader/internal/storage/postgres"
)

type App struct {
	DB     *sqlx.DB
	Source *hn.Source
	Sync   *service.SyncService
	Feed   *service.FeedService

	publisher *publisher.RabbitMQ
}

// New connects to the database, applies migrations and builds the services.
// The publisher is only connected when rabbitmq.enabled is set.
func New(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*App, error) {
	db, err := sqlx.ConnectContext(ctx, "postgres", cfg.Database.DSN())
	if err != nil {
		return nil, fmt.Errorf("connect to database: %w", err)
	}
	logger.Info("connected to database")

	if err := postgres.Migrate(ctx, db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	a := &App{DB: db}

	// a nil *RabbitMQ must not reach the service as a non-nil interface
	var pub service.Publisher
	if cfg.RabbitMQ.Enabled {
		a.publisher, err = publisher.NewRabbitMQ(publisher.Config{
			URL:        cfg.RabbitMQ.URL,
			Exchange:   cfg.RabbitMQ.Exchange,
			RoutingKey: cfg.RabbitMQ.RoutingKey,
			QueueName:  cfg.RabbitMQ.QueueName,
		}, logger)
		if err != nil {
			_ = db.Close()
			return nil, err
		}
		pub = a.publisher
	}

	storyStore := postgres.NewStoryStore(db)
	commentStore := postgres.NewCommentStore(db)

	a.Source = hn.New(hn.Config{
		BaseURL:   cfg.API.BaseURL,
		Timeout:   cfg.API.Timeout,
		UserAgent: cfg.API.UserAgent,
	}, logger)

	a.Sync = service.NewSyncService(
		a.Source,
		storyStore,
		commentStore,
		postgres.NewSyncStateStore(db),
		postgres.NewTransactionManager(db),
		pub,
		logger,
		cfg.Sync,
	)

	pages, err := cache.New[*domain.StoriesPage](cfg.Server.CacheSize, cfg.Server.CacheTTL)
	if err != nil {
		_ = a.Close()
		return nil, err
	}
	a.Feed = service.NewFeedService(storyStore, commentStore, pages, logger)

	return a, nil
}

func (a *App) Close() error {
	var errs []error
	if a.publisher != nil {
		errs = append(errs, a.publisher.Close())
	}
	errs = append(errs, a.DB.Close())
	return errors.Join(errs...)
}

// NewLogger returns a JSON logger on stdout for one of debug, info, warn or
// error. Anything else means info.
func NewLogger(level string) *slog.Logger {
	var logLevel slog.Level
	switch level {
	case "debug":
		logLevel = slog.LevelDebug
	case "warn":
		logLevel = slog.LevelWarn
	case "error":
		logLevel = slog.LevelError
	default:
		logLevel = slog.LevelInfo
	}

	return slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: logLevel}))
}
