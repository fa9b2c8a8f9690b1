package app

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"PowerOfWords/internal/api"
	"PowerOfWords/internal/config"
	"PowerOfWords/internal/infrastructure/ml"
	"PowerOfWords/internal/infrastructure/rss"
	cronsched "PowerOfWords/internal/infrastructure/scheduler"
	"PowerOfWords/internal/infrastructure/storage"
	"PowerOfWords/internal/logging"
	"PowerOfWords/internal/normalize"
	"PowerOfWords/internal/usecase"
)

// Application wires configs to use cases and lifecycle orchestration.
type Application struct {
	cfg      config.Config
	logger   *slog.Logger
	db       *sql.DB
	ingestor *usecase.Ingestor
	runner   *usecase.Scheduler
	server   *api.Server
}

// New builds a runnable application instance: store handle, fetcher,
// scoring client, ingestion orchestrator, cron runner, and API server.
func New(ctx context.Context, cfg config.Config, baseLogger *slog.Logger) (*Application, error) {
	if baseLogger == nil {
		baseLogger = logging.New(cfg.Logging.Level, cfg.Logging.Format)
	}

	db, err := storage.Open(ctx, cfg.Database.DSN)
	if err != nil {
		return nil, err
	}

	repository := storage.NewPostgresRepository(db)
	if err := repository.EnsureSchema(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}

	stopwords, err := normalize.LoadStopwords(cfg.Ingest.StopwordsPath)
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("load stopwords: %w", err)
	}

	fetcher := rss.NewFetcher(nil)
	scorer := ml.NewClient(cfg.ML.InferenceURL, cfg.ML.APIKey)

	ingestor := usecase.NewIngestor(usecase.IngestorDeps{
		Fetcher:    fetcher,
		Repository: repository,
		Scorer:     scorer,
		Stopwords:  stopwords,
		Workers:    cfg.Ingest.Workers,
		Logger:     baseLogger.With("component", "ingest"),
	})

	driver := cronsched.NewCronScheduler(cfg.Scheduler.CronExpression, cfg.Scheduler.Location())
	runner := usecase.NewScheduler(driver, ingestor, baseLogger.With("component", "scheduler"))

	var cache *redis.Client
	if cfg.Redis.Addr != "" {
		cache = redis.NewClient(&redis.Options{Addr: cfg.Redis.Addr})
		pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
		if err := cache.Ping(pingCtx).Err(); err != nil {
			baseLogger.Warn("redis ping failed, analytics cache disabled", "error", err)
			cache = nil
		}
		cancel()
	}

	server := api.NewServer(cfg.API.ListenAddr, repository, scorer, cache,
		baseLogger.With("component", "api"))

	return &Application{
		cfg:      cfg,
		logger:   baseLogger,
		db:       db,
		ingestor: ingestor,
		runner:   runner,
		server:   server,
	}, nil
}

// RunOnce performs a single ingestion pass, for external triggers.
func (a *Application) RunOnce(ctx context.Context) error {
	_, err := a.ingestor.Run(ctx)
	return err
}

// Serve starts the cron runner and the API server and blocks until ctx is
// cancelled or the server fails.
func (a *Application) Serve(ctx context.Context) error {
	if err := a.runner.Start(ctx); err != nil {
		return err
	}

	serveErr := make(chan error, 1)
	go func() {
		serveErr <- a.server.Run()
	}()

	select {
	case <-ctx.Done():
		stopCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := a.runner.Stop(stopCtx); err != nil {
			a.logger.Warn("scheduler stop", "error", err)
		}
		if err := a.server.Shutdown(stopCtx); err != nil {
			a.logger.Warn("server shutdown", "error", err)
		}
		<-serveErr
		return nil
	case err := <-serveErr:
		return err
	}
}

// Close releases the store handle.
func (a *Application) Close() error {
	return a.db.Close()
}
