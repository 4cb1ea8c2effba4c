package main

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/V4T54L/runtime-analytics/internal/adapter/embedding"
	"github.com/V4T54L/runtime-analytics/internal/adapter/metrics"
	"github.com/V4T54L/runtime-analytics/internal/adapter/repository/cache"
	"github.com/V4T54L/runtime-analytics/internal/adapter/repository/sqlstore"
	"github.com/V4T54L/runtime-analytics/internal/adapter/source/inbox"
	"github.com/V4T54L/runtime-analytics/internal/analytics"
	"github.com/V4T54L/runtime-analytics/internal/catalog"
	"github.com/V4T54L/runtime-analytics/internal/domain"
	"github.com/V4T54L/runtime-analytics/internal/intent"
	"github.com/V4T54L/runtime-analytics/internal/pkg/config"
	"github.com/V4T54L/runtime-analytics/internal/pkg/logger"
	"github.com/V4T54L/runtime-analytics/internal/usecase"
)

// app holds the collaborators shared by the subcommands.
type app struct {
	cfg     *config.Config
	logger  *slog.Logger
	metrics *metrics.Metrics
	store   *sqlstore.JobLogRepository
	cache   domain.ResultCache
	redis   *cache.RedisCache
}

// newApp loads configuration, applies flag overrides and opens the store.
func newApp(ctx context.Context) (*app, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	if rootFlags.logLevel != "" {
		cfg.LogLevel = rootFlags.logLevel
	}
	if rootFlags.storeDriver != "" {
		cfg.StoreDriver = rootFlags.storeDriver
	}
	if rootFlags.storeDSN != "" {
		cfg.StoreDSN = rootFlags.storeDSN
	}
	if rootFlags.catalogPath != "" {
		cfg.CatalogPath = rootFlags.catalogPath
	}
	if rootFlags.engine != "" {
		cfg.EmbeddingEngine = rootFlags.engine
	}

	log, err := logger.New(cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		return nil, err
	}
	slog.SetDefault(log)

	store, err := sqlstore.Open(ctx, cfg.StoreDriver, cfg.StoreDSN, log, cfg.InsertChunkSize)
	if err != nil {
		return nil, fmt.Errorf("failed to open store: %w", err)
	}

	a := &app{cfg: cfg, logger: log, metrics: metrics.New(nil), store: store}

	if cfg.RedisURL == "" {
		a.cache = cache.NewMemoryCache(cfg.CacheTTL, a.metrics)
		return a, nil
	}
	opts, err := redis.ParseURL(cfg.RedisURL)
	if err != nil {
		store.Close()
		return nil, fmt.Errorf("failed to parse redis url: %w", err)
	}
	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		log.Warn("could not connect to redis, results will not be shared", "error", err)
	}
	a.redis = cache.NewRedisCache(client, log, cfg.CacheTTL, a.metrics)
	a.cache = a.redis
	return a, nil
}

func (a *app) Close() {
	if err := a.store.Close(); err != nil {
		a.logger.Error("failed to close store", "error", err)
	}
}

// inbox opens dir, or the configured inbox when dir is empty.
func (a *app) inbox(dir string) (*inbox.Inbox, error) {
	if dir == "" {
		dir = a.cfg.InboxDir
	}
	return inbox.New(dir, a.cfg.InboxPattern, a.cfg.ProcessedDirName, a.logger)
}

func (a *app) ingestFiles(dir string) (*usecase.IngestFilesUseCase, error) {
	src, err := a.inbox(dir)
	if err != nil {
		return nil, err
	}
	return usecase.NewIngestFilesUseCase(src, a.store, a.metrics, a.logger), nil
}

func loadCatalog(cfg *config.Config) (*catalog.Catalog, error) {
	cat, err := catalog.LoadOrDefault(cfg.CatalogPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load prompt catalog: %w", err)
	}
	return cat, nil
}

// query builds the interpreter and the query use case. Catalog examples are
// embedded here, once per process.
func (a *app) query(ctx context.Context) (*usecase.QueryUseCase, error) {
	cat, err := loadCatalog(a.cfg)
	if err != nil {
		return nil, err
	}

	engine, err := embedding.New(ctx, embedding.Config{
		Provider:       a.cfg.EmbeddingEngine,
		Dimensions:     a.cfg.EmbeddingDimensions,
		OllamaEndpoint: a.cfg.OllamaEndpoint,
		OllamaModel:    a.cfg.OllamaModel,
		GenAIAPIKey:    a.cfg.GenAIAPIKey,
		GenAIModel:     a.cfg.GenAIModel,
	})
	if err != nil {
		return nil, err
	}

	matcher, err := intent.NewMatcher(ctx, engine, cat, a.cfg.MatchMinScore, a.logger)
	if err != nil {
		return nil, fmt.Errorf("failed to embed prompt catalog with %s: %w", engine.Name(), err)
	}
	interp := intent.NewInterpreter(matcher, intent.NewExtractor(time.Now), a.logger)

	return usecase.NewQueryUseCase(interp, analytics.NewRegistry(), a.store, a.cache, a.metrics, a.logger), nil
}
