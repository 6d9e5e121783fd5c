// Command searchd runs the tuning workshop's search service: it indexes
// work orders from PostgreSQL, persists index snapshots to Redis, follows
// work-order change events from Kafka, and serves the search API.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/bambooty57/tunershop-search/internal/api"
	"github.com/bambooty57/tunershop-search/internal/cache"
	"github.com/bambooty57/tunershop-search/internal/consumer"
	"github.com/bambooty57/tunershop-search/internal/engine"
	"github.com/bambooty57/tunershop-search/internal/store"
	"github.com/bambooty57/tunershop-search/pkg/config"
	"github.com/bambooty57/tunershop-search/pkg/health"
	"github.com/bambooty57/tunershop-search/pkg/kafka"
	"github.com/bambooty57/tunershop-search/pkg/logger"
	"github.com/bambooty57/tunershop-search/pkg/metrics"
	"github.com/bambooty57/tunershop-search/pkg/postgres"
	pkgredis "github.com/bambooty57/tunershop-search/pkg/redis"
)

func main() {
	configPath := flag.String("config", "configs/development.yaml", "path to config file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	logger.Setup(cfg.Logging.Level, cfg.Logging.Format)
	slog.Info("starting search service", "port", cfg.Server.Port)

	var m *metrics.Metrics
	if cfg.Metrics.Enabled {
		m = metrics.New()
		shutdownMetrics := metrics.StartServer(cfg.Metrics.Port)
		defer shutdownMetrics(context.Background())
	}

	pgClient, err := postgres.New(cfg.Postgres)
	if err != nil {
		slog.Error("failed to connect to postgres", "error", err)
		os.Exit(1)
	}
	defer pgClient.Close()
	workOrders := store.New(pgClient)

	var engineCache engine.Cache
	redisClient, err := pkgredis.NewClient(cfg.Redis)
	if err != nil {
		slog.Warn("redis unavailable, using in-memory cache", "error", err)
		engineCache = cache.NewMemory()
	} else {
		defer redisClient.Close()
		engineCache = cache.NewRedis(redisClient)
		slog.Info("redis cache enabled", "addr", cfg.Redis.Addr)
	}

	eng := engine.New(workOrders, engineCache, engine.Config{
		NGramSize:     cfg.Search.NGramSize,
		DefaultLimit:  cfg.Search.DefaultLimit,
		MaxLimit:      cfg.Search.MaxLimit,
		SuggestLimit:  cfg.Search.SuggestLimit,
		SnapshotTTL:   cfg.Search.SnapshotTTL,
		QueryCacheTTL: cfg.Search.QueryCacheTTL,
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Initialization failures are not fatal: the engine retries lazily on
	// the first search and meanwhile degrades to empty results.
	if err := eng.Initialize(ctx); err != nil {
		slog.Error("initial index build failed, continuing degraded", "error", err)
	}

	if cfg.Kafka.Enabled {
		handler := consumer.HandleEvent(workOrders, eng, m)
		kafkaConsumer := kafka.NewConsumer(cfg.Kafka, cfg.Kafka.WorkOrderEvents, handler)
		indexConsumer := consumer.New(kafkaConsumer)
		go func() {
			if err := indexConsumer.Start(ctx); err != nil {
				slog.Error("index consumer stopped", "error", err)
			}
		}()
		slog.Info("work-order event consumer started", "topic", cfg.Kafka.WorkOrderEvents)
	}

	checker := health.NewChecker()
	checker.Register("postgres", func(ctx context.Context) health.ComponentHealth {
		if err := pgClient.Ping(ctx); err != nil {
			return health.ComponentHealth{Status: health.StatusDown, Message: err.Error()}
		}
		return health.ComponentHealth{Status: health.StatusUp}
	})
	checker.Register("redis", func(ctx context.Context) health.ComponentHealth {
		if redisClient == nil {
			return health.ComponentHealth{Status: health.StatusDegraded, Message: "not configured"}
		}
		if err := redisClient.Ping(ctx); err != nil {
			return health.ComponentHealth{Status: health.StatusDegraded, Message: err.Error()}
		}
		return health.ComponentHealth{Status: health.StatusUp}
	})
	checker.Register("index", func(ctx context.Context) health.ComponentHealth {
		if n := eng.DocumentCount(); n > 0 {
			return health.ComponentHealth{Status: health.StatusUp, Message: fmt.Sprintf("%d documents", n)}
		}
		return health.ComponentHealth{Status: health.StatusDegraded, Message: "index empty"}
	})

	h := api.New(eng, m)
	mux := http.NewServeMux()
	h.Routes(mux)
	mux.HandleFunc("GET /health/live", checker.LiveHandler())
	mux.HandleFunc("GET /health/ready", checker.ReadyHandler())

	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      api.WithMetrics(m, mux),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	go func() {
		slog.Info("http server listening", "addr", server.Addr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("http server error", "error", err)
			stop()
		}
	}()

	<-ctx.Done()
	slog.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		slog.Error("http server shutdown failed", "error", err)
	}
	slog.Info("shutdown complete")
}
