package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/AylerH/DB-GPT/internal/auth"
	"github.com/AylerH/DB-GPT/internal/cluster"
	"github.com/AylerH/DB-GPT/internal/config"
	"github.com/AylerH/DB-GPT/internal/locator"
	"github.com/AylerH/DB-GPT/internal/platform/logger"
	"github.com/AylerH/DB-GPT/internal/platform/metrics"
	"github.com/AylerH/DB-GPT/internal/platform/otel"
	"github.com/AylerH/DB-GPT/internal/prober"
	"github.com/AylerH/DB-GPT/internal/registry"
	"github.com/AylerH/DB-GPT/internal/server"
	v1 "github.com/AylerH/DB-GPT/internal/server/v1"
	"github.com/AylerH/DB-GPT/internal/server/validator"
	"github.com/AylerH/DB-GPT/internal/store/cache"
	"github.com/AylerH/DB-GPT/internal/store/sqlite"
	"github.com/AylerH/DB-GPT/internal/version"
)

const shutdownTimeout = 15 * time.Second

func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd.Context())
		},
	}
}

func runServe(ctx context.Context) error {
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := config.LoadConfig()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	log, level := logger.New(logger.FromConfig(cfg.Log))
	defer func() {
		_ = log.Sync()
	}()

	shutdownTracer, err := otel.InitTracer(cfg.Tracing, log, os.Stdout)
	if err != nil {
		log.Warn("tracing disabled", zap.Error(err))
	}
	defer func() {
		_ = shutdownTracer(context.Background())
	}()

	repo, err := sqlite.NewSQLiteStorage(cfg.Database.DSN, log)
	if err != nil {
		return fmt.Errorf("open model storage: %w", err)
	}
	defer func() {
		_ = repo.Close()
	}()

	clusterClient := &http.Client{Timeout: cfg.Cluster.Timeout}
	workers := cluster.NewRemoteWorkerManager(cfg.Cluster.WorkerManagerAddr, clusterClient, newCache(ctx, cfg.Redis, log), cfg.Cache.TTL, log)
	controller := cluster.NewRemoteController(cfg.Cluster.ControllerAddr, clusterClient)

	m := metrics.New()
	gate := auth.NewGate(cfg.Server.APIKeys)
	handler := v1.NewHandler(
		registry.NewService(log, workers, controller, repo.Models()),
		locator.New(repo.Models(), cfg.Fallback, cfg.Container, log),
		prober.New(&http.Client{}, cfg.Probe.Timeout, log, m),
		validator.New(),
	)
	srv := server.New(cfg, log, gate, m, handler)

	config.Watch(cfg, func(next *config.Config) {
		gate.Update(next.Server.APIKeys)
		if lvl, err := zapcore.ParseLevel(next.Log.Level); err == nil {
			level.SetLevel(lvl)
		}
		log.Info("configuration reloaded", zap.Int("api_keys", len(next.Server.APIKeys)))
	}, func(err error) {
		log.Warn("configuration reload failed", zap.Error(err))
	})

	if cfg.UpdateCheck.Enabled {
		go checkForUpdates(ctx, cfg.UpdateCheck, log)
	}

	httpServer := &http.Server{
		Addr:              ":" + cfg.Server.Port,
		Handler:           srv.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	serverErr := make(chan error, 1)
	go func() {
		log.Info("server starting",
			zap.String("addr", httpServer.Addr),
			zap.String("prefix", cfg.Server.APIPrefix),
			zap.Bool("auth", gate.Enabled()),
			zap.String("version", version.Version))
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	select {
	case err := <-serverErr:
		return fmt.Errorf("server failed: %w", err)
	case <-ctx.Done():
	}

	log.Info("shutdown signal received")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}
	log.Info("server stopped gracefully")
	return nil
}

// newCache prefers redis when enabled and reachable, otherwise memory.
func newCache(ctx context.Context, cfg config.RedisConfig, log *zap.Logger) cache.CacheService {
	if !cfg.Enabled {
		return cache.NewMemoryCache()
	}
	client, err := cache.DialRedis(ctx, cfg.Addr, cfg.Password, cfg.DB)
	if err != nil {
		log.Warn("redis unavailable, using in-memory cache", zap.String("addr", cfg.Addr), zap.Error(err))
		return cache.NewMemoryCache()
	}
	log.Info("using redis cache", zap.String("addr", cfg.Addr))
	return cache.NewRedisCache(client, "model_serve:")
}

func checkForUpdates(ctx context.Context, cfg config.UpdateCheckConfig, log *zap.Logger) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	u, err := version.NewChecker(&http.Client{}).Check(ctx, cfg.Owner, cfg.Repo, version.Version)
	if err != nil {
		log.Debug("update check failed", zap.Error(err))
		return
	}
	if u.Available {
		log.Warn("a newer release is available",
			zap.String("current", u.Current),
			zap.String("latest", u.Latest))
	}
}
