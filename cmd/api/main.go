package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/aport-academy/appraisal-api/internal/admin"
	"github.com/aport-academy/appraisal-api/internal/assistant"
	"github.com/aport-academy/appraisal-api/internal/auth"
	"github.com/aport-academy/appraisal-api/internal/config"
	"github.com/aport-academy/appraisal-api/internal/core"
	"github.com/aport-academy/appraisal-api/internal/health"
	"github.com/aport-academy/appraisal-api/internal/inspection"
	"github.com/aport-academy/appraisal-api/internal/middleware"
	"github.com/aport-academy/appraisal-api/internal/server"
	"github.com/aport-academy/appraisal-api/internal/state"
	"github.com/aport-academy/appraisal-api/internal/stats"
	"github.com/aport-academy/appraisal-api/internal/store"
)

const (
	drainDelay = 5 * time.Second
)

func main() {
	configPath := flag.String("config", "config.yaml", "path to config file")
	genKeys := flag.Bool("genkeys", false, "generate an ES256 key pair and exit")
	flag.Parse()

	if *genKeys {
		if err := generateKeys(*configPath); err != nil {
			slog.Error("key generation error", "error", err)
			os.Exit(1)
		}
		return
	}

	if err := run(*configPath); err != nil {
		slog.Error("application error", "error", err)
		os.Exit(1)
	}
}

func generateKeys(configPath string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	if err := auth.GenerateKeyPair(
		cfg.JWT.PrivateKeyPath,
		cfg.JWT.PublicKeyPath,
	); err != nil {
		return err
	}
	fmt.Printf("wrote %s and %s\n", cfg.JWT.PrivateKeyPath, cfg.JWT.PublicKeyPath)
	return nil
}

//nolint:funlen // bootstrap code is inherently verbose
func run(configPath string) error {
	ctx, stop := signal.NotifyContext(
		context.Background(),
		syscall.SIGINT,
		syscall.SIGTERM,
	)
	defer stop()

	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	logger := setupLogger(cfg.Log)
	slog.SetDefault(logger)

	logger.Info("starting application",
		"name", cfg.App.Name,
		"version", cfg.App.Version,
		"environment", cfg.App.Environment,
	)

	var telemetry *core.Telemetry
	if cfg.Otel.Enabled {
		tel, telErr := core.NewTelemetry(ctx, cfg.Otel, cfg.App)
		if telErr != nil {
			logger.Warn("failed to initialize telemetry", "error", telErr)
		} else {
			telemetry = tel
			logger.Info("OpenTelemetry tracer initialized",
				"endpoint", cfg.Otel.Endpoint,
			)
		}
	}

	redis, err := core.NewRedis(ctx, cfg.Redis)
	if err != nil {
		return err
	}
	logger.Info("redis connected",
		"pool_size", cfg.Redis.PoolSize,
	)

	var (
		db        *core.Database
		snapStore store.Store
	)
	switch cfg.Store.Backend {
	case "postgres":
		db, err = core.NewDatabase(ctx, cfg.Database)
		if err != nil {
			return err
		}
		logger.Info("database connected",
			"max_open_conns", cfg.Database.MaxOpenConns,
			"max_idle_conns", cfg.Database.MaxIdleConns,
		)
		snapStore, err = store.NewPostgresStore(ctx, db)
		if err != nil {
			return err
		}
	case "file":
		snapStore, err = store.NewFileStore(cfg.Store.Path)
		if err != nil {
			return err
		}
		logger.Info("file store opened", "path", cfg.Store.Path)
	default:
		return fmt.Errorf("unknown store backend %q", cfg.Store.Backend)
	}

	stateMgr, err := state.NewManager(ctx, snapStore, cfg.Seed.DefaultPassword, logger)
	if err != nil {
		return err
	}
	logger.Info("snapshot loaded")

	jwtManager, err := auth.NewJWTManager(cfg.JWT)
	if err != nil {
		return err
	}
	logger.Info("JWT manager initialized",
		"algorithm", "ES256",
		"key_id", jwtManager.GetKeyID(),
	)

	authSvc := auth.NewService(stateMgr, jwtManager, redis.Client, logger)
	authHandler := auth.NewHandler(authSvc)

	inspectionSvc := inspection.NewService(stateMgr)
	inspectionHandler := inspection.NewHandler(inspectionSvc)

	statsHandler := stats.NewHandler(stateMgr)

	systemCfg := admin.SystemHandlerConfig{
		State:      stateMgr,
		RedisStats: redis.PoolStats,
		RedisPing:  redis.Ping,
	}
	if db != nil {
		systemCfg.DBStats = db.Stats
		systemCfg.DBPing = db.Ping
	}
	adminHandler := admin.NewHandler(
		admin.NewService(stateMgr),
		admin.NewSystemHandler(systemCfg),
	)

	assistantClient := assistant.NewClient(cfg.Assistant)
	assistantSvc := assistant.NewService(assistantClient, redis.Client, cfg.Assistant, logger)
	assistantHandler := assistant.NewHandler(assistantSvc)

	healthDeps := []health.Dependency{{Name: "redis", Checker: redis}}
	if db != nil {
		healthDeps = append(healthDeps, health.Dependency{Name: "database", Checker: db})
	}
	healthHandler := health.NewHandler(healthDeps...)

	srv := server.New(server.Config{
		ServerConfig:  cfg.Server,
		HealthHandler: healthHandler,
		Logger:        logger,
	})

	router := srv.Router()

	router.Use(middleware.RequestID)
	router.Use(middleware.Logger(logger))
	router.Use(
		middleware.NewRateLimiter(redis.Client, middleware.RateLimitConfig{
			Limit: middleware.PerMinute(
				cfg.RateLimit.Requests,
				cfg.RateLimit.Burst,
			),
			FailOpen: true,
		}).Handler,
	)
	router.Use(middleware.SecurityHeaders(cfg.App.Environment == "production"))
	router.Use(middleware.CORS(cfg.CORS))

	healthHandler.RegisterRoutes(router)

	router.Get("/.well-known/jwks.json", jwtManager.GetJWKSHandler())

	authenticator := middleware.Authenticator(jwtManager)
	adminOnly := middleware.RequireAdmin

	// The assistant proxies a metered upstream, so it gets a tighter
	// per-user budget on top of the global limiter.
	assistantLimiter := middleware.NewRateLimiter(redis.Client, middleware.RateLimitConfig{
		Limit: middleware.PerMinute(
			cfg.RateLimit.AssistantPerMin,
			cfg.RateLimit.AssistantBurst,
		),
		KeyFunc:  middleware.KeyByUser,
		FailOpen: true,
	}).Handler

	router.Route("/v1", func(r chi.Router) {
		authHandler.RegisterRoutes(r, authenticator)
		inspectionHandler.RegisterRoutes(r, authenticator)
		statsHandler.RegisterRoutes(r, authenticator, adminOnly)
		adminHandler.RegisterRoutes(r, authenticator, adminOnly)
		assistantHandler.RegisterRoutes(r, authenticator, assistantLimiter)
	})

	errChan := make(chan error, 1)
	go func() {
		errChan <- srv.Start()
	}()

	select {
	case err := <-errChan:
		return err
	case <-ctx.Done():
		logger.Info("shutdown signal received")
	}

	shutdownCtx, cancel := context.WithTimeout(
		context.Background(),
		cfg.Server.ShutdownTimeout+drainDelay+5*time.Second,
	)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx, drainDelay); err != nil {
		logger.Error("server shutdown error", "error", err)
	}

	if telemetry != nil {
		if err := telemetry.Shutdown(shutdownCtx); err != nil {
			logger.Error("telemetry shutdown error", "error", err)
		}
	}

	if err := snapStore.Close(); err != nil {
		logger.Error("store close error", "error", err)
	}

	if err := redis.Close(); err != nil {
		logger.Error("redis close error", "error", err)
	}

	if db != nil {
		if err := db.Close(); err != nil {
			logger.Error("database close error", "error", err)
		}
	}

	logger.Info("application stopped")
	return nil
}

func setupLogger(cfg config.LogConfig) *slog.Logger {
	var handler slog.Handler

	level := slog.LevelInfo
	switch cfg.Level {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	}

	opts := &slog.HandlerOptions{Level: level}

	if cfg.Format == "json" {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	} else {
		handler = slog.NewTextHandler(os.Stdout, opts)
	}

	return slog.New(handler)
}
