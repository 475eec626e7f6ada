// Package main is the entrypoint for the Registra API server.
package main

import (
	"context"
	"log/slog"
	"os"

	"github.com/registra/registra/internal/cache"
	"github.com/registra/registra/internal/config"
	"github.com/registra/registra/internal/handler"
	"github.com/registra/registra/internal/logging"
	"github.com/registra/registra/internal/metrics"
	"github.com/registra/registra/internal/middleware"
	"github.com/registra/registra/internal/migrator"
	"github.com/registra/registra/internal/password"
	"github.com/registra/registra/internal/repository"
	"github.com/registra/registra/internal/server"
	"github.com/registra/registra/internal/service"
)

func main() {
	ctx := context.Background()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := logging.New(os.Stdout, cfg.LogLevel, cfg.LogFormat)

	repo, err := repository.New(ctx, cfg.DatabaseURL)
	if err != nil {
		logger.Error("failed to connect to database",
			slog.String("error", logging.SanitizeError(err, cfg.DatabaseURL)),
			slog.String("database_url", logging.RedactURL(cfg.DatabaseURL)),
		)
		os.Exit(1)
	}
	logger.Info("connected to database")

	// Redis is optional; without it registration is not rate limited.
	var (
		cacheClient *cache.Cache
		limiter     middleware.SignupLimiter
		cacheHealth handler.HealthChecker
	)
	if cfg.RedisURL != "" {
		cacheClient, err = cache.New(ctx, cfg.RedisURL)
		if err != nil {
			logger.Error("failed to connect to Redis",
				slog.String("error", logging.SanitizeError(err, cfg.RedisURL)),
				slog.String("redis_url", logging.RedactURL(cfg.RedisURL)),
			)
			repo.Close()
			os.Exit(1)
		}
		limiter = cacheClient
		cacheHealth = cacheClient
		logger.Info("connected to Redis")
	} else {
		logger.Warn("REDIS_URL not set, registration rate limiting disabled")
	}

	recorder := metrics.NewInMemory()

	hasher := password.NewHasher(cfg.PasswordCost())
	userService := service.NewUserService(repo, hasher, recorder, logger)
	runner := migrator.New(migrator.Config{
		DatabaseURL: cfg.DatabaseURL,
		Table:       cfg.MigrationsTable,
		Logger:      logger,
		Metrics:     recorder,
	})

	router := handler.NewRouter(handler.RouterConfig{
		Logger:     logger,
		Base:       handler.New(logger),
		Health:     handler.NewHealthHandler(repo, cacheHealth, logger),
		Metrics:    handler.NewMetricsHandler(recorder),
		Status:     handler.NewStatusHandler(repo, logger),
		Migrations: handler.NewMigrationHandler(runner, logger),
		Users:      handler.NewUserHandler(userService, logger),
		Security:   middleware.SecurityConfig{IsDevelopment: cfg.IsDevelopment()},
		CORS:       middleware.DefaultCORSConfig(cfg.GetCORSAllowedOrigins()),
		RateLimit: middleware.RateLimitConfig{
			Logger:    logger,
			Limiter:   limiter,
			Metrics:   recorder,
			Enabled:   cfg.RateLimitSignupEnabled,
			PerMinute: cfg.RateLimitSignupPerMinute,
			Burst:     cfg.RateLimitSignupBurst,
		},
		MaxBodyBytes: cfg.MaxRequestBodySize,
	})

	srv := server.New(router, server.Config{
		Port:            cfg.AppPort,
		ReadTimeout:     cfg.ReadTimeout,
		WriteTimeout:    cfg.WriteTimeout,
		ShutdownTimeout: cfg.ShutdownTimeout,
	}, logger)

	srv.OnShutdown("postgres", func(ctx context.Context) error {
		repo.Close()
		return nil
	})
	if cacheClient != nil {
		srv.OnShutdown("redis", func(ctx context.Context) error {
			return cacheClient.Close()
		})
	}

	logger.Info("starting server",
		"port", cfg.AppPort,
		"env", cfg.AppEnv,
		"migrations_table", cfg.MigrationsTable,
	)

	if err := srv.Run(ctx); err != nil {
		logger.Error("server error", "error", err)
		os.Exit(1)
	}
}
