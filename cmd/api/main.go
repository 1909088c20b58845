// Package main is the entrypoint for the payment gateway API server.
package main

import (
	"context"
	"log/slog"
	"net/url"
	"os"
	"regexp"
	"strings"

	"github.com/cardvault/gateway/internal/auth"
	"github.com/cardvault/gateway/internal/cache"
	"github.com/cardvault/gateway/internal/config"
	"github.com/cardvault/gateway/internal/events"
	"github.com/cardvault/gateway/internal/fee"
	"github.com/cardvault/gateway/internal/handler"
	"github.com/cardvault/gateway/internal/metrics"
	"github.com/cardvault/gateway/internal/middleware"
	"github.com/cardvault/gateway/internal/repository"
	"github.com/cardvault/gateway/internal/repository/memory"
	"github.com/cardvault/gateway/internal/server"
	"github.com/cardvault/gateway/internal/service"
)

func main() {
	ctx := context.Background()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := initLogger(cfg)

	srv, err := build(ctx, cfg, logger)
	if err != nil {
		logger.Error("failed to start", "error", err)
		os.Exit(1)
	}

	logger.Info("starting server",
		"port", cfg.AppPort,
		"env", cfg.AppEnv,
		"store", cfg.StoreBackend,
		"redis", cfg.RedisURL != "",
	)

	if err := srv.Run(); err != nil {
		logger.Error("server error", "error", err)
		os.Exit(1)
	}
}

// build wires the store, cache, services and HTTP surface into a server.
func build(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*server.Server, error) {
	var (
		store    service.Store
		dbHealth handler.HealthChecker
	)

	if cfg.UsesPostgres() {
		repo, err := repository.New(ctx, cfg.DatabaseURL)
		if err != nil {
			logger.Error("failed to connect to database",
				slog.String("error", sanitizeError(err, cfg.DatabaseURL)),
				slog.String("database_url", redactURL(cfg.DatabaseURL)),
			)
			return nil, err
		}
		logger.Info("connected to database", slog.String("database_url", redactURL(cfg.DatabaseURL)))
		store, dbHealth = repo, repo
	} else {
		logger.Warn("using in-memory store, data is lost on restart")
		store = memory.New()
	}

	var (
		cacheClient *cache.Cache
		cacheHealth handler.HealthChecker
		revoker     handler.SessionRevoker
		revocations middleware.RevocationChecker
		limiter     middleware.RateLimiter
	)
	if cfg.RedisURL != "" {
		c, err := cache.New(ctx, cfg.RedisURL)
		if err != nil {
			store.Close()
			logger.Error("failed to connect to Redis",
				slog.String("error", sanitizeError(err, cfg.RedisURL)),
				slog.String("redis_url", redactURL(cfg.RedisURL)),
			)
			return nil, err
		}
		logger.Info("connected to Redis", slog.String("redis_url", redactURL(cfg.RedisURL)))
		cacheClient = c
		cacheHealth, revoker, revocations, limiter = c, c, c, c
	} else {
		logger.Info("Redis not configured, rate limiting, logout and ledger events disabled")
	}

	recorder := metrics.NewInMemory()
	sessions := auth.NewSessionManager(cfg.JWTSecret, cfg.SessionTTL)
	policy := fee.NewPolicy(cfg.FeePercentRate, cfg.FeeFixed)

	identity := service.NewIdentityService(store, sessions, cfg.OwnerEmail, recorder, logger)
	vault := service.NewVaultService(store, cfg.VaultValidateCard, recorder, logger)
	ledger := service.NewLedgerService(store, store, policy, recorder, logger)

	var publisher *events.Publisher
	if cacheClient != nil {
		publisher = events.NewPublisher(cacheClient.Client(), logger, recorder)
		vault.WithEvents(publisher)
		ledger.WithEvents(publisher)
	}

	if _, err := identity.EnsureOwner(ctx, cfg.OwnerInitialPassword); err != nil {
		logger.Error("failed to seed owner account", "error", err)
	}

	corsCfg := middleware.DefaultCORSConfig()
	corsCfg.AllowedOrigins = cfg.GetCORSAllowedOrigins()

	router := handler.NewRouter(handler.RouterConfig{
		Logger:   logger,
		Auth:     handler.NewAuthHandler(identity, revoker, logger),
		Vault:    handler.NewVaultHandler(vault, logger),
		Payments: handler.NewPaymentHandler(ledger, logger),
		Hosted:   handler.NewHostedHandler(logger),
		Health:   handler.NewHealthHandler(dbHealth, cacheHealth),
		Metrics:  handler.NewMetricsHandler(recorder),
		Session: middleware.AuthConfig{
			Logger:      logger,
			Sessions:    sessions,
			Revocations: revocations,
		},
		RateLimit: middleware.RateLimitConfig{
			Logger:           logger,
			Limiter:          limiter,
			Enabled:          cfg.RateLimitEnabled,
			PublicRPS:        cfg.RateLimitPublicRPS,
			PublicBurst:      cfg.RateLimitPublicBurst,
			AccountPerMinute: cfg.RateLimitAccountPerMinute,
			AccountBurst:     cfg.RateLimitAccountBurst,
		},
		Security: middleware.SecurityConfig{
			IsDevelopment:      !cfg.IsProduction(),
			MaxRequestBodySize: cfg.MaxRequestBodySize,
		},
		CORS:      corsCfg,
		StaticDir: cfg.StaticDir,
	})

	srv := server.New(router, server.Config{
		Port:            cfg.AppPort,
		ReadTimeout:     cfg.ReadTimeout,
		WriteTimeout:    cfg.WriteTimeout,
		ShutdownTimeout: cfg.ShutdownTimeout,
	}, logger)

	srv.OnShutdown("store", func(context.Context) error {
		store.Close()
		return nil
	})
	if cacheClient != nil {
		srv.OnShutdown("redis", func(context.Context) error {
			return cacheClient.Close()
		})
		// Registered last so pending events flush before Redis closes.
		srv.OnShutdown("ledger events", publisher.Close)
	}

	return srv, nil
}

// initLogger initializes the slog logger based on configuration.
func initLogger(cfg *config.Config) *slog.Logger {
	opts := &slog.HandlerOptions{Level: parseLogLevel(cfg.LogLevel)}

	var h slog.Handler
	if cfg.LogFormat == "json" {
		h = slog.NewJSONHandler(os.Stdout, opts)
	} else {
		h = slog.NewTextHandler(os.Stdout, opts)
	}

	logger := slog.New(h)
	slog.SetDefault(logger)
	return logger
}

// parseLogLevel converts string log level to slog.Level.
func parseLogLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

var passwordPattern = regexp.MustCompile(`(?i)password=[^\s&]+`)

// redactURL keeps the username of a connection string and drops its password.
func redactURL(raw string) string {
	if raw == "" {
		return ""
	}

	parsed, err := url.Parse(raw)
	if err != nil {
		return "[redacted]"
	}

	if parsed.User != nil {
		if username := parsed.User.Username(); username != "" {
			parsed.User = url.User(username)
		} else {
			parsed.User = url.User("redacted")
		}
	}
	q := parsed.Query()
	if q.Has("password") {
		q.Set("password", "redacted")
		parsed.RawQuery = q.Encode()
	}

	return parsed.String()
}

// sanitizeError strips connection strings and passwords from driver errors.
func sanitizeError(err error, secrets ...string) string {
	if err == nil {
		return ""
	}

	msg := err.Error()
	for _, secret := range secrets {
		if secret == "" {
			continue
		}
		msg = strings.ReplaceAll(msg, secret, redactURL(secret))
	}

	return passwordPattern.ReplaceAllString(msg, "password=redacted")
}
