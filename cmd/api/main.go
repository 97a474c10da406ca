// AngelaMos | 2026
// main.go

package main

import (
	"context"
	"errors"
	"flag"
	"io/fs"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/joho/godotenv"

	"github.com/carterperez-dev/videoflow/internal/auth"
	"github.com/carterperez-dev/videoflow/internal/config"
	"github.com/carterperez-dev/videoflow/internal/core"
	"github.com/carterperez-dev/videoflow/internal/health"
	"github.com/carterperez-dev/videoflow/internal/history"
	"github.com/carterperez-dev/videoflow/internal/media"
	"github.com/carterperez-dev/videoflow/internal/middleware"
	"github.com/carterperez-dev/videoflow/internal/server"
	"github.com/carterperez-dev/videoflow/internal/usage"
	"github.com/carterperez-dev/videoflow/internal/user"
	"github.com/carterperez-dev/videoflow/migrations"
)

const (
	drainDelay = 5 * time.Second
)

func main() {
	configPath := flag.String("config", "", "path to optional YAML config file")
	envFile := flag.String("env", ".env", "path to optional dotenv file")
	flag.Parse()

	if err := godotenv.Load(*envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
		slog.Warn("failed to load env file", "path", *envFile, "error", err)
	}

	if err := run(*configPath); err != nil {
		slog.Error("application error", "error", err)
		os.Exit(1)
	}
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
		"reset_policy", cfg.Quota.ResetPolicy,
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

	db, err := core.NewDatabase(ctx, cfg.Database)
	if err != nil {
		return err
	}
	logger.Info("database connected",
		"max_open_conns", cfg.Database.MaxOpenConns,
		"max_idle_conns", cfg.Database.MaxIdleConns,
	)

	if cfg.Database.AutoMigrate {
		if err := core.Migrate(migrations.FS, cfg.Database.URL); err != nil {
			return err
		}
		logger.Info("database migrations applied")
	}

	redis, err := core.NewRedis(ctx, cfg.Redis)
	if err != nil {
		return err
	}
	logger.Info("redis connected",
		"pool_size", cfg.Redis.PoolSize,
	)

	jwtManager, err := auth.NewJWTManager(cfg.JWT)
	if err != nil {
		return err
	}
	logger.Info("JWT manager initialized",
		"algorithm", "HS256",
		"expire", cfg.JWT.AccessTokenExpire,
	)

	userRepo := user.NewRepository(db.DB)
	userSvc := user.NewService(userRepo)
	userHandler := user.NewHandler(userSvc)

	authSvc := auth.NewService(jwtManager, userSvc)
	authHandler := auth.NewHandler(authSvc)

	usageSvc := usage.NewService(usage.NewRepository(db.DB), userSvc, cfg.Quota)
	usageHandler := usage.NewHandler(usageSvc)

	historySvc := history.NewService(history.NewRepository(db.DB))
	historyHandler := history.NewHandler(historySvc)

	deps := []health.Dependency{
		{Name: "database", Checker: db},
		{Name: "redis", Checker: redis},
	}

	mediaCfg := media.ServiceConfig{
		Quota:   usageSvc,
		History: historySvc,
		Fetcher: media.NewYouTubeFetcher(&http.Client{
			Timeout: cfg.Media.FetchTimeout,
		}),
		Transcriber:          media.NewAssemblyAITranscriber(cfg.Transcription),
		Ledger:               media.NewLedger(db.DB),
		Media:                cfg.Media,
		TranscriptionTimeout: cfg.Transcription.Timeout,
		Logger:               logger,
	}

	if cfg.Storage.Enabled {
		store, storeErr := media.NewS3Store(ctx, cfg.Storage)
		if storeErr != nil {
			return storeErr
		}
		mediaCfg.Store = store
		mediaCfg.KeyFunc = store.Key
		deps = append(deps, health.Dependency{Name: "storage", Checker: store})
		logger.Info("artifact storage enabled",
			"bucket", cfg.Storage.Bucket,
			"prefix", cfg.Storage.Prefix,
		)
	}

	if cfg.Transcription.APIKey == "" {
		logger.Warn("ASSEMBLYAI_API_KEY not set, transcriptions will fail")
	}

	mediaHandler := media.NewHandler(media.NewService(mediaCfg))

	healthHandler := health.NewHandler(deps...)

	srv := server.New(server.Config{
		ServerConfig:  cfg.Server,
		HealthHandler: healthHandler,
		Logger:        logger,
	})

	router := srv.Router()

	router.Use(middleware.RequestID)
	router.Use(middleware.Logger(logger))
	router.Use(middleware.Recoverer)
	router.Use(
		middleware.NewRateLimiter(redis.Client, middleware.RateLimitConfig{
			Limit: middleware.PerMinute(
				cfg.RateLimit.Requests,
				cfg.RateLimit.Burst,
			),
			FailOpen:   true,
			BypassFunc: middleware.BypassProbes,
		}).Handler,
	)
	router.Use(middleware.SecurityHeaders(cfg.App.Environment == "production"))
	router.Use(middleware.CORS(cfg.CORS))

	healthHandler.RegisterRoutes(router)

	router.Route("/api", func(r chi.Router) {
		authHandler.RegisterRoutes(r)

		r.Group(func(r chi.Router) {
			r.Use(middleware.Authenticator(jwtManager))
			r.Use(middleware.TieredRateLimiter(
				redis.Client,
				middleware.TiersFromConfig(cfg.RateLimit),
			))

			userHandler.RegisterRoutes(r)
			usageHandler.RegisterRoutes(r)
			historyHandler.RegisterRoutes(r)
			mediaHandler.RegisterRoutes(r)
		})
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

	if err := redis.Close(); err != nil {
		logger.Error("redis close error", "error", err)
	}

	if err := db.Close(); err != nil {
		logger.Error("database close error", "error", err)
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
