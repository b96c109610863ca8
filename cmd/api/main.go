package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"

	"github.com/ericlunden/foodlab-core/internal/application"
	appanalysis "github.com/ericlunden/foodlab-core/internal/application/analysis"
	appcache "github.com/ericlunden/foodlab-core/internal/application/cache"
	"github.com/ericlunden/foodlab-core/internal/config"
	domcache "github.com/ericlunden/foodlab-core/internal/domain/cache"
	"github.com/ericlunden/foodlab-core/internal/domain/faults"
	aiopenai "github.com/ericlunden/foodlab-core/internal/infra/ai/openai"
	filebackend "github.com/ericlunden/foodlab-core/internal/infra/backend/file"
	"github.com/ericlunden/foodlab-core/internal/infra/backend/miniostore"
	mysqlbackend "github.com/ericlunden/foodlab-core/internal/infra/backend/mysql"
	pgbackend "github.com/ericlunden/foodlab-core/internal/infra/backend/postgres"
	mysqldb "github.com/ericlunden/foodlab-core/internal/infra/db/mysql"
	pgdb "github.com/ericlunden/foodlab-core/internal/infra/db/postgres"
	"github.com/ericlunden/foodlab-core/internal/infra/httpserver"
	"github.com/ericlunden/foodlab-core/internal/logging"
	"github.com/ericlunden/foodlab-core/internal/middleware"
)

func main() {
	// path config.yaml
	path := "config.yaml"
	if v := os.Getenv("CONFIG_PATH"); v != "" {
		path = v
	}

	cfg, err := config.Load(path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "config load error: %v\n", err)
		os.Exit(1)
	}

	logger := logging.New(logging.Options{Level: cfg.Log.Level, Format: cfg.Log.Format})
	ctx := context.Background()

	// snapshot backend + optional fault audit, selected by config
	var (
		backend   domcache.Backend
		faultRepo faults.Repository
		checkers  = map[string]middleware.HealthChecker{}
	)
	switch cfg.Cache.Backend {
	case "file":
		fb := filebackend.New(cfg.Cache.FilePath)
		backend = fb
		checkers["cache"] = &middleware.BackendHealthChecker{Backend: fb}

	case "mysql":
		db, err := mysqldb.Connect(ctx, cfg.MySQLDSN())
		if err != nil {
			logger.Fatal().Err(err).Msg("mysql connect error")
		}
		defer db.Close()
		b, err := mysqlbackend.New(ctx, db)
		if err != nil {
			logger.Fatal().Err(err).Msg("mysql backend init error")
		}
		backend = b
		if faultRepo, err = mysqldb.NewFaultRepository(ctx, db); err != nil {
			logger.Fatal().Err(err).Msg("mysql fault repo init error")
		}
		checkers["database"] = &middleware.DatabaseHealthChecker{DB: db}

	case "postgres":
		db, err := pgdb.Connect(ctx, cfg.PostgresDSN())
		if err != nil {
			logger.Fatal().Err(err).Msg("postgres connect error")
		}
		defer db.Close()
		b, err := pgbackend.New(ctx, db)
		if err != nil {
			logger.Fatal().Err(err).Msg("postgres backend init error")
		}
		backend = b
		if faultRepo, err = pgdb.NewFaultRepository(ctx, db); err != nil {
			logger.Fatal().Err(err).Msg("postgres fault repo init error")
		}
		checkers["database"] = &middleware.DatabaseHealthChecker{DB: db}

	case "minio":
		b, err := miniostore.New(ctx,
			cfg.Minio.Endpoint,
			cfg.Minio.Region,
			cfg.Minio.BucketName,
			cfg.Minio.AccessKey,
			cfg.Minio.SecretKey,
			cfg.Minio.UseSSL,
		)
		if err != nil {
			logger.Fatal().Err(err).Msg("minio init error")
		}
		backend = b
		checkers["cache"] = &middleware.BackendHealthChecker{Backend: b}

	default:
		logger.Fatal().Str("backend", cfg.Cache.Backend).Msg("unknown cache backend")
	}

	clock := application.SystemClock{}
	store := appcache.New(backend, clock, time.Duration(cfg.Cache.TTLDays)*24*time.Hour, logger)

	var analyzer httpserver.Analyzer
	if cfg.OpenAI.APIKey != "" {
		analyzer = aiopenai.NewClient(cfg.OpenAI.APIKey, cfg.OpenAI.Model)
	} else {
		logger.Warn().Msg("no openai api key configured; text inputs use the offline reconstruction tier")
	}

	svc := &appanalysis.Service{
		Cache:  store,
		Clock:  clock,
		Faults: faultRepo,
		Logger: logger,
	}

	mux := chi.NewRouter()
	mux.Use(cors.Handler(cors.Options{
		AllowedMethods: []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Authorization", "Content-Type"},
	}))
	mux.Use(middleware.LoggingMiddleware(logger))
	mux.Use(middleware.MetricsMiddleware)
	mux.Use(middleware.APIKeyAuth(cfg.Auth.Keys))
	mux.Use(middleware.RateLimitMiddleware(cfg.RateLimit.Capacity, cfg.RateLimit.RefillRate))
	mux.Mount("/", httpserver.NewRouter(svc, analyzer, checkers))

	addr := fmt.Sprintf(":%d", cfg.Server.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      mux,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 60 * time.Second, // provider calls ride on the response
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info().Str("addr", addr).Msg("server listening")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal().Err(err).Msg("server error")
		}
	}()

	// graceful shutdown
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop
	logger.Info().Msg("shutting down server...")

	ctx2, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx2); err != nil {
		logger.Error().Err(err).Msg("shutdown error")
	}
	if err := store.Flush(ctx2); err != nil {
		logger.Error().Err(err).Msg("cache flush error")
	}
}
