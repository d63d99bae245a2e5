package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/hongminglow/storefront-api/internal/auth"
	"github.com/hongminglow/storefront-api/internal/config"
	"github.com/hongminglow/storefront-api/internal/database"
	"github.com/hongminglow/storefront-api/internal/logger"
	"github.com/hongminglow/storefront-api/internal/metrics"
	"github.com/hongminglow/storefront-api/internal/middleware"
	"github.com/hongminglow/storefront-api/internal/server"
	"github.com/hongminglow/storefront-api/internal/storage/postgres"
)

// Startup order: config, logger, database, migrations, stores, token manager,
// auth service, metrics, router, server. A missing signing secret stops the
// process before anything listens.
func main() {
	envErr := godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("load config", slog.Any("error", err))
		os.Exit(1)
	}

	log := logger.SetupDefault(os.Stdout, logger.ParseLevel(cfg.LogLevel))
	if envErr != nil {
		log.Info("no .env file found; relying on existing environment")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	db, err := database.Open(ctx, cfg.DatabaseURL)
	cancel()
	if err != nil {
		fatal(log, "init database", err)
	}
	defer db.Close()

	if cfg.MigrateOnStart {
		if err := database.RunMigrations(cfg.DatabaseURL); err != nil {
			fatal(log, "apply migrations", err)
		}
		log.Info("migrations applied")
	}

	store := postgres.New(db)

	tokens, err := auth.NewTokenManager(cfg.JWTSecret, cfg.JWTIssuer, cfg.TokenTTL())
	if err != nil {
		fatal(log, "init token manager", err)
	}
	authService := auth.NewService(store, store, tokens, cfg.TokenTTL())

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		collectors.NewDBStatsCollector(db, "storefront"),
	)
	collector := metrics.NewCollector(registry)

	limiter := middleware.NewLoginLimiter(cfg.LoginRateLimit, 10*time.Minute)
	defer limiter.Stop()

	router := server.NewRouter(server.Deps{
		Logger:      log,
		CORSOrigins: cfg.CORSOrigins,
		StartedAt:   time.Now(),
		Verifier:    tokens,
		Auth:        authService,
		Limiter:     limiter,
		Users:       store,
		Categories:  store,
		Products:    store,
		Orders:      store,
		Health:      store,
		Metrics:     collector,
		Gatherer:    registry,
	})
	srv := server.New(cfg, router)

	go func() {
		log.Info("storefront api listening", slog.String("addr", srv.Addr()))
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			fatal(log, "http server error", err)
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh

	ctxShutdown, cancelShutdown := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancelShutdown()

	if err := srv.Shutdown(ctxShutdown); err != nil {
		log.Error("graceful shutdown error", slog.Any("error", err))
	}
}

func fatal(log *slog.Logger, msg string, err error) {
	log.Error(msg, slog.Any("error", err))
	os.Exit(1)
}
