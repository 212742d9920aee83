package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"

	"social-feed/internal/adapters/httpapi"
	"social-feed/internal/adapters/repo"
	"social-feed/internal/infra/config"
	"social-feed/internal/infra/db"
	httpinfra "social-feed/internal/infra/http"
	loginfra "social-feed/internal/infra/log"
	"social-feed/internal/infra/metrics"
	"social-feed/internal/usecase/feed"
)

func main() {
	cfg := config.Load()
	logger := loginfra.NewLogger(cfg.AppEnv)

	metrics.MustRegister(prometheus.DefaultRegisterer)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	dsn := cfg.DSN()
	if err := db.Migrate(dsn); err != nil {
		logger.Fatal().Err(err).Msg("api: failed to apply migrations")
	}
	pool, err := db.Connect(ctx, dsn)
	if err != nil {
		logger.Fatal().Err(err).Msg("api: failed to connect to postgres")
	}
	defer pool.Close()

	store := repo.NewPostgres(pool)
	feedService := feed.NewService(store, logger.With().Str("component", "feed").Logger(), cfg.Feed.DefaultPageSize, cfg.Feed.MaxPageSize)
	api := httpapi.NewServer(store, store, store, feedService, logger.With().Str("component", "httpapi").Logger())

	server := httpinfra.NewServer(logger, httpinfra.Options{
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	})
	api.Routes(server.Router)

	go func() {
		addr := fmt.Sprintf("%s:%d", cfg.Host, cfg.Port)
		if err := server.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error().Err(err).Msg("api: server stopped")
			stop()
		}
	}()

	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("api: graceful shutdown failed")
	}
}
