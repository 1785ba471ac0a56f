package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"botserver/internal/adapter/repo"
	"botserver/internal/http/handlers"
	"botserver/internal/http/httpapi"
	"botserver/internal/infra"
	"botserver/internal/service/jobs"
)

func main() {
	_ = godotenv.Load()

	cfg, err := infra.LoadConfig()
	if err != nil {
		panic(err)
	}
	logger := infra.NewLogger(cfg.AppEnv)

	ctx := context.Background()
	pool, err := infra.NewDBPool(ctx, cfg)
	if err != nil {
		logger.Fatal().Err(err).Msg("api: failed to connect database")
	}
	defer pool.Close()

	runner := infra.NewSQLRunner(pool, logger)
	jobService := jobs.NewService(repo.NewVideoJobRepository(runner), logger, jobs.Defaults{
		TTL:         cfg.JobDefaultTTL,
		MaxAttempts: cfg.JobDefaultMaxAttempts,
	})
	flags := repo.NewFeatureFlagRepository(runner)

	app := handlers.NewApp(jobService, flags, logger)
	router := httpapi.NewRouter(app, cfg.RateLimitPerMin, cfg.StoragePath)
	server := infra.NewHTTPServer(cfg, router)

	go func() {
		logger.Info().Msgf("API listening on :%s", cfg.Port)
		if err := server.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal().Err(err).Msg("api: http server failed")
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTPIdleTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("api: failed to shutdown server")
	}
	logger.Info().Msg("api: stopped")
}
