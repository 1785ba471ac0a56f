package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"botserver/internal/adapter/repo"
	"botserver/internal/infra"
	"botserver/internal/notify"
	video "botserver/internal/providers/video"
	"botserver/internal/service/jobs"
	"botserver/internal/storage"
	"botserver/internal/worker"
)

func main() {
	_ = godotenv.Load()

	cfg, err := infra.LoadConfig()
	if err != nil {
		panic(err)
	}
	logger := infra.NewLogger(cfg.AppEnv)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	pool, err := infra.NewDBPool(ctx, cfg)
	if err != nil {
		logger.Fatal().Err(err).Msg("worker: db connection failed")
	}
	defer pool.Close()

	runner := infra.NewSQLRunner(pool, logger)
	jobService := jobs.NewService(repo.NewVideoJobRepository(runner), logger, jobs.Defaults{
		TTL:         cfg.JobDefaultTTL,
		MaxAttempts: cfg.JobDefaultMaxAttempts,
	})

	registry, err := buildRegistry(cfg, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("worker: failed to configure providers")
	}

	var notifier notify.Notifier
	if cfg.TelegramBotToken != "" {
		notifier, err = notify.NewTelegramNotifier(cfg.TelegramBotToken, logger)
		if err != nil {
			logger.Fatal().Err(err).Msg("worker: failed to configure telegram bot")
		}
	} else {
		logger.Warn().Msg("worker: no telegram bot token, deliveries are log only")
		notifier = notify.LogNotifier{Logger: logger}
	}

	var mirror *storage.Mirror
	if cfg.StoragePath != "" {
		store, err := storage.NewFileStore(cfg.StoragePath)
		if err != nil {
			logger.Fatal().Err(err).Msg("worker: failed to configure storage")
		}
		mirror = storage.NewMirror(store, cfg.StorageBaseURL, logger)
	}

	w := worker.New(jobService, registry, notifier, mirror, logger, worker.Config{
		PollInterval:        cfg.WorkerPollInterval,
		CleanupEvery:        cfg.WorkerCleanupEvery,
		ClaimLimit:          cfg.WorkerClaimLimit,
		RepollLimit:         cfg.WorkerRepollLimit,
		SubmitSlots:         cfg.WorkerSubmitSlots,
		RepollSlots:         cfg.WorkerRepollSlots,
		ProviderCallTimeout: cfg.ProviderCallTimeout,
		PollWindow:          cfg.JobPollWindow,
		PollBackoff:         cfg.JobPollBackoff,
		DeliverTimeout:      cfg.DeliverTimeout,
		ReclaimGrace:        cfg.ReclaimGrace,
	})

	if err := w.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		logger.Fatal().Err(err).Msg("worker: stopped with error")
	}
	logger.Info().Msg("worker: stopped")
}

func buildRegistry(cfg *infra.Config, logger infra.Logger) (video.Registry, error) {
	registry := video.Registry{}

	kling, err := video.NewClient(video.Options{BaseURL: cfg.KlingBaseURL, APIKey: cfg.KlingAPIKey, Logger: &logger})
	if err != nil {
		return nil, err
	}
	registry["kling"] = video.NewKling(kling)

	sora, err := video.NewClient(video.Options{BaseURL: cfg.SoraBaseURL, APIKey: cfg.SoraAPIKey, Logger: &logger})
	if err != nil {
		return nil, err
	}
	registry["sora"] = video.NewSora(sora)

	veo, err := video.NewClient(video.Options{BaseURL: cfg.VeoBaseURL, APIKey: cfg.VeoAPIKey, Logger: &logger})
	if err != nil {
		return nil, err
	}
	registry["veo"] = video.NewVeo(veo)

	return registry, nil
}
