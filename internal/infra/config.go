package infra

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// Config represents application configuration loaded from environment variables.
type Config struct {
	AppEnv      string
	Port        string
	DatabaseURL string

	TelegramBotToken string

	KlingBaseURL string
	KlingAPIKey  string
	SoraBaseURL  string
	SoraAPIKey   string
	VeoBaseURL   string
	VeoAPIKey    string

	StoragePath    string
	StorageBaseURL string

	HTTPReadTimeout  time.Duration
	HTTPWriteTimeout time.Duration
	HTTPIdleTimeout  time.Duration
	RateLimitPerMin  int

	WorkerPollInterval  time.Duration
	WorkerCleanupEvery  int
	WorkerClaimLimit    int
	WorkerRepollLimit   int
	WorkerSubmitSlots   int
	WorkerRepollSlots   int
	ProviderCallTimeout time.Duration
	JobPollWindow       time.Duration
	JobPollBackoff      time.Duration
	DeliverTimeout      time.Duration
	ReclaimGrace        time.Duration

	JobDefaultTTL         time.Duration
	JobDefaultMaxAttempts int
}

// LoadConfig loads configuration from environment variables and applies defaults where needed.
func LoadConfig() (*Config, error) {
	cfg := &Config{
		AppEnv:      getEnv("APP_ENV", "development"),
		Port:        getEnv("PORT", "8080"),
		DatabaseURL: os.Getenv("DATABASE_URL"),

		TelegramBotToken: os.Getenv("TELEGRAM_BOT_TOKEN"),

		KlingBaseURL: getEnv("KLING_BASE_URL", "https://api.klingai.com/v1"),
		KlingAPIKey:  os.Getenv("KLING_API_KEY"),
		SoraBaseURL:  getEnv("SORA_BASE_URL", "https://api.openai.com/v1"),
		SoraAPIKey:   os.Getenv("SORA_API_KEY"),
		VeoBaseURL:   getEnv("VEO_BASE_URL", "https://generativelanguage.googleapis.com/v1beta"),
		VeoAPIKey:    os.Getenv("VEO_API_KEY"),

		StoragePath:    os.Getenv("STORAGE_PATH"),
		StorageBaseURL: getEnv("STORAGE_BASE_URL", "http://localhost:8080/static"),

		HTTPReadTimeout:  time.Second * time.Duration(getEnvInt("HTTP_READ_TIMEOUT_SECONDS", 15)),
		HTTPWriteTimeout: time.Second * time.Duration(getEnvInt("HTTP_WRITE_TIMEOUT_SECONDS", 30)),
		HTTPIdleTimeout:  time.Second * time.Duration(getEnvInt("HTTP_IDLE_TIMEOUT_SECONDS", 60)),
		RateLimitPerMin:  getEnvInt("RATE_LIMIT_PER_MINUTE", 30),

		WorkerPollInterval:  time.Second * time.Duration(getEnvInt("WORKER_POLL_INTERVAL_SECONDS", 5)),
		WorkerCleanupEvery:  getEnvInt("WORKER_CLEANUP_EVERY_CYCLES", 12),
		WorkerClaimLimit:    getEnvInt("WORKER_CLAIM_LIMIT", 10),
		WorkerRepollLimit:   getEnvInt("WORKER_REPOLL_LIMIT", 20),
		WorkerSubmitSlots:   getEnvInt("WORKER_SUBMIT_CONCURRENCY", 4),
		WorkerRepollSlots:   getEnvInt("WORKER_REPOLL_CONCURRENCY", 8),
		ProviderCallTimeout: time.Second * time.Duration(getEnvInt("PROVIDER_CALL_TIMEOUT_SECONDS", 30)),
		JobPollWindow:       time.Second * time.Duration(getEnvInt("JOB_POLL_WINDOW_SECONDS", 45)),
		JobPollBackoff:      time.Second * time.Duration(getEnvInt("JOB_POLL_BACKOFF_SECONDS", 5)),
		DeliverTimeout:      time.Second * time.Duration(getEnvInt("DELIVER_TIMEOUT_SECONDS", 30)),
		ReclaimGrace:        time.Minute * time.Duration(getEnvInt("RECLAIM_GRACE_MINUTES", 10)),

		JobDefaultTTL:         time.Minute * time.Duration(getEnvInt("JOB_TTL_MINUTES", 30)),
		JobDefaultMaxAttempts: getEnvInt("JOB_MAX_ATTEMPTS", 5),
	}

	if cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL is required")
	}

	if cfg.WorkerCleanupEvery < 1 {
		cfg.WorkerCleanupEvery = 1
	}

	return cfg, nil
}

func getEnv(key, fallback string) string {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return fallback
}
