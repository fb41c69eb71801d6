package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// AppConfig holds all configuration for the application
type AppConfig struct {
	DatabaseURL        string
	ExecutorBaseURL    string // domain-execution collaborator endpoint
	LogLevel           string
	Environment        string
	Timezone           *time.Location // zone in which "today" is resolved
	CronSpecDailyRun   string         // daemon mode: when the daily run fires
	WorkerCount        int            // bounded per-run parallelism
	TelegramToken      string         // optional; enables run-report notification
	OperatorTelegramID int64          // optional; chat receiving run reports
}

// Load reads configuration from environment variables and .env file (if present).
func Load() (*AppConfig, error) {
	// Attempt to load .env file. Errors are ignored if the file doesn't exist.
	// godotenv.Load will not override existing env variables.
	_ = godotenv.Load()

	cfg := &AppConfig{}
	var err error

	cfg.DatabaseURL = os.Getenv("DATABASE_URL")
	if cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL is not set")
	}

	cfg.ExecutorBaseURL = os.Getenv("EXECUTOR_BASE_URL")
	if cfg.ExecutorBaseURL == "" {
		return nil, fmt.Errorf("EXECUTOR_BASE_URL is not set")
	}

	cfg.LogLevel = strings.ToLower(os.Getenv("LOG_LEVEL"))
	if cfg.LogLevel == "" {
		cfg.LogLevel = "info" // Default log level
	}

	cfg.Environment = strings.ToLower(os.Getenv("ENVIRONMENT"))
	if cfg.Environment == "" {
		cfg.Environment = "development" // Default environment
	}

	tzName := os.Getenv("TIMEZONE")
	if tzName == "" {
		tzName = "UTC"
	}
	cfg.Timezone, err = time.LoadLocation(tzName)
	if err != nil {
		return nil, fmt.Errorf("invalid TIMEZONE %q: %w", tzName, err)
	}

	cfg.CronSpecDailyRun = os.Getenv("CRON_SPEC_DAILY_RUN")
	if cfg.CronSpecDailyRun == "" {
		cfg.CronSpecDailyRun = "0 6 * * *" // Default: 06:00 daily
	}

	workerCountStr := os.Getenv("ENGINE_WORKER_COUNT")
	if workerCountStr == "" {
		cfg.WorkerCount = 4
	} else {
		cfg.WorkerCount, err = strconv.Atoi(workerCountStr)
		if err != nil || cfg.WorkerCount < 1 {
			return nil, fmt.Errorf("invalid ENGINE_WORKER_COUNT %q", workerCountStr)
		}
	}

	// Telegram run-report notification is optional, but the token and chat ID
	// only make sense as a pair.
	cfg.TelegramToken = os.Getenv("TELEGRAM_TOKEN")
	operatorIDStr := os.Getenv("OPERATOR_TELEGRAM_ID")
	if operatorIDStr != "" {
		cfg.OperatorTelegramID, err = strconv.ParseInt(operatorIDStr, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid OPERATOR_TELEGRAM_ID: %w", err)
		}
	}
	if (cfg.TelegramToken == "") != (cfg.OperatorTelegramID == 0) {
		return nil, fmt.Errorf("TELEGRAM_TOKEN and OPERATOR_TELEGRAM_ID must be set together")
	}

	return cfg, nil
}
