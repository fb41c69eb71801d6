package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"scheduled_transaction_engine/internal/app"
	"scheduled_transaction_engine/internal/domain/notify"
	"scheduled_transaction_engine/internal/infra/config"
	idb "scheduled_transaction_engine/internal/infra/database"
	"scheduled_transaction_engine/internal/infra/executor"
	"scheduled_transaction_engine/internal/infra/logger"
	"scheduled_transaction_engine/internal/infra/scheduler"
	"scheduled_transaction_engine/internal/infra/telegram"

	"gopkg.in/telebot.v3"
)

func main() {
	dateFlag := flag.String("date", "", "explicit target date (YYYY-MM-DD, default: today in the configured time zone)")
	executorURLFlag := flag.String("executor-url", "", "override the execution collaborator endpoint (for non-production environments)")
	daemonFlag := flag.Bool("daemon", false, "keep running and trigger a run daily per CRON_SPEC_DAILY_RUN")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "FATAL: could not load application configuration: %v\n", err)
		os.Exit(1)
	}
	logger.Init(cfg)
	log := logger.Get().WithField("component", "runner")

	executorURL := cfg.ExecutorBaseURL
	if *executorURLFlag != "" {
		executorURL = *executorURLFlag
		log.WithField("executor_url", executorURL).Warn("Executor endpoint overridden from command line")
	}

	db, err := idb.NewPostgresConnection(cfg.DatabaseURL)
	if err != nil {
		log.WithError(err).Fatal("Could not connect to database")
	}
	defer db.Close()
	log.Info("Database connection established")

	scheduleRepo := idb.NewPostgresScheduleRepository(db)
	executionRepo := idb.NewPostgresExecutionRepository(db)
	httpExecutor := executor.NewHTTPExecutor(executorURL)

	engine := app.NewExecutionService(
		scheduleRepo,
		executionRepo,
		httpExecutor,
		logger.Get().WithField("component", "execution_engine"),
		cfg.WorkerCount,
	)

	if *daemonFlag {
		runDaemon(cfg, engine)
		return
	}

	targetDate, err := resolveTargetDate(*dateFlag, cfg.Timezone)
	if err != nil {
		log.WithError(err).Fatal("Invalid -date value")
	}

	report, err := engine.Run(context.Background(), targetDate)
	if err != nil {
		// The run itself failed before producing a report. Nothing was
		// durably advanced, so re-invoking for the same date is safe.
		log.WithError(err).Fatal("Execution run failed")
	}

	// Individual Failed executions are data, not process failure: exit 0.
	fmt.Println(report.String())
}

func runDaemon(cfg *config.AppConfig, engine app.ExecutionRunner) {
	log := logger.Get().WithField("component", "daemon")

	var notifier notify.Client
	if cfg.TelegramToken != "" {
		bot, err := telebot.NewBot(telebot.Settings{Token: cfg.TelegramToken})
		if err != nil {
			log.WithError(err).Fatal("Could not create Telegram bot for run-report notification")
		}
		notifier = telegram.NewTelebotAdapter(bot, cfg.OperatorTelegramID)
		log.Info("Run-report Telegram notification enabled")
	}

	execScheduler := scheduler.NewExecutionScheduler(
		engine,
		notifier,
		logger.Get().WithField("component", "scheduler"),
		cfg.CronSpecDailyRun,
		cfg.Timezone,
	)
	if err := execScheduler.Start(); err != nil {
		log.WithError(err).Fatal("Could not start execution scheduler")
	}

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("Shutting down...")
	execScheduler.Stop()
	log.Info("Shut down gracefully")
}

func resolveTargetDate(dateArg string, loc *time.Location) (time.Time, error) {
	if dateArg == "" {
		return time.Now().In(loc), nil
	}
	t, err := time.ParseInLocation("2006-01-02", dateArg, loc)
	if err != nil {
		return time.Time{}, fmt.Errorf("expected YYYY-MM-DD: %w", err)
	}
	return t, nil
}
