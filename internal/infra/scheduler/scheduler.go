package scheduler

import (
	"context"
	"time"

	"scheduled_transaction_engine/internal/app"
	"scheduled_transaction_engine/internal/domain/notify"

	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"
)

// ExecutionScheduler triggers the engine once per day in daemon mode. The
// engine itself stays idempotent, so a missed or duplicated cron firing is
// harmless; this layer only decides when "today" gets processed.
type ExecutionScheduler struct {
	cronEngine *cron.Cron
	runner     app.ExecutionRunner
	notifier   notify.Client // nil when run-report notification is not configured
	logger     *logrus.Entry
	cronSpec   string
	location   *time.Location
}

func NewExecutionScheduler(
	runner app.ExecutionRunner,
	notifier notify.Client,
	logger *logrus.Entry,
	cronSpec string, // e.g. "0 6 * * *" (06:00 daily)
	location *time.Location,
) *ExecutionScheduler {
	return &ExecutionScheduler{
		cronEngine: cron.New(cron.WithLocation(location)),
		runner:     runner,
		notifier:   notifier,
		logger:     logger,
		cronSpec:   cronSpec,
		location:   location,
	}
}

func (s *ExecutionScheduler) Start() error {
	s.logger.WithField("cron_spec", s.cronSpec).Info("Starting execution scheduler")

	_, err := s.cronEngine.AddFunc(s.cronSpec, func() {
		s.logger.Info("Cron job triggered for daily execution run")
		s.RunForToday()
	})
	if err != nil {
		return err
	}

	s.cronEngine.Start()
	s.logger.Info("Execution scheduler started")
	return nil
}

// RunForToday invokes the engine for the current date in the configured
// time zone and sends the run report to the operator when a notifier is
// configured. Individual failed executions are data inside the report, not
// an error of the run itself.
func (s *ExecutionScheduler) RunForToday() {
	ctx := context.Background()
	today := time.Now().In(s.location)

	report, err := s.runner.Run(ctx, today)
	if err != nil {
		s.logger.WithError(err).Error("Daily execution run failed before producing a report")
		if s.notifier != nil {
			if notifyErr := s.notifier.SendMessage("Scheduled transaction run FAILED: " + err.Error()); notifyErr != nil {
				s.logger.WithError(notifyErr).Error("Could not deliver run-failure notification")
			}
		}
		return
	}

	s.logger.WithFields(logrus.Fields{
		"processed": report.Processed,
		"succeeded": report.Succeeded,
		"failed":    report.Failed,
		"skipped":   report.Skipped,
	}).Info("Daily execution run completed")

	if s.notifier != nil {
		if err := s.notifier.SendMessage("Scheduled transaction " + report.String()); err != nil {
			s.logger.WithError(err).Error("Could not deliver run-report notification")
		}
	}
}

func (s *ExecutionScheduler) Stop() {
	s.logger.Info("Stopping execution scheduler...")
	ctx := s.cronEngine.Stop() // waits for a running job before shutting down
	<-ctx.Done()
	s.logger.Info("Execution scheduler gracefully stopped")
}
