// internal/app/execution_service.go
package app

import (
	"context"
	"database/sql"
	"fmt"
	"sync"
	"time"

	"scheduled_transaction_engine/internal/domain/execution"
	"scheduled_transaction_engine/internal/domain/schedule"
	idb "scheduled_transaction_engine/internal/infra/database"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// RunReport aggregates the outcome of one engine invocation. Each schedule's
// outcome is independently committed; the report is a summary, not a
// transaction boundary.
type RunReport struct {
	TargetDate time.Time
	Processed  int
	Succeeded  int
	Failed     int
	Skipped    int
}

func (r *RunReport) String() string {
	return fmt.Sprintf("run for %s: processed=%d succeeded=%d failed=%d skipped=%d",
		r.TargetDate.Format("2006-01-02"), r.Processed, r.Succeeded, r.Failed, r.Skipped)
}

// ExecutionRunner is the engine surface the trigger layers (CLI, cron
// daemon) depend on.
type ExecutionRunner interface {
	Run(ctx context.Context, targetDate time.Time) (*RunReport, error)
}

// Ledger notes recorded on Skipped executions.
const (
	noteAlreadyExecuted       = "already executed"
	noteConcurrentModified    = "concurrent modification detected"
	notePrefixFailedPreflight = "pre-execution sanity check failed: "
)

type runOutcome int

const (
	outcomeSucceeded runOutcome = iota
	outcomeFailed
	outcomeSkipped
)

// ExecutionService selects due active schedules for a target date, executes
// each exactly once per date, records the attempt in the ledger, and
// advances or completes the schedule. Safe under accidental overlapping or
// duplicate invocation: cross-run safety comes from the ledger idempotency
// check and the compare-and-set advance, not from any global lock.
type ExecutionService struct {
	schedules   schedule.Repository
	ledger      execution.Ledger
	executor    execution.Executor
	logger      *logrus.Entry
	workerCount int
	now         func() time.Time // injectable clock for tests
}

func NewExecutionService(
	schedules schedule.Repository,
	ledger execution.Ledger,
	executor execution.Executor,
	logger *logrus.Entry,
	workerCount int,
) *ExecutionService {
	if workerCount < 1 {
		workerCount = 1
	}
	return &ExecutionService{
		schedules:   schedules,
		ledger:      ledger,
		executor:    executor,
		logger:      logger,
		workerCount: workerCount,
		now:         time.Now,
	}
}

// Run processes every schedule due on targetDate and returns the aggregated
// report. A failure local to one schedule (callback error, lost advance
// race) is recorded in the ledger and never aborts the batch; an
// infrastructure error (the persistence layer itself failing) aborts the
// whole invocation with no report, which is safe to re-invoke because the
// ledger check makes every run repeatable.
func (s *ExecutionService) Run(ctx context.Context, targetDate time.Time) (*RunReport, error) {
	day := schedule.DateOnly(targetDate, targetDate.Location())
	s.logger.WithField("target_date", day.Format("2006-01-02")).Info("Starting execution run")

	due, err := s.schedules.SelectDue(ctx, day)
	if err != nil {
		return nil, fmt.Errorf("failed to select due schedules: %w", err)
	}

	report := &RunReport{TargetDate: day}
	if len(due) == 0 {
		s.logger.Info("No schedules due; nothing to execute")
		return report, nil
	}
	s.logger.WithField("due_count", len(due)).Info("Selected due schedules")

	// Schedules are independent units of work; fan out over a bounded pool.
	// Each result is either an outcome or a fatal infra error.
	type result struct {
		outcome runOutcome
		err     error
	}

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	workers := s.workerCount
	if workers > len(due) {
		workers = len(due)
	}

	jobs := make(chan *schedule.ScheduledTransaction)
	results := make(chan result, len(due))

	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for sched := range jobs {
				if runCtx.Err() != nil {
					return
				}
				outcome, err := s.processSchedule(runCtx, sched, day)
				results <- result{outcome: outcome, err: err}
			}
		}()
	}

	go func() {
		defer close(jobs)
		for _, sched := range due {
			select {
			case jobs <- sched:
			case <-runCtx.Done():
				return
			}
		}
	}()

	go func() {
		wg.Wait()
		close(results)
	}()

	var fatal error
	for res := range results {
		if res.err != nil {
			if fatal == nil {
				fatal = res.err
				cancel() // stop handing out further work
			}
			continue
		}
		report.Processed++
		switch res.outcome {
		case outcomeSucceeded:
			report.Succeeded++
		case outcomeFailed:
			report.Failed++
		case outcomeSkipped:
			report.Skipped++
		}
	}
	if fatal != nil {
		return nil, fmt.Errorf("execution run aborted: %w", fatal)
	}

	s.logger.WithFields(logrus.Fields{
		"processed": report.Processed,
		"succeeded": report.Succeeded,
		"failed":    report.Failed,
		"skipped":   report.Skipped,
	}).Info("Execution run finished")
	return report, nil
}

// processSchedule handles one due schedule in isolation. The returned error
// is reserved for infrastructure failures; every expected outcome (success,
// callback failure, idempotent skip, lost race) is recorded in the ledger
// and reported through the outcome.
func (s *ExecutionService) processSchedule(ctx context.Context, sched *schedule.ScheduledTransaction, day time.Time) (runOutcome, error) {
	log := s.logger.WithFields(logrus.Fields{
		"schedule_id": sched.ID,
		"target_date": day.Format("2006-01-02"),
	})

	if err := sched.ExecutableSanity(); err != nil {
		log.WithError(err).Warn("Schedule failed pre-execution sanity check; skipping")
		if appendErr := s.appendSkipped(ctx, sched, day, notePrefixFailedPreflight+err.Error()); appendErr != nil {
			return 0, appendErr
		}
		return outcomeSkipped, nil
	}

	// Idempotency check: a prior run (or an overlapping one) may already
	// have succeeded for this date.
	done, err := s.ledger.HasSuccess(ctx, sched.ID, day)
	if err != nil {
		return 0, fmt.Errorf("ledger lookup for schedule %s: %w", sched.ID, err)
	}
	if done {
		log.Info("Success already recorded for this date; skipping")
		if err := s.appendSkipped(ctx, sched, day, noteAlreadyExecuted); err != nil {
			return 0, err
		}
		return outcomeSkipped, nil
	}

	activityLogID, execErr := s.executor.Execute(ctx, sched.TargetReference, sched.Kind, sched.Amount)
	if execErr != nil {
		// The schedule's next_execution_date and status stay untouched, so
		// the same due date is retried on the next invocation.
		log.WithError(execErr).Warn("Domain execution callback failed")
		failed := s.newExecution(sched, day, execution.StatusFailed)
		failed.ErrorMessage = sql.NullString{String: execErr.Error(), Valid: true}
		if err := s.ledger.Append(ctx, failed); err != nil {
			return 0, fmt.Errorf("recording failed execution for schedule %s: %w", sched.ID, err)
		}
		return outcomeFailed, nil
	}

	success := s.newExecution(sched, day, execution.StatusSuccess)
	success.ExecutedAmount = sched.Amount
	success.ActivityLogID = sql.NullString{String: activityLogID, Valid: true}
	if err := s.ledger.Append(ctx, success); err != nil {
		if err == idb.ErrDuplicateSuccessExecution {
			// An overlapping run beat us to the unique index between the
			// idempotency check and our insert.
			log.Info("Lost success-record race to a concurrent run; skipping")
			if appendErr := s.appendSkipped(ctx, sched, day, noteAlreadyExecuted); appendErr != nil {
				return 0, appendErr
			}
			return outcomeSkipped, nil
		}
		return 0, fmt.Errorf("recording success execution for schedule %s: %w", sched.ID, err)
	}

	fields := s.nextState(sched, day)
	advanced, err := s.schedules.ConditionalAdvance(ctx, sched.ID, schedule.StatusActive, fields)
	if err != nil {
		return 0, fmt.Errorf("advancing schedule %s: %w", sched.ID, err)
	}
	if !advanced {
		// Another process changed the schedule's status under us. Leave it
		// alone; the next run re-evaluates. No retry within this run.
		log.Warn("Conditional advance lost the race; recording skip")
		if err := s.appendSkipped(ctx, sched, day, noteConcurrentModified); err != nil {
			return 0, err
		}
		return outcomeSkipped, nil
	}

	log.WithFields(logrus.Fields{
		"new_status":          fields.Status,
		"total_executions":    fields.TotalExecutions,
		"next_execution_date": fields.NextExecutionDate.Format("2006-01-02"),
	}).Info("Schedule executed and advanced")
	return outcomeSucceeded, nil
}

// nextState computes the schedule's post-execution state: the incremented
// counter plus either a Completed terminal status (one-time schedules and
// reached caps, next_execution_date left inert) or the next eligible date.
func (s *ExecutionService) nextState(sched *schedule.ScheduledTransaction, day time.Time) schedule.AdvanceFields {
	total := sched.TotalExecutions + 1
	fields := schedule.AdvanceFields{
		NextExecutionDate: sched.NextExecutionDate,
		Status:            schedule.StatusActive,
		TotalExecutions:   total,
		LastExecutedDate:  day,
	}
	if sched.CapReached(total) {
		fields.Status = schedule.StatusCompleted
	} else {
		fields.NextExecutionDate = schedule.NextExecutionDate(day, sched.ExecutionDay, sched.RecurrenceInterval)
	}
	return fields
}

func (s *ExecutionService) newExecution(sched *schedule.ScheduledTransaction, day time.Time, status execution.Status) *execution.Execution {
	return &execution.Execution{
		ID:                     uuid.New(),
		ScheduledTransactionID: sched.ID,
		ExecutionDate:          day,
		ExecutionTimestamp:     s.now().UTC(),
		Status:                 status,
	}
}

func (s *ExecutionService) appendSkipped(ctx context.Context, sched *schedule.ScheduledTransaction, day time.Time, note string) error {
	skipped := s.newExecution(sched, day, execution.StatusSkipped)
	skipped.Notes = sql.NullString{String: note, Valid: true}
	if err := s.ledger.Append(ctx, skipped); err != nil {
		return fmt.Errorf("recording skipped execution for schedule %s: %w", sched.ID, err)
	}
	return nil
}
