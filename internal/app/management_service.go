// internal/app/management_service.go
package app

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"scheduled_transaction_engine/internal/domain/execution"
	"scheduled_transaction_engine/internal/domain/schedule"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// Custom application-level errors for the management service
var ErrConcurrentModification = fmt.Errorf("schedule was modified concurrently, re-fetch and retry")

// ScheduleUpdate carries the mutable fields of an existing schedule. Nil
// pointers leave the stored value unchanged. Amount, kind and recurrence are
// fixed at creation and deliberately absent here.
type ScheduleUpdate struct {
	ExecutionDay  *int
	Description   *string
	MaxExecutions *int32 // zero clears the cap; not applicable to one-time kinds
}

// ManagementService is the thin wrapper layer an external UI/API consumes:
// creation, listing, mutation of non-executed fields, and the explicit
// pause/resume/cancel status transitions. Schedules are never physically
// deleted; cancellation is a status change that preserves history.
type ManagementService struct {
	schedules schedule.Repository
	ledger    execution.Ledger
	logger    *logrus.Entry
	now       func() time.Time
}

func NewManagementService(schedules schedule.Repository, ledger execution.Ledger, logger *logrus.Entry) *ManagementService {
	return &ManagementService{
		schedules: schedules,
		ledger:    ledger,
		logger:    logger,
		now:       time.Now,
	}
}

// CreateSchedule validates the draft, normalizes derived fields and persists
// a new Active schedule. Validation violations come back as a
// *schedule.ValidationError listing every failed field.
func (m *ManagementService) CreateSchedule(ctx context.Context, draft schedule.Draft) (*schedule.ScheduledTransaction, error) {
	now := m.now()
	draft.NextExecutionDate = schedule.DateOnly(draft.NextExecutionDate, draft.NextExecutionDate.Location())
	if err := draft.Validate(now); err != nil {
		return nil, err
	}

	s := &schedule.ScheduledTransaction{
		ID:                 uuid.New(),
		TargetReference:    draft.TargetReference,
		Kind:               draft.Kind,
		Amount:             draft.Amount,
		ExecutionDay:       draft.ExecutionDay,
		NextExecutionDate:  draft.NextExecutionDate,
		IsRecurring:        draft.Kind.IsRecurring(),
		RecurrenceInterval: draft.RecurrenceInterval,
		Status:             schedule.StatusActive,
		MaxExecutions:      draft.MaxExecutions,
		Description:        draft.Description,
	}
	if !s.IsRecurring && !s.MaxExecutions.Valid {
		// Non-recurring schedules carry their implicit single-execution cap
		// explicitly, so the completion rule reads uniformly.
		s.MaxExecutions = sql.NullInt32{Int32: 1, Valid: true}
	}

	if err := m.schedules.Create(ctx, s); err != nil {
		return nil, fmt.Errorf("failed to create schedule: %w", err)
	}
	m.logger.WithFields(logrus.Fields{
		"schedule_id":         s.ID,
		"kind":                s.Kind,
		"next_execution_date": s.NextExecutionDate.Format("2006-01-02"),
	}).Info("Schedule created")
	return s, nil
}

func (m *ManagementService) GetSchedule(ctx context.Context, id uuid.UUID) (*schedule.ScheduledTransaction, error) {
	return m.schedules.GetByID(ctx, id)
}

func (m *ManagementService) ListSchedules(ctx context.Context, f schedule.Filter) ([]*schedule.ScheduledTransaction, error) {
	return m.schedules.List(ctx, f)
}

// UpdateSchedule applies the partial update after re-validating the
// resulting record. Schedules in a terminal state are never mutated.
func (m *ManagementService) UpdateSchedule(ctx context.Context, id uuid.UUID, upd ScheduleUpdate) (*schedule.ScheduledTransaction, error) {
	s, err := m.schedules.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if s.Status.IsTerminal() {
		return nil, fmt.Errorf("%w: schedule %s is %s", schedule.ErrInvalidTransition, s.ID, s.Status)
	}

	if upd.ExecutionDay != nil {
		s.ExecutionDay = *upd.ExecutionDay
	}
	if upd.Description != nil {
		s.Description = *upd.Description
	}
	if upd.MaxExecutions != nil {
		if *upd.MaxExecutions == 0 {
			s.MaxExecutions = sql.NullInt32{}
		} else {
			s.MaxExecutions = sql.NullInt32{Int32: *upd.MaxExecutions, Valid: true}
		}
	}

	draft := schedule.Draft{
		TargetReference:    s.TargetReference,
		Kind:               s.Kind,
		Amount:             s.Amount,
		ExecutionDay:       s.ExecutionDay,
		NextExecutionDate:  s.NextExecutionDate,
		RecurrenceInterval: s.RecurrenceInterval,
		MaxExecutions:      s.MaxExecutions,
		Description:        s.Description,
	}
	// Validate against the schedule's own creation date: an old but legal
	// next_execution_date must not fail a later edit.
	if err := draft.Validate(s.CreatedAt); err != nil {
		return nil, err
	}

	if err := m.schedules.Update(ctx, s); err != nil {
		return nil, fmt.Errorf("failed to update schedule %s: %w", id, err)
	}
	m.logger.WithField("schedule_id", id).Info("Schedule updated")
	return s, nil
}

// Pause moves an Active schedule to Paused.
func (m *ManagementService) Pause(ctx context.Context, id uuid.UUID) error {
	return m.transition(ctx, id, schedule.StatusPaused)
}

// Resume moves a Paused schedule back to Active.
func (m *ManagementService) Resume(ctx context.Context, id uuid.UUID) error {
	return m.transition(ctx, id, schedule.StatusActive)
}

// Cancel terminates a schedule. Cancelled is terminal; the schedule keeps
// its row and history but is never selected for execution again.
func (m *ManagementService) Cancel(ctx context.Context, id uuid.UUID) error {
	return m.transition(ctx, id, schedule.StatusCancelled)
}

func (m *ManagementService) transition(ctx context.Context, id uuid.UUID, target schedule.Status) error {
	s, err := m.schedules.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if err := schedule.ValidateTransition(s.Status, target); err != nil {
		return err
	}

	ok, err := m.schedules.ConditionalSetStatus(ctx, id, s.Status, target)
	if err != nil {
		return fmt.Errorf("failed to set status of schedule %s: %w", id, err)
	}
	if !ok {
		return fmt.Errorf("%w: schedule %s", ErrConcurrentModification, id)
	}
	m.logger.WithFields(logrus.Fields{
		"schedule_id": id,
		"from":        s.Status,
		"to":          target,
	}).Info("Schedule status changed")
	return nil
}

// ListExecutions returns a schedule's full execution history, oldest first.
func (m *ManagementService) ListExecutions(ctx context.Context, scheduleID uuid.UUID) ([]*execution.Execution, error) {
	return m.ledger.ListByScheduleID(ctx, scheduleID)
}
