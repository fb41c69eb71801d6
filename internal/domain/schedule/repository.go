// internal/domain/schedule/repository.go
package schedule

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Filter narrows List results. Nil fields match everything.
type Filter struct {
	Status *Status
	Kind   *Kind
}

// AdvanceFields is the post-execution state applied to a schedule in one
// atomic step: the incremented counter, the last executed date, and either
// the next eligible date (still Active) or a terminal Completed status.
type AdvanceFields struct {
	NextExecutionDate time.Time
	Status            Status
	TotalExecutions   int
	LastExecutedDate  time.Time
}

// Repository defines persistence for ScheduledTransaction records.
type Repository interface {
	Create(ctx context.Context, s *ScheduledTransaction) error
	GetByID(ctx context.Context, id uuid.UUID) (*ScheduledTransaction, error)
	List(ctx context.Context, f Filter) ([]*ScheduledTransaction, error)
	// Update persists the mutable fields (execution_day, description,
	// max_executions) of an existing schedule.
	Update(ctx context.Context, s *ScheduledTransaction) error

	// SelectDue returns every schedule with status Active and
	// next_execution_date on or before date.
	SelectDue(ctx context.Context, date time.Time) ([]*ScheduledTransaction, error)

	// ConditionalAdvance applies fields to the schedule only if its stored
	// status still equals expected, as a single compare-and-set statement.
	// Returns false (and no error) when the precondition failed because
	// another process advanced the schedule first.
	ConditionalAdvance(ctx context.Context, id uuid.UUID, expected Status, fields AdvanceFields) (bool, error)

	// ConditionalSetStatus moves the schedule from expected to next with the
	// same compare-and-set semantics. Transition legality is the caller's
	// responsibility; this only guarantees atomicity.
	ConditionalSetStatus(ctx context.Context, id uuid.UUID, expected, next Status) (bool, error)
}
