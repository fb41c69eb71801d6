// internal/domain/schedule/schedule.go
package schedule

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Kind distinguishes one-time from recurring instructions and the direction
// of the transaction. The engine only cares about the one-time/recurring
// split; direction is passed through to the execution collaborator.
type Kind string

const (
	KindOneTimeCredit   Kind = "ONE_TIME_CREDIT"
	KindRecurringCredit Kind = "RECURRING_CREDIT"
	KindOneTimeDebit    Kind = "ONE_TIME_DEBIT"
	KindRecurringDebit  Kind = "RECURRING_DEBIT"
)

// IsRecurring reports whether the kind describes a recurring instruction.
func (k Kind) IsRecurring() bool {
	return k == KindRecurringCredit || k == KindRecurringDebit
}

// IsValid reports whether k is one of the four known kinds.
func (k Kind) IsValid() bool {
	switch k {
	case KindOneTimeCredit, KindRecurringCredit, KindOneTimeDebit, KindRecurringDebit:
		return true
	}
	return false
}

// Interval is the recurrence period of a recurring schedule.
type Interval string

const (
	IntervalMonthly   Interval = "MONTHLY"
	IntervalQuarterly Interval = "QUARTERLY"
	IntervalAnnually  Interval = "ANNUALLY"
)

// Months returns the number of calendar months the interval spans.
// Returns 0 for an unknown interval.
func (i Interval) Months() int {
	switch i {
	case IntervalMonthly:
		return 1
	case IntervalQuarterly:
		return 3
	case IntervalAnnually:
		return 12
	}
	return 0
}

// IsValid reports whether i is a known recurrence interval.
func (i Interval) IsValid() bool {
	return i.Months() != 0
}

// ScheduledTransaction is a user-defined recurring or one-time transaction
// instruction. Corresponds to the 'scheduled_transactions' table.
type ScheduledTransaction struct {
	ID                 uuid.UUID
	TargetReference    string // opaque, owned by an external collaborator
	Kind               Kind
	Amount             decimal.Decimal // fixed at creation, immutable
	ExecutionDay       int             // nominal day of month, 1-31
	NextExecutionDate  time.Time       // date only; next date the schedule is eligible to fire
	IsRecurring        bool
	RecurrenceInterval Interval // empty unless IsRecurring
	Status             Status
	MaxExecutions      sql.NullInt32
	TotalExecutions    int
	LastExecutedDate   sql.NullTime
	Description        string
	CreatedAt          time.Time
	UpdatedAt          time.Time
}

// ExecutableSanity checks the invariants a schedule must satisfy before the
// engine attempts to execute it. A violation here means the stored record is
// corrupt or was selected in error; the engine records the schedule as
// skipped rather than executing it.
func (s *ScheduledTransaction) ExecutableSanity() error {
	if s.Status != StatusActive {
		return fmt.Errorf("schedule %s is not active (status %s)", s.ID, s.Status)
	}
	if s.ExecutionDay < 1 || s.ExecutionDay > 31 {
		return fmt.Errorf("schedule %s has execution day %d outside 1-31", s.ID, s.ExecutionDay)
	}
	if !s.Amount.IsPositive() {
		return fmt.Errorf("schedule %s has non-positive amount %s", s.ID, s.Amount)
	}
	if s.IsRecurring && !s.RecurrenceInterval.IsValid() {
		return fmt.Errorf("schedule %s is recurring but has no valid interval", s.ID)
	}
	return nil
}

// CapReached reports whether executing one more time would reach the
// execution cap. Non-recurring schedules have an implicit cap of 1.
func (s *ScheduledTransaction) CapReached(totalAfterExecution int) bool {
	if !s.IsRecurring {
		return totalAfterExecution >= 1
	}
	return s.MaxExecutions.Valid && totalAfterExecution >= int(s.MaxExecutions.Int32)
}
