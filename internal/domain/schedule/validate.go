// internal/domain/schedule/validate.go
package schedule

import (
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// FieldError describes a single validation violation on a named field.
type FieldError struct {
	Field   string
	Message string
}

func (e FieldError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// ValidationError carries every violation found in one pass, not just the
// first. Expected domain violations are returned, never panicked.
type ValidationError struct {
	Violations []FieldError
}

func (e *ValidationError) Error() string {
	msgs := make([]string, len(e.Violations))
	for i, v := range e.Violations {
		msgs[i] = v.Error()
	}
	return "schedule validation failed: " + strings.Join(msgs, "; ")
}

// Draft holds the caller-supplied fields of a schedule before it is
// persisted. Derived fields (id, status, counters, timestamps) are filled in
// by the application layer after validation.
type Draft struct {
	TargetReference    string
	Kind               Kind
	Amount             decimal.Decimal
	ExecutionDay       int
	NextExecutionDate  time.Time
	RecurrenceInterval Interval // empty for one-time kinds
	MaxExecutions      sql.NullInt32
	Description        string
}

// Validate checks every structural and business rule together and returns a
// *ValidationError listing all violations, or nil when the draft is valid.
// now is the creation date; the first execution date may not precede it.
func (d Draft) Validate(now time.Time) error {
	var violations []FieldError

	if d.TargetReference == "" {
		violations = append(violations, FieldError{"target_reference", "is required"})
	}

	if !d.Kind.IsValid() {
		violations = append(violations, FieldError{"kind", fmt.Sprintf("unknown kind %q", d.Kind)})
	} else if d.Kind.IsRecurring() {
		if d.RecurrenceInterval == "" {
			violations = append(violations, FieldError{"recurrence_interval", "is required for recurring kinds"})
		} else if !d.RecurrenceInterval.IsValid() {
			violations = append(violations, FieldError{"recurrence_interval", fmt.Sprintf("unknown interval %q", d.RecurrenceInterval)})
		}
	} else {
		if d.RecurrenceInterval != "" {
			violations = append(violations, FieldError{"recurrence_interval", "must be absent for one-time kinds"})
		}
		if d.MaxExecutions.Valid && d.MaxExecutions.Int32 != 1 {
			violations = append(violations, FieldError{"max_executions", "must be absent or exactly 1 for one-time kinds"})
		}
	}

	if !d.Amount.IsPositive() {
		violations = append(violations, FieldError{"amount", "must be greater than zero"})
	}

	if d.ExecutionDay < 1 || d.ExecutionDay > 31 {
		violations = append(violations, FieldError{"execution_day", "must be between 1 and 31"})
	}

	if d.MaxExecutions.Valid && d.MaxExecutions.Int32 < 1 {
		violations = append(violations, FieldError{"max_executions", "must be at least 1"})
	}

	if d.NextExecutionDate.IsZero() {
		violations = append(violations, FieldError{"next_execution_date", "is required"})
	} else if d.NextExecutionDate.Before(DateOnly(now, now.Location())) {
		violations = append(violations, FieldError{"next_execution_date", "must not be before the creation date"})
	}

	if len(violations) > 0 {
		return &ValidationError{Violations: violations}
	}
	return nil
}
