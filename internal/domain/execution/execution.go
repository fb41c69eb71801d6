// internal/domain/execution/execution.go
package execution

import (
	"database/sql"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Status is the outcome of a single execution attempt.
type Status string

const (
	StatusSuccess Status = "SUCCESS"
	StatusFailed  Status = "FAILED"
	StatusSkipped Status = "SKIPPED"
)

// Execution is an immutable record of one attempt to realize a due schedule
// on a specific date. Corresponds to the 'scheduled_transaction_executions'
// table. Rows are only ever inserted, never updated or deleted; at most one
// Success row may exist per (schedule, execution date) pair.
type Execution struct {
	ID                     uuid.UUID
	ScheduledTransactionID uuid.UUID
	ExecutionDate          time.Time // the due date targeted, not wall-clock time
	ExecutionTimestamp     time.Time // wall-clock time the attempt ran
	Status                 Status
	ExecutedAmount         decimal.Decimal
	ActivityLogID          sql.NullString // external audit sink reference, set on Success
	ErrorMessage           sql.NullString // set on Failed
	Notes                  sql.NullString // e.g. reason for Skipped
}
