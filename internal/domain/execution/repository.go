// internal/domain/execution/repository.go
package execution

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Ledger is the append-only persistence boundary for execution records.
// No update or delete operations are exposed.
type Ledger interface {
	// Append inserts one execution record. Appending a second Success row
	// for the same (schedule, execution date) pair fails with the storage
	// layer's duplicate-success error.
	Append(ctx context.Context, e *Execution) error

	// ListByScheduleID returns a schedule's full execution history, oldest
	// first. Read-only history consumer interface.
	ListByScheduleID(ctx context.Context, scheduleID uuid.UUID) ([]*Execution, error)

	// HasSuccess reports whether a Success record already exists for the
	// (schedule, date) pair. This is the engine's idempotency check.
	HasSuccess(ctx context.Context, scheduleID uuid.UUID, date time.Time) (bool, error)
}
