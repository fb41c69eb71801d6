// internal/domain/execution/executor.go
package execution

import (
	"context"

	"github.com/shopspring/decimal"

	"scheduled_transaction_engine/internal/domain/schedule"
)

// Executor is the domain-execution callback contract, owned by an external
// collaborator. The engine has no knowledge of what the callback does beyond
// its result: on success it returns a reference into the external activity
// log; on error the attempt is recorded as Failed and retried on the next
// run for the same due date.
type Executor interface {
	Execute(ctx context.Context, targetReference string, kind schedule.Kind, amount decimal.Decimal) (activityLogID string, err error)
}
