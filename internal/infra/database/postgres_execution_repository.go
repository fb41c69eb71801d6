// internal/infra/database/postgres_execution_repository.go
package database

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"scheduled_transaction_engine/internal/domain/execution"

	"github.com/google/uuid"
	_ "github.com/lib/pq" // PostgreSQL driver
)

// ErrDuplicateSuccessExecution signals a violation of the exactly-once
// guarantee: a Success row already exists for this (schedule, date) pair.
// Raised by the partial unique index uq_execution_success_per_date.
var ErrDuplicateSuccessExecution = fmt.Errorf("success execution already recorded for this schedule and date")

type PostgresExecutionRepository struct {
	db *sql.DB
}

func NewPostgresExecutionRepository(db *sql.DB) *PostgresExecutionRepository {
	return &PostgresExecutionRepository{db: db}
}

// Append inserts one execution record. The ledger exposes no update or
// delete; history is immutable.
func (r *PostgresExecutionRepository) Append(ctx context.Context, e *execution.Execution) error {
	query := `INSERT INTO scheduled_transaction_executions
              (id, scheduled_transaction_id, execution_date, execution_timestamp,
               status, executed_amount, activity_log_id, error_message, notes)
              VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`
	_, err := r.db.ExecContext(ctx, query,
		e.ID, e.ScheduledTransactionID, e.ExecutionDate, e.ExecutionTimestamp,
		e.Status, e.ExecutedAmount, e.ActivityLogID, e.ErrorMessage, e.Notes,
	)
	if err != nil {
		if strings.Contains(err.Error(), "uq_execution_success_per_date") {
			return ErrDuplicateSuccessExecution
		}
		return fmt.Errorf("error appending execution record: %w", err)
	}
	return nil
}

func (r *PostgresExecutionRepository) ListByScheduleID(ctx context.Context, scheduleID uuid.UUID) ([]*execution.Execution, error) {
	query := `SELECT id, scheduled_transaction_id, execution_date, execution_timestamp,
                     status, executed_amount, activity_log_id, error_message, notes
              FROM scheduled_transaction_executions
              WHERE scheduled_transaction_id = $1
              ORDER BY execution_timestamp, id`
	rows, err := r.db.QueryContext(ctx, query, scheduleID)
	if err != nil {
		return nil, fmt.Errorf("error querying executions by schedule: %w", err)
	}
	defer rows.Close()

	executions := make([]*execution.Execution, 0)
	for rows.Next() {
		e := &execution.Execution{}
		if err := rows.Scan(
			&e.ID, &e.ScheduledTransactionID, &e.ExecutionDate, &e.ExecutionTimestamp,
			&e.Status, &e.ExecutedAmount, &e.ActivityLogID, &e.ErrorMessage, &e.Notes,
		); err != nil {
			return nil, fmt.Errorf("error scanning execution row: %w", err)
		}
		executions = append(executions, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating execution rows: %w", err)
	}
	return executions, nil
}

func (r *PostgresExecutionRepository) HasSuccess(ctx context.Context, scheduleID uuid.UUID, date time.Time) (bool, error) {
	query := `SELECT EXISTS(
                  SELECT 1 FROM scheduled_transaction_executions
                  WHERE scheduled_transaction_id = $1 AND execution_date = $2 AND status = $3)`
	var exists bool
	err := r.db.QueryRowContext(ctx, query, scheduleID, date, execution.StatusSuccess).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("error checking for success execution: %w", err)
	}
	return exists, nil
}
