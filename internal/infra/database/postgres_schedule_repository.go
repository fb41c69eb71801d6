// internal/infra/database/postgres_schedule_repository.go
package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"scheduled_transaction_engine/internal/domain/schedule"

	"github.com/google/uuid"
	_ "github.com/lib/pq" // PostgreSQL driver
)

// Custom errors specific to the schedule repository
var ErrScheduleNotFound = fmt.Errorf("scheduled transaction not found")

const scheduleColumns = `id, target_reference, kind, amount, execution_day, next_execution_date,
	is_recurring, recurrence_interval, status, max_executions, total_executions,
	last_executed_date, description, created_at, updated_at`

type PostgresScheduleRepository struct {
	db *sql.DB
}

func NewPostgresScheduleRepository(db *sql.DB) *PostgresScheduleRepository {
	return &PostgresScheduleRepository{db: db}
}

func (r *PostgresScheduleRepository) Create(ctx context.Context, s *schedule.ScheduledTransaction) error {
	query := `INSERT INTO scheduled_transactions
              (id, target_reference, kind, amount, execution_day, next_execution_date,
               is_recurring, recurrence_interval, status, max_executions, total_executions, description)
              VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
              RETURNING created_at, updated_at`
	err := r.db.QueryRowContext(ctx, query,
		s.ID, s.TargetReference, s.Kind, s.Amount, s.ExecutionDay, s.NextExecutionDate,
		s.IsRecurring, intervalToNull(s.RecurrenceInterval), s.Status, s.MaxExecutions,
		s.TotalExecutions, s.Description,
	).Scan(&s.CreatedAt, &s.UpdatedAt)
	if err != nil {
		return fmt.Errorf("error creating scheduled transaction: %w", err)
	}
	return nil
}

func (r *PostgresScheduleRepository) GetByID(ctx context.Context, id uuid.UUID) (*schedule.ScheduledTransaction, error) {
	query := `SELECT ` + scheduleColumns + ` FROM scheduled_transactions WHERE id = $1`
	s, err := scanSchedule(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrScheduleNotFound
		}
		return nil, fmt.Errorf("error getting scheduled transaction by ID: %w", err)
	}
	return s, nil
}

func (r *PostgresScheduleRepository) List(ctx context.Context, f schedule.Filter) ([]*schedule.ScheduledTransaction, error) {
	query := `SELECT ` + scheduleColumns + ` FROM scheduled_transactions WHERE 1=1`
	args := make([]interface{}, 0, 2)
	if f.Status != nil {
		args = append(args, *f.Status)
		query += fmt.Sprintf(" AND status = $%d", len(args))
	}
	if f.Kind != nil {
		args = append(args, *f.Kind)
		query += fmt.Sprintf(" AND kind = $%d", len(args))
	}
	query += " ORDER BY created_at, id"

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("error listing scheduled transactions: %w", err)
	}
	defer rows.Close()
	return scanSchedules(rows)
}

func (r *PostgresScheduleRepository) Update(ctx context.Context, s *schedule.ScheduledTransaction) error {
	query := `UPDATE scheduled_transactions
              SET execution_day = $1, description = $2, max_executions = $3, updated_at = NOW()
              WHERE id = $4
              RETURNING updated_at`
	err := r.db.QueryRowContext(ctx, query, s.ExecutionDay, s.Description, s.MaxExecutions, s.ID).Scan(&s.UpdatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return ErrScheduleNotFound
		}
		return fmt.Errorf("error updating scheduled transaction: %w", err)
	}
	return nil
}

func (r *PostgresScheduleRepository) SelectDue(ctx context.Context, date time.Time) ([]*schedule.ScheduledTransaction, error) {
	query := `SELECT ` + scheduleColumns + ` FROM scheduled_transactions
              WHERE status = $1 AND next_execution_date <= $2
              ORDER BY next_execution_date, id`
	rows, err := r.db.QueryContext(ctx, query, schedule.StatusActive, date)
	if err != nil {
		return nil, fmt.Errorf("error selecting due scheduled transactions: %w", err)
	}
	defer rows.Close()
	return scanSchedules(rows)
}

// ConditionalAdvance is the single compare-and-set statement the engine's
// concurrency safety rests on: the WHERE clause re-checks the status so two
// overlapping runs cannot both advance the same schedule from the same
// prior state.
func (r *PostgresScheduleRepository) ConditionalAdvance(ctx context.Context, id uuid.UUID, expected schedule.Status, fields schedule.AdvanceFields) (bool, error) {
	query := `UPDATE scheduled_transactions
              SET next_execution_date = $1, status = $2, total_executions = $3,
                  last_executed_date = $4, updated_at = NOW()
              WHERE id = $5 AND status = $6`
	res, err := r.db.ExecContext(ctx, query,
		fields.NextExecutionDate, fields.Status, fields.TotalExecutions,
		fields.LastExecutedDate, id, expected,
	)
	if err != nil {
		return false, fmt.Errorf("error advancing scheduled transaction: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("error reading advance result: %w", err)
	}
	return affected == 1, nil
}

func (r *PostgresScheduleRepository) ConditionalSetStatus(ctx context.Context, id uuid.UUID, expected, next schedule.Status) (bool, error) {
	query := `UPDATE scheduled_transactions SET status = $1, updated_at = NOW()
              WHERE id = $2 AND status = $3`
	res, err := r.db.ExecContext(ctx, query, next, id, expected)
	if err != nil {
		return false, fmt.Errorf("error setting scheduled transaction status: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("error reading status update result: %w", err)
	}
	return affected == 1, nil
}

// rowScanner lets scanSchedule work for both QueryRow and Query results.
type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanSchedule(row rowScanner) (*schedule.ScheduledTransaction, error) {
	s := &schedule.ScheduledTransaction{}
	var interval sql.NullString
	err := row.Scan(
		&s.ID, &s.TargetReference, &s.Kind, &s.Amount, &s.ExecutionDay, &s.NextExecutionDate,
		&s.IsRecurring, &interval, &s.Status, &s.MaxExecutions, &s.TotalExecutions,
		&s.LastExecutedDate, &s.Description, &s.CreatedAt, &s.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	if interval.Valid {
		s.RecurrenceInterval = schedule.Interval(interval.String)
	}
	return s, nil
}

func scanSchedules(rows *sql.Rows) ([]*schedule.ScheduledTransaction, error) {
	schedules := make([]*schedule.ScheduledTransaction, 0)
	for rows.Next() {
		s, err := scanSchedule(rows)
		if err != nil {
			return nil, fmt.Errorf("error scanning scheduled transaction row: %w", err)
		}
		schedules = append(schedules, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating scheduled transaction rows: %w", err)
	}
	return schedules, nil
}

func intervalToNull(i schedule.Interval) sql.NullString {
	if i == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: string(i), Valid: true}
}
