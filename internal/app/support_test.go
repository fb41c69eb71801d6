package app

// In-memory fakes for the repository interfaces, shared by the engine and
// management service tests. They mirror the storage semantics the Postgres
// implementations provide: compare-and-set advances and the partial unique
// Success constraint.

import (
	"context"
	"fmt"
	"io"
	"sync"
	"time"

	"scheduled_transaction_engine/internal/domain/execution"
	"scheduled_transaction_engine/internal/domain/schedule"
	idb "scheduled_transaction_engine/internal/infra/database"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
)

func testLogger() *logrus.Entry {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l.WithField("component", "test")
}

func utcDate(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// --- fake schedule repository ---

type fakeScheduleRepo struct {
	mu               sync.Mutex
	schedules        map[uuid.UUID]*schedule.ScheduledTransaction
	selectDueErr     error
	forceAdvanceFail bool
	forceStatusFail  bool
}

func newFakeScheduleRepo() *fakeScheduleRepo {
	return &fakeScheduleRepo{schedules: make(map[uuid.UUID]*schedule.ScheduledTransaction)}
}

func cloneSchedule(s *schedule.ScheduledTransaction) *schedule.ScheduledTransaction {
	c := *s
	return &c
}

func (r *fakeScheduleRepo) put(s *schedule.ScheduledTransaction) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.schedules[s.ID] = cloneSchedule(s)
}

func (r *fakeScheduleRepo) get(id uuid.UUID) *schedule.ScheduledTransaction {
	r.mu.Lock()
	defer r.mu.Unlock()
	if s, ok := r.schedules[id]; ok {
		return cloneSchedule(s)
	}
	return nil
}

func (r *fakeScheduleRepo) Create(ctx context.Context, s *schedule.ScheduledTransaction) error {
	now := time.Now().UTC()
	s.CreatedAt = now
	s.UpdatedAt = now
	r.put(s)
	return nil
}

func (r *fakeScheduleRepo) GetByID(ctx context.Context, id uuid.UUID) (*schedule.ScheduledTransaction, error) {
	if s := r.get(id); s != nil {
		return s, nil
	}
	return nil, idb.ErrScheduleNotFound
}

func (r *fakeScheduleRepo) List(ctx context.Context, f schedule.Filter) ([]*schedule.ScheduledTransaction, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]*schedule.ScheduledTransaction, 0)
	for _, s := range r.schedules {
		if f.Status != nil && s.Status != *f.Status {
			continue
		}
		if f.Kind != nil && s.Kind != *f.Kind {
			continue
		}
		out = append(out, cloneSchedule(s))
	}
	return out, nil
}

func (r *fakeScheduleRepo) Update(ctx context.Context, s *schedule.ScheduledTransaction) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	stored, ok := r.schedules[s.ID]
	if !ok {
		return idb.ErrScheduleNotFound
	}
	stored.ExecutionDay = s.ExecutionDay
	stored.Description = s.Description
	stored.MaxExecutions = s.MaxExecutions
	stored.UpdatedAt = time.Now().UTC()
	return nil
}

func (r *fakeScheduleRepo) SelectDue(ctx context.Context, date time.Time) ([]*schedule.ScheduledTransaction, error) {
	if r.selectDueErr != nil {
		return nil, r.selectDueErr
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	due := make([]*schedule.ScheduledTransaction, 0)
	for _, s := range r.schedules {
		if s.Status == schedule.StatusActive && !s.NextExecutionDate.After(date) {
			due = append(due, cloneSchedule(s))
		}
	}
	return due, nil
}

func (r *fakeScheduleRepo) ConditionalAdvance(ctx context.Context, id uuid.UUID, expected schedule.Status, fields schedule.AdvanceFields) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.forceAdvanceFail {
		return false, nil
	}
	stored, ok := r.schedules[id]
	if !ok || stored.Status != expected {
		return false, nil
	}
	stored.NextExecutionDate = fields.NextExecutionDate
	stored.Status = fields.Status
	stored.TotalExecutions = fields.TotalExecutions
	stored.LastExecutedDate.Time = fields.LastExecutedDate
	stored.LastExecutedDate.Valid = true
	stored.UpdatedAt = time.Now().UTC()
	return true, nil
}

func (r *fakeScheduleRepo) ConditionalSetStatus(ctx context.Context, id uuid.UUID, expected, next schedule.Status) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.forceStatusFail {
		return false, nil
	}
	stored, ok := r.schedules[id]
	if !ok || stored.Status != expected {
		return false, nil
	}
	stored.Status = next
	stored.UpdatedAt = time.Now().UTC()
	return true, nil
}

// --- fake execution ledger ---

type fakeLedger struct {
	mu             sync.Mutex
	records        []*execution.Execution
	appendErr      error
	duplicateOnIDs map[uuid.UUID]bool // simulate losing the unique-index race
}

func newFakeLedger() *fakeLedger {
	return &fakeLedger{duplicateOnIDs: make(map[uuid.UUID]bool)}
}

func (l *fakeLedger) Append(ctx context.Context, e *execution.Execution) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.appendErr != nil {
		return l.appendErr
	}
	if e.Status == execution.StatusSuccess {
		if l.duplicateOnIDs[e.ScheduledTransactionID] {
			return idb.ErrDuplicateSuccessExecution
		}
		for _, rec := range l.records {
			if rec.Status == execution.StatusSuccess &&
				rec.ScheduledTransactionID == e.ScheduledTransactionID &&
				rec.ExecutionDate.Equal(e.ExecutionDate) {
				return idb.ErrDuplicateSuccessExecution
			}
		}
	}
	clone := *e
	l.records = append(l.records, &clone)
	return nil
}

func (l *fakeLedger) ListByScheduleID(ctx context.Context, scheduleID uuid.UUID) ([]*execution.Execution, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]*execution.Execution, 0)
	for _, rec := range l.records {
		if rec.ScheduledTransactionID == scheduleID {
			clone := *rec
			out = append(out, &clone)
		}
	}
	return out, nil
}

func (l *fakeLedger) HasSuccess(ctx context.Context, scheduleID uuid.UUID, date time.Time) (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	for _, rec := range l.records {
		if rec.Status == execution.StatusSuccess &&
			rec.ScheduledTransactionID == scheduleID &&
			rec.ExecutionDate.Equal(date) {
			return true, nil
		}
	}
	return false, nil
}

func (l *fakeLedger) byStatus(status execution.Status) []*execution.Execution {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]*execution.Execution, 0)
	for _, rec := range l.records {
		if rec.Status == status {
			out = append(out, rec)
		}
	}
	return out
}

// --- fake domain-execution callback ---

type fakeExecutor struct {
	mu      sync.Mutex
	failFor map[string]error // keyed by target reference
	calls   int
}

func newFakeExecutor() *fakeExecutor {
	return &fakeExecutor{failFor: make(map[string]error)}
}

func (f *fakeExecutor) Execute(ctx context.Context, targetReference string, kind schedule.Kind, amount decimal.Decimal) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if err := f.failFor[targetReference]; err != nil {
		return "", err
	}
	return fmt.Sprintf("activity-log-%d", f.calls), nil
}

// --- builders ---

func newMonthlySchedule(day int, next time.Time) *schedule.ScheduledTransaction {
	return &schedule.ScheduledTransaction{
		ID:                 uuid.New(),
		TargetReference:    "fund-" + uuid.NewString()[:8],
		Kind:               schedule.KindRecurringDebit,
		Amount:             decimal.NewFromInt(100),
		ExecutionDay:       day,
		NextExecutionDate:  next,
		IsRecurring:        true,
		RecurrenceInterval: schedule.IntervalMonthly,
		Status:             schedule.StatusActive,
	}
}

func newOneTimeSchedule(next time.Time) *schedule.ScheduledTransaction {
	s := newMonthlySchedule(next.Day(), next)
	s.Kind = schedule.KindOneTimeCredit
	s.IsRecurring = false
	s.RecurrenceInterval = ""
	return s
}
