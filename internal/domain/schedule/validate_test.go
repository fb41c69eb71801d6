package schedule

import (
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
)

func validRecurringDraft() Draft {
	return Draft{
		TargetReference:    "fund-123",
		Kind:               KindRecurringDebit,
		Amount:             decimal.NewFromInt(100),
		ExecutionDay:       15,
		NextExecutionDate:  date(2024, time.June, 15),
		RecurrenceInterval: IntervalMonthly,
		Description:        "monthly savings plan",
	}
}

func TestDraftValidate(t *testing.T) {
	now := date(2024, time.June, 1)

	tests := []struct {
		name       string
		mutate     func(*Draft)
		wantFields []string
	}{
		{
			name:   "valid recurring draft",
			mutate: func(d *Draft) {},
		},
		{
			name: "valid one-time draft",
			mutate: func(d *Draft) {
				d.Kind = KindOneTimeCredit
				d.RecurrenceInterval = ""
			},
		},
		{
			name: "valid one-time draft with explicit cap of one",
			mutate: func(d *Draft) {
				d.Kind = KindOneTimeDebit
				d.RecurrenceInterval = ""
				d.MaxExecutions = sql.NullInt32{Int32: 1, Valid: true}
			},
		},
		{
			name:       "execution day below range",
			mutate:     func(d *Draft) { d.ExecutionDay = 0 },
			wantFields: []string{"execution_day"},
		},
		{
			name:       "execution day above range",
			mutate:     func(d *Draft) { d.ExecutionDay = 32 },
			wantFields: []string{"execution_day"},
		},
		{
			name:       "recurring kind without interval",
			mutate:     func(d *Draft) { d.RecurrenceInterval = "" },
			wantFields: []string{"recurrence_interval"},
		},
		{
			name:       "recurring kind with unknown interval",
			mutate:     func(d *Draft) { d.RecurrenceInterval = "FORTNIGHTLY" },
			wantFields: []string{"recurrence_interval"},
		},
		{
			name: "one-time kind with interval",
			mutate: func(d *Draft) {
				d.Kind = KindOneTimeDebit
			},
			wantFields: []string{"recurrence_interval"},
		},
		{
			name: "one-time kind with cap above one",
			mutate: func(d *Draft) {
				d.Kind = KindOneTimeCredit
				d.RecurrenceInterval = ""
				d.MaxExecutions = sql.NullInt32{Int32: 3, Valid: true}
			},
			wantFields: []string{"max_executions"},
		},
		{
			name:       "zero amount",
			mutate:     func(d *Draft) { d.Amount = decimal.Zero },
			wantFields: []string{"amount"},
		},
		{
			name:       "negative amount",
			mutate:     func(d *Draft) { d.Amount = decimal.NewFromInt(-5) },
			wantFields: []string{"amount"},
		},
		{
			name:       "zero max executions",
			mutate:     func(d *Draft) { d.MaxExecutions = sql.NullInt32{Int32: 0, Valid: true} },
			wantFields: []string{"max_executions"},
		},
		{
			name:       "unknown kind",
			mutate:     func(d *Draft) { d.Kind = "STANDING_ORDER" },
			wantFields: []string{"kind"},
		},
		{
			name:       "missing target reference",
			mutate:     func(d *Draft) { d.TargetReference = "" },
			wantFields: []string{"target_reference"},
		},
		{
			name:       "missing next execution date",
			mutate:     func(d *Draft) { d.NextExecutionDate = time.Time{} },
			wantFields: []string{"next_execution_date"},
		},
		{
			name:       "next execution date before creation date",
			mutate:     func(d *Draft) { d.NextExecutionDate = date(2024, time.May, 31) },
			wantFields: []string{"next_execution_date"},
		},
		{
			name: "all violations reported together",
			mutate: func(d *Draft) {
				d.TargetReference = ""
				d.Amount = decimal.Zero
				d.ExecutionDay = 40
				d.RecurrenceInterval = ""
			},
			wantFields: []string{"target_reference", "recurrence_interval", "amount", "execution_day"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			draft := validRecurringDraft()
			tt.mutate(&draft)

			err := draft.Validate(now)
			if len(tt.wantFields) == 0 {
				if err != nil {
					t.Fatalf("Validate() = %v, want nil", err)
				}
				return
			}

			var vErr *ValidationError
			if !errors.As(err, &vErr) {
				t.Fatalf("Validate() = %v, want *ValidationError", err)
			}
			got := make(map[string]bool, len(vErr.Violations))
			for _, v := range vErr.Violations {
				got[v.Field] = true
			}
			if len(vErr.Violations) != len(tt.wantFields) {
				t.Errorf("got %d violations (%v), want %d", len(vErr.Violations), vErr, len(tt.wantFields))
			}
			for _, field := range tt.wantFields {
				if !got[field] {
					t.Errorf("expected violation on field %q, got %v", field, vErr)
				}
			}
		})
	}
}
