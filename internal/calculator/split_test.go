package calculator

import (
	"errors"
	"math"
	"testing"
	"time"

	"github.com/brianvoe/gofakeit/v6"

	"github.com/mmynk/homebase/internal/apperr"
	"github.com/mmynk/homebase/internal/models"
)

func sumSplits(splits []models.Split) float64 {
	var total float64
	for _, s := range splits {
		total += s.Amount
	}
	return total
}

func TestSplitEqually(t *testing.T) {
	tests := []struct {
		name         string
		total        float64
		members      []string
		wantErr      bool
		validateFunc func(t *testing.T, splits []models.Split)
	}{
		{
			name:    "two members even split",
			total:   1000,
			members: []string{"alice", "bob"},
			validateFunc: func(t *testing.T, splits []models.Split) {
				for _, s := range splits {
					if math.Abs(s.Amount-500) > 0.001 {
						t.Errorf("%s amount = %v, want 500", s.UserID, s.Amount)
					}
					if s.Paid || s.PaidAt != nil {
						t.Errorf("%s split should start unpaid", s.UserID)
					}
				}
			},
		},
		{
			name:    "remainder cent goes to first members",
			total:   100,
			members: []string{"alice", "bob", "charlie"},
			validateFunc: func(t *testing.T, splits []models.Split) {
				// 10000 cents / 3 = 3333 r1: alice 33.34, bob 33.33, charlie 33.33
				want := []float64{33.34, 33.33, 33.33}
				for i, s := range splits {
					if math.Abs(s.Amount-want[i]) > 0.001 {
						t.Errorf("%s amount = %v, want %v", s.UserID, s.Amount, want[i])
					}
				}
				if math.Abs(sumSplits(splits)-100) > 0.001 {
					t.Errorf("sum = %v, want 100", sumSplits(splits))
				}
			},
		},
		{
			name:    "single member owes everything",
			total:   42.5,
			members: []string{"alice"},
			validateFunc: func(t *testing.T, splits []models.Split) {
				if len(splits) != 1 || splits[0].Amount != 42.5 {
					t.Errorf("splits = %+v, want one split of 42.5", splits)
				}
			},
		},
		{
			name:    "no members should error",
			total:   10,
			members: []string{},
			wantErr: true,
		},
		{
			name:    "duplicate member should error",
			total:   10,
			members: []string{"alice", "alice"},
			wantErr: true,
		},
		{
			name:    "zero total should error",
			total:   0,
			members: []string{"alice"},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			splits, err := SplitEqually(tt.total, tt.members)
			if (err != nil) != tt.wantErr {
				t.Fatalf("SplitEqually() error = %v, wantErr %v", err, tt.wantErr)
			}
			if tt.wantErr {
				if !errors.Is(err, apperr.ErrValidation) {
					t.Errorf("expected validation error, got %v", err)
				}
				return
			}
			if len(splits) != len(tt.members) {
				t.Fatalf("got %d splits, want %d", len(splits), len(tt.members))
			}
			if tt.validateFunc != nil {
				tt.validateFunc(t, splits)
			}
		})
	}
}

func TestSplitEquallyAlwaysSumsToTotal(t *testing.T) {
	faker := gofakeit.New(42)
	for i := 0; i < 500; i++ {
		total := FromCents(ToCents(faker.Float64Range(0.01, 100000)))
		n := faker.IntRange(1, 12)
		members := make([]string, n)
		for j := range members {
			members[j] = faker.UUID()
		}

		splits, err := SplitEqually(total, members)
		if err != nil {
			t.Fatalf("SplitEqually(%v, %d members) error = %v", total, n, err)
		}
		if len(splits) != n {
			t.Fatalf("got %d splits, want %d", len(splits), n)
		}
		if err := ValidateSplits(total, splits); err != nil {
			t.Fatalf("SplitEqually(%v, %d members) produced invalid ledger: %v", total, n, err)
		}
		if math.Abs(sumSplits(splits)-total) > 0.005 {
			t.Fatalf("sum = %v, want %v", sumSplits(splits), total)
		}
	}
}

func TestValidateSplits(t *testing.T) {
	tests := []struct {
		name    string
		total   float64
		splits  []models.Split
		wantErr bool
	}{
		{"exact sum", 1000, []models.Split{{UserID: "a", Amount: 500}, {UserID: "b", Amount: 500}}, false},
		{"remainder cent assigned", 100, []models.Split{{UserID: "a", Amount: 33.34}, {UserID: "b", Amount: 33.33}, {UserID: "c", Amount: 33.33}}, false},
		{"one cent short", 100, []models.Split{{UserID: "a", Amount: 33.33}, {UserID: "b", Amount: 33.33}, {UserID: "c", Amount: 33.33}}, true},
		{"one cent over", 100, []models.Split{{UserID: "a", Amount: 50.01}, {UserID: "b", Amount: 50}}, true},
		{"sum mismatch", 1000, []models.Split{{UserID: "a", Amount: 500}, {UserID: "b", Amount: 400}}, true},
		{"negative amount", 0, []models.Split{{UserID: "a", Amount: 10}, {UserID: "b", Amount: -10}}, true},
		{"duplicate member", 20, []models.Split{{UserID: "a", Amount: 10}, {UserID: "a", Amount: 10}}, true},
		{"missing user", 10, []models.Split{{Amount: 10}}, true},
		{"empty", 10, nil, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateSplits(tt.total, tt.splits)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateSplits() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestMarkPaid(t *testing.T) {
	now := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	splits := []models.Split{{UserID: "alice", Amount: 50}, {UserID: "bob", Amount: 50}}

	if err := MarkPaid(splits, "alice", now); err != nil {
		t.Fatalf("MarkPaid() error = %v", err)
	}
	if !splits[0].Paid || splits[0].PaidAt == nil || !splits[0].PaidAt.Equal(now) {
		t.Errorf("alice split = %+v, want paid at %v", splits[0], now)
	}
	if splits[1].Paid {
		t.Error("bob split should remain unpaid")
	}

	// Re-marking keeps it paid and keeps the first timestamp.
	if err := MarkPaid(splits, "alice", now.Add(time.Hour)); err != nil {
		t.Fatalf("MarkPaid() second call error = %v", err)
	}
	if !splits[0].Paid || !splits[0].PaidAt.Equal(now) {
		t.Errorf("alice split after re-mark = %+v, want original paid_at", splits[0])
	}

	err := MarkPaid(splits, "mallory", now)
	if !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("MarkPaid(unknown) error = %v, want not found", err)
	}
}

func TestTotalPaid(t *testing.T) {
	splits := []models.Split{
		{UserID: "a", Amount: 10.10, Paid: true},
		{UserID: "b", Amount: 20.20, Paid: true},
		{UserID: "c", Amount: 30.30},
	}
	if got := TotalPaid(splits); math.Abs(got-30.30) > 0.001 {
		t.Errorf("TotalPaid() = %v, want 30.30", got)
	}
}

func TestDeriveStatus(t *testing.T) {
	now := time.Date(2025, 3, 15, 0, 0, 0, 0, time.UTC)
	past := now.AddDate(0, 0, -1)
	future := now.AddDate(0, 0, 1)

	tests := []struct {
		name   string
		splits []models.Split
		due    *time.Time
		want   models.ExpenseStatus
	}{
		{"nothing paid, no due date", []models.Split{{UserID: "a", Amount: 50}, {UserID: "b", Amount: 50}}, nil, models.StatusPending},
		{"nothing paid, future due", []models.Split{{UserID: "a", Amount: 50}, {UserID: "b", Amount: 50}}, &future, models.StatusPending},
		{"nothing paid, past due", []models.Split{{UserID: "a", Amount: 50}, {UserID: "b", Amount: 50}}, &past, models.StatusOverdue},
		{"partially paid, past due", []models.Split{{UserID: "a", Amount: 50, Paid: true}, {UserID: "b", Amount: 50}}, &past, models.StatusPartiallyPaid},
		{"fully paid, past due", []models.Split{{UserID: "a", Amount: 50, Paid: true}, {UserID: "b", Amount: 50, Paid: true}}, &past, models.StatusPaid},
		{"float noise still paid", []models.Split{{UserID: "a", Amount: 33.34, Paid: true}, {UserID: "b", Amount: 33.33, Paid: true}, {UserID: "c", Amount: 33.33, Paid: true}}, nil, models.StatusPaid},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := DeriveStatus(100, tt.splits, tt.due, now); got != tt.want {
				t.Errorf("DeriveStatus() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestDeriveStatusPaidIsMonotonic(t *testing.T) {
	due := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	splits := []models.Split{{UserID: "a", Amount: 100, Paid: true}}
	for _, later := range []time.Duration{0, time.Hour, 24 * time.Hour, 365 * 24 * time.Hour} {
		if got := DeriveStatus(100, splits, &due, due.Add(later)); got != models.StatusPaid {
			t.Errorf("DeriveStatus() at due+%v = %v, want paid", later, got)
		}
	}
}

func TestResetSplits(t *testing.T) {
	paidAt := time.Now()
	splits := []models.Split{{UserID: "a", Amount: 10, Paid: true, PaidAt: &paidAt}, {UserID: "b", Amount: 5}}
	reset := ResetSplits(splits)
	for i, s := range reset {
		if s.Paid || s.PaidAt != nil {
			t.Errorf("split %d should be unpaid, got %+v", i, s)
		}
		if s.UserID != splits[i].UserID || s.Amount != splits[i].Amount {
			t.Errorf("split %d shape changed: got %+v, want %+v", i, s, splits[i])
		}
	}
	if !splits[0].Paid {
		t.Error("ResetSplits must not mutate its input")
	}
}
