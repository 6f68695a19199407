// Package calculator holds the pure split-ledger, recurrence and balance math.
// Money is handled in integer cents internally so that ledger sums are exact.
package calculator

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/mmynk/homebase/internal/apperr"
	"github.com/mmynk/homebase/internal/models"
)

// ToCents converts an amount to integer cents, rounding half away from zero.
func ToCents(amount float64) int64 {
	return decimal.NewFromFloat(amount).Shift(2).Round(0).IntPart()
}

// FromCents converts integer cents back to an amount.
func FromCents(cents int64) float64 {
	return decimal.New(cents, -2).InexactFloat64()
}

// SplitEqually builds an unpaid ledger with one split per member.
// Each member owes floor(total/n) cents; the first total%n members owe one
// extra cent, so the splits always sum to the total exactly.
func SplitEqually(total float64, memberIDs []string) ([]models.Split, error) {
	if len(memberIDs) == 0 {
		return nil, apperr.Validation("at least one member is required to split an expense")
	}
	if total <= 0 {
		return nil, apperr.Validation("amount must be greater than zero")
	}
	seen := make(map[string]bool, len(memberIDs))
	for _, id := range memberIDs {
		if id == "" {
			return nil, apperr.Validation("member id cannot be empty")
		}
		if seen[id] {
			return nil, apperr.Validation("member %s appears more than once", id)
		}
		seen[id] = true
	}

	cents := ToCents(total)
	n := int64(len(memberIDs))
	base, remainder := cents/n, cents%n

	splits := make([]models.Split, len(memberIDs))
	for i, id := range memberIDs {
		share := base
		if int64(i) < remainder {
			share++
		}
		splits[i] = models.Split{UserID: id, Amount: FromCents(share)}
	}
	return splits, nil
}

// ValidateSplits checks a manually supplied ledger against the expense total.
// The split amounts must add up to the total to the cent.
func ValidateSplits(total float64, splits []models.Split) error {
	if len(splits) == 0 {
		return apperr.Validation("splits cannot be empty")
	}
	seen := make(map[string]bool, len(splits))
	var sum int64
	for _, s := range splits {
		if s.UserID == "" {
			return apperr.Validation("split user_id is required")
		}
		if seen[s.UserID] {
			return apperr.Validation("member %s appears more than once in splits", s.UserID)
		}
		seen[s.UserID] = true
		if s.Amount < 0 {
			return apperr.Validation("split amount for %s cannot be negative", s.UserID)
		}
		sum += ToCents(s.Amount)
	}
	if sum != ToCents(total) {
		return apperr.Validation("splits sum to %.2f but the expense total is %.2f", FromCents(sum), total)
	}
	return nil
}

// MarkPaid marks memberID's split as paid at now. Marking an already paid
// split keeps it paid and keeps its original PaidAt.
func MarkPaid(splits []models.Split, memberID string, now time.Time) error {
	for i := range splits {
		if splits[i].UserID != memberID {
			continue
		}
		if !splits[i].Paid {
			paidAt := now
			splits[i].Paid = true
			splits[i].PaidAt = &paidAt
		}
		return nil
	}
	return apperr.NotFound("no split found for member %s", memberID)
}

// TotalPaid returns the sum of paid split amounts.
func TotalPaid(splits []models.Split) float64 {
	return FromCents(paidCents(splits))
}

func paidCents(splits []models.Split) int64 {
	var cents int64
	for _, s := range splits {
		if s.Paid {
			cents += ToCents(s.Amount)
		}
	}
	return cents
}

// DeriveStatus computes an expense's status from its ledger.
// A fully paid expense stays paid regardless of the due date.
func DeriveStatus(total float64, splits []models.Split, dueDate *time.Time, now time.Time) models.ExpenseStatus {
	paid := paidCents(splits)
	totalCents := ToCents(total)

	switch {
	case totalCents > 0 && paid >= totalCents:
		return models.StatusPaid
	case paid > 0:
		return models.StatusPartiallyPaid
	case dueDate != nil && dueDate.Before(now):
		return models.StatusOverdue
	default:
		return models.StatusPending
	}
}

// ResetSplits returns a copy of the ledger shape with every split unpaid.
func ResetSplits(splits []models.Split) []models.Split {
	reset := make([]models.Split, len(splits))
	for i, s := range splits {
		reset[i] = models.Split{UserID: s.UserID, Amount: s.Amount}
	}
	return reset
}
