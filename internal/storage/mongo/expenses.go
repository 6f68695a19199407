package mongo

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/mmynk/homebase/internal/models"
	"github.com/mmynk/homebase/internal/storage"
)

// CreateExpense inserts a new expense with its split ledger.
func (s *MongoStore) CreateExpense(ctx context.Context, expense *models.Expense) error {
	if expense.ID == "" {
		expense.ID = uuid.New().String()
	}
	if expense.Splits == nil {
		expense.Splits = []models.Split{}
	}
	if expense.Status == "" {
		expense.Status = models.StatusPending
	}
	now := s.now()
	expense.CreatedAt = now
	expense.UpdatedAt = now

	if _, err := s.col(colExpenses).InsertOne(ctx, expense); err != nil {
		return fmt.Errorf("failed to insert expense: %w", err)
	}
	return nil
}

// GetExpense retrieves an expense by ID.
func (s *MongoStore) GetExpense(ctx context.Context, id string) (*models.Expense, error) {
	e := &models.Expense{}
	if err := s.findOne(ctx, colExpenses, byID(id), e, "expense", id); err != nil {
		return nil, err
	}
	return e, nil
}

// ListExpenses retrieves expenses matching the filter, newest first.
func (s *MongoStore) ListExpenses(ctx context.Context, filter storage.ExpenseFilter) ([]*models.Expense, error) {
	q := bson.D{}
	if filter.HouseholdID != "" {
		q = append(q, bson.E{Key: "household_id", Value: filter.HouseholdID})
	}
	if filter.Category != "" {
		q = append(q, bson.E{Key: "category", Value: filter.Category})
	}
	if filter.Status != "" {
		q = append(q, bson.E{Key: "status", Value: filter.Status})
	}
	if filter.CreatedBy != "" {
		q = append(q, bson.E{Key: "created_by", Value: filter.CreatedBy})
	}
	if filter.RecurringOnly {
		q = append(q, bson.E{Key: "recurrence.is_recurring", Value: true})
	}
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}, {Key: "_id", Value: 1}})
	return findAll[models.Expense](ctx, s.col(colExpenses), q, opts, "expenses")
}

// ListDueRecurring returns recurring templates due at or before now.
func (s *MongoStore) ListDueRecurring(ctx context.Context, now time.Time) ([]*models.Expense, error) {
	q := bson.D{
		{Key: "recurrence.is_recurring", Value: true},
		{Key: "recurrence.next_due_date", Value: bson.D{{Key: "$lte", Value: now}}},
	}
	opts := options.Find().SetSort(bson.D{{Key: "recurrence.next_due_date", Value: 1}, {Key: "_id", Value: 1}})
	return findAll[models.Expense](ctx, s.col(colExpenses), q, opts, "expenses")
}

// UpdateExpense replaces an expense document, including its ledger.
func (s *MongoStore) UpdateExpense(ctx context.Context, expense *models.Expense) error {
	expense.UpdatedAt = s.now()
	res, err := s.col(colExpenses).ReplaceOne(ctx, byID(expense.ID), expense)
	if err != nil {
		return fmt.Errorf("failed to update expense: %w", err)
	}
	return matched(res, "expense", expense.ID)
}

// DeleteExpense removes an expense.
func (s *MongoStore) DeleteExpense(ctx context.Context, id string) error {
	res, err := s.col(colExpenses).DeleteOne(ctx, byID(id))
	if err != nil {
		return fmt.Errorf("failed to delete expense: %w", err)
	}
	return deleted(res, "expense", id)
}

// SpawnRecurrence advances the template with a compare-and-swap on its next
// due date, then inserts the clone. A failed insert reverts the swap so the
// next run retries the occurrence.
func (s *MongoStore) SpawnRecurrence(ctx context.Context, templateID string, expectedNext, newNext time.Time, clone *models.Expense) (bool, error) {
	res, err := s.col(colExpenses).UpdateOne(ctx,
		bson.D{
			{Key: "_id", Value: templateID},
			{Key: "recurrence.is_recurring", Value: true},
			{Key: "recurrence.next_due_date", Value: expectedNext},
		},
		bson.D{{Key: "$set", Value: bson.D{
			{Key: "recurrence.next_due_date", Value: newNext},
			{Key: "updated_at", Value: s.now()},
		}}},
	)
	if err != nil {
		return false, fmt.Errorf("failed to advance recurrence: %w", err)
	}
	if res.ModifiedCount == 0 {
		return false, nil
	}

	if err := s.CreateExpense(ctx, clone); err != nil {
		_, revertErr := s.col(colExpenses).UpdateOne(ctx,
			bson.D{{Key: "_id", Value: templateID}, {Key: "recurrence.next_due_date", Value: newNext}},
			bson.D{{Key: "$set", Value: bson.D{{Key: "recurrence.next_due_date", Value: expectedNext}}}},
		)
		if revertErr != nil {
			slog.Error("Failed to revert recurrence advance", "expense_id", templateID, "error", revertErr)
		}
		return false, err
	}
	return true, nil
}
