package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/mmynk/homebase/internal/models"
	"github.com/mmynk/homebase/internal/storage"
)

const expenseColumns = `id, household_id, created_by, title, amount, category, description, due_date,
	receipt_url, splits, is_recurring, frequency, next_due_date, source_expense_id, status, created_at, updated_at`

func scanExpense(row scanner) (*models.Expense, error) {
	e := &models.Expense{}
	var category, splits, frequency, status string
	var dueDate, nextDue sql.NullInt64
	var createdAt, updatedAt int64
	if err := row.Scan(&e.ID, &e.HouseholdID, &e.CreatedBy, &e.Title, &e.Amount, &category, &e.Description,
		&dueDate, &e.ReceiptURL, &splits, &e.Recurrence.IsRecurring, &frequency, &nextDue,
		&e.SourceExpenseID, &status, &createdAt, &updatedAt); err != nil {
		return nil, err
	}
	if err := json.Unmarshal([]byte(splits), &e.Splits); err != nil {
		return nil, fmt.Errorf("failed to decode splits: %w", err)
	}
	e.Category = models.ExpenseCategory(category)
	e.DueDate = timePtr(dueDate)
	e.Recurrence.Frequency = models.Frequency(frequency)
	e.Recurrence.NextDueDate = timePtr(nextDue)
	e.Status = models.ExpenseStatus(status)
	e.CreatedAt = fromNanos(createdAt)
	e.UpdatedAt = fromNanos(updatedAt)
	return e, nil
}

// CreateExpense persists a new expense with its split ledger.
func (s *SQLiteStore) CreateExpense(ctx context.Context, expense *models.Expense) error {
	return s.insertExpense(ctx, s.db, expense)
}

func (s *SQLiteStore) insertExpense(ctx context.Context, db execer, expense *models.Expense) error {
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

	splits, err := encodeJSON(expense.Splits)
	if err != nil {
		return fmt.Errorf("failed to encode splits: %w", err)
	}

	_, err = db.ExecContext(ctx,
		`INSERT INTO expenses (`+expenseColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		expense.ID, expense.HouseholdID, expense.CreatedBy, expense.Title, expense.Amount,
		string(expense.Category), expense.Description, nullTime(expense.DueDate), expense.ReceiptURL, splits,
		expense.Recurrence.IsRecurring, string(expense.Recurrence.Frequency), nullTime(expense.Recurrence.NextDueDate),
		expense.SourceExpenseID, string(expense.Status), toNanos(expense.CreatedAt), toNanos(expense.UpdatedAt),
	)
	if err != nil {
		return fmt.Errorf("failed to insert expense: %w", err)
	}
	return nil
}

// GetExpense retrieves an expense by ID.
func (s *SQLiteStore) GetExpense(ctx context.Context, id string) (*models.Expense, error) {
	e, err := scanExpense(s.db.QueryRowContext(ctx,
		`SELECT `+expenseColumns+` FROM expenses WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("expense %s: %w", id, storage.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get expense: %w", err)
	}
	return e, nil
}

// ListExpenses retrieves expenses matching the filter, newest first.
func (s *SQLiteStore) ListExpenses(ctx context.Context, filter storage.ExpenseFilter) ([]*models.Expense, error) {
	var where []string
	var args []any
	if filter.HouseholdID != "" {
		where = append(where, "household_id = ?")
		args = append(args, filter.HouseholdID)
	}
	if filter.Category != "" {
		where = append(where, "category = ?")
		args = append(args, string(filter.Category))
	}
	if filter.Status != "" {
		where = append(where, "status = ?")
		args = append(args, string(filter.Status))
	}
	if filter.CreatedBy != "" {
		where = append(where, "created_by = ?")
		args = append(args, filter.CreatedBy)
	}
	if filter.RecurringOnly {
		where = append(where, "is_recurring = 1")
	}

	query := `SELECT ` + expenseColumns + ` FROM expenses`
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY created_at DESC, id"

	return s.queryExpenses(ctx, query, args...)
}

// ListDueRecurring returns recurring templates due at or before now.
func (s *SQLiteStore) ListDueRecurring(ctx context.Context, now time.Time) ([]*models.Expense, error) {
	return s.queryExpenses(ctx,
		`SELECT `+expenseColumns+` FROM expenses
		 WHERE is_recurring = 1 AND next_due_date IS NOT NULL AND next_due_date <= ?
		 ORDER BY next_due_date, id`,
		toNanos(now),
	)
}

func (s *SQLiteStore) queryExpenses(ctx context.Context, query string, args ...any) ([]*models.Expense, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list expenses: %w", err)
	}
	defer rows.Close()

	var expenses []*models.Expense
	for rows.Next() {
		e, err := scanExpense(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan expense: %w", err)
		}
		expenses = append(expenses, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate expenses: %w", err)
	}
	return expenses, nil
}

// UpdateExpense replaces the mutable fields of an expense, including its ledger.
func (s *SQLiteStore) UpdateExpense(ctx context.Context, expense *models.Expense) error {
	expense.UpdatedAt = s.now()
	splits, err := encodeJSON(expense.Splits)
	if err != nil {
		return fmt.Errorf("failed to encode splits: %w", err)
	}

	res, err := s.db.ExecContext(ctx,
		`UPDATE expenses SET title = ?, amount = ?, category = ?, description = ?, due_date = ?, receipt_url = ?,
		 splits = ?, is_recurring = ?, frequency = ?, next_due_date = ?, status = ?, updated_at = ?
		 WHERE id = ?`,
		expense.Title, expense.Amount, string(expense.Category), expense.Description, nullTime(expense.DueDate),
		expense.ReceiptURL, splits, expense.Recurrence.IsRecurring, string(expense.Recurrence.Frequency),
		nullTime(expense.Recurrence.NextDueDate), string(expense.Status), toNanos(expense.UpdatedAt), expense.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update expense: %w", err)
	}
	return checkAffected(res, "expense", expense.ID)
}

// DeleteExpense removes an expense and its ledger.
func (s *SQLiteStore) DeleteExpense(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM expenses WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete expense: %w", err)
	}
	return checkAffected(res, "expense", id)
}

// SpawnRecurrence advances the template and inserts the clone in one transaction.
func (s *SQLiteStore) SpawnRecurrence(ctx context.Context, templateID string, expectedNext, newNext time.Time, clone *models.Expense) (bool, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return false, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx,
		`UPDATE expenses SET next_due_date = ?, updated_at = ?
		 WHERE id = ? AND is_recurring = 1 AND next_due_date = ?`,
		toNanos(newNext), toNanos(s.now()), templateID, toNanos(expectedNext),
	)
	if err != nil {
		return false, fmt.Errorf("failed to advance recurrence: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to read affected rows: %w", err)
	}
	if n == 0 {
		return false, nil
	}

	if err := s.insertExpense(ctx, tx, clone); err != nil {
		return false, err
	}

	if err := tx.Commit(); err != nil {
		return false, fmt.Errorf("failed to commit transaction: %w", err)
	}
	return true, nil
}
