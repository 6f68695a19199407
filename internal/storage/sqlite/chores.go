package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/mmynk/homebase/internal/models"
	"github.com/mmynk/homebase/internal/storage"
)

const choreColumns = `id, household_id, created_by, title, description, assigned_to, priority, status,
	due_date, completed_at, completed_by, created_at, updated_at`

func scanChore(row scanner) (*models.Chore, error) {
	c := &models.Chore{}
	var assigned, priority, status string
	var dueDate, completedAt sql.NullInt64
	var createdAt, updatedAt int64
	if err := row.Scan(&c.ID, &c.HouseholdID, &c.CreatedBy, &c.Title, &c.Description, &assigned,
		&priority, &status, &dueDate, &completedAt, &c.CompletedBy, &createdAt, &updatedAt); err != nil {
		return nil, err
	}
	if err := json.Unmarshal([]byte(assigned), &c.AssignedTo); err != nil {
		return nil, fmt.Errorf("failed to decode assignees: %w", err)
	}
	c.Priority = models.ChorePriority(priority)
	c.Status = models.ChoreStatus(status)
	c.DueDate = timePtr(dueDate)
	c.CompletedAt = timePtr(completedAt)
	c.CreatedAt = fromNanos(createdAt)
	c.UpdatedAt = fromNanos(updatedAt)
	return c, nil
}

// CreateChore persists a new chore.
func (s *SQLiteStore) CreateChore(ctx context.Context, chore *models.Chore) error {
	if chore.ID == "" {
		chore.ID = uuid.New().String()
	}
	if chore.AssignedTo == nil {
		chore.AssignedTo = []string{}
	}
	now := s.now()
	chore.CreatedAt = now
	chore.UpdatedAt = now

	assigned, err := encodeJSON(chore.AssignedTo)
	if err != nil {
		return fmt.Errorf("failed to encode assignees: %w", err)
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO chores (`+choreColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		chore.ID, chore.HouseholdID, chore.CreatedBy, chore.Title, chore.Description, assigned,
		string(chore.Priority), string(chore.Status), nullTime(chore.DueDate), nullTime(chore.CompletedAt),
		chore.CompletedBy, toNanos(chore.CreatedAt), toNanos(chore.UpdatedAt),
	)
	if err != nil {
		return fmt.Errorf("failed to insert chore: %w", err)
	}
	return nil
}

// GetChore retrieves a chore by ID.
func (s *SQLiteStore) GetChore(ctx context.Context, id string) (*models.Chore, error) {
	c, err := scanChore(s.db.QueryRowContext(ctx,
		`SELECT `+choreColumns+` FROM chores WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("chore %s: %w", id, storage.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get chore: %w", err)
	}
	return c, nil
}

// ListChores retrieves chores matching the filter, soonest due first.
func (s *SQLiteStore) ListChores(ctx context.Context, filter storage.ChoreFilter) ([]*models.Chore, error) {
	var where []string
	var args []any
	if filter.HouseholdID != "" {
		where = append(where, "household_id = ?")
		args = append(args, filter.HouseholdID)
	}
	if filter.Status != "" {
		where = append(where, "status = ?")
		args = append(args, string(filter.Status))
	}
	if filter.AssignedTo != "" {
		where = append(where, "EXISTS (SELECT 1 FROM json_each(chores.assigned_to) WHERE json_each.value = ?)")
		args = append(args, filter.AssignedTo)
	}

	query := `SELECT ` + choreColumns + ` FROM chores`
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY due_date IS NULL, due_date, created_at"

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list chores: %w", err)
	}
	defer rows.Close()

	var chores []*models.Chore
	for rows.Next() {
		c, err := scanChore(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan chore: %w", err)
		}
		chores = append(chores, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate chores: %w", err)
	}
	return chores, nil
}

// UpdateChore replaces the mutable fields of a chore.
func (s *SQLiteStore) UpdateChore(ctx context.Context, chore *models.Chore) error {
	chore.UpdatedAt = s.now()
	assigned, err := encodeJSON(chore.AssignedTo)
	if err != nil {
		return fmt.Errorf("failed to encode assignees: %w", err)
	}

	res, err := s.db.ExecContext(ctx,
		`UPDATE chores SET title = ?, description = ?, assigned_to = ?, priority = ?, status = ?,
		 due_date = ?, completed_at = ?, completed_by = ?, updated_at = ? WHERE id = ?`,
		chore.Title, chore.Description, assigned, string(chore.Priority), string(chore.Status),
		nullTime(chore.DueDate), nullTime(chore.CompletedAt), chore.CompletedBy, toNanos(chore.UpdatedAt), chore.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update chore: %w", err)
	}
	return checkAffected(res, "chore", chore.ID)
}

// DeleteChore removes a chore by ID.
func (s *SQLiteStore) DeleteChore(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM chores WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete chore: %w", err)
	}
	return checkAffected(res, "chore", id)
}
