package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/mmynk/homebase/internal/models"
	"github.com/mmynk/homebase/internal/storage"
)

const householdColumns = `id, name, join_code, created_by, created_at, updated_at`

func scanHousehold(row scanner) (*models.Household, error) {
	h := &models.Household{}
	var createdAt, updatedAt int64
	if err := row.Scan(&h.ID, &h.Name, &h.JoinCode, &h.CreatedBy, &createdAt, &updatedAt); err != nil {
		return nil, err
	}
	h.CreatedAt = fromNanos(createdAt)
	h.UpdatedAt = fromNanos(updatedAt)
	return h, nil
}

// CreateHousehold persists a new household.
func (s *SQLiteStore) CreateHousehold(ctx context.Context, household *models.Household) error {
	if household.ID == "" {
		household.ID = uuid.New().String()
	}
	now := s.now()
	household.CreatedAt = now
	household.UpdatedAt = now

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO households (`+householdColumns+`) VALUES (?, ?, ?, ?, ?, ?)`,
		household.ID, household.Name, household.JoinCode, household.CreatedBy,
		toNanos(household.CreatedAt), toNanos(household.UpdatedAt),
	)
	if isUniqueViolation(err) {
		return fmt.Errorf("join code: %w", storage.ErrDuplicate)
	}
	if err != nil {
		return fmt.Errorf("failed to insert household: %w", err)
	}
	return nil
}

// GetHousehold retrieves a household by ID.
func (s *SQLiteStore) GetHousehold(ctx context.Context, id string) (*models.Household, error) {
	h, err := scanHousehold(s.db.QueryRowContext(ctx,
		`SELECT `+householdColumns+` FROM households WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("household %s: %w", id, storage.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get household: %w", err)
	}
	return h, nil
}

// GetHouseholdByJoinCode retrieves a household by its join code.
func (s *SQLiteStore) GetHouseholdByJoinCode(ctx context.Context, code string) (*models.Household, error) {
	h, err := scanHousehold(s.db.QueryRowContext(ctx,
		`SELECT `+householdColumns+` FROM households WHERE join_code = ?`, code))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("join code %s: %w", code, storage.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get household by join code: %w", err)
	}
	return h, nil
}

// UpdateHousehold updates name and join code.
func (s *SQLiteStore) UpdateHousehold(ctx context.Context, household *models.Household) error {
	household.UpdatedAt = s.now()
	res, err := s.db.ExecContext(ctx,
		`UPDATE households SET name = ?, join_code = ?, updated_at = ? WHERE id = ?`,
		household.Name, household.JoinCode, toNanos(household.UpdatedAt), household.ID,
	)
	if isUniqueViolation(err) {
		return fmt.Errorf("join code: %w", storage.ErrDuplicate)
	}
	if err != nil {
		return fmt.Errorf("failed to update household: %w", err)
	}
	return checkAffected(res, "household", household.ID)
}

// DeleteHousehold removes a household; chores and expenses cascade.
func (s *SQLiteStore) DeleteHousehold(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM households WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete household: %w", err)
	}
	return checkAffected(res, "household", id)
}
