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

const userColumns = `id, email, display_name, password_hash, household_id, role, push_enabled, created_at, updated_at`

func scanUser(row scanner) (*models.User, error) {
	user := &models.User{}
	var role string
	var createdAt, updatedAt int64
	if err := row.Scan(
		&user.ID,
		&user.Email,
		&user.DisplayName,
		&user.PasswordHash,
		&user.HouseholdID,
		&role,
		&user.Preferences.Push,
		&createdAt,
		&updatedAt,
	); err != nil {
		return nil, err
	}
	user.Role = models.Role(role)
	user.CreatedAt = fromNanos(createdAt)
	user.UpdatedAt = fromNanos(updatedAt)
	return user, nil
}

// CreateUser inserts a new user into the database.
func (s *SQLiteStore) CreateUser(ctx context.Context, user *models.User) error {
	if user.ID == "" {
		user.ID = uuid.New().String()
	}
	now := s.now()
	user.CreatedAt = now
	user.UpdatedAt = now

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO users (`+userColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		user.ID,
		user.Email,
		user.DisplayName,
		user.PasswordHash,
		user.HouseholdID,
		string(user.Role),
		user.Preferences.Push,
		toNanos(user.CreatedAt),
		toNanos(user.UpdatedAt),
	)
	if isUniqueViolation(err) {
		return fmt.Errorf("email %s: %w", user.Email, storage.ErrDuplicate)
	}
	if err != nil {
		return fmt.Errorf("failed to create user: %w", err)
	}

	return nil
}

// GetUserByEmail retrieves a user by their email address.
func (s *SQLiteStore) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	user, err := scanUser(s.db.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE email = ?`, email))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("user %s: %w", email, storage.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get user by email: %w", err)
	}

	return user, nil
}

// GetUserByID retrieves a user by their ID.
func (s *SQLiteStore) GetUserByID(ctx context.Context, id string) (*models.User, error) {
	user, err := scanUser(s.db.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("user %s: %w", id, storage.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get user by ID: %w", err)
	}

	return user, nil
}

// UpdateUser updates the profile fields of an existing user.
func (s *SQLiteStore) UpdateUser(ctx context.Context, user *models.User) error {
	user.UpdatedAt = s.now()
	res, err := s.db.ExecContext(ctx,
		`UPDATE users SET email = ?, display_name = ?, password_hash = ?, push_enabled = ?, updated_at = ?
		 WHERE id = ?`,
		user.Email, user.DisplayName, user.PasswordHash, user.Preferences.Push, toNanos(user.UpdatedAt), user.ID,
	)
	if isUniqueViolation(err) {
		return fmt.Errorf("email %s: %w", user.Email, storage.ErrDuplicate)
	}
	if err != nil {
		return fmt.Errorf("failed to update user: %w", err)
	}
	return checkAffected(res, "user", user.ID)
}

// SetUserHousehold points the user at a household (or none, when householdID is empty).
func (s *SQLiteStore) SetUserHousehold(ctx context.Context, userID, householdID string, role models.Role) error {
	if householdID == "" {
		role = ""
	}
	res, err := s.db.ExecContext(ctx,
		`UPDATE users SET household_id = ?, role = ?, updated_at = ? WHERE id = ?`,
		householdID, string(role), toNanos(s.now()), userID,
	)
	if err != nil {
		return fmt.Errorf("failed to set user household: %w", err)
	}
	return checkAffected(res, "user", userID)
}

// ListUsersByHousehold returns the members of a household ordered by join time.
func (s *SQLiteStore) ListUsersByHousehold(ctx context.Context, householdID string) ([]*models.User, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE household_id = ? ORDER BY updated_at, id`,
		householdID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list users by household: %w", err)
	}
	defer rows.Close()

	var users []*models.User
	for rows.Next() {
		user, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan user: %w", err)
		}
		users = append(users, user)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating users: %w", err)
	}

	return users, nil
}
