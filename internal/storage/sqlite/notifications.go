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

const notificationColumns = `n.id, n.household_id, n.type, n.title, n.message, n.reference_model, n.reference_id,
	n.created_at, n.updated_at`

func scanNotification(row scanner) (*models.Notification, error) {
	n := &models.Notification{}
	var typ, refModel, refID string
	var createdAt, updatedAt int64
	if err := row.Scan(&n.ID, &n.HouseholdID, &typ, &n.Title, &n.Message, &refModel, &refID,
		&createdAt, &updatedAt); err != nil {
		return nil, err
	}
	n.Type = models.NotificationType(typ)
	if refModel != "" || refID != "" {
		n.Reference = &models.NotificationRef{Model: refModel, ID: refID}
	}
	n.CreatedAt = fromNanos(createdAt)
	n.UpdatedAt = fromNanos(updatedAt)
	n.Recipients = []string{}
	n.ReadBy = []string{}
	return n, nil
}

// CreateNotification persists a notification and its recipient list.
func (s *SQLiteStore) CreateNotification(ctx context.Context, n *models.Notification) error {
	if n.ID == "" {
		n.ID = uuid.New().String()
	}
	if n.ReadBy == nil {
		n.ReadBy = []string{}
	}
	now := s.now()
	n.CreatedAt = now
	n.UpdatedAt = now

	var refModel, refID string
	if n.Reference != nil {
		refModel, refID = n.Reference.Model, n.Reference.ID
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx,
		`INSERT INTO notifications (id, household_id, type, title, message, reference_model, reference_id, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		n.ID, n.HouseholdID, string(n.Type), n.Title, n.Message, refModel, refID, toNanos(n.CreatedAt), toNanos(n.UpdatedAt),
	)
	if err != nil {
		return fmt.Errorf("failed to insert notification: %w", err)
	}

	for _, userID := range n.Recipients {
		_, err = tx.ExecContext(ctx,
			`INSERT OR IGNORE INTO notification_recipients (notification_id, user_id) VALUES (?, ?)`,
			n.ID, userID,
		)
		if err != nil {
			return fmt.Errorf("failed to insert notification recipient: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// GetNotification retrieves a notification with its recipients.
func (s *SQLiteStore) GetNotification(ctx context.Context, id string) (*models.Notification, error) {
	n, err := scanNotification(s.db.QueryRowContext(ctx,
		`SELECT `+notificationColumns+` FROM notifications n WHERE n.id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("notification %s: %w", id, storage.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get notification: %w", err)
	}

	if err := s.loadRecipients(ctx, []*models.Notification{n}); err != nil {
		return nil, err
	}
	return n, nil
}

// ListNotifications returns the newest notifications addressed to userID.
func (s *SQLiteStore) ListNotifications(ctx context.Context, userID string, unreadOnly bool, limit int) ([]*models.Notification, error) {
	query := `SELECT ` + notificationColumns + ` FROM notifications n
		JOIN notification_recipients r ON r.notification_id = n.id
		WHERE r.user_id = ?`
	if unreadOnly {
		query += ` AND r.read_at IS NULL`
	}
	query += ` ORDER BY n.created_at DESC, n.id`
	args := []any{userID}
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list notifications: %w", err)
	}
	var notifications []*models.Notification
	for rows.Next() {
		n, err := scanNotification(rows)
		if err != nil {
			rows.Close()
			return nil, fmt.Errorf("failed to scan notification: %w", err)
		}
		notifications = append(notifications, n)
	}
	err = rows.Err()
	rows.Close()
	if err != nil {
		return nil, fmt.Errorf("failed to iterate notifications: %w", err)
	}

	if err := s.loadRecipients(ctx, notifications); err != nil {
		return nil, err
	}
	return notifications, nil
}

// loadRecipients fills Recipients and ReadBy with a single IN query.
func (s *SQLiteStore) loadRecipients(ctx context.Context, notifications []*models.Notification) error {
	if len(notifications) == 0 {
		return nil
	}
	byID := make(map[string]*models.Notification, len(notifications))
	args := make([]any, len(notifications))
	for i, n := range notifications {
		byID[n.ID] = n
		args[i] = n.ID
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT notification_id, user_id, read_at FROM notification_recipients
		 WHERE notification_id IN (?`+repeatPlaceholder(len(args)-1)+`) ORDER BY user_id`,
		args...,
	)
	if err != nil {
		return fmt.Errorf("failed to get notification recipients: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var notificationID, userID string
		var readAt sql.NullInt64
		if err := rows.Scan(&notificationID, &userID, &readAt); err != nil {
			return fmt.Errorf("failed to scan recipient: %w", err)
		}
		n := byID[notificationID]
		n.Recipients = append(n.Recipients, userID)
		if readAt.Valid {
			n.ReadBy = append(n.ReadBy, userID)
		}
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("failed to iterate recipients: %w", err)
	}
	return nil
}

// MarkNotificationRead marks a notification read for one recipient.
func (s *SQLiteStore) MarkNotificationRead(ctx context.Context, id, userID string) error {
	var readAt sql.NullInt64
	err := s.db.QueryRowContext(ctx,
		`SELECT read_at FROM notification_recipients WHERE notification_id = ? AND user_id = ?`,
		id, userID,
	).Scan(&readAt)
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("notification %s for user %s: %w", id, userID, storage.ErrNotFound)
	}
	if err != nil {
		return fmt.Errorf("failed to check notification recipient: %w", err)
	}
	if readAt.Valid {
		return nil
	}

	_, err = s.db.ExecContext(ctx,
		`UPDATE notification_recipients SET read_at = ? WHERE notification_id = ? AND user_id = ?`,
		toNanos(s.now()), id, userID,
	)
	if err != nil {
		return fmt.Errorf("failed to mark notification read: %w", err)
	}
	return nil
}

// MarkAllNotificationsRead marks every unread notification of userID as read.
func (s *SQLiteStore) MarkAllNotificationsRead(ctx context.Context, userID string) (int64, error) {
	res, err := s.db.ExecContext(ctx,
		`UPDATE notification_recipients SET read_at = ? WHERE user_id = ? AND read_at IS NULL`,
		toNanos(s.now()), userID,
	)
	if err != nil {
		return 0, fmt.Errorf("failed to mark notifications read: %w", err)
	}
	return res.RowsAffected()
}

// RemoveNotificationRecipient removes userID from a notification, deleting
// the notification once it has no recipients left.
func (s *SQLiteStore) RemoveNotificationRecipient(ctx context.Context, id, userID string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx,
		`DELETE FROM notification_recipients WHERE notification_id = ? AND user_id = ?`, id, userID)
	if err != nil {
		return fmt.Errorf("failed to remove notification recipient: %w", err)
	}
	if err := checkAffected(res, "notification", id); err != nil {
		return err
	}

	var remaining int
	if err := tx.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM notification_recipients WHERE notification_id = ?`, id,
	).Scan(&remaining); err != nil {
		return fmt.Errorf("failed to count notification recipients: %w", err)
	}
	if remaining == 0 {
		if _, err := tx.ExecContext(ctx, `DELETE FROM notifications WHERE id = ?`, id); err != nil {
			return fmt.Errorf("failed to delete notification: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}
