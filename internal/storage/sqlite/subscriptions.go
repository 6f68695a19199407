package sqlite

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/mmynk/homebase/internal/models"
)

// SaveSubscription inserts a push subscription, or re-binds an existing
// endpoint to the given user and keys.
func (s *SQLiteStore) SaveSubscription(ctx context.Context, sub *models.PushSubscription) error {
	if sub.ID == "" {
		sub.ID = uuid.New().String()
	}
	now := s.now()

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO push_subscriptions (id, user_id, endpoint, p256dh, auth, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT(endpoint) DO UPDATE SET
		   user_id = excluded.user_id, p256dh = excluded.p256dh, auth = excluded.auth, updated_at = excluded.updated_at`,
		sub.ID, sub.UserID, sub.Endpoint, sub.Keys.P256dh, sub.Keys.Auth, toNanos(now), toNanos(now),
	)
	if err != nil {
		return fmt.Errorf("failed to save push subscription: %w", err)
	}

	var createdAt, updatedAt int64
	if err := s.db.QueryRowContext(ctx,
		`SELECT id, created_at, updated_at FROM push_subscriptions WHERE endpoint = ?`, sub.Endpoint,
	).Scan(&sub.ID, &createdAt, &updatedAt); err != nil {
		return fmt.Errorf("failed to reload push subscription: %w", err)
	}
	sub.CreatedAt = fromNanos(createdAt)
	sub.UpdatedAt = fromNanos(updatedAt)
	return nil
}

// ListSubscriptions returns all push subscriptions of a user.
func (s *SQLiteStore) ListSubscriptions(ctx context.Context, userID string) ([]*models.PushSubscription, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, user_id, endpoint, p256dh, auth, created_at, updated_at
		 FROM push_subscriptions WHERE user_id = ? ORDER BY created_at`,
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list push subscriptions: %w", err)
	}
	defer rows.Close()

	var subs []*models.PushSubscription
	for rows.Next() {
		sub := &models.PushSubscription{}
		var createdAt, updatedAt int64
		if err := rows.Scan(&sub.ID, &sub.UserID, &sub.Endpoint, &sub.Keys.P256dh, &sub.Keys.Auth,
			&createdAt, &updatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan push subscription: %w", err)
		}
		sub.CreatedAt = fromNanos(createdAt)
		sub.UpdatedAt = fromNanos(updatedAt)
		subs = append(subs, sub)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate push subscriptions: %w", err)
	}
	return subs, nil
}

// DeleteSubscription removes one of the user's subscriptions.
func (s *SQLiteStore) DeleteSubscription(ctx context.Context, userID, endpoint string) error {
	res, err := s.db.ExecContext(ctx,
		`DELETE FROM push_subscriptions WHERE user_id = ? AND endpoint = ?`, userID, endpoint)
	if err != nil {
		return fmt.Errorf("failed to delete push subscription: %w", err)
	}
	return checkAffected(res, "push subscription", endpoint)
}

// DeleteSubscriptionByEndpoint removes a subscription the push service reported gone.
func (s *SQLiteStore) DeleteSubscriptionByEndpoint(ctx context.Context, endpoint string) error {
	if _, err := s.db.ExecContext(ctx,
		`DELETE FROM push_subscriptions WHERE endpoint = ?`, endpoint); err != nil {
		return fmt.Errorf("failed to delete push subscription: %w", err)
	}
	return nil
}
