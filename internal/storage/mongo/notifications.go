package mongo

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/mmynk/homebase/internal/models"
	"github.com/mmynk/homebase/internal/storage"
)

// CreateNotification inserts a notification. Read state lives in read_by.
func (s *MongoStore) CreateNotification(ctx context.Context, n *models.Notification) error {
	if n.ID == "" {
		n.ID = uuid.New().String()
	}
	if n.Recipients == nil {
		n.Recipients = []string{}
	}
	if n.ReadBy == nil {
		n.ReadBy = []string{}
	}
	now := s.now()
	n.CreatedAt = now
	n.UpdatedAt = now

	if _, err := s.col(colNotifications).InsertOne(ctx, n); err != nil {
		return fmt.Errorf("failed to create notification: %w", err)
	}
	return nil
}

// GetNotification retrieves a notification by ID.
func (s *MongoStore) GetNotification(ctx context.Context, id string) (*models.Notification, error) {
	n := &models.Notification{}
	if err := s.findOne(ctx, colNotifications, byID(id), n, "notification", id); err != nil {
		return nil, err
	}
	return n, nil
}

// ListNotifications returns the newest notifications addressed to userID.
func (s *MongoStore) ListNotifications(ctx context.Context, userID string, unreadOnly bool, limit int) ([]*models.Notification, error) {
	q := bson.D{{Key: "recipients", Value: userID}}
	if unreadOnly {
		q = append(q, bson.E{Key: "read_by", Value: bson.D{{Key: "$ne", Value: userID}}})
	}
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}, {Key: "_id", Value: 1}})
	if limit > 0 {
		opts.SetLimit(int64(limit))
	}
	return findAll[models.Notification](ctx, s.col(colNotifications), q, opts, "notifications")
}

// MarkNotificationRead adds userID to read_by when it is a recipient.
func (s *MongoStore) MarkNotificationRead(ctx context.Context, id, userID string) error {
	res, err := s.col(colNotifications).UpdateOne(ctx,
		bson.D{{Key: "_id", Value: id}, {Key: "recipients", Value: userID}},
		bson.D{
			{Key: "$addToSet", Value: bson.D{{Key: "read_by", Value: userID}}},
			{Key: "$set", Value: bson.D{{Key: "updated_at", Value: s.now()}}},
		},
	)
	if err != nil {
		return fmt.Errorf("failed to mark notification read: %w", err)
	}
	if res.MatchedCount == 0 {
		return fmt.Errorf("notification %s for user %s: %w", id, userID, storage.ErrNotFound)
	}
	return nil
}

// MarkAllNotificationsRead marks every unread notification of userID as read.
func (s *MongoStore) MarkAllNotificationsRead(ctx context.Context, userID string) (int64, error) {
	res, err := s.col(colNotifications).UpdateMany(ctx,
		bson.D{
			{Key: "recipients", Value: userID},
			{Key: "read_by", Value: bson.D{{Key: "$ne", Value: userID}}},
		},
		bson.D{
			{Key: "$addToSet", Value: bson.D{{Key: "read_by", Value: userID}}},
			{Key: "$set", Value: bson.D{{Key: "updated_at", Value: s.now()}}},
		},
	)
	if err != nil {
		return 0, fmt.Errorf("failed to mark notifications read: %w", err)
	}
	return res.ModifiedCount, nil
}

// RemoveNotificationRecipient pulls userID from the notification and deletes
// it once no recipients remain.
func (s *MongoStore) RemoveNotificationRecipient(ctx context.Context, id, userID string) error {
	res, err := s.col(colNotifications).UpdateOne(ctx,
		bson.D{{Key: "_id", Value: id}, {Key: "recipients", Value: userID}},
		bson.D{
			{Key: "$pull", Value: bson.D{{Key: "recipients", Value: userID}, {Key: "read_by", Value: userID}}},
			{Key: "$set", Value: bson.D{{Key: "updated_at", Value: s.now()}}},
		},
	)
	if err != nil {
		return fmt.Errorf("failed to remove notification recipient: %w", err)
	}
	if err := matched(res, "notification", id); err != nil {
		return err
	}

	_, err = s.col(colNotifications).DeleteOne(ctx, bson.D{
		{Key: "_id", Value: id},
		{Key: "recipients", Value: bson.D{{Key: "$size", Value: 0}}},
	})
	if err != nil {
		return fmt.Errorf("failed to delete empty notification: %w", err)
	}
	return nil
}
