package mongo

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/mmynk/homebase/internal/models"
)

// SaveSubscription upserts a push subscription keyed by endpoint.
func (s *MongoStore) SaveSubscription(ctx context.Context, sub *models.PushSubscription) error {
	id := sub.ID
	if id == "" {
		id = uuid.New().String()
	}
	now := s.now()

	opts := options.FindOneAndUpdate().SetUpsert(true).SetReturnDocument(options.After)
	err := s.col(colSubscriptions).FindOneAndUpdate(ctx,
		bson.D{{Key: "endpoint", Value: sub.Endpoint}},
		bson.D{
			{Key: "$set", Value: bson.D{
				{Key: "user_id", Value: sub.UserID},
				{Key: "keys", Value: sub.Keys},
				{Key: "updated_at", Value: now},
			}},
			{Key: "$setOnInsert", Value: bson.D{
				{Key: "_id", Value: id},
				{Key: "created_at", Value: now},
			}},
		},
		opts,
	).Decode(sub)
	if err != nil {
		return fmt.Errorf("failed to save push subscription: %w", err)
	}
	return nil
}

// ListSubscriptions returns all push subscriptions of a user.
func (s *MongoStore) ListSubscriptions(ctx context.Context, userID string) ([]*models.PushSubscription, error) {
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: 1}})
	return findAll[models.PushSubscription](ctx, s.col(colSubscriptions), bson.D{{Key: "user_id", Value: userID}}, opts, "push subscriptions")
}

// DeleteSubscription removes the user's subscription for endpoint.
func (s *MongoStore) DeleteSubscription(ctx context.Context, userID, endpoint string) error {
	res, err := s.col(colSubscriptions).DeleteOne(ctx, bson.D{
		{Key: "user_id", Value: userID},
		{Key: "endpoint", Value: endpoint},
	})
	if err != nil {
		return fmt.Errorf("failed to delete push subscription: %w", err)
	}
	return deleted(res, "push subscription", endpoint)
}

// DeleteSubscriptionByEndpoint removes a subscription the push service rejected.
func (s *MongoStore) DeleteSubscriptionByEndpoint(ctx context.Context, endpoint string) error {
	if _, err := s.col(colSubscriptions).DeleteOne(ctx, bson.D{{Key: "endpoint", Value: endpoint}}); err != nil {
		return fmt.Errorf("failed to delete push subscription: %w", err)
	}
	return nil
}
