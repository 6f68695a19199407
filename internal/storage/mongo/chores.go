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

// CreateChore inserts a new chore.
func (s *MongoStore) CreateChore(ctx context.Context, chore *models.Chore) error {
	if chore.ID == "" {
		chore.ID = uuid.New().String()
	}
	if chore.AssignedTo == nil {
		chore.AssignedTo = []string{}
	}
	now := s.now()
	chore.CreatedAt = now
	chore.UpdatedAt = now

	if _, err := s.col(colChores).InsertOne(ctx, chore); err != nil {
		return fmt.Errorf("failed to create chore: %w", err)
	}
	return nil
}

// GetChore retrieves a chore by ID.
func (s *MongoStore) GetChore(ctx context.Context, id string) (*models.Chore, error) {
	c := &models.Chore{}
	if err := s.findOne(ctx, colChores, byID(id), c, "chore", id); err != nil {
		return nil, err
	}
	return c, nil
}

// ListChores retrieves chores matching the filter, soonest due first.
func (s *MongoStore) ListChores(ctx context.Context, filter storage.ChoreFilter) ([]*models.Chore, error) {
	q := bson.D{}
	if filter.HouseholdID != "" {
		q = append(q, bson.E{Key: "household_id", Value: filter.HouseholdID})
	}
	if filter.Status != "" {
		q = append(q, bson.E{Key: "status", Value: filter.Status})
	}
	if filter.AssignedTo != "" {
		q = append(q, bson.E{Key: "assigned_to", Value: filter.AssignedTo})
	}
	opts := options.Find().SetSort(bson.D{{Key: "due_date", Value: 1}, {Key: "created_at", Value: 1}})
	return findAll[models.Chore](ctx, s.col(colChores), q, opts, "chores")
}

// UpdateChore replaces a chore document.
func (s *MongoStore) UpdateChore(ctx context.Context, chore *models.Chore) error {
	chore.UpdatedAt = s.now()
	res, err := s.col(colChores).ReplaceOne(ctx, byID(chore.ID), chore)
	if err != nil {
		return fmt.Errorf("failed to update chore: %w", err)
	}
	return matched(res, "chore", chore.ID)
}

// DeleteChore removes a chore.
func (s *MongoStore) DeleteChore(ctx context.Context, id string) error {
	res, err := s.col(colChores).DeleteOne(ctx, byID(id))
	if err != nil {
		return fmt.Errorf("failed to delete chore: %w", err)
	}
	return deleted(res, "chore", id)
}
