package mongo

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/mmynk/homebase/internal/models"
	"github.com/mmynk/homebase/internal/storage"
)

// CreateHousehold inserts a new household.
func (s *MongoStore) CreateHousehold(ctx context.Context, household *models.Household) error {
	if household.ID == "" {
		household.ID = uuid.New().String()
	}
	now := s.now()
	household.CreatedAt = now
	household.UpdatedAt = now

	_, err := s.col(colHouseholds).InsertOne(ctx, household)
	if mongo.IsDuplicateKeyError(err) {
		return fmt.Errorf("join code: %w", storage.ErrDuplicate)
	}
	if err != nil {
		return fmt.Errorf("failed to create household: %w", err)
	}
	return nil
}

// GetHousehold retrieves a household by ID.
func (s *MongoStore) GetHousehold(ctx context.Context, id string) (*models.Household, error) {
	h := &models.Household{}
	if err := s.findOne(ctx, colHouseholds, byID(id), h, "household", id); err != nil {
		return nil, err
	}
	return h, nil
}

// GetHouseholdByJoinCode retrieves a household by its join code.
func (s *MongoStore) GetHouseholdByJoinCode(ctx context.Context, code string) (*models.Household, error) {
	h := &models.Household{}
	if err := s.findOne(ctx, colHouseholds, bson.D{{Key: "join_code", Value: code}}, h, "household", code); err != nil {
		return nil, err
	}
	return h, nil
}

// UpdateHousehold updates name and join code.
func (s *MongoStore) UpdateHousehold(ctx context.Context, household *models.Household) error {
	household.UpdatedAt = s.now()
	res, err := s.col(colHouseholds).UpdateOne(ctx, byID(household.ID), bson.D{{Key: "$set", Value: bson.D{
		{Key: "name", Value: household.Name},
		{Key: "join_code", Value: household.JoinCode},
		{Key: "updated_at", Value: household.UpdatedAt},
	}}})
	if mongo.IsDuplicateKeyError(err) {
		return fmt.Errorf("join code: %w", storage.ErrDuplicate)
	}
	if err != nil {
		return fmt.Errorf("failed to update household: %w", err)
	}
	return matched(res, "household", household.ID)
}

// DeleteHousehold removes a household together with its chores and expenses.
func (s *MongoStore) DeleteHousehold(ctx context.Context, id string) error {
	res, err := s.col(colHouseholds).DeleteOne(ctx, byID(id))
	if err != nil {
		return fmt.Errorf("failed to delete household: %w", err)
	}
	if err := deleted(res, "household", id); err != nil {
		return err
	}

	owned := bson.D{{Key: "household_id", Value: id}}
	for _, col := range []string{colChores, colExpenses} {
		if _, err := s.col(col).DeleteMany(ctx, owned); err != nil {
			return fmt.Errorf("failed to delete household %s: %w", col, err)
		}
	}
	return nil
}
