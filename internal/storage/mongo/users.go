package mongo

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/mmynk/homebase/internal/models"
	"github.com/mmynk/homebase/internal/storage"
)

// CreateUser inserts a new user document.
func (s *MongoStore) CreateUser(ctx context.Context, user *models.User) error {
	if user.ID == "" {
		user.ID = uuid.New().String()
	}
	now := s.now()
	user.CreatedAt = now
	user.UpdatedAt = now

	_, err := s.col(colUsers).InsertOne(ctx, user)
	if mongo.IsDuplicateKeyError(err) {
		return fmt.Errorf("email %s: %w", user.Email, storage.ErrDuplicate)
	}
	if err != nil {
		return fmt.Errorf("failed to create user: %w", err)
	}
	return nil
}

// GetUserByID retrieves a user by ID.
func (s *MongoStore) GetUserByID(ctx context.Context, id string) (*models.User, error) {
	user := &models.User{}
	if err := s.findOne(ctx, colUsers, byID(id), user, "user", id); err != nil {
		return nil, err
	}
	return user, nil
}

// GetUserByEmail retrieves a user by email address.
func (s *MongoStore) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	user := &models.User{}
	if err := s.findOne(ctx, colUsers, bson.D{{Key: "email", Value: email}}, user, "user", email); err != nil {
		return nil, err
	}
	return user, nil
}

// UpdateUser updates the profile fields of a user. Membership is left alone.
func (s *MongoStore) UpdateUser(ctx context.Context, user *models.User) error {
	user.UpdatedAt = s.now()
	res, err := s.col(colUsers).UpdateOne(ctx, byID(user.ID), bson.D{{Key: "$set", Value: bson.D{
		{Key: "email", Value: user.Email},
		{Key: "display_name", Value: user.DisplayName},
		{Key: "password_hash", Value: user.PasswordHash},
		{Key: "preferences", Value: user.Preferences},
		{Key: "updated_at", Value: user.UpdatedAt},
	}}})
	if mongo.IsDuplicateKeyError(err) {
		return fmt.Errorf("email %s: %w", user.Email, storage.ErrDuplicate)
	}
	if err != nil {
		return fmt.Errorf("failed to update user: %w", err)
	}
	return matched(res, "user", user.ID)
}

// SetUserHousehold sets or clears the user's household in a single update.
func (s *MongoStore) SetUserHousehold(ctx context.Context, userID, householdID string, role models.Role) error {
	var update bson.D
	if householdID == "" {
		update = bson.D{
			{Key: "$unset", Value: bson.D{{Key: "household_id", Value: ""}, {Key: "role", Value: ""}}},
			{Key: "$set", Value: bson.D{{Key: "updated_at", Value: s.now()}}},
		}
	} else {
		update = bson.D{{Key: "$set", Value: bson.D{
			{Key: "household_id", Value: householdID},
			{Key: "role", Value: role},
			{Key: "updated_at", Value: s.now()},
		}}}
	}
	res, err := s.col(colUsers).UpdateOne(ctx, byID(userID), update)
	if err != nil {
		return fmt.Errorf("failed to set user household: %w", err)
	}
	return matched(res, "user", userID)
}

// ListUsersByHousehold returns the members of a household.
func (s *MongoStore) ListUsersByHousehold(ctx context.Context, householdID string) ([]*models.User, error) {
	opts := options.Find().SetSort(bson.D{{Key: "updated_at", Value: 1}, {Key: "_id", Value: 1}})
	return findAll[models.User](ctx, s.col(colUsers), bson.D{{Key: "household_id", Value: householdID}}, opts, "users")
}
