package models

import "time"

// Household is a group of users sharing chores and expenses.
// Members are not stored here; they are the users whose HouseholdID points
// at this household.
type Household struct {
	ID string `json:"id" bson:"_id"`

	// Name is the display name (e.g., "Maple Street Flat").
	Name string `json:"name" bson:"name"`

	// JoinCode is the short code other users enter to join.
	JoinCode string `json:"join_code" bson:"join_code"`

	// CreatedBy is the user ID of the founding member.
	CreatedBy string `json:"created_by" bson:"created_by"`

	CreatedAt time.Time `json:"created_at" bson:"created_at"`
	UpdatedAt time.Time `json:"updated_at" bson:"updated_at"`
}
