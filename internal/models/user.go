package models

import "time"

// Role is a user's role inside their household.
type Role string

const (
	RoleAdmin  Role = "admin"
	RoleMember Role = "member"
)

// NotificationPrefs controls which delivery channels a user accepts.
// In-app notifications are always stored.
type NotificationPrefs struct {
	Push bool `json:"push" bson:"push"`
}

// User represents a registered user account.
type User struct {
	// ID is the unique identifier for the user (UUID format).
	ID string `json:"id" bson:"_id"`

	// Email is the user's email address (unique, used for login).
	Email string `json:"email" bson:"email"`

	// DisplayName is the name shown to other household members.
	DisplayName string `json:"display_name" bson:"display_name"`

	// PasswordHash is the bcrypt hash. Never serialized to clients.
	PasswordHash string `json:"-" bson:"password_hash"`

	// HouseholdID is the household the user currently belongs to, empty if none.
	HouseholdID string `json:"household_id,omitempty" bson:"household_id,omitempty"`

	// Role is the user's role in HouseholdID. Empty when HouseholdID is empty.
	Role Role `json:"role,omitempty" bson:"role,omitempty"`

	Preferences NotificationPrefs `json:"preferences" bson:"preferences"`

	CreatedAt time.Time `json:"created_at" bson:"created_at"`
	UpdatedAt time.Time `json:"updated_at" bson:"updated_at"`
}

// NewUser creates a user with default preferences. ID and timestamps are
// assigned by the store.
func NewUser(email, displayName, passwordHash string) *User {
	return &User{
		Email:        email,
		DisplayName:  displayName,
		PasswordHash: passwordHash,
		Preferences:  NotificationPrefs{Push: true},
	}
}
