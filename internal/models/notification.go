package models

import "time"

type NotificationType string

const (
	NotifyChoreAssigned   NotificationType = "chore_assigned"
	NotifyChoreCompleted  NotificationType = "chore_completed"
	NotifyExpenseAlert    NotificationType = "expense_alert"
	NotifyExpensePaid     NotificationType = "expense_paid"
	NotifyHouseholdUpdate NotificationType = "household_update"
)

// NotificationRef points at the document a notification is about.
type NotificationRef struct {
	Model string `json:"model" bson:"model"` // "expense", "chore", "household"
	ID    string `json:"id" bson:"id"`
}

// Notification is an in-app message addressed to one or more users.
// Read state is tracked per recipient.
type Notification struct {
	ID          string           `json:"id" bson:"_id"`
	HouseholdID string           `json:"household_id,omitempty" bson:"household_id,omitempty"`
	Type        NotificationType `json:"type" bson:"type"`
	Title       string           `json:"title" bson:"title"`
	Message     string           `json:"message" bson:"message"`
	Recipients  []string         `json:"recipients" bson:"recipients"`
	ReadBy      []string         `json:"read_by" bson:"read_by"`
	Reference   *NotificationRef `json:"reference,omitempty" bson:"reference,omitempty"`

	CreatedAt time.Time `json:"created_at" bson:"created_at"`
	UpdatedAt time.Time `json:"updated_at" bson:"updated_at"`
}

// IsReadBy reports whether userID has read the notification.
func (n *Notification) IsReadBy(userID string) bool {
	for _, id := range n.ReadBy {
		if id == userID {
			return true
		}
	}
	return false
}

// PushKeys are the client keys of a web-push subscription.
type PushKeys struct {
	P256dh string `json:"p256dh" bson:"p256dh"`
	Auth   string `json:"auth" bson:"auth"`
}

// PushSubscription is a browser push endpoint registered by a user.
// Endpoint is unique across all users.
type PushSubscription struct {
	ID       string   `json:"id" bson:"_id"`
	UserID   string   `json:"user_id" bson:"user_id"`
	Endpoint string   `json:"endpoint" bson:"endpoint"`
	Keys     PushKeys `json:"keys" bson:"keys"`

	CreatedAt time.Time `json:"created_at" bson:"created_at"`
	UpdatedAt time.Time `json:"updated_at" bson:"updated_at"`
}
