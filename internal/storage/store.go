// Package storage provides abstractions for persistent data storage.
package storage

import (
	"context"
	"errors"
	"time"

	"github.com/mmynk/homebase/internal/models"
)

// ErrNotFound is returned (possibly wrapped) when a document does not exist.
var ErrNotFound = errors.New("not found")

// ErrDuplicate is returned when a unique field (email, join code, push endpoint)
// is already taken.
var ErrDuplicate = errors.New("duplicate key")

// ExpenseFilter narrows ListExpenses. Zero values mean "any".
type ExpenseFilter struct {
	HouseholdID   string
	Category      models.ExpenseCategory
	Status        models.ExpenseStatus
	CreatedBy     string
	RecurringOnly bool
}

// ChoreFilter narrows ListChores. Zero values mean "any".
type ChoreFilter struct {
	HouseholdID string
	Status      models.ChoreStatus
	AssignedTo  string
}

// UserStore persists users. Membership changes go through SetUserHousehold,
// a single-document update.
type UserStore interface {
	CreateUser(ctx context.Context, user *models.User) error
	GetUserByID(ctx context.Context, id string) (*models.User, error)
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
	UpdateUser(ctx context.Context, user *models.User) error
	SetUserHousehold(ctx context.Context, userID, householdID string, role models.Role) error
	ListUsersByHousehold(ctx context.Context, householdID string) ([]*models.User, error)
}

type HouseholdStore interface {
	CreateHousehold(ctx context.Context, household *models.Household) error
	GetHousehold(ctx context.Context, id string) (*models.Household, error)
	GetHouseholdByJoinCode(ctx context.Context, code string) (*models.Household, error)
	UpdateHousehold(ctx context.Context, household *models.Household) error
	DeleteHousehold(ctx context.Context, id string) error
}

type ChoreStore interface {
	CreateChore(ctx context.Context, chore *models.Chore) error
	GetChore(ctx context.Context, id string) (*models.Chore, error)
	ListChores(ctx context.Context, filter ChoreFilter) ([]*models.Chore, error)
	UpdateChore(ctx context.Context, chore *models.Chore) error
	DeleteChore(ctx context.Context, id string) error
}

type ExpenseStore interface {
	CreateExpense(ctx context.Context, expense *models.Expense) error
	GetExpense(ctx context.Context, id string) (*models.Expense, error)
	ListExpenses(ctx context.Context, filter ExpenseFilter) ([]*models.Expense, error)
	UpdateExpense(ctx context.Context, expense *models.Expense) error
	DeleteExpense(ctx context.Context, id string) error

	// ListDueRecurring returns recurring templates whose next due date is <= now.
	ListDueRecurring(ctx context.Context, now time.Time) ([]*models.Expense, error)

	// SpawnRecurrence advances the template's next due date from expectedNext
	// to newNext and inserts clone, as one unit. It returns false without
	// inserting anything when the stored next due date no longer equals
	// expectedNext, i.e. another run already handled this occurrence.
	SpawnRecurrence(ctx context.Context, templateID string, expectedNext, newNext time.Time, clone *models.Expense) (bool, error)
}

type NotificationStore interface {
	CreateNotification(ctx context.Context, n *models.Notification) error
	GetNotification(ctx context.Context, id string) (*models.Notification, error)
	// ListNotifications returns the newest notifications addressed to userID.
	ListNotifications(ctx context.Context, userID string, unreadOnly bool, limit int) ([]*models.Notification, error)
	MarkNotificationRead(ctx context.Context, id, userID string) error
	MarkAllNotificationsRead(ctx context.Context, userID string) (int64, error)
	// RemoveNotificationRecipient drops userID from the recipients and deletes
	// the notification once nobody is left.
	RemoveNotificationRecipient(ctx context.Context, id, userID string) error
}

type SubscriptionStore interface {
	// SaveSubscription inserts or re-binds a subscription by endpoint.
	SaveSubscription(ctx context.Context, sub *models.PushSubscription) error
	ListSubscriptions(ctx context.Context, userID string) ([]*models.PushSubscription, error)
	DeleteSubscription(ctx context.Context, userID, endpoint string) error
	DeleteSubscriptionByEndpoint(ctx context.Context, endpoint string) error
}

// Store defines the full persistence surface.
// This abstraction allows swapping storage backends (SQLite, MongoDB)
// without changing the service layer.
type Store interface {
	UserStore
	HouseholdStore
	ChoreStore
	ExpenseStore
	NotificationStore
	SubscriptionStore

	// Close releases any resources held by the store.
	Close() error
}
