package mongo

import (
	"context"
	"errors"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mmynk/homebase/internal/models"
	"github.com/mmynk/homebase/internal/storage"
)

// newTestStore connects to HOMEBASE_TEST_MONGO_URI using a throwaway database.
func newTestStore(t *testing.T) *MongoStore {
	t.Helper()
	uri := os.Getenv("HOMEBASE_TEST_MONGO_URI")
	if uri == "" {
		t.Skip("HOMEBASE_TEST_MONGO_URI not set")
	}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	store, err := New(ctx, uri, "homebase_test_"+uuid.NewString()[:8])
	require.NoError(t, err)
	t.Cleanup(func() {
		_ = store.db.Drop(context.Background())
		_ = store.Close()
	})
	return store
}

func TestSpawnRecurrenceGuard(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	next := time.Date(2025, 1, 31, 0, 0, 0, 0, time.UTC)
	template := &models.Expense{
		HouseholdID: "h1", CreatedBy: "alice", Title: "Rent", Amount: 1000, Category: models.CategoryRent,
		Splits:     []models.Split{{UserID: "alice", Amount: 1000}},
		Recurrence: models.Recurrence{IsRecurring: true, Frequency: models.Monthly, NextDueDate: &next},
	}
	require.NoError(t, store.CreateExpense(ctx, template))

	due, err := store.ListDueRecurring(ctx, next.Add(time.Hour))
	require.NoError(t, err)
	require.Len(t, due, 1)

	newNext := time.Date(2025, 2, 28, 0, 0, 0, 0, time.UTC)
	ok, err := store.SpawnRecurrence(ctx, template.ID, next, newNext, &models.Expense{
		HouseholdID: "h1", CreatedBy: "alice", Title: "Rent", Amount: 1000, SourceExpenseID: template.ID,
	})
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = store.SpawnRecurrence(ctx, template.ID, next, newNext, &models.Expense{HouseholdID: "h1"})
	require.NoError(t, err)
	assert.False(t, ok, "second spawn for the same occurrence must be refused")

	got, err := store.GetExpense(ctx, template.ID)
	require.NoError(t, err)
	assert.True(t, got.Recurrence.NextDueDate.Equal(newNext))

	all, err := store.ListExpenses(ctx, storage.ExpenseFilter{HouseholdID: "h1"})
	require.NoError(t, err)
	assert.Len(t, all, 2)
}

func TestNotificationReadState(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	n := &models.Notification{Type: models.NotifyExpensePaid, Title: "Paid", Recipients: []string{"alice", "bob"}}
	require.NoError(t, store.CreateNotification(ctx, n))

	require.NoError(t, store.MarkNotificationRead(ctx, n.ID, "alice"))
	err := store.MarkNotificationRead(ctx, n.ID, "mallory")
	assert.True(t, errors.Is(err, storage.ErrNotFound))

	unread, err := store.ListNotifications(ctx, "alice", true, 10)
	require.NoError(t, err)
	assert.Empty(t, unread)

	count, err := store.MarkAllNotificationsRead(ctx, "bob")
	require.NoError(t, err)
	assert.EqualValues(t, 1, count)

	require.NoError(t, store.RemoveNotificationRecipient(ctx, n.ID, "alice"))
	require.NoError(t, store.RemoveNotificationRecipient(ctx, n.ID, "bob"))
	_, err = store.GetNotification(ctx, n.ID)
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestUsersAndSubscriptions(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	user := models.NewUser("alice@example.com", "Alice", "hash")
	require.NoError(t, store.CreateUser(ctx, user))
	assert.ErrorIs(t, store.CreateUser(ctx, models.NewUser("alice@example.com", "A2", "h")), storage.ErrDuplicate)

	require.NoError(t, store.SetUserHousehold(ctx, user.ID, "h1", models.RoleAdmin))
	members, err := store.ListUsersByHousehold(ctx, "h1")
	require.NoError(t, err)
	require.Len(t, members, 1)
	assert.Equal(t, models.RoleAdmin, members[0].Role)

	require.NoError(t, store.SetUserHousehold(ctx, user.ID, "", ""))
	got, err := store.GetUserByID(ctx, user.ID)
	require.NoError(t, err)
	assert.Empty(t, got.HouseholdID)

	sub := &models.PushSubscription{UserID: user.ID, Endpoint: "https://push.example/a", Keys: models.PushKeys{P256dh: "p", Auth: "a"}}
	require.NoError(t, store.SaveSubscription(ctx, sub))
	first := sub.ID
	again := &models.PushSubscription{UserID: user.ID, Endpoint: "https://push.example/a", Keys: models.PushKeys{P256dh: "p", Auth: "b"}}
	require.NoError(t, store.SaveSubscription(ctx, again))
	assert.Equal(t, first, again.ID)

	subs, err := store.ListSubscriptions(ctx, user.ID)
	require.NoError(t, err)
	require.Len(t, subs, 1)
	assert.Equal(t, "b", subs[0].Keys.Auth)
}
