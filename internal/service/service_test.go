package service

import (
	"context"
	"io"
	"log/slog"
	"path/filepath"
	"testing"
	"time"

	"github.com/brianvoe/gofakeit/v6"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/mmynk/homebase/internal/auth"
	"github.com/mmynk/homebase/internal/models"
	"github.com/mmynk/homebase/internal/notify"
	"github.com/mmynk/homebase/internal/storage/sqlite"
)

var testNow = time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

// harness wires every service to one temporary SQLite database, a pinned
// clock and the real notification dispatcher without web push.
type harness struct {
	store         *sqlite.SQLiteStore
	auth          *AuthService
	households    *HouseholdService
	chores        *ChoreService
	expenses      *ExpenseService
	notifications *NotificationService
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	store, err := sqlite.New(filepath.Join(t.TempDir(), "service.db"))
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	opts := []Option{
		WithClock(func() time.Time { return testNow }),
		WithNotifier(notify.NewDispatcher(store, nil, nil, logger)),
	}
	authenticator := auth.NewPasswordAuthenticator(store).WithCost(bcrypt.MinCost)
	jwtManager := auth.NewJWTManager("test-secret", time.Hour)

	return &harness{
		store:         store,
		auth:          NewAuthService(store, authenticator, jwtManager, logger, opts...),
		households:    NewHouseholdService(store, logger, opts...),
		chores:        NewChoreService(store, logger, opts...),
		expenses:      NewExpenseService(store, logger, opts...),
		notifications: NewNotificationService(store, logger, opts...),
	}
}

// user registers a new account and returns its identity.
func (h *harness) user(t *testing.T, name string) auth.Identity {
	t.Helper()
	res, err := h.auth.Register(context.Background(), RegisterInput{
		Email:       gofakeit.Email(),
		DisplayName: name,
		Password:    "password123",
	})
	require.NoError(t, err)
	return auth.IdentityOf(res.User)
}

// refresh reloads an identity after membership changes.
func (h *harness) refresh(t *testing.T, id auth.Identity) auth.Identity {
	t.Helper()
	u, err := h.store.GetUserByID(context.Background(), id.UserID)
	require.NoError(t, err)
	return auth.IdentityOf(u)
}

// household creates a household owned by the first name and joined by the
// rest, returning refreshed identities in the same order.
func (h *harness) household(t *testing.T, names ...string) []auth.Identity {
	t.Helper()
	ctx := context.Background()
	ids := make([]auth.Identity, len(names))
	for i, n := range names {
		ids[i] = h.user(t, n)
	}

	view, err := h.households.Create(ctx, ids[0], names[0]+"'s place")
	require.NoError(t, err)
	for _, id := range ids[1:] {
		_, err := h.households.Join(ctx, id, view.Household.JoinCode)
		require.NoError(t, err)
	}
	for i := range ids {
		ids[i] = h.refresh(t, ids[i])
	}
	return ids
}

func (h *harness) inbox(t *testing.T, id auth.Identity) []*models.Notification {
	t.Helper()
	list, err := h.notifications.List(context.Background(), id, false, 0)
	require.NoError(t, err)
	return list
}

func countType(list []*models.Notification, typ models.NotificationType) int {
	n := 0
	for _, x := range list {
		if x.Type == typ {
			n++
		}
	}
	return n
}

func ptr[T any](v T) *T {
	return &v
}
