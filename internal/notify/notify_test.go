package notify

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mmynk/homebase/internal/metrics"
	"github.com/mmynk/homebase/internal/models"
	"github.com/mmynk/homebase/internal/storage/sqlite"
)

type fakePusher struct {
	status map[string]int // endpoint -> status
	sent   []string
}

func (p *fakePusher) Push(_ context.Context, sub *models.PushSubscription, _ []byte) (int, error) {
	p.sent = append(p.sent, sub.Endpoint)
	if s, ok := p.status[sub.Endpoint]; ok {
		return s, nil
	}
	return http.StatusCreated, nil
}

type failingSink struct{ calls int }

func (s *failingSink) Notify(context.Context, Request) error {
	s.calls++
	return errors.New("boom")
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newStore(t *testing.T) *sqlite.SQLiteStore {
	t.Helper()
	store, err := sqlite.New(filepath.Join(t.TempDir(), "notify.db"))
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

func TestDispatcherNotify(t *testing.T) {
	ctx := context.Background()
	store := newStore(t)

	alice := models.NewUser("alice@example.com", "Alice", "h")
	bob := models.NewUser("bob@example.com", "Bob", "h")
	bob.Preferences.Push = false
	require.NoError(t, store.CreateUser(ctx, alice))
	require.NoError(t, store.CreateUser(ctx, bob))

	for _, sub := range []*models.PushSubscription{
		{UserID: alice.ID, Endpoint: "https://push.example/alive"},
		{UserID: alice.ID, Endpoint: "https://push.example/gone"},
		{UserID: bob.ID, Endpoint: "https://push.example/bob"},
	} {
		require.NoError(t, store.SaveSubscription(ctx, sub))
	}

	pusher := &fakePusher{status: map[string]int{"https://push.example/gone": http.StatusGone}}
	d := NewDispatcher(store, pusher, metrics.New(), discardLogger())

	err := d.Notify(ctx, Request{
		Type:       models.NotifyExpenseAlert,
		Title:      "New expense",
		Message:    "Rent: you owe 500.00",
		Recipients: []string{alice.ID, bob.ID, alice.ID, ""},
		Reference:  &models.NotificationRef{Model: "expense", ID: "e1"},
	})
	require.NoError(t, err)

	// One stored document, recipients deduplicated.
	list, err := store.ListNotifications(ctx, alice.ID, false, 10)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.ElementsMatch(t, []string{alice.ID, bob.ID}, list[0].Recipients)

	// Bob opted out of push; alice's two endpoints were tried.
	assert.ElementsMatch(t, []string{"https://push.example/alive", "https://push.example/gone"}, pusher.sent)

	// The 410 endpoint was pruned.
	subs, err := store.ListSubscriptions(ctx, alice.ID)
	require.NoError(t, err)
	require.Len(t, subs, 1)
	assert.Equal(t, "https://push.example/alive", subs[0].Endpoint)
}

func TestDispatcherWithoutPusher(t *testing.T) {
	ctx := context.Background()
	store := newStore(t)
	d := NewDispatcher(store, nil, nil, discardLogger())

	require.NoError(t, d.Notify(ctx, Request{Type: models.NotifyHouseholdUpdate, Title: "Hi", Recipients: []string{"u1"}}))
	require.NoError(t, d.Notify(ctx, Request{Type: models.NotifyHouseholdUpdate, Title: "Nobody"}))

	list, err := store.ListNotifications(ctx, "u1", true, 10)
	require.NoError(t, err)
	assert.Len(t, list, 1)
}

func TestEmitSwallowsErrors(t *testing.T) {
	sink := &failingSink{}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	assert.NotPanics(t, func() {
		Emit(ctx, sink, discardLogger(), Request{Recipients: []string{"u1"}})
		Emit(ctx, nil, discardLogger(), Request{})
	})
	assert.Equal(t, 1, sink.calls)
}
