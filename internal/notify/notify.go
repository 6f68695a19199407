// Package notify persists in-app notifications and fans them out to web push.
package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/mmynk/homebase/internal/metrics"
	"github.com/mmynk/homebase/internal/models"
	"github.com/mmynk/homebase/internal/storage"
)

// Request describes one notification addressed to a set of users.
type Request struct {
	HouseholdID string
	Type        models.NotificationType
	Title       string
	Message     string
	Recipients  []string
	Reference   *models.NotificationRef
}

// Sink accepts notification requests.
type Sink interface {
	Notify(ctx context.Context, req Request) error
}

// Pusher delivers a payload to one push subscription and returns the HTTP
// status reported by the push service.
type Pusher interface {
	Push(ctx context.Context, sub *models.PushSubscription, payload []byte) (int, error)
}

// Store is the persistence the dispatcher needs.
type Store interface {
	storage.NotificationStore
	storage.SubscriptionStore
	GetUserByID(ctx context.Context, id string) (*models.User, error)
}

// Dispatcher stores a Notification document and, when a Pusher is
// configured, sends it to every subscription of recipients that allow push.
type Dispatcher struct {
	store   Store
	pusher  Pusher
	metrics *metrics.Metrics
	logger  *slog.Logger
}

// NewDispatcher creates a dispatcher. pusher may be nil to disable web push.
func NewDispatcher(store Store, pusher Pusher, m *metrics.Metrics, logger *slog.Logger) *Dispatcher {
	return &Dispatcher{store: store, pusher: pusher, metrics: m, logger: logger}
}

type pushPayload struct {
	ID        string                  `json:"id"`
	Type      models.NotificationType `json:"type"`
	Title     string                  `json:"title"`
	Body      string                  `json:"body"`
	Reference *models.NotificationRef `json:"reference,omitempty"`
}

// Notify persists the notification and attempts push delivery. Only a failure
// to persist is returned; push failures are logged and counted.
func (d *Dispatcher) Notify(ctx context.Context, req Request) error {
	recipients := dedupe(req.Recipients)
	if len(recipients) == 0 {
		return nil
	}

	n := &models.Notification{
		HouseholdID: req.HouseholdID,
		Type:        req.Type,
		Title:       req.Title,
		Message:     req.Message,
		Recipients:  recipients,
		Reference:   req.Reference,
	}
	err := d.store.CreateNotification(ctx, n)
	d.metrics.Delivery("inapp", err)
	if err != nil {
		return fmt.Errorf("failed to store notification: %w", err)
	}

	if d.pusher == nil {
		return nil
	}
	payload, err := json.Marshal(pushPayload{
		ID: n.ID, Type: n.Type, Title: n.Title, Body: n.Message, Reference: n.Reference,
	})
	if err != nil {
		return fmt.Errorf("failed to encode push payload: %w", err)
	}
	for _, userID := range recipients {
		d.pushTo(ctx, userID, payload)
	}
	return nil
}

func (d *Dispatcher) pushTo(ctx context.Context, userID string, payload []byte) {
	user, err := d.store.GetUserByID(ctx, userID)
	if err != nil {
		d.logger.Warn("Push skipped, user lookup failed", "user_id", userID, "error", err)
		return
	}
	if !user.Preferences.Push {
		return
	}

	subs, err := d.store.ListSubscriptions(ctx, userID)
	if err != nil {
		d.logger.Warn("Push skipped, subscription lookup failed", "user_id", userID, "error", err)
		return
	}
	for _, sub := range subs {
		status, err := d.pusher.Push(ctx, sub, payload)
		if status == http.StatusNotFound || status == http.StatusGone {
			// The browser dropped this subscription.
			if delErr := d.store.DeleteSubscriptionByEndpoint(ctx, sub.Endpoint); delErr != nil {
				d.logger.Warn("Failed to delete expired subscription", "user_id", userID, "error", delErr)
			}
			err = fmt.Errorf("subscription expired (status %d)", status)
		} else if err == nil && status >= 400 {
			err = fmt.Errorf("push service returned status %d", status)
		}
		d.metrics.Delivery("push", err)
		if err != nil {
			d.logger.Warn("Push delivery failed", "user_id", userID, "error", err)
		}
	}
}

// Emit sends req through sink without letting failures reach the caller.
// The call is detached from ctx cancellation so a finished request does not
// abort delivery.
func Emit(ctx context.Context, sink Sink, logger *slog.Logger, req Request) {
	if sink == nil {
		return
	}
	if err := sink.Notify(context.WithoutCancel(ctx), req); err != nil {
		logger.Error("Notification failed", "type", req.Type, "recipients", len(req.Recipients), "error", err)
	}
}

func dedupe(ids []string) []string {
	seen := make(map[string]bool, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if id == "" || seen[id] {
			continue
		}
		seen[id] = true
		out = append(out, id)
	}
	return out
}

// SplitAlerts builds one expense_alert request per split member.
func SplitAlerts(expense *models.Expense, title string) []Request {
	reqs := make([]Request, 0, len(expense.Splits))
	for _, split := range expense.Splits {
		reqs = append(reqs, Request{
			HouseholdID: expense.HouseholdID,
			Type:        models.NotifyExpenseAlert,
			Title:       title,
			Message:     fmt.Sprintf("%s: your share is %.2f", expense.Title, split.Amount),
			Recipients:  []string{split.UserID},
			Reference:   &models.NotificationRef{Model: "expense", ID: expense.ID},
		})
	}
	return reqs
}
