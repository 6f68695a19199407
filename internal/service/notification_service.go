package service

import (
	"context"
	"log/slog"
	"net/url"
	"strings"

	"github.com/mmynk/homebase/internal/apperr"
	"github.com/mmynk/homebase/internal/auth"
	"github.com/mmynk/homebase/internal/models"
	"github.com/mmynk/homebase/internal/storage"
)

const (
	defaultNotificationLimit = 50
	maxNotificationLimit     = 200
)

// NotificationService exposes a user's notifications and push subscriptions.
type NotificationService struct {
	base
}

func NewNotificationService(store storage.Store, logger *slog.Logger, opts ...Option) *NotificationService {
	return &NotificationService{base: newBase(store, logger, opts)}
}

type SubscribeInput struct {
	Endpoint string          `json:"endpoint" binding:"required"`
	Keys     models.PushKeys `json:"keys"`
}

// List returns the caller's newest notifications.
func (s *NotificationService) List(ctx context.Context, id auth.Identity, unreadOnly bool, limit int) ([]*models.Notification, error) {
	if limit <= 0 {
		limit = defaultNotificationLimit
	}
	if limit > maxNotificationLimit {
		limit = maxNotificationLimit
	}
	list, err := s.store.ListNotifications(ctx, id.UserID, unreadOnly, limit)
	if err != nil {
		return nil, s.storeErr(err, "notifications")
	}
	if list == nil {
		list = []*models.Notification{}
	}
	return list, nil
}

func (s *NotificationService) MarkRead(ctx context.Context, id auth.Identity, notificationID string) error {
	if err := s.store.MarkNotificationRead(ctx, notificationID, id.UserID); err != nil {
		return s.storeErr(err, "notification")
	}
	return nil
}

func (s *NotificationService) MarkAllRead(ctx context.Context, id auth.Identity) (int64, error) {
	n, err := s.store.MarkAllNotificationsRead(ctx, id.UserID)
	if err != nil {
		return 0, s.storeErr(err, "notifications")
	}
	return n, nil
}

// Delete removes the notification from the caller's inbox only.
func (s *NotificationService) Delete(ctx context.Context, id auth.Identity, notificationID string) error {
	if err := s.store.RemoveNotificationRecipient(ctx, notificationID, id.UserID); err != nil {
		return s.storeErr(err, "notification")
	}
	return nil
}

// Subscribe registers a browser push subscription for the caller.
func (s *NotificationService) Subscribe(ctx context.Context, id auth.Identity, in SubscribeInput) (*models.PushSubscription, error) {
	endpoint := strings.TrimSpace(in.Endpoint)
	u, err := url.Parse(endpoint)
	if err != nil || u.Scheme != "https" || u.Host == "" {
		return nil, apperr.Validation("endpoint must be an https URL")
	}
	if in.Keys.P256dh == "" || in.Keys.Auth == "" {
		return nil, apperr.Validation("keys.p256dh and keys.auth are required")
	}

	sub := &models.PushSubscription{UserID: id.UserID, Endpoint: endpoint, Keys: in.Keys}
	if err := s.store.SaveSubscription(ctx, sub); err != nil {
		return nil, s.storeErr(err, "push subscription")
	}
	s.logger.Info("Push subscription saved", "user_id", id.UserID, "subscription_id", sub.ID)
	return sub, nil
}

func (s *NotificationService) Unsubscribe(ctx context.Context, id auth.Identity, endpoint string) error {
	if strings.TrimSpace(endpoint) == "" {
		return apperr.Validation("endpoint is required")
	}
	if err := s.store.DeleteSubscription(ctx, id.UserID, endpoint); err != nil {
		return s.storeErr(err, "push subscription")
	}
	return nil
}
