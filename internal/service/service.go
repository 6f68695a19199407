// Package service implements the household, chore, expense, notification and
// account operations. Services take a resolved auth.Identity, never a token,
// and return apperr errors.
package service

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/mmynk/homebase/internal/apperr"
	"github.com/mmynk/homebase/internal/auth"
	"github.com/mmynk/homebase/internal/notify"
	"github.com/mmynk/homebase/internal/storage"
)

// Option configures a service.
type Option func(*base)

// WithClock overrides the time source. Tests pin it to a fixed instant.
func WithClock(now func() time.Time) Option {
	return func(b *base) { b.now = now }
}

// WithNotifier sets the notification sink. Without one, no notifications are sent.
func WithNotifier(sink notify.Sink) Option {
	return func(b *base) { b.sink = sink }
}

// base holds what every service shares.
type base struct {
	store  storage.Store
	sink   notify.Sink
	logger *slog.Logger
	now    func() time.Time
}

func newBase(store storage.Store, logger *slog.Logger, opts []Option) base {
	if logger == nil {
		logger = slog.Default()
	}
	b := base{
		store:  store,
		logger: logger,
		now:    func() time.Time { return time.Now().UTC() },
	}
	for _, opt := range opts {
		opt(&b)
	}
	return b
}

func (b *base) emit(ctx context.Context, req notify.Request) {
	notify.Emit(ctx, b.sink, b.logger, req)
}

// storeErr translates a storage error into the apperr taxonomy.
// what names the entity for NotFound messages, e.g. "expense".
func (b *base) storeErr(err error, what string) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, storage.ErrNotFound):
		return apperr.NotFound("%s not found", what)
	case errors.Is(err, storage.ErrDuplicate):
		return apperr.Conflict("%s already exists", what)
	default:
		b.logger.Error("Storage failure", "entity", what, "error", err)
		return apperr.Unexpected("storage failure", err)
	}
}

func requireHousehold(id auth.Identity) error {
	if !id.InHousehold() {
		return apperr.Validation("you must join or create a household first")
	}
	return nil
}

func contains(list []string, v string) bool {
	for _, s := range list {
		if s == v {
			return true
		}
	}
	return false
}

// without returns list minus every occurrence of v.
func without(list []string, v string) []string {
	out := make([]string, 0, len(list))
	for _, s := range list {
		if s != v {
			out = append(out, s)
		}
	}
	return out
}
