package main

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/mmynk/homebase/internal/auth"
	"github.com/mmynk/homebase/internal/config"
	"github.com/mmynk/homebase/internal/metrics"
	"github.com/mmynk/homebase/internal/notify"
	"github.com/mmynk/homebase/internal/scheduler"
	"github.com/mmynk/homebase/internal/service"
	"github.com/mmynk/homebase/internal/storage"
	"github.com/mmynk/homebase/internal/storage/mongo"
	"github.com/mmynk/homebase/internal/storage/sqlite"
	"github.com/mmynk/homebase/pkg/logging"
)

// app holds the components shared by the subcommands.
type app struct {
	cfg        *config.Config
	logger     *slog.Logger
	store      storage.Store
	metrics    *metrics.Metrics
	dispatcher *notify.Dispatcher
	jwt        *auth.JWTManager
	scheduler  *scheduler.Scheduler
}

func newApp(ctx context.Context) (*app, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}

	logging.SetupWith(cfg.Log.Level, cfg.Log.Format)
	logger := slog.Default()

	store, err := openStore(ctx, cfg)
	if err != nil {
		return nil, err
	}
	logger.Info("Storage initialized", "driver", cfg.Database.Driver)

	m := metrics.New()
	var pusher notify.Pusher
	if cfg.PushEnabled() {
		pusher = notify.NewWebPusher(cfg.Push.Subscriber, cfg.Push.VAPIDPublicKey, cfg.Push.VAPIDPrivateKey, cfg.Push.TTLSeconds)
		logger.Info("Web push enabled", "subscriber", cfg.Push.Subscriber)
	}
	dispatcher := notify.NewDispatcher(store, pusher, m, logger)

	return &app{
		cfg:        cfg,
		logger:     logger,
		store:      store,
		metrics:    m,
		dispatcher: dispatcher,
		jwt:        auth.NewJWTManager(cfg.JWTSecret(), cfg.TokenTTL()),
		scheduler:  scheduler.New(store, dispatcher, m, logger),
	}, nil
}

func openStore(ctx context.Context, cfg *config.Config) (storage.Store, error) {
	switch cfg.Database.Driver {
	case "mongo":
		ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
		defer cancel()
		store, err := mongo.New(ctx, cfg.Database.URI, cfg.Database.Name)
		if err != nil {
			return nil, err
		}
		return store, nil
	case "sqlite":
		store, err := sqlite.New(cfg.Database.Path)
		if err != nil {
			return nil, err
		}
		return store, nil
	default:
		return nil, fmt.Errorf("unknown database driver %q", cfg.Database.Driver)
	}
}

func (a *app) services() (*service.AuthService, *service.HouseholdService, *service.ChoreService, *service.ExpenseService, *service.NotificationService) {
	opt := service.WithNotifier(a.dispatcher)
	authenticator := auth.NewPasswordAuthenticator(a.store)
	return service.NewAuthService(a.store, authenticator, a.jwt, a.logger, opt),
		service.NewHouseholdService(a.store, a.logger, opt),
		service.NewChoreService(a.store, a.logger, opt),
		service.NewExpenseService(a.store, a.logger, opt),
		service.NewNotificationService(a.store, a.logger, opt)
}

func (a *app) close() {
	if err := a.store.Close(); err != nil {
		a.logger.Error("Failed to close storage", "error", err)
	}
}
