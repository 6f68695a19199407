package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/net/http2"
	"golang.org/x/net/http2/h2c"
	"golang.org/x/sync/errgroup"

	"github.com/mmynk/homebase/internal/router"
)

const shutdownTimeout = 15 * time.Second

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API and the recurring-expense scheduler",
	RunE:  runServe,
}

func runServe(cmd *cobra.Command, _ []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := newApp(ctx)
	if err != nil {
		return err
	}
	defer a.close()

	authSvc, householdSvc, choreSvc, expenseSvc, notificationSvc := a.services()
	engine := router.SetupRouter(a.cfg, router.Deps{
		Store:         a.store,
		JWT:           a.jwt,
		Auth:          authSvc,
		Households:    householdSvc,
		Chores:        choreSvc,
		Expenses:      expenseSvc,
		Notifications: notificationSvc,
		Metrics:       a.metrics,
		Logger:        a.logger,
	})

	srv := &http.Server{
		Addr:              a.cfg.Addr(),
		Handler:           h2c.NewHandler(engine, &http2.Server{}),
		ReadHeaderTimeout: 10 * time.Second,
	}

	if a.cfg.Scheduler.Enabled {
		if err := a.scheduler.Start(a.cfg.Scheduler.Spec); err != nil {
			return err
		}
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		a.logger.Info("HTTP server starting", "address", srv.Addr, "mode", a.cfg.Server.Mode)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		a.logger.Info("Shutting down")

		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(gctx), shutdownTimeout)
		defer cancel()
		schedErr := a.scheduler.Stop(shutdownCtx)
		return errors.Join(srv.Shutdown(shutdownCtx), schedErr)
	})

	if err := g.Wait(); err != nil {
		a.logger.Error("Server stopped with error", "error", err)
		return err
	}
	a.logger.Info("Server stopped")
	return nil
}
