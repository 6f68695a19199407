// Package router wires handlers and middleware into a gin engine.
package router

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/mmynk/homebase/internal/auth"
	"github.com/mmynk/homebase/internal/config"
	"github.com/mmynk/homebase/internal/handler"
	"github.com/mmynk/homebase/internal/metrics"
	"github.com/mmynk/homebase/internal/middleware"
	"github.com/mmynk/homebase/internal/service"
	"github.com/mmynk/homebase/internal/storage"
)

// Deps are the already-constructed components the routes need.
type Deps struct {
	Store         storage.Store
	JWT           *auth.JWTManager
	Auth          *service.AuthService
	Households    *service.HouseholdService
	Chores        *service.ChoreService
	Expenses      *service.ExpenseService
	Notifications *service.NotificationService
	Metrics       *metrics.Metrics
	Logger        *slog.Logger
}

type pinger interface {
	Ping(ctx context.Context) error
}

// SetupRouter configures the gin engine with every API route.
func SetupRouter(cfg *config.Config, d Deps) *gin.Engine {
	if cfg.Server.Mode != "" {
		gin.SetMode(cfg.Server.Mode)
	}
	logger := d.Logger
	if logger == nil {
		logger = slog.Default()
	}

	r := gin.New()
	r.Use(gin.Recovery(), middleware.CORS(), middleware.Logging(logger, d.Metrics))

	r.GET("/healthz", health(d.Store))
	r.GET("/metrics", gin.WrapH(d.Metrics.Handler()))

	api := r.Group("/api")

	authHandler := handler.NewAuthHandler(d.Auth)
	api.POST("/auth/register", authHandler.Register)
	api.POST("/auth/login", authHandler.Login)

	notificationHandler := handler.NewNotificationHandler(d.Notifications, cfg.Push.VAPIDPublicKey)
	api.GET("/push/vapid-key", notificationHandler.VAPIDKey)

	protected := api.Group("")
	protected.Use(middleware.RequireAuth(d.JWT, d.Store))

	protected.GET("/auth/me", authHandler.Me)
	protected.PUT("/auth/me", authHandler.UpdateMe)

	householdHandler := handler.NewHouseholdHandler(d.Households)
	protected.POST("/households", householdHandler.Create)
	protected.POST("/households/join", householdHandler.Join)
	protected.POST("/households/leave", householdHandler.Leave)
	protected.GET("/households/current", householdHandler.Current)
	protected.POST("/households/current/code", householdHandler.RegenerateCode)
	protected.DELETE("/households/current/members/:userId", householdHandler.RemoveMember)

	choreHandler := handler.NewChoreHandler(d.Chores)
	protected.GET("/chores", choreHandler.List)
	protected.POST("/chores", choreHandler.Create)
	protected.GET("/chores/:id", choreHandler.Get)
	protected.PUT("/chores/:id", choreHandler.Update)
	protected.DELETE("/chores/:id", choreHandler.Delete)
	protected.POST("/chores/:id/complete", choreHandler.Complete)

	expenseHandler := handler.NewExpenseHandler(d.Expenses)
	protected.GET("/expenses", expenseHandler.List)
	protected.POST("/expenses", expenseHandler.Create)
	protected.GET("/expenses/recurring", expenseHandler.ListRecurring)
	protected.GET("/expenses/balances", expenseHandler.Balances)
	protected.GET("/expenses/export", expenseHandler.Export)
	protected.GET("/expenses/:id", expenseHandler.Get)
	protected.PUT("/expenses/:id", expenseHandler.Update)
	protected.DELETE("/expenses/:id", expenseHandler.Delete)
	protected.POST("/expenses/:id/pay", expenseHandler.MarkPaid)
	protected.POST("/expenses/:id/recurring", expenseHandler.SetRecurring)

	protected.GET("/notifications", notificationHandler.List)
	protected.POST("/notifications/read-all", notificationHandler.MarkAllRead)
	protected.POST("/notifications/:id/read", notificationHandler.MarkRead)
	protected.DELETE("/notifications/:id", notificationHandler.Delete)
	protected.POST("/push/subscriptions", notificationHandler.Subscribe)
	protected.DELETE("/push/subscriptions", notificationHandler.Unsubscribe)

	return r
}

func health(store storage.Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		if p, ok := store.(pinger); ok {
			ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
			defer cancel()
			if err := p.Ping(ctx); err != nil {
				c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable", "error": err.Error()})
				return
			}
		}
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	}
}
