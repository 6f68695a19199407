package router

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/mmynk/homebase/internal/auth"
	"github.com/mmynk/homebase/internal/config"
	"github.com/mmynk/homebase/internal/metrics"
	"github.com/mmynk/homebase/internal/models"
	"github.com/mmynk/homebase/internal/notify"
	"github.com/mmynk/homebase/internal/service"
	"github.com/mmynk/homebase/internal/storage/sqlite"
)

type testServer struct {
	t      *testing.T
	engine *gin.Engine
}

func newTestServer(t *testing.T, vapidKey string) *testServer {
	t.Helper()
	store, err := sqlite.New(filepath.Join(t.TempDir(), "router.db"))
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	m := metrics.New()
	opts := []service.Option{service.WithNotifier(notify.NewDispatcher(store, nil, m, logger))}
	jwtManager := auth.NewJWTManager("router-secret", time.Hour)
	authenticator := auth.NewPasswordAuthenticator(store).WithCost(bcrypt.MinCost)

	cfg := &config.Config{
		Server: config.ServerConfig{Mode: gin.TestMode},
		Push:   config.PushConfig{VAPIDPublicKey: vapidKey},
	}
	engine := SetupRouter(cfg, Deps{
		Store:         store,
		JWT:           jwtManager,
		Auth:          service.NewAuthService(store, authenticator, jwtManager, logger, opts...),
		Households:    service.NewHouseholdService(store, logger, opts...),
		Chores:        service.NewChoreService(store, logger, opts...),
		Expenses:      service.NewExpenseService(store, logger, opts...),
		Notifications: service.NewNotificationService(store, logger, opts...),
		Metrics:       m,
		Logger:        logger,
	})
	return &testServer{t: t, engine: engine}
}

func (s *testServer) do(method, path, token string, body any) *httptest.ResponseRecorder {
	s.t.Helper()
	var r io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		require.NoError(s.t, err)
		r = bytes.NewReader(b)
	}
	req := httptest.NewRequest(method, path, r)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	s.engine.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), rec.Body.String())
	return v
}

func (s *testServer) register(name string) (token, userID string) {
	s.t.Helper()
	rec := s.do(http.MethodPost, "/api/auth/register", "", map[string]string{
		"email":        strings.ToLower(name) + "@example.com",
		"display_name": name,
		"password":     "password123",
	})
	require.Equal(s.t, http.StatusCreated, rec.Code, rec.Body.String())
	res := decode[service.AuthResult](s.t, rec)
	return res.Token, res.User.ID
}

type errorResponse struct {
	Error struct {
		Code    string `json:"code"`
		Message string `json:"message"`
		Detail  string `json:"detail"`
	} `json:"error"`
}

func TestAuthRoutes(t *testing.T) {
	s := newTestServer(t, "")
	token, userID := s.register("Alice")

	rec := s.do(http.MethodPost, "/api/auth/register", "", map[string]string{
		"email": "alice@example.com", "display_name": "Again", "password": "password123",
	})
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = s.do(http.MethodPost, "/api/auth/register", "", map[string]string{"email": "not-an-email"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "validation", decode[errorResponse](t, rec).Error.Code)

	rec = s.do(http.MethodPost, "/api/auth/login", "", map[string]string{"email": "alice@example.com", "password": "wrong-one"})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = s.do(http.MethodPost, "/api/auth/login", "", map[string]string{"email": "alice@example.com", "password": "password123"})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.NotEmpty(t, decode[service.AuthResult](t, rec).Token)

	tests := []struct {
		name  string
		token string
		want  int
	}{
		{"missing token", "", http.StatusUnauthorized},
		{"garbage token", "not.a.jwt", http.StatusUnauthorized},
		{"valid token", token, http.StatusOK},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := s.do(http.MethodGet, "/api/auth/me", tt.token, nil)
			assert.Equal(t, tt.want, rec.Code)
		})
	}

	rec = s.do(http.MethodPut, "/api/auth/me", token, map[string]any{"display_name": "Alice B", "push_enabled": false})
	require.Equal(t, http.StatusOK, rec.Code)
	me := decode[models.User](t, rec)
	assert.Equal(t, userID, me.ID)
	assert.Equal(t, "Alice B", me.DisplayName)
	assert.False(t, me.Preferences.Push)
	assert.NotContains(t, rec.Body.String(), "password")
}

func TestExpenseFlow(t *testing.T) {
	s := newTestServer(t, "")
	aliceToken, aliceID := s.register("Alice")
	bobToken, bobID := s.register("Bob")
	malloryToken, _ := s.register("Mallory")

	rec := s.do(http.MethodPost, "/api/households", aliceToken, map[string]string{"name": "Maple Street"})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	view := decode[service.HouseholdView](t, rec)

	rec = s.do(http.MethodPost, "/api/households/join", bobToken, map[string]string{"join_code": view.Household.JoinCode})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = s.do(http.MethodGet, "/api/expenses", malloryToken, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code, "no household yet")

	rec = s.do(http.MethodPost, "/api/expenses", aliceToken, map[string]any{
		"title": "Rent", "amount": 1000, "category": "rent",
		"splits": []map[string]any{{"user_id": aliceID, "amount": 500}, {"user_id": bobID, "amount": 500}},
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	rent := decode[models.Expense](t, rec)
	assert.Equal(t, models.StatusPending, rent.Status)

	rec = s.do(http.MethodPost, "/api/expenses/"+rent.ID+"/pay", aliceToken, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, models.StatusPartiallyPaid, decode[models.Expense](t, rec).Status)

	rec = s.do(http.MethodPost, "/api/expenses/"+rent.ID+"/pay", bobToken, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, models.StatusPaid, decode[models.Expense](t, rec).Status)

	rec = s.do(http.MethodPut, "/api/expenses/"+rent.ID, bobToken, map[string]any{"title": "Mine now"})
	assert.Equal(t, http.StatusForbidden, rec.Code)
	rec = s.do(http.MethodDelete, "/api/expenses/"+rent.ID, bobToken, nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = s.do(http.MethodPost, "/api/households", malloryToken, map[string]string{"name": "Elsewhere"})
	require.Equal(t, http.StatusCreated, rec.Code)
	rec = s.do(http.MethodGet, "/api/expenses/"+rent.ID, malloryToken, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = s.do(http.MethodPost, "/api/expenses/"+rent.ID+"/recurring", aliceToken, map[string]any{"is_recurring": true, "frequency": "monthly"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	rec = s.do(http.MethodGet, "/api/expenses/recurring", bobToken, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decode[[]models.Expense](t, rec), 1)

	rec = s.do(http.MethodGet, "/api/expenses?status=paid", bobToken, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decode[[]models.Expense](t, rec), 1)

	rec = s.do(http.MethodGet, "/api/expenses/balances", bobToken, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, decode[service.Balances](t, rec).Debts)

	rec = s.do(http.MethodGet, "/api/expenses/export?format=csv", bobToken, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "text/csv; charset=utf-8", rec.Header().Get("Content-Type"))
	assert.Contains(t, rec.Header().Get("Content-Disposition"), "attachment; filename=\"expenses_")
	assert.Contains(t, rec.Body.String(), "Rent")

	rec = s.do(http.MethodGet, "/api/expenses/export?format=pdf", bobToken, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = s.do(http.MethodDelete, "/api/expenses/"+rent.ID, aliceToken, nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)
}

func TestChoreAndNotificationFlow(t *testing.T) {
	s := newTestServer(t, "")
	aliceToken, _ := s.register("Alice")
	bobToken, bobID := s.register("Bob")

	rec := s.do(http.MethodPost, "/api/households", aliceToken, map[string]string{"name": "Flat"})
	require.Equal(t, http.StatusCreated, rec.Code)
	code := decode[service.HouseholdView](t, rec).Household.JoinCode
	require.Equal(t, http.StatusOK, s.do(http.MethodPost, "/api/households/join", bobToken, map[string]string{"join_code": code}).Code)

	past := time.Now().Add(-time.Hour).UTC().Format(time.RFC3339)
	rec = s.do(http.MethodPost, "/api/chores", aliceToken, map[string]any{"title": "Dishes", "due_date": past})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = s.do(http.MethodPost, "/api/chores", aliceToken, map[string]any{"title": "Dishes", "assigned_to": []string{bobID}})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	chore := decode[models.Chore](t, rec)

	rec = s.do(http.MethodGet, "/api/chores?assigned_to=me", bobToken, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decode[[]models.Chore](t, rec), 1)

	rec = s.do(http.MethodPost, "/api/chores/"+chore.ID+"/complete", bobToken, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	rec = s.do(http.MethodPost, "/api/chores/"+chore.ID+"/complete", bobToken, nil)
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = s.do(http.MethodGet, "/api/notifications?unread=true", bobToken, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	inbox := decode[[]models.Notification](t, rec)
	require.Len(t, inbox, 1)
	assert.Equal(t, models.NotifyChoreAssigned, inbox[0].Type)

	rec = s.do(http.MethodPost, "/api/notifications/"+inbox[0].ID+"/read", aliceToken, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	rec = s.do(http.MethodPost, "/api/notifications/"+inbox[0].ID+"/read", bobToken, nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec = s.do(http.MethodPost, "/api/notifications/read-all", aliceToken, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"updated":`)

	rec = s.do(http.MethodDelete, "/api/notifications/"+inbox[0].ID, bobToken, nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec = s.do(http.MethodGet, "/api/notifications?limit=abc", bobToken, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestPushRoutes(t *testing.T) {
	s := newTestServer(t, "")
	rec := s.do(http.MethodGet, "/api/push/vapid-key", "", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	s = newTestServer(t, "BPublicKey")
	rec = s.do(http.MethodGet, "/api/push/vapid-key", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"public_key":"BPublicKey"}`, rec.Body.String())

	token, _ := s.register("Alice")
	sub := map[string]any{
		"endpoint": "https://push.example.com/send/abc",
		"keys":     map[string]string{"p256dh": "p256", "auth": "secret"},
	}
	rec = s.do(http.MethodPost, "/api/push/subscriptions", token, sub)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	rec = s.do(http.MethodDelete, "/api/push/subscriptions?endpoint=https://push.example.com/send/abc", token, nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)
	rec = s.do(http.MethodDelete, "/api/push/subscriptions", token, map[string]string{"endpoint": "https://push.example.com/send/abc"})
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestHealthAndMetrics(t *testing.T) {
	s := newTestServer(t, "")
	rec := s.do(http.MethodGet, "/healthz", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())

	rec = s.do(http.MethodOptions, "/api/expenses", "", nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))

	rec = s.do(http.MethodGet, "/metrics", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `homebase_http_requests_total{method="GET",route="/healthz",status="200"} 1`)
}
