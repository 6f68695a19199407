package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mmynk/homebase/internal/auth"
	"github.com/mmynk/homebase/internal/models"
	"github.com/mmynk/homebase/internal/storage"
)

type fakeUsers map[string]*models.User

func (f fakeUsers) GetUserByID(_ context.Context, id string) (*models.User, error) {
	if id == "broken" {
		return nil, errors.New("connection reset")
	}
	if u, ok := f[id]; ok {
		return u, nil
	}
	return nil, storage.ErrNotFound
}

func TestRequireAuth(t *testing.T) {
	gin.SetMode(gin.TestMode)
	jwtManager := auth.NewJWTManager("middleware-secret", time.Hour)
	users := fakeUsers{
		"u1": {ID: "u1", Email: "a@example.com", HouseholdID: "h1", Role: models.RoleAdmin},
	}
	token := func(id string) string {
		tok, err := jwtManager.Generate(&models.User{ID: id, Email: id + "@example.com"})
		require.NoError(t, err)
		return tok
	}

	r := gin.New()
	r.Use(RequireAuth(jwtManager, users))
	r.GET("/whoami", func(c *gin.Context) {
		fromGin, ok := GetIdentity(c)
		require.True(t, ok)
		fromCtx, ok := auth.IdentityFrom(c.Request.Context())
		require.True(t, ok)
		assert.Equal(t, fromGin, fromCtx)
		c.JSON(http.StatusOK, gin.H{"household": fromCtx.HouseholdID, "admin": fromCtx.IsAdmin()})
	})

	tests := []struct {
		name   string
		header string
		want   int
	}{
		{"no header", "", http.StatusUnauthorized},
		{"wrong scheme", "Basic " + token("u1"), http.StatusUnauthorized},
		{"bad token", "Bearer nope", http.StatusUnauthorized},
		{"deleted user", "Bearer " + token("gone"), http.StatusUnauthorized},
		{"store failure", "Bearer " + token("broken"), http.StatusInternalServerError},
		{"valid", "Bearer " + token("u1"), http.StatusOK},
		{"lowercase scheme", "bearer " + token("u1"), http.StatusOK},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/whoami", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			rec := httptest.NewRecorder()
			r.ServeHTTP(rec, req)
			assert.Equal(t, tt.want, rec.Code, rec.Body.String())
			if tt.want == http.StatusOK {
				assert.JSONEq(t, `{"household":"h1","admin":true}`, rec.Body.String())
			}
		})
	}
}
