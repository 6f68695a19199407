package middleware

import (
	"context"
	"errors"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/mmynk/homebase/internal/apperr"
	"github.com/mmynk/homebase/internal/auth"
	"github.com/mmynk/homebase/internal/models"
	"github.com/mmynk/homebase/internal/respond"
	"github.com/mmynk/homebase/internal/storage"
)

// identityKey is the gin context key for the authenticated identity.
const identityKey = "identity"

// UserLookup loads the user a token was issued to.
type UserLookup interface {
	GetUserByID(ctx context.Context, id string) (*models.User, error)
}

// GetIdentity returns the identity set by RequireAuth.
func GetIdentity(c *gin.Context) (auth.Identity, bool) {
	v, ok := c.Get(identityKey)
	if !ok {
		return auth.Identity{}, false
	}
	id, ok := v.(auth.Identity)
	return id, ok
}

// RequireAuth validates the bearer token and resolves the caller. The user is
// loaded on every request so household membership and role are current.
func RequireAuth(jwtManager *auth.JWTManager, users UserLookup) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			respond.Error(c, auth.ErrMissingToken)
			return
		}

		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
			respond.Error(c, auth.ErrInvalidToken)
			return
		}

		claims, err := jwtManager.Validate(strings.TrimSpace(parts[1]))
		if err != nil {
			respond.Error(c, err)
			return
		}

		user, err := users.GetUserByID(c.Request.Context(), claims.UserID())
		if errors.Is(err, storage.ErrNotFound) {
			// Token for a user that no longer exists.
			respond.Error(c, auth.ErrInvalidToken)
			return
		}
		if err != nil {
			respond.Error(c, apperr.Unexpected("failed to load user", err))
			return
		}

		id := auth.IdentityOf(user)
		c.Set(identityKey, id)
		c.Request = c.Request.WithContext(auth.WithIdentity(c.Request.Context(), id))
		c.Next()
	}
}
