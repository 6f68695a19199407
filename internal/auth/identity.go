package auth

import (
	"context"

	"github.com/mmynk/homebase/internal/models"
)

// Identity is the authenticated caller as seen by the service layer.
type Identity struct {
	UserID      string
	Email       string
	HouseholdID string
	Role        models.Role
}

// IdentityOf builds an Identity from the stored user.
func IdentityOf(user *models.User) Identity {
	return Identity{
		UserID:      user.ID,
		Email:       user.Email,
		HouseholdID: user.HouseholdID,
		Role:        user.Role,
	}
}

func (i Identity) InHousehold() bool {
	return i.HouseholdID != ""
}

func (i Identity) IsAdmin() bool {
	return i.InHousehold() && i.Role == models.RoleAdmin
}

type identityKey struct{}

// WithIdentity returns a copy of ctx carrying id.
func WithIdentity(ctx context.Context, id Identity) context.Context {
	return context.WithValue(ctx, identityKey{}, id)
}

// IdentityFrom extracts the caller's identity from ctx.
func IdentityFrom(ctx context.Context) (Identity, bool) {
	id, ok := ctx.Value(identityKey{}).(Identity)
	return id, ok
}
