package auth

import (
	"context"

	"github.com/mmynk/homebase/internal/models"
)

// Credentials checks and stores a raw credential. Profile updates use it to
// change a password without going through Register.
type Credentials interface {
	ValidateCredential(credential string) error
	HashCredential(credential string) (string, error)
}

// Authenticator creates HomeBase accounts and checks sign-ins.
// Register and Authenticate normalize the email before any lookup.
type Authenticator interface {
	Credentials

	// Register creates an account outside any household.
	Register(ctx context.Context, email, displayName, credential string) (*models.User, error)

	// Authenticate returns ErrInvalidCredentials for an unknown email or a
	// wrong credential alike.
	Authenticate(ctx context.Context, email, credential string) (*models.User, error)
}

var _ Authenticator = (*PasswordAuthenticator)(nil)
