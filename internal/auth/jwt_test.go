package auth

import (
	"errors"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/go-cmp/cmp"

	"github.com/mmynk/homebase/internal/apperr"
	"github.com/mmynk/homebase/internal/models"
)

func TestJWTManager(t *testing.T) {
	user := &models.User{ID: "user-1", Email: "alice@example.com", HouseholdID: "house-1", Role: models.RoleAdmin}

	tests := []struct {
		name      string
		signer    *JWTManager
		validator *JWTManager
		token     string
		wantErr   bool
	}{
		{
			name:      "round trip",
			signer:    NewJWTManager("secret", time.Hour),
			validator: NewJWTManager("secret", time.Hour),
		},
		{
			name:      "wrong secret",
			signer:    NewJWTManager("secret", time.Hour),
			validator: NewJWTManager("other", time.Hour),
			wantErr:   true,
		},
		{
			name:      "expired",
			signer:    NewJWTManager("secret", -time.Minute),
			validator: NewJWTManager("secret", time.Hour),
			wantErr:   true,
		},
		{
			name:      "foreign issuer",
			validator: NewJWTManager("secret", time.Hour),
			token:     foreignToken(t, "secret"),
			wantErr:   true,
		},
		{
			name:      "unsigned",
			validator: NewJWTManager("secret", time.Hour),
			token:     unsignedToken(t),
			wantErr:   true,
		},
		{
			name:      "garbage",
			validator: NewJWTManager("secret", time.Hour),
			token:     "not-a-jwt",
			wantErr:   true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			token := tt.token
			if tt.signer != nil {
				var err error
				token, err = tt.signer.Generate(user)
				if err != nil {
					t.Fatalf("Generate() error = %v", err)
				}
			}

			claims, err := tt.validator.Validate(token)
			if tt.wantErr {
				if !errors.Is(err, ErrInvalidToken) {
					t.Fatalf("Validate() error = %v, want ErrInvalidToken", err)
				}
				if apperr.KindOf(err) != apperr.KindUnauthenticated {
					t.Errorf("KindOf() = %v, want unauthenticated", apperr.KindOf(err))
				}
				return
			}
			if err != nil {
				t.Fatalf("Validate() error = %v", err)
			}
			if diff := cmp.Diff(IdentityOf(user), claims.Identity()); diff != "" {
				t.Errorf("claims identity mismatch (-want +got):\n%s", diff)
			}
			if claims.Issuer != tokenIssuer || claims.ID == "" {
				t.Errorf("issuer = %q, jti = %q", claims.Issuer, claims.ID)
			}
		})
	}
}

func foreignToken(t *testing.T, secret string) string {
	t.Helper()
	claims := jwt.RegisteredClaims{
		Issuer:    "someone-else",
		Subject:   "user-1",
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
	}
	s, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
	if err != nil {
		t.Fatal(err)
	}
	return s
}

func unsignedToken(t *testing.T) string {
	t.Helper()
	claims := jwt.RegisteredClaims{
		Issuer:    tokenIssuer,
		Subject:   "user-1",
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
	}
	s, err := jwt.NewWithClaims(jwt.SigningMethodNone, claims).SignedString(jwt.UnsafeAllowNoneSignatureType)
	if err != nil {
		t.Fatal(err)
	}
	return s
}
