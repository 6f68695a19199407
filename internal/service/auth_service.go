package service

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"github.com/mmynk/homebase/internal/apperr"
	"github.com/mmynk/homebase/internal/auth"
	"github.com/mmynk/homebase/internal/models"
	"github.com/mmynk/homebase/internal/storage"
)

// AuthService handles registration, login and profile changes.
type AuthService struct {
	base
	authenticator auth.Authenticator
	jwtManager    *auth.JWTManager
}

// NewAuthService creates a new authentication service.
func NewAuthService(store storage.Store, authenticator auth.Authenticator, jwtManager *auth.JWTManager, logger *slog.Logger, opts ...Option) *AuthService {
	return &AuthService{
		base:          newBase(store, logger, opts),
		authenticator: authenticator,
		jwtManager:    jwtManager,
	}
}

type RegisterInput struct {
	Email       string `json:"email" binding:"required,email"`
	DisplayName string `json:"display_name" binding:"required"`
	Password    string `json:"password" binding:"required"`
}

type LoginInput struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// AuthResult is returned by Register and Login.
type AuthResult struct {
	User  *models.User `json:"user"`
	Token string       `json:"token"`
}

// UpdateProfileInput changes profile fields. Nil fields are left unchanged.
// A new password requires the current one.
type UpdateProfileInput struct {
	DisplayName     *string `json:"display_name"`
	Email           *string `json:"email"`
	Password        *string `json:"password"`
	CurrentPassword string  `json:"current_password"`
	PushEnabled     *bool   `json:"push_enabled"`
}

// Register creates a new user account and issues a token.
func (s *AuthService) Register(ctx context.Context, in RegisterInput) (*AuthResult, error) {
	s.logger.Info("Register request", "email", in.Email)

	if !strings.Contains(in.Email, "@") {
		return nil, apperr.Validation("a valid email is required")
	}
	if strings.TrimSpace(in.DisplayName) == "" {
		return nil, apperr.Validation("display name is required")
	}

	user, err := s.authenticator.Register(ctx, in.Email, in.DisplayName, in.Password)
	if err != nil {
		s.logger.Warn("Registration failed", "email", in.Email, "error", err)
		return nil, passthrough(err, "registration failed")
	}
	return s.issue(user, "User registered successfully")
}

// Login authenticates a user and returns a JWT token.
func (s *AuthService) Login(ctx context.Context, in LoginInput) (*AuthResult, error) {
	s.logger.Info("Login request", "email", in.Email)

	if in.Email == "" || in.Password == "" {
		return nil, auth.ErrInvalidCredentials
	}

	user, err := s.authenticator.Authenticate(ctx, in.Email, in.Password)
	if err != nil {
		s.logger.Warn("Login failed", "email", in.Email, "error", err)
		return nil, passthrough(err, "login failed")
	}
	return s.issue(user, "User logged in successfully")
}

func (s *AuthService) issue(user *models.User, msg string) (*AuthResult, error) {
	token, err := s.jwtManager.Generate(user)
	if err != nil {
		s.logger.Error("Failed to generate token", "user_id", user.ID, "error", err)
		return nil, apperr.Unexpected("failed to issue token", err)
	}
	s.logger.Info(msg, "user_id", user.ID, "email", user.Email)
	return &AuthResult{User: user, Token: token}, nil
}

// Me returns the current user document.
func (s *AuthService) Me(ctx context.Context, id auth.Identity) (*models.User, error) {
	user, err := s.store.GetUserByID(ctx, id.UserID)
	if err != nil {
		return nil, s.storeErr(err, "user")
	}
	return user, nil
}

// UpdateProfile applies profile changes. Passwords are re-hashed here,
// explicitly, before the user document is written.
func (s *AuthService) UpdateProfile(ctx context.Context, id auth.Identity, in UpdateProfileInput) (*models.User, error) {
	user, err := s.store.GetUserByID(ctx, id.UserID)
	if err != nil {
		return nil, s.storeErr(err, "user")
	}
	currentEmail := user.Email

	if in.DisplayName != nil {
		name := strings.TrimSpace(*in.DisplayName)
		if name == "" {
			return nil, apperr.Validation("display name cannot be empty")
		}
		user.DisplayName = name
	}
	if in.Email != nil {
		email := auth.NormalizeEmail(*in.Email)
		if !strings.Contains(email, "@") {
			return nil, apperr.Validation("a valid email is required")
		}
		user.Email = email
	}
	if in.Password != nil {
		if _, err := s.authenticator.Authenticate(ctx, currentEmail, in.CurrentPassword); err != nil {
			return nil, apperr.Validation("current password is incorrect")
		}
		hashed, err := s.authenticator.HashCredential(*in.Password)
		if err != nil {
			return nil, passthrough(err, "failed to update password")
		}
		user.PasswordHash = hashed
	}
	if in.PushEnabled != nil {
		user.Preferences.Push = *in.PushEnabled
	}

	if err := s.store.UpdateUser(ctx, user); err != nil {
		if errors.Is(err, storage.ErrDuplicate) {
			return nil, auth.ErrEmailExists
		}
		return nil, s.storeErr(err, "user")
	}
	s.logger.Info("Profile updated", "user_id", user.ID)
	return user, nil
}

// passthrough keeps classified errors and wraps everything else as unexpected.
func passthrough(err error, msg string) error {
	var appErr *apperr.Error
	if errors.As(err, &appErr) {
		return err
	}
	return apperr.Unexpected(msg, err)
}
