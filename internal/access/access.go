// Package access checks credentials and maps roles to permitted actions.
package access

import (
	"context"
	"errors"
	"fmt"

	"cybercase/internal/constants"
	"cybercase/internal/database"
	"cybercase/internal/logger"
	"cybercase/internal/security"
)

var (
	// ErrInvalidCredentials deliberately does not say whether the username exists.
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrWrongPassword      = errors.New("current password is incorrect")
	// ErrSessionRevoked means the account behind a token is gone or inactive.
	ErrSessionRevoked = errors.New("session revoked")
)

// Principal is the public view of an authenticated user.
type Principal struct {
	ID                 uint   `json:"id"`
	Username           string `json:"username"`
	FullName           string `json:"full_name"`
	Role               string `json:"role"`
	MustChangePassword bool   `json:"must_change_password"`
}

type Service struct {
	users    *database.UserRepo
	activity *database.ActivityRepo
}

func NewService() *Service {
	return &Service{
		users:    database.NewUserRepo(),
		activity: database.NewActivityRepo(),
	}
}

// Authenticate matches username exactly among active users and verifies the
// password hash. On success it stamps last_login and records LOGIN.
func (s *Service) Authenticate(ctx context.Context, username, password string) (*Principal, error) {
	user, err := s.users.FindActiveByUsername(ctx, username)
	if errors.Is(err, database.ErrUserNotFound) {
		security.BurnCompare(password)
		s.activity.Log(ctx, username, constants.ActionLoginFailed, "Login failed")
		return nil, ErrInvalidCredentials
	}
	if err != nil {
		return nil, fmt.Errorf("look up user: %w", err)
	}

	if err := security.CheckPassword(user.PasswordHash, password); err != nil {
		if !errors.Is(err, security.ErrPasswordMismatch) {
			logger.Auth.Error().Err(err).Str("username", username).Msg("stored password hash is unusable")
		}
		s.activity.Log(ctx, username, constants.ActionLoginFailed, "Login failed")
		return nil, ErrInvalidCredentials
	}

	if err := s.users.UpdateLastLogin(ctx, user.Username); err != nil {
		logger.Auth.Warn().Err(err).Str("username", user.Username).Msg("failed to update last login")
	}
	s.activity.Log(ctx, user.Username, constants.ActionLogin, "User logged in")

	return principalOf(user), nil
}

func principalOf(user *database.User) *Principal {
	return &Principal{
		ID:                 user.ID,
		Username:           user.Username,
		FullName:           user.FullName,
		Role:               user.Role,
		MustChangePassword: user.MustChangePassword,
	}
}

// Resolve reloads the user a session token was issued to. Role and the
// forced-reset flag come from the stored row, not from the token.
func (s *Service) Resolve(ctx context.Context, claimed Principal) (*Principal, error) {
	user, err := s.users.FindByID(ctx, claimed.ID)
	if errors.Is(err, database.ErrUserNotFound) {
		return nil, ErrSessionRevoked
	}
	if err != nil {
		return nil, fmt.Errorf("look up session user: %w", err)
	}
	if !user.IsActive || user.Username != claimed.Username {
		return nil, ErrSessionRevoked
	}
	return principalOf(user), nil
}

func (s *Service) Logout(ctx context.Context, username string) {
	s.activity.Log(ctx, username, constants.ActionLogout, "User logged out")
}

// ChangePassword verifies current before storing next and clears any forced reset.
func (s *Service) ChangePassword(ctx context.Context, userID uint, current, next string) error {
	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		return err
	}
	if err := security.CheckPassword(user.PasswordHash, current); err != nil {
		return ErrWrongPassword
	}
	if err := s.users.UpdatePassword(ctx, user.ID, next); err != nil {
		return err
	}
	s.activity.Log(ctx, user.Username, constants.ActionPasswordChange, "Password changed")
	return nil
}

// ResetPassword sets a password without the current one, for operator recovery.
func (s *Service) ResetPassword(ctx context.Context, username, password string) error {
	user, err := s.users.FindByUsername(ctx, username)
	if err != nil {
		return err
	}
	if err := s.users.UpdatePassword(ctx, user.ID, password); err != nil {
		return err
	}
	s.activity.Log(ctx, constants.SystemUser, constants.ActionPasswordReset, "Password reset for "+username)
	return nil
}
