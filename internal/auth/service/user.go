package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/mail"
	"unicode/utf8"

	"github.com/aussiebroadwan/claimdesk/internal/auth/domain"
	"github.com/aussiebroadwan/claimdesk/internal/auth/store"
	"github.com/aussiebroadwan/claimdesk/pkg/cryptox"
	"github.com/aussiebroadwan/claimdesk/pkg/idx"
	"github.com/aussiebroadwan/claimdesk/pkg/slogx"
)

const (
	MinPasswordLength = 8
	MaxPasswordLength = 256
)

type UserService struct {
	Store       store.Store
	Passwords   *cryptox.PasswordHasher
	Invitations *SingleUseService
	Clock       Clock
}

// Register creates a user. A valid invitation token makes the user staff
// and is consumed in the same transaction; without one the user is a
// client.
func (s *UserService) Register(ctx context.Context, email, password, invitationToken string) (domain.User, error) {
	email = domain.NormalizeEmail(email)
	if err := validateEmail(email); err != nil {
		return domain.User{}, err
	}
	if err := validatePassword(password); err != nil {
		return domain.User{}, err
	}

	hash, err := s.Passwords.Hash(password)
	if err != nil {
		return domain.User{}, fmt.Errorf("hash password: %w", err)
	}

	now := s.Clock.now()
	user := domain.User{
		ID:           idx.NewAt(now).String(),
		Email:        email,
		PasswordHash: hash,
		Roles:        []string{domain.RoleClient},
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	var invitedBy string
	err = s.Store.WithTx(ctx, func(tx store.Tx) error {
		if invitationToken != "" {
			if s.Invitations == nil {
				return ErrTokenNotFound
			}
			inv, err := s.Invitations.consumeInvitation(ctx, tx, invitationToken, email)
			if err != nil {
				return err
			}
			user.Roles = []string{domain.RoleStaff}
			invitedBy = inv.OwnerID
		}

		if err := tx.Users().CreateUser(ctx, user); err != nil {
			if errors.Is(err, store.ErrAlreadyExists) {
				return ErrEmailTaken
			}
			return fmt.Errorf("create user: %w", err)
		}
		return nil
	})
	if err != nil {
		return domain.User{}, err
	}

	attrs := []any{slog.String("user_id", user.ID), slog.Any("roles", user.Roles)}
	if invitedBy != "" {
		attrs = append(attrs, slog.String("invited_by", invitedBy))
	}
	slogx.FromContext(ctx).Info("user registered", attrs...)
	return user, nil
}

// EnsureAdmin creates an admin account for email unless the email is
// already registered, in which case the existing user is returned untouched.
// The boolean reports whether a user was created.
func (s *UserService) EnsureAdmin(ctx context.Context, email, password string) (domain.User, bool, error) {
	email = domain.NormalizeEmail(email)
	existing, err := s.Store.Users().GetUserByEmail(ctx, email)
	switch {
	case err == nil:
		return existing, false, nil
	case !errors.Is(err, store.ErrNotFound):
		return domain.User{}, false, fmt.Errorf("get user: %w", err)
	}

	if err := validateEmail(email); err != nil {
		return domain.User{}, false, err
	}
	if err := validatePassword(password); err != nil {
		return domain.User{}, false, err
	}
	hash, err := s.Passwords.Hash(password)
	if err != nil {
		return domain.User{}, false, fmt.Errorf("hash password: %w", err)
	}

	now := s.Clock.now()
	user := domain.User{
		ID:           idx.NewAt(now).String(),
		Email:        email,
		PasswordHash: hash,
		Roles:        []string{domain.RoleAdmin},
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.Store.Users().CreateUser(ctx, user); err != nil {
		if errors.Is(err, store.ErrAlreadyExists) {
			// Lost a race with another instance bootstrapping the same admin.
			existing, err := s.Store.Users().GetUserByEmail(ctx, email)
			return existing, false, mapUserErr(err)
		}
		return domain.User{}, false, fmt.Errorf("create admin: %w", err)
	}

	slogx.FromContext(ctx).Info("admin user created", slog.String("user_id", user.ID))
	return user, true, nil
}

// Authenticate checks an email and password pair and records the login.
// Unknown emails and wrong passwords both yield ErrInvalidCredentials.
func (s *UserService) Authenticate(ctx context.Context, email, password string) (domain.User, error) {
	user, err := s.Store.Users().GetUserByEmail(ctx, domain.NormalizeEmail(email))
	switch {
	case errors.Is(err, store.ErrNotFound):
		return domain.User{}, ErrInvalidCredentials
	case err != nil:
		return domain.User{}, fmt.Errorf("get user: %w", err)
	}

	if err := s.Passwords.Verify(password, user.PasswordHash); err != nil {
		if errors.Is(err, cryptox.ErrPasswordMismatch) {
			return domain.User{}, ErrInvalidCredentials
		}
		return domain.User{}, fmt.Errorf("verify password: %w", err)
	}

	now := s.Clock.now()
	if err := s.Store.Users().UpdateLastLogin(ctx, user.ID, now); err != nil {
		return domain.User{}, fmt.Errorf("record login: %w", err)
	}
	user.LastLoginAt = &now
	return user, nil
}

// GetUserByID fetches a user by id.
func (s *UserService) GetUserByID(ctx context.Context, userID string) (domain.User, error) {
	if userID == "" {
		return domain.User{}, ErrMissingUserID
	}
	user, err := s.Store.Users().GetUserByID(ctx, userID)
	return user, mapUserErr(err)
}

func (s *UserService) GetUserByEmail(ctx context.Context, email string) (domain.User, error) {
	user, err := s.Store.Users().GetUserByEmail(ctx, domain.NormalizeEmail(email))
	return user, mapUserErr(err)
}

// SetPassword replaces the password of userID.
func (s *UserService) SetPassword(ctx context.Context, userID, password string) error {
	if userID == "" {
		return ErrMissingUserID
	}
	if err := validatePassword(password); err != nil {
		return err
	}

	hash, err := s.Passwords.Hash(password)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}
	return mapUserErr(s.Store.Users().UpdatePasswordHash(ctx, userID, hash, s.Clock.now()))
}

func mapUserErr(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, store.ErrNotFound):
		return ErrUserNotFound
	default:
		return fmt.Errorf("users: %w", err)
	}
}

func validateEmail(email string) error {
	if email == "" {
		return fmt.Errorf("%w: email is required", ErrInvalidInput)
	}
	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != email {
		return fmt.Errorf("%w: malformed email", ErrInvalidInput)
	}
	return nil
}

func validatePassword(password string) error {
	n := utf8.RuneCountInString(password)
	if n < MinPasswordLength {
		return fmt.Errorf("%w: password must be at least %d characters", ErrInvalidInput, MinPasswordLength)
	}
	if n > MaxPasswordLength {
		return fmt.Errorf("%w: password must be at most %d characters", ErrInvalidInput, MaxPasswordLength)
	}
	return nil
}
