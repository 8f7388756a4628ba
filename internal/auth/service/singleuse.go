package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/aussiebroadwan/claimdesk/internal/auth/domain"
	"github.com/aussiebroadwan/claimdesk/internal/auth/metrics"
	"github.com/aussiebroadwan/claimdesk/internal/auth/store"
	"github.com/aussiebroadwan/claimdesk/pkg/cryptox"
	"github.com/aussiebroadwan/claimdesk/pkg/idx"
	"github.com/aussiebroadwan/claimdesk/pkg/jwtx"
	"github.com/aussiebroadwan/claimdesk/pkg/slogx"
	"github.com/google/uuid"
)

const (
	resetDeviceName      = "Password Reset"
	invitationDeviceName = "Invitation"
)

// SingleUseService manages password reset and invitation tokens. An owner
// holds at most one of each; issuing a new one replaces the old one, and a
// token is deleted once consumed.
type SingleUseService struct {
	Store     store.Store
	Signer    jwtx.Signer
	Verifier  jwtx.Verifier
	Passwords *cryptox.PasswordHasher
	Issuer    string
	Policy    domain.Policy
	Metrics   *metrics.Metrics
	Clock     Clock
}

// IssueResetToken replaces any outstanding reset token of userID and
// returns the new bearer, a signed JWT.
func (s *SingleUseService) IssueResetToken(ctx context.Context, userID, ip string) (string, error) {
	if userID == "" {
		return "", ErrMissingUserID
	}

	now := s.Clock.now()
	ttl := s.Policy.TTL(domain.CredentialResetPassword)
	scopes := domain.ScopesFor(domain.CredentialResetPassword)

	handle, err := cryptox.GenerateToken(cryptox.TokenSize256)
	if err != nil {
		return "", err
	}
	bearer, err := s.Signer.Sign(jwtx.NewClaims(userID, string(domain.CredentialResetPassword), handle, nil, scopes, s.Issuer, ttl, now))
	if err != nil {
		return "", fmt.Errorf("sign reset token: %w", err)
	}

	cred := domain.Credential{
		ID:        idx.NewAt(now).String(),
		TokenHash: cryptox.FingerprintToken(handle),
		Type:      domain.CredentialResetPassword,
		OwnerID:   userID,
		Device:    domain.Device{Name: resetDeviceName, IP: ip},
		Scopes:    scopes,
		ExpiresAt: now.Add(ttl),
		CreatedAt: now,
	}
	replaced, err := s.replace(ctx, cred)
	if err != nil {
		return "", err
	}

	s.Metrics.CredentialIssued(string(domain.CredentialResetPassword))
	slogx.FromContext(ctx).Info("reset token issued",
		slog.String("user_id", userID),
		slog.String("credential_id", cred.ID),
		slog.Int64("replaced", replaced),
	)
	return bearer, nil
}

// ConsumeResetToken sets the owner's password to newPassword and deletes the
// token. Token failures all wrap ErrInvalidOrExpiredToken; an expired token
// is left in place.
func (s *SingleUseService) ConsumeResetToken(ctx context.Context, token, newPassword string) error {
	if err := validatePassword(newPassword); err != nil {
		return err
	}

	cred, err := s.lookup(ctx, s.Store.Credentials(), token, domain.CredentialResetPassword)
	if err != nil {
		return err
	}

	hash, err := s.Passwords.Hash(newPassword)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}

	err = s.Store.WithTx(ctx, func(tx store.Tx) error {
		if err := tx.Users().UpdatePasswordHash(ctx, cred.OwnerID, hash, s.Clock.now()); err != nil {
			if errors.Is(err, store.ErrNotFound) {
				return ErrUserNotFound
			}
			return fmt.Errorf("update password: %w", err)
		}

		// Zero rows deleted means a concurrent request consumed it first.
		if err := tx.Credentials().DeleteCredential(ctx, cred.ID); err != nil {
			if errors.Is(err, store.ErrNotFound) {
				return ErrTokenNotFound
			}
			return fmt.Errorf("delete reset token: %w", err)
		}
		return nil
	})
	if err != nil {
		return err
	}

	s.Metrics.SingleUseConsumed(string(domain.CredentialResetPassword))
	slogx.FromContext(ctx).Info("password reset",
		slog.String("user_id", cred.OwnerID),
		slog.String("credential_id", cred.ID),
	)
	return nil
}

// IssueInvitationToken replaces any outstanding invitation sent by senderID
// and returns the new opaque token.
func (s *SingleUseService) IssueInvitationToken(ctx context.Context, email, ip, senderID, deviceName string) (string, error) {
	if senderID == "" {
		return "", ErrMissingUserID
	}
	email = domain.NormalizeEmail(email)
	if err := validateEmail(email); err != nil {
		return "", err
	}
	if deviceName == "" {
		deviceName = invitationDeviceName
	}

	now := s.Clock.now()
	token := uuid.NewString()

	cred := domain.Credential{
		ID:           idx.NewAt(now).String(),
		TokenHash:    cryptox.FingerprintToken(token),
		Type:         domain.CredentialInvitation,
		OwnerID:      senderID,
		Device:       domain.Device{Name: deviceName, IP: ip},
		InviteeEmail: email,
		Scopes:       domain.ScopesFor(domain.CredentialInvitation),
		ExpiresAt:    now.Add(s.Policy.TTL(domain.CredentialInvitation)),
		CreatedAt:    now,
	}
	replaced, err := s.replace(ctx, cred)
	if err != nil {
		return "", err
	}

	s.Metrics.CredentialIssued(string(domain.CredentialInvitation))
	slogx.FromContext(ctx).Info("invitation issued",
		slog.String("sender_id", senderID),
		slog.String("credential_id", cred.ID),
		slog.Int64("replaced", replaced),
	)
	return token, nil
}

// ConsumeInvitationToken checks token against email and deletes it.
func (s *SingleUseService) ConsumeInvitationToken(ctx context.Context, token, email string) (domain.Credential, error) {
	var cred domain.Credential
	err := s.Store.WithTx(ctx, func(tx store.Tx) error {
		var err error
		cred, err = s.consumeInvitation(ctx, tx, token, email)
		return err
	})
	return cred, err
}

// consumeInvitation runs inside the caller's transaction so that
// registration and consumption commit together.
func (s *SingleUseService) consumeInvitation(ctx context.Context, tx store.Store, token, email string) (domain.Credential, error) {
	cred, err := s.lookup(ctx, tx.Credentials(), token, domain.CredentialInvitation)
	if err != nil {
		return domain.Credential{}, err
	}
	if cred.InviteeEmail != domain.NormalizeEmail(email) {
		s.Metrics.SingleUseRejected("email_mismatch")
		return domain.Credential{}, ErrTokenMismatch
	}

	if err := tx.Credentials().DeleteCredential(ctx, cred.ID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return domain.Credential{}, ErrTokenNotFound
		}
		return domain.Credential{}, fmt.Errorf("delete invitation: %w", err)
	}

	s.Metrics.SingleUseConsumed(string(domain.CredentialInvitation))
	return cred, nil
}

// replace deletes the owner's credentials of cred.Type and inserts cred, all
// under the owner lock in one transaction. It returns how many were deleted.
func (s *SingleUseService) replace(ctx context.Context, cred domain.Credential) (int64, error) {
	var replaced int64
	err := s.Store.WithTx(ctx, func(tx store.Tx) error {
		creds := tx.Credentials()
		if err := creds.LockOwner(ctx, cred.OwnerID, cred.Type); err != nil {
			return fmt.Errorf("lock owner: %w", err)
		}

		var err error
		if replaced, err = creds.DeleteCredentialsByOwnerAndType(ctx, cred.OwnerID, cred.Type); err != nil {
			return fmt.Errorf("delete previous %s: %w", cred.Type, err)
		}
		if err := creds.CreateCredential(ctx, cred); err != nil {
			return fmt.Errorf("store %s: %w", cred.Type, err)
		}
		return nil
	})
	return replaced, err
}

// lookup resolves a presented single-use token to its stored credential.
// Reset bearers are JWTs carrying the handle as jti; their signature is
// checked but their own exp is not, since the stored expiry is
// authoritative. Anything that is not a JWT is treated as the handle.
func (s *SingleUseService) lookup(
	ctx context.Context,
	creds store.Credentials,
	token string,
	want domain.CredentialType,
) (domain.Credential, error) {
	handle, ok := s.handle(token)
	if !ok {
		s.Metrics.SingleUseRejected("not_found")
		return domain.Credential{}, ErrTokenNotFound
	}

	cred, err := creds.GetCredentialByTokenHash(ctx, cryptox.FingerprintToken(handle))
	switch {
	case errors.Is(err, store.ErrNotFound):
		s.Metrics.SingleUseRejected("not_found")
		return domain.Credential{}, ErrTokenNotFound
	case err != nil:
		return domain.Credential{}, fmt.Errorf("lookup token: %w", err)
	}

	if cred.Type != want {
		s.Metrics.SingleUseRejected("wrong_type")
		return domain.Credential{}, ErrTokenWrongType
	}
	if cred.IsExpired(s.Clock.now()) {
		s.Metrics.SingleUseRejected("expired")
		return domain.Credential{}, ErrTokenExpired
	}
	return cred, nil
}

func (s *SingleUseService) handle(token string) (string, bool) {
	token = strings.TrimSpace(token)
	if token == "" {
		return "", false
	}
	if strings.Count(token, ".") != 2 {
		return token, true
	}

	claims, err := s.Verifier.VerifySignature(token)
	if err != nil {
		return "", false
	}
	return claims.ID, true
}
