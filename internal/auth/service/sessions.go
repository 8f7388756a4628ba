package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"

	"github.com/aussiebroadwan/claimdesk/internal/auth/domain"
	"github.com/aussiebroadwan/claimdesk/internal/auth/metrics"
	"github.com/aussiebroadwan/claimdesk/internal/auth/store"
	"github.com/aussiebroadwan/claimdesk/pkg/cryptox"
	"github.com/aussiebroadwan/claimdesk/pkg/jwtx"
	"github.com/aussiebroadwan/claimdesk/pkg/slogx"
)

// SessionService exposes a user's credentials as sessions.
type SessionService struct {
	Store   store.Store
	Metrics *metrics.Metrics
	Clock   Clock
}

// ListSessions returns every credential owned by targetUserID. Requesters may
// list their own sessions; admins may list anyone's.
func (s *SessionService) ListSessions(
	ctx context.Context,
	requesterID, targetUserID string,
	requesterRoles []string,
) ([]domain.Credential, error) {
	if requesterID == "" {
		return nil, ErrMissingUserID
	}
	if targetUserID == "" {
		targetUserID = requesterID
	}
	if !canManage(requesterID, targetUserID, requesterRoles) {
		return nil, ErrForbidden
	}

	creds, err := s.Store.Credentials().ListCredentialsByOwner(ctx, targetUserID)
	if err != nil {
		return nil, fmt.Errorf("list credentials: %w", err)
	}
	return creds, nil
}

// RevokeSession revokes an access or refresh credential. The same ownership
// rule as ListSessions applies.
func (s *SessionService) RevokeSession(
	ctx context.Context,
	requesterID string,
	requesterRoles []string,
	credentialID string,
) error {
	if requesterID == "" {
		return ErrMissingUserID
	}

	cred, err := s.Store.Credentials().GetCredentialByID(ctx, credentialID)
	switch {
	case errors.Is(err, store.ErrNotFound):
		return ErrCredentialNotFound
	case err != nil:
		return fmt.Errorf("get credential: %w", err)
	}

	if !canManage(requesterID, cred.OwnerID, requesterRoles) {
		return ErrForbidden
	}
	if cred.Type.SingleUse() {
		return ErrCredentialNotRevocable
	}

	return s.revoke(ctx, cred, requesterID)
}

// RevokeBearer revokes the access credential identified by already verified
// claims. It backs logout.
func (s *SessionService) RevokeBearer(ctx context.Context, claims jwtx.Claims) error {
	if claims.Subject == "" {
		return ErrMissingUserID
	}

	cred, err := s.Store.Credentials().GetCredentialByTokenHash(ctx, cryptox.FingerprintToken(claims.ID))
	switch {
	case errors.Is(err, store.ErrNotFound):
		return ErrCredentialRevoked
	case err != nil:
		return fmt.Errorf("lookup credential: %w", err)
	}
	if cred.OwnerID != claims.Subject || cred.Type.SingleUse() {
		return ErrCredentialInvalid
	}

	return s.revoke(ctx, cred, claims.Subject)
}

func (s *SessionService) revoke(ctx context.Context, cred domain.Credential, requesterID string) error {
	if err := s.Store.Credentials().RevokeCredential(ctx, cred.ID, s.Clock.now()); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return ErrCredentialNotFound
		}
		return fmt.Errorf("revoke credential: %w", err)
	}

	s.Metrics.SessionRevoked()
	slogx.FromContext(ctx).Info("session revoked",
		slog.String("credential_id", cred.ID),
		slog.String("owner_id", cred.OwnerID),
		slog.String("requester_id", requesterID),
	)
	return nil
}

func canManage(requesterID, ownerID string, roles []string) bool {
	return requesterID == ownerID || slices.Contains(roles, domain.RoleAdmin)
}
