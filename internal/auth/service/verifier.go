package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/aussiebroadwan/claimdesk/internal/auth/domain"
	"github.com/aussiebroadwan/claimdesk/internal/auth/metrics"
	"github.com/aussiebroadwan/claimdesk/internal/auth/store"
	"github.com/aussiebroadwan/claimdesk/pkg/cryptox"
	"github.com/aussiebroadwan/claimdesk/pkg/jwtx"
	"github.com/aussiebroadwan/claimdesk/pkg/slogx"
)

// VerifierService decides whether a presented bearer may be trusted. It
// checks the signature and validity window first, then the stored
// credential, on every call.
type VerifierService struct {
	Store    store.Store
	Verifier jwtx.Verifier
	Metrics  *metrics.Metrics
	Clock    Clock
}

// Verify accepts only access bearers. Failures are ErrCredentialInvalid,
// ErrCredentialExpired or ErrCredentialRevoked; any other error means the
// store could not be consulted.
func (s *VerifierService) Verify(ctx context.Context, bearer string) (jwtx.Claims, error) {
	claims, _, err := s.verify(ctx, bearer, domain.CredentialAccess)
	return claims, err
}

// VerifyRefresh accepts only refresh bearers and also returns the stored
// credential, whose device the refreshed pair inherits.
func (s *VerifierService) VerifyRefresh(ctx context.Context, bearer string) (domain.Credential, jwtx.Claims, error) {
	claims, cred, err := s.verify(ctx, bearer, domain.CredentialRefresh)
	return cred, claims, err
}

func (s *VerifierService) verify(ctx context.Context, bearer string, want domain.CredentialType) (jwtx.Claims, domain.Credential, error) {
	claims, err := s.Verifier.Verify(bearer)
	if err != nil {
		if errors.Is(err, jwtx.ErrExpired) {
			return s.reject(ctx, ErrCredentialExpired, "expired", err)
		}
		return s.reject(ctx, ErrCredentialInvalid, "invalid", err)
	}
	if claims.Type != string(want) {
		return s.reject(ctx, ErrCredentialInvalid, "wrong_type", nil)
	}

	cred, err := s.Store.Credentials().GetCredentialByTokenHash(ctx, cryptox.FingerprintToken(claims.ID))
	switch {
	case errors.Is(err, store.ErrNotFound):
		return s.reject(ctx, ErrCredentialRevoked, "unknown", nil)
	case err != nil:
		return jwtx.Claims{}, domain.Credential{}, fmt.Errorf("lookup credential: %w", err)
	}

	if cred.Type != want || cred.OwnerID != claims.Subject {
		return s.reject(ctx, ErrCredentialInvalid, "mismatch", nil)
	}
	if cred.IsRevoked() {
		return s.reject(ctx, ErrCredentialRevoked, "revoked", nil)
	}
	if cred.IsExpired(s.Clock.now()) {
		return s.reject(ctx, ErrCredentialExpired, "expired", nil)
	}

	return claims, cred, nil
}

func (s *VerifierService) reject(ctx context.Context, failure error, reason string, cause error) (jwtx.Claims, domain.Credential, error) {
	s.Metrics.VerifyFailed(reason)

	attrs := []any{slog.String("reason", reason)}
	if cause != nil {
		attrs = append(attrs, slog.Any("err", cause))
	}
	slogx.FromContext(ctx).Debug("bearer rejected", attrs...)

	return jwtx.Claims{}, domain.Credential{}, failure
}
