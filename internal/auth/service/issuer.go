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
	"github.com/aussiebroadwan/claimdesk/pkg/idx"
	"github.com/aussiebroadwan/claimdesk/pkg/jwtx"
	"github.com/aussiebroadwan/claimdesk/pkg/slogx"
)

// IssuerService mints access and refresh credentials for authenticated
// users.
type IssuerService struct {
	Store   store.Store
	Signer  jwtx.Signer
	Issuer  string
	Policy  domain.Policy
	Metrics *metrics.Metrics
	Clock   Clock
}

// IssuePair issues an access and a refresh credential for the same device.
// Both rows are written in one transaction.
func (s *IssuerService) IssuePair(ctx context.Context, user domain.User, device domain.Device) (domain.IssuedPair, error) {
	if user.ID == "" {
		return domain.IssuedPair{}, ErrMissingUserID
	}

	var pair domain.IssuedPair
	err := s.Store.WithTx(ctx, func(tx store.Tx) error {
		var err error
		pair, err = s.issuePair(ctx, tx, user, device)
		return err
	})
	if err != nil {
		return domain.IssuedPair{}, err
	}

	s.Metrics.CredentialIssued(string(domain.CredentialAccess))
	s.Metrics.CredentialIssued(string(domain.CredentialRefresh))
	slogx.FromContext(ctx).Info("credential pair issued",
		slog.String("user_id", user.ID),
		slog.String("access_id", pair.Access.Credential.ID),
		slog.String("refresh_id", pair.Refresh.Credential.ID),
	)
	return pair, nil
}

// Refresh exchanges a verified refresh credential for a new pair tagged with
// the device making the request. The presented row is locked and re-read in
// the transaction, so a credential revoked since verification is refused.
// Under RotationRevoke the presented credential is revoked in the same
// transaction, which lets exactly one of several concurrent exchanges win.
func (s *IssuerService) Refresh(ctx context.Context, presented domain.Credential, user domain.User, device domain.Device) (domain.IssuedPair, error) {
	if user.ID == "" {
		return domain.IssuedPair{}, ErrMissingUserID
	}
	if presented.Type != domain.CredentialRefresh || presented.OwnerID != user.ID {
		return domain.IssuedPair{}, ErrCredentialInvalid
	}

	var pair domain.IssuedPair
	err := s.Store.WithTx(ctx, func(tx store.Tx) error {
		if err := tx.Credentials().LockOwner(ctx, user.ID, domain.CredentialRefresh); err != nil {
			return fmt.Errorf("lock refresh credentials: %w", err)
		}

		now := s.Clock.now()
		current, err := tx.Credentials().GetCredentialByID(ctx, presented.ID)
		switch {
		case errors.Is(err, store.ErrNotFound):
			return ErrCredentialRevoked
		case err != nil:
			return fmt.Errorf("reload presented refresh: %w", err)
		case current.IsRevoked():
			return ErrCredentialRevoked
		case current.IsExpired(now):
			return ErrCredentialExpired
		}

		if s.Policy.RefreshRotation == domain.RotationRevoke {
			if err := tx.Credentials().RevokeCredential(ctx, presented.ID, now); err != nil {
				return fmt.Errorf("revoke presented refresh: %w", err)
			}
		}

		pair, err = s.issuePair(ctx, tx, user, device)
		return err
	})
	if err != nil {
		return domain.IssuedPair{}, err
	}

	s.Metrics.CredentialIssued(string(domain.CredentialAccess))
	s.Metrics.CredentialIssued(string(domain.CredentialRefresh))
	slogx.FromContext(ctx).Info("credential pair refreshed",
		slog.String("user_id", user.ID),
		slog.String("presented_id", presented.ID),
		slog.String("rotation", string(s.Policy.RefreshRotation)),
	)
	return pair, nil
}

// IssueOne issues a single access or refresh credential.
func (s *IssuerService) IssueOne(
	ctx context.Context,
	user domain.User,
	typ domain.CredentialType,
	device domain.Device,
) (domain.IssuedCredential, error) {
	if user.ID == "" {
		return domain.IssuedCredential{}, ErrMissingUserID
	}
	if typ != domain.CredentialAccess && typ != domain.CredentialRefresh {
		return domain.IssuedCredential{}, fmt.Errorf("%w: cannot issue %q here", ErrInvalidInput, typ)
	}

	issued, err := s.issue(ctx, s.Store.Credentials(), user, typ, device)
	if err != nil {
		return domain.IssuedCredential{}, err
	}
	s.Metrics.CredentialIssued(string(typ))
	return issued, nil
}

func (s *IssuerService) issuePair(ctx context.Context, tx store.Store, user domain.User, device domain.Device) (domain.IssuedPair, error) {
	access, err := s.issue(ctx, tx.Credentials(), user, domain.CredentialAccess, device)
	if err != nil {
		return domain.IssuedPair{}, err
	}
	refresh, err := s.issue(ctx, tx.Credentials(), user, domain.CredentialRefresh, device)
	if err != nil {
		return domain.IssuedPair{}, err
	}
	return domain.IssuedPair{Access: access, Refresh: refresh}, nil
}

func (s *IssuerService) issue(
	ctx context.Context,
	creds store.Credentials,
	user domain.User,
	typ domain.CredentialType,
	device domain.Device,
) (domain.IssuedCredential, error) {
	now := s.Clock.now()
	ttl := s.Policy.TTL(typ)
	scopes := domain.ScopesFor(typ)

	handle, err := cryptox.GenerateToken(cryptox.TokenSize256)
	if err != nil {
		return domain.IssuedCredential{}, err
	}

	bearer, err := s.Signer.Sign(jwtx.NewClaims(user.ID, string(typ), handle, user.Roles, scopes, s.Issuer, ttl, now))
	if err != nil {
		return domain.IssuedCredential{}, fmt.Errorf("sign %s credential: %w", typ, err)
	}

	cred := domain.Credential{
		ID:        idx.NewAt(now).String(),
		TokenHash: cryptox.FingerprintToken(handle),
		Type:      typ,
		OwnerID:   user.ID,
		Device:    device,
		Scopes:    scopes,
		ExpiresAt: now.Add(ttl),
		CreatedAt: now,
	}
	if err := creds.CreateCredential(ctx, cred); err != nil {
		return domain.IssuedCredential{}, fmt.Errorf("store %s credential: %w", typ, err)
	}

	return domain.IssuedCredential{Credential: cred, Token: bearer}, nil
}
