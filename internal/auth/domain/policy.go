package domain

import (
	"fmt"
	"time"
)

// RefreshRotation decides what happens to a refresh credential after it has
// been exchanged for a new pair.
type RefreshRotation string

const (
	// RotationNone leaves the presented refresh credential valid until it
	// expires.
	RotationNone RefreshRotation = "none"
	// RotationRevoke revokes the presented refresh credential in the same
	// transaction that issues the new pair.
	RotationRevoke RefreshRotation = "revoke"
)

func ParseRefreshRotation(s string) (RefreshRotation, error) {
	switch r := RefreshRotation(s); r {
	case RotationNone, RotationRevoke:
		return r, nil
	case "":
		return RotationNone, nil
	}
	return "", fmt.Errorf("unknown refresh rotation %q", s)
}

// NoExpiry stands in for "never expires" where a timestamp is required.
const NoExpiry = 100 * 365 * 24 * time.Hour

// Policy holds credential lifetimes.
type Policy struct {
	AccessTTL       time.Duration
	RefreshTTL      time.Duration
	ResetTTL        time.Duration
	InvitationTTL   time.Duration
	RefreshRotation RefreshRotation
}

func DefaultPolicy() Policy {
	return Policy{
		AccessTTL:       24 * time.Hour,
		RefreshTTL:      7 * 24 * time.Hour,
		ResetTTL:        2 * time.Hour,
		InvitationTTL:   NoExpiry,
		RefreshRotation: RotationNone,
	}
}

func (p Policy) TTL(t CredentialType) time.Duration {
	switch t {
	case CredentialAccess:
		return p.AccessTTL
	case CredentialRefresh:
		return p.RefreshTTL
	case CredentialResetPassword:
		return p.ResetTTL
	case CredentialInvitation:
		return p.InvitationTTL
	}
	return 0
}
