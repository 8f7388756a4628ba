package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestCredentialActivity(t *testing.T) {
	now := time.Unix(1_700_000_000, 0).UTC()
	c := Credential{ExpiresAt: now.Add(time.Hour)}

	require.True(t, c.IsActive(now))
	require.False(t, c.IsExpired(now.Add(time.Hour)), "expiry is exclusive of the boundary")
	require.True(t, c.IsExpired(now.Add(time.Hour+time.Nanosecond)))

	revoked := now
	c.RevokedAt = &revoked
	require.False(t, c.IsActive(now))
}

func TestSameDevice(t *testing.T) {
	c := Credential{Device: Device{IP: "1.2.3.4", UserAgent: "UA"}}

	require.True(t, c.SameDevice("1.2.3.4", "UA"))
	require.False(t, c.SameDevice("1.2.3.5", "UA"))
	require.False(t, c.SameDevice("1.2.3.4", "ua"))
}

func TestScopesFor(t *testing.T) {
	require.Equal(t, []string{ScopeRead, ScopeWrite}, ScopesFor(CredentialAccess))
	require.Equal(t, []string{ScopeRead, ScopeWrite}, ScopesFor(CredentialRefresh))
	require.Equal(t, []string{ScopeReset}, ScopesFor(CredentialResetPassword))
	require.Equal(t, []string{ScopeInvitation}, ScopesFor(CredentialInvitation))
	require.Nil(t, ScopesFor("bogus"))

	a := ScopesFor(CredentialAccess)
	a[0] = "mutated"
	require.Equal(t, ScopeRead, ScopesFor(CredentialAccess)[0])
}

func TestPolicy(t *testing.T) {
	p := DefaultPolicy()
	require.Equal(t, 24*time.Hour, p.TTL(CredentialAccess))
	require.Equal(t, 7*24*time.Hour, p.TTL(CredentialRefresh))
	require.Equal(t, 2*time.Hour, p.TTL(CredentialResetPassword))
	require.Equal(t, NoExpiry, p.TTL(CredentialInvitation))

	r, err := ParseRefreshRotation("revoke")
	require.NoError(t, err)
	require.Equal(t, RotationRevoke, r)

	r, err = ParseRefreshRotation("")
	require.NoError(t, err)
	require.Equal(t, RotationNone, r)

	_, err = ParseRefreshRotation("sometimes")
	require.Error(t, err)
}

func TestNormalizeEmail(t *testing.T) {
	require.Equal(t, "alice@example.com", NormalizeEmail("  Alice@Example.COM "))
}
