package service

import (
	"context"
	"testing"

	"github.com/aussiebroadwan/claimdesk/internal/auth/domain"
	"github.com/stretchr/testify/require"
)

func TestListSessions(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	alice := env.register(t, "alice@example.com")
	bob := env.register(t, "bob@example.com")

	_, err := env.issuer.IssuePair(ctx, alice, deviceA)
	require.NoError(t, err)
	_, err = env.issuer.IssuePair(ctx, alice, deviceB)
	require.NoError(t, err)

	t.Run("own sessions", func(t *testing.T) {
		sessions, err := env.sessions.ListSessions(ctx, alice.ID, alice.ID, alice.Roles)
		require.NoError(t, err)
		require.Len(t, sessions, 4)
		require.Equal(t, deviceA.IP, sessions[0].Device.IP)
		require.Equal(t, deviceB.IP, sessions[3].Device.IP)

		// Empty target means self.
		sessions, err = env.sessions.ListSessions(ctx, alice.ID, "", alice.Roles)
		require.NoError(t, err)
		require.Len(t, sessions, 4)
	})

	t.Run("someone else's sessions", func(t *testing.T) {
		_, err := env.sessions.ListSessions(ctx, bob.ID, alice.ID, bob.Roles)
		require.ErrorIs(t, err, ErrForbidden)

		_, err = env.sessions.ListSessions(ctx, bob.ID, alice.ID, []string{domain.RoleStaff})
		require.ErrorIs(t, err, ErrForbidden)

		sessions, err := env.sessions.ListSessions(ctx, bob.ID, alice.ID, []string{domain.RoleAdmin})
		require.NoError(t, err)
		require.Len(t, sessions, 4)
	})

	t.Run("no sessions", func(t *testing.T) {
		sessions, err := env.sessions.ListSessions(ctx, bob.ID, bob.ID, bob.Roles)
		require.NoError(t, err)
		require.Empty(t, sessions)
	})

	t.Run("missing requester", func(t *testing.T) {
		_, err := env.sessions.ListSessions(ctx, "", alice.ID, nil)
		require.ErrorIs(t, err, ErrMissingUserID)
	})
}

func TestRevokeSession(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	alice := env.register(t, "alice@example.com")
	bob := env.register(t, "bob@example.com")

	pair, err := env.issuer.IssuePair(ctx, alice, deviceA)
	require.NoError(t, err)

	err = env.sessions.RevokeSession(ctx, bob.ID, bob.Roles, pair.Access.Credential.ID)
	require.ErrorIs(t, err, ErrForbidden)

	require.NoError(t, env.sessions.RevokeSession(ctx, alice.ID, alice.Roles, pair.Access.Credential.ID))
	_, err = env.verifier.Verify(ctx, pair.Access.Token)
	require.ErrorIs(t, err, ErrCredentialRevoked)

	// Revoking twice is harmless.
	require.NoError(t, env.sessions.RevokeSession(ctx, alice.ID, alice.Roles, pair.Access.Credential.ID))

	require.NoError(t, env.sessions.RevokeSession(ctx, bob.ID, []string{domain.RoleAdmin}, pair.Refresh.Credential.ID))
	_, _, err = env.verifier.VerifyRefresh(ctx, pair.Refresh.Token)
	require.ErrorIs(t, err, ErrCredentialRevoked)

	err = env.sessions.RevokeSession(ctx, alice.ID, alice.Roles, "missing")
	require.ErrorIs(t, err, ErrCredentialNotFound)

	_, err = env.singleUse.IssueResetToken(ctx, alice.ID, "")
	require.NoError(t, err)
	for _, c := range env.credentials(t, alice.ID) {
		if c.Type == domain.CredentialResetPassword {
			err = env.sessions.RevokeSession(ctx, alice.ID, alice.Roles, c.ID)
			require.ErrorIs(t, err, ErrCredentialNotRevocable)
		}
	}
}

func TestRevokeBearer(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	user := env.register(t, "pat@example.com")

	pair, err := env.issuer.IssuePair(ctx, user, deviceA)
	require.NoError(t, err)

	claims, err := env.verifier.Verify(ctx, pair.Access.Token)
	require.NoError(t, err)

	require.NoError(t, env.sessions.RevokeBearer(ctx, claims))

	_, err = env.verifier.Verify(ctx, pair.Access.Token)
	require.ErrorIs(t, err, ErrCredentialRevoked)

	claims.Subject = "someone-else"
	require.ErrorIs(t, env.sessions.RevokeBearer(ctx, claims), ErrCredentialInvalid)

	claims.ID = "unknown"
	require.ErrorIs(t, env.sessions.RevokeBearer(ctx, claims), ErrCredentialRevoked)
}
