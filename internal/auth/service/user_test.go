package service

import (
	"context"
	"testing"

	"github.com/aussiebroadwan/claimdesk/internal/auth/domain"
	"github.com/stretchr/testify/require"
)

func TestRegister(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)

	user, err := env.users.Register(ctx, "  Pat@Example.com ", "correct horse battery", "")
	require.NoError(t, err)
	require.Equal(t, "pat@example.com", user.Email)
	require.Equal(t, []string{domain.RoleClient}, user.Roles)
	require.NotEqual(t, "correct horse battery", user.PasswordHash)

	got, err := env.users.GetUserByEmail(ctx, "PAT@example.com")
	require.NoError(t, err)
	require.Equal(t, user.ID, got.ID)

	_, err = env.users.Register(ctx, "pat@EXAMPLE.com", "correct horse battery", "")
	require.ErrorIs(t, err, ErrEmailTaken)

	for _, tc := range []struct{ email, password string }{
		{"", "correct horse battery"},
		{"not-an-email", "correct horse battery"},
		{"Pat <pat2@example.com>", "correct horse battery"},
		{"pat2@example.com", "short"},
	} {
		_, err := env.users.Register(ctx, tc.email, tc.password, "")
		require.ErrorIs(t, err, ErrInvalidInput, tc.email)
	}
}

func TestRegisterWithInvitation(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	sender := env.register(t, "staff@example.com")

	token, err := env.singleUse.IssueInvitationToken(ctx, "guest@example.com", "", sender.ID, "")
	require.NoError(t, err)

	t.Run("email must match the invitation", func(t *testing.T) {
		_, err := env.users.Register(ctx, "intruder@example.com", "correct horse battery", token)
		require.ErrorIs(t, err, ErrInvalidOrExpiredToken)

		_, err = env.users.GetUserByEmail(ctx, "intruder@example.com")
		require.ErrorIs(t, err, ErrUserNotFound)
	})

	t.Run("failed registration keeps the invitation", func(t *testing.T) {
		env.register(t, "taken@example.com")
		taken, err := env.singleUse.IssueInvitationToken(ctx, "taken@example.com", "", sender.ID, "")
		require.NoError(t, err)

		_, err = env.users.Register(ctx, "taken@example.com", "correct horse battery", taken)
		require.ErrorIs(t, err, ErrEmailTaken)
		require.Equal(t, 1, countType(env.credentials(t, sender.ID), domain.CredentialInvitation))

		// Restore the invitation the next subtest consumes.
		token, err = env.singleUse.IssueInvitationToken(ctx, "guest@example.com", "", sender.ID, "")
		require.NoError(t, err)
	})

	t.Run("invited users are staff", func(t *testing.T) {
		user, err := env.users.Register(ctx, "guest@example.com", "correct horse battery", token)
		require.NoError(t, err)
		require.Equal(t, []string{domain.RoleStaff}, user.Roles)
		require.Zero(t, countType(env.credentials(t, sender.ID), domain.CredentialInvitation))
	})

	t.Run("unknown invitation", func(t *testing.T) {
		_, err := env.users.Register(ctx, "other@example.com", "correct horse battery", "bogus")
		require.ErrorIs(t, err, ErrTokenNotFound)
	})
}

func TestEnsureAdmin(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)

	admin, created, err := env.users.EnsureAdmin(ctx, "Root@Example.com", "correct horse battery")
	require.NoError(t, err)
	require.True(t, created)
	require.Equal(t, "root@example.com", admin.Email)
	require.Equal(t, []string{domain.RoleAdmin}, admin.Roles)

	again, created, err := env.users.EnsureAdmin(ctx, "root@example.com", "a different password")
	require.NoError(t, err)
	require.False(t, created)
	require.Equal(t, admin.ID, again.ID)

	// The existing password is kept.
	_, err = env.users.Authenticate(ctx, "root@example.com", "correct horse battery")
	require.NoError(t, err)

	existing := env.register(t, "pat@example.com")
	got, created, err := env.users.EnsureAdmin(ctx, "pat@example.com", "correct horse battery")
	require.NoError(t, err)
	require.False(t, created)
	require.Equal(t, []string{domain.RoleClient}, got.Roles)
	require.Equal(t, existing.ID, got.ID)

	_, _, err = env.users.EnsureAdmin(ctx, "nobody@example.com", "short")
	require.ErrorIs(t, err, ErrInvalidInput)
}

func TestAuthenticate(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	user := env.register(t, "pat@example.com")
	require.Nil(t, user.LastLoginAt)

	got, err := env.users.Authenticate(ctx, "PAT@example.com", "correct horse battery")
	require.NoError(t, err)
	require.Equal(t, user.ID, got.ID)
	require.NotNil(t, got.LastLoginAt)

	stored, err := env.users.GetUserByID(ctx, user.ID)
	require.NoError(t, err)
	require.NotNil(t, stored.LastLoginAt)
	require.True(t, stored.LastLoginAt.Equal(env.clock.Now()))

	_, err = env.users.Authenticate(ctx, "pat@example.com", "wrong password")
	require.ErrorIs(t, err, ErrInvalidCredentials)

	_, err = env.users.Authenticate(ctx, "nobody@example.com", "correct horse battery")
	require.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestSetPassword(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	user := env.register(t, "pat@example.com")

	require.NoError(t, env.users.SetPassword(ctx, user.ID, "another good one"))
	_, err := env.users.Authenticate(ctx, user.Email, "another good one")
	require.NoError(t, err)

	require.ErrorIs(t, env.users.SetPassword(ctx, "missing", "another good one"), ErrUserNotFound)
	require.ErrorIs(t, env.users.SetPassword(ctx, "", "another good one"), ErrMissingUserID)
	require.ErrorIs(t, env.users.SetPassword(ctx, user.ID, "tiny"), ErrInvalidInput)

	_, err = env.users.GetUserByID(ctx, "missing")
	require.ErrorIs(t, err, ErrUserNotFound)
}
