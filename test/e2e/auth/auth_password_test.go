package auth_test

import (
	"testing"

	"github.com/aussiebroadwan/claimdesk/pkg/authsdk"
	"github.com/stretchr/testify/require"
)

func TestPasswordReset(t *testing.T) {
	client := setupAuthContainer(t)
	ctx := t.Context()
	registerUser(t, client, "pat@example.com")

	first, err := client.ForgotPassword(ctx, "pat@example.com")
	require.NoError(t, err)
	require.NotEmpty(t, first.ResetToken)

	second, err := client.ForgotPassword(ctx, "pat@example.com")
	require.NoError(t, err)
	require.NotEqual(t, first.ResetToken, second.ResetToken)

	// Issuing a new token replaced the first.
	err = client.ResetPassword(ctx, first.ResetToken, "a brand new secret")
	require.ErrorIs(t, err, authsdk.ErrInvalidOrExpiredToken)

	require.NoError(t, client.ResetPassword(ctx, second.ResetToken, "a brand new secret"))

	err = client.ResetPassword(ctx, second.ResetToken, "yet another secret")
	require.ErrorIs(t, err, authsdk.ErrInvalidOrExpiredToken)

	_, err = client.Login(ctx, "pat@example.com", userPassword)
	require.ErrorIs(t, err, authsdk.ErrInvalidCredentials)
	_, err = client.Login(ctx, "pat@example.com", "a brand new secret")
	require.NoError(t, err)

	_, err = client.ForgotPassword(ctx, "nobody@example.com")
	require.ErrorIs(t, err, authsdk.ErrUserNotFound)
}
