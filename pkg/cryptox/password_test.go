package cryptox

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestPasswordHasher_RoundTrip(t *testing.T) {
	h := NewPasswordHasher("pepper")

	tests := []struct {
		name     string
		password string
	}{
		{"simple", "password123"},
		{"symbols", "P@ssw0rd!#$%^&*()"},
		{"long", strings.Repeat("a", 100)},
		{"empty", ""},
		{"unicode", "пароль🔒密码"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			encoded, err := h.Hash(tt.password)
			require.NoError(t, err)
			require.True(t, strings.HasPrefix(encoded, "$argon2id$v=19$m=19456,t=2,p=1$"))
			require.Len(t, strings.Split(encoded, "$"), 6)

			require.NoError(t, h.Verify(tt.password, encoded))
			require.ErrorIs(t, h.Verify(tt.password+"x", encoded), ErrPasswordMismatch)
		})
	}
}

func TestPasswordHasher_UniqueSalts(t *testing.T) {
	h := NewPasswordHasher("pepper")

	a, err := h.Hash("same")
	require.NoError(t, err)
	b, err := h.Hash("same")
	require.NoError(t, err)
	require.NotEqual(t, a, b)
}

func TestPasswordHasher_PepperMatters(t *testing.T) {
	encoded, err := NewPasswordHasher("one").Hash("secret")
	require.NoError(t, err)

	require.ErrorIs(t, NewPasswordHasher("two").Verify("secret", encoded), ErrPasswordMismatch)
}

func TestPasswordHasher_Malformed(t *testing.T) {
	h := NewPasswordHasher("")

	for _, encoded := range []string{
		"",
		"plaintext",
		"$bcrypt$v=19$m=1,t=1,p=1$c2FsdA$aGFzaA",
		"$argon2id$v=18$m=1,t=1,p=1$c2FsdA$aGFzaA",
		"$argon2id$v=19$garbage$c2FsdA$aGFzaA",
		"$argon2id$v=19$m=1,t=1,p=1$!!!$aGFzaA",
		"$argon2id$v=19$m=1,t=1,p=1$c2FsdA$",
	} {
		require.ErrorIs(t, h.Verify("pw", encoded), ErrMalformedHash, "encoded %q", encoded)
	}
}

func TestLoadOrCreatePepper(t *testing.T) {
	path := filepath.Join(t.TempDir(), "secrets", "pepper")

	first, err := LoadOrCreatePepper(path)
	require.NoError(t, err)
	require.NotEmpty(t, first)

	info, err := os.Stat(path)
	require.NoError(t, err)
	require.Equal(t, os.FileMode(0o600), info.Mode().Perm())

	second, err := LoadOrCreatePepper(path)
	require.NoError(t, err)
	require.Equal(t, first, second)
}

func TestLoadOrCreatePepper_EmptyFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "pepper")
	require.NoError(t, os.WriteFile(path, []byte("\n"), 0o600))

	_, err := LoadOrCreatePepper(path)
	require.Error(t, err)
}
