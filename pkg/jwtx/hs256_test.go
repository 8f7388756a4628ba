package jwtx_test

import (
	"strings"
	"testing"
	"time"

	"github.com/aussiebroadwan/claimdesk/pkg/jwtx"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/require"
)

var testSecret = []byte(strings.Repeat("k", jwtx.MinSecretSize))

func newPair(t *testing.T, issuer string) (*jwtx.HS256Signer, *jwtx.HS256Verifier) {
	t.Helper()

	s, err := jwtx.NewHS256Signer(testSecret)
	require.NoError(t, err)
	v, err := jwtx.NewHS256Verifier(testSecret, issuer)
	require.NoError(t, err)
	return s, v
}

func TestHS256_RoundTrip(t *testing.T) {
	s, v := newPair(t, "claimdesk")
	require.Equal(t, "HS256", s.Alg())

	now := time.Now().UTC()
	tok, err := s.Sign(jwtx.NewClaims("user-1", "access", "handle-1", []string{"client"}, []string{"read"}, "claimdesk", time.Hour, now))
	require.NoError(t, err)

	got, err := v.Verify(tok)
	require.NoError(t, err)
	require.Equal(t, "user-1", got.Subject)
	require.Equal(t, "access", got.Type)
	require.Equal(t, "handle-1", got.ID)
	require.Equal(t, []string{"client"}, got.Roles)
	require.Equal(t, []string{"read"}, got.Scopes)
}

func TestHS256_WeakSecret(t *testing.T) {
	_, err := jwtx.NewHS256Signer([]byte("short"))
	require.ErrorIs(t, err, jwtx.ErrWeakSecret)
	_, err = jwtx.NewHS256Verifier([]byte("short"), "")
	require.ErrorIs(t, err, jwtx.ErrWeakSecret)
}

func TestHS256_Expired(t *testing.T) {
	s, v := newPair(t, "")

	past := time.Now().Add(-2 * time.Hour)
	tok, err := s.Sign(jwtx.NewClaims("u", "reset_password", "h", nil, []string{"reset"}, "", time.Hour, past))
	require.NoError(t, err)

	_, err = v.Verify(tok)
	require.ErrorIs(t, err, jwtx.ErrExpired)

	// Signature-only verification still yields the claims.
	claims, err := v.VerifySignature(tok)
	require.NoError(t, err)
	require.Equal(t, "h", claims.ID)
}

func TestHS256_InjectedClock(t *testing.T) {
	s, v := newPair(t, "")

	issued := time.Unix(1_700_000_000, 0).UTC()
	tok, err := s.Sign(jwtx.NewClaims("u", "access", "h", nil, nil, "", time.Hour, issued))
	require.NoError(t, err)

	v.Now = func() time.Time { return issued.Add(30 * time.Minute) }
	_, err = v.Verify(tok)
	require.NoError(t, err)

	v.Now = func() time.Time { return issued.Add(61 * time.Minute) }
	_, err = v.Verify(tok)
	require.ErrorIs(t, err, jwtx.ErrExpired)
}

func TestHS256_Rejects(t *testing.T) {
	s, v := newPair(t, "claimdesk")
	now := time.Now()

	t.Run("wrong secret", func(t *testing.T) {
		other, err := jwtx.NewHS256Signer([]byte(strings.Repeat("x", 32)))
		require.NoError(t, err)
		tok, err := other.Sign(jwtx.NewClaims("u", "access", "h", nil, nil, "claimdesk", time.Hour, now))
		require.NoError(t, err)

		_, err = v.Verify(tok)
		require.ErrorIs(t, err, jwtx.ErrInvalidSig)
	})

	t.Run("tampered payload", func(t *testing.T) {
		tok, err := s.Sign(jwtx.NewClaims("u", "access", "h", nil, nil, "claimdesk", time.Hour, now))
		require.NoError(t, err)
		parts := strings.Split(tok, ".")
		forged, err := s.Sign(jwtx.NewClaims("admin", "access", "h", nil, nil, "claimdesk", time.Hour, now))
		require.NoError(t, err)
		parts[1] = strings.Split(forged, ".")[1]
		parts[2] = strings.Split(tok, ".")[2]

		_, err = v.Verify(strings.Join(parts, "."))
		require.ErrorIs(t, err, jwtx.ErrInvalidSig)
	})

	t.Run("wrong issuer", func(t *testing.T) {
		tok, err := s.Sign(jwtx.NewClaims("u", "access", "h", nil, nil, "someone-else", time.Hour, now))
		require.NoError(t, err)

		_, err = v.Verify(tok)
		require.ErrorIs(t, err, jwtx.ErrIssuer)
	})

	t.Run("alg none", func(t *testing.T) {
		c := jwtx.NewClaims("u", "access", "h", nil, nil, "claimdesk", time.Hour, now)
		tok, err := jwt.NewWithClaims(jwt.SigningMethodNone, c).SignedString(jwt.UnsafeAllowNoneSignatureType)
		require.NoError(t, err)

		_, err = v.Verify(tok)
		require.Error(t, err)
	})

	t.Run("garbage", func(t *testing.T) {
		for _, tok := range []string{"", "abc", "a.b.c", "not.a.jwt.at.all"} {
			_, err := v.Verify(tok)
			require.ErrorIs(t, err, jwtx.ErrMalformed, "token %q", tok)
		}
	})

	t.Run("missing jti", func(t *testing.T) {
		tok, err := s.Sign(jwtx.NewClaims("u", "access", "", nil, nil, "claimdesk", time.Hour, now))
		require.NoError(t, err)

		_, err = v.Verify(tok)
		require.ErrorIs(t, err, jwtx.ErrInvalidClaim)
	})
}
