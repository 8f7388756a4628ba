package jwtx

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Verifier checks a JWS and returns its claims.
type Verifier interface {
	// Verify checks signature, issuer and the validity window.
	Verify(token string) (Claims, error)

	// VerifySignature checks signature and issuer but ignores exp and nbf,
	// for callers that keep the authoritative expiry elsewhere.
	VerifySignature(token string) (Claims, error)
}

var (
	ErrMalformed    = errors.New("jwtx: malformed token")
	ErrInvalidSig   = errors.New("jwtx: invalid signature")
	ErrIssuer       = errors.New("jwtx: issuer mismatch")
	ErrExpired      = errors.New("jwtx: token expired")
	ErrNotYetValid  = errors.New("jwtx: token not yet valid")
	ErrInvalidClaim = errors.New("jwtx: invalid claims")
)

// HS256Verifier verifies tokens produced by an HS256Signer with the same
// secret.
type HS256Verifier struct {
	key    []byte
	issuer string

	// Leeway absorbs clock skew when checking exp and nbf.
	Leeway time.Duration
	// Now defaults to time.Now.
	Now func() time.Time
}

func NewHS256Verifier(secret []byte, issuer string) (*HS256Verifier, error) {
	if len(secret) < MinSecretSize {
		return nil, ErrWeakSecret
	}
	return &HS256Verifier{key: secret, issuer: issuer}, nil
}

func (v *HS256Verifier) Verify(token string) (Claims, error) {
	claims, err := v.VerifySignature(token)
	if err != nil {
		return Claims{}, err
	}

	now := time.Now
	if v.Now != nil {
		now = v.Now
	}
	if err := claims.ValidateExpiryAt(now().UTC(), v.Leeway); err != nil {
		return Claims{}, err
	}
	return claims, nil
}

func (v *HS256Verifier) VerifySignature(token string) (Claims, error) {
	parser := jwt.NewParser(
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithoutClaimsValidation(),
	)

	var claims Claims
	if _, err := parser.ParseWithClaims(token, &claims, func(*jwt.Token) (any, error) {
		return v.key, nil
	}); err != nil {
		if errors.Is(err, jwt.ErrTokenSignatureInvalid) {
			return Claims{}, ErrInvalidSig
		}
		return Claims{}, fmt.Errorf("%w: %v", ErrMalformed, err)
	}

	if err := claims.ValidateIssuer(v.issuer); err != nil {
		return Claims{}, err
	}
	if claims.Subject == "" || claims.ID == "" || claims.Type == "" {
		return Claims{}, ErrInvalidClaim
	}
	return claims, nil
}
