package jwtx

import (
	"errors"

	"github.com/golang-jwt/jwt/v5"
)

// MinSecretSize is the shortest HMAC secret accepted, matching the SHA-256
// block output.
const MinSecretSize = 32

var ErrWeakSecret = errors.New("jwtx: signing secret must be at least 32 bytes")

// Signer is anything that can turn claims into a compact JWS.
type Signer interface {
	Alg() string
	Sign(Claims) (string, error)
}

// HS256Signer signs with a shared HMAC-SHA256 secret.
type HS256Signer struct {
	key []byte
}

func NewHS256Signer(secret []byte) (*HS256Signer, error) {
	if len(secret) < MinSecretSize {
		return nil, ErrWeakSecret
	}
	return &HS256Signer{key: secret}, nil
}

func (s *HS256Signer) Alg() string { return jwt.SigningMethodHS256.Alg() }

func (s *HS256Signer) Sign(claims Claims) (string, error) {
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.key)
}
