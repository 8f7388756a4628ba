package jwtx

import (
	"slices"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Claims is the payload of every bearer the auth service signs.
type Claims struct {
	jwt.RegisteredClaims

	// Type is the credential type the bearer was issued as (access,
	// refresh, reset_password). A bearer is only accepted where its type is
	// expected.
	Type string `json:"typ"`

	Roles  []string `json:"roles,omitempty"`
	Scopes []string `json:"scopes,omitempty"`
}

// NewClaims builds claims for a bearer. handle becomes the jti and is the
// only link between the bearer and its stored credential row.
func NewClaims(
	subject, typ, handle string,
	roles, scopes []string,
	issuer string,
	ttl time.Duration,
	now time.Time,
) Claims {
	return Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    issuer,
			Subject:   subject,
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			ID:        handle,
		},
		Type:   typ,
		Roles:  roles,
		Scopes: scopes,
	}
}

func (c *Claims) HasScope(scope string) bool {
	return slices.Contains(c.Scopes, scope)
}

func (c *Claims) HasAnyRole(roles ...string) bool {
	for _, r := range roles {
		if slices.Contains(c.Roles, r) {
			return true
		}
	}
	return false
}

// ValidateIssuer checks iss against expected. An empty expected value
// enforces nothing.
func (c *Claims) ValidateIssuer(expected string) error {
	if expected != "" && c.Issuer != expected {
		return ErrIssuer
	}
	return nil
}

// ValidateExpiryAt checks exp and nbf against now, allowing leeway for
// clock skew in both directions. A token is expired once now is past exp,
// the same rule stored credentials follow.
func (c *Claims) ValidateExpiryAt(now time.Time, leeway time.Duration) error {
	if c.ExpiresAt == nil {
		return ErrInvalidClaim
	}
	if now.After(c.ExpiresAt.Add(leeway)) {
		return ErrExpired
	}
	if c.NotBefore != nil && now.Before(c.NotBefore.Add(-leeway)) {
		return ErrNotYetValid
	}
	return nil
}
