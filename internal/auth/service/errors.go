package service

import (
	"errors"
	"fmt"
)

// Authentication failures. Each means "do not trust this bearer".
var (
	ErrCredentialInvalid = errors.New("credential_invalid")
	ErrCredentialExpired = errors.New("credential_expired")
	ErrCredentialRevoked = errors.New("credential_revoked")
)

// ErrInvalidOrExpiredToken is the only single-use token failure shown to
// callers. The specific reasons below wrap it so logs and tests can tell
// them apart.
var ErrInvalidOrExpiredToken = errors.New("invalid or expired token")

var (
	ErrTokenNotFound  = fmt.Errorf("%w: token not found", ErrInvalidOrExpiredToken)
	ErrTokenWrongType = fmt.Errorf("%w: wrong token type", ErrInvalidOrExpiredToken)
	ErrTokenExpired   = fmt.Errorf("%w: token expired", ErrInvalidOrExpiredToken)
	ErrTokenMismatch  = fmt.Errorf("%w: token issued for another email", ErrInvalidOrExpiredToken)
)

var (
	ErrForbidden              = errors.New("forbidden")
	ErrMissingUserID          = errors.New("missing user id")
	ErrUserNotFound           = errors.New("user_not_found")
	ErrCredentialNotFound     = errors.New("credential_not_found")
	ErrCredentialNotRevocable = errors.New("credential_not_revocable")
	ErrInvalidCredentials     = errors.New("invalid_credentials")
	ErrEmailTaken             = errors.New("email_taken")
	ErrInvalidInput           = errors.New("invalid_input")
)

// IsAuthenticationFailure reports whether err means the bearer was rejected,
// as opposed to the check itself failing.
func IsAuthenticationFailure(err error) bool {
	return errors.Is(err, ErrCredentialInvalid) ||
		errors.Is(err, ErrCredentialExpired) ||
		errors.Is(err, ErrCredentialRevoked)
}
