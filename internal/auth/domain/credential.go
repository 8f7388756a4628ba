package domain

import "time"

// CredentialType decides a credential's scopes, lifetime and which
// operations accept it.
type CredentialType string

const (
	CredentialAccess        CredentialType = "access"
	CredentialRefresh       CredentialType = "refresh"
	CredentialResetPassword CredentialType = "reset_password"
	CredentialInvitation    CredentialType = "invitation"
)

func (t CredentialType) Valid() bool {
	switch t {
	case CredentialAccess, CredentialRefresh, CredentialResetPassword, CredentialInvitation:
		return true
	}
	return false
}

// SingleUse reports whether at most one credential of this type may exist
// per owner and whether it is deleted on consumption.
func (t CredentialType) SingleUse() bool {
	return t == CredentialResetPassword || t == CredentialInvitation
}

// Scopes granted per credential type.
const (
	ScopeRead       = "read"
	ScopeWrite      = "write"
	ScopeReset      = "reset"
	ScopeInvitation = "invitation"
)

// ScopesFor returns a fresh slice each call so callers may keep it.
func ScopesFor(t CredentialType) []string {
	switch t {
	case CredentialAccess, CredentialRefresh:
		return []string{ScopeRead, ScopeWrite}
	case CredentialResetPassword:
		return []string{ScopeReset}
	case CredentialInvitation:
		return []string{ScopeInvitation}
	}
	return nil
}

// Device is what was known about the requesting device when a credential
// was issued. IP and UserAgent are the recognition key; everything else is
// informational. Latitude/Longitude are nil when geolocation failed.
type Device struct {
	Name           string
	IP             string
	UserAgent      string
	BrowserName    string
	BrowserVersion string
	OSName         string
	OSVersion      string
	Type           string
	Vendor         string
	Model          string
	City           string
	Country        string
	Latitude       *float64
	Longitude      *float64
}

// Credential is one issued token record. The token itself is never stored,
// only TokenHash, its fingerprint.
type Credential struct {
	ID        string
	TokenHash string
	Type      CredentialType
	OwnerID   string // user id; for invitations, the inviting user
	Device    Device

	// InviteeEmail is set on invitation credentials only.
	InviteeEmail string

	Scopes    []string
	ExpiresAt time.Time
	RevokedAt *time.Time
	CreatedAt time.Time
}

func (c Credential) IsRevoked() bool { return c.RevokedAt != nil }

// IsExpired is true once now is past ExpiresAt.
func (c Credential) IsExpired(now time.Time) bool { return now.After(c.ExpiresAt) }

func (c Credential) IsActive(now time.Time) bool {
	return !c.IsRevoked() && !c.IsExpired(now)
}

// SameDevice is the device recognition rule: exact IP and exact user agent.
func (c Credential) SameDevice(ip, userAgent string) bool {
	return c.Device.IP == ip && c.Device.UserAgent == userAgent
}

// IssuedCredential pairs a stored credential with the bearer string handed
// to the client. The bearer exists only in this value.
type IssuedCredential struct {
	Credential Credential
	Token      string
}

type IssuedPair struct {
	Access  IssuedCredential
	Refresh IssuedCredential
}
