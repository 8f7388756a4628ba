package authsdk

import "time"

// ErrorResponse is the body of every error response.
type ErrorResponse struct {
	// Error is a machine readable code such as "invalid_token".
	Error string `json:"error"`

	// ErrorDescription is a human readable explanation.
	ErrorDescription string `json:"error_description"`
}

// ============================================================================
// Credentials
// ============================================================================

type RegisterRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`

	// InvitationToken registers the user as staff when valid.
	InvitationToken string `json:"invitation_token,omitempty"`
}

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// RefreshRequest carries a refresh token.
type RefreshRequest struct {
	Token string `json:"token"`
}

// TokenResponse is returned by register, login and refresh_token.
type TokenResponse struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`

	// TokenType is always "Bearer".
	TokenType string `json:"token_type"`

	// ExpiresIn is the access token lifetime in seconds.
	ExpiresIn int `json:"expires_in"`

	// RefreshExpiresIn is the refresh token lifetime in seconds.
	RefreshExpiresIn int `json:"refresh_expires_in"`

	// NewDevice is set on login when the device had not been seen before
	// for this user.
	NewDevice bool `json:"new_device,omitempty"`
}

// ============================================================================
// Single-use tokens
// ============================================================================

type ForgotPasswordRequest struct {
	Email string `json:"email"`
}

// ForgotPasswordResponse acknowledges a reset request. ResetToken is only
// filled in when the service is configured to expose it, which is meant for
// local development and tests.
type ForgotPasswordResponse struct {
	Status     string `json:"status"`
	ResetToken string `json:"reset_token,omitempty"`
}

type ResetPasswordRequest struct {
	Token    string `json:"token"`
	Password string `json:"password"`
}

type InvitationRequest struct {
	Email string `json:"email"`

	// DeviceName labels the invitation in the sender's session list.
	DeviceName string `json:"device_name,omitempty"`
}

type InvitationResponse struct {
	Email           string `json:"email"`
	InvitationToken string `json:"invitation_token"`
}

// ============================================================================
// Users and sessions
// ============================================================================

type UserResponse struct {
	ID          string     `json:"id"`
	Email       string     `json:"email"`
	Roles       []string   `json:"roles"`
	LastLoginAt *time.Time `json:"last_login_at,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
}

// Location is the coarse position resolved from a session's IP.
type Location struct {
	City      string  `json:"city,omitempty"`
	Country   string  `json:"country,omitempty"`
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// SessionResponse describes one credential. Bearer strings are never
// returned.
type SessionResponse struct {
	ID             string    `json:"id"`
	Type           string    `json:"type"`
	DeviceName     string    `json:"device_name"`
	IP             string    `json:"ip,omitempty"`
	UserAgent      string    `json:"user_agent,omitempty"`
	BrowserName    string    `json:"browser_name,omitempty"`
	BrowserVersion string    `json:"browser_version,omitempty"`
	OSName         string    `json:"os_name,omitempty"`
	OSVersion      string    `json:"os_version,omitempty"`
	DeviceType     string    `json:"device_type,omitempty"`
	DeviceVendor   string    `json:"device_vendor,omitempty"`
	DeviceModel    string    `json:"device_model,omitempty"`
	Location       *Location `json:"location,omitempty"`
	InviteeEmail   string    `json:"invitee_email,omitempty"`
	Scopes         []string  `json:"scopes"`
	Current        bool      `json:"current"`
	Revoked        bool      `json:"revoked"`
	Expired        bool      `json:"expired"`
	ExpiresAt      time.Time `json:"expires_at"`
	CreatedAt      time.Time `json:"created_at"`
}

type SessionListResponse struct {
	UserID   string            `json:"user_id"`
	Sessions []SessionResponse `json:"sessions"`
}

// ============================================================================
// Health
// ============================================================================

// HealthResponse is returned by /livez and /readyz; only readyz fills in
// Checks.
type HealthResponse struct {
	Status  string        `json:"status"`
	Uptime  string        `json:"uptime,omitempty"`
	Version string        `json:"version,omitempty"`
	Checks  *HealthChecks `json:"checks,omitempty"`
}

type HealthChecks struct {
	Database string `json:"database"`
}
