package http

import (
	"time"

	"github.com/aussiebroadwan/claimdesk/internal/auth/domain"
	"github.com/aussiebroadwan/claimdesk/pkg/authsdk"
	"github.com/aussiebroadwan/claimdesk/pkg/cryptox"
)

func tokenResponse(pair domain.IssuedPair) authsdk.TokenResponse {
	return authsdk.TokenResponse{
		AccessToken:      pair.Access.Token,
		RefreshToken:     pair.Refresh.Token,
		TokenType:        "Bearer",
		ExpiresIn:        lifetime(pair.Access.Credential),
		RefreshExpiresIn: lifetime(pair.Refresh.Credential),
	}
}

func lifetime(c domain.Credential) int {
	return int(c.ExpiresAt.Sub(c.CreatedAt) / time.Second)
}

func userResponse(u domain.User) authsdk.UserResponse {
	return authsdk.UserResponse{
		ID:          u.ID,
		Email:       u.Email,
		Roles:       u.Roles,
		LastLoginAt: u.LastLoginAt,
		CreatedAt:   u.CreatedAt,
	}
}

// sessionResponse marks the credential behind currentHandle as current.
func sessionResponse(c domain.Credential, currentHandle string, now time.Time) authsdk.SessionResponse {
	out := authsdk.SessionResponse{
		ID:             c.ID,
		Type:           string(c.Type),
		DeviceName:     c.Device.Name,
		IP:             c.Device.IP,
		UserAgent:      c.Device.UserAgent,
		BrowserName:    c.Device.BrowserName,
		BrowserVersion: c.Device.BrowserVersion,
		OSName:         c.Device.OSName,
		OSVersion:      c.Device.OSVersion,
		DeviceType:     c.Device.Type,
		DeviceVendor:   c.Device.Vendor,
		DeviceModel:    c.Device.Model,
		InviteeEmail:   c.InviteeEmail,
		Scopes:         c.Scopes,
		Current:        currentHandle != "" && cryptox.EqualFingerprints(c.TokenHash, cryptox.FingerprintToken(currentHandle)),
		Revoked:        c.IsRevoked(),
		Expired:        c.IsExpired(now),
		ExpiresAt:      c.ExpiresAt,
		CreatedAt:      c.CreatedAt,
	}
	if c.Device.Latitude != nil && c.Device.Longitude != nil {
		out.Location = &authsdk.Location{
			City:      c.Device.City,
			Country:   c.Device.Country,
			Latitude:  *c.Device.Latitude,
			Longitude: *c.Device.Longitude,
		}
	}
	if out.Scopes == nil {
		out.Scopes = []string{}
	}
	return out
}
