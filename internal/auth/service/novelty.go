package service

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/aussiebroadwan/claimdesk/internal/auth/domain"
	"github.com/aussiebroadwan/claimdesk/pkg/slogx"
)

// IsNewDevice reports whether user has never been issued a credential from
// this device. Every credential counts, whatever its type or state, and a
// device is recognised only by an exact (IP, user agent) match.
//
// Known limitation: a user whose IP changes (mobile networks, VPNs) is
// reported as being on a new device even though the browser is the same.
func (s *IssuerService) IsNewDevice(ctx context.Context, user domain.User, device domain.Device) (bool, error) {
	if user.ID == "" {
		return false, ErrMissingUserID
	}

	creds, err := s.Store.Credentials().ListCredentialsByOwner(ctx, user.ID)
	if err != nil {
		return false, fmt.Errorf("list credentials: %w", err)
	}

	for _, c := range creds {
		if c.SameDevice(device.IP, device.UserAgent) {
			return false, nil
		}
	}

	s.Metrics.NewDeviceLogin()
	slogx.FromContext(ctx).Info("new device detected",
		slog.String("user_id", user.ID),
		slog.String("ip", device.IP),
		slog.String("device", device.Name),
		slog.Int("known_credentials", len(creds)),
	)
	return true, nil
}
