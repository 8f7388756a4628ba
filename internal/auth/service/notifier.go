package service

import (
	"context"
	"log/slog"

	"github.com/aussiebroadwan/claimdesk/internal/auth/domain"
	"github.com/aussiebroadwan/claimdesk/pkg/cryptox"
	"github.com/aussiebroadwan/claimdesk/pkg/slogx"
)

// Notifier tells people about security relevant events. Delivery failures
// are the notifier's problem; callers do not fail requests over them.
type Notifier interface {
	NewDeviceLogin(ctx context.Context, user domain.User, device domain.Device)
	PasswordReset(ctx context.Context, user domain.User, token string)
	Invitation(ctx context.Context, email, token string, sender domain.User)
}

// LogNotifier records notifications in the request log. Tokens are logged
// as fingerprints only.
type LogNotifier struct {
	// Logger overrides the request logger when set.
	Logger *slog.Logger
}

var _ Notifier = LogNotifier{}

func (n LogNotifier) NewDeviceLogin(ctx context.Context, user domain.User, device domain.Device) {
	n.logger(ctx).Info("notify: new device login",
		slog.String("user_id", user.ID),
		slog.String("device", device.Name),
		slog.String("ip", device.IP),
		slog.String("city", device.City),
		slog.String("country", device.Country),
	)
}

func (n LogNotifier) PasswordReset(ctx context.Context, user domain.User, token string) {
	n.logger(ctx).Info("notify: password reset requested",
		slog.String("user_id", user.ID),
		slog.String("token_fp", cryptox.FingerprintToken(token)),
	)
}

func (n LogNotifier) Invitation(ctx context.Context, email, token string, sender domain.User) {
	n.logger(ctx).Info("notify: invitation sent",
		slog.String("sender_id", sender.ID),
		slog.String("invitee", email),
		slog.String("token_fp", cryptox.FingerprintToken(token)),
	)
}

func (n LogNotifier) logger(ctx context.Context) *slog.Logger {
	if n.Logger != nil {
		return n.Logger
	}
	return slogx.FromContext(ctx)
}
