package http

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/aussiebroadwan/claimdesk/internal/auth/service"
	"github.com/aussiebroadwan/claimdesk/pkg/authsdk"
	"github.com/aussiebroadwan/claimdesk/pkg/slogx"
)

// writeServiceError maps service sentinels to responses. Anything it does
// not recognise is logged and becomes a 500.
func writeServiceError(ctx context.Context, w http.ResponseWriter, err error, msg string) {
	switch {
	case service.IsAuthenticationFailure(err):
		authsdk.ErrInvalidToken.WriteError(w)
	case errors.Is(err, service.ErrInvalidOrExpiredToken):
		authsdk.ErrInvalidOrExpiredToken.WriteError(w)
	case errors.Is(err, service.ErrInvalidCredentials):
		authsdk.ErrInvalidCredentials.WriteError(w)
	case errors.Is(err, service.ErrInvalidInput):
		authsdk.NewAPIError(http.StatusBadRequest, authsdk.ErrorCodeInvalidRequest, err.Error()).WriteError(w)
	case errors.Is(err, service.ErrEmailTaken):
		authsdk.ErrEmailTaken.WriteError(w)
	case errors.Is(err, service.ErrForbidden):
		authsdk.ErrForbidden.WriteError(w)
	case errors.Is(err, service.ErrUserNotFound):
		authsdk.ErrUserNotFound.WriteError(w)
	case errors.Is(err, service.ErrCredentialNotFound):
		authsdk.ErrSessionNotFound.WriteError(w)
	case errors.Is(err, service.ErrCredentialNotRevocable):
		authsdk.NewAPIError(http.StatusBadRequest, authsdk.ErrorCodeInvalidRequest, "only access and refresh sessions can be revoked").WriteError(w)
	default:
		slogx.FromContext(ctx).Error(msg, slog.Any("err", err))
		authsdk.ErrServerError.WriteError(w)
	}
}

func writeBadRequest(w http.ResponseWriter, desc string) {
	authsdk.NewAPIError(http.StatusBadRequest, authsdk.ErrorCodeInvalidRequest, desc).WriteError(w)
}
