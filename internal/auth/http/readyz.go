package http

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/aussiebroadwan/claimdesk/pkg/authsdk"
	"github.com/aussiebroadwan/claimdesk/pkg/httpx"
	"github.com/aussiebroadwan/claimdesk/pkg/slogx"
)

// Pinger is the part of the store readiness depends on.
type Pinger interface {
	Ping(ctx context.Context) error
}

const readyzTimeout = 2 * time.Second

// ReadyzHandler godoc
//
//	@Summary		Readiness probe
//	@Description	200 when the credential store answers, 503 otherwise.
//	@Tags			Health
//	@Produce		json
//	@Success		200	{object}	authsdk.HealthResponse	"status, uptime, version, checks"
//	@Failure		503	{object}	authsdk.HealthResponse	"store unreachable"
//	@Router			/readyz [get].
func ReadyzHandler(startTime time.Time, version string, st Pinger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), readyzTimeout)
		defer cancel()

		resp := authsdk.HealthResponse{
			Status:  "ok",
			Uptime:  time.Since(startTime).Round(time.Second).String(),
			Version: version,
			Checks:  &authsdk.HealthChecks{Database: "ok"},
		}
		code := http.StatusOK

		if err := st.Ping(ctx); err != nil {
			slogx.FromContext(ctx).Warn("readiness check failed", slog.Any("err", err))
			resp.Status = "degraded"
			resp.Checks.Database = "unreachable"
			code = http.StatusServiceUnavailable
		}

		httpx.WriteJSON(w, code, resp)
	}
}
