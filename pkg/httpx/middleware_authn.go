package httpx

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"github.com/aussiebroadwan/claimdesk/pkg/jwtx"
	"github.com/aussiebroadwan/claimdesk/pkg/slogx"
)

// TokenVerifier resolves a bearer string to its claims.
type TokenVerifier interface {
	Verify(ctx context.Context, bearer string) (jwtx.Claims, error)
}

// AuthnMiddleware requires a valid bearer token. Errors for which
// isAuthFailure reports true become 401 responses; any other error means
// the verifier could not decide and becomes a 500. A nil isAuthFailure
// treats every error as an authentication failure.
func AuthnMiddleware(v TokenVerifier, isAuthFailure func(error) bool) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			log := slogx.FromContext(ctx)

			raw, ok := BearerToken(r)
			if !ok {
				writeBearerError(w, "missing bearer token")
				return
			}

			claims, err := v.Verify(ctx, raw)
			if err != nil {
				if isAuthFailure == nil || isAuthFailure(err) {
					log.Info("bearer rejected", slog.Any("err", err))
					writeBearerError(w, "the access token is invalid, expired or revoked")
					return
				}
				log.Error("bearer verification errored", slog.Any("err", err))
				writeError(w, http.StatusInternalServerError, "server_error", "internal error")
				return
			}

			ctx = slogx.WithUserID(contextWithAuth(ctx, claims), claims.Subject)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// BearerToken extracts the token from an "Authorization: Bearer" header.
// The scheme is matched case-insensitively.
func BearerToken(r *http.Request) (string, bool) {
	authz := r.Header.Get("Authorization")
	scheme, token, found := strings.Cut(authz, " ")
	if !found || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}

// RFC 6750 invalid_token response.
func writeBearerError(w http.ResponseWriter, desc string) {
	w.Header().Set("WWW-Authenticate", `Bearer error="invalid_token", error_description="`+desc+`"`)
	writeError(w, http.StatusUnauthorized, "invalid_token", desc)
}
