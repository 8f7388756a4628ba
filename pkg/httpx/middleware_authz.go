package httpx

import (
	"net/http"
	"slices"
	"strings"
)

// RequireAnyRole admits callers holding at least one of roles. It must run
// after AuthnMiddleware.
func RequireAnyRole(roles ...string) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			have := RolesFromContext(r.Context())
			for _, want := range roles {
				if slices.Contains(have, want) {
					next.ServeHTTP(w, r)
					return
				}
			}

			w.Header().Set("WWW-Authenticate",
				`Bearer error="insufficient_scope", error_description="requires role `+strings.Join(roles, " or ")+`"`)
			writeError(w, http.StatusForbidden, "insufficient_scope", "requires role "+strings.Join(roles, " or "))
		})
	}
}
