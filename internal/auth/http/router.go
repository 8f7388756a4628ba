package http

import (
	"log/slog"
	"net/http"
	"net/netip"
	"time"

	"github.com/aussiebroadwan/claimdesk/internal/auth/domain"
	"github.com/aussiebroadwan/claimdesk/internal/auth/service"
	"github.com/aussiebroadwan/claimdesk/internal/auth/store"
	"github.com/aussiebroadwan/claimdesk/pkg/devicex"
	"github.com/aussiebroadwan/claimdesk/pkg/httpx"
	"github.com/aussiebroadwan/claimdesk/pkg/slogx"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	_ "github.com/aussiebroadwan/claimdesk/api/auth" // Swagger docs
	httpSwagger "github.com/swaggo/http-swagger"
)

// Router holds shared dependencies for HTTP handlers.
type Router struct {
	Mux         *http.ServeMux
	middlewares []httpx.Middleware

	buildVersion string
	startTime    time.Time
	logger       *slog.Logger
	store        store.Store
	gatherer     prometheus.Gatherer

	UserService      *service.UserService
	IssuerService    *service.IssuerService
	VerifierService  *service.VerifierService
	SingleUseService *service.SingleUseService
	SessionService   *service.SessionService

	Fingerprinter *devicex.Fingerprinter
	Notifier      service.Notifier

	// ExposeResetToken echoes reset tokens in forgot-password responses.
	ExposeResetToken bool

	// TrustedProxies are the peers whose forwarding headers are believed.
	// Empty means the client address is always the direct peer.
	TrustedProxies []netip.Prefix
}

// NewRouter builds a router. gatherer may be nil, in which case /metrics is
// not served.
func NewRouter(
	buildVersion string,
	st store.Store,
	gatherer prometheus.Gatherer,
	logger *slog.Logger,
) *Router {
	r := &Router{
		Mux:          http.NewServeMux(),
		buildVersion: buildVersion,
		startTime:    time.Now(),
		store:        st,
		gatherer:     gatherer,
		logger:       logger,
	}

	r.middlewares = []httpx.Middleware{
		slogx.HTTPMiddleware(r.logger, httpx.ClientIP),
	}

	return r
}

func (r *Router) ApplyRoutes() {
	r.middlewares = append([]httpx.Middleware{httpx.RealIP(r.TrustedProxies)}, r.middlewares...)

	r.registerCredentials()
	r.registerPassword()
	r.registerInvitations()
	r.registerSessions()
	r.registerUsers()
	r.registerSystem()

	r.Mux.Handle("/swagger/", httpSwagger.Handler())
}

// ServeHTTP implements http.Handler for Router and applies the global middleware chain.
//
//	@title			Claimdesk Authentication Service API
//	@version		0.1.0
//	@description	Credential and session lifecycle for the claimdesk platform: registration, login,
//	@description	token refresh, password reset, invitations and per-device sessions.
//	@description
//	@description				Access and refresh tokens are HS256 JWTs backed by a stored credential;
//	@description				revoking the credential invalidates the token immediately.
//
//	@contact.name				AussieBroadWAN Team
//	@contact.url				https://github.com/aussiebroadwan/claimdesk
//
//	@license.name				MIT
//	@license.url				https://opensource.org/licenses/MIT
//
//	@host						localhost:8080
//	@BasePath					/
//
//	@schemes					http https
//
//	@securityDefinitions.apikey	BearerAuth
//	@in							header
//	@name						Authorization
//	@description				Access token. Format: "Bearer {token}".
func (r *Router) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	httpx.Chain(r.Mux, r.middlewares...).ServeHTTP(w, req)
}

func (r *Router) authn() httpx.Middleware {
	return httpx.AuthnMiddleware(r.VerifierService, service.IsAuthenticationFailure)
}

func (r *Router) registerCredentials() {
	h := &CredentialsHandler{
		Users:    r.UserService,
		Issuer:   r.IssuerService,
		Verifier: r.VerifierService,
		Devices:  r.Fingerprinter,
		Notifier: r.Notifier,
	}

	r.Mux.HandleFunc("POST /register", h.HandleRegister)
	r.Mux.HandleFunc("POST /login", h.HandleLogin)
	r.Mux.HandleFunc("POST /refresh_token", h.HandleRefresh)
}

func (r *Router) registerPassword() {
	h := &PasswordHandler{
		Users:            r.UserService,
		SingleUse:        r.SingleUseService,
		Notifier:         r.Notifier,
		ExposeResetToken: r.ExposeResetToken,
	}

	r.Mux.HandleFunc("POST /forgot-password", h.HandleForgot)
	r.Mux.HandleFunc("POST /reset-password", h.HandleReset)
}

func (r *Router) registerInvitations() {
	h := &InvitationHandler{
		Users:     r.UserService,
		SingleUse: r.SingleUseService,
		Notifier:  r.Notifier,
	}

	r.Mux.Handle("POST /invitations", httpx.Chain(h,
		r.authn(),
		httpx.RequireAnyRole(domain.RoleStaff, domain.RoleAdmin),
	))
}

func (r *Router) registerSessions() {
	h := &SessionsHandler{Sessions: r.SessionService}

	r.Mux.Handle("GET /sessions", httpx.Chain(http.HandlerFunc(h.HandleList), r.authn()))
	r.Mux.Handle("DELETE /sessions/{id}", httpx.Chain(http.HandlerFunc(h.HandleRevoke), r.authn()))
	r.Mux.Handle("POST /logout", httpx.Chain(http.HandlerFunc(h.HandleLogout), r.authn()))
}

func (r *Router) registerUsers() {
	h := &MeHandler{Users: r.UserService}

	r.Mux.Handle("GET /me", httpx.Chain(h, r.authn()))
}

func (r *Router) registerSystem() {
	r.Mux.Handle("GET /livez", LivezHandler(r.startTime, r.buildVersion))
	r.Mux.Handle("GET /readyz", ReadyzHandler(r.startTime, r.buildVersion, r.store))

	if r.gatherer != nil {
		r.Mux.Handle("GET /metrics", promhttp.HandlerFor(r.gatherer, promhttp.HandlerOpts{}))
	}
}
