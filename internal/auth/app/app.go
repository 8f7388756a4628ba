package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	httpapi "github.com/aussiebroadwan/claimdesk/internal/auth/http"
	"github.com/aussiebroadwan/claimdesk/internal/auth/metrics"
	"github.com/aussiebroadwan/claimdesk/internal/auth/service"
	"github.com/aussiebroadwan/claimdesk/internal/auth/store"
	"github.com/aussiebroadwan/claimdesk/internal/auth/store/drivers/postgres"
	"github.com/aussiebroadwan/claimdesk/internal/auth/store/drivers/sqlite"
	"github.com/aussiebroadwan/claimdesk/pkg/cryptox"
	"github.com/aussiebroadwan/claimdesk/pkg/devicex"
	"github.com/aussiebroadwan/claimdesk/pkg/slogx"
)

// BuildVersion is overridden at build time via -ldflags "-X".
var BuildVersion = "v0.1.0"

// Application encapsulates the auth service and its dependencies.
type Application struct {
	cfg    Config
	logger *slog.Logger

	db       store.Store
	keys     SigningKeys
	registry *prometheus.Registry
	metrics  *metrics.Metrics

	userService      *service.UserService
	issuerService    *service.IssuerService
	verifierService  *service.VerifierService
	singleUseService *service.SingleUseService
	sessionService   *service.SessionService

	server *http.Server
	router *httpapi.Router
}

// New creates an Application with all dependencies initialised.
func New(ctx context.Context, cfg Config) (*Application, error) {
	app := &Application{
		cfg: cfg,
		logger: slogx.New(slogx.Config{
			Service: "claimdesk-auth",
			Version: BuildVersion,
			Env:     cfg.Env,
			Level:   cfg.LogLevel,
			Format:  cfg.LogFormat,
		}),
	}

	if cfg.ExposeResetToken {
		app.logger.Warn("reset tokens are returned by /forgot-password; do not enable outside development")
	}

	keys, err := InitSigningKeys(cfg, app.logger)
	if err != nil {
		return nil, err
	}
	app.keys = keys

	if err := app.initDatabase(ctx); err != nil {
		return nil, err
	}

	if err := app.initServices(); err != nil {
		_ = app.db.Close()
		return nil, err
	}
	if err := app.bootstrapAdmin(ctx); err != nil {
		_ = app.db.Close()
		return nil, err
	}
	app.initHTTP()

	return app, nil
}

// Run serves HTTP until a shutdown signal arrives or the server fails.
func (app *Application) Run() error {
	app.logger.Info("auth service starting",
		"port", app.cfg.Port,
		"store", app.cfg.StoreDriver,
		"refresh_rotation", app.cfg.RefreshRotation,
	)

	serverErrors := make(chan error, 1)
	go func() {
		serverErrors <- app.server.ListenAndServe()
	}()

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(shutdown)

	select {
	case err := <-serverErrors:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			_ = app.db.Close()
			return fmt.Errorf("server failed: %w", err)
		}
	case sig := <-shutdown:
		app.logger.Info("shutdown signal received", "signal", sig.String())
		if err := app.Shutdown(); err != nil {
			return fmt.Errorf("graceful shutdown failed: %w", err)
		}
	}

	return nil
}

// Shutdown drains in-flight requests and closes the store.
func (app *Application) Shutdown() error {
	app.logger.Info("shutting down auth service")

	ctx, cancel := context.WithTimeout(context.Background(), app.cfg.ShutdownGracePeriod)
	defer cancel()

	if err := app.server.Shutdown(ctx); err != nil {
		app.logger.Error("graceful server shutdown failed", "error", err)
		if err := app.server.Close(); err != nil {
			app.logger.Error("error closing server", "error", err)
		}
	}

	if err := app.db.Close(); err != nil {
		app.logger.Error("error closing database", "error", err)
		return err
	}

	app.logger.Info("auth service stopped")
	return nil
}

func (app *Application) initDatabase(ctx context.Context) error {
	var (
		db  store.Store
		err error
	)
	switch app.cfg.StoreDriver {
	case DriverPostgres:
		db, err = postgres.New(ctx, app.cfg.DatabaseURL)
	default:
		db, err = sqlite.NewStore(sqlite.FileDSN(app.cfg.DatabaseFile))
	}
	if err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}

	if err := db.ApplyMigrations(); err != nil {
		_ = db.Close()
		return fmt.Errorf("failed to apply database migrations: %w", err)
	}
	app.db = db

	app.logger.Info("database migrations applied", "driver", app.cfg.StoreDriver)
	return nil
}

func (app *Application) initServices() error {
	pepper, err := cryptox.LoadOrCreatePepper(app.cfg.PepperFile)
	if err != nil {
		return fmt.Errorf("failed to load pepper: %w", err)
	}
	passwords := cryptox.NewPasswordHasher(pepper)

	app.registry = prometheus.NewRegistry()
	app.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	app.metrics = metrics.New(app.registry)

	policy := app.cfg.Policy()

	app.issuerService = &service.IssuerService{
		Store:   app.db,
		Signer:  app.keys.Signer,
		Issuer:  app.cfg.Issuer,
		Policy:  policy,
		Metrics: app.metrics,
	}
	app.verifierService = &service.VerifierService{
		Store:    app.db,
		Verifier: app.keys.Verifier,
		Metrics:  app.metrics,
	}
	app.singleUseService = &service.SingleUseService{
		Store:     app.db,
		Signer:    app.keys.Signer,
		Verifier:  app.keys.Verifier,
		Passwords: passwords,
		Issuer:    app.cfg.Issuer,
		Policy:    policy,
		Metrics:   app.metrics,
	}
	app.sessionService = &service.SessionService{Store: app.db, Metrics: app.metrics}
	app.userService = &service.UserService{
		Store:       app.db,
		Passwords:   passwords,
		Invitations: app.singleUseService,
	}
	return nil
}

func (app *Application) bootstrapAdmin(ctx context.Context) error {
	if app.cfg.AdminEmail == "" {
		return nil
	}
	ctx = slogx.WithContext(ctx, app.logger)
	user, created, err := app.userService.EnsureAdmin(ctx, app.cfg.AdminEmail, app.cfg.AdminPassword)
	if err != nil {
		return fmt.Errorf("failed to bootstrap admin: %w", err)
	}
	if !created {
		app.logger.Info("admin bootstrap skipped, email already registered", "user_id", user.ID)
	}
	return nil
}

func (app *Application) initHTTP() {
	var geo devicex.GeoResolver = devicex.NopResolver{}
	if app.cfg.GeoIPEndpoint != "" {
		geo = devicex.NewHTTPGeoResolver(app.cfg.GeoIPEndpoint, app.cfg.GeoIPTimeout)
		app.logger.Info("geolocation enabled", "endpoint", app.cfg.GeoIPEndpoint)
	}

	router := httpapi.NewRouter(BuildVersion, app.db, app.registry, app.logger)
	router.UserService = app.userService
	router.IssuerService = app.issuerService
	router.VerifierService = app.verifierService
	router.SingleUseService = app.singleUseService
	router.SessionService = app.sessionService
	router.Fingerprinter = devicex.NewFingerprinter(geo)
	router.Notifier = service.LogNotifier{}
	router.ExposeResetToken = app.cfg.ExposeResetToken
	router.TrustedProxies = app.cfg.Proxies()
	router.ApplyRoutes()
	app.router = router

	app.server = &http.Server{
		Addr:              fmt.Sprintf(":%d", app.cfg.Port),
		Handler:           router,
		ReadHeaderTimeout: 3 * time.Second,
	}
}
