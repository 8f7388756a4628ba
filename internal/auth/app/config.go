package app

import (
	"errors"
	"fmt"
	"net/netip"
	"os"
	"time"

	"github.com/aussiebroadwan/claimdesk/internal/auth/domain"
	"github.com/aussiebroadwan/claimdesk/pkg/httpx"
	"github.com/aussiebroadwan/claimdesk/pkg/jwtx"
	"github.com/ilyakaznacheev/cleanenv"
)

const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

// Config is read from an optional YAML file named by CONFIG_PATH, with
// environment variables taking precedence over the file.
type Config struct {
	Env                 string        `yaml:"env" env:"ENV" env-default:"dev"`                     // dev, test, staging, prod
	LogLevel            string        `yaml:"log_level" env:"LOG_LEVEL" env-default:"info"`        // debug, info, warn, error
	LogFormat           string        `yaml:"log_format" env:"LOG_FORMAT" env-default:"json"`      // json, text
	Port                int           `yaml:"port" env:"PORT" env-default:"8080"`                  // HTTP listen port
	ShutdownGracePeriod time.Duration `yaml:"shutdown_grace_period" env:"SHUTDOWN_GRACE_PERIOD" env-default:"10s"`

	Issuer string `yaml:"issuer" env:"AUTH_ISSUER" env-default:"claimdesk-auth"`

	// SigningSecret keys HS256 tokens and must be shared by every instance.
	// Required outside dev; dev falls back to a per-process secret.
	SigningSecret string `yaml:"signing_secret" env:"AUTH_SIGNING_SECRET"`

	AccessTTL       time.Duration `yaml:"access_ttl" env:"AUTH_ACCESS_TTL" env-default:"24h"`
	RefreshTTL      time.Duration `yaml:"refresh_ttl" env:"AUTH_REFRESH_TTL" env-default:"168h"`
	ResetTTL        time.Duration `yaml:"reset_ttl" env:"AUTH_RESET_TTL" env-default:"2h"`
	RefreshRotation string        `yaml:"refresh_rotation" env:"AUTH_REFRESH_ROTATION" env-default:"none"` // none, revoke

	// ExposeResetToken returns reset tokens from /forgot-password. Refused
	// in prod.
	ExposeResetToken bool `yaml:"expose_reset_token" env:"AUTH_EXPOSE_RESET_TOKEN" env-default:"false"`

	// AdminEmail and AdminPassword create the first admin account on
	// startup when the email is not yet registered.
	AdminEmail    string `yaml:"admin_email" env:"AUTH_ADMIN_EMAIL"`
	AdminPassword string `yaml:"admin_password" env:"AUTH_ADMIN_PASSWORD"`

	StoreDriver  string `yaml:"store_driver" env:"AUTH_STORE_DRIVER" env-default:"sqlite"` // sqlite, postgres
	DatabaseFile string `yaml:"database_file" env:"AUTH_DATABASE_FILE" env-default:"auth.db"`
	DatabaseURL  string `yaml:"database_url" env:"AUTH_DATABASE_URL"`
	PepperFile   string `yaml:"pepper_file" env:"AUTH_PEPPER_FILE" env-default:"pepper"`

	// GeoIPEndpoint is an ip-api compatible lookup URL; empty disables
	// geolocation.
	GeoIPEndpoint string        `yaml:"geoip_endpoint" env:"GEOIP_ENDPOINT"`
	GeoIPTimeout  time.Duration `yaml:"geoip_timeout" env:"GEOIP_TIMEOUT" env-default:"500ms"`

	// TrustedProxies lists the CIDRs or addresses of reverse proxies whose
	// X-Forwarded-For and X-Real-IP headers are believed. Empty means the
	// direct peer address is used for device checks.
	TrustedProxies []string `yaml:"trusted_proxies" env:"AUTH_TRUSTED_PROXIES" env-separator:","`
}

// LoadConfig reads the configuration and validates it.
func LoadConfig() (Config, error) {
	var cfg Config

	if path := os.Getenv("CONFIG_PATH"); path != "" {
		// ReadConfig overlays the environment on the file.
		if err := cleanenv.ReadConfig(path, &cfg); err != nil {
			return Config{}, fmt.Errorf("read config %q: %w", path, err)
		}
	} else if err := cleanenv.ReadEnv(&cfg); err != nil {
		return Config{}, fmt.Errorf("read config from env: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) IsDev() bool { return c.Env == "dev" || c.Env == "test" }

// Validate reports every problem at once.
func (c Config) Validate() error {
	var errs []error

	switch c.Env {
	case "dev", "test", "staging", "prod":
	default:
		errs = append(errs, fmt.Errorf("ENV must be dev, test, staging or prod, got %q", c.Env))
	}

	switch {
	case c.SigningSecret == "" && !c.IsDev():
		errs = append(errs, errors.New("AUTH_SIGNING_SECRET is required outside dev"))
	case c.SigningSecret != "" && len(c.SigningSecret) < jwtx.MinSecretSize:
		errs = append(errs, fmt.Errorf("AUTH_SIGNING_SECRET must be at least %d bytes", jwtx.MinSecretSize))
	}

	if c.ExposeResetToken && c.Env == "prod" {
		errs = append(errs, errors.New("AUTH_EXPOSE_RESET_TOKEN cannot be enabled in prod"))
	}

	if (c.AdminEmail == "") != (c.AdminPassword == "") {
		errs = append(errs, errors.New("AUTH_ADMIN_EMAIL and AUTH_ADMIN_PASSWORD must be set together"))
	}

	for name, ttl := range map[string]time.Duration{
		"AUTH_ACCESS_TTL":  c.AccessTTL,
		"AUTH_REFRESH_TTL": c.RefreshTTL,
		"AUTH_RESET_TTL":   c.ResetTTL,
	} {
		if ttl <= 0 {
			errs = append(errs, fmt.Errorf("%s must be positive", name))
		}
	}

	if _, err := domain.ParseRefreshRotation(c.RefreshRotation); err != nil {
		errs = append(errs, fmt.Errorf("AUTH_REFRESH_ROTATION: %w", err))
	}

	if _, err := httpx.ParseTrustedProxies(c.TrustedProxies); err != nil {
		errs = append(errs, fmt.Errorf("AUTH_TRUSTED_PROXIES: %w", err))
	}

	switch c.StoreDriver {
	case DriverSQLite:
		if c.DatabaseFile == "" {
			errs = append(errs, errors.New("AUTH_DATABASE_FILE is required for the sqlite driver"))
		}
	case DriverPostgres:
		if c.DatabaseURL == "" {
			errs = append(errs, errors.New("AUTH_DATABASE_URL is required for the postgres driver"))
		}
	default:
		errs = append(errs, fmt.Errorf("AUTH_STORE_DRIVER must be sqlite or postgres, got %q", c.StoreDriver))
	}

	if c.Port <= 0 || c.Port > 65535 {
		errs = append(errs, fmt.Errorf("PORT out of range: %d", c.Port))
	}

	return errors.Join(errs...)
}

// Policy is the credential policy described by c. Call Validate first.
func (c Config) Policy() domain.Policy {
	p := domain.DefaultPolicy()
	p.AccessTTL = c.AccessTTL
	p.RefreshTTL = c.RefreshTTL
	p.ResetTTL = c.ResetTTL
	p.RefreshRotation, _ = domain.ParseRefreshRotation(c.RefreshRotation)
	return p
}

// Proxies is the parsed trusted proxy list. Call Validate first.
func (c Config) Proxies() []netip.Prefix {
	p, _ := httpx.ParseTrustedProxies(c.TrustedProxies)
	return p
}
