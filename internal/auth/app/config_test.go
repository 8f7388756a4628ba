package app

import (
	"net/netip"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/aussiebroadwan/claimdesk/internal/auth/domain"
	"github.com/aussiebroadwan/claimdesk/pkg/jwtx"
	"github.com/aussiebroadwan/claimdesk/pkg/slogx"
)

var configKeys = []string{
	"CONFIG_PATH", "ENV", "LOG_LEVEL", "LOG_FORMAT", "PORT", "SHUTDOWN_GRACE_PERIOD",
	"AUTH_ISSUER", "AUTH_SIGNING_SECRET", "AUTH_ACCESS_TTL", "AUTH_REFRESH_TTL",
	"AUTH_RESET_TTL", "AUTH_REFRESH_ROTATION", "AUTH_EXPOSE_RESET_TOKEN",
	"AUTH_ADMIN_EMAIL", "AUTH_ADMIN_PASSWORD", "AUTH_STORE_DRIVER",
	"AUTH_DATABASE_FILE", "AUTH_DATABASE_URL", "AUTH_PEPPER_FILE",
	"GEOIP_ENDPOINT", "GEOIP_TIMEOUT", "AUTH_TRUSTED_PROXIES",
}

// clearEnv unsets every config key for the duration of the test.
func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range configKeys {
		t.Setenv(k, "")
		require.NoError(t, os.Unsetenv(k))
	}
}

const secret = "0123456789abcdef0123456789abcdef"

func TestLoadConfigDefaults(t *testing.T) {
	clearEnv(t)

	cfg, err := LoadConfig()
	require.NoError(t, err)
	require.Equal(t, "dev", cfg.Env)
	require.Equal(t, 8080, cfg.Port)
	require.Equal(t, DriverSQLite, cfg.StoreDriver)
	require.Equal(t, "auth.db", cfg.DatabaseFile)
	require.Equal(t, 10*time.Second, cfg.ShutdownGracePeriod)
	require.Equal(t, 500*time.Millisecond, cfg.GeoIPTimeout)
	require.False(t, cfg.ExposeResetToken)
	require.Empty(t, cfg.Proxies())

	require.Equal(t, domain.DefaultPolicy(), cfg.Policy())
}

func TestLoadConfigFromEnv(t *testing.T) {
	clearEnv(t)
	t.Setenv("ENV", "staging")
	t.Setenv("PORT", "9000")
	t.Setenv("AUTH_SIGNING_SECRET", secret)
	t.Setenv("AUTH_ACCESS_TTL", "15m")
	t.Setenv("AUTH_REFRESH_ROTATION", "revoke")
	t.Setenv("AUTH_STORE_DRIVER", "postgres")
	t.Setenv("AUTH_DATABASE_URL", "postgres://auth@db/auth")
	t.Setenv("AUTH_TRUSTED_PROXIES", "10.0.0.0/8,192.0.2.10")

	cfg, err := LoadConfig()
	require.NoError(t, err)
	require.Equal(t, 9000, cfg.Port)
	require.Equal(t, DriverPostgres, cfg.StoreDriver)
	require.Equal(t, []netip.Prefix{
		netip.MustParsePrefix("10.0.0.0/8"),
		netip.MustParsePrefix("192.0.2.10/32"),
	}, cfg.Proxies())

	p := cfg.Policy()
	require.Equal(t, 15*time.Minute, p.AccessTTL)
	require.Equal(t, 7*24*time.Hour, p.RefreshTTL)
	require.Equal(t, domain.RotationRevoke, p.RefreshRotation)
}

func TestLoadConfigFile(t *testing.T) {
	clearEnv(t)

	path := filepath.Join(t.TempDir(), "auth.yaml")
	require.NoError(t, os.WriteFile(path, []byte(strings.Join([]string{
		"env: test",
		"port: 9090",
		"issuer: from-file",
		"database_file: /var/lib/auth.db",
		"",
	}, "\n")), 0o600))
	t.Setenv("CONFIG_PATH", path)
	t.Setenv("AUTH_ISSUER", "from-env")

	cfg, err := LoadConfig()
	require.NoError(t, err)
	require.Equal(t, "test", cfg.Env)
	require.Equal(t, 9090, cfg.Port)
	require.Equal(t, "/var/lib/auth.db", cfg.DatabaseFile)
	require.Equal(t, "from-env", cfg.Issuer, "environment overrides the file")
}

func TestLoadConfigMissingFile(t *testing.T) {
	clearEnv(t)
	t.Setenv("CONFIG_PATH", filepath.Join(t.TempDir(), "missing.yaml"))

	_, err := LoadConfig()
	require.Error(t, err)
}

func TestValidate(t *testing.T) {
	valid := func() Config {
		return Config{
			Env:             "prod",
			Port:            8080,
			SigningSecret:   secret,
			AccessTTL:       time.Hour,
			RefreshTTL:      time.Hour,
			ResetTTL:        time.Hour,
			RefreshRotation: "none",
			StoreDriver:     DriverSQLite,
			DatabaseFile:    "auth.db",
		}
	}
	require.NoError(t, valid().Validate())

	tests := []struct {
		name   string
		mutate func(*Config)
		want   string
	}{
		{"unknown env", func(c *Config) { c.Env = "qa" }, "ENV must be"},
		{"secret required outside dev", func(c *Config) { c.SigningSecret = "" }, "AUTH_SIGNING_SECRET is required"},
		{"short secret", func(c *Config) { c.SigningSecret = "short" }, "at least 32 bytes"},
		{"expose in prod", func(c *Config) { c.ExposeResetToken = true }, "AUTH_EXPOSE_RESET_TOKEN"},
		{"zero ttl", func(c *Config) { c.ResetTTL = 0 }, "AUTH_RESET_TTL must be positive"},
		{"rotation", func(c *Config) { c.RefreshRotation = "sliding" }, "AUTH_REFRESH_ROTATION"},
		{"driver", func(c *Config) { c.StoreDriver = "mysql" }, "AUTH_STORE_DRIVER"},
		{"postgres url", func(c *Config) { c.StoreDriver = DriverPostgres }, "AUTH_DATABASE_URL is required"},
		{"admin pair", func(c *Config) { c.AdminEmail = "root@example.com" }, "must be set together"},
		{"port", func(c *Config) { c.Port = 0 }, "PORT out of range"},
		{"trusted proxies", func(c *Config) { c.TrustedProxies = []string{"10.0.0.0/8", "lb.internal"} }, "AUTH_TRUSTED_PROXIES"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			c := valid()
			tc.mutate(&c)
			err := c.Validate()
			require.Error(t, err)
			require.Contains(t, err.Error(), tc.want)
		})
	}

	t.Run("dev runs without a secret", func(t *testing.T) {
		c := valid()
		c.Env = "dev"
		c.SigningSecret = ""
		c.ExposeResetToken = true
		require.NoError(t, c.Validate())
	})

	t.Run("problems are reported together", func(t *testing.T) {
		c := valid()
		c.Port = -1
		c.StoreDriver = "mysql"
		err := c.Validate()
		require.ErrorContains(t, err, "PORT")
		require.ErrorContains(t, err, "AUTH_STORE_DRIVER")
	})
}

func TestInitSigningKeys(t *testing.T) {
	keys, err := InitSigningKeys(Config{Issuer: "claimdesk-auth"}, slogx.Discard())
	require.NoError(t, err)

	other, err := InitSigningKeys(Config{Issuer: "claimdesk-auth"}, slogx.Discard())
	require.NoError(t, err)

	now := time.Now()
	token, err := keys.Signer.Sign(jwtx.NewClaims("user", "access", "handle", nil, nil, "claimdesk-auth", time.Hour, now))
	require.NoError(t, err)

	_, err = keys.Verifier.Verify(token)
	require.NoError(t, err)
	_, err = other.Verifier.Verify(token)
	require.Error(t, err, "ephemeral secrets differ between processes")

	_, err = InitSigningKeys(Config{Issuer: "x", SigningSecret: "short"}, slogx.Discard())
	require.Error(t, err)
}
