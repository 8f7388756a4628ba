package service

import (
	"context"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/aussiebroadwan/claimdesk/internal/auth/domain"
	"github.com/aussiebroadwan/claimdesk/internal/auth/store/drivers/sqlite"
	"github.com/aussiebroadwan/claimdesk/pkg/cryptox"
	"github.com/aussiebroadwan/claimdesk/pkg/jwtx"
	"github.com/stretchr/testify/require"
)

const (
	testIssuer = "https://auth.test"
	testSecret = "0123456789abcdef0123456789abcdef"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

type testEnv struct {
	store     *sqlite.Store
	clock     *fakeClock
	users     *UserService
	issuer    *IssuerService
	verifier  *VerifierService
	singleUse *SingleUseService
	sessions  *SessionService
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	return newTestEnvWithPolicy(t, domain.DefaultPolicy())
}

func newTestEnvWithPolicy(t *testing.T, policy domain.Policy) *testEnv {
	t.Helper()

	st, err := sqlite.NewStore(sqlite.FileDSN(filepath.Join(t.TempDir(), "auth.db")))
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })
	require.NoError(t, st.ApplyMigrations())

	clk := &fakeClock{now: time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)}

	signer, err := jwtx.NewHS256Signer([]byte(testSecret))
	require.NoError(t, err)
	jv, err := jwtx.NewHS256Verifier([]byte(testSecret), testIssuer)
	require.NoError(t, err)
	jv.Now = clk.Now

	passwords := cryptox.NewPasswordHasher("test-pepper")

	singleUse := &SingleUseService{
		Store:     st,
		Signer:    signer,
		Verifier:  jv,
		Passwords: passwords,
		Issuer:    testIssuer,
		Policy:    policy,
		Clock:     clk.Now,
	}

	return &testEnv{
		store: st,
		clock: clk,
		users: &UserService{
			Store:       st,
			Passwords:   passwords,
			Invitations: singleUse,
			Clock:       clk.Now,
		},
		issuer: &IssuerService{
			Store:  st,
			Signer: signer,
			Issuer: testIssuer,
			Policy: policy,
			Clock:  clk.Now,
		},
		verifier: &VerifierService{
			Store:    st,
			Verifier: jv,
			Clock:    clk.Now,
		},
		singleUse: singleUse,
		sessions: &SessionService{
			Store: st,
			Clock: clk.Now,
		},
	}
}

func (e *testEnv) register(t *testing.T, email string) domain.User {
	t.Helper()

	u, err := e.users.Register(context.Background(), email, "correct horse battery", "")
	require.NoError(t, err)
	return u
}

func (e *testEnv) credentials(t *testing.T, ownerID string) []domain.Credential {
	t.Helper()

	creds, err := e.store.Credentials().ListCredentialsByOwner(context.Background(), ownerID)
	require.NoError(t, err)
	return creds
}

func countType(creds []domain.Credential, typ domain.CredentialType) int {
	n := 0
	for _, c := range creds {
		if c.Type == typ {
			n++
		}
	}
	return n
}

var (
	deviceA = domain.Device{
		Name:      "Firefox on Linux",
		IP:        "203.0.113.10",
		UserAgent: "Mozilla/5.0 (X11; Linux x86_64; rv:124.0) Gecko/20100101 Firefox/124.0",
	}
	deviceB = domain.Device{
		Name:      "Safari on iOS",
		IP:        "198.51.100.7",
		UserAgent: "Mozilla/5.0 (iPhone; CPU iPhone OS 17_4 like Mac OS X) AppleWebKit/605.1.15 (KHTML, like Gecko) Version/17.4 Mobile/15E148 Safari/604.1",
	}
)
