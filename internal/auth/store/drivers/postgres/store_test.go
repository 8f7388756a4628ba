package postgres

import (
	"context"
	"fmt"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/aussiebroadwan/claimdesk/internal/auth/domain"
	"github.com/aussiebroadwan/claimdesk/internal/auth/store"
	"github.com/aussiebroadwan/claimdesk/pkg/cryptox"
	"github.com/aussiebroadwan/claimdesk/pkg/idx"
	"github.com/stretchr/testify/require"
	tc "github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

// Integration tests against a real PostgreSQL started with testcontainers.
//
//	GO_TEST_INTEGRATION=1 go test ./internal/auth/store/drivers/postgres -count=1
func startPostgres(t *testing.T) *Store {
	t.Helper()
	if os.Getenv("GO_TEST_INTEGRATION") == "" {
		t.Skip("integration tests are disabled (set GO_TEST_INTEGRATION=1)")
	}

	ctx := context.Background()
	c, err := tc.GenericContainer(ctx, tc.GenericContainerRequest{
		ContainerRequest: tc.ContainerRequest{
			Image:        "postgres:16-alpine",
			Env:          map[string]string{"POSTGRES_USER": "auth", "POSTGRES_PASSWORD": "auth", "POSTGRES_DB": "auth"},
			ExposedPorts: []string{"5432/tcp"},
			WaitingFor: wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60 * time.Second),
		},
		Started: true,
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = c.Terminate(context.Background()) })

	host, err := c.Host(ctx)
	require.NoError(t, err)
	port, err := c.MappedPort(ctx, "5432/tcp")
	require.NoError(t, err)

	s, err := New(ctx, fmt.Sprintf("postgres://auth:auth@%s:%s/auth?sslmode=disable", host, port.Port()))
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })

	require.NoError(t, s.ApplyMigrations())
	return s
}

func seedUser(t *testing.T, s *Store, email string) domain.User {
	t.Helper()

	now := time.Now().UTC().Truncate(time.Microsecond)
	u := domain.User{
		ID:           idx.New().String(),
		Email:        email,
		PasswordHash: "$argon2id$stub",
		Roles:        []string{domain.RoleStaff},
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	require.NoError(t, s.Users().CreateUser(context.Background(), u))
	return u
}

func newCredential(ownerID string, typ domain.CredentialType) domain.Credential {
	now := time.Now().UTC().Truncate(time.Microsecond)
	return domain.Credential{
		ID:        idx.New().String(),
		TokenHash: cryptox.FingerprintToken(idx.New().String()),
		Type:      typ,
		OwnerID:   ownerID,
		Device:    domain.Device{IP: "10.0.0.1", UserAgent: "UA"},
		Scopes:    domain.ScopesFor(typ),
		ExpiresAt: now.Add(time.Hour),
		CreatedAt: now,
	}
}

func TestPostgresStore(t *testing.T) {
	s := startPostgres(t)
	ctx := context.Background()

	u := seedUser(t, s, "Alice@Example.com")

	t.Run("users", func(t *testing.T) {
		got, err := s.Users().GetUserByEmail(ctx, "alice@example.com")
		require.NoError(t, err)
		require.Equal(t, u.ID, got.ID)
		require.Equal(t, []string{domain.RoleStaff}, got.Roles)

		dup := u
		dup.ID = idx.New().String()
		dup.Email = "alice@EXAMPLE.com"
		require.ErrorIs(t, s.Users().CreateUser(ctx, dup), store.ErrAlreadyExists)

		_, err = s.Users().GetUserByID(ctx, "missing")
		require.ErrorIs(t, err, store.ErrNotFound)
	})

	t.Run("credentials", func(t *testing.T) {
		lat := 1.5
		c := newCredential(u.ID, domain.CredentialAccess)
		c.Device.Latitude = &lat
		require.NoError(t, s.Credentials().CreateCredential(ctx, c))

		got, err := s.Credentials().GetCredentialByTokenHash(ctx, c.TokenHash)
		require.NoError(t, err)
		require.Equal(t, c.ID, got.ID)
		require.Equal(t, []string{"read", "write"}, got.Scopes)
		require.NotNil(t, got.Device.Latitude)
		require.Nil(t, got.Device.Longitude)
		require.Nil(t, got.RevokedAt)

		at := time.Now().UTC()
		require.NoError(t, s.Credentials().RevokeCredential(ctx, c.ID, at))
		require.NoError(t, s.Credentials().RevokeCredential(ctx, c.ID, at.Add(time.Hour)))
		got, err = s.Credentials().GetCredentialByID(ctx, c.ID)
		require.NoError(t, err)
		require.WithinDuration(t, at, *got.RevokedAt, time.Millisecond)

		require.ErrorIs(t, s.Credentials().RevokeCredential(ctx, "missing", at), store.ErrNotFound)
	})

	t.Run("single use index", func(t *testing.T) {
		require.NoError(t, s.Credentials().CreateCredential(ctx, newCredential(u.ID, domain.CredentialInvitation)))
		require.ErrorIs(t,
			s.Credentials().CreateCredential(ctx, newCredential(u.ID, domain.CredentialInvitation)),
			store.ErrAlreadyExists)
	})

	t.Run("locked reissue", func(t *testing.T) {
		const workers = 8

		var wg sync.WaitGroup
		errs := make(chan error, workers)
		for range workers {
			wg.Add(1)
			go func() {
				defer wg.Done()
				errs <- s.WithTx(ctx, func(tx store.Tx) error {
					if err := tx.Credentials().LockOwner(ctx, u.ID, domain.CredentialResetPassword); err != nil {
						return err
					}
					if _, err := tx.Credentials().DeleteCredentialsByOwnerAndType(ctx, u.ID, domain.CredentialResetPassword); err != nil {
						return err
					}
					return tx.Credentials().CreateCredential(ctx, newCredential(u.ID, domain.CredentialResetPassword))
				})
			}()
		}
		wg.Wait()
		close(errs)
		for err := range errs {
			require.NoError(t, err)
		}

		all, err := s.Credentials().ListCredentialsByOwner(ctx, u.ID)
		require.NoError(t, err)
		var resets int
		for _, c := range all {
			if c.Type == domain.CredentialResetPassword {
				resets++
			}
		}
		require.Equal(t, 1, resets)
	})
}
