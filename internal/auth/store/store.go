package store

import (
	"context"
	"errors"
	"time"

	"github.com/aussiebroadwan/claimdesk/internal/auth/domain"
)

var (
	ErrNotFound      = errors.New("store: not found")
	ErrAlreadyExists = errors.New("store: already exists")
)

// Store is the root data access interface implemented by each driver
// (sqlite, postgres). Repositories hang off it so a transaction can hand out
// the same repositories bound to itself, and so a Tx cannot start another.
type Store interface {
	Users() Users
	Credentials() Credentials

	ApplyMigrations() error

	// Tx starts a read/write transaction. The caller MUST Commit or
	// Rollback the returned Tx.
	Tx(ctx context.Context) (Tx, error)

	// WithTx runs fn in a transaction, committing when fn returns nil and
	// rolling back otherwise. Prefer it over Tx.
	WithTx(ctx context.Context, fn func(tx Tx) error) error

	Close() error
	Ping(ctx context.Context) error
}

// Tx is a transaction-scoped Store. Calling Tx or WithTx on it fails.
type Tx interface {
	Store
	Commit() error
	Rollback() error
}

type Users interface {
	// CreateUser fails with ErrAlreadyExists when the email is taken.
	CreateUser(ctx context.Context, u domain.User) error

	GetUserByID(ctx context.Context, id string) (domain.User, error)

	// GetUserByEmail expects a normalised email.
	GetUserByEmail(ctx context.Context, email string) (domain.User, error)

	UpdatePasswordHash(ctx context.Context, userID, hash string, at time.Time) error
	UpdateLastLogin(ctx context.Context, userID string, at time.Time) error
}

type Credentials interface {
	// CreateCredential fails with ErrAlreadyExists on a duplicate token
	// hash, or when a second single-use credential is inserted for an owner
	// that already has one of that type.
	CreateCredential(ctx context.Context, c domain.Credential) error

	GetCredentialByTokenHash(ctx context.Context, hash string) (domain.Credential, error)
	GetCredentialByID(ctx context.Context, id string) (domain.Credential, error)

	// ListCredentialsByOwner returns every credential of the owner
	// regardless of type or state, oldest first.
	ListCredentialsByOwner(ctx context.Context, ownerID string) ([]domain.Credential, error)

	// RevokeCredential sets revoked_at if it is not already set. Revoking a
	// revoked credential is a no-op; a missing one is ErrNotFound.
	RevokeCredential(ctx context.Context, id string, at time.Time) error

	DeleteCredential(ctx context.Context, id string) error
	DeleteCredentialsByOwnerAndType(ctx context.Context, ownerID string, typ domain.CredentialType) (int64, error)

	// LockOwner serialises writers touching the owner's credentials of typ
	// until the enclosing transaction ends. Outside a transaction it
	// provides no guarantee.
	LockOwner(ctx context.Context, ownerID string, typ domain.CredentialType) error
}
