package sqlite

import (
	"context"
	"database/sql"

	"github.com/aussiebroadwan/claimdesk/internal/auth/store"
)

type txStore struct {
	tx *sql.Tx
}

func (t *txStore) Commit() error   { return t.tx.Commit() }
func (t *txStore) Rollback() error { return t.tx.Rollback() }

// Close is a no-op; the owning Store keeps the database open.
func (t *txStore) Close() error { return nil }

func (t *txStore) Ping(context.Context) error { return nil }

// Nested transactions are not supported.
func (t *txStore) Tx(context.Context) (store.Tx, error) { return nil, sql.ErrTxDone }

func (t *txStore) WithTx(context.Context, func(tx store.Tx) error) error { return sql.ErrTxDone }

// ApplyMigrations runs on the Store before any transaction exists.
func (t *txStore) ApplyMigrations() error { return nil }

func (t *txStore) Users() store.Users             { return &usersRepo{db: t.tx} }
func (t *txStore) Credentials() store.Credentials { return &credentialsRepo{db: t.tx} }
