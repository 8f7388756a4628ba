package postgres

import (
	"context"

	"github.com/aussiebroadwan/claimdesk/internal/auth/store"
	"github.com/jackc/pgx/v5"
)

type txStore struct {
	ctx context.Context
	tx  pgx.Tx
}

func (t *txStore) Commit() error   { return t.tx.Commit(t.ctx) }
func (t *txStore) Rollback() error { return t.tx.Rollback(t.ctx) }

func (t *txStore) Close() error               { return nil }
func (t *txStore) Ping(context.Context) error { return nil }
func (t *txStore) ApplyMigrations() error     { return nil }

func (t *txStore) Tx(context.Context) (store.Tx, error) { return nil, pgx.ErrTxClosed }

func (t *txStore) WithTx(context.Context, func(tx store.Tx) error) error { return pgx.ErrTxClosed }

func (t *txStore) Users() store.Users             { return &usersRepo{db: t.tx} }
func (t *txStore) Credentials() store.Credentials { return &credentialsRepo{db: t.tx} }
