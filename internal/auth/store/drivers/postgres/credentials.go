package postgres

import (
	"context"
	"time"

	"github.com/aussiebroadwan/claimdesk/internal/auth/domain"
	"github.com/aussiebroadwan/claimdesk/internal/auth/store"
	"github.com/jackc/pgx/v5"
)

type credentialsRepo struct {
	db querier
}

const credentialColumns = `id, token_hash, type, owner_id,
	device_name, ip, user_agent, browser_name, browser_version, os_name, os_version,
	device_type, device_vendor, device_model, city, country, latitude, longitude,
	invitee_email, scopes, expires_at, revoked_at, created_at`

func scanCredential(row pgx.Row) (domain.Credential, error) {
	var (
		c   domain.Credential
		typ string
	)
	d := &c.Device
	err := row.Scan(
		&c.ID, &c.TokenHash, &typ, &c.OwnerID,
		&d.Name, &d.IP, &d.UserAgent, &d.BrowserName, &d.BrowserVersion, &d.OSName, &d.OSVersion,
		&d.Type, &d.Vendor, &d.Model, &d.City, &d.Country, &d.Latitude, &d.Longitude,
		&c.InviteeEmail, &c.Scopes, &c.ExpiresAt, &c.RevokedAt, &c.CreatedAt,
	)
	if err != nil {
		return domain.Credential{}, err
	}
	c.Type = domain.CredentialType(typ)
	c.Scopes = emptyToNil(c.Scopes)
	return c, nil
}

func (r *credentialsRepo) CreateCredential(ctx context.Context, c domain.Credential) error {
	d := c.Device
	_, err := r.db.Exec(ctx,
		`INSERT INTO credentials (`+credentialColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19, $20, $21, $22, $23)`,
		c.ID, c.TokenHash, string(c.Type), c.OwnerID,
		d.Name, d.IP, d.UserAgent, d.BrowserName, d.BrowserVersion, d.OSName, d.OSVersion,
		d.Type, d.Vendor, d.Model, d.City, d.Country, d.Latitude, d.Longitude,
		c.InviteeEmail, nonNil(c.Scopes), c.ExpiresAt, c.RevokedAt, c.CreatedAt,
	)
	return mapErr("postgres.CreateCredential", err)
}

func (r *credentialsRepo) GetCredentialByTokenHash(ctx context.Context, hash string) (domain.Credential, error) {
	c, err := scanCredential(r.db.QueryRow(ctx,
		`SELECT `+credentialColumns+` FROM credentials WHERE token_hash = $1`, hash))
	return c, mapErr("postgres.GetCredentialByTokenHash", err)
}

func (r *credentialsRepo) GetCredentialByID(ctx context.Context, id string) (domain.Credential, error) {
	c, err := scanCredential(r.db.QueryRow(ctx,
		`SELECT `+credentialColumns+` FROM credentials WHERE id = $1`, id))
	return c, mapErr("postgres.GetCredentialByID", err)
}

func (r *credentialsRepo) ListCredentialsByOwner(ctx context.Context, ownerID string) ([]domain.Credential, error) {
	const op = "postgres.ListCredentialsByOwner"

	rows, err := r.db.Query(ctx,
		`SELECT `+credentialColumns+` FROM credentials WHERE owner_id = $1 ORDER BY created_at, id`, ownerID)
	if err != nil {
		return nil, mapErr(op, err)
	}
	defer rows.Close()

	var out []domain.Credential
	for rows.Next() {
		c, err := scanCredential(rows)
		if err != nil {
			return nil, mapErr(op, err)
		}
		out = append(out, c)
	}
	return out, mapErr(op, rows.Err())
}

func (r *credentialsRepo) RevokeCredential(ctx context.Context, id string, at time.Time) error {
	const op = "postgres.RevokeCredential"

	// COALESCE keeps the first revocation time.
	tag, err := r.db.Exec(ctx,
		`UPDATE credentials SET revoked_at = COALESCE(revoked_at, $1) WHERE id = $2`, at, id)
	if err != nil {
		return mapErr(op, err)
	}
	if tag.RowsAffected() == 0 {
		return store.ErrNotFound
	}
	return nil
}

func (r *credentialsRepo) DeleteCredential(ctx context.Context, id string) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM credentials WHERE id = $1`, id)
	if err != nil {
		return mapErr("postgres.DeleteCredential", err)
	}
	if tag.RowsAffected() == 0 {
		return store.ErrNotFound
	}
	return nil
}

func (r *credentialsRepo) DeleteCredentialsByOwnerAndType(ctx context.Context, ownerID string, typ domain.CredentialType) (int64, error) {
	tag, err := r.db.Exec(ctx,
		`DELETE FROM credentials WHERE owner_id = $1 AND type = $2`, ownerID, string(typ))
	if err != nil {
		return 0, mapErr("postgres.DeleteCredentialsByOwnerAndType", err)
	}
	return tag.RowsAffected(), nil
}

// LockOwner takes a transaction-scoped advisory lock keyed on owner and type.
// Concurrent reissues for the same owner queue here, so the
// delete-then-insert that follows never interleaves.
func (r *credentialsRepo) LockOwner(ctx context.Context, ownerID string, typ domain.CredentialType) error {
	_, err := r.db.Exec(ctx,
		`SELECT pg_advisory_xact_lock(hashtextextended($1, 0))`, ownerID+"/"+string(typ))
	return mapErr("postgres.LockOwner", err)
}
