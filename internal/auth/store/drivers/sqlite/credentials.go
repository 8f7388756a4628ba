package sqlite

import (
	"context"
	"database/sql"
	"time"

	"github.com/aussiebroadwan/claimdesk/internal/auth/domain"
	"github.com/aussiebroadwan/claimdesk/internal/auth/store"
)

type credentialsRepo struct {
	db querier
}

const credentialColumns = `id, token_hash, type, owner_id,
	device_name, ip, user_agent, browser_name, browser_version, os_name, os_version,
	device_type, device_vendor, device_model, city, country, latitude, longitude,
	invitee_email, scopes, expires_at, revoked_at, created_at`

func scanCredential(row interface{ Scan(...any) error }) (domain.Credential, error) {
	var (
		c        domain.Credential
		typ      string
		lat, lon sql.NullFloat64
		scopes   string
		revoked  sql.NullTime
	)
	d := &c.Device
	err := row.Scan(
		&c.ID, &c.TokenHash, &typ, &c.OwnerID,
		&d.Name, &d.IP, &d.UserAgent, &d.BrowserName, &d.BrowserVersion, &d.OSName, &d.OSVersion,
		&d.Type, &d.Vendor, &d.Model, &d.City, &d.Country, &lat, &lon,
		&c.InviteeEmail, &scopes, &c.ExpiresAt, &revoked, &c.CreatedAt,
	)
	if err != nil {
		return domain.Credential{}, mapNotFound(err)
	}

	c.Type = domain.CredentialType(typ)
	c.Scopes = splitAndFilter(scopes)
	c.ExpiresAt = c.ExpiresAt.UTC()
	c.CreatedAt = c.CreatedAt.UTC()
	if lat.Valid {
		d.Latitude = &lat.Float64
	}
	if lon.Valid {
		d.Longitude = &lon.Float64
	}
	if revoked.Valid {
		t := revoked.Time.UTC()
		c.RevokedAt = &t
	}
	return c, nil
}

func nullFloat(f *float64) sql.NullFloat64 {
	if f == nil {
		return sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: *f, Valid: true}
}

func (r *credentialsRepo) CreateCredential(ctx context.Context, c domain.Credential) error {
	d := c.Device
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO credentials (`+credentialColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		c.ID, c.TokenHash, string(c.Type), c.OwnerID,
		d.Name, d.IP, d.UserAgent, d.BrowserName, d.BrowserVersion, d.OSName, d.OSVersion,
		d.Type, d.Vendor, d.Model, d.City, d.Country, nullFloat(d.Latitude), nullFloat(d.Longitude),
		c.InviteeEmail, joinFields(c.Scopes), c.ExpiresAt.UTC(), nullTime(c.RevokedAt), c.CreatedAt.UTC(),
	)
	return mapConstraint(err)
}

func (r *credentialsRepo) GetCredentialByTokenHash(ctx context.Context, hash string) (domain.Credential, error) {
	return scanCredential(r.db.QueryRowContext(ctx,
		`SELECT `+credentialColumns+` FROM credentials WHERE token_hash = ?`, hash))
}

func (r *credentialsRepo) GetCredentialByID(ctx context.Context, id string) (domain.Credential, error) {
	return scanCredential(r.db.QueryRowContext(ctx,
		`SELECT `+credentialColumns+` FROM credentials WHERE id = ?`, id))
}

func (r *credentialsRepo) ListCredentialsByOwner(ctx context.Context, ownerID string) ([]domain.Credential, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+credentialColumns+` FROM credentials WHERE owner_id = ? ORDER BY created_at, id`, ownerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.Credential
	for rows.Next() {
		c, err := scanCredential(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func (r *credentialsRepo) RevokeCredential(ctx context.Context, id string, at time.Time) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE credentials SET revoked_at = ? WHERE id = ? AND revoked_at IS NULL`, at.UTC(), id)
	if err != nil {
		return err
	}
	if n, err := res.RowsAffected(); err != nil || n > 0 {
		return err
	}

	// Nothing updated: already revoked, or no such row.
	var exists int
	err = r.db.QueryRowContext(ctx, `SELECT 1 FROM credentials WHERE id = ?`, id).Scan(&exists)
	return mapNotFound(err)
}

func (r *credentialsRepo) DeleteCredential(ctx context.Context, id string) error {
	return affectedOrNotFound(r.db.ExecContext(ctx, `DELETE FROM credentials WHERE id = ?`, id))
}

func (r *credentialsRepo) DeleteCredentialsByOwnerAndType(ctx context.Context, ownerID string, typ domain.CredentialType) (int64, error) {
	res, err := r.db.ExecContext(ctx,
		`DELETE FROM credentials WHERE owner_id = ? AND type = ?`, ownerID, string(typ))
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// LockOwner is a no-op: transactions begin IMMEDIATE (see FileDSN), so the
// enclosing transaction already holds the database write lock.
func (r *credentialsRepo) LockOwner(context.Context, string, domain.CredentialType) error {
	return nil
}

var _ store.Credentials = (*credentialsRepo)(nil)
