package sqlite

import (
	"context"
	"database/sql"
	"time"

	"github.com/aussiebroadwan/claimdesk/internal/auth/domain"
)

type usersRepo struct {
	db querier
}

const userColumns = `id, email, password_hash, roles, last_login_at, created_at, updated_at`

func scanUser(row interface{ Scan(...any) error }) (domain.User, error) {
	var (
		u         domain.User
		roles     string
		lastLogin sql.NullTime
	)
	if err := row.Scan(&u.ID, &u.Email, &u.PasswordHash, &roles, &lastLogin, &u.CreatedAt, &u.UpdatedAt); err != nil {
		return domain.User{}, mapNotFound(err)
	}
	u.Roles = splitAndFilter(roles)
	if lastLogin.Valid {
		t := lastLogin.Time.UTC()
		u.LastLoginAt = &t
	}
	u.CreatedAt = u.CreatedAt.UTC()
	u.UpdatedAt = u.UpdatedAt.UTC()
	return u, nil
}

func (r *usersRepo) CreateUser(ctx context.Context, u domain.User) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO users (`+userColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?)`,
		u.ID, u.Email, u.PasswordHash, joinFields(u.Roles), nullTime(u.LastLoginAt), u.CreatedAt.UTC(), u.UpdatedAt.UTC(),
	)
	return mapConstraint(err)
}

func (r *usersRepo) GetUserByID(ctx context.Context, id string) (domain.User, error) {
	return scanUser(r.db.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE id = ?`, id))
}

func (r *usersRepo) GetUserByEmail(ctx context.Context, email string) (domain.User, error) {
	return scanUser(r.db.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE email = ?`, email))
}

func (r *usersRepo) UpdatePasswordHash(ctx context.Context, userID, hash string, at time.Time) error {
	return affectedOrNotFound(r.db.ExecContext(ctx,
		`UPDATE users SET password_hash = ?, updated_at = ? WHERE id = ?`,
		hash, at.UTC(), userID,
	))
}

func (r *usersRepo) UpdateLastLogin(ctx context.Context, userID string, at time.Time) error {
	return affectedOrNotFound(r.db.ExecContext(ctx,
		`UPDATE users SET last_login_at = ? WHERE id = ?`,
		at.UTC(), userID,
	))
}

func nullTime(t *time.Time) sql.NullTime {
	if t == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: t.UTC(), Valid: true}
}
