package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/campusiq/campusiq/internal/rbac"
	"github.com/campusiq/campusiq/internal/shared"
)

// PGRepository is the PostgreSQL implementation of Repository.
type PGRepository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a repository.
func NewRepository(pool *pgxpool.Pool) *PGRepository {
	return &PGRepository{pool: pool}
}

const userColumns = `u.user_id, u.email, COALESCE(u.full_name, ''), COALESCE(u.password_hash, ''),
	r.role_code, COALESCE(u.college_id, ''), u.status`

// FindByEmail fetches an account by email, case-insensitive.
func (r *PGRepository) FindByEmail(ctx context.Context, email string) (*User, error) {
	row := r.pool.QueryRow(ctx, fmt.Sprintf(`SELECT %s FROM users u
		JOIN roles r ON u.role_id = r.role_id
		WHERE LOWER(u.email) = LOWER($1) AND u.is_deleted = FALSE`, userColumns), email)
	return scanUser(row)
}

// FindByID fetches an account by id.
func (r *PGRepository) FindByID(ctx context.Context, id string) (*User, error) {
	row := r.pool.QueryRow(ctx, fmt.Sprintf(`SELECT %s FROM users u
		JOIN roles r ON u.role_id = r.role_id
		WHERE u.user_id = $1 AND u.is_deleted = FALSE`, userColumns), id)
	return scanUser(row)
}

// StoreRefreshToken persists the one-way hash of a refresh token.
func (r *PGRepository) StoreRefreshToken(ctx context.Context, tokenID, userID, tokenHash string, expiresAt time.Time) error {
	_, err := r.pool.Exec(ctx, `INSERT INTO refresh_tokens (token_id, user_id, token_hash, expires_at, created_at)
		VALUES ($1, $2, $3, $4, NOW())`, tokenID, userID, tokenHash, expiresAt)
	return err
}

// IsRefreshTokenActive reports whether the hash exists unrevoked for
// the user.
func (r *PGRepository) IsRefreshTokenActive(ctx context.Context, userID, tokenHash string) (bool, error) {
	var count int
	err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM refresh_tokens
		WHERE user_id = $1 AND token_hash = $2 AND is_revoked = FALSE AND expires_at > NOW()`,
		userID, tokenHash).Scan(&count)
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

// RevokeRefreshToken marks the hash revoked. Revocation is terminal;
// nothing ever flips it back.
func (r *PGRepository) RevokeRefreshToken(ctx context.Context, tokenHash string) error {
	_, err := r.pool.Exec(ctx, `UPDATE refresh_tokens SET is_revoked = TRUE, revoked_at = NOW()
		WHERE token_hash = $1 AND is_revoked = FALSE`, tokenHash)
	return err
}

func scanUser(row pgx.Row) (*User, error) {
	var user User
	var role string
	if err := row.Scan(&user.ID, &user.Email, &user.FullName, &user.PasswordHash, &role, &user.CollegeID, &user.Status); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	user.Role = rbac.Role(role)
	return &user, nil
}
