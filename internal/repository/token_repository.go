package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"
)

// ErrRefreshInvalid covers unknown, revoked and expired refresh tokens
// alike so callers cannot tell them apart.
var ErrRefreshInvalid = errors.New("refresh token invalid")

// TokenRepo keeps the refresh_tokens table.  Rows are looked up by the
// SHA-256 of the raw token; the raw value is never stored.
type TokenRepo struct{ DB *sql.DB }

func NewTokenRepo(db *sql.DB) *TokenRepo { return &TokenRepo{DB: db} }

// Issue records a refresh token for userID valid until exp.
func (r *TokenRepo) Issue(ctx context.Context, userID uint64, hash string, exp time.Time) error {
	_, err := r.DB.ExecContext(ctx,
		"INSERT INTO refresh_tokens (user_id, token_hash, expires_at) VALUES (?, ?, ?)",
		userID, hash, exp.UTC())
	return err
}

// Consume revokes a live token and returns its owner.  The conditional
// UPDATE makes a token single use: of two concurrent refreshes with the same
// token only one sees an affected row.
func (r *TokenRepo) Consume(ctx context.Context, hash string) (uint64, error) {
	now := time.Now().UTC()
	res, err := r.DB.ExecContext(ctx,
		`UPDATE refresh_tokens SET revoked_at = ?
		 WHERE token_hash = ? AND revoked_at IS NULL AND expires_at > ?`,
		now, hash, now)
	if err != nil {
		return 0, err
	}
	if n, err := res.RowsAffected(); err != nil {
		return 0, err
	} else if n == 0 {
		return 0, ErrRefreshInvalid
	}

	var userID uint64
	err = r.DB.QueryRowContext(ctx,
		"SELECT user_id FROM refresh_tokens WHERE token_hash = ? LIMIT 1", hash).Scan(&userID)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, ErrRefreshInvalid
	}
	return userID, err
}

// RevokeUser ends every session of userID.
func (r *TokenRepo) RevokeUser(ctx context.Context, userID uint64) error {
	_, err := r.DB.ExecContext(ctx,
		"UPDATE refresh_tokens SET revoked_at = ? WHERE user_id = ? AND revoked_at IS NULL",
		time.Now().UTC(), userID)
	return err
}

// Purge deletes tokens that expired or were revoked before cutoff and
// reports how many rows went.
func (r *TokenRepo) Purge(ctx context.Context, cutoff time.Time) (int64, error) {
	res, err := r.DB.ExecContext(ctx,
		"DELETE FROM refresh_tokens WHERE expires_at < ? OR revoked_at < ?",
		cutoff.UTC(), cutoff.UTC())
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
