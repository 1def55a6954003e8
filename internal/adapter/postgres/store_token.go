package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/Strob0t/rentalmanager/internal/domain/user"
)

const insertRefreshToken = `
	INSERT INTO refresh_tokens (id, user_id, token_hash, expires_at, created_at)
	VALUES ($1, $2, $3, $4, $5)`

func scanRefreshToken(row scannable) (*user.RefreshToken, error) {
	var rt user.RefreshToken
	if err := row.Scan(&rt.ID, &rt.UserID, &rt.TokenHash, &rt.ExpiresAt, &rt.CreatedAt); err != nil {
		return nil, notFoundWrap(err, "get refresh token")
	}
	return &rt, nil
}

func (s *Store) CreateRefreshToken(ctx context.Context, rt *user.RefreshToken) error {
	rt.CreatedAt = time.Now().UTC()
	if _, err := s.pool.Exec(ctx, insertRefreshToken, rt.ID, rt.UserID, rt.TokenHash, rt.ExpiresAt, rt.CreatedAt); err != nil {
		return fmt.Errorf("create refresh token: %w", err)
	}
	return nil
}

func (s *Store) GetRefreshTokenByHash(ctx context.Context, tokenHash string) (*user.RefreshToken, error) {
	return scanRefreshToken(s.pool.QueryRow(ctx, `
		SELECT id, user_id, token_hash, expires_at, created_at
		FROM refresh_tokens WHERE token_hash = $1`, tokenHash))
}

func (s *Store) DeleteRefreshTokensByUser(ctx context.Context, userID string) error {
	if _, err := s.pool.Exec(ctx, `DELETE FROM refresh_tokens WHERE user_id = $1`, userID); err != nil {
		return fmt.Errorf("delete refresh tokens by user: %w", err)
	}
	return nil
}

// DeleteExpiredRefreshTokens removes refresh tokens past their expiry.
func (s *Store) DeleteExpiredRefreshTokens(ctx context.Context) (int64, error) {
	tag, err := s.pool.Exec(ctx, `DELETE FROM refresh_tokens WHERE expires_at < $1`, time.Now().UTC())
	if err != nil {
		return 0, fmt.Errorf("delete expired refresh tokens: %w", err)
	}
	return tag.RowsAffected(), nil
}

// RotateRefreshToken atomically locks the old token by hash, deletes it, and creates
// a new one in a single transaction. The SELECT ... FOR UPDATE prevents concurrent
// rotation of the same token (refresh token replay protection).
func (s *Store) RotateRefreshToken(ctx context.Context, oldTokenHash string, newRT *user.RefreshToken) error {
	return s.inTx(ctx, func(tx pgx.Tx) error {
		oldRT, err := scanRefreshToken(tx.QueryRow(ctx, `
			SELECT id, user_id, token_hash, expires_at, created_at
			FROM refresh_tokens WHERE token_hash = $1 FOR UPDATE`, oldTokenHash))
		if err != nil {
			return fmt.Errorf("lock old token: %w", err)
		}

		if _, err := tx.Exec(ctx, `DELETE FROM refresh_tokens WHERE id = $1`, oldRT.ID); err != nil {
			return fmt.Errorf("delete old refresh token: %w", err)
		}

		newRT.CreatedAt = time.Now().UTC()
		if _, err := tx.Exec(ctx, insertRefreshToken,
			newRT.ID, newRT.UserID, newRT.TokenHash, newRT.ExpiresAt, newRT.CreatedAt); err != nil {
			return fmt.Errorf("create new refresh token: %w", err)
		}
		return nil
	})
}

// --- Access-token revocation list ---

// RevokeToken blacklists an access token by JTI until it would have expired anyway.
func (s *Store) RevokeToken(ctx context.Context, jti string, expiresAt time.Time) error {
	if _, err := s.pool.Exec(ctx,
		`INSERT INTO revoked_tokens (jti, expires_at) VALUES ($1, $2) ON CONFLICT (jti) DO NOTHING`,
		jti, expiresAt); err != nil {
		return fmt.Errorf("revoke token: %w", err)
	}
	return nil
}

func (s *Store) IsTokenRevoked(ctx context.Context, jti string) (bool, error) {
	var revoked bool
	if err := s.pool.QueryRow(ctx,
		`SELECT EXISTS(SELECT 1 FROM revoked_tokens WHERE jti = $1)`, jti).Scan(&revoked); err != nil {
		return false, fmt.Errorf("check token revocation: %w", err)
	}
	return revoked, nil
}

// PurgeExpiredTokens drops revocation entries whose tokens have expired.
func (s *Store) PurgeExpiredTokens(ctx context.Context) (int64, error) {
	tag, err := s.pool.Exec(ctx, `DELETE FROM revoked_tokens WHERE expires_at < $1`, time.Now().UTC())
	if err != nil {
		return 0, fmt.Errorf("purge expired tokens: %w", err)
	}
	return tag.RowsAffected(), nil
}
