package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/Strob0t/rentalmanager/internal/domain/user"
)

const userColumns = `id, email, name, password_hash, created_at, updated_at`

func scanUser(row scannable) (user.User, error) {
	var u user.User
	err := row.Scan(&u.ID, &u.Email, &u.Name, &u.PasswordHash, &u.CreatedAt, &u.UpdatedAt)
	return u, err
}

// CreateUser inserts u. An empty u.ID is assigned by the database.
func (s *Store) CreateUser(ctx context.Context, u *user.User) error {
	now := time.Now().UTC()
	u.CreatedAt = now
	u.UpdatedAt = now

	err := s.pool.QueryRow(ctx, `
		INSERT INTO users (id, email, name, password_hash, created_at, updated_at)
		VALUES (COALESCE(NULLIF($1, '')::uuid, gen_random_uuid()), $2, $3, $4, $5, $6)
		RETURNING id`,
		u.ID, u.Email, u.Name, u.PasswordHash, u.CreatedAt, u.UpdatedAt,
	).Scan(&u.ID)
	if err != nil {
		return fmt.Errorf("create user: %w", mapPgError(err))
	}
	return nil
}

func (s *Store) GetUser(ctx context.Context, id string) (*user.User, error) {
	u, err := scanUser(s.pool.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, id))
	if err != nil {
		return nil, notFoundWrap(err, "get user %s", id)
	}
	return &u, nil
}

func (s *Store) GetUserByEmail(ctx context.Context, email string) (*user.User, error) {
	u, err := scanUser(s.pool.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE lower(email) = lower($1)`, email))
	if err != nil {
		return nil, notFoundWrap(err, "get user by email %s", email)
	}
	return &u, nil
}

func (s *Store) ListUsers(ctx context.Context) ([]user.User, error) {
	rows, err := s.pool.Query(ctx, `SELECT `+userColumns+` FROM users ORDER BY created_at`)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	users, err := collect(rows, scanUser)
	if err != nil {
		return nil, fmt.Errorf("scan user: %w", err)
	}
	return users, nil
}

func (s *Store) UpdateUserPassword(ctx context.Context, id, passwordHash string) error {
	tag, err := s.pool.Exec(ctx,
		`UPDATE users SET password_hash = $2, updated_at = $3 WHERE id = $1`,
		id, passwordHash, time.Now().UTC())
	return execExpectOne(tag, err, "update user password %s", id)
}

// InitializeUserData calls the initialize_user_data database function.
func (s *Store) InitializeUserData(ctx context.Context, userID string) error {
	if _, err := s.pool.Exec(ctx, `SELECT initialize_user_data($1::uuid)`, userID); err != nil {
		return fmt.Errorf("initialize user data: %w", mapPgError(err))
	}
	return nil
}
