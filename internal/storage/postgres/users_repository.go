package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/eventease/server/internal/domain/users"
	"github.com/eventease/server/internal/metrics"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

var _ users.Repository = (*UserRepository)(nil)

func (r *UserRepository) queryer() queryer {
	if r.tx != nil {
		return r.tx
	}
	return r.pool
}

func (r *UserRepository) Create(ctx context.Context, params users.CreateParams) (_ users.User, err error) {
	start := time.Now()
	defer func() { metrics.RecordQuery("insert_user", start, err) }()

	row := r.queryer().QueryRow(ctx, `
INSERT INTO users (username, email, password_hash, role)
VALUES ($1, $2, $3, $4)
RETURNING id, username, email, password_hash, role, created_at
`, params.Username, params.Email, params.PasswordHash, params.Role)

	user, err := scanUser(row)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return users.User{}, users.ErrEmailTaken
		}
		return users.User{}, fmt.Errorf("insert user: %w", err)
	}
	return user, nil
}

func (r *UserRepository) GetByID(ctx context.Context, id int64) (_ users.User, err error) {
	start := time.Now()
	defer func() { metrics.RecordQuery("get_user", start, err) }()

	row := r.queryer().QueryRow(ctx, `
SELECT id, username, email, password_hash, role, created_at
  FROM users
 WHERE id = $1
`, id)

	user, err := scanUser(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return users.User{}, users.ErrUserNotFound
		}
		return users.User{}, fmt.Errorf("get user by id: %w", err)
	}
	return user, nil
}

func (r *UserRepository) GetByEmail(ctx context.Context, email string) (_ users.User, err error) {
	start := time.Now()
	defer func() { metrics.RecordQuery("get_user_by_email", start, err) }()

	row := r.queryer().QueryRow(ctx, `
SELECT id, username, email, password_hash, role, created_at
  FROM users
 WHERE email = $1
`, email)

	user, err := scanUser(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return users.User{}, users.ErrUserNotFound
		}
		return users.User{}, fmt.Errorf("get user by email: %w", err)
	}
	return user, nil
}

func (r *UserRepository) UpdateProfile(ctx context.Context, id int64, username, email string) (err error) {
	start := time.Now()
	defer func() { metrics.RecordQuery("update_profile", start, err) }()

	tag, err := r.queryer().Exec(ctx, `
UPDATE users SET username = $2, email = $3 WHERE id = $1
`, id, username, email)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return users.ErrEmailTaken
		}
		return fmt.Errorf("update profile: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return users.ErrUserNotFound
	}
	return nil
}

func (r *UserRepository) UpdatePassword(ctx context.Context, id int64, passwordHash string) (err error) {
	start := time.Now()
	defer func() { metrics.RecordQuery("update_password", start, err) }()

	tag, err := r.queryer().Exec(ctx, `
UPDATE users SET password_hash = $2 WHERE id = $1
`, id, passwordHash)
	if err != nil {
		return fmt.Errorf("update password: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return users.ErrUserNotFound
	}
	return nil
}

func scanUser(row pgx.Row) (users.User, error) {
	var user users.User
	err := row.Scan(
		&user.ID,
		&user.Username,
		&user.Email,
		&user.PasswordHash,
		&user.Role,
		&user.CreatedAt,
	)
	return user, err
}
