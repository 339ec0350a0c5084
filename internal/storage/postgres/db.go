package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Repository is the facade over the connection pool. Each entity repository
// runs against the pool, or against the transaction when obtained through
// WithTx.
type Repository struct {
	pool *pgxpool.Pool
	tx   pgx.Tx
}

func NewRepository(pool *pgxpool.Pool) (*Repository, error) {
	if pool == nil {
		return nil, fmt.Errorf("postgres repository: pool is nil")
	}
	return &Repository{pool: pool}, nil
}

func (r *Repository) Users() *UserRepository {
	return &UserRepository{pool: r.pool, tx: r.tx}
}

func (r *Repository) Events() *EventRepository {
	return &EventRepository{pool: r.pool, tx: r.tx}
}

func (r *Repository) Registrations() *RegistrationRepository {
	return &RegistrationRepository{repo: r}
}

func (r *Repository) WithTx(ctx context.Context, fn func(context.Context, *Repository) error) error {
	if r.tx != nil {
		return fn(ctx, r)
	}

	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}

	wrapped := &Repository{pool: r.pool, tx: tx}
	if err := fn(ctx, wrapped); err != nil {
		_ = tx.Rollback(ctx)
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}

type UserRepository struct {
	pool *pgxpool.Pool
	tx   pgx.Tx
}

type EventRepository struct {
	pool *pgxpool.Pool
	tx   pgx.Tx
}

type RegistrationRepository struct {
	repo *Repository
}

type queryer interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}
