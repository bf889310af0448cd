// Package db implements the durable, transactional
// account/character/inventory/skill/monster-instance store backed by
// PostgreSQL: pgx/v5 + pgxpool + goose for migrations, with the usual
// begin/defer-rollback/commit transaction shape.
package db

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Store wraps a pgx connection pool and exposes every persistence
// operation the world runtime needs.
type Store struct {
	pool *pgxpool.Pool
}

// New connects to PostgreSQL and returns a Store handle.
func New(ctx context.Context, dsn string) (*Store, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("connecting to database: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("pinging database: %w", err)
	}
	return &Store{pool: pool}, nil
}

// Close closes the underlying connection pool.
func (s *Store) Close() {
	s.pool.Close()
}

// Pool returns the underlying pgx pool, for goose migrations and tests.
func (s *Store) Pool() *pgxpool.Pool {
	return s.pool
}

// HealthCheck reports whether the store can reach the database.
func (s *Store) HealthCheck(ctx context.Context) (bool, string) {
	if err := s.pool.Ping(ctx); err != nil {
		return false, fmt.Sprintf("ping failed: %v", err)
	}
	return true, "ok"
}
