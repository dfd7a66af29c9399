// Package store is the pgx-backed record store: students, period records,
// observation entries, class settings and generation history. The pipeline
// itself never touches the database; it consumes the plain data produced
// here.
package store

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/scolaris/plume/internal/journal"
)

type Store struct {
	pool *pgxpool.Pool

	// defaultSignificance applies to classes that never configured their
	// own threshold.
	defaultSignificance int
}

func New(ctx context.Context, databaseURL string, defaultSignificance int) (*Store, error) {
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("connect to database: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		return nil, fmt.Errorf("ping database: %w", err)
	}
	return &Store{
		pool:                pool,
		defaultSignificance: journal.ClampSignificance(defaultSignificance),
	}, nil
}

func (s *Store) Close() {
	s.pool.Close()
}
