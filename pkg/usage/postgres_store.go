package usage

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/authorityengine/billing/pkg/pg"
)

// postgresStore persists counters in the usage_counters table. The consume
// path is one conditional upsert, so the limit check and the increment are
// atomic at the row level without an explicit lock.
type postgresStore struct {
	pool *pgxpool.Pool
}

// NewPostgresStore returns a counter Store backed by the given pool.
// Panics if pool is nil.
func NewPostgresStore(pool *pgxpool.Pool) Store {
	if pool == nil {
		panic("usage: pgx pool is required")
	}
	return &postgresStore{pool: pool}
}

func (s *postgresStore) Count(ctx context.Context, key Key) (int64, error) {
	var count int64
	err := s.pool.QueryRow(ctx, `
		SELECT count FROM usage_counters
		WHERE user_id = $1 AND period_start = $2 AND resource = $3`,
		key.UserID, key.PeriodStart, key.Resource,
	).Scan(&count)
	if err != nil {
		if pg.IsNotFoundError(err) {
			return 0, nil
		}
		return 0, fmt.Errorf("%w: %w", ErrStoreFailure, err)
	}
	return count, nil
}

func (s *postgresStore) ConsumeIfBelow(ctx context.Context, key Key, n, limit int64) (int64, bool, error) {
	if n > limit {
		// The increment could never fit; skip the write and report the
		// current value.
		count, err := s.Count(ctx, key)
		return count, false, err
	}

	// The WHERE clause on the conflict branch makes the increment
	// conditional on the limit; a denied attempt updates no row and
	// RETURNING yields nothing.
	var count int64
	err := s.pool.QueryRow(ctx, `
		INSERT INTO usage_counters (user_id, period_start, resource, count)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (user_id, period_start, resource)
		DO UPDATE SET count = usage_counters.count + $4
		WHERE usage_counters.count + $4 <= $5
		RETURNING count`,
		key.UserID, key.PeriodStart, key.Resource, n, limit,
	).Scan(&count)
	if err == nil {
		return count, true, nil
	}
	if !pg.IsNotFoundError(err) {
		return 0, false, fmt.Errorf("%w: %w", ErrStoreFailure, err)
	}

	count, cerr := s.Count(ctx, key)
	if cerr != nil {
		return 0, false, cerr
	}
	return count, false, nil
}
