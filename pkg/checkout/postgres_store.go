package checkout

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/authorityengine/billing/pkg/catalog"
	"github.com/authorityengine/billing/pkg/pg"
)

// postgresStore persists intents in the checkout_intents table. Mark is a
// single conditional UPDATE keyed on the source status, which gives the
// atomic pending-only transition the Store contract requires across
// processes.
type postgresStore struct {
	pool *pgxpool.Pool
}

// NewPostgresStore returns a Store backed by the given connection pool.
// Panics if pool is nil.
func NewPostgresStore(pool *pgxpool.Pool) Store {
	if pool == nil {
		panic("checkout: pgx pool is required")
	}
	return &postgresStore{pool: pool}
}

const intentColumns = `session_id, user_id, tier, billing_cycle, currency, payment_status, created_at, updated_at`

func scanIntent(row pgx.Row) (*Intent, error) {
	var intent Intent
	err := row.Scan(
		&intent.SessionID, &intent.UserID, &intent.Tier, &intent.Cycle,
		&intent.Currency, &intent.Status, &intent.CreatedAt, &intent.UpdatedAt,
	)
	if err != nil {
		if pg.IsNotFoundError(err) {
			return nil, ErrIntentNotFound
		}
		return nil, fmt.Errorf("scan checkout intent: %w", err)
	}
	return &intent, nil
}

func (s *postgresStore) Get(ctx context.Context, sessionID string) (*Intent, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT `+intentColumns+` FROM checkout_intents WHERE session_id = $1`, sessionID)
	return scanIntent(row)
}

func (s *postgresStore) Create(ctx context.Context, intent *Intent) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO checkout_intents (`+intentColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		intent.SessionID, intent.UserID, intent.Tier, intent.Cycle,
		intent.Currency, intent.Status, intent.CreatedAt, intent.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert checkout intent: %w", err)
	}
	return nil
}

func (s *postgresStore) Mark(ctx context.Context, sessionID string, from, to Status, now time.Time) (*Intent, bool, error) {
	row := s.pool.QueryRow(ctx, `
		UPDATE checkout_intents SET payment_status = $2, updated_at = $3
		WHERE session_id = $1 AND payment_status = $4
		RETURNING `+intentColumns,
		sessionID, to, now, from,
	)
	intent, err := scanIntent(row)
	if err == nil {
		return intent, true, nil
	}
	if !errors.Is(err, ErrIntentNotFound) {
		return nil, false, err
	}

	// No row transitioned: either the session is unknown or the intent has
	// already left the source status. Re-read to tell the two apart.
	intent, err = s.Get(ctx, sessionID)
	if err != nil {
		return nil, false, err
	}
	return intent, false, nil
}

func (s *postgresStore) ExpirePending(ctx context.Context, userID uuid.UUID, tier catalog.Tier, cycle catalog.BillingCycle, currency catalog.Currency, now time.Time) (int, error) {
	tag, err := s.pool.Exec(ctx, `
		UPDATE checkout_intents SET payment_status = $6, updated_at = $5
		WHERE user_id = $1 AND tier = $2 AND billing_cycle = $3 AND currency = $4
		  AND payment_status = $7`,
		userID, tier, cycle, currency, now, StatusExpired, StatusPending,
	)
	if err != nil {
		return 0, fmt.Errorf("expire pending intents: %w", err)
	}
	return int(tag.RowsAffected()), nil
}
