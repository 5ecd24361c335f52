package subscription

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/authorityengine/billing/pkg/catalog"
	"github.com/authorityengine/billing/pkg/pg"
)

// postgresStore persists subscription records in the subscription_records
// table. Update runs inside a transaction holding a row lock
// (SELECT ... FOR UPDATE), and ExpireOverdue is a single conditional UPDATE,
// so both satisfy the Store atomicity contract across processes.
type postgresStore struct {
	pool *pgxpool.Pool
}

// NewPostgresStore returns a Store backed by the given connection pool.
// Panics if pool is nil.
func NewPostgresStore(pool *pgxpool.Pool) Store {
	if pool == nil {
		panic("subscription: pgx pool is required")
	}
	return &postgresStore{pool: pool}
}

const recordColumns = `user_id, tier, status, billing_cycle, currency,
	current_period_start, current_period_end,
	cancel_at_period_end, cancelled_at,
	grace_period_started_at, grace_period_hours,
	payment_method_brand, payment_method_last4,
	created_at, updated_at`

func scanRecord(row pgx.Row) (*Record, error) {
	var (
		rec   Record
		brand *string
		last4 *string
	)
	err := row.Scan(
		&rec.UserID, &rec.Tier, &rec.Status, &rec.BillingCycle, &rec.Currency,
		&rec.CurrentPeriodStart, &rec.CurrentPeriodEnd,
		&rec.CancelAtPeriodEnd, &rec.CancelledAt,
		&rec.GracePeriodStartedAt, &rec.GracePeriodHours,
		&brand, &last4,
		&rec.CreatedAt, &rec.UpdatedAt,
	)
	if err != nil {
		if pg.IsNotFoundError(err) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("scan subscription record: %w", err)
	}
	if brand != nil && last4 != nil {
		rec.PaymentMethod = &PaymentMethod{Brand: *brand, Last4: *last4}
	}
	return &rec, nil
}

func (s *postgresStore) Get(ctx context.Context, userID uuid.UUID) (*Record, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT `+recordColumns+` FROM subscription_records WHERE user_id = $1`, userID)
	return scanRecord(row)
}

func (s *postgresStore) Create(ctx context.Context, rec *Record) error {
	var brand, last4 *string
	if rec.PaymentMethod != nil {
		brand, last4 = &rec.PaymentMethod.Brand, &rec.PaymentMethod.Last4
	}

	_, err := s.pool.Exec(ctx, `
		INSERT INTO subscription_records (`+recordColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)`,
		rec.UserID, rec.Tier, rec.Status, rec.BillingCycle, rec.Currency,
		rec.CurrentPeriodStart, rec.CurrentPeriodEnd,
		rec.CancelAtPeriodEnd, rec.CancelledAt,
		rec.GracePeriodStartedAt, rec.GracePeriodHours,
		brand, last4,
		rec.CreatedAt, rec.UpdatedAt,
	)
	if err != nil {
		if pg.IsDuplicateKeyError(err) {
			return ErrAlreadyExists
		}
		return fmt.Errorf("insert subscription record: %w", err)
	}
	return nil
}

func (s *postgresStore) Update(ctx context.Context, userID uuid.UUID, fn func(*Record) error) (*Record, error) {
	tx, err := s.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return nil, fmt.Errorf("begin update tx: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	row := tx.QueryRow(ctx,
		`SELECT `+recordColumns+` FROM subscription_records WHERE user_id = $1 FOR UPDATE`, userID)
	rec, err := scanRecord(row)
	if err != nil {
		return nil, err
	}

	if err := fn(rec); err != nil {
		return nil, err
	}
	rec.UpdatedAt = time.Now().UTC()

	var brand, last4 *string
	if rec.PaymentMethod != nil {
		brand, last4 = &rec.PaymentMethod.Brand, &rec.PaymentMethod.Last4
	}

	_, err = tx.Exec(ctx, `
		UPDATE subscription_records SET
			tier = $2, status = $3, billing_cycle = $4, currency = $5,
			current_period_start = $6, current_period_end = $7,
			cancel_at_period_end = $8, cancelled_at = $9,
			grace_period_started_at = $10, grace_period_hours = $11,
			payment_method_brand = $12, payment_method_last4 = $13,
			updated_at = $14
		WHERE user_id = $1`,
		rec.UserID, rec.Tier, rec.Status, rec.BillingCycle, rec.Currency,
		rec.CurrentPeriodStart, rec.CurrentPeriodEnd,
		rec.CancelAtPeriodEnd, rec.CancelledAt,
		rec.GracePeriodStartedAt, rec.GracePeriodHours,
		brand, last4,
		rec.UpdatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("update subscription record: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit update tx: %w", err)
	}
	return rec, nil
}

func (s *postgresStore) ExpireOverdue(ctx context.Context, now time.Time) (int, error) {
	// Single conditional statement: the status predicate is evaluated
	// atomically with the write, so records reactivated concurrently are
	// not demoted.
	tag, err := s.pool.Exec(ctx, `
		UPDATE subscription_records SET
			status = $2,
			tier = $3,
			billing_cycle = '',
			cancel_at_period_end = FALSE,
			grace_period_started_at = NULL,
			updated_at = $1
		WHERE status = $4
		  AND grace_period_started_at IS NOT NULL
		  AND grace_period_started_at + make_interval(hours => grace_period_hours) <= $1`,
		now, StatusExpired, catalog.TierFree, StatusPastDue,
	)
	if err != nil {
		return 0, fmt.Errorf("expire overdue records: %w", err)
	}
	return int(tag.RowsAffected()), nil
}
