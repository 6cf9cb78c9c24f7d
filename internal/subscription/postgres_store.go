package subscription

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

// PostgresStore is a Postgres-backed Store.
type PostgresStore struct {
	db *sql.DB
}

// NewPostgresStore creates a subscription store backed by the given database.
func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) Get(ctx context.Context, companyID string) (*Subscription, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT company_id, status, plan_key, current_period_end,
		       stripe_subscription_id, created_at, updated_at
		FROM subscriptions WHERE company_id = $1`, companyID)
	return scanSubscriptionRow(row)
}

func (s *PostgresStore) Upsert(ctx context.Context, sub *Subscription) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO subscriptions
			(company_id, status, plan_key, current_period_end,
			 stripe_subscription_id, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, NOW(), NOW())
		ON CONFLICT (company_id) DO UPDATE SET
			status = EXCLUDED.status,
			plan_key = EXCLUDED.plan_key,
			current_period_end = EXCLUDED.current_period_end,
			stripe_subscription_id = EXCLUDED.stripe_subscription_id,
			updated_at = NOW()`,
		sub.CompanyID, sub.Status, sub.PlanKey, sub.CurrentPeriodEnd,
		sub.StripeSubscriptionID)
	if err != nil {
		return fmt.Errorf("upsert subscription: %w", err)
	}
	return nil
}

func (s *PostgresStore) ListTrialsEndedBefore(ctx context.Context, cutoff time.Time) ([]*Subscription, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT company_id, status, plan_key, current_period_end,
		       stripe_subscription_id, created_at, updated_at
		FROM subscriptions
		WHERE status = $1 AND current_period_end IS NOT NULL
		  AND current_period_end <= $2
		ORDER BY company_id`, StatusTrialing, cutoff)
	if err != nil {
		return nil, fmt.Errorf("list expired trials: %w", err)
	}
	defer rows.Close()

	var out []*Subscription
	for rows.Next() {
		sub, err := scanSubscriptionRow(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, sub)
	}
	return out, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanSubscriptionRow(row rowScanner) (*Subscription, error) {
	var sub Subscription
	var periodEnd sql.NullTime
	var stripeID sql.NullString
	err := row.Scan(&sub.CompanyID, &sub.Status, &sub.PlanKey, &periodEnd,
		&stripeID, &sub.CreatedAt, &sub.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrSubscriptionNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scan subscription: %w", err)
	}
	if periodEnd.Valid {
		t := periodEnd.Time
		sub.CurrentPeriodEnd = &t
	}
	sub.StripeSubscriptionID = stripeID.String
	return &sub, nil
}
