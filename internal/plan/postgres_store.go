package plan

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
)

// PostgresStore is a Postgres-backed Store.
type PostgresStore struct {
	db *sql.DB
}

// NewPostgresStore creates a plan store backed by the given database.
func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) Get(ctx context.Context, key string) (*Plan, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT key, name, active, entitlements, stripe_price_id
		FROM plans WHERE key = $1`, key)
	return scanPlanRow(row)
}

func (s *PostgresStore) List(ctx context.Context) ([]*Plan, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT key, name, active, entitlements, stripe_price_id
		FROM plans WHERE active
		ORDER BY (entitlements->'limits'->>'perDay')::bigint ASC`)
	if err != nil {
		return nil, fmt.Errorf("list plans: %w", err)
	}
	defer rows.Close()

	var out []*Plan
	for rows.Next() {
		p, err := scanPlanRow(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func (s *PostgresStore) Upsert(ctx context.Context, p *Plan) error {
	ent, err := json.Marshal(p.Entitlements)
	if err != nil {
		return fmt.Errorf("marshal entitlements: %w", err)
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO plans (key, name, active, entitlements, stripe_price_id)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (key) DO UPDATE SET
			name = EXCLUDED.name,
			active = EXCLUDED.active,
			entitlements = EXCLUDED.entitlements,
			stripe_price_id = EXCLUDED.stripe_price_id`,
		p.Key, p.Name, p.Active, ent, p.StripePriceID)
	if err != nil {
		return fmt.Errorf("upsert plan: %w", err)
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanPlanRow(row rowScanner) (*Plan, error) {
	var p Plan
	var ent []byte
	err := row.Scan(&p.Key, &p.Name, &p.Active, &ent, &p.StripePriceID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrPlanNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scan plan: %w", err)
	}
	if err := json.Unmarshal(ent, &p.Entitlements); err != nil {
		return nil, fmt.Errorf("unmarshal entitlements: %w", err)
	}
	return &p, nil
}
