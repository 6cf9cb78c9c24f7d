package company

import (
	"context"
	"database/sql"
	"encoding/json"

	"github.com/lib/pq"
)

// PostgresStore persists companies in PostgreSQL.
type PostgresStore struct {
	db *sql.DB
}

// NewPostgresStore creates a new PostgreSQL-backed company store.
func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

const companyColumns = `id, name, slug, stripe_customer_id, status, settings, created_at, updated_at`

func (p *PostgresStore) Create(ctx context.Context, c *Company) error {
	settingsJSON, err := json.Marshal(c.Settings)
	if err != nil {
		return err
	}
	_, err = p.db.ExecContext(ctx, `
		INSERT INTO companies (id, name, slug, stripe_customer_id, status, settings, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		c.ID, c.Name, c.Slug, c.StripeCustomerID, string(c.Status),
		settingsJSON, c.CreatedAt, c.UpdatedAt,
	)
	if err != nil {
		if pqErr, ok := err.(*pq.Error); ok && pqErr.Code == "23505" {
			return ErrSlugTaken
		}
		return err
	}
	return nil
}

func (p *PostgresStore) Get(ctx context.Context, id string) (*Company, error) {
	return p.scanCompany(p.db.QueryRowContext(ctx, `
		SELECT `+companyColumns+` FROM companies WHERE id = $1`, id))
}

func (p *PostgresStore) GetBySlug(ctx context.Context, slug string) (*Company, error) {
	return p.scanCompany(p.db.QueryRowContext(ctx, `
		SELECT `+companyColumns+` FROM companies WHERE slug = $1`, slug))
}

func (p *PostgresStore) GetByBookingKey(ctx context.Context, key string) (*Company, error) {
	if key == "" {
		return nil, ErrCompanyNotFound
	}
	return p.scanCompany(p.db.QueryRowContext(ctx, `
		SELECT `+companyColumns+` FROM companies
		WHERE settings->>'publicBookingKey' = $1`, key))
}

func (p *PostgresStore) Update(ctx context.Context, c *Company) error {
	settingsJSON, err := json.Marshal(c.Settings)
	if err != nil {
		return err
	}
	result, err := p.db.ExecContext(ctx, `
		UPDATE companies SET name = $1, stripe_customer_id = $2, status = $3,
			settings = $4, updated_at = $5
		WHERE id = $6`,
		c.Name, c.StripeCustomerID, string(c.Status),
		settingsJSON, c.UpdatedAt, c.ID,
	)
	if err != nil {
		return err
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return ErrCompanyNotFound
	}
	return nil
}

func (p *PostgresStore) List(ctx context.Context, limit int) ([]*Company, error) {
	if limit <= 0 {
		limit = 100
	}
	rows, err := p.db.QueryContext(ctx, `
		SELECT `+companyColumns+` FROM companies
		ORDER BY created_at DESC LIMIT $1`, limit)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var out []*Company
	for rows.Next() {
		c, err := p.scanCompanyRow(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func (p *PostgresStore) scanCompany(row *sql.Row) (*Company, error) {
	c, err := p.scanCompanyRow(row)
	if err == sql.ErrNoRows {
		return nil, ErrCompanyNotFound
	}
	return c, err
}

func (p *PostgresStore) scanCompanyRow(row rowScanner) (*Company, error) {
	c := &Company{}
	var (
		status       string
		stripeID     sql.NullString
		settingsJSON []byte
	)
	err := row.Scan(&c.ID, &c.Name, &c.Slug, &stripeID, &status, &settingsJSON,
		&c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		return nil, err
	}
	c.Status = Status(status)
	if stripeID.Valid {
		c.StripeCustomerID = stripeID.String
	}
	if len(settingsJSON) > 0 {
		_ = json.Unmarshal(settingsJSON, &c.Settings)
	}
	return c, nil
}

// Migrate creates the companies table (used in dev/test; prod uses migration files).
func (p *PostgresStore) Migrate(ctx context.Context) error {
	_, err := p.db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS companies (
			id                 TEXT PRIMARY KEY,
			name               TEXT NOT NULL,
			slug               TEXT NOT NULL UNIQUE,
			stripe_customer_id TEXT,
			status             TEXT NOT NULL DEFAULT 'active',
			settings           JSONB NOT NULL DEFAULT '{}',
			created_at         TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			updated_at         TIMESTAMPTZ NOT NULL DEFAULT NOW()
		);
		CREATE INDEX IF NOT EXISTS idx_companies_slug ON companies(slug);
		CREATE INDEX IF NOT EXISTS idx_companies_booking_key ON companies((settings->>'publicBookingKey'));
	`)
	return err
}

var _ Store = (*PostgresStore)(nil)
