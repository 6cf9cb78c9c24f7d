package webhooks

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/lib/pq"
)

// PostgresStore is a Postgres-backed Store.
type PostgresStore struct {
	db *sql.DB
}

// NewPostgresStore creates an endpoint store backed by the given database.
func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

const endpointColumns = `id, company_id, url, secret, events, active,
	created_at, last_success, last_error`

func (s *PostgresStore) Create(ctx context.Context, ep *Endpoint) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO webhook_endpoints
			(id, company_id, url, secret, events, active, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, NOW())`,
		ep.ID, ep.CompanyID, ep.URL, ep.Secret, pq.Array(ep.Events), ep.Active)
	if err != nil {
		return fmt.Errorf("create endpoint: %w", err)
	}
	return nil
}

func (s *PostgresStore) Get(ctx context.Context, companyID, id string) (*Endpoint, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT `+endpointColumns+`
		FROM webhook_endpoints WHERE company_id = $1 AND id = $2`,
		companyID, id)
	return scanEndpointRow(row)
}

func (s *PostgresStore) ListByCompany(ctx context.Context, companyID string) ([]*Endpoint, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+endpointColumns+`
		FROM webhook_endpoints WHERE company_id = $1
		ORDER BY created_at ASC`, companyID)
	if err != nil {
		return nil, fmt.Errorf("list endpoints: %w", err)
	}
	defer rows.Close()

	var out []*Endpoint
	for rows.Next() {
		ep, err := scanEndpointRow(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, ep)
	}
	return out, rows.Err()
}

func (s *PostgresStore) Update(ctx context.Context, ep *Endpoint) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE webhook_endpoints
		SET url = $1, events = $2, active = $3, last_success = $4, last_error = $5
		WHERE company_id = $6 AND id = $7`,
		ep.URL, pq.Array(ep.Events), ep.Active, ep.LastSuccess,
		nullIfEmpty(ep.LastError), ep.CompanyID, ep.ID)
	if err != nil {
		return fmt.Errorf("update endpoint: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update endpoint: %w", err)
	}
	if n == 0 {
		return ErrEndpointNotFound
	}
	return nil
}

func (s *PostgresStore) Delete(ctx context.Context, companyID, id string) error {
	res, err := s.db.ExecContext(ctx, `
		DELETE FROM webhook_endpoints WHERE company_id = $1 AND id = $2`,
		companyID, id)
	if err != nil {
		return fmt.Errorf("delete endpoint: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete endpoint: %w", err)
	}
	if n == 0 {
		return ErrEndpointNotFound
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanEndpointRow(row rowScanner) (*Endpoint, error) {
	var ep Endpoint
	var lastSuccess sql.NullTime
	var lastError sql.NullString
	err := row.Scan(&ep.ID, &ep.CompanyID, &ep.URL, &ep.Secret,
		pq.Array(&ep.Events), &ep.Active, &ep.CreatedAt,
		&lastSuccess, &lastError)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrEndpointNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scan endpoint: %w", err)
	}
	if lastSuccess.Valid {
		t := lastSuccess.Time
		ep.LastSuccess = &t
	}
	ep.LastError = lastError.String
	return &ep, nil
}

func nullIfEmpty(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
