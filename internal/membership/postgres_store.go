package membership

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

// PostgresStore is a Postgres-backed Store.
type PostgresStore struct {
	db *sql.DB
}

// NewPostgresStore creates a membership store backed by the given database.
func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) Upsert(ctx context.Context, m *Membership) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO memberships (company_id, user_id, role, created_at, updated_at)
		VALUES ($1, $2, $3, NOW(), NOW())
		ON CONFLICT (company_id, user_id) DO UPDATE SET
			role = EXCLUDED.role,
			updated_at = NOW()`,
		m.CompanyID, m.UserID, m.Role)
	if err != nil {
		return fmt.Errorf("upsert membership: %w", err)
	}
	return nil
}

func (s *PostgresStore) Get(ctx context.Context, companyID, userID string) (*Membership, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT company_id, user_id, role, created_at, updated_at
		FROM memberships WHERE company_id = $1 AND user_id = $2`,
		companyID, userID)
	return scanMembershipRow(row)
}

func (s *PostgresStore) ListByCompany(ctx context.Context, companyID string) ([]*Membership, error) {
	return s.list(ctx, `
		SELECT company_id, user_id, role, created_at, updated_at
		FROM memberships WHERE company_id = $1
		ORDER BY created_at ASC`, companyID)
}

func (s *PostgresStore) ListByUser(ctx context.Context, userID string) ([]*Membership, error) {
	return s.list(ctx, `
		SELECT company_id, user_id, role, created_at, updated_at
		FROM memberships WHERE user_id = $1
		ORDER BY created_at ASC`, userID)
}

func (s *PostgresStore) list(ctx context.Context, query string, arg any) ([]*Membership, error) {
	rows, err := s.db.QueryContext(ctx, query, arg)
	if err != nil {
		return nil, fmt.Errorf("list memberships: %w", err)
	}
	defer rows.Close()

	var out []*Membership
	for rows.Next() {
		m, err := scanMembershipRow(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

func (s *PostgresStore) Delete(ctx context.Context, companyID, userID string) error {
	res, err := s.db.ExecContext(ctx, `
		DELETE FROM memberships WHERE company_id = $1 AND user_id = $2`,
		companyID, userID)
	if err != nil {
		return fmt.Errorf("delete membership: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete membership: %w", err)
	}
	if n == 0 {
		return ErrMembershipNotFound
	}
	return nil
}

func (s *PostgresStore) CreateInvite(ctx context.Context, inv *Invite) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO invites (id, company_id, email, role, token, expires_at, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, NOW())`,
		inv.ID, inv.CompanyID, inv.Email, inv.Role, inv.Token, inv.ExpiresAt)
	if err != nil {
		return fmt.Errorf("create invite: %w", err)
	}
	return nil
}

func (s *PostgresStore) GetInviteByToken(ctx context.Context, token string) (*Invite, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, company_id, email, role, token, expires_at, accepted_at, created_at
		FROM invites WHERE token = $1 AND accepted_at IS NULL`, token)

	var inv Invite
	var accepted sql.NullTime
	err := row.Scan(&inv.ID, &inv.CompanyID, &inv.Email, &inv.Role,
		&inv.Token, &inv.ExpiresAt, &accepted, &inv.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrInviteNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scan invite: %w", err)
	}
	if accepted.Valid {
		t := accepted.Time
		inv.AcceptedAt = &t
	}
	return &inv, nil
}

func (s *PostgresStore) MarkInviteAccepted(ctx context.Context, inviteID string) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE invites SET accepted_at = NOW()
		WHERE id = $1 AND accepted_at IS NULL`, inviteID)
	if err != nil {
		return fmt.Errorf("accept invite: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("accept invite: %w", err)
	}
	if n == 0 {
		return ErrInviteNotFound
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanMembershipRow(row rowScanner) (*Membership, error) {
	var m Membership
	err := row.Scan(&m.CompanyID, &m.UserID, &m.Role, &m.CreatedAt, &m.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrMembershipNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scan membership: %w", err)
	}
	return &m, nil
}
