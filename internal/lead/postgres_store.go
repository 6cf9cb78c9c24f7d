package lead

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

// NewPostgresStore creates a lead store backed by the given database.
func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) Create(ctx context.Context, l *Lead) error {
	qual, err := marshalQualification(l.Qualification)
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO leads
			(id, company_id, conversation_id, email, phone, name,
			 qualification, score, stage, assigned_to, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, NOW(), NOW())`,
		l.ID, l.CompanyID, l.ConversationID, l.Email, l.Phone, l.Name,
		qual, l.Score, l.Stage, l.AssignedTo)
	if err != nil {
		return fmt.Errorf("create lead: %w", err)
	}
	return nil
}

func (s *PostgresStore) Get(ctx context.Context, companyID, leadID string) (*Lead, error) {
	row := s.db.QueryRowContext(ctx, leadSelect+`
		WHERE company_id = $1 AND id = $2`, companyID, leadID)
	return scanLeadRow(row)
}

func (s *PostgresStore) GetByConversation(ctx context.Context, companyID, convID string) (*Lead, error) {
	row := s.db.QueryRowContext(ctx, leadSelect+`
		WHERE company_id = $1 AND conversation_id = $2`, companyID, convID)
	return scanLeadRow(row)
}

func (s *PostgresStore) Update(ctx context.Context, l *Lead) error {
	qual, err := marshalQualification(l.Qualification)
	if err != nil {
		return err
	}
	res, err := s.db.ExecContext(ctx, `
		UPDATE leads SET email = $1, phone = $2, name = $3,
			qualification = $4, score = $5, stage = $6,
			assigned_to = $7, updated_at = NOW()
		WHERE company_id = $8 AND id = $9`,
		l.Email, l.Phone, l.Name, qual, l.Score, l.Stage, l.AssignedTo,
		l.CompanyID, l.ID)
	if err != nil {
		return fmt.Errorf("update lead: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update lead: %w", err)
	}
	if n == 0 {
		return ErrLeadNotFound
	}
	return nil
}

func (s *PostgresStore) List(ctx context.Context, companyID string, limit int) ([]*Lead, error) {
	rows, err := s.db.QueryContext(ctx, leadSelect+`
		WHERE company_id = $1
		ORDER BY score DESC, created_at DESC LIMIT $2`, companyID, limit)
	if err != nil {
		return nil, fmt.Errorf("list leads: %w", err)
	}
	defer rows.Close()

	var out []*Lead
	for rows.Next() {
		l, err := scanLeadRow(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, l)
	}
	return out, rows.Err()
}

const leadSelect = `
	SELECT id, company_id, conversation_id, email, phone, name,
	       qualification, score, stage, assigned_to, created_at, updated_at
	FROM leads`

func marshalQualification(q map[string]string) ([]byte, error) {
	if q == nil {
		q = map[string]string{}
	}
	b, err := json.Marshal(q)
	if err != nil {
		return nil, fmt.Errorf("marshal qualification: %w", err)
	}
	return b, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanLeadRow(row rowScanner) (*Lead, error) {
	var l Lead
	var email, phone, name, stage, assigned sql.NullString
	var qual []byte
	err := row.Scan(&l.ID, &l.CompanyID, &l.ConversationID, &email, &phone,
		&name, &qual, &l.Score, &stage, &assigned, &l.CreatedAt, &l.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrLeadNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scan lead: %w", err)
	}
	l.Email = email.String
	l.Phone = phone.String
	l.Name = name.String
	l.Stage = stage.String
	l.AssignedTo = assigned.String
	if len(qual) > 0 {
		if err := json.Unmarshal(qual, &l.Qualification); err != nil {
			return nil, fmt.Errorf("unmarshal qualification: %w", err)
		}
	}
	return &l, nil
}
