package conversation

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/pitchdesk/pitchdesk/internal/pagination"
)

// PostgresStore is a Postgres-backed Store.
type PostgresStore struct {
	db *sql.DB
}

// NewPostgresStore creates a conversation store backed by the given database.
func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) CreateConversation(ctx context.Context, conv *Conversation) error {
	stage := conv.Stage
	if stage == "" {
		stage = "awareness"
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO conversations (id, company_id, stage, created_at, updated_at)
		VALUES ($1, $2, $3, NOW(), NOW())`,
		conv.ID, conv.CompanyID, stage)
	if err != nil {
		return fmt.Errorf("create conversation: %w", err)
	}
	return nil
}

func (s *PostgresStore) GetConversation(ctx context.Context, companyID, convID string) (*Conversation, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, company_id, stage, created_at, updated_at
		FROM conversations WHERE company_id = $1 AND id = $2`,
		companyID, convID)

	var conv Conversation
	err := row.Scan(&conv.ID, &conv.CompanyID, &conv.Stage, &conv.CreatedAt, &conv.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrConversationNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scan conversation: %w", err)
	}
	return &conv, nil
}

func (s *PostgresStore) UpdateStage(ctx context.Context, companyID, convID string, stage string) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE conversations SET stage = $1, updated_at = NOW()
		WHERE company_id = $2 AND id = $3`, stage, companyID, convID)
	if err != nil {
		return fmt.Errorf("update stage: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update stage: %w", err)
	}
	if n == 0 {
		return ErrConversationNotFound
	}
	return nil
}

func (s *PostgresStore) ListConversations(ctx context.Context, companyID string, limit int, after *pagination.Cursor) ([]*Conversation, error) {
	var rows *sql.Rows
	var err error
	if after != nil {
		rows, err = s.db.QueryContext(ctx, `
			SELECT id, company_id, stage, created_at, updated_at
			FROM conversations WHERE company_id = $1
			AND (created_at, id) < ($2, $3)
			ORDER BY created_at DESC, id DESC LIMIT $4`,
			companyID, after.CreatedAt, after.ID, limit)
	} else {
		rows, err = s.db.QueryContext(ctx, `
			SELECT id, company_id, stage, created_at, updated_at
			FROM conversations WHERE company_id = $1
			ORDER BY created_at DESC, id DESC LIMIT $2`, companyID, limit)
	}
	if err != nil {
		return nil, fmt.Errorf("list conversations: %w", err)
	}
	defer rows.Close()

	var out []*Conversation
	for rows.Next() {
		var conv Conversation
		if err := rows.Scan(&conv.ID, &conv.CompanyID, &conv.Stage,
			&conv.CreatedAt, &conv.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan conversation: %w", err)
		}
		out = append(out, &conv)
	}
	return out, rows.Err()
}

func (s *PostgresStore) AppendMessage(ctx context.Context, msg *Message) error {
	res, err := s.db.ExecContext(ctx, `
		INSERT INTO messages (id, conversation_id, company_id, role, content, created_at)
		SELECT $1, $2, $3, $4, $5, NOW()
		WHERE EXISTS (
			SELECT 1 FROM conversations WHERE id = $2 AND company_id = $3
		)`,
		msg.ID, msg.ConversationID, msg.CompanyID, msg.Role, msg.Content)
	if err != nil {
		return fmt.Errorf("append message: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("append message: %w", err)
	}
	if n == 0 {
		return ErrConversationNotFound
	}
	return nil
}

func (s *PostgresStore) ListMessages(ctx context.Context, companyID, convID string) ([]*Message, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, conversation_id, company_id, role, content, created_at
		FROM messages WHERE company_id = $1 AND conversation_id = $2
		ORDER BY created_at ASC`, companyID, convID)
	if err != nil {
		return nil, fmt.Errorf("list messages: %w", err)
	}
	defer rows.Close()

	var out []*Message
	for rows.Next() {
		var m Message
		if err := rows.Scan(&m.ID, &m.ConversationID, &m.CompanyID,
			&m.Role, &m.Content, &m.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan message: %w", err)
		}
		out = append(out, &m)
	}
	return out, rows.Err()
}
