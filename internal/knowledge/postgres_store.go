package knowledge

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

// NewPostgresStore creates a knowledge store backed by the given database.
func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) Create(ctx context.Context, chunk *Chunk) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO knowledge_chunks
			(id, company_id, title, content, source, tags, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, NOW(), NOW())`,
		chunk.ID, chunk.CompanyID, chunk.Title, chunk.Content,
		chunk.Source, pq.Array(chunk.Tags))
	if err != nil {
		return fmt.Errorf("create chunk: %w", err)
	}
	return nil
}

func (s *PostgresStore) Get(ctx context.Context, companyID, chunkID string) (*Chunk, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, company_id, title, content, source, tags, created_at, updated_at
		FROM knowledge_chunks WHERE company_id = $1 AND id = $2`,
		companyID, chunkID)
	return scanChunkRow(row)
}

func (s *PostgresStore) Update(ctx context.Context, chunk *Chunk) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE knowledge_chunks
		SET title = $1, content = $2, source = $3, tags = $4, updated_at = NOW()
		WHERE company_id = $5 AND id = $6`,
		chunk.Title, chunk.Content, chunk.Source, pq.Array(chunk.Tags),
		chunk.CompanyID, chunk.ID)
	if err != nil {
		return fmt.Errorf("update chunk: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update chunk: %w", err)
	}
	if n == 0 {
		return ErrChunkNotFound
	}
	return nil
}

func (s *PostgresStore) Delete(ctx context.Context, companyID, chunkID string) error {
	res, err := s.db.ExecContext(ctx, `
		DELETE FROM knowledge_chunks WHERE company_id = $1 AND id = $2`,
		companyID, chunkID)
	if err != nil {
		return fmt.Errorf("delete chunk: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete chunk: %w", err)
	}
	if n == 0 {
		return ErrChunkNotFound
	}
	return nil
}

func (s *PostgresStore) ListRecent(ctx context.Context, companyID string, limit int) ([]*Chunk, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, company_id, title, content, source, tags, created_at, updated_at
		FROM knowledge_chunks WHERE company_id = $1
		ORDER BY created_at DESC LIMIT $2`, companyID, limit)
	if err != nil {
		return nil, fmt.Errorf("list chunks: %w", err)
	}
	defer rows.Close()

	var out []*Chunk
	for rows.Next() {
		c, err := scanChunkRow(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func (s *PostgresStore) Count(ctx context.Context, companyID string) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM knowledge_chunks WHERE company_id = $1`,
		companyID).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count chunks: %w", err)
	}
	return n, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanChunkRow(row rowScanner) (*Chunk, error) {
	var c Chunk
	var source sql.NullString
	err := row.Scan(&c.ID, &c.CompanyID, &c.Title, &c.Content, &source,
		pq.Array(&c.Tags), &c.CreatedAt, &c.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrChunkNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scan chunk: %w", err)
	}
	c.Source = source.String
	return &c, nil
}
