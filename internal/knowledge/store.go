package knowledge

import "context"

// Store persists knowledge chunks per company.
type Store interface {
	// Create stores a new chunk.
	Create(ctx context.Context, chunk *Chunk) error

	// Get returns a chunk scoped to the given company. Returns
	// ErrChunkNotFound for unknown ids or cross-company reads.
	Get(ctx context.Context, companyID, chunkID string) (*Chunk, error)

	// Update replaces a chunk's mutable fields, scoped to the company.
	Update(ctx context.Context, chunk *Chunk) error

	// Delete removes a chunk, scoped to the company.
	Delete(ctx context.Context, companyID, chunkID string) error

	// ListRecent returns up to limit chunks for a company, newest
	// first.
	ListRecent(ctx context.Context, companyID string, limit int) ([]*Chunk, error)

	// Count returns the number of chunks a company has.
	Count(ctx context.Context, companyID string) (int, error)
}
