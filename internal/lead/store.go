package lead

import "context"

// Store persists leads, scoped by company.
type Store interface {
	// Create stores a new lead.
	Create(ctx context.Context, l *Lead) error

	// Get returns a lead scoped to the company.
	Get(ctx context.Context, companyID, leadID string) (*Lead, error)

	// GetByConversation returns the lead tied to a conversation, if
	// one exists.
	GetByConversation(ctx context.Context, companyID, convID string) (*Lead, error)

	// Update replaces a lead's mutable fields.
	Update(ctx context.Context, l *Lead) error

	// List returns a company's leads ordered by score descending.
	List(ctx context.Context, companyID string, limit int) ([]*Lead, error)
}
