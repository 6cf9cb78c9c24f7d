package company

import "context"

// Store persists company data.
type Store interface {
	Create(ctx context.Context, c *Company) error
	Get(ctx context.Context, id string) (*Company, error)
	GetBySlug(ctx context.Context, slug string) (*Company, error)
	GetByBookingKey(ctx context.Context, key string) (*Company, error)
	Update(ctx context.Context, c *Company) error
	List(ctx context.Context, limit int) ([]*Company, error)
}
