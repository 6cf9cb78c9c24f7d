package plan

import "context"

// Store provides read access to the plan catalogue.
type Store interface {
	// Get returns a plan by key. Returns ErrPlanNotFound if unknown.
	Get(ctx context.Context, key string) (*Plan, error)

	// List returns all active plans ordered by per-day ceiling.
	List(ctx context.Context) ([]*Plan, error)

	// Upsert inserts or replaces a plan definition.
	Upsert(ctx context.Context, p *Plan) error
}
