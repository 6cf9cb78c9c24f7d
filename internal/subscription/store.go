package subscription

import (
	"context"
	"time"
)

// Store persists subscriptions, keyed by company.
type Store interface {
	// Get returns a company's subscription. Returns
	// ErrSubscriptionNotFound if the company has none.
	Get(ctx context.Context, companyID string) (*Subscription, error)

	// Upsert inserts or replaces a company's subscription row.
	Upsert(ctx context.Context, sub *Subscription) error

	// ListTrialsEndedBefore returns trialing subscriptions whose
	// period end is at or before the cutoff, for the expiry sweep.
	ListTrialsEndedBefore(ctx context.Context, cutoff time.Time) ([]*Subscription, error)
}
