// Package subscription tracks each company's billing state and the
// trial lifecycle. Entitlement decisions read from here; Stripe webhook
// events and the trial-expiry sweep write to it.
package subscription

import (
	"errors"
	"time"
)

// ErrSubscriptionNotFound is returned when a company has no subscription row.
var ErrSubscriptionNotFound = errors.New("subscription: not found")

// Subscription statuses. A company is entitled to serve chat while
// trialing, active, or past_due; past_due keeps serving until the
// billing provider resolves or cancels.
const (
	StatusNone     = "none"
	StatusTrialing = "trialing"
	StatusActive   = "active"
	StatusPastDue  = "past_due"
	StatusExpired  = "expired"
	StatusCanceled = "canceled"
)

// Subscription is a company's billing record. One row per company.
type Subscription struct {
	CompanyID            string     `json:"companyId"`
	Status               string     `json:"status"`
	PlanKey              string     `json:"planKey"`
	CurrentPeriodEnd     *time.Time `json:"currentPeriodEnd,omitempty"`
	StripeSubscriptionID string     `json:"stripeSubscriptionId,omitempty"`
	CreatedAt            time.Time  `json:"createdAt"`
	UpdatedAt            time.Time  `json:"updatedAt"`
}

// Entitled reports whether this subscription status grants service.
func Entitled(status string) bool {
	switch status {
	case StatusActive, StatusTrialing, StatusPastDue:
		return true
	}
	return false
}

// TrialExpired reports whether the subscription is a trial whose period
// end has passed as of now.
func (s *Subscription) TrialExpired(now time.Time) bool {
	if s.Status != StatusTrialing || s.CurrentPeriodEnd == nil {
		return false
	}
	return !s.CurrentPeriodEnd.After(now)
}
