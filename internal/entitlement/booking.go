package entitlement

import (
	"context"
	"time"

	"github.com/pitchdesk/pitchdesk/internal/logging"
	"github.com/pitchdesk/pitchdesk/internal/plan"
	"github.com/pitchdesk/pitchdesk/internal/subscription"
)

// Capabilities is the booking surface's entitlement answer. Viewing
// is always allowed; hold and book are gated.
type Capabilities struct {
	CanView bool   `json:"canView"`
	CanHold bool   `json:"canHold"`
	CanBook bool   `json:"canBook"`
	Reason  string `json:"reason,omitempty"`
}

// BookingCapabilities decides what the public scheduling surface may
// do for a company. Hold and book are granted on the top paid tier or
// during a still-running trial. Unlike the override read in Evaluate,
// any lookup failure here fails closed: booking is an external,
// lower-trust surface.
func (g *Gate) BookingCapabilities(ctx context.Context, companyID string) Capabilities {
	sub, err := g.subs.Get(ctx, companyID)
	if err != nil {
		logging.L(ctx).Warn("booking capability lookup failed",
			"company_id", companyID,
			"error", err)
		return Capabilities{CanView: true, Reason: "subscription unavailable"}
	}

	now := time.Now()
	switch {
	case sub.PlanKey == plan.KeyPro && subscription.Entitled(sub.Status):
		return Capabilities{CanView: true, CanHold: true, CanBook: true}
	case sub.Status == subscription.StatusTrialing &&
		sub.CurrentPeriodEnd != nil && sub.CurrentPeriodEnd.After(now):
		return Capabilities{CanView: true, CanHold: true, CanBook: true}
	case sub.Status == subscription.StatusTrialing:
		return Capabilities{CanView: true, Reason: "trial has ended"}
	default:
		return Capabilities{CanView: true, Reason: "booking requires the Pro plan or an active trial"}
	}
}
