// Package entitlement decides whether a company may use the chat
// service right now and at what rate. Decisions are computed fresh per
// request from the subscription, plan, and settings rows.
package entitlement

import (
	"context"
	"errors"

	"github.com/pitchdesk/pitchdesk/internal/company"
	"github.com/pitchdesk/pitchdesk/internal/logging"
	"github.com/pitchdesk/pitchdesk/internal/metrics"
	"github.com/pitchdesk/pitchdesk/internal/plan"
	"github.com/pitchdesk/pitchdesk/internal/subscription"
)

// Denial reasons.
const (
	ReasonPaymentRequired = "payment_required"
	ReasonPlanNotFound    = "plan_not_found"
)

// Absolute bounds on the effective rate ceiling. Ceilings outside this
// range indicate malformed plan or override configuration and are
// clamped rather than trusted.
const (
	MinPerMinute = 1
	MaxPerMinute = 600
	MinPerDay    = 1
	MaxPerDay    = 200000
)

// Limits is the effective request ceiling for a company.
type Limits struct {
	PerMinute int `json:"perMinute"`
	PerDay    int `json:"perDay"`
}

// Decision is the declarative outcome of an entitlement check.
type Decision struct {
	Allowed bool   `json:"allowed"`
	PlanKey string `json:"planKey,omitempty"`
	Limits  Limits `json:"limits,omitempty"`
	Reason  string `json:"reason,omitempty"`
}

// Gate evaluates entitlement decisions.
type Gate struct {
	subs      subscription.Store
	plans     plan.Store
	companies company.Store
}

// NewGate creates an entitlement gate over the given stores.
func NewGate(subs subscription.Store, plans plan.Store, companies company.Store) *Gate {
	return &Gate{subs: subs, plans: plans, companies: companies}
}

// Evaluate decides whether companyID may serve chat now.
//
// A missing or non-entitled subscription, or a missing/inactive plan,
// denies with payment_required. The plan ceiling is clamped into the
// absolute bounds, then tightened per field by the company's override
// (an override can never raise the ceiling). A failed settings lookup
// keeps the plan ceiling: override reads fail open so a transient
// settings outage does not deny an entitled company.
func (g *Gate) Evaluate(ctx context.Context, companyID string) Decision {
	sub, err := g.subs.Get(ctx, companyID)
	if err != nil {
		if !errors.Is(err, subscription.ErrSubscriptionNotFound) {
			logging.L(ctx).Error("subscription lookup failed",
				"company_id", companyID,
				"error", err)
		}
		return deny(ReasonPaymentRequired)
	}
	if sub.PlanKey == "" || !subscription.Entitled(sub.Status) {
		return deny(ReasonPaymentRequired)
	}

	p, err := g.plans.Get(ctx, sub.PlanKey)
	if err != nil || !p.Active {
		if err != nil && !errors.Is(err, plan.ErrPlanNotFound) {
			logging.L(ctx).Error("plan lookup failed",
				"company_id", companyID,
				"plan_key", sub.PlanKey,
				"error", err)
		}
		return deny(ReasonPlanNotFound)
	}

	limits := Limits{
		PerMinute: clamp(p.Entitlements.Limits.PerMinute, MinPerMinute, MaxPerMinute),
		PerDay:    clamp(p.Entitlements.Limits.PerDay, MinPerDay, MaxPerDay),
	}

	comp, err := g.companies.Get(ctx, companyID)
	if err != nil {
		// Fail open on the override only: entitlement stands, the
		// plan ceiling applies unmodified.
		logging.L(ctx).Warn("settings lookup failed, serving at plan ceiling",
			"company_id", companyID,
			"error", err)
	} else {
		override := comp.Settings.RateLimit
		if override.PerMinute > 0 {
			limits.PerMinute = min(limits.PerMinute,
				clamp(override.PerMinute, MinPerMinute, MaxPerMinute))
		}
		if override.PerDay > 0 {
			limits.PerDay = min(limits.PerDay,
				clamp(override.PerDay, MinPerDay, MaxPerDay))
		}
	}

	return Decision{Allowed: true, PlanKey: sub.PlanKey, Limits: limits}
}

func deny(reason string) Decision {
	metrics.EntitlementDenialsTotal.WithLabelValues(reason).Inc()
	return Decision{Allowed: false, Reason: reason}
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
