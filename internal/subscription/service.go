package subscription

import (
	"context"
	"fmt"
	"time"

	"github.com/pitchdesk/pitchdesk/internal/logging"
	"github.com/pitchdesk/pitchdesk/internal/metrics"
)

// Service manages the trial lifecycle on top of a Store.
type Service struct {
	store     Store
	trialDays int
	now       func() time.Time
}

// NewService creates a subscription service. trialDays is the length of
// the free trial granted at company creation.
func NewService(store Store, trialDays int) *Service {
	return &Service{store: store, trialDays: trialDays, now: time.Now}
}

// WithClock overrides the time source. For tests.
func (s *Service) WithClock(now func() time.Time) *Service {
	s.now = now
	return s
}

// Store exposes the underlying store for read paths.
func (s *Service) Store() Store {
	return s.store
}

// StartTrial begins a trial on the given plan for a company that has no
// subscription yet. Calling it again for a company with an existing
// subscription is a no-op and returns the existing record.
func (s *Service) StartTrial(ctx context.Context, companyID, planKey string) (*Subscription, error) {
	existing, err := s.store.Get(ctx, companyID)
	if err == nil {
		return existing, nil
	}
	if err != ErrSubscriptionNotFound {
		return nil, fmt.Errorf("check existing subscription: %w", err)
	}

	end := s.now().Add(time.Duration(s.trialDays) * 24 * time.Hour)
	sub := &Subscription{
		CompanyID:        companyID,
		Status:           StatusTrialing,
		PlanKey:          planKey,
		CurrentPeriodEnd: &end,
	}
	if err := s.store.Upsert(ctx, sub); err != nil {
		return nil, fmt.Errorf("start trial: %w", err)
	}

	logging.L(ctx).Info("trial started",
		"company_id", companyID,
		"plan_key", planKey,
		"ends_at", end)
	return sub, nil
}

// SweepResult reports what a trial-expiry sweep saw and changed.
type SweepResult struct {
	OK         bool      `json:"ok"`
	Scanned    int       `json:"scanned"`
	Expired    int       `json:"expired"`
	Updated    int       `json:"updated"`
	CompanyIDs []string  `json:"companyIds"`
	RanAt      time.Time `json:"ranAt"`
}

// SweepExpiredTrials transitions every trial whose period end has
// passed to expired. Safe to run repeatedly: a sweep that finds nothing
// past its end changes nothing.
func (s *Service) SweepExpiredTrials(ctx context.Context) (*SweepResult, error) {
	now := s.now()
	result := &SweepResult{OK: true, CompanyIDs: []string{}, RanAt: now}

	subs, err := s.store.ListTrialsEndedBefore(ctx, now)
	if err != nil {
		return nil, fmt.Errorf("scan trials: %w", err)
	}
	result.Scanned = len(subs)

	for _, sub := range subs {
		if !sub.TrialExpired(now) {
			continue
		}
		result.Expired++

		sub.Status = StatusExpired
		if err := s.store.Upsert(ctx, sub); err != nil {
			logging.L(ctx).Error("trial expiry update failed",
				"company_id", sub.CompanyID,
				"error", err)
			continue
		}
		result.Updated++
		result.CompanyIDs = append(result.CompanyIDs, sub.CompanyID)
		metrics.TrialsExpiredTotal.Inc()
	}

	logging.L(ctx).Info("trial sweep complete",
		"scanned", result.Scanned,
		"expired", result.Expired,
		"updated", result.Updated)
	return result, nil
}
