package billing

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/stripe/stripe-go/v81"
	"github.com/stripe/stripe-go/v81/webhook"

	"github.com/pitchdesk/pitchdesk/internal/logging"
	"github.com/pitchdesk/pitchdesk/internal/metrics"
	"github.com/pitchdesk/pitchdesk/internal/subscription"
)

// ErrUnknownCompany is returned when a Stripe event carries no usable
// company reference.
var ErrUnknownCompany = errors.New("billing: event has no company_id metadata")

// ProcessWebhook verifies the Stripe signature and applies the event.
// Events we do not care about are acknowledged and dropped.
func (s *Service) ProcessWebhook(ctx context.Context, payload []byte, sigHeader string) error {
	event, err := webhook.ConstructEvent(payload, sigHeader, s.cfg.WebhookSecret)
	if err != nil {
		metrics.StripeWebhookTotal.WithLabelValues("invalid", "rejected").Inc()
		return fmt.Errorf("verify webhook signature: %w", err)
	}

	outcome := "ignored"
	defer func() {
		metrics.StripeWebhookTotal.WithLabelValues(string(event.Type), outcome).Inc()
	}()

	switch event.Type {
	case "checkout.session.completed":
		var sess stripe.CheckoutSession
		if err := json.Unmarshal(event.Data.Raw, &sess); err != nil {
			outcome = "error"
			return fmt.Errorf("decode checkout session: %w", err)
		}
		if err := s.applyCheckout(ctx, &sess); err != nil {
			outcome = "error"
			return err
		}
		outcome = "applied"

	case "customer.subscription.created",
		"customer.subscription.updated",
		"customer.subscription.deleted":
		var sub stripe.Subscription
		if err := json.Unmarshal(event.Data.Raw, &sub); err != nil {
			outcome = "error"
			return fmt.Errorf("decode subscription: %w", err)
		}
		if err := s.applySubscription(ctx, &sub, event.Type == "customer.subscription.deleted"); err != nil {
			outcome = "error"
			return err
		}
		outcome = "applied"
	}
	return nil
}

// applyCheckout records the plan purchase when checkout completes.
// The authoritative status and period still come from the
// customer.subscription.* events that follow.
func (s *Service) applyCheckout(ctx context.Context, sess *stripe.CheckoutSession) error {
	companyID := sess.ClientReferenceID
	if companyID == "" {
		return ErrUnknownCompany
	}
	logging.L(ctx).Info("checkout completed",
		"company_id", companyID,
		"session_id", sess.ID)
	return nil
}

func (s *Service) applySubscription(ctx context.Context, sub *stripe.Subscription, deleted bool) error {
	companyID := sub.Metadata["company_id"]
	if companyID == "" {
		return ErrUnknownCompany
	}

	existing, err := s.subs.Get(ctx, companyID)
	if err != nil && !errors.Is(err, subscription.ErrSubscriptionNotFound) {
		return fmt.Errorf("load subscription: %w", err)
	}

	row := &subscription.Subscription{CompanyID: companyID}
	if existing != nil {
		row = existing
	}
	row.StripeSubscriptionID = sub.ID
	row.Status = mapStripeStatus(sub.Status, deleted)
	if key := sub.Metadata["plan_key"]; key != "" {
		row.PlanKey = key
	}
	if sub.CurrentPeriodEnd > 0 {
		end := time.Unix(sub.CurrentPeriodEnd, 0).UTC()
		row.CurrentPeriodEnd = &end
	}

	if err := s.subs.Upsert(ctx, row); err != nil {
		return fmt.Errorf("persist subscription: %w", err)
	}
	logging.L(ctx).Info("subscription synced from stripe",
		"company_id", companyID,
		"plan", row.PlanKey,
		"status", row.Status)
	return nil
}

// mapStripeStatus folds Stripe's subscription lifecycle onto ours.
func mapStripeStatus(s stripe.SubscriptionStatus, deleted bool) string {
	if deleted {
		return subscription.StatusCanceled
	}
	switch s {
	case stripe.SubscriptionStatusActive:
		return subscription.StatusActive
	case stripe.SubscriptionStatusTrialing:
		return subscription.StatusTrialing
	case stripe.SubscriptionStatusPastDue:
		return subscription.StatusPastDue
	case stripe.SubscriptionStatusCanceled, stripe.SubscriptionStatusUnpaid,
		stripe.SubscriptionStatusIncompleteExpired:
		return subscription.StatusCanceled
	default:
		return subscription.StatusExpired
	}
}
