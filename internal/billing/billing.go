// Package billing integrates Stripe: checkout for plan purchase, the
// customer portal, and the webhook that keeps subscription rows in
// sync with Stripe's view of the world.
package billing

import (
	"context"
	"errors"
	"fmt"

	"github.com/stripe/stripe-go/v81"
	bpsession "github.com/stripe/stripe-go/v81/billingportal/session"
	"github.com/stripe/stripe-go/v81/checkout/session"
	"github.com/stripe/stripe-go/v81/customer"

	"github.com/pitchdesk/pitchdesk/internal/company"
	"github.com/pitchdesk/pitchdesk/internal/logging"
	"github.com/pitchdesk/pitchdesk/internal/plan"
	"github.com/pitchdesk/pitchdesk/internal/subscription"
)

// ErrPlanNotPurchasable is returned for plans without a Stripe price.
var ErrPlanNotPurchasable = errors.New("billing: plan has no price configured")

// Config carries the Stripe credentials and redirect target.
type Config struct {
	SecretKey     string
	WebhookSecret string
	ReturnURL     string
}

// Service talks to Stripe and writes subscription state.
type Service struct {
	cfg       Config
	companies company.Store
	subs      subscription.Store
	plans     plan.Store
}

// NewService creates a billing service and sets the global Stripe key.
func NewService(cfg Config, companies company.Store, subs subscription.Store, plans plan.Store) *Service {
	stripe.Key = cfg.SecretKey
	return &Service{cfg: cfg, companies: companies, subs: subs, plans: plans}
}

// Enabled reports whether Stripe credentials are configured.
func (s *Service) Enabled() bool {
	return s != nil && s.cfg.SecretKey != ""
}

// CreateCheckoutSession starts a Stripe Checkout for the given plan
// and returns the hosted URL. The company id rides along as metadata
// so webhook events can be mapped back.
func (s *Service) CreateCheckoutSession(ctx context.Context, companyID, planKey string) (string, error) {
	p, err := s.plans.Get(ctx, planKey)
	if err != nil {
		return "", fmt.Errorf("load plan: %w", err)
	}
	if p.StripePriceID == "" {
		return "", ErrPlanNotPurchasable
	}

	custID, err := s.ensureCustomer(ctx, companyID)
	if err != nil {
		return "", err
	}

	params := &stripe.CheckoutSessionParams{
		Customer:          stripe.String(custID),
		Mode:              stripe.String(string(stripe.CheckoutSessionModeSubscription)),
		ClientReferenceID: stripe.String(companyID),
		SuccessURL:        stripe.String(s.cfg.ReturnURL + "?checkout=success"),
		CancelURL:         stripe.String(s.cfg.ReturnURL + "?checkout=canceled"),
		LineItems: []*stripe.CheckoutSessionLineItemParams{
			{Price: stripe.String(p.StripePriceID), Quantity: stripe.Int64(1)},
		},
		SubscriptionData: &stripe.CheckoutSessionSubscriptionDataParams{
			Metadata: map[string]string{
				"company_id": companyID,
				"plan_key":   planKey,
			},
		},
	}
	sess, err := session.New(params)
	if err != nil {
		return "", fmt.Errorf("create checkout session: %w", err)
	}
	return sess.URL, nil
}

// CreatePortalSession returns a Stripe customer portal URL for the
// company.
func (s *Service) CreatePortalSession(ctx context.Context, companyID string) (string, error) {
	custID, err := s.ensureCustomer(ctx, companyID)
	if err != nil {
		return "", err
	}

	sess, err := bpsession.New(&stripe.BillingPortalSessionParams{
		Customer:  stripe.String(custID),
		ReturnURL: stripe.String(s.cfg.ReturnURL),
	})
	if err != nil {
		return "", fmt.Errorf("create portal session: %w", err)
	}
	return sess.URL, nil
}

// ensureCustomer returns the company's Stripe customer id, creating
// the customer on first use and persisting the id.
func (s *Service) ensureCustomer(ctx context.Context, companyID string) (string, error) {
	comp, err := s.companies.Get(ctx, companyID)
	if err != nil {
		return "", fmt.Errorf("load company: %w", err)
	}
	if comp.StripeCustomerID != "" {
		return comp.StripeCustomerID, nil
	}

	cust, err := customer.New(&stripe.CustomerParams{
		Name: stripe.String(comp.Name),
		Metadata: map[string]string{
			"company_id": companyID,
		},
	})
	if err != nil {
		return "", fmt.Errorf("create stripe customer: %w", err)
	}

	comp.StripeCustomerID = cust.ID
	if err := s.companies.Update(ctx, comp); err != nil {
		return "", fmt.Errorf("persist stripe customer id: %w", err)
	}
	logging.L(ctx).Info("stripe customer created",
		"company_id", companyID,
		"customer_id", cust.ID)
	return cust.ID, nil
}
