package billing

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stripe/stripe-go/v81"

	"github.com/pitchdesk/pitchdesk/internal/company"
	"github.com/pitchdesk/pitchdesk/internal/plan"
	"github.com/pitchdesk/pitchdesk/internal/subscription"
)

func newTestService(t *testing.T) (*Service, subscription.Store) {
	t.Helper()
	companies := company.NewMemoryStore()
	subs := subscription.NewMemoryStore()
	plans := plan.NewMemoryStore()
	cfg := Config{SecretKey: "sk_test_x", WebhookSecret: "whsec_x", ReturnURL: "https://app.example.com/billing"}
	return NewService(cfg, companies, subs, plans), subs
}

func TestMapStripeStatus(t *testing.T) {
	cases := []struct {
		in      stripe.SubscriptionStatus
		deleted bool
		want    string
	}{
		{stripe.SubscriptionStatusActive, false, subscription.StatusActive},
		{stripe.SubscriptionStatusTrialing, false, subscription.StatusTrialing},
		{stripe.SubscriptionStatusPastDue, false, subscription.StatusPastDue},
		{stripe.SubscriptionStatusCanceled, false, subscription.StatusCanceled},
		{stripe.SubscriptionStatusUnpaid, false, subscription.StatusCanceled},
		{stripe.SubscriptionStatusIncompleteExpired, false, subscription.StatusCanceled},
		{stripe.SubscriptionStatusIncomplete, false, subscription.StatusExpired},
		{stripe.SubscriptionStatusActive, true, subscription.StatusCanceled},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, mapStripeStatus(tc.in, tc.deleted), "status %s deleted=%v", tc.in, tc.deleted)
	}
}

func TestApplySubscriptionUpserts(t *testing.T) {
	svc, subs := newTestService(t)
	ctx := context.Background()

	periodEnd := time.Now().Add(30 * 24 * time.Hour).Unix()
	err := svc.applySubscription(ctx, &stripe.Subscription{
		ID:               "sub_123",
		Status:           stripe.SubscriptionStatusActive,
		CurrentPeriodEnd: periodEnd,
		Metadata:         map[string]string{"company_id": "cmp_1", "plan_key": plan.KeyGrowth},
	}, false)
	require.NoError(t, err)

	row, err := subs.Get(ctx, "cmp_1")
	require.NoError(t, err)
	assert.Equal(t, subscription.StatusActive, row.Status)
	assert.Equal(t, plan.KeyGrowth, row.PlanKey)
	assert.Equal(t, "sub_123", row.StripeSubscriptionID)
	require.NotNil(t, row.CurrentPeriodEnd)
	assert.Equal(t, time.Unix(periodEnd, 0).UTC(), *row.CurrentPeriodEnd)
}

func TestApplySubscriptionDeletedCancels(t *testing.T) {
	svc, subs := newTestService(t)
	ctx := context.Background()

	require.NoError(t, subs.Upsert(ctx, &subscription.Subscription{
		CompanyID: "cmp_1",
		Status:    subscription.StatusActive,
		PlanKey:   plan.KeyPro,
	}))

	err := svc.applySubscription(ctx, &stripe.Subscription{
		ID:       "sub_123",
		Status:   stripe.SubscriptionStatusActive,
		Metadata: map[string]string{"company_id": "cmp_1"},
	}, true)
	require.NoError(t, err)

	row, err := subs.Get(ctx, "cmp_1")
	require.NoError(t, err)
	assert.Equal(t, subscription.StatusCanceled, row.Status)
	// Plan key survives deletion so the dashboard can show what lapsed.
	assert.Equal(t, plan.KeyPro, row.PlanKey)
}

func TestApplySubscriptionWithoutCompanyMetadata(t *testing.T) {
	svc, _ := newTestService(t)

	err := svc.applySubscription(context.Background(), &stripe.Subscription{
		ID:     "sub_123",
		Status: stripe.SubscriptionStatusActive,
	}, false)
	assert.ErrorIs(t, err, ErrUnknownCompany)
}

func TestCheckoutRejectsUnknownPlan(t *testing.T) {
	svc, _ := newTestService(t)

	_, err := svc.CreateCheckoutSession(context.Background(), "cmp_1", "enterprise")
	assert.ErrorIs(t, err, plan.ErrPlanNotFound)
}

func TestCheckoutRejectsPlanWithoutPrice(t *testing.T) {
	svc, _ := newTestService(t)

	// The seeded catalogue carries no Stripe price ids in tests.
	_, err := svc.CreateCheckoutSession(context.Background(), "cmp_1", plan.KeyPro)
	assert.ErrorIs(t, err, ErrPlanNotPurchasable)
}

func TestWebhookRejectsBadSignature(t *testing.T) {
	svc, _ := newTestService(t)

	err := svc.ProcessWebhook(context.Background(), []byte(`{}`), "t=1,v1=bad")
	assert.Error(t, err)
}
