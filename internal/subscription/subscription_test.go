package subscription

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pitchdesk/pitchdesk/internal/plan"
)

func TestEntitled(t *testing.T) {
	assert.True(t, Entitled(StatusActive))
	assert.True(t, Entitled(StatusTrialing))
	assert.True(t, Entitled(StatusPastDue))
	assert.False(t, Entitled(StatusNone))
	assert.False(t, Entitled(StatusExpired))
	assert.False(t, Entitled(StatusCanceled))
}

func TestTrialExpired(t *testing.T) {
	now := time.Now()
	past := now.Add(-time.Hour)
	future := now.Add(time.Hour)

	sub := &Subscription{Status: StatusTrialing, CurrentPeriodEnd: &past}
	assert.True(t, sub.TrialExpired(now))

	sub.CurrentPeriodEnd = &future
	assert.False(t, sub.TrialExpired(now))

	sub.CurrentPeriodEnd = nil
	assert.False(t, sub.TrialExpired(now))

	active := &Subscription{Status: StatusActive, CurrentPeriodEnd: &past}
	assert.False(t, active.TrialExpired(now))
}

func TestStartTrial(t *testing.T) {
	store := NewMemoryStore()
	base := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	svc := NewService(store, 14).WithClock(func() time.Time { return base })
	ctx := context.Background()

	sub, err := svc.StartTrial(ctx, "cmp_1", plan.KeyPro)
	require.NoError(t, err)
	assert.Equal(t, StatusTrialing, sub.Status)
	assert.Equal(t, plan.KeyPro, sub.PlanKey)
	require.NotNil(t, sub.CurrentPeriodEnd)
	assert.Equal(t, base.Add(14*24*time.Hour), *sub.CurrentPeriodEnd)
}

func TestStartTrialIdempotent(t *testing.T) {
	store := NewMemoryStore()
	svc := NewService(store, 14)
	ctx := context.Background()

	first, err := svc.StartTrial(ctx, "cmp_1", plan.KeyStarter)
	require.NoError(t, err)

	again, err := svc.StartTrial(ctx, "cmp_1", plan.KeyPro)
	require.NoError(t, err)
	assert.Equal(t, first.PlanKey, again.PlanKey)
}

func TestSweepExpiredTrials(t *testing.T) {
	store := NewMemoryStore()
	now := time.Date(2025, 3, 15, 0, 0, 0, 0, time.UTC)
	svc := NewService(store, 14).WithClock(func() time.Time { return now })
	ctx := context.Background()

	ended := now.Add(-time.Hour)
	future := now.Add(48 * time.Hour)
	require.NoError(t, store.Upsert(ctx, &Subscription{
		CompanyID: "cmp_a", Status: StatusTrialing,
		PlanKey: plan.KeyStarter, CurrentPeriodEnd: &ended,
	}))
	require.NoError(t, store.Upsert(ctx, &Subscription{
		CompanyID: "cmp_b", Status: StatusTrialing,
		PlanKey: plan.KeyPro, CurrentPeriodEnd: &future,
	}))
	require.NoError(t, store.Upsert(ctx, &Subscription{
		CompanyID: "cmp_c", Status: StatusActive,
		PlanKey: plan.KeyPro, CurrentPeriodEnd: &ended,
	}))

	result, err := svc.SweepExpiredTrials(ctx)
	require.NoError(t, err)
	assert.True(t, result.OK)
	assert.Equal(t, 1, result.Scanned)
	assert.Equal(t, 1, result.Expired)
	assert.Equal(t, 1, result.Updated)
	assert.Equal(t, []string{"cmp_a"}, result.CompanyIDs)

	expired, err := store.Get(ctx, "cmp_a")
	require.NoError(t, err)
	assert.Equal(t, StatusExpired, expired.Status)

	untouched, err := store.Get(ctx, "cmp_b")
	require.NoError(t, err)
	assert.Equal(t, StatusTrialing, untouched.Status)
}

func TestSweepIdempotent(t *testing.T) {
	store := NewMemoryStore()
	now := time.Date(2025, 3, 15, 0, 0, 0, 0, time.UTC)
	svc := NewService(store, 14).WithClock(func() time.Time { return now })
	ctx := context.Background()

	ended := now.Add(-time.Minute)
	require.NoError(t, store.Upsert(ctx, &Subscription{
		CompanyID: "cmp_a", Status: StatusTrialing,
		PlanKey: plan.KeyStarter, CurrentPeriodEnd: &ended,
	}))

	first, err := svc.SweepExpiredTrials(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, first.Updated)

	second, err := svc.SweepExpiredTrials(ctx)
	require.NoError(t, err)
	assert.True(t, second.OK)
	assert.Zero(t, second.Scanned)
	assert.Zero(t, second.Updated)
	assert.Empty(t, second.CompanyIDs)
}
