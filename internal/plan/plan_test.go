package plan

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCatalogue(t *testing.T) {
	for _, key := range []string{KeyStarter, KeyGrowth, KeyPro} {
		p, ok := Catalogue[key]
		require.True(t, ok, "catalogue missing %s", key)
		assert.Equal(t, key, p.Key)
		assert.True(t, p.Active)
		assert.Positive(t, p.Entitlements.Limits.PerMinute)
		assert.Positive(t, p.Entitlements.Limits.PerDay)
	}
	assert.True(t, Valid(KeyPro))
	assert.False(t, Valid("enterprise"))
}

func TestMemoryStoreGet(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	p, err := store.Get(ctx, KeyPro)
	require.NoError(t, err)
	assert.Equal(t, "Pro", p.Name)

	_, err = store.Get(ctx, "nope")
	assert.ErrorIs(t, err, ErrPlanNotFound)
}

func TestMemoryStoreListOrdered(t *testing.T) {
	store := NewMemoryStore()

	plans, err := store.List(context.Background())
	require.NoError(t, err)
	require.Len(t, plans, 3)
	for i := 1; i < len(plans); i++ {
		assert.LessOrEqual(t,
			plans[i-1].Entitlements.Limits.PerDay,
			plans[i].Entitlements.Limits.PerDay)
	}
}

func TestMemoryStoreUpsert(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	p, err := store.Get(ctx, KeyStarter)
	require.NoError(t, err)
	p.Active = false
	require.NoError(t, store.Upsert(ctx, p))

	plans, err := store.List(ctx)
	require.NoError(t, err)
	assert.Len(t, plans, 2)
}

func TestMemoryStoreCopiesOnRead(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	p, err := store.Get(ctx, KeyPro)
	require.NoError(t, err)
	p.Entitlements.Limits.PerMinute = 1

	again, err := store.Get(ctx, KeyPro)
	require.NoError(t, err)
	assert.Equal(t, 120, again.Entitlements.Limits.PerMinute)
}
