package apikey

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateSecretKey(t *testing.T) {
	mgr := NewManager(NewMemoryStore())
	ctx := context.Background()

	raw, key, err := mgr.GenerateKey(ctx, "cmp_1", "user_a", KindSecret, "Server key")
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(raw, "sk_"))
	assert.Len(t, raw, 67) // "sk_" + 64 hex chars
	assert.True(t, strings.HasPrefix(key.ID, "ak_"))
	assert.Equal(t, "cmp_1", key.CompanyID)
	assert.Equal(t, "user_a", key.CreatedBy)
	assert.Equal(t, raw[:10], key.Prefix)
}

func TestGenerateWidgetKey(t *testing.T) {
	mgr := NewManager(NewMemoryStore())

	raw, key, err := mgr.GenerateKey(context.Background(), "cmp_1", "user_a", KindWidget, "Widget")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(raw, "pk_"))
	assert.Equal(t, KindWidget, key.Kind)
}

func TestValidateSecret(t *testing.T) {
	mgr := NewManager(NewMemoryStore())
	ctx := context.Background()

	raw, issued, err := mgr.GenerateKey(ctx, "cmp_1", "user_a", KindSecret, "k")
	require.NoError(t, err)

	key, err := mgr.ValidateSecret(ctx, raw)
	require.NoError(t, err)
	assert.Equal(t, issued.ID, key.ID)

	// Bearer prefix is accepted.
	key, err = mgr.ValidateSecret(ctx, "Bearer "+raw)
	require.NoError(t, err)
	assert.Equal(t, issued.ID, key.ID)

	_, err = mgr.ValidateSecret(ctx, "")
	assert.ErrorIs(t, err, ErrNoAPIKey)

	_, err = mgr.ValidateSecret(ctx, "sk_deadbeef")
	assert.ErrorIs(t, err, ErrInvalidAPIKey)
}

func TestValidateRejectsWrongKind(t *testing.T) {
	mgr := NewManager(NewMemoryStore())
	ctx := context.Background()

	rawWidget, _, err := mgr.GenerateKey(ctx, "cmp_1", "user_a", KindWidget, "w")
	require.NoError(t, err)

	// A widget key is not a secret key and vice versa.
	_, err = mgr.ValidateSecret(ctx, rawWidget)
	assert.ErrorIs(t, err, ErrInvalidAPIKey)

	key, err := mgr.ValidateWidget(ctx, rawWidget)
	require.NoError(t, err)
	assert.Equal(t, "cmp_1", key.CompanyID)
}

func TestRevokeKey(t *testing.T) {
	mgr := NewManager(NewMemoryStore())
	ctx := context.Background()

	raw, key, err := mgr.GenerateKey(ctx, "cmp_1", "user_a", KindSecret, "k")
	require.NoError(t, err)

	require.NoError(t, mgr.RevokeKey(ctx, key.ID, "cmp_1"))

	_, err = mgr.ValidateSecret(ctx, raw)
	assert.ErrorIs(t, err, ErrInvalidAPIKey)

	// Wrong company cannot revoke.
	assert.ErrorIs(t, mgr.RevokeKey(ctx, key.ID, "cmp_2"), ErrKeyNotFound)
}

func TestRotateKey(t *testing.T) {
	mgr := NewManager(NewMemoryStore())
	ctx := context.Background()

	oldRaw, oldKey, err := mgr.GenerateKey(ctx, "cmp_1", "user_a", KindWidget, "Widget")
	require.NoError(t, err)

	newRaw, newKey, err := mgr.RotateKey(ctx, oldKey.ID, "cmp_1", "user_b")
	require.NoError(t, err)
	assert.Equal(t, KindWidget, newKey.Kind)
	assert.Equal(t, "Widget", newKey.Name)
	assert.NotEqual(t, oldKey.ID, newKey.ID)

	_, err = mgr.ValidateWidget(ctx, oldRaw)
	assert.ErrorIs(t, err, ErrInvalidAPIKey)

	got, err := mgr.ValidateWidget(ctx, newRaw)
	require.NoError(t, err)
	assert.Equal(t, newKey.ID, got.ID)
}

func TestListKeysScopedToCompany(t *testing.T) {
	mgr := NewManager(NewMemoryStore())
	ctx := context.Background()

	_, _, err := mgr.GenerateKey(ctx, "cmp_1", "u", KindSecret, "a")
	require.NoError(t, err)
	_, _, err = mgr.GenerateKey(ctx, "cmp_2", "u", KindSecret, "b")
	require.NoError(t, err)

	keys, err := mgr.ListKeys(ctx, "cmp_1")
	require.NoError(t, err)
	require.Len(t, keys, 1)
	assert.Equal(t, "a", keys[0].Name)
}
