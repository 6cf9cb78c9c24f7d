package knowledge

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pitchdesk/pitchdesk/internal/idgen"
)

func seedChunk(t *testing.T, store Store, companyID, title, content string, tags ...string) *Chunk {
	t.Helper()
	c := &Chunk{
		ID:        idgen.WithPrefix("kc_"),
		CompanyID: companyID,
		Title:     title,
		Content:   content,
		Tags:      tags,
	}
	require.NoError(t, store.Create(context.Background(), c))
	return c
}

func TestStoreCRUD(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	c := seedChunk(t, store, "cmp_1", "FAQ", "We ship worldwide.")

	got, err := store.Get(ctx, "cmp_1", c.ID)
	require.NoError(t, err)
	assert.Equal(t, "FAQ", got.Title)

	got.Content = "We ship to 40 countries."
	require.NoError(t, store.Update(ctx, got))

	got, err = store.Get(ctx, "cmp_1", c.ID)
	require.NoError(t, err)
	assert.Equal(t, "We ship to 40 countries.", got.Content)

	require.NoError(t, store.Delete(ctx, "cmp_1", c.ID))
	_, err = store.Get(ctx, "cmp_1", c.ID)
	assert.ErrorIs(t, err, ErrChunkNotFound)
}

func TestStoreScopedByCompany(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	c := seedChunk(t, store, "cmp_1", "Internal", "secret")

	_, err := store.Get(ctx, "cmp_2", c.ID)
	assert.ErrorIs(t, err, ErrChunkNotFound)
	assert.ErrorIs(t, store.Delete(ctx, "cmp_2", c.ID), ErrChunkNotFound)

	n, err := store.Count(ctx, "cmp_2")
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestListRecentNewestFirst(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		c := &Chunk{
			ID:        idgen.WithPrefix("kc_"),
			CompanyID: "cmp_1",
			Title:     fmt.Sprintf("doc %d", i),
			Content:   "body",
			CreatedAt: time.Now().Add(time.Duration(i) * time.Minute),
		}
		require.NoError(t, store.Create(ctx, c))
	}

	got, err := store.ListRecent(ctx, "cmp_1", 3)
	require.NoError(t, err)
	require.Len(t, got, 3)
	assert.Equal(t, "doc 4", got[0].Title)
	assert.Equal(t, "doc 2", got[2].Title)
}

func TestContextSlicePricingFilter(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	seedChunk(t, store, "cmp_1", "Shipping FAQ", "We ship worldwide.")
	seedChunk(t, store, "cmp_1", "Plans", "Starter is $29/mo, Pro is $99/mo.")
	seedChunk(t, store, "cmp_1", "About us", "Founded in 2019.", "pricing")

	chunks, err := ContextSlice(ctx, store, "cmp_1", 10, true)
	require.NoError(t, err)
	require.Len(t, chunks, 2)
	for _, c := range chunks {
		assert.NotEqual(t, "Shipping FAQ", c.Title)
	}
}

func TestContextSliceFallbackWhenFilterEmpty(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	seedChunk(t, store, "cmp_1", "Shipping FAQ", "We ship worldwide.")
	seedChunk(t, store, "cmp_1", "Returns", "30 day returns.")

	// Nothing matches pricing markers; the unfiltered slice comes back.
	chunks, err := ContextSlice(ctx, store, "cmp_1", 10, true)
	require.NoError(t, err)
	assert.Len(t, chunks, 2)
}

func TestContextSliceClampsLimit(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	for i := 0; i < 60; i++ {
		seedChunk(t, store, "cmp_1", fmt.Sprintf("doc %d", i), "body")
	}

	chunks, err := ContextSlice(ctx, store, "cmp_1", 500, false)
	require.NoError(t, err)
	assert.Len(t, chunks, MaxContextChunks)

	chunks, err = ContextSlice(ctx, store, "cmp_1", 1, false)
	require.NoError(t, err)
	assert.Len(t, chunks, MinContextChunks)
}

func TestRenderContext(t *testing.T) {
	out := RenderContext([]*Chunk{
		{Title: "Plans", Content: "Starter and Pro."},
		{Content: "untitled body"},
	})
	assert.Contains(t, out, "## Plans")
	assert.Contains(t, out, "Starter and Pro.")
	assert.Contains(t, out, "untitled body")

	assert.Empty(t, RenderContext(nil))
}
