package pagination

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncodeDecode(t *testing.T) {
	at := time.Date(2026, 3, 14, 9, 26, 53, 0, time.UTC)
	s := Encode(at, "conv_abc123")

	c, err := Decode(s)
	require.NoError(t, err)
	assert.Equal(t, at, c.CreatedAt)
	assert.Equal(t, "conv_abc123", c.ID)
}

func TestDecode_Empty(t *testing.T) {
	c, err := Decode("")
	assert.NoError(t, err)
	assert.Nil(t, c)
}

func TestDecode_Garbage(t *testing.T) {
	_, err := Decode("not-base64!!")
	assert.Error(t, err)

	_, err = Decode("bm8tcGlwZS1oZXJl") // valid base64, no separator
	assert.Error(t, err)
}

func TestComputePage(t *testing.T) {
	type row struct {
		id string
		at time.Time
	}
	base := time.Now().UTC()
	rows := []row{
		{"a", base},
		{"b", base.Add(-time.Minute)},
		{"c", base.Add(-2 * time.Minute)},
	}

	// Fetched limit+1 rows: a page remains.
	items, next, more := ComputePage(rows, 2, func(r row) (time.Time, string) { return r.at, r.id })
	assert.Len(t, items, 2)
	assert.True(t, more)
	c, err := Decode(next)
	require.NoError(t, err)
	assert.Equal(t, "b", c.ID)

	// Fewer rows than the limit: last page.
	items, next, more = ComputePage(rows, 5, func(r row) (time.Time, string) { return r.at, r.id })
	assert.Len(t, items, 3)
	assert.False(t, more)
	assert.Empty(t, next)
}
