package health

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRegistry_AllHealthy(t *testing.T) {
	r := NewRegistry()
	r.Register("database", func(ctx context.Context) Status {
		return Status{Name: "database", Healthy: true}
	})
	r.Register("stripe", func(ctx context.Context) Status {
		return Status{Name: "stripe", Healthy: true}
	})

	healthy, statuses := r.CheckAll(context.Background())
	assert.True(t, healthy)
	assert.Len(t, statuses, 2)
}

func TestRegistry_OneUnhealthy(t *testing.T) {
	r := NewRegistry()
	r.Register("database", func(ctx context.Context) Status {
		return Status{Name: "database", Healthy: true}
	})
	r.Register("generator", func(ctx context.Context) Status {
		return Status{Name: "generator", Healthy: false, Detail: "circuit open"}
	})

	healthy, statuses := r.CheckAll(context.Background())
	assert.False(t, healthy)
	assert.Len(t, statuses, 2)
	assert.Equal(t, "circuit open", statuses[1].Detail)
}

func TestRegistry_Empty(t *testing.T) {
	r := NewRegistry()
	healthy, statuses := r.CheckAll(context.Background())
	assert.True(t, healthy)
	assert.Empty(t, statuses)
}
