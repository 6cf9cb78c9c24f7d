package circuitbreaker

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestBreaker_OpensAfterThreshold(t *testing.T) {
	b := New(3, time.Minute)

	assert.True(t, b.Allow("generator:cmp_1"))
	b.RecordFailure("generator:cmp_1")
	b.RecordFailure("generator:cmp_1")
	assert.True(t, b.Allow("generator:cmp_1"))
	b.RecordFailure("generator:cmp_1")

	assert.Equal(t, StateOpen, b.State("generator:cmp_1"))
	assert.False(t, b.Allow("generator:cmp_1"))
}

func TestBreaker_SuccessResetsFailures(t *testing.T) {
	b := New(3, time.Minute)

	b.RecordFailure("k")
	b.RecordFailure("k")
	b.RecordSuccess("k")
	b.RecordFailure("k")
	b.RecordFailure("k")

	assert.Equal(t, StateClosed, b.State("k"))
}

func TestBreaker_HalfOpenProbe(t *testing.T) {
	b := New(1, 10*time.Millisecond)

	b.RecordFailure("k")
	assert.Equal(t, StateOpen, b.State("k"))
	assert.False(t, b.Allow("k"))

	time.Sleep(15 * time.Millisecond)

	// First request after openDuration is the probe.
	assert.True(t, b.Allow("k"))
	assert.Equal(t, StateHalfOpen, b.State("k"))
	// No second probe while the first is in flight.
	assert.False(t, b.Allow("k"))

	b.RecordSuccess("k")
	assert.Equal(t, StateClosed, b.State("k"))
	assert.True(t, b.Allow("k"))
}

func TestBreaker_ProbeFailureReopens(t *testing.T) {
	b := New(1, 10*time.Millisecond)

	b.RecordFailure("k")
	time.Sleep(15 * time.Millisecond)
	assert.True(t, b.Allow("k"))

	b.RecordFailure("k")
	assert.Equal(t, StateOpen, b.State("k"))
	assert.False(t, b.Allow("k"))
}

func TestBreaker_KeysAreIndependent(t *testing.T) {
	b := New(1, time.Minute)

	b.RecordFailure("generator:cmp_1")
	assert.False(t, b.Allow("generator:cmp_1"))
	assert.True(t, b.Allow("generator:cmp_2"))
}
