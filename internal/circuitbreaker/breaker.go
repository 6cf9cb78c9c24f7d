// Package circuitbreaker guards calls to flaky downstream dependencies,
// most notably the reply generator, with a per-key breaker.
//
// Each key owns an independent circuit that moves closed → open after
// repeated failures, then open → half-open after a cooldown so a single
// probe call can test whether the dependency recovered.
package circuitbreaker

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// State is the position of a circuit.
type State int

const (
	StateClosed   State = iota // calls flow through
	StateOpen                  // calls are rejected
	StateHalfOpen              // a single probe call is in flight
)

func (s State) String() string {
	switch s {
	case StateClosed:
		return "closed"
	case StateOpen:
		return "open"
	case StateHalfOpen:
		return "half_open"
	default:
		return "unknown"
	}
}

var stateTransitions = prometheus.NewCounterVec(prometheus.CounterOpts{
	Namespace: "pitchdesk",
	Subsystem: "circuitbreaker",
	Name:      "state_transitions_total",
	Help:      "Circuit breaker state transitions by key, from-state, and to-state.",
}, []string{"key", "from_state", "to_state"})

func init() {
	prometheus.MustRegister(stateTransitions)
}

type circuit struct {
	state       State
	failures    int
	lastFailure time.Time
}

// Breaker tracks consecutive failures per key and trips the key's
// circuit open once they reach threshold. An open circuit rejects calls
// for cooldown, then admits one probe.
type Breaker struct {
	mu        sync.Mutex
	circuits  map[string]*circuit
	threshold int
	cooldown  time.Duration
}

// New returns a Breaker. Non-positive arguments fall back to 5 failures
// and a 30 second cooldown.
func New(threshold int, cooldown time.Duration) *Breaker {
	if threshold <= 0 {
		threshold = 5
	}
	if cooldown <= 0 {
		cooldown = 30 * time.Second
	}
	return &Breaker{
		circuits:  make(map[string]*circuit),
		threshold: threshold,
		cooldown:  cooldown,
	}
}

// Allow reports whether a call under key may proceed. When an open
// circuit's cooldown has elapsed it flips to half-open and this call
// becomes the probe.
func (b *Breaker) Allow(key string) bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	c, ok := b.circuits[key]
	if !ok {
		return true
	}

	switch c.state {
	case StateOpen:
		if time.Since(c.lastFailure) >= b.cooldown {
			b.transition(c, key, StateHalfOpen)
			return true
		}
		return false
	case StateHalfOpen:
		// A probe is already in flight.
		return false
	default:
		return true
	}
}

// RecordSuccess clears the failure streak for key and closes a
// half-open circuit.
func (b *Breaker) RecordSuccess(key string) {
	b.mu.Lock()
	defer b.mu.Unlock()

	c, ok := b.circuits[key]
	if !ok {
		return
	}
	if c.state == StateHalfOpen {
		b.transition(c, key, StateClosed)
	}
	c.failures = 0
}

// RecordFailure notes a failed call under key. Reaching the threshold,
// or failing the half-open probe, opens the circuit.
func (b *Breaker) RecordFailure(key string) {
	b.mu.Lock()
	defer b.mu.Unlock()

	c, ok := b.circuits[key]
	if !ok {
		c = &circuit{}
		b.circuits[key] = c
	}

	c.failures++
	c.lastFailure = time.Now()

	if c.state == StateHalfOpen || (c.state == StateClosed && c.failures >= b.threshold) {
		b.transition(c, key, StateOpen)
	}
}

// State returns the circuit state for key, StateClosed when the key has
// never failed.
func (b *Breaker) State(key string) State {
	b.mu.Lock()
	defer b.mu.Unlock()

	if c, ok := b.circuits[key]; ok {
		return c.state
	}
	return StateClosed
}

// caller holds b.mu
func (b *Breaker) transition(c *circuit, key string, to State) {
	if c.state == to {
		return
	}
	stateTransitions.WithLabelValues(key, c.state.String(), to.String()).Inc()
	c.state = to
}
