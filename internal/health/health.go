// Package health aggregates liveness information from the server's
// subsystems for the /health endpoints.
package health

import (
	"context"
	"database/sql"
	"sync"
	"time"
)

const pingTimeout = 2 * time.Second

// Status is the outcome of probing one subsystem.
type Status struct {
	Name    string `json:"name"`
	Healthy bool   `json:"healthy"`
	Detail  string `json:"detail,omitempty"`
}

// Checker probes a single subsystem.
type Checker func(ctx context.Context) Status

type namedChecker struct {
	name  string
	check Checker
}

// Registry runs registered checkers on demand. Registration happens at
// server construction; CheckAll is called per health request.
type Registry struct {
	mu       sync.RWMutex
	checkers []namedChecker
}

func NewRegistry() *Registry {
	return &Registry{}
}

// Register adds check under name. Later registrations append; names are
// not deduplicated.
func (r *Registry) Register(name string, check Checker) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.checkers = append(r.checkers, namedChecker{name: name, check: check})
}

// CheckAll probes every registered subsystem. The aggregate is healthy
// only when every individual status is.
func (r *Registry) CheckAll(ctx context.Context) (bool, []Status) {
	r.mu.RLock()
	checkers := make([]namedChecker, len(r.checkers))
	copy(checkers, r.checkers)
	r.mu.RUnlock()

	healthy := true
	statuses := make([]Status, 0, len(checkers))
	for _, nc := range checkers {
		st := nc.check(ctx)
		if !st.Healthy {
			healthy = false
		}
		statuses = append(statuses, st)
	}
	return healthy, statuses
}

// DatabaseChecker probes the Postgres pool with a bounded ping.
func DatabaseChecker(db *sql.DB) Checker {
	return func(ctx context.Context) Status {
		ctx, cancel := context.WithTimeout(ctx, pingTimeout)
		defer cancel()
		if err := db.PingContext(ctx); err != nil {
			return Status{Name: "database", Healthy: false, Detail: err.Error()}
		}
		return Status{Name: "database", Healthy: true}
	}
}
