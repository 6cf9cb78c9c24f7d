package subscription

import (
	"context"
	"sort"
	"sync"
	"time"
)

// MemoryStore is an in-memory Store for tests and demo mode.
type MemoryStore struct {
	mu   sync.RWMutex
	subs map[string]*Subscription
}

// NewMemoryStore creates an empty memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{subs: make(map[string]*Subscription)}
}

func (s *MemoryStore) Get(_ context.Context, companyID string) (*Subscription, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sub, ok := s.subs[companyID]
	if !ok {
		return nil, ErrSubscriptionNotFound
	}
	cp := *sub
	return &cp, nil
}

func (s *MemoryStore) Upsert(_ context.Context, sub *Subscription) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	cp := *sub
	now := time.Now()
	if existing, ok := s.subs[sub.CompanyID]; ok {
		cp.CreatedAt = existing.CreatedAt
	} else if cp.CreatedAt.IsZero() {
		cp.CreatedAt = now
	}
	cp.UpdatedAt = now
	s.subs[sub.CompanyID] = &cp
	return nil
}

func (s *MemoryStore) ListTrialsEndedBefore(_ context.Context, cutoff time.Time) ([]*Subscription, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []*Subscription
	for _, sub := range s.subs {
		if sub.Status != StatusTrialing || sub.CurrentPeriodEnd == nil {
			continue
		}
		if sub.CurrentPeriodEnd.After(cutoff) {
			continue
		}
		cp := *sub
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].CompanyID < out[j].CompanyID
	})
	return out, nil
}
