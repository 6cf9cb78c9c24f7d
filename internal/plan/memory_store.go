package plan

import (
	"context"
	"sort"
	"sync"
)

// MemoryStore is an in-memory Store seeded from the hardcoded catalogue.
type MemoryStore struct {
	mu    sync.RWMutex
	plans map[string]*Plan
}

// NewMemoryStore creates a memory store pre-populated with the catalogue.
func NewMemoryStore() *MemoryStore {
	s := &MemoryStore{plans: make(map[string]*Plan)}
	for key, p := range Catalogue {
		cp := p
		s.plans[key] = &cp
	}
	return s
}

func (s *MemoryStore) Get(_ context.Context, key string) (*Plan, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	p, ok := s.plans[key]
	if !ok {
		return nil, ErrPlanNotFound
	}
	cp := *p
	return &cp, nil
}

func (s *MemoryStore) List(_ context.Context) ([]*Plan, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*Plan, 0, len(s.plans))
	for _, p := range s.plans {
		if !p.Active {
			continue
		}
		cp := *p
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].Entitlements.Limits.PerDay < out[j].Entitlements.Limits.PerDay
	})
	return out, nil
}

func (s *MemoryStore) Upsert(_ context.Context, p *Plan) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	cp := *p
	s.plans[p.Key] = &cp
	return nil
}
