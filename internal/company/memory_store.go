package company

import (
	"context"
	"sort"
	"sync"
	"time"
)

// MemoryStore is an in-memory implementation of Store.
type MemoryStore struct {
	mu        sync.RWMutex
	companies map[string]*Company // by ID
}

// NewMemoryStore creates a new in-memory company store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{companies: make(map[string]*Company)}
}

func (s *MemoryStore) Create(ctx context.Context, c *Company) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.companies {
		if existing.Slug == c.Slug {
			return ErrSlugTaken
		}
	}
	cp := *c
	now := time.Now()
	if cp.Status == "" {
		cp.Status = StatusActive
	}
	if cp.CreatedAt.IsZero() {
		cp.CreatedAt = now
	}
	cp.UpdatedAt = now
	s.companies[c.ID] = &cp
	return nil
}

func (s *MemoryStore) Get(ctx context.Context, id string) (*Company, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	c, ok := s.companies[id]
	if !ok {
		return nil, ErrCompanyNotFound
	}
	cp := *c
	return &cp, nil
}

func (s *MemoryStore) GetBySlug(ctx context.Context, slug string) (*Company, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, c := range s.companies {
		if c.Slug == slug {
			cp := *c
			return &cp, nil
		}
	}
	return nil, ErrCompanyNotFound
}

func (s *MemoryStore) GetByBookingKey(ctx context.Context, key string) (*Company, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if key == "" {
		return nil, ErrCompanyNotFound
	}
	for _, c := range s.companies {
		if c.Settings.PublicBookingKey == key {
			cp := *c
			return &cp, nil
		}
	}
	return nil, ErrCompanyNotFound
}

func (s *MemoryStore) Update(ctx context.Context, c *Company) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	existing, ok := s.companies[c.ID]
	if !ok {
		return ErrCompanyNotFound
	}
	cp := *c
	cp.CreatedAt = existing.CreatedAt
	cp.UpdatedAt = time.Now()
	s.companies[c.ID] = &cp
	return nil
}

func (s *MemoryStore) List(ctx context.Context, limit int) ([]*Company, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*Company, 0, len(s.companies))
	for _, c := range s.companies {
		cp := *c
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

var _ Store = (*MemoryStore)(nil)
