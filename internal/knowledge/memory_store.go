package knowledge

import (
	"context"
	"sort"
	"sync"
	"time"
)

// MemoryStore is an in-memory Store for tests and demo mode.
type MemoryStore struct {
	mu     sync.RWMutex
	chunks map[string]*Chunk
}

// NewMemoryStore creates an empty memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{chunks: make(map[string]*Chunk)}
}

func (s *MemoryStore) Create(_ context.Context, chunk *Chunk) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	cp := *chunk
	now := time.Now()
	if cp.CreatedAt.IsZero() {
		cp.CreatedAt = now
	}
	cp.UpdatedAt = now
	s.chunks[chunk.ID] = &cp
	return nil
}

func (s *MemoryStore) Get(_ context.Context, companyID, chunkID string) (*Chunk, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	c, ok := s.chunks[chunkID]
	if !ok || c.CompanyID != companyID {
		return nil, ErrChunkNotFound
	}
	cp := *c
	return &cp, nil
}

func (s *MemoryStore) Update(_ context.Context, chunk *Chunk) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	existing, ok := s.chunks[chunk.ID]
	if !ok || existing.CompanyID != chunk.CompanyID {
		return ErrChunkNotFound
	}
	cp := *chunk
	cp.CreatedAt = existing.CreatedAt
	cp.UpdatedAt = time.Now()
	s.chunks[chunk.ID] = &cp
	return nil
}

func (s *MemoryStore) Delete(_ context.Context, companyID, chunkID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	c, ok := s.chunks[chunkID]
	if !ok || c.CompanyID != companyID {
		return ErrChunkNotFound
	}
	delete(s.chunks, chunkID)
	return nil
}

func (s *MemoryStore) ListRecent(_ context.Context, companyID string, limit int) ([]*Chunk, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []*Chunk
	for _, c := range s.chunks {
		if c.CompanyID != companyID {
			continue
		}
		cp := *c
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (s *MemoryStore) Count(_ context.Context, companyID string) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	n := 0
	for _, c := range s.chunks {
		if c.CompanyID == companyID {
			n++
		}
	}
	return n, nil
}
