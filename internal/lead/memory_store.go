package lead

import (
	"context"
	"sort"
	"sync"
	"time"
)

// MemoryStore is an in-memory Store for tests and demo mode.
type MemoryStore struct {
	mu    sync.RWMutex
	leads map[string]*Lead
}

// NewMemoryStore creates an empty memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{leads: make(map[string]*Lead)}
}

func copyLead(l *Lead) *Lead {
	cp := *l
	if l.Qualification != nil {
		cp.Qualification = make(map[string]string, len(l.Qualification))
		for k, v := range l.Qualification {
			cp.Qualification[k] = v
		}
	}
	return &cp
}

func (s *MemoryStore) Create(_ context.Context, l *Lead) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	cp := copyLead(l)
	now := time.Now()
	if cp.CreatedAt.IsZero() {
		cp.CreatedAt = now
	}
	cp.UpdatedAt = now
	s.leads[l.ID] = cp
	return nil
}

func (s *MemoryStore) Get(_ context.Context, companyID, leadID string) (*Lead, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	l, ok := s.leads[leadID]
	if !ok || l.CompanyID != companyID {
		return nil, ErrLeadNotFound
	}
	return copyLead(l), nil
}

func (s *MemoryStore) GetByConversation(_ context.Context, companyID, convID string) (*Lead, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, l := range s.leads {
		if l.CompanyID == companyID && l.ConversationID == convID {
			return copyLead(l), nil
		}
	}
	return nil, ErrLeadNotFound
}

func (s *MemoryStore) Update(_ context.Context, l *Lead) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	existing, ok := s.leads[l.ID]
	if !ok || existing.CompanyID != l.CompanyID {
		return ErrLeadNotFound
	}
	cp := copyLead(l)
	cp.CreatedAt = existing.CreatedAt
	cp.UpdatedAt = time.Now()
	s.leads[l.ID] = cp
	return nil
}

func (s *MemoryStore) List(_ context.Context, companyID string, limit int) ([]*Lead, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []*Lead
	for _, l := range s.leads {
		if l.CompanyID == companyID {
			out = append(out, copyLead(l))
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Score != out[j].Score {
			return out[i].Score > out[j].Score
		}
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}
