package webhooks

import (
	"context"
	"sort"
	"sync"
)

// MemoryStore is an in-memory Store for tests and single-node runs.
type MemoryStore struct {
	mu        sync.RWMutex
	endpoints map[string]*Endpoint
}

// NewMemoryStore creates an empty in-memory endpoint store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{endpoints: make(map[string]*Endpoint)}
}

func (m *MemoryStore) Create(ctx context.Context, ep *Endpoint) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.endpoints[ep.ID] = copyEndpoint(ep)
	return nil
}

func (m *MemoryStore) Get(ctx context.Context, companyID, id string) (*Endpoint, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	ep, ok := m.endpoints[id]
	if !ok || ep.CompanyID != companyID {
		return nil, ErrEndpointNotFound
	}
	return copyEndpoint(ep), nil
}

func (m *MemoryStore) ListByCompany(ctx context.Context, companyID string) ([]*Endpoint, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []*Endpoint
	for _, ep := range m.endpoints {
		if ep.CompanyID == companyID {
			out = append(out, copyEndpoint(ep))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (m *MemoryStore) Update(ctx context.Context, ep *Endpoint) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.endpoints[ep.ID]; !ok {
		return ErrEndpointNotFound
	}
	m.endpoints[ep.ID] = copyEndpoint(ep)
	return nil
}

func (m *MemoryStore) Delete(ctx context.Context, companyID, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	ep, ok := m.endpoints[id]
	if !ok || ep.CompanyID != companyID {
		return ErrEndpointNotFound
	}
	delete(m.endpoints, id)
	return nil
}

func copyEndpoint(ep *Endpoint) *Endpoint {
	cp := *ep
	cp.Events = append([]string(nil), ep.Events...)
	if ep.LastSuccess != nil {
		t := *ep.LastSuccess
		cp.LastSuccess = &t
	}
	return &cp
}
