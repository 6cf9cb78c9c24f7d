package membership

import (
	"context"
	"sort"
	"sync"
	"time"
)

// MemoryStore is an in-memory Store for tests and demo mode.
type MemoryStore struct {
	mu      sync.RWMutex
	members map[string]*Membership // key: companyID + "/" + userID
	invites map[string]*Invite     // key: invite ID
}

// NewMemoryStore creates an empty memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		members: make(map[string]*Membership),
		invites: make(map[string]*Invite),
	}
}

func memberKey(companyID, userID string) string {
	return companyID + "/" + userID
}

func (s *MemoryStore) Upsert(_ context.Context, m *Membership) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	cp := *m
	now := time.Now()
	if existing, ok := s.members[memberKey(m.CompanyID, m.UserID)]; ok {
		cp.CreatedAt = existing.CreatedAt
	} else if cp.CreatedAt.IsZero() {
		cp.CreatedAt = now
	}
	cp.UpdatedAt = now
	s.members[memberKey(m.CompanyID, m.UserID)] = &cp
	return nil
}

func (s *MemoryStore) Get(_ context.Context, companyID, userID string) (*Membership, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	m, ok := s.members[memberKey(companyID, userID)]
	if !ok {
		return nil, ErrMembershipNotFound
	}
	cp := *m
	return &cp, nil
}

func (s *MemoryStore) ListByCompany(_ context.Context, companyID string) ([]*Membership, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []*Membership
	for _, m := range s.members {
		if m.CompanyID != companyID {
			continue
		}
		cp := *m
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out, nil
}

func (s *MemoryStore) ListByUser(_ context.Context, userID string) ([]*Membership, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []*Membership
	for _, m := range s.members {
		if m.UserID != userID {
			continue
		}
		cp := *m
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out, nil
}

func (s *MemoryStore) Delete(_ context.Context, companyID, userID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := memberKey(companyID, userID)
	if _, ok := s.members[key]; !ok {
		return ErrMembershipNotFound
	}
	delete(s.members, key)
	return nil
}

func (s *MemoryStore) CreateInvite(_ context.Context, inv *Invite) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	cp := *inv
	if cp.CreatedAt.IsZero() {
		cp.CreatedAt = time.Now()
	}
	s.invites[inv.ID] = &cp
	return nil
}

func (s *MemoryStore) GetInviteByToken(_ context.Context, token string) (*Invite, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, inv := range s.invites {
		if inv.Token == token && inv.AcceptedAt == nil {
			cp := *inv
			return &cp, nil
		}
	}
	return nil, ErrInviteNotFound
}

func (s *MemoryStore) MarkInviteAccepted(_ context.Context, inviteID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	inv, ok := s.invites[inviteID]
	if !ok {
		return ErrInviteNotFound
	}
	now := time.Now()
	inv.AcceptedAt = &now
	return nil
}
