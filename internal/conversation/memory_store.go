package conversation

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/pitchdesk/pitchdesk/internal/funnel"
	"github.com/pitchdesk/pitchdesk/internal/pagination"
)

// MemoryStore is an in-memory Store for tests and demo mode.
type MemoryStore struct {
	mu       sync.RWMutex
	convs    map[string]*Conversation
	messages map[string][]*Message // by conversation ID, in append order
}

// NewMemoryStore creates an empty memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		convs:    make(map[string]*Conversation),
		messages: make(map[string][]*Message),
	}
}

func (s *MemoryStore) CreateConversation(_ context.Context, conv *Conversation) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	cp := *conv
	now := time.Now()
	if cp.CreatedAt.IsZero() {
		cp.CreatedAt = now
	}
	cp.UpdatedAt = now
	if cp.Stage == "" {
		cp.Stage = funnel.StageAwareness
	}
	s.convs[conv.ID] = &cp
	return nil
}

func (s *MemoryStore) GetConversation(_ context.Context, companyID, convID string) (*Conversation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	conv, ok := s.convs[convID]
	if !ok || conv.CompanyID != companyID {
		return nil, ErrConversationNotFound
	}
	cp := *conv
	return &cp, nil
}

func (s *MemoryStore) UpdateStage(_ context.Context, companyID, convID string, stage string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	conv, ok := s.convs[convID]
	if !ok || conv.CompanyID != companyID {
		return ErrConversationNotFound
	}
	conv.Stage = funnel.Stage(stage)
	conv.UpdatedAt = time.Now()
	return nil
}

func (s *MemoryStore) ListConversations(_ context.Context, companyID string, limit int, after *pagination.Cursor) ([]*Conversation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []*Conversation
	for _, conv := range s.convs {
		if conv.CompanyID != companyID {
			continue
		}
		if after != nil && !beforeCursor(conv, after) {
			continue
		}
		cp := *conv
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID > out[j].ID
		}
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// beforeCursor reports whether conv sorts strictly after the cursor
// position in the newest-first ordering.
func beforeCursor(conv *Conversation, after *pagination.Cursor) bool {
	if conv.CreatedAt.Equal(after.CreatedAt) {
		return conv.ID < after.ID
	}
	return conv.CreatedAt.Before(after.CreatedAt)
}

func (s *MemoryStore) AppendMessage(_ context.Context, msg *Message) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	conv, ok := s.convs[msg.ConversationID]
	if !ok || conv.CompanyID != msg.CompanyID {
		return ErrConversationNotFound
	}

	cp := *msg
	if cp.CreatedAt.IsZero() {
		cp.CreatedAt = time.Now()
	}
	s.messages[msg.ConversationID] = append(s.messages[msg.ConversationID], &cp)
	conv.UpdatedAt = cp.CreatedAt
	return nil
}

func (s *MemoryStore) ListMessages(_ context.Context, companyID, convID string) ([]*Message, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	conv, ok := s.convs[convID]
	if !ok || conv.CompanyID != companyID {
		return nil, ErrConversationNotFound
	}

	msgs := s.messages[convID]
	out := make([]*Message, len(msgs))
	for i, m := range msgs {
		cp := *m
		out[i] = &cp
	}
	return out, nil
}
