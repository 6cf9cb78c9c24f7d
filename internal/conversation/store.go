package conversation

import (
	"context"

	"github.com/pitchdesk/pitchdesk/internal/pagination"
)

// Store persists conversations and messages, always scoped by company.
type Store interface {
	// CreateConversation stores a new conversation.
	CreateConversation(ctx context.Context, conv *Conversation) error

	// GetConversation returns a conversation scoped to the company.
	GetConversation(ctx context.Context, companyID, convID string) (*Conversation, error)

	// UpdateStage records the last-known funnel stage.
	UpdateStage(ctx context.Context, companyID, convID string, stage string) error

	// ListConversations returns a company's conversations, newest
	// first, up to limit. A non-nil cursor resumes after the
	// (createdAt, id) position it encodes.
	ListConversations(ctx context.Context, companyID string, limit int, after *pagination.Cursor) ([]*Conversation, error)

	// AppendMessage stores one turn.
	AppendMessage(ctx context.Context, msg *Message) error

	// ListMessages returns a conversation's messages in order, scoped
	// to the company.
	ListMessages(ctx context.Context, companyID, convID string) ([]*Message, error)
}
