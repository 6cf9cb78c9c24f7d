// Package conversation stores chat conversations and their messages.
// Conversations are append-only; the funnel stage is carried on the
// conversation row as the last-known value and recomputed every turn.
package conversation

import (
	"errors"
	"time"

	"github.com/pitchdesk/pitchdesk/internal/funnel"
)

// Errors
var (
	ErrConversationNotFound = errors.New("conversation: not found")
)

// Message roles.
const (
	RoleVisitor   = "visitor"
	RoleAssistant = "assistant"
)

// Conversation is one widget chat session.
type Conversation struct {
	ID        string       `json:"id"`
	CompanyID string       `json:"companyId"`
	Stage     funnel.Stage `json:"stage"`
	CreatedAt time.Time    `json:"createdAt"`
	UpdatedAt time.Time    `json:"updatedAt"`
}

// Message is one turn within a conversation.
type Message struct {
	ID             string    `json:"id"`
	ConversationID string    `json:"conversationId"`
	CompanyID      string    `json:"companyId"`
	Role           string    `json:"role"`
	Content        string    `json:"content"`
	CreatedAt      time.Time `json:"createdAt"`
}
