// Package chat runs the per-turn pipeline behind the widget: gate the
// request, classify the funnel stage, assemble the prompt, call the
// generator, persist the turn, and capture leads opportunistically.
package chat

import (
	"context"
	"errors"

	"github.com/pitchdesk/pitchdesk/internal/conversation"
	"github.com/pitchdesk/pitchdesk/internal/entitlement"
	"github.com/pitchdesk/pitchdesk/internal/funnel"
	"github.com/pitchdesk/pitchdesk/internal/lead"
)

// Errors surfaced by the pipeline. Handlers map these to statuses.
var (
	ErrEmptyMessage         = errors.New("chat: empty message")
	ErrMessageTooLong       = errors.New("chat: message too long")
	ErrCompanyInactive      = errors.New("chat: company is not active")
	ErrNotEntitled          = errors.New("chat: company not entitled")
	ErrRateLimited          = errors.New("chat: rate limit exceeded")
	ErrGeneratorUnavailable = errors.New("chat: generator unavailable")
)

// Generator produces the assistant reply. Implementations call an
// external model; the pipeline only sees this interface.
type Generator interface {
	Generate(ctx context.Context, systemPrompt string, history []*conversation.Message, userMessage string) (string, error)
}

// Events receives pipeline notifications. Implementations fan out to
// webhooks and the realtime hub; NoopEvents drops everything.
type Events interface {
	ConversationStarted(ctx context.Context, conv *conversation.Conversation)
	MessageExchanged(ctx context.Context, visitor, assistant *conversation.Message)
	LeadCaptured(ctx context.Context, l *lead.Lead)
}

// NoopEvents is an Events that does nothing.
type NoopEvents struct{}

func (NoopEvents) ConversationStarted(context.Context, *conversation.Conversation) {}
func (NoopEvents) MessageExchanged(context.Context, *conversation.Message, *conversation.Message) {
}
func (NoopEvents) LeadCaptured(context.Context, *lead.Lead) {}

// TurnInput is one inbound widget message.
type TurnInput struct {
	CompanyID      string
	ConversationID string // empty starts a new conversation
	Message        string
}

// TurnResult is what the widget gets back for one turn.
type TurnResult struct {
	ConversationID string             `json:"conversationId"`
	Reply          string             `json:"reply"`
	Stage          funnel.Stage       `json:"stage"`
	Question       string             `json:"question,omitempty"`
	Limits         entitlement.Limits `json:"limits"`
	LeadCaptured   bool               `json:"leadCaptured"`
}
