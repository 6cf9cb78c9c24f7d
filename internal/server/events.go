package server

import (
	"context"
	"strings"

	"github.com/pitchdesk/pitchdesk/internal/conversation"
	"github.com/pitchdesk/pitchdesk/internal/lead"
	"github.com/pitchdesk/pitchdesk/internal/realtime"
	"github.com/pitchdesk/pitchdesk/internal/webhooks"
)

// eventFanout forwards chat pipeline events to webhook subscribers and
// the realtime hub. Either sink may be nil.
type eventFanout struct {
	hub        *realtime.Hub
	dispatcher *webhooks.Dispatcher
}

func (f *eventFanout) ConversationStarted(ctx context.Context, conv *conversation.Conversation) {
	data := map[string]any{
		"conversationId": conv.ID,
		"stage":          string(conv.Stage),
	}
	if f.dispatcher != nil {
		f.dispatcher.Emit(ctx, conv.CompanyID, webhooks.EventConversationStarted, data)
	}
	if f.hub != nil {
		f.hub.Publish(conv.CompanyID, webhooks.EventConversationStarted, data)
	}
}

func (f *eventFanout) MessageExchanged(ctx context.Context, visitor, assistant *conversation.Message) {
	data := map[string]any{
		"conversationId": visitor.ConversationID,
		"visitor":        visitor.Content,
		"assistant":      assistant.Content,
	}
	if f.dispatcher != nil {
		f.dispatcher.Emit(ctx, visitor.CompanyID, webhooks.EventMessageExchanged, data)
	}
	if f.hub != nil {
		f.hub.Publish(visitor.CompanyID, webhooks.EventMessageExchanged, data)
	}
}

func (f *eventFanout) LeadCaptured(ctx context.Context, l *lead.Lead) {
	data := map[string]any{
		"leadId":         l.ID,
		"conversationId": l.ConversationID,
		"email":          l.Email,
		"score":          l.Score,
	}
	if f.dispatcher != nil {
		f.dispatcher.Emit(ctx, l.CompanyID, webhooks.EventLeadCreated, data)
	}
	if f.hub != nil {
		f.hub.Publish(l.CompanyID, webhooks.EventLeadCreated, data)
	}
}

// scriptedGenerator is the built-in fallback when no model-backed
// generator is wired in. It answers from the assembled prompt alone,
// which keeps demo mode self-contained and deterministic.
type scriptedGenerator struct {
	model string
}

func newScriptedGenerator(model string) *scriptedGenerator {
	return &scriptedGenerator{model: model}
}

func (g *scriptedGenerator) Generate(ctx context.Context, systemPrompt string, history []*conversation.Message, userMessage string) (string, error) {
	msg := strings.ToLower(userMessage)
	switch {
	case strings.Contains(msg, "price") || strings.Contains(msg, "cost") || strings.Contains(msg, "how much"):
		return "Happy to walk you through pricing. Our plans scale with your team; which team size are we looking at?", nil
	case strings.Contains(msg, "expensive") || strings.Contains(msg, "too much"):
		return "That's fair. Most teams find the starter tier covers what they need; what budget did you have in mind?", nil
	case strings.Contains(msg, "demo") || strings.Contains(msg, "book"):
		return "Let's set that up. What does your calendar look like this week?", nil
	default:
		return "Thanks for reaching out! Tell me a bit about what you're trying to solve and I'll point you at the right fit.", nil
	}
}
