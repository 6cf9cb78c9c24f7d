// Package webhooks delivers platform events to URLs registered by
// tenant companies. Payloads are signed with a per-endpoint HMAC
// secret so receivers can verify origin.
package webhooks

import (
	"context"
	"errors"
	"time"
)

// ErrEndpointNotFound is returned for unknown endpoint ids.
var ErrEndpointNotFound = errors.New("webhooks: endpoint not found")

// Event types a company can subscribe to.
const (
	EventConversationStarted = "conversation.started"
	EventMessageExchanged    = "message.exchanged"
	EventLeadCreated         = "lead.created"
	EventTrialExpired        = "trial.expired"
)

// ValidEvent reports whether t is a known event type.
func ValidEvent(t string) bool {
	switch t {
	case EventConversationStarted, EventMessageExchanged,
		EventLeadCreated, EventTrialExpired:
		return true
	}
	return false
}

// Event is the payload delivered to subscribed endpoints.
type Event struct {
	ID        string         `json:"id"`
	Type      string         `json:"type"`
	CompanyID string         `json:"companyId"`
	Timestamp time.Time      `json:"timestamp"`
	Data      map[string]any `json:"data"`
}

// Endpoint is a company's registered delivery target. The secret is
// returned once at creation and otherwise never leaves the store.
type Endpoint struct {
	ID          string     `json:"id"`
	CompanyID   string     `json:"companyId"`
	URL         string     `json:"url"`
	Secret      string     `json:"-"`
	Events      []string   `json:"events"`
	Active      bool       `json:"active"`
	CreatedAt   time.Time  `json:"createdAt"`
	LastSuccess *time.Time `json:"lastSuccess,omitempty"`
	LastError   string     `json:"lastError,omitempty"`
}

// Subscribed reports whether the endpoint wants the given event type.
func (e *Endpoint) Subscribed(eventType string) bool {
	for _, t := range e.Events {
		if t == eventType {
			return true
		}
	}
	return false
}

// Store persists webhook endpoints.
type Store interface {
	Create(ctx context.Context, ep *Endpoint) error
	Get(ctx context.Context, companyID, id string) (*Endpoint, error)
	ListByCompany(ctx context.Context, companyID string) ([]*Endpoint, error)
	Update(ctx context.Context, ep *Endpoint) error
	Delete(ctx context.Context, companyID, id string) error
}
