// Package lead captures sales leads opportunistically from chat turns.
// A lead row is created the first time contact details or
// qualification signals appear in a conversation and updated in place
// afterwards.
package lead

import (
	"errors"
	"time"
)

// ErrLeadNotFound is returned for unknown lead lookups.
var ErrLeadNotFound = errors.New("lead: not found")

// Score increments per captured signal.
const (
	ScoreEmail         = 30
	ScorePhone         = 20
	ScoreQualification = 10
)

// Lead is a captured sales prospect tied to a conversation.
type Lead struct {
	ID             string            `json:"id"`
	CompanyID      string            `json:"companyId"`
	ConversationID string            `json:"conversationId"`
	Email          string            `json:"email,omitempty"`
	Phone          string            `json:"phone,omitempty"`
	Name           string            `json:"name,omitempty"`
	Qualification  map[string]string `json:"qualification,omitempty"`
	Score          int               `json:"score"`
	Stage          string            `json:"stage,omitempty"`
	AssignedTo     string            `json:"assignedTo,omitempty"`
	CreatedAt      time.Time         `json:"createdAt"`
	UpdatedAt      time.Time         `json:"updatedAt"`
}
