// Package knowledge stores per-company knowledge chunks and builds the
// context slice the prompt assembler consumes.
package knowledge

import (
	"errors"
	"time"
)

// ErrChunkNotFound is returned when a chunk id is unknown.
var ErrChunkNotFound = errors.New("knowledge: chunk not found")

// Chunk is one unit of company knowledge. Source is free-form
// ("faq", "pricing_page", "manual", ...), Tags carry lightweight
// metadata for filtering.
type Chunk struct {
	ID        string    `json:"id"`
	CompanyID string    `json:"companyId"`
	Title     string    `json:"title"`
	Content   string    `json:"content"`
	Source    string    `json:"source,omitempty"`
	Tags      []string  `json:"tags,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}
