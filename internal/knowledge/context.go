package knowledge

import (
	"context"
	"fmt"
	"strings"
)

// Bounds on the context slice pulled per turn.
const (
	MinContextChunks = 6
	MaxContextChunks = 50
)

// pricingContextMarkers flag a chunk as pricing-relevant when they
// appear in its title, content, source, or tags.
var pricingContextMarkers = []string{
	"price", "pricing", "cost", "plan", "tier", "fee", "rate",
	"subscription", "billing", "discount",
}

// ContextSlice returns up to limit chunks for a company, newest first,
// optionally filtered down to pricing-relevant rows. When the pricing
// filter matches nothing, the unfiltered slice is returned instead:
// the prompt assembler must never see an empty context just because
// the filter was strict. limit is clamped into
// [MinContextChunks, MaxContextChunks].
func ContextSlice(ctx context.Context, store Store, companyID string, limit int, pricingOnly bool) ([]*Chunk, error) {
	if limit < MinContextChunks {
		limit = MinContextChunks
	}
	if limit > MaxContextChunks {
		limit = MaxContextChunks
	}

	chunks, err := store.ListRecent(ctx, companyID, limit)
	if err != nil {
		return nil, err
	}
	if !pricingOnly {
		return chunks, nil
	}

	var filtered []*Chunk
	for _, c := range chunks {
		if pricingRelevant(c) {
			filtered = append(filtered, c)
		}
	}
	if len(filtered) == 0 {
		return chunks, nil
	}
	return filtered, nil
}

// RenderContext flattens chunks into the text block handed to the
// prompt assembler.
func RenderContext(chunks []*Chunk) string {
	if len(chunks) == 0 {
		return ""
	}
	var b strings.Builder
	for i, c := range chunks {
		if i > 0 {
			b.WriteString("\n\n")
		}
		if c.Title != "" {
			fmt.Fprintf(&b, "## %s\n", c.Title)
		}
		b.WriteString(c.Content)
	}
	return b.String()
}

func pricingRelevant(c *Chunk) bool {
	if containsMarker(c.Title) || containsMarker(c.Content) || containsMarker(c.Source) {
		return true
	}
	for _, tag := range c.Tags {
		if containsMarker(tag) {
			return true
		}
	}
	return false
}

func containsMarker(s string) bool {
	lower := strings.ToLower(s)
	for _, m := range pricingContextMarkers {
		if strings.Contains(lower, m) {
			return true
		}
	}
	return false
}
