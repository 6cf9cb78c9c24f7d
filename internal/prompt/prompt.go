// Package prompt assembles the system instruction block handed to the
// response generator. Assembly is deterministic string composition:
// the same input always produces the same block.
package prompt

import (
	"fmt"
	"strings"

	"github.com/pitchdesk/pitchdesk/internal/company"
	"github.com/pitchdesk/pitchdesk/internal/funnel"
)

// Input is everything the assembler needs for one turn.
type Input struct {
	CompanyName string
	Config      company.FunnelConfig
	Stage       funnel.Stage
	Question    string
	Knowledge   string
}

var toneLines = map[string]string{
	"friendly": "Keep a warm, friendly, conversational tone.",
	"formal":   "Keep a polished, professional tone.",
	"direct":   "Be direct and to the point.",
}

var lengthLines = map[string]string{
	"short":  "Answer in 1-2 sentences.",
	"medium": "Answer in a short paragraph.",
	"long":   "Answer thoroughly, in several paragraphs if needed.",
}

var ctaLines = map[string]string{
	"book_demo":     "When the visitor is ready, steer them toward booking a demo.",
	"start_trial":   "When the visitor is ready, steer them toward starting a free trial.",
	"contact_sales": "When the visitor is ready, steer them toward leaving contact details for the sales team.",
}

var stageLines = map[funnel.Stage]string{
	funnel.StageAwareness:       "The visitor is exploring. Explain what the product does and why it matters to them.",
	funnel.StagePricingInterest: "The visitor is asking about pricing. Answer concretely from the context below.",
	funnel.StageObjectionPrice:  "The visitor raised a price objection.",
	funnel.StageQualification:   "The visitor is engaged. Learn about their situation before pushing a plan.",
	funnel.StageContactCapture:  "The visitor shared contact details. Acknowledge them and confirm a follow-up.",
	funnel.StageClosing:         "The visitor is ready to proceed. Make the next step effortless.",
}

// Build produces the instruction block for one turn.
func Build(in Input) string {
	var b strings.Builder

	fmt.Fprintf(&b, "You are the sales assistant for %s.\n", in.CompanyName)
	if lang := in.Config.Language; lang != "" && lang != "en" {
		fmt.Fprintf(&b, "Respond in language %q.\n", lang)
	}
	if line, ok := toneLines[in.Config.Tone]; ok {
		b.WriteString(line + "\n")
	}
	if line, ok := lengthLines[in.Config.ResponseLength]; ok {
		b.WriteString(line + "\n")
	}

	b.WriteString("\n")
	if line, ok := stageLines[in.Stage]; ok {
		b.WriteString(line + "\n")
	}

	if in.Config.DisclosePricing {
		b.WriteString("When pricing comes up, present every plan compactly and recommend the one that fits the visitor best.\n")
	} else {
		b.WriteString("Do not quote exact prices; offer to connect the visitor with the sales team for pricing.\n")
	}

	if in.Config.HandleObjections && in.Stage == funnel.StageObjectionPrice {
		b.WriteString("Validate the visitor's concern, offer the most affordable suitable plan, then re-qualify what they actually need.\n")
	}

	if line, ok := ctaLines[in.Config.CTAStyle]; ok {
		b.WriteString(line + "\n")
	}

	b.WriteString("Use the context below as your source of truth. Never say the context is insufficient; answer with what is there.\n")
	if in.Question != "" {
		fmt.Fprintf(&b, "End your reply with exactly one question: %q\n", in.Question)
	}

	if in.Knowledge != "" {
		b.WriteString("\n--- CONTEXT ---\n")
		b.WriteString(in.Knowledge)
		b.WriteString("\n--- END CONTEXT ---\n")
	}

	return b.String()
}
