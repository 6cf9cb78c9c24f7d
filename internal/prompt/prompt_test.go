package prompt

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/pitchdesk/pitchdesk/internal/company"
	"github.com/pitchdesk/pitchdesk/internal/funnel"
)

func baseInput() Input {
	return Input{
		CompanyName: "Acme Corp",
		Config:      company.DefaultFunnelConfig(),
		Stage:       funnel.StageAwareness,
		Question:    "What industry is your business in?",
		Knowledge:   "## Plans\nStarter $29, Pro $99.",
	}
}

func TestBuildDeterministic(t *testing.T) {
	in := baseInput()
	assert.Equal(t, Build(in), Build(in))
}

func TestBuildIncludesParts(t *testing.T) {
	out := Build(baseInput())

	assert.Contains(t, out, "Acme Corp")
	assert.Contains(t, out, "Starter $29")
	assert.Contains(t, out, `exactly one question: "What industry is your business in?"`)
	assert.Contains(t, out, "Never say the context is insufficient")
}

func TestBuildPricingDisclosureToggle(t *testing.T) {
	in := baseInput()
	in.Config.DisclosePricing = true
	assert.Contains(t, Build(in), "present every plan compactly")

	in.Config.DisclosePricing = false
	out := Build(in)
	assert.NotContains(t, out, "present every plan compactly")
	assert.Contains(t, out, "Do not quote exact prices")
}

func TestBuildObjectionHandling(t *testing.T) {
	in := baseInput()
	in.Config.HandleObjections = true
	in.Stage = funnel.StageObjectionPrice
	assert.Contains(t, Build(in), "Validate the visitor's concern")

	// Only active in the objection stage.
	in.Stage = funnel.StagePricingInterest
	assert.NotContains(t, Build(in), "Validate the visitor's concern")

	in.Stage = funnel.StageObjectionPrice
	in.Config.HandleObjections = false
	assert.NotContains(t, Build(in), "Validate the visitor's concern")
}

func TestBuildLanguage(t *testing.T) {
	in := baseInput()
	in.Config.Language = "hu"
	assert.Contains(t, Build(in), `language "hu"`)

	in.Config.Language = "en"
	assert.NotContains(t, Build(in), "Respond in language")
}

func TestBuildNoQuestionNoKnowledge(t *testing.T) {
	in := baseInput()
	in.Question = ""
	in.Knowledge = ""
	out := Build(in)
	assert.NotContains(t, out, "exactly one question")
	assert.NotContains(t, out, "--- CONTEXT ---")
}
