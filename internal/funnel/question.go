package funnel

import "github.com/pitchdesk/pitchdesk/internal/company"

// Per-field questions, one predetermined string each.
var fieldQuestions = map[string]string{
	"industry": "What industry is your business in?",
	"goal":     "What's the main outcome you're hoping to achieve?",
	"timeline": "When are you looking to get started?",
	"budget":   "Do you have a budget range in mind for this?",
}

// fieldPriority is the fixed order a question is picked in.
var fieldPriority = []string{"industry", "goal", "timeline", "budget"}

// Stage-specific generic questions, used when no qualification field
// is enabled.
var genericQuestions = map[Stage]string{
	StageAwareness:       "What brought you here today?",
	StagePricingInterest: "Which features matter most to you, so I can point you at the right plan?",
	StageObjectionPrice:  "What budget were you hoping to stay within?",
	StageQualification:   "Could you tell me a bit more about your business?",
	StageContactCapture:  "What's the best way to reach you for a follow-up?",
	StageClosing:         "Would you like to pick a time that works for you?",
}

// StrategicQuestion returns the single follow-up question for a stage.
// It picks the first enabled qualification field in priority order and
// falls back to a stage-generic question when none is enabled.
func StrategicQuestion(stage Stage, fields company.QualificationFields) string {
	enabled := map[string]bool{
		"industry": fields.Industry,
		"goal":     fields.Goal,
		"timeline": fields.Timeline,
		"budget":   fields.Budget,
	}
	for _, f := range fieldPriority {
		if enabled[f] {
			return fieldQuestions[f]
		}
	}
	if q, ok := genericQuestions[stage]; ok {
		return q
	}
	return genericQuestions[StageAwareness]
}
