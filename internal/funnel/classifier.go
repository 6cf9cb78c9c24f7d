package funnel

import (
	"strings"

	"github.com/pitchdesk/pitchdesk/internal/validation"
)

// rule is one classifier step. match runs against the lowercased
// message; prev-independent rules ignore the second argument.
type rule struct {
	name  string
	match func(lower, original string) bool
	stage Stage
}

// rules in strict priority order. Contact detection outranks
// everything: a message carrying both an email and objection language
// classifies as contact_capture.
var rules = []rule{
	{
		name: "contact",
		match: func(_, original string) bool {
			return validation.ContainsContactInfo(original)
		},
		stage: StageContactCapture,
	},
	{
		name: "price_objection",
		match: func(lower, _ string) bool {
			return containsAny(lower, objectionMarkers)
		},
		stage: StageObjectionPrice,
	},
	{
		name: "ready_to_proceed",
		match: func(lower, _ string) bool {
			return containsAny(lower, closingMarkers)
		},
		stage: StageClosing,
	},
	{
		name: "commercial_interest",
		match: func(lower, _ string) bool {
			return containsAny(lower, pricingMarkers)
		},
		stage: StagePricingInterest,
	},
}

var objectionMarkers = []string{
	"too expensive", "too pricey", "too much money", "can't afford",
	"cannot afford", "out of budget", "over budget", "cheaper",
	"muy caro", "trop cher", "zu teuer",
}

var closingMarkers = []string{
	"sign up", "sign me up", "let's do it", "lets do it", "get started",
	"book a call", "book a demo", "schedule a call", "schedule a demo",
	"ready to buy", "ready to start", "where do i sign", "next step",
	"next steps", "send me the contract",
}

var pricingMarkers = []string{
	"price", "pricing", "cost", "how much", "plan", "plans", "tier",
	"subscription", "quote", "demo", "trial", "discount", "billing",
}

// Classify returns the funnel stage for a message given the previous
// stage. An unknown or empty previous stage is treated as awareness.
func Classify(message string, previous Stage) Stage {
	lower := strings.ToLower(message)
	for _, r := range rules {
		if r.match(lower, message) {
			return r.stage
		}
	}
	return fallback(previous)
}

// fallback is the sticky rule: engaged conversations advance to
// qualification, everything else stays at awareness.
func fallback(previous Stage) Stage {
	switch previous {
	case StagePricingInterest, StageObjectionPrice, StageQualification:
		return StageQualification
	}
	return StageAwareness
}

func containsAny(s string, markers []string) bool {
	for _, m := range markers {
		if strings.Contains(s, m) {
			return true
		}
	}
	return false
}
