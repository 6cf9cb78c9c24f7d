package funnel

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/pitchdesk/pitchdesk/internal/company"
)

func TestClassifyContactCapture(t *testing.T) {
	assert.Equal(t, StageContactCapture,
		Classify("you can reach me at jane@example.com", StageAwareness))
	assert.Equal(t, StageContactCapture,
		Classify("call me on +1 415 555 0199", StageAwareness))
}

func TestClassifyContactOutranksObjection(t *testing.T) {
	// A message with both an email and objection language is contact
	// capture; contact detection has top priority.
	got := Classify("too expensive for us, but email me at bob@acme.io", StagePricingInterest)
	assert.Equal(t, StageContactCapture, got)
}

func TestClassifyObjection(t *testing.T) {
	assert.Equal(t, StageObjectionPrice,
		Classify("honestly this seems too expensive", StageAwareness))
	assert.Equal(t, StageObjectionPrice,
		Classify("that is out of budget for us", StagePricingInterest))
	assert.Equal(t, StageObjectionPrice,
		Classify("es muy caro", StageAwareness))
}

func TestClassifyClosing(t *testing.T) {
	assert.Equal(t, StageClosing,
		Classify("ok, let's do it", StageAwareness))
	assert.Equal(t, StageClosing,
		Classify("can I book a demo for tomorrow?", StageAwareness))
	assert.Equal(t, StageClosing,
		Classify("what are the next steps?", StageQualification))
}

func TestClassifyPricingInterest(t *testing.T) {
	assert.Equal(t, StagePricingInterest,
		Classify("how much does this cost?", StageAwareness))
	assert.Equal(t, StagePricingInterest,
		Classify("do you have a free trial?", StageAwareness))
}

func TestClassifyStickyFallback(t *testing.T) {
	// Engaged conversations advance to qualification on a neutral turn.
	assert.Equal(t, StageQualification, Classify("ok thanks", StagePricingInterest))
	assert.Equal(t, StageQualification, Classify("ok thanks", StageObjectionPrice))
	assert.Equal(t, StageQualification, Classify("sounds good", StageQualification))

	// Cold conversations stay at awareness.
	assert.Equal(t, StageAwareness, Classify("ok thanks", StageAwareness))
	assert.Equal(t, StageAwareness, Classify("hello there", ""))
	assert.Equal(t, StageAwareness, Classify("ok thanks", StageContactCapture))
}

func TestClassifyPure(t *testing.T) {
	for i := 0; i < 3; i++ {
		assert.Equal(t, StagePricingInterest,
			Classify("what are your plans?", StageAwareness))
	}
}

func TestStageValid(t *testing.T) {
	assert.True(t, StageAwareness.Valid())
	assert.True(t, StageClosing.Valid())
	assert.False(t, Stage("checkout").Valid())
	assert.False(t, Stage("").Valid())
}

func TestStrategicQuestionFieldPriority(t *testing.T) {
	all := company.QualificationFields{Industry: true, Goal: true, Timeline: true, Budget: true}
	assert.Equal(t, fieldQuestions["industry"], StrategicQuestion(StageQualification, all))

	noIndustry := company.QualificationFields{Goal: true, Timeline: true, Budget: true}
	assert.Equal(t, fieldQuestions["goal"], StrategicQuestion(StageQualification, noIndustry))

	budgetOnly := company.QualificationFields{Budget: true}
	assert.Equal(t, fieldQuestions["budget"], StrategicQuestion(StageAwareness, budgetOnly))
}

func TestStrategicQuestionGenericFallback(t *testing.T) {
	none := company.QualificationFields{}
	assert.Equal(t, genericQuestions[StageClosing], StrategicQuestion(StageClosing, none))
	assert.Equal(t, genericQuestions[StageAwareness], StrategicQuestion(StageAwareness, none))
	assert.NotEmpty(t, StrategicQuestion(Stage("unknown"), none))
}
