// Package funnel classifies chat messages into sales-funnel stages.
//
// The classifier is a pure function of (message, previous stage): it is
// recomputed every turn and never depends on hidden history. Rules are
// an ordered list evaluated top to bottom, first match wins.
package funnel

// Stage is a sales-funnel stage.
type Stage string

const (
	StageAwareness       Stage = "awareness"
	StagePricingInterest Stage = "pricing_interest"
	StageObjectionPrice  Stage = "objection_price"
	StageQualification   Stage = "qualification"
	StageContactCapture  Stage = "contact_capture"
	StageClosing         Stage = "closing"
)

// Valid reports whether s is a known stage.
func (s Stage) Valid() bool {
	switch s {
	case StageAwareness, StagePricingInterest, StageObjectionPrice,
		StageQualification, StageContactCapture, StageClosing:
		return true
	}
	return false
}
