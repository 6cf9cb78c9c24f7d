package lead

import (
	"context"
	"errors"
	"fmt"

	"github.com/pitchdesk/pitchdesk/internal/company"
	"github.com/pitchdesk/pitchdesk/internal/funnel"
	"github.com/pitchdesk/pitchdesk/internal/idgen"
	"github.com/pitchdesk/pitchdesk/internal/logging"
	"github.com/pitchdesk/pitchdesk/internal/metrics"
	"github.com/pitchdesk/pitchdesk/internal/validation"
)

// qualificationOrder mirrors the order strategic questions are asked
// in, so a qualification-stage answer lands on the right field.
var qualificationOrder = []string{"industry", "goal", "timeline", "budget"}

// CaptureInput is one chat turn seen by the capture pass.
type CaptureInput struct {
	CompanyID      string
	ConversationID string
	Message        string
	Stage          funnel.Stage
	PrevStage      funnel.Stage
	Fields         company.QualificationFields
}

// Capture inspects a visitor turn for contact details and
// qualification answers and upserts the conversation's lead. Returns
// (nil, nil) when the turn carries no signal worth persisting.
func Capture(ctx context.Context, store Store, in CaptureInput) (*Lead, error) {
	email := validation.ExtractEmail(in.Message)
	phone := validation.ExtractPhone(in.Message)
	answering := in.PrevStage == funnel.StageQualification && in.Message != ""

	if email == "" && phone == "" && !answering {
		return nil, nil
	}

	l, err := store.GetByConversation(ctx, in.CompanyID, in.ConversationID)
	created := false
	switch {
	case err == nil:
	case errors.Is(err, ErrLeadNotFound):
		l = &Lead{
			ID:             idgen.WithPrefix("lead_"),
			CompanyID:      in.CompanyID,
			ConversationID: in.ConversationID,
			Qualification:  map[string]string{},
		}
		created = true
	default:
		return nil, fmt.Errorf("lookup lead: %w", err)
	}
	if l.Qualification == nil {
		l.Qualification = map[string]string{}
	}

	if email != "" && l.Email == "" {
		l.Email = email
		l.Score += ScoreEmail
	}
	if phone != "" && l.Phone == "" {
		l.Phone = phone
		l.Score += ScorePhone
	}
	if answering {
		if field := nextQualificationField(l, in.Fields); field != "" {
			l.Qualification[field] = validation.SanitizeString(in.Message, validation.MaxMessageLength)
			l.Score += ScoreQualification
		}
	}
	l.Stage = string(in.Stage)

	if created {
		if err := store.Create(ctx, l); err != nil {
			return nil, fmt.Errorf("create lead: %w", err)
		}
		metrics.LeadsCapturedTotal.Inc()
		logging.L(ctx).Info("lead captured",
			"lead_id", l.ID,
			"company_id", in.CompanyID,
			"conversation_id", in.ConversationID,
			"score", l.Score)
	} else {
		if err := store.Update(ctx, l); err != nil {
			return nil, fmt.Errorf("update lead: %w", err)
		}
	}
	return l, nil
}

// nextQualificationField returns the first enabled field the lead has
// no answer for yet.
func nextQualificationField(l *Lead, fields company.QualificationFields) string {
	enabled := map[string]bool{
		"industry": fields.Industry,
		"goal":     fields.Goal,
		"timeline": fields.Timeline,
		"budget":   fields.Budget,
	}
	for _, f := range qualificationOrder {
		if enabled[f] && l.Qualification[f] == "" {
			return f
		}
	}
	return ""
}
