package lead

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pitchdesk/pitchdesk/internal/company"
	"github.com/pitchdesk/pitchdesk/internal/funnel"
)

func TestCaptureEmail(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	l, err := Capture(ctx, store, CaptureInput{
		CompanyID:      "cmp_1",
		ConversationID: "conv_1",
		Message:        "sure, reach me at jane@acme.io",
		Stage:          funnel.StageContactCapture,
		PrevStage:      funnel.StageClosing,
	})
	require.NoError(t, err)
	require.NotNil(t, l)
	assert.Equal(t, "jane@acme.io", l.Email)
	assert.Equal(t, ScoreEmail, l.Score)
	assert.Equal(t, string(funnel.StageContactCapture), l.Stage)

	got, err := store.GetByConversation(ctx, "cmp_1", "conv_1")
	require.NoError(t, err)
	assert.Equal(t, l.ID, got.ID)
}

func TestCaptureNoSignalIsNoop(t *testing.T) {
	store := NewMemoryStore()

	l, err := Capture(context.Background(), store, CaptureInput{
		CompanyID:      "cmp_1",
		ConversationID: "conv_1",
		Message:        "just browsing",
		Stage:          funnel.StageAwareness,
		PrevStage:      funnel.StageAwareness,
	})
	require.NoError(t, err)
	assert.Nil(t, l)

	_, err = store.GetByConversation(context.Background(), "cmp_1", "conv_1")
	assert.ErrorIs(t, err, ErrLeadNotFound)
}

func TestCaptureUpdatesExistingLead(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	first, err := Capture(ctx, store, CaptureInput{
		CompanyID:      "cmp_1",
		ConversationID: "conv_1",
		Message:        "email me: jane@acme.io",
		Stage:          funnel.StageContactCapture,
	})
	require.NoError(t, err)

	second, err := Capture(ctx, store, CaptureInput{
		CompanyID:      "cmp_1",
		ConversationID: "conv_1",
		Message:        "or call +1 415 555 0199",
		Stage:          funnel.StageContactCapture,
	})
	require.NoError(t, err)
	assert.Equal(t, first.ID, second.ID)
	assert.Equal(t, "jane@acme.io", second.Email)
	assert.NotEmpty(t, second.Phone)
	assert.Equal(t, ScoreEmail+ScorePhone, second.Score)
}

func TestCaptureQualificationAnswer(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()
	fields := company.QualificationFields{Industry: true, Goal: true}

	l, err := Capture(ctx, store, CaptureInput{
		CompanyID:      "cmp_1",
		ConversationID: "conv_1",
		Message:        "we run a chain of dental clinics",
		Stage:          funnel.StageQualification,
		PrevStage:      funnel.StageQualification,
		Fields:         fields,
	})
	require.NoError(t, err)
	require.NotNil(t, l)
	assert.Equal(t, "we run a chain of dental clinics", l.Qualification["industry"])
	assert.Equal(t, ScoreQualification, l.Score)

	// The next answer fills the next enabled field.
	l, err = Capture(ctx, store, CaptureInput{
		CompanyID:      "cmp_1",
		ConversationID: "conv_1",
		Message:        "we want more online bookings",
		Stage:          funnel.StageQualification,
		PrevStage:      funnel.StageQualification,
		Fields:         fields,
	})
	require.NoError(t, err)
	assert.Equal(t, "we want more online bookings", l.Qualification["goal"])
	assert.Equal(t, 2*ScoreQualification, l.Score)
}

func TestCaptureEmailNotOverwritten(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	_, err := Capture(ctx, store, CaptureInput{
		CompanyID: "cmp_1", ConversationID: "conv_1",
		Message: "jane@acme.io", Stage: funnel.StageContactCapture,
	})
	require.NoError(t, err)

	l, err := Capture(ctx, store, CaptureInput{
		CompanyID: "cmp_1", ConversationID: "conv_1",
		Message: "actually use other@acme.io", Stage: funnel.StageContactCapture,
	})
	require.NoError(t, err)
	assert.Equal(t, "jane@acme.io", l.Email, "first captured email wins")
	assert.Equal(t, ScoreEmail, l.Score)
}

func TestListOrderedByScore(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	require.NoError(t, store.Create(ctx, &Lead{
		ID: "lead_a", CompanyID: "cmp_1", ConversationID: "conv_a", Score: 10,
	}))
	require.NoError(t, store.Create(ctx, &Lead{
		ID: "lead_b", CompanyID: "cmp_1", ConversationID: "conv_b", Score: 50,
	}))
	require.NoError(t, store.Create(ctx, &Lead{
		ID: "lead_c", CompanyID: "cmp_2", ConversationID: "conv_c", Score: 99,
	}))

	got, err := store.List(ctx, "cmp_1", 10)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "lead_b", got[0].ID)
}

func TestGetScopedByCompany(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	require.NoError(t, store.Create(ctx, &Lead{
		ID: "lead_a", CompanyID: "cmp_1", ConversationID: "conv_a",
	}))

	_, err := store.Get(ctx, "cmp_2", "lead_a")
	assert.ErrorIs(t, err, ErrLeadNotFound)
}
