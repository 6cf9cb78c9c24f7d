package chat

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pitchdesk/pitchdesk/internal/circuitbreaker"
	"github.com/pitchdesk/pitchdesk/internal/company"
	"github.com/pitchdesk/pitchdesk/internal/conversation"
	"github.com/pitchdesk/pitchdesk/internal/entitlement"
	"github.com/pitchdesk/pitchdesk/internal/funnel"
	"github.com/pitchdesk/pitchdesk/internal/knowledge"
	"github.com/pitchdesk/pitchdesk/internal/lead"
	"github.com/pitchdesk/pitchdesk/internal/plan"
	"github.com/pitchdesk/pitchdesk/internal/ratelimit"
	"github.com/pitchdesk/pitchdesk/internal/subscription"
	"github.com/pitchdesk/pitchdesk/internal/validation"
)

type stubGenerator struct {
	reply      string
	err        error
	lastPrompt string
	calls      int
}

func (g *stubGenerator) Generate(_ context.Context, systemPrompt string, _ []*conversation.Message, _ string) (string, error) {
	g.calls++
	g.lastPrompt = systemPrompt
	if g.err != nil {
		return "", g.err
	}
	return g.reply, nil
}

type testEnv struct {
	svc       *Service
	gen       *stubGenerator
	companies *company.MemoryStore
	subs      *subscription.MemoryStore
	convs     *conversation.MemoryStore
	chunks    *knowledge.MemoryStore
	leads     *lead.MemoryStore
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	env := &testEnv{
		gen:       &stubGenerator{reply: "Happy to help!"},
		companies: company.NewMemoryStore(),
		subs:      subscription.NewMemoryStore(),
		convs:     conversation.NewMemoryStore(),
		chunks:    knowledge.NewMemoryStore(),
		leads:     lead.NewMemoryStore(),
	}
	gate := entitlement.NewGate(env.subs, plan.NewMemoryStore(), env.companies)
	env.svc = NewService(env.companies, env.convs, env.chunks, env.leads,
		gate, ratelimit.NewWindowCounter(),
		circuitbreaker.New(3, time.Minute), env.gen, nil)

	comp := &company.Company{ID: "cmp_1", Name: "Acme", Slug: "acme"}
	comp.Settings.Funnel = company.DefaultFunnelConfig()
	require.NoError(t, env.companies.Create(context.Background(), comp))
	require.NoError(t, env.subs.Upsert(context.Background(), &subscription.Subscription{
		CompanyID: "cmp_1", Status: subscription.StatusActive, PlanKey: plan.KeyPro,
	}))
	return env
}

func TestHandleTurnHappyPath(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	result, err := env.svc.HandleTurn(ctx, TurnInput{
		CompanyID: "cmp_1",
		Message:   "hi, what does your product do?",
	})
	require.NoError(t, err)
	assert.NotEmpty(t, result.ConversationID)
	assert.Equal(t, "Happy to help!", result.Reply)
	assert.Equal(t, funnel.StageAwareness, result.Stage)
	assert.Equal(t, 120, result.Limits.PerMinute)

	msgs, err := env.convs.ListMessages(ctx, "cmp_1", result.ConversationID)
	require.NoError(t, err)
	require.Len(t, msgs, 2)
	assert.Equal(t, conversation.RoleVisitor, msgs[0].Role)
	assert.Equal(t, conversation.RoleAssistant, msgs[1].Role)
}

func TestHandleTurnContinuesConversation(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	first, err := env.svc.HandleTurn(ctx, TurnInput{
		CompanyID: "cmp_1", Message: "how much does it cost?",
	})
	require.NoError(t, err)
	assert.Equal(t, funnel.StagePricingInterest, first.Stage)

	second, err := env.svc.HandleTurn(ctx, TurnInput{
		CompanyID:      "cmp_1",
		ConversationID: first.ConversationID,
		Message:        "ok thanks",
	})
	require.NoError(t, err)
	assert.Equal(t, first.ConversationID, second.ConversationID)
	assert.Equal(t, funnel.StageQualification, second.Stage, "sticky fallback advances")

	conv, err := env.convs.GetConversation(ctx, "cmp_1", first.ConversationID)
	require.NoError(t, err)
	assert.Equal(t, funnel.StageQualification, conv.Stage)
}

func TestHandleTurnValidation(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	_, err := env.svc.HandleTurn(ctx, TurnInput{CompanyID: "cmp_1"})
	assert.ErrorIs(t, err, ErrEmptyMessage)

	_, err = env.svc.HandleTurn(ctx, TurnInput{
		CompanyID: "cmp_1",
		Message:   strings.Repeat("x", validation.MaxMessageLength+1),
	})
	assert.ErrorIs(t, err, ErrMessageTooLong)
}

func TestHandleTurnNotEntitled(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	require.NoError(t, env.subs.Upsert(ctx, &subscription.Subscription{
		CompanyID: "cmp_1", Status: subscription.StatusExpired, PlanKey: plan.KeyPro,
	}))

	_, err := env.svc.HandleTurn(ctx, TurnInput{CompanyID: "cmp_1", Message: "hi"})
	assert.ErrorIs(t, err, ErrNotEntitled)
	assert.Zero(t, env.gen.calls, "generator is never called for unentitled companies")
}

func TestHandleTurnSuspendedCompany(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	comp, err := env.companies.Get(ctx, "cmp_1")
	require.NoError(t, err)
	comp.Status = company.StatusSuspended
	require.NoError(t, env.companies.Update(ctx, comp))

	_, err = env.svc.HandleTurn(ctx, TurnInput{CompanyID: "cmp_1", Message: "hi"})
	assert.ErrorIs(t, err, ErrCompanyInactive)
}

func TestHandleTurnRateLimited(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	// Tighten the override to 2/min so the third turn hits the ceiling.
	comp, err := env.companies.Get(ctx, "cmp_1")
	require.NoError(t, err)
	comp.Settings.RateLimit.PerMinute = 2
	require.NoError(t, env.companies.Update(ctx, comp))

	for i := 0; i < 2; i++ {
		_, err := env.svc.HandleTurn(ctx, TurnInput{CompanyID: "cmp_1", Message: "hello"})
		require.NoError(t, err)
	}

	_, err = env.svc.HandleTurn(ctx, TurnInput{CompanyID: "cmp_1", Message: "hello"})
	assert.ErrorIs(t, err, ErrRateLimited)
}

func TestHandleTurnGeneratorFailureOpensBreaker(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	env.gen.err = errors.New("model timeout")

	for i := 0; i < 3; i++ {
		_, err := env.svc.HandleTurn(ctx, TurnInput{CompanyID: "cmp_1", Message: "hi"})
		assert.ErrorIs(t, err, ErrGeneratorUnavailable)
	}
	calls := env.gen.calls

	// Breaker is open: the generator stops being called.
	_, err := env.svc.HandleTurn(ctx, TurnInput{CompanyID: "cmp_1", Message: "hi"})
	assert.ErrorIs(t, err, ErrGeneratorUnavailable)
	assert.Equal(t, calls, env.gen.calls)
}

func TestHandleTurnPricingPromptUsesKnowledge(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	require.NoError(t, env.chunks.Create(ctx, &knowledge.Chunk{
		ID: "kc_1", CompanyID: "cmp_1", Title: "Pricing",
		Content: "Starter $29, Pro $99.",
	}))
	require.NoError(t, env.chunks.Create(ctx, &knowledge.Chunk{
		ID: "kc_2", CompanyID: "cmp_1", Title: "Shipping",
		Content: "We ship worldwide.",
	}))

	_, err := env.svc.HandleTurn(ctx, TurnInput{
		CompanyID: "cmp_1", Message: "how much does the pro plan cost?",
	})
	require.NoError(t, err)
	assert.Contains(t, env.gen.lastPrompt, "Starter $29")
	assert.NotContains(t, env.gen.lastPrompt, "We ship worldwide.",
		"pricing turns filter the context slice")
}

func TestHandleTurnCapturesLead(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	result, err := env.svc.HandleTurn(ctx, TurnInput{
		CompanyID: "cmp_1", Message: "sounds great, email me at jane@acme.io",
	})
	require.NoError(t, err)
	assert.True(t, result.LeadCaptured)
	assert.Equal(t, funnel.StageContactCapture, result.Stage)

	l, err := env.leads.GetByConversation(ctx, "cmp_1", result.ConversationID)
	require.NoError(t, err)
	assert.Equal(t, "jane@acme.io", l.Email)
}

func TestHandleTurnUnknownCompany(t *testing.T) {
	env := newTestEnv(t)

	_, err := env.svc.HandleTurn(context.Background(), TurnInput{
		CompanyID: "cmp_ghost", Message: "hi",
	})
	assert.ErrorIs(t, err, company.ErrCompanyNotFound)
}
