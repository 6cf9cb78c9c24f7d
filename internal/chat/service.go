package chat

import (
	"context"
	"fmt"

	"github.com/pitchdesk/pitchdesk/internal/circuitbreaker"
	"github.com/pitchdesk/pitchdesk/internal/company"
	"github.com/pitchdesk/pitchdesk/internal/conversation"
	"github.com/pitchdesk/pitchdesk/internal/entitlement"
	"github.com/pitchdesk/pitchdesk/internal/funnel"
	"github.com/pitchdesk/pitchdesk/internal/idgen"
	"github.com/pitchdesk/pitchdesk/internal/knowledge"
	"github.com/pitchdesk/pitchdesk/internal/lead"
	"github.com/pitchdesk/pitchdesk/internal/logging"
	"github.com/pitchdesk/pitchdesk/internal/metrics"
	"github.com/pitchdesk/pitchdesk/internal/prompt"
	"github.com/pitchdesk/pitchdesk/internal/ratelimit"
	"github.com/pitchdesk/pitchdesk/internal/traces"
	"github.com/pitchdesk/pitchdesk/internal/validation"
)

// defaultContextChunks is how many knowledge chunks a turn pulls.
const defaultContextChunks = 12

// Service is the chat pipeline.
type Service struct {
	companies company.Store
	convs     conversation.Store
	chunks    knowledge.Store
	leads     lead.Store
	gate      *entitlement.Gate
	counter   ratelimit.Counter
	breaker   *circuitbreaker.Breaker
	generator Generator
	events    Events
}

// NewService wires the pipeline. events may be nil.
func NewService(
	companies company.Store,
	convs conversation.Store,
	chunks knowledge.Store,
	leads lead.Store,
	gate *entitlement.Gate,
	counter ratelimit.Counter,
	breaker *circuitbreaker.Breaker,
	generator Generator,
	events Events,
) *Service {
	if events == nil {
		events = NoopEvents{}
	}
	return &Service{
		companies: companies,
		convs:     convs,
		chunks:    chunks,
		leads:     leads,
		gate:      gate,
		counter:   counter,
		breaker:   breaker,
		generator: generator,
		events:    events,
	}
}

// HandleTurn runs one widget message through the pipeline.
func (s *Service) HandleTurn(ctx context.Context, in TurnInput) (*TurnResult, error) {
	ctx, span := traces.Start(ctx, "chat.HandleTurn", traces.CompanyID(in.CompanyID))
	defer span.End()

	if in.Message == "" {
		return nil, ErrEmptyMessage
	}
	if len(in.Message) > validation.MaxMessageLength {
		return nil, ErrMessageTooLong
	}

	comp, err := s.companies.Get(ctx, in.CompanyID)
	if err != nil {
		return nil, fmt.Errorf("load company: %w", err)
	}
	if !comp.Active() {
		return nil, ErrCompanyInactive
	}

	decision := s.gate.Evaluate(ctx, in.CompanyID)
	if !decision.Allowed {
		metrics.ChatTurnsTotal.WithLabelValues("denied").Inc()
		return nil, fmt.Errorf("%w: %s", ErrNotEntitled, decision.Reason)
	}

	// Advisory counter read against the effective ceiling.
	usage, err := s.counter.Observe(ctx, in.CompanyID)
	if err != nil {
		return nil, fmt.Errorf("read rate counter: %w", err)
	}
	if usage.Minute >= decision.Limits.PerMinute {
		metrics.RateLimitedTotal.WithLabelValues("minute").Inc()
		return nil, fmt.Errorf("%w: per-minute ceiling reached", ErrRateLimited)
	}
	if usage.Day >= decision.Limits.PerDay {
		metrics.RateLimitedTotal.WithLabelValues("day").Inc()
		return nil, fmt.Errorf("%w: per-day ceiling reached", ErrRateLimited)
	}

	conv, started, err := s.loadOrStartConversation(ctx, in)
	if err != nil {
		return nil, err
	}

	prevStage := conv.Stage
	stage := funnel.Classify(in.Message, prevStage)
	span.SetAttributes(traces.Stage(string(stage)))
	if stage != prevStage {
		metrics.FunnelTransitionsTotal.WithLabelValues(string(stage)).Inc()
	}

	cfg := comp.Settings.Funnel
	question := funnel.StrategicQuestion(stage, cfg.Qualify)

	pricingOnly := stage == funnel.StagePricingInterest || stage == funnel.StageObjectionPrice
	slice, err := knowledge.ContextSlice(ctx, s.chunks, in.CompanyID, defaultContextChunks, pricingOnly)
	if err != nil {
		return nil, fmt.Errorf("load knowledge: %w", err)
	}

	systemPrompt := prompt.Build(prompt.Input{
		CompanyName: comp.Name,
		Config:      cfg,
		Stage:       stage,
		Question:    question,
		Knowledge:   knowledge.RenderContext(slice),
	})

	history, err := s.convs.ListMessages(ctx, in.CompanyID, conv.ID)
	if err != nil {
		return nil, fmt.Errorf("load history: %w", err)
	}

	reply, err := s.generate(ctx, in.CompanyID, systemPrompt, history, in.Message)
	if err != nil {
		metrics.ChatTurnsTotal.WithLabelValues("generator_error").Inc()
		return nil, err
	}

	visitorMsg, assistantMsg, err := s.persistTurn(ctx, conv, in.Message, reply, stage)
	if err != nil {
		return nil, err
	}
	if err := s.counter.Record(ctx, in.CompanyID); err != nil {
		logging.L(ctx).Warn("rate counter record failed",
			"company_id", in.CompanyID,
			"error", err)
	}

	capturedLead, err := lead.Capture(ctx, s.leads, lead.CaptureInput{
		CompanyID:      in.CompanyID,
		ConversationID: conv.ID,
		Message:        in.Message,
		Stage:          stage,
		PrevStage:      prevStage,
		Fields:         cfg.Qualify,
	})
	if err != nil {
		// The reply already exists; a failed capture is logged, not
		// surfaced to the visitor.
		logging.L(ctx).Error("lead capture failed",
			"company_id", in.CompanyID,
			"conversation_id", conv.ID,
			"error", err)
	}

	if started {
		s.events.ConversationStarted(ctx, conv)
	}
	s.events.MessageExchanged(ctx, visitorMsg, assistantMsg)
	if capturedLead != nil {
		s.events.LeadCaptured(ctx, capturedLead)
	}

	metrics.ChatTurnsTotal.WithLabelValues("ok").Inc()
	return &TurnResult{
		ConversationID: conv.ID,
		Reply:          reply,
		Stage:          stage,
		Question:       question,
		Limits:         decision.Limits,
		LeadCaptured:   capturedLead != nil,
	}, nil
}

func (s *Service) loadOrStartConversation(ctx context.Context, in TurnInput) (*conversation.Conversation, bool, error) {
	if in.ConversationID != "" {
		conv, err := s.convs.GetConversation(ctx, in.CompanyID, in.ConversationID)
		if err != nil {
			return nil, false, fmt.Errorf("load conversation: %w", err)
		}
		return conv, false, nil
	}

	conv := &conversation.Conversation{
		ID:        idgen.WithPrefix("conv_"),
		CompanyID: in.CompanyID,
		Stage:     funnel.StageAwareness,
	}
	if err := s.convs.CreateConversation(ctx, conv); err != nil {
		return nil, false, fmt.Errorf("create conversation: %w", err)
	}
	return conv, true, nil
}

func (s *Service) generate(ctx context.Context, companyID, systemPrompt string, history []*conversation.Message, message string) (string, error) {
	key := "generator:" + companyID
	if !s.breaker.Allow(key) {
		return "", ErrGeneratorUnavailable
	}

	reply, err := s.generator.Generate(ctx, systemPrompt, history, message)
	if err != nil {
		s.breaker.RecordFailure(key)
		return "", fmt.Errorf("%w: %v", ErrGeneratorUnavailable, err)
	}
	s.breaker.RecordSuccess(key)
	return reply, nil
}

func (s *Service) persistTurn(ctx context.Context, conv *conversation.Conversation, message, reply string, stage funnel.Stage) (*conversation.Message, *conversation.Message, error) {
	visitorMsg := &conversation.Message{
		ID:             idgen.WithPrefix("msg_"),
		ConversationID: conv.ID,
		CompanyID:      conv.CompanyID,
		Role:           conversation.RoleVisitor,
		Content:        message,
	}
	if err := s.convs.AppendMessage(ctx, visitorMsg); err != nil {
		return nil, nil, fmt.Errorf("persist visitor message: %w", err)
	}

	assistantMsg := &conversation.Message{
		ID:             idgen.WithPrefix("msg_"),
		ConversationID: conv.ID,
		CompanyID:      conv.CompanyID,
		Role:           conversation.RoleAssistant,
		Content:        reply,
	}
	if err := s.convs.AppendMessage(ctx, assistantMsg); err != nil {
		return nil, nil, fmt.Errorf("persist assistant message: %w", err)
	}

	if err := s.convs.UpdateStage(ctx, conv.CompanyID, conv.ID, string(stage)); err != nil {
		return nil, nil, fmt.Errorf("update stage: %w", err)
	}
	return visitorMsg, assistantMsg, nil
}
