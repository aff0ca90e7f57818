package service

import (
	"context"
	"fmt"
	"time"

	"checkout-risk-gateway/internal/core/domain"
	"checkout-risk-gateway/internal/core/ports"
	"checkout-risk-gateway/pkg/apperror"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// EvaluationServiceImpl implements ports.EvaluationService. For one attempt
// the steps run strictly in sequence: velocity guard, location check, rule
// scoring, AI assessment, fusion, event recording. Across attempts the
// service is freely concurrent — the event store is the only shared state.
//
// The guard's count and the recorder's insert are not atomic: two attempts
// from the same identity racing through this window can both pass the
// guard. Accepted baseline semantics; see DESIGN.md.
type EvaluationServiceImpl struct {
	guard    *VelocityGuard
	location ports.LocationChecker
	assessor ports.RiskAssessor
	events   ports.EventRepository
	log      zerolog.Logger
}

// NewEvaluationService creates an EvaluationServiceImpl.
func NewEvaluationService(
	guard *VelocityGuard,
	location ports.LocationChecker,
	assessor ports.RiskAssessor,
	events ports.EventRepository,
	log zerolog.Logger,
) *EvaluationServiceImpl {
	return &EvaluationServiceImpl{
		guard:    guard,
		location: location,
		assessor: assessor,
		events:   events,
		log:      log,
	}
}

// Evaluate runs the full risk-decision pipeline for one checkout attempt.
// Every attempt that reaches the recorder produces exactly one persisted
// event, including attempts the velocity guard terminates early. An event
// store failure aborts the request: a decision that cannot be durably
// recorded is never reported as final.
func (s *EvaluationServiceImpl) Evaluate(ctx context.Context, attempt domain.CheckoutAttempt) (*ports.Evaluation, error) {
	tripped, err := s.guard.Check(ctx, attempt.IPAddress, attempt.UserID)
	if err != nil {
		return nil, err
	}
	if tripped {
		return s.recordVelocityBlock(ctx, attempt)
	}

	verdict := s.location.Check(ctx, attempt.IPAddress, attempt.Country)
	score, ruleLevel := ScoreAttempt(attempt, verdict.IsMismatch)
	assessment := s.assessor.Assess(ctx, attempt, verdict)
	finalLevel, decision := Fuse(ruleLevel, assessment.RiskLevel)

	event := &domain.CheckoutEvent{
		ID:               uuid.New(),
		Attempt:          attempt,
		RuleRisk:         ruleLevel,
		AiRisk:           assessment.RiskLevel,
		FinalRisk:        finalLevel,
		Decision:         decision,
		AiReason:         assessment.Reason,
		DetectedCountry:  verdict.DetectedCountry,
		LocationMismatch: verdict.IsMismatch,
		CreatedAt:        time.Now().UTC(),
	}

	if err := s.events.Insert(ctx, event); err != nil {
		return nil, apperror.ErrEventStoreFailure(fmt.Errorf("record event: %w", err))
	}

	s.log.Info().
		Str("event_id", event.ID.String()).
		Int("rule_score", score).
		Str("rule_risk", string(ruleLevel)).
		Str("ai_risk", string(assessment.RiskLevel)).
		Str("final_risk", string(finalLevel)).
		Str("decision", string(decision)).
		Bool("location_mismatch", verdict.IsMismatch).
		Msg("checkout attempt evaluated")

	return &ports.Evaluation{Blocked: false, Event: event}, nil
}

// recordVelocityBlock writes the terminal event for a guard-tripped attempt.
// Rule evaluation is skipped, so every recorded level is pinned to HIGH and
// the fixed velocity reason marks the short-circuit.
func (s *EvaluationServiceImpl) recordVelocityBlock(ctx context.Context, attempt domain.CheckoutAttempt) (*ports.Evaluation, error) {
	event := &domain.CheckoutEvent{
		ID:               uuid.New(),
		Attempt:          attempt,
		RuleRisk:         domain.RiskLevelHigh,
		AiRisk:           domain.RiskLevelHigh,
		FinalRisk:        domain.RiskLevelHigh,
		Decision:         domain.DecisionBlocked,
		AiReason:         VelocityReason,
		DetectedCountry:  domain.CountryUnknown,
		LocationMismatch: false,
		CreatedAt:        time.Now().UTC(),
	}

	if err := s.events.Insert(ctx, event); err != nil {
		return nil, apperror.ErrEventStoreFailure(fmt.Errorf("record velocity block: %w", err))
	}

	s.log.Info().
		Str("event_id", event.ID.String()).
		Str("ip", attempt.IPAddress).
		Msg("checkout attempt blocked by velocity guard")

	return &ports.Evaluation{Blocked: true, Event: event}, nil
}
