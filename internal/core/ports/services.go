package ports

import (
	"context"
	"time"

	"checkout-risk-gateway/internal/core/domain"
)

// GeoProvider resolves a network address to a country code. Providers are
// tried in a fixed order; a provider that cannot determine the country
// returns an error and the next one is consulted.
type GeoProvider interface {
	// Lookup returns an upper-case 2-letter country code.
	Lookup(ctx context.Context, ip string) (string, error)
	// Name identifies the provider in logs (e.g., "ipapi", "ipwhois").
	Name() string
}

// CountryCache stores resolved IP-to-country results. Get returns "" with
// no error on a miss.
type CountryCache interface {
	Get(ctx context.Context, ip string) (string, error)
	Set(ctx context.Context, ip, country string, ttl time.Duration) error
}

// LocationChecker detects a mismatch between the detected and declared
// country. It never returns an error: provider failures resolve to a
// fail-open verdict with a sentinel detected country.
type LocationChecker interface {
	Check(ctx context.Context, ip string, declaredCountry string) domain.LocationVerdict
}

// AssessorClient sends a context description to the external AI capability
// and returns its raw textual reply. JSON extraction and the fallback
// policy live in the assessor service, not here.
type AssessorClient interface {
	Complete(ctx context.Context, prompt string) (string, error)
}

// RiskAssessor produces an AiAssessment for a checkout attempt. The result
// is always populated; assessor malfunction degrades to a cautious default.
type RiskAssessor interface {
	Assess(ctx context.Context, attempt domain.CheckoutAttempt, verdict domain.LocationVerdict) domain.AiAssessment
}

// Evaluation is the outcome of one checkout evaluation.
type Evaluation struct {
	Blocked bool // true when the velocity guard terminated the pipeline
	Event   *domain.CheckoutEvent
}

// EvaluationService runs the full risk-decision pipeline for one attempt:
// velocity guard, rule scoring, location check, AI assessment, fusion, and
// event recording.
type EvaluationService interface {
	Evaluate(ctx context.Context, attempt domain.CheckoutAttempt) (*Evaluation, error)
}
