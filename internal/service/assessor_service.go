package service

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"checkout-risk-gateway/internal/core/domain"
	"checkout-risk-gateway/internal/core/ports"

	"github.com/rs/zerolog"
)

// maxReasonLength caps the free-text explanation persisted with an event.
const maxReasonLength = 280

// AssessorService implements ports.RiskAssessor. It describes the checkout
// context to an external generative-model capability and parses the reply
// into an AiAssessment. The component never fails the pipeline: transport
// errors, timeouts, and unparsable replies all degrade to the cautious
// MEDIUM fallback.
type AssessorService struct {
	client ports.AssessorClient
	log    zerolog.Logger
}

// NewAssessorService creates an AssessorService.
func NewAssessorService(client ports.AssessorClient, log zerolog.Logger) *AssessorService {
	return &AssessorService{client: client, log: log}
}

// Assess evaluates the attempt with the external capability.
func (s *AssessorService) Assess(ctx context.Context, attempt domain.CheckoutAttempt, verdict domain.LocationVerdict) domain.AiAssessment {
	raw, err := s.client.Complete(ctx, buildPrompt(attempt, verdict))
	if err != nil {
		s.log.Warn().Err(err).Msg("risk assessor call failed, using fallback")
		return domain.FallbackAssessment()
	}

	assessment, ok := parseAssessment(raw)
	if !ok {
		s.log.Warn().Str("raw", truncate(raw, 200)).Msg("risk assessor reply unparsable, using fallback")
		return domain.FallbackAssessment()
	}

	return assessment
}

// buildPrompt renders the checkout context as a structured natural-language
// description and pins the expected reply schema.
func buildPrompt(attempt domain.CheckoutAttempt, verdict domain.LocationVerdict) string {
	var b strings.Builder

	b.WriteString("You are a fraud detection system for an e-commerce checkout.\n\n")
	b.WriteString("Analyze the following checkout data and assess fraud risk.\n\n")
	b.WriteString("Respond ONLY in valid JSON with this exact schema:\n")
	b.WriteString("{\n  \"risk_level\": \"LOW | MEDIUM | HIGH\",\n  \"reason\": \"short explanation\"\n}\n\n")
	b.WriteString("Checkout data:\n")
	fmt.Fprintf(&b, "- Total amount: %g\n", attempt.TotalAmount)
	fmt.Fprintf(&b, "- Item count: %d\n", attempt.ItemCount)
	fmt.Fprintf(&b, "- Payment method: %s\n", attempt.PaymentMethod)
	fmt.Fprintf(&b, "- Is new user: %t\n", attempt.IsNewUser)
	fmt.Fprintf(&b, "- Contains digital products: %t\n", attempt.HasDigitalProduct)
	fmt.Fprintf(&b, "- Declared country: %s\n", attempt.Country)
	fmt.Fprintf(&b, "- Detected country: %s\n", verdict.DetectedCountry)
	fmt.Fprintf(&b, "- Location mismatch: %t\n", verdict.IsMismatch)
	b.WriteString("\nRules:\n")
	b.WriteString("- COD orders are riskier than prepaid\n")
	b.WriteString("- Digital goods increase fraud risk\n")
	b.WriteString("- New users increase fraud risk\n")
	b.WriteString("- High item count increases fraud risk\n")
	b.WriteString("- High total amount increases fraud risk\n")
	b.WriteString("- A location mismatch increases fraud risk\n")

	return b.String()
}

// parseAssessment extracts the first JSON object substring from the raw
// reply (tolerant of surrounding commentary and code fences) and decodes it.
// Returns false when no object is found, decoding fails, or the decoded
// risk level is not one of LOW/MEDIUM/HIGH.
func parseAssessment(raw string) (domain.AiAssessment, bool) {
	obj, ok := firstJSONObject(raw)
	if !ok {
		return domain.AiAssessment{}, false
	}

	var assessment domain.AiAssessment
	if err := json.Unmarshal([]byte(obj), &assessment); err != nil {
		return domain.AiAssessment{}, false
	}
	if !assessment.RiskLevel.IsValid() {
		return domain.AiAssessment{}, false
	}

	assessment.Reason = truncate(assessment.Reason, maxReasonLength)
	return assessment, true
}

// firstJSONObject returns the substring from the first '{' to its matching
// closing brace, tracking string literals so braces inside the reason text
// do not unbalance the scan.
func firstJSONObject(raw string) (string, bool) {
	start := strings.IndexByte(raw, '{')
	if start < 0 {
		return "", false
	}

	depth := 0
	inString := false
	escaped := false
	for i := start; i < len(raw); i++ {
		c := raw[i]
		switch {
		case escaped:
			escaped = false
		case c == '\\' && inString:
			escaped = true
		case c == '"':
			inString = !inString
		case inString:
		case c == '{':
			depth++
		case c == '}':
			depth--
			if depth == 0 {
				return raw[start : i+1], true
			}
		}
	}
	return "", false
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max]
}
