package domain

import (
	"time"

	"github.com/google/uuid"
)

// PaymentMethod represents how the buyer intends to pay.
type PaymentMethod string

const (
	PaymentMethodCOD    PaymentMethod = "COD"
	PaymentMethodWallet PaymentMethod = "DIGITAL_WALLET"
	PaymentMethodCard   PaymentMethod = "CARD"
)

// RiskLevel is the ordered risk classification: LOW < MEDIUM < HIGH.
type RiskLevel string

const (
	RiskLevelLow    RiskLevel = "LOW"
	RiskLevelMedium RiskLevel = "MEDIUM"
	RiskLevelHigh   RiskLevel = "HIGH"
)

// riskOrder maps levels to their position in the ordering.
var riskOrder = map[RiskLevel]int{
	RiskLevelLow:    0,
	RiskLevelMedium: 1,
	RiskLevelHigh:   2,
}

// IsValid reports whether the level is one of LOW, MEDIUM, HIGH.
func (r RiskLevel) IsValid() bool {
	_, ok := riskOrder[r]
	return ok
}

// AtLeast reports whether r is at or above the given level.
func (r RiskLevel) AtLeast(other RiskLevel) bool {
	return riskOrder[r] >= riskOrder[other]
}

// Decision is the action taken on a checkout attempt. Unlike RiskLevel it
// carries no ordering; it is derived from risk by policy.
type Decision string

const (
	DecisionApproved Decision = "APPROVED"
	DecisionVerify   Decision = "VERIFY"
	DecisionBlocked  Decision = "BLOCKED"
)

// CheckoutAttempt is one inbound checkout evaluation request. Immutable once
// received.
type CheckoutAttempt struct {
	UserID            *string       `json:"user_id,omitempty"` // nil for anonymous
	IPAddress         string        `json:"ip_address"`
	DeviceFingerprint string        `json:"device_fingerprint"`
	TotalAmount       float64       `json:"total_amount"`
	ItemCount         int           `json:"item_count"`
	HasDigitalProduct bool          `json:"has_digital_product"`
	PaymentMethod     PaymentMethod `json:"payment_method"`
	Country           string        `json:"country"` // declared 2-letter code
	IsNewUser         bool          `json:"is_new_user"`
}

// Detected-country sentinels for LocationVerdict. All are non-mismatch:
// an order is never blocked solely because location infrastructure failed.
const (
	CountryUnknown  = "UNKNOWN"   // lookup ran but returned no country
	CountryAPIError = "API_ERROR" // every provider failed
	CountryError    = "ERROR"     // unexpected local error during the check
)

// LocationVerdict is the outcome of the location anomaly check.
type LocationVerdict struct {
	IsMismatch      bool   `json:"is_mismatch"`
	DetectedCountry string `json:"detected_country"` // 2-letter code or sentinel
}

// AiAssessment is the AI risk assessor's output. It is always populated:
// when the assessor's reply cannot be parsed the component substitutes
// FallbackAssessment rather than failing the request.
type AiAssessment struct {
	RiskLevel RiskLevel `json:"risk_level"`
	Reason    string    `json:"reason"`
}

// FallbackAssessment is returned when the assessor's reply is missing,
// malformed, or carries an unknown risk level.
func FallbackAssessment() AiAssessment {
	return AiAssessment{
		RiskLevel: RiskLevelMedium,
		Reason:    "AI response could not be parsed safely",
	}
}

// CheckoutEvent is the persisted record of one evaluated attempt: the full
// input plus every computed output. Immutable once written. Exactly one
// event exists per attempt that reached the recorder, including attempts
// the velocity guard blocked before rule evaluation.
type CheckoutEvent struct {
	ID               uuid.UUID       `json:"id"`
	Attempt          CheckoutAttempt `json:"attempt"`
	RuleRisk         RiskLevel       `json:"rule_risk"`
	AiRisk           RiskLevel       `json:"ai_risk"`
	FinalRisk        RiskLevel       `json:"final_risk"`
	Decision         Decision        `json:"decision"`
	AiReason         string          `json:"ai_reason"`
	DetectedCountry  string          `json:"detected_country"`
	LocationMismatch bool            `json:"location_mismatch"`
	CreatedAt        time.Time       `json:"created_at"`
}

// IsBlocked reports whether the event recorded a blocked attempt.
func (e *CheckoutEvent) IsBlocked() bool {
	return e.Decision == DecisionBlocked
}
