package service

import "checkout-risk-gateway/internal/core/domain"

// Scoring weights. Conditions are independent and additive: an attempt can
// trigger any subset of them.
const (
	pointsCOD              = 2
	pointsDigitalProduct   = 2
	pointsNewUser          = 1
	pointsBulkOrder        = 1
	pointsLargeAmount      = 1
	pointsLocationMismatch = 5

	bulkItemThreshold    = 10
	largeAmountThreshold = 3000 // currency-minor-unit agnostic

	scoreHighThreshold   = 4
	scoreMediumThreshold = 2
)

// ScoreAttempt computes the deterministic rule score and level for an
// attempt. It is pure: all contributing inputs, including the location
// mismatch penalty, are passed in and the result is computed in one pass.
func ScoreAttempt(attempt domain.CheckoutAttempt, locationMismatch bool) (int, domain.RiskLevel) {
	score := 0

	if attempt.PaymentMethod == domain.PaymentMethodCOD {
		score += pointsCOD
	}
	if attempt.HasDigitalProduct {
		score += pointsDigitalProduct
	}
	if attempt.IsNewUser {
		score += pointsNewUser
	}
	if attempt.ItemCount >= bulkItemThreshold {
		score += pointsBulkOrder
	}
	if attempt.TotalAmount >= largeAmountThreshold {
		score += pointsLargeAmount
	}
	if locationMismatch {
		score += pointsLocationMismatch
	}

	return score, levelForScore(score)
}

// levelForScore maps a rule score to a risk level.
func levelForScore(score int) domain.RiskLevel {
	switch {
	case score >= scoreHighThreshold:
		return domain.RiskLevelHigh
	case score >= scoreMediumThreshold:
		return domain.RiskLevelMedium
	default:
		return domain.RiskLevelLow
	}
}
