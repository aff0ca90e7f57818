package service

import "checkout-risk-gateway/internal/core/domain"

// Fuse combines the rule-derived and AI-derived risk levels into the final
// level and decision. Rules dominate: the AI can escalate a rule verdict but
// never override a rule HIGH.
//
// In the MEDIUM branch the final level is assigned from the AI level, so a
// LOW AI verdict lowers the recorded final level below the rule's MEDIUM
// while the decision stays VERIFY. That asymmetry is a faithful contract of
// the source policy and is covered by an explicit test; see DESIGN.md before
// changing it.
func Fuse(ruleLevel, aiLevel domain.RiskLevel) (domain.RiskLevel, domain.Decision) {
	switch ruleLevel {
	case domain.RiskLevelHigh:
		// AI is not consulted for override; its level is still recorded.
		return domain.RiskLevelHigh, domain.DecisionBlocked

	case domain.RiskLevelMedium:
		if aiLevel == domain.RiskLevelHigh {
			return domain.RiskLevelHigh, domain.DecisionBlocked
		}
		return aiLevel, domain.DecisionVerify

	default: // LOW rule risk: AI can upgrade to MEDIUM, nothing more.
		if aiLevel == domain.RiskLevelHigh {
			return domain.RiskLevelMedium, domain.DecisionVerify
		}
		return domain.RiskLevelLow, domain.DecisionApproved
	}
}
