package handler

import (
	"strings"

	"checkout-risk-gateway/internal/adapter/http/dto"
	"checkout-risk-gateway/internal/core/domain"
	"checkout-risk-gateway/internal/core/ports"
	"checkout-risk-gateway/pkg/apperror"
	"checkout-risk-gateway/pkg/response"

	"github.com/gin-gonic/gin"
)

// CheckoutHandler handles checkout evaluation endpoints.
type CheckoutHandler struct {
	evalSvc ports.EvaluationService
}

// NewCheckoutHandler creates a new CheckoutHandler.
func NewCheckoutHandler(evalSvc ports.EvaluationService) *CheckoutHandler {
	return &CheckoutHandler{evalSvc: evalSvc}
}

// Evaluate handles POST /api/v1/checkout/evaluate.
func (h *CheckoutHandler) Evaluate(c *gin.Context) {
	var req dto.EvaluateCheckoutRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, apperror.Validation(err.Error()))
		return
	}
	dto.SanitizeStruct(&req)

	ip := req.IPAddress
	if ip == "" {
		ip = c.ClientIP()
	}

	result, err := h.evalSvc.Evaluate(c.Request.Context(), domain.CheckoutAttempt{
		UserID:            req.UserID,
		IPAddress:         ip,
		DeviceFingerprint: req.DeviceFingerprint,
		TotalAmount:       req.TotalAmount,
		ItemCount:         req.ItemCount,
		HasDigitalProduct: req.HasDigitalProduct,
		PaymentMethod:     domain.PaymentMethod(req.PaymentMethod),
		Country:           strings.ToUpper(req.Country),
		IsNewUser:         req.IsNewUser,
	})
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, toEvaluationResponse(result))
}

// toEvaluationResponse converts an evaluation outcome to its DTO.
func toEvaluationResponse(result *ports.Evaluation) dto.EvaluationResponse {
	status := "evaluated"
	if result.Blocked {
		status = "blocked"
	}
	e := result.Event
	return dto.EvaluationResponse{
		EventID:          e.ID.String(),
		Status:           status,
		RuleRisk:         string(e.RuleRisk),
		AiRisk:           string(e.AiRisk),
		FinalRisk:        string(e.FinalRisk),
		Decision:         string(e.Decision),
		AiReason:         e.AiReason,
		DetectedCountry:  e.DetectedCountry,
		LocationMismatch: e.LocationMismatch,
	}
}
