package handler

import (
	"strconv"
	"time"

	"checkout-risk-gateway/internal/adapter/http/dto"
	"checkout-risk-gateway/internal/core/domain"
	"checkout-risk-gateway/internal/core/ports"
	"checkout-risk-gateway/pkg/apperror"
	"checkout-risk-gateway/pkg/response"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const (
	defaultListLimit = 50
	maxListLimit     = 200
)

// EventHandler handles recorded-event query endpoints.
type EventHandler struct {
	events ports.EventRepository
}

// NewEventHandler creates a new EventHandler.
func NewEventHandler(events ports.EventRepository) *EventHandler {
	return &EventHandler{events: events}
}

// GetEvent handles GET /api/v1/events/:id.
func (h *EventHandler) GetEvent(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.Error(c, apperror.Validation("invalid event id"))
		return
	}

	event, err := h.events.GetByID(c.Request.Context(), id)
	if err != nil {
		response.Error(c, apperror.InternalError(err))
		return
	}
	if event == nil {
		response.Error(c, apperror.ErrEventNotFound())
		return
	}

	response.OK(c, toEventResponse(event))
}

// ListEvents handles GET /api/v1/events. Supports ip_address, user_id and
// limit query parameters.
func (h *EventHandler) ListEvents(c *gin.Context) {
	params := ports.EventListParams{Limit: defaultListLimit}

	if v := c.Query("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			response.Error(c, apperror.Validation("limit must be a positive integer"))
			return
		}
		if n > maxListLimit {
			n = maxListLimit
		}
		params.Limit = n
	}
	if v := c.Query("ip_address"); v != "" {
		params.IPAddress = &v
	}
	if v := c.Query("user_id"); v != "" {
		params.UserID = &v
	}

	events, err := h.events.List(c.Request.Context(), params)
	if err != nil {
		response.Error(c, apperror.InternalError(err))
		return
	}

	items := make([]dto.EventResponse, 0, len(events))
	for i := range events {
		items = append(items, toEventResponse(&events[i]))
	}
	response.OK(c, dto.EventListResponse{Items: items, Count: len(items)})
}

// toEventResponse converts a domain.CheckoutEvent to its DTO.
func toEventResponse(e *domain.CheckoutEvent) dto.EventResponse {
	return dto.EventResponse{
		ID:                e.ID.String(),
		UserID:            e.Attempt.UserID,
		IPAddress:         e.Attempt.IPAddress,
		DeviceFingerprint: e.Attempt.DeviceFingerprint,
		TotalAmount:       e.Attempt.TotalAmount,
		ItemCount:         e.Attempt.ItemCount,
		HasDigitalProduct: e.Attempt.HasDigitalProduct,
		PaymentMethod:     string(e.Attempt.PaymentMethod),
		Country:           e.Attempt.Country,
		IsNewUser:         e.Attempt.IsNewUser,
		RuleRisk:          string(e.RuleRisk),
		AiRisk:            string(e.AiRisk),
		FinalRisk:         string(e.FinalRisk),
		Decision:          string(e.Decision),
		AiReason:          e.AiReason,
		DetectedCountry:   e.DetectedCountry,
		LocationMismatch:  e.LocationMismatch,
		CreatedAt:         e.CreatedAt.Format(time.RFC3339),
	}
}
