package handler

import (
	"bytes"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"checkout-risk-gateway/internal/adapter/http/dto"
	"checkout-risk-gateway/internal/core/domain"
	"checkout-risk-gateway/internal/core/ports"
	"checkout-risk-gateway/internal/core/ports/mocks"
	"checkout-risk-gateway/pkg/apperror"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func validEvaluateBody() dto.EvaluateCheckoutRequest {
	return dto.EvaluateCheckoutRequest{
		IPAddress:         "203.0.113.7",
		DeviceFingerprint: "fp-abc123",
		TotalAmount:       120.50,
		ItemCount:         2,
		HasDigitalProduct: false,
		PaymentMethod:     "CARD",
		Country:           "VN",
	}
}

func sampleEvent() *domain.CheckoutEvent {
	return &domain.CheckoutEvent{
		ID: uuid.New(),
		Attempt: domain.CheckoutAttempt{
			IPAddress:         "203.0.113.7",
			DeviceFingerprint: "fp-abc123",
			TotalAmount:       120.50,
			ItemCount:         2,
			PaymentMethod:     domain.PaymentMethodCard,
			Country:           "VN",
		},
		RuleRisk:        domain.RiskLevelLow,
		AiRisk:          domain.RiskLevelLow,
		FinalRisk:       domain.RiskLevelLow,
		Decision:        domain.DecisionApproved,
		AiReason:        "Nothing unusual",
		DetectedCountry: "VN",
		CreatedAt:       time.Now().UTC(),
	}
}

// --- Checkout Handler Tests ---

func TestEvaluate_Success(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockSvc := mocks.NewMockEvaluationService(ctrl)
	h := NewCheckoutHandler(mockSvc)

	event := sampleEvent()
	mockSvc.EXPECT().Evaluate(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ interface{}, attempt domain.CheckoutAttempt) (*ports.Evaluation, error) {
			assert.Equal(t, "203.0.113.7", attempt.IPAddress)
			assert.Equal(t, domain.PaymentMethodCard, attempt.PaymentMethod)
			assert.Equal(t, "VN", attempt.Country)
			return &ports.Evaluation{Blocked: false, Event: event}, nil
		})

	body, _ := json.Marshal(validEvaluateBody())
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodPost, "/api/v1/checkout/evaluate", bytes.NewReader(body))
	c.Request.Header.Set("Content-Type", "application/json")

	h.Evaluate(c)

	assert.Equal(t, http.StatusOK, w.Code)
	var resp map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	data := resp["data"].(map[string]interface{})
	assert.Equal(t, "evaluated", data["status"])
	assert.Equal(t, "LOW", data["final_risk"])
	assert.Equal(t, "APPROVED", data["decision"])
	assert.Equal(t, event.ID.String(), data["event_id"])
}

func TestEvaluate_LowercaseCountryNormalized(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockSvc := mocks.NewMockEvaluationService(ctrl)
	h := NewCheckoutHandler(mockSvc)

	mockSvc.EXPECT().Evaluate(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ interface{}, attempt domain.CheckoutAttempt) (*ports.Evaluation, error) {
			assert.Equal(t, "VN", attempt.Country)
			return &ports.Evaluation{Event: sampleEvent()}, nil
		})

	req := validEvaluateBody()
	req.Country = "vn"
	body, _ := json.Marshal(req)

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodPost, "/", bytes.NewReader(body))
	c.Request.Header.Set("Content-Type", "application/json")

	h.Evaluate(c)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestEvaluate_BlockedStatus(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockSvc := mocks.NewMockEvaluationService(ctrl)
	h := NewCheckoutHandler(mockSvc)

	event := sampleEvent()
	event.RuleRisk = domain.RiskLevelHigh
	event.AiRisk = domain.RiskLevelHigh
	event.FinalRisk = domain.RiskLevelHigh
	event.Decision = domain.DecisionBlocked

	mockSvc.EXPECT().Evaluate(gomock.Any(), gomock.Any()).
		Return(&ports.Evaluation{Blocked: true, Event: event}, nil)

	body, _ := json.Marshal(validEvaluateBody())
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodPost, "/", bytes.NewReader(body))
	c.Request.Header.Set("Content-Type", "application/json")

	h.Evaluate(c)

	assert.Equal(t, http.StatusOK, w.Code)
	var resp map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	data := resp["data"].(map[string]interface{})
	assert.Equal(t, "blocked", data["status"])
	assert.Equal(t, "BLOCKED", data["decision"])
}

func TestEvaluate_ValidationError(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockSvc := mocks.NewMockEvaluationService(ctrl)
	h := NewCheckoutHandler(mockSvc)

	cases := map[string]func(*dto.EvaluateCheckoutRequest){
		"missing fingerprint":    func(r *dto.EvaluateCheckoutRequest) { r.DeviceFingerprint = "" },
		"bad payment method":     func(r *dto.EvaluateCheckoutRequest) { r.PaymentMethod = "CRYPTO" },
		"bad country length":     func(r *dto.EvaluateCheckoutRequest) { r.Country = "VNM" },
		"zero item count":        func(r *dto.EvaluateCheckoutRequest) { r.ItemCount = 0 },
		"negative total amount":  func(r *dto.EvaluateCheckoutRequest) { r.TotalAmount = -1 },
		"non-alphabetic country": func(r *dto.EvaluateCheckoutRequest) { r.Country = "1N" },
	}

	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			req := validEvaluateBody()
			mutate(&req)
			body, _ := json.Marshal(req)

			w := httptest.NewRecorder()
			c, _ := gin.CreateTestContext(w)
			c.Request = httptest.NewRequest(http.MethodPost, "/", bytes.NewReader(body))
			c.Request.Header.Set("Content-Type", "application/json")

			h.Evaluate(c)

			assert.Equal(t, http.StatusBadRequest, w.Code)
			var resp map[string]interface{}
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
			assert.Equal(t, "RISK_001", resp["error_code"])
		})
	}
}

func TestEvaluate_StoreFailure(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockSvc := mocks.NewMockEvaluationService(ctrl)
	h := NewCheckoutHandler(mockSvc)

	mockSvc.EXPECT().Evaluate(gomock.Any(), gomock.Any()).
		Return(nil, apperror.ErrEventStoreFailure(errors.New("connection refused")))

	body, _ := json.Marshal(validEvaluateBody())
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodPost, "/", bytes.NewReader(body))
	c.Request.Header.Set("Content-Type", "application/json")

	h.Evaluate(c)

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	var resp map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "SYS_001", resp["error_code"])
}

// --- Event Handler Tests ---

func TestGetEvent_Success(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockRepo := mocks.NewMockEventRepository(ctrl)
	h := NewEventHandler(mockRepo)

	event := sampleEvent()
	mockRepo.EXPECT().GetByID(gomock.Any(), event.ID).Return(event, nil)

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodGet, "/api/v1/events/"+event.ID.String(), nil)
	c.Params = gin.Params{{Key: "id", Value: event.ID.String()}}

	h.GetEvent(c)

	assert.Equal(t, http.StatusOK, w.Code)
	var resp map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	data := resp["data"].(map[string]interface{})
	assert.Equal(t, event.ID.String(), data["id"])
	assert.Equal(t, "APPROVED", data["decision"])
	assert.Equal(t, "VN", data["detected_country"])
}

func TestGetEvent_InvalidID(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	h := NewEventHandler(mocks.NewMockEventRepository(ctrl))

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodGet, "/api/v1/events/not-a-uuid", nil)
	c.Params = gin.Params{{Key: "id", Value: "not-a-uuid"}}

	h.GetEvent(c)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestGetEvent_NotFound(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockRepo := mocks.NewMockEventRepository(ctrl)
	h := NewEventHandler(mockRepo)

	id := uuid.New()
	mockRepo.EXPECT().GetByID(gomock.Any(), id).Return(nil, nil)

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodGet, "/api/v1/events/"+id.String(), nil)
	c.Params = gin.Params{{Key: "id", Value: id.String()}}

	h.GetEvent(c)

	assert.Equal(t, http.StatusNotFound, w.Code)
	var resp map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "RISK_002", resp["error_code"])
}

func TestGetEvent_RepoError(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockRepo := mocks.NewMockEventRepository(ctrl)
	h := NewEventHandler(mockRepo)

	id := uuid.New()
	mockRepo.EXPECT().GetByID(gomock.Any(), id).Return(nil, errors.New("connection reset"))

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodGet, "/api/v1/events/"+id.String(), nil)
	c.Params = gin.Params{{Key: "id", Value: id.String()}}

	h.GetEvent(c)

	assert.Equal(t, http.StatusInternalServerError, w.Code)
}

func TestListEvents_Defaults(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockRepo := mocks.NewMockEventRepository(ctrl)
	h := NewEventHandler(mockRepo)

	event := sampleEvent()
	mockRepo.EXPECT().List(gomock.Any(), ports.EventListParams{Limit: defaultListLimit}).
		Return([]domain.CheckoutEvent{*event}, nil)

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodGet, "/api/v1/events", nil)

	h.ListEvents(c)

	assert.Equal(t, http.StatusOK, w.Code)
	var resp map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	data := resp["data"].(map[string]interface{})
	assert.Equal(t, float64(1), data["count"])
}

func TestListEvents_Filters(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockRepo := mocks.NewMockEventRepository(ctrl)
	h := NewEventHandler(mockRepo)

	mockRepo.EXPECT().List(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ interface{}, params ports.EventListParams) ([]domain.CheckoutEvent, error) {
			require.NotNil(t, params.IPAddress)
			assert.Equal(t, "203.0.113.7", *params.IPAddress)
			require.NotNil(t, params.UserID)
			assert.Equal(t, "user-42", *params.UserID)
			assert.Equal(t, 10, params.Limit)
			return nil, nil
		})

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodGet, "/api/v1/events?ip_address=203.0.113.7&user_id=user-42&limit=10", nil)

	h.ListEvents(c)

	assert.Equal(t, http.StatusOK, w.Code)
}

func TestListEvents_LimitCapped(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockRepo := mocks.NewMockEventRepository(ctrl)
	h := NewEventHandler(mockRepo)

	mockRepo.EXPECT().List(gomock.Any(), ports.EventListParams{Limit: maxListLimit}).Return(nil, nil)

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodGet, "/api/v1/events?limit=5000", nil)

	h.ListEvents(c)

	assert.Equal(t, http.StatusOK, w.Code)
}

func TestListEvents_InvalidLimit(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	h := NewEventHandler(mocks.NewMockEventRepository(ctrl))

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodGet, "/api/v1/events?limit=abc", nil)

	h.ListEvents(c)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

// --- Health Handler Tests ---

func TestHealthCheck_AllHealthy(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	pg := mocks.NewMockHealthChecker(ctrl)
	pg.EXPECT().Ping(gomock.Any()).Return(nil)
	pg.EXPECT().Name().Return("postgresql")

	rd := mocks.NewMockHealthChecker(ctrl)
	rd.EXPECT().Ping(gomock.Any()).Return(nil)
	rd.EXPECT().Name().Return("redis")

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodGet, "/health", nil)

	HealthCheck(pg, rd)(c)

	assert.Equal(t, http.StatusOK, w.Code)
	var resp map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "healthy", resp["status"])
}

func TestHealthCheck_Degraded(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	pg := mocks.NewMockHealthChecker(ctrl)
	pg.EXPECT().Ping(gomock.Any()).Return(errors.New("connection refused"))
	pg.EXPECT().Name().Return("postgresql")

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodGet, "/health", nil)

	HealthCheck(pg)(c)

	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	var resp map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "degraded", resp["status"])
}
