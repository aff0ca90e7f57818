package dto

// EvaluateCheckoutRequest is the request body for checkout evaluation.
// IPAddress is optional; when absent the client IP of the connection is
// used instead.
type EvaluateCheckoutRequest struct {
	UserID            *string `json:"user_id,omitempty" binding:"omitempty,safe_id,max=64"`
	IPAddress         string  `json:"ip_address" binding:"omitempty,max=45"`
	DeviceFingerprint string  `json:"device_fingerprint" binding:"required,max=128"`
	TotalAmount       float64 `json:"total_amount" binding:"gte=0"`
	ItemCount         int     `json:"item_count" binding:"required,gte=1"`
	HasDigitalProduct bool    `json:"has_digital_product"`
	PaymentMethod     string  `json:"payment_method" binding:"required,oneof=COD DIGITAL_WALLET CARD"`
	Country           string  `json:"country" binding:"required,len=2,alpha"`
	IsNewUser         bool    `json:"is_new_user"`
}

// EvaluationResponse is the response body for a checkout evaluation.
// Status is "blocked" when the velocity guard terminated the pipeline,
// otherwise "evaluated".
type EvaluationResponse struct {
	EventID          string `json:"event_id"`
	Status           string `json:"status"`
	RuleRisk         string `json:"rule_risk"`
	AiRisk           string `json:"ai_risk"`
	FinalRisk        string `json:"final_risk"`
	Decision         string `json:"decision"`
	AiReason         string `json:"ai_reason"`
	DetectedCountry  string `json:"detected_country"`
	LocationMismatch bool   `json:"location_mismatch"`
}

// EventResponse is the full recorded checkout event.
type EventResponse struct {
	ID                string  `json:"id"`
	UserID            *string `json:"user_id,omitempty"`
	IPAddress         string  `json:"ip_address"`
	DeviceFingerprint string  `json:"device_fingerprint"`
	TotalAmount       float64 `json:"total_amount"`
	ItemCount         int     `json:"item_count"`
	HasDigitalProduct bool    `json:"has_digital_product"`
	PaymentMethod     string  `json:"payment_method"`
	Country           string  `json:"country"`
	IsNewUser         bool    `json:"is_new_user"`
	RuleRisk          string  `json:"rule_risk"`
	AiRisk            string  `json:"ai_risk"`
	FinalRisk         string  `json:"final_risk"`
	Decision          string  `json:"decision"`
	AiReason          string  `json:"ai_reason"`
	DetectedCountry   string  `json:"detected_country"`
	LocationMismatch  bool    `json:"location_mismatch"`
	CreatedAt         string  `json:"created_at"`
}

// EventListResponse wraps a list of recorded events.
type EventListResponse struct {
	Items []EventResponse `json:"items"`
	Count int             `json:"count"`
}
