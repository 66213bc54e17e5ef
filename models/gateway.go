package models

// GatewayInitializeRequest is the body sent to the processor's
// "initialize transaction" endpoint.
type GatewayInitializeRequest struct {
	Amount      float64 `json:"amount"`
	Email       string  `json:"email"`
	Reference   string  `json:"reference"`
	CallbackURL string  `json:"callbackUrl,omitempty"`
	ReturnURL   string  `json:"returnUrl,omitempty"`
}

// GatewayTransferRequest is the body sent to the processor's payout endpoint.
type GatewayTransferRequest struct {
	Amount        float64 `json:"amount"`
	Reference     string  `json:"reference"`
	BankName      string  `json:"bankName"`
	AccountNumber string  `json:"accountNumber"`
	AccountName   string  `json:"accountName"`
}

// GatewayResponse is the processor's standard envelope.
type GatewayResponse struct {
	Status  bool                   `json:"status"`
	Message string                 `json:"message"`
	Data    map[string]interface{} `json:"data"`
}

// GatewayVerification is the typed result of a "verify transaction" call.
// Status is one of "success", "pending", "failed". Raw carries the
// processor's data object untouched so it can be stored on the payment.
type GatewayVerification struct {
	Status    string
	Reference string
	Amount    float64
	PaidAt    string
	Channel   string
	Raw       map[string]interface{}
}

// WebhookEvent is the strictly-typed shape of a processor webhook. Anything
// that does not carry both success markers is rejected at the boundary and
// never reaches the settlement engine.
type WebhookEvent struct {
	Event string           `json:"event"`
	Data  WebhookEventData `json:"data"`
}

// WebhookEventData is the nested data object of a webhook event.
type WebhookEventData struct {
	Status    string  `json:"status"`
	Reference string  `json:"reference"`
	Amount    float64 `json:"amount"`
	PaidAt    string  `json:"paidAt"`
	Channel   string  `json:"channel"`
}

// ConfirmedEvent is a processor-confirmed successful payment, validated at
// the webhook or poller boundary. It is the only thing the settlement engine
// accepts.
type ConfirmedEvent struct {
	Reference string
	Amount    float64
	Payload   map[string]interface{}
}
