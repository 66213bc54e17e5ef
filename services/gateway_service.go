package services

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"time"

	"github.com/google/uuid"

	"github.com/learnio/learnio_backend/models"
)

// ErrGatewayUnavailable covers timeouts, connection failures and non-2xx
// responses from the processor. Callers decide whether to retry; the client
// itself never retries, so a flaky network cannot duplicate side effects.
var ErrGatewayUnavailable = errors.New("payment gateway unavailable")

// GatewayService is a thin wrapper around the payment processor's HTTP API.
// No business logic lives here.
type GatewayService struct {
	baseURL    string
	secretKey  string
	isTesting  bool
	httpClient *http.Client
}

// NewGatewayService builds the gateway client from environment configuration.
// Credentials and timeouts are carried as fields; nothing is read from the
// environment after construction.
func NewGatewayService() *GatewayService {
	gatewayEnv := os.Getenv("GATEWAY_ENV")
	isTesting := gatewayEnv == "testing"

	baseURL := os.Getenv("GATEWAY_BASE_URL")
	if baseURL == "" {
		baseURL = "https://api.paygate.example.com/v1/"
	}
	secretKey := os.Getenv("GATEWAY_SECRET_KEY")

	if secretKey == "" {
		log.Printf("WARNING: GATEWAY_SECRET_KEY is not set; payment initiation and verification will fail")
	} else {
		log.Printf("Gateway client configured: env=%s baseURL=%s secret=[CONFIGURED]",
			map[bool]string{true: "testing", false: "production"}[isTesting], baseURL)
	}

	return &GatewayService{
		baseURL:   baseURL,
		secretKey: secretKey,
		isTesting: isTesting,
		httpClient: &http.Client{
			Timeout: 15 * time.Second,
		},
	}
}

// makeRequest performs one HTTP call against the processor API.
func (s *GatewayService) makeRequest(method, endpoint string, payload interface{}) (*models.GatewayResponse, error) {
	if s.secretKey == "" {
		return nil, fmt.Errorf("missing gateway credentials: set GATEWAY_SECRET_KEY")
	}

	var body io.Reader
	if payload != nil {
		jsonData, err := json.Marshal(payload)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal request: %w", err)
		}
		body = bytes.NewBuffer(jsonData)
	}

	req, err := http.NewRequest(method, s.baseURL+endpoint, body)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+s.secretKey)

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrGatewayUnavailable, err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to read response: %v", ErrGatewayUnavailable, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		log.Printf("Gateway returned HTTP %d on %s %s: %s", resp.StatusCode, method, endpoint, string(respBody))
		return nil, fmt.Errorf("%w: HTTP %d", ErrGatewayUnavailable, resp.StatusCode)
	}

	var gatewayResp models.GatewayResponse
	if err := json.Unmarshal(respBody, &gatewayResp); err != nil {
		return nil, fmt.Errorf("failed to parse response: %w", err)
	}

	if !gatewayResp.Status {
		return &gatewayResp, fmt.Errorf("gateway error: %s", gatewayResp.Message)
	}

	return &gatewayResp, nil
}

// InitializeTransaction creates a checkout session and returns the URL the
// student is redirected to.
func (s *GatewayService) InitializeTransaction(amount float64, email, reference, callbackURL, returnURL string) (string, error) {
	payload := models.GatewayInitializeRequest{
		Amount:      amount,
		Email:       email,
		Reference:   reference,
		CallbackURL: callbackURL,
		ReturnURL:   returnURL,
	}

	resp, err := s.makeRequest("POST", "transaction/initialize", payload)
	if err != nil {
		return "", err
	}

	if checkoutURL, ok := resp.Data["checkoutUrl"].(string); ok {
		return checkoutURL, nil
	}
	return "", fmt.Errorf("failed to parse checkout URL from response")
}

// VerifyTransaction asks the processor for the current status of a checkout
// attempt. The raw data object is returned alongside the typed fields so it
// can be attached to the payment record.
func (s *GatewayService) VerifyTransaction(reference string) (*models.GatewayVerification, error) {
	resp, err := s.makeRequest("GET", "transaction/verify/"+reference, nil)
	if err != nil {
		return nil, err
	}

	verification := &models.GatewayVerification{Raw: resp.Data}
	if status, ok := resp.Data["status"].(string); ok {
		verification.Status = status
	}
	if ref, ok := resp.Data["reference"].(string); ok {
		verification.Reference = ref
	}
	if amount, ok := resp.Data["amount"].(float64); ok {
		verification.Amount = amount
	}
	if paidAt, ok := resp.Data["paidAt"].(string); ok {
		verification.PaidAt = paidAt
	}
	if channel, ok := resp.Data["channel"].(string); ok {
		verification.Channel = channel
	}

	if verification.Status == "" {
		return nil, fmt.Errorf("failed to parse transaction status from response")
	}
	return verification, nil
}

// InitiateTransfer starts a payout to an instructor's bank account and
// returns the resulting withdrawal status. Outside production the processor
// sandbox has no payout rail, so a deterministic simulated success is
// returned instead.
func (s *GatewayService) InitiateTransfer(amount float64, details models.PayoutDetails, reference string) (string, error) {
	if s.isTesting {
		log.Printf("Gateway transfer simulated for reference %s: amount=%.2f account=%s", reference, amount, details.AccountNumber)
		return models.WithdrawalStatusSuccess, nil
	}

	payload := models.GatewayTransferRequest{
		Amount:        amount,
		Reference:     reference,
		BankName:      details.BankName,
		AccountNumber: details.AccountNumber,
		AccountName:   details.AccountName,
	}

	resp, err := s.makeRequest("POST", "transfer", payload)
	if err != nil {
		return "", err
	}

	if status, ok := resp.Data["status"].(string); ok {
		return status, nil
	}
	// Transfer accepted but no explicit status: it clears asynchronously.
	return models.WithdrawalStatusPending, nil
}

// NewPaymentReference generates the idempotency key for a checkout attempt.
func NewPaymentReference() string {
	return "PAY-" + uuid.NewString()
}

// NewWithdrawalReference generates the unique reference for a payout request.
func NewWithdrawalReference() string {
	return "WDR-" + uuid.NewString()
}
