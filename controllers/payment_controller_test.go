package controllers

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/golang-jwt/jwt"
	"github.com/labstack/echo/v4"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/learnio/learnio_backend/middleware"
	"github.com/learnio/learnio_backend/models"
	"github.com/learnio/learnio_backend/repositories"
	"github.com/learnio/learnio_backend/services"
)

type testValidator struct {
	validator *validator.Validate
}

func (v *testValidator) Validate(i interface{}) error {
	return v.validator.Struct(i)
}

type stubPaymentStore struct {
	mu       sync.Mutex
	payments map[string]*models.Payment
	failed   []string
}

func newStubPaymentStore() *stubPaymentStore {
	return &stubPaymentStore{payments: make(map[string]*models.Payment)}
}

func (s *stubPaymentStore) Create(_ context.Context, payment *models.Payment) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.payments[payment.Reference] = payment
	return nil
}

func (s *stubPaymentStore) FindByReference(_ context.Context, reference string) (*models.Payment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.payments[reference]
	if !ok {
		return nil, repositories.ErrNotFound
	}
	return p, nil
}

func (s *stubPaymentStore) MarkFailed(_ context.Context, reference string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failed = append(s.failed, reference)
	return nil
}

type stubCourseFinder struct {
	course *models.Course
	err    error
}

func (s *stubCourseFinder) FindByID(_ context.Context, _ primitive.ObjectID) (*models.Course, error) {
	return s.course, s.err
}

type stubGateway struct {
	checkoutURL  string
	initErr      error
	verification *models.GatewayVerification
	verifyErr    error
}

func (s *stubGateway) InitializeTransaction(_ float64, _, _, _, _ string) (string, error) {
	return s.checkoutURL, s.initErr
}

func (s *stubGateway) VerifyTransaction(_ string) (*models.GatewayVerification, error) {
	return s.verification, s.verifyErr
}

type stubSettler struct {
	mu     sync.Mutex
	calls  int
	events []models.ConfirmedEvent
	result *services.SettlementResult
	err    error
}

func (s *stubSettler) Settle(_ context.Context, event models.ConfirmedEvent) (*services.SettlementResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls++
	s.events = append(s.events, event)
	return s.result, s.err
}

func (s *stubSettler) callCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls
}

func signBody(secret string, body []byte) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(body)
	return hex.EncodeToString(mac.Sum(nil))
}

func successWebhookBody(reference string, amount float64) []byte {
	body, _ := json.Marshal(models.WebhookEvent{
		Event: "charge.success",
		Data: models.WebhookEventData{
			Status:    "success",
			Reference: reference,
			Amount:    amount,
			Channel:   "card",
		},
	})
	return body
}

func newWebhookContext(e *echo.Echo, body []byte, signature string) (echo.Context, *httptest.ResponseRecorder) {
	req := httptest.NewRequest(http.MethodPost, "/api/payment/webhook", strings.NewReader(string(body)))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	if signature != "" {
		req.Header.Set(SignatureHeader, signature)
	}
	rec := httptest.NewRecorder()
	return e.NewContext(req, rec), rec
}

const testWebhookSecret = "whsec_test_1234"

func newWebhookFixture(t *testing.T, settler *stubSettler) (*PaymentController, *stubPaymentStore) {
	t.Helper()
	t.Setenv("GATEWAY_WEBHOOK_SECRET", testWebhookSecret)
	payments := newStubPaymentStore()
	courses := &stubCourseFinder{course: &models.Course{ID: primitive.NewObjectID(), Title: "Go Fundamentals", IsActive: true}}
	controller := NewPaymentController(payments, courses, &stubGateway{}, settler, nil)
	return controller, payments
}

func TestPaymentController_HandleWebhook(t *testing.T) {
	e := echo.New()

	t.Run("Given a correctly signed success event Then it is settled", func(t *testing.T) {
		settler := &stubSettler{result: &services.SettlementResult{Outcome: services.OutcomeSettled}}
		controller, _ := newWebhookFixture(t, settler)

		body := successWebhookBody("PAY-1", 1000)
		c, rec := newWebhookContext(e, body, signBody(testWebhookSecret, body))

		if err := controller.HandleWebhook(c); err != nil {
			t.Fatalf("HandleWebhook failed: %v", err)
		}
		if rec.Code != http.StatusOK {
			t.Errorf("expected 200, got %d: %s", rec.Code, rec.Body.String())
		}
		if settler.callCount() != 1 {
			t.Errorf("expected 1 settle call, got %d", settler.callCount())
		}
		if settler.events[0].Reference != "PAY-1" || settler.events[0].Amount != 1000 {
			t.Errorf("unexpected confirmed event: %+v", settler.events[0])
		}
	})

	t.Run("Given processor fields beyond the typed view Then the payload keeps them", func(t *testing.T) {
		settler := &stubSettler{result: &services.SettlementResult{Outcome: services.OutcomeSettled}}
		controller, _ := newWebhookFixture(t, settler)

		body := []byte(`{"event":"charge.success","data":{"status":"success","reference":"PAY-1","amount":1000,"channel":"card","fees":14.5,"authorization":{"bin":"408408"}}}`)
		c, rec := newWebhookContext(e, body, signBody(testWebhookSecret, body))

		if err := controller.HandleWebhook(c); err != nil {
			t.Fatalf("HandleWebhook failed: %v", err)
		}
		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
		}
		if settler.callCount() != 1 {
			t.Fatalf("expected 1 settle call, got %d", settler.callCount())
		}
		payload := settler.events[0].Payload
		if payload["fees"] != 14.5 {
			t.Errorf("expected fees to survive in the payload, got %v", payload["fees"])
		}
		if _, ok := payload["authorization"]; !ok {
			t.Errorf("expected nested authorization object to survive in the payload")
		}
	})

	t.Run("Given a missing signature Then 400 and no side effects", func(t *testing.T) {
		settler := &stubSettler{result: &services.SettlementResult{Outcome: services.OutcomeSettled}}
		controller, payments := newWebhookFixture(t, settler)

		c, rec := newWebhookContext(e, successWebhookBody("PAY-1", 1000), "")

		if err := controller.HandleWebhook(c); err != nil {
			t.Fatalf("HandleWebhook failed: %v", err)
		}
		if rec.Code != http.StatusBadRequest {
			t.Errorf("expected 400, got %d", rec.Code)
		}
		if settler.callCount() != 0 {
			t.Errorf("expected no settle calls, got %d", settler.callCount())
		}
		if len(payments.failed) != 0 {
			t.Errorf("expected no payment mutations")
		}
	})

	t.Run("Given a tampered body Then 401 and no side effects", func(t *testing.T) {
		settler := &stubSettler{result: &services.SettlementResult{Outcome: services.OutcomeSettled}}
		controller, _ := newWebhookFixture(t, settler)

		body := successWebhookBody("PAY-1", 1000)
		signature := signBody(testWebhookSecret, body)
		tampered := []byte(strings.Replace(string(body), `"amount":1000`, `"amount":9999`, 1))
		c, rec := newWebhookContext(e, tampered, signature)

		if err := controller.HandleWebhook(c); err != nil {
			t.Fatalf("HandleWebhook failed: %v", err)
		}
		if rec.Code != http.StatusUnauthorized {
			t.Errorf("expected 401, got %d", rec.Code)
		}
		if settler.callCount() != 0 {
			t.Errorf("expected no settle calls, got %d", settler.callCount())
		}
	})

	t.Run("Given a signature from the wrong secret Then 401", func(t *testing.T) {
		settler := &stubSettler{result: &services.SettlementResult{Outcome: services.OutcomeSettled}}
		controller, _ := newWebhookFixture(t, settler)

		body := successWebhookBody("PAY-1", 1000)
		c, rec := newWebhookContext(e, body, signBody("whsec_other", body))

		if err := controller.HandleWebhook(c); err != nil {
			t.Fatalf("HandleWebhook failed: %v", err)
		}
		if rec.Code != http.StatusUnauthorized {
			t.Errorf("expected 401, got %d", rec.Code)
		}
		if settler.callCount() != 0 {
			t.Errorf("expected no settle calls, got %d", settler.callCount())
		}
	})

	t.Run("Given no configured secret Then unsigned webhooks are accepted", func(t *testing.T) {
		t.Setenv("GATEWAY_WEBHOOK_SECRET", "")
		settler := &stubSettler{result: &services.SettlementResult{Outcome: services.OutcomeSettled}}
		controller := NewPaymentController(newStubPaymentStore(), &stubCourseFinder{err: repositories.ErrNotFound}, &stubGateway{}, settler, nil)

		c, rec := newWebhookContext(e, successWebhookBody("PAY-1", 1000), "")

		if err := controller.HandleWebhook(c); err != nil {
			t.Fatalf("HandleWebhook failed: %v", err)
		}
		if rec.Code != http.StatusOK {
			t.Errorf("expected 200, got %d", rec.Code)
		}
		if settler.callCount() != 1 {
			t.Errorf("expected 1 settle call, got %d", settler.callCount())
		}
	})

	t.Run("Given a duplicate delivery Then 200 already processed", func(t *testing.T) {
		settler := &stubSettler{result: &services.SettlementResult{Outcome: services.OutcomeAlreadySettled}}
		controller, _ := newWebhookFixture(t, settler)

		body := successWebhookBody("PAY-1", 1000)
		c, rec := newWebhookContext(e, body, signBody(testWebhookSecret, body))

		if err := controller.HandleWebhook(c); err != nil {
			t.Fatalf("HandleWebhook failed: %v", err)
		}
		if rec.Code != http.StatusOK {
			t.Errorf("expected 200, got %d", rec.Code)
		}
		if !strings.Contains(rec.Body.String(), "already processed") {
			t.Errorf("expected already-processed response, got %q", rec.Body.String())
		}
	})

	t.Run("Given a pending event Then 400 and the settler is never called", func(t *testing.T) {
		settler := &stubSettler{result: &services.SettlementResult{Outcome: services.OutcomeSettled}}
		controller, _ := newWebhookFixture(t, settler)

		body, _ := json.Marshal(models.WebhookEvent{
			Event: "charge.success",
			Data:  models.WebhookEventData{Status: "pending", Reference: "PAY-1"},
		})
		c, rec := newWebhookContext(e, body, signBody(testWebhookSecret, body))

		if err := controller.HandleWebhook(c); err != nil {
			t.Fatalf("HandleWebhook failed: %v", err)
		}
		if rec.Code != http.StatusBadRequest {
			t.Errorf("expected 400, got %d", rec.Code)
		}
		if settler.callCount() != 0 {
			t.Errorf("expected no settle calls, got %d", settler.callCount())
		}
	})

	t.Run("Given a charge failure event Then the payment is marked failed", func(t *testing.T) {
		settler := &stubSettler{}
		controller, payments := newWebhookFixture(t, settler)

		body, _ := json.Marshal(models.WebhookEvent{
			Event: "charge.failed",
			Data:  models.WebhookEventData{Status: "failed", Reference: "PAY-1"},
		})
		c, rec := newWebhookContext(e, body, signBody(testWebhookSecret, body))

		if err := controller.HandleWebhook(c); err != nil {
			t.Fatalf("HandleWebhook failed: %v", err)
		}
		if rec.Code != http.StatusOK {
			t.Errorf("expected 200, got %d", rec.Code)
		}
		if len(payments.failed) != 1 || payments.failed[0] != "PAY-1" {
			t.Errorf("expected PAY-1 marked failed, got %v", payments.failed)
		}
		if settler.callCount() != 0 {
			t.Errorf("expected no settle calls, got %d", settler.callCount())
		}
	})

	t.Run("Given an unknown reference Then 404", func(t *testing.T) {
		settler := &stubSettler{err: services.ErrPaymentNotFound}
		controller, _ := newWebhookFixture(t, settler)

		body := successWebhookBody("PAY-404", 1000)
		c, rec := newWebhookContext(e, body, signBody(testWebhookSecret, body))

		if err := controller.HandleWebhook(c); err != nil {
			t.Fatalf("HandleWebhook failed: %v", err)
		}
		if rec.Code != http.StatusNotFound {
			t.Errorf("expected 404, got %d", rec.Code)
		}
	})

	t.Run("Given a referential integrity failure Then 500", func(t *testing.T) {
		settler := &stubSettler{err: services.ErrReferentialIntegrity}
		controller, _ := newWebhookFixture(t, settler)

		body := successWebhookBody("PAY-1", 1000)
		c, rec := newWebhookContext(e, body, signBody(testWebhookSecret, body))

		if err := controller.HandleWebhook(c); err != nil {
			t.Fatalf("HandleWebhook failed: %v", err)
		}
		if rec.Code != http.StatusInternalServerError {
			t.Errorf("expected 500, got %d", rec.Code)
		}
	})
}

func TestPaymentController_VerifyPayment(t *testing.T) {
	e := echo.New()

	newVerifyContext := func(reference string) (echo.Context, *httptest.ResponseRecorder) {
		req := httptest.NewRequest(http.MethodGet, "/api/payment/verify/"+reference, nil)
		rec := httptest.NewRecorder()
		c := e.NewContext(req, rec)
		c.SetParamNames("reference")
		c.SetParamValues(reference)
		return c, rec
	}

	t.Run("Given the gateway confirms success Then the payment is settled", func(t *testing.T) {
		t.Setenv("GATEWAY_WEBHOOK_SECRET", testWebhookSecret)
		settler := &stubSettler{result: &services.SettlementResult{Outcome: services.OutcomeSettled}}
		gateway := &stubGateway{verification: &models.GatewayVerification{Status: "success", Reference: "PAY-1", Amount: 1000}}
		controller := NewPaymentController(newStubPaymentStore(), &stubCourseFinder{err: repositories.ErrNotFound}, gateway, settler, nil)

		c, rec := newVerifyContext("PAY-1")
		if err := controller.VerifyPayment(c); err != nil {
			t.Fatalf("VerifyPayment failed: %v", err)
		}
		if rec.Code != http.StatusOK {
			t.Errorf("expected 200, got %d", rec.Code)
		}
		if settler.callCount() != 1 {
			t.Errorf("expected 1 settle call, got %d", settler.callCount())
		}
	})

	t.Run("Given the gateway reports pending Then nothing is mutated", func(t *testing.T) {
		t.Setenv("GATEWAY_WEBHOOK_SECRET", testWebhookSecret)
		settler := &stubSettler{}
		gateway := &stubGateway{verification: &models.GatewayVerification{Status: "pending", Reference: "PAY-1"}}
		controller := NewPaymentController(newStubPaymentStore(), &stubCourseFinder{err: repositories.ErrNotFound}, gateway, settler, nil)

		c, rec := newVerifyContext("PAY-1")
		if err := controller.VerifyPayment(c); err != nil {
			t.Fatalf("VerifyPayment failed: %v", err)
		}
		if rec.Code != http.StatusOK {
			t.Errorf("expected 200, got %d", rec.Code)
		}
		if settler.callCount() != 0 {
			t.Errorf("expected no settle calls, got %d", settler.callCount())
		}
		if !strings.Contains(rec.Body.String(), "pending") {
			t.Errorf("expected pending status in response, got %q", rec.Body.String())
		}
	})

	t.Run("Given the gateway is unreachable Then 500 and no settlement", func(t *testing.T) {
		t.Setenv("GATEWAY_WEBHOOK_SECRET", testWebhookSecret)
		settler := &stubSettler{}
		gateway := &stubGateway{verifyErr: services.ErrGatewayUnavailable}
		controller := NewPaymentController(newStubPaymentStore(), &stubCourseFinder{err: repositories.ErrNotFound}, gateway, settler, nil)

		c, rec := newVerifyContext("PAY-1")
		if err := controller.VerifyPayment(c); err != nil {
			t.Fatalf("VerifyPayment failed: %v", err)
		}
		if rec.Code != http.StatusInternalServerError {
			t.Errorf("expected 500, got %d", rec.Code)
		}
		if settler.callCount() != 0 {
			t.Errorf("expected no settle calls, got %d", settler.callCount())
		}
	})

	t.Run("Given a confirmed success for an unknown reference Then 404", func(t *testing.T) {
		t.Setenv("GATEWAY_WEBHOOK_SECRET", testWebhookSecret)
		settler := &stubSettler{err: services.ErrPaymentNotFound}
		gateway := &stubGateway{verification: &models.GatewayVerification{Status: "success", Reference: "PAY-404", Amount: 1000}}
		controller := NewPaymentController(newStubPaymentStore(), &stubCourseFinder{err: repositories.ErrNotFound}, gateway, settler, nil)

		c, rec := newVerifyContext("PAY-404")
		if err := controller.VerifyPayment(c); err != nil {
			t.Fatalf("VerifyPayment failed: %v", err)
		}
		if rec.Code != http.StatusNotFound {
			t.Errorf("expected 404, got %d", rec.Code)
		}
	})
}

func TestPaymentController_InitiatePayment(t *testing.T) {
	e := echo.New()
	e.Validator = &testValidator{validator: validator.New()}

	studentID := primitive.NewObjectID()
	courseID := primitive.NewObjectID()

	newInitiateContext := func(body string) (echo.Context, *httptest.ResponseRecorder) {
		req := httptest.NewRequest(http.MethodPost, "/api/payment/initiate", strings.NewReader(body))
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
		rec := httptest.NewRecorder()
		c := e.NewContext(req, rec)
		token := jwt.NewWithClaims(jwt.SigningMethodHS256, &middleware.JwtCustomClaims{
			UserID:   studentID.Hex(),
			Email:    "student@example.com",
			UserType: "student",
		})
		c.Set("user", token)
		return c, rec
	}

	t.Run("Given an active course Then a pending payment and checkout URL are created", func(t *testing.T) {
		t.Setenv("GATEWAY_WEBHOOK_SECRET", testWebhookSecret)
		payments := newStubPaymentStore()
		courses := &stubCourseFinder{course: &models.Course{ID: courseID, Title: "Go Fundamentals", Price: 1000, IsActive: true}}
		gateway := &stubGateway{checkoutURL: "https://checkout.example.com/abc"}
		controller := NewPaymentController(payments, courses, gateway, &stubSettler{}, nil)

		body := `{"courseId":"` + courseID.Hex() + `","amount":1000,"email":"student@example.com","fullName":"Sam Student"}`
		c, rec := newInitiateContext(body)

		if err := controller.InitiatePayment(c); err != nil {
			t.Fatalf("InitiatePayment failed: %v", err)
		}
		if rec.Code != http.StatusCreated {
			t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
		}
		if len(payments.payments) != 1 {
			t.Fatalf("expected 1 pending payment, got %d", len(payments.payments))
		}
		for _, p := range payments.payments {
			if p.Status != models.PaymentStatusPending {
				t.Errorf("expected pending status, got %s", p.Status)
			}
			if p.StudentID != studentID || p.CourseID != courseID {
				t.Errorf("payment bound to wrong student or course")
			}
			if !strings.HasPrefix(p.Reference, "PAY-") {
				t.Errorf("expected PAY- reference, got %q", p.Reference)
			}
		}
		if !strings.Contains(rec.Body.String(), "checkout.example.com") {
			t.Errorf("expected checkout URL in response, got %q", rec.Body.String())
		}
	})

	t.Run("Given an inactive course Then 400 and no payment", func(t *testing.T) {
		t.Setenv("GATEWAY_WEBHOOK_SECRET", testWebhookSecret)
		payments := newStubPaymentStore()
		courses := &stubCourseFinder{course: &models.Course{ID: courseID, IsActive: false}}
		controller := NewPaymentController(payments, courses, &stubGateway{}, &stubSettler{}, nil)

		body := `{"courseId":"` + courseID.Hex() + `","amount":1000,"email":"student@example.com","fullName":"Sam Student"}`
		c, rec := newInitiateContext(body)

		if err := controller.InitiatePayment(c); err != nil {
			t.Fatalf("InitiatePayment failed: %v", err)
		}
		if rec.Code != http.StatusBadRequest {
			t.Errorf("expected 400, got %d", rec.Code)
		}
		if len(payments.payments) != 0 {
			t.Errorf("expected no payments, got %d", len(payments.payments))
		}
	})

	t.Run("Given a missing course Then 404", func(t *testing.T) {
		t.Setenv("GATEWAY_WEBHOOK_SECRET", testWebhookSecret)
		payments := newStubPaymentStore()
		controller := NewPaymentController(payments, &stubCourseFinder{err: repositories.ErrNotFound}, &stubGateway{}, &stubSettler{}, nil)

		body := `{"courseId":"` + courseID.Hex() + `","amount":1000,"email":"student@example.com","fullName":"Sam Student"}`
		c, rec := newInitiateContext(body)

		if err := controller.InitiatePayment(c); err != nil {
			t.Fatalf("InitiatePayment failed: %v", err)
		}
		if rec.Code != http.StatusNotFound {
			t.Errorf("expected 404, got %d", rec.Code)
		}
	})

	t.Run("Given a gateway outage Then 500 and no payment row", func(t *testing.T) {
		t.Setenv("GATEWAY_WEBHOOK_SECRET", testWebhookSecret)
		payments := newStubPaymentStore()
		courses := &stubCourseFinder{course: &models.Course{ID: courseID, IsActive: true}}
		gateway := &stubGateway{initErr: services.ErrGatewayUnavailable}
		controller := NewPaymentController(payments, courses, gateway, &stubSettler{}, nil)

		body := `{"courseId":"` + courseID.Hex() + `","amount":1000,"email":"student@example.com","fullName":"Sam Student"}`
		c, rec := newInitiateContext(body)

		if err := controller.InitiatePayment(c); err != nil {
			t.Fatalf("InitiatePayment failed: %v", err)
		}
		if rec.Code != http.StatusInternalServerError {
			t.Errorf("expected 500, got %d", rec.Code)
		}
		if len(payments.payments) != 0 {
			t.Errorf("expected no payments, got %d", len(payments.payments))
		}
	})

	t.Run("Given an invalid request body Then 400", func(t *testing.T) {
		t.Setenv("GATEWAY_WEBHOOK_SECRET", testWebhookSecret)
		controller := NewPaymentController(newStubPaymentStore(), &stubCourseFinder{}, &stubGateway{}, &stubSettler{}, nil)

		c, rec := newInitiateContext(`{"courseId":"","amount":-5}`)

		if err := controller.InitiatePayment(c); err != nil {
			t.Fatalf("InitiatePayment failed: %v", err)
		}
		if rec.Code != http.StatusBadRequest {
			t.Errorf("expected 400, got %d", rec.Code)
		}
	})
}

func TestPaymentController_GetPaymentStatus(t *testing.T) {
	e := echo.New()
	studentID := primitive.NewObjectID()

	newStatusContext := func(reference string, claims *middleware.JwtCustomClaims) (echo.Context, *httptest.ResponseRecorder) {
		req := httptest.NewRequest(http.MethodGet, "/api/payment/status/"+reference, nil)
		rec := httptest.NewRecorder()
		c := e.NewContext(req, rec)
		c.SetParamNames("reference")
		c.SetParamValues(reference)
		if claims != nil {
			c.Set("user", jwt.NewWithClaims(jwt.SigningMethodHS256, claims))
		}
		return c, rec
	}

	t.Setenv("GATEWAY_WEBHOOK_SECRET", testWebhookSecret)
	payments := newStubPaymentStore()
	payments.Create(context.Background(), &models.Payment{
		ID:        primitive.NewObjectID(),
		StudentID: studentID,
		Reference: "PAY-1",
		Status:    models.PaymentStatusSuccess,
	})
	controller := NewPaymentController(payments, &stubCourseFinder{err: repositories.ErrNotFound}, &stubGateway{}, &stubSettler{}, nil)

	t.Run("Given the owning student Then the payment is returned", func(t *testing.T) {
		c, rec := newStatusContext("PAY-1", &middleware.JwtCustomClaims{UserID: studentID.Hex(), UserType: "student"})
		if err := controller.GetPaymentStatus(c); err != nil {
			t.Fatalf("GetPaymentStatus failed: %v", err)
		}
		if rec.Code != http.StatusOK {
			t.Errorf("expected 200, got %d", rec.Code)
		}
	})

	t.Run("Given a different student Then 403", func(t *testing.T) {
		c, rec := newStatusContext("PAY-1", &middleware.JwtCustomClaims{UserID: primitive.NewObjectID().Hex(), UserType: "student"})
		if err := controller.GetPaymentStatus(c); err != nil {
			t.Fatalf("GetPaymentStatus failed: %v", err)
		}
		if rec.Code != http.StatusForbidden {
			t.Errorf("expected 403, got %d", rec.Code)
		}
	})

	t.Run("Given an unknown reference Then 404", func(t *testing.T) {
		c, rec := newStatusContext("PAY-404", &middleware.JwtCustomClaims{UserID: studentID.Hex(), UserType: "student"})
		if err := controller.GetPaymentStatus(c); err != nil {
			t.Fatalf("GetPaymentStatus failed: %v", err)
		}
		if rec.Code != http.StatusNotFound {
			t.Errorf("expected 404, got %d", rec.Code)
		}
	})
}
