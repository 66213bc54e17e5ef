package controllers

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/labstack/echo/v4"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/learnio/learnio_backend/middleware"
	"github.com/learnio/learnio_backend/models"
	"github.com/learnio/learnio_backend/repositories"
	"github.com/learnio/learnio_backend/services"
	"github.com/learnio/learnio_backend/utils"
)

// SignatureHeader is the header the processor signs webhook bodies into.
const SignatureHeader = "X-Gateway-Signature"

// verifyThrottleTTL is how long a reference is locked against repeat verify
// polls. Clients are expected to back off rather than poll in a tight loop.
const verifyThrottleTTL = 10 * time.Second

// PaymentStore is the slice of the payment repository the controller uses.
type PaymentStore interface {
	Create(ctx context.Context, payment *models.Payment) error
	FindByReference(ctx context.Context, reference string) (*models.Payment, error)
	MarkFailed(ctx context.Context, reference string) error
}

// CourseFinder resolves the course being purchased.
type CourseFinder interface {
	FindByID(ctx context.Context, id primitive.ObjectID) (*models.Course, error)
}

// CheckoutGateway is the slice of the gateway client the controller uses.
type CheckoutGateway interface {
	InitializeTransaction(amount float64, email, reference, callbackURL, returnURL string) (string, error)
	VerifyTransaction(reference string) (*models.GatewayVerification, error)
}

// Settler hands a confirmed event to the settlement engine. Both the webhook
// ingress and the verify poller go through this single interface so side
// effects happen in exactly one place.
type Settler interface {
	Settle(ctx context.Context, event models.ConfirmedEvent) (*services.SettlementResult, error)
}

// PaymentController owns payment initiation, the webhook ingress and the
// verification poller.
type PaymentController struct {
	payments      PaymentStore
	courses       CourseFinder
	gateway       CheckoutGateway
	settler       Settler
	redis         *redis.Client
	webhookSecret string
	baseURL       string
	appURL        string
}

// NewPaymentController wires the controller from environment configuration.
// An empty GATEWAY_WEBHOOK_SECRET disables signature checking, which is a
// degraded-security mode and is logged loudly.
func NewPaymentController(payments PaymentStore, courses CourseFinder, gateway CheckoutGateway, settler Settler, redisClient *redis.Client) *PaymentController {
	webhookSecret := os.Getenv("GATEWAY_WEBHOOK_SECRET")
	if webhookSecret == "" {
		log.Printf("==========================================")
		log.Printf("WARNING: GATEWAY_WEBHOOK_SECRET is not set")
		log.Printf("Webhook signature verification is DISABLED")
		log.Printf("Any caller can post forged payment webhooks")
		log.Printf("==========================================")
	}

	baseURL := os.Getenv("BASE_URL")
	if baseURL == "" {
		baseURL = "http://localhost:8080"
	}
	appURL := os.Getenv("APP_URL")
	if appURL == "" {
		appURL = baseURL
	}

	return &PaymentController{
		payments:      payments,
		courses:       courses,
		gateway:       gateway,
		settler:       settler,
		redis:         redisClient,
		webhookSecret: webhookSecret,
		baseURL:       baseURL,
		appURL:        appURL,
	}
}

// InitiatePayment starts a checkout attempt: resolves the course, asks the
// gateway for a checkout URL and records the pending payment.
func (pc *PaymentController) InitiatePayment(c echo.Context) error {
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Second)
	defer cancel()

	claims := middleware.GetUserFromToken(c)
	if claims == nil {
		return c.JSON(http.StatusUnauthorized, models.Response{
			Status:  http.StatusUnauthorized,
			Message: "Authentication required",
		})
	}
	studentID, err := primitive.ObjectIDFromHex(claims.UserID)
	if err != nil {
		return c.JSON(http.StatusBadRequest, models.Response{
			Status:  http.StatusBadRequest,
			Message: "Invalid user ID",
		})
	}

	var req models.InitiatePaymentRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, models.Response{
			Status:  http.StatusBadRequest,
			Message: "Invalid request body",
		})
	}
	if err := c.Validate(&req); err != nil {
		return c.JSON(http.StatusBadRequest, models.Response{
			Status:  http.StatusBadRequest,
			Message: fmt.Sprintf("Validation failed: %v", err),
		})
	}

	courseID, err := primitive.ObjectIDFromHex(req.CourseID)
	if err != nil {
		return c.JSON(http.StatusBadRequest, models.Response{
			Status:  http.StatusBadRequest,
			Message: "Invalid course ID format",
		})
	}

	course, err := pc.courses.FindByID(ctx, courseID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return c.JSON(http.StatusNotFound, models.Response{
				Status:  http.StatusNotFound,
				Message: "Course not found",
			})
		}
		return c.JSON(http.StatusInternalServerError, models.Response{
			Status:  http.StatusInternalServerError,
			Message: "Failed to look up course",
		})
	}
	if !course.IsActive {
		return c.JSON(http.StatusBadRequest, models.Response{
			Status:  http.StatusBadRequest,
			Message: "Course is not open for enrollment",
		})
	}

	reference := services.NewPaymentReference()
	callbackURL := fmt.Sprintf("%s/api/payment/webhook", pc.baseURL)
	returnURL := fmt.Sprintf("%s/payment/callback?reference=%s&course_id=%s", pc.appURL, reference, course.ID.Hex())

	checkoutURL, err := pc.gateway.InitializeTransaction(req.Amount, req.Email, reference, callbackURL, returnURL)
	if err != nil {
		log.Printf("Failed to initialize payment for reference %s: %v", reference, err)
		return c.JSON(http.StatusInternalServerError, models.Response{
			Status:  http.StatusInternalServerError,
			Message: fmt.Sprintf("Failed to initiate payment: %v", err),
		})
	}

	payment := &models.Payment{
		ID:        primitive.NewObjectID(),
		StudentID: studentID,
		CourseID:  course.ID,
		Amount:    req.Amount,
		Email:     req.Email,
		Reference: reference,
		Status:    models.PaymentStatusPending,
		CreatedAt: time.Now(),
	}
	if err := pc.payments.Create(ctx, payment); err != nil {
		log.Printf("Failed to save payment record for reference %s: %v", reference, err)
		return c.JSON(http.StatusInternalServerError, models.Response{
			Status:  http.StatusInternalServerError,
			Message: "Failed to create payment record",
		})
	}

	log.Printf("Payment initiated for reference %s: student=%s course=%s amount=%.2f",
		reference, studentID.Hex(), course.ID.Hex(), req.Amount)

	return c.JSON(http.StatusCreated, models.Response{
		Status:  http.StatusCreated,
		Message: "Payment initiated successfully",
		Data: map[string]interface{}{
			"checkoutUrl": checkoutURL,
			"reference":   reference,
		},
	})
}

// HandleWebhook receives the processor's server-pushed payment notification.
// The signature is computed over the exact request bytes; the body is only
// parsed after it verifies. The processor expects bare-text responses.
func (pc *PaymentController) HandleWebhook(c echo.Context) error {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	body, err := io.ReadAll(c.Request().Body)
	if err != nil {
		return c.String(http.StatusBadRequest, "Failed to read body")
	}

	if pc.webhookSecret != "" {
		signature := c.Request().Header.Get(SignatureHeader)
		if signature == "" {
			log.Printf("Webhook rejected: missing %s header", SignatureHeader)
			return c.String(http.StatusBadRequest, "Missing signature")
		}

		mac := hmac.New(sha256.New, []byte(pc.webhookSecret))
		mac.Write(body)
		expected := hex.EncodeToString(mac.Sum(nil))
		if !hmac.Equal([]byte(signature), []byte(expected)) {
			log.Printf("Webhook rejected: invalid signature")
			return c.String(http.StatusUnauthorized, "Invalid signature")
		}
	} else {
		log.Printf("Webhook accepted WITHOUT signature verification (no secret configured)")
	}

	var event models.WebhookEvent
	if err := json.Unmarshal(body, &event); err != nil {
		log.Printf("Webhook rejected: unparseable payload: %v", err)
		return c.String(http.StatusBadRequest, "Invalid payload")
	}

	log.Printf("Webhook received: event=%s reference=%s status=%s", event.Event, event.Data.Reference, event.Data.Status)

	// A definitive failure notice just records the failure.
	if event.Event == "charge.failed" && event.Data.Reference != "" {
		if err := pc.payments.MarkFailed(ctx, event.Data.Reference); err != nil {
			log.Printf("Failed to record payment failure for reference %s: %v", event.Data.Reference, err)
			return c.String(http.StatusInternalServerError, "Failed to record failure")
		}
		return c.String(http.StatusOK, "Payment failure recorded")
	}

	// Both success markers must be present before the settlement engine is
	// allowed to see the event. Pending or partial events stop here.
	if event.Event != "charge.success" || event.Data.Status != "success" || event.Data.Reference == "" {
		log.Printf("Webhook rejected: not a confirmed success event (event=%s status=%s)", event.Event, event.Data.Status)
		return c.String(http.StatusBadRequest, "Invalid webhook")
	}

	// The stored payload is the processor's own data object, not the typed
	// view, so fields this service does not model survive on the payment.
	var rawEvent struct {
		Data map[string]interface{} `json:"data"`
	}
	_ = json.Unmarshal(body, &rawEvent)

	result, err := pc.settler.Settle(ctx, models.ConfirmedEvent{
		Reference: event.Data.Reference,
		Amount:    event.Data.Amount,
		Payload:   rawEvent.Data,
	})
	return pc.respondWebhook(c, event.Data.Reference, result, err)
}

func (pc *PaymentController) respondWebhook(c echo.Context, reference string, result *services.SettlementResult, err error) error {
	if err != nil {
		if errors.Is(err, services.ErrPaymentNotFound) {
			log.Printf("Webhook for unknown reference %s", reference)
			return c.String(http.StatusNotFound, "Payment not found")
		}
		if errors.Is(err, services.ErrReferentialIntegrity) {
			return c.String(http.StatusInternalServerError, "Settlement requires manual reconciliation")
		}
		log.Printf("Settlement failed for reference %s: %v", reference, err)
		return c.String(http.StatusInternalServerError, "Settlement failed")
	}

	if result.Outcome == services.OutcomeAlreadySettled {
		return c.String(http.StatusOK, "Payment already processed")
	}

	pc.notifyEnrollment(c.Request().Context(), reference)
	return c.String(http.StatusOK, "Payment settled")
}

// notifyEnrollment emails the student their enrollment confirmation after a
// fresh settlement. Best-effort: lookup or delivery failures are logged.
func (pc *PaymentController) notifyEnrollment(ctx context.Context, reference string) {
	payment, err := pc.payments.FindByReference(ctx, reference)
	if err != nil || payment.Email == "" {
		return
	}
	courseTitle := "your course"
	if course, err := pc.courses.FindByID(ctx, payment.CourseID); err == nil {
		courseTitle = course.Title
	}
	go utils.SendEnrollmentConfirmationEmail(payment.Email, courseTitle, reference)
}

// VerifyPayment is the client-triggered compensating path for missed or
// delayed webhooks. It asks the gateway for the current status and routes a
// confirmed success through the same settlement engine as the webhook.
func (pc *PaymentController) VerifyPayment(c echo.Context) error {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	reference := c.Param("reference")
	if reference == "" {
		return c.JSON(http.StatusBadRequest, models.Response{
			Status:  http.StatusBadRequest,
			Message: "Missing reference",
		})
	}
	courseID := c.QueryParam("course_id")

	// Best-effort throttle so a stuck client cannot hammer the gateway
	// verify endpoint for one reference. Redis being down never blocks the
	// verification itself.
	if pc.redis != nil {
		acquired, err := pc.redis.SetNX(ctx, "payment:verify:"+reference, 1, verifyThrottleTTL).Result()
		if err != nil {
			log.Printf("Verify throttle unavailable for reference %s: %v", reference, err)
		} else if !acquired {
			return c.JSON(http.StatusTooManyRequests, models.Response{
				Status:  http.StatusTooManyRequests,
				Message: "Verification already in progress, please retry shortly",
			})
		}
	}

	verification, err := pc.gateway.VerifyTransaction(reference)
	if err != nil {
		log.Printf("Gateway verification failed for reference %s: %v", reference, err)
		return c.JSON(http.StatusInternalServerError, models.Response{
			Status:  http.StatusInternalServerError,
			Message: fmt.Sprintf("Failed to verify payment: %v", err),
		})
	}

	log.Printf("Gateway reports status %q for reference %s", verification.Status, reference)

	if verification.Status != "success" {
		// Not confirmed: report without mutating anything.
		return c.JSON(http.StatusOK, models.Response{
			Status:  http.StatusOK,
			Message: fmt.Sprintf("Payment is %s", verification.Status),
			Data: map[string]interface{}{
				"reference": reference,
				"status":    verification.Status,
				"courseId":  courseID,
			},
		})
	}

	result, err := pc.settler.Settle(ctx, models.ConfirmedEvent{
		Reference: reference,
		Amount:    verification.Amount,
		Payload:   verification.Raw,
	})
	if err != nil {
		if errors.Is(err, services.ErrPaymentNotFound) {
			return c.JSON(http.StatusNotFound, models.Response{
				Status:  http.StatusNotFound,
				Message: "Payment not found",
			})
		}
		if errors.Is(err, services.ErrReferentialIntegrity) {
			return c.JSON(http.StatusInternalServerError, models.Response{
				Status:  http.StatusInternalServerError,
				Message: "Settlement requires manual reconciliation",
			})
		}
		log.Printf("Settlement failed for reference %s: %v", reference, err)
		return c.JSON(http.StatusInternalServerError, models.Response{
			Status:  http.StatusInternalServerError,
			Message: "Settlement failed",
		})
	}

	if result.Outcome == services.OutcomeSettled {
		pc.notifyEnrollment(ctx, reference)
	}

	payment, findErr := pc.payments.FindByReference(ctx, reference)
	if findErr != nil {
		payment = nil
	}

	return c.JSON(http.StatusOK, models.Response{
		Status:  http.StatusOK,
		Message: "Payment verified successfully",
		Data: map[string]interface{}{
			"payment":    payment,
			"courseId":   courseID,
			"settlement": result,
		},
	})
}

// GetPaymentStatus returns the student's own payment record for a reference.
// Read-only.
func (pc *PaymentController) GetPaymentStatus(c echo.Context) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	claims := middleware.GetUserFromToken(c)
	if claims == nil {
		return c.JSON(http.StatusUnauthorized, models.Response{
			Status:  http.StatusUnauthorized,
			Message: "Authentication required",
		})
	}

	payment, err := pc.payments.FindByReference(ctx, c.Param("reference"))
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return c.JSON(http.StatusNotFound, models.Response{
				Status:  http.StatusNotFound,
				Message: "Payment not found",
			})
		}
		return c.JSON(http.StatusInternalServerError, models.Response{
			Status:  http.StatusInternalServerError,
			Message: "Failed to look up payment",
		})
	}

	if payment.StudentID.Hex() != claims.UserID {
		return c.JSON(http.StatusForbidden, models.Response{
			Status:  http.StatusForbidden,
			Message: "You do not have access to this payment",
		})
	}

	return c.JSON(http.StatusOK, models.Response{
		Status:  http.StatusOK,
		Message: "Payment retrieved successfully",
		Data:    payment,
	})
}
