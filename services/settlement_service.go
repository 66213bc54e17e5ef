package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"math"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/learnio/learnio_backend/models"
	"github.com/learnio/learnio_backend/repositories"
)

// ErrPaymentNotFound means no payment record exists for the reference. The
// caller maps it to an HTTP status.
var ErrPaymentNotFound = errors.New("payment not found")

// ErrReferentialIntegrity means a confirmed payment points at a course or
// instructor that no longer resolves. This is fatal: it is logged with the
// reference and left for manual reconciliation, never retried automatically.
var ErrReferentialIntegrity = errors.New("referential integrity error")

// Settlement outcomes
const (
	OutcomeSettled        = "settled"
	OutcomeAlreadySettled = "already_settled"
)

// SettlementResult reports what a Settle call did. AlreadySettled is a
// success shape, not an error: the webhook and the verify poll both fire for
// the same reference under normal operation.
type SettlementResult struct {
	Outcome       string             `json:"outcome"`
	TransactionID primitive.ObjectID `json:"transactionId,omitempty"`
	EnrollmentID  primitive.ObjectID `json:"enrollmentId,omitempty"`
}

// PaymentStore is the slice of the payment record store the engine needs.
type PaymentStore interface {
	FindByReference(ctx context.Context, reference string) (*models.Payment, error)
	MarkSuccess(ctx context.Context, id primitive.ObjectID, payload map[string]interface{}) (bool, error)
}

// TransactionStore persists revenue splits. Create must return
// repositories.ErrDuplicate when the paymentId unique constraint is hit.
type TransactionStore interface {
	FindByPaymentID(ctx context.Context, paymentID primitive.ObjectID) (*models.Transaction, error)
	Create(ctx context.Context, transaction *models.Transaction) error
}

// EnrollmentStore persists enrollments. Create must return
// repositories.ErrDuplicate when the (studentId, courseId) constraint is hit.
type EnrollmentStore interface {
	Find(ctx context.Context, studentID, courseID primitive.ObjectID) (*models.Enrollment, error)
	Create(ctx context.Context, enrollment *models.Enrollment) error
}

// CourseStore resolves a course to its instructor.
type CourseStore interface {
	FindByID(ctx context.Context, id primitive.ObjectID) (*models.Course, error)
}

// BalanceStore increments the instructor's legacy wallet accumulator.
type BalanceStore interface {
	CreditWalletBalance(ctx context.Context, userID primitive.ObjectID, amount float64) error
}

// SettlementService turns a processor-confirmed success event into exactly
// one transaction, one enrollment and one balance credit. It is re-entrant:
// the webhook ingress and the verify poller both hand events here, often for
// the same reference, sometimes concurrently. Coordination is pushed to the
// store's unique constraints rather than any in-process locking.
type SettlementService struct {
	payments        PaymentStore
	transactions    TransactionStore
	enrollments     EnrollmentStore
	courses         CourseStore
	balances        BalanceStore
	instructorRatio float64
}

func NewSettlementService(payments PaymentStore, transactions TransactionStore, enrollments EnrollmentStore, courses CourseStore, balances BalanceStore, instructorRatio float64) *SettlementService {
	if instructorRatio <= 0 || instructorRatio >= 1 {
		log.Printf("Invalid revenue split ratio %.2f, falling back to 0.80", instructorRatio)
		instructorRatio = 0.8
	}
	return &SettlementService{
		payments:        payments,
		transactions:    transactions,
		enrollments:     enrollments,
		courses:         courses,
		balances:        balances,
		instructorRatio: instructorRatio,
	}
}

// Settle runs the idempotent side-effect sequence for a confirmed payment:
// mark the payment success, split the revenue, persist the transaction,
// credit the instructor, create the enrollment.
func (s *SettlementService) Settle(ctx context.Context, event models.ConfirmedEvent) (*SettlementResult, error) {
	payment, err := s.payments.FindByReference(ctx, event.Reference)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, ErrPaymentNotFound
		}
		return nil, fmt.Errorf("failed to look up payment %s: %w", event.Reference, err)
	}

	// First idempotence gate: a payment already marked success has been
	// settled (or is mid-settlement by another caller past this point).
	if payment.Status == models.PaymentStatusSuccess {
		log.Printf("Settlement skipped for reference %s: payment already successful", event.Reference)
		return s.alreadySettled(ctx, payment), nil
	}

	if event.Amount > 0 && event.Amount != payment.Amount {
		log.Printf("Amount mismatch for reference %s: payment has %.2f, processor reported %.2f", event.Reference, payment.Amount, event.Amount)
	}

	updated, err := s.payments.MarkSuccess(ctx, payment.ID, event.Payload)
	if err != nil {
		return nil, fmt.Errorf("failed to mark payment %s successful: %w", event.Reference, err)
	}
	if !updated {
		// Another caller won the status transition. Fall through: if it
		// crashed before writing the transaction, this call completes the
		// settlement; otherwise the gates below report already settled.
		log.Printf("Payment %s was marked successful by a concurrent caller", event.Reference)
	}

	// Second idempotence gate: defends against a crash after the payment
	// flipped to success but before the transaction was written.
	existing, err := s.transactions.FindByPaymentID(ctx, payment.ID)
	if err == nil {
		return &SettlementResult{Outcome: OutcomeAlreadySettled, TransactionID: existing.ID}, nil
	}
	if !errors.Is(err, repositories.ErrNotFound) {
		return nil, fmt.Errorf("failed to look up transaction for reference %s: %w", event.Reference, err)
	}

	course, err := s.courses.FindByID(ctx, payment.CourseID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			log.Printf("FATAL RECONCILIATION CASE for reference %s: course %s not found", event.Reference, payment.CourseID.Hex())
			return nil, fmt.Errorf("%w: course %s not found for reference %s", ErrReferentialIntegrity, payment.CourseID.Hex(), event.Reference)
		}
		return nil, fmt.Errorf("failed to look up course for reference %s: %w", event.Reference, err)
	}
	if course.InstructorID.IsZero() {
		log.Printf("FATAL RECONCILIATION CASE for reference %s: course %s has no instructor", event.Reference, course.ID.Hex())
		return nil, fmt.Errorf("%w: course %s has no instructor for reference %s", ErrReferentialIntegrity, course.ID.Hex(), event.Reference)
	}

	instructorShare, platformShare := s.splitRevenue(payment.Amount)

	transaction := &models.Transaction{
		ID:              primitive.NewObjectID(),
		PaymentID:       payment.ID,
		StudentID:       payment.StudentID,
		InstructorID:    course.InstructorID,
		CourseID:        course.ID,
		AmountPaid:      payment.Amount,
		InstructorShare: instructorShare,
		PlatformShare:   platformShare,
		Status:          models.PaymentStatusSuccess,
		CreatedAt:       time.Now(),
	}

	// The unique index on paymentId is the real duplicate-settlement guard.
	// Two callers can race past the read above; the loser lands here.
	if err := s.transactions.Create(ctx, transaction); err != nil {
		if errors.Is(err, repositories.ErrDuplicate) {
			log.Printf("Concurrent settlement detected for reference %s, treating as already settled", event.Reference)
			return s.alreadySettled(ctx, payment), nil
		}
		return nil, fmt.Errorf("failed to create transaction for reference %s: %w", event.Reference, err)
	}

	// Best-effort: the transaction row is the source of truth for the
	// balance ledger, so a failed wallet increment is logged, not fatal.
	if err := s.balances.CreditWalletBalance(ctx, course.InstructorID, instructorShare); err != nil {
		log.Printf("Failed to credit instructor %s wallet for reference %s: %v", course.InstructorID.Hex(), event.Reference, err)
	}

	enrollmentID, err := s.ensureEnrollment(ctx, payment)
	if err != nil {
		return nil, err
	}

	log.Printf("Settled reference %s: transaction=%s enrollment=%s instructorShare=%.2f platformShare=%.2f",
		event.Reference, transaction.ID.Hex(), enrollmentID.Hex(), instructorShare, platformShare)

	return &SettlementResult{
		Outcome:       OutcomeSettled,
		TransactionID: transaction.ID,
		EnrollmentID:  enrollmentID,
	}, nil
}

// ensureEnrollment creates the enrollment if absent. A duplicate-key insert
// means another caller created it between the check and the write; both are
// fine, there is exactly one row either way.
func (s *SettlementService) ensureEnrollment(ctx context.Context, payment *models.Payment) (primitive.ObjectID, error) {
	existing, err := s.enrollments.Find(ctx, payment.StudentID, payment.CourseID)
	if err == nil {
		return existing.ID, nil
	}
	if !errors.Is(err, repositories.ErrNotFound) {
		return primitive.NilObjectID, fmt.Errorf("failed to look up enrollment for reference %s: %w", payment.Reference, err)
	}

	enrollment := &models.Enrollment{
		ID:         primitive.NewObjectID(),
		StudentID:  payment.StudentID,
		CourseID:   payment.CourseID,
		PaymentID:  payment.ID,
		EnrolledAt: time.Now(),
	}
	if err := s.enrollments.Create(ctx, enrollment); err != nil {
		if errors.Is(err, repositories.ErrDuplicate) {
			if existing, findErr := s.enrollments.Find(ctx, payment.StudentID, payment.CourseID); findErr == nil {
				return existing.ID, nil
			}
			return primitive.NilObjectID, nil
		}
		return primitive.NilObjectID, fmt.Errorf("failed to create enrollment for reference %s: %w", payment.Reference, err)
	}
	return enrollment.ID, nil
}

// alreadySettled builds the no-op result, attaching the existing transaction
// id when it can be found.
func (s *SettlementService) alreadySettled(ctx context.Context, payment *models.Payment) *SettlementResult {
	result := &SettlementResult{Outcome: OutcomeAlreadySettled}
	if existing, err := s.transactions.FindByPaymentID(ctx, payment.ID); err == nil {
		result.TransactionID = existing.ID
	}
	return result
}

// splitRevenue divides the paid amount by the configured ratio. The platform
// share is the remainder after rounding so the two always sum to the amount.
func (s *SettlementService) splitRevenue(amount float64) (instructorShare, platformShare float64) {
	instructorShare = roundToCents(amount * s.instructorRatio)
	platformShare = roundToCents(amount - instructorShare)
	return instructorShare, platformShare
}

func roundToCents(v float64) float64 {
	return math.Round(v*100) / 100
}
