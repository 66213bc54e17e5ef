package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/learnio/learnio_backend/models"
)

// ErrInsufficientBalance means the requested amount exceeds the computed
// withdrawable balance. No withdrawal row is created.
var ErrInsufficientBalance = errors.New("insufficient balance")

// WithdrawalStore persists payout requests.
type WithdrawalStore interface {
	Create(ctx context.Context, withdrawal *models.Withdrawal) error
}

// PayoutGateway starts a transfer and reports the resulting status.
type PayoutGateway interface {
	InitiateTransfer(amount float64, details models.PayoutDetails, reference string) (string, error)
}

// WithdrawalService validates a payout request against the balance ledger
// and records the outcome. Withdrawals are accounting entries: the
// transaction ledger is never rolled back.
type WithdrawalService struct {
	ledger      *LedgerService
	withdrawals WithdrawalStore
	gateway     PayoutGateway
}

func NewWithdrawalService(ledger *LedgerService, withdrawals WithdrawalStore, gateway PayoutGateway) *WithdrawalService {
	return &WithdrawalService{
		ledger:      ledger,
		withdrawals: withdrawals,
		gateway:     gateway,
	}
}

// RequestWithdrawal checks the balance, starts the payout and records the
// withdrawal. Returns the row and the remaining balance after reservation.
func (s *WithdrawalService) RequestWithdrawal(ctx context.Context, instructorID primitive.ObjectID, amount float64, details models.PayoutDetails) (*models.Withdrawal, float64, error) {
	balance, err := s.ledger.ComputeBalance(ctx, instructorID, time.Time{}, time.Time{})
	if err != nil {
		return nil, 0, err
	}

	if amount > balance {
		return nil, balance, fmt.Errorf("%w: requested %.2f, available %.2f", ErrInsufficientBalance, amount, balance)
	}

	reference := NewWithdrawalReference()

	status, err := s.gateway.InitiateTransfer(amount, details, reference)
	if err != nil {
		// The balance check passed; record the failed attempt so operators
		// can see it. A failed withdrawal does not reserve funds.
		log.Printf("Payout failed for withdrawal %s (instructor %s): %v", reference, instructorID.Hex(), err)
		status = models.WithdrawalStatusFailed
	}

	now := time.Now()
	withdrawal := &models.Withdrawal{
		ID:            primitive.NewObjectID(),
		InstructorID:  instructorID,
		Amount:        amount,
		Status:        status,
		Reference:     reference,
		PayoutDetails: details,
		CreatedAt:     now,
	}
	if status != models.WithdrawalStatusPending {
		withdrawal.ProcessedAt = &now
	}

	if err := s.withdrawals.Create(ctx, withdrawal); err != nil {
		return nil, balance, fmt.Errorf("failed to record withdrawal %s: %w", reference, err)
	}

	remaining := balance
	if status != models.WithdrawalStatusFailed {
		remaining = balance - amount
	}

	log.Printf("Withdrawal %s recorded for instructor %s: amount=%.2f status=%s remaining=%.2f",
		reference, instructorID.Hex(), amount, status, remaining)

	return withdrawal, remaining, nil
}
