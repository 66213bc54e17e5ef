package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/learnio/learnio_backend/models"
	"github.com/learnio/learnio_backend/repositories"
)

// TransactionSummer aggregates instructor earnings over a set of courses.
type TransactionSummer interface {
	SumInstructorShare(ctx context.Context, instructorID primitive.ObjectID, courseIDs []primitive.ObjectID, from, to time.Time) (float64, error)
}

// WithdrawalSummer aggregates withdrawal amounts in the given statuses.
type WithdrawalSummer interface {
	SumAmount(ctx context.Context, instructorID primitive.ObjectID, statuses []string, from, to time.Time) (float64, error)
}

// ActiveCourseLister returns the instructor's currently active course ids.
type ActiveCourseLister interface {
	ActiveCourseIDsByInstructor(ctx context.Context, instructorID primitive.ObjectID) ([]primitive.ObjectID, error)
}

// LegacyBalanceReader reads the pre-migration wallet accumulator.
type LegacyBalanceReader interface {
	GetWalletBalance(ctx context.Context, userID primitive.ObjectID) (float64, error)
}

// LedgerService computes an instructor's withdrawable balance as an
// aggregation, not a stored total:
//
//	sum(instructorShare over active courses) - sum(pending+success withdrawals)
//
// Pending withdrawals are subtracted because they reserve funds until the
// payout clears. The result is clamped at zero.
type LedgerService struct {
	transactions TransactionSummer
	withdrawals  WithdrawalSummer
	courses      ActiveCourseLister
	users        LegacyBalanceReader
}

func NewLedgerService(transactions TransactionSummer, withdrawals WithdrawalSummer, courses ActiveCourseLister, users LegacyBalanceReader) *LedgerService {
	return &LedgerService{
		transactions: transactions,
		withdrawals:  withdrawals,
		courses:      courses,
		users:        users,
	}
}

// ComputeBalance returns the withdrawable balance, optionally restricted to
// a date range. Zero times mean unbounded.
func (s *LedgerService) ComputeBalance(ctx context.Context, instructorID primitive.ObjectID, from, to time.Time) (float64, error) {
	courseIDs, err := s.courses.ActiveCourseIDsByInstructor(ctx, instructorID)
	if err != nil {
		return 0, fmt.Errorf("failed to list active courses for instructor %s: %w", instructorID.Hex(), err)
	}

	earned := 0.0
	if len(courseIDs) > 0 {
		earned, err = s.transactions.SumInstructorShare(ctx, instructorID, courseIDs, from, to)
		if err != nil {
			return 0, fmt.Errorf("failed to aggregate transactions for instructor %s: %w", instructorID.Hex(), err)
		}
	}

	// No migrated transaction history: fall back to the legacy accumulator.
	if earned == 0 {
		legacy, err := s.users.GetWalletBalance(ctx, instructorID)
		if err != nil {
			if !errors.Is(err, repositories.ErrNotFound) {
				return 0, fmt.Errorf("failed to read legacy balance for instructor %s: %w", instructorID.Hex(), err)
			}
		} else if legacy > 0 {
			log.Printf("Using legacy wallet balance %.2f for instructor %s (no transaction history)", legacy, instructorID.Hex())
			earned = legacy
		}
	}

	withdrawn, err := s.withdrawals.SumAmount(ctx, instructorID,
		[]string{models.WithdrawalStatusPending, models.WithdrawalStatusSuccess}, from, to)
	if err != nil {
		return 0, fmt.Errorf("failed to aggregate withdrawals for instructor %s: %w", instructorID.Hex(), err)
	}

	balance := earned - withdrawn
	if balance < 0 {
		return 0, nil
	}
	return balance, nil
}
