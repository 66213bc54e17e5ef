package controllers

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/labstack/echo/v4"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/learnio/learnio_backend/middleware"
	"github.com/learnio/learnio_backend/models"
	"github.com/learnio/learnio_backend/services"
	"github.com/learnio/learnio_backend/utils"
)

// WithdrawalLister reads an instructor's withdrawal history.
type WithdrawalLister interface {
	ListByInstructor(ctx context.Context, instructorID primitive.ObjectID) ([]models.Withdrawal, error)
}

// WithdrawalController exposes the instructor balance and payout endpoints.
type WithdrawalController struct {
	ledger      *services.LedgerService
	withdrawals *services.WithdrawalService
	history     WithdrawalLister
}

func NewWithdrawalController(ledger *services.LedgerService, withdrawals *services.WithdrawalService, history WithdrawalLister) *WithdrawalController {
	return &WithdrawalController{
		ledger:      ledger,
		withdrawals: withdrawals,
		history:     history,
	}
}

// GetBalance returns the instructor's computed withdrawable balance,
// optionally restricted by from/to date query parameters (YYYY-MM-DD).
func (wc *WithdrawalController) GetBalance(c echo.Context) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	instructorID, err := wc.instructorID(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, models.Response{
			Status:  http.StatusBadRequest,
			Message: "Invalid user ID",
		})
	}

	from, to, err := parseDateRange(c.QueryParam("from"), c.QueryParam("to"))
	if err != nil {
		return c.JSON(http.StatusBadRequest, models.Response{
			Status:  http.StatusBadRequest,
			Message: "Invalid date range, expected YYYY-MM-DD",
		})
	}

	balance, err := wc.ledger.ComputeBalance(ctx, instructorID, from, to)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, models.Response{
			Status:  http.StatusInternalServerError,
			Message: "Failed to compute balance",
		})
	}

	return c.JSON(http.StatusOK, models.Response{
		Status:  http.StatusOK,
		Message: "Balance computed successfully",
		Data: map[string]interface{}{
			"balance": balance,
		},
	})
}

// RequestWithdrawal validates the payout request against the computed
// balance and records it. The admin is notified by email, fire-and-forget.
func (wc *WithdrawalController) RequestWithdrawal(c echo.Context) error {
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Second)
	defer cancel()

	instructorID, err := wc.instructorID(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, models.Response{
			Status:  http.StatusBadRequest,
			Message: "Invalid user ID",
		})
	}

	var req models.RequestWithdrawalRequest
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

	withdrawal, remaining, err := wc.withdrawals.RequestWithdrawal(ctx, instructorID, req.Amount, req.PayoutDetails)
	if err != nil {
		if errors.Is(err, services.ErrInsufficientBalance) {
			return c.JSON(http.StatusBadRequest, models.Response{
				Status:  http.StatusBadRequest,
				Message: "Insufficient balance",
			})
		}
		return c.JSON(http.StatusInternalServerError, models.Response{
			Status:  http.StatusInternalServerError,
			Message: "Failed to process withdrawal request",
		})
	}

	if adminEmail := os.Getenv("ADMIN_EMAIL"); adminEmail != "" {
		go utils.SendWithdrawalRequestEmail(adminEmail, instructorID.Hex(), withdrawal.Reference, req.Amount)
	}

	return c.JSON(http.StatusOK, models.Response{
		Status:  http.StatusOK,
		Message: "Withdrawal request processed",
		Data: map[string]interface{}{
			"withdrawal":       withdrawal,
			"remainingBalance": remaining,
		},
	})
}

// GetWithdrawals returns the instructor's withdrawal history with totals.
func (wc *WithdrawalController) GetWithdrawals(c echo.Context) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	instructorID, err := wc.instructorID(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, models.Response{
			Status:  http.StatusBadRequest,
			Message: "Invalid user ID",
		})
	}

	withdrawals, err := wc.history.ListByInstructor(ctx, instructorID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, models.Response{
			Status:  http.StatusInternalServerError,
			Message: "Failed to list withdrawals",
		})
	}

	totalWithdrawn := 0.0
	totalPending := 0.0
	for _, w := range withdrawals {
		switch w.Status {
		case models.WithdrawalStatusSuccess:
			totalWithdrawn += w.Amount
		case models.WithdrawalStatusPending:
			totalPending += w.Amount
		}
	}

	return c.JSON(http.StatusOK, models.Response{
		Status:  http.StatusOK,
		Message: "Withdrawals retrieved successfully",
		Data: map[string]interface{}{
			"withdrawals":    withdrawals,
			"totalWithdrawn": totalWithdrawn,
			"totalPending":   totalPending,
		},
	})
}

func (wc *WithdrawalController) instructorID(c echo.Context) (primitive.ObjectID, error) {
	claims := middleware.GetUserFromToken(c)
	if claims == nil {
		return primitive.NilObjectID, errors.New("missing claims")
	}
	return primitive.ObjectIDFromHex(claims.UserID)
}

func parseDateRange(fromStr, toStr string) (time.Time, time.Time, error) {
	var from, to time.Time
	var err error
	if fromStr != "" {
		from, err = time.Parse("2006-01-02", fromStr)
		if err != nil {
			return time.Time{}, time.Time{}, err
		}
	}
	if toStr != "" {
		to, err = time.Parse("2006-01-02", toStr)
		if err != nil {
			return time.Time{}, time.Time{}, err
		}
		// Include the whole end day.
		to = to.Add(24*time.Hour - time.Nanosecond)
	}
	return from, to, nil
}
