package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Withdrawal statuses
const (
	WithdrawalStatusPending = "pending"
	WithdrawalStatusSuccess = "success"
	WithdrawalStatusFailed  = "failed"
)

// PayoutDetails is where the instructor wants the money sent.
type PayoutDetails struct {
	BankName      string `bson:"bankName" json:"bankName" validate:"required"`
	AccountNumber string `bson:"accountNumber" json:"accountNumber" validate:"required"`
	AccountName   string `bson:"accountName" json:"accountName" validate:"required"`
}

// Withdrawal is an instructor payout request. Pending withdrawals reserve
// funds: they are subtracted from the computed balance alongside successful
// ones, so the same money cannot be requested twice while a payout clears.
type Withdrawal struct {
	ID            primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	InstructorID  primitive.ObjectID `bson:"instructorId" json:"instructorId"`
	Amount        float64            `bson:"amount" json:"amount"`
	Status        string             `bson:"status" json:"status"`
	Reference     string             `bson:"reference" json:"reference"`
	PayoutDetails PayoutDetails      `bson:"payoutDetails" json:"payoutDetails"`
	CreatedAt     time.Time          `bson:"createdAt" json:"createdAt"`
	ProcessedAt   *time.Time         `bson:"processedAt,omitempty" json:"processedAt,omitempty"`
}

// RequestWithdrawalRequest is the body for POST /api/withdrawals/request
type RequestWithdrawalRequest struct {
	Amount        float64       `json:"amount" validate:"required,gt=0"`
	PayoutDetails PayoutDetails `json:"payoutDetails" validate:"required"`
}
