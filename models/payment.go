package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Payment statuses
const (
	PaymentStatusPending = "pending"
	PaymentStatusSuccess = "success"
	PaymentStatusFailed  = "failed"
)

// Payment is one checkout attempt. The reference is the idempotency key that
// correlates the attempt across the gateway, the webhook and the verify
// poll. A payment is never deleted; it only moves pending -> success or
// pending -> failed.
type Payment struct {
	ID               primitive.ObjectID     `bson:"_id,omitempty" json:"id"`
	StudentID        primitive.ObjectID     `bson:"studentId" json:"studentId"`
	CourseID         primitive.ObjectID     `bson:"courseId" json:"courseId"`
	Amount           float64                `bson:"amount" json:"amount"`
	Email            string                 `bson:"email" json:"email"`
	Reference        string                 `bson:"reference" json:"reference"`
	Status           string                 `bson:"status" json:"status"`
	ProcessorPayload map[string]interface{} `bson:"processorPayload,omitempty" json:"processorPayload,omitempty"`
	CreatedAt        time.Time              `bson:"createdAt" json:"createdAt"`
	VerifiedAt       *time.Time             `bson:"verifiedAt,omitempty" json:"verifiedAt,omitempty"`
}

// InitiatePaymentRequest is the body for POST /api/payment/initiate
type InitiatePaymentRequest struct {
	Amount   float64 `json:"amount" validate:"required,gt=0"`
	Email    string  `json:"email" validate:"required,email"`
	FullName string  `json:"fullName" validate:"required"`
	CourseID string  `json:"courseId" validate:"required"`
}
