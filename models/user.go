package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// User is the slice of the user document this subsystem touches. Account
// creation, OTP and profile management live elsewhere.
//
// WalletBalance is the legacy running accumulator from before the
// transaction ledger existed. The settlement engine still increments it on
// every credit, and the balance ledger falls back to it for instructors with
// no migrated transaction history.
type User struct {
	ID            primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Email         string             `bson:"email" json:"email"`
	FullName      string             `bson:"fullName" json:"fullName"`
	UserType      string             `bson:"userType" json:"userType"` // "student" or "instructor"
	WalletBalance float64            `bson:"walletBalance" json:"walletBalance"`
	IsActive      bool               `bson:"isActive" json:"isActive"`
	CreatedAt     time.Time          `bson:"createdAt" json:"createdAt"`
	UpdatedAt     time.Time          `bson:"updatedAt" json:"updatedAt"`
}

// Response model
type Response struct {
	Status  int         `json:"status"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}
