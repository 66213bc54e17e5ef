package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Transaction is the revenue split for one successful payment. Exactly one
// transaction exists per settled payment; the unique index on paymentId is
// what enforces that, not application code. Immutable once created.
type Transaction struct {
	ID              primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	PaymentID       primitive.ObjectID `bson:"paymentId" json:"paymentId"`
	StudentID       primitive.ObjectID `bson:"studentId" json:"studentId"`
	InstructorID    primitive.ObjectID `bson:"instructorId" json:"instructorId"`
	CourseID        primitive.ObjectID `bson:"courseId" json:"courseId"`
	AmountPaid      float64            `bson:"amountPaid" json:"amountPaid"`
	InstructorShare float64            `bson:"instructorShare" json:"instructorShare"`
	PlatformShare   float64            `bson:"platformShare" json:"platformShare"`
	Status          string             `bson:"status" json:"status"`
	CreatedAt       time.Time          `bson:"createdAt" json:"createdAt"`
}
