package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Enrollment links a student to a course they paid for. Unique on
// (studentId, courseId) - progress and certificate logic key off one
// enrollment per pair.
type Enrollment struct {
	ID         primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	StudentID  primitive.ObjectID `bson:"studentId" json:"studentId"`
	CourseID   primitive.ObjectID `bson:"courseId" json:"courseId"`
	PaymentID  primitive.ObjectID `bson:"paymentId" json:"paymentId"`
	EnrolledAt time.Time          `bson:"enrolledAt" json:"enrolledAt"`
}
