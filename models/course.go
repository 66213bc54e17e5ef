package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Course is the slice of the course document this subsystem reads: who gets
// the instructor share and whether the course can still be purchased.
// Course/lesson CRUD lives elsewhere.
type Course struct {
	ID           primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Title        string             `bson:"title" json:"title"`
	InstructorID primitive.ObjectID `bson:"instructorId" json:"instructorId"`
	Price        float64            `bson:"price" json:"price"`
	IsActive     bool               `bson:"isActive" json:"isActive"`
	CreatedAt    time.Time          `bson:"createdAt" json:"createdAt"`
}
