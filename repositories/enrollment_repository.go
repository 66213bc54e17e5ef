package repositories

import (
	"context"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/learnio/learnio_backend/models"
)

type EnrollmentRepository struct {
	collection *mongo.Collection
}

func NewEnrollmentRepository(db *mongo.Database) *EnrollmentRepository {
	return &EnrollmentRepository{collection: db.Collection("enrollments")}
}

func (r *EnrollmentRepository) Find(ctx context.Context, studentID, courseID primitive.ObjectID) (*models.Enrollment, error) {
	var enrollment models.Enrollment
	err := r.collection.FindOne(ctx, bson.M{
		"studentId": studentID,
		"courseId":  courseID,
	}).Decode(&enrollment)
	if err == mongo.ErrNoDocuments {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &enrollment, nil
}

// Create inserts the enrollment. The compound unique index on
// (studentId, courseId) backs up the existence check in the settlement
// engine; a duplicate insert comes back as ErrDuplicate.
func (r *EnrollmentRepository) Create(ctx context.Context, enrollment *models.Enrollment) error {
	_, err := r.collection.InsertOne(ctx, enrollment)
	if mongo.IsDuplicateKeyError(err) {
		return ErrDuplicate
	}
	return err
}
