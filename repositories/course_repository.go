package repositories

import (
	"context"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/learnio/learnio_backend/models"
)

type CourseRepository struct {
	collection *mongo.Collection
}

func NewCourseRepository(db *mongo.Database) *CourseRepository {
	return &CourseRepository{collection: db.Collection("courses")}
}

func (r *CourseRepository) FindByID(ctx context.Context, id primitive.ObjectID) (*models.Course, error) {
	var course models.Course
	err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&course)
	if err == mongo.ErrNoDocuments {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &course, nil
}

// ActiveCourseIDsByInstructor returns the ids of the instructor's currently
// active courses. The balance ledger only counts earnings on these.
func (r *CourseRepository) ActiveCourseIDsByInstructor(ctx context.Context, instructorID primitive.ObjectID) ([]primitive.ObjectID, error) {
	cursor, err := r.collection.Find(ctx, bson.M{
		"instructorId": instructorID,
		"isActive":     true,
	})
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var ids []primitive.ObjectID
	for cursor.Next(ctx) {
		var course struct {
			ID primitive.ObjectID `bson:"_id"`
		}
		if err := cursor.Decode(&course); err != nil {
			return nil, err
		}
		ids = append(ids, course.ID)
	}
	return ids, cursor.Err()
}
