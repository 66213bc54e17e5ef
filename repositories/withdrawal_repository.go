package repositories

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/learnio/learnio_backend/models"
)

type WithdrawalRepository struct {
	collection *mongo.Collection
}

func NewWithdrawalRepository(db *mongo.Database) *WithdrawalRepository {
	return &WithdrawalRepository{collection: db.Collection("withdrawals")}
}

func (r *WithdrawalRepository) Create(ctx context.Context, withdrawal *models.Withdrawal) error {
	_, err := r.collection.InsertOne(ctx, withdrawal)
	if mongo.IsDuplicateKeyError(err) {
		return ErrDuplicate
	}
	return err
}

// SumAmount totals the instructor's withdrawals in the given statuses,
// optionally restricted to a date range. Zero times mean unbounded.
func (r *WithdrawalRepository) SumAmount(ctx context.Context, instructorID primitive.ObjectID, statuses []string, from, to time.Time) (float64, error) {
	match := bson.M{
		"instructorId": instructorID,
		"status":       bson.M{"$in": statuses},
	}
	if dateFilter := rangeFilter(from, to); dateFilter != nil {
		match["createdAt"] = dateFilter
	}

	cursor, err := r.collection.Aggregate(ctx, []bson.M{
		{"$match": match},
		{"$group": bson.M{"_id": nil, "total": bson.M{"$sum": "$amount"}}},
	})
	if err != nil {
		return 0, err
	}
	defer cursor.Close(ctx)

	total := 0.0
	if cursor.Next(ctx) {
		var result struct {
			Total float64 `bson:"total"`
		}
		if err := cursor.Decode(&result); err == nil {
			total = result.Total
		}
	}
	return total, nil
}

func (r *WithdrawalRepository) ListByInstructor(ctx context.Context, instructorID primitive.ObjectID) ([]models.Withdrawal, error) {
	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}})
	cursor, err := r.collection.Find(ctx, bson.M{"instructorId": instructorID}, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	withdrawals := []models.Withdrawal{}
	if err := cursor.All(ctx, &withdrawals); err != nil {
		return nil, err
	}
	return withdrawals, nil
}
