package repositories

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/learnio/learnio_backend/models"
)

type TransactionRepository struct {
	collection *mongo.Collection
}

func NewTransactionRepository(db *mongo.Database) *TransactionRepository {
	return &TransactionRepository{collection: db.Collection("transactions")}
}

// Create inserts the revenue-split row. The unique index on paymentId is the
// authoritative duplicate-settlement guard; a racing writer gets ErrDuplicate
// and must treat it as already settled.
func (r *TransactionRepository) Create(ctx context.Context, transaction *models.Transaction) error {
	_, err := r.collection.InsertOne(ctx, transaction)
	if mongo.IsDuplicateKeyError(err) {
		return ErrDuplicate
	}
	return err
}

func (r *TransactionRepository) FindByPaymentID(ctx context.Context, paymentID primitive.ObjectID) (*models.Transaction, error) {
	var transaction models.Transaction
	err := r.collection.FindOne(ctx, bson.M{"paymentId": paymentID}).Decode(&transaction)
	if err == mongo.ErrNoDocuments {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &transaction, nil
}

// SumInstructorShare aggregates the instructor's earnings over the given
// courses, optionally restricted to a date range. Zero times mean unbounded.
func (r *TransactionRepository) SumInstructorShare(ctx context.Context, instructorID primitive.ObjectID, courseIDs []primitive.ObjectID, from, to time.Time) (float64, error) {
	match := bson.M{
		"instructorId": instructorID,
		"courseId":     bson.M{"$in": courseIDs},
	}
	if dateFilter := rangeFilter(from, to); dateFilter != nil {
		match["createdAt"] = dateFilter
	}

	pipeline := []bson.M{
		{"$match": match},
		{"$group": bson.M{"_id": nil, "total": bson.M{"$sum": "$instructorShare"}}},
	}

	cursor, err := r.collection.Aggregate(ctx, pipeline)
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

func rangeFilter(from, to time.Time) bson.M {
	filter := bson.M{}
	if !from.IsZero() {
		filter["$gte"] = from
	}
	if !to.IsZero() {
		filter["$lte"] = to
	}
	if len(filter) == 0 {
		return nil
	}
	return filter
}
