package repositories

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/learnio/learnio_backend/models"
)

type PaymentRepository struct {
	collection *mongo.Collection
}

func NewPaymentRepository(db *mongo.Database) *PaymentRepository {
	return &PaymentRepository{collection: db.Collection("payments")}
}

func (r *PaymentRepository) Create(ctx context.Context, payment *models.Payment) error {
	_, err := r.collection.InsertOne(ctx, payment)
	if mongo.IsDuplicateKeyError(err) {
		return ErrDuplicate
	}
	return err
}

func (r *PaymentRepository) FindByReference(ctx context.Context, reference string) (*models.Payment, error) {
	var payment models.Payment
	err := r.collection.FindOne(ctx, bson.M{"reference": reference}).Decode(&payment)
	if err == mongo.ErrNoDocuments {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &payment, nil
}

// MarkSuccess transitions a payment to success and attaches the processor
// payload. The filter excludes already-successful payments, so only one
// caller can observe modifiedCount=1 and every later caller sees false. A
// failed payment is still eligible: the processor is authoritative, and a
// late success confirmation overrides an earlier out-of-order failure notice.
func (r *PaymentRepository) MarkSuccess(ctx context.Context, id primitive.ObjectID, payload map[string]interface{}) (bool, error) {
	now := time.Now()
	result, err := r.collection.UpdateOne(ctx,
		bson.M{"_id": id, "status": bson.M{"$ne": models.PaymentStatusSuccess}},
		bson.M{"$set": bson.M{
			"status":           models.PaymentStatusSuccess,
			"processorPayload": payload,
			"verifiedAt":       now,
		}})
	if err != nil {
		return false, err
	}
	return result.ModifiedCount > 0, nil
}

// MarkFailed records a processor-reported failure. Success is terminal, so
// the update only touches pending payments.
func (r *PaymentRepository) MarkFailed(ctx context.Context, reference string) error {
	_, err := r.collection.UpdateOne(ctx,
		bson.M{"reference": reference, "status": models.PaymentStatusPending},
		bson.M{"$set": bson.M{
			"status":     models.PaymentStatusFailed,
			"verifiedAt": time.Now(),
		}})
	return err
}
