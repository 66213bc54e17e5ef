package repositories

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/learnio/learnio_backend/models"
)

type UserRepository struct {
	collection *mongo.Collection
}

func NewUserRepository(db *mongo.Database) *UserRepository {
	return &UserRepository{collection: db.Collection("users")}
}

func (r *UserRepository) FindByID(ctx context.Context, id primitive.ObjectID) (*models.User, error) {
	var user models.User
	err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&user)
	if err == mongo.ErrNoDocuments {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// CreditWalletBalance increments the legacy running accumulator on the user
// record. $inc keeps concurrent credits from clobbering each other.
func (r *UserRepository) CreditWalletBalance(ctx context.Context, userID primitive.ObjectID, amount float64) error {
	_, err := r.collection.UpdateOne(ctx,
		bson.M{"_id": userID},
		bson.M{
			"$inc": bson.M{"walletBalance": amount},
			"$set": bson.M{"updatedAt": time.Now()},
		})
	return err
}

// GetWalletBalance reads the legacy accumulator. Used by the balance ledger
// as a fallback for instructors with no transaction history.
func (r *UserRepository) GetWalletBalance(ctx context.Context, userID primitive.ObjectID) (float64, error) {
	var user struct {
		WalletBalance float64 `bson:"walletBalance"`
	}
	err := r.collection.FindOne(ctx, bson.M{"_id": userID}).Decode(&user)
	if err == mongo.ErrNoDocuments {
		return 0, ErrNotFound
	}
	if err != nil {
		return 0, err
	}
	return user.WalletBalance, nil
}
