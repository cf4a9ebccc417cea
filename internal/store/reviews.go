package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

const (
	ReviewPending  = "pending"
	ReviewApproved = "approved"
	ReviewRejected = "rejected"
)

type Review struct {
	ID        primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	ProductID primitive.ObjectID `bson:"product_id" json:"product_id"`
	Rating    int                `bson:"rating" json:"rating"`
	Body      string             `bson:"body,omitempty" json:"body,omitempty"`
	Status    string             `bson:"status" json:"status"`
	CreatedBy primitive.ObjectID `bson:"created_by" json:"created_by"`
	CreatedAt time.Time          `bson:"created_at" json:"created_at"`
	UpdatedAt time.Time          `bson:"updated_at" json:"updated_at"`
}

type ReviewsStore struct {
	col *mongo.Collection
}

func (s *ReviewsStore) GetByID(ctx context.Context, id primitive.ObjectID) (*Review, error) {
	var rv Review
	err := s.col.FindOne(ctx, bson.M{"_id": id}).Decode(&rv)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get review: %w", err)
	}
	return &rv, nil
}

func (s *ReviewsStore) FindOne(ctx context.Context, filter bson.M) (*Review, error) {
	var rv Review
	err := s.col.FindOne(ctx, filter).Decode(&rv)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("find review: %w", err)
	}
	return &rv, nil
}

func (s *ReviewsStore) ListByProduct(ctx context.Context, productID primitive.ObjectID, status string) ([]Review, error) {
	filter := bson.M{"product_id": productID}
	if status != "" {
		filter["status"] = status
	}
	cursor, err := s.col.Find(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("list reviews: %w", err)
	}
	defer cursor.Close(ctx)

	reviews := []Review{}
	if err := cursor.All(ctx, &reviews); err != nil {
		return nil, fmt.Errorf("decode reviews: %w", err)
	}
	return reviews, nil
}

func (s *ReviewsStore) Insert(ctx context.Context, rv *Review) error {
	res, err := s.col.InsertOne(ctx, rv)
	if err != nil {
		return fmt.Errorf("insert review: %w", err)
	}
	rv.ID = res.InsertedID.(primitive.ObjectID)
	return nil
}

func (s *ReviewsStore) Update(ctx context.Context, id primitive.ObjectID, fields bson.M) error {
	fields["updated_at"] = time.Now().UTC()
	res, err := s.col.UpdateByID(ctx, id, bson.M{"$set": fields})
	if err != nil {
		return fmt.Errorf("update review: %w", err)
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *ReviewsStore) Delete(ctx context.Context, id primitive.ObjectID) (int64, error) {
	res, err := s.col.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return 0, fmt.Errorf("delete review: %w", err)
	}
	return res.DeletedCount, nil
}

func (s *ReviewsStore) DeleteByProducts(ctx context.Context, productIDs []primitive.ObjectID) (int64, error) {
	if len(productIDs) == 0 {
		return 0, nil
	}
	res, err := s.col.DeleteMany(ctx, bson.M{"product_id": bson.M{"$in": productIDs}})
	if err != nil {
		return 0, fmt.Errorf("delete reviews by products: %w", err)
	}
	return res.DeletedCount, nil
}
