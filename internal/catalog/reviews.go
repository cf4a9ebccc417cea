package catalog

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"souq/internal/store"
)

var (
	// ErrDuplicateReview means the actor already has a review on the product.
	ErrDuplicateReview = errors.New("review already exists for this product")

	// ErrInvalidReviewStatus rejects a moderation target other than
	// approved or rejected.
	ErrInvalidReviewStatus = errors.New("invalid review status")
)

type CreateReviewInput struct {
	ProductID primitive.ObjectID
	Rating    int
	Body      string
	Actor     primitive.ObjectID
}

// CreateReview attaches a pending review to a product. One review per actor
// per product; reviews carry no media and no parent array, so no
// transaction is needed.
func (e *Engine) CreateReview(ctx context.Context, in CreateReviewInput) (*store.Review, error) {
	if _, err := e.store.Products.GetByID(ctx, in.ProductID); err != nil {
		return nil, asParentNotFound(err, "product", in.ProductID)
	}

	_, err := e.store.Reviews.FindOne(ctx, bson.M{
		"product_id": in.ProductID,
		"created_by": in.Actor,
	})
	if err == nil {
		return nil, ErrDuplicateReview
	}
	if !errors.Is(err, store.ErrNotFound) {
		return nil, err
	}

	now := time.Now().UTC()
	review := &store.Review{
		ProductID: in.ProductID,
		Rating:    in.Rating,
		Body:      in.Body,
		Status:    store.ReviewPending,
		CreatedBy: in.Actor,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := e.store.Reviews.Insert(ctx, review); err != nil {
		return nil, err
	}
	return review, nil
}

// ModerateReview moves a review to approved or rejected and, on approval,
// refreshes the product's average rating over its approved reviews.
func (e *Engine) ModerateReview(ctx context.Context, id primitive.ObjectID, status string) (*store.Review, error) {
	if status != store.ReviewApproved && status != store.ReviewRejected {
		return nil, fmt.Errorf("%w: %q", ErrInvalidReviewStatus, status)
	}

	review, err := e.store.Reviews.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := e.store.Reviews.Update(ctx, id, bson.M{"status": status}); err != nil {
		return nil, err
	}
	review.Status = status

	if status == store.ReviewApproved {
		if err := e.refreshRating(ctx, review.ProductID); err != nil {
			e.logger.Errorw("failed to refresh product rating", "product_id", review.ProductID.Hex(), "error", err)
		}
	}
	return review, nil
}

func (e *Engine) DeleteReview(ctx context.Context, id primitive.ObjectID) (*store.Review, error) {
	review, err := e.store.Reviews.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	deleted, err := e.store.Reviews.Delete(ctx, id)
	if err != nil {
		return nil, err
	}
	if deleted == 0 {
		return nil, store.ErrNotFound
	}
	if review.Status == store.ReviewApproved {
		if err := e.refreshRating(ctx, review.ProductID); err != nil {
			e.logger.Errorw("failed to refresh product rating", "product_id", review.ProductID.Hex(), "error", err)
		}
	}
	return review, nil
}

func (e *Engine) refreshRating(ctx context.Context, productID primitive.ObjectID) error {
	approved, err := e.store.Reviews.ListByProduct(ctx, productID, store.ReviewApproved)
	if err != nil {
		return err
	}
	var rating float64
	if len(approved) > 0 {
		var sum int
		for _, rv := range approved {
			sum += rv.Rating
		}
		rating = float64(sum) / float64(len(approved))
	}
	return e.store.Products.Update(ctx, productID, bson.M{"rating": rating})
}
