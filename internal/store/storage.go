package store

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

var (
	ErrNotFound          = errors.New("resource not found")
	ErrConflict          = errors.New("resource already exists")
	QueryTimeoutDuration = time.Second * 5
)

// Image is an externally hosted asset reference as stored on a record.
type Image struct {
	URL      string `bson:"url" json:"url"`
	PublicID string `bson:"public_id" json:"public_id"`
}

type Storage struct {
	Categories interface {
		GetByID(context.Context, primitive.ObjectID) (*Category, error)
		FindOne(context.Context, bson.M) (*Category, error)
		List(context.Context, *ListQuery) ([]Category, int64, error)
		Insert(context.Context, *Category) error
		Update(context.Context, primitive.ObjectID, bson.M) error
		Delete(context.Context, primitive.ObjectID) (int64, error)
		PushSubCategory(ctx context.Context, categoryID, subCategoryID primitive.ObjectID) error
		PullSubCategory(ctx context.Context, categoryID, subCategoryID primitive.ObjectID) error
	}
	SubCategories interface {
		GetByID(context.Context, primitive.ObjectID) (*SubCategory, error)
		FindOne(context.Context, bson.M) (*SubCategory, error)
		List(context.Context, *ListQuery) ([]SubCategory, int64, error)
		Insert(context.Context, *SubCategory) error
		Update(context.Context, primitive.ObjectID, bson.M) error
		Delete(context.Context, primitive.ObjectID) (int64, error)
		DeleteByCategory(context.Context, primitive.ObjectID) (int64, error)
	}
	Brands interface {
		GetByID(context.Context, primitive.ObjectID) (*Brand, error)
		FindOne(context.Context, bson.M) (*Brand, error)
		List(context.Context, *ListQuery) ([]Brand, int64, error)
		Insert(context.Context, *Brand) error
		Update(context.Context, primitive.ObjectID, bson.M) error
		Delete(context.Context, primitive.ObjectID) (int64, error)
		DeleteByCategory(context.Context, primitive.ObjectID) (int64, error)
		DeleteBySubCategory(context.Context, primitive.ObjectID) (int64, error)
		PushProduct(ctx context.Context, brandID, productID primitive.ObjectID) error
		PullProduct(ctx context.Context, brandID, productID primitive.ObjectID) error
	}
	Products interface {
		GetByID(context.Context, primitive.ObjectID) (*Product, error)
		List(context.Context, *ListQuery) ([]Product, int64, error)
		Insert(context.Context, *Product) error
		Update(context.Context, primitive.ObjectID, bson.M) error
		Delete(context.Context, primitive.ObjectID) (int64, error)
		IDsBy(context.Context, bson.M) ([]primitive.ObjectID, error)
		DeleteBy(context.Context, bson.M) (int64, error)
	}
	Reviews interface {
		GetByID(context.Context, primitive.ObjectID) (*Review, error)
		FindOne(context.Context, bson.M) (*Review, error)
		ListByProduct(ctx context.Context, productID primitive.ObjectID, status string) ([]Review, error)
		Insert(context.Context, *Review) error
		Update(context.Context, primitive.ObjectID, bson.M) error
		Delete(context.Context, primitive.ObjectID) (int64, error)
		DeleteByProducts(context.Context, []primitive.ObjectID) (int64, error)
	}
	// Tx runs fn inside a single multi-document transaction. Store calls
	// made with the ctx handed to fn join that transaction.
	Tx interface {
		WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error
	}
}

func NewStorage(client *mongo.Client, db *mongo.Database) Storage {
	return Storage{
		Categories:    &CategoriesStore{db.Collection("categories")},
		SubCategories: &SubCategoriesStore{db.Collection("subcategories")},
		Brands:        &BrandsStore{db.Collection("brands")},
		Products:      &ProductsStore{db.Collection("products")},
		Reviews:       &ReviewsStore{db.Collection("reviews")},
		Tx:            &TxRunner{client},
	}
}

type TxRunner struct {
	client *mongo.Client
}

func (t *TxRunner) WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	session, err := t.client.StartSession()
	if err != nil {
		return err
	}
	defer session.EndSession(ctx)

	_, err = session.WithTransaction(ctx, func(sc mongo.SessionContext) (any, error) {
		return nil, fn(sc)
	})
	return err
}
