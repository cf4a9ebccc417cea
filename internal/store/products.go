package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const (
	DiscountPercentage = "percentage"
	DiscountFixed      = "fixed"
)

type Discount struct {
	Amount float64 `bson:"amount" json:"amount"`
	Type   string  `bson:"type" json:"type"`
}

// ProductImages groups a product's gallery under the customId that names
// its media folder.
type ProductImages struct {
	CustomID string  `bson:"custom_id" json:"custom_id"`
	URLs     []Image `bson:"urls" json:"urls"`
}

type Product struct {
	ID              primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Title           string             `bson:"title" json:"title"`
	Slug            string             `bson:"slug" json:"slug"`
	Description     string             `bson:"description,omitempty" json:"description,omitempty"`
	Specs           map[string]any     `bson:"specs,omitempty" json:"specs,omitempty"`
	Badge           string             `bson:"badge,omitempty" json:"badge,omitempty"`
	Price           float64            `bson:"price" json:"price"`
	AppliedDiscount Discount           `bson:"applied_discount" json:"applied_discount"`
	AppliedPrice    float64            `bson:"applied_price" json:"applied_price"`
	Stock           int                `bson:"stock" json:"stock"`
	Rating          float64            `bson:"rating" json:"rating"`
	Images          ProductImages      `bson:"images" json:"images"`
	CategoryID      primitive.ObjectID `bson:"category_id" json:"category_id"`
	SubCategoryID   primitive.ObjectID `bson:"sub_category_id" json:"sub_category_id"`
	BrandID         primitive.ObjectID `bson:"brand_id" json:"brand_id"`
	CreatedBy       primitive.ObjectID `bson:"created_by" json:"created_by"`
	CreatedAt       time.Time          `bson:"created_at" json:"created_at"`
	UpdatedAt       time.Time          `bson:"updated_at" json:"updated_at"`
}

var ProductListSpec = CollectionSpec{
	Filterable: map[string]FieldKind{
		"title":         FieldString,
		"slug":          FieldString,
		"badge":         FieldString,
		"price":         FieldNumber,
		"applied_price": FieldNumber,
		"stock":         FieldNumber,
		"rating":        FieldNumber,
	},
	Searchable: []string{"title", "description"},
}

type ProductsStore struct {
	col *mongo.Collection
}

func (s *ProductsStore) GetByID(ctx context.Context, id primitive.ObjectID) (*Product, error) {
	var p Product
	err := s.col.FindOne(ctx, bson.M{"_id": id}).Decode(&p)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get product: %w", err)
	}
	return &p, nil
}

func (s *ProductsStore) List(ctx context.Context, q *ListQuery) ([]Product, int64, error) {
	filter, opts := q.Plan()

	cursor, err := s.col.Find(ctx, filter, opts)
	if err != nil {
		return nil, 0, fmt.Errorf("list products: %w", err)
	}
	defer cursor.Close(ctx)

	products := []Product{}
	if err := cursor.All(ctx, &products); err != nil {
		return nil, 0, fmt.Errorf("decode products: %w", err)
	}

	total, err := s.col.CountDocuments(ctx, filter)
	if err != nil {
		return nil, 0, fmt.Errorf("count products: %w", err)
	}
	return products, total, nil
}

func (s *ProductsStore) Insert(ctx context.Context, p *Product) error {
	res, err := s.col.InsertOne(ctx, p)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return ErrConflict
		}
		return fmt.Errorf("insert product: %w", err)
	}
	p.ID = res.InsertedID.(primitive.ObjectID)
	return nil
}

func (s *ProductsStore) Update(ctx context.Context, id primitive.ObjectID, fields bson.M) error {
	fields["updated_at"] = time.Now().UTC()
	res, err := s.col.UpdateByID(ctx, id, bson.M{"$set": fields})
	if err != nil {
		return fmt.Errorf("update product: %w", err)
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *ProductsStore) Delete(ctx context.Context, id primitive.ObjectID) (int64, error) {
	res, err := s.col.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return 0, fmt.Errorf("delete product: %w", err)
	}
	return res.DeletedCount, nil
}

// IDsBy returns only the _id of every product matching filter. The engine
// uses it to collect review parents before a bulk delete.
func (s *ProductsStore) IDsBy(ctx context.Context, filter bson.M) ([]primitive.ObjectID, error) {
	opts := options.Find().SetProjection(bson.M{"_id": 1})
	cursor, err := s.col.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("product ids: %w", err)
	}
	defer cursor.Close(ctx)

	var docs []struct {
		ID primitive.ObjectID `bson:"_id"`
	}
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("decode product ids: %w", err)
	}
	ids := make([]primitive.ObjectID, 0, len(docs))
	for _, d := range docs {
		ids = append(ids, d.ID)
	}
	return ids, nil
}

func (s *ProductsStore) DeleteBy(ctx context.Context, filter bson.M) (int64, error) {
	res, err := s.col.DeleteMany(ctx, filter)
	if err != nil {
		return 0, fmt.Errorf("delete products: %w", err)
	}
	return res.DeletedCount, nil
}
