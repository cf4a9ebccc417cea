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

type Brand struct {
	ID            primitive.ObjectID   `bson:"_id,omitempty" json:"id"`
	Name          string               `bson:"name" json:"name"`
	Slug          string               `bson:"slug" json:"slug"`
	CustomID      string               `bson:"custom_id" json:"custom_id"`
	Logo          Image                `bson:"logo" json:"logo"`
	CategoryID    primitive.ObjectID   `bson:"category_id" json:"category_id"`
	SubCategoryID primitive.ObjectID   `bson:"sub_category_id" json:"sub_category_id"`
	Products      []primitive.ObjectID `bson:"products" json:"products"`
	CreatedBy     primitive.ObjectID   `bson:"created_by" json:"created_by"`
	CreatedAt     time.Time            `bson:"created_at" json:"created_at"`
	UpdatedAt     time.Time            `bson:"updated_at" json:"updated_at"`
}

var BrandListSpec = CollectionSpec{
	Filterable: map[string]FieldKind{
		"name":      FieldString,
		"slug":      FieldString,
		"custom_id": FieldString,
	},
	Searchable: []string{"name", "slug"},
}

type BrandsStore struct {
	col *mongo.Collection
}

func (s *BrandsStore) GetByID(ctx context.Context, id primitive.ObjectID) (*Brand, error) {
	var b Brand
	err := s.col.FindOne(ctx, bson.M{"_id": id}).Decode(&b)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get brand: %w", err)
	}
	return &b, nil
}

func (s *BrandsStore) FindOne(ctx context.Context, filter bson.M) (*Brand, error) {
	var b Brand
	err := s.col.FindOne(ctx, filter).Decode(&b)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("find brand: %w", err)
	}
	return &b, nil
}

func (s *BrandsStore) List(ctx context.Context, q *ListQuery) ([]Brand, int64, error) {
	filter, opts := q.Plan()

	cursor, err := s.col.Find(ctx, filter, opts)
	if err != nil {
		return nil, 0, fmt.Errorf("list brands: %w", err)
	}
	defer cursor.Close(ctx)

	brands := []Brand{}
	if err := cursor.All(ctx, &brands); err != nil {
		return nil, 0, fmt.Errorf("decode brands: %w", err)
	}

	total, err := s.col.CountDocuments(ctx, filter)
	if err != nil {
		return nil, 0, fmt.Errorf("count brands: %w", err)
	}
	return brands, total, nil
}

func (s *BrandsStore) Insert(ctx context.Context, b *Brand) error {
	res, err := s.col.InsertOne(ctx, b)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return ErrConflict
		}
		return fmt.Errorf("insert brand: %w", err)
	}
	b.ID = res.InsertedID.(primitive.ObjectID)
	return nil
}

func (s *BrandsStore) Update(ctx context.Context, id primitive.ObjectID, fields bson.M) error {
	fields["updated_at"] = time.Now().UTC()
	res, err := s.col.UpdateByID(ctx, id, bson.M{"$set": fields})
	if err != nil {
		return fmt.Errorf("update brand: %w", err)
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *BrandsStore) Delete(ctx context.Context, id primitive.ObjectID) (int64, error) {
	res, err := s.col.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return 0, fmt.Errorf("delete brand: %w", err)
	}
	return res.DeletedCount, nil
}

func (s *BrandsStore) DeleteByCategory(ctx context.Context, categoryID primitive.ObjectID) (int64, error) {
	res, err := s.col.DeleteMany(ctx, bson.M{"category_id": categoryID})
	if err != nil {
		return 0, fmt.Errorf("delete brands by category: %w", err)
	}
	return res.DeletedCount, nil
}

func (s *BrandsStore) DeleteBySubCategory(ctx context.Context, subCategoryID primitive.ObjectID) (int64, error) {
	res, err := s.col.DeleteMany(ctx, bson.M{"sub_category_id": subCategoryID})
	if err != nil {
		return 0, fmt.Errorf("delete brands by sub-category: %w", err)
	}
	return res.DeletedCount, nil
}

func (s *BrandsStore) PushProduct(ctx context.Context, brandID, productID primitive.ObjectID) error {
	_, err := s.col.UpdateByID(ctx, brandID, bson.M{"$push": bson.M{"products": productID}})
	if err != nil {
		return fmt.Errorf("push product ref: %w", err)
	}
	return nil
}

func (s *BrandsStore) PullProduct(ctx context.Context, brandID, productID primitive.ObjectID) error {
	_, err := s.col.UpdateByID(ctx, brandID, bson.M{"$pull": bson.M{"products": productID}})
	if err != nil {
		return fmt.Errorf("pull product ref: %w", err)
	}
	return nil
}
