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

type SubCategory struct {
	ID         primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Name       string             `bson:"name" json:"name"`
	Slug       string             `bson:"slug" json:"slug"`
	CustomID   string             `bson:"custom_id" json:"custom_id"`
	Image      Image              `bson:"image" json:"image"`
	CategoryID primitive.ObjectID `bson:"category_id" json:"category_id"`
	CreatedBy  primitive.ObjectID `bson:"created_by" json:"created_by"`
	CreatedAt  time.Time          `bson:"created_at" json:"created_at"`
	UpdatedAt  time.Time          `bson:"updated_at" json:"updated_at"`
}

var SubCategoryListSpec = CollectionSpec{
	Filterable: map[string]FieldKind{
		"name":      FieldString,
		"slug":      FieldString,
		"custom_id": FieldString,
	},
	Searchable: []string{"name", "slug"},
}

type SubCategoriesStore struct {
	col *mongo.Collection
}

func (s *SubCategoriesStore) GetByID(ctx context.Context, id primitive.ObjectID) (*SubCategory, error) {
	var sc SubCategory
	err := s.col.FindOne(ctx, bson.M{"_id": id}).Decode(&sc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get sub-category: %w", err)
	}
	return &sc, nil
}

func (s *SubCategoriesStore) FindOne(ctx context.Context, filter bson.M) (*SubCategory, error) {
	var sc SubCategory
	err := s.col.FindOne(ctx, filter).Decode(&sc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("find sub-category: %w", err)
	}
	return &sc, nil
}

func (s *SubCategoriesStore) List(ctx context.Context, q *ListQuery) ([]SubCategory, int64, error) {
	filter, opts := q.Plan()

	cursor, err := s.col.Find(ctx, filter, opts)
	if err != nil {
		return nil, 0, fmt.Errorf("list sub-categories: %w", err)
	}
	defer cursor.Close(ctx)

	subCategories := []SubCategory{}
	if err := cursor.All(ctx, &subCategories); err != nil {
		return nil, 0, fmt.Errorf("decode sub-categories: %w", err)
	}

	total, err := s.col.CountDocuments(ctx, filter)
	if err != nil {
		return nil, 0, fmt.Errorf("count sub-categories: %w", err)
	}
	return subCategories, total, nil
}

func (s *SubCategoriesStore) Insert(ctx context.Context, sc *SubCategory) error {
	res, err := s.col.InsertOne(ctx, sc)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return ErrConflict
		}
		return fmt.Errorf("insert sub-category: %w", err)
	}
	sc.ID = res.InsertedID.(primitive.ObjectID)
	return nil
}

func (s *SubCategoriesStore) Update(ctx context.Context, id primitive.ObjectID, fields bson.M) error {
	fields["updated_at"] = time.Now().UTC()
	res, err := s.col.UpdateByID(ctx, id, bson.M{"$set": fields})
	if err != nil {
		return fmt.Errorf("update sub-category: %w", err)
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *SubCategoriesStore) Delete(ctx context.Context, id primitive.ObjectID) (int64, error) {
	res, err := s.col.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return 0, fmt.Errorf("delete sub-category: %w", err)
	}
	return res.DeletedCount, nil
}

func (s *SubCategoriesStore) DeleteByCategory(ctx context.Context, categoryID primitive.ObjectID) (int64, error) {
	res, err := s.col.DeleteMany(ctx, bson.M{"category_id": categoryID})
	if err != nil {
		return 0, fmt.Errorf("delete sub-categories by category: %w", err)
	}
	return res.DeletedCount, nil
}
