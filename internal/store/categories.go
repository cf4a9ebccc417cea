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

type Category struct {
	ID            primitive.ObjectID   `bson:"_id,omitempty" json:"id"`
	Name          string               `bson:"name" json:"name"`
	Slug          string               `bson:"slug" json:"slug"`
	CustomID      string               `bson:"custom_id" json:"custom_id"`
	Image         Image                `bson:"image" json:"image"`
	SubCategories []primitive.ObjectID `bson:"sub_categories" json:"sub_categories"`
	CreatedBy     primitive.ObjectID   `bson:"created_by" json:"created_by"`
	CreatedAt     time.Time            `bson:"created_at" json:"created_at"`
	UpdatedAt     time.Time            `bson:"updated_at" json:"updated_at"`
}

// CategoryListSpec drives the list-query composer for this collection.
var CategoryListSpec = CollectionSpec{
	Filterable: map[string]FieldKind{
		"name":      FieldString,
		"slug":      FieldString,
		"custom_id": FieldString,
	},
	Searchable: []string{"name", "slug"},
}

type CategoriesStore struct {
	col *mongo.Collection
}

func (s *CategoriesStore) GetByID(ctx context.Context, id primitive.ObjectID) (*Category, error) {
	var c Category
	err := s.col.FindOne(ctx, bson.M{"_id": id}).Decode(&c)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get category: %w", err)
	}
	return &c, nil
}

func (s *CategoriesStore) FindOne(ctx context.Context, filter bson.M) (*Category, error) {
	var c Category
	err := s.col.FindOne(ctx, filter).Decode(&c)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("find category: %w", err)
	}
	return &c, nil
}

func (s *CategoriesStore) List(ctx context.Context, q *ListQuery) ([]Category, int64, error) {
	filter, opts := q.Plan()

	cursor, err := s.col.Find(ctx, filter, opts)
	if err != nil {
		return nil, 0, fmt.Errorf("list categories: %w", err)
	}
	defer cursor.Close(ctx)

	categories := []Category{}
	if err := cursor.All(ctx, &categories); err != nil {
		return nil, 0, fmt.Errorf("decode categories: %w", err)
	}

	total, err := s.col.CountDocuments(ctx, filter)
	if err != nil {
		return nil, 0, fmt.Errorf("count categories: %w", err)
	}
	return categories, total, nil
}

func (s *CategoriesStore) Insert(ctx context.Context, c *Category) error {
	res, err := s.col.InsertOne(ctx, c)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return ErrConflict
		}
		return fmt.Errorf("insert category: %w", err)
	}
	c.ID = res.InsertedID.(primitive.ObjectID)
	return nil
}

func (s *CategoriesStore) Update(ctx context.Context, id primitive.ObjectID, fields bson.M) error {
	fields["updated_at"] = time.Now().UTC()
	res, err := s.col.UpdateByID(ctx, id, bson.M{"$set": fields})
	if err != nil {
		return fmt.Errorf("update category: %w", err)
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *CategoriesStore) Delete(ctx context.Context, id primitive.ObjectID) (int64, error) {
	res, err := s.col.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return 0, fmt.Errorf("delete category: %w", err)
	}
	return res.DeletedCount, nil
}

func (s *CategoriesStore) PushSubCategory(ctx context.Context, categoryID, subCategoryID primitive.ObjectID) error {
	_, err := s.col.UpdateByID(ctx, categoryID, bson.M{"$push": bson.M{"sub_categories": subCategoryID}})
	if err != nil {
		return fmt.Errorf("push sub-category ref: %w", err)
	}
	return nil
}

func (s *CategoriesStore) PullSubCategory(ctx context.Context, categoryID, subCategoryID primitive.ObjectID) error {
	_, err := s.col.UpdateByID(ctx, categoryID, bson.M{"$pull": bson.M{"sub_categories": subCategoryID}})
	if err != nil {
		return fmt.Errorf("pull sub-category ref: %w", err)
	}
	return nil
}
