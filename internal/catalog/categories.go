package catalog

import (
	"context"
	"fmt"
	"time"

	"github.com/gosimple/slug"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"souq/internal/media"
	"souq/internal/store"
)

type CreateCategoryInput struct {
	Name  string
	Image media.File
	Actor primitive.ObjectID
}

type UpdateCategoryInput struct {
	Name        *string
	NewImage    *media.File
	OldPublicID string
}

func (e *Engine) CreateCategory(ctx context.Context, in CreateCategoryInput) (*store.Category, error) {
	customID, err := e.ids.New()
	if err != nil {
		return nil, err
	}
	folder, err := e.paths.Category(customID)
	if err != nil {
		return nil, err
	}

	assets, err := e.media.Upload(ctx, []media.File{in.Image}, folder, []string{"categoryImage"})
	if err != nil {
		return nil, fmt.Errorf("upload category image: %w", err)
	}

	now := time.Now().UTC()
	category := &store.Category{
		Name:          in.Name,
		Slug:          slug.Make(in.Name),
		CustomID:      customID,
		Image:         toImage(assets[0]),
		SubCategories: []primitive.ObjectID{},
		CreatedBy:     in.Actor,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if err := e.store.Categories.Insert(ctx, category); err != nil {
		e.discardUploads(ctx, folder)
		return nil, err
	}
	return category, nil
}

func (e *Engine) UpdateCategory(ctx context.Context, id primitive.ObjectID, in UpdateCategoryInput) (*store.Category, error) {
	category, err := e.store.Categories.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	fields := bson.M{}
	if in.Name != nil {
		fields["name"] = *in.Name
		fields["slug"] = slug.Make(*in.Name)
	}
	if in.NewImage != nil {
		folder, err := e.paths.Category(category.CustomID)
		if err != nil {
			return nil, err
		}
		oldID := in.OldPublicID
		if oldID == "" {
			oldID = category.Image.PublicID
		}
		assets, err := e.media.Replace(ctx, []string{oldID}, []media.File{*in.NewImage}, folder, []string{"categoryImage"})
		if err != nil {
			return nil, fmt.Errorf("replace category image: %w", err)
		}
		fields["image"] = toImage(assets[0])
	}
	if len(fields) == 0 {
		return category, nil
	}

	if err := e.store.Categories.Update(ctx, id, fields); err != nil {
		return nil, err
	}
	return e.store.Categories.GetByID(ctx, id)
}

// DeleteCategory removes the category and everything beneath it. The record
// cascade commits first; each level short-circuits when it deletes nothing,
// since children cannot exist without their parents. Media for the whole
// subtree goes with a single purge of the category folder.
func (e *Engine) DeleteCategory(ctx context.Context, id primitive.ObjectID) (*store.Category, error) {
	category, err := e.store.Categories.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	err = e.store.Tx.WithTransaction(ctx, func(txCtx context.Context) error {
		deleted, err := e.store.Categories.Delete(txCtx, id)
		if err != nil {
			return err
		}
		if deleted == 0 {
			// A concurrent delete won the race; nothing left to do here.
			return store.ErrNotFound
		}
		return e.cascadeCategory(txCtx, id)
	})
	if err != nil {
		return nil, err
	}

	folder, err := e.paths.Category(category.CustomID)
	if err != nil {
		return nil, err
	}
	if err := e.purgeMedia(ctx, folder); err != nil {
		return nil, err
	}
	return category, nil
}

func (e *Engine) cascadeCategory(ctx context.Context, categoryID primitive.ObjectID) error {
	deletedSubs, err := e.store.SubCategories.DeleteByCategory(ctx, categoryID)
	if err != nil {
		return err
	}
	if deletedSubs == 0 {
		return nil
	}

	deletedBrands, err := e.store.Brands.DeleteByCategory(ctx, categoryID)
	if err != nil {
		return err
	}
	if deletedBrands == 0 {
		return nil
	}

	productIDs, err := e.store.Products.IDsBy(ctx, bson.M{"category_id": categoryID})
	if err != nil {
		return err
	}
	deletedProducts, err := e.store.Products.DeleteBy(ctx, bson.M{"category_id": categoryID})
	if err != nil {
		return err
	}
	if deletedProducts == 0 {
		return nil
	}

	_, err = e.store.Reviews.DeleteByProducts(ctx, productIDs)
	return err
}
