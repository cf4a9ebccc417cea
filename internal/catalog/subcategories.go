package catalog

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/gosimple/slug"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"souq/internal/media"
	"souq/internal/store"
)

type CreateSubCategoryInput struct {
	CategoryID primitive.ObjectID
	Name       string
	Image      media.File
	Actor      primitive.ObjectID
}

type UpdateSubCategoryInput struct {
	Name        *string
	NewImage    *media.File
	OldPublicID string
}

func (e *Engine) CreateSubCategory(ctx context.Context, in CreateSubCategoryInput) (*store.SubCategory, error) {
	parent, err := e.store.Categories.GetByID(ctx, in.CategoryID)
	if err != nil {
		return nil, asParentNotFound(err, "category", in.CategoryID)
	}

	customID, err := e.ids.New()
	if err != nil {
		return nil, err
	}
	folder, err := e.paths.SubCategory(parent.CustomID, customID)
	if err != nil {
		return nil, err
	}

	assets, err := e.media.Upload(ctx, []media.File{in.Image}, folder, []string{"subCategoryImage"})
	if err != nil {
		return nil, fmt.Errorf("upload sub-category image: %w", err)
	}

	now := time.Now().UTC()
	subCategory := &store.SubCategory{
		Name:       in.Name,
		Slug:       slug.Make(in.Name),
		CustomID:   customID,
		Image:      toImage(assets[0]),
		CategoryID: parent.ID,
		CreatedBy:  in.Actor,
		CreatedAt:  now,
		UpdatedAt:  now,
	}

	err = e.store.Tx.WithTransaction(ctx, func(txCtx context.Context) error {
		if err := e.store.SubCategories.Insert(txCtx, subCategory); err != nil {
			return err
		}
		if err := e.store.Categories.PushSubCategory(txCtx, parent.ID, subCategory.ID); err != nil {
			return err
		}
		updated, err := e.store.Categories.GetByID(txCtx, parent.ID)
		if err != nil {
			return err
		}
		if !containsID(updated.SubCategories, subCategory.ID) {
			return e.syncFailure("create sub-category", parent.ID, subCategory.ID)
		}
		return nil
	})
	if err != nil {
		e.discardUploads(ctx, folder)
		return nil, err
	}
	return subCategory, nil
}

func (e *Engine) UpdateSubCategory(ctx context.Context, id primitive.ObjectID, in UpdateSubCategoryInput) (*store.SubCategory, error) {
	subCategory, err := e.store.SubCategories.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	fields := bson.M{}
	if in.Name != nil {
		fields["name"] = *in.Name
		fields["slug"] = slug.Make(*in.Name)
	}
	if in.NewImage != nil {
		parent, err := e.store.Categories.GetByID(ctx, subCategory.CategoryID)
		if err != nil {
			return nil, asParentNotFound(err, "category", subCategory.CategoryID)
		}
		folder, err := e.paths.SubCategory(parent.CustomID, subCategory.CustomID)
		if err != nil {
			return nil, err
		}
		oldID := in.OldPublicID
		if oldID == "" {
			oldID = subCategory.Image.PublicID
		}
		assets, err := e.media.Replace(ctx, []string{oldID}, []media.File{*in.NewImage}, folder, []string{"subCategoryImage"})
		if err != nil {
			return nil, fmt.Errorf("replace sub-category image: %w", err)
		}
		fields["image"] = toImage(assets[0])
	}
	if len(fields) == 0 {
		return subCategory, nil
	}

	if err := e.store.SubCategories.Update(ctx, id, fields); err != nil {
		return nil, err
	}
	return e.store.SubCategories.GetByID(ctx, id)
}

func (e *Engine) DeleteSubCategory(ctx context.Context, id primitive.ObjectID) (*store.SubCategory, error) {
	subCategory, err := e.store.SubCategories.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	parent, err := e.store.Categories.GetByID(ctx, subCategory.CategoryID)
	if err != nil {
		return nil, asParentNotFound(err, "category", subCategory.CategoryID)
	}

	err = e.store.Tx.WithTransaction(ctx, func(txCtx context.Context) error {
		deleted, err := e.store.SubCategories.Delete(txCtx, id)
		if err != nil {
			return err
		}
		if deleted == 0 {
			return store.ErrNotFound
		}
		if err := e.cascadeSubCategory(txCtx, id); err != nil {
			return err
		}
		if err := e.store.Categories.PullSubCategory(txCtx, parent.ID, id); err != nil {
			return err
		}
		updated, err := e.store.Categories.GetByID(txCtx, parent.ID)
		if err != nil {
			// The parent vanishing mid-delete is fine; its own cascade
			// removes this sub-category's reference along with it.
			if errors.Is(err, store.ErrNotFound) {
				return nil
			}
			return err
		}
		if containsID(updated.SubCategories, id) {
			return e.syncFailure("delete sub-category", parent.ID, id)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	folder, err := e.paths.SubCategory(parent.CustomID, subCategory.CustomID)
	if err != nil {
		return nil, err
	}
	if err := e.purgeMedia(ctx, folder); err != nil {
		return nil, err
	}
	return subCategory, nil
}

func (e *Engine) cascadeSubCategory(ctx context.Context, subCategoryID primitive.ObjectID) error {
	deletedBrands, err := e.store.Brands.DeleteBySubCategory(ctx, subCategoryID)
	if err != nil {
		return err
	}
	if deletedBrands == 0 {
		return nil
	}

	productIDs, err := e.store.Products.IDsBy(ctx, bson.M{"sub_category_id": subCategoryID})
	if err != nil {
		return err
	}
	deletedProducts, err := e.store.Products.DeleteBy(ctx, bson.M{"sub_category_id": subCategoryID})
	if err != nil {
		return err
	}
	if deletedProducts == 0 {
		return nil
	}

	_, err = e.store.Reviews.DeleteByProducts(ctx, productIDs)
	return err
}
