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

type CreateBrandInput struct {
	CategoryID    primitive.ObjectID
	SubCategoryID primitive.ObjectID
	Name          string
	Logo          media.File
	Actor         primitive.ObjectID
}

type UpdateBrandInput struct {
	Name        *string
	NewLogo     *media.File
	OldPublicID string
}

func (e *Engine) CreateBrand(ctx context.Context, in CreateBrandInput) (*store.Brand, error) {
	category, err := e.store.Categories.GetByID(ctx, in.CategoryID)
	if err != nil {
		return nil, asParentNotFound(err, "category", in.CategoryID)
	}
	subCategory, err := e.store.SubCategories.GetByID(ctx, in.SubCategoryID)
	if err != nil {
		return nil, asParentNotFound(err, "sub-category", in.SubCategoryID)
	}
	if subCategory.CategoryID != category.ID {
		return nil, fmt.Errorf("%w: sub-category %s is not under category %s",
			ErrParentNotFound, subCategory.ID.Hex(), category.ID.Hex())
	}

	customID, err := e.ids.New()
	if err != nil {
		return nil, err
	}
	folder, err := e.paths.Brand(category.CustomID, subCategory.CustomID, customID)
	if err != nil {
		return nil, err
	}

	assets, err := e.media.Upload(ctx, []media.File{in.Logo}, folder, []string{"brandLogo"})
	if err != nil {
		return nil, fmt.Errorf("upload brand logo: %w", err)
	}

	now := time.Now().UTC()
	brand := &store.Brand{
		Name:          in.Name,
		Slug:          slug.Make(in.Name),
		CustomID:      customID,
		Logo:          toImage(assets[0]),
		CategoryID:    category.ID,
		SubCategoryID: subCategory.ID,
		Products:      []primitive.ObjectID{},
		CreatedBy:     in.Actor,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if err := e.store.Brands.Insert(ctx, brand); err != nil {
		e.discardUploads(ctx, folder)
		return nil, err
	}
	return brand, nil
}

func (e *Engine) UpdateBrand(ctx context.Context, id primitive.ObjectID, in UpdateBrandInput) (*store.Brand, error) {
	brand, err := e.store.Brands.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	fields := bson.M{}
	if in.Name != nil {
		fields["name"] = *in.Name
		fields["slug"] = slug.Make(*in.Name)
	}
	if in.NewLogo != nil {
		folder, err := e.brandFolder(ctx, brand)
		if err != nil {
			return nil, err
		}
		oldID := in.OldPublicID
		if oldID == "" {
			oldID = brand.Logo.PublicID
		}
		assets, err := e.media.Replace(ctx, []string{oldID}, []media.File{*in.NewLogo}, folder, []string{"brandLogo"})
		if err != nil {
			return nil, fmt.Errorf("replace brand logo: %w", err)
		}
		fields["logo"] = toImage(assets[0])
	}
	if len(fields) == 0 {
		return brand, nil
	}

	if err := e.store.Brands.Update(ctx, id, fields); err != nil {
		return nil, err
	}
	return e.store.Brands.GetByID(ctx, id)
}

func (e *Engine) DeleteBrand(ctx context.Context, id primitive.ObjectID) (*store.Brand, error) {
	brand, err := e.store.Brands.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	folder, err := e.brandFolder(ctx, brand)
	if err != nil {
		return nil, err
	}

	err = e.store.Tx.WithTransaction(ctx, func(txCtx context.Context) error {
		deleted, err := e.store.Brands.Delete(txCtx, id)
		if err != nil {
			return err
		}
		if deleted == 0 {
			return store.ErrNotFound
		}
		return e.cascadeBrand(txCtx, id)
	})
	if err != nil {
		return nil, err
	}

	if err := e.purgeMedia(ctx, folder); err != nil {
		return nil, err
	}
	return brand, nil
}

func (e *Engine) cascadeBrand(ctx context.Context, brandID primitive.ObjectID) error {
	productIDs, err := e.store.Products.IDsBy(ctx, bson.M{"brand_id": brandID})
	if err != nil {
		return err
	}
	deletedProducts, err := e.store.Products.DeleteBy(ctx, bson.M{"brand_id": brandID})
	if err != nil {
		return err
	}
	if deletedProducts == 0 {
		return nil
	}
	_, err = e.store.Reviews.DeleteByProducts(ctx, productIDs)
	return err
}

// brandFolder resolves a brand's media folder through its ancestor chain.
func (e *Engine) brandFolder(ctx context.Context, brand *store.Brand) (string, error) {
	category, err := e.store.Categories.GetByID(ctx, brand.CategoryID)
	if err != nil {
		return "", asParentNotFound(err, "category", brand.CategoryID)
	}
	subCategory, err := e.store.SubCategories.GetByID(ctx, brand.SubCategoryID)
	if err != nil {
		return "", asParentNotFound(err, "sub-category", brand.SubCategoryID)
	}
	return e.paths.Brand(category.CustomID, subCategory.CustomID, brand.CustomID)
}
