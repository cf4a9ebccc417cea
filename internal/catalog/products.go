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

type CreateProductInput struct {
	BrandID     primitive.ObjectID
	Title       string
	Description string
	Specs       map[string]any
	Badge       string
	Price       float64
	Discount    store.Discount
	Stock       int
	Images      []media.File
	Actor       primitive.ObjectID
}

type UpdateProductInput struct {
	Title          *string
	Description    *string
	Specs          map[string]any
	Badge          *string
	Price          *float64
	DiscountAmount *float64
	DiscountType   *string
	Stock          *int
	Rating         *float64
	NewImages      []media.File
	OldPublicIDs   []string
}

// ProductDetail is a product together with its approved reviews.
type ProductDetail struct {
	Product *store.Product `json:"product"`
	Reviews []store.Review `json:"reviews"`
}

func (e *Engine) CreateProduct(ctx context.Context, in CreateProductInput) (*store.Product, error) {
	brand, err := e.store.Brands.GetByID(ctx, in.BrandID)
	if err != nil {
		return nil, asParentNotFound(err, "brand", in.BrandID)
	}
	category, err := e.store.Categories.GetByID(ctx, brand.CategoryID)
	if err != nil {
		return nil, asParentNotFound(err, "category", brand.CategoryID)
	}
	subCategory, err := e.store.SubCategories.GetByID(ctx, brand.SubCategoryID)
	if err != nil {
		return nil, asParentNotFound(err, "sub-category", brand.SubCategoryID)
	}

	imagesCustomID, err := e.ids.New()
	if err != nil {
		return nil, err
	}
	folder, err := e.paths.Product(category.CustomID, subCategory.CustomID, brand.CustomID, imagesCustomID)
	if err != nil {
		return nil, err
	}

	assets, err := e.media.Upload(ctx, in.Images, folder, []string{"productImages"})
	if err != nil {
		return nil, fmt.Errorf("upload product images: %w", err)
	}
	now := time.Now().UTC()
	product := &store.Product{
		Title:           in.Title,
		Slug:            slug.Make(in.Title),
		Description:     in.Description,
		Specs:           in.Specs,
		Badge:           in.Badge,
		Price:           in.Price,
		AppliedDiscount: in.Discount,
		AppliedPrice:    AppliedPrice(in.Price, in.Discount),
		Stock:           in.Stock,
		Images:          store.ProductImages{CustomID: imagesCustomID, URLs: toImages(assets)},
		CategoryID:      category.ID,
		SubCategoryID:   subCategory.ID,
		BrandID:         brand.ID,
		CreatedBy:       in.Actor,
		CreatedAt:       now,
		UpdatedAt:       now,
	}

	err = e.store.Tx.WithTransaction(ctx, func(txCtx context.Context) error {
		if err := e.store.Products.Insert(txCtx, product); err != nil {
			return err
		}
		if err := e.store.Brands.PushProduct(txCtx, brand.ID, product.ID); err != nil {
			return err
		}
		updated, err := e.store.Brands.GetByID(txCtx, brand.ID)
		if err != nil {
			return err
		}
		if !containsID(updated.Products, product.ID) {
			return e.syncFailure("create product", brand.ID, product.ID)
		}
		return nil
	})
	if err != nil {
		e.discardUploads(ctx, folder)
		return nil, err
	}
	return product, nil
}

// UpdateProduct edits a product in place. Parent references are immutable;
// moving a product means delete and recreate. Price and discount changes
// always recompute the applied price, never accept one from the caller.
func (e *Engine) UpdateProduct(ctx context.Context, id primitive.ObjectID, in UpdateProductInput) (*store.Product, error) {
	product, err := e.store.Products.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	fields := bson.M{}
	if in.Title != nil {
		fields["title"] = *in.Title
		fields["slug"] = slug.Make(*in.Title)
	}
	if in.Description != nil {
		fields["description"] = *in.Description
	}
	if in.Specs != nil {
		fields["specs"] = in.Specs
	}
	if in.Badge != nil {
		fields["badge"] = *in.Badge
	}
	if in.Stock != nil {
		fields["stock"] = *in.Stock
	}
	if in.Rating != nil {
		fields["rating"] = *in.Rating
	}
	if in.Price != nil || in.DiscountAmount != nil || in.DiscountType != nil {
		price := product.Price
		if in.Price != nil {
			price = *in.Price
		}
		discount := product.AppliedDiscount
		if in.DiscountAmount != nil {
			discount.Amount = *in.DiscountAmount
		}
		if in.DiscountType != nil {
			discount.Type = *in.DiscountType
		}
		fields["price"] = price
		fields["applied_discount"] = discount
		fields["applied_price"] = AppliedPrice(price, discount)
	}
	if len(in.NewImages) > 0 {
		folder, err := e.productFolder(ctx, product)
		if err != nil {
			return nil, err
		}
		oldIDs := in.OldPublicIDs
		if len(oldIDs) == 0 {
			for _, img := range product.Images.URLs {
				oldIDs = append(oldIDs, img.PublicID)
			}
		}
		assets, err := e.media.Replace(ctx, oldIDs, in.NewImages, folder, []string{"productImages"})
		if err != nil {
			return nil, fmt.Errorf("replace product images: %w", err)
		}
		// The new assets become the whole gallery. A stored image not listed
		// in OldPublicIDs is dropped from the record all the same, though its
		// asset stays in the media store until the product folder is purged.
		fields["images"] = store.ProductImages{CustomID: product.Images.CustomID, URLs: toImages(assets)}
	}
	if len(fields) == 0 {
		return product, nil
	}

	if err := e.store.Products.Update(ctx, id, fields); err != nil {
		return nil, err
	}
	return e.store.Products.GetByID(ctx, id)
}

func (e *Engine) DeleteProduct(ctx context.Context, id primitive.ObjectID) (*store.Product, error) {
	product, err := e.store.Products.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	folder, err := e.productFolder(ctx, product)
	if err != nil {
		return nil, err
	}

	err = e.store.Tx.WithTransaction(ctx, func(txCtx context.Context) error {
		deleted, err := e.store.Products.Delete(txCtx, id)
		if err != nil {
			return err
		}
		if deleted == 0 {
			return store.ErrNotFound
		}
		if _, err := e.store.Reviews.DeleteByProducts(txCtx, []primitive.ObjectID{id}); err != nil {
			return err
		}
		if err := e.store.Brands.PullProduct(txCtx, product.BrandID, id); err != nil {
			return err
		}
		updated, err := e.store.Brands.GetByID(txCtx, product.BrandID)
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				return nil
			}
			return err
		}
		if containsID(updated.Products, id) {
			return e.syncFailure("delete product", product.BrandID, id)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if err := e.purgeMedia(ctx, folder); err != nil {
		return nil, err
	}
	return product, nil
}

// GetProduct returns a product with its approved reviews attached.
func (e *Engine) GetProduct(ctx context.Context, id primitive.ObjectID) (*ProductDetail, error) {
	product, err := e.store.Products.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	reviews, err := e.store.Reviews.ListByProduct(ctx, id, store.ReviewApproved)
	if err != nil {
		return nil, err
	}
	return &ProductDetail{Product: product, Reviews: reviews}, nil
}

func (e *Engine) productFolder(ctx context.Context, product *store.Product) (string, error) {
	category, err := e.store.Categories.GetByID(ctx, product.CategoryID)
	if err != nil {
		return "", asParentNotFound(err, "category", product.CategoryID)
	}
	subCategory, err := e.store.SubCategories.GetByID(ctx, product.SubCategoryID)
	if err != nil {
		return "", asParentNotFound(err, "sub-category", product.SubCategoryID)
	}
	brand, err := e.store.Brands.GetByID(ctx, product.BrandID)
	if err != nil {
		return "", asParentNotFound(err, "brand", product.BrandID)
	}
	return e.paths.Product(category.CustomID, subCategory.CustomID, brand.CustomID, product.Images.CustomID)
}
