package main

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"souq/internal/catalog"
	"souq/internal/store"
)

type createProductPayload struct {
	Title          string         `json:"title" validate:"required,min=2,max=200"`
	Description    string         `json:"description" validate:"omitempty,max=2000"`
	Specs          map[string]any `json:"specs"`
	Badge          string         `json:"badge" validate:"omitempty,max=50"`
	Price          float64        `json:"price" validate:"required,gt=0"`
	DiscountAmount float64        `json:"discount_amount" validate:"omitempty,gte=0"`
	DiscountType   string         `json:"discount_type" validate:"omitempty,oneof=percentage fixed"`
	Stock          int            `json:"stock" validate:"omitempty,gte=0"`
	BrandID        string         `json:"brand_id" validate:"required,len=24,hexadecimal"`
}

type updateProductPayload struct {
	Title          *string        `json:"title" validate:"omitempty,min=2,max=200"`
	Description    *string        `json:"description" validate:"omitempty,max=2000"`
	Specs          map[string]any `json:"specs"`
	Badge          *string        `json:"badge" validate:"omitempty,max=50"`
	Price          *float64       `json:"price" validate:"omitempty,gt=0"`
	DiscountAmount *float64       `json:"discount_amount" validate:"omitempty,gte=0"`
	DiscountType   *string        `json:"discount_type" validate:"omitempty,oneof=percentage fixed"`
	Stock          *int           `json:"stock" validate:"omitempty,gte=0"`
	Rating         *float64       `json:"rating" validate:"omitempty,gte=0,lte=5"`
	OldPublicIDs   []string       `json:"old_public_ids"`
}

func (app *application) createProductHandler(w http.ResponseWriter, r *http.Request) {
	var payload createProductPayload
	headers, err := app.parseMultipartPayload(w, r, "images", &payload)
	if err != nil {
		app.badRequestResponse(w, r, err)
		return
	}
	if len(headers) == 0 {
		app.badRequestResponse(w, r, errors.New("at least one image is required"))
		return
	}
	if len(headers) > maxImagesPerProduct {
		app.badRequestResponse(w, r, errors.New("too many images"))
		return
	}

	brandID, err := primitive.ObjectIDFromHex(payload.BrandID)
	if err != nil {
		app.badRequestResponse(w, r, errors.New("invalid brand ID"))
		return
	}

	files, closeFiles, err := openFiles(headers)
	if err != nil {
		app.badRequestResponse(w, r, err)
		return
	}
	defer closeFiles()

	product, err := app.engine.CreateProduct(r.Context(), catalog.CreateProductInput{
		BrandID:     brandID,
		Title:       payload.Title,
		Description: payload.Description,
		Specs:       payload.Specs,
		Badge:       payload.Badge,
		Price:       payload.Price,
		Discount: store.Discount{
			Amount: payload.DiscountAmount,
			Type:   payload.DiscountType,
		},
		Stock:  payload.Stock,
		Images: files,
		Actor:  getActorFromContext(r),
	})
	if err != nil {
		app.catalogError(w, r, err)
		return
	}

	if err := app.jsonResponse(w, http.StatusCreated, product); err != nil {
		app.internalServerError(w, r, err)
	}
}

// getProductHandler returns the product together with its approved reviews.
func (app *application) getProductHandler(w http.ResponseWriter, r *http.Request) {
	id, err := objectIDParam(r, "productID")
	if err != nil {
		app.badRequestResponse(w, r, errors.New("invalid product ID"))
		return
	}

	detail, err := app.engine.GetProduct(r.Context(), id)
	if err != nil {
		app.catalogError(w, r, err)
		return
	}

	if err := app.jsonResponse(w, http.StatusOK, detail); err != nil {
		app.internalServerError(w, r, err)
	}
}

func (app *application) listProductsHandler(w http.ResponseWriter, r *http.Request) {
	q := store.ParseListQuery(r.URL.Query(), store.ProductListSpec)

	if raw := chi.URLParam(r, "brandID"); raw != "" {
		brandID, err := primitive.ObjectIDFromHex(raw)
		if err != nil {
			app.badRequestResponse(w, r, errors.New("invalid brand ID"))
			return
		}
		q.Scope("brand_id", brandID)
	}

	products, total, err := app.store.Products.List(r.Context(), q)
	if err != nil {
		app.internalServerError(w, r, err)
		return
	}

	if err := app.pageResponse(w, http.StatusOK, products, q, total); err != nil {
		app.internalServerError(w, r, err)
	}
}

func (app *application) updateProductHandler(w http.ResponseWriter, r *http.Request) {
	id, err := objectIDParam(r, "productID")
	if err != nil {
		app.badRequestResponse(w, r, errors.New("invalid product ID"))
		return
	}

	var payload updateProductPayload
	headers, err := app.parseMultipartPayload(w, r, "images", &payload)
	if err != nil {
		app.badRequestResponse(w, r, err)
		return
	}
	if len(headers) > maxImagesPerProduct {
		app.badRequestResponse(w, r, errors.New("too many images"))
		return
	}

	in := catalog.UpdateProductInput{
		Title:          payload.Title,
		Description:    payload.Description,
		Specs:          payload.Specs,
		Badge:          payload.Badge,
		Price:          payload.Price,
		DiscountAmount: payload.DiscountAmount,
		DiscountType:   payload.DiscountType,
		Stock:          payload.Stock,
		Rating:         payload.Rating,
		OldPublicIDs:   payload.OldPublicIDs,
	}
	if len(headers) > 0 {
		files, closeFiles, err := openFiles(headers)
		if err != nil {
			app.badRequestResponse(w, r, err)
			return
		}
		defer closeFiles()
		in.NewImages = files
	}

	product, err := app.engine.UpdateProduct(r.Context(), id, in)
	if err != nil {
		app.catalogError(w, r, err)
		return
	}

	if err := app.jsonResponse(w, http.StatusOK, product); err != nil {
		app.internalServerError(w, r, err)
	}
}

func (app *application) deleteProductHandler(w http.ResponseWriter, r *http.Request) {
	id, err := objectIDParam(r, "productID")
	if err != nil {
		app.badRequestResponse(w, r, errors.New("invalid product ID"))
		return
	}

	product, err := app.engine.DeleteProduct(r.Context(), id)
	if err != nil {
		app.catalogError(w, r, err)
		return
	}

	if err := app.jsonResponse(w, http.StatusOK, product); err != nil {
		app.internalServerError(w, r, err)
	}
}
