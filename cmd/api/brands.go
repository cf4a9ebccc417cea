package main

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"souq/internal/catalog"
	"souq/internal/store"
)

type createBrandPayload struct {
	Name          string `json:"name" validate:"required,min=2,max=100"`
	CategoryID    string `json:"category_id" validate:"required,len=24,hexadecimal"`
	SubCategoryID string `json:"sub_category_id" validate:"required,len=24,hexadecimal"`
}

type updateBrandPayload struct {
	Name        *string `json:"name" validate:"omitempty,min=2,max=100"`
	OldPublicID string  `json:"old_public_id"`
}

func (app *application) createBrandHandler(w http.ResponseWriter, r *http.Request) {
	var payload createBrandPayload
	headers, err := app.parseMultipartPayload(w, r, "logo", &payload)
	if err != nil {
		app.badRequestResponse(w, r, err)
		return
	}
	if len(headers) != 1 {
		app.badRequestResponse(w, r, errors.New("exactly one logo is required"))
		return
	}

	categoryID, err := primitive.ObjectIDFromHex(payload.CategoryID)
	if err != nil {
		app.badRequestResponse(w, r, errors.New("invalid category ID"))
		return
	}
	subCategoryID, err := primitive.ObjectIDFromHex(payload.SubCategoryID)
	if err != nil {
		app.badRequestResponse(w, r, errors.New("invalid sub-category ID"))
		return
	}

	files, closeFiles, err := openFiles(headers)
	if err != nil {
		app.badRequestResponse(w, r, err)
		return
	}
	defer closeFiles()

	brand, err := app.engine.CreateBrand(r.Context(), catalog.CreateBrandInput{
		CategoryID:    categoryID,
		SubCategoryID: subCategoryID,
		Name:          payload.Name,
		Logo:          files[0],
		Actor:         getActorFromContext(r),
	})
	if err != nil {
		app.catalogError(w, r, err)
		return
	}

	if err := app.jsonResponse(w, http.StatusCreated, brand); err != nil {
		app.internalServerError(w, r, err)
	}
}

func (app *application) getBrandHandler(w http.ResponseWriter, r *http.Request) {
	var (
		brand *store.Brand
		err   error
	)
	if id, idErr := objectIDParam(r, "brandID"); idErr == nil {
		brand, err = app.store.Brands.GetByID(r.Context(), id)
	} else {
		brand, err = app.store.Brands.FindOne(r.Context(), bson.M{"slug": chi.URLParam(r, "brandID")})
	}
	if err != nil {
		app.catalogError(w, r, err)
		return
	}

	if err := app.jsonResponse(w, http.StatusOK, brand); err != nil {
		app.internalServerError(w, r, err)
	}
}

func (app *application) listBrandsHandler(w http.ResponseWriter, r *http.Request) {
	q := store.ParseListQuery(r.URL.Query(), store.BrandListSpec)

	if raw := chi.URLParam(r, "subCategoryID"); raw != "" {
		subCategoryID, err := primitive.ObjectIDFromHex(raw)
		if err != nil {
			app.badRequestResponse(w, r, errors.New("invalid sub-category ID"))
			return
		}
		q.Scope("sub_category_id", subCategoryID)
	}

	brands, total, err := app.store.Brands.List(r.Context(), q)
	if err != nil {
		app.internalServerError(w, r, err)
		return
	}

	if err := app.pageResponse(w, http.StatusOK, brands, q, total); err != nil {
		app.internalServerError(w, r, err)
	}
}

func (app *application) updateBrandHandler(w http.ResponseWriter, r *http.Request) {
	id, err := objectIDParam(r, "brandID")
	if err != nil {
		app.badRequestResponse(w, r, errors.New("invalid brand ID"))
		return
	}

	var payload updateBrandPayload
	headers, err := app.parseMultipartPayload(w, r, "logo", &payload)
	if err != nil {
		app.badRequestResponse(w, r, err)
		return
	}
	if len(headers) > 1 {
		app.badRequestResponse(w, r, errors.New("at most one logo is allowed"))
		return
	}

	in := catalog.UpdateBrandInput{
		Name:        payload.Name,
		OldPublicID: payload.OldPublicID,
	}
	if len(headers) == 1 {
		files, closeFiles, err := openFiles(headers)
		if err != nil {
			app.badRequestResponse(w, r, err)
			return
		}
		defer closeFiles()
		in.NewLogo = &files[0]
	}

	brand, err := app.engine.UpdateBrand(r.Context(), id, in)
	if err != nil {
		app.catalogError(w, r, err)
		return
	}

	if err := app.jsonResponse(w, http.StatusOK, brand); err != nil {
		app.internalServerError(w, r, err)
	}
}

func (app *application) deleteBrandHandler(w http.ResponseWriter, r *http.Request) {
	id, err := objectIDParam(r, "brandID")
	if err != nil {
		app.badRequestResponse(w, r, errors.New("invalid brand ID"))
		return
	}

	brand, err := app.engine.DeleteBrand(r.Context(), id)
	if err != nil {
		app.catalogError(w, r, err)
		return
	}

	if err := app.jsonResponse(w, http.StatusOK, brand); err != nil {
		app.internalServerError(w, r, err)
	}
}
