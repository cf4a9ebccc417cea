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

type createSubCategoryPayload struct {
	Name       string `json:"name" validate:"required,min=2,max=100"`
	CategoryID string `json:"category_id" validate:"required,len=24,hexadecimal"`
}

type updateSubCategoryPayload struct {
	Name        *string `json:"name" validate:"omitempty,min=2,max=100"`
	OldPublicID string  `json:"old_public_id"`
}

func (app *application) createSubCategoryHandler(w http.ResponseWriter, r *http.Request) {
	var payload createSubCategoryPayload
	headers, err := app.parseMultipartPayload(w, r, "image", &payload)
	if err != nil {
		app.badRequestResponse(w, r, err)
		return
	}
	if len(headers) != 1 {
		app.badRequestResponse(w, r, errors.New("exactly one image is required"))
		return
	}

	categoryID, err := primitive.ObjectIDFromHex(payload.CategoryID)
	if err != nil {
		app.badRequestResponse(w, r, errors.New("invalid category ID"))
		return
	}

	files, closeFiles, err := openFiles(headers)
	if err != nil {
		app.badRequestResponse(w, r, err)
		return
	}
	defer closeFiles()

	subCategory, err := app.engine.CreateSubCategory(r.Context(), catalog.CreateSubCategoryInput{
		CategoryID: categoryID,
		Name:       payload.Name,
		Image:      files[0],
		Actor:      getActorFromContext(r),
	})
	if err != nil {
		app.catalogError(w, r, err)
		return
	}

	if err := app.jsonResponse(w, http.StatusCreated, subCategory); err != nil {
		app.internalServerError(w, r, err)
	}
}

func (app *application) getSubCategoryHandler(w http.ResponseWriter, r *http.Request) {
	var (
		subCategory *store.SubCategory
		err         error
	)
	if id, idErr := objectIDParam(r, "subCategoryID"); idErr == nil {
		subCategory, err = app.store.SubCategories.GetByID(r.Context(), id)
	} else {
		subCategory, err = app.store.SubCategories.FindOne(r.Context(), bson.M{"slug": chi.URLParam(r, "subCategoryID")})
	}
	if err != nil {
		app.catalogError(w, r, err)
		return
	}

	if err := app.jsonResponse(w, http.StatusOK, subCategory); err != nil {
		app.internalServerError(w, r, err)
	}
}

// listSubCategoriesHandler serves both the flat listing and the listing
// scoped to one category, depending on which route it was mounted under.
func (app *application) listSubCategoriesHandler(w http.ResponseWriter, r *http.Request) {
	q := store.ParseListQuery(r.URL.Query(), store.SubCategoryListSpec)

	if raw := chi.URLParam(r, "categoryID"); raw != "" {
		categoryID, err := primitive.ObjectIDFromHex(raw)
		if err != nil {
			app.badRequestResponse(w, r, errors.New("invalid category ID"))
			return
		}
		q.Scope("category_id", categoryID)
	}

	subCategories, total, err := app.store.SubCategories.List(r.Context(), q)
	if err != nil {
		app.internalServerError(w, r, err)
		return
	}

	if err := app.pageResponse(w, http.StatusOK, subCategories, q, total); err != nil {
		app.internalServerError(w, r, err)
	}
}

func (app *application) updateSubCategoryHandler(w http.ResponseWriter, r *http.Request) {
	id, err := objectIDParam(r, "subCategoryID")
	if err != nil {
		app.badRequestResponse(w, r, errors.New("invalid sub-category ID"))
		return
	}

	var payload updateSubCategoryPayload
	headers, err := app.parseMultipartPayload(w, r, "image", &payload)
	if err != nil {
		app.badRequestResponse(w, r, err)
		return
	}
	if len(headers) > 1 {
		app.badRequestResponse(w, r, errors.New("at most one image is allowed"))
		return
	}

	in := catalog.UpdateSubCategoryInput{
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
		in.NewImage = &files[0]
	}

	subCategory, err := app.engine.UpdateSubCategory(r.Context(), id, in)
	if err != nil {
		app.catalogError(w, r, err)
		return
	}

	if err := app.jsonResponse(w, http.StatusOK, subCategory); err != nil {
		app.internalServerError(w, r, err)
	}
}

func (app *application) deleteSubCategoryHandler(w http.ResponseWriter, r *http.Request) {
	id, err := objectIDParam(r, "subCategoryID")
	if err != nil {
		app.badRequestResponse(w, r, errors.New("invalid sub-category ID"))
		return
	}

	subCategory, err := app.engine.DeleteSubCategory(r.Context(), id)
	if err != nil {
		app.catalogError(w, r, err)
		return
	}

	if err := app.jsonResponse(w, http.StatusOK, subCategory); err != nil {
		app.internalServerError(w, r, err)
	}
}
