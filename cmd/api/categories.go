package main

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/bson"

	"souq/internal/catalog"
	"souq/internal/store"
)

type createCategoryPayload struct {
	Name string `json:"name" validate:"required,min=2,max=100"`
}

type updateCategoryPayload struct {
	Name        *string `json:"name" validate:"omitempty,min=2,max=100"`
	OldPublicID string  `json:"old_public_id"`
}

func (app *application) createCategoryHandler(w http.ResponseWriter, r *http.Request) {
	var payload createCategoryPayload
	headers, err := app.parseMultipartPayload(w, r, "image", &payload)
	if err != nil {
		app.badRequestResponse(w, r, err)
		return
	}
	if len(headers) != 1 {
		app.badRequestResponse(w, r, errors.New("exactly one image is required"))
		return
	}

	files, closeFiles, err := openFiles(headers)
	if err != nil {
		app.badRequestResponse(w, r, err)
		return
	}
	defer closeFiles()

	category, err := app.engine.CreateCategory(r.Context(), catalog.CreateCategoryInput{
		Name:  payload.Name,
		Image: files[0],
		Actor: getActorFromContext(r),
	})
	if err != nil {
		app.catalogError(w, r, err)
		return
	}

	if err := app.jsonResponse(w, http.StatusCreated, category); err != nil {
		app.internalServerError(w, r, err)
	}
}

// getCategoryHandler accepts either an object id or a slug in the URL.
func (app *application) getCategoryHandler(w http.ResponseWriter, r *http.Request) {
	var (
		category *store.Category
		err      error
	)
	if id, idErr := objectIDParam(r, "categoryID"); idErr == nil {
		category, err = app.store.Categories.GetByID(r.Context(), id)
	} else {
		category, err = app.store.Categories.FindOne(r.Context(), bson.M{"slug": chi.URLParam(r, "categoryID")})
	}
	if err != nil {
		app.catalogError(w, r, err)
		return
	}

	if err := app.jsonResponse(w, http.StatusOK, category); err != nil {
		app.internalServerError(w, r, err)
	}
}

func (app *application) listCategoriesHandler(w http.ResponseWriter, r *http.Request) {
	q := store.ParseListQuery(r.URL.Query(), store.CategoryListSpec)

	categories, total, err := app.store.Categories.List(r.Context(), q)
	if err != nil {
		app.internalServerError(w, r, err)
		return
	}

	if err := app.pageResponse(w, http.StatusOK, categories, q, total); err != nil {
		app.internalServerError(w, r, err)
	}
}

func (app *application) updateCategoryHandler(w http.ResponseWriter, r *http.Request) {
	id, err := objectIDParam(r, "categoryID")
	if err != nil {
		app.badRequestResponse(w, r, errors.New("invalid category ID"))
		return
	}

	var payload updateCategoryPayload
	headers, err := app.parseMultipartPayload(w, r, "image", &payload)
	if err != nil {
		app.badRequestResponse(w, r, err)
		return
	}
	if len(headers) > 1 {
		app.badRequestResponse(w, r, errors.New("at most one image is allowed"))
		return
	}

	in := catalog.UpdateCategoryInput{
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

	category, err := app.engine.UpdateCategory(r.Context(), id, in)
	if err != nil {
		app.catalogError(w, r, err)
		return
	}

	if err := app.jsonResponse(w, http.StatusOK, category); err != nil {
		app.internalServerError(w, r, err)
	}
}

func (app *application) deleteCategoryHandler(w http.ResponseWriter, r *http.Request) {
	id, err := objectIDParam(r, "categoryID")
	if err != nil {
		app.badRequestResponse(w, r, errors.New("invalid category ID"))
		return
	}

	category, err := app.engine.DeleteCategory(r.Context(), id)
	if err != nil {
		app.catalogError(w, r, err)
		return
	}

	if err := app.jsonResponse(w, http.StatusOK, category); err != nil {
		app.internalServerError(w, r, err)
	}
}
