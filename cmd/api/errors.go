package main

import (
	"errors"
	"fmt"
	"net/http"

	"souq/internal/catalog"
	"souq/internal/media"
	"souq/internal/store"
)

func (app *application) internalServerError(w http.ResponseWriter, r *http.Request, err error) {
	app.logger.Errorw("internal error", "method", r.Method, "path", r.URL.Path, "error", err.Error())

	writeJSONError(w, http.StatusInternalServerError, "the server encountered a problem")
}

func (app *application) badRequestResponse(w http.ResponseWriter, r *http.Request, err error) {
	app.logger.Warnw("bad request", "method", r.Method, "path", r.URL.Path, "error", err.Error())

	writeJSONError(w, http.StatusBadRequest, err.Error())
}

func (app *application) notFoundResponse(w http.ResponseWriter, r *http.Request, err error) {
	app.logger.Warnw("not found", "method", r.Method, "path", r.URL.Path, "error", err.Error())

	writeJSONError(w, http.StatusNotFound, "not found")
}

func (app *application) conflictResponse(w http.ResponseWriter, r *http.Request, err error) {
	app.logger.Warnw("conflict", "method", r.Method, "path", r.URL.Path, "error", err.Error())

	writeJSONError(w, http.StatusConflict, err.Error())
}

func (app *application) unauthorizedErrorResponse(w http.ResponseWriter, r *http.Request, err error) {
	app.logger.Warnw("unauthorized", "method", r.Method, "path", r.URL.Path, "error", err.Error())

	writeJSONError(w, http.StatusUnauthorized, "unauthorized")
}

func (app *application) unauthorizedBasicErrorResponse(w http.ResponseWriter, r *http.Request, err error) {
	app.logger.Warnw("unauthorized basic error", "method", r.Method, "path", r.URL.Path, "error", err.Error())

	w.Header().Set("WWW-Authenticate", `Basic realm="restricted", charset="UTF-8"`)
	writeJSONError(w, http.StatusUnauthorized, "unauthorized")
}

func (app *application) rateLimitExceededResponse(w http.ResponseWriter, r *http.Request, retryAfter string) {
	app.logger.Warnw("rate limit exceeded", "method", r.Method, "path", r.URL.Path)

	w.Header().Set("Retry-After", retryAfter)
	writeJSONError(w, http.StatusTooManyRequests, "rate limit exceeded, retry after: "+retryAfter)
}

// catalogError maps engine failures onto HTTP responses. A reference-array
// inconsistency additionally pages the operations inbox; it means the data
// needs a repair pass.
func (app *application) catalogError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, store.ErrNotFound):
		app.notFoundResponse(w, r, err)
	case errors.Is(err, catalog.ErrParentNotFound):
		app.notFoundResponse(w, r, err)
	case errors.Is(err, store.ErrConflict), errors.Is(err, catalog.ErrDuplicateReview):
		app.conflictResponse(w, r, err)
	case errors.Is(err, media.ErrStaleReference):
		app.conflictResponse(w, r, err)
	case errors.Is(err, catalog.ErrInvalidReviewStatus):
		app.badRequestResponse(w, r, err)
	case errors.Is(err, catalog.ErrMissingAncestor):
		app.internalServerError(w, r, err)
	case errors.Is(err, catalog.ErrReferenceSync):
		app.alertOps("catalog reference arrays out of sync",
			fmt.Sprintf("operation %s %s reported: %v", r.Method, r.URL.Path, err))
		app.internalServerError(w, r, err)
	default:
		var uploadErr *media.UploadError
		if errors.As(err, &uploadErr) {
			app.badRequestResponse(w, r, err)
			return
		}
		app.internalServerError(w, r, err)
	}
}

// alertOps mails the operations address in the background.
func (app *application) alertOps(subject, body string) {
	if app.config.mail.alertEmail == "" {
		return
	}
	app.background(func() {
		if err := app.mailer.Send(app.config.mail.alertEmail, subject, body); err != nil {
			app.logger.Errorw("failed to send ops alert", "subject", subject, "error", err)
		}
	})
}
