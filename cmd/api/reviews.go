package main

import (
	"errors"
	"fmt"
	"net/http"

	"souq/internal/catalog"
	"souq/internal/store"
)

type createReviewPayload struct {
	Rating int    `json:"rating" validate:"required,min=1,max=5"`
	Body   string `json:"body" validate:"omitempty,max=1000"`
}

type moderateReviewPayload struct {
	Status string `json:"status" validate:"required,oneof=approved rejected"`
}

func (app *application) createReviewHandler(w http.ResponseWriter, r *http.Request) {
	productID, err := objectIDParam(r, "productID")
	if err != nil {
		app.badRequestResponse(w, r, errors.New("invalid product ID"))
		return
	}

	var payload createReviewPayload
	if err := readJSON(w, r, &payload); err != nil {
		app.badRequestResponse(w, r, err)
		return
	}
	if err := Validate.Struct(payload); err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	review, err := app.engine.CreateReview(r.Context(), catalog.CreateReviewInput{
		ProductID: productID,
		Rating:    payload.Rating,
		Body:      payload.Body,
		Actor:     getActorFromContext(r),
	})
	if err != nil {
		app.catalogError(w, r, err)
		return
	}

	if err := app.jsonResponse(w, http.StatusCreated, review); err != nil {
		app.internalServerError(w, r, err)
	}
}

// listReviewsHandler returns a product's reviews, approved ones by default.
// ?status= widens or narrows the view for moderation tooling.
func (app *application) listReviewsHandler(w http.ResponseWriter, r *http.Request) {
	productID, err := objectIDParam(r, "productID")
	if err != nil {
		app.badRequestResponse(w, r, errors.New("invalid product ID"))
		return
	}

	status := r.URL.Query().Get("status")
	if status == "" {
		status = store.ReviewApproved
	} else if status == "all" {
		status = ""
	}

	reviews, err := app.store.Reviews.ListByProduct(r.Context(), productID, status)
	if err != nil {
		app.internalServerError(w, r, err)
		return
	}

	if err := app.jsonResponse(w, http.StatusOK, reviews); err != nil {
		app.internalServerError(w, r, err)
	}
}

func (app *application) moderateReviewHandler(w http.ResponseWriter, r *http.Request) {
	id, err := objectIDParam(r, "reviewID")
	if err != nil {
		app.badRequestResponse(w, r, errors.New("invalid review ID"))
		return
	}

	var payload moderateReviewPayload
	if err := readJSON(w, r, &payload); err != nil {
		app.badRequestResponse(w, r, err)
		return
	}
	if err := Validate.Struct(payload); err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	review, err := app.engine.ModerateReview(r.Context(), id, payload.Status)
	if err != nil {
		app.catalogError(w, r, err)
		return
	}

	app.notifyReviewModerated(review)

	if err := app.jsonResponse(w, http.StatusOK, review); err != nil {
		app.internalServerError(w, r, err)
	}
}

// notifyReviewModerated mails the moderation outcome to the configured
// operations address in the background. Reviews carry no reviewer email, so
// the notice goes to the same inbox as the integrity alerts.
func (app *application) notifyReviewModerated(review *store.Review) {
	to := app.config.mail.alertEmail
	if to == "" {
		return
	}
	subject := fmt.Sprintf("review %s: %s", review.ID.Hex(), review.Status)
	body := fmt.Sprintf("Review %s on product %s is now %s.",
		review.ID.Hex(), review.ProductID.Hex(), review.Status)
	app.background(func() {
		if err := app.mailer.Send(to, subject, body); err != nil {
			app.logger.Errorw("failed to send review moderation notice", "review_id", review.ID.Hex(), "error", err)
		}
	})
}

func (app *application) deleteReviewHandler(w http.ResponseWriter, r *http.Request) {
	id, err := objectIDParam(r, "reviewID")
	if err != nil {
		app.badRequestResponse(w, r, errors.New("invalid review ID"))
		return
	}

	review, err := app.engine.DeleteReview(r.Context(), id)
	if err != nil {
		app.catalogError(w, r, err)
		return
	}

	if err := app.jsonResponse(w, http.StatusOK, review); err != nil {
		app.internalServerError(w, r, err)
	}
}
