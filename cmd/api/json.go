package main

import (
	"encoding/json"
	"net/http"

	"github.com/go-playground/validator/v10"

	"souq/internal/store"
)

var Validate *validator.Validate

func init() {
	Validate = validator.New(validator.WithRequiredStructEnabled())
}

func writeJSON(w http.ResponseWriter, status int, data any) error {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	return json.NewEncoder(w).Encode(data)
}

func readJSON(w http.ResponseWriter, r *http.Request, data any) error {
	maxBytes := 1_048_578 // 1mb
	r.Body = http.MaxBytesReader(w, r.Body, int64(maxBytes))

	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	return decoder.Decode(data)
}

func writeJSONError(w http.ResponseWriter, status int, message string) error {
	type envelope struct {
		Success bool   `json:"success"`
		Message string `json:"message"`
		Status  int    `json:"status"`
	}

	return writeJSON(w, status, &envelope{
		Success: false,
		Message: message,
		Status:  status,
	})
}

func (app *application) jsonResponse(w http.ResponseWriter, status int, data any) error {
	type envelope struct {
		Data any `json:"data"`
	}
	return writeJSON(w, status, &envelope{Data: data})
}

// pageResponse wraps a list payload with the paging metadata clients need to
// walk the collection.
func (app *application) pageResponse(w http.ResponseWriter, status int, data any, q *store.ListQuery, total int64) error {
	type meta struct {
		Page  int64 `json:"page"`
		Limit int64 `json:"limit"`
		Total int64 `json:"total"`
	}
	type envelope struct {
		Data any  `json:"data"`
		Meta meta `json:"meta"`
	}
	return writeJSON(w, status, &envelope{
		Data: data,
		Meta: meta{Page: q.Page(), Limit: q.Limit(), Total: total},
	})
}
