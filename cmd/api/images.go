package main

import (
	"encoding/json"
	"fmt"
	"mime/multipart"
	"net/http"

	"souq/internal/media"
)

const maxImagesPerProduct = 7

// parseMultipartPayload reads a multipart form whose "payload" field holds
// the JSON body and whose files live under fileField. The decoded payload is
// validated before any file is touched.
func (app *application) parseMultipartPayload(w http.ResponseWriter, r *http.Request, fileField string, data any) ([]*multipart.FileHeader, error) {
	const maxBytes = 15 * 1024 * 1024
	r.Body = http.MaxBytesReader(w, r.Body, maxBytes)

	if err := r.ParseMultipartForm(maxBytes); err != nil {
		return nil, fmt.Errorf("parse form: %w", err)
	}

	if raw := r.FormValue("payload"); raw != "" {
		if err := json.Unmarshal([]byte(raw), data); err != nil {
			return nil, fmt.Errorf("json unmarshal: %w", err)
		}
	}

	if err := Validate.Struct(data); err != nil {
		return nil, fmt.Errorf("validation failed: %w", err)
	}

	return r.MultipartForm.File[fileField], nil
}

// openFiles opens every uploaded file and hands them over as media files.
// The returned close func must be called once the upload is done.
func openFiles(headers []*multipart.FileHeader) ([]media.File, func(), error) {
	files := make([]media.File, 0, len(headers))
	opened := make([]multipart.File, 0, len(headers))

	closeAll := func() {
		for _, f := range opened {
			f.Close()
		}
	}

	for _, header := range headers {
		f, err := header.Open()
		if err != nil {
			closeAll()
			return nil, nil, fmt.Errorf("open file %q: %w", header.Filename, err)
		}
		opened = append(opened, f)
		files = append(files, media.File{Name: header.Filename, Body: f})
	}
	return files, closeAll, nil
}
