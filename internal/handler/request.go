package handler

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/sakif/foodgram/internal/apperror"
	"github.com/sakif/foodgram/internal/auth"
	"github.com/sakif/foodgram/internal/model"
	"github.com/sakif/foodgram/internal/validation"
)

// maxBodyBytes caps JSON request bodies.
const maxBodyBytes = 1 << 20

// decodeBody reads a single JSON value from the request into dst and runs
// the validator's struct rules on it.
func decodeBody(w http.ResponseWriter, r *http.Request, v *validator.Validate, dst any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err := dec.Decode(dst); err != nil {
		var maxErr *http.MaxBytesError
		switch {
		case errors.As(err, &maxErr):
			return apperror.ValidationFailed("", "request body is too large")
		case errors.Is(err, io.EOF):
			return apperror.ValidationFailed("", "request body is empty")
		}
		var typeErr *json.UnmarshalTypeError
		if errors.As(err, &typeErr) && typeErr.Field != "" {
			return apperror.ValidationFailed(typeErr.Field, "has the wrong type")
		}
		return apperror.ValidationFailed("", "request body is not valid JSON")
	}
	if dec.More() {
		return apperror.ValidationFailed("", "request body must hold a single JSON value")
	}
	return validation.Struct(v, dst)
}

// viewer is the authenticated caller, or 0 for an anonymous request.
func viewer(r *http.Request) model.UserID {
	id, _ := auth.UserIDFromContext(r.Context())
	return id
}

// pathID parses a positive integer URL parameter. Anything else cannot
// name a stored row, so it is reported as not found.
func pathID(r *http.Request, name, resource string) (int64, error) {
	raw := chi.URLParam(r, name)
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, apperror.NotFound(resource, strconv.Quote(raw))
	}
	return id, nil
}

// boolParam reads a 0/1 query flag. An absent flag is nil.
func boolParam(r *http.Request, name string) (*bool, error) {
	raw := r.URL.Query().Get(name)
	switch raw {
	case "":
		return nil, nil
	case "1", "true":
		v := true
		return &v, nil
	case "0", "false":
		v := false
		return &v, nil
	}
	return nil, apperror.ValidationFailed(name, "must be 0 or 1")
}

// recipesLimit reads ?recipes_limit. An absent limit is nil (no cap).
func recipesLimit(r *http.Request) (*int, error) {
	raw := r.URL.Query().Get("recipes_limit")
	if raw == "" {
		return nil, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		return nil, apperror.ValidationFailed("recipes_limit", "must be a non-negative integer")
	}
	return &n, nil
}
