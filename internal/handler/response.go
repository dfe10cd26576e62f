package handler

// RESPONSE HELPERS:
// Every JSON body leaves through writeJSON and every failure through
// writeError, so all endpoints share one error shape:
//
//	{"error": "not_found", "message": "recipe not found with id 12"}
//	{"error": "validation_error", "message": "...", "field": "cooking_time"}
//	{"error": "validation_error", "message": "...", "fields": {"name": "...", "tags": "..."}}

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/sakif/foodgram/internal/apperror"
)

// ErrorResponse is the standard error format returned by all API endpoints.
type ErrorResponse struct {
	Error   string            `json:"error"`            // Machine-readable error type (e.g., "not_found")
	Message string            `json:"message"`          // Human-readable description
	Field   string            `json:"field,omitempty"`  // Set when one field caused the error
	Fields  map[string]string `json:"fields,omitempty"` // Set when several fields failed
}

// writeJSON sends a JSON response with the given status code.
// Headers and status must be set before the body is written.
func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data != nil {
		if err := json.NewEncoder(w).Encode(data); err != nil {
			// Headers are already sent; all we can do is log.
			slog.Error("failed to encode JSON response", slog.String("error", err.Error()))
		}
	}
}

// writeError maps a domain error to its HTTP status and sends it.
//
// errors.Is walks the wrap chain, so a service error such as
//
//	fmt.Errorf("adding recipe 3 to favorites: %w", apperror.Duplicate(...))
//
// still matches ErrConflict here.
func writeError(w http.ResponseWriter, err error) {
	var appErr *apperror.AppError
	if errors.As(err, &appErr) {
		status, errorType := classify(err)
		if status != http.StatusInternalServerError {
			writeJSON(w, status, ErrorResponse{
				Error:   errorType,
				Message: appErr.Message,
				Field:   appErr.Field,
				Fields:  appErr.Fields,
			})
			return
		}
	}

	// Unknown error: log it, but never expose SQL, paths or other internals.
	slog.Error("unhandled error", slog.String("error", err.Error()))
	writeJSON(w, http.StatusInternalServerError, ErrorResponse{
		Error:   "internal_error",
		Message: "An internal error occurred",
	})
}

// classify maps an error to its HTTP status and machine-readable code.
//
// WHY HERE AND NOT IN THE SERVICE?
// Services return apperror sentinels and know nothing about HTTP. The admin
// CLI calls the same AccountService and turns the same errors into exit
// messages instead of status codes. Keeping the mapping in this one switch
// means a new sentinel needs one new case and nothing else.
func classify(err error) (int, string) {
	switch {
	case errors.Is(err, apperror.ErrValidation):
		return http.StatusBadRequest, "validation_error"
	case errors.Is(err, apperror.ErrUnauthorized):
		return http.StatusUnauthorized, "unauthorized"
	case errors.Is(err, apperror.ErrForbidden):
		return http.StatusForbidden, "forbidden"
	case errors.Is(err, apperror.ErrNotFound):
		return http.StatusNotFound, "not_found"
	case errors.Is(err, apperror.ErrConflict):
		return http.StatusConflict, "conflict"
	}
	return http.StatusInternalServerError, "internal_error"
}

// NotFound answers unknown routes in the API's error shape.
func NotFound(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusNotFound, ErrorResponse{
		Error:   "not_found",
		Message: "no route for " + r.URL.Path,
	})
}

// MethodNotAllowed answers known routes hit with the wrong method.
func MethodNotAllowed(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusMethodNotAllowed, ErrorResponse{
		Error:   "method_not_allowed",
		Message: r.Method + " is not allowed on " + r.URL.Path,
	})
}
