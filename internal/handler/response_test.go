package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sakif/foodgram/internal/apperror"
)

func TestWriteError(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantBody   ErrorResponse
	}{
		{
			name:       "validation with field",
			err:        fmt.Errorf("creating recipe: %w", apperror.ValidationFailed("cooking_time", "must be greater than or equal to 1")),
			wantStatus: http.StatusBadRequest,
			wantBody:   ErrorResponse{Error: "validation_error", Message: "must be greater than or equal to 1", Field: "cooking_time"},
		},
		{
			name:       "validation with several fields",
			err:        apperror.InvalidFields(map[string]string{"name": "this field is required", "tags": "unknown tag ids: 9"}),
			wantStatus: http.StatusBadRequest,
			wantBody: ErrorResponse{
				Error:   "validation_error",
				Message: "request validation failed",
				Fields:  map[string]string{"name": "this field is required", "tags": "unknown tag ids: 9"},
			},
		},
		{
			name:       "unauthorized",
			err:        apperror.Unauthorized("authentication required"),
			wantStatus: http.StatusUnauthorized,
			wantBody:   ErrorResponse{Error: "unauthorized", Message: "authentication required"},
		},
		{
			name:       "forbidden",
			err:        apperror.Forbidden("only the author can change this recipe"),
			wantStatus: http.StatusForbidden,
			wantBody:   ErrorResponse{Error: "forbidden", Message: "only the author can change this recipe"},
		},
		{
			name:       "not found",
			err:        fmt.Errorf("wrapped: %w", apperror.NotFound("recipe", "12")),
			wantStatus: http.StatusNotFound,
			wantBody:   ErrorResponse{Error: "not_found", Message: "recipe not found with id 12"},
		},
		{
			name:       "duplicate",
			err:        apperror.Duplicate("recipe", "recipe is already in favorites"),
			wantStatus: http.StatusConflict,
			wantBody:   ErrorResponse{Error: "conflict", Message: "recipe is already in favorites", Field: "recipe"},
		},
		{
			name:       "plain error is hidden",
			err:        errors.New("sql: database is closed"),
			wantStatus: http.StatusInternalServerError,
			wantBody:   ErrorResponse{Error: "internal_error", Message: "An internal error occurred"},
		},
		{
			name:       "app error without a known kind",
			err:        &apperror.AppError{Err: errors.New("odd"), Message: "secret detail"},
			wantStatus: http.StatusInternalServerError,
			wantBody:   ErrorResponse{Error: "internal_error", Message: "An internal error occurred"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rr := httptest.NewRecorder()
			writeError(rr, tt.err)

			assert.Equal(t, tt.wantStatus, rr.Code)
			assert.Equal(t, "application/json", rr.Header().Get("Content-Type"))

			var got ErrorResponse
			require.NoError(t, json.NewDecoder(rr.Body).Decode(&got))
			assert.Equal(t, tt.wantBody, got)
		})
	}
}
