// Package service holds the business rules between the HTTP handlers and
// the repositories.
//
//	Handler (HTTP)  → parses requests, writes responses
//	Service         → validates, checks ownership, builds per-viewer views
//	Repository      → reads and writes the store
//
// Services take repository interfaces, never *sqlite.DB, so tests can
// inject in-memory fakes. They return apperror values and know nothing
// about status codes.
//
// A viewer of 0 is an anonymous caller: every per-viewer flag is false for
// them.
package service

import (
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"unicode/utf8"

	"github.com/sakif/foodgram/internal/apperror"
)

// Field limits shared by several services.
const (
	MaxNameLength     = 200
	MaxUnitLength     = 10
	MaxSlugLength     = 50
	MaxUsernameLength = 150
	MaxEmailLength    = 254
)

// fieldErrors collects per-field messages; the first message per field wins.
type fieldErrors map[string]string

func (f fieldErrors) add(field, msg string) {
	if _, ok := f[field]; !ok {
		f[field] = msg
	}
}

// err returns nil, a single-field error, or InvalidFields.
func (f fieldErrors) err() error {
	switch len(f) {
	case 0:
		return nil
	case 1:
		for field, msg := range f {
			return apperror.ValidationFailed(field, msg)
		}
	}
	return apperror.InvalidFields(f)
}

// requireText trims s and checks it is non-empty and at most max runes
// (max <= 0 disables the length check).
func requireText(errs fieldErrors, field, s string, max int) string {
	s = strings.TrimSpace(s)
	switch {
	case s == "":
		errs.add(field, "this field is required")
	case max > 0 && utf8.RuneCountInString(s) > max:
		errs.add(field, fmt.Sprintf("must be at most %d characters", max))
	}
	return s
}

// joinIDs renders ids as "3, 7, 12" in ascending order.
func joinIDs[T ~int64](ids []T) string {
	sorted := append([]T(nil), ids...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i] < sorted[j] })
	parts := make([]string, len(sorted))
	for i, id := range sorted {
		parts[i] = fmt.Sprint(int64(id))
	}
	return strings.Join(parts, ", ")
}

// logFailure logs store failures at Error. Expected outcomes (not found,
// validation, conflict, forbidden) are the caller's business and are not
// logged.
func logFailure(logger *slog.Logger, msg string, err error, attrs ...any) {
	var appErr *apperror.AppError
	if errors.As(err, &appErr) {
		return
	}
	logger.Error(msg, append(attrs, slog.String("error", err.Error()))...)
}
