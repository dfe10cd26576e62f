package main

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/sakif/foodgram/internal/apperror"
)

// describe flattens an AppError into one line naming the offending fields.
func describe(err error) error {
	var appErr *apperror.AppError
	if !errors.As(err, &appErr) {
		return err
	}
	switch {
	case len(appErr.Fields) > 0:
		keys := make([]string, 0, len(appErr.Fields))
		for k := range appErr.Fields {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		parts := make([]string, len(keys))
		for i, k := range keys {
			parts[i] = k + ": " + appErr.Fields[k]
		}
		return errors.New(strings.Join(parts, "; "))
	case appErr.Field != "":
		return fmt.Errorf("%s: %s", appErr.Field, appErr.Message)
	}
	return errors.New(appErr.Message)
}
