// Package validation wraps go-playground/validator with the project's rules
// and turns its errors into apperror values keyed by JSON field name.
package validation

import (
	"errors"
	"fmt"
	"reflect"
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/gosimple/slug"

	"github.com/sakif/foodgram/internal/apperror"
)

// usernamePattern allows letters, digits and @ . + - _.
var usernamePattern = regexp.MustCompile(`^[\p{L}\p{N}_.@+-]+$`)

// New returns a validator that reports fields by their json name and knows
// the "username" and "slug" tags.
func New() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())

	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		switch name {
		case "-":
			return ""
		case "":
			return f.Name
		}
		return name
	})

	// Registration only fails for an empty tag or nil func.
	_ = v.RegisterValidation("username", func(fl validator.FieldLevel) bool {
		return usernamePattern.MatchString(fl.Field().String())
	})
	_ = v.RegisterValidation("slug", func(fl validator.FieldLevel) bool {
		return slug.IsSlug(fl.Field().String())
	})

	return v
}

// Struct validates s and returns nil, a single-field ValidationFailed, or
// InvalidFields when several fields failed.
func Struct(v *validator.Validate, s any) error {
	return convert(v.Struct(s), "")
}

// Var validates one value under the given field name.
func Var(v *validator.Validate, field string, value any, tag string) error {
	return convert(v.Var(value, tag), field)
}

func convert(err error, field string) error {
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		// InvalidValidationError: a programming mistake, not bad input.
		return fmt.Errorf("validation: %w", err)
	}

	fields := make(map[string]string, len(verrs))
	for _, fe := range verrs {
		name := fieldName(fe)
		if name == "" {
			name = field
		}
		if _, seen := fields[name]; !seen {
			fields[name] = Message(fe)
		}
	}

	if len(fields) == 1 {
		for name, msg := range fields {
			return apperror.ValidationFailed(name, msg)
		}
	}
	return apperror.InvalidFields(fields)
}

// fieldName drops the root struct from the namespace, keeping nested
// paths such as "ingredients[0].amount".
func fieldName(fe validator.FieldError) string {
	ns := fe.Namespace()
	if _, rest, ok := strings.Cut(ns, "."); ok {
		return rest
	}
	return fe.Field()
}

// Message renders a FieldError as a short human sentence.
func Message(fe validator.FieldError) string {
	unit := ""
	switch fe.Kind() {
	case reflect.String:
		unit = " characters"
	case reflect.Slice, reflect.Array, reflect.Map:
		unit = " items"
	}

	switch fe.Tag() {
	case "required":
		return "this field is required"
	case "email":
		return "enter a valid email address"
	case "max":
		return fmt.Sprintf("must be at most %s%s", fe.Param(), unit)
	case "min":
		return fmt.Sprintf("must be at least %s%s", fe.Param(), unit)
	case "len":
		return fmt.Sprintf("must be exactly %s%s", fe.Param(), unit)
	case "gte":
		return fmt.Sprintf("must be greater than or equal to %s", fe.Param())
	case "lte":
		return fmt.Sprintf("must be less than or equal to %s", fe.Param())
	case "gt":
		return fmt.Sprintf("must be greater than %s", fe.Param())
	case "hexcolor":
		return "must be a hex color such as #E26C2D"
	case "username":
		return "may contain only letters, digits and @/./+/-/_"
	case "slug":
		return "may contain only lowercase latin letters, digits and hyphens"
	}
	return fmt.Sprintf("failed the %q rule", fe.Tag())
}
