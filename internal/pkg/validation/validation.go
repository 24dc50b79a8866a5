// Package validation wraps go-playground/validator with the field messages
// shown next to form inputs.
package validation

import (
	"errors"
	"fmt"
	"reflect"
	"sort"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/jonuar/Donacrypto/internal/core/domain"
)

// FieldErrors maps a JSON field name to its message.
type FieldErrors map[string]string

func (fe FieldErrors) Error() string {
	keys := make([]string, 0, len(fe))
	for k := range fe {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	msgs := make([]string, 0, len(keys))
	for _, k := range keys {
		msgs = append(msgs, fe[k])
	}
	return strings.Join(msgs, "; ")
}

// Unwrap lets errors.Is(err, domain.ErrInvalidInput) match.
func (fe FieldErrors) Unwrap() error { return domain.ErrInvalidInput }

// Validator validates request and input structs.
type Validator struct {
	v *validator.Validate
}

// New returns a Validator with the json tag name resolver and the
// "currency" rule registered.
func New() *Validator {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		if name == "" {
			return strings.ToLower(f.Name)
		}
		return name
	})
	_ = v.RegisterValidation("currency", func(fl validator.FieldLevel) bool {
		return domain.IsSupportedCurrency(fl.Field().String())
	})
	return &Validator{v: v}
}

// Struct validates i and returns FieldErrors when any rule fails.
func (val *Validator) Struct(i any) error {
	err := val.v.Struct(i)
	if err == nil {
		return nil
	}
	var ve validator.ValidationErrors
	if !errors.As(err, &ve) {
		return err
	}
	out := make(FieldErrors, len(ve))
	for _, fe := range ve {
		name := fe.Field()
		if _, seen := out[name]; !seen {
			out[name] = fieldError(fe)
		}
	}
	return out
}

// Validate satisfies echo.Validator.
func (val *Validator) Validate(i any) error { return val.Struct(i) }

func fieldError(fe validator.FieldError) string {
	field := fe.Field()
	switch fe.Tag() {
	case "required":
		return field + " is required"
	case "required_without_all":
		return "at least one field must be provided"
	case "email":
		return field + " must be a valid email"
	case "url":
		return field + " must be a valid URL"
	case "min":
		return fmt.Sprintf("%s must be at least %s characters", field, fe.Param())
	case "max":
		return fmt.Sprintf("%s must be at most %s characters", field, fe.Param())
	case "oneof":
		return fmt.Sprintf("%s must be one of: %s", field, fe.Param())
	case "currency":
		return field + " is not a supported currency"
	default:
		return fmt.Sprintf("%s failed validation (%s)", field, fe.Tag())
	}
}
