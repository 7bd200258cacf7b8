// Package form validates user input before any request is made. Failures
// are ValidationErrors carrying an i18n message key so the shell can show
// them in the selected language.
package form

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"unicode/utf8"

	"github.com/EClaesson/go-luhn"
	"github.com/go-playground/validator/v10"
)

// ValidationError is a rejected field. Key is an i18n message key and Args
// its format arguments.
type ValidationError struct {
	Field string
	Key   string
	Args  []interface{}
}

// Error implements the error interface
func (e *ValidationError) Error() string {
	if len(e.Args) > 0 {
		return fmt.Sprintf("%s: %s %v", e.Field, e.Key, e.Args)
	}
	return e.Field + ": " + e.Key
}

// Translator renders message keys; *i18n.Locale satisfies it
type Translator interface {
	T(key string, args ...interface{}) string
}

// Message renders the error for display
func (e *ValidationError) Message(t Translator) string {
	return t.T(e.Key, e.Args...)
}

// Invalid builds a ValidationError
func Invalid(field, key string, args ...interface{}) *ValidationError {
	return &ValidationError{Field: field, Key: key, Args: args}
}

// AsValidation unwraps a *ValidationError from err
func AsValidation(err error) (*ValidationError, bool) {
	var v *ValidationError
	if errors.As(err, &v) {
		return v, true
	}
	return nil, false
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())

	// Use JSON tag names for field names in errors
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	_ = v.RegisterValidation("card", func(fl validator.FieldLevel) bool {
		return ValidCard(fl.Field().String())
	})
	return v
}

// ValidCard reports a 16-digit card number passing the Luhn check.
// Spaces and dashes are ignored.
func ValidCard(number string) bool {
	digits := strings.NewReplacer(" ", "", "-", "").Replace(number)
	if len(digits) != 16 {
		return false
	}
	ok, err := luhn.IsValid(digits)
	return err == nil && ok
}

// Struct validates s using its `validate` tags and returns the first failure
// as a *ValidationError. Messages come from keys["field.tag"], then
// keys["field"], then a generic key per tag.
func Struct(s interface{}, keys map[string]string) error {
	err := validate.Struct(s)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return err
	}
	fe := verrs[0]
	return Invalid(fe.Field(), messageKey(fe, keys), messageArgs(fe)...)
}

func messageKey(fe validator.FieldError, keys map[string]string) string {
	if k, ok := keys[fe.Field()+"."+fe.Tag()]; ok {
		return k
	}
	if k, ok := keys[fe.Field()]; ok {
		return k
	}
	switch fe.Tag() {
	case "required":
		return "validation.required"
	case "oneof":
		return "validation.oneof"
	case "card":
		return "validation.card_invalid"
	case "min":
		if fe.Kind() == reflect.String {
			return "validation.reason_too_short"
		}
	case "max":
		if fe.Kind() == reflect.String {
			return "validation.reason_too_long"
		}
	}
	return "validation.invalid"
}

func messageArgs(fe validator.FieldError) []interface{} {
	switch fe.Tag() {
	case "min", "max":
		var n int
		if _, err := fmt.Sscanf(fe.Param(), "%d", &n); err == nil {
			return []interface{}{n}
		}
	case "oneof":
		return []interface{}{fe.Param()}
	}
	return nil
}

// Reason checks a free-text reason's length in characters. minLen <= 0
// makes it optional, maxLen <= 0 removes the upper bound.
func Reason(field, reason string, minLen, maxLen int) error {
	n := utf8.RuneCountInString(strings.TrimSpace(reason))
	if minLen > 0 && n == 0 {
		return Invalid(field, "validation.reason_required", minLen)
	}
	if minLen > 0 && n < minLen {
		return Invalid(field, "validation.reason_too_short", minLen)
	}
	if maxLen > 0 && n > maxLen {
		return Invalid(field, "validation.reason_too_long", maxLen)
	}
	return nil
}
