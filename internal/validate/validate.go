// Package validate checks form input before anything reaches the network.
// Each form function returns nil or an *Errors listing every failing field.
package validate

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
	"unicode/utf8"
)

// ErrInvalid is matched by every *Errors through errors.Is.
var ErrInvalid = errors.New("validation failed")

// emailPattern is deliberately loose: something, @, something, dot, something.
var emailPattern = regexp.MustCompile(`\S+@\S+\.\S+`)

// FieldError is one failed rule.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// Errors is the error returned when at least one rule failed.
type Errors struct {
	list []FieldError
}

func (e *Errors) Error() string {
	parts := make([]string, len(e.list))
	for i, fe := range e.list {
		parts[i] = fe.Field + ": " + fe.Message
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

func (e *Errors) Unwrap() error { return ErrInvalid }

// Fields maps each failing field to its first message.
func (e *Errors) Fields() map[string]string {
	m := make(map[string]string, len(e.list))
	for _, fe := range e.list {
		if _, ok := m[fe.Field]; !ok {
			m[fe.Field] = fe.Message
		}
	}
	return m
}

// List returns the failures in the order they were found.
func (e *Errors) List() []FieldError {
	return append([]FieldError(nil), e.list...)
}

// Validator collects field errors through a chainable API. It is not safe
// for concurrent use.
type Validator struct {
	errs []FieldError
}

// Required fails if the trimmed value is empty.
func (v *Validator) Required(field, value string) *Validator {
	if strings.TrimSpace(value) == "" {
		v.add(field, "this field is required")
	}
	return v
}

// MinLen fails if the character count is below min. Empty values are left
// to Required.
func (v *Validator) MinLen(field, value string, min int) *Validator {
	if value != "" && utf8.RuneCountInString(value) < min {
		v.add(field, fmt.Sprintf("must be at least %d characters", min))
	}
	return v
}

// Email fails for values not shaped like an address. Empty values are left
// to Required.
func (v *Validator) Email(field, value string) *Validator {
	if value != "" && !emailPattern.MatchString(value) {
		v.add(field, "must be a valid email address")
	}
	return v
}

// Equal fails when the confirmation differs from the original value.
func (v *Validator) Equal(field, value, other, message string) *Validator {
	if value != other {
		v.add(field, message)
	}
	return v
}

// OneOf fails if the value is not in the allowed set.
func (v *Validator) OneOf(field, value string, allowed ...string) *Validator {
	for _, a := range allowed {
		if value == a {
			return v
		}
	}
	v.add(field, "must be one of: "+strings.Join(allowed, ", "))
	return v
}

// Positive fails for zero or negative numbers.
func (v *Validator) Positive(field string, value float64) *Validator {
	if value <= 0 {
		v.add(field, "must be greater than 0")
	}
	return v
}

// Custom adds message when failed is true.
func (v *Validator) Custom(field string, failed bool, message string) *Validator {
	if failed {
		v.add(field, message)
	}
	return v
}

// HasError reports whether field already failed a rule.
func (v *Validator) HasError(field string) bool {
	for _, fe := range v.errs {
		if fe.Field == field {
			return true
		}
	}
	return false
}

// Err returns nil when every rule passed.
func (v *Validator) Err() error {
	if len(v.errs) == 0 {
		return nil
	}
	return &Errors{list: v.errs}
}

func (v *Validator) add(field, message string) {
	v.errs = append(v.errs, FieldError{Field: field, Message: message})
}

// FieldErrors extracts the per-field messages from err, or nil when err is
// not a validation error.
func FieldErrors(err error) map[string]string {
	var ve *Errors
	if errors.As(err, &ve) {
		return ve.Fields()
	}
	return nil
}
