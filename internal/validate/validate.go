// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

// Package validate provides an accumulating field validator used by the
// packaging toolkit's config-bearing components (segmenter, live pipeline,
// keystore) to turn a batch of structural checks into one
// hlserr.UnsupportedConfiguration error per §7.
package validate

import (
	"fmt"
	"strings"

	"github.com/ManuGH/hlsforge/internal/hlserr"
)

// FieldError is one failed check against a single config field.
type FieldError struct {
	Field   string
	Value   interface{}
	Message string
}

func (e FieldError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// Validator accumulates FieldErrors across a sequence of checks against one
// config value, then folds them into a single hlserr error.
type Validator struct {
	errors []FieldError
}

// New returns an empty Validator.
func New() *Validator {
	return &Validator{}
}

// AddError records a failed check.
func (v *Validator) AddError(field, message string, value interface{}) {
	v.errors = append(v.errors, FieldError{Field: field, Value: value, Message: message})
}

// IsValid reports whether no checks have failed so far.
func (v *Validator) IsValid() bool {
	return len(v.errors) == 0
}

// Errors returns the accumulated field errors.
func (v *Validator) Errors() []FieldError {
	return v.errors
}

// Err folds the accumulated errors into a single
// hlserr.UnsupportedConfiguration error, or nil if none were recorded.
func (v *Validator) Err() error {
	if len(v.errors) == 0 {
		return nil
	}
	msgs := make([]string, len(v.errors))
	for i, e := range v.errors {
		msgs[i] = e.Error()
	}
	return hlserr.UnsupportedConfiguration(strings.Join(msgs, "; "))
}

// Positive records an error if value is not > 0.
func (v *Validator) Positive(field string, value float64) {
	if value <= 0 {
		v.AddError(field, fmt.Sprintf("must be positive, got %v", value), value)
	}
}

// NonNegative records an error if value is < 0.
func (v *Validator) NonNegative(field string, value float64) {
	if value < 0 {
		v.AddError(field, fmt.Sprintf("must not be negative, got %v", value), value)
	}
}

// Range records an error if value falls outside [minVal, maxVal].
func (v *Validator) Range(field string, value, minVal, maxVal float64) {
	if value < minVal || value > maxVal {
		v.AddError(field, fmt.Sprintf("must be between %v and %v, got %v", minVal, maxVal, value), value)
	}
}

// OneOf records an error if value is not a member of allowed.
func (v *Validator) OneOf(field, value string, allowed []string) {
	for _, a := range allowed {
		if value == a {
			return
		}
	}
	v.AddError(field, fmt.Sprintf("must be one of %v, got %q", allowed, value), value)
}

// NotEmpty records an error if value is empty or whitespace-only.
func (v *Validator) NotEmpty(field, value string) {
	if strings.TrimSpace(value) == "" {
		v.AddError(field, "must not be empty", value)
	}
}

// Custom runs an arbitrary check function and records its error, if any.
func (v *Validator) Custom(field string, value interface{}, check func(interface{}) error) {
	if err := check(value); err != nil {
		v.AddError(field, err.Error(), value)
	}
}
