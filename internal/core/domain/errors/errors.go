package errors

import (
	goerrors "errors"
	"fmt"
	"sort"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation"
)

// ErrStoreUnavailable marks infrastructure failures of the user record store.
// Repositories join it with the driver error, so callers can match either.
var ErrStoreUnavailable = goerrors.New("store unavailable")

func NewStoreUnavailableError(err error) error {
	return fmt.Errorf("%w: %w", ErrStoreUnavailable, err)
}

type InvalidStateError struct {
	msg string
}

func NewInvalidStateError(msg string) *InvalidStateError {
	return &InvalidStateError{msg: msg}
}

func (e *InvalidStateError) Error() string {
	return e.msg
}

type NilArgumentError struct {
	argument string
}

func NewNilArgumentError(argument string) *NilArgumentError {
	return &NilArgumentError{argument: argument}
}

func (e *NilArgumentError) Error() string {
	return fmt.Sprintf("argument '%s' must not be nil", e.argument)
}

// ValidationError describes caller-supplied data that must be corrected,
// keyed by the offending field.
type ValidationError struct {
	fields map[string]string
}

func NewValidationError(field string, msg string) *ValidationError {
	return &ValidationError{fields: map[string]string{field: msg}}
}

func (e *ValidationError) Fields() map[string]string {
	fields := make(map[string]string, len(e.fields))
	for k, v := range e.fields {
		fields[k] = v
	}
	return fields
}

func (e *ValidationError) Error() string {
	keys := make([]string, 0, len(e.fields))
	for k := range e.fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, fmt.Sprintf("%s: %s", k, e.fields[k]))
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

// NewValidationErrorFrom converts field errors produced by ozzo-validation
// into a ValidationError. Any other error is returned unchanged.
func NewValidationErrorFrom(err error) error {
	if err == nil {
		return nil
	}
	var fieldErrors validation.Errors
	if !goerrors.As(err, &fieldErrors) {
		return err
	}
	fields := make(map[string]string, len(fieldErrors))
	for field, fieldErr := range fieldErrors {
		if fieldErr == nil {
			continue
		}
		fields[field] = fieldErr.Error()
	}
	if len(fields) == 0 {
		return nil
	}
	return &ValidationError{fields: fields}
}
