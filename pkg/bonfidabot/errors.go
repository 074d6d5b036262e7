// pkg/bonfidabot/errors.go
package bonfidabot

import (
	"errors"
	"fmt"
)

var (
	// ErrRange is returned when a value does not fit its declared wire width
	// or is not one of the defined enumeration variants.
	ErrRange = errors.New("value out of range")

	// ErrArity is returned when paired lists have different lengths.
	ErrArity = errors.New("mismatched list lengths")

	// ErrMissingField is returned when a mandatory address or value is absent.
	ErrMissingField = errors.New("missing required field")

	// ErrInvalidInstructionData is returned by the decoder on malformed payloads.
	ErrInvalidInstructionData = errors.New("invalid instruction data")

	ErrInvalidAccountData = errors.New("invalid account data")
)

// FieldError attaches the failing operation and field to one of the sentinel errors.
type FieldError struct {
	Op    string
	Field string
	Err   error
}

func (e *FieldError) Error() string {
	return fmt.Sprintf("%s: %s: %v", e.Op, e.Field, e.Err)
}

func (e *FieldError) Unwrap() error {
	return e.Err
}

func fieldErr(op, field string, err error) error {
	return &FieldError{Op: op, Field: field, Err: err}
}
