package domain

import (
	"errors"
	"fmt"
)

// Sentinel errors for the pipeline failure taxonomy.
var (
	// ErrNoCandidate means retrieval found no asset for an object slot.
	// Recoverable: the slot is skipped downstream.
	ErrNoCandidate = errors.New("no retrieval candidate")
	// ErrMalformedResponse means generator output failed structured parsing.
	// Fatal for that generation attempt; the caller decides retry or abort.
	ErrMalformedResponse = errors.New("malformed generator response")
	// ErrUnsupportedRotation means a rotation field has neither 3 nor 4
	// components. Fatal for that one object's placement only.
	ErrUnsupportedRotation = errors.New("unsupported rotation format")
	// ErrInvalidFloorGeometry means the floor polygon vertex count is
	// unsupported. Fatal for the whole scene.
	ErrInvalidFloorGeometry = errors.New("invalid floor geometry")

	// Validation failures at pipeline entry.
	ErrDescriptionTooShort = errors.New("description too short")
	ErrDescriptionTooLong  = errors.New("description too long")
	ErrDescriptionUnsafe   = errors.New("description contains suspicious content")
	ErrInvalidAsset        = errors.New("invalid asset record")
)

// MalformedResponseError wraps ErrMalformedResponse with the raw generator
// text so callers can log it or feed it to retry tooling. The raw text must
// ride along: a parse failure without the offending text is undiagnosable.
type MalformedResponseError struct {
	Raw string
	Err error
}

func (e *MalformedResponseError) Error() string {
	return fmt.Sprintf("%v: %v (raw %d bytes)", ErrMalformedResponse, e.Err, len(e.Raw))
}

func (e *MalformedResponseError) Unwrap() error { return ErrMalformedResponse }

// NewMalformedResponse builds a MalformedResponseError around a parse error.
func NewMalformedResponse(raw string, err error) *MalformedResponseError {
	return &MalformedResponseError{Raw: raw, Err: err}
}

// ValidationError wraps a sentinel with field context.
type ValidationError struct {
	Field   string
	Value   string
	Wrapped error
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation: %s: %s (value=%q)", e.Wrapped, e.Field, e.Value)
}

func (e *ValidationError) Unwrap() error { return e.Wrapped }

// NewValidationError creates a ValidationError.
func NewValidationError(field, value string, wrapped error) *ValidationError {
	return &ValidationError{Field: field, Value: value, Wrapped: wrapped}
}
