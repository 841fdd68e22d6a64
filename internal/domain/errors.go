package domain

import (
	"errors"
	"fmt"
)

// ErrNotFound is returned when an entity does not exist.
type ErrNotFound struct {
	Entity string
	ID     string
}

func (e *ErrNotFound) Error() string {
	return fmt.Sprintf("%s not found with ID: %s", e.Entity, e.ID)
}

// IsNotFound reports whether err is an ErrNotFound.
func IsNotFound(err error) bool {
	var nf *ErrNotFound
	return errors.As(err, &nf)
}

// ValidationError represents an error that occurs due to invalid input or parameters
type ValidationError struct {
	Message string
}

// Error implements the error interface
func (e ValidationError) Error() string {
	return fmt.Sprintf("validation error: %s", e.Message)
}

// NewValidationError creates a new validation error with the given message
func NewValidationError(message string) error {
	return ValidationError{
		Message: message,
	}
}

// PayloadTooLargeError is a client error for oversized or overly-nested
// payloads; it maps to HTTP 413 at the API surface.
type PayloadTooLargeError struct {
	Message string
}

// Error implements the error interface
func (e PayloadTooLargeError) Error() string {
	return fmt.Sprintf("payload too large: %s", e.Message)
}

// NewPayloadTooLargeError creates a new payload-too-large error
func NewPayloadTooLargeError(message string) error {
	return PayloadTooLargeError{
		Message: message,
	}
}

// ErrDestinationDisabled is a terminal sync error: the destination is
// disabled or misconfigured, so retrying cannot help.
type ErrDestinationDisabled struct {
	DestinationID string
	Reason        string
}

func (e *ErrDestinationDisabled) Error() string {
	return fmt.Sprintf("destination %s unavailable: %s", e.DestinationID, e.Reason)
}
