package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrValidation marks malformed or missing input. Nothing is written when it is returned.
	ErrValidation = errors.New("validation failed")

	// ErrNotFound marks a referenced entity that does not exist for the user
	ErrNotFound = errors.New("not found")

	// ErrUnauthenticated is returned by transports when no user id can be established
	ErrUnauthenticated = errors.New("unauthenticated")
)

// ValidationError describes a rejected input field
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Message)
}

// Is lets errors.Is(err, ErrValidation) match
func (e *ValidationError) Is(target error) bool {
	return target == ErrValidation
}

// Invalid builds a ValidationError
func Invalid(field, message string) error {
	return &ValidationError{Field: field, Message: message}
}

// ReferenceError describes a referenced entity that could not be found
type ReferenceError struct {
	Entity string
	ID     string
}

func (e *ReferenceError) Error() string {
	if e.ID == "" {
		return fmt.Sprintf("%s not found", e.Entity)
	}
	return fmt.Sprintf("%s %s not found", e.Entity, e.ID)
}

// Is lets errors.Is(err, ErrNotFound) match
func (e *ReferenceError) Is(target error) bool {
	return target == ErrNotFound
}

// NotFound builds a ReferenceError
func NotFound(entity string, id fmt.Stringer) error {
	if id == nil {
		return &ReferenceError{Entity: entity}
	}
	return &ReferenceError{Entity: entity, ID: id.String()}
}

// IsNotFound reports whether err is (or wraps) a ReferenceError
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}
