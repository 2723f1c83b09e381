// Package errors holds the typed failures surfaced to API callers.
package errors

import stdErrors "errors"

// BadRequestError represents malformed or missing caller input
type BadRequestError struct {
	Message string
}

func (e *BadRequestError) Error() string {
	return e.Message
}

// NewBadRequestError creates a new BadRequestError
func NewBadRequestError(message string) *BadRequestError {
	return &BadRequestError{Message: message}
}

// IsBadRequestError reports whether err is a BadRequestError (even when wrapped).
func IsBadRequestError(err error) bool {
	var brErr *BadRequestError
	return stdErrors.As(err, &brErr)
}

// UnauthorizedError represents a missing or wrong API key
type UnauthorizedError struct {
	Message string
}

func (e *UnauthorizedError) Error() string {
	return e.Message
}

// NewUnauthorizedError creates a new UnauthorizedError
func NewUnauthorizedError(message string) *UnauthorizedError {
	return &UnauthorizedError{Message: message}
}

// IsUnauthorizedError reports whether err is an UnauthorizedError (even when wrapped).
func IsUnauthorizedError(err error) bool {
	var uaErr *UnauthorizedError
	return stdErrors.As(err, &uaErr)
}
