package domain

import (
	"errors"
	"fmt"
)

// DomainError represents a domain-specific error with a code and message
type DomainError struct {
	Code    string
	Message string
	Err     error
}

func (e *DomainError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *DomainError) Unwrap() error {
	return e.Err
}

// Error codes
const (
	ErrCodeNotFound     = "NOT_FOUND"
	ErrCodeValidation   = "VALIDATION_ERROR"
	ErrCodeUnauthorized = "UNAUTHORIZED"
	ErrCodeNetwork      = "NETWORK_ERROR"
	ErrCodeInternal     = "INTERNAL_ERROR"
)

// NewNotFoundError creates a new not found error
func NewNotFoundError(resource string) error {
	return &DomainError{
		Code:    ErrCodeNotFound,
		Message: fmt.Sprintf("%s not found", resource),
	}
}

// NewValidationError creates a new validation error
func NewValidationError(msg string) error {
	return &DomainError{
		Code:    ErrCodeValidation,
		Message: msg,
	}
}

// NewUnauthorizedError is returned when a write is attempted without an owner.
func NewUnauthorizedError() error {
	return &DomainError{
		Code:    ErrCodeUnauthorized,
		Message: "Authentication required",
	}
}

// NewNetworkError wraps a transport failure talking to the store.
func NewNetworkError(err error) error {
	return &DomainError{
		Code:    ErrCodeNetwork,
		Message: "Could not reach the server",
		Err:     err,
	}
}

// NewInternalError creates a new internal error
func NewInternalError(err error) error {
	return &DomainError{
		Code:    ErrCodeInternal,
		Message: "An internal error occurred",
		Err:     err,
	}
}

func code(err error) (string, bool) {
	var de *DomainError
	if errors.As(err, &de) {
		return de.Code, true
	}
	return "", false
}

// IsNotFound checks if the error is a not found error
func IsNotFound(err error) bool {
	c, _ := code(err)
	return c == ErrCodeNotFound
}

// IsValidation checks if the error is a validation error
func IsValidation(err error) bool {
	c, _ := code(err)
	return c == ErrCodeValidation
}

// IsUnauthorized checks if the error is an unauthorized error
func IsUnauthorized(err error) bool {
	c, _ := code(err)
	return c == ErrCodeUnauthorized
}

// IsNetwork checks if the error is a transport failure
func IsNetwork(err error) bool {
	c, _ := code(err)
	return c == ErrCodeNetwork
}

// GetErrorCode extracts the error code from a domain error
func GetErrorCode(err error) string {
	if c, ok := code(err); ok {
		return c
	}
	return ErrCodeInternal
}

// UserMessage returns the human-readable part of err suitable for display.
func UserMessage(err error) string {
	var de *DomainError
	if errors.As(err, &de) {
		return de.Message
	}
	if err == nil {
		return ""
	}
	return "Something went wrong. Please try again."
}
