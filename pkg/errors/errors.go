package errors

import (
	"errors"
	"fmt"
)

// Error codes for the three failure classes the service distinguishes.
const (
	CodeValidation = "validation_error"
	CodeStorage    = "storage_error"
	CodeDelivery   = "delivery_error"
)

// AppError represents an application error with a machine-readable code
type AppError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Details any    `json:"details,omitempty"`
	Err     error  `json:"-"`
}

// Error implements the error interface
func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap exposes the wrapped cause to errors.Is/As
func (e *AppError) Unwrap() error {
	return e.Err
}

// WithDetails adds details to the error
func (e *AppError) WithDetails(details any) *AppError {
	e.Details = details
	return e
}

// NewValidationError reports malformed caller input (bad push URL, missing
// provider parameter). Reported to the caller only, never fatal.
func NewValidationError(message string) *AppError {
	return &AppError{Code: CodeValidation, Message: message}
}

// NewStorageError wraps a durable read/write failure. It blocks only the
// operation that hit it; the process keeps serving other sessions.
func NewStorageError(message string, err error) *AppError {
	return &AppError{Code: CodeStorage, Message: message, Err: err}
}

// NewDeliveryError wraps a push provider failure. Logged and isolated per
// subscriber, never surfaced to a client.
func NewDeliveryError(message string, err error) *AppError {
	return &AppError{Code: CodeDelivery, Message: message, Err: err}
}

// FromError converts any error to an AppError, defaulting to the storage class
// for unclassified failures from the persistence layer.
func FromError(err error) *AppError {
	if err == nil {
		return nil
	}
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr
	}
	return &AppError{Code: CodeStorage, Message: err.Error(), Err: err}
}

// IsCode reports whether err is an AppError carrying the given code.
func IsCode(err error, code string) bool {
	var appErr *AppError
	if !errors.As(err, &appErr) {
		return false
	}
	return appErr.Code == code
}
