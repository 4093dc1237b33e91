package errors

import (
	stderrors "errors"
	"fmt"
)

// ErrorType represents the type of error
type ErrorType string

const (
	ErrTypeNoMatch        ErrorType = "NO_MATCH"
	ErrTypeFileRead       ErrorType = "FILE_READ"
	ErrTypeEmptyResult    ErrorType = "EMPTY_RESULT"
	ErrTypeFileWrite      ErrorType = "FILE_WRITE"
	ErrTypeSchema         ErrorType = "SCHEMA"
	ErrTypeTypeConversion ErrorType = "TYPE_CONVERSION"
	ErrTypeValidation     ErrorType = "VALIDATION"
	ErrTypeConfig         ErrorType = "CONFIG"
)

// AppError represents an application-specific error
type AppError struct {
	Type    ErrorType
	Message string
	Cause   error
	Context map[string]interface{}
}

// Error implements the error interface
func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Type, e.Message, e.Cause)
	}
	return fmt.Sprintf("[%s] %s", e.Type, e.Message)
}

// Unwrap allows errors.Is and errors.As to work with AppError
func (e *AppError) Unwrap() error {
	return e.Cause
}

// WithContext adds context to the error
func (e *AppError) WithContext(key string, value interface{}) *AppError {
	if e.Context == nil {
		e.Context = make(map[string]interface{})
	}
	e.Context[key] = value
	return e
}

// NewAppError creates a new application error
func NewAppError(errType ErrorType, message string, cause error) *AppError {
	return &AppError{
		Type:    errType,
		Message: message,
		Cause:   cause,
		Context: make(map[string]interface{}),
	}
}

// IsType reports whether any AppError in err's chain has the given type.
func IsType(err error, errType ErrorType) bool {
	switch e := err.(type) {
	case nil:
		return false
	case *AppError:
		return e.Type == errType || IsType(e.Cause, errType)
	case interface{ Unwrap() []error }:
		for _, inner := range e.Unwrap() {
			if IsType(inner, errType) {
				return true
			}
		}
	case interface{ Unwrap() error }:
		return IsType(e.Unwrap(), errType)
	}
	return false
}

// TypeOf returns the type of the first AppError in err's chain, or "" if none.
func TypeOf(err error) ErrorType {
	var appErr *AppError
	if stderrors.As(err, &appErr) {
		return appErr.Type
	}
	return ""
}

// Helper functions for common error types

// NewNoMatchError reports a combination pattern that matched no files.
func NewNoMatchError(pattern string) *AppError {
	return NewAppError(ErrTypeNoMatch, fmt.Sprintf("no files found matching pattern %q", pattern), nil).
		WithContext("pattern", pattern)
}

// NewFileReadError reports a matched file that could not be loaded as a table.
func NewFileReadError(path string, cause error) *AppError {
	return NewAppError(ErrTypeFileRead, fmt.Sprintf("error reading file %s", path), cause).
		WithContext("path", path)
}

// NewEmptyResultError reports a combination that produced no rows.
func NewEmptyResultError(pattern string) *AppError {
	return NewAppError(ErrTypeEmptyResult, "no valid data to combine", nil).
		WithContext("pattern", pattern)
}

// NewFileWriteError reports an output file that could not be persisted.
func NewFileWriteError(path string, cause error) *AppError {
	return NewAppError(ErrTypeFileWrite, fmt.Sprintf("error saving combined file %s", path), cause).
		WithContext("path", path)
}

// NewSchemaError reports a required column missing from a dataset.
func NewSchemaError(column string) *AppError {
	return NewAppError(ErrTypeSchema, fmt.Sprintf("required column %q is missing", column), nil).
		WithContext("column", column)
}

// NewTypeConversionError reports a non-numeric value in a numeric column.
func NewTypeConversionError(column string, row int, value string) *AppError {
	return NewAppError(ErrTypeTypeConversion,
		fmt.Sprintf("column %q row %d: cannot convert %q to a number", column, row, value), nil).
		WithContext("column", column).
		WithContext("row", row)
}

// NewInvalidPatternError reports a combination or inventory pattern that
// cannot be parsed.
func NewInvalidPatternError(pattern string, cause error) *AppError {
	return NewAppError(ErrTypeValidation, fmt.Sprintf("invalid pattern %q", pattern), cause).
		WithContext("pattern", pattern)
}

// NewConfigError creates a configuration error
func NewConfigError(message string, cause error) *AppError {
	return NewAppError(ErrTypeConfig, message, cause)
}
