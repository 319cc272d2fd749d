// Package errors provides structured error types for sqlog. All errors
// include a category, code, and message so error hooks can route on
// failure class without string matching.
package errors

import (
	"errors"
	"fmt"
)

// ErrorCategory classifies errors by system component.
type ErrorCategory string

const (
	ErrCategoryExtraction ErrorCategory = "EXTRACTION"
	ErrCategoryStorage    ErrorCategory = "STORAGE"
	ErrCategoryConfig     ErrorCategory = "CONFIG"
	ErrCategoryJournal    ErrorCategory = "JOURNAL"
)

// Error codes for each category.
const (
	// Extraction codes
	CodeExtractFailed = "EXTRACT_FAILED"

	// Storage codes
	CodeOpenFailed      = "OPEN_FAILED"
	CodeProvisionFailed = "PROVISION_FAILED"
	CodeInsertFailed    = "INSERT_FAILED"

	// Config codes
	CodeInvalidLevel    = "INVALID_LEVEL"
	CodeInvalidInterval = "INVALID_INTERVAL"
	CodeInvalidTarget   = "INVALID_TARGET"

	// Journal codes
	CodeAppendFailed = "APPEND_FAILED"
	CodeCorruptEntry = "CORRUPT_ENTRY"
)

// SqlogError is the structured error type used throughout the system.
type SqlogError struct {
	Category ErrorCategory
	Code     string
	Message  string
	Cause    error
}

// Error returns a formatted error string.
func (e *SqlogError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("[%s:%s] %s: %v", e.Category, e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("[%s:%s] %s", e.Category, e.Code, e.Message)
}

// Unwrap returns the underlying cause for errors.Is/As compatibility.
func (e *SqlogError) Unwrap() error {
	return e.Cause
}

// Is reports whether the target matches this error's category and code.
func (e *SqlogError) Is(target error) bool {
	var t *SqlogError
	if errors.As(target, &t) {
		return e.Category == t.Category && e.Code == t.Code
	}
	return false
}

// New creates a new SqlogError.
func New(category ErrorCategory, code, message string) *SqlogError {
	return &SqlogError{
		Category: category,
		Code:     code,
		Message:  message,
	}
}

// Wrap creates a new SqlogError wrapping an existing error.
func Wrap(category ErrorCategory, code, message string, cause error) *SqlogError {
	return &SqlogError{
		Category: category,
		Code:     code,
		Message:  message,
		Cause:    cause,
	}
}

// GetCategory extracts the error category from an error chain.
// Returns empty string if the error is not a SqlogError.
func GetCategory(err error) ErrorCategory {
	var se *SqlogError
	if errors.As(err, &se) {
		return se.Category
	}
	return ""
}

// GetCode extracts the error code from an error chain.
// Returns empty string if the error is not a SqlogError.
func GetCode(err error) string {
	var se *SqlogError
	if errors.As(err, &se) {
		return se.Code
	}
	return ""
}

// Convenience constructors for common errors.

func NewExtractionError(message string, cause error) *SqlogError {
	return Wrap(ErrCategoryExtraction, CodeExtractFailed, message, cause)
}

func NewStorageError(code, message string, cause error) *SqlogError {
	return Wrap(ErrCategoryStorage, code, message, cause)
}

func NewConfigError(code, message string) *SqlogError {
	return New(ErrCategoryConfig, code, message)
}

func NewJournalError(code, message string, cause error) *SqlogError {
	return Wrap(ErrCategoryJournal, code, message, cause)
}
