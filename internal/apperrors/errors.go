// Package apperrors holds the error taxonomy shared by services and the HTTP layer.
package apperrors

import (
	"fmt"
	"strings"

	"github.com/pkg/errors"
)

var (
	ErrUnauthorized   = errors.New("unauthorized")
	ErrNotFound       = errors.New("not found")
	ErrRateLimited    = errors.New("too many requests, try again later")
	ErrValidation     = errors.New("validation failed")
	ErrPartialFailure = errors.New("partial failure")
)

type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

func (e *ValidationError) Is(target error) bool {
	return target == ErrValidation
}

func Validation(field, message string) error {
	return &ValidationError{Field: field, Message: message}
}

// StorageError wraps a failed store operation. Code is the SQLSTATE when the
// server reported one; Conn marks faults below SQL (dial, reset, timeout).
type StorageError struct {
	Op   string
	Code string
	Conn bool
	Err  error
}

func (e *StorageError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("storage %s (code %s): %v", e.Op, e.Code, e.Err)
	}
	return fmt.Sprintf("storage %s: %v", e.Op, e.Err)
}

func (e *StorageError) Unwrap() error { return e.Err }

// IsConstraint — нарушение ограничения целостности (класс 23).
func (e *StorageError) IsConstraint() bool {
	return strings.HasPrefix(e.Code, "23")
}

// IsTransient reports faults worth retrying: connection faults and the
// SQLSTATE classes 08, 40, 53 and 57.
func (e *StorageError) IsTransient() bool {
	if e.Conn {
		return true
	}
	if e.Code == "" {
		return false
	}
	for _, class := range []string{"08", "40", "53", "57"} {
		if strings.HasPrefix(e.Code, class) {
			return true
		}
	}
	return false
}

// PartialFailureError is returned when the first write of a two-write
// operation succeeded and the second did not.
type PartialFailureError struct {
	Completed string
	Failed    string
	Err       error
}

func (e *PartialFailureError) Error() string {
	return fmt.Sprintf("%s succeeded but %s failed: %v", e.Completed, e.Failed, e.Err)
}

func (e *PartialFailureError) Unwrap() error { return e.Err }

func (e *PartialFailureError) Is(target error) bool {
	return target == ErrPartialFailure
}

func IsTransient(err error) bool {
	var se *StorageError
	if errors.As(err, &se) {
		return se.IsTransient()
	}
	return false
}
