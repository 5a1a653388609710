package storage

import "fmt"

// ErrorType distinguishes connection-level failures from failures of
// a specific query or transaction.
type ErrorType int

const (
	// ErrorTypeConnection indicates the database handle itself is
	// unusable; the exporting collector may retry later.
	ErrorTypeConnection ErrorType = iota
	// ErrorTypeQuery indicates one statement or transaction failed.
	ErrorTypeQuery
)

// StorageError wraps storage layer errors with type information.
type StorageError struct {
	Type    ErrorType
	Message string
	Cause   error
}

func (e *StorageError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

func (e *StorageError) Unwrap() error {
	return e.Cause
}

// NewConnectionError creates a connection-level storage error.
func NewConnectionError(message string, cause error) *StorageError {
	return &StorageError{Type: ErrorTypeConnection, Message: message, Cause: cause}
}

// NewQueryError creates a query-level storage error.
func NewQueryError(message string, cause error) *StorageError {
	return &StorageError{Type: ErrorTypeQuery, Message: message, Cause: cause}
}
