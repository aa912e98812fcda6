// Package storage defines the database error taxonomy shared by the
// Postgres store and its callers. Connection and migration failures are
// startup-fatal; query failures are per-record faults the ingestion loop
// skips over.
package storage

import (
	"errors"
	"fmt"
	"strings"
)

// Sentinel errors for common failure classes.
var (
	ErrDatabaseClosed   = errors.New("database connection is closed")
	ErrConnectionFailed = errors.New("failed to connect to database")
	ErrMigrationFailed  = errors.New("database migration failed")
	ErrInvalidDSN       = errors.New("invalid database connection string")
)

// ErrorType categorizes database errors.
type ErrorType int

const (
	ErrorTypeUnknown ErrorType = iota
	ErrorTypeConfiguration
	ErrorTypeConnection
	ErrorTypeQuery
	ErrorTypeMigration
)

// DatabaseError carries the failing operation, its category, and the
// wrapped driver error.
type DatabaseError struct {
	Type      ErrorType
	Operation string
	Message   string
	Cause     error
	Retryable bool
}

// Error implements the error interface.
func (e *DatabaseError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s (caused by: %v)", e.Operation, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Operation, e.Message)
}

// Unwrap returns the underlying cause error.
func (e *DatabaseError) Unwrap() error {
	return e.Cause
}

// IsRetryable returns whether the error is worth retrying.
func (e *DatabaseError) IsRetryable() bool {
	return e.Retryable
}

// NewDatabaseError creates a DatabaseError of the given category.
func NewDatabaseError(errorType ErrorType, operation, message string, cause error) *DatabaseError {
	return &DatabaseError{
		Type:      errorType,
		Operation: operation,
		Message:   message,
		Cause:     cause,
		Retryable: isRetryableError(errorType, cause),
	}
}

// NewConfigurationError creates a configuration error.
func NewConfigurationError(operation, message string, cause error) *DatabaseError {
	return NewDatabaseError(ErrorTypeConfiguration, operation, message, cause)
}

// NewConnectionError creates a connection error.
func NewConnectionError(operation, message string, cause error) *DatabaseError {
	return NewDatabaseError(ErrorTypeConnection, operation, message, cause)
}

// NewQueryError creates a query error.
func NewQueryError(operation, message string, cause error) *DatabaseError {
	return NewDatabaseError(ErrorTypeQuery, operation, message, cause)
}

// NewMigrationError creates a migration error.
func NewMigrationError(operation, message string, cause error) *DatabaseError {
	return NewDatabaseError(ErrorTypeMigration, operation, message, cause)
}

// isRetryableError classifies retryability from the category and cause.
func isRetryableError(errorType ErrorType, cause error) bool {
	switch errorType {
	case ErrorTypeConnection:
		return true
	case ErrorTypeQuery:
		if cause != nil {
			return containsAny(cause.Error(),
				"timeout", "cancelled", "canceled", "deadlock", "connection")
		}
		return false
	default:
		return false
	}
}

func containsAny(s string, patterns ...string) bool {
	s = strings.ToLower(s)
	for _, p := range patterns {
		if strings.Contains(s, p) {
			return true
		}
	}
	return false
}

// IsConfigurationError checks if an error is a configuration error.
func IsConfigurationError(err error) bool {
	var dbErr *DatabaseError
	return errors.As(err, &dbErr) && dbErr.Type == ErrorTypeConfiguration
}

// IsConnectionError checks if an error is a connection error.
func IsConnectionError(err error) bool {
	var dbErr *DatabaseError
	return errors.As(err, &dbErr) && dbErr.Type == ErrorTypeConnection
}

// IsQueryError checks if an error is a query error.
func IsQueryError(err error) bool {
	var dbErr *DatabaseError
	return errors.As(err, &dbErr) && dbErr.Type == ErrorTypeQuery
}

// IsMigrationError checks if an error is a migration error.
func IsMigrationError(err error) bool {
	var dbErr *DatabaseError
	return errors.As(err, &dbErr) && dbErr.Type == ErrorTypeMigration
}

// IsRetryable checks whether an error, database-typed or not, looks
// transient.
func IsRetryable(err error) bool {
	var dbErr *DatabaseError
	if errors.As(err, &dbErr) {
		return dbErr.Retryable
	}
	if err != nil {
		return containsAny(err.Error(),
			"connection refused", "connection reset", "timeout",
			"temporary failure", "deadlock", "busy")
	}
	return false
}
