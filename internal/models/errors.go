package models

import (
	"errors"
	"fmt"
)

// ParseError reports a wire offer that cannot be converted into an Offer.
// The ingestion loop treats it as a per-record skip, never a batch abort.
type ParseError struct {
	Field  string // wire field that failed, e.g. "id", "selling"
	Reason string
	Cause  error
}

func (e *ParseError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("parse offer: %s: %s: %v", e.Field, e.Reason, e.Cause)
	}
	return fmt.Sprintf("parse offer: %s: %s", e.Field, e.Reason)
}

func (e *ParseError) Unwrap() error {
	return e.Cause
}

func newParseError(field, reason string, cause error) *ParseError {
	return &ParseError{Field: field, Reason: reason, Cause: cause}
}

// IsParseError reports whether err is a wire conversion failure.
func IsParseError(err error) bool {
	var pe *ParseError
	return errors.As(err, &pe)
}
