package horizon

import (
	"errors"
	"fmt"
)

// TransportError is a network-level failure: dial, TLS, timeout, or a
// broken stream. Usually transient.
type TransportError struct {
	Op    string
	Cause error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("horizon transport: %s: %v", e.Op, e.Cause)
}

func (e *TransportError) Unwrap() error {
	return e.Cause
}

// StatusError is a non-2xx HTTP response from Horizon.
type StatusError struct {
	Code int
	Body string
}

func (e *StatusError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("horizon status %d", e.Code)
	}
	return fmt.Sprintf("horizon status %d: %s", e.Code, e.Body)
}

// DecodeError is a malformed JSON payload, for a whole page or a single
// stream message.
type DecodeError struct {
	Cause error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("horizon decode: %v", e.Cause)
}

func (e *DecodeError) Unwrap() error {
	return e.Cause
}

// IsTransportError reports whether err is a network-level failure.
func IsTransportError(err error) bool {
	var te *TransportError
	return errors.As(err, &te)
}

// IsStatusError reports whether err is a non-2xx response, returning the
// status code when it is.
func IsStatusError(err error) (int, bool) {
	var se *StatusError
	if errors.As(err, &se) {
		return se.Code, true
	}
	return 0, false
}

// IsDecodeError reports whether err is a payload decode failure.
func IsDecodeError(err error) bool {
	var de *DecodeError
	return errors.As(err, &de)
}
