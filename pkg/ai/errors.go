package ai

import (
	"errors"
	"fmt"
	"time"
)

// UnavailableError signals that the AI backend could not be reached after
// retries were exhausted. Callers should surface it as a retryable condition
// rather than a permanent failure.
type UnavailableError struct {
	RetryAfter time.Duration
	Err        error
}

func (e *UnavailableError) Error() string {
	return fmt.Sprintf("ai service unavailable (retry after %s): %v", e.RetryAfter, e.Err)
}

func (e *UnavailableError) Unwrap() error {
	return e.Err
}

// IsUnavailable reports whether err wraps an UnavailableError.
func IsUnavailable(err error) bool {
	var ue *UnavailableError
	return errors.As(err, &ue)
}

// ParseError marks a response that was received from the model but could
// not be decoded into the requested structure. The backend itself is
// healthy, so callers may degrade gracefully instead of failing the
// whole operation.
type ParseError struct {
	Err error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("ai response parse failed: %v", e.Err)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

// IsParseError reports whether err wraps a ParseError.
func IsParseError(err error) bool {
	var pe *ParseError
	return errors.As(err, &pe)
}
