package services

import (
	"errors"
	"fmt"
)

// Error kinds surfaced by the engine. Match with errors.Is.
var (
	ErrValidation = errors.New("validation error")
	ErrConflict   = errors.New("conflict")
	ErrRateLimit  = errors.New("rate limit exceeded")
	ErrState      = errors.New("profile state error")
)

// Error is a typed engine error. Kind is one of the Err* sentinels above.
type Error struct {
	Kind    error
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e == nil {
		return ""
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Is(target error) bool { return e != nil && target == e.Kind }

func (e *Error) Unwrap() error { return e.Err }

func validationf(format string, args ...interface{}) error {
	return &Error{Kind: ErrValidation, Message: fmt.Sprintf(format, args...)}
}

func conflictf(format string, args ...interface{}) error {
	return &Error{Kind: ErrConflict, Message: fmt.Sprintf(format, args...)}
}

func rateLimitf(format string, args ...interface{}) error {
	return &Error{Kind: ErrRateLimit, Message: fmt.Sprintf(format, args...)}
}

func statef(format string, args ...interface{}) error {
	return &Error{Kind: ErrState, Message: fmt.Sprintf(format, args...)}
}

// Kind reports which engine error kind err carries, or "" for store/transport failures.
func Kind(err error) string {
	switch {
	case errors.Is(err, ErrValidation):
		return "validation"
	case errors.Is(err, ErrConflict):
		return "conflict"
	case errors.Is(err, ErrRateLimit):
		return "rate_limit"
	case errors.Is(err, ErrState):
		return "state"
	default:
		return ""
	}
}
