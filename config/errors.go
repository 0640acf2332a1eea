package config

import (
	"errors"
	"fmt"
)

// ErrInvalid is matched by every configuration validation error
var ErrInvalid = errors.New("invalid configuration")

// Error reports the parameter that failed validation
type Error struct {
	Field  string
	Reason string
}

func invalid(field, reason string) *Error {
	return &Error{Field: field, Reason: reason}
}

func (e *Error) Error() string {
	return fmt.Sprintf("config: %s %s", e.Field, e.Reason)
}

// Is makes errors.Is(err, ErrInvalid) hold for any *Error.
func (e *Error) Is(target error) bool {
	return target == ErrInvalid
}
