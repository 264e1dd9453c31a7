// Package apperr defines the error kinds shared by every service.
// Domain packages declare their own sentinels on top of a kind so the HTTP
// boundary can classify any of them with a single errors.Is check.
package apperr

import (
	"errors"
	"fmt"
)

var (
	ErrValidation          = errors.New("validation")
	ErrAuthentication      = errors.New("not authenticated")
	ErrAuthorization       = errors.New("not authorized")
	ErrNotFound            = errors.New("not found")
	ErrConflict            = errors.New("conflict")
	ErrUpstreamUnavailable = errors.New("upstream unavailable")
	ErrConfiguration       = errors.New("configuration")
)

type kindError struct {
	kind error
	msg  string
}

func (e *kindError) Error() string { return e.msg }
func (e *kindError) Unwrap() error { return e.kind }

// New returns a sentinel with its own message that still matches kind via errors.Is.
func New(kind error, msg string) error {
	return &kindError{kind: kind, msg: msg}
}

// Validation reports malformed input.
func Validation(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrValidation, fmt.Sprintf(format, args...))
}

// Configuration reports a required setting that is missing or unusable.
func Configuration(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrConfiguration, fmt.Sprintf(format, args...))
}
