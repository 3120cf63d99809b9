package model

import "errors"

// Error kinds surfaced by the trust engine. Callers wrap them with context and
// handlers map them to HTTP status codes with errors.Is.
var (
	ErrInvalidInput    = errors.New("invalid input")
	ErrNotFound        = errors.New("not found")
	ErrUnauthorized    = errors.New("unauthorized")
	ErrForbidden       = errors.New("forbidden")
	ErrFeatureDisabled = errors.New("feature disabled")
)
