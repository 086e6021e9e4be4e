package apperrors

import "errors"

var (
	ErrInvalidConfig     = errors.New("invalid configuration")
	ErrSourceUnavailable = errors.New("source warehouse unavailable")
)
