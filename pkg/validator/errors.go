package validator

import "errors"

var (
	ErrEmptyURL          = errors.New("URL cannot be empty")
	ErrInvalidURL        = errors.New("invalid URL format")
	ErrInvalidScheme     = errors.New("URL must include a scheme")
	ErrInvalidHost       = errors.New("URL must have a valid host")
	ErrInvalidCodeLength = errors.New("short code must be 1-64 characters")
	ErrInvalidCodeFormat = errors.New("short code must not contain '/', whitespace or control characters, or be only dots")
	ErrValidityNotNumber = errors.New("validity must be a whole number of minutes")
	ErrValidityRange     = errors.New("validity must be positive and fit in a duration")
)
