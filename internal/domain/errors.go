package domain

import "errors"

// Domain errors - callers check for them with errors.Is
var (
	ErrInvalidURL         = errors.New("invalid URL")
	ErrInvalidValidity    = errors.New("validity must be a positive number of minutes")
	ErrInvalidCode        = errors.New("short code must be 1-64 characters without '/' or whitespace")
	ErrCodeCollision      = errors.New("short code already exists")
	ErrCodeSpaceExhausted = errors.New("could not allocate a unique short code")
	ErrNotFound           = errors.New("short code not found")
	ErrExpired            = errors.New("short link has expired")
	ErrBatchSize          = errors.New("batch must contain between 1 and 5 links")
)

// IsNotFound reports whether err is an unknown-code condition.
func IsNotFound(err error) bool { return errors.Is(err, ErrNotFound) }

// IsExpired reports whether err is an expired-link condition.
func IsExpired(err error) bool { return errors.Is(err, ErrExpired) }

// IsCollision reports whether err indicates the code is already taken.
func IsCollision(err error) bool { return errors.Is(err, ErrCodeCollision) }

// IsInvalidInput reports whether err was caused by a malformed create request.
func IsInvalidInput(err error) bool {
	return errors.Is(err, ErrInvalidURL) ||
		errors.Is(err, ErrInvalidValidity) ||
		errors.Is(err, ErrInvalidCode) ||
		errors.Is(err, ErrBatchSize)
}
