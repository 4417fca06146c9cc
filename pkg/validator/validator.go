package validator

import (
	"math"
	"net/url"
	"strconv"
	"strings"
	"time"
	"unicode"
	"unicode/utf8"
)

// MaxCodeLength bounds caller-supplied short codes
const MaxCodeLength = 64

// maxValidityMinutes keeps minutes*time.Minute from overflowing a time.Duration
const maxValidityMinutes = math.MaxInt64 / int64(time.Minute)

// ValidateURL checks if a URL is a well-formed absolute URL with a scheme and a host
// Any scheme is accepted (http, ftp, wss, ...); surrounding whitespace is ignored.
func ValidateURL(urlStr string) error {
	urlStr = strings.TrimSpace(urlStr)

	if urlStr == "" {
		return ErrEmptyURL
	}

	// Parse URL
	parsedURL, err := url.Parse(urlStr)
	if err != nil {
		return ErrInvalidURL
	}

	if parsedURL.Scheme == "" {
		return ErrInvalidScheme
	}

	if parsedURL.Hostname() == "" {
		return ErrInvalidHost
	}

	return nil
}

// ValidateCustomCode checks that a caller-supplied code fits in one URL path segment
// Reserved and non-ASCII characters are fine; ShortURL percent-escapes them.
func ValidateCustomCode(code string) error {
	if n := utf8.RuneCountInString(code); n < 1 || n > MaxCodeLength {
		return ErrInvalidCodeLength
	}
	if !utf8.ValidString(code) {
		return ErrInvalidCodeFormat
	}

	// "." and ".." are rewritten by path cleaning before routing
	if strings.Trim(code, ".") == "" {
		return ErrInvalidCodeFormat
	}

	for _, char := range code {
		if char == '/' || unicode.IsSpace(char) || !unicode.IsPrint(char) {
			return ErrInvalidCodeFormat
		}
	}

	return nil
}

// ParseValidity converts a validity period in minutes to a duration
// An empty value yields defaultMinutes.
func ParseValidity(raw string, defaultMinutes int) (time.Duration, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		raw = strconv.Itoa(defaultMinutes)
	}

	minutes, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		if ne, ok := err.(*strconv.NumError); ok && ne.Err == strconv.ErrRange {
			return 0, ErrValidityRange
		}
		return 0, ErrValidityNotNumber
	}

	if minutes <= 0 || minutes > maxValidityMinutes {
		return 0, ErrValidityRange
	}

	return time.Duration(minutes) * time.Minute, nil
}
