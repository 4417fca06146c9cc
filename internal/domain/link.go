package domain

import (
	"net/url"
	"strings"
	"time"
)

// DefaultValidityMinutes is used when a create request omits the validity period.
const DefaultValidityMinutes = 30

// Link represents a shortened URL held in the store
// A Link is created once, gains click events while it is live, and is never deleted:
// expiry only makes it unresolvable.
type Link struct {
	Code      string       `json:"code"`       // Unique, case-sensitive short code
	LongURL   string       `json:"long_url"`   // Absolute destination URL
	CreatedAt time.Time    `json:"created_at"` // Set once at creation
	ExpiresAt time.Time    `json:"expires_at"` // CreatedAt + validity, immutable
	Clicks    []ClickEvent `json:"clicks"`     // Append-only access history
}

// NewLink builds a link that is valid for the given duration starting at now.
func NewLink(code, longURL string, now time.Time, validity time.Duration) *Link {
	return &Link{
		Code:      code,
		LongURL:   longURL,
		CreatedAt: now,
		ExpiresAt: now.Add(validity),
		Clicks:    []ClickEvent{},
	}
}

// IsExpiredAt reports whether the link can no longer be resolved at the given time
// The link is still live at exactly ExpiresAt.
func (l *Link) IsExpiredAt(now time.Time) bool {
	return now.After(l.ExpiresAt)
}

// ShortURL returns the display form of the link for the given base URL
// The code is percent-escaped so reserved and non-ASCII characters survive routing.
func (l *Link) ShortURL(baseURL string) string {
	return strings.TrimRight(baseURL, "/") + "/" + url.PathEscape(l.Code)
}

// Clone returns a deep copy so callers can't mutate stored click history.
func (l *Link) Clone() *Link {
	c := *l
	c.Clicks = make([]ClickEvent, len(l.Clicks))
	copy(c.Clicks, l.Clicks)
	return &c
}
