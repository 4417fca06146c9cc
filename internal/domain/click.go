package domain

import (
	"strings"
	"time"
)

// UnknownSource is recorded when a visit carries no referrer
const UnknownSource = "unknown"

// ClickEvent is one successful resolution of a live link
// Events are values: once appended to a Link they are never modified.
type ClickEvent struct {
	Time     time.Time `json:"time"`     // When the resolution happened
	Source   string    `json:"source"`   // Referrer, or "unknown"
	Location string    `json:"location"` // Coarse region, best-effort
}

// NewClickEvent creates a click event, substituting UnknownSource for an empty referrer
func NewClickEvent(at time.Time, source, location string) ClickEvent {
	source = strings.TrimSpace(source)
	if source == "" {
		source = UnknownSource
	}
	return ClickEvent{
		Time:     at,
		Source:   source,
		Location: location,
	}
}
