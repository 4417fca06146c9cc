package domain

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewLink(t *testing.T) {
	now := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

	link := NewLink("abc", "https://example.com", now, time.Minute)

	assert.Equal(t, "abc", link.Code)
	assert.Equal(t, "https://example.com", link.LongURL)
	assert.Equal(t, now, link.CreatedAt)
	assert.Equal(t, now.Add(time.Minute), link.ExpiresAt)
	assert.True(t, link.ExpiresAt.After(link.CreatedAt))
	assert.NotNil(t, link.Clicks)
	assert.Empty(t, link.Clicks)
}

func TestLink_IsExpiredAt(t *testing.T) {
	now := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	link := NewLink("abc", "https://example.com", now, time.Minute)

	tests := []struct {
		name    string
		at      time.Time
		expired bool
	}{
		{name: "at creation", at: now, expired: false},
		{name: "just before expiry", at: now.Add(59 * time.Second), expired: false},
		{name: "exactly at expiry", at: now.Add(time.Minute), expired: false},
		{name: "just after expiry", at: now.Add(time.Minute + time.Nanosecond), expired: true},
		{name: "long after expiry", at: now.Add(24 * time.Hour), expired: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expired, link.IsExpiredAt(tt.at))
		})
	}
}

func TestLink_ShortURL(t *testing.T) {
	link := &Link{Code: "abc123"}

	assert.Equal(t, "http://localhost:8080/abc123", link.ShortURL("http://localhost:8080"))
	assert.Equal(t, "http://localhost:8080/abc123", link.ShortURL("http://localhost:8080/"))

	link = &Link{Code: "café?x#1"}
	assert.Equal(t, "http://sho.rt/caf%C3%A9%3Fx%231", link.ShortURL("http://sho.rt"))
}

func TestLink_CloneIsIndependent(t *testing.T) {
	now := time.Now()
	link := NewLink("abc", "https://example.com", now, time.Minute)
	link.Clicks = append(link.Clicks, NewClickEvent(now, "https://google.com", "IN"))

	clone := link.Clone()
	clone.Clicks[0].Source = "tampered"
	clone.Clicks = append(clone.Clicks, NewClickEvent(now, "", "IN"))

	require.Len(t, link.Clicks, 1)
	assert.Equal(t, "https://google.com", link.Clicks[0].Source)
}

func TestNewClickEvent_DefaultsSource(t *testing.T) {
	now := time.Now()

	assert.Equal(t, UnknownSource, NewClickEvent(now, "", "IN").Source)
	assert.Equal(t, UnknownSource, NewClickEvent(now, "   ", "IN").Source)
	assert.Equal(t, "https://news.ycombinator.com/", NewClickEvent(now, "https://news.ycombinator.com/", "IN").Source)
}

func TestErrorPredicates(t *testing.T) {
	wrapped := fmt.Errorf("resolve %q: %w", "abc", ErrExpired)

	assert.True(t, IsExpired(wrapped))
	assert.False(t, IsNotFound(wrapped))
	assert.True(t, IsNotFound(fmt.Errorf("lookup: %w", ErrNotFound)))
	assert.True(t, IsCollision(fmt.Errorf("insert: %w", ErrCodeCollision)))
	assert.True(t, IsInvalidInput(fmt.Errorf("create: %w", ErrInvalidValidity)))
	assert.False(t, IsInvalidInput(ErrCodeSpaceExhausted))
	assert.False(t, IsInvalidInput(errors.New("connection refused")))
}
