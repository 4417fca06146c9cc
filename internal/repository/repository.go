package repository

import (
	"context"

	"shortlink/internal/domain"
)

// LinkRepository is the storage contract behind the link store
// Implementations must make Insert atomic per code and keep click histories append-only.
// Every backend in this module satisfies it: memory (default), postgres and redis.
type LinkRepository interface {
	// Insert stores a new link
	// Returns domain.ErrCodeCollision if any link, live or expired, already uses the code.
	Insert(ctx context.Context, link *domain.Link) error

	// Get returns a snapshot of the link with its click history
	// Returns domain.ErrNotFound for unknown codes. Expired links are returned as-is.
	Get(ctx context.Context, code string) (*domain.Link, error)

	// AppendClick adds an event to the end of the link's click history
	// Returns domain.ErrNotFound for unknown codes.
	AppendClick(ctx context.Context, code string, click domain.ClickEvent) error

	// List returns snapshots of all links in insertion order
	List(ctx context.Context) ([]*domain.Link, error)
}
