package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"shortlink/internal/domain"
	"shortlink/internal/metrics"
	"shortlink/internal/repository"
)

// ClickRecorder appends access events to a link's history
// It trusts the caller to have checked expiry.
type ClickRecorder struct {
	links           repository.LinkRepository
	now             func() time.Time
	defaultLocation string
	logger          *slog.Logger
}

// NewClickRecorder creates a recorder
// defaultLocation is stored when a visit has no location; empty means "unknown".
func NewClickRecorder(links repository.LinkRepository, clock func() time.Time, defaultLocation string, logger *slog.Logger) *ClickRecorder {
	if clock == nil {
		clock = time.Now
	}
	if strings.TrimSpace(defaultLocation) == "" {
		defaultLocation = domain.UnknownSource
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &ClickRecorder{
		links:           links,
		now:             clock,
		defaultLocation: defaultLocation,
		logger:          logger,
	}
}

// Record appends a click stamped with the current time and returns it
func (r *ClickRecorder) Record(ctx context.Context, link *domain.Link, source, location string) (domain.ClickEvent, error) {
	location = strings.TrimSpace(location)
	if location == "" {
		location = r.defaultLocation
	}

	click := domain.NewClickEvent(r.now(), source, location)
	if err := r.links.AppendClick(ctx, link.Code, click); err != nil {
		return domain.ClickEvent{}, fmt.Errorf("failed to record click for %q: %w", link.Code, err)
	}

	metrics.RecordClickRecorded()
	r.logger.Debug("click recorded",
		"code", link.Code,
		"source", click.Source,
		"location", click.Location,
	)

	return click, nil
}
