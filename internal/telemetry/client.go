// Package telemetry ships structured log events to a remote collector.
// Delivery is best-effort: Emit never blocks and never reports failure.
package telemetry

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"shortlink/internal/metrics"
)

// Emitter accepts events for the collector
type Emitter interface {
	Emit(level Level, pkg, message string)
}

// Nop discards every event. Used when no collector is configured.
type Nop struct{}

// Emit does nothing
func (Nop) Emit(Level, string, string) {}

// Config holds collector settings
type Config struct {
	Endpoint   string
	Stack      string
	Timeout    time.Duration
	BufferSize int
}

// Client posts events to the collector from a single background worker
// Events are queued in a bounded buffer; when it is full they are dropped.
type Client struct {
	endpoint string
	stack    string
	timeout  time.Duration
	http     *http.Client
	queue    chan Event
	logger   *slog.Logger
}

// NewClient creates a client. Call Run to start delivering events.
func NewClient(cfg Config, logger *slog.Logger) *Client {
	if cfg.Stack == "" {
		cfg.Stack = StackBackend
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 2 * time.Second
	}
	if cfg.BufferSize <= 0 {
		cfg.BufferSize = 256
	}

	return &Client{
		endpoint: cfg.Endpoint,
		stack:    cfg.Stack,
		timeout:  cfg.Timeout,
		http:     &http.Client{Timeout: cfg.Timeout},
		queue:    make(chan Event, cfg.BufferSize),
		logger:   logger,
	}
}

// Emit queues an event without blocking
// Events the collector would reject are discarded here.
func (c *Client) Emit(level Level, pkg, message string) {
	ev, ok := NewEvent(c.stack, level, pkg, message)
	if !ok {
		metrics.RecordTelemetry("rejected")
		return
	}

	select {
	case c.queue <- ev:
	default:
		metrics.RecordTelemetry("dropped")
	}
}

// Run delivers queued events until ctx is cancelled
// Whatever is still queued then gets one more timeout window to go out.
// Run always returns nil so it can sit in an errgroup next to the server.
func (c *Client) Run(ctx context.Context) error {
	for {
		select {
		case ev := <-c.queue:
			if ctx.Err() != nil {
				c.flush(ev)
				return nil
			}
			c.deliver(ctx, ev)
		case <-ctx.Done():
			c.flush()
			return nil
		}
	}
}

func (c *Client) flush(pending ...Event) {
	ctx, cancel := context.WithTimeout(context.Background(), c.timeout)
	defer cancel()

	for _, ev := range pending {
		c.deliver(ctx, ev)
	}

	for {
		select {
		case ev := <-c.queue:
			c.deliver(ctx, ev)
		default:
			return
		}
		if ctx.Err() != nil {
			return
		}
	}
}

func (c *Client) deliver(ctx context.Context, ev Event) {
	if err := c.post(ctx, ev); err != nil {
		metrics.RecordTelemetry("failed")
		c.logger.Debug("telemetry delivery failed", "error", err, "level", ev.Level, "package", ev.Package)
		return
	}
	metrics.RecordTelemetry("sent")
}

func (c *Client) post(ctx context.Context, ev Event) error {
	body, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("collector request failed: %w", err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("collector returned status %d", resp.StatusCode)
	}

	return nil
}
