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
	"shortlink/internal/shortcode"
	"shortlink/internal/telemetry"
	"shortlink/pkg/logger"
	"shortlink/pkg/validator"
)

const (
	// DefaultMaxAttempts bounds code generation when generated codes keep colliding
	DefaultMaxAttempts = 10

	// MaxBatchSize is the most links CreateBatch accepts at once
	MaxBatchSize = 5
)

// CodeGenerator produces candidate short codes
type CodeGenerator interface {
	NewCode(ctx context.Context) (string, error)
}

// CreateRequest is the input to Create
// Validity is the raw validity period in minutes; empty means the default.
type CreateRequest struct {
	LongURL    string
	Validity   string
	CustomCode string
}

// Visit describes who followed a short link
type Visit struct {
	Source   string // Referrer
	Location string // Coarse region
}

// Options configures a LinkService. Zero values fall back to defaults.
type Options struct {
	Generator       CodeGenerator
	Clock           func() time.Time
	MaxAttempts     int
	DefaultValidity int // minutes
	Telemetry       telemetry.Emitter
	Logger          *slog.Logger
}

// LinkService owns short code allocation, expiry enforcement and listing
type LinkService struct {
	links           repository.LinkRepository
	recorder        *ClickRecorder
	gen             CodeGenerator
	now             func() time.Time
	maxAttempts     int
	defaultValidity int
	events          telemetry.Emitter
	logger          *slog.Logger
}

// NewLinkService creates a new link service
func NewLinkService(links repository.LinkRepository, recorder *ClickRecorder, opts Options) *LinkService {
	if opts.Generator == nil {
		gen, _ := shortcode.NewGenerator(shortcode.Base36, shortcode.DefaultLength)
		opts.Generator = gen
	}
	if opts.Clock == nil {
		opts.Clock = time.Now
	}
	if opts.MaxAttempts <= 0 {
		opts.MaxAttempts = DefaultMaxAttempts
	}
	if opts.DefaultValidity <= 0 {
		opts.DefaultValidity = domain.DefaultValidityMinutes
	}
	if opts.Telemetry == nil {
		opts.Telemetry = telemetry.Nop{}
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}

	return &LinkService{
		links:           links,
		recorder:        recorder,
		gen:             opts.Generator,
		now:             opts.Clock,
		maxAttempts:     opts.MaxAttempts,
		defaultValidity: opts.DefaultValidity,
		events:          opts.Telemetry,
		logger:          opts.Logger,
	}
}

// Create validates the request and stores a new link
// A caller-supplied code that is already stored fails with domain.ErrCodeCollision;
// generated codes are retried up to MaxAttempts times. The long URL is stored exactly
// as submitted, so Resolve hands back the same string.
func (s *LinkService) Create(ctx context.Context, req CreateRequest) (*domain.Link, error) {
	log := s.log(ctx)

	if err := validator.ValidateURL(req.LongURL); err != nil {
		s.rejectCreate(log, "invalid_url", "invalid url format", "url", req.LongURL, "error", err)
		return nil, fmt.Errorf("%w: %v", domain.ErrInvalidURL, err)
	}
	longURL := req.LongURL

	validity, err := validator.ParseValidity(req.Validity, s.defaultValidity)
	if err != nil {
		s.rejectCreate(log, "invalid_validity", "invalid validity period", "validity", req.Validity, "error", err)
		return nil, fmt.Errorf("%w: %v", domain.ErrInvalidValidity, err)
	}

	code := strings.TrimSpace(req.CustomCode)
	if code == "" {
		return s.createGenerated(ctx, log, longURL, validity)
	}

	if err := validator.ValidateCustomCode(code); err != nil {
		s.rejectCreate(log, "invalid_code", "invalid shortcode", "code", code, "error", err)
		return nil, fmt.Errorf("%w: %v", domain.ErrInvalidCode, err)
	}

	link := domain.NewLink(code, longURL, s.now(), validity)
	if err := s.links.Insert(ctx, link); err != nil {
		if domain.IsCollision(err) {
			s.rejectCreate(log, "collision", "shortcode collision", "code", code)
			return nil, fmt.Errorf("%w: %q", domain.ErrCodeCollision, code)
		}
		return nil, fmt.Errorf("failed to create link: %w", err)
	}

	s.created(log, link, true)
	return link, nil
}

// CreateBatch creates up to MaxBatchSize links in order
// It stops at the first failure and returns the links created before it.
func (s *LinkService) CreateBatch(ctx context.Context, reqs []CreateRequest) ([]*domain.Link, error) {
	if len(reqs) == 0 || len(reqs) > MaxBatchSize {
		return nil, domain.ErrBatchSize
	}

	created := make([]*domain.Link, 0, len(reqs))
	for i, req := range reqs {
		link, err := s.Create(ctx, req)
		if err != nil {
			return created, fmt.Errorf("link %d: %w", i+1, err)
		}
		created = append(created, link)
	}

	return created, nil
}

// Resolve returns the destination of a live link and records the visit
// Unknown codes fail with domain.ErrNotFound, expired ones with domain.ErrExpired;
// neither records a click.
func (s *LinkService) Resolve(ctx context.Context, code string, visit Visit) (string, error) {
	log := s.log(ctx).With("code", code)

	link, err := s.links.Get(ctx, code)
	if err != nil {
		if domain.IsNotFound(err) {
			metrics.RecordResolveRejected("not_found")
			log.Error("unknown short code")
			s.events.Emit(telemetry.LevelError, telemetry.PackageService, "invalid code: "+code)
			return "", fmt.Errorf("%w: %q", domain.ErrNotFound, code)
		}
		return "", fmt.Errorf("failed to resolve link: %w", err)
	}

	if s.IsExpired(link) {
		metrics.RecordResolveRejected("expired")
		log.Warn("expired short code", "expires_at", link.ExpiresAt)
		s.events.Emit(telemetry.LevelWarn, telemetry.PackageService, "expired link: "+code)
		return "", fmt.Errorf("%w: %q", domain.ErrExpired, code)
	}

	if _, err := s.recorder.Record(ctx, link, visit.Source, visit.Location); err != nil {
		return "", err
	}

	metrics.RecordRedirect()
	log.Info("redirecting", "long_url", link.LongURL)
	s.events.Emit(telemetry.LevelInfo, telemetry.PackageService, "redirected to "+link.LongURL)

	return link.LongURL, nil
}

// IsExpired reports whether link is past its expiry by the service clock
// Resolve uses the same check, so the two never disagree.
func (s *LinkService) IsExpired(link *domain.Link) bool {
	return link.IsExpiredAt(s.now())
}

// Get returns one link with its clicks, expired or not
func (s *LinkService) Get(ctx context.Context, code string) (*domain.Link, error) {
	link, err := s.links.Get(ctx, code)
	if err != nil {
		if domain.IsNotFound(err) {
			return nil, fmt.Errorf("%w: %q", domain.ErrNotFound, code)
		}
		return nil, fmt.Errorf("failed to get link: %w", err)
	}
	return link, nil
}

// List returns every link, live and expired, in insertion order
func (s *LinkService) List(ctx context.Context) ([]*domain.Link, error) {
	links, err := s.links.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list links: %w", err)
	}
	return links, nil
}

// createGenerated draws codes until one inserts cleanly or attempts run out
func (s *LinkService) createGenerated(ctx context.Context, log *slog.Logger, longURL string, validity time.Duration) (*domain.Link, error) {
	now := s.now()

	for attempt := 1; attempt <= s.maxAttempts; attempt++ {
		code, err := s.gen.NewCode(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to generate short code: %w", err)
		}

		link := domain.NewLink(code, longURL, now, validity)
		err = s.links.Insert(ctx, link)
		if err == nil {
			s.created(log, link, false)
			return link, nil
		}
		if !domain.IsCollision(err) {
			return nil, fmt.Errorf("failed to create link: %w", err)
		}

		metrics.RecordCodeRetry()
		log.Debug("generated short code collided", "code", code, "attempt", attempt)
	}

	s.rejectCreate(log, "code_space_exhausted", "shortcode generation exhausted", "attempts", s.maxAttempts)
	return nil, fmt.Errorf("%w after %d attempts", domain.ErrCodeSpaceExhausted, s.maxAttempts)
}

func (s *LinkService) created(log *slog.Logger, link *domain.Link, custom bool) {
	metrics.RecordLinkCreated(custom)
	log.Info("link created",
		"code", link.Code,
		"long_url", link.LongURL,
		"expires_at", link.ExpiresAt,
		"custom_code", custom,
	)
	s.events.Emit(telemetry.LevelInfo, telemetry.PackageService, fmt.Sprintf("shortened %s to %s", link.LongURL, link.Code))
}

func (s *LinkService) rejectCreate(log *slog.Logger, reason, message string, args ...any) {
	metrics.RecordCreateFailure(reason)
	log.Warn("create rejected", append([]any{"reason", reason}, args...)...)
	s.events.Emit(telemetry.LevelError, telemetry.PackageService, message)
}

func (s *LinkService) log(ctx context.Context) *slog.Logger {
	if requestID, ok := logger.RequestID(ctx); ok {
		return s.logger.With("request_id", requestID)
	}
	return s.logger
}
