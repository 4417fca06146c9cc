package http

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"shortlink/internal/domain"
	"shortlink/internal/service"
	"shortlink/pkg/logger"
)

const maxBodyBytes = 1 << 20

// LinkService interface defines the service methods needed by the handler
type LinkService interface {
	Create(ctx context.Context, req service.CreateRequest) (*domain.Link, error)
	CreateBatch(ctx context.Context, reqs []service.CreateRequest) ([]*domain.Link, error)
	Resolve(ctx context.Context, code string, visit service.Visit) (string, error)
	Get(ctx context.Context, code string) (*domain.Link, error)
	List(ctx context.Context) ([]*domain.Link, error)
	IsExpired(link *domain.Link) bool
}

// Handler holds dependencies for HTTP handlers
type Handler struct {
	links   LinkService
	logger  *slog.Logger
	baseURL string // Prefix for short URLs, e.g. "http://localhost:8080"
	homeURL string // Where dead links are sent
}

// NewHandler creates a new HTTP handler
func NewHandler(links LinkService, logger *slog.Logger, baseURL, homeURL string) *Handler {
	if homeURL == "" {
		homeURL = "/"
	}
	return &Handler{
		links:   links,
		logger:  logger,
		baseURL: baseURL,
		homeURL: homeURL,
	}
}

// Routes registers every endpoint on mux
// GET /{code} is the catch-all; exact paths registered elsewhere (e.g. /metrics) win over it.
func (h *Handler) Routes(mux *http.ServeMux) {
	mux.HandleFunc("POST /api/v1/links", h.CreateLink)
	mux.HandleFunc("POST /api/v1/links/batch", h.CreateBatch)
	mux.HandleFunc("GET /api/v1/links", h.ListLinks)
	mux.HandleFunc("GET /api/v1/links/{code}", h.GetLinkStats)
	mux.HandleFunc("GET /health/live", h.HealthCheck)
	mux.HandleFunc("GET /{code}", h.Redirect)
	mux.HandleFunc("GET /{$}", h.Home)
}

// Validity is a validity period in minutes
// Clients send it either as a JSON number or as a string.
type Validity string

// UnmarshalJSON accepts 30, "30" and null
func (v *Validity) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*v = ""
		return nil
	}

	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*v = Validity(s)
		return nil
	}

	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("validity must be a number or string: %w", err)
	}
	*v = Validity(n.String())
	return nil
}

type CreateLinkRequest struct {
	URL       string   `json:"url"`
	Validity  Validity `json:"validity,omitempty"`
	Shortcode string   `json:"shortcode,omitempty"`
}

func (r CreateLinkRequest) toService() service.CreateRequest {
	return service.CreateRequest{
		LongURL:    r.URL,
		Validity:   string(r.Validity),
		CustomCode: r.Shortcode,
	}
}

type BatchCreateRequest struct {
	Links []CreateLinkRequest `json:"links"`
}

type LinkResponse struct {
	Code      string    `json:"code"`
	ShortURL  string    `json:"short_url"`
	LongURL   string    `json:"long_url"`
	CreatedAt time.Time `json:"created_at"`
	ExpiresAt time.Time `json:"expires_at"`
}

type ClickResponse struct {
	Time     time.Time `json:"time"`
	Source   string    `json:"source"`
	Location string    `json:"location"`
}

type LinkStatsResponse struct {
	LinkResponse
	Expired     bool            `json:"expired"`
	TotalClicks int             `json:"total_clicks"`
	Clicks      []ClickResponse `json:"clicks"`
}

// CreateLink handles POST /api/v1/links
func (h *Handler) CreateLink(w http.ResponseWriter, r *http.Request) {
	var req CreateLinkRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respondError(w, http.StatusBadRequest, codeInvalidJSON, "Invalid JSON body")
		return
	}

	link, err := h.links.Create(r.Context(), req.toService())
	if err != nil {
		h.respondServiceError(w, r, "Failed to create link", err)
		return
	}

	respondSuccess(w, http.StatusCreated, h.toLinkResponse(link), "Link created successfully")
}

// CreateBatch handles POST /api/v1/links/batch
func (h *Handler) CreateBatch(w http.ResponseWriter, r *http.Request) {
	var req BatchCreateRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respondError(w, http.StatusBadRequest, codeInvalidJSON, "Invalid JSON body")
		return
	}

	reqs := make([]service.CreateRequest, 0, len(req.Links))
	for _, l := range req.Links {
		reqs = append(reqs, l.toService())
	}

	links, err := h.links.CreateBatch(r.Context(), reqs)
	created := make([]LinkResponse, 0, len(links))
	for _, link := range links {
		created = append(created, h.toLinkResponse(link))
	}

	if err != nil {
		status := statusFor(err)
		h.logRequestError(r, "Batch create stopped", status, err, "created", len(created))
		respondJSON(w, status, BatchErrorResponse{
			ErrorResponse: newErrorResponse(status, err),
			Created:       created,
		})
		return
	}

	respondSuccess(w, http.StatusCreated, created, fmt.Sprintf("%d links created", len(created)))
}

// ListLinks handles GET /api/v1/links
func (h *Handler) ListLinks(w http.ResponseWriter, r *http.Request) {
	links, err := h.links.List(r.Context())
	if err != nil {
		h.respondServiceError(w, r, "Failed to list links", err)
		return
	}

	out := make([]LinkStatsResponse, 0, len(links))
	for _, link := range links {
		out = append(out, h.toStatsResponse(link))
	}

	respondSuccess(w, http.StatusOK, out, "")
}

// GetLinkStats handles GET /api/v1/links/{code}
func (h *Handler) GetLinkStats(w http.ResponseWriter, r *http.Request) {
	link, err := h.links.Get(r.Context(), r.PathValue("code"))
	if err != nil {
		h.respondServiceError(w, r, "Failed to get link", err)
		return
	}

	respondSuccess(w, http.StatusOK, h.toStatsResponse(link), "")
}

// Redirect handles GET /{code}
// Unknown and expired codes are sent to the home URL instead of an error page.
func (h *Handler) Redirect(w http.ResponseWriter, r *http.Request) {
	code := r.PathValue("code")

	dest, err := h.links.Resolve(r.Context(), code, service.Visit{
		Source:   r.Referer(),
		Location: r.Header.Get("CF-IPCountry"),
	})
	if err != nil {
		if domain.IsNotFound(err) || domain.IsExpired(err) {
			http.Redirect(w, r, h.homeURL, http.StatusFound)
			return
		}
		h.respondServiceError(w, r, "Failed to resolve link", err)
		return
	}

	http.Redirect(w, r, strings.TrimSpace(dest), http.StatusFound)
}

// Home handles GET /
func (h *Handler) Home(w http.ResponseWriter, r *http.Request) {
	respondSuccess(w, http.StatusOK, map[string]string{
		"service": "shortlink",
		"status":  "running",
	}, "Shortlink service is running")
}

// HealthCheck handles GET /health/live
func (h *Handler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{
		"status": "ok",
		"time":   time.Now().Format(time.RFC3339),
	})
}

func (h *Handler) toLinkResponse(link *domain.Link) LinkResponse {
	return LinkResponse{
		Code:      link.Code,
		ShortURL:  link.ShortURL(h.baseURL),
		LongURL:   link.LongURL,
		CreatedAt: link.CreatedAt,
		ExpiresAt: link.ExpiresAt,
	}
}

func (h *Handler) toStatsResponse(link *domain.Link) LinkStatsResponse {
	clicks := make([]ClickResponse, 0, len(link.Clicks))
	for _, c := range link.Clicks {
		clicks = append(clicks, ClickResponse{
			Time:     c.Time,
			Source:   c.Source,
			Location: c.Location,
		})
	}

	return LinkStatsResponse{
		LinkResponse: h.toLinkResponse(link),
		Expired:      h.links.IsExpired(link),
		TotalClicks:  len(clicks),
		Clicks:       clicks,
	}
}

func (h *Handler) respondServiceError(w http.ResponseWriter, r *http.Request, msg string, err error) {
	status := statusFor(err)
	h.logRequestError(r, msg, status, err)
	respondJSON(w, status, newErrorResponse(status, err))
}

func (h *Handler) logRequestError(r *http.Request, msg string, status int, err error, args ...any) {
	log := h.logger
	if requestID, ok := logger.RequestID(r.Context()); ok {
		log = log.With("request_id", requestID)
	}

	args = append([]any{"status", status, "error", err}, args...)
	if status >= http.StatusInternalServerError {
		log.Error(msg, args...)
		return
	}
	log.Warn(msg, args...)
}

func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	defer r.Body.Close()
	return json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(dst)
}
