package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"shortlink/internal/domain"
	"shortlink/internal/metrics"
	"shortlink/internal/repository"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const backend = "postgres"

// linkRepository is the PostgreSQL implementation of repository.LinkRepository
type linkRepository struct {
	db *pgxpool.Pool
}

// NewLinkRepository creates a new PostgreSQL link repository
// Call Migrate once before using it.
func NewLinkRepository(db *pgxpool.Pool) repository.LinkRepository {
	return &linkRepository{db: db}
}

// Insert adds a link; the primary key on code makes the collision check race-free
func (r *linkRepository) Insert(ctx context.Context, link *domain.Link) error {
	defer observe("insert", time.Now())

	query := `
		INSERT INTO links (code, long_url, created_at, expires_at)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (code) DO NOTHING
	`

	result, err := r.db.Exec(
		ctx,
		query,
		link.Code,
		link.LongURL,
		link.CreatedAt.UTC(),
		link.ExpiresAt.UTC(),
	)
	if err != nil {
		metrics.RecordStoreError(backend, "insert")
		return fmt.Errorf("failed to insert link: %w", err)
	}

	if result.RowsAffected() == 0 {
		return domain.ErrCodeCollision
	}

	return nil
}

// Get retrieves a link and its click history by code
func (r *linkRepository) Get(ctx context.Context, code string) (*domain.Link, error) {
	defer observe("get", time.Now())

	query := `
		SELECT code, long_url, created_at, expires_at
		FROM links
		WHERE code = $1
	`

	link := &domain.Link{}
	err := r.db.QueryRow(ctx, query, code).Scan(
		&link.Code,
		&link.LongURL,
		&link.CreatedAt,
		&link.ExpiresAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		metrics.RecordStoreError(backend, "get")
		return nil, fmt.Errorf("failed to get link: %w", err)
	}

	clicks, err := r.clicksByCode(ctx, code)
	if err != nil {
		metrics.RecordStoreError(backend, "get")
		return nil, err
	}
	link.Clicks = clicks

	return link, nil
}

// List returns every link with its clicks, in insertion order
func (r *linkRepository) List(ctx context.Context) ([]*domain.Link, error) {
	defer observe("list", time.Now())

	query := `
		SELECT code, long_url, created_at, expires_at
		FROM links
		ORDER BY seq
	`

	rows, err := r.db.Query(ctx, query)
	if err != nil {
		metrics.RecordStoreError(backend, "list")
		return nil, fmt.Errorf("failed to list links: %w", err)
	}
	defer rows.Close()

	links := []*domain.Link{}
	byCode := make(map[string]*domain.Link)
	for rows.Next() {
		link := &domain.Link{Clicks: []domain.ClickEvent{}}
		if err := rows.Scan(&link.Code, &link.LongURL, &link.CreatedAt, &link.ExpiresAt); err != nil {
			return nil, fmt.Errorf("failed to scan link: %w", err)
		}
		links = append(links, link)
		byCode[link.Code] = link
	}
	if err := rows.Err(); err != nil {
		metrics.RecordStoreError(backend, "list")
		return nil, fmt.Errorf("error iterating links: %w", err)
	}

	if err := r.attachClicks(ctx, byCode); err != nil {
		metrics.RecordStoreError(backend, "list")
		return nil, err
	}

	return links, nil
}

// InitDB initializes the database connection pool
func InitDB(ctx context.Context, dsn string, maxConns, minConns int, maxLifetime time.Duration) (*pgxpool.Pool, error) {
	config, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to parse database config: %w", err)
	}

	config.MaxConns = int32(maxConns)
	config.MinConns = int32(minConns)
	config.MaxConnLifetime = maxLifetime
	config.MaxConnIdleTime = 30 * time.Minute
	config.HealthCheckPeriod = 1 * time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, config)
	if err != nil {
		return nil, fmt.Errorf("failed to create connection pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return pool, nil
}

func observe(operation string, start time.Time) {
	metrics.StoreOperationDuration.WithLabelValues(backend, operation).Observe(time.Since(start).Seconds())
}
