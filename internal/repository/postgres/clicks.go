package postgres

import (
	"context"
	"fmt"
	"time"

	"shortlink/internal/domain"
	"shortlink/internal/metrics"
)

// AppendClick inserts a click event for an existing link
// The id sequence fixes the order of the history.
func (r *linkRepository) AppendClick(ctx context.Context, code string, click domain.ClickEvent) error {
	defer observe("append_click", time.Now())

	query := `
		INSERT INTO link_clicks (code, clicked_at, source, location)
		SELECT $1, $2, $3, $4
		WHERE EXISTS (SELECT 1 FROM links WHERE code = $1)
	`

	result, err := r.db.Exec(ctx, query, code, click.Time.UTC(), click.Source, click.Location)
	if err != nil {
		metrics.RecordStoreError(backend, "append_click")
		return fmt.Errorf("failed to record click event: %w", err)
	}

	if result.RowsAffected() == 0 {
		return domain.ErrNotFound
	}

	return nil
}

// clicksByCode returns the click history of one link, oldest first
func (r *linkRepository) clicksByCode(ctx context.Context, code string) ([]domain.ClickEvent, error) {
	query := `
		SELECT clicked_at, source, location
		FROM link_clicks
		WHERE code = $1
		ORDER BY id
	`

	rows, err := r.db.Query(ctx, query, code)
	if err != nil {
		return nil, fmt.Errorf("failed to get clicks: %w", err)
	}
	defer rows.Close()

	clicks := []domain.ClickEvent{}
	for rows.Next() {
		var click domain.ClickEvent
		if err := rows.Scan(&click.Time, &click.Source, &click.Location); err != nil {
			return nil, fmt.Errorf("failed to scan click: %w", err)
		}
		clicks = append(clicks, click)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating clicks: %w", err)
	}

	return clicks, nil
}

// attachClicks loads all click events in one pass and appends them to their links
// Clicks whose link is not in byCode (inserted after the links query) are skipped.
func (r *linkRepository) attachClicks(ctx context.Context, byCode map[string]*domain.Link) error {
	query := `
		SELECT code, clicked_at, source, location
		FROM link_clicks
		ORDER BY id
	`

	rows, err := r.db.Query(ctx, query)
	if err != nil {
		return fmt.Errorf("failed to get clicks: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			code  string
			click domain.ClickEvent
		)
		if err := rows.Scan(&code, &click.Time, &click.Source, &click.Location); err != nil {
			return fmt.Errorf("failed to scan click: %w", err)
		}
		if link, ok := byCode[code]; ok {
			link.Clicks = append(link.Clicks, click)
		}
	}

	if err := rows.Err(); err != nil {
		return fmt.Errorf("error iterating clicks: %w", err)
	}

	return nil
}
