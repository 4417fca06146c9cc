package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

// schemaSQL is idempotent so it can run on every start
const schemaSQL = `
CREATE TABLE IF NOT EXISTS links (
	seq        BIGSERIAL   NOT NULL,
	code       TEXT        PRIMARY KEY,
	long_url   TEXT        NOT NULL,
	created_at TIMESTAMPTZ NOT NULL,
	expires_at TIMESTAMPTZ NOT NULL,
	CHECK (expires_at > created_at)
);

CREATE UNIQUE INDEX IF NOT EXISTS idx_links_seq ON links(seq);

CREATE TABLE IF NOT EXISTS link_clicks (
	id         BIGSERIAL   PRIMARY KEY,
	code       TEXT        NOT NULL REFERENCES links(code),
	clicked_at TIMESTAMPTZ NOT NULL,
	source     TEXT        NOT NULL,
	location   TEXT        NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_link_clicks_code ON link_clicks(code, id);
`

// Migrate creates the links and link_clicks tables if they are missing
func Migrate(ctx context.Context, db *pgxpool.Pool) error {
	if _, err := db.Exec(ctx, schemaSQL); err != nil {
		return fmt.Errorf("failed to apply schema: %w", err)
	}
	return nil
}
