package postgres

import (
	"context"
	"database/sql"
	"fmt"
)

// migrations are applied in order; every statement is idempotent so Apply
// can run at each startup.
var migrations = []string{
	`CREATE TABLE IF NOT EXISTS books (
		id   BIGSERIAL PRIMARY KEY,
		name TEXT NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS tickets (
		id       BIGSERIAL PRIMARY KEY,
		book_id  BIGINT NOT NULL REFERENCES books(id),
		number   SMALLINT NOT NULL CHECK (number BETWEEN 0 AND 99),
		state    TEXT NOT NULL DEFAULT 'available',
		assignee TEXT,
		UNIQUE (book_id, number)
	)`,
	`CREATE TABLE IF NOT EXISTS draws (
		id             BIGSERIAL PRIMARY KEY,
		book_id        BIGINT NOT NULL REFERENCES books(id),
		winning_number CHAR(4) NOT NULL,
		drawn_at       TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
	`CREATE TABLE IF NOT EXISTS raffle_settings (
		id             SMALLINT PRIMARY KEY CHECK (id = 1),
		ticket_price   NUMERIC(14,2) NOT NULL,
		first_percent  NUMERIC(6,2) NOT NULL,
		middle_percent NUMERIC(6,2) NOT NULL,
		last_percent   NUMERIC(6,2) NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_tickets_book ON tickets (book_id)`,
	`CREATE INDEX IF NOT EXISTS idx_draws_book ON draws (book_id)`,
}

// Apply runs every migration statement against db.
func Apply(ctx context.Context, db *sql.DB) error {
	for i, stmt := range migrations {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("migration %d: %w", i, err)
		}
	}
	return nil
}
