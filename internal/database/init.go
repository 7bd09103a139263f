package database

import (
	"context"
	"fmt"

	"github.com/yourusername/gridline/internal/config"
)

// schema holds the idempotent table definitions. The service owns its
// schema; there is no separate migration tool.
const schema = `
CREATE TABLE IF NOT EXISTS events (
	id UUID PRIMARY KEY,
	name TEXT NOT NULL,
	season INT NOT NULL,
	round INT NOT NULL,
	country TEXT NOT NULL DEFAULT '',
	location TEXT NOT NULL DEFAULT '',
	scheduled_completion TIMESTAMPTZ NOT NULL,
	status TEXT NOT NULL,
	created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
	updated_at TIMESTAMPTZ NOT NULL DEFAULT now(),
	UNIQUE (season, round)
);

CREATE TABLE IF NOT EXISTS predictions (
	id UUID PRIMARY KEY,
	event_id UUID NOT NULL REFERENCES events(id),
	driver TEXT NOT NULL,
	predicted_position INT NOT NULL,
	probability DOUBLE PRECISION NOT NULL,
	model_version TEXT NOT NULL DEFAULT '',
	predicted_at TIMESTAMPTZ NOT NULL
);

CREATE TABLE IF NOT EXISTS results (
	id UUID PRIMARY KEY,
	event_id UUID NOT NULL REFERENCES events(id),
	driver TEXT NOT NULL,
	final_position INT NOT NULL,
	points NUMERIC NOT NULL DEFAULT 0,
	did_not_finish BOOLEAN NOT NULL DEFAULT FALSE,
	source TEXT NOT NULL,
	recorded_at TIMESTAMPTZ NOT NULL,
	UNIQUE (event_id, driver)
);

CREATE TABLE IF NOT EXISTS wagers (
	id UUID PRIMARY KEY,
	event_id UUID NOT NULL,
	event_key TEXT NOT NULL,
	driver TEXT NOT NULL,
	bet_kind TEXT NOT NULL,
	bet_position INT NOT NULL DEFAULT 0,
	odds DOUBLE PRECISION NOT NULL,
	stake DOUBLE PRECISION NOT NULL,
	predicted_probability DOUBLE PRECISION NOT NULL DEFAULT 0,
	reasoning TEXT NOT NULL DEFAULT '',
	bookmaker TEXT NOT NULL DEFAULT '',
	status TEXT NOT NULL,
	actual_result TEXT,
	profit_loss DOUBLE PRECISION,
	placed_at TIMESTAMPTZ NOT NULL,
	settled_at TIMESTAMPTZ
);
CREATE INDEX IF NOT EXISTS idx_wagers_event_key ON wagers (event_key, status);

CREATE TABLE IF NOT EXISTS accuracy_records (
	id UUID PRIMARY KEY,
	event_id UUID NOT NULL,
	event_name TEXT NOT NULL,
	analyzed_at TIMESTAMPTZ NOT NULL,
	matched_drivers INT NOT NULL,
	unmatched_rows INT NOT NULL,
	overall_score DOUBLE PRECISION NOT NULL,
	detail JSONB NOT NULL
);

CREATE TABLE IF NOT EXISTS insights (
	id UUID PRIMARY KEY,
	event_id UUID NOT NULL,
	event_name TEXT NOT NULL,
	type TEXT NOT NULL,
	message TEXT NOT NULL,
	priority TEXT NOT NULL,
	suggested_action TEXT NOT NULL,
	created_at TIMESTAMPTZ NOT NULL
);

CREATE TABLE IF NOT EXISTS processed_events (
	event_key TEXT PRIMARY KEY,
	processed_at TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS wager_feedback (
	wager_id UUID PRIMARY KEY,
	event_key TEXT NOT NULL,
	driver TEXT NOT NULL,
	bet_type TEXT NOT NULL,
	predicted_probability DOUBLE PRECISION NOT NULL,
	won BOOLEAN NOT NULL,
	profit_loss DOUBLE PRECISION NOT NULL,
	settled_at TIMESTAMPTZ NOT NULL
);
`

// Initialize creates a database connection pool and ensures the schema exists
func Initialize(ctx context.Context, cfg *config.Config) (*DB, error) {
	db, err := NewDB(ctx, &cfg.Database)
	if err != nil {
		return nil, err
	}

	if err := applySchema(ctx, db); err != nil {
		db.Close()
		return nil, err
	}

	return db, nil
}

func applySchema(ctx context.Context, db *DB) error {
	if _, err := db.pool.Exec(ctx, schema); err != nil {
		return fmt.Errorf("failed to apply schema: %w", err)
	}
	return nil
}
