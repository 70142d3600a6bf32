// Package store implements the persistence collaborators on PostgreSQL.
// All writes are natural-key upserts; a concurrent write on the same key
// resolves last-write-wins through ON CONFLICT, never as an error.
package store

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Migrate creates the analytics tables when they do not exist
func Migrate(ctx context.Context, pool *pgxpool.Pool) error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS security_snapshots (
			symbol        TEXT PRIMARY KEY,
			name          TEXT NOT NULL DEFAULT '',
			price         DOUBLE PRECISION NOT NULL,
			pe_ratio      DOUBLE PRECISION,
			week_high_52  DOUBLE PRECISION NOT NULL DEFAULT 0,
			week_low_52   DOUBLE PRECISION NOT NULL DEFAULT 0,
			market_cap    DOUBLE PRECISION,
			tracked       BOOLEAN NOT NULL DEFAULT TRUE,
			undervalued   BOOLEAN NOT NULL DEFAULT FALSE,
			source        TEXT NOT NULL DEFAULT '',
			updated_at    TIMESTAMPTZ NOT NULL DEFAULT now()
		)`,
		`CREATE TABLE IF NOT EXISTS institutional_holdings (
			symbol        TEXT NOT NULL,
			quarter       TEXT NOT NULL,
			fii_pct       DOUBLE PRECISION,
			dii_pct       DOUBLE PRECISION,
			total_pct     DOUBLE PRECISION,
			fii_change    DOUBLE PRECISION,
			dii_change    DOUBLE PRECISION,
			total_change  DOUBLE PRECISION,
			significant   BOOLEAN NOT NULL DEFAULT FALSE,
			prev_quarter  TEXT NOT NULL DEFAULT '',
			source        TEXT NOT NULL DEFAULT '',
			updated_at    TIMESTAMPTZ NOT NULL DEFAULT now(),
			PRIMARY KEY (symbol, quarter)
		)`,
		`CREATE TABLE IF NOT EXISTS quarter_results (
			symbol        TEXT NOT NULL,
			quarter       TEXT NOT NULL,
			period_end    DATE NOT NULL,
			expected_date DATE NOT NULL,
			actual_date   DATE,
			announced     BOOLEAN NOT NULL DEFAULT FALSE,
			revenue       DOUBLE PRECISION,
			net_profit    DOUBLE PRECISION,
			eps           DOUBLE PRECISION,
			updated_at    TIMESTAMPTZ NOT NULL DEFAULT now(),
			PRIMARY KEY (symbol, quarter)
		)`,
	}

	for _, stmt := range statements {
		if _, err := pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("migrate failed: %w", err)
		}
	}

	return nil
}
