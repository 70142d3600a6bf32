package store

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/quantlens/stockpulse/internal/contracts"
)

// HoldingRepository implements contracts.HoldingRepository
type HoldingRepository struct {
	pool *pgxpool.Pool
}

// NewHoldingRepository creates a new holding repository
func NewHoldingRepository(pool *pgxpool.Pool) *HoldingRepository {
	return &HoldingRepository{pool: pool}
}

const holdingColumns = `symbol, quarter, fii_pct, dii_pct, total_pct,
	fii_change, dii_change, total_change, significant, prev_quarter, source, updated_at`

func scanHolding(row pgx.Row) (*contracts.InstitutionalHolding, error) {
	var h contracts.InstitutionalHolding
	err := row.Scan(
		&h.Symbol, &h.Quarter, &h.FIIPct, &h.DIIPct, &h.TotalPct,
		&h.FIIChange, &h.DIIChange, &h.TotalChange, &h.Significant,
		&h.PrevQuarter, &h.Source, &h.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &h, nil
}

// GetBySymbolAndQuarter retrieves one record; a missing row returns
// (nil, nil) so callers can treat "no prior period" as data, not error
func (r *HoldingRepository) GetBySymbolAndQuarter(ctx context.Context, symbol, quarter string) (*contracts.InstitutionalHolding, error) {
	query := `SELECT ` + holdingColumns + ` FROM institutional_holdings WHERE symbol = $1 AND quarter = $2`

	h, err := scanHolding(r.pool.QueryRow(ctx, query, symbol, quarter))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	return h, err
}

// GetBySymbol retrieves all records for a symbol, newest first by
// (year, quarter) order encoded in the token suffix
func (r *HoldingRepository) GetBySymbol(ctx context.Context, symbol string) ([]*contracts.InstitutionalHolding, error) {
	query := `SELECT ` + holdingColumns + `
		FROM institutional_holdings
		WHERE symbol = $1
		ORDER BY split_part(quarter, '-', 2) DESC, split_part(quarter, '-', 1) DESC`
	return r.queryMany(ctx, query, symbol)
}

// GetSignificant retrieves significant records whose largest absolute
// delta is at least minChangePct
func (r *HoldingRepository) GetSignificant(ctx context.Context, minChangePct float64) ([]*contracts.InstitutionalHolding, error) {
	query := `SELECT ` + holdingColumns + `
		FROM institutional_holdings
		WHERE significant
		  AND GREATEST(ABS(COALESCE(fii_change, 0)), ABS(COALESCE(dii_change, 0)), ABS(COALESCE(total_change, 0))) >= $1
		ORDER BY GREATEST(ABS(COALESCE(fii_change, 0)), ABS(COALESCE(dii_change, 0)), ABS(COALESCE(total_change, 0))) DESC`
	return r.queryMany(ctx, query, minChangePct)
}

func (r *HoldingRepository) queryMany(ctx context.Context, query string, args ...interface{}) ([]*contracts.InstitutionalHolding, error) {
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var holdings []*contracts.InstitutionalHolding
	for rows.Next() {
		h, err := scanHolding(rows)
		if err != nil {
			return nil, err
		}
		holdings = append(holdings, h)
	}
	return holdings, rows.Err()
}

// Upsert saves a record keyed by (symbol, quarter). Re-running for the
// same period recomputes in place and never duplicates rows.
func (r *HoldingRepository) Upsert(ctx context.Context, h *contracts.InstitutionalHolding) error {
	query := `
		INSERT INTO institutional_holdings (` + holdingColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		ON CONFLICT (symbol, quarter) DO UPDATE SET
			fii_pct = EXCLUDED.fii_pct,
			dii_pct = EXCLUDED.dii_pct,
			total_pct = EXCLUDED.total_pct,
			fii_change = EXCLUDED.fii_change,
			dii_change = EXCLUDED.dii_change,
			total_change = EXCLUDED.total_change,
			significant = EXCLUDED.significant,
			prev_quarter = EXCLUDED.prev_quarter,
			source = EXCLUDED.source,
			updated_at = EXCLUDED.updated_at
	`

	_, err := r.pool.Exec(ctx, query,
		h.Symbol, h.Quarter, h.FIIPct, h.DIIPct, h.TotalPct,
		h.FIIChange, h.DIIChange, h.TotalChange, h.Significant,
		h.PrevQuarter, h.Source, h.UpdatedAt,
	)
	return err
}
