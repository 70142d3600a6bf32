package store

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/quantlens/stockpulse/internal/contracts"
)

// ResultRepository implements contracts.ResultRepository
type ResultRepository struct {
	pool *pgxpool.Pool
}

// NewResultRepository creates a new result repository
func NewResultRepository(pool *pgxpool.Pool) *ResultRepository {
	return &ResultRepository{pool: pool}
}

const resultColumns = `symbol, quarter, period_end, expected_date, actual_date,
	announced, revenue, net_profit, eps, updated_at`

func scanResult(row pgx.Row) (*contracts.QuarterResult, error) {
	var q contracts.QuarterResult
	err := row.Scan(
		&q.Symbol, &q.Quarter, &q.PeriodEnd, &q.ExpectedDate, &q.ActualDate,
		&q.Announced, &q.Revenue, &q.NetProfit, &q.EPS, &q.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &q, nil
}

// GetBySymbolAndQuarter retrieves one record; a missing row returns (nil, nil)
func (r *ResultRepository) GetBySymbolAndQuarter(ctx context.Context, symbol, quarter string) (*contracts.QuarterResult, error) {
	query := `SELECT ` + resultColumns + ` FROM quarter_results WHERE symbol = $1 AND quarter = $2`

	q, err := scanResult(r.pool.QueryRow(ctx, query, symbol, quarter))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	return q, err
}

// GetBySymbol retrieves all result records for a symbol
func (r *ResultRepository) GetBySymbol(ctx context.Context, symbol string) ([]*contracts.QuarterResult, error) {
	query := `SELECT ` + resultColumns + ` FROM quarter_results WHERE symbol = $1 ORDER BY period_end DESC`
	return r.queryMany(ctx, query, symbol)
}

// GetUnannounced retrieves records still waiting for an announcement
func (r *ResultRepository) GetUnannounced(ctx context.Context) ([]*contracts.QuarterResult, error) {
	query := `SELECT ` + resultColumns + ` FROM quarter_results WHERE NOT announced ORDER BY expected_date, symbol`
	return r.queryMany(ctx, query)
}

func (r *ResultRepository) queryMany(ctx context.Context, query string, args ...interface{}) ([]*contracts.QuarterResult, error) {
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var results []*contracts.QuarterResult
	for rows.Next() {
		q, err := scanResult(rows)
		if err != nil {
			return nil, err
		}
		results = append(results, q)
	}
	return results, rows.Err()
}

// Upsert saves a record keyed by (symbol, quarter)
func (r *ResultRepository) Upsert(ctx context.Context, q *contracts.QuarterResult) error {
	query := `
		INSERT INTO quarter_results (` + resultColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		ON CONFLICT (symbol, quarter) DO UPDATE SET
			period_end = EXCLUDED.period_end,
			expected_date = EXCLUDED.expected_date,
			actual_date = EXCLUDED.actual_date,
			announced = EXCLUDED.announced,
			revenue = EXCLUDED.revenue,
			net_profit = EXCLUDED.net_profit,
			eps = EXCLUDED.eps,
			updated_at = EXCLUDED.updated_at
	`

	_, err := r.pool.Exec(ctx, query,
		q.Symbol, q.Quarter, q.PeriodEnd, q.ExpectedDate, q.ActualDate,
		q.Announced, q.Revenue, q.NetProfit, q.EPS, q.UpdatedAt,
	)
	return err
}
