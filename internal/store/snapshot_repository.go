package store

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/quantlens/stockpulse/internal/contracts"
)

// SnapshotRepository implements contracts.SnapshotRepository
type SnapshotRepository struct {
	pool *pgxpool.Pool
}

// NewSnapshotRepository creates a new snapshot repository
func NewSnapshotRepository(pool *pgxpool.Pool) *SnapshotRepository {
	return &SnapshotRepository{pool: pool}
}

const snapshotColumns = `symbol, name, price, pe_ratio, week_high_52, week_low_52,
	market_cap, tracked, undervalued, source, updated_at`

func scanSnapshot(row pgx.Row) (*contracts.SecuritySnapshot, error) {
	var s contracts.SecuritySnapshot
	err := row.Scan(
		&s.Symbol, &s.Name, &s.Price, &s.PERatio, &s.WeekHigh52, &s.WeekLow52,
		&s.MarketCap, &s.Tracked, &s.Undervalued, &s.Source, &s.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &s, nil
}

// GetBySymbol retrieves one snapshot; a missing row returns (nil, nil)
func (r *SnapshotRepository) GetBySymbol(ctx context.Context, symbol string) (*contracts.SecuritySnapshot, error) {
	query := `SELECT ` + snapshotColumns + ` FROM security_snapshots WHERE symbol = $1`

	s, err := scanSnapshot(r.pool.QueryRow(ctx, query, symbol))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	return s, err
}

// GetAll retrieves every snapshot
func (r *SnapshotRepository) GetAll(ctx context.Context) ([]*contracts.SecuritySnapshot, error) {
	query := `SELECT ` + snapshotColumns + ` FROM security_snapshots ORDER BY symbol`
	return r.queryMany(ctx, query)
}

// GetTracked retrieves snapshots flagged as tracked by the user
func (r *SnapshotRepository) GetTracked(ctx context.Context) ([]*contracts.SecuritySnapshot, error) {
	query := `SELECT ` + snapshotColumns + ` FROM security_snapshots WHERE tracked ORDER BY symbol`
	return r.queryMany(ctx, query)
}

func (r *SnapshotRepository) queryMany(ctx context.Context, query string, args ...interface{}) ([]*contracts.SecuritySnapshot, error) {
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var snapshots []*contracts.SecuritySnapshot
	for rows.Next() {
		s, err := scanSnapshot(rows)
		if err != nil {
			return nil, err
		}
		snapshots = append(snapshots, s)
	}
	return snapshots, rows.Err()
}

// Upsert saves a snapshot keyed by symbol. The tracked flag is user
// intent and survives refreshes; everything else is overwritten.
func (r *SnapshotRepository) Upsert(ctx context.Context, s *contracts.SecuritySnapshot) error {
	query := `
		INSERT INTO security_snapshots (` + snapshotColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		ON CONFLICT (symbol) DO UPDATE SET
			name = EXCLUDED.name,
			price = EXCLUDED.price,
			pe_ratio = EXCLUDED.pe_ratio,
			week_high_52 = EXCLUDED.week_high_52,
			week_low_52 = EXCLUDED.week_low_52,
			market_cap = EXCLUDED.market_cap,
			source = EXCLUDED.source,
			updated_at = EXCLUDED.updated_at
	`

	_, err := r.pool.Exec(ctx, query,
		s.Symbol, s.Name, s.Price, s.PERatio, s.WeekHigh52, s.WeekLow52,
		s.MarketCap, s.Tracked, s.Undervalued, s.Source, s.UpdatedAt,
	)
	return err
}

// SetTracked flips the tracked flag for one security
func (r *SnapshotRepository) SetTracked(ctx context.Context, symbol string, tracked bool) error {
	query := `UPDATE security_snapshots SET tracked = $2 WHERE symbol = $1`
	_, err := r.pool.Exec(ctx, query, symbol, tracked)
	return err
}

// SetUndervalued overwrites the undervalued flag wholesale: true for the
// given symbols, false everywhere else, in one statement.
func (r *SnapshotRepository) SetUndervalued(ctx context.Context, symbols []string) error {
	query := `UPDATE security_snapshots SET undervalued = (symbol = ANY($1))`
	_, err := r.pool.Exec(ctx, query, symbols)
	return err
}
