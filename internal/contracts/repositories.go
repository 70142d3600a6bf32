package contracts

import "context"

// SnapshotRepository manages security snapshots
type SnapshotRepository interface {
	GetBySymbol(ctx context.Context, symbol string) (*SecuritySnapshot, error)
	GetAll(ctx context.Context) ([]*SecuritySnapshot, error)
	GetTracked(ctx context.Context) ([]*SecuritySnapshot, error)
	Upsert(ctx context.Context, snapshot *SecuritySnapshot) error
	// SetTracked flips the tracked flag for one security
	SetTracked(ctx context.Context, symbol string, tracked bool) error
	// SetUndervalued overwrites the undervalued flag for every row: true
	// for the given symbols, false for all others, in a single pass.
	SetUndervalued(ctx context.Context, symbols []string) error
}

// HoldingRepository manages institutional holding records keyed by
// (symbol, quarter)
type HoldingRepository interface {
	GetBySymbolAndQuarter(ctx context.Context, symbol, quarter string) (*InstitutionalHolding, error)
	GetBySymbol(ctx context.Context, symbol string) ([]*InstitutionalHolding, error)
	GetSignificant(ctx context.Context, minChangePct float64) ([]*InstitutionalHolding, error)
	Upsert(ctx context.Context, holding *InstitutionalHolding) error
}

// ResultRepository manages quarterly result records keyed by
// (symbol, quarter)
type ResultRepository interface {
	GetBySymbolAndQuarter(ctx context.Context, symbol, quarter string) (*QuarterResult, error)
	GetBySymbol(ctx context.Context, symbol string) ([]*QuarterResult, error)
	GetUnannounced(ctx context.Context) ([]*QuarterResult, error)
	Upsert(ctx context.Context, result *QuarterResult) error
}
