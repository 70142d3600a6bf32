package commands

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

var refreshQuarter string

var refreshCmd = &cobra.Command{
	Use:   "refresh",
	Short: "Refresh security data from the external source",
}

var refreshSnapshotsCmd = &cobra.Command{
	Use:   "snapshots [symbols...]",
	Short: "Refresh price/valuation snapshots",
	Long: `Fetch and persist a valuation snapshot for each symbol. With no
symbols given, all tracked securities are refreshed.`,
	RunE: runRefreshSnapshots,
}

var refreshHoldingsCmd = &cobra.Command{
	Use:   "holdings [symbols...]",
	Short: "Refresh institutional holdings for a quarter",
	Long: `Fetch FII/DII holdings for each symbol, compute quarter-over-quarter
changes against the stored prior quarter, and persist the results.
The --quarter flag selects the target period (defaults to the current
calendar quarter).`,
	RunE: runRefreshHoldings,
}

func init() {
	refreshHoldingsCmd.Flags().StringVarP(&refreshQuarter, "quarter", "q", "", "target quarter, e.g. Q1-2025 (default: current)")
	refreshCmd.AddCommand(refreshSnapshotsCmd)
	refreshCmd.AddCommand(refreshHoldingsCmd)
	rootCmd.AddCommand(refreshCmd)
}

// resolveSymbols falls back to the tracked universe when no symbols are
// given on the command line
func resolveSymbols(ctx context.Context, a *app, args []string) ([]string, error) {
	if len(args) > 0 {
		return args, nil
	}
	tracked, err := a.snapshotRepo.GetTracked(ctx)
	if err != nil {
		return nil, fmt.Errorf("load tracked securities: %w", err)
	}
	symbols := make([]string, 0, len(tracked))
	for _, s := range tracked {
		symbols = append(symbols, s.Symbol)
	}
	if len(symbols) == 0 {
		return nil, fmt.Errorf("no symbols given and no tracked securities found")
	}
	return symbols, nil
}

func runRefreshSnapshots(cmd *cobra.Command, args []string) error {
	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.Close()

	ctx := context.Background()
	symbols, err := resolveSymbols(ctx, a, args)
	if err != nil {
		return err
	}

	results := a.engine.RefreshSnapshots(ctx, symbols)

	succeeded := 0
	for _, r := range results {
		if r.Success {
			succeeded++
			continue
		}
		fmt.Printf("  FAIL %s: %s\n", r.Symbol, r.Error)
	}
	fmt.Printf("Refreshed %d/%d snapshots\n", succeeded, len(results))
	return nil
}

func runRefreshHoldings(cmd *cobra.Command, args []string) error {
	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.Close()

	ctx := context.Background()
	symbols, err := resolveSymbols(ctx, a, args)
	if err != nil {
		return err
	}

	results, err := a.engine.RefreshHoldings(ctx, symbols, strings.TrimSpace(refreshQuarter))
	if err != nil {
		return err
	}

	succeeded := 0
	for _, r := range results {
		if r.Success {
			succeeded++
			if r.Holding != nil && r.Holding.Significant {
				fmt.Printf("  SIGNIFICANT %s %s\n", r.Symbol, r.Holding.Quarter)
			}
			continue
		}
		fmt.Printf("  FAIL %s: %s\n", r.Symbol, r.Error)
	}
	fmt.Printf("Refreshed %d/%d holdings\n", succeeded, len(results))
	return nil
}
