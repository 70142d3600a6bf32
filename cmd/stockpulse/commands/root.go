package commands

import (
	"github.com/spf13/cobra"
)

var (
	// Global flags
	verbose bool
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "stockpulse",
	Short: "stockpulse - valuation & institutional activity analytics",
	Long: `stockpulse ingests per-security market data and derives three
analytical artifacts: an undervaluation score, a classified
institutional-activity signal per reporting period, and a scheduled
quarterly-result tracker.

Usage:
  go run ./cmd/stockpulse [command]

Examples:
  go run ./cmd/stockpulse api
  go run ./cmd/stockpulse refresh snapshots RELIANCE TCS INFY
  go run ./cmd/stockpulse refresh holdings --quarter Q1-2025 RELIANCE
  go run ./cmd/stockpulse score
  go run ./cmd/stockpulse results generate
  go run ./cmd/stockpulse scheduler start`,
}

// Execute adds all child commands to the root command and sets flags
// appropriately. This is called by main.main().
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
}
