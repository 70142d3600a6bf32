package commands

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

var scoreCmd = &cobra.Command{
	Use:   "score",
	Short: "Score all stored securities for undervaluation",
	Long: `Run the valuation scorer over every stored snapshot and overwrite
the persisted undervalued flags. Securities scoring at or above the
threshold are printed with their contributing factors.`,
	RunE: runScore,
}

func init() {
	rootCmd.AddCommand(scoreCmd)
}

func runScore(cmd *cobra.Command, args []string) error {
	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.Close()

	scored, err := a.engine.ScoreUndervalued(context.Background())
	if err != nil {
		return err
	}

	undervalued := 0
	for _, s := range scored {
		if !s.Undervalued {
			continue
		}
		undervalued++
		fmt.Printf("  %-12s score=%d  %s\n", s.Snapshot.Symbol, s.Score, strings.Join(s.Reasons, "; "))
	}
	fmt.Printf("Scored %d securities, %d undervalued\n", len(scored), undervalued)
	return nil
}
