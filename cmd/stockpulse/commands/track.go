package commands

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

var trackCmd = &cobra.Command{
	Use:   "track <symbol>",
	Short: "Add a security to the scheduled universe",
	Long: `Mark a stored security as tracked. Tracked securities are picked up
by the scheduled refresh, scoring and result-generation passes.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runSetTracked(args[0], true)
	},
}

var untrackCmd = &cobra.Command{
	Use:   "untrack <symbol>",
	Short: "Remove a security from the scheduled universe",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runSetTracked(args[0], false)
	},
}

func init() {
	rootCmd.AddCommand(trackCmd)
	rootCmd.AddCommand(untrackCmd)
}

func runSetTracked(symbol string, tracked bool) error {
	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.Close()

	if err := a.engine.SetTracked(context.Background(), symbol, tracked); err != nil {
		return err
	}

	state := "tracked"
	if !tracked {
		state = "untracked"
	}
	fmt.Printf("%s is now %s\n", strings.ToUpper(strings.TrimSpace(symbol)), state)
	return nil
}
