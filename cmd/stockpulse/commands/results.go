package commands

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"
)

var (
	resultsPeriodsAhead int
	announceDate        string
	announceRevenue     float64
	announceNetProfit   float64
	announceEPS         float64
)

var resultsCmd = &cobra.Command{
	Use:   "results",
	Short: "Manage quarterly result schedules",
}

var resultsGenerateCmd = &cobra.Command{
	Use:   "generate",
	Short: "Generate upcoming result entries for tracked securities",
	RunE:  runResultsGenerate,
}

var resultsAnnounceCmd = &cobra.Command{
	Use:   "announce <symbol> <quarter>",
	Short: "Mark a quarterly result as announced",
	Args:  cobra.ExactArgs(2),
	RunE:  runResultsAnnounce,
}

var resultsUpcomingCmd = &cobra.Command{
	Use:   "upcoming",
	Short: "List unannounced result entries",
	RunE:  runResultsUpcoming,
}

func init() {
	resultsGenerateCmd.Flags().IntVar(&resultsPeriodsAhead, "periods-ahead", 2, "number of future quarters to materialize")
	resultsAnnounceCmd.Flags().StringVar(&announceDate, "date", "", "announcement date YYYY-MM-DD (default: today)")
	resultsAnnounceCmd.Flags().Float64Var(&announceRevenue, "revenue", 0, "reported revenue")
	resultsAnnounceCmd.Flags().Float64Var(&announceNetProfit, "net-profit", 0, "reported net profit")
	resultsAnnounceCmd.Flags().Float64Var(&announceEPS, "eps", 0, "reported earnings per share")
	resultsCmd.AddCommand(resultsGenerateCmd)
	resultsCmd.AddCommand(resultsAnnounceCmd)
	resultsCmd.AddCommand(resultsUpcomingCmd)
	rootCmd.AddCommand(resultsCmd)
}

func runResultsGenerate(cmd *cobra.Command, args []string) error {
	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.Close()

	outcomes, err := a.engine.GenerateUpcomingResults(context.Background(), resultsPeriodsAhead)
	if err != nil {
		return err
	}

	succeeded := 0
	for _, o := range outcomes {
		if o.Success {
			succeeded++
			continue
		}
		fmt.Printf("  FAIL %s %s: %s\n", o.Symbol, o.Quarter, o.Error)
	}
	fmt.Printf("Materialized %d/%d result entries\n", succeeded, len(outcomes))
	return nil
}

func runResultsAnnounce(cmd *cobra.Command, args []string) error {
	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.Close()

	actualDate := time.Now()
	if announceDate != "" {
		actualDate, err = time.Parse("2006-01-02", announceDate)
		if err != nil {
			return fmt.Errorf("invalid --date %q: %w", announceDate, err)
		}
	}

	var revenue, netProfit, eps *float64
	if cmd.Flags().Changed("revenue") {
		revenue = &announceRevenue
	}
	if cmd.Flags().Changed("net-profit") {
		netProfit = &announceNetProfit
	}
	if cmd.Flags().Changed("eps") {
		eps = &announceEPS
	}

	record, err := a.engine.MarkAnnounced(context.Background(), args[0], args[1], actualDate, revenue, netProfit, eps)
	if err != nil {
		return err
	}

	fmt.Printf("Announced %s %s on %s\n", record.Symbol, record.Quarter, record.ActualDate.Format("2006-01-02"))
	return nil
}

func runResultsUpcoming(cmd *cobra.Command, args []string) error {
	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.Close()

	records, err := a.resultRepo.GetUnannounced(context.Background())
	if err != nil {
		return err
	}

	now := time.Now()
	for _, r := range records {
		marker := ""
		if r.OverdueAt(now) {
			marker = "  OVERDUE"
		}
		fmt.Printf("  %-12s %s expected %s%s\n", r.Symbol, r.Quarter, r.ExpectedDate.Format("2006-01-02"), marker)
	}
	fmt.Printf("%d unannounced result entries\n", len(records))
	return nil
}
