package commands

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

// historyCmd represents the history command
var historyCmd = &cobra.Command{
	Use:   "history [code]",
	Short: "Show the cleaned daily history for one ticker",
	Long: `Show the cleaned daily price history for one ticker, most recent
bars last. Served from the per-symbol cache when one holds enough bars.

Example:
  lite history 600519 --bars 10`,
	Args: cobra.ExactArgs(1),
	RunE: runHistory,
}

var historyBars int

func init() {
	rootCmd.AddCommand(historyCmd)

	historyCmd.Flags().IntVar(&historyBars, "bars", 10, "number of trailing bars to show")
}

func runHistory(cmd *cobra.Command, args []string) error {
	if historyBars < 1 {
		return fmt.Errorf("--bars must be >= 1")
	}

	a, err := newApp()
	if err != nil {
		return err
	}

	history, err := a.provider.History(context.Background(), args[0])
	if err != nil {
		return err
	}

	fmt.Printf("%d usable bars; showing the last %d:\n\n", len(history), min(historyBars, len(history)))
	fmt.Printf("%-12s %9s %9s %9s %9s %12s\n", "date", "open", "high", "low", "close", "volume")
	for _, bar := range history.Tail(historyBars) {
		fmt.Printf("%-12s %9.2f %9.2f %9.2f %9.2f %12.0f\n",
			bar.Date.Format("2006-01-02"), bar.Open, bar.High, bar.Low, bar.Close, bar.Volume)
	}
	return nil
}
