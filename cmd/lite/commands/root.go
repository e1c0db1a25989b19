package commands

import (
	"github.com/spf13/cobra"
)

var (
	// Global flags
	debugErrors bool
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "lite",
	Short: "FactorLab Lite - four-factor equity health check",
	Long: `FactorLab Lite

Screens a pool of A-share tickers against end-of-day market data and scores
each on four weighted factors: valuation, quality, momentum and volatility.
Free tier: at most 3 charged runs per day, Top 3 results shown.

This tool issues no orders and predicts no prices; it is a research aid,
not investment advice.

Examples:
  lite run --codes "600519 000858 600036"
  lite run --auto --limit 20
  lite pool --limit 20
  lite quota
  lite serve`,
	SilenceUsage: true,
}

// Execute adds all child commands to the root command and sets flags
// appropriately. This is called by main.main().
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().BoolVar(&debugErrors, "debug-errors", false, "show raw per-code error messages")
}
