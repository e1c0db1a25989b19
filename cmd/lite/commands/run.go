package commands

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/wonny/factorlab-lite/internal/contracts"
	"github.com/wonny/factorlab-lite/internal/runner"
)

// runCmd represents the run command
var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run one screening batch (consumes 1 daily run when it succeeds)",
	Long: `Run one screening batch.

Scores each candidate on valuation, quality, momentum and volatility, ranks
the successes and prints the Top 3. A run counts against the daily quota only
when enough candidates score successfully.

Candidates come from either:
  --codes  a manual list (comma/space separated, .SH/.SZ suffixes accepted)
  --auto   the automatic pool, ranked by traded turnover

Examples:
  lite run --codes "600519 000858 600036 000333 601318 000001"
  lite run --auto --limit 20`,
	RunE: runScreening,
}

var (
	runCodes string
	runAuto  bool
	runLimit int
)

func init() {
	rootCmd.AddCommand(runCmd)

	runCmd.Flags().StringVar(&runCodes, "codes", "", "manual candidate codes")
	runCmd.Flags().BoolVar(&runAuto, "auto", false, "use the automatic candidate pool")
	runCmd.Flags().IntVar(&runLimit, "limit", 20, "automatic pool size")
}

func runScreening(cmd *cobra.Command, args []string) error {
	if runCodes == "" && !runAuto {
		return fmt.Errorf("either --codes or --auto is required")
	}
	if runCodes != "" && runAuto {
		return fmt.Errorf("--codes and --auto are mutually exclusive")
	}

	a, err := newApp()
	if err != nil {
		return err
	}
	if err := a.requireLicense(); err != nil {
		return err
	}

	remaining, err := a.quota.Remaining()
	if err != nil {
		return fmt.Errorf("quota check failed: %w", err)
	}
	fmt.Printf("Runs remaining today: %d/%d\n", remaining, a.cfg.MaxDailyRuns)
	if remaining <= 0 {
		return fmt.Errorf("daily run quota exhausted; it resets tomorrow")
	}

	req := runner.Request{AutoLimit: runLimit}
	if runCodes != "" {
		req.Codes = contracts.ParseCodes(runCodes)
		if len(req.Codes) == 0 {
			return fmt.Errorf("no valid 6-digit code in --codes")
		}
	}

	outcome, err := a.runner.Run(context.Background(), req)
	if err != nil {
		if errors.Is(err, runner.ErrNoResults) {
			printFailureSummary(outcome)
			return fmt.Errorf("run produced no usable results, try again later")
		}
		return err
	}

	printOutcome(outcome)
	if remaining, err := a.quota.Remaining(); err == nil {
		fmt.Printf("\nRuns remaining today: %d/%d\n", remaining, a.cfg.MaxDailyRuns)
	}
	return nil
}

func printOutcome(outcome *contracts.RunOutcome) {
	fmt.Printf("\nAttempted %d, scored %d, failed %d", outcome.Attempted, outcome.Succeeded, outcome.Failed)
	if outcome.BudgetExhausted {
		fmt.Print(" (time budget exhausted, remaining candidates skipped)")
	}
	fmt.Println()
	if !outcome.Charged {
		fmt.Println("Below the charge threshold: this run does not count against the quota.")
	}

	fmt.Printf("\nTop %d candidates:\n", len(outcome.Top(topDisplayed)))
	fmt.Printf("%-8s %-10s %7s %-8s %-7s\n", "code", "name", "score", "signal", "risk")
	for _, res := range outcome.Top(topDisplayed) {
		fmt.Printf("%-8s %-10s %7.1f %-8s %-7s\n", res.Code, res.Name, res.Score, res.Signal, res.RiskTag)
	}

	best := outcome.Results[0]
	fmt.Printf("\nBest candidate: %s (%s, %s risk)\n", best.Name, best.Signal, best.RiskTag)
	fmt.Printf("  60d return %+.2f%% | annualized volatility %.2f%% | max drawdown %.2f%%\n",
		best.Return60d, best.AnnualVolatility, best.MaxDrawdown)
	fmt.Printf("  %s\n", best.Explanation)

	printFailureSummary(outcome)
}

// printFailureSummary reports failures by count; raw messages only under
// --debug-errors
func printFailureSummary(outcome *contracts.RunOutcome) {
	if outcome == nil || outcome.Failed == 0 {
		return
	}
	fmt.Printf("\n%d candidate(s) skipped (%d network, %d data); Top results are unaffected.\n",
		outcome.Failed, outcome.NetworkFailures, outcome.DataFailures)
	if debugErrors {
		for _, failure := range outcome.Errors {
			fmt.Printf("  %s [%s]: %s\n", failure.Code, failure.Kind, failure.Message)
		}
	}
}
