package commands

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

// poolCmd represents the pool command
var poolCmd = &cobra.Command{
	Use:   "pool",
	Short: "Show the automatic candidate pool",
	Long: `Show the automatic candidate pool, ranked by descending traded
turnover as of the most recent snapshot. Served from the same-day cache when
one exists.

Example:
  lite pool --limit 20`,
	RunE: runPool,
}

var poolLimit int

func init() {
	rootCmd.AddCommand(poolCmd)

	poolCmd.Flags().IntVar(&poolLimit, "limit", 20, "pool size")
}

func runPool(cmd *cobra.Command, args []string) error {
	a, err := newApp()
	if err != nil {
		return err
	}

	candidates, err := a.provider.AutoPool(context.Background(), poolLimit)
	if err != nil {
		return err
	}

	fmt.Printf("%-4s %-8s %s\n", "#", "code", "name")
	for i, candidate := range candidates {
		fmt.Printf("%-4d %-8s %s\n", i+1, candidate.Code, candidate.Name)
	}
	return nil
}
