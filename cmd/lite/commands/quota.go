package commands

import (
	"fmt"

	"github.com/spf13/cobra"
)

// quotaCmd represents the quota command
var quotaCmd = &cobra.Command{
	Use:   "quota",
	Short: "Show today's remaining runs",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp()
		if err != nil {
			return err
		}

		remaining, err := a.quota.Remaining()
		if err != nil {
			return fmt.Errorf("quota check failed: %w", err)
		}
		fmt.Printf("Runs remaining today: %d/%d\n", remaining, a.cfg.MaxDailyRuns)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(quotaCmd)
}
