package commands

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/wonny/factorlab-lite/internal/scheduler/jobs"
)

// prewarmCmd represents the prewarm command
var prewarmCmd = &cobra.Command{
	Use:   "prewarm",
	Short: "Warm the pool and name caches once, immediately",
	Long: `Warm the pool and name caches once, immediately. Runs the same job
the serve scheduler triggers after the open, so a later screening run is
served from today's cache.`,
	RunE: runPrewarm,
}

func init() {
	rootCmd.AddCommand(prewarmCmd)
}

func runPrewarm(cmd *cobra.Command, args []string) error {
	a, err := newApp()
	if err != nil {
		return err
	}

	job := jobs.NewPrewarmJob(a.provider, a.cfg.AutoFillPoolSize, a.log)
	return job.Run(context.Background())
}
