package commands

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/wonny/factorlab-lite/internal/api"
	"github.com/wonny/factorlab-lite/internal/api/handlers"
	"github.com/wonny/factorlab-lite/internal/scheduler"
	"github.com/wonny/factorlab-lite/internal/scheduler/jobs"
)

// serveCmd represents the serve command
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API server with the cache prewarm scheduler",
	Long: `Start the HTTP API server.

Endpoints:
  GET  /health      - health check
  POST /api/screen  - run one screening batch
  GET  /api/pool    - current auto candidate pool
  GET  /api/quota   - remaining runs today

A cron scheduler keeps the day's pool and name caches warm on trading
mornings so interactive runs stay inside the time budget.

Example:
  lite serve
  lite serve --no-prewarm`,
	RunE: runServe,
}

var serveNoPrewarm bool

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().BoolVar(&serveNoPrewarm, "no-prewarm", false, "disable the cache prewarm scheduler")
}

func runServe(cmd *cobra.Command, args []string) error {
	a, err := newApp()
	if err != nil {
		return err
	}
	if err := a.requireLicense(); err != nil {
		return err
	}

	screenHandler := handlers.NewScreenHandler(
		a.runner, a.provider, a.quota, topDisplayed, a.cfg.MaxDailyRuns, a.log)
	router := api.NewRouter(screenHandler, a.log)
	server := api.New(a.cfg, a.log, router)

	var sched *scheduler.Scheduler
	if !serveNoPrewarm {
		sched = scheduler.New(a.log)
		if err := sched.AddJob(jobs.NewPrewarmJob(a.provider, a.cfg.AutoFillPoolSize, a.log)); err != nil {
			return err
		}
		sched.Start()
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.Start()
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-errCh:
		if sched != nil {
			sched.Stop()
		}
		return err
	case sig := <-sigCh:
		a.log.WithField("signal", sig.String()).Info("Shutting down")
	}

	if sched != nil {
		sched.Stop()
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return server.Shutdown(ctx)
}
