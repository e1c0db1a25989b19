package commands

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/wonny/factorlab-lite/internal/external/eastmoney"
	"github.com/wonny/factorlab-lite/internal/license"
	"github.com/wonny/factorlab-lite/internal/provider"
	"github.com/wonny/factorlab-lite/internal/quota"
	"github.com/wonny/factorlab-lite/internal/runner"
	"github.com/wonny/factorlab-lite/internal/scoring"
	"github.com/wonny/factorlab-lite/internal/store"
	"github.com/wonny/factorlab-lite/pkg/config"
	"github.com/wonny/factorlab-lite/pkg/httputil"
	"github.com/wonny/factorlab-lite/pkg/logger"
)

// topDisplayed is how many ranked results the free tier exposes
const topDisplayed = 3

// app wires the full dependency graph once per command invocation
type app struct {
	cfg      *config.Config
	log      *logger.Logger
	provider *provider.Provider
	runner   *runner.Runner
	quota    *quota.FileStore
}

// newApp builds config → logger → http client → market client → cache store
// → provider → quota → runner. Every collaborator is injected explicitly so
// no package touches ambient global state.
func newApp() (*app, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	log := logger.New(cfg)

	httpClient := httputil.New(cfg, log)
	marketClient := eastmoney.NewClient(httpClient, log)

	cacheStore, err := store.New(cfg.CacheDir, log)
	if err != nil {
		return nil, err
	}

	dataProvider := provider.New(marketClient, cacheStore, provider.Config{
		MinHistoryBars:      cfg.MinHistoryBars,
		HistoryLookbackDays: cfg.HistoryLookbackDays,
	}, log)

	quotaStore := quota.New(filepath.Join(cfg.StateDir, "run_limit.json"), cfg.MaxDailyRuns)

	run := runner.New(dataProvider, scoring.New(), quotaStore, runner.Config{
		MaxUniverseSize:    cfg.MaxUniverseSize,
		RunBudget:          cfg.RunBudget,
		AutoFillTarget:     cfg.AutoFillTarget,
		AutoFillPoolSize:   cfg.AutoFillPoolSize,
		MinSuccessToCharge: cfg.MinSuccessToCharge,
		TopN:               topDisplayed,
	}, log)

	return &app{
		cfg:      cfg,
		log:      log,
		provider: dataProvider,
		runner:   run,
		quota:    quotaStore,
	}, nil
}

// requireLicense enforces the license gate when enabled. The orchestrator
// and acquisition layer are agnostic to whether this gate is active.
func (a *app) requireLicense() error {
	if !a.cfg.RequireLicense {
		return nil
	}

	publicKeyPath := a.cfg.PublicKeyPath
	if publicKeyPath == "" {
		publicKeyPath = filepath.Join(a.cfg.StateDir, "public_key.pem")
	}
	licensePath := a.cfg.LicensePath
	if licensePath == "" {
		licensePath = filepath.Join(a.cfg.StateDir, "license.key")
	}

	if _, err := os.Stat(publicKeyPath); err != nil {
		return fmt.Errorf("public key not found at %s; cannot verify license", publicKeyPath)
	}
	if _, err := os.Stat(licensePath); err != nil {
		return fmt.Errorf("license file not found at %s; machine code: %s", licensePath, license.MachineCode())
	}

	info, err := license.VerifyFile(licensePath, publicKeyPath, "")
	if err != nil {
		return err
	}
	a.log.WithFields(map[string]interface{}{
		"license_id": info.LicenseID,
		"expires_at": info.ExpiresAt,
	}).Info("License verified")
	return nil
}
