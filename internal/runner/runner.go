// Package runner drives one bounded batch evaluation: it resolves the
// candidate list, walks it under a wall-clock budget, supplements an
// under-filled manual pool from the auto pool, and decides whether the run
// counts against the daily quota.
package runner

import (
	"context"
	"errors"
	"sort"
	"time"

	"github.com/wonny/factorlab-lite/internal/contracts"
	"github.com/wonny/factorlab-lite/pkg/logger"
)

var (
	// ErrEmptyCandidates means no valid candidate survived preparation;
	// the run never started and is not charged.
	ErrEmptyCandidates = errors.New("no valid candidates to evaluate")
	// ErrNoResults means every attempted candidate failed; the run is
	// failed and not charged.
	ErrNoResults = errors.New("run produced no results")
)

// Config holds the orchestration tunables
type Config struct {
	MaxUniverseSize    int
	RunBudget          time.Duration
	AutoFillTarget     int
	AutoFillPoolSize   int
	MinSuccessToCharge int
	TopN               int
}

// Request describes one run. Codes selects the manual pool; when empty the
// automatic pool of AutoLimit candidates is evaluated instead.
type Request struct {
	Codes     []string
	AutoLimit int
}

// Runner is the run orchestrator. Single-threaded and synchronous: every
// acquisition call blocks the loop, which is why the wall-clock budget
// exists as a coarse cancellation mechanism. The budget is checked only at
// iteration boundaries; a single slow upstream call can overrun it.
type Runner struct {
	provider contracts.DataProvider
	scorer   contracts.Scorer
	quota    contracts.QuotaStore
	cfg      Config
	logger   *logger.Logger
	now      func() time.Time
}

// New creates a Runner with its injected collaborators
func New(provider contracts.DataProvider, scorer contracts.Scorer, quota contracts.QuotaStore, cfg Config, log *logger.Logger) *Runner {
	return &Runner{
		provider: provider,
		scorer:   scorer,
		quota:    quota,
		cfg:      cfg,
		logger:   log,
		now:      time.Now,
	}
}

// WithClock overrides the wall clock. Intended for tests.
func (r *Runner) WithClock(now func() time.Time) *Runner {
	r.now = now
	return r
}

// Run executes one batch evaluation. Per-candidate failures are recorded and
// never abort the run; only an empty candidate list or zero total successes
// fails it. On failure the partially filled outcome is still returned for
// diagnostics.
func (r *Runner) Run(ctx context.Context, req Request) (*contracts.RunOutcome, error) {
	deadline := r.now().Add(r.cfg.RunBudget)
	outcome := &contracts.RunOutcome{}

	// Preparing
	manual := len(req.Codes) > 0
	candidates, err := r.prepare(ctx, req)
	if err != nil {
		return outcome, err
	}
	if len(candidates) == 0 {
		return outcome, ErrEmptyCandidates
	}
	r.logger.WithFields(map[string]interface{}{
		"candidates": len(candidates),
		"manual":     manual,
	}).Info("Run prepared")

	// Scoring
	attempted := make(map[string]struct{}, len(candidates))
	r.scoreBatch(ctx, candidates, deadline, outcome, attempted, 0)

	// AutoFilling: manual-pool runs only, and only while the budget holds
	if manual && outcome.Succeeded < r.cfg.AutoFillTarget && !outcome.BudgetExhausted {
		r.autoFill(ctx, deadline, outcome, attempted)
	}

	// Finalizing
	if outcome.Succeeded == 0 {
		return outcome, ErrNoResults
	}

	sort.SliceStable(outcome.Results, func(i, j int) bool {
		return outcome.Results[i].Score > outcome.Results[j].Score
	})

	outcome.Charged = outcome.Succeeded >= r.cfg.MinSuccessToCharge
	if outcome.Charged {
		if _, err := r.quota.Consume(); err != nil {
			r.logger.WithError(err).Error("Failed to consume daily quota")
		}
	}

	r.logger.WithFields(map[string]interface{}{
		"attempted": outcome.Attempted,
		"succeeded": outcome.Succeeded,
		"failed":    outcome.Failed,
		"charged":   outcome.Charged,
	}).Info("Run finalized")
	return outcome, nil
}

// prepare resolves the candidate list from caller-supplied codes or from the
// auto pool. Oversized manual lists are truncated with a warning before any
// network activity.
func (r *Runner) prepare(ctx context.Context, req Request) ([]contracts.Candidate, error) {
	if len(req.Codes) == 0 {
		limit := req.AutoLimit
		if limit <= 0 || limit > r.cfg.MaxUniverseSize {
			limit = r.cfg.MaxUniverseSize
		}
		return r.provider.AutoPool(ctx, limit)
	}

	codes := make([]string, 0, len(req.Codes))
	seen := make(map[string]struct{}, len(req.Codes))
	for _, raw := range req.Codes {
		code, err := contracts.NormalizeSymbol(raw)
		if err != nil {
			r.logger.WithField("symbol", raw).Warn("Dropping invalid symbol")
			continue
		}
		if _, dup := seen[code]; dup {
			continue
		}
		seen[code] = struct{}{}
		codes = append(codes, code)
	}
	if len(codes) == 0 {
		return nil, nil
	}
	if len(codes) > r.cfg.MaxUniverseSize {
		r.logger.WithFields(map[string]interface{}{
			"given": len(codes),
			"max":   r.cfg.MaxUniverseSize,
		}).Warn("Manual list exceeds universe size, truncating")
		codes = codes[:r.cfg.MaxUniverseSize]
	}

	names := r.provider.ResolveNames(ctx, codes)
	candidates := make([]contracts.Candidate, len(codes))
	for i, code := range codes {
		name, ok := names[code]
		if !ok {
			name = code
		}
		candidates[i] = contracts.Candidate{Code: code, Name: name}
	}
	return candidates, nil
}

// scoreBatch walks candidates in list order. The budget is polled before
// each item; once exceeded the remaining items are skipped, not failed.
// stopAt > 0 stops early once that many total successes exist (auto-fill).
func (r *Runner) scoreBatch(ctx context.Context, candidates []contracts.Candidate, deadline time.Time, outcome *contracts.RunOutcome, attempted map[string]struct{}, stopAt int) {
	for _, candidate := range candidates {
		if stopAt > 0 && outcome.Succeeded >= stopAt {
			return
		}
		if r.now().After(deadline) {
			outcome.BudgetExhausted = true
			r.logger.Warn("Run budget exhausted, skipping remaining candidates")
			return
		}
		if _, dup := attempted[candidate.Code]; dup {
			continue
		}
		attempted[candidate.Code] = struct{}{}
		outcome.Attempted++

		history, err := r.provider.History(ctx, candidate.Code)
		if err != nil {
			outcome.RecordFailure(candidate.Code, contracts.ClassifyError(err), err.Error())
			continue
		}

		result, err := r.scorer.Evaluate(candidate.Code, candidate.Name, history)
		if err != nil {
			outcome.RecordFailure(candidate.Code, contracts.FailureData, err.Error())
			continue
		}

		outcome.Succeeded++
		outcome.Results = append(outcome.Results, *result)
	}
}

// autoFill draws a supplemental pool and keeps scoring codes not yet
// attempted until the shortfall is met, the pool is exhausted, or the budget
// runs out. An auto pool fetch failure only cancels the fill, never the run.
func (r *Runner) autoFill(ctx context.Context, deadline time.Time, outcome *contracts.RunOutcome, attempted map[string]struct{}) {
	pool, err := r.provider.AutoPool(ctx, r.cfg.AutoFillPoolSize)
	if err != nil {
		r.logger.WithError(err).Warn("Auto-fill pool unavailable")
		return
	}

	supplemental := make([]contracts.Candidate, 0, len(pool))
	for _, candidate := range pool {
		if _, dup := attempted[candidate.Code]; dup {
			continue
		}
		supplemental = append(supplemental, candidate)
	}

	r.logger.WithFields(map[string]interface{}{
		"shortfall": r.cfg.AutoFillTarget - outcome.Succeeded,
		"pool":      len(supplemental),
	}).Info("Auto-filling under-filled manual pool")

	r.scoreBatch(ctx, supplemental, deadline, outcome, attempted, r.cfg.AutoFillTarget)
}
