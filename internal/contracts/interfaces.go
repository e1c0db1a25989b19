package contracts

import "context"

// DataProvider is the data acquisition layer: market data client plus the
// durable caches, composed behind cache-first / fetch-on-miss /
// fallback-on-failure semantics.
// ⭐ SSOT: the orchestrator talks to the outside world only through this
type DataProvider interface {
	// AutoPool returns up to limit candidates ranked by descending traded
	// turnover (volume when turnover is absent) as of the latest snapshot.
	AutoPool(ctx context.Context, limit int) ([]Candidate, error)

	// History returns a cleaned, chronologically ordered history of at most
	// the lookback window for one normalized symbol.
	History(ctx context.Context, symbol string) (History, error)

	// ResolveNames maps codes to display names, best effort. Codes that
	// cannot be resolved are absent from the result; it never fails.
	ResolveNames(ctx context.Context, codes []string) map[string]string
}

// Scorer converts a price history into a full evaluation. Pure: no I/O, no
// shared state, deterministic given identical input.
type Scorer interface {
	Evaluate(code, name string, history History) (*ScoreResult, error)
}

// QuotaStore is the external daily-quota collaborator. The stored record
// resets implicitly whenever its date differs from today.
type QuotaStore interface {
	// Remaining returns how many runs are left today
	Remaining() (int, error)

	// Consume charges one run and returns the new remaining count
	Consume() (int, error)
}
