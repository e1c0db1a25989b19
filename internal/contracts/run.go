package contracts

// RunFailure records one skipped candidate with its classified reason.
// Raw messages are hidden from end users by default and surfaced only under
// an explicit debug toggle.
type RunFailure struct {
	Code    string      `json:"code"`
	Kind    FailureKind `json:"kind"`
	Message string      `json:"message"`
}

// RunOutcome is the transient aggregate over one orchestrator invocation.
// It lives only for the duration of a run; rendering is entirely the
// caller's responsibility.
type RunOutcome struct {
	Attempted       int           `json:"attempted"`
	Succeeded       int           `json:"succeeded"`
	Failed          int           `json:"failed"`
	NetworkFailures int           `json:"network_failures"`
	DataFailures    int           `json:"data_failures"`
	BudgetExhausted bool          `json:"budget_exhausted"`
	Charged         bool          `json:"charged"`
	Results         []ScoreResult `json:"results"` // all successes, ranked by score descending
	Errors          []RunFailure  `json:"errors"`
}

// Top returns the n best results (fewer when the run produced fewer)
func (o *RunOutcome) Top(n int) []ScoreResult {
	if len(o.Results) <= n {
		return o.Results
	}
	return o.Results[:n]
}

// RecordFailure appends a classified failure and bumps the counters
func (o *RunOutcome) RecordFailure(code string, kind FailureKind, msg string) {
	o.Failed++
	switch kind {
	case FailureNetwork:
		o.NetworkFailures++
	default:
		o.DataFailures++
	}
	o.Errors = append(o.Errors, RunFailure{Code: code, Kind: kind, Message: msg})
}
