// Package handlers holds the HTTP handlers for the screening API.
package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/wonny/factorlab-lite/internal/contracts"
	"github.com/wonny/factorlab-lite/internal/runner"
	"github.com/wonny/factorlab-lite/pkg/logger"
)

// ScreenHandler drives screening runs over HTTP
type ScreenHandler struct {
	runner   *runner.Runner
	provider contracts.DataProvider
	quota    contracts.QuotaStore
	topN     int
	maxRuns  int
	logger   *logger.Logger
}

// NewScreenHandler creates a ScreenHandler
func NewScreenHandler(run *runner.Runner, provider contracts.DataProvider, quota contracts.QuotaStore, topN, maxRuns int, log *logger.Logger) *ScreenHandler {
	return &ScreenHandler{
		runner:   run,
		provider: provider,
		quota:    quota,
		topN:     topN,
		maxRuns:  maxRuns,
		logger:   log,
	}
}

type screenRequest struct {
	Codes     string `json:"codes"`      // free-form manual code list
	AutoLimit int    `json:"auto_limit"` // auto pool size when codes is empty
	Debug     bool   `json:"debug"`      // expose raw per-code errors
}

type screenResponse struct {
	Top             []contracts.ScoreResult `json:"top"`
	Attempted       int                     `json:"attempted"`
	Succeeded       int                     `json:"succeeded"`
	Failed          int                     `json:"failed"`
	NetworkFailures int                     `json:"network_failures"`
	DataFailures    int                     `json:"data_failures"`
	BudgetExhausted bool                    `json:"budget_exhausted"`
	Charged         bool                    `json:"charged"`
	Remaining       int                     `json:"remaining"`
	Errors          []contracts.RunFailure  `json:"errors,omitempty"`
}

// Screen runs one screening batch. Raw per-code failure messages are hidden
// unless the debug toggle is set; clients get counts either way.
func (h *ScreenHandler) Screen(w http.ResponseWriter, r *http.Request) {
	var req screenRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	remaining, err := h.quota.Remaining()
	if err != nil {
		h.logger.WithError(err).Error("Quota check failed")
		writeError(w, http.StatusInternalServerError, "quota check failed")
		return
	}
	if remaining <= 0 {
		writeError(w, http.StatusTooManyRequests, "daily run quota exhausted, resets tomorrow")
		return
	}

	outcome, err := h.runner.Run(r.Context(), runner.Request{
		Codes:     contracts.ParseCodes(req.Codes),
		AutoLimit: req.AutoLimit,
	})
	if err != nil {
		switch {
		case errors.Is(err, runner.ErrEmptyCandidates):
			writeError(w, http.StatusBadRequest, "no valid candidates to evaluate")
		case errors.Is(err, runner.ErrNoResults):
			writeError(w, http.StatusBadGateway, "run produced no results, try again later")
		default:
			h.logger.WithError(err).Error("Screening run failed")
			writeError(w, http.StatusBadGateway, "screening run failed")
		}
		return
	}

	remaining, _ = h.quota.Remaining()
	resp := screenResponse{
		Top:             outcome.Top(h.topN),
		Attempted:       outcome.Attempted,
		Succeeded:       outcome.Succeeded,
		Failed:          outcome.Failed,
		NetworkFailures: outcome.NetworkFailures,
		DataFailures:    outcome.DataFailures,
		BudgetExhausted: outcome.BudgetExhausted,
		Charged:         outcome.Charged,
		Remaining:       remaining,
	}
	if req.Debug {
		resp.Errors = outcome.Errors
	}
	writeJSON(w, http.StatusOK, resp)
}

// Pool returns the current auto candidate pool
func (h *ScreenHandler) Pool(w http.ResponseWriter, r *http.Request) {
	limit := 20
	if v := r.URL.Query().Get("limit"); v != "" {
		parsed, err := strconv.Atoi(v)
		if err != nil || parsed < 1 {
			writeError(w, http.StatusBadRequest, "limit must be a positive integer")
			return
		}
		limit = parsed
	}

	candidates, err := h.provider.AutoPool(r.Context(), limit)
	if err != nil {
		h.logger.WithError(err).Error("Auto pool fetch failed")
		writeError(w, http.StatusBadGateway, "candidate pool unavailable")
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"candidates": candidates,
	})
}

// Quota reports today's remaining runs
func (h *ScreenHandler) Quota(w http.ResponseWriter, r *http.Request) {
	remaining, err := h.quota.Remaining()
	if err != nil {
		h.logger.WithError(err).Error("Quota check failed")
		writeError(w, http.StatusInternalServerError, "quota check failed")
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"remaining": remaining,
		"max":       h.maxRuns,
	})
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
