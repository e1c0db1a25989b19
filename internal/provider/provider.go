// Package provider is the data acquisition layer: it composes the market
// data client, the durable caches and name resolution behind cache-first,
// fetch-on-miss, fallback-on-failure semantics. All methods are safe to call
// repeatedly within a day; staleness is keyed by date, never by timestamps.
package provider

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"time"

	"github.com/wonny/factorlab-lite/internal/contracts"
	"github.com/wonny/factorlab-lite/internal/external/eastmoney"
	"github.com/wonny/factorlab-lite/internal/store"
	"github.com/wonny/factorlab-lite/pkg/logger"
)

// marketSource is the upstream surface the provider consumes. Satisfied by
// *eastmoney.Client; faked in tests.
type marketSource interface {
	Spot(ctx context.Context) (*eastmoney.Table, error)
	Daily(ctx context.Context, code string, start, end time.Time) (*eastmoney.Table, error)
}

// Config holds the acquisition-layer tunables
type Config struct {
	MinHistoryBars      int
	HistoryLookbackDays int
}

// Provider is the data acquisition layer
// ⭐ SSOT: cache-or-fetch decisions are made only here
type Provider struct {
	source marketSource
	cache  *store.Store
	cfg    Config
	logger *logger.Logger
	now    func() time.Time
}

// New creates a Provider over a market source and a cache store
func New(source marketSource, cache *store.Store, cfg Config, log *logger.Logger) *Provider {
	return &Provider{
		source: source,
		cache:  cache,
		cfg:    cfg,
		logger: log,
		now:    time.Now,
	}
}

// WithClock overrides the wall clock. Intended for tests.
func (p *Provider) WithClock(now func() time.Time) *Provider {
	p.now = now
	return p
}

// AutoPool returns up to limit candidates ranked by descending traded
// turnover (volume when turnover is absent). Same-day same-limit cache
// entries are returned verbatim; on live-fetch failure the newest prior
// entry of any key serves as fallback.
func (p *Provider) AutoPool(ctx context.Context, limit int) ([]contracts.Candidate, error) {
	today := p.now()

	if p.cache.HasPool(today, limit) {
		if cached := p.cache.LoadPool(limit); len(cached) > 0 {
			p.logger.WithField("limit", limit).Debug("Auto pool served from same-day cache")
			return cached, nil
		}
	}

	candidates, err := p.fetchPoolLive(ctx, limit)
	if err == nil {
		if writeErr := p.cache.WritePool(today, limit, candidates); writeErr != nil {
			p.logger.WithError(writeErr).Warn("Failed to persist auto pool cache")
		}
		return candidates, nil
	}

	p.logger.WithError(err).Warn("Live auto pool fetch failed, trying cache fallback")
	if fallback := p.cache.LoadPool(limit); len(fallback) > 0 {
		return fallback, nil
	}
	return nil, fmt.Errorf("%w: %v", contracts.ErrPoolUnavailable, err)
}

// fetchPoolLive fetches the spot snapshot and distills the ranked shortlist
func (p *Provider) fetchPoolLive(ctx context.Context, limit int) ([]contracts.Candidate, error) {
	table, err := p.source.Spot(ctx)
	if err != nil {
		return nil, err
	}

	cols, err := resolveSchema(table, spotSchema)
	if err != nil {
		return nil, err
	}

	type rankedRow struct {
		candidate contracts.Candidate
		rank      float64
	}

	rankCol, hasRank := cols["turnover"]
	if !hasRank {
		rankCol, hasRank = cols["volume"]
	}

	rows := make([]rankedRow, 0, len(table.Rows))
	for _, row := range table.Rows {
		code := contracts.ExtractCode(row[cols["code"]])
		if code == "" {
			continue
		}
		name := contracts.CleanName(row[cols["name"]])
		if name == "" {
			name = code
		}
		rank := 0.0
		if hasRank {
			rank, _ = strconv.ParseFloat(row[rankCol], 64)
		}
		rows = append(rows, rankedRow{
			candidate: contracts.Candidate{Code: code, Name: name},
			rank:      rank,
		})
	}

	if hasRank {
		sort.SliceStable(rows, func(i, j int) bool { return rows[i].rank > rows[j].rank })
	}

	if len(rows) > limit {
		rows = rows[:limit]
	}
	candidates := make([]contracts.Candidate, len(rows))
	for i, r := range rows {
		candidates[i] = r.candidate
	}
	return candidates, nil
}

// History returns a cleaned, chronologically ordered history of at most the
// lookback window, with at least MinHistoryBars bars, for one symbol.
func (p *Provider) History(ctx context.Context, symbol string) (contracts.History, error) {
	code, err := contracts.NormalizeSymbol(symbol)
	if err != nil {
		return nil, err
	}

	if cached := p.cache.LoadHistory(code); len(cached) >= p.cfg.MinHistoryBars {
		return cached.Tail(p.cfg.HistoryLookbackDays), nil
	}

	end := p.now()
	start := end.AddDate(0, 0, -3*p.cfg.HistoryLookbackDays)

	table, err := p.source.Daily(ctx, code, start, end)
	if err != nil {
		return nil, err
	}

	history, err := p.cleanHistory(code, table)
	if err != nil {
		return nil, err
	}

	history = history.Tail(p.cfg.HistoryLookbackDays)
	if writeErr := p.cache.WriteHistory(code, history); writeErr != nil {
		p.logger.WithError(writeErr).Warn("Failed to persist history cache")
	}
	return history, nil
}

// cleanHistory renames upstream fields to canonical names, drops rows with a
// missing or non-positive close, deduplicates by date and orders the rest
// chronologically.
func (p *Provider) cleanHistory(code string, table *eastmoney.Table) (contracts.History, error) {
	cols, err := resolveSchema(table, historySchema)
	if err != nil {
		return nil, err
	}

	turnoverCol, hasTurnover := cols["turnover"]
	pctCol, hasPct := cols["pct_change"]

	byDate := make(map[string]contracts.PriceBar, len(table.Rows))
	for _, row := range table.Rows {
		day, err := time.Parse("2006-01-02", row[cols["date"]])
		if err != nil {
			continue
		}
		closePrice, err := strconv.ParseFloat(row[cols["close"]], 64)
		if err != nil || closePrice <= 0 {
			continue
		}

		bar := contracts.PriceBar{
			Date:   day,
			Open:   parseFloat(row[cols["open"]]),
			High:   parseFloat(row[cols["high"]]),
			Low:    parseFloat(row[cols["low"]]),
			Close:  closePrice,
			Volume: parseFloat(row[cols["volume"]]),
		}
		if hasTurnover {
			bar.Turnover = parseFloat(row[turnoverCol])
		}
		if hasPct {
			bar.PctChange = parseFloat(row[pctCol])
		}
		byDate[row[cols["date"]]] = bar
	}

	history := make(contracts.History, 0, len(byDate))
	for _, bar := range byDate {
		history = append(history, bar)
	}
	sort.Slice(history, func(i, j int) bool { return history[i].Date.Before(history[j].Date) })

	if len(history) < p.cfg.MinHistoryBars {
		return nil, fmt.Errorf("%s: %w (%d < %d usable bars)",
			code, contracts.ErrInsufficientHistory, len(history), p.cfg.MinHistoryBars)
	}
	return history, nil
}

func parseFloat(s string) float64 {
	v, _ := strconv.ParseFloat(s, 64)
	return v
}
