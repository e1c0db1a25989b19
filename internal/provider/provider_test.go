package provider

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/wonny/factorlab-lite/internal/contracts"
	"github.com/wonny/factorlab-lite/internal/external/eastmoney"
	"github.com/wonny/factorlab-lite/internal/store"
	"github.com/wonny/factorlab-lite/pkg/logger"
)

// fakeSource scripts the upstream responses
type fakeSource struct {
	spotTable  *eastmoney.Table
	spotErr    error
	spotCalls  int
	dailyTable *eastmoney.Table
	dailyErr   error
	dailyCalls int
}

func (f *fakeSource) Spot(ctx context.Context) (*eastmoney.Table, error) {
	f.spotCalls++
	return f.spotTable, f.spotErr
}

func (f *fakeSource) Daily(ctx context.Context, code string, start, end time.Time) (*eastmoney.Table, error) {
	f.dailyCalls++
	return f.dailyTable, f.dailyErr
}

// spotTable builds a push2-shaped snapshot; rows are code, name, turnover
func spotTable(rows ...[3]string) *eastmoney.Table {
	table := &eastmoney.Table{Columns: []string{"f5", "f6", "f12", "f14"}}
	for _, r := range rows {
		table.Rows = append(table.Rows, map[string]string{
			"f12": r[0],
			"f14": r[1],
			"f6":  r[2],
			"f5":  "1000",
		})
	}
	return table
}

// klineTable builds a kline-shaped history with n sequential bars
func klineTable(n int) *eastmoney.Table {
	table := &eastmoney.Table{Columns: []string{"f51", "f52", "f53", "f54", "f55", "f56", "f57", "f59"}}
	base := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	for i := 0; i < n; i++ {
		price := fmt.Sprintf("%.2f", 10.0+float64(i)*0.01)
		table.Rows = append(table.Rows, map[string]string{
			"f51": base.AddDate(0, 0, i).Format("2006-01-02"),
			"f52": price,
			"f53": price,
			"f54": price,
			"f55": price,
			"f56": "1000",
			"f57": "10000",
			"f59": "0.1",
		})
	}
	return table
}

func newTestProvider(t *testing.T, source *fakeSource) *Provider {
	t.Helper()
	cache, err := store.New(t.TempDir(), logger.NewNop())
	if err != nil {
		t.Fatalf("store.New failed: %v", err)
	}
	cfg := Config{MinHistoryBars: 120, HistoryLookbackDays: 260}
	clock := func() time.Time { return time.Date(2026, 8, 28, 10, 0, 0, 0, time.UTC) }
	return New(source, cache, cfg, logger.NewNop()).WithClock(clock)
}

func TestAutoPool_RanksByTurnover(t *testing.T) {
	source := &fakeSource{spotTable: spotTable(
		[3]string{"600000", "浦发银行", "100"},
		[3]string{"600519", "贵州茅台", "900"},
		[3]string{"000858", "五 粮 液", "500"},
	)}
	p := newTestProvider(t, source)

	got, err := p.AutoPool(context.Background(), 2)
	if err != nil {
		t.Fatalf("AutoPool failed: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("AutoPool returned %d candidates, want 2", len(got))
	}
	if got[0].Code != "600519" || got[1].Code != "000858" {
		t.Errorf("ranking = %v, want turnover descending", got)
	}
	if got[1].Name != "五粮液" {
		t.Errorf("name = %q, want whitespace cleaned", got[1].Name)
	}
}

func TestAutoPool_SameDayCacheSkipsFetch(t *testing.T) {
	source := &fakeSource{spotTable: spotTable([3]string{"600519", "贵州茅台", "900"})}
	p := newTestProvider(t, source)
	ctx := context.Background()

	if _, err := p.AutoPool(ctx, 30); err != nil {
		t.Fatalf("first AutoPool failed: %v", err)
	}
	if source.spotCalls != 1 {
		t.Fatalf("spotCalls = %d, want 1", source.spotCalls)
	}

	// Same day, same limit: must serve the cache without touching upstream
	source.spotErr = errors.New("upstream down")
	got, err := p.AutoPool(ctx, 30)
	if err != nil {
		t.Fatalf("second AutoPool failed: %v", err)
	}
	if source.spotCalls != 1 {
		t.Errorf("spotCalls = %d, want still 1", source.spotCalls)
	}
	if len(got) != 1 || got[0].Code != "600519" {
		t.Errorf("cached pool = %v", got)
	}
}

func TestAutoPool_FallsBackToStaleCache(t *testing.T) {
	source := &fakeSource{spotTable: spotTable([3]string{"600519", "贵州茅台", "900"})}
	p := newTestProvider(t, source)
	ctx := context.Background()

	if _, err := p.AutoPool(ctx, 30); err != nil {
		t.Fatalf("seed AutoPool failed: %v", err)
	}

	// Next day the upstream is down; yesterday's entry serves as fallback
	p.WithClock(func() time.Time { return time.Date(2026, 8, 29, 10, 0, 0, 0, time.UTC) })
	source.spotErr = errors.New("connection refused")

	got, err := p.AutoPool(ctx, 30)
	if err != nil {
		t.Fatalf("AutoPool fallback failed: %v", err)
	}
	if len(got) != 1 || got[0].Code != "600519" {
		t.Errorf("fallback pool = %v", got)
	}
}

func TestAutoPool_Unavailable(t *testing.T) {
	source := &fakeSource{spotErr: errors.New("connection refused")}
	p := newTestProvider(t, source)

	_, err := p.AutoPool(context.Background(), 30)
	if !errors.Is(err, contracts.ErrPoolUnavailable) {
		t.Errorf("expected ErrPoolUnavailable, got %v", err)
	}
}

func TestAutoPool_SchemaErrorFallsBack(t *testing.T) {
	// Snapshot without a recognizable code column
	source := &fakeSource{spotTable: &eastmoney.Table{
		Columns: []string{"ticker", "label"},
		Rows:    []map[string]string{{"ticker": "600519", "label": "贵州茅台"}},
	}}
	p := newTestProvider(t, source)

	_, err := p.AutoPool(context.Background(), 30)
	if !errors.Is(err, contracts.ErrPoolUnavailable) {
		t.Errorf("expected ErrPoolUnavailable on schema mismatch without cache, got %v", err)
	}
}

func TestHistory_InvalidSymbol(t *testing.T) {
	p := newTestProvider(t, &fakeSource{})

	_, err := p.History(context.Background(), "banana")
	var invalid *contracts.InvalidSymbolError
	if !errors.As(err, &invalid) {
		t.Errorf("expected InvalidSymbolError, got %v", err)
	}
}

func TestHistory_FetchCleanAndCache(t *testing.T) {
	source := &fakeSource{dailyTable: klineTable(300)}
	p := newTestProvider(t, source)
	ctx := context.Background()

	history, err := p.History(ctx, "600519.SH")
	if err != nil {
		t.Fatalf("History failed: %v", err)
	}
	if len(history) != 260 {
		t.Errorf("history length = %d, want truncated to 260", len(history))
	}
	for i := 1; i < len(history); i++ {
		if !history[i-1].Date.Before(history[i].Date) {
			t.Fatalf("history not strictly chronological at %d", i)
		}
	}

	// Second call must be served from the cache
	if _, err := p.History(ctx, "600519"); err != nil {
		t.Fatalf("cached History failed: %v", err)
	}
	if source.dailyCalls != 1 {
		t.Errorf("dailyCalls = %d, want 1", source.dailyCalls)
	}
}

func TestHistory_DropsBadRowsAndDeduplicates(t *testing.T) {
	table := klineTable(130)
	// A duplicate date and two unusable closes
	table.Rows = append(table.Rows,
		map[string]string{"f51": "2025-01-01", "f52": "10", "f53": "10", "f54": "10", "f55": "10", "f56": "1"},
		map[string]string{"f51": "2025-06-01", "f52": "10", "f53": "-", "f54": "10", "f55": "10", "f56": "1"},
		map[string]string{"f51": "2025-06-02", "f52": "10", "f53": "0", "f54": "10", "f55": "10", "f56": "1"},
	)
	source := &fakeSource{dailyTable: table}
	p := newTestProvider(t, source)

	history, err := p.History(context.Background(), "600519")
	if err != nil {
		t.Fatalf("History failed: %v", err)
	}
	if len(history) != 130 {
		t.Errorf("history length = %d, want 130 after dedupe and cleaning", len(history))
	}
}

func TestHistory_Insufficient(t *testing.T) {
	source := &fakeSource{dailyTable: klineTable(50)}
	p := newTestProvider(t, source)

	_, err := p.History(context.Background(), "600519")
	if !errors.Is(err, contracts.ErrInsufficientHistory) {
		t.Errorf("expected ErrInsufficientHistory, got %v", err)
	}
}

func TestHistory_SchemaError(t *testing.T) {
	source := &fakeSource{dailyTable: &eastmoney.Table{
		Columns: []string{"f51", "f52"},
		Rows:    []map[string]string{{"f51": "2025-01-01", "f52": "10"}},
	}}
	p := newTestProvider(t, source)

	_, err := p.History(context.Background(), "600519")
	var schemaErr *contracts.SchemaError
	if !errors.As(err, &schemaErr) {
		t.Fatalf("expected SchemaError, got %v", err)
	}
	for _, field := range []string{"close", "high", "low", "volume"} {
		found := false
		for _, missing := range schemaErr.Missing {
			if missing == field {
				found = true
			}
		}
		if !found {
			t.Errorf("SchemaError.Missing = %v, want to include %q", schemaErr.Missing, field)
		}
	}
}

func TestResolveNames_LiveFetch(t *testing.T) {
	source := &fakeSource{spotTable: spotTable(
		[3]string{"600519", "贵州茅台", "900"},
		[3]string{"000858", "五粮液", "500"},
	)}
	p := newTestProvider(t, source)

	names := p.ResolveNames(context.Background(), []string{"600519.SH", "000858", "banana", "600519"})
	if len(names) != 2 {
		t.Fatalf("ResolveNames = %v, want 2 entries", names)
	}
	if names["600519"] != "贵州茅台" || names["000858"] != "五粮液" {
		t.Errorf("ResolveNames = %v", names)
	}

	// Same-day snapshot short-circuits the next resolution
	source.spotErr = errors.New("upstream down")
	again := p.ResolveNames(context.Background(), []string{"600519"})
	if again["600519"] != "贵州茅台" {
		t.Errorf("cached ResolveNames = %v", again)
	}
	if source.spotCalls != 1 {
		t.Errorf("spotCalls = %d, want 1", source.spotCalls)
	}
}

func TestResolveNames_SnapshotFallback(t *testing.T) {
	source := &fakeSource{spotTable: spotTable([3]string{"600519", "贵州茅台", "900"})}
	p := newTestProvider(t, source)
	ctx := context.Background()

	// Seed yesterday's snapshot, then kill the upstream
	p.ResolveNames(ctx, []string{"600519"})
	p.WithClock(func() time.Time { return time.Date(2026, 8, 29, 10, 0, 0, 0, time.UTC) })
	source.spotErr = errors.New("connection refused")

	names := p.ResolveNames(ctx, []string{"600519", "000001"})
	if names["600519"] != "贵州茅台" {
		t.Errorf("fallback ResolveNames = %v", names)
	}
	if _, ok := names["000001"]; ok {
		t.Error("unresolvable code should be absent, not guessed")
	}
}

func TestResolveNames_NeverFails(t *testing.T) {
	source := &fakeSource{spotErr: errors.New("connection refused")}
	p := newTestProvider(t, source)

	names := p.ResolveNames(context.Background(), []string{"600519"})
	if names == nil {
		t.Fatal("ResolveNames returned nil map")
	}
	if len(names) != 0 {
		t.Errorf("ResolveNames = %v, want empty", names)
	}
}
