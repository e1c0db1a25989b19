package scoring

import (
	"errors"
	"math"
	"testing"
	"time"

	"github.com/wonny/factorlab-lite/internal/contracts"
)

// historyFromCloses builds a synthetic daily history with the given closes
func historyFromCloses(closes []float64) contracts.History {
	base := time.Date(2025, 1, 2, 0, 0, 0, 0, time.UTC)
	h := make(contracts.History, len(closes))
	for i, c := range closes {
		h[i] = contracts.PriceBar{
			Date:  base.AddDate(0, 0, i),
			Open:  c,
			High:  c,
			Low:   c,
			Close: c,
		}
	}
	return h
}

func repeat(value float64, n int) []float64 {
	xs := make([]float64, n)
	for i := range xs {
		xs[i] = value
	}
	return xs
}

func almostEqual(a, b float64) bool {
	return math.Abs(a-b) < 1e-9
}

func TestEvaluate_FlatHistory(t *testing.T) {
	result, err := New().Evaluate("600519", "贵州茅台", historyFromCloses(repeat(50.0, 130)))
	if err != nil {
		t.Fatalf("Evaluate failed: %v", err)
	}

	// Flat window: position defaults to 0.5, no drawdown, no volatility,
	// zero trailing return.
	if !almostEqual(result.ValuationScore, 50.0) {
		t.Errorf("ValuationScore = %v, want 50", result.ValuationScore)
	}
	if !almostEqual(result.QualityScore, 100.0) {
		t.Errorf("QualityScore = %v, want 100", result.QualityScore)
	}
	if !almostEqual(result.MomentumScore, 33.3) {
		t.Errorf("MomentumScore = %v, want 33.3", result.MomentumScore)
	}
	if !almostEqual(result.VolatilityScore, 100.0) {
		t.Errorf("VolatilityScore = %v, want 100", result.VolatilityScore)
	}
	// 0.30*50 + 0.25*100 + 0.25*33.333 + 0.20*100 = 68.333 -> 68.3
	if !almostEqual(result.Score, 68.3) {
		t.Errorf("Score = %v, want 68.3", result.Score)
	}
	if result.Signal != contracts.SignalObserve {
		t.Errorf("Signal = %v, want observe", result.Signal)
	}
	if result.RiskTag != contracts.RiskLow {
		t.Errorf("RiskTag = %v, want low", result.RiskTag)
	}
	if result.MaxDrawdown != 0 || result.Return60d != 0 {
		t.Errorf("MaxDrawdown = %v, Return60d = %v, want 0/0", result.MaxDrawdown, result.Return60d)
	}
}

func TestEvaluate_SteadyUptrendClamps(t *testing.T) {
	closes := make([]float64, 130)
	closes[0] = 100.0
	for i := 1; i < len(closes); i++ {
		closes[i] = closes[i-1] * 1.01
	}

	result, err := New().Evaluate("000858", "五粮液", historyFromCloses(closes))
	if err != nil {
		t.Fatalf("Evaluate failed: %v", err)
	}

	// 60d return far above +40% clamps momentum to 100; last close at the
	// window high pins valuation to 0.
	if !almostEqual(result.MomentumScore, 100.0) {
		t.Errorf("MomentumScore = %v, want clamped 100", result.MomentumScore)
	}
	if !almostEqual(result.ValuationScore, 0.0) {
		t.Errorf("ValuationScore = %v, want 0", result.ValuationScore)
	}
	// Composite hits 70 but the valuation gate blocks a watch signal
	if !almostEqual(result.Score, 70.0) {
		t.Errorf("Score = %v, want 70.0", result.Score)
	}
	if result.Signal != contracts.SignalObserve {
		t.Errorf("Signal = %v, want observe (valuation gate)", result.Signal)
	}
}

func TestEvaluate_HighVolatility(t *testing.T) {
	closes := make([]float64, 130)
	for i := range closes {
		if i%2 == 0 {
			closes[i] = 100.0
		} else {
			closes[i] = 160.0
		}
	}

	result, err := New().Evaluate("300001", "", historyFromCloses(closes))
	if err != nil {
		t.Fatalf("Evaluate failed: %v", err)
	}

	if !almostEqual(result.VolatilityScore, 0.0) {
		t.Errorf("VolatilityScore = %v, want clamped 0", result.VolatilityScore)
	}
	if result.RiskTag != contracts.RiskHigh {
		t.Errorf("RiskTag = %v, want high", result.RiskTag)
	}
}

func TestEvaluate_SubScoresStayInRange(t *testing.T) {
	histories := []contracts.History{
		historyFromCloses(repeat(1.0, 90)),
		historyFromCloses([]float64{1000, 1, 1000, 1, 1000, 1, 1000, 1, 1000, 1,
			1000, 1, 1000, 1, 1000, 1, 1000, 1, 1000, 1,
			1000, 1, 1000, 1, 1000, 1, 1000, 1, 1000, 1,
			1000, 1, 1000, 1, 1000, 1, 1000, 1, 1000, 1,
			1000, 1, 1000, 1, 1000, 1, 1000, 1, 1000, 1,
			1000, 1, 1000, 1, 1000, 1, 1000, 1, 1000, 1,
			1000, 1, 1000, 1, 1000, 1, 1000, 1, 1000, 1,
			1000, 1, 1000, 1, 1000, 1, 1000, 1, 1000, 1}),
	}

	for _, h := range histories {
		result, err := New().Evaluate("600000", "", h)
		if err != nil {
			t.Fatalf("Evaluate failed: %v", err)
		}
		for label, score := range map[string]float64{
			"valuation":  result.ValuationScore,
			"quality":    result.QualityScore,
			"momentum":   result.MomentumScore,
			"volatility": result.VolatilityScore,
			"composite":  result.Score,
		} {
			if score < 0 || score > 100 {
				t.Errorf("%s score %v out of [0, 100]", label, score)
			}
		}
	}
}

func TestEvaluate_InsufficientData(t *testing.T) {
	_, err := New().Evaluate("600519", "贵州茅台", historyFromCloses(repeat(50.0, 79)))
	if !errors.Is(err, contracts.ErrInsufficientData) {
		t.Errorf("expected ErrInsufficientData, got %v", err)
	}
}

func TestEvaluate_Deterministic(t *testing.T) {
	h := historyFromCloses(repeat(42.0, 130))
	first, err := New().Evaluate("600519", "贵州茅台", h)
	if err != nil {
		t.Fatalf("Evaluate failed: %v", err)
	}
	second, err := New().Evaluate("600519", "贵州茅台", h)
	if err != nil {
		t.Fatalf("Evaluate failed: %v", err)
	}
	if *first != *second {
		t.Errorf("identical input produced different results: %+v vs %+v", first, second)
	}
}

func TestMaxDrawdown(t *testing.T) {
	tests := []struct {
		name   string
		closes []float64
		want   float64
	}{
		{"trough after peak", []float64{100, 120, 60, 90}, -0.5},
		{"monotonic rise", []float64{100, 110, 120}, 0},
		{"initial drop", []float64{100, 80, 100}, -0.2},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := maxDrawdown(tt.closes); !almostEqual(got, tt.want) {
				t.Errorf("maxDrawdown(%v) = %v, want %v", tt.closes, got, tt.want)
			}
		})
	}
}

func TestTrailingReturn(t *testing.T) {
	closes := make([]float64, 61)
	for i := range closes {
		closes[i] = 100.0
	}
	closes[0] = 50.0
	if got := trailingReturn(closes, 60); !almostEqual(got, 1.0) {
		t.Errorf("trailingReturn = %v, want 1.0", got)
	}

	short := []float64{50, 60, 75}
	if got := trailingReturn(short, 60); !almostEqual(got, 0.5) {
		t.Errorf("trailingReturn over short window = %v, want 0.5", got)
	}
}

func TestDeriveSignal(t *testing.T) {
	tests := []struct {
		name      string
		score     float64
		momentum  float64
		valuation float64
		want      contracts.Signal
	}{
		{"all gates pass", 70, 55, 50, contracts.SignalWatch},
		{"momentum gate blocks", 70, 54.9, 50, contracts.SignalObserve},
		{"valuation gate blocks", 70, 55, 49.9, contracts.SignalObserve},
		{"mid score", 59.5, 80, 80, contracts.SignalObserve},
		{"observe boundary", 55, 0, 0, contracts.SignalObserve},
		{"below boundary", 54.9, 100, 100, contracts.SignalAvoid},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := deriveSignal(tt.score, tt.momentum, tt.valuation); got != tt.want {
				t.Errorf("deriveSignal(%v, %v, %v) = %v, want %v",
					tt.score, tt.momentum, tt.valuation, got, tt.want)
			}
		})
	}
}

func TestDeriveRiskTag(t *testing.T) {
	tests := []struct {
		name string
		vol  float64
		mdd  float64
		want contracts.RiskTag
	}{
		{"calm", 0.20, -0.10, contracts.RiskLow},
		{"volatile", 0.31, -0.10, contracts.RiskMedium},
		{"deep drawdown", 0.20, -0.26, contracts.RiskMedium},
		{"very volatile", 0.46, -0.10, contracts.RiskHigh},
		{"crash", 0.20, -0.41, contracts.RiskHigh},
		{"low boundary", 0.30, -0.25, contracts.RiskLow},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := deriveRiskTag(tt.vol, tt.mdd); got != tt.want {
				t.Errorf("deriveRiskTag(%v, %v) = %v, want %v", tt.vol, tt.mdd, got, tt.want)
			}
		})
	}
}

func TestExplain_TiesResolveToEarlierFactor(t *testing.T) {
	got := explain(100, 100, 10, 10)
	want := "valuation leads while momentum lags; corroborate with sector and fundamental context before acting."
	if got != want {
		t.Errorf("explain = %q, want %q", got, want)
	}
}
