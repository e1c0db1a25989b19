// Package scoring converts a price history into normalized factor scores, a
// composite score, a risk tag and a short rationale. It is a stateless pure
// transform: no I/O, no shared state, deterministic given identical input.
package scoring

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"github.com/wonny/factorlab-lite/internal/contracts"
)

const (
	// minUsableCloses is the scorer's own floor. The acquisition layer
	// enforces a stricter 120-bar gate, so this floor only matters for
	// callers that bypass it (deliberately kept, see DESIGN.md).
	minUsableCloses = 80

	tradingDaysPerYear = 252
	momentumWindow     = 60
)

// Composite weights: valuation 0.30, quality 0.25, momentum 0.25,
// volatility 0.20.
const (
	weightValuation  = 0.30
	weightQuality    = 0.25
	weightMomentum   = 0.25
	weightVolatility = 0.20
)

// Scorer evaluates candidates. It carries no state; the struct exists so the
// orchestrator can depend on the contracts.Scorer interface.
type Scorer struct{}

// New returns a Scorer
func New() *Scorer {
	return &Scorer{}
}

// Evaluate scores one candidate from its cleaned history
func (s *Scorer) Evaluate(code, name string, history contracts.History) (*contracts.ScoreResult, error) {
	closes := history.Closes()
	if len(closes) < minUsableCloses {
		return nil, fmt.Errorf("%s: %w (%d closes)", code, contracts.ErrInsufficientData, len(closes))
	}

	returns := dailyReturns(closes)
	annualVol := popStdDev(returns) * math.Sqrt(tradingDaysPerYear)
	mdd := maxDrawdown(closes)
	ret60 := trailingReturn(closes, momentumWindow)

	low, high := floats.Min(closes), floats.Max(closes)
	position := 0.5 // flat window
	if high > low {
		position = (closes[len(closes)-1] - low) / (high - low)
	}

	valuation := clamp01Scale((1.0 - position) * 100.0)
	quality := clamp01Scale((1.0 + mdd) * 100.0)
	momentum := clamp01Scale(((ret60 + 0.20) / 0.60) * 100.0)
	volatility := clamp01Scale(((0.50 - annualVol) / 0.50) * 100.0)

	score := round1(weightValuation*valuation +
		weightQuality*quality +
		weightMomentum*momentum +
		weightVolatility*volatility)

	return &contracts.ScoreResult{
		Code:             code,
		Name:             name,
		Score:            score,
		Signal:           deriveSignal(score, momentum, valuation),
		RiskTag:          deriveRiskTag(annualVol, mdd),
		ValuationScore:   round1(valuation),
		QualityScore:     round1(quality),
		MomentumScore:    round1(momentum),
		VolatilityScore:  round1(volatility),
		Return60d:        round2(ret60 * 100.0),
		AnnualVolatility: round2(annualVol * 100.0),
		MaxDrawdown:      round2(mdd * 100.0),
		Explanation:      explain(valuation, quality, momentum, volatility),
	}, nil
}

// dailyReturns is the day-over-day percentage change series
func dailyReturns(closes []float64) []float64 {
	returns := make([]float64, 0, len(closes)-1)
	for i := 1; i < len(closes); i++ {
		if closes[i-1] == 0 {
			continue
		}
		returns = append(returns, closes[i]/closes[i-1]-1.0)
	}
	return returns
}

// popStdDev is the population standard deviation (divisor n, not n-1)
func popStdDev(xs []float64) float64 {
	if len(xs) == 0 {
		return 0
	}
	mean := stat.Mean(xs, nil)
	return math.Sqrt(stat.MomentAbout(2, xs, mean, nil))
}

// maxDrawdown is the minimum over time of close/runningMax - 1, always <= 0
func maxDrawdown(closes []float64) float64 {
	runningMax := closes[0]
	worst := 0.0
	for _, c := range closes {
		if c > runningMax {
			runningMax = c
		}
		if dd := c/runningMax - 1.0; dd < worst {
			worst = dd
		}
	}
	return worst
}

// trailingReturn is close[last]/close[last-window] - 1 when the history is
// long enough, else the return over the whole window.
func trailingReturn(closes []float64, window int) float64 {
	last := closes[len(closes)-1]
	if len(closes) >= window+1 {
		return last/closes[len(closes)-1-window] - 1.0
	}
	return last/closes[0] - 1.0
}

func deriveRiskTag(annualVol, mdd float64) contracts.RiskTag {
	switch {
	case annualVol > 0.45 || mdd < -0.40:
		return contracts.RiskHigh
	case annualVol > 0.30 || mdd < -0.25:
		return contracts.RiskMedium
	default:
		return contracts.RiskLow
	}
}

// deriveSignal buckets the composite score, gated by momentum and valuation
func deriveSignal(score, momentum, valuation float64) contracts.Signal {
	switch {
	case score >= 70 && momentum >= 55 && valuation >= 50:
		return contracts.SignalWatch
	case score >= 55:
		return contracts.SignalObserve
	default:
		return contracts.SignalAvoid
	}
}

// explain names the strongest and weakest of the four factors. Ties resolve
// to the earlier factor in the fixed valuation/quality/momentum/volatility
// order.
func explain(valuation, quality, momentum, volatility float64) string {
	factors := []struct {
		label string
		value float64
	}{
		{"valuation", valuation},
		{"quality", quality},
		{"momentum", momentum},
		{"volatility", volatility},
	}

	best, weak := factors[0], factors[0]
	for _, f := range factors[1:] {
		if f.value > best.value {
			best = f
		}
		if f.value < weak.value {
			weak = f
		}
	}

	return fmt.Sprintf(
		"%s leads while %s lags; corroborate with sector and fundamental context before acting.",
		best.label, weak.label,
	)
}

func clamp01Scale(v float64) float64 {
	return math.Max(0.0, math.Min(100.0, v))
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
