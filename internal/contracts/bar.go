package contracts

import "time"

// PriceBar is one trading day of adjusted OHLCV data.
// Close is guaranteed numeric and positive once a history has been cleaned;
// Turnover and PctChange are optional and zero when the upstream omits them.
type PriceBar struct {
	Date      time.Time `json:"date"`
	Open      float64   `json:"open"`
	High      float64   `json:"high"`
	Low       float64   `json:"low"`
	Close     float64   `json:"close"`
	Volume    float64   `json:"volume"`
	Turnover  float64   `json:"turnover,omitempty"`
	PctChange float64   `json:"pct_change,omitempty"`
}

// History is a cleaned daily price series for one symbol, chronological and
// deduplicated by date.
type History []PriceBar

// Closes returns the closing price series in chronological order
func (h History) Closes() []float64 {
	closes := make([]float64, len(h))
	for i, bar := range h {
		closes[i] = bar.Close
	}
	return closes
}

// Tail returns the last n bars (the whole history when it is shorter)
func (h History) Tail(n int) History {
	if len(h) <= n {
		return h
	}
	return h[len(h)-n:]
}
