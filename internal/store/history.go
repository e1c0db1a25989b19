package store

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/wonny/factorlab-lite/internal/contracts"
)

// History cache entries: hist_{code}.csv with the canonical OHLCV schema.
// Unlike pool and name snapshots these are keyed by symbol alone; whether a
// cached history is still usable is decided by the caller via bar count.

const historyDateLayout = "2006-01-02"

var historyHeader = []string{"date", "open", "high", "low", "close", "volume", "turnover", "pct_change"}

func historyFileName(code string) string {
	return fmt.Sprintf("hist_%s.csv", code)
}

// WriteHistory persists a cleaned history for one symbol
func (s *Store) WriteHistory(code string, history contracts.History) error {
	rows := make([][]string, 0, len(history))
	for _, bar := range history {
		rows = append(rows, []string{
			bar.Date.Format(historyDateLayout),
			formatFloat(bar.Open),
			formatFloat(bar.High),
			formatFloat(bar.Low),
			formatFloat(bar.Close),
			formatFloat(bar.Volume),
			formatFloat(bar.Turnover),
			formatFloat(bar.PctChange),
		})
	}
	return s.writeCSV(historyFileName(code), historyHeader, rows)
}

// LoadHistory reads the cached history for one symbol. Returns nil when the
// entry is absent or unreadable; bars with a missing or non-positive close
// are dropped during the read.
func (s *Store) LoadHistory(code string) contracts.History {
	path := filepath.Join(s.dir, historyFileName(code))
	if _, err := os.Stat(path); err != nil {
		return nil
	}

	records, err := readCSV(path)
	if err != nil || len(records) < 2 {
		return nil
	}

	idx := headerIndex(records[0])
	dateCol, okDate := pickColumn(idx, "date")
	closeCol, okClose := pickColumn(idx, "close")
	if !okDate || !okClose {
		return nil
	}
	openCol, _ := pickColumn(idx, "open")
	highCol, _ := pickColumn(idx, "high")
	lowCol, _ := pickColumn(idx, "low")
	volumeCol, _ := pickColumn(idx, "volume")
	turnoverCol, hasTurnover := pickColumn(idx, "turnover", "amount")
	pctCol, hasPct := pickColumn(idx, "pct_change")

	history := make(contracts.History, 0, len(records)-1)
	for _, row := range records[1:] {
		if dateCol >= len(row) || closeCol >= len(row) {
			continue
		}
		day, err := time.Parse(historyDateLayout, row[dateCol])
		if err != nil {
			continue
		}
		closePrice, err := strconv.ParseFloat(row[closeCol], 64)
		if err != nil || closePrice <= 0 {
			continue
		}

		bar := contracts.PriceBar{
			Date:   day,
			Open:   parseFloatAt(row, openCol),
			High:   parseFloatAt(row, highCol),
			Low:    parseFloatAt(row, lowCol),
			Close:  closePrice,
			Volume: parseFloatAt(row, volumeCol),
		}
		if hasTurnover {
			bar.Turnover = parseFloatAt(row, turnoverCol)
		}
		if hasPct {
			bar.PctChange = parseFloatAt(row, pctCol)
		}
		history = append(history, bar)
	}
	return history
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func parseFloatAt(row []string, col int) float64 {
	if col >= len(row) {
		return 0
	}
	v, err := strconv.ParseFloat(row[col], 64)
	if err != nil {
		return 0
	}
	return v
}
