package store

import (
	"fmt"
	"path/filepath"
	"sort"
	"time"

	"github.com/wonny/factorlab-lite/internal/contracts"
)

// Name cache entries: stock_name_map_{yyyymmdd}.csv with columns code,name.
// One snapshot per day; older snapshots stay around as fallbacks.

func namesFileName(day time.Time) string {
	return fmt.Sprintf("stock_name_map_%s.csv", DateKey(day))
}

// WriteNames persists a code→name snapshot under the given day's key,
// rows sorted by code for deterministic output.
func (s *Store) WriteNames(day time.Time, names map[string]string) error {
	codes := make([]string, 0, len(names))
	for code := range names {
		codes = append(codes, code)
	}
	sort.Strings(codes)

	rows := make([][]string, 0, len(codes))
	for _, code := range codes {
		rows = append(rows, []string{code, names[code]})
	}
	return s.writeCSV(namesFileName(day), []string{"code", "name"}, rows)
}

// LoadNames reads the snapshot for the given day, empty map when absent
func (s *Store) LoadNames(day time.Time) map[string]string {
	return s.loadNamesFile(filepath.Join(s.dir, namesFileName(day)))
}

// NameSnapshots returns all snapshot paths, newest first
func (s *Store) NameSnapshots() []string {
	return s.newestFirst("stock_name_map_*.csv")
}

// LoadNamesAt reads a snapshot by path; used to walk historical fallbacks
func (s *Store) LoadNamesAt(path string) map[string]string {
	return s.loadNamesFile(path)
}

func (s *Store) loadNamesFile(path string) map[string]string {
	names := make(map[string]string)

	records, err := readCSV(path)
	if err != nil || len(records) < 2 {
		return names
	}

	idx := headerIndex(records[0])
	codeCol, okCode := pickColumn(idx, "code")
	nameCol, okName := pickColumn(idx, "name")
	if !okCode || !okName {
		return names
	}

	for _, row := range records[1:] {
		if codeCol >= len(row) || nameCol >= len(row) {
			continue
		}
		code := row[codeCol]
		name := contracts.CleanName(row[nameCol])
		if !contracts.IsValidCode(code) || name == "" {
			continue
		}
		names[code] = name
	}
	return names
}
