package store

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/wonny/factorlab-lite/internal/contracts"
)

// Pool cache entries: auto_candidates_{yyyymmdd}_{limit}.csv with columns
// code,name, ranked by descending traded turnover at write time.

func poolFileName(day time.Time, limit int) string {
	return fmt.Sprintf("auto_candidates_%s_%d.csv", DateKey(day), limit)
}

// HasPool reports whether a same-day, same-limit pool entry exists
func (s *Store) HasPool(day time.Time, limit int) bool {
	_, err := os.Stat(filepath.Join(s.dir, poolFileName(day, limit)))
	return err == nil
}

// WritePool persists a ranked candidate shortlist under today's key
func (s *Store) WritePool(day time.Time, limit int, candidates []contracts.Candidate) error {
	rows := make([][]string, 0, len(candidates))
	for _, c := range candidates {
		rows = append(rows, []string{c.Code, c.Name})
	}
	return s.writeCSV(poolFileName(day, limit), []string{"code", "name"}, rows)
}

// poolPaths returns candidate pool files to try, newest first. Exact-limit
// entries are preferred; when none exist any pool entry qualifies.
func (s *Store) poolPaths(limit int) []string {
	if exact := s.newestFirst(fmt.Sprintf("auto_candidates_*_%d.csv", limit)); len(exact) > 0 {
		return exact
	}
	return s.newestFirst("auto_candidates_*.csv")
}

// LoadPool returns up to limit candidates from the newest readable pool
// entry, or nil when no usable entry exists. Unreadable or malformed files
// are skipped, not fatal.
func (s *Store) LoadPool(limit int) []contracts.Candidate {
	for _, path := range s.poolPaths(limit) {
		candidates := s.loadPoolFile(path, limit)
		if len(candidates) > 0 {
			return candidates
		}
	}
	return nil
}

func (s *Store) loadPoolFile(path string, limit int) []contracts.Candidate {
	records, err := readCSV(path)
	if err != nil || len(records) < 2 {
		return nil
	}

	idx := headerIndex(records[0])
	codeCol, ok := pickColumn(idx, "code")
	if !ok {
		return nil
	}
	nameCol, hasName := pickColumn(idx, "name")

	candidates := make([]contracts.Candidate, 0, limit)
	for _, row := range records[1:] {
		if codeCol >= len(row) {
			continue
		}
		code := row[codeCol]
		if !contracts.IsValidCode(code) {
			continue
		}
		name := ""
		if hasName && nameCol < len(row) {
			name = contracts.CleanName(row[nameCol])
		}
		if name == "" {
			name = code
		}
		candidates = append(candidates, contracts.Candidate{Code: code, Name: name})
		if len(candidates) >= limit {
			break
		}
	}
	return candidates
}
