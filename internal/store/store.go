// Package store persists the on-disk caches: candidate pool snapshots, name
// snapshots and per-symbol price histories. Entries are plain CSV files named
// deterministically by (date-stamp, purpose, limit|symbol); a new day produces
// a new key, so entries are superseded rather than expired in place.
//
// The store assumes a single writer per deployment. Concurrent processes
// writing the same key overwrite each other; that race is documented and
// accepted, not handled.
package store

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/wonny/factorlab-lite/pkg/logger"
)

const dateKeyLayout = "20060102"

// Store is the file-backed cache under a single directory
// ⭐ SSOT: all cache file I/O goes through this type
type Store struct {
	dir    string
	logger *logger.Logger
}

// New creates the cache directory if needed and returns a Store
func New(dir string, log *logger.Logger) (*Store, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create cache dir %s: %w", dir, err)
	}
	return &Store{dir: dir, logger: log}, nil
}

// Dir returns the cache directory path
func (s *Store) Dir() string {
	return s.dir
}

// DateKey formats a day as the cache filename date stamp
func DateKey(day time.Time) string {
	return day.Format(dateKeyLayout)
}

// newestFirst globs inside the cache dir and returns matching regular files
// sorted by filename descending. Date-stamped names sort newest first.
func (s *Store) newestFirst(pattern string) []string {
	matches, err := filepath.Glob(filepath.Join(s.dir, pattern))
	if err != nil {
		return nil
	}
	files := matches[:0]
	for _, m := range matches {
		if info, err := os.Stat(m); err == nil && info.Mode().IsRegular() {
			files = append(files, m)
		}
	}
	sort.Sort(sort.Reverse(sort.StringSlice(files)))
	return files
}

// readCSV reads all records of a CSV file including the header row
func readCSV(path string) ([][]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1 // tolerate missing/extra columns
	return r.ReadAll()
}

// writeCSV writes header+rows atomically via a temp file rename, so a reader
// never observes a half-written entry.
func (s *Store) writeCSV(name string, header []string, rows [][]string) error {
	tmp, err := os.CreateTemp(s.dir, name+".tmp*")
	if err != nil {
		return fmt.Errorf("create temp cache file: %w", err)
	}
	defer os.Remove(tmp.Name())

	w := csv.NewWriter(tmp)
	if err := w.Write(header); err != nil {
		tmp.Close()
		return fmt.Errorf("write cache header: %w", err)
	}
	if err := w.WriteAll(rows); err != nil {
		tmp.Close()
		return fmt.Errorf("write cache rows: %w", err)
	}
	w.Flush()
	if err := w.Error(); err != nil {
		tmp.Close()
		return fmt.Errorf("flush cache file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close cache file: %w", err)
	}

	final := filepath.Join(s.dir, name)
	if err := os.Rename(tmp.Name(), final); err != nil {
		return fmt.Errorf("publish cache file %s: %w", name, err)
	}
	return nil
}

// headerIndex maps column names to positions. Consumers re-derive fields from
// the first matching alias and tolerate unknown columns.
func headerIndex(header []string) map[string]int {
	idx := make(map[string]int, len(header))
	for i, col := range header {
		idx[col] = i
	}
	return idx
}

// pickColumn returns the position of the first alias present in the header
func pickColumn(idx map[string]int, aliases ...string) (int, bool) {
	for _, alias := range aliases {
		if i, ok := idx[alias]; ok {
			return i, true
		}
	}
	return 0, false
}
