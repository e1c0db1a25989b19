// Package quota persists the daily run allowance as a single JSON record
// {date, count}. The record resets implicitly whenever the stored date
// differs from today; the count is clamped to [0, maxDailyRuns].
//
// The file is guarded against concurrent use within one process only.
// Concurrent processes could over-consume the quota; like the cache files,
// the deployment assumes a single writer.
package quota

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/wonny/factorlab-lite/internal/contracts"
)

const dateLayout = "2006-01-02"

type record struct {
	Date  string `json:"date"`
	Count int    `json:"count"`
}

// FileStore implements contracts.QuotaStore over a JSON file
// ⭐ SSOT: quota state is read and written only here
type FileStore struct {
	path     string
	maxDaily int
	now      func() time.Time
	mu       sync.Mutex
}

var _ contracts.QuotaStore = (*FileStore)(nil)

// New creates a FileStore; the parent directory is created on demand
func New(path string, maxDaily int) *FileStore {
	return &FileStore{
		path:     path,
		maxDaily: maxDaily,
		now:      time.Now,
	}
}

// WithClock overrides the wall clock. Intended for tests.
func (s *FileStore) WithClock(now func() time.Time) *FileStore {
	s.now = now
	return s
}

// Remaining returns how many runs are left today
func (s *FileStore) Remaining() (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	count, err := s.loadCount()
	if err != nil {
		return 0, err
	}
	return s.maxDaily - count, nil
}

// Consume charges one run and returns the new remaining count
func (s *FileStore) Consume() (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	count, err := s.loadCount()
	if err != nil {
		return 0, err
	}

	count = clamp(count+1, 0, s.maxDaily)
	if err := s.save(count); err != nil {
		return 0, err
	}
	return s.maxDaily - count, nil
}

// loadCount reads today's consumed count. A missing or unreadable file and a
// stale date both mean zero consumed.
func (s *FileStore) loadCount() (int, error) {
	today := s.now().Format(dateLayout)

	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return 0, nil
		}
		return 0, fmt.Errorf("read quota file: %w", err)
	}

	var rec record
	if err := json.Unmarshal(data, &rec); err != nil {
		// A corrupt record resets rather than locking the user out
		return 0, nil
	}
	if rec.Date != today {
		return 0, nil
	}
	return clamp(rec.Count, 0, s.maxDaily), nil
}

func (s *FileStore) save(count int) error {
	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return fmt.Errorf("create quota dir: %w", err)
	}

	rec := record{Date: s.now().Format(dateLayout), Count: count}
	data, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("encode quota record: %w", err)
	}
	if err := os.WriteFile(s.path, data, 0o644); err != nil {
		return fmt.Errorf("write quota file: %w", err)
	}
	return nil
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
