// Package cache persists fetched records as one JSON artifact per calendar
// month per source. Runs that already have a month on disk skip its fetch
// entirely, which is what makes aborted multi-month runs resumable.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/devpulse/devpulse/internal/logger"
	"github.com/devpulse/devpulse/internal/types"
)

// Store namespaces artifacts for one source, e.g. usage-events. Files are
// named <MM-YYYY>-<suffix>.json under dir.
type Store struct {
	dir    string
	suffix string
}

func New(dir, suffix string) *Store {
	return &Store{dir: dir, suffix: suffix}
}

func (s *Store) Dir() string {
	return s.dir
}

func (s *Store) Path(m types.Month) string {
	return filepath.Join(s.dir, m.Key()+"-"+s.suffix+".json")
}

func (s *Store) Exists(m types.Month) bool {
	info, err := os.Stat(s.Path(m))
	return err == nil && !info.IsDir()
}

// Remove deletes a month's artifact if present.
func (s *Store) Remove(m types.Month) error {
	err := os.Remove(s.Path(m))
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return types.CacheError{Path: s.Path(m), Err: err}
	}
	return nil
}

// Artifact is the on-disk shape. FetchedAt records when the fetch ran so an
// operator can judge staleness; record timestamps inside Records keep their
// own wire format.
type Artifact[T any] struct {
	BucketID    string    `json:"bucket_id"`
	FetchedAt   time.Time `json:"fetched_at"`
	RecordCount int       `json:"record_count"`
	Records     []T       `json:"records"`
}

// Save writes the month's records atomically: temp file in the same
// directory, then rename. A crash mid-save leaves no visible artifact.
func Save[T any](s *Store, m types.Month, records []T) error {
	if err := os.MkdirAll(s.dir, 0o750); err != nil {
		return types.CacheError{Path: s.dir, Err: err}
	}
	if records == nil {
		records = []T{}
	}
	art := Artifact[T]{
		BucketID:    m.Key(),
		FetchedAt:   time.Now().UTC(),
		RecordCount: len(records),
		Records:     records,
	}
	data, err := json.MarshalIndent(art, "", "  ")
	if err != nil {
		return types.CacheError{Path: s.Path(m), Err: err}
	}

	path := s.Path(m)
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o600); err != nil {
		return types.CacheError{Path: tmp, Err: err}
	}
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return types.CacheError{Path: path, Err: err}
	}
	return nil
}

// Load reads a month's records. A missing artifact is types.ErrNotCached;
// anything else wrong with the file is a real error.
func Load[T any](s *Store, m types.Month) ([]T, error) {
	path := s.Path(m)
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("%s %s: %w", s.suffix, m.Key(), types.ErrNotCached)
	}
	if err != nil {
		return nil, types.CacheError{Path: path, Err: err}
	}
	var art Artifact[T]
	if err := json.Unmarshal(data, &art); err != nil {
		return nil, types.CacheError{Path: path, Err: err}
	}
	if art.BucketID != "" && art.BucketID != m.Key() {
		return nil, types.CacheError{Path: path, Err: fmt.Errorf("bucket id %q does not match month %s", art.BucketID, m.Key())}
	}
	return art.Records, nil
}

// Ensure fetches and saves every requested month that has no artifact yet,
// oldest first. Cached months cost zero requests; any fetch or save error
// aborts the remaining months.
func Ensure[T any](ctx context.Context, s *Store, months []types.Month, fn func(context.Context, types.Month) ([]T, error)) error {
	for _, m := range months {
		if s.Exists(m) {
			logger.Debug("month already cached", "source", s.suffix, "month", m.Key())
			continue
		}
		records, err := fn(ctx, m)
		if err != nil {
			return fmt.Errorf("fetching %s for %s: %w", s.suffix, m.Key(), err)
		}
		if err := Save(s, m, records); err != nil {
			return err
		}
		logger.Info("cached month", "source", s.suffix, "month", m.Key(), "records", len(records))
	}
	return nil
}

// Monthly pairs a month with its loaded records.
type Monthly[T any] struct {
	Month   types.Month
	Records []T
}

// LoadRange loads a span of cached months in order.
func LoadRange[T any](s *Store, months []types.Month) ([]Monthly[T], error) {
	out := make([]Monthly[T], 0, len(months))
	for _, m := range months {
		records, err := Load[T](s, m)
		if err != nil {
			return nil, err
		}
		out = append(out, Monthly[T]{Month: m, Records: records})
	}
	return out, nil
}
