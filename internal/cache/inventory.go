package cache

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/devpulse/devpulse/internal/logger"
	"github.com/devpulse/devpulse/internal/types"
)

// Entry describes one artifact on disk, for the status view.
type Entry struct {
	Source    string
	Month     types.Month
	Records   int
	FetchedAt time.Time
	Size      int64
	Path      string
}

type artifactMeta struct {
	BucketID    string    `json:"bucket_id"`
	FetchedAt   time.Time `json:"fetched_at"`
	RecordCount int       `json:"record_count"`
}

// Inventory scans dir for cache artifacts, sorted by source then month.
// A missing directory is an empty inventory, not an error.
func Inventory(dir string) ([]Entry, error) {
	dirEntries, err := os.ReadDir(dir)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	var out []Entry
	for _, de := range dirEntries {
		name := de.Name()
		if de.IsDir() || !strings.HasSuffix(name, ".json") {
			continue
		}
		base := strings.TrimSuffix(name, ".json")
		// <MM-YYYY>-<suffix>; the month key is always 7 characters.
		if len(base) < 9 || base[7] != '-' {
			continue
		}
		m, err := types.ParseMonthKey(base[:7])
		if err != nil {
			continue
		}
		source := base[8:]

		path := filepath.Join(dir, name)
		data, err := os.ReadFile(path)
		if err != nil {
			logger.Warn("unreadable cache artifact", "path", path, "error", err)
			continue
		}
		var meta artifactMeta
		if err := json.Unmarshal(data, &meta); err != nil {
			logger.Warn("malformed cache artifact", "path", path, "error", err)
			continue
		}

		info, err := de.Info()
		var size int64
		if err == nil {
			size = info.Size()
		}
		out = append(out, Entry{
			Source:    source,
			Month:     m,
			Records:   meta.RecordCount,
			FetchedAt: meta.FetchedAt,
			Size:      size,
			Path:      path,
		})
	}

	sort.Slice(out, func(i, j int) bool {
		if out[i].Source != out[j].Source {
			return out[i].Source < out[j].Source
		}
		return out[i].Month.Before(out[j].Month)
	})
	return out, nil
}
