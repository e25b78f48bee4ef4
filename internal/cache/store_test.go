package cache

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/devpulse/devpulse/internal/types"
)

type record struct {
	Name  string  `json:"name"`
	Cents float64 `json:"cents"`
}

func month(y int, m time.Month) types.Month {
	return types.Month{Year: y, Month: m}
}

func TestSaveLoadRoundTrip(t *testing.T) {
	s := New(t.TempDir(), "usage-events")
	m := month(2025, time.March)

	records := []record{{Name: "alice@example.com", Cents: 12.5}, {Name: "bob@example.com", Cents: 3.25}}
	require.NoError(t, Save(s, m, records))
	require.True(t, s.Exists(m))

	got, err := Load[record](s, m)
	require.NoError(t, err)
	assert.Equal(t, records, got)

	entries, err := os.ReadDir(s.Dir())
	require.NoError(t, err)
	require.Len(t, entries, 1, "no temp file may remain after save")
	assert.Equal(t, "03-2025-usage-events.json", entries[0].Name())
}

func TestArtifactShape(t *testing.T) {
	s := New(t.TempDir(), "issues")
	m := month(2025, time.January)
	require.NoError(t, Save(s, m, []record{{Name: "x"}}))

	data, err := os.ReadFile(s.Path(m))
	require.NoError(t, err)

	var raw map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(data, &raw))
	for _, key := range []string{"bucket_id", "fetched_at", "record_count", "records"} {
		assert.Contains(t, raw, key)
	}

	var art Artifact[record]
	require.NoError(t, json.Unmarshal(data, &art))
	assert.Equal(t, "01-2025", art.BucketID)
	assert.Equal(t, 1, art.RecordCount)
	assert.False(t, art.FetchedAt.IsZero())
}

func TestLoadMissingMonth(t *testing.T) {
	s := New(t.TempDir(), "usage-events")
	_, err := Load[record](s, month(2025, time.April))
	require.ErrorIs(t, err, types.ErrNotCached)
}

func TestOrphanTempFileIsNotAnArtifact(t *testing.T) {
	dir := t.TempDir()
	s := New(dir, "usage-events")
	m := month(2025, time.March)

	// Simulates a crash between the temp write and the rename.
	orphan := s.Path(m) + ".tmp"
	require.NoError(t, os.WriteFile(orphan, []byte(`{"bucket_id":"03-2025"`), 0o600))

	assert.False(t, s.Exists(m))
	_, err := Load[record](s, m)
	assert.ErrorIs(t, err, types.ErrNotCached)
}

func TestLoadCorruptArtifact(t *testing.T) {
	dir := t.TempDir()
	s := New(dir, "usage-events")
	m := month(2025, time.March)
	require.NoError(t, os.WriteFile(s.Path(m), []byte(`{"bucket_id":`), 0o600))

	_, err := Load[record](s, m)
	require.Error(t, err)
	assert.NotErrorIs(t, err, types.ErrNotCached, "corrupt files are real errors, not cache misses")

	var ce types.CacheError
	assert.ErrorAs(t, err, &ce)
}

func TestLoadRejectsBucketMismatch(t *testing.T) {
	dir := t.TempDir()
	s := New(dir, "issues")
	m := month(2025, time.March)
	wrong := `{"bucket_id":"02-2025","fetched_at":"2025-03-01T00:00:00Z","record_count":0,"records":[]}`
	require.NoError(t, os.WriteFile(s.Path(m), []byte(wrong), 0o600))

	_, err := Load[record](s, m)
	require.Error(t, err)
}

func TestEnsureIsIdempotent(t *testing.T) {
	s := New(t.TempDir(), "usage-events")
	months := []types.Month{month(2025, time.January), month(2025, time.February)}

	var calls int
	fn := func(_ context.Context, m types.Month) ([]record, error) {
		calls++
		return []record{{Name: m.Key()}}, nil
	}

	require.NoError(t, Ensure(context.Background(), s, months, fn))
	require.Equal(t, 2, calls)

	require.NoError(t, Ensure(context.Background(), s, months, fn))
	assert.Equal(t, 2, calls, "second run must perform zero fetches")
}

func TestEnsureResumesAfterAbort(t *testing.T) {
	s := New(t.TempDir(), "pull-requests")
	months := []types.Month{month(2025, time.January), month(2025, time.February)}

	var fetched []string
	failFeb := func(_ context.Context, m types.Month) ([]record, error) {
		fetched = append(fetched, m.Key())
		if m.Month == time.February {
			return nil, errors.New("api down")
		}
		return []record{{Name: m.Key()}}, nil
	}

	err := Ensure(context.Background(), s, months, failFeb)
	require.Error(t, err)
	require.Equal(t, []string{"01-2025", "02-2025"}, fetched)
	assert.True(t, s.Exists(months[0]), "completed month stays cached across the abort")
	assert.False(t, s.Exists(months[1]))

	ok := func(_ context.Context, m types.Month) ([]record, error) {
		fetched = append(fetched, m.Key())
		return []record{{Name: m.Key()}}, nil
	}
	require.NoError(t, Ensure(context.Background(), s, months, ok))
	assert.Equal(t, []string{"01-2025", "02-2025", "02-2025"}, fetched, "resume fetches only the missing month")
}

func TestEnsureSavesEmptyMonths(t *testing.T) {
	s := New(t.TempDir(), "issues")
	m := month(2025, time.June)

	var calls int
	fn := func(context.Context, types.Month) ([]record, error) {
		calls++
		return nil, nil
	}
	require.NoError(t, Ensure(context.Background(), s, []types.Month{m}, fn))
	require.Equal(t, 1, calls)

	got, err := Load[record](s, m)
	require.NoError(t, err)
	assert.Empty(t, got)

	// An empty month is still cached: no refetch.
	require.NoError(t, Ensure(context.Background(), s, []types.Month{m}, fn))
	assert.Equal(t, 1, calls)
}

func TestLoadRangeKeepsOrder(t *testing.T) {
	s := New(t.TempDir(), "usage-events")
	months := []types.Month{month(2024, time.December), month(2025, time.January)}
	require.NoError(t, Save(s, months[0], []record{{Name: "dec"}}))
	require.NoError(t, Save(s, months[1], []record{{Name: "jan"}}))

	got, err := LoadRange[record](s, months)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "12-2024", got[0].Month.Key())
	assert.Equal(t, "dec", got[0].Records[0].Name)
	assert.Equal(t, "01-2025", got[1].Month.Key())
}

func TestRemove(t *testing.T) {
	s := New(t.TempDir(), "usage-events")
	m := month(2025, time.May)
	require.NoError(t, s.Remove(m), "removing an absent month is fine")

	require.NoError(t, Save(s, m, []record{{Name: "x"}}))
	require.True(t, s.Exists(m))
	require.NoError(t, s.Remove(m))
	assert.False(t, s.Exists(m))
}

func TestInventory(t *testing.T) {
	dir := t.TempDir()
	usage := New(dir, "usage-events")
	issues := New(dir, "issues")

	require.NoError(t, Save(usage, month(2025, time.February), []record{{Name: "a"}}))
	require.NoError(t, Save(usage, month(2025, time.January), []record{{Name: "b"}, {Name: "c"}}))
	require.NoError(t, Save(issues, month(2025, time.January), []record{{Name: "d"}}))

	// Noise the scanner must ignore.
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("hi"), 0o600))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "bogus.json"), []byte("{}"), 0o600))

	entries, err := Inventory(dir)
	require.NoError(t, err)
	require.Len(t, entries, 3)

	assert.Equal(t, "issues", entries[0].Source)
	assert.Equal(t, "01-2025", entries[0].Month.Key())
	assert.Equal(t, 1, entries[0].Records)

	assert.Equal(t, "usage-events", entries[1].Source)
	assert.Equal(t, "01-2025", entries[1].Month.Key())
	assert.Equal(t, 2, entries[1].Records)

	assert.Equal(t, "usage-events", entries[2].Source)
	assert.Equal(t, "02-2025", entries[2].Month.Key())
}

func TestInventoryMissingDir(t *testing.T) {
	entries, err := Inventory(filepath.Join(t.TempDir(), "nope"))
	require.NoError(t, err)
	assert.Empty(t, entries)
}
