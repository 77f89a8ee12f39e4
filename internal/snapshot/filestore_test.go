package snapshot

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/argos/internal/contracts"
)

func newFileStore(t *testing.T) (*FileStore, string) {
	t.Helper()
	dir := t.TempDir()
	store, err := NewFileStore(dir, zerolog.Nop())
	require.NoError(t, err)
	return store, dir
}

func samplePayload() map[string]*contracts.IndicatorSnapshot {
	asOf := time.Date(2025, 1, 6, 0, 0, 0, 0, time.UTC)
	last := time.Date(2025, 1, 3, 0, 0, 0, 0, time.UTC)
	return map[string]*contracts.IndicatorSnapshot{
		"AAPL": {
			Ticker:        "AAPL",
			AsOf:          asOf,
			LastPriceDate: last,
			SMA20:         contracts.Ptr(234.1),
			Momentum12_1:  contracts.Ptr(0.31),
			RSI14:         contracts.Ptr(58.2),
		},
		"XOM": {
			Ticker:        "XOM",
			AsOf:          asOf,
			LastPriceDate: last,
			Momentum12_1:  contracts.Ptr(-0.05),
		},
	}
}

func TestFileStore_SaveLoadRoundTrip(t *testing.T) {
	store, _ := newFileStore(t)
	ctx := context.Background()

	// A mid-afternoon capture time normalizes to the calendar day.
	rec := NewRecord(time.Date(2025, 1, 6, 15, 30, 0, 0, time.UTC), samplePayload())
	require.NoError(t, store.Save(ctx, rec, false))

	loaded, err := store.Load(ctx, time.Date(2025, 1, 6, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	assert.Equal(t, SchemaVersion, loaded.SchemaVersion)
	assert.Equal(t, time.Date(2025, 1, 6, 0, 0, 0, 0, time.UTC), loaded.Date)
	assert.Equal(t, rec.Payload, loaded.Payload)

	// Nil fields stay nil through the round trip.
	assert.Nil(t, loaded.Payload["XOM"].SMA20)
}

func TestFileStore_DuplicateDate(t *testing.T) {
	store, dir := newFileStore(t)
	ctx := context.Background()

	rec := NewRecord(time.Date(2025, 1, 6, 0, 0, 0, 0, time.UTC), samplePayload())
	require.NoError(t, store.Save(ctx, rec, false))

	err := store.Save(ctx, rec, false)
	require.ErrorIs(t, err, contracts.ErrSnapshotExists)

	// An explicit re-save replaces the record.
	replacement := NewRecord(rec.Date, map[string]*contracts.IndicatorSnapshot{
		"MSFT": {Ticker: "MSFT", AsOf: rec.Date},
	})
	require.NoError(t, store.Save(ctx, replacement, true))

	loaded, err := store.Load(ctx, rec.Date)
	require.NoError(t, err)
	assert.Contains(t, loaded.Payload, "MSFT")
	assert.NotContains(t, loaded.Payload, "AAPL")

	// No temp files left behind by either path.
	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	for _, entry := range entries {
		assert.False(t, strings.HasPrefix(entry.Name(), ".snapshot-"),
			"leftover temp file %s", entry.Name())
	}
}

func TestFileStore_LoadMissing(t *testing.T) {
	store, _ := newFileStore(t)

	_, err := store.Load(context.Background(), time.Date(2025, 1, 6, 0, 0, 0, 0, time.UTC))
	assert.ErrorIs(t, err, contracts.ErrSnapshotNotFound)
}

func TestFileStore_LoadAsOf(t *testing.T) {
	store, _ := newFileStore(t)
	ctx := context.Background()

	for _, day := range []int{6, 7, 9} {
		rec := NewRecord(time.Date(2025, 1, day, 0, 0, 0, 0, time.UTC), samplePayload())
		require.NoError(t, store.Save(ctx, rec, false))
	}

	// A gap day resolves to the last record before it.
	rec, err := store.LoadAsOf(ctx, time.Date(2025, 1, 8, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	assert.Equal(t, time.Date(2025, 1, 7, 0, 0, 0, 0, time.UTC), rec.Date)

	// An exact hit resolves to itself, whatever the time of day.
	rec, err = store.LoadAsOf(ctx, time.Date(2025, 1, 9, 18, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	assert.Equal(t, time.Date(2025, 1, 9, 0, 0, 0, 0, time.UTC), rec.Date)

	_, err = store.LoadAsOf(ctx, time.Date(2025, 1, 5, 0, 0, 0, 0, time.UTC))
	assert.ErrorIs(t, err, contracts.ErrSnapshotNotFound)
}

func TestFileStore_ListIgnoresForeignFiles(t *testing.T) {
	store, dir := newFileStore(t)
	ctx := context.Background()

	for _, day := range []int{9, 6, 7} {
		rec := NewRecord(time.Date(2025, 1, day, 0, 0, 0, 0, time.UTC), samplePayload())
		require.NoError(t, store.Save(ctx, rec, false))
	}
	require.NoError(t, os.WriteFile(filepath.Join(dir, "README.md"), []byte("notes"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "backup.json"), []byte("{}"), 0o644))

	dates, err := store.List(ctx)
	require.NoError(t, err)
	want := []time.Time{
		time.Date(2025, 1, 6, 0, 0, 0, 0, time.UTC),
		time.Date(2025, 1, 7, 0, 0, 0, 0, time.UTC),
		time.Date(2025, 1, 9, 0, 0, 0, 0, time.UTC),
	}
	assert.Equal(t, want, dates)
}

func TestFileStore_RejectsNewerSchema(t *testing.T) {
	store, dir := newFileStore(t)

	raw := `{"schema_version": 99, "date": "2025-01-06T00:00:00Z", "saved_at": "2025-01-06T21:00:00Z", "payload": {}}`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "2025-01-06.json"), []byte(raw), 0o644))

	_, err := store.Load(context.Background(), time.Date(2025, 1, 6, 0, 0, 0, 0, time.UTC))
	assert.ErrorIs(t, err, ErrSchemaTooNew)
}
