package snapshot

import (
	"context"
	"errors"
	"os"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/wonny/argos/internal/contracts"
)

func testPool(t *testing.T) *pgxpool.Pool {
	t.Helper()

	// Skip if DATABASE_URL is not set
	url := os.Getenv("DATABASE_URL")
	if url == "" {
		t.Skip("DATABASE_URL not set, skipping integration test")
	}

	pool, err := pgxpool.New(context.Background(), url)
	if err != nil {
		t.Fatalf("Failed to connect: %v", err)
	}
	t.Cleanup(pool.Close)

	ctx := context.Background()
	if _, err := pool.Exec(ctx, `CREATE SCHEMA IF NOT EXISTS snapshots`); err != nil {
		t.Fatalf("Failed to create schema: %v", err)
	}
	if _, err := pool.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS snapshots.daily (
			snapshot_date  date PRIMARY KEY,
			schema_version int NOT NULL,
			saved_at       timestamptz NOT NULL,
			payload        jsonb NOT NULL
		)
	`); err != nil {
		t.Fatalf("Failed to create table: %v", err)
	}

	// Test rows live far in the future so they never collide with real
	// snapshots.
	cleanup := func() {
		pool.Exec(ctx, `DELETE FROM snapshots.daily WHERE snapshot_date >= '2031-01-01'`)
	}
	cleanup()
	t.Cleanup(cleanup)

	return pool
}

func TestPostgresStore_RoundTrip(t *testing.T) {
	store := NewPostgresStore(testPool(t))
	ctx := context.Background()

	day := time.Date(2031, 1, 6, 0, 0, 0, 0, time.UTC)
	rec := NewRecord(day, map[string]*contracts.IndicatorSnapshot{
		"AAPL": {Ticker: "AAPL", AsOf: day, Momentum12_1: contracts.Ptr(0.2)},
	})

	if err := store.Save(ctx, rec, false); err != nil {
		t.Fatalf("Save failed: %v", err)
	}
	if err := store.Save(ctx, rec, false); !errors.Is(err, contracts.ErrSnapshotExists) {
		t.Errorf("duplicate Save error = %v, want ErrSnapshotExists", err)
	}

	loaded, err := store.Load(ctx, day)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if loaded.SchemaVersion != SchemaVersion {
		t.Errorf("SchemaVersion = %d, want %d", loaded.SchemaVersion, SchemaVersion)
	}
	snap, ok := loaded.Payload["AAPL"]
	if !ok {
		t.Fatal("payload missing AAPL")
	}
	if snap.Momentum12_1 == nil || *snap.Momentum12_1 != 0.2 {
		t.Errorf("Momentum12_1 = %v, want 0.2", snap.Momentum12_1)
	}

	if _, err := store.Load(ctx, day.AddDate(0, 0, 1)); !errors.Is(err, contracts.ErrSnapshotNotFound) {
		t.Errorf("Load missing date error = %v, want ErrSnapshotNotFound", err)
	}
}

func TestPostgresStore_LoadAsOfAndList(t *testing.T) {
	store := NewPostgresStore(testPool(t))
	ctx := context.Background()

	days := []time.Time{
		time.Date(2031, 1, 6, 0, 0, 0, 0, time.UTC),
		time.Date(2031, 1, 7, 0, 0, 0, 0, time.UTC),
		time.Date(2031, 1, 9, 0, 0, 0, 0, time.UTC),
	}
	for _, day := range days {
		rec := NewRecord(day, map[string]*contracts.IndicatorSnapshot{
			"AAPL": {Ticker: "AAPL", AsOf: day},
		})
		if err := store.Save(ctx, rec, false); err != nil {
			t.Fatalf("Save %s failed: %v", day.Format("2006-01-02"), err)
		}
	}

	rec, err := store.LoadAsOf(ctx, time.Date(2031, 1, 8, 0, 0, 0, 0, time.UTC))
	if err != nil {
		t.Fatalf("LoadAsOf failed: %v", err)
	}
	if !rec.Date.Equal(days[1]) {
		t.Errorf("LoadAsOf date = %s, want %s", rec.Date, days[1])
	}

	listed, err := store.List(ctx)
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(listed) < len(days) {
		t.Fatalf("List returned %d dates, want at least %d", len(listed), len(days))
	}
	for i := 1; i < len(listed); i++ {
		if listed[i].Before(listed[i-1]) {
			t.Errorf("List not ascending: %s before %s", listed[i], listed[i-1])
		}
	}
}

func TestPostgresStore_Overwrite(t *testing.T) {
	store := NewPostgresStore(testPool(t))
	ctx := context.Background()

	day := time.Date(2031, 2, 2, 0, 0, 0, 0, time.UTC)
	first := NewRecord(day, map[string]*contracts.IndicatorSnapshot{
		"AAPL": {Ticker: "AAPL", AsOf: day},
	})
	if err := store.Save(ctx, first, false); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	second := NewRecord(day, map[string]*contracts.IndicatorSnapshot{
		"MSFT": {Ticker: "MSFT", AsOf: day},
	})
	if err := store.Save(ctx, second, true); err != nil {
		t.Fatalf("overwrite Save failed: %v", err)
	}

	loaded, err := store.Load(ctx, day)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if _, ok := loaded.Payload["MSFT"]; !ok {
		t.Error("payload missing MSFT after overwrite")
	}
	if _, ok := loaded.Payload["AAPL"]; ok {
		t.Error("payload still has AAPL after overwrite")
	}
}
