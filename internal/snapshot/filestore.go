package snapshot

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/wonny/argos/internal/contracts"
)

const fileDateLayout = "2006-01-02"

// FileStore keeps one JSON file per snapshot date under a directory.
// Writes go through a temp file so a crash never leaves a half-written
// record behind.
type FileStore struct {
	dir string
	log zerolog.Logger
}

// NewFileStore creates the directory if needed.
func NewFileStore(dir string, log zerolog.Logger) (*FileStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating snapshot dir: %w", err)
	}
	return &FileStore{
		dir: dir,
		log: log.With().Str("component", "snapshot_filestore").Logger(),
	}, nil
}

func (s *FileStore) path(date time.Time) string {
	return filepath.Join(s.dir, date.UTC().Format(fileDateLayout)+".json")
}

// Save implements Store.
func (s *FileStore) Save(_ context.Context, rec *Record, overwrite bool) error {
	data, err := json.MarshalIndent(rec, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding snapshot: %w", err)
	}

	tmp, err := os.CreateTemp(s.dir, ".snapshot-*")
	if err != nil {
		return fmt.Errorf("creating temp file: %w", err)
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("writing snapshot: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("writing snapshot: %w", err)
	}

	target := s.path(rec.Date)
	if overwrite {
		if err := os.Rename(tmpName, target); err != nil {
			os.Remove(tmpName)
			return fmt.Errorf("replacing snapshot: %w", err)
		}
	} else {
		// Link refuses to replace an existing file; that is the
		// duplicate-date check.
		err := os.Link(tmpName, target)
		os.Remove(tmpName)
		if errors.Is(err, fs.ErrExist) {
			return contracts.ErrSnapshotExists
		}
		if err != nil {
			return fmt.Errorf("publishing snapshot: %w", err)
		}
	}

	s.log.Info().
		Str("date", rec.Date.Format(fileDateLayout)).
		Int("tickers", len(rec.Payload)).
		Bool("overwrite", overwrite).
		Msg("snapshot saved")
	return nil
}

// Load implements Store.
func (s *FileStore) Load(_ context.Context, date time.Time) (*Record, error) {
	data, err := os.ReadFile(s.path(date))
	if errors.Is(err, fs.ErrNotExist) {
		return nil, contracts.ErrSnapshotNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("reading snapshot: %w", err)
	}

	var rec Record
	if err := json.Unmarshal(data, &rec); err != nil {
		return nil, fmt.Errorf("decoding snapshot %s: %w", s.path(date), err)
	}
	if err := checkSchema(rec.SchemaVersion); err != nil {
		return nil, err
	}
	return &rec, nil
}

// LoadAsOf implements Store.
func (s *FileStore) LoadAsOf(ctx context.Context, asOf time.Time) (*Record, error) {
	dates, err := s.List(ctx)
	if err != nil {
		return nil, err
	}
	cutoff := midnightUTC(asOf)
	for i := len(dates) - 1; i >= 0; i-- {
		if !dates[i].After(cutoff) {
			return s.Load(ctx, dates[i])
		}
	}
	return nil, contracts.ErrSnapshotNotFound
}

// List implements Store. Files that do not look like snapshot records are
// ignored.
func (s *FileStore) List(_ context.Context) ([]time.Time, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, fmt.Errorf("listing snapshots: %w", err)
	}

	var dates []time.Time
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		name := strings.TrimSuffix(entry.Name(), ".json")
		if name == entry.Name() {
			continue
		}
		d, err := time.Parse(fileDateLayout, name)
		if err != nil {
			continue
		}
		dates = append(dates, d)
	}
	sort.Slice(dates, func(i, j int) bool { return dates[i].Before(dates[j]) })
	return dates, nil
}
