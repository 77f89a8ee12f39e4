package snapshot

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/wonny/argos/internal/contracts"
)

// PostgresStore keeps snapshot records in the snapshots.daily table:
//
//	CREATE TABLE snapshots.daily (
//		snapshot_date  date PRIMARY KEY,
//		schema_version int NOT NULL,
//		saved_at       timestamptz NOT NULL,
//		payload        jsonb NOT NULL
//	)
type PostgresStore struct {
	pool *pgxpool.Pool
}

// NewPostgresStore creates a store backed by the given pool.
func NewPostgresStore(pool *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

// Save implements Store.
func (s *PostgresStore) Save(ctx context.Context, rec *Record, overwrite bool) error {
	payload, err := json.Marshal(rec.Payload)
	if err != nil {
		return fmt.Errorf("encoding snapshot payload: %w", err)
	}

	if overwrite {
		query := `
			INSERT INTO snapshots.daily (snapshot_date, schema_version, saved_at, payload)
			VALUES ($1, $2, $3, $4)
			ON CONFLICT (snapshot_date) DO UPDATE SET
				schema_version = EXCLUDED.schema_version,
				saved_at = EXCLUDED.saved_at,
				payload = EXCLUDED.payload
		`
		_, err := s.pool.Exec(ctx, query, rec.Date, rec.SchemaVersion, rec.SavedAt, payload)
		return err
	}

	query := `
		INSERT INTO snapshots.daily (snapshot_date, schema_version, saved_at, payload)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (snapshot_date) DO NOTHING
	`
	tag, err := s.pool.Exec(ctx, query, rec.Date, rec.SchemaVersion, rec.SavedAt, payload)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return contracts.ErrSnapshotExists
	}
	return nil
}

// Load implements Store.
func (s *PostgresStore) Load(ctx context.Context, date time.Time) (*Record, error) {
	query := `
		SELECT snapshot_date, schema_version, saved_at, payload
		FROM snapshots.daily
		WHERE snapshot_date = $1
	`
	return scanRecord(s.pool.QueryRow(ctx, query, midnightUTC(date)))
}

// LoadAsOf implements Store.
func (s *PostgresStore) LoadAsOf(ctx context.Context, asOf time.Time) (*Record, error) {
	query := `
		SELECT snapshot_date, schema_version, saved_at, payload
		FROM snapshots.daily
		WHERE snapshot_date <= $1
		ORDER BY snapshot_date DESC
		LIMIT 1
	`
	return scanRecord(s.pool.QueryRow(ctx, query, midnightUTC(asOf)))
}

// List implements Store.
func (s *PostgresStore) List(ctx context.Context) ([]time.Time, error) {
	query := `SELECT snapshot_date FROM snapshots.daily ORDER BY snapshot_date ASC`

	rows, err := s.pool.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var dates []time.Time
	for rows.Next() {
		var d time.Time
		if err := rows.Scan(&d); err != nil {
			return nil, err
		}
		dates = append(dates, midnightUTC(d))
	}
	return dates, rows.Err()
}

func scanRecord(row pgx.Row) (*Record, error) {
	var rec Record
	var payload []byte
	err := row.Scan(&rec.Date, &rec.SchemaVersion, &rec.SavedAt, &payload)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, contracts.ErrSnapshotNotFound
	}
	if err != nil {
		return nil, err
	}
	if err := checkSchema(rec.SchemaVersion); err != nil {
		return nil, err
	}
	if err := json.Unmarshal(payload, &rec.Payload); err != nil {
		return nil, fmt.Errorf("decoding snapshot payload: %w", err)
	}
	rec.Date = midnightUTC(rec.Date)
	return &rec, nil
}
