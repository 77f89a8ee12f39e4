package marketdata

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"

	"github.com/wonny/argos/internal/contracts"
)

// PostgresRepository reads and writes daily price history and ticker
// metadata. Expected schema:
//
//	CREATE SCHEMA IF NOT EXISTS marketdata;
//
//	CREATE TABLE marketdata.stocks (
//	    ticker text PRIMARY KEY,
//	    name   text NOT NULL DEFAULT '',
//	    sector text NOT NULL DEFAULT ''
//	);
//
//	CREATE TABLE marketdata.daily_prices (
//	    ticker     text NOT NULL,
//	    trade_date date NOT NULL,
//	    open       double precision NOT NULL,
//	    high       double precision NOT NULL,
//	    low        double precision NOT NULL,
//	    close      double precision NOT NULL,
//	    adj_close  double precision NOT NULL,
//	    volume     bigint NOT NULL,
//	    PRIMARY KEY (ticker, trade_date)
//	);
type PostgresRepository struct {
	pool *pgxpool.Pool
	log  zerolog.Logger
}

var _ contracts.PriceReader = (*PostgresRepository)(nil)
var _ contracts.SectorLookup = (*PostgresRepository)(nil)

// NewPostgresRepository creates a new price repository
func NewPostgresRepository(pool *pgxpool.Pool, log zerolog.Logger) *PostgresRepository {
	return &PostgresRepository{
		pool: pool,
		log:  log.With().Str("component", "price_repository").Logger(),
	}
}

// GetSeries retrieves the full daily history for a ticker in ascending
// date order.
func (r *PostgresRepository) GetSeries(ctx context.Context, ticker string) (contracts.PriceSeries, error) {
	query := `
		SELECT ticker, trade_date, open, high, low, close, adj_close, volume
		FROM marketdata.daily_prices
		WHERE ticker = $1
		ORDER BY trade_date ASC
	`

	rows, err := r.pool.Query(ctx, query, ticker)
	if err != nil {
		return nil, fmt.Errorf("querying prices for %s: %w", ticker, err)
	}
	defer rows.Close()

	var series contracts.PriceSeries
	for rows.Next() {
		var p contracts.PricePoint
		if err := rows.Scan(&p.Ticker, &p.Date, &p.Open, &p.High, &p.Low, &p.Close, &p.AdjClose, &p.Volume); err != nil {
			return nil, err
		}
		series = append(series, p)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	if len(series) == 0 {
		return nil, fmt.Errorf("%s: %w", ticker, contracts.ErrTickerNotFound)
	}
	return series, nil
}

// ListTickers returns all tickers that have at least one price row.
func (r *PostgresRepository) ListTickers(ctx context.Context) ([]string, error) {
	query := `
		SELECT DISTINCT ticker
		FROM marketdata.daily_prices
		ORDER BY ticker ASC
	`

	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var tickers []string
	for rows.Next() {
		var t string
		if err := rows.Scan(&t); err != nil {
			return nil, err
		}
		tickers = append(tickers, t)
	}
	return tickers, rows.Err()
}

// GetSector returns the sector for a ticker. A stock row with an empty
// sector is returned as-is; callers treat it as unclassified.
func (r *PostgresRepository) GetSector(ctx context.Context, ticker string) (string, error) {
	query := `
		SELECT sector
		FROM marketdata.stocks
		WHERE ticker = $1
	`

	var sector string
	err := r.pool.QueryRow(ctx, query, ticker).Scan(&sector)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", fmt.Errorf("%s: %w", ticker, contracts.ErrTickerNotFound)
	}
	if err != nil {
		return "", err
	}
	return sector, nil
}

// SavePoint upserts a single daily bar.
func (r *PostgresRepository) SavePoint(ctx context.Context, p contracts.PricePoint) error {
	query := `
		INSERT INTO marketdata.daily_prices (ticker, trade_date, open, high, low, close, adj_close, volume)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (ticker, trade_date) DO UPDATE SET
			open = EXCLUDED.open,
			high = EXCLUDED.high,
			low = EXCLUDED.low,
			close = EXCLUDED.close,
			adj_close = EXCLUDED.adj_close,
			volume = EXCLUDED.volume
	`

	_, err := r.pool.Exec(ctx, query,
		p.Ticker, p.Date, p.Open, p.High, p.Low, p.Close, p.AdjClose, p.Volume,
	)
	return err
}

// SaveBatch upserts multiple daily bars.
func (r *PostgresRepository) SaveBatch(ctx context.Context, points []contracts.PricePoint) error {
	if len(points) == 0 {
		return nil
	}

	for _, p := range points {
		if err := r.SavePoint(ctx, p); err != nil {
			return fmt.Errorf("saving %s %s: %w", p.Ticker, p.Date.Format("2006-01-02"), err)
		}
	}

	r.log.Debug().Int("points", len(points)).Msg("price batch saved")
	return nil
}

// SaveStock upserts ticker metadata.
func (r *PostgresRepository) SaveStock(ctx context.Context, ticker, name, sector string) error {
	query := `
		INSERT INTO marketdata.stocks (ticker, name, sector)
		VALUES ($1, $2, $3)
		ON CONFLICT (ticker) DO UPDATE SET
			name = EXCLUDED.name,
			sector = EXCLUDED.sector
	`

	_, err := r.pool.Exec(ctx, query, ticker, name, sector)
	return err
}
