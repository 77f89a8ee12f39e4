package snapshot

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/wonny/argos/internal/contracts"
	"github.com/wonny/argos/internal/indicators"
)

// Manager builds and persists daily snapshots. It is the side channel
// that accumulates indicator history for models that cannot be rebuilt
// from prices alone.
type Manager struct {
	store   Store
	prices  contracts.PriceReader
	sectors contracts.SectorLookup
	builder *indicators.Builder
	log     zerolog.Logger
}

// NewManager wires a Manager. sectors may be nil; the sector-relative
// field is then left empty.
func NewManager(store Store, prices contracts.PriceReader, sectors contracts.SectorLookup, builder *indicators.Builder, log zerolog.Logger) *Manager {
	return &Manager{
		store:   store,
		prices:  prices,
		sectors: sectors,
		builder: builder,
		log:     log.With().Str("component", "snapshot_manager").Logger(),
	}
}

// Capture builds the indicator state for every ticker in the universe as
// of date and saves it. Tickers without any visible history are left out
// of the payload; stale tickers stay in, flagged. The cross-sectional
// sector field is filled over the whole universe before saving.
func (m *Manager) Capture(ctx context.Context, universe []string, date time.Time, overwrite bool) (*Record, error) {
	if len(universe) == 0 {
		return nil, errors.New("capture needs a non-empty universe")
	}

	payload := make(map[string]*contracts.IndicatorSnapshot, len(universe))
	sectors := make(map[string]string)
	for _, ticker := range universe {
		series, err := m.prices.GetSeries(ctx, ticker)
		if err != nil {
			if errors.Is(err, contracts.ErrTickerNotFound) {
				m.log.Warn().Str("ticker", ticker).Msg("no price history, leaving out of snapshot")
				continue
			}
			return nil, fmt.Errorf("loading prices for %s: %w", ticker, err)
		}

		snap := m.builder.Build(ticker, series, date)
		if snap == nil {
			m.log.Warn().Str("ticker", ticker).Msg("no visible bars, leaving out of snapshot")
			continue
		}
		payload[ticker] = snap

		if m.sectors != nil {
			if sector, err := m.sectors.GetSector(ctx, ticker); err == nil && sector != "" {
				sectors[ticker] = sector
			}
		}
	}
	if len(payload) == 0 {
		return nil, fmt.Errorf("no ticker had visible history as of %s", date.Format("2006-01-02"))
	}

	indicators.FillSectorRelative(payload, sectors)

	rec := NewRecord(date, payload)
	if err := m.store.Save(ctx, rec, overwrite); err != nil {
		return nil, err
	}

	m.log.Info().
		Str("date", rec.Date.Format("2006-01-02")).
		Int("tickers", len(payload)).
		Msg("snapshot captured")
	return rec, nil
}
