package handlers

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/wonny/argos/internal/backtest"
	"github.com/wonny/argos/internal/contracts"
	"github.com/wonny/argos/internal/indicators"
	"github.com/wonny/argos/internal/scoring"
	"github.com/wonny/argos/pkg/logger"
	"github.com/wonny/argos/pkg/redis"
)

// RankingHandler handles ranking API endpoints
type RankingHandler struct {
	prices     contracts.PriceReader
	sectors    contracts.SectorLookup
	builder    *indicators.Builder
	ranker     *backtest.Ranker
	thresholds scoring.Thresholds
	universe   []string
	cache      *redis.Cache
	logger     *logger.Logger
}

// NewRankingHandler creates a new ranking handler. universe is the default
// ticker set ranked when none is configured; empty means every ticker the
// price store knows. sectors may be nil.
func NewRankingHandler(
	prices contracts.PriceReader,
	sectors contracts.SectorLookup,
	builder *indicators.Builder,
	ranker *backtest.Ranker,
	thresholds scoring.Thresholds,
	universe []string,
	cache *redis.Cache,
	log *logger.Logger,
) *RankingHandler {
	return &RankingHandler{
		prices:     prices,
		sectors:    sectors,
		builder:    builder,
		ranker:     ranker,
		thresholds: thresholds,
		universe:   universe,
		cache:      cache,
		logger:     log,
	}
}

// RankingEntry represents one ranked ticker
type RankingEntry struct {
	Ticker         string                 `json:"ticker"`
	Score          float64                `json:"score"`
	RankPercentile float64                `json:"rank_percentile"`
	Quintile       int                    `json:"quintile,omitempty"`
	Recommendation scoring.Recommendation `json:"recommendation"`
	Sector         string                 `json:"sector,omitempty"`
}

// RankingResponse represents a full cross-sectional ranking
type RankingResponse struct {
	Date             string            `json:"date"`
	Count            int               `json:"count"`
	Entries          []RankingEntry    `json:"entries"`
	Excluded         map[string]string `json:"excluded,omitempty"`
	QuintilesDefined bool              `json:"quintiles_defined"`
}

// GetRankings returns the cross-sectional ranking as of a date, best
// score first. Defaults to today.
// GET /api/rankings?date=YYYY-MM-DD
func (h *RankingHandler) GetRankings(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	date := time.Now().UTC()
	if q := r.URL.Query().Get("date"); q != "" {
		var err error
		date, err = time.Parse("2006-01-02", q)
		if err != nil {
			respondError(w, http.StatusBadRequest, "Invalid 'date' format (expected YYYY-MM-DD)")
			return
		}
	}
	dateStr := date.Format("2006-01-02")

	var resp RankingResponse
	err := h.cache.GetOrSet(ctx, redis.RankingKey(dateStr), &resp, redis.TTLMedium, func() (interface{}, error) {
		return h.computeRankings(ctx, date)
	})
	if err != nil {
		h.logger.WithError(err).Error("Failed to compute rankings")
		respondError(w, http.StatusInternalServerError, "Failed to compute rankings")
		return
	}

	respondJSON(w, http.StatusOK, resp)
}

// computeRankings builds indicator snapshots for the universe as of date
// and ranks them cross-sectionally.
func (h *RankingHandler) computeRankings(ctx context.Context, date time.Time) (*RankingResponse, error) {
	tickers := h.universe
	if len(tickers) == 0 {
		var err error
		tickers, err = h.prices.ListTickers(ctx)
		if err != nil {
			return nil, err
		}
	}

	snapshots := make(map[string]*contracts.IndicatorSnapshot, len(tickers))
	sectors := make(map[string]string)
	for _, ticker := range tickers {
		series, err := h.prices.GetSeries(ctx, ticker)
		if err != nil {
			if errors.Is(err, contracts.ErrTickerNotFound) {
				snapshots[ticker] = nil
				continue
			}
			return nil, err
		}
		snapshots[ticker] = h.builder.Build(ticker, series, date)

		if h.sectors != nil {
			if sector, err := h.sectors.GetSector(ctx, ticker); err == nil && sector != "" {
				sectors[ticker] = sector
			}
		}
	}

	ranking := h.ranker.Rank(snapshots, sectors)

	// Assignments come back ascending; the API serves best first.
	resp := &RankingResponse{
		Date:             date.Format("2006-01-02"),
		Count:            len(ranking.Assignments),
		Entries:          make([]RankingEntry, 0, len(ranking.Assignments)),
		Excluded:         ranking.Excluded,
		QuintilesDefined: ranking.QuintilesDefined,
	}
	for i := len(ranking.Assignments) - 1; i >= 0; i-- {
		a := ranking.Assignments[i]
		resp.Entries = append(resp.Entries, RankingEntry{
			Ticker:         a.Ticker,
			Score:          a.Score,
			RankPercentile: a.RankPercentile,
			Quintile:       a.Quintile,
			Recommendation: scoring.Recommend(a.Score, true, h.thresholds),
			Sector:         sectors[a.Ticker],
		})
	}

	return resp, nil
}
