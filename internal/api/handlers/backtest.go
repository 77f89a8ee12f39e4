package handlers

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/wonny/argos/internal/backtest"
	"github.com/wonny/argos/internal/contracts"
	"github.com/wonny/argos/internal/strategyconfig"
	"github.com/wonny/argos/pkg/logger"
)

// BacktestHandler handles backtest API endpoints
type BacktestHandler struct {
	engine   *backtest.Engine
	strategy *strategyconfig.Config
	hash     string
	logger   *logger.Logger
}

// NewBacktestHandler creates a new backtest handler. strategy may be nil;
// requests must then carry every field themselves.
func NewBacktestHandler(engine *backtest.Engine, strategy *strategyconfig.Config, hash string, log *logger.Logger) *BacktestHandler {
	return &BacktestHandler{
		engine:   engine,
		strategy: strategy,
		hash:     hash,
		logger:   log,
	}
}

// BacktestRequest represents a backtest run request. Fields left empty
// fall back to the loaded strategy config.
type BacktestRequest struct {
	Universe      []string `json:"universe"`
	Start         string   `json:"start"` // Required (YYYY-MM-DD)
	End           string   `json:"end"`   // Required (YYYY-MM-DD)
	Frequency     string   `json:"frequency"`
	Horizons      []string `json:"horizons"`
	MinTickers    int      `json:"min_tickers"`
	WarmupDays    int      `json:"warmup_days"`
	ToleranceDays int      `json:"tolerance_days"`
	Workers       int      `json:"workers"`
}

// Run executes a backtest synchronously and returns the full report
// POST /api/backtests
func (h *BacktestHandler) Run(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req BacktestRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	if req.Start == "" || req.End == "" {
		respondError(w, http.StatusBadRequest, "'start' and 'end' dates are required")
		return
	}
	start, err := time.Parse("2006-01-02", req.Start)
	if err != nil {
		respondError(w, http.StatusBadRequest, "Invalid 'start' date format (expected YYYY-MM-DD)")
		return
	}
	end, err := time.Parse("2006-01-02", req.End)
	if err != nil {
		respondError(w, http.StatusBadRequest, "Invalid 'end' date format (expected YYYY-MM-DD)")
		return
	}

	if h.strategy != nil {
		if len(req.Universe) == 0 {
			req.Universe = h.strategy.Universe.Tickers
		}
		if req.Frequency == "" {
			req.Frequency = h.strategy.Backtest.Frequency
		}
		if len(req.Horizons) == 0 {
			req.Horizons = h.strategy.Backtest.Horizons
		}
		if req.MinTickers == 0 {
			req.MinTickers = h.strategy.Backtest.MinTickers
		}
		if req.WarmupDays == 0 {
			req.WarmupDays = h.strategy.Backtest.WarmupDays
		}
		if req.ToleranceDays == 0 {
			req.ToleranceDays = h.strategy.Backtest.ToleranceDays
		}
		if req.Workers == 0 {
			req.Workers = h.strategy.Backtest.Workers
		}
	}

	horizons, err := contracts.ParseHorizons(req.Horizons)
	if err != nil {
		respondError(w, http.StatusBadRequest, "Invalid horizons: "+err.Error())
		return
	}

	cfg := backtest.Config{
		Universe:     req.Universe,
		Start:        start,
		End:          end,
		Frequency:    backtest.Frequency(req.Frequency),
		Horizons:     horizons,
		MinTickers:   req.MinTickers,
		WarmupDays:   req.WarmupDays,
		Tolerance:    req.ToleranceDays,
		Workers:      req.Workers,
		StrategyHash: h.hash,
	}

	h.logger.WithFields(map[string]interface{}{
		"universe": len(cfg.Universe),
		"start":    req.Start,
		"end":      req.End,
	}).Info("Backtest triggered")

	report, err := h.engine.Run(ctx, cfg)
	if err != nil {
		h.logger.WithError(err).Error("Backtest failed")
		respondError(w, http.StatusBadRequest, "Backtest failed: "+err.Error())
		return
	}

	respondJSON(w, http.StatusOK, report)
}

// Helper functions

func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{
		"error": message,
	})
}
