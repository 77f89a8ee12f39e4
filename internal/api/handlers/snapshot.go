package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"github.com/wonny/argos/internal/contracts"
	"github.com/wonny/argos/internal/snapshot"
	"github.com/wonny/argos/pkg/logger"
)

// SnapshotHandler handles snapshot API endpoints
type SnapshotHandler struct {
	manager  *snapshot.Manager
	store    snapshot.Store
	universe []string
	logger   *logger.Logger
}

// NewSnapshotHandler creates a new snapshot handler. universe is the
// default ticker set captured when a request names none.
func NewSnapshotHandler(manager *snapshot.Manager, store snapshot.Store, universe []string, log *logger.Logger) *SnapshotHandler {
	return &SnapshotHandler{
		manager:  manager,
		store:    store,
		universe: universe,
		logger:   log,
	}
}

// ListResponse represents the snapshot date listing
type ListResponse struct {
	Dates []string `json:"dates"`
}

// List returns the dates of all stored snapshots, oldest first. With
// ?as_of=YYYY-MM-DD it instead returns the newest snapshot at or before
// that date.
// GET /api/snapshots
func (h *SnapshotHandler) List(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	if asOf := r.URL.Query().Get("as_of"); asOf != "" {
		date, err := time.Parse("2006-01-02", asOf)
		if err != nil {
			respondError(w, http.StatusBadRequest, "Invalid 'as_of' date format (expected YYYY-MM-DD)")
			return
		}

		rec, err := h.store.LoadAsOf(ctx, date)
		if err != nil {
			if errors.Is(err, contracts.ErrSnapshotNotFound) {
				respondError(w, http.StatusNotFound, "No snapshot at or before "+asOf)
				return
			}
			h.logger.WithError(err).Error("Failed to load snapshot")
			respondError(w, http.StatusInternalServerError, "Failed to load snapshot")
			return
		}

		respondJSON(w, http.StatusOK, rec)
		return
	}

	dates, err := h.store.List(ctx)
	if err != nil {
		h.logger.WithError(err).Error("Failed to list snapshots")
		respondError(w, http.StatusInternalServerError, "Failed to list snapshots")
		return
	}

	resp := ListResponse{Dates: make([]string, 0, len(dates))}
	for _, d := range dates {
		resp.Dates = append(resp.Dates, d.Format("2006-01-02"))
	}

	respondJSON(w, http.StatusOK, resp)
}

// GetByDate returns the snapshot stored for an exact date
// GET /api/snapshots/{date}
func (h *SnapshotHandler) GetByDate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	vars := mux.Vars(r)
	date, err := time.Parse("2006-01-02", vars["date"])
	if err != nil {
		respondError(w, http.StatusBadRequest, "Invalid date format (expected YYYY-MM-DD)")
		return
	}

	rec, err := h.store.Load(ctx, date)
	if err != nil {
		switch {
		case errors.Is(err, contracts.ErrSnapshotNotFound):
			respondError(w, http.StatusNotFound, "No snapshot for "+vars["date"])
		case errors.Is(err, snapshot.ErrSchemaTooNew):
			h.logger.WithError(err).Error("Snapshot schema too new")
			respondError(w, http.StatusInternalServerError, "Snapshot was written by a newer build")
		default:
			h.logger.WithError(err).Error("Failed to load snapshot")
			respondError(w, http.StatusInternalServerError, "Failed to load snapshot")
		}
		return
	}

	respondJSON(w, http.StatusOK, rec)
}

// CaptureRequest represents a snapshot capture request
type CaptureRequest struct {
	Date      string   `json:"date"`      // Optional: defaults to today (YYYY-MM-DD)
	Tickers   []string `json:"tickers"`   // Optional: defaults to the configured universe
	Overwrite bool     `json:"overwrite"` // Replace an existing snapshot for the date
}

// CaptureResponse represents a snapshot capture response
type CaptureResponse struct {
	Status  string `json:"status"`
	Date    string `json:"date"`
	Tickers int    `json:"tickers"`
}

// Capture builds and stores a snapshot
// POST /api/snapshots/capture
func (h *SnapshotHandler) Capture(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	// An empty body means "capture today with the default universe".
	var req CaptureRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	date := time.Now().UTC()
	if req.Date != "" {
		var err error
		date, err = time.Parse("2006-01-02", req.Date)
		if err != nil {
			respondError(w, http.StatusBadRequest, "Invalid 'date' format (expected YYYY-MM-DD)")
			return
		}
	}

	tickers := req.Tickers
	if len(tickers) == 0 {
		tickers = h.universe
	}
	if len(tickers) == 0 {
		respondError(w, http.StatusBadRequest, "No tickers to capture and no universe configured")
		return
	}

	h.logger.WithFields(map[string]interface{}{
		"date":    date.Format("2006-01-02"),
		"tickers": len(tickers),
	}).Info("Snapshot capture triggered")

	rec, err := h.manager.Capture(ctx, tickers, date, req.Overwrite)
	if err != nil {
		if errors.Is(err, contracts.ErrSnapshotExists) {
			respondError(w, http.StatusConflict, "Snapshot already exists for this date (set overwrite to replace)")
			return
		}
		h.logger.WithError(err).Error("Failed to capture snapshot")
		respondError(w, http.StatusInternalServerError, "Failed to capture snapshot")
		return
	}

	respondJSON(w, http.StatusOK, CaptureResponse{
		Status:  "success",
		Date:    rec.Date.Format("2006-01-02"),
		Tickers: len(rec.Payload),
	})
}
