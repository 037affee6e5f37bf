package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"github.com/valuora/backend/internal/contracts"
	"github.com/valuora/backend/internal/valuation"
	"github.com/valuora/backend/pkg/logger"
)

// ValuationHandler serves the read-only valuation API plus the
// on-demand run trigger.
type ValuationHandler struct {
	service *valuation.Service
	results contracts.ResultRepository
	logger  *logger.Logger
}

// NewValuationHandler creates a valuation handler.
func NewValuationHandler(service *valuation.Service, results contracts.ResultRepository, log *logger.Logger) *ValuationHandler {
	return &ValuationHandler{
		service: service,
		results: results,
		logger:  log,
	}
}

// GetLatest returns the most recent stored valuation for a ticker.
// GET /api/valuations/{ticker}
func (h *ValuationHandler) GetLatest(w http.ResponseWriter, r *http.Request) {
	ticker := mux.Vars(r)["ticker"]

	result, err := h.results.Latest(r.Context(), ticker)
	if err != nil {
		h.logger.WithError(err).WithField("ticker", ticker).Error("Failed to load valuation")
		respondError(w, http.StatusInternalServerError, "Failed to retrieve valuation")
		return
	}
	if result == nil {
		respondError(w, http.StatusNotFound, "No valuation for ticker")
		return
	}

	respondJSON(w, http.StatusOK, result)
}

// ListSince returns valuations created since the given RFC3339 time
// (default: last 24h).
// GET /api/valuations?since=2026-08-22T00:00:00Z
func (h *ValuationHandler) ListSince(w http.ResponseWriter, r *http.Request) {
	since := time.Now().Add(-24 * time.Hour)
	if raw := r.URL.Query().Get("since"); raw != "" {
		parsed, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			respondError(w, http.StatusBadRequest, "Invalid 'since' timestamp (want RFC3339)")
			return
		}
		since = parsed
	}

	results, err := h.results.ListSince(r.Context(), since)
	if err != nil {
		h.logger.WithError(err).Error("Failed to list valuations")
		respondError(w, http.StatusInternalServerError, "Failed to list valuations")
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"since":   since,
		"count":   len(results),
		"results": results,
	})
}

// Run triggers a fresh valuation for one ticker, persists it and
// returns the result.
// POST /api/valuations/{ticker}/run
func (h *ValuationHandler) Run(w http.ResponseWriter, r *http.Request) {
	ticker := mux.Vars(r)["ticker"]

	result, err := h.service.ValueCompany(r.Context(), ticker)
	if err != nil {
		if errors.Is(err, contracts.ErrNoValuation) {
			respondError(w, http.StatusUnprocessableEntity, "No valuation possible: all methods unavailable")
			return
		}
		h.logger.WithError(err).WithField("ticker", ticker).Error("Valuation run failed")
		respondError(w, http.StatusInternalServerError, "Valuation failed")
		return
	}

	if h.results != nil {
		if err := h.results.Save(r.Context(), result); err != nil {
			h.logger.WithError(err).WithField("ticker", ticker).Error("Failed to persist valuation")
		}
	}

	respondJSON(w, http.StatusOK, result)
}

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
