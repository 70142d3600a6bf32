package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"

	"github.com/gorilla/mux"

	"github.com/quantlens/stockpulse/internal/contracts"
	"github.com/quantlens/stockpulse/internal/engine"
	"github.com/quantlens/stockpulse/pkg/logger"
)

// HoldingHandler handles institutional holding API endpoints
type HoldingHandler struct {
	engine      *engine.Engine
	holdingRepo contracts.HoldingRepository
	logger      *logger.Logger
}

// NewHoldingHandler creates a new holding handler
func NewHoldingHandler(eng *engine.Engine, holdingRepo contracts.HoldingRepository, log *logger.Logger) *HoldingHandler {
	return &HoldingHandler{
		engine:      eng,
		holdingRepo: holdingRepo,
		logger:      log,
	}
}

// Get returns the holding history for a security
// GET /api/holdings/{symbol}
func (h *HoldingHandler) Get(w http.ResponseWriter, r *http.Request) {
	symbol := strings.ToUpper(mux.Vars(r)["symbol"])

	holdings, err := h.holdingRepo.GetBySymbol(r.Context(), symbol)
	if err != nil {
		h.logger.WithError(err).WithField("symbol", symbol).Error("Failed to get holdings")
		respondError(w, http.StatusInternalServerError, "Failed to retrieve holdings")
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"data":    holdings,
	})
}

// Significant returns significant-activity records
// GET /api/holdings/significant?min_change_pct=5
func (h *HoldingHandler) Significant(w http.ResponseWriter, r *http.Request) {
	minChange := 5.0
	if s := r.URL.Query().Get("min_change_pct"); s != "" {
		v, err := strconv.ParseFloat(s, 64)
		if err != nil {
			respondError(w, http.StatusBadRequest, "invalid min_change_pct")
			return
		}
		minChange = v
	}

	records, err := h.engine.SignificantActivity(r.Context(), minChange)
	if err != nil {
		h.logger.WithError(err).Error("Failed to query significant activity")
		respondError(w, http.StatusInternalServerError, "Failed to retrieve significant activity")
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"data":    records,
	})
}

// HoldingRefreshRequest is the body of a holdings refresh trigger.
// Quarter is optional; empty means the current period.
type HoldingRefreshRequest struct {
	Symbols []string `json:"symbols"`
	Quarter string   `json:"quarter,omitempty"`
}

// Refresh triggers a sequential holdings refresh batch
// POST /api/holdings/refresh
func (h *HoldingHandler) Refresh(w http.ResponseWriter, r *http.Request) {
	var req HoldingRefreshRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if len(req.Symbols) == 0 {
		respondError(w, http.StatusBadRequest, "symbols is required")
		return
	}

	results, err := h.engine.RefreshHoldings(r.Context(), req.Symbols, req.Quarter)
	if err != nil {
		// Malformed period tokens are the caller's fault
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"data":    results,
	})
}
