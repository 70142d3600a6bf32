package handlers

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/gorilla/mux"

	"github.com/quantlens/stockpulse/internal/contracts"
	"github.com/quantlens/stockpulse/internal/engine"
	"github.com/quantlens/stockpulse/pkg/logger"
)

// SecurityHandler handles security snapshot API endpoints
type SecurityHandler struct {
	engine       *engine.Engine
	snapshotRepo contracts.SnapshotRepository
	logger       *logger.Logger
}

// NewSecurityHandler creates a new security handler
func NewSecurityHandler(eng *engine.Engine, snapshotRepo contracts.SnapshotRepository, log *logger.Logger) *SecurityHandler {
	return &SecurityHandler{
		engine:       eng,
		snapshotRepo: snapshotRepo,
		logger:       log,
	}
}

// List returns all security snapshots
// GET /api/securities
func (h *SecurityHandler) List(w http.ResponseWriter, r *http.Request) {
	snapshots, err := h.snapshotRepo.GetAll(r.Context())
	if err != nil {
		h.logger.WithError(err).Error("Failed to list securities")
		respondError(w, http.StatusInternalServerError, "Failed to retrieve securities")
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"data":    snapshots,
	})
}

// Get returns one security snapshot
// GET /api/securities/{symbol}
func (h *SecurityHandler) Get(w http.ResponseWriter, r *http.Request) {
	symbol := strings.ToUpper(mux.Vars(r)["symbol"])

	snapshot, err := h.snapshotRepo.GetBySymbol(r.Context(), symbol)
	if err != nil {
		h.logger.WithError(err).WithField("symbol", symbol).Error("Failed to get security")
		respondError(w, http.StatusInternalServerError, "Failed to retrieve security")
		return
	}
	if snapshot == nil {
		respondError(w, http.StatusNotFound, "security not found")
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"data":    snapshot,
	})
}

// Undervalued runs a scoring pass and returns the ranked result
// GET /api/securities/undervalued
func (h *SecurityHandler) Undervalued(w http.ResponseWriter, r *http.Request) {
	scored, err := h.engine.ScoreUndervalued(r.Context())
	if err != nil {
		h.logger.WithError(err).Error("Scoring pass failed")
		respondError(w, http.StatusInternalServerError, "Failed to score securities")
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"data":    scored,
	})
}

// Score is the POST alias of Undervalued for scheduled/manual triggers
// POST /api/securities/score
func (h *SecurityHandler) Score(w http.ResponseWriter, r *http.Request) {
	h.Undervalued(w, r)
}

// Track adds a security to the scheduled universe
// POST /api/securities/{symbol}/track
func (h *SecurityHandler) Track(w http.ResponseWriter, r *http.Request) {
	h.setTracked(w, r, true)
}

// Untrack removes a security from the scheduled universe
// POST /api/securities/{symbol}/untrack
func (h *SecurityHandler) Untrack(w http.ResponseWriter, r *http.Request) {
	h.setTracked(w, r, false)
}

func (h *SecurityHandler) setTracked(w http.ResponseWriter, r *http.Request, tracked bool) {
	symbol := strings.ToUpper(mux.Vars(r)["symbol"])

	if err := h.engine.SetTracked(r.Context(), symbol, tracked); err != nil {
		respondError(w, http.StatusNotFound, err.Error())
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"data": map[string]interface{}{
			"symbol":  symbol,
			"tracked": tracked,
		},
	})
}

// RefreshRequest is the body of a snapshot refresh trigger
type RefreshRequest struct {
	Symbols []string `json:"symbols"`
}

// Refresh triggers a sequential snapshot refresh batch
// POST /api/securities/refresh
func (h *SecurityHandler) Refresh(w http.ResponseWriter, r *http.Request) {
	var req RefreshRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if len(req.Symbols) == 0 {
		respondError(w, http.StatusBadRequest, "symbols is required")
		return
	}

	results := h.engine.RefreshSnapshots(r.Context(), req.Symbols)

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"data":    results,
	})
}
