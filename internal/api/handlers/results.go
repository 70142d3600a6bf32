package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gorilla/mux"

	"github.com/quantlens/stockpulse/internal/contracts"
	"github.com/quantlens/stockpulse/internal/engine"
	"github.com/quantlens/stockpulse/pkg/logger"
)

// ResultHandler handles quarterly result API endpoints
type ResultHandler struct {
	engine     *engine.Engine
	resultRepo contracts.ResultRepository
	logger     *logger.Logger
}

// NewResultHandler creates a new result handler
func NewResultHandler(eng *engine.Engine, resultRepo contracts.ResultRepository, log *logger.Logger) *ResultHandler {
	return &ResultHandler{
		engine:     eng,
		resultRepo: resultRepo,
		logger:     log,
	}
}

// upcomingEntry decorates a result record with its query-time overdue
// state. Overdue is derived from the clock on every request, never
// stored.
type upcomingEntry struct {
	*contracts.QuarterResult
	Overdue bool `json:"overdue"`
}

// Upcoming returns unannounced result records with overdue state
// GET /api/results/upcoming
func (h *ResultHandler) Upcoming(w http.ResponseWriter, r *http.Request) {
	results, err := h.resultRepo.GetUnannounced(r.Context())
	if err != nil {
		h.logger.WithError(err).Error("Failed to get upcoming results")
		respondError(w, http.StatusInternalServerError, "Failed to retrieve upcoming results")
		return
	}

	now := time.Now()
	entries := make([]upcomingEntry, len(results))
	for i, res := range results {
		entries[i] = upcomingEntry{QuarterResult: res, Overdue: res.OverdueAt(now)}
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"data":    entries,
	})
}

// Get returns the result history for a security
// GET /api/results/{symbol}
func (h *ResultHandler) Get(w http.ResponseWriter, r *http.Request) {
	symbol := strings.ToUpper(mux.Vars(r)["symbol"])

	results, err := h.resultRepo.GetBySymbol(r.Context(), symbol)
	if err != nil {
		h.logger.WithError(err).WithField("symbol", symbol).Error("Failed to get results")
		respondError(w, http.StatusInternalServerError, "Failed to retrieve results")
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"data":    results,
	})
}

// Generate materializes upcoming result records
// POST /api/results/generate?periods_ahead=2
func (h *ResultHandler) Generate(w http.ResponseWriter, r *http.Request) {
	periodsAhead := 2
	if s := r.URL.Query().Get("periods_ahead"); s != "" {
		if v, err := strconv.Atoi(s); err == nil && v > 0 {
			periodsAhead = v
		}
	}

	outcomes, err := h.engine.GenerateUpcomingResults(r.Context(), periodsAhead)
	if err != nil {
		h.logger.WithError(err).Error("Failed to generate results")
		respondError(w, http.StatusInternalServerError, "Failed to generate result records")
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"data":    outcomes,
	})
}

// AnnounceRequest carries the announcement figures
type AnnounceRequest struct {
	ActualDate string   `json:"actual_date,omitempty"` // YYYY-MM-DD, default today
	Revenue    *float64 `json:"revenue,omitempty"`
	NetProfit  *float64 `json:"net_profit,omitempty"`
	EPS        *float64 `json:"eps,omitempty"`
}

// Announce marks a quarterly result as announced
// POST /api/results/{symbol}/{quarter}/announce
func (h *ResultHandler) Announce(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	symbol := vars["symbol"]
	quarterToken := vars["quarter"]

	var req AnnounceRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	actualDate := time.Now()
	if req.ActualDate != "" {
		parsed, err := time.Parse("2006-01-02", req.ActualDate)
		if err != nil {
			respondError(w, http.StatusBadRequest, "invalid actual_date, want YYYY-MM-DD")
			return
		}
		actualDate = parsed
	}

	record, err := h.engine.MarkAnnounced(r.Context(), symbol, quarterToken, actualDate, req.Revenue, req.NetProfit, req.EPS)
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"data":    record,
	})
}
