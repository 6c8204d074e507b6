package handlers

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"github.com/Liszten/kpiComp/internal/analysis"
	"github.com/Liszten/kpiComp/internal/rating"
	"github.com/Liszten/kpiComp/pkg/logger"
)

// AnalysisService is the part of analysis.Service the handlers use
type AnalysisService interface {
	AnalyzeWithProgress(ctx context.Context, ticker string, progress analysis.ProgressFunc) (*analysis.Report, error)
	ClearCache(ctx context.Context) int
	Engine() *rating.Engine
	History() analysis.HistoryStore
}

// AnalysisHandler handles rating endpoints
// ⭐ SSOT: 분석 API 핸들러는 이 구조체에서만
type AnalysisHandler struct {
	service AnalysisService
	logger  *logger.Logger
}

// NewAnalysisHandler creates a new analysis handler
func NewAnalysisHandler(service AnalysisService, log *logger.Logger) *AnalysisHandler {
	return &AnalysisHandler{
		service: service,
		logger:  log,
	}
}

// KPIResponse describes the catalog in use
type KPIResponse struct {
	KPIs    []rating.KPIDefinition `json:"kpis"`
	Weights rating.Weights         `json:"weights"`
}

// GetKPIs returns the KPI catalog and blend weights
// GET /api/kpis
func (h *AnalysisHandler) GetKPIs(w http.ResponseWriter, r *http.Request) {
	engine := h.service.Engine()
	respondJSON(w, http.StatusOK, KPIResponse{
		KPIs:    engine.Catalog().Definitions(),
		Weights: engine.Weights(),
	})
}

// Analyze rates one ticker against its sector
// GET /api/analyze/{ticker}
func (h *AnalysisHandler) Analyze(w http.ResponseWriter, r *http.Request) {
	ticker, ok := normalizeTicker(mux.Vars(r)["ticker"])
	if !ok {
		respondError(w, http.StatusBadRequest, fmt.Sprintf("Invalid ticker '%s'", mux.Vars(r)["ticker"]))
		return
	}

	report, err := h.service.AnalyzeWithProgress(r.Context(), ticker, nil)
	if err != nil {
		status, message := classifyError(ticker, err)
		h.logger.WithTicker(ticker).WithError(err).WithField("status", status).Warn("Analysis failed")
		respondError(w, status, message)
		return
	}

	respondJSON(w, http.StatusOK, report)
}

// ClearCache drops all cached sector peers
// POST /api/clear-cache
func (h *AnalysisHandler) ClearCache(w http.ResponseWriter, r *http.Request) {
	removed := h.service.ClearCache(r.Context())

	h.logger.WithField("sectors", removed).Info("Sector cache cleared")
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"message":         "Cache cleared",
		"sectors_removed": removed,
	})
}

// GetHistory returns past ratings of a ticker
// GET /api/history/{ticker}?limit=N
func (h *AnalysisHandler) GetHistory(w http.ResponseWriter, r *http.Request) {
	store := h.service.History()
	if store == nil {
		respondError(w, http.StatusServiceUnavailable, "Rating history is not enabled")
		return
	}

	ticker, ok := normalizeTicker(mux.Vars(r)["ticker"])
	if !ok {
		respondError(w, http.StatusBadRequest, fmt.Sprintf("Invalid ticker '%s'", mux.Vars(r)["ticker"]))
		return
	}

	limit := analysis.DefaultHistoryLimit
	if s := r.URL.Query().Get("limit"); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil || n <= 0 || n > 500 {
			respondError(w, http.StatusBadRequest, "limit must be between 1 and 500")
			return
		}
		limit = n
	}

	entries, err := store.List(r.Context(), ticker, limit)
	if err != nil {
		h.logger.WithTicker(ticker).WithError(err).Error("Failed to list rating history")
		respondError(w, http.StatusInternalServerError, "Failed to retrieve rating history")
		return
	}
	if entries == nil {
		entries = []analysis.HistoryEntry{}
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"ticker":  ticker,
		"count":   len(entries),
		"history": entries,
	})
}

// classifyError maps analysis errors to an HTTP status and user-facing message
func classifyError(ticker string, err error) (int, string) {
	switch {
	case errors.Is(err, analysis.ErrNoSector):
		return http.StatusBadRequest, fmt.Sprintf("Insufficient data for '%s': no sector classification", ticker)
	case errors.Is(err, analysis.ErrTickerNotFound):
		return http.StatusBadRequest, fmt.Sprintf("Ticker '%s' not found", ticker)
	default:
		return http.StatusInternalServerError, fmt.Sprintf("Error analyzing '%s': %v", ticker, err)
	}
}
