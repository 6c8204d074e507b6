package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Liszten/kpiComp/internal/analysis"
	"github.com/Liszten/kpiComp/internal/rating"
	"github.com/Liszten/kpiComp/pkg/logger"
)

type fakeService struct {
	report   *analysis.Report
	err      error
	progress []analysis.Progress
	cleared  int
	history  analysis.HistoryStore
	engine   *rating.Engine
	tickers  []string
}

func newFakeService(t *testing.T) *fakeService {
	t.Helper()
	engine, err := rating.NewEngine(rating.DefaultCatalog(), rating.DefaultWeights)
	require.NoError(t, err)
	return &fakeService{engine: engine}
}

func (f *fakeService) AnalyzeWithProgress(ctx context.Context, ticker string, progress analysis.ProgressFunc) (*analysis.Report, error) {
	f.tickers = append(f.tickers, ticker)
	if progress != nil {
		for _, p := range f.progress {
			progress(p)
		}
	}
	return f.report, f.err
}

func (f *fakeService) ClearCache(ctx context.Context) int { return f.cleared }

func (f *fakeService) Engine() *rating.Engine { return f.engine }

func (f *fakeService) History() analysis.HistoryStore { return f.history }

type fakeHistory struct {
	entries []analysis.HistoryEntry
	err     error
	limit   int
}

func (f *fakeHistory) Record(ctx context.Context, report *analysis.Report) error { return nil }

func (f *fakeHistory) List(ctx context.Context, ticker string, limit int) ([]analysis.HistoryEntry, error) {
	f.limit = limit
	return f.entries, f.err
}

func serve(t *testing.T, method, pattern, target string, handler http.HandlerFunc) *httptest.ResponseRecorder {
	t.Helper()
	r := mux.NewRouter()
	r.HandleFunc(pattern, handler).Methods(method)

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(method, target, nil))
	return rec
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body
}

func TestAnalyze_OK(t *testing.T) {
	svc := newFakeService(t)
	svc.report = &analysis.Report{Ticker: "AAPL", Sector: "Technology", SectorPeerCount: 29}
	h := NewAnalysisHandler(svc, logger.NewNop())

	rec := serve(t, "GET", "/api/analyze/{ticker}", "/api/analyze/aapl", h.Analyze)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	body := decodeBody(t, rec)
	assert.Equal(t, "AAPL", body["ticker"])
	assert.Equal(t, float64(29), body["sector_peer_count"])
	assert.Equal(t, []string{"AAPL"}, svc.tickers)
}

func TestAnalyze_Errors(t *testing.T) {
	tests := []struct {
		name    string
		target  string
		err     error
		status  int
		message string
	}{
		{
			name:    "no sector",
			target:  "/api/analyze/SPY",
			err:     fmt.Errorf("SPY: %w", analysis.ErrNoSector),
			status:  http.StatusBadRequest,
			message: "Insufficient data for 'SPY': no sector classification",
		},
		{
			name:    "not found",
			target:  "/api/analyze/ZZZZ",
			err:     fmt.Errorf("fetch ZZZZ: %w", analysis.ErrTickerNotFound),
			status:  http.StatusBadRequest,
			message: "Ticker 'ZZZZ' not found",
		},
		{
			name:    "upstream failure",
			target:  "/api/analyze/MSFT",
			err:     errors.New("connection reset"),
			status:  http.StatusInternalServerError,
			message: "Error analyzing 'MSFT': connection reset",
		},
		{
			name:    "invalid ticker",
			target:  "/api/analyze/bad$ticker",
			status:  http.StatusBadRequest,
			message: "Invalid ticker 'bad$ticker'",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := newFakeService(t)
			svc.err = tt.err
			h := NewAnalysisHandler(svc, logger.NewNop())

			rec := serve(t, "GET", "/api/analyze/{ticker}", tt.target, h.Analyze)

			assert.Equal(t, tt.status, rec.Code)
			assert.Equal(t, tt.message, decodeBody(t, rec)["error"])
		})
	}
}

func TestGetKPIs(t *testing.T) {
	h := NewAnalysisHandler(newFakeService(t), logger.NewNop())

	rec := serve(t, "GET", "/api/kpis", "/api/kpis", h.GetKPIs)
	require.Equal(t, http.StatusOK, rec.Code)

	var body KPIResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Len(t, body.KPIs, 10)
	assert.Equal(t, "trailingPE", body.KPIs[0].Key)
	assert.Equal(t, rating.DefaultWeights, body.Weights)
}

func TestClearCache(t *testing.T) {
	svc := newFakeService(t)
	svc.cleared = 3
	h := NewAnalysisHandler(svc, logger.NewNop())

	rec := serve(t, "POST", "/api/clear-cache", "/api/clear-cache", h.ClearCache)

	require.Equal(t, http.StatusOK, rec.Code)
	body := decodeBody(t, rec)
	assert.Equal(t, "Cache cleared", body["message"])
	assert.Equal(t, float64(3), body["sectors_removed"])
}

func TestGetHistory(t *testing.T) {
	svc := newFakeService(t)
	h := NewAnalysisHandler(svc, logger.NewNop())

	rec := serve(t, "GET", "/api/history/{ticker}", "/api/history/AAPL", h.GetHistory)
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)

	store := &fakeHistory{entries: []analysis.HistoryEntry{{Ticker: "AAPL", OverallRating: 6.4}}}
	svc.history = store

	rec = serve(t, "GET", "/api/history/{ticker}", "/api/history/aapl?limit=5", h.GetHistory)
	require.Equal(t, http.StatusOK, rec.Code)
	body := decodeBody(t, rec)
	assert.Equal(t, "AAPL", body["ticker"])
	assert.Equal(t, float64(1), body["count"])
	assert.Equal(t, 5, store.limit)

	rec = serve(t, "GET", "/api/history/{ticker}", "/api/history/AAPL?limit=0", h.GetHistory)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	store.err = errors.New("db down")
	rec = serve(t, "GET", "/api/history/{ticker}", "/api/history/AAPL", h.GetHistory)
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, analysis.DefaultHistoryLimit, store.limit)
}

func TestGetHistory_EmptyIsArray(t *testing.T) {
	svc := newFakeService(t)
	svc.history = &fakeHistory{}
	h := NewAnalysisHandler(svc, logger.NewNop())

	rec := serve(t, "GET", "/api/history/{ticker}", "/api/history/NEW", h.GetHistory)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, []any{}, decodeBody(t, rec)["history"])
}

func TestNormalizeTicker(t *testing.T) {
	tests := []struct {
		in   string
		want string
		ok   bool
	}{
		{"aapl", "AAPL", true},
		{"brk-b", "BRK-B", true},
		{"bf.b", "BF.B", true},
		{"^gspc", "^GSPC", true},
		{"", "", false},
		{"DROP TABLE", "DROP TABLE", false},
		{"ABCDEFGHIJKLMNOP", "ABCDEFGHIJKLMNOP", false},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, ok := normalizeTicker(tt.in)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, tt.ok, ok)
		})
	}
}
