package analysis

import (
	"time"

	"github.com/google/uuid"

	"github.com/Liszten/kpiComp/internal/rating"
)

// Report is the outcome of one analysis request
type Report struct {
	ID              uuid.UUID           `json:"id"`
	Ticker          string              `json:"ticker"`
	CompanyName     string              `json:"company_name"`
	Sector          string              `json:"sector"`
	Industry        string              `json:"industry"`
	StockKPIs       rating.ValueMap     `json:"stock_kpis"`
	SectorAverages  rating.ValueMap     `json:"sector_averages"`
	SectorPeerCount int                 `json:"sector_peer_count"`
	PeerTickers     []string            `json:"peer_tickers"`
	Rating          rating.Result       `json:"rating"`
	Comparison      []rating.Comparison `json:"comparison"`
	PeersCached     bool                `json:"peers_cached"`
	AnalyzedAt      time.Time           `json:"analyzed_at"`
}

// Stage names a step of the analysis pipeline
type Stage string

const (
	StageFetch     Stage = "fetch"
	StagePeers     Stage = "peers"
	StagePeerFetch Stage = "peer_fetch"
	StageRating    Stage = "rating"
	StageDone      Stage = "done"
)

// Progress is emitted while an analysis runs
type Progress struct {
	Stage  Stage  `json:"stage"`
	Ticker string `json:"ticker"`
	Done   int    `json:"done"`
	Total  int    `json:"total"`
}

// ProgressFunc receives progress updates; it may be called from several goroutines
type ProgressFunc func(Progress)
