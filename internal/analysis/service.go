package analysis

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/Liszten/kpiComp/internal/contracts"
	"github.com/Liszten/kpiComp/internal/rating"
	"github.com/Liszten/kpiComp/internal/sectorcache"
	"github.com/Liszten/kpiComp/pkg/logger"
)

// ErrNoSector is returned when the provider gives no sector for the ticker
var ErrNoSector = errors.New("insufficient data: no sector classification")

// ErrTickerNotFound is re-exported for callers that only import analysis
var ErrTickerNotFound = contracts.ErrTickerNotFound

// DefaultWorkers bounds concurrent peer fetches
const DefaultWorkers = 8

// Option configures a Service
type Option func(*Service)

// WithHistory records every report in store
func WithHistory(store HistoryStore) Option {
	return func(s *Service) {
		s.history = store
	}
}

// WithWorkers sets the peer fetch concurrency
func WithWorkers(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.workers = n
		}
	}
}

// WithClock replaces the clock used for report timestamps
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		s.now = now
	}
}

// Service runs fetch, peer aggregation and rating for one ticker
// ⭐ SSOT: 분석 파이프라인은 여기서만
type Service struct {
	provider contracts.InfoProvider
	peers    contracts.PeerSource
	engine   *rating.Engine
	cache    *sectorcache.Cache
	history  HistoryStore // optional
	workers  int
	logger   *logger.Logger
	now      func() time.Time
}

// NewService creates an analysis service
func NewService(
	provider contracts.InfoProvider,
	peers contracts.PeerSource,
	engine *rating.Engine,
	cache *sectorcache.Cache,
	log *logger.Logger,
	opts ...Option,
) *Service {
	s := &Service{
		provider: provider,
		peers:    peers,
		engine:   engine,
		cache:    cache,
		workers:  DefaultWorkers,
		logger:   log,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Engine returns the rating engine
func (s *Service) Engine() *rating.Engine {
	return s.engine
}

// History returns the configured history store or nil
func (s *Service) History() HistoryStore {
	return s.history
}

// Analyze rates a ticker against the median of its sector peers
func (s *Service) Analyze(ctx context.Context, ticker string) (*Report, error) {
	return s.AnalyzeWithProgress(ctx, ticker, nil)
}

// AnalyzeWithProgress is Analyze with progress updates sent to progress
func (s *Service) AnalyzeWithProgress(ctx context.Context, ticker string, progress ProgressFunc) (*Report, error) {
	ticker = contracts.NormalizeTicker(ticker)
	emit := func(p Progress) {
		if progress != nil {
			p.Ticker = ticker
			progress(p)
		}
	}
	log := s.logger.WithTicker(ticker)

	emit(Progress{Stage: StageFetch, Total: 1})
	raw, err := s.provider.FetchInfo(ctx, ticker)
	if err != nil {
		return nil, fmt.Errorf("fetch %s: %w", ticker, err)
	}

	sector := raw.Sector()
	if sector == "" {
		return nil, fmt.Errorf("%s: %w", ticker, ErrNoSector)
	}

	catalog := s.engine.Catalog()
	stockKPIs := catalog.Extract(raw)

	emit(Progress{Stage: StagePeers})
	peers, cached, err := s.cache.GetOrLoad(ctx, sector, func(ctx context.Context) ([]sectorcache.PeerKPIs, error) {
		return s.loadPeers(ctx, sector, emit)
	})
	if err != nil {
		return nil, fmt.Errorf("sector peers for %s: %w", ticker, err)
	}

	peerMaps := make([]rating.ValueMap, 0, len(peers))
	peerTickers := make([]string, 0, len(peers))
	for _, p := range peers {
		if p.Ticker == ticker {
			continue
		}
		peerMaps = append(peerMaps, p.KPIs)
		peerTickers = append(peerTickers, p.Ticker)
	}

	emit(Progress{Stage: StageRating, Done: len(peerMaps), Total: len(peerMaps)})
	sectorAvg := catalog.AggregateSector(peerMaps)
	result := s.engine.Rate(stockKPIs, sectorAvg)

	report := &Report{
		ID:              uuid.New(),
		Ticker:          ticker,
		CompanyName:     raw.Name(),
		Sector:          sector,
		Industry:        raw.Industry(),
		StockKPIs:       stockKPIs,
		SectorAverages:  sectorAvg,
		SectorPeerCount: len(peerMaps),
		PeerTickers:     peerTickers,
		Rating:          result,
		Comparison:      catalog.Compare(stockKPIs, sectorAvg, result),
		PeersCached:     cached,
		AnalyzedAt:      s.now().UTC(),
	}

	log.WithSector(sector).WithFields(map[string]interface{}{
		"peers":      report.SectorPeerCount,
		"cached":     cached,
		"rating":     result.OverallRating,
		"kpis_used":  result.KPIsUsed,
		"confidence": result.Confidence,
	}).Info("Analysis completed")

	if s.history != nil {
		if err := s.history.Record(ctx, report); err != nil {
			log.WithError(err).Warn("Failed to record rating history")
		}
	}

	emit(Progress{Stage: StageDone, Done: 1, Total: 1})
	return report, nil
}

// loadPeers fetches every universe ticker of the sector concurrently.
// Failed peers and peers the provider places in another sector are skipped.
func (s *Service) loadPeers(ctx context.Context, sector string, emit func(Progress)) ([]sectorcache.PeerKPIs, error) {
	tickers, err := s.peers.PeersFor(ctx, sector)
	if err != nil {
		return nil, fmt.Errorf("list peers: %w", err)
	}

	catalog := s.engine.Catalog()
	results := make([]*sectorcache.PeerKPIs, len(tickers))
	var done int32
	var skippedMu sync.Mutex
	skipped := 0

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.workers)

	for i, peer := range tickers {
		i, peer := i, peer
		g.Go(func() error {
			defer func() {
				emit(Progress{Stage: StagePeerFetch, Done: int(atomic.AddInt32(&done, 1)), Total: len(tickers)})
			}()

			raw, err := s.provider.FetchInfo(gctx, peer)
			if err != nil {
				if gctx.Err() != nil {
					return gctx.Err()
				}
				s.logger.WithError(err).WithPeer(peer).Warn("Skipping peer")
				skippedMu.Lock()
				skipped++
				skippedMu.Unlock()
				return nil
			}
			if !contracts.SameSector(raw.Sector(), sector) {
				return nil
			}

			results[i] = &sectorcache.PeerKPIs{
				Ticker: contracts.NormalizeTicker(peer),
				KPIs:   catalog.Extract(raw),
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	peers := make([]sectorcache.PeerKPIs, 0, len(tickers))
	for _, r := range results {
		if r != nil {
			peers = append(peers, *r)
		}
	}

	s.logger.WithSector(sector).WithFields(map[string]interface{}{
		"candidates": len(tickers),
		"peers":      len(peers),
		"skipped":    skipped,
	}).Info("Sector peers loaded")

	return peers, nil
}

// WarmSector loads a sector into the cache and returns its peer count
func (s *Service) WarmSector(ctx context.Context, sector string) (int, error) {
	peers, _, err := s.cache.GetOrLoad(ctx, sector, func(ctx context.Context) ([]sectorcache.PeerKPIs, error) {
		return s.loadPeers(ctx, sector, func(Progress) {})
	})
	if err != nil {
		return 0, err
	}
	return len(peers), nil
}

// ClearCache drops all cached sector peers and returns how many sectors were removed
func (s *Service) ClearCache(ctx context.Context) int {
	n := s.cache.Clear()
	if shared, err := s.cache.ClearShared(ctx); err != nil {
		s.logger.WithError(err).Warn("Failed to clear shared sector cache")
	} else if shared > 0 {
		s.logger.WithField("keys", shared).Info("Shared sector cache cleared")
	}
	return n
}

// EvictExpired drops expired sectors from the in-process cache
func (s *Service) EvictExpired() int {
	return s.cache.EvictExpired()
}

// Sectors lists the sectors the peer universe knows about
func (s *Service) Sectors(ctx context.Context) ([]string, error) {
	return s.peers.Sectors(ctx)
}
