package universe

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/Liszten/kpiComp/internal/contracts"
	"github.com/Liszten/kpiComp/pkg/logger"
)

// ErrNoScraper is returned by Refresh when no scraper is configured
var ErrNoScraper = errors.New("universe scraper not configured")

// ConstituentFetcher downloads the current universe
type ConstituentFetcher interface {
	Fetch(ctx context.Context) ([]contracts.Constituent, error)
}

// Service answers peer lookups from the store, the last refresh, or the built-in list
// ⭐ SSOT: 피어 목록 조회는 여기서만
type Service struct {
	mu      sync.RWMutex
	current []contracts.Constituent
	store   contracts.ConstituentStore // optional
	fetcher ConstituentFetcher         // optional
	logger  *logger.Logger
	now     func() time.Time
}

// NewService creates a universe service seeded with the static list.
// store and fetcher may be nil.
func NewService(store contracts.ConstituentStore, fetcher ConstituentFetcher, log *logger.Logger) *Service {
	return &Service{
		current: Static(),
		store:   store,
		fetcher: fetcher,
		logger:  log,
		now:     time.Now,
	}
}

// PeersFor returns the candidate peers for a sector.
// The store answers by sector. The in-memory fallback returns every ticker
// and leaves the sector match to the caller, which sees the provider's
// classification rather than the index's.
func (s *Service) PeersFor(ctx context.Context, sector string) ([]string, error) {
	if tickers, ok := s.fromStore(ctx, sector); ok {
		return tickers, nil
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	return allTickers(s.current), nil
}

// Members returns the tickers the universe lists under sector
func (s *Service) Members(ctx context.Context, sector string) ([]string, error) {
	if tickers, ok := s.fromStore(ctx, sector); ok {
		return tickers, nil
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	return filterBySector(s.current, sector), nil
}

// fromStore reports false on a store error or an empty result
func (s *Service) fromStore(ctx context.Context, sector string) ([]string, bool) {
	if s.store == nil {
		return nil, false
	}
	tickers, err := s.store.ListBySector(ctx, sector)
	if err != nil {
		s.logger.WithError(err).WithSector(sector).Warn("Universe store lookup failed, using in-memory list")
		return nil, false
	}
	return tickers, len(tickers) > 0
}

// Sectors returns every sector the universe knows about
func (s *Service) Sectors(ctx context.Context) ([]string, error) {
	if s.store != nil {
		sectors, err := s.store.Sectors(ctx)
		if err == nil && len(sectors) > 0 {
			return sectors, nil
		}
		if err != nil {
			s.logger.WithError(err).Warn("Universe store sectors failed, using in-memory list")
		}
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	return distinctSectors(s.current), nil
}

// Size returns the number of in-memory constituents
func (s *Service) Size() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.current)
}

// Refresh downloads the universe, replaces the in-memory list and upserts the store
func (s *Service) Refresh(ctx context.Context) (int, error) {
	if s.fetcher == nil {
		return 0, ErrNoScraper
	}

	list, err := s.fetcher.Fetch(ctx)
	if err != nil {
		return 0, fmt.Errorf("fetch universe: %w", err)
	}

	now := s.now()
	for i := range list {
		list[i].UpdatedAt = now
	}

	s.mu.Lock()
	s.current = list
	s.mu.Unlock()

	if s.store != nil {
		if _, err := s.store.Upsert(ctx, list); err != nil {
			return len(list), fmt.Errorf("store universe: %w", err)
		}
	}

	s.logger.WithField("count", len(list)).Info("Universe refreshed")
	return len(list), nil
}
