package jobs

import (
	"context"
	"fmt"
	"time"

	"github.com/Liszten/kpiComp/pkg/logger"
)

// UniverseRefresher reloads the peer universe
type UniverseRefresher interface {
	Refresh(ctx context.Context) (int, error)
}

// SectorWarmer preloads sector peers into the cache
type SectorWarmer interface {
	Sectors(ctx context.Context) ([]string, error)
	WarmSector(ctx context.Context, sector string) (int, error)
}

// CacheEvicter drops expired cache entries
type CacheEvicter interface {
	EvictExpired() int
}

// UniverseRefreshJob scrapes the index constituents daily
// ⭐ SSOT: 유니버스 갱신 스케줄은 이 Job에서만
type UniverseRefreshJob struct {
	universe UniverseRefresher
	logger   *logger.Logger
}

// NewUniverseRefreshJob creates a new universe refresh job
func NewUniverseRefreshJob(universe UniverseRefresher, log *logger.Logger) *UniverseRefreshJob {
	return &UniverseRefreshJob{
		universe: universe,
		logger:   log,
	}
}

// Name returns the job name
func (j *UniverseRefreshJob) Name() string {
	return "universe_refresh"
}

// Schedule returns the cron schedule (every day at 6 AM)
func (j *UniverseRefreshJob) Schedule() string {
	return "0 0 6 * * *"
}

// Timeout bounds one scrape attempt
func (j *UniverseRefreshJob) Timeout() time.Duration {
	return 2 * time.Minute
}

// Run executes the universe refresh
func (j *UniverseRefreshJob) Run(ctx context.Context) error {
	j.logger.Info("Starting scheduled universe refresh")

	count, err := j.universe.Refresh(ctx)
	if err != nil {
		return fmt.Errorf("universe refresh failed: %w", err)
	}

	j.logger.WithField("constituents", count).Info("Universe refresh completed")
	return nil
}

// SectorWarmupJob loads every known sector into the peer cache
type SectorWarmupJob struct {
	warmer SectorWarmer
	logger *logger.Logger
}

// NewSectorWarmupJob creates a new sector warmup job
func NewSectorWarmupJob(warmer SectorWarmer, log *logger.Logger) *SectorWarmupJob {
	return &SectorWarmupJob{
		warmer: warmer,
		logger: log,
	}
}

// Name returns the job name
func (j *SectorWarmupJob) Name() string {
	return "sector_warmup"
}

// Schedule returns the cron schedule (hourly, 5 minutes past)
func (j *SectorWarmupJob) Schedule() string {
	return "0 5 * * * *"
}

// Timeout keeps a warmup attempt inside its hourly slot
func (j *SectorWarmupJob) Timeout() time.Duration {
	return 45 * time.Minute
}

// Run warms each sector; one failing sector does not stop the others
func (j *SectorWarmupJob) Run(ctx context.Context) error {
	sectors, err := j.warmer.Sectors(ctx)
	if err != nil {
		return fmt.Errorf("list sectors: %w", err)
	}

	failed := 0
	for _, sector := range sectors {
		if ctx.Err() != nil {
			return ctx.Err()
		}

		peers, err := j.warmer.WarmSector(ctx, sector)
		if err != nil {
			failed++
			j.logger.WithError(err).WithSector(sector).Warn("Sector warmup failed")
			continue
		}
		j.logger.WithSector(sector).WithField("peers", peers).Debug("Sector warmed")
	}

	if len(sectors) > 0 && failed == len(sectors) {
		return fmt.Errorf("all %d sectors failed to warm", failed)
	}

	j.logger.WithFields(map[string]interface{}{
		"sectors": len(sectors),
		"failed":  failed,
	}).Info("Sector warmup completed")
	return nil
}

// CacheCleanupJob evicts expired sector snapshots
type CacheCleanupJob struct {
	cache  CacheEvicter
	logger *logger.Logger
}

// NewCacheCleanupJob creates a new cache cleanup job
func NewCacheCleanupJob(cache CacheEvicter, log *logger.Logger) *CacheCleanupJob {
	return &CacheCleanupJob{
		cache:  cache,
		logger: log,
	}
}

// Name returns the job name
func (j *CacheCleanupJob) Name() string {
	return "cache_cleanup"
}

// Schedule returns the cron schedule (every 5 minutes)
func (j *CacheCleanupJob) Schedule() string {
	return "0 */5 * * * *" // Every 5 minutes
}

// Run executes the cache cleanup
func (j *CacheCleanupJob) Run(ctx context.Context) error {
	j.logger.Debug("Starting scheduled cache cleanup")

	count := j.cache.EvictExpired()

	if count > 0 {
		j.logger.WithField("removed", count).Info("Cache cleanup completed")
	}

	return nil
}
