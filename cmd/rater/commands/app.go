package commands

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/Liszten/kpiComp/internal/analysis"
	"github.com/Liszten/kpiComp/internal/contracts"
	"github.com/Liszten/kpiComp/internal/external/yahoo"
	"github.com/Liszten/kpiComp/internal/rating"
	"github.com/Liszten/kpiComp/internal/scheduler"
	"github.com/Liszten/kpiComp/internal/scheduler/jobs"
	"github.com/Liszten/kpiComp/internal/sectorcache"
	"github.com/Liszten/kpiComp/internal/universe"
	"github.com/Liszten/kpiComp/pkg/config"
	"github.com/Liszten/kpiComp/pkg/database"
	"github.com/Liszten/kpiComp/pkg/httputil"
	"github.com/Liszten/kpiComp/pkg/logger"
	"github.com/Liszten/kpiComp/pkg/redis"
)

// app holds the wired dependencies shared by the commands
type app struct {
	cfg      *config.Config
	log      *logger.Logger
	db       *database.DB  // nil when DATABASE_URL is empty
	redis    *redis.Client // disabled client when REDIS_ENABLED=false
	universe *universe.Service
	analysis *analysis.Service
}

// newApp loads config and wires every component, logging to logOut.
// Database and Redis are optional; a failed connection degrades to in-memory operation.
func newApp(logOut io.Writer) (*app, error) {
	// 1. Load config
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	// 2. Initialize logger
	log := logger.NewWithWriter(logOut, cfg)

	// 3. Rating engine
	catalog := rating.DefaultCatalog()
	if cfg.Rating.CatalogPath != "" {
		catalog, err = rating.LoadCatalog(cfg.Rating.CatalogPath)
		if err != nil {
			return nil, fmt.Errorf("load KPI catalog: %w", err)
		}
		log.WithField("path", cfg.Rating.CatalogPath).Info("Loaded KPI catalog")
	}
	engine, err := rating.NewEngine(catalog, rating.Weights{
		Absolute: cfg.Rating.AbsoluteWeight,
		Relative: cfg.Rating.RelativeWeight,
	})
	if err != nil {
		return nil, fmt.Errorf("create rating engine: %w", err)
	}

	a := &app{cfg: cfg, log: log}

	// 4. Optional database
	var store contracts.ConstituentStore
	var history analysis.HistoryStore
	db, err := database.New(cfg)
	switch {
	case errors.Is(err, database.ErrNotConfigured):
		log.Debug("DATABASE_URL not set, running without persistence")
	case err != nil:
		log.WithError(err).Warn("Database unavailable, running without persistence")
	default:
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		err := db.Migrate(ctx)
		cancel()
		if err != nil {
			db.Close()
			return nil, fmt.Errorf("migrate database: %w", err)
		}
		a.db = db
		store = universe.NewRepository(db.Pool)
		history = analysis.NewHistoryRepository(db.Pool)
		log.Info("Connected to database")
	}

	// 5. Optional redis (shared cache + rate limit)
	rdb, err := redis.New(cfg)
	if err != nil {
		log.WithError(err).Warn("Redis unavailable, using in-process cache only")
		rdb = redis.Disabled()
	}
	a.redis = rdb

	// 6. HTTP clients
	yahooOpts := []httputil.Option{
		httputil.WithTimeout(cfg.Yahoo.Timeout),
		httputil.WithLimiter(cfg.Yahoo.RatePerSec),
	}
	var scrapeOpts []httputil.Option
	if rdb.Enabled() {
		limiter := redis.NewRateLimiter(rdb)
		yahooOpts = append(yahooOpts, httputil.WithSharedLimit(limiter, redis.YahooLimit(cfg.Yahoo.RatePerSec)))
		scrapeOpts = append(scrapeOpts, httputil.WithSharedLimit(limiter, redis.UniverseSourceLimit))
	}
	yahooHTTP := httputil.New(log, yahooOpts...)
	scrapeHTTP := httputil.New(log, scrapeOpts...)

	// 7. Domain services
	provider := yahoo.NewClient(yahooHTTP, cfg.Yahoo.BaseURL, log)
	scraper := universe.NewScraper(scrapeHTTP, cfg.Universe.SourceURL, log)
	a.universe = universe.NewService(store, scraper, log)

	cacheOpts := []sectorcache.Option{}
	if rdb.Enabled() {
		cacheOpts = append(cacheOpts, sectorcache.WithShared(redis.NewCache(rdb)))
	}
	cache := sectorcache.New(cfg.Rating.SectorCacheTTL, log, cacheOpts...)

	opts := []analysis.Option{analysis.WithWorkers(cfg.Rating.PeerWorkers)}
	if history != nil {
		opts = append(opts, analysis.WithHistory(history))
	}
	a.analysis = analysis.NewService(provider, a.universe, engine, cache, log, opts...)

	return a, nil
}

// newScheduler registers the rating jobs
func (a *app) newScheduler() (*scheduler.Scheduler, error) {
	sched := scheduler.New(a.log)

	for _, job := range []scheduler.Job{
		jobs.NewUniverseRefreshJob(a.universe, a.log),
		jobs.NewSectorWarmupJob(a.analysis, a.log),
		jobs.NewCacheCleanupJob(a.analysis, a.log),
	} {
		if err := sched.AddJob(job); err != nil {
			return nil, err
		}
	}
	return sched, nil
}

// Close releases connections
func (a *app) Close() {
	if a.db != nil {
		a.db.Close()
	}
	if a.redis != nil {
		_ = a.redis.Close()
	}
}
