package sectorcache

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/Liszten/kpiComp/internal/rating"
	"github.com/Liszten/kpiComp/pkg/logger"
	"github.com/Liszten/kpiComp/pkg/redis"
)

// DefaultTTL is how long a sector's peer KPIs stay fresh
const DefaultTTL = time.Hour

// DefaultLoadTimeout bounds one shared sector load
const DefaultLoadTimeout = 2 * time.Minute

// PeerKPIs is one peer's extracted KPI values
type PeerKPIs struct {
	Ticker string          `json:"ticker"`
	KPIs   rating.ValueMap `json:"kpis"`
}

// Entry is a cached sector snapshot
type Entry struct {
	Sector    string     `json:"sector"`
	Peers     []PeerKPIs `json:"peers"`
	StoredAt  time.Time  `json:"stored_at"`
	ExpiresAt time.Time  `json:"expires_at"`
}

// Loader fetches a sector's peer KPIs on a cache miss
type Loader func(ctx context.Context) ([]PeerKPIs, error)

// Option configures a Cache
type Option func(*Cache)

// WithClock replaces the wall clock used for expiry
func WithClock(now func() time.Time) Option {
	return func(c *Cache) {
		c.now = now
	}
}

// WithLoadTimeout bounds a shared load, which outlives any single caller
func WithLoadTimeout(d time.Duration) Option {
	return func(c *Cache) {
		if d > 0 {
			c.loadTimeout = d
		}
	}
}

// WithShared adds a Redis-backed second level shared across instances
func WithShared(shared *redis.Cache) Option {
	return func(c *Cache) {
		c.shared = shared
	}
}

// Cache holds peer KPIs per sector with wall-clock expiry
// ⭐ SSOT: 섹터 피어 캐시는 이 구조체에서만
type Cache struct {
	mu          sync.RWMutex
	entries     map[string]Entry
	ttl         time.Duration
	loadTimeout time.Duration
	now         func() time.Time
	group       singleflight.Group
	shared      *redis.Cache // optional L2
	logger      *logger.Logger
}

// New creates a sector cache; ttl <= 0 uses DefaultTTL
func New(ttl time.Duration, log *logger.Logger, opts ...Option) *Cache {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	c := &Cache{
		entries:     make(map[string]Entry),
		ttl:         ttl,
		loadTimeout: DefaultLoadTimeout,
		now:         time.Now,
		logger:      log,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Key normalizes a sector name into a cache key
func Key(sector string) string {
	return strings.ToLower(strings.TrimSpace(sector))
}

// TTL returns the configured time-to-live
func (c *Cache) TTL() time.Duration {
	return c.ttl
}

// Get returns the entry for a sector if it has not expired
func (c *Cache) Get(sector string) (Entry, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	entry, ok := c.entries[Key(sector)]
	if !ok || !c.now().Before(entry.ExpiresAt) {
		return Entry{}, false
	}
	return entry, true
}

// Put stores peers for a sector, replacing any previous entry
func (c *Cache) Put(sector string, peers []PeerKPIs) Entry {
	now := c.now()
	entry := Entry{
		Sector:    sector,
		Peers:     peers,
		StoredAt:  now,
		ExpiresAt: now.Add(c.ttl),
	}

	c.mu.Lock()
	c.entries[Key(sector)] = entry
	c.mu.Unlock()

	return entry
}

// GetOrLoad returns cached peers or calls loader once per sector,
// sharing the result with concurrent callers for the same sector.
// The bool reports whether the peers came from a cache level.
// The load runs detached from ctx so one caller leaving does not fail the
// others; each caller stops waiting when its own ctx is done.
func (c *Cache) GetOrLoad(ctx context.Context, sector string, loader Loader) ([]PeerKPIs, bool, error) {
	if entry, ok := c.Get(sector); ok {
		return entry.Peers, true, nil
	}

	if err := ctx.Err(); err != nil {
		return nil, false, err
	}

	key := Key(sector)
	type outcome struct {
		peers  []PeerKPIs
		cached bool
	}

	ch := c.group.DoChan(key, func() (interface{}, error) {
		// another caller may have filled it while we waited
		if entry, ok := c.Get(sector); ok {
			return outcome{peers: entry.Peers, cached: true}, nil
		}

		ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), c.loadTimeout)
		defer cancel()

		if entry, ok := c.getShared(ctx, key); ok {
			c.mu.Lock()
			c.entries[key] = entry
			c.mu.Unlock()
			return outcome{peers: entry.Peers, cached: true}, nil
		}

		peers, err := loader(ctx)
		if err != nil {
			return nil, fmt.Errorf("load sector %q: %w", sector, err)
		}

		entry := c.Put(sector, peers)
		c.putShared(ctx, key, entry)

		c.logger.WithSector(sector).WithField("peers", len(peers)).Debug("Sector peers cached")

		return outcome{peers: peers}, nil
	})

	select {
	case <-ctx.Done():
		return nil, false, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return nil, false, res.Err
		}
		out := res.Val.(outcome)
		return out.peers, out.cached, nil
	}
}

// Delete drops one sector
func (c *Cache) Delete(sector string) {
	c.mu.Lock()
	delete(c.entries, Key(sector))
	c.mu.Unlock()
}

// Clear drops every in-process entry and returns how many were removed
func (c *Cache) Clear() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	n := len(c.entries)
	c.entries = make(map[string]Entry)
	return n
}

// ClearShared drops every sector snapshot from the shared level
func (c *Cache) ClearShared(ctx context.Context) (int, error) {
	if c.shared == nil {
		return 0, nil
	}
	return c.shared.DeletePattern(ctx, redis.SectorPeersKey("*"))
}

// EvictExpired removes expired entries and returns how many were removed
func (c *Cache) EvictExpired() int {
	now := c.now()

	c.mu.Lock()
	defer c.mu.Unlock()

	removed := 0
	for key, entry := range c.entries {
		if !now.Before(entry.ExpiresAt) {
			delete(c.entries, key)
			removed++
		}
	}
	return removed
}

// Len returns the number of stored entries, expired or not
func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

func (c *Cache) getShared(ctx context.Context, key string) (Entry, bool) {
	if c.shared == nil {
		return Entry{}, false
	}

	var entry Entry
	found, err := c.shared.Get(ctx, redis.SectorPeersKey(key), &entry)
	if err != nil {
		c.logger.WithError(err).WithSector(key).Warn("Shared sector cache read failed")
		return Entry{}, false
	}
	if !found || !c.now().Before(entry.ExpiresAt) {
		return Entry{}, false
	}
	return entry, true
}

func (c *Cache) putShared(ctx context.Context, key string, entry Entry) {
	if c.shared == nil {
		return
	}
	if err := c.shared.Set(ctx, redis.SectorPeersKey(key), entry, c.ttl); err != nil {
		c.logger.WithError(err).WithSector(key).Warn("Shared sector cache write failed")
	}
}
