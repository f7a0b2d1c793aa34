package feed

import (
	"context"
	"errors"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"github.com/liam996405/uv-index-service/internal/cache"
	"github.com/liam996405/uv-index-service/internal/client"
	"github.com/liam996405/uv-index-service/internal/models"
	"github.com/liam996405/uv-index-service/internal/observability"
	"github.com/liam996405/uv-index-service/internal/traffic"
)

const (
	// SnapshotKey is the snapshot store key for the raw feed document.
	SnapshotKey = "feed:uvvalues"

	refreshKey = "uvvalues"

	defaultSnapshotRetention = 24 * time.Hour
)

// Cache holds the most recently parsed feed and refreshes it from upstream
// once it is older than the TTL. Refreshes are collapsed into one upstream
// call; failures degrade to the previous feed, a stored snapshot, or the
// bundled fallback.
type Cache struct {
	fetcher   client.FeedClient
	store     cache.Cache
	ttl       time.Duration
	retention time.Duration
	timeout   time.Duration
	logger    *zap.Logger
	now       func() time.Time
	fallback  func() ([]models.StationReading, error)

	group singleflight.Group

	mu        sync.RWMutex
	parsed    []models.StationReading
	raw       []byte
	fetchedAt time.Time
	loaded    bool
	lastErr   error
}

// Option configures a Cache.
type Option func(*Cache)

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(c *Cache) { c.now = now }
}

// WithSnapshotStore shares raw snapshots through store (e.g. memcached).
func WithSnapshotStore(store cache.Cache) Option {
	return func(c *Cache) { c.store = store }
}

// WithSnapshotRetention sets how long the store keeps a snapshot. Snapshots
// outlive the TTL so another replica can serve them as stale data.
func WithSnapshotRetention(d time.Duration) Option {
	return func(c *Cache) {
		if d > 0 {
			c.retention = d
		}
	}
}

// WithRefreshTimeout bounds each upstream refresh, including retries. Zero
// leaves it to the fetcher's own per-attempt timeouts.
func WithRefreshTimeout(d time.Duration) Option {
	return func(c *Cache) { c.timeout = d }
}

// WithFallback replaces the bundled dataset loader.
func WithFallback(fn func() ([]models.StationReading, error)) Option {
	return func(c *Cache) { c.fallback = fn }
}

// NewCache returns an empty feed cache; nothing is fetched until first use.
func NewCache(fetcher client.FeedClient, ttl time.Duration, logger *zap.Logger, opts ...Option) *Cache {
	if logger == nil {
		logger = zap.NewNop()
	}
	c := &Cache{
		fetcher:   fetcher,
		ttl:       ttl,
		retention: defaultSnapshotRetention,
		logger:    logger,
		now:       time.Now,
		fallback:  Fallback,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

type refreshResult struct {
	feed     models.Feed
	fetchErr error
}

// GetCurrentFeed returns the current feed, refreshing it when expired.
// The only error is ErrFeedUnavailable.
func (c *Cache) GetCurrentFeed(ctx context.Context) (models.Feed, error) {
	if f, ok := c.freshFeed(); ok {
		c.recordServed(f)
		return f, nil
	}

	res, err := c.refresh(ctx, false)
	if err != nil {
		return models.Feed{}, err
	}
	c.recordServed(res.feed)
	return res.feed, nil
}

// Refresh fetches the feed even when the cached one is still fresh and
// returns the upstream error, if any. The cache degrades exactly as in
// GetCurrentFeed.
func (c *Cache) Refresh(ctx context.Context) error {
	res, err := c.refresh(ctx, true)
	if err != nil {
		return err
	}
	return res.fetchErr
}

// State reports when the cached feed was fetched and whether one is loaded.
func (c *Cache) State() (fetchedAt time.Time, loaded bool, lastErr error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.fetchedAt, c.loaded, c.lastErr
}

// TTL returns the configured freshness window.
func (c *Cache) TTL() time.Duration {
	return c.ttl
}

// refresh waits for the shared refresh or for ctx, whichever ends first. The
// refresh itself outlives any one caller. A caller whose deadline passes gets
// the degraded feed instead.
func (c *Cache) refresh(ctx context.Context, force bool) (refreshResult, error) {
	detached := context.WithoutCancel(ctx)
	ch := c.group.DoChan(refreshKey, func() (interface{}, error) {
		rctx := detached
		if c.timeout > 0 {
			var cancel context.CancelFunc
			rctx, cancel = context.WithTimeout(detached, c.timeout)
			defer cancel()
		}
		return c.load(rctx, force)
	})

	select {
	case res := <-ch:
		if res.Err != nil {
			return refreshResult{}, res.Err
		}
		return res.Val.(refreshResult), nil
	case <-ctx.Done():
		cause := ctx.Err()
		c.logger.Warn("uv feed refresh still running at request deadline", zap.Error(cause))
		snap, haveSnap := c.loadSnapshot(detached)
		feed, err := c.degrade(snap, haveSnap, cause)
		if err != nil {
			return refreshResult{}, err
		}
		return refreshResult{feed: feed, fetchErr: cause}, nil
	}
}

func (c *Cache) load(ctx context.Context, force bool) (refreshResult, error) {
	if !force {
		if f, ok := c.freshFeed(); ok {
			return refreshResult{feed: f}, nil
		}
	}

	snap, haveSnap := c.loadSnapshot(ctx)
	now := c.now()

	if haveSnap && c.isFresh(snap.FetchedAt, now) && c.newerThanLocal(snap.FetchedAt) {
		stations, err := Parse(snap.Raw)
		if err == nil {
			c.set(stations, snap.Raw, snap.FetchedAt, nil)
			c.logger.Debug("adopted feed snapshot from store", zap.Time("fetchedAt", snap.FetchedAt))
			return refreshResult{feed: models.Feed{Stations: stations, FetchedAt: snap.FetchedAt, Source: models.FeedSourceFresh}}, nil
		}
		c.logger.Warn("discarding unparseable feed snapshot", zap.Error(err))
	}

	raw, err := c.fetcher.FetchFeed(ctx)
	var stations []models.StationReading
	if err == nil {
		stations, err = Parse(raw)
	}
	if err == nil {
		c.set(stations, raw, now, nil)
		c.storeSnapshot(ctx, raw, now)
		traffic.Feed.RecordSuccess()
		c.logger.Info("uv feed refreshed", zap.Int("stations", len(stations)))
		return refreshResult{feed: models.Feed{Stations: stations, FetchedAt: now, Source: models.FeedSourceLive}}, nil
	}

	traffic.Feed.RecordError()
	observability.UpstreamErrorsTotal.WithLabelValues(string(client.CategorizeError(err))).Inc()
	c.setLastErr(err)

	feed, ferr := c.degrade(snap, haveSnap, err)
	if ferr != nil {
		return refreshResult{}, ferr
	}
	return refreshResult{feed: feed, fetchErr: err}, nil
}

func (c *Cache) degrade(snap models.FeedSnapshot, haveSnap bool, cause error) (models.Feed, error) {
	c.mu.RLock()
	loaded := c.loaded
	stations, fetchedAt := c.parsed, c.fetchedAt
	c.mu.RUnlock()

	if loaded {
		c.logger.Warn("uv feed refresh failed, serving stale feed",
			zap.Error(cause),
			zap.Time("fetchedAt", fetchedAt),
		)
		return models.Feed{Stations: stations, FetchedAt: fetchedAt, Source: models.FeedSourceStale}, nil
	}

	if haveSnap {
		if parsed, err := Parse(snap.Raw); err == nil {
			c.set(parsed, snap.Raw, snap.FetchedAt, cause)
			c.logger.Warn("uv feed refresh failed, serving stale snapshot from store",
				zap.Error(cause),
				zap.Time("fetchedAt", snap.FetchedAt),
			)
			return models.Feed{Stations: parsed, FetchedAt: snap.FetchedAt, Source: models.FeedSourceStale}, nil
		}
	}

	fallback, err := c.fallback()
	if err != nil {
		c.logger.Error("bundled uv dataset unusable", zap.Error(err), zap.NamedError("cause", cause))
		if !errors.Is(err, ErrFeedUnavailable) {
			err = errors.Join(ErrFeedUnavailable, err)
		}
		return models.Feed{}, err
	}
	c.logger.Warn("uv feed unavailable, serving bundled dataset", zap.Error(cause))
	return models.Feed{Stations: fallback, Source: models.FeedSourceFallback}, nil
}

func (c *Cache) freshFeed() (models.Feed, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if !c.loaded || !c.isFresh(c.fetchedAt, c.now()) {
		return models.Feed{}, false
	}
	return models.Feed{Stations: c.parsed, FetchedAt: c.fetchedAt, Source: models.FeedSourceFresh}, true
}

func (c *Cache) isFresh(fetchedAt, now time.Time) bool {
	return now.Sub(fetchedAt) < c.ttl
}

func (c *Cache) newerThanLocal(t time.Time) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return !c.loaded || t.After(c.fetchedAt)
}

func (c *Cache) set(stations []models.StationReading, raw []byte, fetchedAt time.Time, lastErr error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.parsed = stations
	c.raw = raw
	c.fetchedAt = fetchedAt
	c.loaded = true
	c.lastErr = lastErr
}

func (c *Cache) setLastErr(err error) {
	c.mu.Lock()
	c.lastErr = err
	c.mu.Unlock()
}

func (c *Cache) loadSnapshot(ctx context.Context) (models.FeedSnapshot, bool) {
	if c.store == nil {
		return models.FeedSnapshot{}, false
	}
	snap, ok, err := c.store.Get(ctx, SnapshotKey)
	if err != nil {
		observability.SnapshotStoreErrorsTotal.WithLabelValues("get").Inc()
		c.logger.Warn("feed snapshot read failed", zap.Error(err))
		return models.FeedSnapshot{}, false
	}
	if !ok || len(snap.Raw) == 0 {
		return models.FeedSnapshot{}, false
	}
	return snap, true
}

func (c *Cache) storeSnapshot(ctx context.Context, raw []byte, fetchedAt time.Time) {
	if c.store == nil {
		return
	}
	snap := models.FeedSnapshot{Raw: raw, FetchedAt: fetchedAt}
	if err := c.store.Set(ctx, SnapshotKey, snap, c.retention); err != nil {
		observability.SnapshotStoreErrorsTotal.WithLabelValues("set").Inc()
		c.logger.Warn("feed snapshot write failed", zap.Error(err))
	}
}

func (c *Cache) recordServed(f models.Feed) {
	var age time.Duration
	if !f.FetchedAt.IsZero() {
		age = c.now().Sub(f.FetchedAt)
	}
	observability.RecordFeedServed(string(f.Source), age)
}
