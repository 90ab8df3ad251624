package datasource

import (
	"context"
	"sync/atomic"
	"time"

	cache "github.com/patrickmn/go-cache"

	"github.com/watsonpaul80/tipping-monster/internal/models"
)

// CacheObserver receives hit ratio updates.
type CacheObserver func(ratio float64)

// ResultsCache wraps a ResultSource and keeps parsed results in memory so a
// batch over overlapping dates reads each results file once.
type ResultsCache struct {
	source    ResultSource
	cache     *cache.Cache
	ttl       time.Duration
	maxSize   int
	hitCount  atomic.Uint64
	missCount atomic.Uint64
	observer  CacheObserver
}

// NewResultsCache creates a results cache in front of source.
func NewResultsCache(source ResultSource, ttl time.Duration, maxSize int, observer CacheObserver) *ResultsCache {
	if ttl <= 0 {
		ttl = 10 * time.Minute
	}
	return &ResultsCache{
		source:   source,
		cache:    cache.New(ttl, ttl*2),
		ttl:      ttl,
		maxSize:  maxSize,
		observer: observer,
	}
}

func cacheKey(date time.Time) string {
	return date.Format(models.DateLayout)
}

// LoadResults implements ResultSource. Errors are never cached.
func (rc *ResultsCache) LoadResults(ctx context.Context, date time.Time) (*ResultBatch, error) {
	key := cacheKey(date)
	if cached, found := rc.cache.Get(key); found {
		if batch, ok := cached.(*ResultBatch); ok {
			rc.hitCount.Add(1)
			rc.report()
			return batch, nil
		}
	}
	rc.missCount.Add(1)
	rc.report()

	batch, err := rc.source.LoadResults(ctx, date)
	if err != nil {
		return nil, err
	}

	if rc.maxSize > 0 && rc.cache.ItemCount() >= rc.maxSize {
		rc.cache.DeleteExpired()
	}
	if rc.maxSize <= 0 || rc.cache.ItemCount() < rc.maxSize {
		rc.cache.Set(key, batch, rc.ttl)
	}
	return batch, nil
}

// Invalidate drops the cached results for date.
func (rc *ResultsCache) Invalidate(date time.Time) {
	rc.cache.Delete(cacheKey(date))
}

// Clear flushes the entire cache
func (rc *ResultsCache) Clear() {
	rc.cache.Flush()
	rc.hitCount.Store(0)
	rc.missCount.Store(0)
}

// Stats returns cache statistics
func (rc *ResultsCache) Stats() (hits, misses uint64, ratio float64) {
	hits = rc.hitCount.Load()
	misses = rc.missCount.Load()
	total := hits + misses
	if total > 0 {
		ratio = float64(hits) / float64(total)
	}
	return
}

// ItemCount returns the number of items in cache
func (rc *ResultsCache) ItemCount() int {
	return rc.cache.ItemCount()
}

func (rc *ResultsCache) report() {
	if rc.observer == nil {
		return
	}
	_, _, ratio := rc.Stats()
	rc.observer(ratio)
}
