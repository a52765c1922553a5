package usecase

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"time"

	"github.com/Rahima097/find-Roommate-server/internal/entity"
	"github.com/Rahima097/find-Roommate-server/internal/platform/logger"
	"github.com/Rahima097/find-Roommate-server/internal/port/cache"
	"go.uber.org/zap"
)

const (
	defaultListingCacheTTL = 5 * time.Minute
	recheckDeleteTimeout   = 2 * time.Second
)

// CacheOptions tunes the listing cache. InvalidateDelay closes the
// cache-aside race: every invalidation is repeated after the delay, and a
// read that took longer than the delay is not cached, so a stale fill always
// lands before the second delete. Zero disables both.
type CacheOptions struct {
	TTL             time.Duration
	InvalidateDelay time.Duration
}

func listingCacheKey(id string) string {
	return "roommates:" + id
}

// cachedListing keeps the identifier next to the document because Listing's
// JSON decoding drops incoming _id values.
type cachedListing struct {
	ID      string         `json:"id"`
	Listing entity.Listing `json:"listing"`
}

// listingCache is a read-through cache of single listings. A nil repo turns
// every call into a no-op miss.
type listingCache struct {
	repo   cache.CacheRepository
	ttl    time.Duration
	delay  time.Duration
	logger *logger.Logger

	pending sync.WaitGroup
}

func newListingCache(repo cache.CacheRepository, opts CacheOptions, log *logger.Logger) *listingCache {
	if opts.TTL <= 0 {
		opts.TTL = defaultListingCacheTTL
	}
	return &listingCache{repo: repo, ttl: opts.TTL, delay: opts.InvalidateDelay, logger: log}
}

func (c *listingCache) get(ctx context.Context, id string) (*entity.Listing, bool) {
	if c.repo == nil {
		return nil, false
	}
	key := listingCacheKey(id)
	data, err := c.repo.Get(ctx, key)
	if err != nil {
		if !errors.Is(err, cache.ErrNotFound) {
			c.logger.Warn("listing cache read failed", zap.String("key", key), zap.Error(err))
		}
		return nil, false
	}

	var cached cachedListing
	if err := json.Unmarshal(data, &cached); err != nil {
		c.logger.Warn("dropping unreadable cache entry", zap.String("key", key), zap.Error(err))
		c.invalidate(ctx, id)
		return nil, false
	}
	cached.Listing.ID = cached.ID
	return &cached.Listing, true
}

// set caches l, read from the store at readStart.
func (c *listingCache) set(ctx context.Context, l *entity.Listing, readStart time.Time) {
	if c.repo == nil || l == nil || l.ID == "" {
		return
	}
	if c.delay > 0 && time.Since(readStart) >= c.delay {
		c.logger.Debug("slow read not cached", zap.String("listing_id", l.ID))
		return
	}
	data, err := json.Marshal(cachedListing{ID: l.ID, Listing: *l})
	if err != nil {
		c.logger.Warn("failed to encode listing for cache", zap.String("listing_id", l.ID), zap.Error(err))
		return
	}
	if err := c.repo.Set(ctx, listingCacheKey(l.ID), data, c.ttl); err != nil {
		c.logger.Warn("listing cache write failed", zap.String("listing_id", l.ID), zap.Error(err))
	}
}

// invalidate drops the entry now and, with a delay configured, once more
// after it.
func (c *listingCache) invalidate(ctx context.Context, id string) {
	if c.repo == nil {
		return
	}
	c.delete(ctx, id)
	if c.delay <= 0 {
		return
	}

	detached := context.WithoutCancel(ctx)
	c.pending.Add(1)
	time.AfterFunc(c.delay, func() {
		defer c.pending.Done()
		ctx, cancel := context.WithTimeout(detached, recheckDeleteTimeout)
		defer cancel()
		c.delete(ctx, id)
	})
}

func (c *listingCache) delete(ctx context.Context, id string) {
	if err := c.repo.Delete(ctx, listingCacheKey(id)); err != nil {
		c.logger.Warn("listing cache invalidation failed", zap.String("listing_id", id), zap.Error(err))
	}
}

// wait blocks until scheduled second deletes have run.
func (c *listingCache) wait() {
	c.pending.Wait()
}
