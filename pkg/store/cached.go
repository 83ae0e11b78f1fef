package store

import (
	"context"
	"encoding/json"
	"time"

	"github.com/jordanlanch/salescrm/pkg/cache"
	"github.com/jordanlanch/salescrm/pkg/domain"
	"github.com/jordanlanch/salescrm/pkg/logger"
	"github.com/jordanlanch/salescrm/pkg/models"
)

// CacheObserver counts list cache lookups.
type CacheObserver interface {
	ObserveListCache(collection string, hit bool)
}

// CachedCollection serves List from a shared list cache. Every successful
// write bumps the owner's generation for the collection, which retires the
// cached listing. Cache failures are logged and fall through to the wrapped
// collection.
type CachedCollection[T domain.Record[T], P domain.Patch[T]] struct {
	next     domain.Collection[T, P]
	lists    domain.ListCache
	name     string
	ttl      time.Duration
	observer CacheObserver
	logger   logger.Logger
}

// CacheConfig configures WithListCache.
type CacheConfig struct {
	TTL      time.Duration
	Observer CacheObserver
	Logger   logger.Logger
}

// NewCached wraps next with a list cache.
func NewCached[T domain.Record[T], P domain.Patch[T]](name string, next domain.Collection[T, P], lists domain.ListCache, cfg CacheConfig) *CachedCollection[T, P] {
	if cfg.Logger == nil {
		cfg.Logger = logger.Discard()
	}
	if cfg.TTL <= 0 {
		cfg.TTL = 5 * time.Minute
	}
	return &CachedCollection[T, P]{
		next:     next,
		lists:    lists,
		name:     name,
		ttl:      cfg.TTL,
		observer: cfg.Observer,
		logger:   cfg.Logger.With("component", "list_cache", "collection", name),
	}
}

// WithListCache wraps all four collections of c.
func WithListCache(c Collections, lists domain.ListCache, cfg CacheConfig) Collections {
	return Collections{
		Leads:      NewCached(LeadsName, c.Leads, lists, cfg),
		Deals:      NewCached(DealsName, c.Deals, lists, cfg),
		Activities: NewCached(ActivitiesName, c.Activities, lists, cfg),
		Events:     NewCached(EventsName, c.Events, lists, cfg),
	}
}

func (c *CachedCollection[T, P]) observe(hit bool) {
	if c.observer != nil {
		c.observer.ObserveListCache(c.name, hit)
	}
}

func (c *CachedCollection[T, P]) List(ctx context.Context, ownerID string) ([]T, error) {
	if ownerID == "" {
		return nil, domain.NewUnauthorizedError()
	}

	// The generation is read before the store so a write landing mid-read
	// moves readers to a new key and this listing is stored under the old one.
	gen, err := c.lists.Generation(ctx, cache.GenerationKey(ownerID, c.name))
	if err != nil {
		c.logger.Warn("List cache generation read failed", "owner", ownerID, "error", err)
		c.observe(false)
		return c.next.List(ctx, ownerID)
	}
	key := cache.VersionedListKey(ownerID, c.name, gen)

	raw, err := c.lists.Get(ctx, key)
	if err == nil {
		var items []T
		if jsonErr := json.Unmarshal([]byte(raw), &items); jsonErr == nil {
			c.observe(true)
			return items, nil
		}
		c.logger.Warn("Discarding unreadable cached listing", "key", key)
	} else if !cache.IsMiss(err) {
		c.logger.Warn("List cache read failed", "key", key, "error", err)
	}
	c.observe(false)

	items, err := c.next.List(ctx, ownerID)
	if err != nil {
		return nil, err
	}
	if data, err := json.Marshal(items); err == nil {
		if err := c.lists.Set(ctx, key, data, c.ttl); err != nil {
			c.logger.Warn("List cache write failed", "key", key, "error", err)
		}
	}
	return items, nil
}

func (c *CachedCollection[T, P]) Create(ctx context.Context, ownerID string, draft T) (T, error) {
	item, err := c.next.Create(ctx, ownerID, draft)
	if err == nil {
		c.invalidate(ctx, ownerID)
	}
	return item, err
}

func (c *CachedCollection[T, P]) Update(ctx context.Context, ownerID, id string, patch P) (T, error) {
	item, err := c.next.Update(ctx, ownerID, id, patch)
	if err == nil {
		c.invalidate(ctx, ownerID)
	}
	return item, err
}

func (c *CachedCollection[T, P]) Delete(ctx context.Context, ownerID, id string) error {
	err := c.next.Delete(ctx, ownerID, id)
	if err == nil {
		c.invalidate(ctx, ownerID)
	}
	return err
}

// invalidate retires the current generation, then drops the listings it
// left behind.
func (c *CachedCollection[T, P]) invalidate(ctx context.Context, ownerID string) {
	if _, err := c.lists.Incr(ctx, cache.GenerationKey(ownerID, c.name)); err != nil {
		c.logger.Warn("List cache generation bump failed", "owner", ownerID, "error", err)
	}
	if err := c.lists.DeletePattern(ctx, cache.ListPattern(ownerID, c.name)); err != nil {
		c.logger.Warn("List cache invalidation failed", "owner", ownerID, "error", err)
	}
}

var (
	_ LeadCollection  = (*CachedCollection[models.Lead, models.LeadPatch])(nil)
	_ EventCollection = (*SQLCollection[models.CalendarEvent, models.EventPatch])(nil)
	_ DealCollection  = (*MemoryCollection[models.Deal, models.DealPatch])(nil)
)
