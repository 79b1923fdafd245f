package usecase

import (
	"context"
	"fmt"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/sokoide/workshop/storefront/pkg/domain"
)

const DefaultCatalogTTL = time.Minute

type cacheEntry struct {
	value     any
	expiresAt time.Time
}

// ttlCache expires entries lazily on read.
type ttlCache struct {
	mu    sync.RWMutex
	items map[string]cacheEntry
	now   func() time.Time
}

func newTTLCache(now func() time.Time) *ttlCache {
	return &ttlCache{items: make(map[string]cacheEntry), now: now}
}

func (c *ttlCache) get(key string) (any, bool) {
	c.mu.RLock()
	entry, ok := c.items[key]
	c.mu.RUnlock()
	if !ok {
		return nil, false
	}
	if c.now().After(entry.expiresAt) {
		c.mu.Lock()
		delete(c.items, key)
		c.mu.Unlock()
		return nil, false
	}
	return entry.value, true
}

func (c *ttlCache) set(key string, value any, ttl time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.items[key] = cacheEntry{value: value, expiresAt: c.now().Add(ttl)}
}

func (c *ttlCache) purge() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.items = make(map[string]cacheEntry)
}

// CatalogBrowser is a read-through cache in front of the provider's catalog.
// Concurrent misses for the same key share one provider call.
type CatalogBrowser struct {
	catalog domain.Catalog
	ttl     time.Duration
	opts    options

	cache *ttlCache
	group singleflight.Group
}

func NewCatalogBrowser(catalog domain.Catalog, ttl time.Duration, opts ...Option) (*CatalogBrowser, error) {
	if catalog == nil {
		return nil, fmt.Errorf("catalog browser: %w: catalog", domain.ErrMissingDependency)
	}
	if ttl <= 0 {
		ttl = DefaultCatalogTTL
	}
	o := buildOptions(opts)
	return &CatalogBrowser{
		catalog: catalog,
		ttl:     ttl,
		opts:    o,
		cache:   newTTLCache(time.Now),
	}, nil
}

// load returns the cached value for key or fetches it once for all waiters.
func (b *CatalogBrowser) load(ctx context.Context, key string, fetch func(context.Context) (any, error)) (any, error) {
	if v, ok := b.cache.get(key); ok {
		return v, nil
	}

	v, err, shared := b.group.Do(key, func() (any, error) {
		if v, ok := b.cache.get(key); ok {
			return v, nil
		}
		callCtx, cancel := b.opts.callContext(ctx)
		defer cancel()
		fresh, err := fetch(callCtx)
		if err != nil {
			return nil, err
		}
		b.cache.set(key, fresh, b.ttl)
		return fresh, nil
	})
	if err != nil {
		b.opts.log.Warn("catalog fetch failed", "key", key, "error", err)
		return nil, err
	}
	if shared {
		b.opts.log.Debug("catalog fetch shared", "key", key)
	}
	return v, nil
}

func (b *CatalogBrowser) Restaurants(ctx context.Context) ([]domain.Restaurant, error) {
	v, err := b.load(ctx, "restaurants", func(ctx context.Context) (any, error) {
		return b.catalog.ListRestaurants(ctx)
	})
	if err != nil {
		return nil, err
	}
	return append([]domain.Restaurant(nil), v.([]domain.Restaurant)...), nil
}

type restaurantLookup struct {
	restaurant domain.Restaurant
	found      bool
}

// Restaurant returns ErrRestaurantNotFound when the provider has no such id.
// Misses are cached like hits.
func (b *CatalogBrowser) Restaurant(ctx context.Context, id string) (domain.Restaurant, error) {
	v, err := b.load(ctx, "restaurant:"+id, func(ctx context.Context) (any, error) {
		r, ok, err := b.catalog.GetRestaurant(ctx, id)
		if err != nil {
			return nil, err
		}
		return restaurantLookup{restaurant: r, found: ok}, nil
	})
	if err != nil {
		return domain.Restaurant{}, err
	}
	lookup := v.(restaurantLookup)
	if !lookup.found {
		return domain.Restaurant{}, fmt.Errorf("%w: %s", domain.ErrRestaurantNotFound, id)
	}
	return lookup.restaurant, nil
}

func (b *CatalogBrowser) Menu(ctx context.Context, restaurantID string) ([]domain.MenuItem, error) {
	v, err := b.load(ctx, "menu:"+restaurantID, func(ctx context.Context) (any, error) {
		return b.catalog.ListMenuItems(ctx, restaurantID)
	})
	if err != nil {
		return nil, err
	}
	return append([]domain.MenuItem(nil), v.([]domain.MenuItem)...), nil
}

// FindMenuItem resolves an item on a restaurant's menu so it can be added to
// the cart.
func (b *CatalogBrowser) FindMenuItem(ctx context.Context, restaurantID, itemID string) (domain.MenuItem, error) {
	items, err := b.Menu(ctx, restaurantID)
	if err != nil {
		return domain.MenuItem{}, err
	}
	for _, it := range items {
		if it.ID != itemID {
			continue
		}
		if !it.Available {
			return domain.MenuItem{}, fmt.Errorf("%w: %s", domain.ErrItemUnavailable, it.Name)
		}
		return it, nil
	}
	return domain.MenuItem{}, fmt.Errorf("%w: %s in restaurant %s", domain.ErrItemNotFound, itemID, restaurantID)
}

// Invalidate drops every cached entry.
func (b *CatalogBrowser) Invalidate() {
	b.cache.purge()
}
