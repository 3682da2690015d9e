package cache

import (
	"context"
	"time"

	"MarketMind/internal/domain/models"
	pkgcache "MarketMind/pkg/cache"
)

// PassCache short-circuits duplicate analysis: completed pass results
// are stored by item digest so a re-delivered item skips the agents.
type PassCache struct {
	store pkgcache.Store
	ttl   time.Duration
}

// NewPassCache wraps a store. ttl <= 0 falls back to 5 minutes.
func NewPassCache(store pkgcache.Store, ttl time.Duration) *PassCache {
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	return &PassCache{store: store, ttl: ttl}
}

// ItemKey derives the digest key for one news item.
func ItemKey(item *models.NewsItem) string {
	return pkgcache.Key("pass", pkgcache.Digest(item.Symbol+"|"+item.Headline+"|"+item.ID))
}

// Get returns a previously stored result for the item, if any.
func (p *PassCache) Get(ctx context.Context, item *models.NewsItem) (*models.AggregationResult, bool) {
	res, ok, err := pkgcache.GetJSON[*models.AggregationResult](ctx, p.store, ItemKey(item))
	if err != nil || !ok {
		return nil, false
	}
	return res, true
}

// Put stores the result under the item's digest key.
func (p *PassCache) Put(ctx context.Context, item *models.NewsItem, res *models.AggregationResult) error {
	return pkgcache.SetJSON(ctx, p.store, ItemKey(item), res, p.ttl)
}
