package catalog

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"ecommerce-backend/pkg/cache"
	"ecommerce-backend/pkg/logger"
)

const (
	priceCacheKeyPrefix = "catalog:price:"
	priceCacheTTL       = 30 * time.Second
)

// CachedLookup is a read-through cache around any PriceLookup.
// Prices move rarely within a checkout session, so a short TTL keeps
// commit-time revalidation cheap without risking stale sale prices.
type CachedLookup struct {
	next  PriceLookup
	cache cache.Cache
}

func NewCachedLookup(next PriceLookup, c cache.Cache) *CachedLookup {
	return &CachedLookup{next: next, cache: c}
}

func (l *CachedLookup) UnitPrice(ctx context.Context, productID uuid.UUID) (*ProductPrice, error) {
	key := priceCacheKeyPrefix + productID.String()

	var cached ProductPrice
	found, err := l.cache.Get(ctx, key, &cached)
	if err != nil {
		// Cache trouble must never fail a price lookup.
		logger.Error("price cache read failed", err)
	}
	if found {
		if !cached.IsActive {
			return nil, ErrProductUnavailable
		}
		return &cached, nil
	}

	price, err := l.next.UnitPrice(ctx, productID)
	if err != nil {
		return nil, err
	}

	if err := l.cache.Set(ctx, key, price, priceCacheTTL); err != nil {
		logger.Error("price cache write failed", err)
	}

	return price, nil
}

// Invalidate drops the cached price for a product.
func (l *CachedLookup) Invalidate(ctx context.Context, productID uuid.UUID) error {
	if err := l.cache.Delete(ctx, priceCacheKeyPrefix+productID.String()); err != nil {
		return fmt.Errorf("invalidate price cache: %w", err)
	}
	return nil
}
