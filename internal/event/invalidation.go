// Package event wires the read-model cache to the write-side event bus, so a
// cached stock or product lookup is never served stale after a mutation.
package event

import (
	"context"
	"log/slog"

	"github.com/google/uuid"

	"github.com/utafrali/inventory-es/internal/cache"
	"github.com/utafrali/inventory-es/internal/domain"
	"github.com/utafrali/inventory-es/internal/eventbus"
	"github.com/utafrali/inventory-es/internal/query"
)

// CacheInvalidator subscribes to every mutating event type and evicts the
// cache entries the corresponding aggregate could have made stale.
type CacheInvalidator struct {
	cache *cache.Cache
	log   *slog.Logger
}

// NewCacheInvalidator returns a CacheInvalidator backed by c.
func NewCacheInvalidator(c *cache.Cache, log *slog.Logger) *CacheInvalidator {
	if log == nil {
		log = slog.Default()
	}
	return &CacheInvalidator{cache: c, log: log}
}

// Subscribe registers the invalidator against every event type the
// inventory aggregate can emit.
func (c *CacheInvalidator) Subscribe(bus *eventbus.Bus) {
	bus.Subscribe(domain.EventStockAdded, c.handleStockAdded)
	bus.Subscribe(domain.EventStockReserved, c.handleStockReserved)
	bus.Subscribe(domain.EventReservationCommitted, c.handleReservationCommitted)
	bus.Subscribe(domain.EventReservationReleased, c.handleReservationReleased)
	bus.Subscribe(domain.EventStockAdjusted, c.handleStockAdjusted)
}

func (c *CacheInvalidator) handleStockAdded(_ context.Context, e domain.Event) error {
	if e.StockAdded == nil {
		return nil
	}
	c.invalidate(e.StockAdded.ProductID, e.StockAdded.StoreID)
	return nil
}

func (c *CacheInvalidator) handleStockReserved(_ context.Context, e domain.Event) error {
	if e.StockReserved == nil {
		return nil
	}
	c.invalidate(e.StockReserved.ProductID, e.StockReserved.StoreID)
	return nil
}

func (c *CacheInvalidator) handleReservationCommitted(_ context.Context, e domain.Event) error {
	if e.ReservationCommitted == nil {
		return nil
	}
	c.invalidate(e.ReservationCommitted.ProductID, e.ReservationCommitted.StoreID)
	return nil
}

func (c *CacheInvalidator) handleReservationReleased(_ context.Context, e domain.Event) error {
	if e.ReservationReleased == nil {
		return nil
	}
	c.invalidate(e.ReservationReleased.ProductID, e.ReservationReleased.StoreID)
	return nil
}

func (c *CacheInvalidator) handleStockAdjusted(_ context.Context, e domain.Event) error {
	if e.StockAdjusted == nil {
		return nil
	}
	c.invalidate(e.StockAdjusted.ProductID, e.StockAdjusted.StoreID)
	return nil
}

// invalidate drops the per-store stock entry and the whole-product listing,
// since either could now disagree with the projection.
func (c *CacheInvalidator) invalidate(productID, storeID uuid.UUID) {
	c.cache.Delete(query.StockCacheKey(productID, storeID))
	c.cache.Delete(query.ProductCacheKey(productID))
	c.log.Debug("invalidated cache entries",
		slog.String("product_id", productID.String()),
		slog.String("store_id", storeID.String()),
	)
}
