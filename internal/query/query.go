// Package query implements the cache-aside read side: GetStock,
// CheckAvailability, and GetProductInventory.
package query

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/utafrali/inventory-es/internal/cache"
	"github.com/utafrali/inventory-es/internal/projection"
	apperrors "github.com/utafrali/inventory-es/pkg/errors"
)

// Stock is the shape returned by GetStock.
type Stock struct {
	Available int
	Reserved  int
	Total     int
}

// Availability is the shape returned by CheckAvailability.
type Availability struct {
	Available     bool
	CurrentStock  int
	RequiredStock int
}

// Handlers serves read traffic cache-aside over the projection repository.
type Handlers struct {
	cache *cache.Cache
	proj  *projection.Repository
}

// New returns a query Handlers backed by c and proj.
func New(c *cache.Cache, proj *projection.Repository) *Handlers {
	return &Handlers{cache: c, proj: proj}
}

// StockCacheKey returns the cache key GetStock uses for (productID, storeID).
func StockCacheKey(productID, storeID uuid.UUID) string {
	return fmt.Sprintf("stock:%s:%s", productID, storeID)
}

// ProductCacheKey returns the cache key GetProductInventory uses for productID.
func ProductCacheKey(productID uuid.UUID) string {
	return fmt.Sprintf("product_inventory:%s", productID)
}

// GetStock returns the current stock levels for (productID, storeID),
// serving from cache on hit and populating the cache on miss. Returns
// NotFound if the projection has no row for this aggregate.
func (h *Handlers) GetStock(ctx context.Context, productID, storeID uuid.UUID) (Stock, error) {
	key := StockCacheKey(productID, storeID)

	if cached, ok := h.cache.Get(key); ok {
		return cached.(Stock), nil
	}

	rec, err := h.proj.Get(ctx, productID, storeID)
	if err != nil {
		return Stock{}, err
	}

	stock := Stock{Available: rec.Available, Reserved: rec.Reserved, Total: rec.Total}
	h.cache.Set(key, stock, 0)
	return stock, nil
}

// CheckAvailability reports whether at least requiredQuantity units are
// available. It always reads the projection directly, bypassing the cache,
// since an availability check is a point-in-time decision a stale cached
// value could get wrong.
func (h *Handlers) CheckAvailability(ctx context.Context, productID, storeID uuid.UUID, requiredQuantity int) (Availability, error) {
	rec, err := h.proj.Get(ctx, productID, storeID)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return Availability{Available: false, CurrentStock: 0, RequiredStock: requiredQuantity}, nil
		}
		return Availability{}, err
	}

	return Availability{
		Available:     rec.Available >= requiredQuantity,
		CurrentStock:  rec.Available,
		RequiredStock: requiredQuantity,
	}, nil
}

// GetProductInventory returns stock levels across every store carrying
// productID, serving from cache on hit and populating the cache on miss.
func (h *Handlers) GetProductInventory(ctx context.Context, productID uuid.UUID) ([]projection.Record, error) {
	key := ProductCacheKey(productID)

	if cached, ok := h.cache.Get(key); ok {
		return cached.([]projection.Record), nil
	}

	records, err := h.proj.GetByProduct(ctx, productID)
	if err != nil {
		return nil, err
	}

	h.cache.Set(key, records, 0)
	return records, nil
}
