package command

import (
	"context"
	"log/slog"

	"github.com/google/uuid"

	"github.com/utafrali/inventory-es/internal/eventbus"
	"github.com/utafrali/inventory-es/internal/eventstore"
	"github.com/utafrali/inventory-es/internal/projection"
	"github.com/utafrali/inventory-es/internal/resilience"
)

// AddStockHandler handles the add-stock command.
type AddStockHandler struct {
	deps deps
}

// NewAddStockHandler returns a handler wired to its collaborators.
func NewAddStockHandler(store *eventstore.Store, proj *projection.Repository, breaker *resilience.Breaker, bus *eventbus.Bus, log *slog.Logger) *AddStockHandler {
	return &AddStockHandler{deps: newDeps(store, proj, breaker, bus, log)}
}

// Handle adds q units of stock to the (productID, storeID) aggregate.
func (h *AddStockHandler) Handle(ctx context.Context, productID, storeID uuid.UUID, quantity int, reason string) error {
	inv, err := loadAndReplay(ctx, h.deps.eventStore, productID, storeID)
	if err != nil {
		return err
	}

	if err := inv.AddStock(quantity, reason); err != nil {
		return err
	}

	return finish(ctx, h.deps, inv)
}
