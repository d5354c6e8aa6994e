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

// AdjustHandler handles the adjust-stock command, used for cycle counts and
// other corrections that set Available to an exact value.
type AdjustHandler struct {
	deps deps
}

// NewAdjustHandler returns a handler wired to its collaborators.
func NewAdjustHandler(store *eventstore.Store, proj *projection.Repository, breaker *resilience.Breaker, bus *eventbus.Bus, log *slog.Logger) *AdjustHandler {
	return &AdjustHandler{deps: newDeps(store, proj, breaker, bus, log)}
}

// Handle sets Available to newQuantity, independent of Reserved.
func (h *AdjustHandler) Handle(ctx context.Context, productID, storeID uuid.UUID, newQuantity int, reason string) error {
	inv, err := loadAndReplay(ctx, h.deps.eventStore, productID, storeID)
	if err != nil {
		return err
	}

	if err := inv.Adjust(newQuantity, reason); err != nil {
		return err
	}

	return finish(ctx, h.deps, inv)
}
