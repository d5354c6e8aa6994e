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

// ReleaseHandler handles the release-reservation command.
type ReleaseHandler struct {
	deps deps
}

// NewReleaseHandler returns a handler wired to its collaborators.
func NewReleaseHandler(store *eventstore.Store, proj *projection.Repository, breaker *resilience.Breaker, bus *eventbus.Bus, log *slog.Logger) *ReleaseHandler {
	return &ReleaseHandler{deps: newDeps(store, proj, breaker, bus, log)}
}

// Handle cancels reservationID, restoring its quantity to Available.
func (h *ReleaseHandler) Handle(ctx context.Context, productID, storeID, reservationID uuid.UUID, reason string) error {
	inv, err := loadAndReplay(ctx, h.deps.eventStore, productID, storeID)
	if err != nil {
		return err
	}

	if err := inv.Release(reservationID, reason); err != nil {
		return err
	}

	return finish(ctx, h.deps, inv)
}
