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

// CommitHandler handles the commit-reservation command.
type CommitHandler struct {
	deps deps
}

// NewCommitHandler returns a handler wired to its collaborators.
func NewCommitHandler(store *eventstore.Store, proj *projection.Repository, breaker *resilience.Breaker, bus *eventbus.Bus, log *slog.Logger) *CommitHandler {
	return &CommitHandler{deps: newDeps(store, proj, breaker, bus, log)}
}

// Handle completes reservationID as orderID, permanently releasing its
// quantity out of Reserved.
func (h *CommitHandler) Handle(ctx context.Context, productID, storeID, reservationID, orderID uuid.UUID) error {
	inv, err := loadAndReplay(ctx, h.deps.eventStore, productID, storeID)
	if err != nil {
		return err
	}

	if err := inv.Commit(reservationID, orderID); err != nil {
		return err
	}

	return finish(ctx, h.deps, inv)
}
