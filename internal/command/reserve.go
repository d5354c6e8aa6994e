package command

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/utafrali/inventory-es/internal/eventbus"
	"github.com/utafrali/inventory-es/internal/eventstore"
	"github.com/utafrali/inventory-es/internal/projection"
	"github.com/utafrali/inventory-es/internal/resilience"
)

// ReserveHandler handles the reserve-stock command. It is the only handler
// that needs a clock, since a reservation's expiry is computed relative to
// "now".
type ReserveHandler struct {
	deps deps
	now  func() time.Time
}

// NewReserveHandler returns a handler wired to its collaborators.
func NewReserveHandler(store *eventstore.Store, proj *projection.Repository, breaker *resilience.Breaker, bus *eventbus.Bus, log *slog.Logger) *ReserveHandler {
	return &ReserveHandler{
		deps: newDeps(store, proj, breaker, bus, log),
		now:  time.Now,
	}
}

// Handle reserves quantity units for customerID, expiring after ttl (zero
// means the reservation never expires). It returns the new reservation id.
func (h *ReserveHandler) Handle(ctx context.Context, productID, storeID, customerID uuid.UUID, quantity int, ttl time.Duration) (uuid.UUID, error) {
	inv, err := loadAndReplay(ctx, h.deps.eventStore, productID, storeID)
	if err != nil {
		return uuid.Nil, err
	}

	var expiresAt *time.Time
	if ttl > 0 {
		t := h.now().UTC().Add(ttl)
		expiresAt = &t
	}

	reservationID, err := inv.Reserve(quantity, customerID, expiresAt)
	if err != nil {
		return uuid.Nil, err
	}

	if err := finish(ctx, h.deps, inv); err != nil {
		return uuid.Nil, err
	}

	return reservationID, nil
}
