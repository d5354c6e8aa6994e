// Package command implements the write pipeline: one flat handler per
// command type, sharing behavior through the free domain.ReplayInventory
// function and a common dependency bundle rather than through inheritance.
package command

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/utafrali/inventory-es/internal/domain"
	"github.com/utafrali/inventory-es/internal/eventbus"
	"github.com/utafrali/inventory-es/internal/eventstore"
	"github.com/utafrali/inventory-es/internal/projection"
	"github.com/utafrali/inventory-es/internal/resilience"
)

// Handlers bundles one handler per command, constructed from a single set
// of shared collaborators. It exists purely for convenient wiring in
// internal/app; each bundled handler remains independently usable.
type Handlers struct {
	AddStock *AddStockHandler
	Reserve  *ReserveHandler
	Commit   *CommitHandler
	Release  *ReleaseHandler
	Adjust   *AdjustHandler
}

// NewHandlers constructs every command handler against the same
// collaborators.
func NewHandlers(store *eventstore.Store, proj *projection.Repository, breaker *resilience.Breaker, bus *eventbus.Bus, log *slog.Logger) *Handlers {
	return &Handlers{
		AddStock: NewAddStockHandler(store, proj, breaker, bus, log),
		Reserve:  NewReserveHandler(store, proj, breaker, bus, log),
		Commit:   NewCommitHandler(store, proj, breaker, bus, log),
		Release:  NewReleaseHandler(store, proj, breaker, bus, log),
		Adjust:   NewAdjustHandler(store, proj, breaker, bus, log),
	}
}

// deps bundles the collaborators every command handler needs. Handlers hold
// a deps value directly; none of them embeds another handler.
type deps struct {
	eventStore *eventstore.Store
	projection *projection.Repository
	breaker    *resilience.Breaker
	eventBus   *eventbus.Bus
	logger     *slog.Logger
}

// newDeps assembles a deps bundle, defaulting a nil logger to slog.Default()
// so handlers never need a nil check before logging.
func newDeps(store *eventstore.Store, proj *projection.Repository, breaker *resilience.Breaker, bus *eventbus.Bus, log *slog.Logger) deps {
	if log == nil {
		log = slog.Default()
	}
	return deps{eventStore: store, projection: proj, breaker: breaker, eventBus: bus, logger: log}
}

// postAppendTimeout bounds the detached context used for projection update
// and event publication when the inbound request context is already
// cancelled by the time the event store append succeeds.
const postAppendTimeout = 5 * time.Second

// publishContext returns ctx unless it is already done, in which case it
// returns a fresh bounded context so a client disconnect after a successful
// append cannot silently skip projection update or event publication — the
// write already happened and must not appear to the rest of the system as
// if it hadn't.
func publishContext(ctx context.Context) context.Context {
	if ctx.Err() == nil {
		return ctx
	}
	detached, _ := context.WithTimeout(context.Background(), postAppendTimeout) //nolint:lostcancel // short-lived, bounded by timeout
	return detached
}

// loadAndReplay loads the full event log for (productID, storeID) and
// rebuilds the aggregate from it. An aggregate with no prior events starts
// fresh at version 0, per the lazy-creation lifecycle.
func loadAndReplay(ctx context.Context, store *eventstore.Store, productID, storeID uuid.UUID) (*domain.Inventory, error) {
	aggregateID := domain.AggregateID(productID, storeID)
	events, err := store.Load(ctx, aggregateID, nil)
	if err != nil {
		return nil, err
	}
	return domain.ReplayInventory(productID, storeID, events), nil
}

// finish drains the aggregate's pending events, appends them under
// optimistic concurrency control, updates the projection through the
// circuit breaker, and fans the events out over the event bus. It is the
// shared tail of every command handler (steps 5-8 of the write pipeline).
func finish(ctx context.Context, d deps, inv *domain.Inventory) error {
	newEvents := inv.ClearPending()
	if len(newEvents) == 0 {
		return nil
	}

	aggregateID := domain.AggregateID(inv.ProductID, inv.StoreID)
	expectedVersion := inv.Version - len(newEvents)

	if err := d.eventStore.Append(ctx, aggregateID, newEvents, expectedVersion); err != nil {
		return err
	}

	pubCtx := publishContext(ctx)

	_, err := d.breaker.Execute(pubCtx, func() (any, error) {
		return nil, d.projection.Update(pubCtx, inv.ProductID, inv.StoreID, inv.Available.Int(), inv.Reserved.Int())
	})
	if err != nil {
		d.logger.ErrorContext(pubCtx, "projection update failed after durable append; read model may be stale",
			slog.String("aggregate_id", aggregateID),
			slog.Any("error", err),
		)
	}

	for _, e := range newEvents {
		d.eventBus.Publish(pubCtx, e)
	}

	return nil
}
