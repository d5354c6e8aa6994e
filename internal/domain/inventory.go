package domain

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	apperrors "github.com/utafrali/inventory-es/pkg/errors"
)

// AggregateID returns the textual join the event log uses to key an
// inventory aggregate. UUIDs never contain ':', so the delimiter is
// unambiguous.
func AggregateID(productID, storeID uuid.UUID) string {
	return fmt.Sprintf("%s:%s", productID, storeID)
}

// Inventory is the aggregate root for one (product, store) pair. It holds no
// I/O dependencies: every method is synchronous, in-memory, and either
// mutates state plus appends to Pending, or returns a domain error and
// leaves state untouched.
type Inventory struct {
	ProductID uuid.UUID
	StoreID   uuid.UUID

	Available    Quantity
	Reserved     Quantity
	Version      int
	Reservations map[uuid.UUID]Reservation
	Pending      []Event

	// now is injected so tests can control event timestamps; defaults to
	// time.Now via NewInventory.
	now func() time.Time
}

// NewInventory returns a freshly created, empty aggregate for the given
// identity. Aggregates are created lazily: this is what every command
// handler starts from when the event log is empty.
func NewInventory(productID, storeID uuid.UUID) *Inventory {
	return &Inventory{
		ProductID:    productID,
		StoreID:      storeID,
		Reservations: make(map[uuid.UUID]Reservation),
		now:          time.Now,
	}
}

// WithClock overrides the aggregate's time source. Used by tests that need
// deterministic event timestamps.
func (inv *Inventory) WithClock(now func() time.Time) *Inventory {
	inv.now = now
	return inv
}

func (inv *Inventory) aggregateID() string {
	return AggregateID(inv.ProductID, inv.StoreID)
}

func (inv *Inventory) clock() time.Time {
	if inv.now != nil {
		return inv.now()
	}
	return time.Now()
}

// AddStock adds q units of stock to the aggregate. q must be positive.
func (inv *Inventory) AddStock(q int, reason string) error {
	if q <= 0 {
		return apperrors.InvalidQuantity(fmt.Sprintf("add_stock quantity must be positive, got %d", q))
	}

	delta, err := NewQuantity(q)
	if err != nil {
		return err
	}

	inv.Available = inv.Available.Add(delta)
	inv.Version++

	inv.Pending = append(inv.Pending, Event{
		EventID:     uuid.New(),
		AggregateID: inv.aggregateID(),
		Timestamp:   inv.clock().UTC(),
		Version:     inv.Version,
		Type:        EventStockAdded,
		StockAdded: &StockAddedPayload{
			ProductID: inv.ProductID,
			StoreID:   inv.StoreID,
			Quantity:  q,
			Reason:    reason,
		},
	})

	return nil
}

// Reserve holds q units of available stock for customerID, returning the
// newly minted reservation id. q must be positive and no greater than the
// current available quantity, else InsufficientStock.
func (inv *Inventory) Reserve(q int, customerID uuid.UUID, expiresAt *time.Time) (uuid.UUID, error) {
	if q <= 0 {
		return uuid.Nil, apperrors.InvalidQuantity(fmt.Sprintf("reserve quantity must be positive, got %d", q))
	}

	delta, err := NewQuantity(q)
	if err != nil {
		return uuid.Nil, err
	}

	if inv.Available.Int() < q {
		return uuid.Nil, apperrors.InsufficientStock(
			fmt.Sprintf("insufficient stock: available=%d, requested=%d", inv.Available.Int(), q),
		)
	}

	reservationID := uuid.New()
	now := inv.clock().UTC()

	inv.Reservations[reservationID] = Reservation{
		ID:         reservationID,
		Quantity:   q,
		CustomerID: customerID,
		CreatedAt:  now,
		ExpiresAt:  expiresAt,
	}

	inv.Available, err = inv.Available.Subtract(delta)
	if err != nil {
		// Unreachable: the availability check above guarantees q <= Available.
		return uuid.Nil, err
	}
	inv.Reserved = inv.Reserved.Add(delta)
	inv.Version++

	inv.Pending = append(inv.Pending, Event{
		EventID:     uuid.New(),
		AggregateID: inv.aggregateID(),
		Timestamp:   now,
		Version:     inv.Version,
		Type:        EventStockReserved,
		StockReserved: &StockReservedPayload{
			ProductID:     inv.ProductID,
			StoreID:       inv.StoreID,
			ReservationID: reservationID,
			CustomerID:    customerID,
			Quantity:      q,
			ExpiresAt:     expiresAt,
		},
	})

	return reservationID, nil
}

// Commit completes an open reservation as a finished order, releasing its
// quantity out of Reserved permanently. Succeeds regardless of reservation
// expiration: the aggregate does not reject an expired commit.
func (inv *Inventory) Commit(reservationID, orderID uuid.UUID) error {
	r, ok := inv.Reservations[reservationID]
	if !ok {
		return apperrors.ReservationNotFound(reservationID.String())
	}

	delta, err := NewQuantity(r.Quantity)
	if err != nil {
		return err
	}

	delete(inv.Reservations, reservationID)

	inv.Reserved, err = inv.Reserved.Subtract(delta)
	if err != nil {
		return err
	}
	inv.Version++

	inv.Pending = append(inv.Pending, Event{
		EventID:     uuid.New(),
		AggregateID: inv.aggregateID(),
		Timestamp:   inv.clock().UTC(),
		Version:     inv.Version,
		Type:        EventReservationCommitted,
		ReservationCommitted: &ReservationCommittedPayload{
			ProductID:     inv.ProductID,
			StoreID:       inv.StoreID,
			ReservationID: reservationID,
			OrderID:       orderID,
			Quantity:      r.Quantity,
		},
	})

	return nil
}

// Release cancels an open reservation, returning its quantity to Available.
func (inv *Inventory) Release(reservationID uuid.UUID, reason string) error {
	r, ok := inv.Reservations[reservationID]
	if !ok {
		return apperrors.ReservationNotFound(reservationID.String())
	}

	delta, err := NewQuantity(r.Quantity)
	if err != nil {
		return err
	}

	delete(inv.Reservations, reservationID)

	inv.Reserved, err = inv.Reserved.Subtract(delta)
	if err != nil {
		return err
	}
	inv.Available = inv.Available.Add(delta)
	inv.Version++

	inv.Pending = append(inv.Pending, Event{
		EventID:     uuid.New(),
		AggregateID: inv.aggregateID(),
		Timestamp:   inv.clock().UTC(),
		Version:     inv.Version,
		Type:        EventReservationReleased,
		ReservationReleased: &ReservationReleasedPayload{
			ProductID:     inv.ProductID,
			StoreID:       inv.StoreID,
			ReservationID: reservationID,
			Reason:        reason,
			Quantity:      r.Quantity,
		},
	})

	return nil
}

// Adjust corrects Available to an exact new value, independent of
// reservations. newQ must be non-negative.
func (inv *Inventory) Adjust(newQ int, reason string) error {
	newStock, err := NewQuantity(newQ)
	if err != nil {
		return err
	}

	oldQ := inv.Available.Int()
	inv.Available = newStock
	inv.Version++

	inv.Pending = append(inv.Pending, Event{
		EventID:     uuid.New(),
		AggregateID: inv.aggregateID(),
		Timestamp:   inv.clock().UTC(),
		Version:     inv.Version,
		Type:        EventStockAdjusted,
		StockAdjusted: &StockAdjustedPayload{
			ProductID:   inv.ProductID,
			StoreID:     inv.StoreID,
			OldQuantity: oldQ,
			NewQuantity: newQ,
			Reason:      reason,
		},
	})

	return nil
}

// Total returns Available + Reserved.
func (inv *Inventory) Total() int {
	return inv.Available.Int() + inv.Reserved.Int()
}

// ClearPending returns the emitted-but-not-yet-persisted events and empties
// the queue. Idempotent: calling it again before new events are emitted
// returns an empty slice.
func (inv *Inventory) ClearPending() []Event {
	events := inv.Pending
	inv.Pending = nil
	return events
}
