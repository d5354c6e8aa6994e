package domain

import (
	"time"

	"github.com/google/uuid"
)

// EventType tags the five kinds of facts the inventory aggregate can emit.
// The event bus and event store both dispatch on this tag rather than on
// reflective type names.
type EventType string

const (
	EventStockAdded           EventType = "StockAdded"
	EventStockReserved        EventType = "StockReserved"
	EventReservationCommitted EventType = "ReservationCommitted"
	EventReservationReleased  EventType = "ReservationReleased"
	EventStockAdjusted        EventType = "StockAdjusted"
)

// Event is an immutable record of a fact that happened to one inventory
// aggregate, stamped with the aggregate's post-state version. Exactly one of
// the payload fields below is populated, selected by Type.
type Event struct {
	EventID     uuid.UUID `json:"event_id"`
	AggregateID string    `json:"aggregate_id"`
	Timestamp   time.Time `json:"timestamp"`
	Version     int       `json:"version"`
	Type        EventType `json:"event_type"`

	StockAdded           *StockAddedPayload           `json:"-"`
	StockReserved        *StockReservedPayload        `json:"-"`
	ReservationCommitted *ReservationCommittedPayload `json:"-"`
	ReservationReleased  *ReservationReleasedPayload  `json:"-"`
	StockAdjusted        *StockAdjustedPayload        `json:"-"`
}

// StockAddedPayload is the fact that stock was added to an inventory.
type StockAddedPayload struct {
	ProductID uuid.UUID `json:"product_id"`
	StoreID   uuid.UUID `json:"store_id"`
	Quantity  int       `json:"quantity"`
	Reason    string    `json:"reason"`
}

// StockReservedPayload is the fact that a reservation was opened.
//
// ExpiresAt is carried here (unlike the Python source this system is derived
// from) so that replaying the event log can fully reconstruct the open
// reservations map, including expiry — see SPEC_FULL.md §9.
type StockReservedPayload struct {
	ProductID     uuid.UUID  `json:"product_id"`
	StoreID       uuid.UUID  `json:"store_id"`
	ReservationID uuid.UUID  `json:"reservation_id"`
	CustomerID    uuid.UUID  `json:"customer_id"`
	Quantity      int        `json:"quantity"`
	ExpiresAt     *time.Time `json:"expires_at,omitempty"`
}

// ReservationCommittedPayload is the fact that an open reservation turned
// into a completed order.
type ReservationCommittedPayload struct {
	ProductID     uuid.UUID `json:"product_id"`
	StoreID       uuid.UUID `json:"store_id"`
	ReservationID uuid.UUID `json:"reservation_id"`
	OrderID       uuid.UUID `json:"order_id"`
	Quantity      int       `json:"quantity"`
}

// ReservationReleasedPayload is the fact that an open reservation was
// cancelled and its quantity returned to available stock.
type ReservationReleasedPayload struct {
	ProductID     uuid.UUID `json:"product_id"`
	StoreID       uuid.UUID `json:"store_id"`
	ReservationID uuid.UUID `json:"reservation_id"`
	Reason        string    `json:"reason"`
	Quantity      int       `json:"quantity"`
}

// StockAdjustedPayload is the fact that available stock was corrected to an
// exact new value, independent of reservations.
type StockAdjustedPayload struct {
	ProductID   uuid.UUID `json:"product_id"`
	StoreID     uuid.UUID `json:"store_id"`
	OldQuantity int       `json:"old_quantity"`
	NewQuantity int       `json:"new_quantity"`
	Reason      string    `json:"reason"`
}
