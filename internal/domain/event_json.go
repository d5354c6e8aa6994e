package domain

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// flatEvent is the bit-exact on-disk/wire shape of a persisted event: common
// envelope fields plus every variant field inlined at the top level, exactly
// as SPEC_FULL.md §6 requires. Only the fields relevant to Type are
// populated on encode; all are optional on decode so unknown-future fields
// don't break older readers.
type flatEvent struct {
	EventType   EventType `json:"event_type"`
	EventID     uuid.UUID `json:"event_id"`
	AggregateID string    `json:"aggregate_id"`
	Timestamp   time.Time `json:"timestamp"`
	Version     int       `json:"version"`

	ProductID     *uuid.UUID `json:"product_id,omitempty"`
	StoreID       *uuid.UUID `json:"store_id,omitempty"`
	ReservationID *uuid.UUID `json:"reservation_id,omitempty"`
	CustomerID    *uuid.UUID `json:"customer_id,omitempty"`
	OrderID       *uuid.UUID `json:"order_id,omitempty"`
	Quantity      *int       `json:"quantity,omitempty"`
	OldQuantity   *int       `json:"old_quantity,omitempty"`
	NewQuantity   *int       `json:"new_quantity,omitempty"`
	Reason        *string    `json:"reason,omitempty"`
	ExpiresAt     *time.Time `json:"expires_at,omitempty"`
}

// MarshalJSON encodes Event to the persisted event record shape.
func (e Event) MarshalJSON() ([]byte, error) {
	flat := flatEvent{
		EventType:   e.Type,
		EventID:     e.EventID,
		AggregateID: e.AggregateID,
		Timestamp:   e.Timestamp,
		Version:     e.Version,
	}

	switch e.Type {
	case EventStockAdded:
		p := e.StockAdded
		flat.ProductID, flat.StoreID = &p.ProductID, &p.StoreID
		flat.Quantity = &p.Quantity
		flat.Reason = &p.Reason
	case EventStockReserved:
		p := e.StockReserved
		flat.ProductID, flat.StoreID = &p.ProductID, &p.StoreID
		flat.ReservationID, flat.CustomerID = &p.ReservationID, &p.CustomerID
		flat.Quantity = &p.Quantity
		flat.ExpiresAt = p.ExpiresAt
	case EventReservationCommitted:
		p := e.ReservationCommitted
		flat.ProductID, flat.StoreID = &p.ProductID, &p.StoreID
		flat.ReservationID, flat.OrderID = &p.ReservationID, &p.OrderID
		flat.Quantity = &p.Quantity
	case EventReservationReleased:
		p := e.ReservationReleased
		flat.ProductID, flat.StoreID = &p.ProductID, &p.StoreID
		flat.ReservationID = &p.ReservationID
		flat.Reason = &p.Reason
		flat.Quantity = &p.Quantity
	case EventStockAdjusted:
		p := e.StockAdjusted
		flat.ProductID, flat.StoreID = &p.ProductID, &p.StoreID
		flat.OldQuantity, flat.NewQuantity = &p.OldQuantity, &p.NewQuantity
		flat.Reason = &p.Reason
	default:
		return nil, fmt.Errorf("domain: marshal event: unknown event type %q", e.Type)
	}

	return json.Marshal(flat)
}

// UnmarshalJSON decodes a persisted event record back into its typed
// variant payload.
func (e *Event) UnmarshalJSON(data []byte) error {
	var flat flatEvent
	if err := json.Unmarshal(data, &flat); err != nil {
		return err
	}

	e.EventID = flat.EventID
	e.AggregateID = flat.AggregateID
	e.Timestamp = flat.Timestamp
	e.Version = flat.Version
	e.Type = flat.EventType

	deref := func(p *uuid.UUID) uuid.UUID {
		if p == nil {
			return uuid.UUID{}
		}
		return *p
	}
	derefInt := func(p *int) int {
		if p == nil {
			return 0
		}
		return *p
	}
	derefStr := func(p *string) string {
		if p == nil {
			return ""
		}
		return *p
	}

	switch flat.EventType {
	case EventStockAdded:
		e.StockAdded = &StockAddedPayload{
			ProductID: deref(flat.ProductID),
			StoreID:   deref(flat.StoreID),
			Quantity:  derefInt(flat.Quantity),
			Reason:    derefStr(flat.Reason),
		}
	case EventStockReserved:
		e.StockReserved = &StockReservedPayload{
			ProductID:     deref(flat.ProductID),
			StoreID:       deref(flat.StoreID),
			ReservationID: deref(flat.ReservationID),
			CustomerID:    deref(flat.CustomerID),
			Quantity:      derefInt(flat.Quantity),
			ExpiresAt:     flat.ExpiresAt,
		}
	case EventReservationCommitted:
		e.ReservationCommitted = &ReservationCommittedPayload{
			ProductID:     deref(flat.ProductID),
			StoreID:       deref(flat.StoreID),
			ReservationID: deref(flat.ReservationID),
			OrderID:       deref(flat.OrderID),
			Quantity:      derefInt(flat.Quantity),
		}
	case EventReservationReleased:
		e.ReservationReleased = &ReservationReleasedPayload{
			ProductID:     deref(flat.ProductID),
			StoreID:       deref(flat.StoreID),
			ReservationID: deref(flat.ReservationID),
			Reason:        derefStr(flat.Reason),
			Quantity:      derefInt(flat.Quantity),
		}
	case EventStockAdjusted:
		e.StockAdjusted = &StockAdjustedPayload{
			ProductID:   deref(flat.ProductID),
			StoreID:     deref(flat.StoreID),
			OldQuantity: derefInt(flat.OldQuantity),
			NewQuantity: derefInt(flat.NewQuantity),
			Reason:      derefStr(flat.Reason),
		}
	default:
		return fmt.Errorf("domain: unmarshal event: unknown event type %q", flat.EventType)
	}

	return nil
}
