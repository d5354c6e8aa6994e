package domain

import "github.com/google/uuid"

// ReplayInventory reconstructs an Inventory aggregate by folding an ordered
// event log over an empty aggregate. It is a free function rather than a
// method every command handler inherits — the source this system is
// derived from instead has concrete command handlers subclass an
// "add stock" handler purely to reuse this logic; here each handler is flat
// and simply calls ReplayInventory (see SPEC_FULL.md §9).
//
// Because StockReserved now carries ExpiresAt, replay fully reconstructs the
// open reservations map, including expiry, which the original design could
// not do.
func ReplayInventory(productID, storeID uuid.UUID, events []Event) *Inventory {
	inv := NewInventory(productID, storeID)

	for _, event := range events {
		switch event.Type {
		case EventStockAdded:
			p := event.StockAdded
			inv.Available = inv.Available.Add(Quantity(p.Quantity))

		case EventStockReserved:
			p := event.StockReserved
			inv.Available = Quantity(max(0, inv.Available.Int()-p.Quantity))
			inv.Reserved = inv.Reserved.Add(Quantity(p.Quantity))
			inv.Reservations[p.ReservationID] = Reservation{
				ID:         p.ReservationID,
				Quantity:   p.Quantity,
				CustomerID: p.CustomerID,
				CreatedAt:  event.Timestamp,
				ExpiresAt:  p.ExpiresAt,
			}

		case EventReservationCommitted:
			p := event.ReservationCommitted
			inv.Reserved = Quantity(max(0, inv.Reserved.Int()-p.Quantity))
			delete(inv.Reservations, p.ReservationID)

		case EventReservationReleased:
			p := event.ReservationReleased
			inv.Reserved = Quantity(max(0, inv.Reserved.Int()-p.Quantity))
			inv.Available = inv.Available.Add(Quantity(p.Quantity))
			delete(inv.Reservations, p.ReservationID)

		case EventStockAdjusted:
			p := event.StockAdjusted
			inv.Available = Quantity(p.NewQuantity)
		}

		inv.Version = event.Version
	}

	return inv
}
