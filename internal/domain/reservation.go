package domain

import (
	"time"

	"github.com/google/uuid"
)

// Reservation is a temporary hold moving quantity from Available to Reserved
// until it is committed or released.
type Reservation struct {
	ID         uuid.UUID
	Quantity   int
	CustomerID uuid.UUID
	CreatedAt  time.Time
	ExpiresAt  *time.Time
}

// IsExpired reports whether the reservation has passed its expiry. A
// reservation with no ExpiresAt never expires. Expiration is observable but
// inert: the aggregate does not reject operations on an expired reservation.
func (r Reservation) IsExpired(now time.Time) bool {
	if r.ExpiresAt == nil {
		return false
	}
	return now.After(*r.ExpiresAt)
}
