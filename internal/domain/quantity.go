package domain

import apperrors "github.com/utafrali/inventory-es/pkg/errors"

// Quantity is a non-negative integer stock amount. The zero value is a valid
// empty quantity.
type Quantity int

// NewQuantity validates value and returns it as a Quantity.
func NewQuantity(value int) (Quantity, error) {
	if value < 0 {
		return 0, apperrors.InvalidQuantity("stock quantity cannot be negative")
	}
	return Quantity(value), nil
}

// Add returns q+other. Cannot overflow into an invalid state since both
// operands are already non-negative.
func (q Quantity) Add(other Quantity) Quantity {
	return q + other
}

// Subtract returns q-other, failing with InvalidQuantity if the result would
// be negative.
func (q Quantity) Subtract(other Quantity) (Quantity, error) {
	result := q - other
	if result < 0 {
		return 0, apperrors.InvalidQuantity("subtraction would result in negative quantity")
	}
	return result, nil
}

// Int returns the underlying integer value.
func (q Quantity) Int() int {
	return int(q)
}
