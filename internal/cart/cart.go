package cart

import (
	"time"

	"github.com/google/uuid"
)

// Item is a single product line held in a cart.
type Item struct {
	ProductID      uuid.UUID `json:"product_id"`
	ProductName    string    `json:"product_name"`
	UnitPriceCents int64     `json:"unit_price_cents"`
	Quantity       int       `json:"quantity"`
}

// State is the client-held cart contents. Items keep insertion order for
// display; totals are always recomputed from the items, never stored, so the
// two can't drift.
//
// Invariant: every item has quantity >= 1. A mutation that would drop a
// quantity to zero or below removes the item instead.
type State struct {
	StoreID   uuid.UUID `json:"store_id"`
	Items     []Item    `json:"items"`
	UpdatedAt time.Time `json:"updated_at"`
}

// NewState returns an empty cart for the given store.
func NewState(storeID uuid.UUID) *State {
	return &State{StoreID: storeID, Items: []Item{}}
}

// AddItem merges qty into an existing line for the product or appends a new
// line at the end. Non-positive quantities are ignored.
func (s *State) AddItem(productID uuid.UUID, name string, unitPriceCents int64, qty int) {
	if qty <= 0 {
		return
	}
	for i := range s.Items {
		if s.Items[i].ProductID == productID {
			s.Items[i].Quantity += qty
			return
		}
	}
	s.Items = append(s.Items, Item{
		ProductID:      productID,
		ProductName:    name,
		UnitPriceCents: unitPriceCents,
		Quantity:       qty,
	})
}

// UpdateQuantity sets the line quantity for the product. A quantity of zero
// or below removes the line. Returns false if the product is not in the cart.
func (s *State) UpdateQuantity(productID uuid.UUID, qty int) bool {
	for i := range s.Items {
		if s.Items[i].ProductID == productID {
			if qty <= 0 {
				s.Items = append(s.Items[:i], s.Items[i+1:]...)
				return true
			}
			s.Items[i].Quantity = qty
			return true
		}
	}
	return false
}

// RemoveItem drops the line for the product. Removing an absent product is a
// no-op.
func (s *State) RemoveItem(productID uuid.UUID) {
	for i := range s.Items {
		if s.Items[i].ProductID == productID {
			s.Items = append(s.Items[:i], s.Items[i+1:]...)
			return
		}
	}
}

// Clear empties the cart.
func (s *State) Clear() {
	s.Items = []Item{}
}

// TotalCents is the sum of price x quantity across all lines.
func (s *State) TotalCents() int64 {
	var total int64
	for _, item := range s.Items {
		total += item.UnitPriceCents * int64(item.Quantity)
	}
	return total
}

// ItemCount is the sum of quantities across all lines.
func (s *State) ItemCount() int {
	var count int
	for _, item := range s.Items {
		count += item.Quantity
	}
	return count
}

// IsEmpty reports whether the cart has no lines.
func (s *State) IsEmpty() bool {
	return len(s.Items) == 0
}
