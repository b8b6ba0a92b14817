package cart

import (
	"testing"

	"github.com/google/uuid"
)

func TestAddItemMergesQuantities(t *testing.T) {
	state := NewState(uuid.New())
	productID := uuid.New()

	state.AddItem(productID, "Canvas Tote", 2000, 2)
	state.AddItem(productID, "Canvas Tote", 2000, 3)

	if len(state.Items) != 1 {
		t.Fatalf("expected a single merged line, got %d", len(state.Items))
	}
	if state.Items[0].Quantity != 5 {
		t.Fatalf("expected quantity 5, got %d", state.Items[0].Quantity)
	}
	if state.TotalCents() != 10000 {
		t.Fatalf("expected total 10000, got %d", state.TotalCents())
	}
	if state.ItemCount() != 5 {
		t.Fatalf("expected item count 5, got %d", state.ItemCount())
	}
}

func TestAddItemKeepsInsertionOrder(t *testing.T) {
	state := NewState(uuid.New())
	first := uuid.New()
	second := uuid.New()

	state.AddItem(first, "Mug", 900, 1)
	state.AddItem(second, "Poster", 1500, 1)
	state.AddItem(first, "Mug", 900, 1)

	if state.Items[0].ProductID != first || state.Items[1].ProductID != second {
		t.Fatal("merge must not reorder lines")
	}
}

func TestAddItemIgnoresNonPositiveQuantity(t *testing.T) {
	state := NewState(uuid.New())
	state.AddItem(uuid.New(), "Mug", 900, 0)
	state.AddItem(uuid.New(), "Mug", 900, -2)
	if !state.IsEmpty() {
		t.Fatal("non-positive adds must be ignored")
	}
}

func TestUpdateQuantityRemovesAtZero(t *testing.T) {
	state := NewState(uuid.New())
	productID := uuid.New()
	state.AddItem(productID, "Mug", 900, 2)

	if !state.UpdateQuantity(productID, 0) {
		t.Fatal("update of present product must report true")
	}
	if !state.IsEmpty() {
		t.Fatal("quantity zero must remove the line")
	}

	if state.UpdateQuantity(productID, 3) {
		t.Fatal("update of absent product must report false")
	}
}

func TestRemoveItemIsIdempotent(t *testing.T) {
	state := NewState(uuid.New())
	productID := uuid.New()
	state.AddItem(productID, "Mug", 900, 1)

	state.RemoveItem(productID)
	state.RemoveItem(productID)

	if !state.IsEmpty() {
		t.Fatal("expected empty cart")
	}
}

func TestTotalsHoldAfterMutationSequence(t *testing.T) {
	state := NewState(uuid.New())
	a := uuid.New()
	b := uuid.New()

	state.AddItem(a, "Mug", 900, 2)
	state.AddItem(b, "Poster", 1500, 1)
	state.UpdateQuantity(a, 4)
	state.RemoveItem(b)
	state.AddItem(b, "Poster", 1500, 2)

	var want int64
	for _, item := range state.Items {
		want += item.UnitPriceCents * int64(item.Quantity)
	}
	if state.TotalCents() != want {
		t.Fatalf("total %d does not match recomputed %d", state.TotalCents(), want)
	}
	if want != 4*900+2*1500 {
		t.Fatalf("unexpected recomputed total %d", want)
	}
}

func TestClearEmptiesCart(t *testing.T) {
	state := NewState(uuid.New())
	state.AddItem(uuid.New(), "Mug", 900, 2)
	state.Clear()
	if !state.IsEmpty() || state.TotalCents() != 0 || state.ItemCount() != 0 {
		t.Fatal("clear must reset lines and totals")
	}
}
