package billing

import (
	"time"

	"tableserve/internal/domain"
)

// MergeItems applies a list of quantity deltas to a merged line-item list and
// returns the updated list. Deltas for a dish already present adjust its
// quantity; positive deltas for an absent dish add a line; lines whose
// quantity drops to zero or below are removed. The input slices are not
// mutated.
func MergeItems(existing []domain.BillItem, deltas []domain.BillItem) []domain.BillItem {
	merged := make([]domain.BillItem, len(existing))
	copy(merged, existing)

	for _, delta := range deltas {
		idx := -1
		for i, item := range merged {
			if item.DishID == delta.DishID {
				idx = i
				break
			}
		}

		if idx >= 0 {
			merged[idx].Quantity += delta.Quantity
			if merged[idx].Quantity <= 0 {
				merged = append(merged[:idx], merged[idx+1:]...)
			}
		} else if delta.Quantity > 0 {
			merged = append(merged, domain.BillItem{DishID: delta.DishID, Quantity: delta.Quantity})
		}
	}

	return merged
}

// ItemDeltas diffs an order's previous dish snapshot against its edited
// items and returns per-dish quantity deltas (newQty - oldQty). Dishes absent
// from one side count as quantity zero there.
func ItemDeltas(oldItems, newItems []domain.OrderItem) []domain.BillItem {
	oldQty := make(map[int]int, len(oldItems))
	for _, item := range oldItems {
		oldQty[item.DishID] += item.Quantity
	}

	var deltas []domain.BillItem
	seen := make(map[int]bool, len(newItems))
	for _, item := range newItems {
		seen[item.DishID] = true
		if d := item.Quantity - oldQty[item.DishID]; d != 0 {
			deltas = append(deltas, domain.BillItem{DishID: item.DishID, Quantity: d})
		}
	}
	for _, item := range oldItems {
		if !seen[item.DishID] && item.Quantity != 0 {
			deltas = append(deltas, domain.BillItem{DishID: item.DishID, Quantity: -item.Quantity})
		}
	}

	return deltas
}

// NegateItems turns an order's items into removal deltas, used when the
// order is deleted.
func NegateItems(items []domain.OrderItem) []domain.BillItem {
	deltas := make([]domain.BillItem, 0, len(items))
	for _, item := range items {
		deltas = append(deltas, domain.BillItem{DishID: item.DishID, Quantity: -item.Quantity})
	}
	return deltas
}

// AggregateOrders merges the dish items of every non-draft order into a
// single quantity-summed list. Draft orders are ignored entirely; cancelled
// orders contribute nothing. Billing is only permitted once every included
// order has settled, so any surviving pending or preparing order is a
// caller error.
func AggregateOrders(orders []domain.Order) ([]domain.BillItem, error) {
	nonDraft := 0
	var merged []domain.BillItem

	for _, order := range orders {
		if order.Status == domain.OrderDraft {
			continue
		}
		nonDraft++

		switch order.Status {
		case domain.OrderPending, domain.OrderPreparing:
			return nil, domain.NewClientError("please complete the pending or preparing stage orders")
		case domain.OrderCancelled:
			continue
		}

		for _, item := range order.Items {
			merged = MergeItems(merged, []domain.BillItem{{DishID: item.DishID, Quantity: item.Quantity}})
		}
	}

	if nonDraft == 0 {
		if len(orders) == 0 {
			return nil, domain.NewClientError("no orders are available to generate bill for the table")
		}
		return nil, domain.NewClientError("all orders are in draft")
	}

	return merged, nil
}

// LineTotals prices a merged item list against the given dishes and returns
// the monetary total and the per-line offer discount sum. Deltas with
// negative quantities subtract from both, which keeps running bill totals
// reversible under incremental edits.
func LineTotals(items []domain.BillItem, dishes map[int]domain.Dish, now time.Time) (totalAmount, totalDiscount float64) {
	for _, item := range items {
		dish, ok := dishes[item.DishID]
		if !ok {
			continue
		}

		qty := item.Quantity
		sign := 1.0
		if qty < 0 {
			qty = -qty
			sign = -1
		}

		totalAmount += sign * dish.Price * float64(qty)
		totalDiscount += sign * LineDiscount(dish.Price, qty, dish.AppliedOffer, now)
	}
	return totalAmount, totalDiscount
}
