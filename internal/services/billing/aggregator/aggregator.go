// Package aggregator holds the pure line-item set arithmetic behind the order
// lifecycle: merging a kitchen order back into a draft and computing the
// delta a biller sends to the kitchen after editing a draft.
package aggregator

import (
	"github.com/shopspring/decimal"

	"tandoor-system/internal/database/models"
)

type itemKey struct {
	foodItemID string
	price      string
}

func keyOf(it models.BillItem) itemKey {
	return itemKey{foodItemID: it.FoodItemID, price: it.Price.String()}
}

// Merge combines base and incoming into one set, summing the quantities of
// items sharing a (food item, price) key. Output order is insertion order:
// base items first, then incoming items with genuinely new keys. The result
// never contains two entries with the same key.
func Merge(base, incoming []models.BillItem) []models.BillItem {
	merged := make([]models.BillItem, 0, len(base)+len(incoming))
	index := make(map[itemKey]int, len(base))

	push := func(it models.BillItem) {
		k := keyOf(it)
		if pos, ok := index[k]; ok {
			merged[pos].Quantity += it.Quantity
			merged[pos].Total = lineTotal(merged[pos].Price, merged[pos].Quantity)
			return
		}
		index[k] = len(merged)
		merged = append(merged, it)
	}

	for _, it := range base {
		push(it)
	}
	for _, it := range incoming {
		push(it)
	}

	return merged
}

// Diff returns the items of current that are new relative to previous, or
// whose quantity increased, with quantities reduced to the increase only.
// Quantity decreases emit nothing: the kitchen is never told to un-cook, a
// decrease is applied silently to the draft. Output preserves current's order.
func Diff(previous, current []models.BillItem) []models.BillItem {
	prevByFood := make(map[string]models.BillItem, len(previous))
	for _, it := range previous {
		prevByFood[it.FoodItemID] = it
	}

	var delta []models.BillItem
	for _, it := range current {
		prev, ok := prevByFood[it.FoodItemID]
		if !ok {
			delta = append(delta, it)
			continue
		}
		if it.Quantity > prev.Quantity {
			d := it
			d.Quantity = it.Quantity - prev.Quantity
			d.Total = lineTotal(d.Price, d.Quantity)
			delta = append(delta, d)
		}
	}

	return delta
}

// SumTotals adds up the line totals of a set of items.
func SumTotals(items []models.BillItem) decimal.Decimal {
	sum := decimal.Zero
	for _, it := range items {
		sum = sum.Add(it.Total)
	}
	return sum
}

func lineTotal(price decimal.Decimal, quantity int) decimal.Decimal {
	return price.Mul(decimal.NewFromInt(int64(quantity)))
}

// Normalize merges an item set with itself so duplicate keys collapse, then
// recomputes every line total from price and quantity. Used on request intake
// so stored items always satisfy the uniqueness invariant.
func Normalize(items []models.BillItem) []models.BillItem {
	out := Merge(nil, items)
	for i := range out {
		out[i].Total = lineTotal(out[i].Price, out[i].Quantity)
	}
	return out
}
