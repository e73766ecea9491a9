package aggregator

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tandoor-system/internal/database/models"
)

func item(foodID, name string, price float64, qty int) models.BillItem {
	p := decimal.NewFromFloat(price)
	return models.BillItem{
		FoodItemID:   foodID,
		FoodItemName: name,
		Price:        p,
		Quantity:     qty,
		Total:        p.Mul(decimal.NewFromInt(int64(qty))),
	}
}

func TestMergeEmptyInputs(t *testing.T) {
	assert.Empty(t, Merge(nil, nil))
	assert.Len(t, Merge([]models.BillItem{item("b", "Burger", 100, 2)}, nil), 1)
	assert.Len(t, Merge(nil, []models.BillItem{item("b", "Burger", 100, 2)}), 1)
}

func TestMergeSumsQuantitiesForMatchingKey(t *testing.T) {
	base := []models.BillItem{item("b", "Burger", 100, 2)}
	incoming := []models.BillItem{item("b", "Burger", 100, 1), item("f", "Fries", 50, 1)}

	merged := Merge(base, incoming)

	require.Len(t, merged, 2)
	assert.Equal(t, "Burger", merged[0].FoodItemName)
	assert.Equal(t, 3, merged[0].Quantity)
	assert.True(t, merged[0].Total.Equal(decimal.NewFromInt(300)), "got %s", merged[0].Total)
	assert.Equal(t, "Fries", merged[1].FoodItemName)
	assert.Equal(t, 1, merged[1].Quantity)
}

func TestMergeKeepsDistinctPricePointsApart(t *testing.T) {
	base := []models.BillItem{item("b", "Burger", 100, 1)}
	incoming := []models.BillItem{item("b", "Burger", 120, 1)}

	merged := Merge(base, incoming)

	require.Len(t, merged, 2)
	assert.True(t, merged[0].Price.Equal(decimal.NewFromInt(100)))
	assert.True(t, merged[1].Price.Equal(decimal.NewFromInt(120)))
}

func TestMergeNeverDuplicatesKeys(t *testing.T) {
	base := []models.BillItem{
		item("a", "Dosa", 40, 1),
		item("b", "Burger", 100, 2),
	}
	incoming := []models.BillItem{
		item("b", "Burger", 100, 3),
		item("a", "Dosa", 40, 2),
		item("c", "Fries", 50, 1),
	}

	merged := Merge(base, incoming)

	seen := map[string]bool{}
	for _, it := range merged {
		key := it.FoodItemID + "|" + it.Price.String()
		assert.False(t, seen[key], "duplicate key %s", key)
		seen[key] = true
	}

	// Total quantity per key equals the sum of both inputs.
	require.Len(t, merged, 3)
	assert.Equal(t, 3, merged[0].Quantity) // Dosa
	assert.Equal(t, 5, merged[1].Quantity) // Burger
	assert.Equal(t, 1, merged[2].Quantity) // Fries

	want := SumTotals(base).Add(SumTotals(incoming))
	assert.True(t, SumTotals(merged).Equal(want), "merged total %s, want %s", SumTotals(merged), want)
}

func TestDiffEmptyInputs(t *testing.T) {
	assert.Empty(t, Diff(nil, nil))
	assert.Empty(t, Diff([]models.BillItem{item("b", "Burger", 100, 2)}, nil))
}

func TestDiffBillerResendScenario(t *testing.T) {
	previous := []models.BillItem{item("b", "Burger", 100, 2)}
	current := []models.BillItem{
		item("b", "Burger", 100, 3),
		item("f", "Fries", 50, 1),
	}

	delta := Diff(previous, current)

	require.Len(t, delta, 2)
	assert.Equal(t, "Burger", delta[0].FoodItemName)
	assert.Equal(t, 1, delta[0].Quantity)
	assert.True(t, delta[0].Total.Equal(decimal.NewFromInt(100)))
	assert.Equal(t, "Fries", delta[1].FoodItemName)
	assert.Equal(t, 1, delta[1].Quantity)
	assert.True(t, delta[1].Total.Equal(decimal.NewFromInt(50)))
	assert.True(t, SumTotals(delta).Equal(decimal.NewFromInt(150)))
}

func TestDiffIgnoresDecreasesAndEquals(t *testing.T) {
	previous := []models.BillItem{
		item("b", "Burger", 100, 3),
		item("f", "Fries", 50, 2),
	}
	current := []models.BillItem{
		item("b", "Burger", 100, 1), // decreased, removal applied to draft only
		item("f", "Fries", 50, 2),   // unchanged
	}

	assert.Empty(t, Diff(previous, current))
}

func TestMergeOfDiffRestoresCurrentQuantities(t *testing.T) {
	previous := []models.BillItem{
		item("b", "Burger", 100, 2),
		item("d", "Dosa", 40, 1),
	}
	current := []models.BillItem{
		item("b", "Burger", 100, 4),
		item("d", "Dosa", 40, 2),
		item("f", "Fries", 50, 3),
	}

	restored := Merge(previous, Diff(previous, current))

	byFood := map[string]models.BillItem{}
	for _, it := range restored {
		byFood[it.FoodItemID] = it
	}
	for _, want := range current {
		got, ok := byFood[want.FoodItemID]
		require.True(t, ok, "missing %s", want.FoodItemName)
		assert.Equal(t, want.Quantity, got.Quantity, want.FoodItemName)
	}
}

func TestNormalizeCollapsesDuplicatesAndRecomputesTotals(t *testing.T) {
	items := []models.BillItem{
		item("b", "Burger", 100, 1),
		item("b", "Burger", 100, 2),
	}
	items[0].Total = decimal.NewFromInt(999) // stale on intake

	out := Normalize(items)

	require.Len(t, out, 1)
	assert.Equal(t, 3, out[0].Quantity)
	assert.True(t, out[0].Total.Equal(decimal.NewFromInt(300)), "got %s", out[0].Total)
}
