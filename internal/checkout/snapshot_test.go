package checkout

import (
	"testing"

	"github.com/checkoutlab/hips-checkout/internal/hips"
	"github.com/checkoutlab/hips-checkout/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func cartItem(productID, sku, name string, price, weight float64, quantity int) *store.CartItem {
	return &store.CartItem{
		ProductID: productID,
		Quantity:  quantity,
		Product: &store.Product{
			ID:     productID,
			SKU:    sku,
			Name:   name,
			Price:  price,
			Weight: weight,
		},
	}
}

func TestBuildSnapshot_EmptyCart(t *testing.T) {
	_, err := BuildSnapshot(SnapshotInput{})
	assert.ErrorIs(t, err, ErrEmptyCart)

	_, err = BuildSnapshot(SnapshotInput{
		Items: []*store.CartItem{cartItem("p1", "SKU1", "Mug", 10, 0, 0)},
	})
	assert.ErrorIs(t, err, ErrEmptyCart)
}

func TestBuildSnapshot_ApportionsTaxUniformly(t *testing.T) {
	snapshot, err := BuildSnapshot(SnapshotInput{
		Items: []*store.CartItem{
			cartItem("p1", "SKU1", "Mug", 100.00, 0.5, 2),
			cartItem("p2", "SKU2", "Poster", 50.00, 0, 1),
		},
		TaxTotal:   30.00,
		TaxEnabled: true,
		WeightUnit: "kg",
	})
	require.NoError(t, err)
	require.Len(t, snapshot.Items, 2)

	// Three units in the cart, 30.00 tax: 10.00 per unit regardless of line.
	mug := snapshot.Items[0]
	assert.Equal(t, hips.ItemTypePhysical, mug.Type)
	assert.Equal(t, "SKU1", mug.SKU)
	assert.Equal(t, int64(11000), mug.UnitPrice)
	assert.Equal(t, int64(1000), mug.VatAmount)
	assert.Equal(t, 2, mug.Quantity)
	assert.Equal(t, "p1", mug.ProductID)

	poster := snapshot.Items[1]
	assert.Equal(t, int64(6000), poster.UnitPrice)
	assert.Equal(t, int64(1000), poster.VatAmount)
}

func TestBuildSnapshot_PricesIncludeTax(t *testing.T) {
	snapshot, err := BuildSnapshot(SnapshotInput{
		Items:            []*store.CartItem{cartItem("p1", "SKU1", "Mug", 125.00, 0, 1)},
		TaxTotal:         25.00,
		TaxEnabled:       true,
		PricesIncludeTax: true,
	})
	require.NoError(t, err)

	// Tax already baked into the unit price; only the vat_amount is derived.
	assert.Equal(t, int64(12500), snapshot.Items[0].UnitPrice)
	assert.Equal(t, int64(2500), snapshot.Items[0].VatAmount)
}

func TestBuildSnapshot_TaxDisabled(t *testing.T) {
	snapshot, err := BuildSnapshot(SnapshotInput{
		Items:      []*store.CartItem{cartItem("p1", "SKU1", "Mug", 100.00, 0, 1)},
		TaxTotal:   30.00,
		TaxEnabled: false,
	})
	require.NoError(t, err)

	assert.Equal(t, int64(10000), snapshot.Items[0].UnitPrice)
	assert.Equal(t, int64(0), snapshot.Items[0].VatAmount)
}

func TestBuildSnapshot_DiscountLine(t *testing.T) {
	snapshot, err := BuildSnapshot(SnapshotInput{
		Items:            []*store.CartItem{cartItem("p1", "SKU1", "Mug", 100.00, 0, 1)},
		DiscountTotal:    10.00,
		DiscountTaxTotal: 2.50,
	})
	require.NoError(t, err)
	require.Len(t, snapshot.Items, 2)

	discount := snapshot.Items[1]
	assert.Equal(t, hips.ItemTypeDiscount, discount.Type)
	assert.Equal(t, 1, discount.Quantity)
	assert.Equal(t, int64(-1250), discount.UnitPrice)
}

func TestBuildSnapshot_NoDiscountLineWhenZero(t *testing.T) {
	snapshot, err := BuildSnapshot(SnapshotInput{
		Items: []*store.CartItem{cartItem("p1", "SKU1", "Mug", 100.00, 0, 1)},
	})
	require.NoError(t, err)
	assert.Len(t, snapshot.Items, 1)
}

func TestBuildSnapshot_TotalMatchesCartGrandTotal(t *testing.T) {
	snapshot, err := BuildSnapshot(SnapshotInput{
		Items: []*store.CartItem{
			cartItem("p1", "SKU1", "Mug", 100.00, 0, 2),
			cartItem("p2", "SKU2", "Poster", 50.00, 0, 1),
		},
		TaxTotal:         30.00,
		DiscountTotal:    10.00,
		DiscountTaxTotal: 2.50,
		TaxEnabled:       true,
	})
	require.NoError(t, err)

	// (2x100 + 50) + 30 tax - 12.50 discount = 267.50
	assert.Equal(t, int64(26750), snapshot.TotalMinor())
}

func TestBuildSnapshot_WeightUnits(t *testing.T) {
	for unit, want := range map[string]string{
		"kg":    hips.WeightUnitKg,
		"g":     hips.WeightUnitGram,
		"lbs":   hips.WeightUnitLb,
		"oz":    hips.WeightUnitGram,
		"":      hips.WeightUnitGram,
		"stone": hips.WeightUnitGram,
	} {
		snapshot, err := BuildSnapshot(SnapshotInput{
			Items:      []*store.CartItem{cartItem("p1", "SKU1", "Mug", 10, 0.5, 3)},
			WeightUnit: unit,
		})
		require.NoError(t, err)
		assert.Equal(t, want, snapshot.Items[0].WeightUnit, "unit %q", unit)
		assert.InDelta(t, 1.5, snapshot.Items[0].Weight, 1e-9)
	}
}

func TestSnapshot_FingerprintTracksContents(t *testing.T) {
	build := func(quantity int) *Snapshot {
		snapshot, err := BuildSnapshot(SnapshotInput{
			Items: []*store.CartItem{cartItem("p1", "SKU1", "Mug", 100.00, 0, quantity)},
		})
		require.NoError(t, err)
		return snapshot
	}

	assert.Equal(t, build(1).Fingerprint(), build(1).Fingerprint())
	assert.NotEqual(t, build(1).Fingerprint(), build(2).Fingerprint())
}
