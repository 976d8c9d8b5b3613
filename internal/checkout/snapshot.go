package checkout

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"math"

	"github.com/checkoutlab/hips-checkout/internal/hips"
	"github.com/checkoutlab/hips-checkout/internal/store"
)

var ErrEmptyCart = errors.New("nothing to checkout: cart is empty")

// SnapshotInput is everything the builder reads from the live cart. The
// snapshot itself is immutable once built; the cart may change or empty
// before the provider webhook arrives.
type SnapshotInput struct {
	Items            []*store.CartItem
	TaxTotal         float64
	DiscountTotal    float64
	DiscountTaxTotal float64
	TaxEnabled       bool
	PricesIncludeTax bool
	WeightUnit       string
}

// Snapshot is the provider-shaped view of a cart at one instant.
type Snapshot struct {
	Items []hips.LineItem
}

// TotalMinor sums unit_price x quantity over every line, the discount line
// included. Within one minor unit of the cart grand total.
func (s *Snapshot) TotalMinor() int64 {
	var total int64

	for _, item := range s.Items {
		total += item.UnitPrice * int64(item.Quantity)
	}

	return total
}

// Fingerprint identifies the cart contents the checkout attempt was built
// from, so a stale session can be detected against a mutated cart.
func (s *Snapshot) Fingerprint() string {
	data, _ := json.Marshal(s.Items)
	sum := sha256.Sum256(data)

	return hex.EncodeToString(sum[:])
}

var weightUnits = map[string]string{
	"kg":  hips.WeightUnitKg,
	"g":   hips.WeightUnitGram,
	"lbs": hips.WeightUnitLb,
}

func providerWeightUnit(unit string) string {
	if mapped, ok := weightUnits[unit]; ok {
		return mapped
	}

	return hips.WeightUnitGram
}

// BuildSnapshot converts the live cart into provider line items with integer
// minor-unit prices.
//
// Tax is apportioned evenly: each item carries totalCartTax/totalItemCount
// regardless of its own rate. That mirrors the merchant plugin this service
// replaced; per-item rates from the cart would be more accurate but change
// settled totals for mixed-rate carts.
func BuildSnapshot(in SnapshotInput) (*Snapshot, error) {
	if len(in.Items) == 0 {
		return nil, ErrEmptyCart
	}

	totalCount := 0
	for _, item := range in.Items {
		totalCount += item.Quantity
	}

	if totalCount == 0 {
		return nil, ErrEmptyCart
	}

	itemTax := 0.0
	if in.TaxEnabled {
		itemTax = in.TaxTotal / float64(totalCount)
	}

	weightUnit := providerWeightUnit(in.WeightUnit)

	snapshot := &Snapshot{Items: make([]hips.LineItem, 0, len(in.Items)+1)}

	for _, item := range in.Items {
		basePrice := item.Product.Price

		unitPrice := basePrice
		if in.TaxEnabled && !in.PricesIncludeTax {
			unitPrice = basePrice + itemTax
		}

		snapshot.Items = append(snapshot.Items, hips.LineItem{
			Type:         hips.ItemTypePhysical,
			SKU:          item.Product.SKU,
			Name:         item.Product.Name,
			Quantity:     item.Quantity,
			UnitPrice:    toMinor(unitPrice),
			DiscountRate: "0",
			VatAmount:    toMinor(itemTax),
			Weight:       item.Product.Weight * float64(item.Quantity),
			WeightUnit:   weightUnit,
			ProductID:    item.ProductID,
			VariationID:  item.VariationID,
		})
	}

	totalDiscount := in.DiscountTotal + in.DiscountTaxTotal

	if totalDiscount != 0 {
		snapshot.Items = append(snapshot.Items, hips.LineItem{
			Type:         hips.ItemTypeDiscount,
			Name:         "Discount",
			Quantity:     1,
			UnitPrice:    -toMinor(totalDiscount),
			DiscountRate: "0",
		})
	}

	return snapshot, nil
}

func toMinor(amount float64) int64 {
	return int64(math.Round(amount * 100))
}
