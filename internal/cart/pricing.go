package cart

import (
	"github.com/shopspring/decimal"

	"github.com/rashidalbanna/mandoob-backend/pkg/db/models"
)

// resolveUnitPrice snapshots the product's pricing for a cart line. The base
// price is kept as the unit price and any discount price becomes a per-unit
// discount, so the line still shows what was knocked off. Variant prices are
// ignored; the product row owns pricing.
func resolveUnitPrice(product *models.Product) (unitCents, discountCents int) {
	unitCents = product.PriceCents
	if product.DiscountPriceCents != nil && *product.DiscountPriceCents > 0 && *product.DiscountPriceCents < unitCents {
		discountCents = unitCents - *product.DiscountPriceCents
	}
	return unitCents, discountCents
}

func lineTotal(item *models.CartItem) int {
	return (item.UnitPriceCents - item.DiscountCents) * item.Qty
}

// recomputeTotals refreshes the cart's totals snapshot from its items.
// Tax applies to the discounted subtotal; the grand total never goes
// below zero.
func recomputeTotals(cart *models.Cart, taxRatePercent decimal.Decimal, deliveryFeeCents int) {
	var subtotal, discount int
	for i := range cart.Items {
		item := &cart.Items[i]
		item.LineTotalCents = lineTotal(item)
		subtotal += item.UnitPriceCents * item.Qty
		discount += item.DiscountCents * item.Qty
	}

	taxable := subtotal - discount
	tax := 0
	if taxable > 0 && taxRatePercent.IsPositive() {
		tax = int(decimal.NewFromInt(int64(taxable)).
			Mul(taxRatePercent).
			Div(decimal.NewFromInt(100)).
			Round(0).
			IntPart())
	}

	fee := 0
	if len(cart.Items) > 0 {
		fee = deliveryFeeCents
	}

	grand := subtotal - discount + tax + fee
	if grand < 0 {
		grand = 0
	}

	cart.SubtotalCents = subtotal
	cart.DiscountTotalCents = discount
	cart.TaxTotalCents = tax
	cart.DeliveryFeeCents = fee
	cart.GrandTotalCents = grand
}
