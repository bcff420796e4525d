package services

import (
	"github.com/samber/lo"
	"github.com/shopspring/decimal"
	"github.com/travelbooking/catalog-api/internal/models"
)

// ItemSubtotal returns qtyAdults×priceAdult + qtyChildren×priceChild + Σ option prices
func ItemSubtotal(item models.BookingItem) float64 {
	adults := decimal.NewFromInt(int64(item.QtyAdults)).Mul(decimal.NewFromFloat(item.PriceAdult))
	children := decimal.NewFromInt(int64(item.QtyChildren)).Mul(decimal.NewFromFloat(item.PriceChild))
	options := decimal.Sum(decimal.Zero, lo.Map(item.Options, func(o models.BookingOption, _ int) decimal.Decimal {
		return decimal.NewFromFloat(o.Price)
	})...)
	return adults.Add(children).Add(options).InexactFloat64()
}

// RecomputeItems returns a copy of items with every subtotal recomputed
func RecomputeItems(items models.BookingItems) models.BookingItems {
	out := make(models.BookingItems, len(items))
	for i, item := range items {
		item.Subtotal = ItemSubtotal(item)
		out[i] = item
	}
	return out
}

// ComputeAmounts derives itemsTotal and grandTotal = itemsTotal − discount + tax + fee.
// Subtotals are recomputed from the items, never taken from them.
func ComputeAmounts(items models.BookingItems, discount, tax, fee float64) models.Amounts {
	itemsTotal := decimal.Zero
	for _, item := range items {
		itemsTotal = itemsTotal.Add(decimal.NewFromFloat(ItemSubtotal(item)))
	}
	grand := itemsTotal.
		Sub(decimal.NewFromFloat(discount)).
		Add(decimal.NewFromFloat(tax)).
		Add(decimal.NewFromFloat(fee))

	return models.Amounts{
		ItemsTotal: itemsTotal.InexactFloat64(),
		Discount:   discount,
		Tax:        tax,
		Fee:        fee,
		GrandTotal: grand.InexactFloat64(),
	}
}

// amountOverrides picks discount, tax and fee from in, falling back to base
// for fields in does not carry. A nil base defaults to zero.
func amountOverrides(in *models.AmountsInput, base *models.Amounts) (discount, tax, fee float64) {
	if base != nil {
		discount, tax, fee = base.Discount, base.Tax, base.Fee
	}
	if in == nil {
		return
	}
	if in.Discount != nil {
		discount = *in.Discount
	}
	if in.Tax != nil {
		tax = *in.Tax
	}
	if in.Fee != nil {
		fee = *in.Fee
	}
	return
}

// totalTravelers sums adults and children over items
func totalTravelers(items models.BookingItems) int {
	return lo.SumBy(items, func(i models.BookingItem) int { return i.Travelers() })
}
