package services

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/travelbooking/catalog-api/internal/models"
)

func TestItemSubtotal(t *testing.T) {
	item := models.BookingItem{
		PackageID:   uuid.New(),
		QtyAdults:   2,
		QtyChildren: 3,
		PriceAdult:  0.1,
		PriceChild:  0.2,
		Options:     []models.BookingOption{{Name: "a", Price: 0.3}, {Name: "b", Price: 0.4}},
	}
	assert.Equal(t, 1.5, ItemSubtotal(item))
}

func TestComputeAmounts(t *testing.T) {
	items := models.BookingItems{
		{QtyAdults: 2, PriceAdult: 50},
		{QtyAdults: 1, QtyChildren: 1, PriceAdult: 80, PriceChild: 40, Subtotal: 1},
	}

	a := ComputeAmounts(items, 10, 5.5, 2)
	assert.Equal(t, 220.0, a.ItemsTotal)
	assert.Equal(t, 217.5, a.GrandTotal)

	again := ComputeAmounts(RecomputeItems(items), a.Discount, a.Tax, a.Fee)
	assert.Equal(t, a, again)
}

func TestRecomputeItemsDoesNotMutateInput(t *testing.T) {
	items := models.BookingItems{{QtyAdults: 1, PriceAdult: 10, Subtotal: 99}}
	out := RecomputeItems(items)
	assert.Equal(t, 99.0, items[0].Subtotal)
	assert.Equal(t, 10.0, out[0].Subtotal)
}

func TestAmountOverrides(t *testing.T) {
	stored := &models.Amounts{Discount: 1, Tax: 2, Fee: 3}

	d, tx, fee := amountOverrides(nil, stored)
	assert.Equal(t, []float64{1, 2, 3}, []float64{d, tx, fee})

	d, tx, fee = amountOverrides(&models.AmountsInput{Tax: ptr(9.0)}, nil)
	assert.Equal(t, []float64{0, 9, 0}, []float64{d, tx, fee})
}
