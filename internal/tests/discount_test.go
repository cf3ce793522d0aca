package tests

import (
	"testing"
	"time"

	"tableserve/internal/billing"
	"tableserve/internal/domain"

	"github.com/stretchr/testify/assert"
)

var (
	testNow   = time.Date(2026, 1, 15, 12, 0, 0, 0, time.UTC)
	testStart = time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	testEnd   = time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC)
)

func activeOffer(discountType domain.DiscountType, value float64) *domain.Offer {
	return &domain.Offer{
		ID:           1,
		Type:         domain.OfferSpecific,
		DiscountType: discountType,
		Value:        value,
		StartDate:    testStart,
		EndDate:      testEnd,
	}
}

func TestOfferActive(t *testing.T) {
	tests := []struct {
		name  string
		offer *domain.Offer
		want  bool
	}{
		{
			name:  "nil offer",
			offer: nil,
			want:  false,
		},
		{
			name:  "inside window",
			offer: activeOffer(domain.DiscountPercent, 10),
			want:  true,
		},
		{
			name: "disabled",
			offer: &domain.Offer{
				DiscountType: domain.DiscountPercent,
				Value:        10,
				StartDate:    testStart,
				EndDate:      testEnd,
				Disable:      true,
			},
			want: false,
		},
		{
			name: "before start",
			offer: &domain.Offer{
				DiscountType: domain.DiscountPercent,
				Value:        10,
				StartDate:    testNow.Add(24 * time.Hour),
				EndDate:      testEnd,
			},
			want: false,
		},
		{
			name: "after end",
			offer: &domain.Offer{
				DiscountType: domain.DiscountPercent,
				Value:        10,
				StartDate:    testStart,
				EndDate:      testNow.Add(-24 * time.Hour),
			},
			want: false,
		},
	}

	for _, testCase := range tests {
		t.Run(testCase.name, func(t *testing.T) {
			assert.Equal(t, testCase.want, billing.OfferActive(testCase.offer, testNow))
		})
	}
}

func TestLineDiscount(t *testing.T) {
	tests := []struct {
		name     string
		price    float64
		quantity int
		offer    *domain.Offer
		want     float64
	}{
		{
			name:     "no offer",
			price:    100,
			quantity: 2,
			offer:    nil,
			want:     0,
		},
		{
			name:     "percent scales with subtotal",
			price:    200,
			quantity: 3,
			offer:    activeOffer(domain.DiscountPercent, 10),
			want:     60,
		},
		{
			name:     "amount scales with quantity",
			price:    200,
			quantity: 3,
			offer:    activeOffer(domain.DiscountAmount, 15),
			want:     45,
		},
		{
			name:     "inactive offer contributes nothing",
			price:    200,
			quantity: 3,
			offer: &domain.Offer{
				DiscountType: domain.DiscountPercent,
				Value:        10,
				StartDate:    testStart,
				EndDate:      testEnd,
				Disable:      true,
			},
			want: 0,
		},
	}

	for _, testCase := range tests {
		t.Run(testCase.name, func(t *testing.T) {
			got := billing.LineDiscount(testCase.price, testCase.quantity, testCase.offer, testNow)
			assert.InDelta(t, testCase.want, got, 1e-9)
		})
	}
}

func TestGlobalDiscount(t *testing.T) {
	percent := activeOffer(domain.DiscountPercent, 20)
	percent.Type = domain.OfferGlobal
	flat := activeOffer(domain.DiscountAmount, 50)
	flat.Type = domain.OfferGlobal

	assert.InDelta(t, 100.0, billing.GlobalDiscount(500, percent, testNow), 1e-9)

	// Amount offers deduct a flat sum regardless of the subtotal.
	assert.InDelta(t, 50.0, billing.GlobalDiscount(500, flat, testNow), 1e-9)
	assert.InDelta(t, 50.0, billing.GlobalDiscount(5000, flat, testNow), 1e-9)
}

func TestFinalAmount(t *testing.T) {
	tests := []struct {
		name           string
		total          float64
		discount       float64
		customDiscount float64
		want           float64
	}{
		{"plain subtraction", 500, 60, 40, 400},
		{"no discounts", 500, 0, 0, 500},
		{"clamped at zero", 100, 80, 50, 0},
	}

	for _, testCase := range tests {
		t.Run(testCase.name, func(t *testing.T) {
			got := billing.FinalAmount(testCase.total, testCase.discount, testCase.customDiscount)
			assert.InDelta(t, testCase.want, got, 1e-9)
		})
	}
}

// A bill with two dishes, one carrying a percent offer and one an amount
// offer, prices out per line.
func TestLineTotalsMixedOffers(t *testing.T) {
	dishes := map[int]domain.Dish{
		1: {ID: 1, Price: 100, AppliedOffer: activeOffer(domain.DiscountPercent, 10)},
		2: {ID: 2, Price: 50, AppliedOffer: activeOffer(domain.DiscountAmount, 5)},
		3: {ID: 3, Price: 80},
	}
	items := []domain.BillItem{
		{DishID: 1, Quantity: 2},
		{DishID: 2, Quantity: 4},
		{DishID: 3, Quantity: 1},
	}

	total, discount := billing.LineTotals(items, dishes, testNow)

	assert.InDelta(t, 480.0, total, 1e-9)
	// 10% of 200 plus 5 per unit for four units.
	assert.InDelta(t, 40.0, discount, 1e-9)
}

func TestLineTotalsNegativeDeltasReverse(t *testing.T) {
	dishes := map[int]domain.Dish{
		1: {ID: 1, Price: 100, AppliedOffer: activeOffer(domain.DiscountPercent, 10)},
	}

	addTotal, addDiscount := billing.LineTotals([]domain.BillItem{{DishID: 1, Quantity: 3}}, dishes, testNow)
	subTotal, subDiscount := billing.LineTotals([]domain.BillItem{{DishID: 1, Quantity: -3}}, dishes, testNow)

	assert.InDelta(t, 0.0, addTotal+subTotal, 1e-9)
	assert.InDelta(t, 0.0, addDiscount+subDiscount, 1e-9)
}
