// Package billing holds the pure dish-aggregation and discount arithmetic
// shared by the order, table and bill services. Nothing here touches a
// datastore; callers pass in whatever dish and offer data the computation
// needs.
package billing

import (
	"time"

	"tableserve/internal/domain"
)

// OfferActive reports whether the offer can contribute a discount at the
// given instant.
func OfferActive(offer *domain.Offer, now time.Time) bool {
	if offer == nil || offer.Disable {
		return false
	}
	if !offer.StartDate.IsZero() && now.Before(offer.StartDate) {
		return false
	}
	if !offer.EndDate.IsZero() && now.After(offer.EndDate) {
		return false
	}
	return true
}

// LineDiscount computes the discount for one line item under the dish's
// applied offer. Amount offers scale with quantity; percent offers scale with
// the line subtotal. The result is never negative.
func LineDiscount(price float64, quantity int, offer *domain.Offer, now time.Time) float64 {
	if !OfferActive(offer, now) {
		return 0
	}

	var discount float64
	switch offer.DiscountType {
	case domain.DiscountPercent:
		discount = price * float64(quantity) * offer.Value / 100
	case domain.DiscountAmount:
		discount = offer.Value * float64(quantity)
	}

	if discount < 0 {
		return 0
	}
	return discount
}

// GlobalDiscount computes the bill-level discount for a global offer. An
// amount offer is a flat deduction independent of item count; a percent offer
// scales with the bill subtotal.
func GlobalDiscount(subtotal float64, offer *domain.Offer, now time.Time) float64 {
	if !OfferActive(offer, now) {
		return 0
	}

	var discount float64
	switch offer.DiscountType {
	case domain.DiscountPercent:
		discount = subtotal * offer.Value / 100
	case domain.DiscountAmount:
		discount = offer.Value
	}

	if discount < 0 {
		return 0
	}
	return discount
}

// FinalAmount derives the payable amount from the bill's three monetary
// fields, clamped at zero.
func FinalAmount(totalAmount, totalDiscount, customDiscount float64) float64 {
	final := totalAmount - totalDiscount - customDiscount
	if final < 0 {
		return 0
	}
	return final
}
