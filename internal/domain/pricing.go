package domain

import "github.com/shopspring/decimal"

// Totals captures the derived monetary breakdown of a cart for a shipping
// region. All values are server-derived; this calculator never mutates the
// cart.
type Totals struct {
	Subtotal       decimal.Decimal
	DeliveryCharge decimal.Decimal
	Discount       decimal.Decimal
	Total          decimal.Decimal
	ItemCount      int
}

// CalculateTotals derives the displayable totals for a cart snapshot.
//
// The subtotal prefers the server's subtotal, falling back to total_amount.
// The delivery charge is the region-specific server value with a local
// default when absent. The grand total is clamped at zero: the server has
// never been observed returning a discount exceeding subtotal plus delivery,
// but a negative amount must not reach the UI.
func CalculateTotals(cart Cart, region ShippingRegion) Totals {
	subtotal := cart.TotalAmount
	if cart.Subtotal != nil {
		subtotal = *cart.Subtotal
	}

	charge := deliveryCharge(cart, region)
	total := subtotal.Sub(cart.CouponDiscount).Add(charge)
	if total.IsNegative() {
		total = decimal.Zero
	}

	return Totals{
		Subtotal:       subtotal,
		DeliveryCharge: charge,
		Discount:       cart.CouponDiscount,
		Total:          total,
		ItemCount:      cart.ItemCount(),
	}
}

func deliveryCharge(cart Cart, region ShippingRegion) decimal.Decimal {
	if region == RegionOutsideDhaka {
		if cart.DeliveryChargeOutsideDhaka != nil {
			return *cart.DeliveryChargeOutsideDhaka
		}
		return DefaultChargeOutsideDhaka
	}
	if cart.DeliveryChargeInsideDhaka != nil {
		return *cart.DeliveryChargeInsideDhaka
	}
	return DefaultChargeInsideDhaka
}
