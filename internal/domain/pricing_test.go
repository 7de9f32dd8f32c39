package domain

import (
	"testing"

	"github.com/shopspring/decimal"
)

func decPtr(v int64) *decimal.Decimal {
	d := decimal.NewFromInt(v)
	return &d
}

func TestCalculateTotalsInsideDhaka(t *testing.T) {
	cart := Cart{
		ID:                        "cart-1",
		Subtotal:                  decPtr(500),
		CouponDiscount:            decimal.Zero,
		DeliveryChargeInsideDhaka: decPtr(60),
		Items: []CartLine{
			{ID: 1, Quantity: 2, Variant: VariantSnapshot{ID: 10, Price: decimal.NewFromInt(250)}},
		},
	}

	totals := CalculateTotals(cart, RegionInsideDhaka)
	if !totals.Total.Equal(decimal.NewFromInt(560)) {
		t.Fatalf("expected total 560, got %s", totals.Total)
	}
	if !totals.Subtotal.Equal(decimal.NewFromInt(500)) {
		t.Fatalf("expected subtotal 500, got %s", totals.Subtotal)
	}
	if totals.ItemCount != 2 {
		t.Fatalf("expected item count 2, got %d", totals.ItemCount)
	}
}

func TestCalculateTotalsRegionDefaults(t *testing.T) {
	cart := Cart{Subtotal: decPtr(1000)}

	inside := CalculateTotals(cart, RegionInsideDhaka)
	if !inside.DeliveryCharge.Equal(decimal.NewFromInt(60)) {
		t.Fatalf("expected inside default 60, got %s", inside.DeliveryCharge)
	}

	outside := CalculateTotals(cart, RegionOutsideDhaka)
	if !outside.DeliveryCharge.Equal(decimal.NewFromInt(120)) {
		t.Fatalf("expected outside default 120, got %s", outside.DeliveryCharge)
	}
}

func TestCalculateTotalsSubtotalFallsBackToTotalAmount(t *testing.T) {
	cart := Cart{TotalAmount: decimal.NewFromInt(750)}
	totals := CalculateTotals(cart, RegionInsideDhaka)
	if !totals.Subtotal.Equal(decimal.NewFromInt(750)) {
		t.Fatalf("expected fallback subtotal 750, got %s", totals.Subtotal)
	}
}

func TestCalculateTotalsClampsNegativeTotal(t *testing.T) {
	cart := Cart{
		Subtotal:       decPtr(100),
		CouponDiscount: decimal.NewFromInt(500),
	}
	totals := CalculateTotals(cart, RegionInsideDhaka)
	if !totals.Total.Equal(decimal.Zero) {
		t.Fatalf("expected clamped total 0, got %s", totals.Total)
	}
}

func TestCartItemCountSumsQuantities(t *testing.T) {
	cart := Cart{Items: []CartLine{
		{ID: 1, Quantity: 2},
		{ID: 2, Quantity: 3},
		{ID: 3, Quantity: -1},
	}}
	if got := cart.ItemCount(); got != 5 {
		t.Fatalf("expected item count 5, got %d", got)
	}
}

func TestCartLineTotalPrefersServerValue(t *testing.T) {
	line := CartLine{
		Quantity:   3,
		TotalPrice: decimal.NewFromInt(999),
		Variant:    VariantSnapshot{Price: decimal.NewFromInt(100)},
	}
	if !line.LineTotal().Equal(decimal.NewFromInt(999)) {
		t.Fatalf("expected server total 999, got %s", line.LineTotal())
	}
}

func TestCartLineTotalComputesFromFinalPrice(t *testing.T) {
	line := CartLine{
		Quantity: 2,
		Variant: VariantSnapshot{
			Price:      decimal.NewFromInt(120),
			FinalPrice: decPtr(100),
		},
	}
	if !line.LineTotal().Equal(decimal.NewFromInt(200)) {
		t.Fatalf("expected computed total 200, got %s", line.LineTotal())
	}
}
