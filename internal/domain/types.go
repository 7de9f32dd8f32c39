package domain

import (
	"strings"

	"github.com/shopspring/decimal"
)

// ShippingRegion is the two-valued delivery classification used by the
// commerce service.
type ShippingRegion string

const (
	// RegionInsideDhaka covers deliveries within the Dhaka metropolitan area.
	RegionInsideDhaka ShippingRegion = "inside_dhaka"
	// RegionOutsideDhaka covers everything else.
	RegionOutsideDhaka ShippingRegion = "outside_dhaka"
)

// Local fallbacks applied when the server omits a delivery charge.
var (
	DefaultChargeInsideDhaka  = decimal.NewFromInt(60)
	DefaultChargeOutsideDhaka = decimal.NewFromInt(120)
)

// ParseShippingRegion normalises a region code, defaulting to inside Dhaka.
func ParseShippingRegion(code string) ShippingRegion {
	if strings.EqualFold(strings.TrimSpace(code), string(RegionOutsideDhaka)) {
		return RegionOutsideDhaka
	}
	return RegionInsideDhaka
}

// Cart mirrors the server-authoritative cart resource. The identifier is an
// opaque server-assigned string; once created it is durable until an explicit
// clear or a finalized cash-on-delivery checkout replaces it.
type Cart struct {
	ID                         string           `json:"cart_id"`
	Items                      []CartLine       `json:"items"`
	Subtotal                   *decimal.Decimal `json:"subtotal,omitempty"`
	CouponDiscount             decimal.Decimal  `json:"coupon_discount"`
	DeliveryChargeInsideDhaka  *decimal.Decimal `json:"delivery_charge_inside_dhaka,omitempty"`
	DeliveryChargeOutsideDhaka *decimal.Decimal `json:"delivery_charge_outside_dhaka,omitempty"`
	TotalAmount                decimal.Decimal  `json:"total_amount"`
}

// ItemCount sums the line quantities.
func (c Cart) ItemCount() int {
	count := 0
	for _, line := range c.Items {
		if line.Quantity > 0 {
			count += line.Quantity
		}
	}
	return count
}

// IsEmpty reports whether the cart has no purchasable lines.
func (c Cart) IsEmpty() bool {
	return len(c.Items) == 0
}

// CartLine is a single purchasable line within a cart.
type CartLine struct {
	ID         int64           `json:"id"`
	Variant    VariantSnapshot `json:"variant"`
	Quantity   int             `json:"quantity"`
	TotalPrice decimal.Decimal `json:"total_price"`
}

// LineTotal returns the server-computed line total when present, otherwise
// the effective unit price multiplied by quantity.
func (l CartLine) LineTotal() decimal.Decimal {
	if !l.TotalPrice.IsZero() {
		return l.TotalPrice
	}
	if l.Quantity <= 0 {
		return decimal.Zero
	}
	return l.Variant.EffectivePrice().Mul(decimal.NewFromInt(int64(l.Quantity)))
}

// VariantSnapshot is the variant state captured on a cart line at add time.
// Attributes arrive in several shapes and are parsed tolerantly.
type VariantSnapshot struct {
	ID         int64            `json:"id"`
	Price      decimal.Decimal  `json:"price"`
	FinalPrice *decimal.Decimal `json:"final_price,omitempty"`
	Stock      int              `json:"stock"`
	Attributes AttributeMap     `json:"attributes,omitempty"`
}

// EffectivePrice prefers the discounted final price over the list price.
func (v VariantSnapshot) EffectivePrice() decimal.Decimal {
	if v.FinalPrice != nil && v.FinalPrice.IsPositive() {
		return *v.FinalPrice
	}
	return v.Price
}

// Product is the catalog shape the presentation layer hands to AddItem. Only
// the fields consulted by variant resolution are modelled here.
type Product struct {
	ID             int64             `json:"id"`
	Name           string            `json:"name"`
	VariantID      int64             `json:"variant_id,omitempty"`
	DefaultVariant *VariantSnapshot  `json:"default_variant,omitempty"`
	Variants       []VariantSnapshot `json:"variants,omitempty"`
}

// PendingAction is a deferred add-to-cart request held while a guest-gating
// decision is outstanding. At most one exists at a time.
type PendingAction struct {
	Product         Product
	Quantity        int
	VariantOverride int64
}

// OrderSubmission is the ephemeral checkout payload. Contact and address
// fields are populated only for unauthenticated actors.
type OrderSubmission struct {
	CartID         string         `json:"cart_id"`
	PaymentMethod  string         `json:"payment_method"`
	ShippingRegion ShippingRegion `json:"shipping_region"`
	IdempotencyKey string         `json:"idempotency_key,omitempty"`
	Notes          string         `json:"notes,omitempty"`

	Name    string `json:"name,omitempty"`
	Email   string `json:"email,omitempty"`
	Phone   string `json:"phone,omitempty"`
	Address string `json:"address,omitempty"`
}

// ShippingAddress carries the contact details collected at checkout.
type ShippingAddress struct {
	Name    string
	Email   string
	Phone   string
	Address string
	Region  ShippingRegion
}
