package pricing

import (
	"github.com/angelmondragon/storefront-checkout/internal/cart"
	"github.com/angelmondragon/storefront-checkout/pkg/money"
	"github.com/shopspring/decimal"
)

// Breakdown is the unrounded order summary.
type Breakdown struct {
	Subtotal        decimal.Decimal
	Shipping        decimal.Decimal
	Tax             decimal.Decimal
	Discount        decimal.Decimal
	VoucherDiscount decimal.Decimal
	Total           decimal.Decimal
	Clamped         bool
}

// Summary is the rounded, display-ready order summary in cents.
// Total always equals Subtotal + Shipping + Tax - Discount - VoucherDiscount,
// computed on the rounded components and floored at zero.
type Summary struct {
	SubtotalCents        int64 `json:"subtotal"`
	ShippingCents        int64 `json:"shipping"`
	TaxCents             int64 `json:"tax"`
	DiscountCents        int64 `json:"discount"`
	VoucherDiscountCents int64 `json:"voucherDiscount"`
	TotalCents           int64 `json:"total"`
	Clamped              bool  `json:"clamped,omitempty"`
}

// Derive computes the order breakdown for items. voucher is the unrounded
// voucher discount. It is pure: the same inputs always yield the same result
// and nothing is mutated.
func Derive(items []cart.Item, policies Policies, voucher decimal.Decimal) Breakdown {
	policies = policies.withDefaults()

	subtotal := Subtotal(items)
	if len(items) == 0 {
		return Breakdown{
			Subtotal:        decimal.Zero,
			Shipping:        decimal.Zero,
			Tax:             decimal.Zero,
			Discount:        decimal.Zero,
			VoucherDiscount: decimal.Zero,
			Total:           decimal.Zero,
		}
	}

	shipping := policies.Shipping.Shipping(subtotal)
	tax := policies.Tax.Tax(subtotal)
	discount := policies.Discount.Discount(subtotal)
	if voucher.IsNegative() {
		voucher = decimal.Zero
	}

	total, clamped := money.ClampZero(subtotal.Add(shipping).Add(tax).Sub(discount).Sub(voucher))
	return Breakdown{
		Subtotal:        subtotal,
		Shipping:        shipping,
		Tax:             tax,
		Discount:        discount,
		VoucherDiscount: voucher,
		Total:           total,
		Clamped:         clamped,
	}
}

// Subtotal sums unit price times quantity over items, unrounded.
func Subtotal(items []cart.Item) decimal.Decimal {
	subtotal := decimal.Zero
	for _, item := range items {
		subtotal = subtotal.Add(item.LineTotal())
	}
	return subtotal
}

// DeriveSummary is Derive followed by Summary.
func DeriveSummary(items []cart.Item, policies Policies, voucher decimal.Decimal) Summary {
	return Derive(items, policies, voucher).Summary()
}

// Summary rounds each component half away from zero to cents. The total is
// recomputed from the rounded components so the displayed lines always add up.
func (b Breakdown) Summary() Summary {
	s := Summary{
		SubtotalCents:        money.ToCents(b.Subtotal),
		ShippingCents:        money.ToCents(b.Shipping),
		TaxCents:             money.ToCents(b.Tax),
		DiscountCents:        money.ToCents(b.Discount),
		VoucherDiscountCents: money.ToCents(b.VoucherDiscount),
	}
	total := s.SubtotalCents + s.ShippingCents + s.TaxCents - s.DiscountCents - s.VoucherDiscountCents
	if total < 0 {
		total = 0
		s.Clamped = true
	}
	s.TotalCents = total
	s.Clamped = s.Clamped || b.Clamped
	return s
}

// IsEmpty reports whether the summary describes an empty cart.
func (s Summary) IsEmpty() bool {
	return s == Summary{}
}
