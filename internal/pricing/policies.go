package pricing

import (
	"github.com/angelmondragon/storefront-checkout/pkg/config"
	"github.com/angelmondragon/storefront-checkout/pkg/money"
	"github.com/shopspring/decimal"
)

// ShippingPolicy prices delivery for a non-empty cart subtotal.
type ShippingPolicy interface {
	Shipping(subtotal decimal.Decimal) decimal.Decimal
}

// TaxPolicy computes tax owed on a subtotal.
type TaxPolicy interface {
	Tax(subtotal decimal.Decimal) decimal.Decimal
}

// DiscountPolicy computes a promotional discount on a subtotal.
type DiscountPolicy interface {
	Discount(subtotal decimal.Decimal) decimal.Decimal
}

// Policies bundles the rules applied by Derive.
type Policies struct {
	Shipping ShippingPolicy
	Tax      TaxPolicy
	Discount DiscountPolicy
}

// FlatShipping charges the same fee on every order.
type FlatShipping struct {
	FeeCents int64
}

func (f FlatShipping) Shipping(decimal.Decimal) decimal.Decimal {
	return money.FromCents(f.FeeCents)
}

// FreeAboveThreshold waives the fee once the subtotal reaches ThresholdCents.
type FreeAboveThreshold struct {
	FeeCents       int64
	ThresholdCents int64
}

func (f FreeAboveThreshold) Shipping(subtotal decimal.Decimal) decimal.Decimal {
	if subtotal.GreaterThanOrEqual(money.FromCents(f.ThresholdCents)) {
		return decimal.Zero
	}
	return money.FromCents(f.FeeCents)
}

// PercentageTax applies Percent percent to the subtotal.
type PercentageTax struct {
	Percent decimal.Decimal
}

func (p PercentageTax) Tax(subtotal decimal.Decimal) decimal.Decimal {
	return money.Percent(subtotal, p.Percent)
}

// NoDiscount never discounts.
type NoDiscount struct{}

func (NoDiscount) Discount(decimal.Decimal) decimal.Decimal {
	return decimal.Zero
}

// PercentageDiscount takes Percent percent off the subtotal.
type PercentageDiscount struct {
	Percent decimal.Decimal
}

func (p PercentageDiscount) Discount(subtotal decimal.Decimal) decimal.Decimal {
	return money.Percent(subtotal, p.Percent)
}

// PoliciesFromConfig builds the storefront's pricing rules.
func PoliciesFromConfig(cfg config.PricingConfig) Policies {
	policies := Policies{
		Shipping: FlatShipping{FeeCents: cfg.ShippingFeeCents},
		Tax:      PercentageTax{Percent: cfg.TaxPercent},
		Discount: NoDiscount{},
	}
	if cfg.FreeShippingThresholdCents > 0 {
		policies.Shipping = FreeAboveThreshold{
			FeeCents:       cfg.ShippingFeeCents,
			ThresholdCents: cfg.FreeShippingThresholdCents,
		}
	}
	if cfg.PromoDiscountPercent.IsPositive() {
		policies.Discount = PercentageDiscount{Percent: cfg.PromoDiscountPercent}
	}
	return policies
}

func (p Policies) withDefaults() Policies {
	if p.Shipping == nil {
		p.Shipping = FlatShipping{}
	}
	if p.Tax == nil {
		p.Tax = PercentageTax{}
	}
	if p.Discount == nil {
		p.Discount = NoDiscount{}
	}
	return p
}
