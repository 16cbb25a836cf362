package catalog

import (
	"strings"

	"github.com/angelmondragon/storefront-checkout/pkg/money"
	"github.com/shopspring/decimal"
)

// TagAll selects every product regardless of tags.
const TagAll = "All"

// Product is the read-only catalog entry shown on the menu.
type Product struct {
	ID                 int64    `json:"id"`
	Title              string   `json:"title"`
	Description        string   `json:"description"`
	Category           string   `json:"category"`
	Thumbnail          string   `json:"thumbnail"`
	Price              float64  `json:"price"`
	DiscountPercentage float64  `json:"discountPercentage"`
	Tags               []string `json:"tags"`
}

// PriceCents converts the catalog price to integer cents.
func (p Product) PriceCents() int64 {
	return money.FromFloat(p.Price)
}

// OriginalPrice is the pre-discount price shown struck through next to Price.
func (p Product) OriginalPrice() decimal.Decimal {
	return money.Round2(money.UndiscountedPrice(
		decimal.NewFromFloat(p.Price),
		decimal.NewFromFloat(p.DiscountPercentage),
	))
}

// HasTag reports whether the product carries tag.
func (p Product) HasTag(tag string) bool {
	for _, candidate := range p.Tags {
		if strings.EqualFold(candidate, tag) {
			return true
		}
	}
	return false
}

// FilterByTag keeps products tagged with tag, or all products for TagAll.
func FilterByTag(products []Product, tag string) []Product {
	if tag == TagAll {
		out := make([]Product, len(products))
		copy(out, products)
		return out
	}
	out := make([]Product, 0, len(products))
	for _, p := range products {
		if p.HasTag(tag) {
			out = append(out, p)
		}
	}
	return out
}

// FindByID returns the product with id, if present.
func FindByID(products []Product, id int64) (Product, bool) {
	for _, p := range products {
		if p.ID == id {
			return p, true
		}
	}
	return Product{}, false
}
