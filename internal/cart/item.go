package cart

import (
	"fmt"

	"github.com/angelmondragon/storefront-checkout/pkg/money"
	"github.com/shopspring/decimal"
)

// Item is one cart line. The unit price is captured when the product is first
// added and does not follow later catalog changes.
type Item struct {
	ProductID      int64  `json:"product_id"`
	Title          string `json:"title"`
	Thumbnail      string `json:"thumbnail"`
	UnitPriceCents int64  `json:"unit_price_cents"`
	Quantity       int    `json:"quantity"`
}

// LineTotal is unit price times quantity, unrounded.
func (i Item) LineTotal() decimal.Decimal {
	return money.FromCents(i.UnitPriceCents).Mul(decimal.NewFromInt(int64(i.Quantity)))
}

func validateItems(items []Item) error {
	seen := make(map[int64]struct{}, len(items))
	for _, item := range items {
		if item.Quantity < 1 {
			return fmt.Errorf("product %d: quantity %d below 1", item.ProductID, item.Quantity)
		}
		if item.UnitPriceCents < 0 {
			return fmt.Errorf("product %d: negative unit price", item.ProductID)
		}
		if _, dup := seen[item.ProductID]; dup {
			return fmt.Errorf("product %d listed more than once", item.ProductID)
		}
		seen[item.ProductID] = struct{}{}
	}
	return nil
}
