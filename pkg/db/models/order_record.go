package models

import (
	"github.com/angelmondragon/storefront-checkout/pkg/enums"
	"github.com/angelmondragon/storefront-checkout/pkg/types"
)

// OrderRecord is one row of the append-only orders table. Seq preserves
// insertion order; ID is the shopper-facing identifier.
type OrderRecord struct {
	Seq           int64                   `gorm:"column:seq;primaryKey;autoIncrement"`
	ID            string                  `gorm:"column:id;not null;uniqueIndex"`
	SessionID     string                  `gorm:"column:session_id;not null;uniqueIndex"`
	CreatedAtMs   int64                   `gorm:"column:created_at_ms;not null"`
	Items         []OrderLine             `gorm:"column:items;type:text;not null;serializer:json"`
	Summary       OrderSummary            `gorm:"column:summary;type:text;not null;serializer:json"`
	Address       types.Address           `gorm:"column:address;type:text;not null"`
	PaymentMethod enums.PaymentMethodType `gorm:"column:payment_method;not null"`
	TotalCents    int64                   `gorm:"column:total_cents;not null"`
	Status        enums.OrderStatus       `gorm:"column:status;not null"`
}

func (OrderRecord) TableName() string {
	return "orders"
}

// OrderLine is the JSON shape of a purchased line.
type OrderLine struct {
	ProductID      int64  `json:"id"`
	Title          string `json:"title"`
	Thumbnail      string `json:"thumbnail"`
	UnitPriceCents int64  `json:"price"`
	Quantity       int    `json:"quantity"`
}

// OrderSummary is the JSON shape of the financial breakdown.
type OrderSummary struct {
	Subtotal        int64 `json:"subtotal"`
	Shipping        int64 `json:"shipping"`
	Tax             int64 `json:"tax"`
	Discount        int64 `json:"discount"`
	VoucherDiscount int64 `json:"voucherDiscount"`
	Total           int64 `json:"total"`
	Clamped         bool  `json:"clamped,omitempty"`
}
