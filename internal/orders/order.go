package orders

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/angelmondragon/storefront-checkout/internal/cart"
	"github.com/angelmondragon/storefront-checkout/internal/pricing"
	"github.com/angelmondragon/storefront-checkout/pkg/enums"
	"github.com/angelmondragon/storefront-checkout/pkg/types"
)

// IDPrefix starts every order identifier.
const IDPrefix = "ORD-"

// Item is the purchased line as it looked at commit time.
type Item struct {
	ProductID      int64  `json:"id"`
	Title          string `json:"title"`
	Thumbnail      string `json:"thumbnail"`
	UnitPriceCents int64  `json:"price"`
	Quantity       int    `json:"quantity"`
}

// Order is an immutable record of a committed checkout.
type Order struct {
	ID            string                  `json:"id"`
	SessionID     string                  `json:"session_id"`
	CreatedAt     time.Time               `json:"date"`
	Items         []Item                  `json:"items"`
	Summary       pricing.Summary         `json:"summary"`
	Address       types.Address           `json:"address"`
	PaymentMethod enums.PaymentMethodType `json:"payment_method"`
	TotalCents    int64                   `json:"total"`
	Status        enums.OrderStatus       `json:"status"`
}

// Draft carries everything checkout knows when it commits.
type Draft struct {
	SessionID     string
	Items         []cart.Item
	Summary       pricing.Summary
	Address       types.Address
	PaymentMethod enums.PaymentMethodType
}

// Build turns a draft into an order awaiting an ID. The ledger assigns the
// ID and creation time when it records the order.
func Build(d Draft) (*Order, error) {
	if strings.TrimSpace(d.SessionID) == "" {
		return nil, fmt.Errorf("session id is required")
	}
	if len(d.Items) == 0 {
		return nil, fmt.Errorf("order has no items")
	}
	if !d.PaymentMethod.IsValid() {
		return nil, fmt.Errorf("invalid payment method type %q", d.PaymentMethod)
	}
	if d.Address.IsZero() {
		return nil, fmt.Errorf("delivery address is required")
	}

	items := make([]Item, 0, len(d.Items))
	for _, line := range d.Items {
		items = append(items, Item{
			ProductID:      line.ProductID,
			Title:          line.Title,
			Thumbnail:      line.Thumbnail,
			UnitPriceCents: line.UnitPriceCents,
			Quantity:       line.Quantity,
		})
	}

	return &Order{
		SessionID:     d.SessionID,
		Items:         items,
		Summary:       d.Summary,
		Address:       d.Address,
		PaymentMethod: d.PaymentMethod,
		TotalCents:    d.Summary.TotalCents,
		Status:        enums.OrderStatusProcessing,
	}, nil
}

// Clone returns a deep copy.
func (o Order) Clone() Order {
	out := o
	out.Items = make([]Item, len(o.Items))
	copy(out.Items, o.Items)
	return out
}

// ItemCount is the total number of units ordered.
func (o Order) ItemCount() int {
	count := 0
	for _, item := range o.Items {
		count += item.Quantity
	}
	return count
}

// FormatID renders the identifier for a creation instant in Unix milliseconds.
func FormatID(millis int64) string {
	return fmt.Sprintf("%s%d", IDPrefix, millis)
}

// ParseID extracts the millisecond component from an identifier.
func ParseID(id string) (int64, bool) {
	if !strings.HasPrefix(id, IDPrefix) {
		return 0, false
	}
	millis, err := strconv.ParseInt(strings.TrimPrefix(id, IDPrefix), 10, 64)
	if err != nil || millis < 0 {
		return 0, false
	}
	return millis, true
}
