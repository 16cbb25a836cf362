package enums

// CartEventKind labels the mutation reported to cart observers.
type CartEventKind string

const (
	CartEventItemAdded       CartEventKind = "item_added"
	CartEventItemRemoved     CartEventKind = "item_removed"
	CartEventQuantityUpdated CartEventKind = "quantity_updated"
	CartEventCleared         CartEventKind = "cleared"
)

// String implements fmt.Stringer.
func (c CartEventKind) String() string {
	return string(c)
}
