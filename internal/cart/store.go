package cart

import (
	"context"
	"math"
	"sync"

	"github.com/angelmondragon/storefront-checkout/internal/catalog"
	"github.com/angelmondragon/storefront-checkout/pkg/enums"
	pkgerrors "github.com/angelmondragon/storefront-checkout/pkg/errors"
	"github.com/angelmondragon/storefront-checkout/pkg/logger"
)

// Event describes a completed cart mutation.
type Event struct {
	Kind enums.CartEventKind
	// Item is the affected line after the mutation; for removals it is the
	// line as it was. Zero for Cleared.
	Item Item
	// Items is the full cart after the mutation.
	Items []Item
}

// Observer is invoked synchronously after every successful mutation.
type Observer func(ctx context.Context, event Event)

// Store owns the shopper's cart. Mutations are serialized; observers run after
// the lock is released but before the mutating call returns.
type Store struct {
	mu        sync.Mutex
	items     []Item
	observers map[uint64]Observer
	order     []uint64
	nextID    uint64
	logg      *logger.Logger
}

// NewStore returns an empty cart. A nil logger discards diagnostics.
func NewStore(logg *logger.Logger) *Store {
	if logg == nil {
		logg = logger.Nop()
	}
	return &Store{
		observers: map[uint64]Observer{},
		logg:      logg,
	}
}

// Subscribe registers an observer and returns a function that removes it.
func (s *Store) Subscribe(observer Observer) func() {
	if observer == nil {
		return func() {}
	}
	s.mu.Lock()
	s.nextID++
	id := s.nextID
	s.observers[id] = observer
	s.order = append(s.order, id)
	s.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			s.mu.Lock()
			defer s.mu.Unlock()
			delete(s.observers, id)
			for i, candidate := range s.order {
				if candidate == id {
					s.order = append(s.order[:i], s.order[i+1:]...)
					break
				}
			}
		})
	}
}

// AddItem adds quantity units of product, merging into an existing line.
func (s *Store) AddItem(ctx context.Context, product catalog.Product, quantity int) error {
	if quantity < 1 {
		return pkgerrors.New(pkgerrors.CodeInvalidQuantity, "quantity must be at least 1").
			WithDetails(map[string]any{"product_id": product.ID, "quantity": quantity})
	}

	s.mu.Lock()
	var line Item
	if idx := s.indexOf(product.ID); idx >= 0 {
		if quantity > math.MaxInt-s.items[idx].Quantity {
			current := s.items[idx].Quantity
			s.mu.Unlock()
			return pkgerrors.New(pkgerrors.CodeInvalidQuantity, "quantity exceeds the supported maximum").
				WithDetails(map[string]any{"product_id": product.ID, "quantity": quantity, "in_cart": current})
		}
		s.items[idx].Quantity += quantity
		line = s.items[idx]
	} else {
		line = Item{
			ProductID:      product.ID,
			Title:          product.Title,
			Thumbnail:      product.Thumbnail,
			UnitPriceCents: product.PriceCents(),
			Quantity:       quantity,
		}
		s.items = append(s.items, line)
	}
	event, observers := s.eventLocked(enums.CartEventItemAdded, line)
	s.mu.Unlock()

	s.dispatch(ctx, event, observers)
	return nil
}

// RemoveItem deletes the line for productID. Removing an absent product is a no-op.
func (s *Store) RemoveItem(ctx context.Context, productID int64) {
	s.mu.Lock()
	idx := s.indexOf(productID)
	if idx < 0 {
		s.mu.Unlock()
		return
	}
	removed := s.removeLocked(idx)
	event, observers := s.eventLocked(enums.CartEventItemRemoved, removed)
	s.mu.Unlock()

	s.dispatch(ctx, event, observers)
}

// UpdateQuantity sets the quantity for productID. A quantity of zero or less
// removes the line.
func (s *Store) UpdateQuantity(ctx context.Context, productID int64, quantity int) error {
	s.mu.Lock()
	idx := s.indexOf(productID)
	if idx < 0 {
		s.mu.Unlock()
		if quantity <= 0 {
			return nil
		}
		return pkgerrors.New(pkgerrors.CodeItemNotFound, "item is not in the cart").
			WithDetails(map[string]any{"product_id": productID})
	}

	var event Event
	var observers []Observer
	if quantity <= 0 {
		removed := s.removeLocked(idx)
		event, observers = s.eventLocked(enums.CartEventItemRemoved, removed)
	} else {
		s.items[idx].Quantity = quantity
		event, observers = s.eventLocked(enums.CartEventQuantityUpdated, s.items[idx])
	}
	s.mu.Unlock()

	s.dispatch(ctx, event, observers)
	return nil
}

// Clear empties the cart.
func (s *Store) Clear(ctx context.Context) {
	s.mu.Lock()
	s.items = nil
	event, observers := s.eventLocked(enums.CartEventCleared, Item{})
	s.mu.Unlock()

	s.dispatch(ctx, event, observers)
}

// Restore replaces the cart contents without notifying observers. It is used
// to seed the store from a persisted snapshot.
func (s *Store) Restore(ctx context.Context, items []Item) error {
	if err := validateItems(items); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeValidation, err, "cart snapshot rejected")
	}
	s.mu.Lock()
	s.items = cloneItems(items)
	s.mu.Unlock()
	s.logg.Debug(ctx, "cart restored")
	return nil
}

// Snapshot returns a copy of the cart in insertion order.
func (s *Store) Snapshot() []Item {
	s.mu.Lock()
	defer s.mu.Unlock()
	return cloneItems(s.items)
}

// Len returns the number of distinct lines.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.items)
}

// Quantity returns the units held for productID.
func (s *Store) Quantity(productID int64) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	if idx := s.indexOf(productID); idx >= 0 {
		return s.items[idx].Quantity
	}
	return 0
}

func (s *Store) indexOf(productID int64) int {
	for i, item := range s.items {
		if item.ProductID == productID {
			return i
		}
	}
	return -1
}

func (s *Store) removeLocked(idx int) Item {
	removed := s.items[idx]
	s.items = append(s.items[:idx:idx], s.items[idx+1:]...)
	return removed
}

func (s *Store) eventLocked(kind enums.CartEventKind, item Item) (Event, []Observer) {
	observers := make([]Observer, 0, len(s.order))
	for _, id := range s.order {
		observers = append(observers, s.observers[id])
	}
	return Event{Kind: kind, Item: item, Items: cloneItems(s.items)}, observers
}

func (s *Store) dispatch(ctx context.Context, event Event, observers []Observer) {
	for _, observer := range observers {
		observer(ctx, event)
	}
}

func cloneItems(items []Item) []Item {
	out := make([]Item, len(items))
	copy(out, items)
	return out
}
