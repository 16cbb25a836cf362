package cart

import (
	"context"
	"math"
	"math/rand"
	"testing"

	"github.com/angelmondragon/storefront-checkout/internal/catalog"
	"github.com/angelmondragon/storefront-checkout/pkg/enums"
	pkgerrors "github.com/angelmondragon/storefront-checkout/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	apple = catalog.Product{ID: 1, Title: "Apple", Thumbnail: "apple.png", Price: 1.99}
	bread = catalog.Product{ID: 2, Title: "Bread", Thumbnail: "bread.png", Price: 3.5}
)

func TestAddItemMergesByProduct(t *testing.T) {
	ctx := context.Background()
	store := NewStore(nil)

	require.NoError(t, store.AddItem(ctx, apple, 2))
	require.NoError(t, store.AddItem(ctx, bread, 1))
	require.NoError(t, store.AddItem(ctx, apple, 3))

	items := store.Snapshot()
	require.Len(t, items, 2)
	assert.Equal(t, int64(1), items[0].ProductID)
	assert.Equal(t, 5, items[0].Quantity)
	assert.Equal(t, int64(199), items[0].UnitPriceCents)
	assert.Equal(t, int64(2), items[1].ProductID)
}

func TestAddItemKeepsFirstPriceSnapshot(t *testing.T) {
	ctx := context.Background()
	store := NewStore(nil)
	require.NoError(t, store.AddItem(ctx, apple, 1))

	repriced := apple
	repriced.Price = 9.99
	require.NoError(t, store.AddItem(ctx, repriced, 1))

	items := store.Snapshot()
	require.Len(t, items, 1)
	assert.Equal(t, int64(199), items[0].UnitPriceCents)
	assert.Equal(t, 2, items[0].Quantity)
}

func TestAddItemRejectsNonPositiveQuantity(t *testing.T) {
	ctx := context.Background()
	store := NewStore(nil)
	notified := 0
	store.Subscribe(func(context.Context, Event) { notified++ })

	for _, qty := range []int{0, -3} {
		err := store.AddItem(ctx, apple, qty)
		require.Error(t, err)
		assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeInvalidQuantity))
	}
	assert.Equal(t, 0, store.Len())
	assert.Equal(t, 0, notified)
}

func TestAddItemRejectsQuantityOverflow(t *testing.T) {
	ctx := context.Background()
	store := NewStore(nil)
	require.NoError(t, store.AddItem(ctx, apple, math.MaxInt))

	notified := 0
	store.Subscribe(func(context.Context, Event) { notified++ })
	err := store.AddItem(ctx, apple, 1)
	require.Error(t, err)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeInvalidQuantity))

	items := store.Snapshot()
	require.Len(t, items, 1)
	assert.Equal(t, math.MaxInt, items[0].Quantity)
	assert.Equal(t, 0, notified)

	// the lock must be released on the rejected path
	require.NoError(t, store.AddItem(ctx, bread, 1))
}

func TestUpdateQuantity(t *testing.T) {
	ctx := context.Background()
	store := NewStore(nil)
	require.NoError(t, store.AddItem(ctx, apple, 1))

	require.NoError(t, store.UpdateQuantity(ctx, apple.ID, 4))
	assert.Equal(t, 4, store.Quantity(apple.ID))

	require.NoError(t, store.UpdateQuantity(ctx, apple.ID, 0))
	assert.Equal(t, 0, store.Len())

	err := store.UpdateQuantity(ctx, bread.ID, 2)
	require.Error(t, err)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeItemNotFound))

	require.NoError(t, store.UpdateQuantity(ctx, bread.ID, -1))
}

func TestRemoveItemAbsentIsNoop(t *testing.T) {
	ctx := context.Background()
	store := NewStore(nil)
	events := 0
	store.Subscribe(func(context.Context, Event) { events++ })

	store.RemoveItem(ctx, 42)
	assert.Equal(t, 0, events)

	require.NoError(t, store.AddItem(ctx, apple, 1))
	store.RemoveItem(ctx, apple.ID)
	assert.Equal(t, 0, store.Len())
	assert.Equal(t, 2, events)
}

func TestSnapshotIsACopy(t *testing.T) {
	ctx := context.Background()
	store := NewStore(nil)
	require.NoError(t, store.AddItem(ctx, apple, 1))

	items := store.Snapshot()
	items[0].Quantity = 99
	assert.Equal(t, 1, store.Quantity(apple.ID))
}

func TestObserversSeeCompletedMutation(t *testing.T) {
	ctx := context.Background()
	store := NewStore(nil)

	var got []Event
	unsubscribe := store.Subscribe(func(_ context.Context, event Event) {
		// the store must be readable from inside an observer
		assert.Equal(t, len(event.Items), store.Len())
		got = append(got, event)
	})

	require.NoError(t, store.AddItem(ctx, apple, 2))
	require.NoError(t, store.UpdateQuantity(ctx, apple.ID, 3))
	store.RemoveItem(ctx, apple.ID)
	store.Clear(ctx)

	require.Len(t, got, 4)
	assert.Equal(t, enums.CartEventItemAdded, got[0].Kind)
	assert.Equal(t, 2, got[0].Item.Quantity)
	assert.Equal(t, enums.CartEventQuantityUpdated, got[1].Kind)
	assert.Equal(t, 3, got[1].Item.Quantity)
	assert.Equal(t, enums.CartEventItemRemoved, got[2].Kind)
	assert.Equal(t, "Apple", got[2].Item.Title)
	assert.Equal(t, enums.CartEventCleared, got[3].Kind)
	assert.Empty(t, got[3].Items)

	unsubscribe()
	unsubscribe()
	require.NoError(t, store.AddItem(ctx, bread, 1))
	assert.Len(t, got, 4)
}

func TestRestore(t *testing.T) {
	ctx := context.Background()
	store := NewStore(nil)
	events := 0
	store.Subscribe(func(context.Context, Event) { events++ })

	require.NoError(t, store.Restore(ctx, []Item{
		{ProductID: 1, Title: "Apple", UnitPriceCents: 199, Quantity: 2},
		{ProductID: 2, Title: "Bread", UnitPriceCents: 350, Quantity: 1},
	}))
	assert.Equal(t, 2, store.Len())
	assert.Equal(t, 0, events)

	err := store.Restore(ctx, []Item{
		{ProductID: 1, Quantity: 1},
		{ProductID: 1, Quantity: 2},
	})
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))

	err = store.Restore(ctx, []Item{{ProductID: 3, Quantity: 0}})
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))
	assert.Equal(t, 2, store.Len())
}

func TestRandomMutationsPreserveInvariants(t *testing.T) {
	ctx := context.Background()
	store := NewStore(nil)
	rng := rand.New(rand.NewSource(7))
	products := []catalog.Product{apple, bread, {ID: 3, Price: 0.1}, {ID: 4, Price: 12}}

	for i := 0; i < 2000; i++ {
		p := products[rng.Intn(len(products))]
		switch rng.Intn(5) {
		case 0, 1:
			_ = store.AddItem(ctx, p, rng.Intn(5)-1)
		case 2:
			_ = store.UpdateQuantity(ctx, p.ID, rng.Intn(6)-2)
		case 3:
			store.RemoveItem(ctx, p.ID)
		case 4:
			if rng.Intn(20) == 0 {
				store.Clear(ctx)
			}
		}

		seen := map[int64]bool{}
		for _, item := range store.Snapshot() {
			if seen[item.ProductID] {
				t.Fatalf("step %d: duplicate line for product %d", i, item.ProductID)
			}
			seen[item.ProductID] = true
			if item.Quantity < 1 {
				t.Fatalf("step %d: product %d has quantity %d", i, item.ProductID, item.Quantity)
			}
		}
	}
}
