package notifications

import (
	"bytes"
	"context"
	"testing"

	"github.com/angelmondragon/storefront-checkout/internal/cart"
	"github.com/angelmondragon/storefront-checkout/internal/catalog"
	"github.com/angelmondragon/storefront-checkout/pkg/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recorder struct {
	messages []string
}

func (r *recorder) Notify(_ context.Context, message string) {
	r.messages = append(r.messages, message)
}

func TestCartObserverPostsAddAndRemove(t *testing.T) {
	ctx := context.Background()
	rec := &recorder{}
	store := cart.NewStore(nil)
	store.Subscribe(CartObserver(rec))

	bread := catalog.Product{ID: 2, Title: "Bread", Price: 3.5}
	require.NoError(t, store.AddItem(ctx, bread, 1))
	require.NoError(t, store.UpdateQuantity(ctx, bread.ID, 3))
	store.RemoveItem(ctx, bread.ID)
	store.Clear(ctx)

	assert.Equal(t, []string{"Bread added to cart", "Bread removed from cart"}, rec.messages)
}

func TestSafeSwallowsPanics(t *testing.T) {
	var logs bytes.Buffer
	logg := logger.New(logger.Options{ServiceName: "test", Output: &logs})
	panicky := NotifierFunc(func(context.Context, string) { panic("toast failed") })

	assert.NotPanics(t, func() {
		Safe(panicky, logg).Notify(context.Background(), "hello")
	})
	assert.Contains(t, logs.String(), "notifier panicked")

	assert.NotPanics(t, func() {
		Safe(nil, nil).Notify(context.Background(), "hello")
	})
}

func TestWriterAndFanout(t *testing.T) {
	var out bytes.Buffer
	rec := &recorder{}
	Fanout(Writer(&out), nil, rec).Notify(context.Background(), "Order ORD-1 placed")

	assert.Equal(t, "» Order ORD-1 placed\n", out.String())
	assert.Equal(t, []string{"Order ORD-1 placed"}, rec.messages)
}

func TestLogNotifier(t *testing.T) {
	var logs bytes.Buffer
	logg := logger.New(logger.Options{ServiceName: "test", Output: &logs})
	Log(logg).Notify(context.Background(), "Apple added to cart")
	assert.Contains(t, logs.String(), "Apple added to cart")
}
