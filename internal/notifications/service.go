package notifications

import (
	"context"
	"fmt"
	"io"
	"sync"

	"github.com/angelmondragon/storefront-checkout/internal/cart"
	"github.com/angelmondragon/storefront-checkout/pkg/enums"
	"github.com/angelmondragon/storefront-checkout/pkg/logger"
)

// Notifier is a fire-and-forget message sink. Delivery is best effort and
// never reported back to the caller.
type Notifier interface {
	Notify(ctx context.Context, message string)
}

// NotifierFunc adapts a function to Notifier.
type NotifierFunc func(ctx context.Context, message string)

func (f NotifierFunc) Notify(ctx context.Context, message string) {
	f(ctx, message)
}

type safeNotifier struct {
	next Notifier
	logg *logger.Logger
}

// Safe wraps next so a panicking sink is logged and swallowed.
func Safe(next Notifier, logg *logger.Logger) Notifier {
	if logg == nil {
		logg = logger.Nop()
	}
	return &safeNotifier{next: next, logg: logg}
}

func (s *safeNotifier) Notify(ctx context.Context, message string) {
	if s.next == nil {
		return
	}
	defer func() {
		if r := recover(); r != nil {
			s.logg.Error(ctx, "notifier panicked", fmt.Errorf("%v", r))
		}
	}()
	s.next.Notify(ctx, message)
}

// Log writes each message as an info log line.
func Log(logg *logger.Logger) Notifier {
	return NotifierFunc(func(ctx context.Context, message string) {
		logg.Info(logg.WithField(ctx, "notification", message), "notification posted")
	})
}

type writerNotifier struct {
	mu sync.Mutex
	w  io.Writer
}

// Writer prints each message on its own line, e.g. to a terminal.
func Writer(w io.Writer) Notifier {
	return &writerNotifier{w: w}
}

func (n *writerNotifier) Notify(_ context.Context, message string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	_, _ = fmt.Fprintf(n.w, "» %s\n", message)
}

// Fanout delivers to every notifier in order.
func Fanout(notifiers ...Notifier) Notifier {
	return NotifierFunc(func(ctx context.Context, message string) {
		for _, n := range notifiers {
			if n != nil {
				n.Notify(ctx, message)
			}
		}
	})
}

// CartObserver posts a message when a product is added to or removed from the cart.
func CartObserver(n Notifier) cart.Observer {
	return func(ctx context.Context, event cart.Event) {
		switch event.Kind {
		case enums.CartEventItemAdded:
			n.Notify(ctx, fmt.Sprintf("%s added to cart", event.Item.Title))
		case enums.CartEventItemRemoved:
			n.Notify(ctx, fmt.Sprintf("%s removed from cart", event.Item.Title))
		}
	}
}
