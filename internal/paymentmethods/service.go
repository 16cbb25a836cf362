package paymentmethods

import (
	"context"
	"time"

	"github.com/angelmondragon/storefront-checkout/internal/orders"
	pkgerrors "github.com/angelmondragon/storefront-checkout/pkg/errors"
	"github.com/angelmondragon/storefront-checkout/pkg/logger"
)

// OfflineAuthorizer approves any method that validates. No funds move; it
// stands in for a real gateway.
type OfflineAuthorizer struct {
	logg *logger.Logger
	now  func() time.Time
}

// NewOfflineAuthorizer builds the default authorizer. A nil logger discards output.
func NewOfflineAuthorizer(logg *logger.Logger) *OfflineAuthorizer {
	if logg == nil {
		logg = logger.Nop()
	}
	return &OfflineAuthorizer{logg: logg, now: time.Now}
}

// Authorize re-validates method for order.
func (a *OfflineAuthorizer) Authorize(ctx context.Context, order *orders.Order, method Method) error {
	if order == nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "order is required")
	}
	if method == nil {
		return pkgerrors.New(pkgerrors.CodeInvalidPayment, "payment method is required")
	}
	if err := method.Validate(a.now()); err != nil {
		return err
	}
	ctx = a.logg.WithFields(ctx, map[string]any{
		"payment_method": method.Kind().String(),
		"total_cents":    order.TotalCents,
	})
	a.logg.Info(ctx, "payment authorized offline")
	return nil
}
