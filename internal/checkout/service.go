package checkout

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/angelmondragon/storefront-checkout/internal/address"
	"github.com/angelmondragon/storefront-checkout/internal/cart"
	"github.com/angelmondragon/storefront-checkout/internal/notifications"
	"github.com/angelmondragon/storefront-checkout/internal/orders"
	"github.com/angelmondragon/storefront-checkout/internal/paymentmethods"
	"github.com/angelmondragon/storefront-checkout/internal/pricing"
	"github.com/angelmondragon/storefront-checkout/internal/vouchers"
	"github.com/angelmondragon/storefront-checkout/pkg/enums"
	pkgerrors "github.com/angelmondragon/storefront-checkout/pkg/errors"
	"github.com/angelmondragon/storefront-checkout/pkg/logger"
	"github.com/angelmondragon/storefront-checkout/pkg/types"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type cartStore interface {
	Snapshot() []cart.Item
	Clear(ctx context.Context)
}

type addressBook interface {
	List(ctx context.Context) ([]types.Address, error)
	MostRecent(ctx context.Context) (*types.Address, error)
	Remember(ctx context.Context, addr types.Address) (types.Address, error)
}

type orderLedger interface {
	AppendOrder(ctx context.Context, order orders.Order) (*orders.Order, error)
}

type voucherLookup interface {
	Lookup(code string) (vouchers.Voucher, error)
}

type commitRecorder interface {
	ObserveCommit(totalCents int64, duration time.Duration)
	IncCommitFailure(code string)
}

// PaymentAuthorizer is the gateway capability consulted before an order is recorded.
type PaymentAuthorizer interface {
	Authorize(ctx context.Context, order *orders.Order, method paymentmethods.Method) error
}

// Params groups the collaborators of a checkout session. Addresses, Ledger,
// Authorizer and Vouchers are called with the session lock held and must not
// call back into the session. Cart observers and the Notifier run unlocked.
type Params struct {
	// SessionID identifies the session; a random ID is generated when empty.
	SessionID  string
	Cart       cartStore
	Addresses  addressBook
	Ledger     orderLedger
	Authorizer PaymentAuthorizer
	Vouchers   voucherLookup
	Policies   pricing.Policies
	Notifier   notifications.Notifier
	Metrics    commitRecorder
	Logger     *logger.Logger
	Now        func() time.Time
}

// PaymentInput is one edit of the payment step. An empty VoucherCode removes
// any applied voucher.
type PaymentInput struct {
	Method      paymentmethods.Method
	VoucherCode string
}

// State is a read-only view of a session.
type State struct {
	SessionID       string
	Step            enums.CheckoutStep
	SelectedAddress *types.Address
	PaymentMethod   enums.PaymentMethodType
	PaymentValid    bool
	VoucherCode     string
	Committed       bool
	Order           *orders.Order
}

// Session walks one shopper from address entry to a recorded order. All
// methods are safe for concurrent use; ContinueCheckout commits at most once.
type Session struct {
	id         string
	cart       cartStore
	addresses  addressBook
	ledger     orderLedger
	authorizer PaymentAuthorizer
	vouchers   voucherLookup
	policies   pricing.Policies
	notifier   notifications.Notifier
	metrics    commitRecorder
	logg       *logger.Logger
	now        func() time.Time

	mu           sync.Mutex
	step         enums.CheckoutStep
	selected     *types.Address
	method       paymentmethods.Method
	paymentValid bool
	voucher      *vouchers.Voucher
	committed    bool
	order        *orders.Order
}

// NewSession starts a checkout in AwaitingAddress with the most recently used
// saved address preselected.
func NewSession(ctx context.Context, p Params) (*Session, error) {
	if p.Cart == nil {
		return nil, fmt.Errorf("cart store required")
	}
	if p.Addresses == nil {
		return nil, fmt.Errorf("address book required")
	}
	if p.Ledger == nil {
		return nil, fmt.Errorf("order ledger required")
	}
	if p.Authorizer == nil {
		return nil, fmt.Errorf("payment authorizer required")
	}
	if p.Logger == nil {
		p.Logger = logger.Nop()
	}
	if p.Notifier == nil {
		p.Notifier = notifications.NotifierFunc(func(context.Context, string) {})
	}
	if p.Now == nil {
		p.Now = time.Now
	}
	if strings.TrimSpace(p.SessionID) == "" {
		p.SessionID = uuid.NewString()
	}

	s := &Session{
		id:         p.SessionID,
		cart:       p.Cart,
		addresses:  p.Addresses,
		ledger:     p.Ledger,
		authorizer: p.Authorizer,
		vouchers:   p.Vouchers,
		policies:   p.Policies,
		notifier:   notifications.Safe(p.Notifier, p.Logger),
		metrics:    p.Metrics,
		logg:       p.Logger,
		now:        p.Now,
		step:       enums.CheckoutStepAwaitingAddress,
	}

	ctx = s.logCtx(ctx)
	recent, err := s.addresses.MostRecent(ctx)
	if err != nil {
		s.logg.Error(ctx, "address book unavailable; starting without a saved address", err)
	} else if recent != nil {
		s.selected = recent
	}
	s.logg.Info(ctx, "checkout session started")
	return s, nil
}

// ID returns the session identifier.
func (s *Session) ID() string {
	return s.id
}

// State returns a snapshot of the session.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()

	state := State{
		SessionID:    s.id,
		Step:         s.step,
		PaymentValid: s.paymentValid,
		Committed:    s.committed,
	}
	if s.selected != nil {
		addr := *s.selected
		state.SelectedAddress = &addr
	}
	if s.method != nil {
		state.PaymentMethod = s.method.Kind()
	}
	if s.voucher != nil {
		state.VoucherCode = s.voucher.Code
	}
	if s.order != nil {
		order := s.order.Clone()
		state.Order = &order
	}
	return state
}

// Summary derives the order summary from the live cart and applied voucher.
// Once committed it returns the recorded order's summary.
func (s *Session) Summary() pricing.Summary {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.committed && s.order != nil {
		return s.order.Summary
	}
	return s.summaryLocked(s.cart.Snapshot())
}

// SubmitAddress validates addr, selects it, saves it to the address book and
// advances to AwaitingPayment. An invalid address leaves the session unchanged.
func (s *Session) SubmitAddress(ctx context.Context, addr types.Address) error {
	ctx = s.logCtx(ctx)
	if err := s.submitAddress(ctx, addr); err != nil {
		return err
	}
	s.notifier.Notify(ctx, "Delivery address saved")
	return nil
}

func (s *Session) submitAddress(ctx context.Context, addr types.Address) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.requireOpenLocked(); err != nil {
		return err
	}
	normalized, err := address.Validate(addr)
	if err != nil {
		return err
	}
	s.selectLocked(ctx, normalized)
	return nil
}

// SelectSavedAddress picks entry index of the address book.
func (s *Session) SelectSavedAddress(ctx context.Context, index int) error {
	ctx = s.logCtx(ctx)
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.requireOpenLocked(); err != nil {
		return err
	}
	list, err := s.addresses.List(ctx)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load address book")
	}
	if index < 0 || index >= len(list) {
		return pkgerrors.New(pkgerrors.CodeNotFound, "saved address not found").
			WithDetails(map[string]any{"index": index})
	}
	normalized, err := address.Validate(list[index])
	if err != nil {
		return err
	}
	s.selectLocked(ctx, normalized)
	return nil
}

// ClearAddress drops the selected address without changing the step, e.g.
// after the entry was deleted elsewhere.
func (s *Session) ClearAddress(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.requireOpenLocked(); err != nil {
		return err
	}
	s.selected = nil
	s.logg.Debug(s.logCtx(ctx), "selected address cleared")
	return nil
}

// UpdatePayment records a payment edit. The method is always stored and its
// validity recomputed; an invalid method is reported with CodeInvalidPayment.
// An unknown voucher rejects the whole edit and leaves the session unchanged.
func (s *Session) UpdatePayment(ctx context.Context, input PaymentInput) error {
	ctx = s.logCtx(ctx)
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.requireOpenLocked(); err != nil {
		return err
	}
	if s.step != enums.CheckoutStepAwaitingPayment {
		return pkgerrors.New(pkgerrors.CodeStateConflict, "delivery address must be confirmed before payment").
			WithDetails(map[string]string{"step": s.step.String()})
	}

	var voucher *vouchers.Voucher
	if code := strings.TrimSpace(input.VoucherCode); code != "" {
		if s.vouchers == nil {
			return pkgerrors.New(pkgerrors.CodeValidation, "vouchers are not accepted").
				WithDetails(map[string]string{"voucher_code": "is not recognized"})
		}
		v, err := s.vouchers.Lookup(code)
		if err != nil {
			return err
		}
		voucher = &v
	}

	s.voucher = voucher
	s.method = input.Method
	if input.Method == nil {
		s.paymentValid = false
		return pkgerrors.New(pkgerrors.CodeInvalidPayment, "payment method is required")
	}
	if err := input.Method.Validate(s.now()); err != nil {
		s.paymentValid = false
		return err
	}
	s.paymentValid = true
	s.logg.Debug(s.logg.WithField(ctx, "payment_method", input.Method.Kind().String()), "payment method accepted")
	return nil
}

// ContinueCheckout commits the order. Preconditions are checked in order:
// the session must be awaiting payment, an address must be selected, the
// payment must be valid and the cart must not be empty. On success the order
// is recorded, the cart cleared and the session marked committed. Calling it
// again after a commit returns the same order and does nothing else. A
// failure leaves the session and the cart untouched.
func (s *Session) ContinueCheckout(ctx context.Context) (*orders.Order, error) {
	ctx = s.logCtx(ctx)
	started := s.now()
	stored, summary, fresh, err := s.commit(ctx)
	if err != nil {
		s.recordFailure(ctx, err)
		return nil, err
	}
	if !fresh {
		return stored, nil
	}

	// Cart observers run outside the session lock and may read the session.
	s.cart.Clear(ctx)

	ctx = s.logg.WithOrderID(ctx, stored.ID)
	if summary.Clamped {
		s.logg.Warn(ctx, "discounts exceeded order value; total clamped to zero")
	}
	if s.metrics != nil {
		s.metrics.ObserveCommit(stored.TotalCents, s.now().Sub(started))
	}
	s.logg.Info(ctx, "order committed")
	s.notifier.Notify(ctx, fmt.Sprintf("Order %s placed", stored.ID))
	return stored, nil
}

// commit runs the check-and-set under the session lock. fresh is false when
// the session was already committed.
func (s *Session) commit(ctx context.Context) (order *orders.Order, summary pricing.Summary, fresh bool, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.committed {
		out := s.order.Clone()
		return &out, out.Summary, false, nil
	}
	stored, summary, err := s.commitLocked(ctx)
	if err != nil {
		return nil, summary, false, err
	}
	out := stored.Clone()
	return &out, summary, true, nil
}

func (s *Session) commitLocked(ctx context.Context) (*orders.Order, pricing.Summary, error) {
	if s.step != enums.CheckoutStepAwaitingPayment {
		return nil, pricing.Summary{}, pkgerrors.New(pkgerrors.CodeStateConflict, "checkout is not awaiting payment").
			WithDetails(map[string]string{"step": s.step.String()})
	}
	if s.selected == nil {
		return nil, pricing.Summary{}, pkgerrors.New(pkgerrors.CodeMissingAddress, "no delivery address selected")
	}
	if !s.paymentValid || s.method == nil {
		return nil, pricing.Summary{}, pkgerrors.New(pkgerrors.CodeInvalidPayment, "payment method is missing or invalid")
	}
	items := s.cart.Snapshot()
	if len(items) == 0 {
		return nil, pricing.Summary{}, pkgerrors.New(pkgerrors.CodeValidation, "cart is empty")
	}

	summary := s.summaryLocked(items)
	draft, err := orders.Build(orders.Draft{
		SessionID:     s.id,
		Items:         items,
		Summary:       summary,
		Address:       *s.selected,
		PaymentMethod: s.method.Kind(),
	})
	if err != nil {
		return nil, summary, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "build order")
	}

	if err := s.authorizer.Authorize(ctx, draft, s.method); err != nil {
		if pkgerrors.As(err) != nil {
			return nil, summary, err
		}
		return nil, summary, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "authorize payment")
	}

	stored, err := s.ledger.AppendOrder(ctx, *draft)
	if err != nil {
		if pkgerrors.IsCode(err, pkgerrors.CodePersistenceFailure) {
			return nil, summary, err
		}
		return nil, summary, pkgerrors.Wrap(pkgerrors.CodePersistenceFailure, err, "record order")
	}

	s.committed = true
	s.order = stored
	s.step = enums.CheckoutStepCommitted
	return stored, summary, nil
}

func (s *Session) summaryLocked(items []cart.Item) pricing.Summary {
	voucher := decimal.Zero
	if s.voucher != nil {
		voucher = s.voucher.Discount(pricing.Subtotal(items))
	}
	return pricing.DeriveSummary(items, s.policies, voucher)
}

func (s *Session) selectLocked(ctx context.Context, addr types.Address) {
	if _, err := s.addresses.Remember(ctx, addr); err != nil {
		s.logg.Error(ctx, "address not saved to address book", err)
	}
	s.selected = &addr
	if s.step == enums.CheckoutStepAwaitingAddress {
		s.step = enums.CheckoutStepAwaitingPayment
	}
}

func (s *Session) requireOpenLocked() error {
	if s.committed {
		return pkgerrors.New(pkgerrors.CodeStateConflict, "checkout already committed").
			WithDetails(map[string]string{"step": s.step.String()})
	}
	return nil
}

func (s *Session) recordFailure(ctx context.Context, err error) {
	code := string(pkgerrors.CodeInternal)
	if typed := pkgerrors.As(err); typed != nil {
		code = string(typed.Code())
	}
	if s.metrics != nil {
		s.metrics.IncCommitFailure(code)
	}
	ctx = s.logg.WithField(ctx, "code", code)
	if meta := pkgerrors.MetadataFor(pkgerrors.Code(code)); meta.UserInput {
		s.logg.Info(ctx, "checkout rejected")
		return
	}
	s.logg.Error(ctx, "checkout commit failed", err)
}

func (s *Session) logCtx(ctx context.Context) context.Context {
	return s.logg.WithSessionID(ctx, s.id)
}
