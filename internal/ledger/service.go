package ledger

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/angelmondragon/storefront-checkout/internal/orders"
	pkgerrors "github.com/angelmondragon/storefront-checkout/pkg/errors"
	"github.com/angelmondragon/storefront-checkout/pkg/logger"
)

// Service records committed orders and lists order history.
type Service interface {
	// AppendOrder stores order and returns the stored copy. At most one order
	// is kept per checkout session; appending again for a session returns the
	// order already recorded for it.
	AppendOrder(ctx context.Context, order orders.Order) (*orders.Order, error)
	// ListOrders returns every order, oldest first.
	ListOrders(ctx context.Context) ([]orders.Order, error)
	FindBySession(ctx context.Context, sessionID string) (*orders.Order, error)
}

type service struct {
	repo Repository
	logg *logger.Logger
	now  func() time.Time

	mu         sync.Mutex
	seeded     bool
	lastMillis int64
}

// NewService wires a ledger service with the provided repository.
func NewService(repo Repository, logg *logger.Logger) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("ledger repository required")
	}
	if logg == nil {
		logg = logger.Nop()
	}
	return &service{repo: repo, logg: logg, now: time.Now}, nil
}

func (s *service) AppendOrder(ctx context.Context, order orders.Order) (*orders.Order, error) {
	if err := validateOrder(order); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	ctx = s.logg.WithSessionID(ctx, order.SessionID)
	existing, err := s.repo.FindBySession(ctx, order.SessionID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodePersistenceFailure, err, "look up session order")
	}
	if existing != nil {
		s.logg.Info(s.logg.WithOrderID(ctx, existing.ID), "order already recorded for session")
		return existing, nil
	}

	if err := s.seed(ctx); err != nil {
		return nil, err
	}

	stored := order.Clone()
	if stored.ID == "" {
		millis := s.nextMillis()
		stored.ID = orders.FormatID(millis)
		if stored.CreatedAt.IsZero() {
			stored.CreatedAt = time.UnixMilli(millis).UTC()
		}
	}
	if stored.CreatedAt.IsZero() {
		stored.CreatedAt = s.now()
	}
	// Rows keep UTC milliseconds; return exactly what a later read yields.
	stored.CreatedAt = time.UnixMilli(stored.CreatedAt.UnixMilli()).UTC()

	if err := s.repo.Append(ctx, stored); err != nil {
		if errors.Is(err, ErrDuplicateSession) {
			if raced, findErr := s.repo.FindBySession(ctx, order.SessionID); findErr == nil && raced != nil {
				return raced, nil
			}
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodePersistenceFailure, err, "append order")
	}

	s.logg.Info(s.logg.WithOrderID(ctx, stored.ID), "order recorded")
	out := stored.Clone()
	return &out, nil
}

func (s *service) ListOrders(ctx context.Context) ([]orders.Order, error) {
	list, err := s.repo.ListAll(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodePersistenceFailure, err, "list orders")
	}
	return list, nil
}

func (s *service) FindBySession(ctx context.Context, sessionID string) (*orders.Order, error) {
	order, err := s.repo.FindBySession(ctx, sessionID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodePersistenceFailure, err, "look up session order")
	}
	if order == nil {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "no order for session")
	}
	return order, nil
}

// seed picks up the newest persisted ID so IDs keep increasing across restarts.
func (s *service) seed(ctx context.Context) error {
	if s.seeded {
		return nil
	}
	latest, err := s.repo.Latest(ctx)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodePersistenceFailure, err, "load latest order")
	}
	if latest != nil {
		if millis, ok := orders.ParseID(latest.ID); ok {
			s.lastMillis = millis
		}
	}
	s.seeded = true
	return nil
}

func (s *service) nextMillis() int64 {
	millis := s.now().UnixMilli()
	if millis <= s.lastMillis {
		millis = s.lastMillis + 1
	}
	s.lastMillis = millis
	return millis
}

func validateOrder(order orders.Order) error {
	details := map[string]string{}
	if strings.TrimSpace(order.SessionID) == "" {
		details["session_id"] = "is required"
	}
	if len(order.Items) == 0 {
		details["items"] = "must not be empty"
	}
	if !order.Status.IsValid() {
		details["status"] = "is invalid"
	}
	if !order.PaymentMethod.IsValid() {
		details["payment_method"] = "is invalid"
	}
	if order.TotalCents < 0 {
		details["total"] = "must not be negative"
	}
	if len(details) > 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "order is incomplete").WithDetails(details)
	}
	return nil
}
