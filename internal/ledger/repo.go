package ledger

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/angelmondragon/storefront-checkout/internal/orders"
	"github.com/angelmondragon/storefront-checkout/internal/pricing"
	"github.com/angelmondragon/storefront-checkout/pkg/db"
	"github.com/angelmondragon/storefront-checkout/pkg/db/models"
	"gorm.io/gorm"
)

// ErrDuplicateSession is returned by Append when the session already has an order.
var ErrDuplicateSession = errors.New("order already recorded for session")

// ErrDuplicateID is returned by Append when another order already holds the ID.
var ErrDuplicateID = errors.New("order id already recorded")

// Repository persists orders. It exposes no update or delete.
type Repository interface {
	Append(ctx context.Context, order orders.Order) error
	ListAll(ctx context.Context) ([]orders.Order, error)
	FindBySession(ctx context.Context, sessionID string) (*orders.Order, error)
	Latest(ctx context.Context) (*orders.Order, error)
}

type repository struct {
	db *gorm.DB
}

// NewRepository returns an order repository bound to the provided database.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) Append(ctx context.Context, order orders.Order) error {
	record := toRecord(order)
	if err := r.db.WithContext(ctx).Create(&record).Error; err != nil {
		switch {
		case db.IsUniqueViolation(err, "session_id"):
			return ErrDuplicateSession
		case db.IsUniqueViolation(err, ""):
			return ErrDuplicateID
		}
		return err
	}
	return nil
}

func (r *repository) ListAll(ctx context.Context) ([]orders.Order, error) {
	var records []models.OrderRecord
	if err := r.db.WithContext(ctx).
		Order("seq ASC").
		Find(&records).Error; err != nil {
		return nil, err
	}
	out := make([]orders.Order, 0, len(records))
	for _, record := range records {
		out = append(out, fromRecord(record))
	}
	return out, nil
}

func (r *repository) FindBySession(ctx context.Context, sessionID string) (*orders.Order, error) {
	return r.first(r.db.WithContext(ctx).Where("session_id = ?", sessionID))
}

func (r *repository) Latest(ctx context.Context) (*orders.Order, error) {
	return r.first(r.db.WithContext(ctx).Order("seq DESC"))
}

func (r *repository) first(query *gorm.DB) (*orders.Order, error) {
	var record models.OrderRecord
	if err := query.Take(&record).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	order := fromRecord(record)
	return &order, nil
}

func toRecord(o orders.Order) models.OrderRecord {
	lines := make([]models.OrderLine, 0, len(o.Items))
	for _, item := range o.Items {
		lines = append(lines, models.OrderLine{
			ProductID:      item.ProductID,
			Title:          item.Title,
			Thumbnail:      item.Thumbnail,
			UnitPriceCents: item.UnitPriceCents,
			Quantity:       item.Quantity,
		})
	}
	return models.OrderRecord{
		ID:          o.ID,
		SessionID:   o.SessionID,
		CreatedAtMs: o.CreatedAt.UnixMilli(),
		Items:       lines,
		Summary: models.OrderSummary{
			Subtotal:        o.Summary.SubtotalCents,
			Shipping:        o.Summary.ShippingCents,
			Tax:             o.Summary.TaxCents,
			Discount:        o.Summary.DiscountCents,
			VoucherDiscount: o.Summary.VoucherDiscountCents,
			Total:           o.Summary.TotalCents,
			Clamped:         o.Summary.Clamped,
		},
		Address:       o.Address,
		PaymentMethod: o.PaymentMethod,
		TotalCents:    o.TotalCents,
		Status:        o.Status,
	}
}

func fromRecord(r models.OrderRecord) orders.Order {
	items := make([]orders.Item, 0, len(r.Items))
	for _, line := range r.Items {
		items = append(items, orders.Item{
			ProductID:      line.ProductID,
			Title:          line.Title,
			Thumbnail:      line.Thumbnail,
			UnitPriceCents: line.UnitPriceCents,
			Quantity:       line.Quantity,
		})
	}
	return orders.Order{
		ID:        r.ID,
		SessionID: r.SessionID,
		CreatedAt: time.UnixMilli(r.CreatedAtMs).UTC(),
		Items:     items,
		Summary: pricing.Summary{
			SubtotalCents:        r.Summary.Subtotal,
			ShippingCents:        r.Summary.Shipping,
			TaxCents:             r.Summary.Tax,
			DiscountCents:        r.Summary.Discount,
			VoucherDiscountCents: r.Summary.VoucherDiscount,
			TotalCents:           r.Summary.Total,
			Clamped:              r.Summary.Clamped,
		},
		Address:       r.Address,
		PaymentMethod: r.PaymentMethod,
		TotalCents:    r.TotalCents,
		Status:        r.Status,
	}
}

type memoryRepository struct {
	mu        sync.RWMutex
	orders    []orders.Order
	bySession map[string]int
	byID      map[string]struct{}
}

// NewMemoryRepository keeps orders in process memory.
func NewMemoryRepository() Repository {
	return &memoryRepository{bySession: map[string]int{}, byID: map[string]struct{}{}}
}

func (m *memoryRepository) Append(_ context.Context, order orders.Order) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, exists := m.bySession[order.SessionID]; exists {
		return ErrDuplicateSession
	}
	if _, exists := m.byID[order.ID]; exists {
		return ErrDuplicateID
	}
	m.bySession[order.SessionID] = len(m.orders)
	m.byID[order.ID] = struct{}{}
	m.orders = append(m.orders, order.Clone())
	return nil
}

func (m *memoryRepository) ListAll(context.Context) ([]orders.Order, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]orders.Order, 0, len(m.orders))
	for _, order := range m.orders {
		out = append(out, order.Clone())
	}
	return out, nil
}

func (m *memoryRepository) FindBySession(_ context.Context, sessionID string) (*orders.Order, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	idx, ok := m.bySession[sessionID]
	if !ok {
		return nil, nil
	}
	order := m.orders[idx].Clone()
	return &order, nil
}

func (m *memoryRepository) Latest(context.Context) (*orders.Order, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if len(m.orders) == 0 {
		return nil, nil
	}
	order := m.orders[len(m.orders)-1].Clone()
	return &order, nil
}
