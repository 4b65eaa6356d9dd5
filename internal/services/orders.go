package services

import (
	"context"
	"log"
	"time"

	"github.com/trattorialuna/restaurant-backend/internal/models"
	"github.com/trattorialuna/restaurant-backend/internal/notify"
	"github.com/trattorialuna/restaurant-backend/internal/storage"
)

// OrderService wraps the store with the notification side effects of the
// order lifecycle. The order record is the source of truth: a failed
// notification is logged and never rolls back the write that triggered it.
type OrderService struct {
	store    storage.Store
	notifier notify.Notifier
	catalog  *notify.Catalog
	timeout  time.Duration
}

// NewOrderService creates the service. notifier may be nil when the
// transport is not configured; state changes then happen silently.
func NewOrderService(store storage.Store, notifier notify.Notifier, catalog *notify.Catalog, timeout time.Duration) *OrderService {
	return &OrderService{
		store:    store,
		notifier: notifier,
		catalog:  catalog,
		timeout:  timeout,
	}
}

// Create assigns the next sequence id and persists the order.
func (s *OrderService) Create(ctx context.Context, order *models.Order) (*models.Order, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	id, err := s.store.NextOrderID(ctx)
	if err != nil {
		return nil, err
	}
	order.ID = id
	if order.CreatedAt.IsZero() {
		order.CreatedAt = time.Now()
	}
	return s.store.CreateOrder(ctx, order)
}

// Get returns one order.
func (s *OrderService) Get(ctx context.Context, id uint64) (*models.Order, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()
	return s.store.GetOrder(ctx, id)
}

// List returns orders matching the filter.
func (s *OrderService) List(ctx context.Context, filter models.OrderFilter) ([]*models.Order, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()
	return s.store.ListOrders(ctx, filter)
}

// Update applies a partial update atomically. When the update carries a
// status that maps to a template, exactly one message goes to the phone the
// record held before the change, addressed by its previous name.
func (s *OrderService) Update(ctx context.Context, id uint64, upd *models.OrderUpdate) (*models.Order, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	prev, updated, err := s.store.UpdateOrder(ctx, id, upd)
	if err != nil {
		return nil, err
	}

	if upd.Status != nil && prev.Phone != "" {
		if msg, ok := s.catalog.Status(*upd.Status, prev.Name); ok {
			s.send(prev.Phone, msg)
		}
	}
	return updated, nil
}

// Delete notifies the customer that the record was cancelled, then removes
// it permanently.
func (s *OrderService) Delete(ctx context.Context, id uint64) error {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	order, err := s.store.GetOrder(ctx, id)
	if err != nil {
		return err
	}
	if order.Phone != "" {
		s.send(order.Phone, s.catalog.Cancellation(order.Kind))
	}
	return s.store.DeleteOrder(ctx, id)
}

// send is best-effort: failures are logged and swallowed.
func (s *OrderService) send(phone, body string) {
	if s.notifier == nil {
		log.Printf("📤 Notification skipped (transport not configured): %s", phone)
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()
	if err := s.notifier.Send(ctx, phone, body); err != nil {
		log.Printf("❌ Failed to notify %s: %v", phone, err)
	}
}
