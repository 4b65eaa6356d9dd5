package storage

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/trattorialuna/restaurant-backend/internal/models"
)

// MemoryStore holds all data in memory, for tests and local development.
type MemoryStore struct {
	mu      sync.RWMutex
	orders  map[uint64]*models.Order
	counter uint64
}

// NewMemoryStore creates a new in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		orders: make(map[uint64]*models.Order),
	}
}

// NextOrderID issues the next sequence id. The counter lives under the same
// lock as the rest of the store, so concurrent callers always see distinct
// values.
func (m *MemoryStore) NextOrderID(ctx context.Context) (uint64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.counter++
	return m.counter, nil
}

func (m *MemoryStore) CreateOrder(ctx context.Context, order *models.Order) (*models.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if order.CreatedAt.IsZero() {
		order.CreatedAt = time.Now()
	}
	m.orders[order.ID] = cloneOrder(order)
	return cloneOrder(order), nil
}

func (m *MemoryStore) GetOrder(ctx context.Context, id uint64) (*models.Order, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	order, exists := m.orders[id]
	if !exists {
		return nil, ErrNotFound
	}
	return cloneOrder(order), nil
}

func (m *MemoryStore) UpdateOrder(ctx context.Context, id uint64, upd *models.OrderUpdate) (*models.Order, *models.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	order, exists := m.orders[id]
	if !exists {
		return nil, nil, ErrNotFound
	}

	prev := cloneOrder(order)
	applyUpdate(order, upd)
	return prev, cloneOrder(order), nil
}

func (m *MemoryStore) DeleteOrder(ctx context.Context, id uint64) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.orders[id]; !exists {
		return ErrNotFound
	}
	delete(m.orders, id)
	return nil
}

func (m *MemoryStore) ListOrders(ctx context.Context, filter models.OrderFilter) ([]*models.Order, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var results []*models.Order
	for _, order := range m.orders {
		if matches(order, filter) {
			results = append(results, cloneOrder(order))
		}
	}
	sort.Slice(results, func(i, j int) bool { return results[i].ID < results[j].ID })
	return results, nil
}
