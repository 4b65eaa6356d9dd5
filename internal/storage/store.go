package storage

import (
	"context"
	"errors"

	"github.com/trattorialuna/restaurant-backend/internal/models"
)

// ErrNotFound is returned for operations on an order id that does not exist.
var ErrNotFound = errors.New("order not found")

// Store defines the interface for order persistence.
//
// UpdateOrder has find-and-modify semantics: the update is applied
// atomically and both the pre-update snapshot and the post-update record
// are returned, so callers can notify the customer the record belonged to
// before the change. NextOrderID increments the shared sequence counter as
// a single atomic operation; two concurrent calls never observe the same
// value.
type Store interface {
	NextOrderID(ctx context.Context) (uint64, error)

	CreateOrder(ctx context.Context, order *models.Order) (*models.Order, error)
	GetOrder(ctx context.Context, id uint64) (*models.Order, error)
	UpdateOrder(ctx context.Context, id uint64, upd *models.OrderUpdate) (prev, updated *models.Order, err error)
	DeleteOrder(ctx context.Context, id uint64) error
	ListOrders(ctx context.Context, filter models.OrderFilter) ([]*models.Order, error)
}

// applyUpdate copies the non-nil fields of upd onto o. Phone, ID and
// CreatedAt are never touched.
func applyUpdate(o *models.Order, upd *models.OrderUpdate) {
	if upd.Name != nil {
		o.Name = *upd.Name
	}
	if upd.Time != nil {
		o.Time = *upd.Time
	}
	if upd.Date != nil {
		o.Date = *upd.Date
	}
	if upd.PartySize != nil {
		o.PartySize = *upd.PartySize
	}
	if upd.Items != nil {
		o.Items = append([]string(nil), (*upd.Items)...)
	}
	if upd.Status != nil {
		o.Status = *upd.Status
	}
}

// matches reports whether o passes every set field of the filter.
func matches(o *models.Order, f models.OrderFilter) bool {
	if f.Phone != "" && o.Phone != f.Phone {
		return false
	}
	if f.Kind != "" && o.Kind != f.Kind {
		return false
	}
	if f.Status != "" && o.Status != f.Status {
		return false
	}
	if f.Date != "" && o.Date != f.Date {
		return false
	}
	if f.CreatedOn != nil {
		y1, m1, d1 := o.CreatedAt.Date()
		y2, m2, d2 := f.CreatedOn.Date()
		if y1 != y2 || m1 != m2 || d1 != d2 {
			return false
		}
	}
	return true
}

// cloneOrder returns an independent copy so callers never alias store state.
func cloneOrder(o *models.Order) *models.Order {
	c := *o
	c.Items = append([]string(nil), o.Items...)
	return &c
}
