package storage

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/trattorialuna/restaurant-backend/internal/models"
)

// DatabaseStore persists orders in PostgreSQL through GORM.
type DatabaseStore struct {
	db *gorm.DB
}

// NewDatabaseStore creates a store on top of an open GORM connection.
func NewDatabaseStore(db *gorm.DB) *DatabaseStore {
	return &DatabaseStore{db: db}
}

// NextOrderID bumps the sequence row in a single statement; the database
// serializes concurrent increments, so no two callers get the same value.
func (s *DatabaseStore) NextOrderID(ctx context.Context) (uint64, error) {
	var value uint64
	err := s.db.WithContext(ctx).Raw(
		`INSERT INTO counters (name, value) VALUES (?, 1)
		 ON CONFLICT (name) DO UPDATE SET value = counters.value + 1
		 RETURNING value`,
		models.CounterOrders,
	).Scan(&value).Error
	if err != nil {
		return 0, err
	}
	return value, nil
}

func (s *DatabaseStore) CreateOrder(ctx context.Context, order *models.Order) (*models.Order, error) {
	if order.CreatedAt.IsZero() {
		order.CreatedAt = time.Now()
	}
	if err := s.db.WithContext(ctx).Create(order).Error; err != nil {
		return nil, err
	}
	return order, nil
}

func (s *DatabaseStore) GetOrder(ctx context.Context, id uint64) (*models.Order, error) {
	var order models.Order
	err := s.db.WithContext(ctx).First(&order, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &order, nil
}

// UpdateOrder runs find-and-modify inside a transaction with a row lock, so
// the snapshot it returns is exactly the record the update replaced.
func (s *DatabaseStore) UpdateOrder(ctx context.Context, id uint64, upd *models.OrderUpdate) (*models.Order, *models.Order, error) {
	var prev, updated *models.Order

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var order models.Order
		err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			First(&order, "id = ?", id).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrNotFound
		}
		if err != nil {
			return err
		}

		prev = cloneOrder(&order)
		applyUpdate(&order, upd)
		if err := tx.Save(&order).Error; err != nil {
			return err
		}
		updated = cloneOrder(&order)
		return nil
	})
	if err != nil {
		return nil, nil, err
	}
	return prev, updated, nil
}

func (s *DatabaseStore) DeleteOrder(ctx context.Context, id uint64) error {
	res := s.db.WithContext(ctx).Delete(&models.Order{}, "id = ?", id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *DatabaseStore) ListOrders(ctx context.Context, filter models.OrderFilter) ([]*models.Order, error) {
	q := s.db.WithContext(ctx).Model(&models.Order{})
	if filter.Phone != "" {
		q = q.Where("phone = ?", filter.Phone)
	}
	if filter.Kind != "" {
		q = q.Where("kind = ?", filter.Kind)
	}
	if filter.Status != "" {
		q = q.Where("status = ?", filter.Status)
	}
	if filter.Date != "" {
		q = q.Where("date = ?", filter.Date)
	}
	if filter.CreatedOn != nil {
		day := time.Date(filter.CreatedOn.Year(), filter.CreatedOn.Month(), filter.CreatedOn.Day(),
			0, 0, 0, 0, filter.CreatedOn.Location())
		q = q.Where("created_at >= ? AND created_at < ?", day, day.Add(24*time.Hour))
	}

	var orders []*models.Order
	if err := q.Order("id asc").Find(&orders).Error; err != nil {
		return nil, err
	}
	return orders, nil
}
