package models

// Counter is the persisted sequence document behind order id generation.
// A single row named "orders" holds the last issued id; it is incremented
// atomically in the store, never read-then-written from application code.
type Counter struct {
	Name  string `json:"name" gorm:"primaryKey"`
	Value uint64 `json:"value"`
}

// CounterOrders is the name of the order id sequence row.
const CounterOrders = "orders"
