package models

import "time"

// Layouts used everywhere an order date or time is parsed or shown.
const (
	DateLayout = "02-01-2006"
	TimeLayout = "15:04"
)

// Order kinds
const (
	KindReservation = "reservation"
	KindTakeaway    = "takeaway"
)

// Takeaway status values. Status is free-form in the store; only these four
// map to a customer notification.
const (
	StatusPending   = "pending"
	StatusPreparing = "preparing"
	StatusReady     = "ready"
	StatusDelivered = "delivered"
)

// Order represents either a table reservation or a takeaway order.
// ID is assigned once by the sequence counter and never reused.
type Order struct {
	ID    uint64 `json:"id" gorm:"primaryKey;autoIncrement:false"`
	Phone string `json:"phone" gorm:"index"`
	Kind  string `json:"kind"`
	Name  string `json:"name"`
	Time  string `json:"time"` // arrival or pickup time, "HH:MM"

	// Reservation fields
	Date      string `json:"date,omitempty"` // "DD-MM-YYYY"
	PartySize int    `json:"party_size,omitempty"`

	// Takeaway fields
	Items  []string `json:"items,omitempty" gorm:"serializer:json"` // "Name (xN)"
	Status string   `json:"status,omitempty"`

	CreatedAt time.Time `json:"created_at"`
}

// IsReservation reports whether the order is a table reservation.
func (o *Order) IsReservation() bool {
	return o.Kind == KindReservation
}

// PickupDay returns the calendar day a takeaway order is picked up on.
// Takeaway orders carry only a time of day; the day is the creation day.
func (o *Order) PickupDay() time.Time {
	y, m, d := o.CreatedAt.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, o.CreatedAt.Location())
}

// OrderUpdate is a partial update applied atomically by the store. Nil
// fields are left untouched. Phone, ID and CreatedAt are immutable.
type OrderUpdate struct {
	Name      *string   `json:"name"`
	Time      *string   `json:"time"`
	Date      *string   `json:"date"`
	PartySize *int      `json:"party_size"`
	Items     *[]string `json:"items"`
	Status    *string   `json:"status"`
}

// OrderFilter narrows a listing. Zero values match everything.
type OrderFilter struct {
	Phone     string
	Kind      string
	Status    string
	Date      string     // reservation date, "DD-MM-YYYY"
	CreatedOn *time.Time // calendar day of creation
}
