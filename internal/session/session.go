// Package session holds the transient per-sender conversation state and the
// stores it lives in. Sessions are never the source of truth for anything:
// a lost session only costs the customer a restarted dialogue.
package session

import (
	"context"
	"time"
)

// State is the conversation phase of a session. Absence of a session is the
// initial condition; the first message creates one in StateAwaitingKind.
type State string

const (
	StateAwaitingKind      State = "awaiting_kind"
	StateAwaitingName      State = "awaiting_name"
	StateAwaitingPartySize State = "awaiting_party_size"
	StateAwaitingDate      State = "awaiting_date"
	StateAwaitingTime      State = "awaiting_time"
	StateAwaitingItems     State = "awaiting_items"
	StateCancelling        State = "cancelling"
)

// CartLine is one aggregated menu pick, in first-mention order.
type CartLine struct {
	MenuID   int `json:"menu_id"`
	Quantity int `json:"quantity"`
}

// Session is the in-flight dialogue of one sender. Fields fill in as the
// conversation advances; each is set only after passing its validator.
type Session struct {
	Phone     string     `json:"phone"`
	State     State      `json:"state"`
	Kind      string     `json:"kind,omitempty"`
	Name      string     `json:"name,omitempty"`
	PartySize int        `json:"party_size,omitempty"`
	Date      string     `json:"date,omitempty"`
	Time      string     `json:"time,omitempty"`
	Cart      []CartLine `json:"cart,omitempty"`

	// Order ids offered for cancellation, in the order they were listed.
	CancelCandidates []uint64 `json:"cancel_candidates,omitempty"`

	UpdatedAt time.Time `json:"updated_at"`
}

// Store keeps sessions keyed by phone number. Get returns (nil, nil) for an
// absent or expired session. Implementations expire abandoned sessions after
// a TTL so the set never grows unboundedly.
type Store interface {
	Get(ctx context.Context, phone string) (*Session, error)
	Put(ctx context.Context, s *Session) error
	Delete(ctx context.Context, phone string) error
}
