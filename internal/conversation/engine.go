// Package conversation drives the per-sender dialogue that turns WhatsApp
// messages into persisted reservations and takeaway orders.
package conversation

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/trattorialuna/restaurant-backend/internal/config"
	"github.com/trattorialuna/restaurant-backend/internal/menu"
	"github.com/trattorialuna/restaurant-backend/internal/models"
	"github.com/trattorialuna/restaurant-backend/internal/session"
	"github.com/trattorialuna/restaurant-backend/internal/storage"
	"github.com/trattorialuna/restaurant-backend/internal/validate"
)

// Engine interprets each inbound message against the sender's session,
// validates, transitions, and persists a fully formed order on completion.
// Messages from the same phone are serialized; different phones proceed in
// parallel.
type Engine struct {
	cfg      *config.Config
	sessions session.Store
	store    storage.Store
	now      func() time.Time

	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

// NewEngine creates the engine.
func NewEngine(cfg *config.Config, sessions session.Store, store storage.Store) *Engine {
	return &Engine{
		cfg:      cfg,
		sessions: sessions,
		store:    store,
		now:      time.Now,
		locks:    make(map[string]*sync.Mutex),
	}
}

// WithClock replaces the wall clock, for tests.
func (e *Engine) WithClock(now func() time.Time) *Engine {
	e.now = now
	return e
}

// lockFor returns the mutex serializing one sender's transitions.
func (e *Engine) lockFor(phone string) *sync.Mutex {
	e.mu.Lock()
	defer e.mu.Unlock()
	l, ok := e.locks[phone]
	if !ok {
		l = &sync.Mutex{}
		e.locks[phone] = l
	}
	return l
}

// HandleMessage processes one inbound message and returns the reply text.
// A non-nil error means the store was unreachable mid-transition; the
// session is left unchanged so the sender's next attempt retries the same
// step.
func (e *Engine) HandleMessage(ctx context.Context, from, body string) (string, error) {
	phone := strings.TrimPrefix(from, "whatsapp:")

	lock := e.lockFor(phone)
	lock.Lock()
	defer lock.Unlock()

	ctx, cancel := context.WithTimeout(ctx, e.cfg.CallTimeout)
	defer cancel()

	text := strings.ToLower(strings.TrimSpace(body))

	// Keyword preemption: a greeting, the card, or a cancellation request
	// wins over whatever state the session is in.
	switch {
	case containsAny(text, "hola", "buenas", "hello"):
		if err := e.sessions.Put(ctx, &session.Session{Phone: phone, State: session.StateAwaitingKind}); err != nil {
			return "", err
		}
		return greetingText(e.cfg.RestaurantName, e.cfg.BusinessHours), nil

	case containsAny(text, "menú", "menu", "carta"):
		return menu.Listing(), nil

	case strings.Contains(text, "cancelar"):
		return e.startCancellation(ctx, phone)
	}

	sess, err := e.sessions.Get(ctx, phone)
	if err != nil {
		return "", err
	}
	if sess == nil {
		return fallbackText, nil
	}

	switch sess.State {
	case session.StateAwaitingKind:
		return e.handleKind(ctx, sess, text)
	case session.StateAwaitingName:
		return e.handleName(ctx, sess, body)
	case session.StateAwaitingPartySize:
		return e.handlePartySize(ctx, sess, text)
	case session.StateAwaitingDate:
		return e.handleDate(ctx, sess, text)
	case session.StateAwaitingTime:
		return e.handleTime(ctx, sess, text)
	case session.StateAwaitingItems:
		return e.handleItems(ctx, sess, text)
	case session.StateCancelling:
		return e.handleCancelChoice(ctx, sess, text)
	default:
		return fallbackText, nil
	}
}

func (e *Engine) handleKind(ctx context.Context, sess *session.Session, text string) (string, error) {
	switch {
	case strings.Contains(text, "reserva"):
		sess.Kind = models.KindReservation
	case containsAny(text, "pedido", "llevar", "encargar"):
		sess.Kind = models.KindTakeaway
	default:
		return kindPromptText, nil
	}
	sess.State = session.StateAwaitingName
	if err := e.sessions.Put(ctx, sess); err != nil {
		return "", err
	}
	return namePromptText, nil
}

func (e *Engine) handleName(ctx context.Context, sess *session.Session, body string) (string, error) {
	name, err := validate.Name(body)
	if err != nil {
		return nameInvalidText, nil
	}
	sess.Name = name
	if sess.Kind == models.KindReservation {
		sess.State = session.StateAwaitingPartySize
	} else {
		sess.State = session.StateAwaitingTime
	}
	if err := e.sessions.Put(ctx, sess); err != nil {
		return "", err
	}
	if sess.State == session.StateAwaitingPartySize {
		return partyPromptText, nil
	}
	return timePromptText(e.cfg.BusinessHours), nil
}

func (e *Engine) handlePartySize(ctx context.Context, sess *session.Session, text string) (string, error) {
	size, err := validate.PartySize(text, e.cfg.MaxPartySize)
	if err != nil {
		return partyInvalidText(e.cfg.MaxPartySize), nil
	}
	sess.PartySize = size
	sess.State = session.StateAwaitingDate
	if err := e.sessions.Put(ctx, sess); err != nil {
		return "", err
	}
	return datePromptText, nil
}

func (e *Engine) handleDate(ctx context.Context, sess *session.Session, text string) (string, error) {
	date, err := validate.Date(text, e.now())
	if err != nil {
		return dateInvalidText, nil
	}
	sess.Date = date
	sess.State = session.StateAwaitingTime
	if err := e.sessions.Put(ctx, sess); err != nil {
		return "", err
	}
	return timePromptText(e.cfg.BusinessHours), nil
}

func (e *Engine) handleTime(ctx context.Context, sess *session.Session, text string) (string, error) {
	now := e.now()
	// Takeaway pickups are always for today; reservations only when the
	// chosen date is today.
	sameDay := sess.Kind == models.KindTakeaway || sess.Date == now.Format(models.DateLayout)

	t, err := validate.TimeOfDay(text, e.cfg.BusinessHours, now, sameDay)
	if err != nil {
		return timeInvalidText(e.cfg.BusinessHours), nil
	}
	sess.Time = t

	if sess.Kind == models.KindReservation {
		order, err := e.persist(ctx, sess)
		if err != nil {
			return "", err
		}
		if err := e.sessions.Delete(ctx, sess.Phone); err != nil {
			return reservationConfirmText(order), nil
		}
		return reservationConfirmText(order), nil
	}

	sess.State = session.StateAwaitingItems
	if err := e.sessions.Put(ctx, sess); err != nil {
		return "", err
	}
	return itemsPromptText(), nil
}

func (e *Engine) handleItems(ctx context.Context, sess *session.Session, text string) (string, error) {
	picks := menu.ParseSelection(text)
	for _, p := range picks {
		sess.Cart = append(sess.Cart, session.CartLine{MenuID: p.ID, Quantity: p.Quantity})
	}

	order, err := e.persist(ctx, sess)
	if err != nil {
		return "", err
	}
	if err := e.sessions.Delete(ctx, sess.Phone); err != nil {
		return takeawayConfirmText(order), nil
	}
	return takeawayConfirmText(order), nil
}

// persist assigns the next sequence id and writes the completed flow as an
// order. The session is only removed by the caller after this succeeds.
func (e *Engine) persist(ctx context.Context, sess *session.Session) (*models.Order, error) {
	id, err := e.store.NextOrderID(ctx)
	if err != nil {
		return nil, err
	}

	order := &models.Order{
		ID:        id,
		Phone:     sess.Phone,
		Kind:      sess.Kind,
		Name:      sess.Name,
		Time:      sess.Time,
		CreatedAt: e.now(),
	}
	if sess.Kind == models.KindReservation {
		order.Date = sess.Date
		order.PartySize = sess.PartySize
	} else {
		order.Status = models.StatusPending
		picks := make([]menu.Pick, 0, len(sess.Cart))
		for _, line := range sess.Cart {
			name, _ := menu.NameByID(line.MenuID)
			picks = append(picks, menu.Pick{ID: line.MenuID, Name: name, Quantity: line.Quantity})
		}
		order.Items = menu.FormatPicks(picks)
	}

	return e.store.CreateOrder(ctx, order)
}

// startCancellation lists the sender's cancellable orders and enters the
// cancellation sub-flow, or reports there is nothing to cancel.
func (e *Engine) startCancellation(ctx context.Context, phone string) (string, error) {
	orders, err := e.store.ListOrders(ctx, models.OrderFilter{Phone: phone})
	if err != nil {
		return "", err
	}

	now := e.now()
	var candidates []uint64
	var lines []string
	for _, o := range orders {
		if !e.cancellable(o, now) {
			continue
		}
		candidates = append(candidates, o.ID)
		n := len(candidates)
		if o.IsReservation() {
			lines = append(lines, fmt.Sprintf("%d. Reserva a nombre de %s – %s a las %s", n, o.Name, o.Date, o.Time))
		} else {
			lines = append(lines, fmt.Sprintf("%d. Pedido a nombre de %s – recogida a las %s", n, o.Name, o.Time))
		}
	}

	if len(candidates) == 0 {
		return nothingToCancelText, nil
	}

	sess := &session.Session{
		Phone:            phone,
		State:            session.StateCancelling,
		CancelCandidates: candidates,
	}
	if err := e.sessions.Put(ctx, sess); err != nil {
		return "", err
	}
	return cancelListText(lines), nil
}

// cancellable applies the eligibility policy: reservations whose date has
// not passed, takeaway orders on their creation day (or always, when the
// stale-takeaway policy allows it).
func (e *Engine) cancellable(o *models.Order, now time.Time) bool {
	if o.IsReservation() {
		d, err := time.ParseInLocation(models.DateLayout, o.Date, now.Location())
		if err != nil {
			return false
		}
		today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
		return !d.Before(today)
	}
	if e.cfg.CancelStaleTakeaway {
		return true
	}
	y1, m1, d1 := o.CreatedAt.Date()
	y2, m2, d2 := now.Date()
	return y1 == y2 && m1 == m2 && d1 == d2
}

func (e *Engine) handleCancelChoice(ctx context.Context, sess *session.Session, text string) (string, error) {
	idx, err := strconv.Atoi(strings.TrimSpace(text))
	if err != nil || idx < 1 || idx > len(sess.CancelCandidates) {
		if err := e.sessions.Delete(ctx, sess.Phone); err != nil {
			return "", err
		}
		return cancelInvalidText, nil
	}

	id := sess.CancelCandidates[idx-1]
	order, err := e.store.GetOrder(ctx, id)
	if errors.Is(err, storage.ErrNotFound) {
		// Deleted from the admin side since the list was offered.
		if err := e.sessions.Delete(ctx, sess.Phone); err != nil {
			return "", err
		}
		return cancelInvalidText, nil
	}
	if err != nil {
		return "", err
	}

	if err := e.store.DeleteOrder(ctx, id); err != nil && !errors.Is(err, storage.ErrNotFound) {
		return "", err
	}
	if err := e.sessions.Delete(ctx, sess.Phone); err != nil {
		return cancelDoneText(order.Kind), nil
	}
	return cancelDoneText(order.Kind), nil
}

func containsAny(s string, subs ...string) bool {
	for _, sub := range subs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}
