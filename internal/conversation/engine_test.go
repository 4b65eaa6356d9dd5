package conversation

import (
	"context"
	"errors"
	"reflect"
	"strings"
	"testing"
	"time"

	"github.com/trattorialuna/restaurant-backend/internal/config"
	"github.com/trattorialuna/restaurant-backend/internal/models"
	"github.com/trattorialuna/restaurant-backend/internal/session"
	"github.com/trattorialuna/restaurant-backend/internal/storage"
)

const testPhone = "whatsapp:+34911222333"

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	hours, err := config.ParseHours("13:00-16:00,20:00-23:00")
	if err != nil {
		t.Fatal(err)
	}
	return &config.Config{
		RestaurantName: "Trattoria Luna",
		BusinessHours:  hours,
		MaxPartySize:   40,
		SessionTTL:     30 * time.Minute,
		CallTimeout:    5 * time.Second,
	}
}

// testClock is a weekday lunchtime, well before the afternoon slot closes.
func testClock() time.Time {
	return time.Date(2026, time.September, 1, 12, 0, 0, 0, time.Local)
}

func newTestEngine(t *testing.T) (*Engine, storage.Store) {
	t.Helper()
	store := storage.NewMemoryStore()
	sessions := session.NewMemoryStore(30 * time.Minute)
	engine := NewEngine(testConfig(t), sessions, store).WithClock(testClock)
	return engine, store
}

func say(t *testing.T, e *Engine, body string) string {
	t.Helper()
	reply, err := e.HandleMessage(context.Background(), testPhone, body)
	if err != nil {
		t.Fatalf("HandleMessage(%q): %v", body, err)
	}
	return reply
}

func TestTakeawayFlow(t *testing.T) {
	engine, store := newTestEngine(t)

	if reply := say(t, engine, "Hola"); !strings.Contains(reply, "Trattoria Luna") {
		t.Errorf("greeting should name the restaurant: %q", reply)
	}
	if reply := say(t, engine, "pedido"); !strings.Contains(reply, "nombre") {
		t.Errorf("expected the name prompt, got %q", reply)
	}
	if reply := say(t, engine, "juan pérez"); !strings.Contains(reply, "hora") {
		t.Errorf("takeaway skips party size and date, got %q", reply)
	}
	if reply := say(t, engine, "14:00"); !strings.Contains(reply, "carta") {
		t.Errorf("expected the menu listing, got %q", reply)
	}

	reply := say(t, engine, "1, 2, 2")
	if !strings.Contains(reply, "Pedido nº 1") || !strings.Contains(reply, "Juan Pérez") {
		t.Errorf("confirmation should carry the id and the name: %q", reply)
	}

	order, err := store.GetOrder(context.Background(), 1)
	if err != nil {
		t.Fatal(err)
	}
	if order.Kind != models.KindTakeaway || order.Status != models.StatusPending {
		t.Errorf("order = %+v, want a pending takeaway", order)
	}
	if order.Phone != "+34911222333" {
		t.Errorf("phone = %q, want the bare number without the channel prefix", order.Phone)
	}
	if order.Time != "14:00" || order.Name != "Juan Pérez" {
		t.Errorf("order = %+v", order)
	}
	wantItems := []string{"Spaghetti alla Carbonara (x1)", "Pasta al Pomodoro (x2)"}
	if !reflect.DeepEqual(order.Items, wantItems) {
		t.Errorf("items = %v, want %v", order.Items, wantItems)
	}

	// Session is gone once the order is persisted.
	if reply := say(t, engine, "algo más"); reply != fallbackText {
		t.Errorf("after completion: got %q, want the fallback", reply)
	}
}

func TestReservationFlow(t *testing.T) {
	engine, store := newTestEngine(t)

	say(t, engine, "hola")
	say(t, engine, "quiero hacer una reserva")
	if reply := say(t, engine, "María García"); !strings.Contains(reply, "personas") {
		t.Errorf("expected the party-size prompt, got %q", reply)
	}
	if reply := say(t, engine, "4"); !strings.Contains(reply, "DD-MM-YYYY") {
		t.Errorf("expected the date prompt, got %q", reply)
	}
	if reply := say(t, engine, "05-09-2026"); !strings.Contains(reply, "hora") {
		t.Errorf("expected the time prompt, got %q", reply)
	}

	reply := say(t, engine, "21:00")
	if !strings.Contains(reply, "Reserva confirmada") || !strings.Contains(reply, "María García") {
		t.Errorf("got %q", reply)
	}

	order, err := store.GetOrder(context.Background(), 1)
	if err != nil {
		t.Fatal(err)
	}
	if order.Kind != models.KindReservation || order.PartySize != 4 || order.Date != "05-09-2026" || order.Time != "21:00" {
		t.Errorf("order = %+v", order)
	}
	if order.Status != "" {
		t.Errorf("reservations carry no status, got %q", order.Status)
	}
}

func TestInvalidInputsKeepState(t *testing.T) {
	engine, _ := newTestEngine(t)

	say(t, engine, "hola")
	if reply := say(t, engine, "quiero una pizza"); reply != kindPromptText {
		t.Errorf("got %q", reply)
	}
	say(t, engine, "reserva")
	if reply := say(t, engine, "Juan123"); reply != nameInvalidText {
		t.Errorf("got %q", reply)
	}
	say(t, engine, "Juan")
	if reply := say(t, engine, "cincuenta y uno"); !strings.Contains(reply, "entre 1 y 40") {
		t.Errorf("got %q", reply)
	}
	say(t, engine, "4")
	if reply := say(t, engine, "31-08-2026"); reply != dateInvalidText {
		t.Errorf("past date: got %q", reply)
	}
	say(t, engine, "05-09-2026")
	if reply := say(t, engine, "18:00"); !strings.Contains(reply, "Hora no válida") {
		t.Errorf("time outside hours: got %q", reply)
	}
	// The step still accepts a valid value after any number of failures.
	if reply := say(t, engine, "13:00"); !strings.Contains(reply, "Reserva confirmada") {
		t.Errorf("got %q", reply)
	}
}

func TestSameDayReservationRejectsPastTime(t *testing.T) {
	engine, _ := newTestEngine(t)
	// Mid-afternoon: 14:30.
	engine.WithClock(func() time.Time {
		return time.Date(2026, time.September, 1, 14, 30, 0, 0, time.Local)
	})

	say(t, engine, "hola")
	say(t, engine, "reserva")
	say(t, engine, "Juan")
	say(t, engine, "2")
	say(t, engine, "01-09-2026")
	if reply := say(t, engine, "14:00"); !strings.Contains(reply, "Hora no válida") {
		t.Errorf("past time today must be rejected: %q", reply)
	}
	if reply := say(t, engine, "15:00"); !strings.Contains(reply, "Reserva confirmada") {
		t.Errorf("got %q", reply)
	}
}

func TestMenuKeywordAnswersAnytime(t *testing.T) {
	engine, _ := newTestEngine(t)

	if reply := say(t, engine, "menú"); !strings.Contains(reply, "Nuestra carta") {
		t.Errorf("got %q", reply)
	}

	// Mid-flow the keyword answers without losing the session.
	say(t, engine, "hola")
	say(t, engine, "pedido")
	say(t, engine, "carta")
	if reply := say(t, engine, "Juan"); !strings.Contains(reply, "hora") {
		t.Errorf("flow should resume where it was, got %q", reply)
	}
}

func TestFallbackWithoutSession(t *testing.T) {
	engine, _ := newTestEngine(t)
	if reply := say(t, engine, "buenos días quiero comer"); reply != fallbackText {
		t.Errorf("got %q", reply)
	}
}

func TestCancellationFlow(t *testing.T) {
	engine, store := newTestEngine(t)
	ctx := context.Background()

	_, err := store.CreateOrder(ctx, &models.Order{
		ID: 1, Phone: "+34911222333", Kind: models.KindTakeaway,
		Name: "Juan", Time: "14:00", Status: models.StatusPending,
		CreatedAt: testClock(),
	})
	if err != nil {
		t.Fatal(err)
	}
	_, err = store.CreateOrder(ctx, &models.Order{
		ID: 2, Phone: "+34911222333", Kind: models.KindReservation,
		Name: "Juan", Date: "05-09-2026", Time: "21:00",
		CreatedAt: testClock(),
	})
	if err != nil {
		t.Fatal(err)
	}

	reply := say(t, engine, "cancelar")
	if !strings.Contains(reply, "1. Pedido") || !strings.Contains(reply, "2. Reserva") {
		t.Errorf("list should offer both records: %q", reply)
	}

	if reply := say(t, engine, "2"); !strings.Contains(reply, "Reserva cancelada") {
		t.Errorf("got %q", reply)
	}
	if _, err := store.GetOrder(ctx, 2); !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("reservation should be gone, got %v", err)
	}
	if _, err := store.GetOrder(ctx, 1); err != nil {
		t.Errorf("the other record must survive: %v", err)
	}
}

func TestCancellationInvalidChoiceEndsSubFlow(t *testing.T) {
	engine, store := newTestEngine(t)
	ctx := context.Background()

	_, err := store.CreateOrder(ctx, &models.Order{
		ID: 1, Phone: "+34911222333", Kind: models.KindTakeaway,
		Name: "Juan", Time: "14:00", Status: models.StatusPending,
		CreatedAt: testClock(),
	})
	if err != nil {
		t.Fatal(err)
	}

	say(t, engine, "cancelar")
	if reply := say(t, engine, "7"); reply != cancelInvalidText {
		t.Errorf("got %q", reply)
	}
	if _, err := store.GetOrder(ctx, 1); err != nil {
		t.Errorf("nothing should be deleted: %v", err)
	}
	if reply := say(t, engine, "1"); reply != fallbackText {
		t.Errorf("sub-flow must be over, got %q", reply)
	}
}

func TestCancellationEligibility(t *testing.T) {
	engine, store := newTestEngine(t)
	ctx := context.Background()

	// Takeaway from yesterday and a reservation whose date already passed:
	// neither is offered.
	_, err := store.CreateOrder(ctx, &models.Order{
		ID: 1, Phone: "+34911222333", Kind: models.KindTakeaway,
		Name: "Juan", Time: "14:00", Status: models.StatusPending,
		CreatedAt: testClock().AddDate(0, 0, -1),
	})
	if err != nil {
		t.Fatal(err)
	}
	_, err = store.CreateOrder(ctx, &models.Order{
		ID: 2, Phone: "+34911222333", Kind: models.KindReservation,
		Name: "Juan", Date: "31-08-2026", Time: "21:00",
		CreatedAt: testClock().AddDate(0, 0, -2),
	})
	if err != nil {
		t.Fatal(err)
	}

	if reply := say(t, engine, "cancelar"); reply != nothingToCancelText {
		t.Errorf("got %q", reply)
	}
}

func TestCancelStaleTakeawayPolicy(t *testing.T) {
	store := storage.NewMemoryStore()
	sessions := session.NewMemoryStore(30 * time.Minute)
	cfg := testConfig(t)
	cfg.CancelStaleTakeaway = true
	engine := NewEngine(cfg, sessions, store).WithClock(testClock)

	_, err := store.CreateOrder(context.Background(), &models.Order{
		ID: 1, Phone: "+34911222333", Kind: models.KindTakeaway,
		Name: "Juan", Time: "14:00", Status: models.StatusPending,
		CreatedAt: testClock().AddDate(0, 0, -1),
	})
	if err != nil {
		t.Fatal(err)
	}

	reply, err := engine.HandleMessage(context.Background(), testPhone, "cancelar")
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(reply, "1. Pedido") {
		t.Errorf("policy should make the stale takeaway cancellable: %q", reply)
	}
}

type failingStore struct{}

var errStoreDown = errors.New("store down")

func (failingStore) NextOrderID(context.Context) (uint64, error) { return 0, errStoreDown }
func (failingStore) CreateOrder(context.Context, *models.Order) (*models.Order, error) {
	return nil, errStoreDown
}
func (failingStore) GetOrder(context.Context, uint64) (*models.Order, error) {
	return nil, errStoreDown
}
func (failingStore) UpdateOrder(context.Context, uint64, *models.OrderUpdate) (*models.Order, *models.Order, error) {
	return nil, nil, errStoreDown
}
func (failingStore) DeleteOrder(context.Context, uint64) error { return errStoreDown }
func (failingStore) ListOrders(context.Context, models.OrderFilter) ([]*models.Order, error) {
	return nil, errStoreDown
}

func TestStoreFailureSurfacesError(t *testing.T) {
	sessions := session.NewMemoryStore(30 * time.Minute)
	engine := NewEngine(testConfig(t), sessions, failingStore{}).WithClock(testClock)

	if _, err := engine.HandleMessage(context.Background(), testPhone, "cancelar"); !errors.Is(err, errStoreDown) {
		t.Fatalf("got %v, want the store error", err)
	}

	// The greeting never touches the order store, so it still works.
	reply, err := engine.HandleMessage(context.Background(), testPhone, "hola")
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(reply, "Bienvenido") {
		t.Errorf("got %q", reply)
	}
}

func TestPersistFailureKeepsSession(t *testing.T) {
	sessions := session.NewMemoryStore(30 * time.Minute)
	engine := NewEngine(testConfig(t), sessions, failingStore{}).WithClock(testClock)

	say(t, engine, "hola")
	say(t, engine, "pedido")
	say(t, engine, "Juan")
	say(t, engine, "14:00")

	if _, err := engine.HandleMessage(context.Background(), testPhone, "1"); !errors.Is(err, errStoreDown) {
		t.Fatalf("got %v, want the store error", err)
	}

	// The session survived, so the next message retries the same step.
	sess, err := sessions.Get(context.Background(), "+34911222333")
	if err != nil {
		t.Fatal(err)
	}
	if sess == nil || sess.State != session.StateAwaitingItems {
		t.Fatalf("session = %+v, want awaiting_items preserved", sess)
	}
}
