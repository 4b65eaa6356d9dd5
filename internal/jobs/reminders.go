// Package jobs holds the scheduled background work: the pre-pickup
// reminder sweep.
package jobs

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/trattorialuna/restaurant-backend/internal/config"
	"github.com/trattorialuna/restaurant-backend/internal/models"
	"github.com/trattorialuna/restaurant-backend/internal/notify"
	"github.com/trattorialuna/restaurant-backend/internal/storage"
)

// ReminderJob sweeps pending takeaway orders and sends one reminder per
// order shortly before its pickup time. Ticks never overlap: if a sweep is
// still running when the next is due, the next one is skipped.
type ReminderJob struct {
	cfg      *config.Config
	store    storage.Store
	notifier notify.Notifier
	catalog  *notify.Catalog
	now      func() time.Time

	scheduler *cron.Cron

	mu       sync.Mutex
	reminded map[uint64]time.Time
}

// NewReminderJob creates the job. It does not start sweeping until Start.
func NewReminderJob(cfg *config.Config, store storage.Store, notifier notify.Notifier, catalog *notify.Catalog) *ReminderJob {
	return &ReminderJob{
		cfg:      cfg,
		store:    store,
		notifier: notifier,
		catalog:  catalog,
		now:      time.Now,
		reminded: make(map[uint64]time.Time),
	}
}

// WithClock replaces the wall clock, for tests.
func (j *ReminderJob) WithClock(now func() time.Time) *ReminderJob {
	j.now = now
	return j
}

// Start schedules the sweep on the configured interval.
func (j *ReminderJob) Start() error {
	j.scheduler = cron.New(cron.WithChain(
		cron.SkipIfStillRunning(cron.DefaultLogger),
	))
	spec := fmt.Sprintf("@every %s", j.cfg.SweepInterval)
	if _, err := j.scheduler.AddFunc(spec, j.Sweep); err != nil {
		return err
	}
	j.scheduler.Start()
	log.Printf("⏰ Reminder sweep started (every %s, lead %s)", j.cfg.SweepInterval, j.cfg.ReminderLead)
	return nil
}

// Stop halts the scheduler; a running sweep finishes first.
func (j *ReminderJob) Stop() {
	if j.scheduler != nil {
		<-j.scheduler.Stop().Done()
	}
	log.Println("⏹️  Reminder sweep stopped")
}

// Sweep runs one tick. A store failure skips the tick; the next interval
// retries. Exported so tests can drive ticks directly.
func (j *ReminderJob) Sweep() {
	now := j.now()
	target := now.Add(j.cfg.ReminderLead)

	ctx, cancel := context.WithTimeout(context.Background(), j.cfg.CallTimeout)
	defer cancel()

	orders, err := j.store.ListOrders(ctx, models.OrderFilter{
		Kind:      models.KindTakeaway,
		Status:    models.StatusPending,
		CreatedOn: &target,
	})
	if err != nil {
		log.Printf("❌ Reminder sweep skipped, store unavailable: %v", err)
		return
	}

	for _, o := range orders {
		t, err := time.Parse(models.TimeLayout, o.Time)
		if err != nil {
			continue
		}
		day := o.PickupDay()
		pickupAt := time.Date(day.Year(), day.Month(), day.Day(), t.Hour(), t.Minute(), 0, 0, day.Location())

		remaining := pickupAt.Sub(now)
		if remaining < j.cfg.ReminderLead-j.cfg.ReminderTolerance ||
			remaining > j.cfg.ReminderLead+j.cfg.ReminderTolerance {
			continue
		}

		// The sweep interval is shorter than the firing window, so the same
		// order can match on consecutive ticks; the marker keeps it to one
		// reminder per order.
		if !j.markOnce(o.ID, now) {
			continue
		}

		body := j.catalog.Reminder(o.Name, o.Time, o.Items)
		if err := j.notifier.Send(ctx, o.Phone, body); err != nil {
			log.Printf("❌ Failed to send reminder for order %d: %v", o.ID, err)
			continue
		}
		log.Printf("🔔 Reminder sent for order %d (pickup %s)", o.ID, o.Time)
	}

	j.prune(now)
}

// markOnce records that an order was reminded. Check and set happen under
// one lock, so concurrent sweeps cannot both claim the same order.
func (j *ReminderJob) markOnce(id uint64, at time.Time) bool {
	j.mu.Lock()
	defer j.mu.Unlock()
	if _, done := j.reminded[id]; done {
		return false
	}
	j.reminded[id] = at
	return true
}

// prune drops markers older than a day; their orders are long past pickup.
func (j *ReminderJob) prune(now time.Time) {
	j.mu.Lock()
	defer j.mu.Unlock()
	for id, at := range j.reminded {
		if now.Sub(at) > 24*time.Hour {
			delete(j.reminded, id)
		}
	}
}
