// Package livestatus keeps a customer's displayed orders in sync with
// status changes made by the business side, without polling.
package livestatus

import (
	"context"
	"sync"
	"time"

	"github.com/passosalansilva-lab/brasil-simple-display/internal/model"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// indicatorTTL is how long the "live update" indicator stays visible after
// an event, unless a newer event for the same order restarts it.
const indicatorTTL = 4 * time.Second

// StatusEvent is one change-feed update for a watched order.
type StatusEvent struct {
	OrderID            uuid.UUID
	NewStatus          model.OrderStatus
	CancellationReason *string
}

// Source establishes a change subscription filtered to a set of orders.
// The returned channel closes when ctx is cancelled.
type Source interface {
	Subscribe(ctx context.Context, orderIDs []uuid.UUID) (<-chan StatusEvent, error)
}

// Notifier receives the user-visible effects of incoming events.
type Notifier interface {
	// StatusChanged is invoked once per actual status transition.
	StatusChanged(orderID uuid.UUID, status model.OrderStatus, reason *string)

	// LiveIndicator toggles the per-order "updating live" marker.
	LiveIndicator(orderID uuid.UUID, visible bool)

	// PlayCue plays the one-shot audible notification.
	PlayCue()
}

// indicatorWindow is one order's pending indicator-clear. The generation
// identifies which event installed it: an expiry callback from a window
// that has since been replaced must not clear the replacement.
type indicatorWindow struct {
	timer *time.Timer
	gen   uint64
}

// Watcher consumes a status subscription and manages the per-order
// indicator timers. Each new event for an order cancels that order's
// pending indicator-clear before scheduling a new one, so timers never
// accumulate.
type Watcher struct {
	source   Source
	notifier Notifier
	logger   zerolog.Logger

	mu       sync.Mutex
	statuses map[uuid.UUID]model.OrderStatus
	windows  map[uuid.UUID]indicatorWindow
	gen      uint64
	cancel   context.CancelFunc
	closed   bool
}

// NewWatcher creates a watcher delivering effects to the given notifier.
func NewWatcher(src Source, notifier Notifier, logger zerolog.Logger) *Watcher {
	return &Watcher{
		source:   src,
		notifier: notifier,
		logger:   logger.With().Str("component", "livestatus-watcher").Logger(),
		statuses: make(map[uuid.UUID]model.OrderStatus),
		windows:  make(map[uuid.UUID]indicatorWindow),
	}
}

// Watch subscribes to status changes for the given orders. A previous
// subscription, if any, is torn down first along with its pending timers:
// changing the watched set never leaks timers from the old one.
func (w *Watcher) Watch(ctx context.Context, orders []model.Order) error {
	w.teardown()

	w.mu.Lock()
	if w.closed {
		w.mu.Unlock()
		return nil
	}

	orderIDs := make([]uuid.UUID, len(orders))
	for i, o := range orders {
		orderIDs[i] = o.ID
		w.statuses[o.ID] = o.Status
	}

	subCtx, cancel := context.WithCancel(ctx)
	w.cancel = cancel
	w.mu.Unlock()

	events, err := w.source.Subscribe(subCtx, orderIDs)
	if err != nil {
		cancel()
		return err
	}

	go func() {
		for ev := range events {
			w.handle(ev)
		}
	}()

	w.logger.Debug().Int("order_count", len(orderIDs)).Msg("watching order statuses")

	return nil
}

// handle applies one incoming event: restart the order's indicator window,
// and on an actual status transition update local state, play the cue and
// report the change.
func (w *Watcher) handle(ev StatusEvent) {
	w.mu.Lock()

	current, watched := w.statuses[ev.OrderID]
	if !watched || w.closed {
		w.mu.Unlock()
		return
	}

	if win, ok := w.windows[ev.OrderID]; ok {
		win.timer.Stop()
	}
	orderID := ev.OrderID
	w.gen++
	gen := w.gen
	w.windows[orderID] = indicatorWindow{
		timer: time.AfterFunc(indicatorTTL, func() {
			w.clearIndicator(orderID, gen)
		}),
		gen: gen,
	}

	changed := current != ev.NewStatus
	if changed {
		w.statuses[ev.OrderID] = ev.NewStatus
	}
	w.mu.Unlock()

	w.notifier.LiveIndicator(ev.OrderID, true)

	if changed {
		w.notifier.PlayCue()
		w.notifier.StatusChanged(ev.OrderID, ev.NewStatus, ev.CancellationReason)
	}
}

// clearIndicator runs when an order's indicator window elapses without a
// newer event. A Stop on an already-fired timer cannot unschedule it, so
// the callback may arrive after a newer event replaced the window; the
// generation check makes such a late expiry a no-op.
func (w *Watcher) clearIndicator(orderID uuid.UUID, gen uint64) {
	w.mu.Lock()
	win, ok := w.windows[orderID]
	if !ok || win.gen != gen {
		w.mu.Unlock()
		return
	}
	delete(w.windows, orderID)
	w.mu.Unlock()

	w.notifier.LiveIndicator(orderID, false)
}

// PendingTimers returns how many indicator-clear timers are outstanding.
func (w *Watcher) PendingTimers() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return len(w.windows)
}

// teardown cancels the current subscription and stops every pending timer.
func (w *Watcher) teardown() {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.cancel != nil {
		w.cancel()
		w.cancel = nil
	}

	for id, win := range w.windows {
		win.timer.Stop()
		delete(w.windows, id)
	}

	w.statuses = make(map[uuid.UUID]model.OrderStatus)
}

// Close tears the watcher down for good; no timers remain pending after it
// returns.
func (w *Watcher) Close() error {
	w.teardown()

	w.mu.Lock()
	w.closed = true
	w.mu.Unlock()

	w.logger.Debug().Msg("livestatus watcher closed")
	return nil
}
