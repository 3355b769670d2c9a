package livestatus

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/passosalansilva-lab/brasil-simple-display/internal/model"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeSource feeds events through a channel under test control.
type fakeSource struct {
	mu     sync.Mutex
	events chan StatusEvent
	subs   int
}

func newFakeSource() *fakeSource {
	return &fakeSource{events: make(chan StatusEvent)}
}

func (f *fakeSource) Subscribe(ctx context.Context, orderIDs []uuid.UUID) (<-chan StatusEvent, error) {
	f.mu.Lock()
	f.subs++
	events := f.events
	f.mu.Unlock()

	out := make(chan StatusEvent)
	go func() {
		defer close(out)
		for {
			select {
			case ev, ok := <-events:
				if !ok {
					return
				}
				select {
				case out <- ev:
				case <-ctx.Done():
					return
				}
			case <-ctx.Done():
				return
			}
		}
	}()
	return out, nil
}

func (f *fakeSource) subscriptions() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.subs
}

// recordingNotifier records every effect the watcher delivers.
type recordingNotifier struct {
	mu         sync.Mutex
	changes    []StatusEvent
	indicators []bool
	cues       int
}

func (n *recordingNotifier) StatusChanged(orderID uuid.UUID, status model.OrderStatus, reason *string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.changes = append(n.changes, StatusEvent{OrderID: orderID, NewStatus: status, CancellationReason: reason})
}

func (n *recordingNotifier) LiveIndicator(_ uuid.UUID, visible bool) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.indicators = append(n.indicators, visible)
}

func (n *recordingNotifier) PlayCue() {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.cues++
}

func (n *recordingNotifier) snapshot() (changes []StatusEvent, indicators []bool, cues int) {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]StatusEvent(nil), n.changes...), append([]bool(nil), n.indicators...), n.cues
}

func TestWatcher_StatusChangeDeliversEffects(t *testing.T) {
	source := newFakeSource()
	notifier := &recordingNotifier{}
	watcher := NewWatcher(source, notifier, zerolog.Nop())
	defer watcher.Close()

	order := model.Order{ID: uuid.New(), Status: model.StatusPending}
	require.NoError(t, watcher.Watch(context.Background(), []model.Order{order}))

	source.events <- StatusEvent{OrderID: order.ID, NewStatus: model.StatusConfirmed}

	assert.Eventually(t, func() bool {
		changes, _, cues := notifier.snapshot()
		return len(changes) == 1 && cues == 1
	}, time.Second, 10*time.Millisecond)

	changes, indicators, _ := notifier.snapshot()
	assert.Equal(t, model.StatusConfirmed, changes[0].NewStatus)
	assert.Contains(t, indicators, true)
	assert.Equal(t, 1, watcher.PendingTimers())
}

func TestWatcher_UnchangedStatusShowsIndicatorWithoutCue(t *testing.T) {
	source := newFakeSource()
	notifier := &recordingNotifier{}
	watcher := NewWatcher(source, notifier, zerolog.Nop())
	defer watcher.Close()

	order := model.Order{ID: uuid.New(), Status: model.StatusPending}
	require.NoError(t, watcher.Watch(context.Background(), []model.Order{order}))

	// Same status as the one on record
	source.events <- StatusEvent{OrderID: order.ID, NewStatus: model.StatusPending}

	assert.Eventually(t, func() bool {
		_, indicators, _ := notifier.snapshot()
		return len(indicators) == 1
	}, time.Second, 10*time.Millisecond)

	changes, _, cues := notifier.snapshot()
	assert.Empty(t, changes)
	assert.Zero(t, cues)
}

func TestWatcher_NewEventSupersedesPendingTimer(t *testing.T) {
	source := newFakeSource()
	notifier := &recordingNotifier{}
	watcher := NewWatcher(source, notifier, zerolog.Nop())
	defer watcher.Close()

	order := model.Order{ID: uuid.New(), Status: model.StatusPending}
	require.NoError(t, watcher.Watch(context.Background(), []model.Order{order}))

	source.events <- StatusEvent{OrderID: order.ID, NewStatus: model.StatusConfirmed}
	source.events <- StatusEvent{OrderID: order.ID, NewStatus: model.StatusPreparing}

	assert.Eventually(t, func() bool {
		changes, _, _ := notifier.snapshot()
		return len(changes) == 2
	}, time.Second, 10*time.Millisecond)

	// The second event replaced the first event's timer instead of stacking
	assert.Equal(t, 1, watcher.PendingTimers())
}

func TestWatcher_LateExpiryFromReplacedWindowIsIgnored(t *testing.T) {
	source := newFakeSource()
	notifier := &recordingNotifier{}
	watcher := NewWatcher(source, notifier, zerolog.Nop())
	defer watcher.Close()

	order := model.Order{ID: uuid.New(), Status: model.StatusPending}
	require.NoError(t, watcher.Watch(context.Background(), []model.Order{order}))

	watcher.handle(StatusEvent{OrderID: order.ID, NewStatus: model.StatusConfirmed})

	watcher.mu.Lock()
	replaced := watcher.windows[order.ID].gen
	watcher.mu.Unlock()

	watcher.handle(StatusEvent{OrderID: order.ID, NewStatus: model.StatusPreparing})

	// The first event's timer may already have fired and be waiting on the
	// lock while the second event replaces its window. Its expiry lands
	// after the replacement and must not touch the fresh window.
	watcher.clearIndicator(order.ID, replaced)

	assert.Equal(t, 1, watcher.PendingTimers())
	_, indicators, _ := notifier.snapshot()
	assert.NotContains(t, indicators, false)

	// The current window's own expiry still clears the indicator.
	watcher.mu.Lock()
	current := watcher.windows[order.ID].gen
	watcher.mu.Unlock()

	watcher.clearIndicator(order.ID, current)

	assert.Equal(t, 0, watcher.PendingTimers())
	_, indicators, _ = notifier.snapshot()
	assert.Contains(t, indicators, false)
}

func TestWatcher_IgnoresUnwatchedOrders(t *testing.T) {
	source := newFakeSource()
	notifier := &recordingNotifier{}
	watcher := NewWatcher(source, notifier, zerolog.Nop())
	defer watcher.Close()

	order := model.Order{ID: uuid.New(), Status: model.StatusPending}
	require.NoError(t, watcher.Watch(context.Background(), []model.Order{order}))

	source.events <- StatusEvent{OrderID: order.ID, NewStatus: model.StatusConfirmed}

	assert.Eventually(t, func() bool {
		changes, _, _ := notifier.snapshot()
		return len(changes) == 1
	}, time.Second, 10*time.Millisecond)

	// The source in this setup forwards everything; filtering to the watched
	// set happens in the watcher state.
	unwatched := StatusEvent{OrderID: uuid.New(), NewStatus: model.StatusCancelled}
	watcher.handle(unwatched)

	changes, _, _ := notifier.snapshot()
	assert.Len(t, changes, 1)
	assert.Equal(t, 1, watcher.PendingTimers())
}

func TestWatcher_RewatchTearsDownPreviousSubscription(t *testing.T) {
	source := newFakeSource()
	notifier := &recordingNotifier{}
	watcher := NewWatcher(source, notifier, zerolog.Nop())
	defer watcher.Close()

	first := model.Order{ID: uuid.New(), Status: model.StatusPending}
	require.NoError(t, watcher.Watch(context.Background(), []model.Order{first}))

	source.events <- StatusEvent{OrderID: first.ID, NewStatus: model.StatusConfirmed}
	assert.Eventually(t, func() bool {
		return watcher.PendingTimers() == 1
	}, time.Second, 10*time.Millisecond)

	second := model.Order{ID: uuid.New(), Status: model.StatusPending}
	require.NoError(t, watcher.Watch(context.Background(), []model.Order{second}))

	// The old subscription's timers are gone and a new subscription exists
	assert.Equal(t, 0, watcher.PendingTimers())
	assert.Equal(t, 2, source.subscriptions())
}

func TestWatcher_CloseStopsAllTimers(t *testing.T) {
	source := newFakeSource()
	notifier := &recordingNotifier{}
	watcher := NewWatcher(source, notifier, zerolog.Nop())

	orders := []model.Order{
		{ID: uuid.New(), Status: model.StatusPending},
		{ID: uuid.New(), Status: model.StatusPending},
	}
	require.NoError(t, watcher.Watch(context.Background(), orders))

	source.events <- StatusEvent{OrderID: orders[0].ID, NewStatus: model.StatusConfirmed}
	source.events <- StatusEvent{OrderID: orders[1].ID, NewStatus: model.StatusConfirmed}

	assert.Eventually(t, func() bool {
		return watcher.PendingTimers() == 2
	}, time.Second, 10*time.Millisecond)

	require.NoError(t, watcher.Close())
	assert.Equal(t, 0, watcher.PendingTimers())

	// Close is idempotent
	require.NoError(t, watcher.Close())
}
