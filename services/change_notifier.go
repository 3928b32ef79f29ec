package services

import (
	"context"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/sirupsen/logrus"
	"github.com/yeremiapane/cafe-ordering/models"
	"github.com/yeremiapane/cafe-ordering/utils"
)

const (
	DefaultNotifierInterval = 10 * time.Second
	DefaultSummaryCooldown  = 30 * time.Second

	// emptyBacklogSlack places the mark of an empty backlog before the clock
	// read. Nothing was pending at the snapshot, so any pending row seen later
	// is new even if it carries an older stamp: committed while listing, stored
	// with coarser precision, or stamped by a skewed server clock.
	emptyBacklogSlack = time.Minute
)

// OrderLister is the order read API the notifier polls.
type OrderLister interface {
	List(ctx context.Context, filter OrderFilter, page, limit int) ([]models.Order, int64, error)
}

// CallLister is the waiter call read API the notifier polls.
type CallLister interface {
	List(ctx context.Context, filter CallFilter, page, limit int) ([]models.WaiterCall, int64, error)
}

type NotifierConfig struct {
	Interval        time.Duration
	SummaryCooldown time.Duration
}

// notifierState is discarded on Stop so a restart seeds from the backlog again.
type notifierState struct {
	initialized bool
	orderMark   time.Time
	callMark    time.Time
	lastSummary time.Time
}

// ChangeNotifier polls pending orders and waiter calls and raises alerts for
// new items and periodic summaries. It never writes orders or calls.
type ChangeNotifier struct {
	orders   OrderLister
	calls    CallLister
	sink     AlertSink
	clock    clockwork.Clock
	interval time.Duration
	cooldown time.Duration

	mu    sync.Mutex
	state notifierState

	inFlight atomic.Bool

	runMu  sync.Mutex
	cancel context.CancelFunc
	done   chan struct{}
}

func NewChangeNotifier(orders OrderLister, calls CallLister, sink AlertSink, clock clockwork.Clock, cfg NotifierConfig) *ChangeNotifier {
	if cfg.Interval <= 0 {
		cfg.Interval = DefaultNotifierInterval
	}
	if cfg.SummaryCooldown <= 0 {
		cfg.SummaryCooldown = DefaultSummaryCooldown
	}
	if sink == nil {
		sink = LogSink{}
	}
	return &ChangeNotifier{
		orders:   orders,
		calls:    calls,
		sink:     sink,
		clock:    clock,
		interval: cfg.Interval,
		cooldown: cfg.SummaryCooldown,
	}
}

// Init seeds both high-water marks from the current pending backlog so
// existing items are never announced as new. With no backlog the mark sits
// just before now.
func (n *ChangeNotifier) Init(ctx context.Context) error {
	// read before the snapshot: anything committed while listing must sort after the mark
	now := n.clock.Now()
	orders, calls, err := n.fetchPending(ctx)
	if err != nil {
		return err
	}

	n.mu.Lock()
	defer n.mu.Unlock()
	n.seed(orders, calls, now)
	return nil
}

func (n *ChangeNotifier) seed(orders []models.Order, calls []models.WaiterCall, now time.Time) {
	floor := now.Add(-emptyBacklogSlack)
	n.state = notifierState{
		initialized: true,
		orderMark:   newestOrDefault(orders, floor),
		callMark:    newestOrDefault(calls, floor),
	}
	utils.InfoLogger.WithFields(logrus.Fields{
		"pending_orders": len(orders),
		"pending_calls":  len(calls),
	}).Info("change notifier initialized")
}

// Poll runs one cycle and returns the alerts it emitted. The first call on
// an uninitialized notifier seeds the marks and reports no new items.
func (n *ChangeNotifier) Poll(ctx context.Context) ([]Alert, error) {
	now := n.clock.Now()
	orders, calls, err := n.fetchPending(ctx)
	if err != nil {
		return nil, err
	}

	n.mu.Lock()
	if !n.state.initialized {
		n.seed(orders, calls, now)
	}

	var alerts []Alert
	var fresh []models.Order
	fresh, n.state.orderMark = newerThan(orders, n.state.orderMark)
	for _, o := range fresh {
		alerts = append(alerts, newOrderAlert(o.ID, o.TableNumber, o.OrderNumber, now))
	}
	var freshCalls []models.WaiterCall
	freshCalls, n.state.callMark = newerThan(calls, n.state.callMark)
	for _, c := range freshCalls {
		alerts = append(alerts, newCallAlert(c.ID, c.TableNumber, now))
	}

	if n.state.lastSummary.IsZero() || now.Sub(n.state.lastSummary) >= n.cooldown {
		summaries := summarize(orders, calls, now)
		if len(summaries) > 0 {
			n.state.lastSummary = now
			alerts = append(alerts, summaries...)
		}
	}
	n.mu.Unlock()

	for _, alert := range alerts {
		AlertsEmitted.WithLabelValues(string(alert.Kind)).Inc()
		if err := n.sink.Emit(ctx, alert); err != nil {
			utils.ErrorLogger.WithError(err).WithField("kind", alert.Kind).Error("failed to deliver alert")
		}
	}
	return alerts, nil
}

// Start polls immediately, then every interval, until Stop or ctx is done.
func (n *ChangeNotifier) Start(ctx context.Context) {
	n.runMu.Lock()
	defer n.runMu.Unlock()
	if n.cancel != nil {
		return
	}

	ctx, cancel := context.WithCancel(ctx)
	n.cancel = cancel
	n.done = make(chan struct{})
	go n.run(ctx, n.done)
}

// Stop halts the loop, waits for it and forgets the marks.
func (n *ChangeNotifier) Stop() {
	n.runMu.Lock()
	cancel, done := n.cancel, n.done
	n.cancel, n.done = nil, nil
	n.runMu.Unlock()

	if cancel == nil {
		return
	}
	cancel()
	<-done

	n.mu.Lock()
	n.state = notifierState{}
	n.mu.Unlock()
}

func (n *ChangeNotifier) run(ctx context.Context, done chan struct{}) {
	defer close(done)

	n.tick(ctx)

	ticker := n.clock.NewTicker(n.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.Chan():
			n.tick(ctx)
		}
	}
}

// tick skips the cycle when a previous one is still running.
func (n *ChangeNotifier) tick(ctx context.Context) {
	if !n.inFlight.CompareAndSwap(false, true) {
		utils.InfoLogger.Debug("notifier poll still in flight, skipping")
		return
	}
	defer n.inFlight.Store(false)

	if _, err := n.Poll(ctx); err != nil && ctx.Err() == nil {
		utils.ErrorLogger.WithError(err).Error("notifier poll failed")
	}
}

func (n *ChangeNotifier) fetchPending(ctx context.Context) ([]models.Order, []models.WaiterCall, error) {
	pendingOrder := models.OrderPending
	orders, err := collectPages(func(page int) ([]models.Order, int64, error) {
		return n.orders.List(ctx, OrderFilter{Status: &pendingOrder}, page, MaxPageLimit)
	})
	if err != nil {
		return nil, nil, err
	}

	pendingCall := models.CallPending
	calls, err := collectPages(func(page int) ([]models.WaiterCall, int64, error) {
		return n.calls.List(ctx, CallFilter{Status: &pendingCall}, page, MaxPageLimit)
	})
	if err != nil {
		return nil, nil, err
	}
	return orders, calls, nil
}

func collectPages[T any](fetch func(page int) ([]T, int64, error)) ([]T, error) {
	var all []T
	for page := 1; ; page++ {
		items, total, err := fetch(page)
		if err != nil {
			return nil, err
		}
		all = append(all, items...)
		if len(items) == 0 || int64(len(all)) >= total {
			return all, nil
		}
	}
}

func newestOrDefault[T Worklistable](items []T, def time.Time) time.Time {
	var newest time.Time
	for _, item := range items {
		if item.IsPending() && item.ReferenceTime().After(newest) {
			newest = item.ReferenceTime()
		}
	}
	if newest.IsZero() {
		return def
	}
	return newest
}

// newerThan returns the pending items after mark, oldest first, and the
// advanced mark. The mark never moves backwards.
func newerThan[T Worklistable](items []T, mark time.Time) ([]T, time.Time) {
	var fresh []T
	next := mark
	for _, item := range items {
		if !item.IsPending() {
			continue
		}
		ts := item.ReferenceTime()
		if ts.After(mark) {
			fresh = append(fresh, item)
		}
		if ts.After(next) {
			next = ts
		}
	}
	sort.SliceStable(fresh, func(i, j int) bool {
		return fresh[i].ReferenceTime().Before(fresh[j].ReferenceTime())
	})
	return fresh, next
}

// summarize counts urgent-tier items separately from the rest so nothing
// is counted twice.
func summarize(orders []models.Order, calls []models.WaiterCall, now time.Time) []Alert {
	urgentOrders, pendingOrders := splitByUrgency(orders, now)
	urgentCalls, pendingCalls := splitByUrgency(calls, now)

	var alerts []Alert
	if urgentOrders > 0 {
		alerts = append(alerts, summaryAlert(AlertUrgentOrder, urgentOrders, now))
	}
	if urgentCalls > 0 {
		alerts = append(alerts, summaryAlert(AlertUrgentCall, urgentCalls, now))
	}
	if pendingOrders > 0 {
		alerts = append(alerts, summaryAlert(AlertPendingOrder, pendingOrders, now))
	}
	if pendingCalls > 0 {
		alerts = append(alerts, summaryAlert(AlertPendingCall, pendingCalls, now))
	}
	return alerts
}

func splitByUrgency[T Worklistable](items []T, now time.Time) (urgent, ordinary int) {
	for _, item := range items {
		if !item.IsPending() {
			continue
		}
		if Classify(item.ReferenceTime(), now).AtLeast(UrgencyUrgent) {
			urgent++
		} else {
			ordinary++
		}
	}
	return urgent, ordinary
}
