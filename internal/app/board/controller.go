package board

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/nvimer/plaet-kitchen/internal/adapter/logger"
	"github.com/nvimer/plaet-kitchen/internal/domain"
	"github.com/nvimer/plaet-kitchen/internal/interfaces"
)

var (
	ErrUnmounted      = errors.New("board unmounted")
	ErrAlreadyRunning = errors.New("board already running")
)

type Options struct {
	SessionID      string
	Categories     domain.CategoryConfig
	PollInterval   time.Duration
	RenderInterval time.Duration
	Thresholds     Thresholds
	Swipe          SwipeConfig
	Resolvers      []Resolver
	Breakpoint     int
	// ViewportWidth at mount time. It also picks the input mode, which is
	// kept for the whole mount.
	ViewportWidth int
	Clock         clockwork.Clock
	// Render receives every view. It is called from the board goroutine.
	Render func(View)
}

type lineRef struct {
	orderID    string
	preparable bool
}

// Controller is one mounted kitchen board. All board state is owned by the
// goroutine running Run; inputs arrive through Submit and network results
// are posted back to the same loop.
type Controller struct {
	source   interfaces.OrderSource
	notifier interfaces.Notifier
	logger   logger.Logger
	opts     Options
	clock    clockwork.Clock

	events  chan Event
	results chan interface{}
	done    chan struct{}
	running atomic.Bool

	ctx        context.Context
	state      State
	orders     []domain.Order
	byID       map[string]domain.Order
	lines      map[string]lineRef
	ready      *ReadySet
	gestures   GestureStrategy
	activeTab  domain.Stage
	width      int
	fetching   bool
	refetch    bool
	lastSynced *time.Time
	syncErr    string
	haptic     []string
}

func NewController(source interfaces.OrderSource, notifier interfaces.Notifier, lgr logger.Logger, opts Options) *Controller {
	if opts.PollInterval <= 0 {
		opts.PollInterval = 30 * time.Second
	}
	if opts.RenderInterval <= 0 {
		opts.RenderInterval = time.Minute
	}
	if opts.Thresholds == (Thresholds{}) {
		opts.Thresholds = DefaultThresholds
	}
	if opts.Breakpoint <= 0 {
		opts.Breakpoint = 768
	}
	if opts.Clock == nil {
		opts.Clock = clockwork.NewRealClock()
	}
	if lgr == nil {
		lgr = logger.Nop()
	}

	c := &Controller{
		source:    source,
		notifier:  notifier,
		logger:    lgr,
		opts:      opts,
		clock:     opts.Clock,
		events:    make(chan Event, 32),
		results:   make(chan interface{}, 8),
		done:      make(chan struct{}),
		state:     StateLoading,
		byID:      make(map[string]domain.Order),
		lines:     make(map[string]lineRef),
		ready:     NewReadySet(),
		activeTab: domain.StagePending,
		width:     opts.ViewportWidth,
	}
	c.gestures = NewGestureStrategy(c.mobile(), opts.Swipe, opts.Resolvers)
	return c
}

// Submit queues an input event for the board.
func (c *Controller) Submit(ctx context.Context, ev Event) error {
	select {
	case <-c.done:
		return ErrUnmounted
	default:
	}

	select {
	case c.events <- ev:
		return nil
	case <-c.done:
		return ErrUnmounted
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Done is closed once Run has returned.
func (c *Controller) Done() <-chan struct{} {
	return c.done
}

// Run mounts the board: it fetches immediately, polls every PollInterval
// and re-renders every RenderInterval until ctx is cancelled.
func (c *Controller) Run(ctx context.Context) error {
	if !c.running.CompareAndSwap(false, true) {
		return ErrAlreadyRunning
	}
	defer close(c.done)

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	c.ctx = ctx

	poll := c.clock.NewTicker(c.opts.PollInterval)
	defer poll.Stop()
	tick := c.clock.NewTicker(c.opts.RenderInterval)
	defer tick.Stop()

	c.logger.Info("board_mounted", "Kitchen board mounted", c.opts.SessionID, map[string]interface{}{
		"input_mode":    c.gestures.Mode(),
		"poll_interval": c.opts.PollInterval.String(),
	})

	c.fetch(false)
	c.render()

	for {
		select {
		case <-ctx.Done():
			c.gestures.Reset()
			c.logger.Info("board_unmounted", "Kitchen board unmounted", c.opts.SessionID, nil)
			return nil
		case <-poll.Chan():
			c.fetch(false)
		case <-tick.Chan():
			c.render()
		case ev := <-c.events:
			c.apply(ev)
			c.render()
		case res := <-c.results:
			c.applyResult(res)
			c.render()
		}
	}
}

// fetch starts a fetch unless one is in flight. A forced fetch requested
// during a flight runs right after it, so it sees changes made meanwhile.
func (c *Controller) fetch(force bool) {
	if c.fetching {
		if force {
			c.refetch = true
		}
		return
	}
	c.fetching = true

	ctx := c.ctx
	go func() {
		orders, err := c.source.FetchKitchenOrders(ctx)
		c.post(ctx, fetchResult{orders: orders, err: err})
	}()
}

func (c *Controller) post(ctx context.Context, res interface{}) {
	select {
	case c.results <- res:
	case <-ctx.Done():
	}
}

func (c *Controller) applyResult(res interface{}) {
	switch r := res.(type) {
	case fetchResult:
		c.applyFetch(r)
	case transitionResult:
		c.applyTransition(r)
	}
}

func (c *Controller) applyFetch(r fetchResult) {
	c.fetching = false

	if r.err != nil {
		c.syncErr = r.err.Error()
		c.logger.Error("fetch_failed", "Failed to fetch kitchen orders", c.opts.SessionID, nil, r.err)
	} else {
		c.setOrders(r.orders)
		now := c.clock.Now()
		c.lastSynced = &now
		c.syncErr = ""
		c.state = StateReady
	}

	if c.refetch {
		c.refetch = false
		c.fetch(false)
	}
}

func (c *Controller) setOrders(orders []domain.Order) {
	c.orders = orders
	c.byID = make(map[string]domain.Order, len(orders))
	c.lines = make(map[string]lineRef)
	known := make(map[string]struct{})

	for _, o := range orders {
		c.byID[o.ID] = o
		for _, l := range o.Lines {
			prep := domain.IsPreparable(l.Role(c.opts.Categories))
			c.lines[l.ID] = lineRef{orderID: o.ID, preparable: prep}
			if prep {
				known[l.ID] = struct{}{}
			}
		}
	}

	if dropped := c.ready.Prune(known); dropped > 0 {
		c.logger.Debug("ready_pruned", fmt.Sprintf("Dropped %d stale ready marks", dropped), c.opts.SessionID, nil)
	}

	dragged, dragging := c.gestures.ActiveOrder()
	c.gestures.Retain(func(id string) bool {
		_, ok := c.byID[id]
		return ok
	})
	if _, still := c.gestures.ActiveOrder(); dragging && !still {
		c.logger.Info("drag_cancelled", "Dragged order left the feed", c.opts.SessionID, map[string]interface{}{
			"order_id": dragged,
		})
	}
}

func (c *Controller) applyTransition(r transitionResult) {
	details := map[string]interface{}{
		"order_id": r.orderID,
		"from":     r.from,
		"to":       r.to,
	}
	if r.err != nil {
		c.logger.Error("transition_failed", "Stage transition failed", c.opts.SessionID, details, r.err)
		return
	}
	c.logger.Info("transition_succeeded", "Stage transition accepted", c.opts.SessionID, details)
	c.fetch(true)
}

func (c *Controller) apply(ev Event) {
	switch e := ev.(type) {
	case ToggleLine:
		ref, ok := c.lines[e.LineID]
		if !ok || !ref.preparable {
			return
		}
		c.ready.Set(e.LineID, e.Ready)
	case MarkDone:
		order, ok := c.byID[e.OrderID]
		if !ok || order.Stage == domain.StageDone {
			return
		}
		if AllReady(order, c.opts.Categories, c.ready.IsReady) {
			c.Transition(order.ID, domain.StageDone)
		}
	case GestureEvent:
		c.gestures.Handle(e.Gesture, c)
	case SelectTab:
		if e.Stage.Valid() {
			c.activeTab = e.Stage
		}
	case ResizeViewport:
		if e.Width > 0 {
			c.width = e.Width
		}
	case Refresh:
		c.fetch(true)
	}
}

// Order implements GestureHost.
func (c *Controller) Order(id string) (domain.Order, bool) {
	o, ok := c.byID[id]
	return o, ok
}

// TargetStage implements GestureHost. A card target yields that card's
// current stage.
func (c *Controller) TargetStage(target Droppable) (domain.Stage, bool) {
	switch target.Kind {
	case TargetColumn:
		return target.Stage, target.Stage.Valid()
	case TargetCard:
		o, ok := c.byID[target.ID]
		if !ok {
			return "", false
		}
		return o.Stage, true
	}
	return "", false
}

// Transition implements GestureHost. It sends one stage change to the order
// service; the order itself is left untouched until the next fetch.
func (c *Controller) Transition(orderID string, to domain.Stage) {
	order, ok := c.byID[orderID]
	if !ok || !to.Valid() || order.Stage == to {
		return
	}

	ctx := c.ctx
	from := order.Stage
	c.logger.Debug("transition_requested", "Stage transition requested", c.opts.SessionID, map[string]interface{}{
		"order_id": orderID,
		"from":     from,
		"to":       to,
	})

	go func() {
		updated, err := c.source.UpdateOrderStage(ctx, orderID, to)
		if c.notifier != nil {
			if err != nil {
				c.notifier.TransitionFailed(ctx, orderID, to, err)
			} else {
				if updated == nil {
					moved := order
					moved.Stage = to
					updated = &moved
				}
				c.notifier.TransitionSucceeded(ctx, *updated, from)
			}
		}
		c.post(ctx, transitionResult{orderID: orderID, from: from, to: to, err: err})
	}()
}

// Haptic implements GestureHost.
func (c *Controller) Haptic(orderID string) {
	c.haptic = append(c.haptic, orderID)
}

func (c *Controller) mobile() bool {
	return c.width > 0 && c.width < c.opts.Breakpoint
}

func (c *Controller) render() {
	now := c.clock.Now()
	v := View{
		SessionID:    c.opts.SessionID,
		State:        c.state,
		Layout:       LayoutDesktop,
		InputMode:    c.gestures.Mode(),
		RenderedAt:   now,
		LastSyncedAt: c.lastSynced,
		SyncError:    c.syncErr,
		Haptic:       c.haptic,
	}
	c.haptic = nil

	if id, ok := c.gestures.ActiveOrder(); ok {
		v.Dragging = id
	}

	if c.mobile() {
		v.Layout = LayoutMobile
	}

	if c.state == StateReady {
		buckets := Partition(c.orders)
		cards := func(st domain.Stage) []Card {
			out := make([]Card, 0, len(buckets[st]))
			for _, o := range buckets[st] {
				out = append(out, BuildCard(o, c.opts.Categories, c.ready.IsReady, now, c.opts.Thresholds, c.gestures.Visual(o.ID)))
			}
			return out
		}

		if v.Layout == LayoutMobile {
			v.ActiveTab = c.activeTab
			for _, st := range domain.Stages {
				meta := stageMetas[st]
				v.Tabs = append(v.Tabs, Tab{
					Stage:  st,
					Title:  meta.Title,
					Icon:   meta.Icon,
					Count:  len(buckets[st]),
					Active: st == c.activeTab,
				})
			}
			v.List = cards(c.activeTab)
		} else {
			hover, hovering := c.gestures.HoverStage()
			for _, st := range domain.Stages {
				v.Columns = append(v.Columns, NewColumn(st, cards(st), hovering && hover == st))
			}
		}
	}

	if c.opts.Render != nil {
		c.opts.Render(v)
	}
}
