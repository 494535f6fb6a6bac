package board

import (
	"math"

	"github.com/nvimer/plaet-kitchen/internal/domain"
)

// InputMode selects how cards are moved between stages on a board mount.
type InputMode string

const (
	InputTouch   InputMode = "touch"
	InputPointer InputMode = "pointer"
)

type GesturePhase string

const (
	PhaseStart  GesturePhase = "start"
	PhaseMove   GesturePhase = "move"
	PhaseEnd    GesturePhase = "end"
	PhaseCancel GesturePhase = "cancel"
)

// Gesture is one frame of a swipe or a drag.
type Gesture struct {
	Mode    InputMode
	Phase   GesturePhase
	OrderID string

	// Swipe: horizontal offset since the swipe started.
	DeltaX float64

	// Drag: pointer position, dragged card rect and measured drop targets.
	Pointer    *Point
	Active     Rect
	Droppables []Droppable
}

// GestureHost is what a strategy needs from the board.
type GestureHost interface {
	Order(id string) (domain.Order, bool)
	TargetStage(target Droppable) (domain.Stage, bool)
	Transition(orderID string, to domain.Stage)
	Haptic(orderID string)
}

// CardVisual is the gesture-driven part of a card's appearance.
type CardVisual struct {
	SwipeDelta float64
	Dragging   bool
}

// GestureStrategy interprets gestures for one input mode. A board mount uses
// exactly one strategy, picked when it is created.
type GestureStrategy interface {
	Mode() InputMode
	Handle(g Gesture, host GestureHost)
	Visual(orderID string) CardVisual
	// HoverStage is the stage a drag is currently over, if any.
	HoverStage() (domain.Stage, bool)
	// ActiveOrder is the order being dragged, if any.
	ActiveOrder() (string, bool)
	// Retain drops gesture state of orders for which present is false.
	Retain(present func(orderID string) bool)
	Reset()
}

func NewGestureStrategy(mobile bool, swipe SwipeConfig, resolvers []Resolver) GestureStrategy {
	if mobile {
		return NewSwipeStrategy(swipe)
	}
	return NewDragStrategy(resolvers...)
}

type SwipeConfig struct {
	Threshold float64
	Max       float64
}

var DefaultSwipe = SwipeConfig{Threshold: 80, Max: 150}

// SwipeTarget maps a released swipe to the stage it moves the order to.
// Deltas within the threshold and moves off either end of the pipeline
// report false.
func SwipeTarget(stage domain.Stage, delta, threshold float64) (domain.Stage, bool) {
	if math.Abs(delta) <= threshold {
		return stage, false
	}
	dir := domain.Backward
	if delta > 0 {
		dir = domain.Forward
	}
	return stage.Step(dir)
}

// SwipeStrategy moves cards with horizontal swipes.
type SwipeStrategy struct {
	cfg    SwipeConfig
	deltas map[string]float64
}

func NewSwipeStrategy(cfg SwipeConfig) *SwipeStrategy {
	if cfg.Threshold <= 0 {
		cfg.Threshold = DefaultSwipe.Threshold
	}
	if cfg.Max <= 0 {
		cfg.Max = DefaultSwipe.Max
	}
	return &SwipeStrategy{cfg: cfg, deltas: make(map[string]float64)}
}

func (s *SwipeStrategy) Mode() InputMode { return InputTouch }

func (s *SwipeStrategy) Handle(g Gesture, host GestureHost) {
	if g.Mode != InputTouch || g.OrderID == "" {
		return
	}

	switch g.Phase {
	case PhaseStart:
		s.deltas[g.OrderID] = 0
	case PhaseMove:
		s.deltas[g.OrderID] = s.clamp(g.DeltaX)
	case PhaseEnd:
		if g.DeltaX != 0 {
			s.deltas[g.OrderID] = s.clamp(g.DeltaX)
		}
		s.commit(g.OrderID, host)
	case PhaseCancel:
		delete(s.deltas, g.OrderID)
	}
}

func (s *SwipeStrategy) commit(orderID string, host GestureHost) {
	delta := s.deltas[orderID]
	delete(s.deltas, orderID)

	order, ok := host.Order(orderID)
	if !ok {
		return
	}
	next, ok := SwipeTarget(order.Stage, delta, s.cfg.Threshold)
	if !ok {
		return
	}
	host.Transition(orderID, next)
	host.Haptic(orderID)
}

func (s *SwipeStrategy) clamp(dx float64) float64 {
	return math.Max(-s.cfg.Max, math.Min(s.cfg.Max, dx))
}

func (s *SwipeStrategy) Visual(orderID string) CardVisual {
	return CardVisual{SwipeDelta: s.deltas[orderID]}
}

func (s *SwipeStrategy) HoverStage() (domain.Stage, bool) { return "", false }

func (s *SwipeStrategy) ActiveOrder() (string, bool) { return "", false }

func (s *SwipeStrategy) Retain(present func(orderID string) bool) {
	for id := range s.deltas {
		if !present(id) {
			delete(s.deltas, id)
		}
	}
}

func (s *SwipeStrategy) Reset() {
	s.deltas = make(map[string]float64)
}

// DragStrategy moves cards by drag and drop between columns.
type DragStrategy struct {
	resolvers []Resolver
	active    string
	hover     domain.Stage
	hovering  bool
}

func NewDragStrategy(resolvers ...Resolver) *DragStrategy {
	if len(resolvers) == 0 {
		resolvers = DefaultResolvers
	}
	return &DragStrategy{resolvers: resolvers}
}

func (d *DragStrategy) Mode() InputMode { return InputPointer }

func (d *DragStrategy) Handle(g Gesture, host GestureHost) {
	if g.Mode != InputPointer {
		return
	}

	switch g.Phase {
	case PhaseStart:
		if d.active != "" {
			return
		}
		if _, ok := host.Order(g.OrderID); !ok {
			return
		}
		d.active = g.OrderID
		d.hovering = false
	case PhaseMove:
		if d.active == "" || g.OrderID != d.active {
			return
		}
		d.hover, d.hovering = d.targetStage(g, host)
	case PhaseEnd:
		if d.active == "" || g.OrderID != d.active {
			return
		}
		to, ok := d.targetStage(g, host)
		id := d.active
		d.Reset()
		if !ok {
			return
		}
		order, ok := host.Order(id)
		if !ok || order.Stage == to {
			return
		}
		host.Transition(id, to)
	case PhaseCancel:
		d.Reset()
	}
}

func (d *DragStrategy) targetStage(g Gesture, host GestureHost) (domain.Stage, bool) {
	in := CollisionInput{Active: g.Active, Pointer: g.Pointer, Droppables: g.Droppables}
	target, ok := Resolve(in, d.active, d.resolvers...)
	if !ok {
		return "", false
	}
	return host.TargetStage(target)
}

func (d *DragStrategy) Visual(orderID string) CardVisual {
	return CardVisual{Dragging: d.active != "" && d.active == orderID}
}

func (d *DragStrategy) HoverStage() (domain.Stage, bool) {
	if d.active == "" {
		return "", false
	}
	return d.hover, d.hovering
}

func (d *DragStrategy) ActiveOrder() (string, bool) {
	return d.active, d.active != ""
}

func (d *DragStrategy) Retain(present func(orderID string) bool) {
	if d.active != "" && !present(d.active) {
		d.Reset()
	}
}

func (d *DragStrategy) Reset() {
	d.active = ""
	d.hover = ""
	d.hovering = false
}
