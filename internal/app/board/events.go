package board

import "github.com/nvimer/plaet-kitchen/internal/domain"

// Event is an input to a board mount.
type Event interface {
	isEvent()
}

// ToggleLine sets the ready flag of a preparable line.
type ToggleLine struct {
	LineID string
	Ready  bool
}

// MarkDone moves a fully ready order straight to Done.
type MarkDone struct {
	OrderID string
}

type GestureEvent struct {
	Gesture Gesture
}

// SelectTab switches the stage listed by the mobile layout.
type SelectTab struct {
	Stage domain.Stage
}

type ResizeViewport struct {
	Width int
}

// Refresh asks for an immediate fetch.
type Refresh struct{}

func (ToggleLine) isEvent()     {}
func (MarkDone) isEvent()       {}
func (GestureEvent) isEvent()   {}
func (SelectTab) isEvent()      {}
func (ResizeViewport) isEvent() {}
func (Refresh) isEvent()        {}

type fetchResult struct {
	orders []domain.Order
	err    error
}

type transitionResult struct {
	orderID string
	from    domain.Stage
	to      domain.Stage
	err     error
}
