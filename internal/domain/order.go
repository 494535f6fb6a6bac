package domain

import (
	"errors"
	"time"
)

// Order is a kitchen order as served by the order service.
type Order struct {
	ID        string
	Table     *TableRef
	Stage     Stage
	Lines     []OrderLine
	CreatedAt time.Time
	UpdatedAt time.Time
}

type TableRef struct {
	ID     string
	Number int
}

// OrderLine is one dish of an order.
type OrderLine struct {
	ID       string
	Quantity int
	Note     *string
	MenuItem MenuItem
}

type MenuItem struct {
	ID         string
	Name       string
	CategoryID *string
}

// NewOrder creates a pending order with business rules applied
func NewOrder(id string, table *TableRef, lines []OrderLine, now time.Time) (*Order, error) {
	order := &Order{
		ID:        id,
		Table:     table,
		Stage:     StagePending,
		Lines:     lines,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := order.Validate(); err != nil {
		return nil, err
	}

	return order, nil
}

// Validate applies business validation rules
func (o *Order) Validate() error {
	if o.ID == "" {
		return errors.New("order id is required")
	}

	if !o.Stage.Valid() {
		return ErrInvalidStage
	}

	if o.Table != nil && (o.Table.Number < 1 || o.Table.Number > 200) {
		return errors.New("table number must be between 1 and 200")
	}

	if len(o.Lines) < 1 || len(o.Lines) > 50 {
		return errors.New("order must have 1-50 lines")
	}

	for _, line := range o.Lines {
		if line.ID == "" {
			return errors.New("line id is required")
		}
		if len(line.MenuItem.Name) < 1 || len(line.MenuItem.Name) > 100 {
			return errors.New("menu item name must be 1-100 characters")
		}
		if line.Quantity < 1 || line.Quantity > 50 {
			return errors.New("line quantity must be 1-50")
		}
	}

	return nil
}

// TransitionTo moves the order to next. Any stage of the pipeline may be
// reached from any other; staying on the same stage is reported as
// ErrStageUnchanged.
func (o *Order) TransitionTo(next Stage, at time.Time) error {
	if !next.Valid() {
		return ErrInvalidStage
	}
	if next == o.Stage {
		return ErrStageUnchanged
	}

	o.Stage = next
	o.UpdatedAt = at
	return nil
}

// Line looks up a line by id.
func (o *Order) Line(id string) (OrderLine, bool) {
	for _, l := range o.Lines {
		if l.ID == id {
			return l, true
		}
	}
	return OrderLine{}, false
}

var (
	ErrInvalidStage   = errors.New("invalid stage")
	ErrStageUnchanged = errors.New("order already in stage")
	ErrOrderNotFound  = errors.New("order not found")
	ErrOrderNotDone   = errors.New("order is not done")
)
