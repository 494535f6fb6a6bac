package board

import (
	"time"

	"github.com/nvimer/plaet-kitchen/internal/domain"
)

type Severity string

const (
	SeverityNormal  Severity = "normal"
	SeverityWarning Severity = "warning"
	SeverityUrgent  Severity = "urgent"
)

// Thresholds bucket the time an order has been waiting.
type Thresholds struct {
	Warning time.Duration
	Urgent  time.Duration
}

var DefaultThresholds = Thresholds{Warning: 15 * time.Minute, Urgent: 25 * time.Minute}

func ElapsedSeverity(elapsed time.Duration, th Thresholds) Severity {
	switch {
	case elapsed >= th.Urgent:
		return SeverityUrgent
	case elapsed >= th.Warning:
		return SeverityWarning
	default:
		return SeverityNormal
	}
}

// Card is the rendered form of one order.
type Card struct {
	OrderID     string        `json:"order_id"`
	TableNumber *int          `json:"table_number,omitempty"`
	Stage       domain.Stage  `json:"stage"`
	CreatedAt   time.Time     `json:"created_at"`
	Rows        []ItemRow     `json:"rows"`
	Preparable  int           `json:"preparable"`
	AllReady    bool          `json:"all_ready"`
	Elapsed     time.Duration `json:"elapsed"`
	Severity    Severity      `json:"severity"`
	CanMarkDone bool          `json:"can_mark_done"`
	SwipeDelta  float64       `json:"swipe_delta"`
	Dragging    bool          `json:"dragging"`
}

// PreparableLines returns the lines that need an explicit ready toggle.
func PreparableLines(order domain.Order, cfg domain.CategoryConfig) []domain.OrderLine {
	var out []domain.OrderLine
	for _, l := range order.Lines {
		if domain.IsPreparable(l.Role(cfg)) {
			out = append(out, l)
		}
	}
	return out
}

// AllReady is true when the order has at least one preparable line and all
// of them are ready.
func AllReady(order domain.Order, cfg domain.CategoryConfig, isReady func(lineID string) bool) bool {
	lines := PreparableLines(order, cfg)
	if len(lines) == 0 {
		return false
	}
	for _, l := range lines {
		if !isReady(l.ID) {
			return false
		}
	}
	return true
}

func BuildCard(order domain.Order, cfg domain.CategoryConfig, isReady func(lineID string) bool, now time.Time, th Thresholds, visual CardVisual) Card {
	rows := make([]ItemRow, 0, len(order.Lines))
	preparable := 0
	for _, l := range order.Lines {
		role := l.Role(cfg)
		if domain.IsPreparable(role) {
			preparable++
		}
		rows = append(rows, NewItemRow(l, role, isReady(l.ID)))
	}

	allReady := AllReady(order, cfg, isReady)
	elapsed := now.Sub(order.CreatedAt)
	if elapsed < 0 {
		elapsed = 0
	}

	card := Card{
		OrderID:     order.ID,
		Stage:       order.Stage,
		CreatedAt:   order.CreatedAt,
		Rows:        rows,
		Preparable:  preparable,
		AllReady:    allReady,
		Elapsed:     elapsed,
		Severity:    ElapsedSeverity(elapsed, th),
		CanMarkDone: allReady && order.Stage != domain.StageDone,
		SwipeDelta:  visual.SwipeDelta,
		Dragging:    visual.Dragging,
	}
	if order.Table != nil {
		n := order.Table.Number
		card.TableNumber = &n
	}
	return card
}

// MarkDone calls onTransition with StageDone when the card allows it.
func (c Card) MarkDone(onTransition func(orderID string, to domain.Stage)) bool {
	if !c.CanMarkDone || onTransition == nil {
		return false
	}
	onTransition(c.OrderID, domain.StageDone)
	return true
}
