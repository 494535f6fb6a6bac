package board

import (
	"math"
	"sort"

	"github.com/nvimer/plaet-kitchen/internal/domain"
)

type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

type Rect struct {
	Left   float64 `json:"left"`
	Top    float64 `json:"top"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

func (r Rect) Right() float64  { return r.Left + r.Width }
func (r Rect) Bottom() float64 { return r.Top + r.Height }
func (r Rect) Area() float64   { return r.Width * r.Height }

func (r Rect) Contains(p Point) bool {
	return p.X >= r.Left && p.X <= r.Right() && p.Y >= r.Top && p.Y <= r.Bottom()
}

// Corners returns top-left, top-right, bottom-left, bottom-right.
func (r Rect) Corners() [4]Point {
	return [4]Point{
		{X: r.Left, Y: r.Top},
		{X: r.Right(), Y: r.Top},
		{X: r.Left, Y: r.Bottom()},
		{X: r.Right(), Y: r.Bottom()},
	}
}

func (r Rect) intersectionArea(o Rect) float64 {
	w := math.Min(r.Right(), o.Right()) - math.Max(r.Left, o.Left)
	h := math.Min(r.Bottom(), o.Bottom()) - math.Max(r.Top, o.Top)
	if w <= 0 || h <= 0 {
		return 0
	}
	return w * h
}

type TargetKind string

const (
	TargetColumn TargetKind = "column"
	TargetCard   TargetKind = "card"
)

// Droppable is a drop target as measured by the display. Columns carry
// their stage; cards carry the order id in ID.
type Droppable struct {
	ID    string       `json:"id"`
	Kind  TargetKind   `json:"kind"`
	Stage domain.Stage `json:"stage,omitempty"`
	Rect  Rect         `json:"rect"`
}

// CollisionInput is the geometry of one drag frame.
type CollisionInput struct {
	Active     Rect
	Pointer    *Point
	Droppables []Droppable
}

// Resolver returns matching droppables, best first.
type Resolver func(in CollisionInput) []Droppable

// DefaultResolvers is the order in which drop targets are looked for.
var DefaultResolvers = []Resolver{PointerWithin, RectIntersection, ClosestCorners}

// Resolve returns the best target of the first resolver that finds one.
// The dragged card itself (activeID) is never a target.
func Resolve(in CollisionInput, activeID string, resolvers ...Resolver) (Droppable, bool) {
	if len(resolvers) == 0 {
		resolvers = DefaultResolvers
	}

	candidates := make([]Droppable, 0, len(in.Droppables))
	for _, d := range in.Droppables {
		if d.Kind == TargetCard && d.ID == activeID {
			continue
		}
		candidates = append(candidates, d)
	}
	in.Droppables = candidates

	for _, resolve := range resolvers {
		if hits := resolve(in); len(hits) > 0 {
			return hits[0], true
		}
	}
	return Droppable{}, false
}

type scored struct {
	d     Droppable
	score float64
}

func rank(items []scored, ascending bool) []Droppable {
	sort.SliceStable(items, func(i, j int) bool {
		if ascending {
			return items[i].score < items[j].score
		}
		return items[i].score > items[j].score
	})
	out := make([]Droppable, len(items))
	for i, it := range items {
		out[i] = it.d
	}
	return out
}

// PointerWithin matches droppables containing the pointer, ranked by the
// summed distance from the pointer to their corners, so the innermost
// (a card inside a column) comes first.
func PointerWithin(in CollisionInput) []Droppable {
	if in.Pointer == nil {
		return nil
	}
	p := *in.Pointer

	var hits []scored
	for _, d := range in.Droppables {
		if !d.Rect.Contains(p) {
			continue
		}
		total := 0.0
		for _, c := range d.Rect.Corners() {
			total += distance(p, c)
		}
		hits = append(hits, scored{d: d, score: total})
	}
	return rank(hits, true)
}

// RectIntersection matches droppables overlapping the dragged rect, ranked by
// intersection over union.
func RectIntersection(in CollisionInput) []Droppable {
	var hits []scored
	for _, d := range in.Droppables {
		inter := in.Active.intersectionArea(d.Rect)
		if inter <= 0 {
			continue
		}
		union := in.Active.Area() + d.Rect.Area() - inter
		hits = append(hits, scored{d: d, score: inter / union})
	}
	return rank(hits, false)
}

// ClosestCorners ranks the sortable cards by the mean distance between their
// corners and the dragged rect's corners. Columns are not considered.
func ClosestCorners(in CollisionInput) []Droppable {
	active := in.Active.Corners()

	var hits []scored
	for _, d := range in.Droppables {
		if d.Kind != TargetCard {
			continue
		}
		total := 0.0
		for i, c := range d.Rect.Corners() {
			total += distance(active[i], c)
		}
		hits = append(hits, scored{d: d, score: total / 4})
	}
	return rank(hits, true)
}

func distance(a, b Point) float64 {
	return math.Hypot(a.X-b.X, a.Y-b.Y)
}
