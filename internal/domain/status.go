package domain

import (
	"fmt"
	"time"
)

// Stage is the position of an order in the kitchen pipeline.
type Stage string

const (
	StagePending    Stage = "PENDING"
	StageInProgress Stage = "IN_PROGRESS"
	StageDone       Stage = "DONE"
)

// Stages lists the pipeline in forward order.
var Stages = []Stage{StagePending, StageInProgress, StageDone}

type Direction int

const (
	Forward Direction = iota + 1
	Backward
)

func (d Direction) String() string {
	switch d {
	case Forward:
		return "forward"
	case Backward:
		return "backward"
	default:
		return "none"
	}
}

func ParseStage(s string) (Stage, error) {
	st := Stage(s)
	if !st.Valid() {
		return "", fmt.Errorf("%w: %q", ErrInvalidStage, s)
	}
	return st, nil
}

func (s Stage) Valid() bool {
	switch s {
	case StagePending, StageInProgress, StageDone:
		return true
	}
	return false
}

// Next returns the stage after s, if any.
func (s Stage) Next() (Stage, bool) {
	switch s {
	case StagePending:
		return StageInProgress, true
	case StageInProgress:
		return StageDone, true
	}
	return s, false
}

// Prev returns the stage before s, if any.
func (s Stage) Prev() (Stage, bool) {
	switch s {
	case StageDone:
		return StageInProgress, true
	case StageInProgress:
		return StagePending, true
	}
	return s, false
}

// Step moves one stage in the given direction. Pending has no backward
// neighbour and Done has no forward one.
func (s Stage) Step(d Direction) (Stage, bool) {
	switch d {
	case Forward:
		return s.Next()
	case Backward:
		return s.Prev()
	}
	return s, false
}

// StageLog is one entry of an order's stage history.
type StageLog struct {
	ID        int
	OrderID   string
	Stage     Stage
	ChangedBy string
	ChangedAt time.Time
}
