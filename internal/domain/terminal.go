package domain

import (
	"errors"
	"time"
)

var ErrTerminalNotFound = errors.New("terminal not found")

// Terminal is a registered kitchen board host.
type Terminal struct {
	ID                int
	Name              string
	Status            TerminalStatus
	LastSeen          time.Time
	TransitionsIssued int
	CreatedAt         time.Time
}

type TerminalStatus string

const (
	TerminalStatusOnline  TerminalStatus = "online"
	TerminalStatusOffline TerminalStatus = "offline"
)

func NewTerminal(name string, now time.Time) (*Terminal, error) {
	if name == "" {
		return nil, errors.New("terminal name is required")
	}

	return &Terminal{
		Name:      name,
		Status:    TerminalStatusOnline,
		LastSeen:  now,
		CreatedAt: now,
	}, nil
}

func (t *Terminal) UpdateHeartbeat(now time.Time) {
	t.LastSeen = now
	t.Status = TerminalStatusOnline
}

func (t *Terminal) SetOffline() {
	t.Status = TerminalStatusOffline
}

// IsOnline reports whether the terminal has sent a heartbeat within timeout.
func (t *Terminal) IsOnline(now time.Time, heartbeatTimeout time.Duration) bool {
	if t.Status == TerminalStatusOffline {
		return false
	}
	return now.Sub(t.LastSeen) <= heartbeatTimeout
}
