package board

import (
	"time"

	"github.com/nvimer/plaet-kitchen/internal/domain"
)

type State string

const (
	StateLoading State = "loading"
	StateReady   State = "ready"
)

type Layout string

const (
	LayoutDesktop Layout = "desktop"
	LayoutMobile  Layout = "mobile"
)

// View is a full render of the board. Desktop views fill Columns; mobile
// views fill Tabs and List.
type View struct {
	SessionID    string       `json:"session_id"`
	State        State        `json:"state"`
	Layout       Layout       `json:"layout"`
	InputMode    InputMode    `json:"input_mode"`
	RenderedAt   time.Time    `json:"rendered_at"`
	LastSyncedAt *time.Time   `json:"last_synced_at,omitempty"`
	SyncError    string       `json:"sync_error,omitempty"`
	Dragging     string       `json:"dragging,omitempty"`
	// Haptic lists the cards whose swipe committed since the last view.
	Haptic       []string     `json:"haptic,omitempty"`
	Columns      []Column     `json:"columns,omitempty"`
	Tabs         []Tab        `json:"tabs,omitempty"`
	ActiveTab    domain.Stage `json:"active_tab,omitempty"`
	List         []Card       `json:"list,omitempty"`
}

type Tab struct {
	Stage  domain.Stage `json:"stage"`
	Title  string       `json:"title"`
	Icon   string       `json:"icon"`
	Count  int          `json:"count"`
	Active bool         `json:"active"`
}
