package http

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/nvimer/plaet-kitchen/internal/adapter/logger"
	"github.com/nvimer/plaet-kitchen/internal/app/board"
	"github.com/nvimer/plaet-kitchen/internal/domain"
	"github.com/nvimer/plaet-kitchen/internal/interfaces"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = (pongWait * 9) / 10
	maxMessage = 64 << 10
)

// Board message events.
const (
	EventView      = "view"
	EventError     = "error"
	EventToggle    = "toggle"
	EventMarkDone  = "mark_done"
	EventSwipe     = "swipe"
	EventDrag      = "drag"
	EventSelectTab = "select_tab"
	EventResize    = "resize"
	EventRefresh   = "refresh"
)

// BoardMessage is the envelope for everything sent over a board socket.
type BoardMessage struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data,omitempty"`
}

type toggleData struct {
	LineID string `json:"line_id"`
	Ready  bool   `json:"ready"`
}

type orderData struct {
	OrderID string `json:"order_id"`
}

type swipeData struct {
	Phase   board.GesturePhase `json:"phase"`
	OrderID string             `json:"order_id"`
	DeltaX  float64            `json:"delta_x"`
}

type dragData struct {
	Phase      board.GesturePhase `json:"phase"`
	OrderID    string             `json:"order_id"`
	Pointer    *board.Point       `json:"pointer,omitempty"`
	Active     board.Rect         `json:"active"`
	Droppables []board.Droppable  `json:"droppables"`
}

type tabData struct {
	Stage domain.Stage `json:"stage"`
}

type resizeData struct {
	Width int `json:"width"`
}

type errorData struct {
	Message string `json:"message"`
}

// BoardHandler serves board mounts over websockets. Each connection runs
// its own board controller.
type BoardHandler struct {
	source       interfaces.OrderSource
	notifier     interfaces.Notifier
	logger       logger.Logger
	options      board.Options
	defaultWidth int
	terminal     string
	upgrader     websocket.Upgrader

	active   atomic.Int32
	sessions sync.WaitGroup
	mu       sync.Mutex
	closed   bool
	done     chan struct{}
}

func NewBoardHandler(source interfaces.OrderSource, notifier interfaces.Notifier, logger logger.Logger, options board.Options, defaultWidth int, terminal string) *BoardHandler {
	return &BoardHandler{
		source:       source,
		notifier:     notifier,
		logger:       logger,
		options:      options,
		defaultWidth: defaultWidth,
		terminal:     terminal,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool { return true },
		},
		done: make(chan struct{}),
	}
}

func (h *BoardHandler) RegisterRoutes(r chi.Router) {
	r.Get("/healthz", h.Health)
	r.Get("/board/ws", h.Mount)
}

func (h *BoardHandler) ActiveSessions() int {
	return int(h.active.Load())
}

func (h *BoardHandler) Health(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"status":          "ok",
		"terminal":        h.terminal,
		"active_sessions": h.ActiveSessions(),
	})
}

// Mount upgrades the request and runs one board until either side hangs up.
// The optional width query parameter sets the viewport width.
func (h *BoardHandler) Mount(w http.ResponseWriter, r *http.Request) {
	requestID := RequestIDFrom(r.Context())

	width := h.defaultWidth
	if raw := r.URL.Query().Get("width"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			respondError(w, "width must be a positive integer", http.StatusBadRequest, nil)
			return
		}
		width = n
	}

	if !h.begin() {
		respondError(w, "Board host is shutting down", http.StatusServiceUnavailable, nil)
		return
	}
	defer h.sessions.Done()

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Error("websocket_upgrade_failed", "Failed to upgrade board connection", requestID, nil, err)
		return
	}

	h.active.Add(1)
	defer h.active.Add(-1)

	views := make(chan board.View, 1)
	notices := make(chan string, 4)

	opts := h.options
	opts.SessionID = uuid.NewString()
	opts.ViewportWidth = width
	opts.Render = func(v board.View) {
		select {
		case <-views:
		default:
		}
		views <- v
	}
	ctrl := board.NewController(h.source, h.notifier, h.logger, opts)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() {
		select {
		case <-h.done:
			cancel()
		case <-ctx.Done():
		}
	}()

	h.logger.Info("board_session_opened", "Board display connected", opts.SessionID, map[string]interface{}{
		"request_id": requestID,
		"width":      width,
		"remote":     r.RemoteAddr,
	})

	go ctrl.Run(ctx)

	written := make(chan struct{})
	go func() {
		defer close(written)
		h.writeLoop(ctx, conn, views, notices)
		cancel()
	}()

	h.readLoop(ctx, conn, ctrl, notices, opts.SessionID)
	cancel()
	<-written
	<-ctrl.Done()

	h.logger.Info("board_session_closed", "Board display disconnected", opts.SessionID, nil)
}

func (h *BoardHandler) readLoop(ctx context.Context, conn *websocket.Conn, ctrl *board.Controller, notices chan<- string, sessionID string) {
	conn.SetReadLimit(maxMessage)
	conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		var msg BoardMessage
		if err := conn.ReadJSON(&msg); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				h.logger.Error("websocket_read_failed", "Board connection dropped", sessionID, nil, err)
			}
			return
		}

		ev, err := DecodeBoardEvent(msg)
		if err != nil {
			h.logger.Debug("board_message_rejected", err.Error(), sessionID, nil)
			select {
			case notices <- err.Error():
			default:
			}
			continue
		}

		if err := ctrl.Submit(ctx, ev); err != nil {
			return
		}
	}
}

func (h *BoardHandler) writeLoop(ctx context.Context, conn *websocket.Conn, views <-chan board.View, notices <-chan string) {
	ping := time.NewTicker(pingPeriod)
	defer ping.Stop()
	defer conn.Close()

	for {
		select {
		case <-ctx.Done():
			conn.SetWriteDeadline(time.Now().Add(writeWait))
			conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
			return
		case v := <-views:
			if err := writeEvent(conn, EventView, v); err != nil {
				return
			}
		case n := <-notices:
			if err := writeEvent(conn, EventError, errorData{Message: n}); err != nil {
				return
			}
		case <-ping.C:
			conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

func writeEvent(conn *websocket.Conn, event string, payload interface{}) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	conn.SetWriteDeadline(time.Now().Add(writeWait))
	return conn.WriteJSON(BoardMessage{Event: event, Data: data})
}

// begin registers a session unless Shutdown has started.
func (h *BoardHandler) begin() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return false
	}
	h.sessions.Add(1)
	return true
}

// Shutdown closes every open board and waits for them to finish.
func (h *BoardHandler) Shutdown(ctx context.Context) error {
	h.mu.Lock()
	if !h.closed {
		h.closed = true
		close(h.done)
	}
	h.mu.Unlock()

	finished := make(chan struct{})
	go func() {
		h.sessions.Wait()
		close(finished)
	}()

	select {
	case <-finished:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// DecodeBoardEvent turns a display message into a board input event.
func DecodeBoardEvent(msg BoardMessage) (board.Event, error) {
	switch msg.Event {
	case EventToggle:
		var d toggleData
		if err := decodeData(msg, &d); err != nil {
			return nil, err
		}
		if d.LineID == "" {
			return nil, fmt.Errorf("%s: line_id is required", msg.Event)
		}
		return board.ToggleLine{LineID: d.LineID, Ready: d.Ready}, nil

	case EventMarkDone:
		var d orderData
		if err := decodeData(msg, &d); err != nil {
			return nil, err
		}
		if d.OrderID == "" {
			return nil, fmt.Errorf("%s: order_id is required", msg.Event)
		}
		return board.MarkDone{OrderID: d.OrderID}, nil

	case EventSwipe:
		var d swipeData
		if err := decodeData(msg, &d); err != nil {
			return nil, err
		}
		if err := checkPhase(msg.Event, d.Phase); err != nil {
			return nil, err
		}
		return board.GestureEvent{Gesture: board.Gesture{
			Mode:    board.InputTouch,
			Phase:   d.Phase,
			OrderID: d.OrderID,
			DeltaX:  d.DeltaX,
		}}, nil

	case EventDrag:
		var d dragData
		if err := decodeData(msg, &d); err != nil {
			return nil, err
		}
		if err := checkPhase(msg.Event, d.Phase); err != nil {
			return nil, err
		}
		return board.GestureEvent{Gesture: board.Gesture{
			Mode:       board.InputPointer,
			Phase:      d.Phase,
			OrderID:    d.OrderID,
			Pointer:    d.Pointer,
			Active:     d.Active,
			Droppables: d.Droppables,
		}}, nil

	case EventSelectTab:
		var d tabData
		if err := decodeData(msg, &d); err != nil {
			return nil, err
		}
		stage, err := domain.ParseStage(string(d.Stage))
		if err != nil {
			return nil, err
		}
		return board.SelectTab{Stage: stage}, nil

	case EventResize:
		var d resizeData
		if err := decodeData(msg, &d); err != nil {
			return nil, err
		}
		if d.Width <= 0 {
			return nil, fmt.Errorf("%s: width must be positive", msg.Event)
		}
		return board.ResizeViewport{Width: d.Width}, nil

	case EventRefresh:
		return board.Refresh{}, nil
	}

	return nil, fmt.Errorf("unknown board event %q", msg.Event)
}

func decodeData(msg BoardMessage, dst interface{}) error {
	if len(msg.Data) == 0 {
		return fmt.Errorf("%s: data is required", msg.Event)
	}
	if err := json.Unmarshal(msg.Data, dst); err != nil {
		return fmt.Errorf("%s: %w", msg.Event, err)
	}
	return nil
}

func checkPhase(event string, p board.GesturePhase) error {
	switch p {
	case board.PhaseStart, board.PhaseMove, board.PhaseEnd, board.PhaseCancel:
		return nil
	}
	return fmt.Errorf("%s: unknown phase %q", event, p)
}
