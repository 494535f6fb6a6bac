package http

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nvimer/plaet-kitchen/internal/adapter/logger"
	"github.com/nvimer/plaet-kitchen/internal/adapter/orderapi"
	"github.com/nvimer/plaet-kitchen/internal/app/board"
	"github.com/nvimer/plaet-kitchen/internal/domain"
)

type fakeSource struct {
	mu      sync.Mutex
	orders  []domain.Order
	updates chan stageCall
}

func newFakeSource(orders ...domain.Order) *fakeSource {
	return &fakeSource{orders: orders, updates: make(chan stageCall, 8)}
}

func (s *fakeSource) FetchKitchenOrders(ctx context.Context) ([]domain.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]domain.Order(nil), s.orders...), nil
}

func (s *fakeSource) UpdateOrderStage(ctx context.Context, orderID string, stage domain.Stage) (*domain.Order, error) {
	s.mu.Lock()
	var updated *domain.Order
	for i := range s.orders {
		if s.orders[i].ID == orderID {
			s.orders[i].Stage = stage
			o := s.orders[i]
			updated = &o
		}
	}
	s.mu.Unlock()

	s.updates <- stageCall{orderID: orderID, stage: stage}
	if updated == nil {
		return nil, domain.ErrOrderNotFound
	}
	return updated, nil
}

func startBoardHost(t *testing.T, src *fakeSource) (*BoardHandler, *httptest.Server) {
	t.Helper()
	h := NewBoardHandler(src, nil, logger.Nop(), board.Options{
		Categories: domain.NewCategoryConfig([]string{"cat-meat"}, nil),
	}, 1280, "grill")
	srv := httptest.NewServer(NewRouter(logger.Nop(), h))
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		h.Shutdown(ctx)
		srv.Close()
	})
	return h, srv
}

func dialBoard(t *testing.T, srv *httptest.Server, query string) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/board/ws" + query
	conn, resp, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	resp.Body.Close()
	t.Cleanup(func() { conn.Close() })
	return conn
}

// readView reads messages until a view satisfies pred.
func readView(t *testing.T, conn *websocket.Conn, pred func(board.View) bool) board.View {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(3*time.Second)))
	for {
		var msg BoardMessage
		require.NoError(t, conn.ReadJSON(&msg))
		if msg.Event != EventView {
			continue
		}
		var v board.View
		require.NoError(t, json.Unmarshal(msg.Data, &v))
		if pred(v) {
			return v
		}
	}
}

func send(t *testing.T, conn *websocket.Conn, event string, data interface{}) {
	t.Helper()
	raw, err := json.Marshal(data)
	require.NoError(t, err)
	require.NoError(t, conn.WriteJSON(BoardMessage{Event: event, Data: raw}))
}

func ready(v board.View) bool { return v.State == board.StateReady }

func TestBoardMountDesktop(t *testing.T) {
	src := newFakeSource(*pendingOrder("o-1"))
	_, srv := startBoardHost(t, src)

	conn := dialBoard(t, srv, "")
	v := readView(t, conn, ready)

	assert.Equal(t, board.LayoutDesktop, v.Layout)
	assert.Equal(t, board.InputPointer, v.InputMode)
	assert.NotEmpty(t, v.SessionID)
	require.Len(t, v.Columns, 3)
	require.Len(t, v.Columns[0].Cards, 1)
	assert.Equal(t, "o-1", v.Columns[0].Cards[0].OrderID)
	assert.True(t, v.Columns[1].Empty)
}

func TestBoardDragMovesOrder(t *testing.T) {
	src := newFakeSource(*pendingOrder("o-1"))
	_, srv := startBoardHost(t, src)

	conn := dialBoard(t, srv, "")
	readView(t, conn, ready)

	column := func(stage domain.Stage, left float64) board.Droppable {
		return board.Droppable{ID: string(stage), Kind: board.TargetColumn, Stage: stage,
			Rect: board.Rect{Left: left, Top: 0, Width: 300, Height: 800}}
	}
	droppables := []board.Droppable{
		column(domain.StagePending, 0),
		column(domain.StageInProgress, 320),
		column(domain.StageDone, 640),
	}

	send(t, conn, EventDrag, dragData{Phase: board.PhaseStart, OrderID: "o-1"})
	readView(t, conn, func(v board.View) bool { return v.Dragging == "o-1" })

	send(t, conn, EventDrag, dragData{
		Phase:      board.PhaseEnd,
		OrderID:    "o-1",
		Pointer:    &board.Point{X: 700, Y: 100},
		Active:     board.Rect{Left: 690, Top: 90, Width: 20, Height: 20},
		Droppables: droppables,
	})

	select {
	case call := <-src.updates:
		assert.Equal(t, stageCall{orderID: "o-1", stage: domain.StageDone}, call)
	case <-time.After(3 * time.Second):
		t.Fatal("no stage update issued")
	}

	v := readView(t, conn, func(v board.View) bool {
		return len(v.Columns) == 3 && len(v.Columns[2].Cards) == 1
	})
	assert.Empty(t, v.Dragging)
	assert.True(t, v.Columns[0].Empty)
}

func TestBoardMountMobileUsesTabs(t *testing.T) {
	src := newFakeSource(*pendingOrder("o-1"))
	_, srv := startBoardHost(t, src)

	conn := dialBoard(t, srv, "?width=390")
	v := readView(t, conn, ready)
	assert.Equal(t, board.LayoutMobile, v.Layout)
	assert.Equal(t, board.InputTouch, v.InputMode)
	require.Len(t, v.Tabs, 3)
	assert.Equal(t, 1, v.Tabs[0].Count)

	send(t, conn, EventSwipe, swipeData{Phase: board.PhaseEnd, OrderID: "o-1", DeltaX: 120})

	select {
	case call := <-src.updates:
		assert.Equal(t, domain.StageInProgress, call.stage)
	case <-time.After(3 * time.Second):
		t.Fatal("no stage update issued")
	}

	send(t, conn, EventSelectTab, tabData{Stage: domain.StageInProgress})
	v = readView(t, conn, func(v board.View) bool {
		return v.ActiveTab == domain.StageInProgress && len(v.List) == 1
	})
	assert.Equal(t, "o-1", v.List[0].OrderID)
}

func TestBoardRejectsUnknownEvent(t *testing.T) {
	_, srv := startBoardHost(t, newFakeSource())

	conn := dialBoard(t, srv, "")
	require.NoError(t, conn.WriteJSON(BoardMessage{Event: "explode"}))

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(3*time.Second)))
	for {
		var msg BoardMessage
		require.NoError(t, conn.ReadJSON(&msg))
		if msg.Event == EventError {
			var e errorData
			require.NoError(t, json.Unmarshal(msg.Data, &e))
			assert.Contains(t, e.Message, "explode")
			return
		}
	}
}

func TestBoardMountBadWidth(t *testing.T) {
	_, srv := startBoardHost(t, newFakeSource())

	resp, err := http.Get(srv.URL + "/board/ws?width=wide")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestBoardHealthAndShutdown(t *testing.T) {
	h, srv := startBoardHost(t, newFakeSource())

	conn := dialBoard(t, srv, "")
	readView(t, conn, ready)

	resp, err := http.Get(srv.URL + "/healthz")
	require.NoError(t, err)
	var health map[string]interface{}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&health))
	resp.Body.Close()
	assert.Equal(t, "grill", health["terminal"])
	assert.Equal(t, float64(1), health["active_sessions"])

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	require.NoError(t, h.Shutdown(ctx))
	assert.Equal(t, 0, h.ActiveSessions())

	// the display sees the socket close
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(3*time.Second)))
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			break
		}
	}

	resp, err = http.Get(srv.URL + "/board/ws")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
}

func TestBoardShutdownWaitsForAdmittedSessions(t *testing.T) {
	h := NewBoardHandler(newFakeSource(), nil, logger.Nop(), board.Options{}, 1280, "grill")

	var admitted, finished atomic.Int32
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if !h.begin() {
				return
			}
			admitted.Add(1)
			time.Sleep(5 * time.Millisecond)
			finished.Add(1)
			h.sessions.Done()
		}()
	}

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	require.NoError(t, h.Shutdown(ctx))
	assert.Equal(t, admitted.Load(), finished.Load())
	assert.False(t, h.begin())

	wg.Wait()
	assert.Equal(t, admitted.Load(), finished.Load())
}

func TestBoardDropsArchivedOrderOnNextPoll(t *testing.T) {
	done := pendingOrder("o-1")
	done.Stage = domain.StageDone
	svc := newFakeOrderService(done, pendingOrder("o-2"))
	api := httptest.NewServer(NewRouter(logger.Nop(), NewOrderHandler(svc, logger.Nop())))
	defer api.Close()

	h := NewBoardHandler(orderapi.NewClient(api.URL, time.Second), nil, logger.Nop(), board.Options{
		Categories: domain.NewCategoryConfig([]string{"cat-meat"}, nil),
	}, 1280, "grill")
	srv := httptest.NewServer(NewRouter(logger.Nop(), h))
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		h.Shutdown(ctx)
		srv.Close()
	})

	conn := dialBoard(t, srv, "")
	v := readView(t, conn, ready)
	require.Len(t, v.Columns, 3)
	require.Len(t, v.Columns[2].Cards, 1)

	rec := do(t, NewRouter(logger.Nop(), NewOrderHandler(svc, logger.Nop())), http.MethodPatch, "/kitchen/orders/o-1/archive", "", nil)
	require.Equal(t, http.StatusNoContent, rec.Code)

	send(t, conn, EventRefresh, struct{}{})
	v = readView(t, conn, func(v board.View) bool {
		return v.State == board.StateReady && len(v.Columns) == 3 && v.Columns[2].Empty
	})
	require.Len(t, v.Columns[0].Cards, 1)
	assert.Equal(t, "o-2", v.Columns[0].Cards[0].OrderID)
}

func TestDecodeBoardEvent(t *testing.T) {
	tests := []struct {
		name    string
		msg     string
		want    board.Event
		wantErr bool
	}{
		{"toggle", `{"event":"toggle","data":{"line_id":"l-1","ready":true}}`, board.ToggleLine{LineID: "l-1", Ready: true}, false},
		{"toggle without line", `{"event":"toggle","data":{"ready":true}}`, nil, true},
		{"mark done", `{"event":"mark_done","data":{"order_id":"o-1"}}`, board.MarkDone{OrderID: "o-1"}, false},
		{"swipe", `{"event":"swipe","data":{"phase":"end","order_id":"o-1","delta_x":-95}}`,
			board.GestureEvent{Gesture: board.Gesture{Mode: board.InputTouch, Phase: board.PhaseEnd, OrderID: "o-1", DeltaX: -95}}, false},
		{"swipe bad phase", `{"event":"swipe","data":{"phase":"fling","order_id":"o-1"}}`, nil, true},
		{"select tab", `{"event":"select_tab","data":{"stage":"DONE"}}`, board.SelectTab{Stage: domain.StageDone}, false},
		{"select unknown tab", `{"event":"select_tab","data":{"stage":"LATER"}}`, nil, true},
		{"resize", `{"event":"resize","data":{"width":390}}`, board.ResizeViewport{Width: 390}, false},
		{"resize zero", `{"event":"resize","data":{"width":0}}`, nil, true},
		{"refresh", `{"event":"refresh"}`, board.Refresh{}, false},
		{"missing data", `{"event":"mark_done"}`, nil, true},
		{"unknown", `{"event":"dance"}`, nil, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var msg BoardMessage
			require.NoError(t, json.Unmarshal([]byte(tt.msg), &msg))

			got, err := DecodeBoardEvent(msg)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestDecodeDragEvent(t *testing.T) {
	msg := BoardMessage{Event: EventDrag, Data: json.RawMessage(`{
		"phase":"move","order_id":"o-1",
		"pointer":{"x":400,"y":120},
		"active":{"left":390,"top":110,"width":20,"height":20},
		"droppables":[{"id":"IN_PROGRESS","kind":"column","stage":"IN_PROGRESS","rect":{"left":320,"top":0,"width":300,"height":800}}]
	}`)}

	ev, err := DecodeBoardEvent(msg)
	require.NoError(t, err)

	g := ev.(board.GestureEvent).Gesture
	assert.Equal(t, board.InputPointer, g.Mode)
	assert.Equal(t, board.PhaseMove, g.Phase)
	require.NotNil(t, g.Pointer)
	assert.Equal(t, board.Point{X: 400, Y: 120}, *g.Pointer)
	require.Len(t, g.Droppables, 1)
	assert.Equal(t, domain.StageInProgress, g.Droppables[0].Stage)
}
