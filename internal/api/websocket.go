package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"

	"github.com/certstudio/backend/internal/coords"
	"github.com/certstudio/backend/internal/interact"
	"github.com/certstudio/backend/internal/models"
	"github.com/certstudio/backend/internal/preview"
	"github.com/certstudio/backend/internal/workspace"
)

// WebSocket message types for the live edit protocol
const (
	// Client -> Server messages
	MsgTypeSelect       = "select"
	MsgTypeDeselect     = "deselect"
	MsgTypePointerDown  = "pointer:down"
	MsgTypePointerMove  = "pointer:move"
	MsgTypePointerUp    = "pointer:up"
	MsgTypeSliderInput  = "slider:input"
	MsgTypeSliderCommit = "slider:commit"
	MsgTypeLock         = "lock"
	MsgTypeCenter       = "center"
	MsgTypeTransform    = "transform"
	MsgTypeTheme        = "theme"
	MsgTypeColor        = "color"
	MsgTypePipeColor    = "pipeColor"
	MsgTypeVisible      = "visible"
	MsgTypePing         = "ping"

	// Server -> Client messages
	MsgTypeConnected = "connected"
	MsgTypeState     = "state"
	MsgTypeLayout    = "layout"
	MsgTypeDrag      = "drag"
	MsgTypeError     = "error"
	MsgTypePong      = "pong"
)

// DefaultWSMaxMessageKB bounds a single client message.
const DefaultWSMaxMessageKB = 64

// WebSocket message structure
type WSMessage struct {
	Type      string          `json:"type"`
	ID        string          `json:"id,omitempty"`
	Payload   json.RawMessage `json:"payload,omitempty"`
	Timestamp int64           `json:"timestamp"`
}

// Client payloads

type selectPayload struct {
	Type models.ElementType `json:"type"`
}

type pointerPayload struct {
	InstanceID string  `json:"instanceId,omitempty"`
	X          float64 `json:"x"`
	Y          float64 `json:"y"`
}

type sliderPayload struct {
	Field interact.Field `json:"field"`
	Value float64        `json:"value"`
}

type axisPayload struct {
	Axis workspace.Axis `json:"axis"`
}

type themePayload struct {
	ID string `json:"id"`
}

type colorPayload struct {
	Key string `json:"key"`
}

type visiblePayload struct {
	Visible bool `json:"visible"`
}

// Server payloads

// WSStatePayload reports the selected type after a panel edit
type WSStatePayload struct {
	Type  models.ElementType   `json:"type,omitempty"`
	State *models.ElementState `json:"state,omitempty"`
	Panel interact.PanelView   `json:"panel"`
}

// WSDragPayload reports the dragged instance, or the result on release
type WSDragPayload struct {
	Instance *preview.Instance    `json:"instance,omitempty"`
	Result   *interact.DragResult `json:"result,omitempty"`
}

// WebSocket error response
type WSErrorResponse struct {
	Type    string `json:"type"`
	Message string `json:"message"`
	Code    string `json:"code,omitempty"`
}

// LiveHandlerImpl manages WebSocket connections for live editing
type LiveHandlerImpl struct {
	batches         BatchManager
	upgrader        websocket.Upgrader
	maxMessageBytes int64
}

// NewLiveHandler creates a new WebSocket live edit handler
func NewLiveHandler(batches BatchManager, maxMessageKB int) LiveHandler {
	if maxMessageKB <= 0 {
		maxMessageKB = DefaultWSMaxMessageKB
	}
	return &LiveHandlerImpl{
		batches: batches,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				// Allow connections from dev server
				return true
			},
			ReadBufferSize:  16 * 1024,
			WriteBufferSize: 64 * 1024,
		},
		maxMessageBytes: int64(maxMessageKB) * 1024,
	}
}

// liveConn is one client. Every write goes through out so the writer
// goroutine is the only one touching the connection for writes.
type liveConn struct {
	batch *workspace.Batch
	ws    *websocket.Conn
	out   chan WSMessage
	done  chan struct{}
	tag   string
}

// HandleWebSocket upgrades HTTP connection to WebSocket and handles the live edit protocol
func (h *LiveHandlerImpl) HandleWebSocket(c echo.Context) error {
	b, err := lookupBatch(c, h.batches)
	if err != nil {
		return err
	}

	ws, err := h.upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		return err
	}
	defer ws.Close()
	ws.SetReadLimit(h.maxMessageBytes)

	lc := &liveConn{
		batch: b,
		ws:    ws,
		out:   make(chan WSMessage, 64),
		done:  make(chan struct{}),
		tag:   b.ID[:min(8, len(b.ID))],
	}
	writerDone := make(chan struct{})
	go lc.writeLoop(writerDone)

	unsubscribe := b.Subscribe(lc.pushEvent)

	fmt.Printf("[WebSocket %s] Client connected\n", lc.tag)

	summary, err := b.Summary(c.Request().Context())
	if err == nil {
		lc.send(MsgTypeConnected, "", summary)
	}

	// Main message loop
	for {
		var msg WSMessage
		err := ws.ReadJSON(&msg)
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				fmt.Printf("[WebSocket %s] Connection error: %v\n", lc.tag, err)
			}
			break
		}
		h.batches.Touch(b.ID)
		lc.handle(c.Request().Context(), msg)
	}

	unsubscribe()
	close(lc.done)
	<-writerDone
	fmt.Printf("[WebSocket %s] Client disconnected\n", lc.tag)
	return nil
}

func (lc *liveConn) writeLoop(done chan<- struct{}) {
	defer close(done)
	for {
		select {
		case msg := <-lc.out:
			if err := lc.ws.WriteJSON(msg); err != nil {
				fmt.Printf("[WebSocket %s] Failed to send message: %v\n", lc.tag, err)
			}
		case <-lc.done:
			return
		}
	}
}

// pushEvent forwards a batch event. It runs on the batch loop, so a full
// queue drops the event instead of blocking.
func (lc *liveConn) pushEvent(ev workspace.Event) {
	msg := WSMessage{Type: MsgTypeLayout, Payload: mustJSON(ev), Timestamp: time.Now().UnixMilli()}
	select {
	case lc.out <- msg:
	case <-lc.done:
	default:
		fmt.Printf("[WebSocket %s] Dropping %s push for %s: client too slow\n", lc.tag, ev.Kind, ev.Type)
	}
}

func (lc *liveConn) send(msgType, id string, payload interface{}) {
	msg := WSMessage{Type: msgType, ID: id, Payload: mustJSON(payload), Timestamp: time.Now().UnixMilli()}
	select {
	case lc.out <- msg:
	case <-lc.done:
	}
}

func (lc *liveConn) sendError(id string, err error) {
	apiErr := FromDomainError(err)
	lc.send(MsgTypeError, id, WSErrorResponse{Type: MsgTypeError, Message: apiErr.Message, Code: apiErr.Code})
}

func (lc *liveConn) handle(ctx context.Context, msg WSMessage) {
	b := lc.batch
	var (
		view interact.PanelView
		err  error
	)

	switch msg.Type {
	case MsgTypePing:
		lc.send(MsgTypePong, msg.ID, nil)
		return

	case MsgTypeSelect:
		var p selectPayload
		if err = decodePayload(msg, &p); err == nil {
			view, err = b.Select(ctx, p.Type)
		}

	case MsgTypeDeselect:
		err = b.Deselect(ctx)

	case MsgTypePointerDown:
		var p pointerPayload
		if err = decodePayload(msg, &p); err == nil {
			var inst preview.Instance
			inst, err = b.PointerDown(ctx, p.InstanceID, coords.Point{X: p.X, Y: p.Y})
			if err == nil {
				lc.send(MsgTypeDrag, msg.ID, WSDragPayload{Instance: &inst})
				view, err = b.Panel(ctx)
			}
		}

	case MsgTypePointerMove:
		var p pointerPayload
		if err = decodePayload(msg, &p); err == nil {
			var inst preview.Instance
			if inst, err = b.PointerMove(ctx, coords.Point{X: p.X, Y: p.Y}); err == nil {
				lc.send(MsgTypeDrag, msg.ID, WSDragPayload{Instance: &inst})
				return
			}
		}

	case MsgTypePointerUp:
		var res interact.DragResult
		if res, err = b.PointerUp(ctx); err == nil {
			lc.send(MsgTypeDrag, msg.ID, WSDragPayload{Result: &res})
			view, err = b.Panel(ctx)
		}

	case MsgTypeSliderInput:
		var p sliderPayload
		if err = decodePayload(msg, &p); err == nil {
			view, err = b.SliderInput(ctx, p.Field, p.Value)
		}

	case MsgTypeSliderCommit:
		var p sliderPayload
		if err = decodePayload(msg, &p); err == nil {
			view, err = b.SliderCommit(ctx, p.Field)
		}

	case MsgTypeLock:
		var p axisPayload
		if err = decodePayload(msg, &p); err == nil {
			view, err = b.ToggleLock(ctx, "", p.Axis)
		}

	case MsgTypeCenter:
		var p axisPayload
		if err = decodePayload(msg, &p); err == nil {
			view, err = b.Center(ctx, "", p.Axis)
		}

	case MsgTypeTransform:
		view, err = b.CycleTransform(ctx, "")

	case MsgTypeTheme:
		var p themePayload
		if err = decodePayload(msg, &p); err == nil {
			view, err = b.SetTheme(ctx, p.ID)
		}

	case MsgTypeColor:
		var p colorPayload
		if err = decodePayload(msg, &p); err == nil {
			view, err = b.SetColor(ctx, p.Key)
		}

	case MsgTypePipeColor:
		var p colorPayload
		if err = decodePayload(msg, &p); err == nil {
			view, err = b.SetPipeColor(ctx, p.Key)
		}

	case MsgTypeVisible:
		var p visiblePayload
		if err = decodePayload(msg, &p); err == nil {
			view, err = b.SetVisible(ctx, p.Visible)
		}

	default:
		lc.send(MsgTypeError, msg.ID, WSErrorResponse{Type: MsgTypeError, Message: "Unknown message type: " + msg.Type, Code: "INVALID_TYPE"})
		return
	}

	if err != nil {
		lc.sendError(msg.ID, err)
		return
	}
	lc.sendState(ctx, msg.ID, view)
}

func (lc *liveConn) sendState(ctx context.Context, id string, view interact.PanelView) {
	payload := WSStatePayload{Type: view.Type, Panel: view}
	if view.Selected {
		if el, err := lc.batch.Element(ctx, view.Type); err == nil {
			payload.State = &el.State
		}
	}
	lc.send(MsgTypeState, id, payload)
}

func decodePayload(msg WSMessage, v interface{}) error {
	if len(msg.Payload) == 0 {
		return NewValidationError("payload")
	}
	if err := json.Unmarshal(msg.Payload, v); err != nil {
		return NewBadRequestError("invalid payload", err)
	}
	return nil
}

func mustJSON(v interface{}) json.RawMessage {
	if v == nil {
		return nil
	}
	data, err := json.Marshal(v)
	if err != nil {
		return []byte("{}")
	}
	return data
}
