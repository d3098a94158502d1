package server

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/tubetune/internal/engine"
	"github.com/desertthunder/tubetune/internal/shared"
	"github.com/gorilla/websocket"
)

const (
	// ActionInit carries a configuration in the original extension's message format.
	ActionInit = "init"

	writeWait = 5 * time.Second
)

// Message is a client message on the WebSocket.
type Message struct {
	Action string          `json:"action"`
	Config json.RawMessage `json:"config"`
}

// EventMessage wraps an engine event sent to clients.
type EventMessage struct {
	Event engine.Event `json:"event"`
}

// WSHandler serves the WebSocket push channel.
type WSHandler struct {
	engine   Engine
	hub      *Hub
	logger   *log.Logger
	upgrader websocket.Upgrader
}

// NewWSHandler creates the handler. A nil hub disables event streaming.
func NewWSHandler(eng Engine, hub *Hub, logger *log.Logger) *WSHandler {
	return &WSHandler{
		engine: eng,
		hub:    hub,
		logger: logger,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				return true
			},
		},
	}
}

func (h *WSHandler) Routes() []string {
	return []string{"/ws"}
}

func (h *WSHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Debug("upgrade failed", "error", err)
		return
	}
	defer conn.Close()

	out := make(chan any, 16)
	done := make(chan struct{})
	defer close(done)

	var events <-chan engine.Event
	if h.hub != nil {
		var leave func()
		events, leave = h.hub.Subscribe()
		defer leave()
	}

	go h.writeLoop(conn, out, events, done)

	for {
		_, payload, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				h.logger.Debug("websocket closed", "error", err)
			}
			return
		}

		reply := h.handleMessage(payload)
		select {
		case out <- reply:
		case <-done:
			return
		}
	}
}

func (h *WSHandler) handleMessage(payload []byte) Reply {
	var msg Message
	if err := json.Unmarshal(payload, &msg); err != nil {
		h.logger.Debug("discarding malformed message", "error", err)
		return replyError(fmt.Errorf("%w: %w", shared.ErrInvalidInput, err))
	}

	if msg.Action != ActionInit {
		return replyError(fmt.Errorf("%w: unknown action %q", shared.ErrInvalidInput, msg.Action))
	}

	u, err := decodeUpdate(msg.Config)
	if err != nil {
		return replyError(err)
	}
	if err := h.engine.Update(u); err != nil {
		return replyError(err)
	}
	return replyOK
}

// writeLoop is the only writer on conn.
func (h *WSHandler) writeLoop(conn *websocket.Conn, out <-chan any, events <-chan engine.Event, done <-chan struct{}) {
	write := func(v any) bool {
		conn.SetWriteDeadline(time.Now().Add(writeWait))
		if err := conn.WriteJSON(v); err != nil {
			h.logger.Debug("websocket write failed", "error", err)
			return false
		}
		return true
	}

	for {
		select {
		case <-done:
			return
		case v := <-out:
			if !write(v) {
				return
			}
		case ev := <-events:
			if !write(EventMessage{Event: ev}) {
				return
			}
		}
	}
}
