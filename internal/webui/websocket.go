package webui

import (
	"context"
	"net/http"
	"sync"
	"time"

	"collapsible/internal/observability"
	"collapsible/internal/panel"
	jsonx "collapsible/internal/shared/json"
	"collapsible/internal/shared/utils/id"
	"collapsible/internal/webui/handlers"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.opentelemetry.io/otel/attribute"
)

const (
	wsWriteWait  = 10 * time.Second
	wsPingPeriod = 30 * time.Second
	wsPongWait   = 60 * time.Second
)

// Message types on the panel stream.
const (
	MessageView       = "view"
	MessageError      = "error"
	MessageAttributes = "attributes"
	MessageToggle     = "toggle"
)

// WebSocketMessage - frame sent to stream clients
type WebSocketMessage struct {
	Type      string      `json:"type"`
	Data      *panel.View `json:"data,omitempty"`
	Changed   *bool       `json:"changed,omitempty"`
	Error     string      `json:"error,omitempty"`
	Timestamp time.Time   `json:"timestamp"`
	PanelID   string      `json:"panel_id"`
}

// ClientMessage - frame received from stream clients
type ClientMessage struct {
	Type       string              `json:"type"`
	Attributes *panel.AttributeSet `json:"attributes,omitempty"`
}

// WebSocketConnection - one stream subscriber
type WebSocketConnection struct {
	ID      string
	PanelID string
	Conn    *websocket.Conn
	Done    chan struct{}
	Context context.Context
	Cancel  context.CancelFunc

	// latest-wins: a slow client only ever sees the newest view
	views chan panel.View

	writeMu   sync.Mutex
	closeOnce sync.Once
}

func (c *WebSocketConnection) Close() {
	c.closeOnce.Do(func() {
		c.Cancel()
		close(c.Done)
		_ = c.Conn.Close()
	})
}

func (c *WebSocketConnection) offer(view panel.View) {
	select {
	case c.views <- view:
		return
	default:
	}
	select {
	case <-c.views:
	default:
	}
	select {
	case c.views <- view:
	default:
	}
}

// handleWebSocket - GET /api/panels/:id/stream
func (s *Server) handleWebSocket(c *gin.Context) {
	panelID := c.Param("id")
	p, ok := s.registry.Get(panelID)
	if !ok {
		c.JSON(http.StatusNotFound, handlers.APIResponse{Success: false, Error: "panel " + panelID + " not found"})
		return
	}

	wsConn, err := s.wsUpgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		s.logger.Warn("WebSocket upgrade failed for panel %s: %v", panelID, err)
		return
	}

	ctx, cancel := context.WithCancel(s.ctx)
	ctx, span := observability.StartSpan(id.WithPanelID(ctx, panelID), s.tracer, observability.SpanWSConnection,
		attribute.String(observability.AttrPanelID, panelID))

	conn := &WebSocketConnection{
		ID:      id.NewUUIDv7(),
		PanelID: panelID,
		Conn:    wsConn,
		Done:    make(chan struct{}),
		Context: ctx,
		Cancel:  cancel,
		views:   make(chan panel.View, 1),
	}
	s.addWebSocketConnection(conn)

	unsubscribe := p.Subscribe(conn.offer)
	conn.offer(p.View())

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		defer span.End()
		defer unsubscribe()
		defer s.removeWebSocketConnection(conn.ID)
		s.writeLoop(conn)
	}()

	s.readLoop(conn, p)
}

func (s *Server) writeLoop(conn *WebSocketConnection) {
	ticker := time.NewTicker(wsPingPeriod)
	defer ticker.Stop()

	for {
		select {
		case <-conn.Context.Done():
			return
		case view := <-conn.views:
			if err := s.writeMessage(conn, WebSocketMessage{Type: MessageView, Data: &view}); err != nil {
				s.logger.Debug("WebSocket write to %s failed: %v", conn.ID, err)
				return
			}
		case <-ticker.C:
			_ = conn.Conn.SetWriteDeadline(time.Now().Add(wsWriteWait))
			if err := conn.Conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

func (s *Server) readLoop(conn *WebSocketConnection, p *panel.Panel) {
	defer conn.Cancel()

	_ = conn.Conn.SetReadDeadline(time.Now().Add(wsPongWait))
	conn.Conn.SetPongHandler(func(string) error {
		return conn.Conn.SetReadDeadline(time.Now().Add(wsPongWait))
	})

	for {
		_, data, err := conn.Conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				s.logger.Debug("WebSocket %s closed: %v", conn.ID, err)
			}
			return
		}

		var msg ClientMessage
		if err := jsonx.Unmarshal(data, &msg); err != nil {
			s.sendError(conn, "invalid message: "+err.Error())
			continue
		}

		switch msg.Type {
		case MessageAttributes:
			if msg.Attributes == nil {
				s.sendError(conn, "attributes message without attributes")
				continue
			}
			p.Update(*msg.Attributes)
		case MessageToggle:
			// A transition publishes the new view to every subscriber, this
			// connection included.
			if !p.Toggle() {
				view := p.View()
				changed := false
				if err := s.writeMessage(conn, WebSocketMessage{Type: MessageView, Data: &view, Changed: &changed}); err != nil {
					return
				}
			}
		default:
			s.sendError(conn, "unknown message type "+msg.Type)
		}
	}
}

func (s *Server) sendError(conn *WebSocketConnection, message string) {
	if err := s.writeMessage(conn, WebSocketMessage{Type: MessageError, Error: message}); err != nil {
		s.logger.Debug("WebSocket error frame to %s failed: %v", conn.ID, err)
	}
}

// writeMessage serialises writes; gorilla connections allow one concurrent writer.
func (s *Server) writeMessage(conn *WebSocketConnection, msg WebSocketMessage) error {
	msg.Timestamp = time.Now()
	msg.PanelID = conn.PanelID
	data, err := jsonx.Marshal(msg)
	if err != nil {
		return err
	}
	conn.writeMu.Lock()
	defer conn.writeMu.Unlock()
	_ = conn.Conn.SetWriteDeadline(time.Now().Add(wsWriteWait))
	return conn.Conn.WriteMessage(websocket.TextMessage, data)
}
