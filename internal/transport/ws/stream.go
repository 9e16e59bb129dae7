// Package ws streams chat responses over WebSocket connections.
package ws

import (
	"log"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"

	"github.com/caravanai/caravan/internal/service"
)

const (
	writeTimeout   = 10 * time.Second
	readTimeout    = 5 * time.Minute
	maxMessageSize = 64 * 1024
)

// Frame types sent to the client.
const (
	TypeDelta = "delta"
	TypeDone  = "done"
	TypeError = "error"
)

// ClientMessage is one user message sent over the socket.
type ClientMessage struct {
	Content string `json:"content"`
}

// ServerFrame is one frame sent back to the client. Delta frames carry a
// content fragment; the done frame carries the stored messages.
type ServerFrame struct {
	Type     string      `json:"type"`
	Content  string      `json:"content,omitempty"`
	Messages interface{} `json:"messages,omitempty"`
	Error    string      `json:"error,omitempty"`
}

// Handler serves the chat streaming endpoint.
type Handler struct {
	service  *service.Service
	upgrader websocket.Upgrader
}

// NewHandler creates a new WebSocket handler.
func NewHandler(svc *service.Service) *Handler {
	return &Handler{
		service: svc,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				// Single-user local playground, any origin may connect
				return true
			},
		},
	}
}

// RegisterRoutes registers the streaming endpoint with the echo server.
func (h *Handler) RegisterRoutes(e *echo.Echo) {
	e.GET("/ws/chat/:session_id", h.HandleChat)
}

// HandleChat upgrades the connection and serves one chat session: each
// incoming message is answered with a sequence of delta frames, then a
// done frame carrying the stored messages.
func (h *Handler) HandleChat(c echo.Context) error {
	sessionID := c.Param("session_id")

	conn, err := h.upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		log.Printf("WARN: failed to upgrade websocket: %v", err)
		return err
	}
	defer conn.Close()

	conn.SetReadLimit(maxMessageSize)
	conn.SetReadDeadline(time.Now().Add(readTimeout))
	conn.SetPongHandler(func(string) error {
		conn.SetReadDeadline(time.Now().Add(readTimeout))
		return nil
	})

	ctx := c.Request().Context()
	for {
		var msg ClientMessage
		if err := conn.ReadJSON(&msg); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Printf("WARN: websocket read error: %v", err)
			}
			return nil
		}
		conn.SetReadDeadline(time.Now().Add(readTimeout))

		if msg.Content == "" {
			h.writeFrame(conn, ServerFrame{Type: TypeError, Error: "content is required"})
			continue
		}

		messages, err := h.service.SendChatMessageStream(ctx, sessionID, msg.Content, func(delta string) error {
			return h.writeFrame(conn, ServerFrame{Type: TypeDelta, Content: delta})
		})
		if err != nil {
			h.writeFrame(conn, ServerFrame{Type: TypeError, Error: err.Error()})
			continue
		}

		if err := h.writeFrame(conn, ServerFrame{Type: TypeDone, Messages: messages}); err != nil {
			return nil
		}
	}
}

func (h *Handler) writeFrame(conn *websocket.Conn, frame ServerFrame) error {
	conn.SetWriteDeadline(time.Now().Add(writeTimeout))
	return conn.WriteJSON(frame)
}
