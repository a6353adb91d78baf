package ws

import (
	"log"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"

	chatservice "github.com/haebom/hb-chat/backend/internal/service/chat"
	"github.com/haebom/hb-chat/backend/internal/service/session"
)

// Handler WebSocket 채팅 전송 처리기
type Handler struct {
	orchestrator *chatservice.Service
	store        *session.Store
	upgrader     websocket.Upgrader
}

// New 웹소켓 처리기를 생성한다
func New(orchestrator *chatservice.Service, store *session.Store) *Handler {
	return &Handler{
		orchestrator: orchestrator,
		store:        store,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				return true
			},
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
		},
	}
}

// RegisterRoutes 웹소켓 라우트를 등록한다
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/ws", h.handleWebSocket)
}

type inboundMessage struct {
	Type      string `json:"type"`
	Message   string `json:"message,omitempty"`
	SessionID string `json:"sessionId,omitempty"`
	Timestamp int64  `json:"timestamp,omitempty"`
}

type outgoingMessage struct {
	Type      string      `json:"type"`
	SessionID string      `json:"sessionId,omitempty"`
	Data      interface{} `json:"data,omitempty"`
	Error     string      `json:"error,omitempty"`
	Timestamp int64       `json:"timestamp"`
}

// handleWebSocket runs the read loop for one UI connection. Turns are
// processed one at a time in arrival order, matching the single
// interaction-at-a-time model of the UI.
func (h *Handler) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("[ws] upgrade failed: %v", err)
		return
	}
	defer conn.Close()

	log.Printf("[ws] connection opened from %s", r.RemoteAddr)

	for {
		var inbound inboundMessage
		if err := conn.ReadJSON(&inbound); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Printf("[ws] read failed: %v", err)
			}
			return
		}

		switch inbound.Type {
		case "chat":
			h.handleChatTurn(r, conn, inbound)
		case "switch":
			h.handleSwitch(conn, inbound)
		case "ping":
			h.send(conn, outgoingMessage{Type: "pong"})
		default:
			h.send(conn, outgoingMessage{Type: "error", Error: "unknown message type"})
		}
	}
}

func (h *Handler) handleChatTurn(r *http.Request, conn *websocket.Conn, inbound inboundMessage) {
	if inbound.Message == "" {
		h.send(conn, outgoingMessage{Type: "error", Error: "message is required"})
		return
	}

	reply, err := h.orchestrator.HandleUserMessage(r.Context(), inbound.Message)
	if err != nil {
		h.send(conn, outgoingMessage{Type: "error", Error: err.Error()})
		return
	}

	h.send(conn, outgoingMessage{
		Type:      "assistant",
		SessionID: h.store.ActiveID(),
		Data:      reply,
	})
}

func (h *Handler) handleSwitch(conn *websocket.Conn, inbound inboundMessage) {
	if !h.store.Switch(inbound.SessionID) {
		h.send(conn, outgoingMessage{Type: "error", Error: "session not found"})
		return
	}

	active, _ := h.store.Active()
	h.send(conn, outgoingMessage{
		Type:      "session",
		SessionID: active.ID,
		Data:      active,
	})
}

func (h *Handler) send(conn *websocket.Conn, msg outgoingMessage) {
	msg.Timestamp = time.Now().UnixMilli()
	if err := conn.WriteJSON(msg); err != nil {
		log.Printf("[ws] write failed: %v", err)
	}
}
