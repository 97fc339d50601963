package chat

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"github.com/mindease/backend/internal/middleware"
	"github.com/mindease/backend/internal/service/conversation"
)

const (
	wsPongWait     = 60 * time.Second
	wsPingInterval = 54 * time.Second
	wsWriteWait    = 10 * time.Second
	wsReadLimit    = 64 << 10
)

type inboundMessage struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data"`
}

type outgoingMessage struct {
	Type      string      `json:"type"`
	Data      interface{} `json:"data,omitempty"`
	Timestamp int64       `json:"timestamp"`
}

func (h *Handler) upgrader() websocket.Upgrader {
	return websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin: func(r *http.Request) bool {
			return middleware.OriginAllowed(h.allowedOrigins, r.Header.Get("Origin"))
		},
	}
}

// handleWebSocket serves chat turns over a persistent connection. Each
// {"type":"chat"} frame runs one turn; replies are written in order.
func (h *Handler) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	upgrader := h.upgrader()
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		slog.Warn("websocket upgrade failed", "error", err)
		return
	}
	defer conn.Close()

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	conn.SetReadLimit(wsReadLimit)
	_ = conn.SetReadDeadline(time.Now().Add(wsPongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(wsPongWait))
	})

	go pingLoop(ctx, conn)

	for {
		var msg inboundMessage
		if err := conn.ReadJSON(&msg); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				slog.Warn("websocket read error", "error", err)
			}
			return
		}
		_ = conn.SetReadDeadline(time.Now().Add(wsPongWait))

		if err := h.handleMessage(ctx, conn, msg); err != nil {
			slog.Warn("websocket write failed", "error", err)
			return
		}
	}
}

func (h *Handler) handleMessage(ctx context.Context, conn *websocket.Conn, msg inboundMessage) error {
	switch msg.Type {
	case "chat":
		var req conversation.Request
		if err := json.Unmarshal(msg.Data, &req); err != nil {
			return sendError(conn, "invalid chat payload")
		}

		out, err := h.turns.SubmitTurn(ctx, req)
		if err != nil {
			status, message := turnErrorStatus(err)
			logTurnError(req.UserID, status, err)
			return sendError(conn, message)
		}
		return send(conn, "reply", newChatResponse(out))
	case "ping":
		return send(conn, "pong", nil)
	default:
		return sendError(conn, "unsupported message type")
	}
}

func send(conn *websocket.Conn, msgType string, data interface{}) error {
	_ = conn.SetWriteDeadline(time.Now().Add(wsWriteWait))
	return conn.WriteJSON(outgoingMessage{
		Type:      msgType,
		Data:      data,
		Timestamp: time.Now().Unix(),
	})
}

func sendError(conn *websocket.Conn, message string) error {
	return send(conn, "error", map[string]string{"error": message})
}

// pingLoop 定期发送ping消息
func pingLoop(ctx context.Context, conn *websocket.Conn) {
	ticker := time.NewTicker(wsPingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(wsWriteWait)); err != nil {
				return
			}
		}
	}
}
