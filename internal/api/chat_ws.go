package api

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/lalith-99/playhub/internal/middleware"
)

const (
	wsWriteWait  = 10 * time.Second
	wsPongWait   = 60 * time.Second
	wsPingPeriod = 25 * time.Second
	wsMaxMessage = 8 << 10
	wsSendBuffer = 16
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// wsFrame is what the server writes back. Type is "reply" or "error".
type wsFrame struct {
	Type  string `json:"type"`
	Data  any    `json:"data,omitempty"`
	Error string `json:"error,omitempty"`
}

// ServeWS handles GET /v1/chat/ws
//
// Each text frame the client sends is a sendMessageRequest. Frames are
// answered in order; a frame without session_id continues the session
// opened by the previous reply on the same connection.
func (h *ChatHandler) ServeWS(c *gin.Context) {
	userID := middleware.GetUserID(c)
	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.logger.Warn("websocket upgrade failed", zap.Error(err))
		return
	}

	// The request context ends when the handler returns, so the
	// connection gets its own, carrying the caller's language.
	ctx, cancel := context.WithCancel(context.WithoutCancel(c.Request.Context()))
	defer cancel()

	send := make(chan wsFrame, wsSendBuffer)
	done := make(chan struct{})
	go h.writeLoop(conn, send, done)

	h.logger.Info("chat websocket connected", zap.String("user_id", userID))
	h.readLoop(ctx, conn, userID, send)
	close(send)
	<-done
	h.logger.Info("chat websocket disconnected", zap.String("user_id", userID))
}

func (h *ChatHandler) readLoop(ctx context.Context, conn *websocket.Conn, userID string, send chan<- wsFrame) {
	conn.SetReadLimit(wsMaxMessage)
	_ = conn.SetReadDeadline(time.Now().Add(wsPongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(wsPongWait))
	})

	sessionID := ""
	for {
		var req sendMessageRequest
		if err := conn.ReadJSON(&req); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				h.logger.Warn("websocket read failed", zap.String("user_id", userID), zap.Error(err))
			}
			return
		}
		if req.SessionID == "" {
			req.SessionID = sessionID
		}
		if req.Message == "" || req.GameKey == "" {
			send <- wsFrame{Type: "error", Error: "message and game_key are required"}
			continue
		}

		res, err := h.svc.SendMessage(ctx, req.Message, req.GameKey, req.SessionID, userID)
		if err != nil {
			send <- wsFrame{Type: "error", Error: err.Error()}
			continue
		}
		if res.Success {
			sessionID = res.SessionID
		}
		send <- wsFrame{Type: "reply", Data: res}
	}
}

func (h *ChatHandler) writeLoop(conn *websocket.Conn, send <-chan wsFrame, done chan<- struct{}) {
	ticker := time.NewTicker(wsPingPeriod)
	defer func() {
		ticker.Stop()
		conn.Close()
		close(done)
	}()

	for {
		select {
		case frame, ok := <-send:
			_ = conn.SetWriteDeadline(time.Now().Add(wsWriteWait))
			if !ok {
				_ = conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
				return
			}
			if err := conn.WriteJSON(frame); err != nil {
				h.logger.Debug("websocket write failed", zap.Error(err))
				conn.Close()
				drain(send)
				return
			}
		case <-ticker.C:
			_ = conn.SetWriteDeadline(time.Now().Add(wsWriteWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				conn.Close()
				drain(send)
				return
			}
		}
	}
}

// drain keeps the reader from blocking on a writer that has given up.
// The connection must already be closed so the reader notices and
// closes send.
func drain(send <-chan wsFrame) {
	for range send {
	}
}
