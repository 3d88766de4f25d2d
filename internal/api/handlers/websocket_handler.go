// server/internal/api/handlers/websocket_handler.go
package handlers

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"reagent-inventory-api-server/internal/auth"
	"reagent-inventory-api-server/internal/reconciler"
	"reagent-inventory-api-server/internal/socket"
)

// Maximum time to wait for the next message or ping from a client.
const pongWait = 60 * time.Second

const maxMessageSize = 4096

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// Messages on the scan feed.
const (
	MessageBarcode          = "barcode"
	MessageConnected        = "connected"
	MessageScanResult       = "scan_result"
	MessageError            = "error"
	MessageInventoryChanged = "inventory_changed"
)

// ScanMessage is what a scanning client sends for each decoded code.
type ScanMessage struct {
	Type      string `json:"type"`
	Code      string `json:"code"`
	Direction string `json:"direction,omitempty"`
	Amount    int    `json:"amount,omitempty"`
}

// FeedReply is sent back to the session that produced the scan.
type FeedReply struct {
	Type    string              `json:"type"`
	Session string              `json:"session,omitempty"`
	Outcome *reconciler.Outcome `json:"outcome,omitempty"`
	Error   string              `json:"error,omitempty"`
}

type WebSocketHandler struct {
	Hub        *socket.Hub
	Tokens     *auth.TokenService
	Reconciler *reconciler.Reconciler
	Log        zerolog.Logger
}

// ServeWs upgrades the connection and runs the scan feed for one station. Each
// connection is its own scan session.
func (h *WebSocketHandler) ServeWs(c *gin.Context) {
	tokenString := c.Query("token")
	if tokenString == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Token is required"})
		return
	}

	claims, err := h.Tokens.ParseJWT(tokenString)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid or expired token"})
		return
	}

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.Log.Warn().Err(err).Msg("failed to upgrade connection")
		return
	}

	sessionID := uuid.NewString()
	h.Hub.Register(sessionID, conn)
	defer func() {
		h.Hub.Unregister(sessionID)
		conn.Close()
	}()

	log := h.Log.With().Str("session", sessionID).Str("operator", claims.Email).Logger()
	h.reply(log, sessionID, FeedReply{Type: MessageConnected, Session: sessionID})

	conn.SetReadLimit(maxMessageSize)
	conn.SetReadDeadline(time.Now().Add(pongWait))
	// gorilla answers pings itself; extending the deadline keeps idle stations connected.
	conn.SetPingHandler(func(appData string) error {
		conn.SetReadDeadline(time.Now().Add(pongWait))
		return conn.WriteControl(websocket.PongMessage, []byte(appData), time.Now().Add(time.Second))
	})

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Warn().Err(err).Msg("unexpected websocket close")
			}
			return
		}
		conn.SetReadDeadline(time.Now().Add(pongWait))

		var msg ScanMessage
		if err := json.Unmarshal(data, &msg); err != nil || msg.Type != MessageBarcode {
			h.reply(log, sessionID, FeedReply{Type: MessageError, Error: "expected a barcode message"})
			continue
		}
		h.handleScan(c, log, sessionID, claims.Email, msg)
	}
}

func (h *WebSocketHandler) handleScan(c *gin.Context, log zerolog.Logger, sessionID, operator string, msg ScanMessage) {
	direction, err := reconciler.ParseDirection(msg.Direction)
	if err != nil {
		h.reply(log, sessionID, FeedReply{Type: MessageError, Error: err.Error()})
		return
	}

	out, err := h.Reconciler.Scan(c.Request.Context(), reconciler.ScanRequest{
		SessionID: sessionID,
		Barcode:   msg.Code,
		Direction: direction,
		Amount:    msg.Amount,
		Operator:  operator,
	})
	if out.Changed() {
		notifyChanged(h.Hub, out.Item)
	}
	if err != nil {
		h.reply(log, sessionID, FeedReply{Type: MessageError, Error: err.Error()})
		return
	}
	h.reply(log, sessionID, FeedReply{Type: MessageScanResult, Outcome: &out})
}

func (h *WebSocketHandler) reply(log zerolog.Logger, sessionID string, msg FeedReply) {
	if err := h.Hub.Send(sessionID, msg); err != nil {
		log.Warn().Err(err).Str("type", msg.Type).Msg("failed to reply on scan feed")
	}
}
