package socket

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// dial opens a websocket against a server that registers the connection as id.
func dial(t *testing.T, hub *Hub, id string) *websocket.Conn {
	t.Helper()
	registered := make(chan struct{})
	upgrader := websocket.Upgrader{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		hub.Register(id, conn)
		close(registered)
	}))
	t.Cleanup(srv.Close)

	conn, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(srv.URL, "http"), nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })

	select {
	case <-registered:
	case <-time.After(2 * time.Second):
		t.Fatal("server never registered the connection")
	}
	return conn
}

func readText(t *testing.T, conn *websocket.Conn) string {
	t.Helper()
	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, msg, err := conn.ReadMessage()
	require.NoError(t, err)
	return string(msg)
}

func TestHub_SendAndBroadcast(t *testing.T) {
	hub := NewHub(zerolog.Nop())
	a := dial(t, hub, "a")
	b := dial(t, hub, "b")
	assert.Equal(t, 2, hub.Count())

	require.NoError(t, hub.Send("a", map[string]string{"type": "scan_result"}))
	assert.JSONEq(t, `{"type":"scan_result"}`, readText(t, a))

	hub.Broadcast(map[string]string{"type": "inventory_changed"})
	assert.JSONEq(t, `{"type":"inventory_changed"}`, readText(t, a))
	assert.JSONEq(t, `{"type":"inventory_changed"}`, readText(t, b))
}

func TestHub_SendToUnknownSession(t *testing.T) {
	hub := NewHub(zerolog.Nop())
	assert.NoError(t, hub.Send("ghost", map[string]string{"x": "y"}))
}

func TestHub_Unregister(t *testing.T) {
	hub := NewHub(zerolog.Nop())
	dial(t, hub, "a")
	hub.Unregister("a")
	hub.Unregister("a")
	assert.Equal(t, 0, hub.Count())
}
