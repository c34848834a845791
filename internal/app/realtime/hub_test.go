package realtime

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func dial(t *testing.T, hub *Hub, userID uint) *websocket.Conn {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := hub.ServeWS(w, r, userID); err != nil {
			t.Logf("upgrade failed: %v", err)
		}
	}))
	t.Cleanup(srv.Close)

	conn, resp, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(srv.URL, "http"), nil)
	require.NoError(t, err)
	resp.Body.Close()
	t.Cleanup(func() { conn.Close() })
	return conn
}

func TestPushToUser(t *testing.T) {
	hub := NewHub([]string{"*"})
	first := dial(t, hub, 7)
	second := dial(t, hub, 7)
	other := dial(t, hub, 8)

	require.Eventually(t, func() bool { return hub.Connections(7) == 2 }, time.Second, 10*time.Millisecond)

	n := hub.PushToUser(7, map[string]string{"type": "notification.created"})
	assert.Equal(t, 2, n)

	for _, conn := range []*websocket.Conn{first, second} {
		conn.SetReadDeadline(time.Now().Add(2 * time.Second))
		var got map[string]string
		require.NoError(t, conn.ReadJSON(&got))
		assert.Equal(t, "notification.created", got["type"])
	}

	other.SetReadDeadline(time.Now().Add(100 * time.Millisecond))
	_, _, err := other.ReadMessage()
	assert.Error(t, err, "other users receive nothing")

	assert.Equal(t, 0, hub.PushToUser(99, "nobody"))
}

func TestDisconnectUnregisters(t *testing.T) {
	hub := NewHub(nil)
	conn := dial(t, hub, 3)
	require.Eventually(t, func() bool { return hub.Connections(3) == 1 }, time.Second, 10*time.Millisecond)

	conn.Close()
	assert.Eventually(t, func() bool { return hub.Connections(3) == 0 }, 2*time.Second, 10*time.Millisecond)
}

func TestCloseRejectsNewClients(t *testing.T) {
	hub := NewHub(nil)
	conn := dial(t, hub, 1)
	require.Eventually(t, func() bool { return hub.Connections(1) == 1 }, time.Second, 10*time.Millisecond)

	hub.Close()
	assert.Equal(t, 0, hub.Connections(1))

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, _, err := conn.ReadMessage()
	assert.True(t, websocket.IsCloseError(err, websocket.CloseNormalClosure), "got %v", err)

	late := dial(t, hub, 2)
	late.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, _, err = late.ReadMessage()
	assert.Error(t, err)
	assert.Equal(t, 0, hub.Connections(2))
}

func TestOriginChecker(t *testing.T) {
	check := originChecker([]string{"https://app.example.com"})
	req := httptest.NewRequest(http.MethodGet, "/ws", nil)
	assert.True(t, check(req), "non-browser clients send no origin")

	req.Header.Set("Origin", "https://app.example.com")
	assert.True(t, check(req))
	req.Header.Set("Origin", "https://evil.example.com")
	assert.False(t, check(req))
}
