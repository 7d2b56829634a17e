package push

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClient_EmitQueuesEnvelope(t *testing.T) {
	c := NewClient(nil, "u1", "alice")

	require.NoError(t, c.Emit(EventMessageReceived, map[string]string{"username": "alice"}))

	var ev struct {
		Event   string            `json:"event"`
		Payload map[string]string `json:"payload"`
	}
	require.NoError(t, json.Unmarshal(<-c.send, &ev))
	assert.Equal(t, EventMessageReceived, ev.Event)
	assert.Equal(t, "alice", ev.Payload["username"])
}

func TestClient_EmitDoesNotBlockWhenBufferFull(t *testing.T) {
	c := NewClient(nil, "u1", "alice")
	for i := 0; i < sendBufferSize; i++ {
		require.NoError(t, c.Emit(EventUsersOnline, []string{"alice"}))
	}

	done := make(chan error, 1)
	go func() { done <- c.Emit(EventUsersOnline, []string{"alice"}) }()

	select {
	case err := <-done:
		assert.ErrorIs(t, err, ErrBufferFull)
	case <-time.After(time.Second):
		t.Fatal("Emit blocked on a full buffer")
	}
}

func TestClient_EmitAfterClose(t *testing.T) {
	c := NewClient(nil, "u1", "alice")
	c.Close()
	c.Close()

	assert.ErrorIs(t, c.Emit(EventUsersOnline, nil), ErrClosed)
	select {
	case <-c.Done():
	default:
		t.Fatal("Done not closed")
	}
}

func TestClient_WebSocketRoundTrip(t *testing.T) {
	upgrader := NewUpgrader(nil)
	closed := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		c := NewClient(conn, "u1", "alice")
		go c.WritePump()
		_ = c.Emit(EventMessageReceived, map[string]string{"hello": "world"})
		c.ReadPump(func() { close(closed) })
	}))
	defer srv.Close()

	wsURL := "ws" + strings.TrimPrefix(srv.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	require.NoError(t, err)

	_ = conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	var ev Event
	require.NoError(t, conn.ReadJSON(&ev))
	assert.Equal(t, EventMessageReceived, ev.Event)
	assert.Equal(t, map[string]any{"hello": "world"}, ev.Payload)

	require.NoError(t, conn.Close())
	select {
	case <-closed:
	case <-time.After(5 * time.Second):
		t.Fatal("server did not observe the disconnect")
	}
}

func TestUpgrader_CheckOrigin(t *testing.T) {
	req := func(origin string) *http.Request {
		r := httptest.NewRequest(http.MethodGet, "/ws", nil)
		if origin != "" {
			r.Header.Set("Origin", origin)
		}
		return r
	}

	open := NewUpgrader([]string{"*"})
	assert.True(t, open.CheckOrigin(req("https://anywhere.example")))

	restricted := NewUpgrader([]string{"https://app.example"})
	assert.True(t, restricted.CheckOrigin(req("https://app.example")))
	assert.True(t, restricted.CheckOrigin(req("")))
	assert.False(t, restricted.CheckOrigin(req("https://evil.example")))
}
