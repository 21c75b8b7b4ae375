package ws

import (
	"context"
	"encoding/json"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/require"
)

func bootstrapHub(t *testing.T) (*Hub, string) {
	t.Helper()

	hub := NewHub()
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	go hub.Run(ctx)

	srv := httptest.NewServer(ServeWS(hub))
	t.Cleanup(srv.Close)
	return hub, "ws" + strings.TrimPrefix(srv.URL, "http")
}

func dial(t *testing.T, url string) *websocket.Conn {
	t.Helper()
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return conn
}

func readFrame(t *testing.T, conn *websocket.Conn, timeout time.Duration) (Frame, error) {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(timeout)))
	_, raw, err := conn.ReadMessage()
	if err != nil {
		return Frame{}, err
	}
	var f Frame
	require.NoError(t, json.Unmarshal(raw, &f))
	return f, nil
}

func TestJoinedClientReceivesBroadcast(t *testing.T) {
	t.Parallel()

	hub, url := bootstrapHub(t)
	conn := dial(t, url)

	require.NoError(t, conn.WriteJSON(Frame{Event: EventJoin}))
	// Give the hub goroutine a beat to process the join.
	time.Sleep(100 * time.Millisecond)

	hub.Broadcast(DefaultRoom, EventNewMessage, map[string]string{"id": "m1", "text": "hello"})

	f, err := readFrame(t, conn, 2*time.Second)
	require.NoError(t, err)
	require.Equal(t, EventNewMessage, f.Event)

	var data map[string]string
	require.NoError(t, json.Unmarshal(f.Data, &data))
	require.Equal(t, "hello", data["text"])
}

func TestUnjoinedClientReceivesNothing(t *testing.T) {
	t.Parallel()

	hub, url := bootstrapHub(t)
	conn := dial(t, url)
	// Connected but never joined the room.
	time.Sleep(100 * time.Millisecond)

	hub.Broadcast(DefaultRoom, EventNewMessage, map[string]string{"id": "m1"})

	_, err := readFrame(t, conn, 300*time.Millisecond)
	require.Error(t, err)
}

func TestLateJoinerMissesEarlierBroadcast(t *testing.T) {
	t.Parallel()

	hub, url := bootstrapHub(t)

	hub.Broadcast(DefaultRoom, EventNewMessage, map[string]string{"id": "before"})
	time.Sleep(50 * time.Millisecond)

	conn := dial(t, url)
	require.NoError(t, conn.WriteJSON(Frame{Event: EventJoin}))
	time.Sleep(100 * time.Millisecond)

	hub.Broadcast(DefaultRoom, EventNewMessage, map[string]string{"id": "after"})

	f, err := readFrame(t, conn, 2*time.Second)
	require.NoError(t, err)

	var data map[string]string
	require.NoError(t, json.Unmarshal(f.Data, &data))
	require.Equal(t, "after", data["id"])
}

func TestBroadcastToMultipleSubscribers(t *testing.T) {
	t.Parallel()

	hub, url := bootstrapHub(t)

	conns := []*websocket.Conn{dial(t, url), dial(t, url)}
	for _, c := range conns {
		require.NoError(t, c.WriteJSON(Frame{Event: EventJoin}))
	}
	time.Sleep(100 * time.Millisecond)

	hub.Broadcast(DefaultRoom, EventNewMessage, map[string]string{"id": "fanout"})

	for _, c := range conns {
		f, err := readFrame(t, c, 2*time.Second)
		require.NoError(t, err)
		require.Equal(t, EventNewMessage, f.Event)
	}
}
