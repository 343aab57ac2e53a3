package ws

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mqy/topicsync/chatstore"
)

// testServer records frames received from clients and hands out server side
// connections so tests can push events.
type testServer struct {
	sync.Mutex
	frames []Envelope
	conns  chan *websocket.Conn
	url    string
}

func newTestServer(t *testing.T) *testServer {
	ts := &testServer{conns: make(chan *websocket.Conn, 4)}
	upgrader := websocket.Upgrader{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		ts.conns <- conn
		for {
			_, msg, err := conn.ReadMessage()
			if err != nil {
				return
			}
			var env Envelope
			if json.Unmarshal(msg, &env) == nil {
				ts.Lock()
				ts.frames = append(ts.frames, env)
				ts.Unlock()
			}
		}
	}))
	t.Cleanup(srv.Close)
	ts.url = "ws" + strings.TrimPrefix(srv.URL, "http")
	return ts
}

func (ts *testServer) count(event, room string) int {
	ts.Lock()
	defer ts.Unlock()
	var n int
	for _, f := range ts.frames {
		if f.Event != event {
			continue
		}
		var req JoinRequest
		if json.Unmarshal(f.Data, &req) == nil && req.Room == room {
			n++
		}
	}
	return n
}

func newTestClient(t *testing.T, ts *testServer) *Client {
	c := NewClient(Config{URL: ts.url, ReconnectMin: 10 * time.Millisecond, ReconnectMax: 50 * time.Millisecond})
	t.Cleanup(func() { _ = c.Close() })
	return c
}

func TestClientJoinAndReceive(t *testing.T) {
	ts := newTestServer(t)
	c := newTestClient(t, ts)

	assert.Equal(t, ErrNotConnected, c.JoinUser("u1"))

	require.NoError(t, c.Connect(context.Background()))
	serverConn := <-ts.conns
	assert.Eventually(t, c.Connected, time.Second, 5*time.Millisecond)

	require.NoError(t, c.JoinUser("u1"))
	require.NoError(t, c.JoinChat("u1", "c1"))
	require.NoError(t, c.SendMessage(&OutboundMessage{ChatID: "c1", Text: "hello", SenderID: "u1"}))

	assert.Eventually(t, func() bool {
		return ts.count(EventUserJoin, UserRoom("u1")) == 1 && ts.count(EventChatJoin, "c1") == 1
	}, time.Second, 5*time.Millisecond)
	assert.True(t, c.JoinedChat("c1"))

	require.NoError(t, serverConn.WriteMessage(websocket.TextMessage, []byte(`{"event":"bogus","data":{}}`)))
	require.NoError(t, serverConn.WriteMessage(websocket.TextMessage,
		[]byte(`{"event":"message","data":{"chatID":"c1","senderID":"u9","text":"hi","timestamp":"2023-07-01T10:00:00Z"}}`)))

	select {
	case ev := <-c.Events():
		msg, ok := ev.(*MessageEvent)
		require.True(t, ok)
		assert.Equal(t, chatstore.ChatID("c1"), msg.ChatID)
		assert.Equal(t, "hi", msg.Text)
	case <-time.After(time.Second):
		t.Fatal("no event received")
	}

	require.NoError(t, c.LeaveChat("u1", "c1"))
	assert.False(t, c.JoinedChat("c1"))
	assert.Eventually(t, func() bool { return ts.count(EventChatLeave, "c1") == 1 }, time.Second, 5*time.Millisecond)
}

func TestClientRejoinsAfterReconnect(t *testing.T) {
	ts := newTestServer(t)
	c := newTestClient(t, ts)

	require.NoError(t, c.Connect(context.Background()))
	first := <-ts.conns
	require.NoError(t, c.JoinUser("u1"))
	require.NoError(t, c.JoinChat("u1", "c1"))
	assert.Eventually(t, func() bool { return ts.count(EventChatJoin, "c1") == 1 }, time.Second, 5*time.Millisecond)

	// drop the connection from the server side.
	require.NoError(t, first.Close())

	select {
	case <-ts.conns:
	case <-time.After(2 * time.Second):
		t.Fatal("client did not reconnect")
	}
	assert.Eventually(t, func() bool {
		return ts.count(EventUserJoin, UserRoom("u1")) == 2 && ts.count(EventChatJoin, "c1") == 2
	}, time.Second, 5*time.Millisecond)
}

func TestClientRejoinsUserRoomAfterLeavingChatWithSameID(t *testing.T) {
	ts := newTestServer(t)
	c := newTestClient(t, ts)

	require.NoError(t, c.Connect(context.Background()))
	first := <-ts.conns
	require.NoError(t, c.JoinUser("5"))
	require.NoError(t, c.JoinChat("5", "5"))
	require.NoError(t, c.LeaveChat("5", "5"))
	assert.Eventually(t, func() bool { return ts.count(EventChatLeave, "5") == 1 }, time.Second, 5*time.Millisecond)

	require.NoError(t, first.Close())
	select {
	case <-ts.conns:
	case <-time.After(2 * time.Second):
		t.Fatal("client did not reconnect")
	}
	assert.Eventually(t, func() bool { return ts.count(EventUserJoin, UserRoom("5")) == 2 }, time.Second, 5*time.Millisecond)
	assert.Equal(t, 1, ts.count(EventChatJoin, "5"))
	assert.False(t, c.JoinedChat("5"))
}

func TestClientClose(t *testing.T) {
	ts := newTestServer(t)
	c := newTestClient(t, ts)

	require.NoError(t, c.Connect(context.Background()))
	<-ts.conns
	require.NoError(t, c.Close())
	require.NoError(t, c.Close())

	_, ok := <-c.Events()
	assert.False(t, ok)
	assert.False(t, c.Connected())
	assert.Equal(t, ErrClosed, c.JoinUser("u1"))
	assert.Equal(t, ErrClosed, c.Connect(context.Background()))
}

func TestClientCloseWithoutConnect(t *testing.T) {
	c := NewClient(Config{URL: "ws://127.0.0.1:1/ws"})
	require.NoError(t, c.Close())
	_, ok := <-c.Events()
	assert.False(t, ok)
}

func TestClientConnectError(t *testing.T) {
	c := NewClient(Config{URL: "ws://127.0.0.1:1/ws", HandshakeTimeout: 100 * time.Millisecond})
	defer c.Close()
	assert.Error(t, c.Connect(context.Background()))
	assert.False(t, c.Connected())
}
