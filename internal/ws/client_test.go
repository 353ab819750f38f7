package ws

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ugaemi/bombarena-server/internal/peer"
)

func TestClient_FullBufferClosesConnection(t *testing.T) {
	remoteClosed := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				close(remoteClosed)
				return
			}
		}
	}))
	defer srv.Close()

	conn, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(srv.URL, "http"), nil)
	require.NoError(t, err)

	closed := make(chan struct{})
	c := NewClient(conn, JSONCodec{}, nil, func(*Client) { close(closed) })
	go c.ReadPump()

	// No write pump runs, so the buffer only fills.
	f := peer.Frame{Type: peer.TypeRPC, Path: "rocks/rock0", Method: "do_explosion"}
	for range sendBuffer {
		require.True(t, c.SendFrame(f))
	}
	assert.False(t, c.SendFrame(f), "frame beyond the buffer is not queued")
	assert.False(t, c.SendFrame(f))

	select {
	case <-closed:
	case <-time.After(eventTimeout):
		t.Fatal("read pump did not report the closed connection")
	}
	select {
	case <-remoteClosed:
	case <-time.After(eventTimeout):
		t.Fatal("remote end still connected")
	}
}
