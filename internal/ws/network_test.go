package ws

import (
	"encoding/json"
	"io"
	"net"
	"net/http"
	"strconv"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ugaemi/bombarena-server/internal/peer"
)

const eventTimeout = 2 * time.Second

func nextEvent(t *testing.T, tr peer.Transport) peer.Event {
	t.Helper()
	select {
	case ev := <-tr.Events():
		return ev
	case <-time.After(eventTimeout):
		t.Fatal("timed out waiting for transport event")
		return peer.Event{}
	}
}

func listen(t *testing.T, n Network, maxPeers int) (*HostTransport, Network) {
	t.Helper()
	tr, err := n.Listen(maxPeers)
	require.NoError(t, err)
	host := tr.(*HostTransport)
	t.Cleanup(func() { host.Close() })

	n.Port = host.Addr().(*net.TCPAddr).Port
	return host, n
}

func dial(t *testing.T, n Network) *ClientTransport {
	t.Helper()
	c := n.Dial("127.0.0.1").(*ClientTransport)
	t.Cleanup(func() { c.Close() })
	return c
}

func TestNetwork_JoinOrder(t *testing.T) {
	host, n := listen(t, Network{}, 4)

	a := dial(t, n)
	ev := nextEvent(t, host)
	assert.Equal(t, peer.PeerConnected, ev.Kind)
	assert.Equal(t, 2, ev.Peer)

	assert.Equal(t, peer.Event{Kind: peer.PeerConnected, Peer: peer.HostID}, nextEvent(t, a))
	assert.Equal(t, peer.ConnectedToServer, nextEvent(t, a).Kind)
	assert.Equal(t, 2, a.UniqueID())

	b := dial(t, n)
	assert.Equal(t, 3, nextEvent(t, host).Peer)
	assert.Equal(t, peer.Event{Kind: peer.PeerConnected, Peer: 3}, nextEvent(t, a))

	assert.Equal(t, peer.Event{Kind: peer.PeerConnected, Peer: peer.HostID}, nextEvent(t, b))
	assert.Equal(t, peer.Event{Kind: peer.PeerConnected, Peer: 2}, nextEvent(t, b))
	assert.Equal(t, peer.ConnectedToServer, nextEvent(t, b).Kind)
}

func TestNetwork_Relay(t *testing.T) {
	host, n := listen(t, Network{}, 4)
	a := dial(t, n)
	nextEvent(t, host)
	nextEvent(t, a)
	nextEvent(t, a)
	b := dial(t, n)
	nextEvent(t, host)
	nextEvent(t, a)
	for range 3 {
		nextEvent(t, b)
	}

	args := json.RawMessage(`{"by":2}`)
	require.NoError(t, a.Send(peer.Broadcast, peer.Frame{Type: peer.TypeRPC, From: 99, Path: "score", Method: "increase_score", Args: args}))

	for _, tr := range []peer.Transport{host, b} {
		ev := nextEvent(t, tr)
		assert.Equal(t, peer.FrameReceived, ev.Kind)
		assert.Equal(t, 2, ev.Peer)
		assert.Equal(t, 2, ev.Frame.From, "sender is stamped by the host")
		assert.Equal(t, "increase_score", ev.Frame.Method)
		assert.JSONEq(t, `{"by":2}`, string(ev.Frame.Args))
	}

	require.NoError(t, host.Send(3, peer.Frame{Type: peer.TypeRPC, Path: "session", Method: "build_world"}))
	ev := nextEvent(t, b)
	assert.Equal(t, peer.HostID, ev.Frame.From)
	assert.Equal(t, "build_world", ev.Frame.Method)

	require.NoError(t, b.Send(2, peer.Frame{Type: peer.TypeRPC, Path: "players/2", Method: "stun"}))
	ev = nextEvent(t, a)
	assert.Equal(t, 3, ev.Frame.From)
	assert.Equal(t, "stun", ev.Frame.Method)
}

func TestNetwork_Disconnect(t *testing.T) {
	host, n := listen(t, Network{}, 4)
	a := dial(t, n)
	nextEvent(t, host)
	nextEvent(t, a)
	nextEvent(t, a)
	b := dial(t, n)
	nextEvent(t, host)
	nextEvent(t, a)
	for range 3 {
		nextEvent(t, b)
	}

	require.NoError(t, b.Close())
	assert.Equal(t, peer.Event{Kind: peer.PeerDisconnected, Peer: 3}, nextEvent(t, host))
	assert.Equal(t, peer.Event{Kind: peer.PeerDisconnected, Peer: 3}, nextEvent(t, a))
	assert.ErrorIs(t, b.Send(peer.HostID, peer.Frame{Type: peer.TypeRPC}), peer.ErrClosed)

	require.NoError(t, host.Close())
	assert.Equal(t, peer.ServerDisconnected, nextEvent(t, a).Kind)
	assert.ErrorIs(t, host.Send(peer.Broadcast, peer.Frame{Type: peer.TypeRPC}), peer.ErrClosed)
}

func TestNetwork_ServerFull(t *testing.T) {
	host, n := listen(t, Network{}, 1)
	a := dial(t, n)
	nextEvent(t, host)
	nextEvent(t, a)
	nextEvent(t, a)

	b := dial(t, n)
	assert.Equal(t, peer.ConnectionFailed, nextEvent(t, b).Kind)
	assert.Equal(t, 0, b.UniqueID())
	assert.ErrorIs(t, b.Send(peer.HostID, peer.Frame{Type: peer.TypeRPC}), ErrNotConnected)
}

func TestNetwork_NoHost(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	port := ln.Addr().(*net.TCPAddr).Port
	require.NoError(t, ln.Close())

	c := dial(t, Network{Port: port})
	assert.Equal(t, peer.ConnectionFailed, nextEvent(t, c).Kind)
}

func TestNetwork_ListenPortInUse(t *testing.T) {
	_, n := listen(t, Network{}, 4)

	_, err := n.Listen(4)
	assert.Error(t, err)
}

func TestNetwork_Msgpack(t *testing.T) {
	host, n := listen(t, Network{Codec: MsgpackCodec{}}, 4)
	a := dial(t, n)
	nextEvent(t, host)
	nextEvent(t, a)
	nextEvent(t, a)

	require.NoError(t, a.Send(peer.HostID, peer.Frame{Type: peer.TypeRPC, Path: "session", Method: "register_player", Args: json.RawMessage(`{"name":"Bob"}`)}))
	ev := nextEvent(t, host)
	assert.Equal(t, "register_player", ev.Frame.Method)
	assert.JSONEq(t, `{"name":"Bob"}`, string(ev.Frame.Args))
}

func TestNetwork_Routes(t *testing.T) {
	_, n := listen(t, Network{Routes: func(r chi.Router) {
		r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
			w.Write([]byte("ok"))
		})
	}}, 4)

	req, err := http.NewRequest(http.MethodGet, "http://"+net.JoinHostPort("127.0.0.1", strconv.Itoa(n.Port))+"/health", nil)
	require.NoError(t, err)
	req.Header.Set("Origin", "http://example.com")

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "ok", string(body))
	assert.Equal(t, "*", resp.Header.Get("Access-Control-Allow-Origin"), "cors is applied to every route")
}

func TestCodecByName(t *testing.T) {
	tests := []struct {
		name    string
		want    string
		wantErr bool
	}{
		{"", "json", false},
		{"json", "json", false},
		{"msgpack", "msgpack", false},
		{"protobuf", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, err := CodecByName(tt.name)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, c.Name())
		})
	}
}

func TestMsgpackCodec_ControlFrame(t *testing.T) {
	in := peer.Frame{Type: peer.TypeWelcome, Peer: 4, Peers: []int{2, 3}}
	data, err := MsgpackCodec{}.Marshal(in)
	require.NoError(t, err)

	var out peer.Frame
	require.NoError(t, MsgpackCodec{}.Unmarshal(data, &out))
	assert.Equal(t, in, out)
}
