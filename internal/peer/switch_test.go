package peer

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// drain reads every pending event from a transport.
func drain(t Transport) []Event {
	var evs []Event
	for {
		select {
		case ev := <-t.Events():
			evs = append(evs, ev)
		default:
			return evs
		}
	}
}

func kinds(evs []Event) []EventKind {
	out := make([]EventKind, len(evs))
	for i, ev := range evs {
		out[i] = ev.Kind
	}
	return out
}

func TestSwitch_ListenTwice(t *testing.T) {
	sw := NewSwitch()
	_, err := sw.Listen(12)
	require.NoError(t, err)

	_, err = sw.Listen(12)
	assert.ErrorIs(t, err, ErrAddressInUse)
}

func TestSwitch_DialWithoutHost(t *testing.T) {
	sw := NewSwitch()
	c := sw.Dial("127.0.0.1")

	evs := drain(c)
	require.Len(t, evs, 1)
	assert.Equal(t, ConnectionFailed, evs[0].Kind)
	assert.ErrorIs(t, c.Send(HostID, Frame{Type: TypeRPC}), ErrClosed)
}

func TestSwitch_JoinEventOrder(t *testing.T) {
	sw := NewSwitch()
	host, err := sw.Listen(12)
	require.NoError(t, err)

	bob := sw.Dial("host")
	carol := sw.Dial("host")

	assert.True(t, host.IsHost())
	assert.Equal(t, HostID, host.UniqueID())
	assert.Equal(t, 2, bob.UniqueID())
	assert.Equal(t, 3, carol.UniqueID())

	hostEvs := drain(host)
	require.Len(t, hostEvs, 2)
	assert.Equal(t, Event{Kind: PeerConnected, Peer: 2}, hostEvs[0])
	assert.Equal(t, Event{Kind: PeerConnected, Peer: 3}, hostEvs[1])

	bobEvs := drain(bob)
	assert.Equal(t, []EventKind{PeerConnected, ConnectedToServer, PeerConnected}, kinds(bobEvs))
	assert.Equal(t, HostID, bobEvs[0].Peer)
	assert.Equal(t, 3, bobEvs[2].Peer)

	carolEvs := drain(carol)
	assert.Equal(t, []EventKind{PeerConnected, PeerConnected, ConnectedToServer}, kinds(carolEvs))
	assert.Equal(t, HostID, carolEvs[0].Peer)
	assert.Equal(t, 2, carolEvs[1].Peer)
}

func TestSwitch_MaxPeers(t *testing.T) {
	sw := NewSwitch()
	_, err := sw.Listen(1)
	require.NoError(t, err)

	first := sw.Dial("host")
	second := sw.Dial("host")

	assert.Contains(t, kinds(drain(first)), ConnectedToServer)
	assert.Equal(t, []EventKind{ConnectionFailed}, kinds(drain(second)))
}

func TestSwitch_SendStampsSender(t *testing.T) {
	sw := NewSwitch()
	host, _ := sw.Listen(12)
	bob := sw.Dial("host")
	carol := sw.Dial("host")
	drain(host)
	drain(bob)
	drain(carol)

	require.NoError(t, bob.Send(Broadcast, Frame{Type: TypeRPC, From: 99, Method: "ping"}))

	hostEvs := drain(host)
	require.Len(t, hostEvs, 1)
	assert.Equal(t, 2, hostEvs[0].Frame.From)
	assert.Equal(t, "ping", hostEvs[0].Frame.Method)

	carolEvs := drain(carol)
	require.Len(t, carolEvs, 1)
	assert.Equal(t, 2, carolEvs[0].Peer)
	assert.Empty(t, drain(bob), "broadcast must not loop back to the sender")

	require.NoError(t, host.Send(3, Frame{Type: TypeRPC, Method: "direct"}))
	assert.Empty(t, drain(bob))
	carolEvs = drain(carol)
	require.Len(t, carolEvs, 1)
	assert.Equal(t, HostID, carolEvs[0].Frame.From)
}

func TestSwitch_DropAndClose(t *testing.T) {
	sw := NewSwitch()
	host, _ := sw.Listen(12)
	bob := sw.Dial("host")
	carol := sw.Dial("host")
	drain(host)
	drain(bob)
	drain(carol)

	sw.Drop(2)
	assert.Equal(t, []Event{{Kind: PeerDisconnected, Peer: 2}}, drain(host))
	assert.Equal(t, []Event{{Kind: PeerDisconnected, Peer: 2}}, drain(carol))
	assert.Equal(t, []EventKind{ServerDisconnected}, kinds(drain(bob)))
	assert.Equal(t, []int{HostID, 3}, sw.Peers())

	require.NoError(t, host.Close())
	assert.Equal(t, []EventKind{ServerDisconnected}, kinds(drain(carol)))
	assert.Empty(t, sw.Peers())

	// The address is free again.
	_, err := sw.Listen(12)
	assert.NoError(t, err)
}
