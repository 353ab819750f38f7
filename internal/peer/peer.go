package peer

import "encoding/json"

// HostID is the peer id reserved for the hosting peer.
const HostID = 1

// Broadcast addresses every peer except the sender.
const Broadcast = 0

// Frame types
const (
	TypeRPC              = "rpc"
	TypeWelcome          = "welcome"
	TypePeerConnected    = "peer_connected"
	TypePeerDisconnected = "peer_disconnected"
)

// Frame is a single unit on the wire between two peers.
type Frame struct {
	Type   string          `json:"type" msgpack:"type"`
	From   int             `json:"from,omitempty" msgpack:"from,omitempty"`
	To     int             `json:"to,omitempty" msgpack:"to,omitempty"`
	Path   string          `json:"path,omitempty" msgpack:"path,omitempty"`
	Method string          `json:"method,omitempty" msgpack:"method,omitempty"`
	Args   json.RawMessage `json:"args,omitempty" msgpack:"args,omitempty"`

	// Control frames
	Peer  int   `json:"peer,omitempty" msgpack:"peer,omitempty"`
	Peers []int `json:"peers,omitempty" msgpack:"peers,omitempty"`
}

// EventKind identifies a transport notification.
type EventKind int

const (
	PeerConnected EventKind = iota
	PeerDisconnected
	ConnectedToServer
	ConnectionFailed
	ServerDisconnected
	FrameReceived
)

func (k EventKind) String() string {
	switch k {
	case PeerConnected:
		return "peer_connected"
	case PeerDisconnected:
		return "peer_disconnected"
	case ConnectedToServer:
		return "connected_to_server"
	case ConnectionFailed:
		return "connection_failed"
	case ServerDisconnected:
		return "server_disconnected"
	case FrameReceived:
		return "frame"
	default:
		return "unknown"
	}
}

// Event is delivered by a Transport to its owning session.
type Event struct {
	Kind  EventKind
	Peer  int
	Frame Frame
}

// Transport is one peer's view of the network.
type Transport interface {
	// UniqueID returns this peer's id, or 0 while a client is still connecting.
	UniqueID() int
	IsHost() bool
	// Send delivers f to one peer, or to every other peer when to is Broadcast.
	Send(to int, f Frame) error
	Events() <-chan Event
	Close() error
}

// Network creates transports.
type Network interface {
	Listen(maxPeers int) (Transport, error)
	// Dial starts connecting to a host. Failure is reported as a
	// ConnectionFailed event rather than an error.
	Dial(address string) Transport
}
