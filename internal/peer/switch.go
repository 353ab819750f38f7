package peer

import (
	"errors"
	"log/slog"
	"sync"
)

const eventBuffer = 8192

var (
	ErrAddressInUse = errors.New("host already listening")
	ErrClosed       = errors.New("transport closed")
)

// Switch is an in-memory Network. Every transport it hands out shares the
// same host, so a test can wire several sessions together in one process.
type Switch struct {
	mu       sync.Mutex
	host     *MemTransport
	clients  []*MemTransport // join order
	maxPeers int
	nextID   int
}

// NewSwitch creates an empty in-memory network.
func NewSwitch() *Switch {
	return &Switch{nextID: HostID + 1}
}

// Listen attaches the host transport.
func (s *Switch) Listen(maxPeers int) (Transport, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.host != nil {
		return nil, ErrAddressInUse
	}
	s.host = newMemTransport(s, HostID)
	s.maxPeers = maxPeers
	return s.host, nil
}

// Dial attaches a client. The address is ignored; there is one host per switch.
func (s *Switch) Dial(_ string) Transport {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.host == nil || len(s.clients) >= s.maxPeers {
		t := newMemTransport(s, 0)
		t.closed = true
		t.push(Event{Kind: ConnectionFailed})
		return t
	}

	t := newMemTransport(s, s.nextID)
	s.nextID++

	s.host.push(Event{Kind: PeerConnected, Peer: t.id})
	for _, c := range s.clients {
		c.push(Event{Kind: PeerConnected, Peer: t.id})
	}
	t.push(Event{Kind: PeerConnected, Peer: HostID})
	for _, c := range s.clients {
		t.push(Event{Kind: PeerConnected, Peer: c.id})
	}
	t.push(Event{Kind: ConnectedToServer})

	s.clients = append(s.clients, t)
	return t
}

// Drop cuts a client off as if its connection was lost.
func (s *Switch) Drop(id int) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, c := range s.clients {
		if c.id == id {
			s.detachClient(c)
			c.push(Event{Kind: ServerDisconnected})
			return
		}
	}
}

// Peers returns the ids currently attached, host first.
func (s *Switch) Peers() []int {
	s.mu.Lock()
	defer s.mu.Unlock()

	var ids []int
	if s.host != nil {
		ids = append(ids, HostID)
	}
	for _, c := range s.clients {
		ids = append(ids, c.id)
	}
	return ids
}

// Caller must hold s.mu.
func (s *Switch) detachClient(t *MemTransport) {
	for i, c := range s.clients {
		if c == t {
			s.clients = append(s.clients[:i], s.clients[i+1:]...)
			break
		}
	}
	t.closed = true

	if s.host != nil {
		s.host.push(Event{Kind: PeerDisconnected, Peer: t.id})
	}
	for _, c := range s.clients {
		c.push(Event{Kind: PeerDisconnected, Peer: t.id})
	}
}

// Caller must hold s.mu.
func (s *Switch) detachHost() {
	s.host.closed = true
	s.host = nil
	for _, c := range s.clients {
		c.closed = true
		c.push(Event{Kind: ServerDisconnected})
	}
	s.clients = nil
	s.nextID = HostID + 1
}

// Caller must hold s.mu.
func (s *Switch) lookup(id int) *MemTransport {
	if s.host != nil && s.host.id == id {
		return s.host
	}
	for _, c := range s.clients {
		if c.id == id {
			return c
		}
	}
	return nil
}

func (s *Switch) route(from *MemTransport, to int, f Frame) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if from.closed {
		return ErrClosed
	}

	f.From = from.id
	f.To = to

	if to == Broadcast {
		if s.host != nil && s.host != from {
			s.host.push(Event{Kind: FrameReceived, Peer: from.id, Frame: f})
		}
		for _, c := range s.clients {
			if c != from {
				c.push(Event{Kind: FrameReceived, Peer: from.id, Frame: f})
			}
		}
		return nil
	}

	target := s.lookup(to)
	if target == nil || target == from {
		slog.Debug("switch: dropping frame for unknown peer", "from", from.id, "to", to, "method", f.Method)
		return nil
	}
	target.push(Event{Kind: FrameReceived, Peer: from.id, Frame: f})
	return nil
}

func (s *Switch) close(t *MemTransport) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if t.closed {
		return
	}
	if t == s.host {
		s.detachHost()
		return
	}
	s.detachClient(t)
}

// MemTransport is a Transport attached to a Switch.
type MemTransport struct {
	sw     *Switch
	id     int
	events chan Event
	closed bool // guarded by sw.mu
}

func newMemTransport(sw *Switch, id int) *MemTransport {
	return &MemTransport{
		sw:     sw,
		id:     id,
		events: make(chan Event, eventBuffer),
	}
}

// UniqueID returns the peer id.
func (t *MemTransport) UniqueID() int { return t.id }

// IsHost reports whether this is the listening transport.
func (t *MemTransport) IsHost() bool { return t.id == HostID }

// Send routes a frame through the switch.
func (t *MemTransport) Send(to int, f Frame) error {
	return t.sw.route(t, to, f)
}

// Events returns the notification channel.
func (t *MemTransport) Events() <-chan Event { return t.events }

// Close detaches the transport from the switch.
func (t *MemTransport) Close() error {
	t.sw.close(t)
	return nil
}

func (t *MemTransport) push(ev Event) {
	select {
	case t.events <- ev:
	default:
		slog.Warn("switch: event buffer full, dropping event", "peer", t.id, "kind", ev.Kind.String())
	}
}
