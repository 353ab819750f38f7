package ws

import (
	"log/slog"
	"sync"

	"github.com/ugaemi/bombarena-server/internal/peer"
)

const eventBuffer = 1024

type clientFrame struct {
	client *Client
	frame  peer.Frame
}

// Hub is the host's relay. It admits clients, assigns their peer ids and
// forwards frames between them, stamping every frame with its real sender.
type Hub struct {
	clients    map[int]*Client
	order      []int // join order
	Register   chan *Client
	Unregister chan *Client
	Incoming   chan *clientFrame
	mu         sync.RWMutex

	maxPeers int
	nextID   int
	events   chan peer.Event
	done     chan struct{}
	stopOnce sync.Once
}

// NewHub creates a new Hub admitting at most maxPeers clients.
func NewHub(maxPeers int) *Hub {
	return &Hub{
		clients:    make(map[int]*Client),
		Register:   make(chan *Client),
		Unregister: make(chan *Client),
		Incoming:   make(chan *clientFrame, 256),
		maxPeers:   maxPeers,
		nextID:     peer.HostID + 1,
		events:     make(chan peer.Event, eventBuffer),
		done:       make(chan struct{}),
	}
}

// Run starts the hub's main loop.
func (h *Hub) Run() {
	for {
		select {
		case <-h.done:
			h.closeAll()
			return

		case client := <-h.Register:
			h.admit(client)

		case client := <-h.Unregister:
			h.remove(client)

		case cf := <-h.Incoming:
			h.relay(cf.client, cf.frame)
		}
	}
}

func (h *Hub) admit(c *Client) {
	h.mu.Lock()
	if len(h.clients) >= h.maxPeers {
		h.mu.Unlock()
		slog.Warn("rejecting peer, server full", "max_peers", h.maxPeers)
		go c.WritePump()
		close(c.Send)
		return
	}

	c.ID = h.nextID
	h.nextID++
	existing := make([]int, len(h.order))
	copy(existing, h.order)
	h.clients[c.ID] = c
	h.order = append(h.order, c.ID)
	h.mu.Unlock()

	// The host hears about the newcomer before the newcomer is welcomed, so
	// anything the host sends in response arrives after the welcome.
	h.emit(peer.Event{Kind: peer.PeerConnected, Peer: c.ID})

	c.SendFrame(peer.Frame{Type: peer.TypeWelcome, From: peer.HostID, Peer: c.ID, Peers: existing})
	h.sendControl(c.ID, peer.Frame{Type: peer.TypePeerConnected, From: peer.HostID, Peer: c.ID})

	go c.WritePump()
	go c.ReadPump()

	slog.Info("peer connected", "peer", c.ID)
}

func (h *Hub) remove(c *Client) {
	h.mu.Lock()
	if _, ok := h.clients[c.ID]; !ok {
		h.mu.Unlock()
		return
	}
	delete(h.clients, c.ID)
	for i, id := range h.order {
		if id == c.ID {
			h.order = append(h.order[:i], h.order[i+1:]...)
			break
		}
	}
	close(c.Send)
	h.mu.Unlock()

	slog.Info("peer disconnected", "peer", c.ID)
	h.emit(peer.Event{Kind: peer.PeerDisconnected, Peer: c.ID})
	h.sendControl(c.ID, peer.Frame{Type: peer.TypePeerDisconnected, From: peer.HostID, Peer: c.ID})
}

// relay forwards a frame received from a client.
func (h *Hub) relay(from *Client, f peer.Frame) {
	if f.Type != peer.TypeRPC {
		slog.Warn("ignoring control frame from peer", "peer", from.ID, "type", f.Type)
		return
	}
	f.From = from.ID

	switch f.To {
	case peer.HostID:
		h.emit(peer.Event{Kind: peer.FrameReceived, Peer: from.ID, Frame: f})
	case peer.Broadcast:
		h.emit(peer.Event{Kind: peer.FrameReceived, Peer: from.ID, Frame: f})
		h.mu.RLock()
		for id, c := range h.clients {
			if id != from.ID {
				c.SendFrame(f)
			}
		}
		h.mu.RUnlock()
	default:
		h.mu.RLock()
		target, ok := h.clients[f.To]
		h.mu.RUnlock()
		if !ok {
			slog.Debug("dropping frame for unknown peer", "from", from.ID, "to", f.To, "method", f.Method)
			return
		}
		target.SendFrame(f)
	}
}

// Send delivers a frame originating on the host.
func (h *Hub) Send(to int, f peer.Frame) {
	f.From = peer.HostID
	f.To = to

	h.mu.RLock()
	defer h.mu.RUnlock()

	if to == peer.Broadcast {
		for _, c := range h.clients {
			c.SendFrame(f)
		}
		return
	}
	if c, ok := h.clients[to]; ok {
		c.SendFrame(f)
	}
}

// ClientCount returns the number of connected clients.
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// Stop ends the loop and closes every client.
func (h *Hub) Stop() {
	h.stopOnce.Do(func() { close(h.done) })
}

// sendControl tells every client but one about a membership change.
func (h *Hub) sendControl(except int, f peer.Frame) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for id, c := range h.clients {
		if id != except {
			c.SendFrame(f)
		}
	}
}

func (h *Hub) closeAll() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for id, c := range h.clients {
		close(c.Send)
		delete(h.clients, id)
	}
	h.order = nil
}

func (h *Hub) emit(ev peer.Event) {
	select {
	case h.events <- ev:
	case <-h.done:
	}
}

// enqueue hands a frame read by a client pump to the hub loop.
func (h *Hub) enqueue(c *Client, f peer.Frame) {
	select {
	case h.Incoming <- &clientFrame{client: c, frame: f}:
	case <-h.done:
	}
}

// unregister hands a closed client to the hub loop.
func (h *Hub) unregister(c *Client) {
	select {
	case h.Unregister <- c:
	case <-h.done:
	}
}
