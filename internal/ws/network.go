package ws

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/gorilla/websocket"

	"github.com/ugaemi/bombarena-server/internal/peer"
)

const dialTimeout = 10 * time.Second

var ErrNotConnected = errors.New("not connected")

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true // Peers are not browsers
	},
}

// Network is the WebSocket implementation of peer.Network.
type Network struct {
	Port  int
	Codec Codec
	// Routes mounts extra HTTP routes next to /ws on the host.
	Routes func(r chi.Router)
}

func (n Network) codec() Codec {
	if n.Codec == nil {
		return JSONCodec{}
	}
	return n.Codec
}

// Listen binds the host's listening socket and starts the relay.
func (n Network) Listen(maxPeers int) (peer.Transport, error) {
	ln, err := net.Listen("tcp", fmt.Sprintf(":%d", n.Port))
	if err != nil {
		return nil, fmt.Errorf("listen on port %d: %w", n.Port, err)
	}

	hub := NewHub(maxPeers)
	codec := n.codec()

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{http.MethodGet},
	}))
	r.Get("/ws", func(w http.ResponseWriter, req *http.Request) {
		handleWebSocket(hub, codec, w, req)
	})
	if n.Routes != nil {
		n.Routes(r)
	}

	t := &HostTransport{
		hub:      hub,
		listener: ln,
		server:   &http.Server{Handler: r, ReadHeaderTimeout: 5 * time.Second},
	}

	go hub.Run()
	go func() {
		if err := t.server.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("host server failed", "error", err)
		}
	}()

	slog.Info("hosting", "addr", ln.Addr().String(), "max_peers", maxPeers, "codec", codec.Name())
	return t, nil
}

func handleWebSocket(hub *Hub, codec Codec, w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		slog.Error("websocket upgrade failed", "error", err)
		return
	}

	client := NewClient(conn, codec, hub.enqueue, hub.unregister)
	select {
	case hub.Register <- client:
	case <-hub.done:
		conn.Close()
	}
}

// HostTransport is the listening peer's transport.
type HostTransport struct {
	hub       *Hub
	listener  net.Listener
	server    *http.Server
	closeOnce sync.Once
}

func (t *HostTransport) UniqueID() int { return peer.HostID }
func (t *HostTransport) IsHost() bool  { return true }

func (t *HostTransport) Send(to int, f peer.Frame) error {
	select {
	case <-t.hub.done:
		return peer.ErrClosed
	default:
	}
	t.hub.Send(to, f)
	return nil
}

func (t *HostTransport) Events() <-chan peer.Event { return t.hub.events }

// Addr returns the bound listening address.
func (t *HostTransport) Addr() net.Addr { return t.listener.Addr() }

// Close stops accepting peers and drops every connected one.
func (t *HostTransport) Close() error {
	var err error
	t.closeOnce.Do(func() {
		t.hub.Stop()
		ctx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		err = t.server.Shutdown(ctx)
	})
	return err
}

// Dial starts connecting to a host in the background.
func (n Network) Dial(address string) peer.Transport {
	t := &ClientTransport{
		codec:  n.codec(),
		events: make(chan peer.Event, eventBuffer),
		done:   make(chan struct{}),
	}
	url := fmt.Sprintf("ws://%s/ws", net.JoinHostPort(address, strconv.Itoa(n.Port)))
	go t.connect(url)
	return t
}

// ClientTransport is a joining peer's link to the host.
type ClientTransport struct {
	codec  Codec
	events chan peer.Event
	done   chan struct{}

	mu       sync.RWMutex
	id       int
	client   *Client
	welcomed bool
	closed   bool
}

func (t *ClientTransport) connect(url string) {
	ctx, cancel := context.WithTimeout(context.Background(), dialTimeout)
	defer cancel()

	conn, _, err := websocket.DefaultDialer.DialContext(ctx, url, nil)
	if err != nil {
		slog.Warn("connection to host failed", "url", url, "error", err)
		t.emit(peer.Event{Kind: peer.ConnectionFailed})
		return
	}

	t.mu.Lock()
	if t.closed {
		t.mu.Unlock()
		conn.Close()
		return
	}
	t.client = NewClient(conn, t.codec, t.handleFrame, t.handleClose)
	t.client.ID = peer.HostID
	t.mu.Unlock()

	go t.client.WritePump()
	go t.client.ReadPump()
}

func (t *ClientTransport) handleFrame(_ *Client, f peer.Frame) {
	switch f.Type {
	case peer.TypeWelcome:
		t.mu.Lock()
		t.id = f.Peer
		t.welcomed = true
		t.mu.Unlock()

		slog.Info("connected to host", "peer", f.Peer)
		t.emit(peer.Event{Kind: peer.PeerConnected, Peer: peer.HostID})
		for _, id := range f.Peers {
			t.emit(peer.Event{Kind: peer.PeerConnected, Peer: id})
		}
		t.emit(peer.Event{Kind: peer.ConnectedToServer})
	case peer.TypePeerConnected:
		t.emit(peer.Event{Kind: peer.PeerConnected, Peer: f.Peer})
	case peer.TypePeerDisconnected:
		t.emit(peer.Event{Kind: peer.PeerDisconnected, Peer: f.Peer})
	case peer.TypeRPC:
		t.emit(peer.Event{Kind: peer.FrameReceived, Peer: f.From, Frame: f})
	default:
		slog.Warn("unknown frame type", "type", f.Type)
	}
}

func (t *ClientTransport) handleClose(_ *Client) {
	t.mu.RLock()
	closed, welcomed := t.closed, t.welcomed
	t.mu.RUnlock()

	switch {
	case closed:
	case welcomed:
		t.emit(peer.Event{Kind: peer.ServerDisconnected})
	default:
		t.emit(peer.Event{Kind: peer.ConnectionFailed})
	}
}

func (t *ClientTransport) UniqueID() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.id
}

func (t *ClientTransport) IsHost() bool { return false }

func (t *ClientTransport) Send(to int, f peer.Frame) error {
	t.mu.RLock()
	defer t.mu.RUnlock()

	if t.closed {
		return peer.ErrClosed
	}
	if !t.welcomed {
		return ErrNotConnected
	}
	f.From = t.id
	f.To = to
	t.client.SendFrame(f)
	return nil
}

func (t *ClientTransport) Events() <-chan peer.Event { return t.events }

// Close drops the connection to the host.
func (t *ClientTransport) Close() error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.closed {
		return nil
	}
	t.closed = true
	close(t.done)
	if t.client != nil {
		close(t.client.Send)
	}
	return nil
}

func (t *ClientTransport) emit(ev peer.Event) {
	select {
	case t.events <- ev:
	case <-t.done:
	}
}
