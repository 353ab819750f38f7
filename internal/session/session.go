// Package session owns one peer's view of a match: its network role, the
// peer registry, the replicated world and the calls that keep it in step.
package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand"
	"sync"
	"time"

	"github.com/ugaemi/bombarena-server/internal/game"
	"github.com/ugaemi/bombarena-server/internal/peer"
	"github.com/ugaemi/bombarena-server/internal/round"
	"github.com/ugaemi/bombarena-server/internal/rpc"
)

var (
	ErrBusy       = errors.New("session already active")
	ErrNotHost    = errors.New("only the host can start a round")
	ErrNotInLobby = errors.New("round cannot start outside the lobby")
	ErrEmptyLobby = errors.New("no registered players")
)

// Fatal error messages shown by the lobby.
const (
	MsgPlayerDisconnected = "Player disconnected"
	MsgServerDisconnected = "Server disconnected"
	MsgConnectionFailed   = "Connection to the server failed"
)

// Lobby is the pre-game screen the session reports to.
type Lobby interface {
	RefreshLobby(names []string)
	ChangeToPlayersLobby()
	GameError(message string)
	GameEnded()
	Hide()
	IsVisible() bool
	ShowWinner(name string, score int)
}

// RoundSaver persists finished rounds.
type RoundSaver interface {
	SaveRound(ctx context.Context, r *round.Round) error
}

// State is the session's place in its lifecycle.
type State int

const (
	StateIdle State = iota
	StateConnecting
	StateLobby
	StatePlaying
	StateFinished
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateConnecting:
		return "connecting"
	case StateLobby:
		return "lobby"
	case StatePlaying:
		return "playing"
	case StateFinished:
		return "finished"
	default:
		return "unknown"
	}
}

// Config wires a session to its collaborators.
type Config struct {
	Network peer.Network
	Lobby   Lobby
	// Input drives the local player. Nil means nothing is ever pressed.
	Input game.Input
	// Rounds receives finished rounds on the host. Nil disables persistence.
	Rounds   RoundSaver
	Level    *game.Level
	MaxPeers int
	TickRate int
	Rand     *rand.Rand
}

// Session is one peer's match state. Every method is safe to call from any
// goroutine; Run serializes transport events and physics ticks.
type Session struct {
	network  peer.Network
	lobby    Lobby
	input    game.Input
	rounds   RoundSaver
	level    *game.Level
	maxPeers int
	interval time.Duration
	rng      *rand.Rand

	mu         sync.Mutex
	transport  peer.Transport
	name       string
	state      State
	registry   *Registry
	world      *game.World
	round      *round.Round
	dispatcher *rpc.Dispatcher

	saves sync.WaitGroup
}

// New creates an idle session.
func New(cfg Config) *Session {
	if cfg.Level == nil {
		cfg.Level = game.DefaultLevel()
	}
	if cfg.MaxPeers <= 0 {
		cfg.MaxPeers = game.MaxPeers
	}
	if cfg.TickRate <= 0 {
		cfg.TickRate = game.TickRate
	}
	if cfg.Rand == nil {
		cfg.Rand = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	if cfg.Input == nil {
		cfg.Input = game.Keys{}
	}

	s := &Session{
		network:  cfg.Network,
		lobby:    cfg.Lobby,
		input:    cfg.Input,
		rounds:   cfg.Rounds,
		level:    cfg.Level,
		maxPeers: cfg.MaxPeers,
		interval: time.Second / time.Duration(cfg.TickRate),
		rng:      cfg.Rand,
		registry: NewRegistry(),
	}
	s.dispatcher = rpc.NewDispatcher(s.localID, s.lookup)
	s.registerMethods()
	return s
}

// Host starts listening for peers and registers the local player.
func (s *Session) Host(name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != StateIdle {
		return ErrBusy
	}

	tr, err := s.network.Listen(s.maxPeers)
	if err != nil {
		slog.Error("failed to host game", "error", err)
		return fmt.Errorf("host game: %w", err)
	}

	s.transport = tr
	s.name = name
	s.state = StateLobby

	s.lobby.ChangeToPlayersLobby()
	s.registry.Put(tr.UniqueID(), name)
	s.refreshLobby()

	slog.Info("game hosted", "name", name, "peer", tr.UniqueID())
	return nil
}

// Join starts connecting to a host. The outcome arrives as a transport event.
func (s *Session) Join(address, name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != StateIdle {
		return ErrBusy
	}

	s.transport = s.network.Dial(address)
	s.name = name
	s.state = StateConnecting

	slog.Info("joining game", "address", address, "name", name)
	return nil
}

// StartRound builds the world on the host and on every connected peer.
func (s *Session) StartRound() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.transport == nil || !s.transport.IsHost() {
		return ErrNotHost
	}
	if s.state != StateLobby {
		return ErrNotInLobby
	}
	if s.registry.Len() == 0 {
		return ErrEmptyLobby
	}

	s.buildWorld()
	if err := s.send(peer.Broadcast, game.KindSession, "build_world", nil); err != nil {
		return fmt.Errorf("broadcast build_world: %w", err)
	}
	return nil
}

// EndGame leaves the match and returns to the lobby.
func (s *Session) EndGame() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.teardown()
	s.lobby.GameEnded()
	slog.Info("game ended")
}

// HandleEvent applies one transport notification.
func (s *Session) HandleEvent(ev peer.Event) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.transport == nil {
		return
	}
	s.handleEvent(ev)
}

// Tick advances the local simulation by one physics step.
func (s *Session) Tick() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.tick(s.interval)
}

// Run drives the session until ctx is cancelled.
func (s *Session) Run(ctx context.Context) error {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		tr, events := s.currentTransport()

		select {
		case <-ctx.Done():
			s.mu.Lock()
			if s.state != StateIdle {
				s.teardown()
			}
			s.mu.Unlock()
			s.saves.Wait()
			return ctx.Err()

		case ev := <-events:
			s.mu.Lock()
			// Events still queued on a transport we already closed are stale.
			if s.transport == tr {
				s.handleEvent(ev)
			}
			s.mu.Unlock()

		case <-ticker.C:
			s.Tick()
		}
	}
}

// Wait blocks until pending round saves finish.
func (s *Session) Wait() {
	s.saves.Wait()
}

func (s *Session) currentTransport() (peer.Transport, <-chan peer.Event) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.transport == nil {
		return nil, nil
	}
	return s.transport, s.transport.Events()
}

func (s *Session) handleEvent(ev peer.Event) {
	switch ev.Kind {
	case peer.PeerConnected:
		s.onPeerConnected(ev.Peer)
	case peer.PeerDisconnected:
		s.onPeerDisconnected(ev.Peer)
	case peer.ConnectedToServer:
		s.onConnected()
	case peer.ConnectionFailed:
		s.fail(MsgConnectionFailed)
	case peer.ServerDisconnected:
		s.fail(MsgServerDisconnected)
	case peer.FrameReceived:
		s.onFrame(ev.Frame)
	}
}

// onPeerConnected introduces this peer to a newcomer. A client announces
// itself to the host on ConnectedToServer instead.
func (s *Session) onPeerConnected(id int) {
	slog.Info("peer connected", "peer", id)

	if !s.transport.IsHost() && id == peer.HostID {
		return
	}
	if err := s.send(id, game.KindSession, "register_player", registration{ID: s.localID(), Name: s.name}); err != nil {
		slog.Warn("failed to introduce self", "peer", id, "error", err)
	}
}

func (s *Session) onPeerDisconnected(id int) {
	slog.Info("peer disconnected", "peer", id)

	s.registry.Remove(id)
	s.refreshLobby()

	if !s.lobby.IsVisible() {
		s.fail(MsgPlayerDisconnected)
	}
}

func (s *Session) onConnected() {
	slog.Info("connected to server", "peer", s.localID())

	s.state = StateLobby
	s.lobby.ChangeToPlayersLobby()
	if err := s.send(peer.HostID, game.KindSession, "register_player", registration{ID: s.localID(), Name: s.name}); err != nil {
		slog.Warn("failed to register with host", "error", err)
	}
}

func (s *Session) onFrame(f peer.Frame) {
	if f.Type != peer.TypeRPC {
		return
	}
	call := rpc.Call{From: f.From, Path: f.Path, Method: f.Method, Args: f.Args}
	if err := s.dispatcher.Dispatch(call); err != nil {
		slog.Warn("rejected remote call", "from", f.From, "error", err)
	}
}

// fail ends the session after an unrecoverable network error.
func (s *Session) fail(message string) {
	slog.Warn("session error", "error", message)
	s.teardown()
	s.lobby.GameError(message)
}

func (s *Session) teardown() {
	if s.transport != nil {
		if err := s.transport.Close(); err != nil {
			slog.Warn("failed to close transport", "error", err)
		}
	}
	s.transport = nil
	s.registry.Clear()
	s.world = nil
	s.round = nil
	s.state = StateIdle
}

func (s *Session) refreshLobby() {
	s.lobby.RefreshLobby(s.registry.Names())
}

// localID is the executing peer's id, or 0 while offline.
func (s *Session) localID() int {
	if s.transport == nil {
		return 0
	}
	return s.transport.UniqueID()
}

func (s *Session) lookup(path string) (rpc.Target, bool) {
	if path == game.KindSession {
		return game.SessionNode{}, true
	}
	if s.world == nil {
		return nil, false
	}
	return s.world.Lookup(path)
}

// Snapshot is a point-in-time view of the session.
type Snapshot struct {
	State        string          `json:"state"`
	PeerID       int             `json:"peer_id"`
	IsHost       bool            `json:"is_host"`
	Name         string          `json:"name"`
	Players      []Entry         `json:"players"`
	LobbyVisible bool            `json:"lobby_visible"`
	RoundID      string          `json:"round_id,omitempty"`
	Scores       []game.ScoreRow `json:"scores,omitempty"`
	RocksLeft    int             `json:"rocks_left"`
}

// Snapshot returns the current session state.
func (s *Session) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	snap := Snapshot{
		State:        s.state.String(),
		PeerID:       s.localID(),
		Name:         s.name,
		Players:      s.registry.Entries(),
		LobbyVisible: s.lobby.IsVisible(),
	}
	if s.transport != nil {
		snap.IsHost = s.transport.IsHost()
	}
	if s.round != nil {
		snap.RoundID = s.round.ID
	}
	if s.world != nil {
		snap.Scores = s.world.Score.Rows()
		snap.RocksLeft = s.world.RockCount()
	}
	return snap
}
