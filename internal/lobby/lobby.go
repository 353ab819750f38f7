// Package lobby is the pre-game screen. It keeps the screen state the session
// queries and publishes every change as an event for whatever renders it.
package lobby

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
)

// Topic carries lobby events.
const Topic = "lobby.events"

const subscriberBuffer = 256

// EventType identifies a lobby change.
type EventType string

const (
	EventRefresh      EventType = "refresh"
	EventPlayersLobby EventType = "players_lobby"
	EventGameError    EventType = "game_error"
	EventGameEnded    EventType = "game_ended"
	EventHidden       EventType = "hidden"
	EventWinner       EventType = "winner"
)

// Event is published on Topic for every lobby change.
type Event struct {
	Type    EventType `json:"type"`
	Names   []string  `json:"names,omitempty"`
	Message string    `json:"message,omitempty"`
	Winner  string    `json:"winner,omitempty"`
	Score   int       `json:"score,omitempty"`
}

// Screen is the panel the lobby shows while visible.
type Screen string

const (
	ScreenConnect Screen = "connect"
	ScreenPlayers Screen = "players"
)

// Lobby is safe for concurrent use.
type Lobby struct {
	mu      sync.RWMutex
	visible bool
	screen  Screen
	names   []string
	lastErr string

	pubsub *gochannel.GoChannel
}

// New creates a visible lobby on the connect screen.
func New() *Lobby {
	logger := watermill.NewStdLogger(false, false)
	return &Lobby{
		visible: true,
		screen:  ScreenConnect,
		// Blocking until acked keeps events in publish order.
		pubsub: gochannel.NewGoChannel(gochannel.Config{
			OutputChannelBuffer:            subscriberBuffer,
			BlockPublishUntilSubscriberAck: true,
		}, logger),
	}
}

// RefreshLobby replaces the list of registered players.
func (l *Lobby) RefreshLobby(names []string) {
	l.mu.Lock()
	l.names = append([]string(nil), names...)
	l.mu.Unlock()

	l.publish(Event{Type: EventRefresh, Names: names})
}

// ChangeToPlayersLobby switches from the connect screen to the player list.
func (l *Lobby) ChangeToPlayersLobby() {
	l.mu.Lock()
	l.screen = ScreenPlayers
	l.lastErr = ""
	l.mu.Unlock()

	l.publish(Event{Type: EventPlayersLobby})
}

// GameError returns to the connect screen and shows message.
func (l *Lobby) GameError(message string) {
	l.reset()
	l.mu.Lock()
	l.lastErr = message
	l.mu.Unlock()

	l.publish(Event{Type: EventGameError, Message: message})
}

// GameEnded returns to the connect screen.
func (l *Lobby) GameEnded() {
	l.reset()
	l.publish(Event{Type: EventGameEnded})
}

func (l *Lobby) reset() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.visible = true
	l.screen = ScreenConnect
	l.names = nil
}

// Hide hides the lobby while a round runs.
func (l *Lobby) Hide() {
	l.mu.Lock()
	l.visible = false
	l.mu.Unlock()

	l.publish(Event{Type: EventHidden})
}

func (l *Lobby) IsVisible() bool {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.visible
}

// ShowWinner announces the round winner.
func (l *Lobby) ShowWinner(name string, score int) {
	l.publish(Event{Type: EventWinner, Winner: name, Score: score})
}

func (l *Lobby) Screen() Screen {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.screen
}

func (l *Lobby) Names() []string {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return append([]string(nil), l.names...)
}

// LastError is the message of the last GameError, cleared on reconnect.
func (l *Lobby) LastError() string {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.lastErr
}

// Subscribe streams lobby events until ctx is done. Events that find the
// returned channel full are dropped.
func (l *Lobby) Subscribe(ctx context.Context) (<-chan Event, error) {
	messages, err := l.pubsub.Subscribe(ctx, Topic)
	if err != nil {
		return nil, err
	}

	out := make(chan Event, subscriberBuffer)
	go func() {
		defer close(out)
		for msg := range messages {
			var ev Event
			if err := json.Unmarshal(msg.Payload, &ev); err != nil {
				slog.Error("invalid lobby event", "msg_id", msg.UUID, "error", err)
				msg.Ack()
				continue
			}
			msg.Ack()

			select {
			case out <- ev:
			default:
				slog.Warn("lobby subscriber too slow, dropping event", "type", ev.Type)
			}
		}
	}()
	return out, nil
}

// Close stops every subscription.
func (l *Lobby) Close() error {
	return l.pubsub.Close()
}

func (l *Lobby) publish(ev Event) {
	payload, err := json.Marshal(ev)
	if err != nil {
		slog.Error("failed to encode lobby event", "type", ev.Type, "error", err)
		return
	}
	if err := l.pubsub.Publish(Topic, message.NewMessage(watermill.NewUUID(), payload)); err != nil {
		slog.Warn("failed to publish lobby event", "type", ev.Type, "error", err)
	}
}
