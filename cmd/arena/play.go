package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/ugaemi/bombarena-server/internal/config"
	"github.com/ugaemi/bombarena-server/internal/game"
	"github.com/ugaemi/bombarena-server/internal/handler"
	"github.com/ugaemi/bombarena-server/internal/lobby"
	"github.com/ugaemi/bombarena-server/internal/session"
	"github.com/ugaemi/bombarena-server/internal/store"
	"github.com/ugaemi/bombarena-server/internal/ws"
)

// endDelay is how long the winner stays on screen before the match closes.
const endDelay = 3 * time.Second

type starter interface {
	Host(name string) error
	Join(address, name string) error
}

type playOptions struct {
	host       bool
	minPlayers int
	start      func(s starter) error
}

func play(ctx context.Context, out io.Writer, cfg *config.Config, opts playOptions) error {
	codec, err := ws.CodecByName(cfg.WireCodec)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	lb := lobby.New()
	defer lb.Close()
	events, err := lb.Subscribe(ctx)
	if err != nil {
		return fmt.Errorf("subscribe to lobby: %w", err)
	}

	var rounds store.RoundStore
	if opts.host {
		rounds, err = store.Open(ctx, cfg.DatabaseURL)
		if err != nil {
			return fmt.Errorf("open round store: %w", err)
		}
		defer rounds.Close()
	}

	var sess *session.Session
	network := ws.Network{Port: cfg.Port, Codec: codec}
	if opts.host {
		network.Routes = func(r chi.Router) {
			handler.NewRouter(sess, rounds).Routes(r)
		}
	}

	sess = session.New(session.Config{
		Network:  network,
		Lobby:    lb,
		Input:    game.NewBot(time.Now().UnixNano()),
		Rounds:   rounds,
		MaxPeers: cfg.MaxPeers,
		TickRate: cfg.TickRate,
	})
	if err := opts.start(sess); err != nil {
		return err
	}

	runCtx, cancel := context.WithCancel(ctx)
	done := make(chan error, 1)
	go func() { done <- sess.Run(runCtx) }()

	err = watch(ctx, out, sess, events, opts)
	cancel()
	if runErr := <-done; runErr != nil && !errors.Is(runErr, context.Canceled) {
		slog.Warn("session stopped", "error", runErr)
	}
	return err
}

// watch prints lobby events and drives the match until it ends.
func watch(ctx context.Context, out io.Writer, sess *session.Session, events <-chan lobby.Event, opts playOptions) error {
	var (
		started bool
		end     <-chan time.Time
	)

	for {
		select {
		case <-ctx.Done():
			return nil

		case <-end:
			sess.EndGame()
			end = nil

		case ev, ok := <-events:
			if !ok {
				return nil
			}

			switch ev.Type {
			case lobby.EventRefresh:
				fmt.Fprintf(out, "players: %s\n", strings.Join(ev.Names, ", "))
				if opts.host && !started && len(ev.Names) >= opts.minPlayers {
					if err := sess.StartRound(); err != nil {
						slog.Warn("failed to start round", "error", err)
						continue
					}
					started = true
				}
			case lobby.EventPlayersLobby:
				fmt.Fprintln(out, "waiting in lobby")
			case lobby.EventHidden:
				fmt.Fprintln(out, "round started")
			case lobby.EventWinner:
				fmt.Fprintf(out, "winner: %s (%d)\n", ev.Winner, ev.Score)
				end = time.After(endDelay)
			case lobby.EventGameError:
				return errors.New(ev.Message)
			case lobby.EventGameEnded:
				fmt.Fprintln(out, "game ended")
				return nil
			}
		}
	}
}
