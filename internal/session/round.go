package session

import (
	"context"
	"log/slog"
	"time"

	"github.com/ugaemi/bombarena-server/internal/game"
	"github.com/ugaemi/bombarena-server/internal/peer"
	"github.com/ugaemi/bombarena-server/internal/round"
)

const saveTimeout = 5 * time.Second

// buildWorld instantiates the arena with one player per registered peer, in
// registration order. Only the local player gets a spawn point; every other
// position arrives through update_network.
func (s *Session) buildWorld() {
	w := game.NewWorld(s.level)
	local := s.localID()

	for _, e := range s.registry.Entries() {
		p := game.NewPlayer(e.ID, e.Name)
		if e.ID == local {
			spawns := s.level.SpawnPoints
			p.Position = spawns[s.rng.Intn(len(spawns))]
		}
		if err := w.AddPlayer(p); err != nil {
			slog.Error("failed to add player", "peer", e.ID, "error", err)
			continue
		}
		w.Score.AddPlayer(e.ID, e.Name)
	}

	hostName, _ := s.registry.Name(peer.HostID)
	s.world = w
	s.round = round.New(hostName, len(w.Players()))
	s.state = StatePlaying
	s.lobby.Hide()

	slog.Info("world built", "round", s.round.ID, "players", len(w.Players()), "rocks", w.RockCount())
}

// tick runs one physics step. Caller must hold s.mu.
func (s *Session) tick(dt time.Duration) {
	if s.world == nil {
		return
	}

	s.stepLocalPlayer(dt)

	for _, b := range s.world.Bombs() {
		if b.State == game.BombPlaced || b.State == game.BombArmed {
			s.world.UpdateOverlaps(b)
		}
		switch b.Tick(dt) {
		case game.BombFuseBurnt:
			// Every peer tries; only the bomb's owner gets past the policy check.
			if err := s.callLocal(b.NodePath(), "explode", nil); err != nil {
				slog.Debug("explode not applied here", "bomb", b.Name, "error", err)
			}
		case game.BombBlastOver:
			b.Done()
		}
	}

	for _, r := range s.world.Rocks() {
		r.Tick(dt)
	}
	s.world.Sweep()

	if s.state != StatePlaying {
		return
	}
	if winner, ok := s.world.Score.CheckWinner(s.world.RockCount()); ok {
		s.finishRound(winner)
	}
}

// stepLocalPlayer samples input for the player this peer owns and mirrors
// the result to everyone else.
func (s *Session) stepLocalPlayer(dt time.Duration) {
	p, ok := s.world.Player(s.localID())
	if !ok {
		return
	}

	if poller, ok := s.input.(game.Poller); ok {
		poller.Poll()
	}
	res := p.Step(s.input, s.world, dt.Seconds())

	if res.Bomb != nil {
		if err := s.callLocal(p.NodePath(), "setup_bomb", res.Bomb); err != nil {
			slog.Warn("failed to place bomb", "bomb", res.Bomb.Name, "error", err)
		} else if err := s.send(peer.Broadcast, p.NodePath(), "setup_bomb", res.Bomb); err != nil {
			slog.Warn("failed to replicate bomb", "bomb", res.Bomb.Name, "error", err)
		}
	}

	if err := s.send(peer.Broadcast, p.NodePath(), "update_network", networkState{Position: p.Position, Anim: p.Anim}); err != nil {
		slog.Debug("failed to replicate player", "error", err)
	}
}

func (s *Session) finishRound(winner game.ScoreRow) {
	s.state = StateFinished
	s.lobby.ShowWinner(winner.Name, winner.Score)
	slog.Info("round finished", "round", s.round.ID, "winner", winner.Name, "score", winner.Score)

	if s.rounds == nil || !s.transport.IsHost() {
		return
	}

	r := *s.round
	r.Finish(winner, s.world.Score.Rows())
	s.saves.Add(1)
	go func() {
		defer s.saves.Done()
		ctx, cancel := context.WithTimeout(context.Background(), saveTimeout)
		defer cancel()
		if err := s.rounds.SaveRound(ctx, &r); err != nil {
			slog.Error("failed to save round", "round", r.ID, "error", err)
		}
	}()
}
