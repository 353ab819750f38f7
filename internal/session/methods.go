package session

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/ugaemi/bombarena-server/internal/game"
	"github.com/ugaemi/bombarena-server/internal/peer"
	"github.com/ugaemi/bombarena-server/internal/rpc"
)

// Call arguments.
type (
	registration struct {
		ID   int    `json:"id"`
		Name string `json:"name"`
	}

	networkState struct {
		Position game.Vec2 `json:"position"`
		Anim     game.Anim `json:"anim"`
	}

	blast struct {
		By int `json:"by"`
	}

	scorer struct {
		For int `json:"for"`
	}
)

func (s *Session) registerMethods() {
	d := s.dispatcher

	d.Register(game.KindSession, "register_player", rpc.Remote, s.registerPlayer)
	d.Register(game.KindSession, "build_world", rpc.Puppet, func(rpc.Call, rpc.Target) error {
		s.buildWorld()
		return nil
	})

	d.Register(game.KindPlayers, "setup_bomb", rpc.Remote, s.setupBomb)
	d.Register(game.KindPlayers, "update_network", rpc.Puppet, s.updateNetwork)
	d.Register(game.KindPlayers, "stun", rpc.Puppet, func(_ rpc.Call, t rpc.Target) error {
		t.(*game.Player).Stun()
		return nil
	})
	d.Register(game.KindPlayers, "exploded", rpc.Master, s.playerExploded)

	d.Register(game.KindBombs, "explode", rpc.Master, s.explode)

	d.Register(game.KindRocks, "exploded", rpc.Master, s.rockExploded)
	d.Register(game.KindRocks, "do_explosion", rpc.Puppet, func(_ rpc.Call, t rpc.Target) error {
		t.(*game.Rock).Break()
		return nil
	})

	d.Register(game.KindScore, "increase_score", rpc.Remote, s.increaseScore)
}

// registerPlayer adds a peer to the registry. The host echoes a client's
// own registration back so the client lists itself after the host.
func (s *Session) registerPlayer(call rpc.Call, _ rpc.Target) error {
	var args registration
	if err := call.Decode(&args); err != nil {
		return err
	}

	slog.Info("register player", "peer", args.ID, "name", args.Name)
	s.registry.Put(args.ID, args.Name)
	s.refreshLobby()

	if s.transport.IsHost() && call.From != peer.HostID && call.From == args.ID {
		return s.send(call.From, game.KindSession, "register_player", args)
	}
	return nil
}

func (s *Session) setupBomb(call rpc.Call, _ rpc.Target) error {
	var spawn game.BombSpawn
	if err := call.Decode(&spawn); err != nil {
		return err
	}
	b, err := s.world.SpawnBomb(spawn)
	if err != nil {
		return err
	}
	slog.Debug("bomb placed", "bomb", b.Name, "from", b.From)
	return nil
}

func (s *Session) updateNetwork(call rpc.Call, t rpc.Target) error {
	var state networkState
	if err := call.Decode(&state); err != nil {
		return err
	}
	t.(*game.Player).ApplyNetwork(state.Position, state.Anim)
	return nil
}

// playerExploded runs on the player's owner and freezes every copy.
func (s *Session) playerExploded(call rpc.Call, t rpc.Target) error {
	var args blast
	if err := call.Decode(&args); err != nil {
		return err
	}

	p := t.(*game.Player)
	if !p.Exploded(args.By) {
		return nil
	}
	slog.Info("player stunned", "peer", p.ID, "by", args.By)
	return s.send(peer.Broadcast, p.NodePath(), "stun", nil)
}

// explode notifies the owner of everything caught in the blast, naming the
// player who placed the bomb.
func (s *Session) explode(_ rpc.Call, t rpc.Target) error {
	b := t.(*game.Bomb)

	var errs []error
	for _, x := range b.Explode() {
		if _, ok := s.world.Lookup(x.NodePath()); !ok {
			continue
		}
		if err := s.callOwner(x.Owner(), x.NodePath(), "exploded", blast{By: b.From}); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// rockExploded breaks a rock once and credits the bomber.
func (s *Session) rockExploded(call rpc.Call, t rpc.Target) error {
	var args blast
	if err := call.Decode(&args); err != nil {
		return err
	}

	r := t.(*game.Rock)
	if !r.Exploded(args.By) {
		return nil
	}

	if err := s.send(peer.Broadcast, r.NodePath(), "do_explosion", nil); err != nil {
		return err
	}
	credit := scorer{For: args.By}
	if err := s.callLocal(game.KindScore, "increase_score", credit); err != nil {
		return err
	}
	return s.send(peer.Broadcast, game.KindScore, "increase_score", credit)
}

func (s *Session) increaseScore(call rpc.Call, _ rpc.Target) error {
	var args scorer
	if err := call.Decode(&args); err != nil {
		return err
	}
	return s.world.Score.Increase(args.For)
}

// send delivers a call to one peer, or to every other peer on Broadcast.
func (s *Session) send(to int, path, method string, payload any) error {
	if s.transport == nil {
		return peer.ErrClosed
	}
	args, err := rpc.EncodeArgs(payload)
	if err != nil {
		return fmt.Errorf("%s.%s: encode arguments: %w", path, method, err)
	}
	return s.transport.Send(to, peer.Frame{Type: peer.TypeRPC, Path: path, Method: method, Args: args})
}

// callLocal runs a call on this peer as if this peer had sent it.
func (s *Session) callLocal(path, method string, payload any) error {
	args, err := rpc.EncodeArgs(payload)
	if err != nil {
		return fmt.Errorf("%s.%s: encode arguments: %w", path, method, err)
	}
	return s.dispatcher.Dispatch(rpc.Call{From: s.localID(), Path: path, Method: method, Args: args})
}

// callOwner delivers a call to a node's owner, running it here when this
// peer is the owner.
func (s *Session) callOwner(owner int, path, method string, payload any) error {
	if owner == s.localID() {
		return s.callLocal(path, method, payload)
	}
	return s.send(owner, path, method, payload)
}
