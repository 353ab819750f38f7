package game

import (
	"encoding/json"
	"fmt"
	"strconv"
)

// Anim is the animation tag replicated alongside a player's position.
type Anim int

const (
	AnimNone Anim = iota
	AnimStanding
	AnimWalkUp
	AnimWalkDown
	AnimWalkLeft
	AnimWalkRight
	AnimStunned
)

func (a Anim) String() string {
	switch a {
	case AnimStanding:
		return "standing"
	case AnimWalkUp:
		return "walk_up"
	case AnimWalkDown:
		return "walk_down"
	case AnimWalkLeft:
		return "walk_left"
	case AnimWalkRight:
		return "walk_right"
	case AnimStunned:
		return "stunned"
	default:
		return ""
	}
}

// MarshalJSON serializes Anim as a string.
func (a Anim) MarshalJSON() ([]byte, error) {
	return json.Marshal(a.String())
}

// UnmarshalJSON deserializes Anim from a string.
func (a *Anim) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	switch s {
	case "standing":
		*a = AnimStanding
	case "walk_up":
		*a = AnimWalkUp
	case "walk_down":
		*a = AnimWalkDown
	case "walk_left":
		*a = AnimWalkLeft
	case "walk_right":
		*a = AnimWalkRight
	case "stunned":
		*a = AnimStunned
	default:
		*a = AnimNone
	}
	return nil
}

// SelectAnim picks the animation for a motion: vertical beats horizontal
// beats idle, and being stunned beats everything.
func SelectAnim(motion Vec2, stunned bool) Anim {
	switch {
	case stunned:
		return AnimStunned
	case motion.Y < 0:
		return AnimWalkUp
	case motion.Y > 0:
		return AnimWalkDown
	case motion.X < 0:
		return AnimWalkLeft
	case motion.X > 0:
		return AnimWalkRight
	default:
		return AnimStanding
	}
}

// Player is one peer's avatar. Its owner is the peer it represents.
type Player struct {
	ID          int    `json:"id"`
	DisplayName string `json:"name"`
	Position    Vec2   `json:"position"`
	Anim        Anim   `json:"anim"`
	Stunned     bool   `json:"stunned"`

	prevBombing bool
	bombIndex   int
}

func NewPlayer(id int, displayName string) *Player {
	return &Player{
		ID:          id,
		DisplayName: displayName,
	}
}

// Name is the node name: the owner's peer id.
func (p *Player) Name() string { return strconv.Itoa(p.ID) }

func (p *Player) NodePath() string { return KindPlayers + "/" + p.Name() }
func (p *Player) Owner() int       { return p.ID }
func (p *Player) Pos() Vec2        { return p.Position }

// BombSpawn describes a bomb placed by a player.
type BombSpawn struct {
	Name     string `json:"name"`
	Index    int    `json:"index"`
	Position Vec2   `json:"position"`
	From     int    `json:"from"`
}

// StepResult reports what one owner-side tick did.
type StepResult struct {
	Motion      Vec2
	AnimChanged bool
	Bomb        *BombSpawn
}

// Step samples input and moves the player. Only the owning peer calls it.
func (p *Player) Step(in Input, w *World, dt float64) StepResult {
	var motion Vec2
	if in.Pressed(ActionLeft) {
		motion.X -= 1
	}
	if in.Pressed(ActionRight) {
		motion.X += 1
	}
	if in.Pressed(ActionUp) {
		motion.Y -= 1
	}
	if in.Pressed(ActionDown) {
		motion.Y += 1
	}
	bombing := in.Pressed(ActionBomb)

	if p.Stunned {
		bombing = false
		motion = Vec2{}
	}

	var res StepResult
	if bombing && !p.prevBombing {
		res.Bomb = &BombSpawn{
			Name:     fmt.Sprintf("%s%d", p.Name(), p.bombIndex),
			Index:    p.bombIndex,
			Position: p.Position,
			From:     p.ID,
		}
		p.bombIndex++
	}
	p.prevBombing = bombing

	anim := SelectAnim(motion, p.Stunned)
	if anim != p.Anim {
		p.Anim = anim
		res.AnimChanged = true
	}

	res.Motion = motion
	p.Position = w.MoveAndSlide(p.Position, motion.Scale(MotionSpeed*dt))
	return res
}

// ApplyNetwork mirrors state replicated by the owner.
func (p *Player) ApplyNetwork(pos Vec2, anim Anim) {
	p.Position = pos
	p.Anim = anim
}

func (p *Player) Stun() {
	p.Stunned = true
}

// Exploded stuns the player unless it already is.
func (p *Player) Exploded(_ int) bool {
	if p.Stunned {
		return false
	}
	p.Stun()
	return true
}
