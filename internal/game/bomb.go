package game

import (
	"strconv"
	"time"

	"github.com/ugaemi/bombarena-server/internal/peer"
)

// BombState is a stage of a bomb's life.
type BombState int

const (
	BombPlaced BombState = iota
	BombArmed
	BombExploding
	BombFreed
)

func (s BombState) String() string {
	switch s {
	case BombPlaced:
		return "placed"
	case BombArmed:
		return "armed"
	case BombExploding:
		return "exploding"
	case BombFreed:
		return "freed"
	default:
		return "unknown"
	}
}

// BombEvent is what a bomb tick asks the session to do.
type BombEvent int

const (
	BombIdle BombEvent = iota
	// BombFuseBurnt: call explode.
	BombFuseBurnt
	// BombBlastOver: call done.
	BombBlastOver
)

// Bomb is placed by a player and hits every explodable entity inside its
// area when it goes off. Nobody assigns it an owner, so the host owns it.
type Bomb struct {
	Name     string
	Index    int
	Position Vec2
	From     int
	State    BombState

	timer   time.Duration
	overlap []Entity
}

func NewBomb(name string, pos Vec2, from, index int) *Bomb {
	return &Bomb{
		Name:     name,
		Index:    index,
		Position: pos,
		From:     from,
		State:    BombPlaced,
		timer:    BombFuse,
	}
}

// BombKey names a bomb node by placer and placement index. Display names
// alone collide once peer ids reach two digits ("1"+"12" and "11"+"2").
func BombKey(from, index int) string {
	return strconv.Itoa(from) + "/" + strconv.Itoa(index)
}

func (b *Bomb) Key() string      { return BombKey(b.From, b.Index) }
func (b *Bomb) NodePath() string { return KindBombs + "/" + b.Key() }
func (b *Bomb) Owner() int       { return peer.HostID }
func (b *Bomb) Pos() Vec2        { return b.Position }

// OnBodyEntered adds an entity to the overlap set. Adding twice is a no-op.
func (b *Bomb) OnBodyEntered(e Entity) bool {
	if b.indexOf(e) >= 0 {
		return false
	}
	b.overlap = append(b.overlap, e)
	return true
}

// OnBodyExited removes an entity from the overlap set.
func (b *Bomb) OnBodyExited(e Entity) bool {
	i := b.indexOf(e)
	if i < 0 {
		return false
	}
	b.overlap = append(b.overlap[:i], b.overlap[i+1:]...)
	return true
}

// Overlapping returns the entities currently inside the bomb's area.
func (b *Bomb) Overlapping() []Entity {
	out := make([]Entity, len(b.overlap))
	copy(out, b.overlap)
	return out
}

func (b *Bomb) indexOf(e Entity) int {
	for i, o := range b.overlap {
		if o.NodePath() == e.NodePath() {
			return i
		}
	}
	return -1
}

// Tick advances the bomb's timeline.
func (b *Bomb) Tick(dt time.Duration) BombEvent {
	switch b.State {
	case BombPlaced:
		b.State = BombArmed
	case BombArmed:
		b.timer -= dt
		if b.timer <= 0 {
			b.State = BombExploding
			b.timer = BombBlastTime
			return BombFuseBurnt
		}
	case BombExploding:
		b.timer -= dt
		if b.timer <= 0 {
			return BombBlastOver
		}
	}
	return BombIdle
}

// Explode returns the explodable entities caught in the blast.
func (b *Bomb) Explode() []Explodable {
	if b.State == BombPlaced || b.State == BombArmed {
		b.State = BombExploding
		b.timer = BombBlastTime
	}

	var hit []Explodable
	for _, e := range b.overlap {
		if x, ok := e.(Explodable); ok {
			hit = append(hit, x)
		}
	}
	return hit
}

// Done marks the bomb for removal.
func (b *Bomb) Done() {
	b.State = BombFreed
}
