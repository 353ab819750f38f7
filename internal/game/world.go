package game

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
)

var ErrDuplicateNode = errors.New("node already exists")

// World is one peer's copy of the shared arena. Every peer builds its own
// from the same level and keeps it in step through replicated calls.
type World struct {
	Level *Level
	Score *Score

	players []*Player
	byID    map[int]*Player
	bombs   []*Bomb
	byBomb  map[string]*Bomb
	rocks   []*Rock
	byRock  map[string]*Rock
}

// NewWorld instantiates a level.
func NewWorld(level *Level) *World {
	w := &World{
		Level:  level,
		Score:  NewScore(),
		byID:   make(map[int]*Player),
		byBomb: make(map[string]*Bomb),
		byRock: make(map[string]*Rock),
	}
	for _, spec := range level.Rocks {
		r := NewRock(spec.Name, spec.Position)
		w.rocks = append(w.rocks, r)
		w.byRock[r.Name] = r
	}
	return w
}

// AddPlayer adds a player under "players/<id>".
func (w *World) AddPlayer(p *Player) error {
	if _, ok := w.byID[p.ID]; ok {
		return fmt.Errorf("%s: %w", p.NodePath(), ErrDuplicateNode)
	}
	w.players = append(w.players, p)
	w.byID[p.ID] = p
	return nil
}

func (w *World) Player(id int) (*Player, bool) {
	p, ok := w.byID[id]
	return p, ok
}

// Players returns players in the order they were added.
func (w *World) Players() []*Player {
	out := make([]*Player, len(w.players))
	copy(out, w.players)
	return out
}

// SpawnBomb places a bomb under "bombs/<from>/<index>".
func (w *World) SpawnBomb(spawn BombSpawn) (*Bomb, error) {
	key := BombKey(spawn.From, spawn.Index)
	if _, ok := w.byBomb[key]; ok {
		return nil, fmt.Errorf("%s/%s: %w", KindBombs, key, ErrDuplicateNode)
	}
	b := NewBomb(spawn.Name, spawn.Position, spawn.From, spawn.Index)
	w.bombs = append(w.bombs, b)
	w.byBomb[key] = b
	return b, nil
}

func (w *World) Bomb(from, index int) (*Bomb, bool) {
	b, ok := w.byBomb[BombKey(from, index)]
	return b, ok
}

func (w *World) Bombs() []*Bomb {
	out := make([]*Bomb, len(w.bombs))
	copy(out, w.bombs)
	return out
}

func (w *World) Rock(name string) (*Rock, bool) {
	r, ok := w.byRock[name]
	return r, ok
}

func (w *World) Rocks() []*Rock {
	out := make([]*Rock, len(w.rocks))
	copy(out, w.rocks)
	return out
}

// RockCount is the number of rocks still in the world, breaking ones included.
func (w *World) RockCount() int {
	n := 0
	for _, r := range w.rocks {
		if !r.Freed {
			n++
		}
	}
	return n
}

// Lookup resolves a node path inside the world.
func (w *World) Lookup(path string) (Node, bool) {
	kind, name, _ := strings.Cut(path, "/")
	switch kind {
	case KindScore:
		return w.Score, name == ""
	case KindPlayers:
		id, err := strconv.Atoi(name)
		if err != nil {
			return nil, false
		}
		p, ok := w.byID[id]
		return p, ok
	case KindBombs:
		b, ok := w.byBomb[name]
		if !ok || b.State == BombFreed {
			return nil, false
		}
		return b, true
	case KindRocks:
		r, ok := w.byRock[name]
		if !ok || r.Freed {
			return nil, false
		}
		return r, true
	}
	return nil, false
}

// MoveAndSlide moves a player box by motion, sliding along whatever blocks
// one axis.
func (w *World) MoveAndSlide(from, motion Vec2) Vec2 {
	pos := from

	if motion.X != 0 {
		next := Vec2{X: clamp(pos.X+motion.X, PlayerHalfSize, WorldWidth-PlayerHalfSize), Y: pos.Y}
		if !w.blocked(next) {
			pos = next
		}
	}
	if motion.Y != 0 {
		next := Vec2{X: pos.X, Y: clamp(pos.Y+motion.Y, PlayerHalfSize, WorldHeight-PlayerHalfSize)}
		if !w.blocked(next) {
			pos = next
		}
	}
	return pos
}

func (w *World) blocked(pos Vec2) bool {
	const reach = PlayerHalfSize + TileSize/2
	for _, r := range w.rocks {
		if !r.Solid() {
			continue
		}
		if math.Abs(pos.X-r.Position.X) < reach && math.Abs(pos.Y-r.Position.Y) < reach {
			return true
		}
	}
	return false
}

// UpdateOverlaps runs this peer's collision check for a bomb and feeds the
// result to its enter/exit handlers.
func (w *World) UpdateOverlaps(b *Bomb) (entered, exited []Entity) {
	var inside []Entity
	for _, p := range w.players {
		if Distance(b.Position, p.Position) <= BombRadius {
			inside = append(inside, p)
		}
	}
	for _, r := range w.rocks {
		if !r.Freed && Distance(b.Position, r.Position) <= BombRadius {
			inside = append(inside, r)
		}
	}

	present := make(map[string]bool, len(inside))
	for _, e := range inside {
		present[e.NodePath()] = true
	}

	for _, e := range b.Overlapping() {
		if !present[e.NodePath()] && b.OnBodyExited(e) {
			exited = append(exited, e)
		}
	}
	for _, e := range inside {
		if b.OnBodyEntered(e) {
			entered = append(entered, e)
		}
	}
	return entered, exited
}

// Sweep drops freed bombs and rocks.
func (w *World) Sweep() {
	bombs := w.bombs[:0]
	for _, b := range w.bombs {
		if b.State == BombFreed {
			delete(w.byBomb, b.Key())
			continue
		}
		bombs = append(bombs, b)
	}
	w.bombs = bombs

	rocks := w.rocks[:0]
	for _, r := range w.rocks {
		if r.Freed {
			delete(w.byRock, r.Name)
			continue
		}
		rocks = append(rocks, r)
	}
	w.rocks = rocks
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
