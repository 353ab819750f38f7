package game

import (
	"time"

	"github.com/ugaemi/bombarena-server/internal/peer"
)

// Rock is a destructible obstacle owned by the host.
type Rock struct {
	Name     string
	Position Vec2
	Breaking bool
	Freed    bool

	timer time.Duration
}

func NewRock(name string, pos Vec2) *Rock {
	return &Rock{Name: name, Position: pos}
}

func (r *Rock) NodePath() string { return KindRocks + "/" + r.Name }
func (r *Rock) Owner() int       { return peer.HostID }
func (r *Rock) Pos() Vec2        { return r.Position }

// Exploded breaks the rock. Only the first hit counts.
func (r *Rock) Exploded(_ int) bool {
	return r.Break()
}

// Break starts the break animation; the rock is freed when it ends.
func (r *Rock) Break() bool {
	if r.Breaking || r.Freed {
		return false
	}
	r.Breaking = true
	r.timer = RockBreakTime
	return true
}

func (r *Rock) Tick(dt time.Duration) {
	if !r.Breaking || r.Freed {
		return
	}
	r.timer -= dt
	if r.timer <= 0 {
		r.Freed = true
	}
}

// Solid reports whether the rock still blocks movement.
func (r *Rock) Solid() bool {
	return !r.Freed
}
