package game

import "github.com/ugaemi/bombarena-server/internal/peer"

// Node kinds, used as the first segment of a node path.
const (
	KindSession = "session"
	KindScore   = "score"
	KindPlayers = "players"
	KindBombs   = "bombs"
	KindRocks   = "rocks"
)

// Node is anything addressable by path and owned by one peer.
type Node interface {
	NodePath() string
	Owner() int
}

// Entity is a node with a place in the world.
type Entity interface {
	Node
	Pos() Vec2
}

// Explodable is implemented by entities a blast can hit. Exploded reports
// whether the hit had an effect.
type Explodable interface {
	Entity
	Exploded(byWho int) bool
}

// SessionNode is the host-owned node carrying session-level calls.
type SessionNode struct{}

func (SessionNode) NodePath() string { return KindSession }
func (SessionNode) Owner() int       { return peer.HostID }
