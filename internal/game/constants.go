package game

import "time"

// Network
const (
	DefaultPort = 10567
	MaxPeers    = 12
)

// Level geometry (pixels)
const (
	TileSize     = 48.0
	LevelColumns = 15
	LevelRows    = 13
	WorldWidth   = TileSize * LevelColumns
	WorldHeight  = TileSize * LevelRows
)

// Movement
const (
	MotionSpeed    = 90.0 // pixels per second
	PlayerHalfSize = 14.0 // half extent of the player's collision box
)

// Bombs and rocks
const (
	BombRadius    = TileSize * 1.5
	BombFuse      = 2 * time.Second
	BombBlastTime = 500 * time.Millisecond
	RockBreakTime = 400 * time.Millisecond
)

// Timing
const (
	TickRate     = 60 // physics ticks per second
	TickInterval = time.Second / TickRate
)
