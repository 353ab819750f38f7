package game

import "fmt"

// defaultLayout is the arena every peer builds. 'R' is a rock, 'S' a spawn
// point (numbered in row-major order), '.' open floor.
var defaultLayout = []string{
	"...............",
	".S.R...S...R.S.",
	"...R.R...R.R...",
	".R..S.R.R.S..R.",
	"..R.........R..",
	".....R.R.R.....",
	".S.R...R...R.S.",
	".....R.R.R.....",
	"..R.........R..",
	".R..S.R.R.S..R.",
	"...R.R...R.R...",
	".S.R...S...R.S.",
	"...............",
}

// Level is the static part of a world: spawn points and initial rocks.
type Level struct {
	SpawnPoints []Vec2
	Rocks       []RockSpec
}

// RockSpec places one rock.
type RockSpec struct {
	Name     string
	Position Vec2
}

// DefaultLevel parses the built-in arena layout.
func DefaultLevel() *Level {
	l, err := ParseLevel(defaultLayout)
	if err != nil {
		panic(err)
	}
	return l
}

// ParseLevel builds a level from rows of tiles.
func ParseLevel(rows []string) (*Level, error) {
	if len(rows) != LevelRows {
		return nil, fmt.Errorf("level has %d rows, want %d", len(rows), LevelRows)
	}

	l := &Level{}
	for y, row := range rows {
		if len(row) != LevelColumns {
			return nil, fmt.Errorf("level row %d has %d columns, want %d", y, len(row), LevelColumns)
		}
		for x, tile := range row {
			center := TileCenter(x, y)
			switch tile {
			case 'S':
				l.SpawnPoints = append(l.SpawnPoints, center)
			case 'R':
				l.Rocks = append(l.Rocks, RockSpec{
					Name:     fmt.Sprintf("rock%d", len(l.Rocks)),
					Position: center,
				})
			case '.':
			default:
				return nil, fmt.Errorf("level row %d: unknown tile %q", y, tile)
			}
		}
	}
	return l, nil
}

// TileCenter returns the pixel center of a tile.
func TileCenter(x, y int) Vec2 {
	return Vec2{
		X: (float64(x) + 0.5) * TileSize,
		Y: (float64(y) + 0.5) * TileSize,
	}
}
