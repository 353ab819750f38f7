package round

import (
	"time"

	"github.com/google/uuid"

	"github.com/ugaemi/bombarena-server/internal/game"
)

// Round is one play session from world build to win detection.
type Round struct {
	ID        string          `json:"id"`
	HostName  string          `json:"host_name"`
	Players   int             `json:"players"`
	Winner    *game.ScoreRow  `json:"winner,omitempty"`
	Scores    []game.ScoreRow `json:"scores"`
	StartedAt time.Time       `json:"started_at"`
	EndedAt   time.Time       `json:"ended_at,omitzero"`
}

// New starts a round record for the given number of players.
func New(hostName string, players int) *Round {
	return &Round{
		ID:        uuid.New().String(),
		HostName:  hostName,
		Players:   players,
		StartedAt: time.Now(),
	}
}

// Finish records the winner and the final score panel.
func (r *Round) Finish(winner game.ScoreRow, scores []game.ScoreRow) {
	r.Winner = &winner
	r.Scores = scores
	r.EndedAt = time.Now()
}

// Finished reports whether a winner has been recorded.
func (r *Round) Finished() bool {
	return r.Winner != nil
}
