package round

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ugaemi/bombarena-server/internal/game"
)

func TestNew(t *testing.T) {
	r := New("Alice", 2)

	assert.NotEmpty(t, r.ID)
	assert.Equal(t, "Alice", r.HostName)
	assert.Equal(t, 2, r.Players)
	assert.False(t, r.StartedAt.IsZero())
	assert.True(t, r.EndedAt.IsZero())
	assert.False(t, r.Finished())
}

func TestNew_UniqueIDs(t *testing.T) {
	assert.NotEqual(t, New("Alice", 2).ID, New("Alice", 2).ID)
}

func TestFinish(t *testing.T) {
	r := New("Alice", 2)
	scores := []game.ScoreRow{{PeerID: 1, Name: "Alice", Score: 3}, {PeerID: 2, Name: "Bob", Score: 5}}

	r.Finish(scores[1], scores)

	require.True(t, r.Finished())
	assert.Equal(t, "Bob", r.Winner.Name)
	assert.Equal(t, scores, r.Scores)
	assert.False(t, r.EndedAt.Before(r.StartedAt))
}
