package game

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestScore_Increase(t *testing.T) {
	s := NewScore()
	s.AddPlayer(1, "Alice")
	s.AddPlayer(2, "Bob")

	require.NoError(t, s.Increase(2))
	require.NoError(t, s.Increase(2))
	assert.ErrorIs(t, s.Increase(9), ErrNoScoreRow)

	row, ok := s.Get(2)
	require.True(t, ok)
	assert.Equal(t, 2, row.Score)

	rows := s.Rows()
	require.Len(t, rows, 2)
	assert.Equal(t, 1, rows[0].PeerID, "rows keep insertion order")
}

func TestScore_CheckWinnerFiresOnce(t *testing.T) {
	s := NewScore()
	s.AddPlayer(1, "Alice")
	s.AddPlayer(2, "Bob")
	require.NoError(t, s.Increase(2))

	_, ok := s.CheckWinner(0)
	assert.False(t, ok, "no transition from nonzero yet")

	_, ok = s.CheckWinner(3)
	assert.False(t, ok)

	row, ok := s.CheckWinner(0)
	require.True(t, ok)
	assert.Equal(t, "Bob", row.Name)

	_, ok = s.CheckWinner(0)
	assert.False(t, ok, "win fires once per round")
}

func TestLeader(t *testing.T) {
	tests := []struct {
		name string
		rows []ScoreRow
		want int
	}{
		{"single", []ScoreRow{{PeerID: 1, Score: 0}}, 1},
		{"greatest wins", []ScoreRow{{PeerID: 1, Score: 1}, {PeerID: 2, Score: 4}, {PeerID: 3, Score: 2}}, 2},
		{"first seen wins tie", []ScoreRow{{PeerID: 5, Score: 3}, {PeerID: 2, Score: 3}}, 5},
		{"all zero", []ScoreRow{{PeerID: 7}, {PeerID: 1}}, 7},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Leader(tt.rows).PeerID)
		})
	}
}
