package store

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ugaemi/bombarena-server/internal/game"
	"github.com/ugaemi/bombarena-server/internal/round"
)

func finishedRound(host string, winner game.ScoreRow, scores ...game.ScoreRow) *round.Round {
	r := round.New(host, len(scores))
	r.Finish(winner, scores)
	return r
}

func TestOpen_WithoutDatabase(t *testing.T) {
	s, err := Open(context.Background(), "")
	require.NoError(t, err)
	defer s.Close()

	assert.IsType(t, &MemoryStore{}, s)
}

func TestMemoryStore_SaveAndFind(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	alice := game.ScoreRow{PeerID: 1, Name: "Alice", Score: 2}
	bob := game.ScoreRow{PeerID: 2, Name: "Bob", Score: 5}
	r := finishedRound("Alice", bob, alice, bob)
	require.NoError(t, s.SaveRound(ctx, r))

	found, err := s.FindRound(ctx, r.ID)
	require.NoError(t, err)
	require.NotNil(t, found)
	assert.Equal(t, r.ID, found.ID)
	assert.Equal(t, "Alice", found.HostName)
	assert.Equal(t, bob, *found.Winner)
	assert.Equal(t, []game.ScoreRow{alice, bob}, found.Scores)

	found.Scores[0].Score = 100
	again, err := s.FindRound(ctx, r.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, again.Scores[0].Score, "stored rounds are copies")
}

func TestMemoryStore_FindRound_NotFound(t *testing.T) {
	s := NewMemoryStore()

	found, err := s.FindRound(context.Background(), "nonexistent-id")
	require.NoError(t, err)
	assert.Nil(t, found)
}

func TestMemoryStore_RejectsUnfinished(t *testing.T) {
	s := NewMemoryStore()

	err := s.SaveRound(context.Background(), round.New("Alice", 1))
	assert.ErrorIs(t, err, ErrRoundNotFinished)
}

func TestMemoryStore_RejectsDuplicate(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()
	row := game.ScoreRow{PeerID: 1, Name: "Alice"}
	r := finishedRound("Alice", row, row)

	require.NoError(t, s.SaveRound(ctx, r))
	assert.Error(t, s.SaveRound(ctx, r))
}

func TestMemoryStore_RecentRounds(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	var ids []string
	for range 3 {
		row := game.ScoreRow{PeerID: 1, Name: "Alice"}
		r := finishedRound("Alice", row, row)
		require.NoError(t, s.SaveRound(ctx, r))
		ids = append(ids, r.ID)
	}

	recent, err := s.RecentRounds(ctx, 2)
	require.NoError(t, err)
	require.Len(t, recent, 2)
	assert.Equal(t, ids[2], recent[0].ID)
	assert.Equal(t, ids[1], recent[1].ID)

	all, err := s.RecentRounds(ctx, 10)
	require.NoError(t, err)
	assert.Len(t, all, 3)
}
