package store

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ugaemi/bombarena-server/internal/game"
	"github.com/ugaemi/bombarena-server/internal/round"
)

func getTestDatabaseURL(t *testing.T) string {
	t.Helper()
	url := os.Getenv("TEST_DATABASE_URL")
	if url == "" {
		t.Skip("TEST_DATABASE_URL not set, skipping PostgreSQL integration test")
	}
	return url
}

func setupTestStore(t *testing.T) *PostgresStore {
	t.Helper()
	url := getTestDatabaseURL(t)
	ctx := context.Background()

	s, err := NewPostgresStore(ctx, url)
	require.NoError(t, err)

	// Clean up tables for test isolation
	_, err = s.pool.Exec(ctx, "DELETE FROM rounds")
	require.NoError(t, err)

	t.Cleanup(func() {
		s.Close()
	})

	return s
}

func TestPostgresStore_SaveAndFindRound(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()

	alice := game.ScoreRow{PeerID: 1, Name: "Alice", Score: 1}
	bob := game.ScoreRow{PeerID: 2, Name: "Bob", Score: 4}
	r := round.New("Alice", 2)
	r.Finish(bob, []game.ScoreRow{alice, bob})
	require.NoError(t, s.SaveRound(ctx, r))

	found, err := s.FindRound(ctx, r.ID)
	require.NoError(t, err)
	require.NotNil(t, found)

	assert.Equal(t, r.ID, found.ID)
	assert.Equal(t, "Alice", found.HostName)
	assert.Equal(t, 2, found.Players)
	require.NotNil(t, found.Winner)
	assert.Equal(t, bob, *found.Winner)
	assert.Equal(t, []game.ScoreRow{alice, bob}, found.Scores)
	assert.WithinDuration(t, r.EndedAt, found.EndedAt, time.Millisecond)
}

func TestPostgresStore_FindRound_NotFound(t *testing.T) {
	s := setupTestStore(t)

	found, err := s.FindRound(context.Background(), "nonexistent-id")
	require.NoError(t, err)
	assert.Nil(t, found)
}

func TestPostgresStore_RecentRounds(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()

	var ids []string
	for i := range 3 {
		row := game.ScoreRow{PeerID: 1, Name: "Alice", Score: i}
		r := round.New("Alice", 1)
		r.Finish(row, []game.ScoreRow{row})
		require.NoError(t, s.SaveRound(ctx, r))
		ids = append(ids, r.ID)
	}

	recent, err := s.RecentRounds(ctx, 2)
	require.NoError(t, err)
	require.Len(t, recent, 2)
	assert.Equal(t, ids[2], recent[0].ID)
	assert.Equal(t, ids[1], recent[1].ID)
	assert.Len(t, recent[0].Scores, 1)
}

func TestPostgresStore_DuplicateRound(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()

	row := game.ScoreRow{PeerID: 1, Name: "Alice"}
	r := round.New("Alice", 1)
	r.Finish(row, []game.ScoreRow{row})

	require.NoError(t, s.SaveRound(ctx, r))
	assert.Error(t, s.SaveRound(ctx, r))
}

func TestPostgresStore_RejectsUnfinished(t *testing.T) {
	s := setupTestStore(t)

	err := s.SaveRound(context.Background(), round.New("Alice", 1))
	assert.ErrorIs(t, err, ErrRoundNotFinished)
}
