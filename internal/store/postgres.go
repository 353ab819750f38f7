package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/ugaemi/bombarena-server/internal/game"
	"github.com/ugaemi/bombarena-server/internal/round"
)

const schema = `
CREATE TABLE IF NOT EXISTS rounds (
    id TEXT PRIMARY KEY,
    host_name TEXT NOT NULL,
    players INTEGER NOT NULL,
    winner_peer INTEGER NOT NULL,
    winner_name TEXT NOT NULL,
    winner_score INTEGER NOT NULL,
    started_at TIMESTAMPTZ NOT NULL,
    ended_at TIMESTAMPTZ NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_rounds_ended_at ON rounds(ended_at DESC);
CREATE TABLE IF NOT EXISTS round_scores (
    round_id TEXT NOT NULL REFERENCES rounds(id) ON DELETE CASCADE,
    position INTEGER NOT NULL,
    peer_id INTEGER NOT NULL,
    name TEXT NOT NULL,
    score INTEGER NOT NULL,
    PRIMARY KEY (round_id, peer_id)
);
`

// PostgresStore implements RoundStore using PostgreSQL.
type PostgresStore struct {
	pool *pgxpool.Pool
}

// NewPostgresStore connects to PostgreSQL and initializes the schema.
func NewPostgresStore(ctx context.Context, databaseURL string) (*PostgresStore, error) {
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, err
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, err
	}

	if _, err := pool.Exec(ctx, schema); err != nil {
		pool.Close()
		return nil, err
	}

	return &PostgresStore{pool: pool}, nil
}

// SaveRound inserts a round and its score rows in one transaction.
func (s *PostgresStore) SaveRound(ctx context.Context, r *round.Round) error {
	if !r.Finished() {
		return ErrRoundNotFinished
	}

	return pgx.BeginFunc(ctx, s.pool, func(tx pgx.Tx) error {
		_, err := tx.Exec(ctx,
			`INSERT INTO rounds (id, host_name, players, winner_peer, winner_name, winner_score, started_at, ended_at)
			 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
			r.ID, r.HostName, r.Players, r.Winner.PeerID, r.Winner.Name, r.Winner.Score, r.StartedAt, r.EndedAt)
		if err != nil {
			return fmt.Errorf("insert round: %w", err)
		}

		batch := &pgx.Batch{}
		for i, row := range r.Scores {
			batch.Queue(
				`INSERT INTO round_scores (round_id, position, peer_id, name, score) VALUES ($1, $2, $3, $4, $5)`,
				r.ID, i, row.PeerID, row.Name, row.Score)
		}
		if err := tx.SendBatch(ctx, batch).Close(); err != nil {
			return fmt.Errorf("insert scores: %w", err)
		}
		return nil
	})
}

// FindRound looks up a round by ID.
func (s *PostgresStore) FindRound(ctx context.Context, id string) (*round.Round, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT id, host_name, players, winner_peer, winner_name, winner_score, started_at, ended_at
		 FROM rounds WHERE id = $1`, id)

	r, err := scanRound(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	if err := s.loadScores(ctx, []*round.Round{r}); err != nil {
		return nil, err
	}
	return r, nil
}

// RecentRounds returns up to limit rounds, most recently ended first.
func (s *PostgresStore) RecentRounds(ctx context.Context, limit int) ([]*round.Round, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, host_name, players, winner_peer, winner_name, winner_score, started_at, ended_at
		 FROM rounds ORDER BY ended_at DESC LIMIT $1`, limit)
	if err != nil {
		return nil, err
	}

	rounds, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (*round.Round, error) {
		return scanRound(row)
	})
	if err != nil {
		return nil, err
	}

	if err := s.loadScores(ctx, rounds); err != nil {
		return nil, err
	}
	return rounds, nil
}

// Close releases database resources.
func (s *PostgresStore) Close() error {
	s.pool.Close()
	return nil
}

func (s *PostgresStore) loadScores(ctx context.Context, rounds []*round.Round) error {
	if len(rounds) == 0 {
		return nil
	}

	byID := make(map[string]*round.Round, len(rounds))
	ids := make([]string, len(rounds))
	for i, r := range rounds {
		byID[r.ID] = r
		ids[i] = r.ID
		r.Scores = []game.ScoreRow{}
	}

	rows, err := s.pool.Query(ctx,
		`SELECT round_id, peer_id, name, score FROM round_scores
		 WHERE round_id = ANY($1) ORDER BY round_id, position`, ids)
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var id string
		var row game.ScoreRow
		if err := rows.Scan(&id, &row.PeerID, &row.Name, &row.Score); err != nil {
			return err
		}
		if r, ok := byID[id]; ok {
			r.Scores = append(r.Scores, row)
		}
	}
	return rows.Err()
}

func scanRound(row pgx.Row) (*round.Round, error) {
	var r round.Round
	var w game.ScoreRow
	err := row.Scan(&r.ID, &r.HostName, &r.Players, &w.PeerID, &w.Name, &w.Score, &r.StartedAt, &r.EndedAt)
	if err != nil {
		return nil, err
	}
	r.Winner = &w
	return &r, nil
}
