package store

import (
	"context"
	"errors"
	"log/slog"

	"github.com/ugaemi/bombarena-server/internal/round"
)

var ErrRoundNotFinished = errors.New("round has no winner")

// RoundStore defines the interface for persistent round history.
type RoundStore interface {
	// SaveRound inserts a finished round with its score panel.
	SaveRound(ctx context.Context, r *round.Round) error
	// FindRound looks up a round by ID. It returns nil when there is none.
	FindRound(ctx context.Context, id string) (*round.Round, error)
	// RecentRounds returns up to limit rounds, most recently ended first.
	RecentRounds(ctx context.Context, limit int) ([]*round.Round, error)
	// Close releases database resources.
	Close() error
}

// Open returns a PostgreSQL store when databaseURL is set and an in-memory
// one otherwise.
func Open(ctx context.Context, databaseURL string) (RoundStore, error) {
	if databaseURL == "" {
		slog.Info("no database configured, keeping round history in memory")
		return NewMemoryStore(), nil
	}
	s, err := NewPostgresStore(ctx, databaseURL)
	if err != nil {
		return nil, err
	}
	slog.Info("connected to postgres")
	return s, nil
}
