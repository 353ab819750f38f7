package store

import (
	"context"
	"fmt"
	"slices"
	"sync"

	"github.com/ugaemi/bombarena-server/internal/round"
)

// MemoryStore keeps round history for the life of the process.
type MemoryStore struct {
	mu     sync.RWMutex
	rounds []*round.Round
	byID   map[string]*round.Round
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{byID: make(map[string]*round.Round)}
}

func (s *MemoryStore) SaveRound(_ context.Context, r *round.Round) error {
	if !r.Finished() {
		return ErrRoundNotFinished
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.byID[r.ID]; ok {
		return fmt.Errorf("round %s already saved", r.ID)
	}
	saved := clone(r)
	s.rounds = append(s.rounds, saved)
	s.byID[saved.ID] = saved
	return nil
}

func (s *MemoryStore) FindRound(_ context.Context, id string) (*round.Round, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	r, ok := s.byID[id]
	if !ok {
		return nil, nil
	}
	return clone(r), nil
}

func (s *MemoryStore) RecentRounds(_ context.Context, limit int) ([]*round.Round, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*round.Round, 0, min(limit, len(s.rounds)))
	for i := len(s.rounds) - 1; i >= 0 && len(out) < limit; i-- {
		out = append(out, clone(s.rounds[i]))
	}
	return out, nil
}

func (s *MemoryStore) Close() error { return nil }

func clone(r *round.Round) *round.Round {
	c := *r
	c.Scores = slices.Clone(r.Scores)
	if r.Winner != nil {
		w := *r.Winner
		c.Winner = &w
	}
	return &c
}
