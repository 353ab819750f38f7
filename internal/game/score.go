package game

import (
	"errors"
	"fmt"

	"github.com/ugaemi/bombarena-server/internal/peer"
)

var ErrNoScoreRow = errors.New("no score row for peer")

// ScoreRow is one peer's line on the score panel.
type ScoreRow struct {
	PeerID int    `json:"peer_id"`
	Name   string `json:"name"`
	Score  int    `json:"score"`
}

// Score is the per-round score ledger. Rows keep the order players were added.
type Score struct {
	rows  []ScoreRow
	index map[int]int

	sawRocks bool
	fired    bool
}

func NewScore() *Score {
	return &Score{index: make(map[int]int)}
}

func (s *Score) NodePath() string { return KindScore }
func (s *Score) Owner() int       { return peer.HostID }

// AddPlayer adds a zero row for a peer.
func (s *Score) AddPlayer(id int, name string) {
	if i, ok := s.index[id]; ok {
		s.rows[i].Name = name
		return
	}
	s.index[id] = len(s.rows)
	s.rows = append(s.rows, ScoreRow{PeerID: id, Name: name})
}

// Increase adds one point to a peer. It is the only way a score changes.
func (s *Score) Increase(id int) error {
	i, ok := s.index[id]
	if !ok {
		return fmt.Errorf("peer %d: %w", id, ErrNoScoreRow)
	}
	s.rows[i].Score++
	return nil
}

func (s *Score) Get(id int) (ScoreRow, bool) {
	i, ok := s.index[id]
	if !ok {
		return ScoreRow{}, false
	}
	return s.rows[i], true
}

func (s *Score) Rows() []ScoreRow {
	out := make([]ScoreRow, len(s.rows))
	copy(out, s.rows)
	return out
}

// CheckWinner is called every tick with the number of rocks left. It reports
// a winner once, on the tick the count drops from nonzero to zero.
func (s *Score) CheckWinner(rocksLeft int) (ScoreRow, bool) {
	if rocksLeft > 0 {
		s.sawRocks = true
		return ScoreRow{}, false
	}
	if !s.sawRocks || s.fired || len(s.rows) == 0 {
		return ScoreRow{}, false
	}
	s.fired = true
	return Leader(s.rows), true
}

// Leader returns the row with the strictly greatest score; the first row
// seen wins a tie.
func Leader(rows []ScoreRow) ScoreRow {
	var best ScoreRow
	for i, r := range rows {
		if i == 0 || r.Score > best.Score {
			best = r
		}
	}
	return best
}
