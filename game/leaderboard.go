/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package game

import (
	"cmp"
	"math"
	"slices"
	"sync"
)

// GameResult is what one player contributes to the leaderboard at game end.
type GameResult struct {
	Name            string
	Score           int
	AverageReaction float64
	BestReaction    int64
	Taps            int
}

// Stats accumulates a display name's results over the life of the process.
type Stats struct {
	Name         string
	GamesPlayed  int
	TotalScore   int
	BestReaction int64
	AvgReaction  float64
}

type LeaderboardRow struct {
	Name             string  `json:"name"`
	GamesPlayed      int     `json:"gamesPlayed"`
	TotalScore       int     `json:"totalScore"`
	AvgScore         float64 `json:"avgScore"`
	BestReactionTime int64   `json:"bestReactionTime"`
	AvgReactionTime  int64   `json:"avgReactionTime"`
}

// Leaderboard is the only state shared between rooms.
type Leaderboard struct {
	mu      sync.RWMutex
	entries map[string]*Stats
	order   []string
}

func NewLeaderboard() *Leaderboard {
	return &Leaderboard{
		entries: make(map[string]*Stats),
	}
}

func (l *Leaderboard) RecordGameResult(res GameResult) {
	l.mu.Lock()
	defer l.mu.Unlock()

	s, ok := l.entries[res.Name]
	if !ok {
		s = &Stats{
			Name:         res.Name,
			BestReaction: math.MaxInt64,
		}
		l.entries[res.Name] = s
		l.order = append(l.order, res.Name)
	}

	s.GamesPlayed++
	s.TotalScore += res.Score

	if res.Taps > 0 {
		s.BestReaction = min(s.BestReaction, res.BestReaction)
	}

	n := float64(s.GamesPlayed)
	s.AvgReaction = (s.AvgReaction*(n-1) + res.AverageReaction) / n
}

func (l *Leaderboard) Get(name string) (Stats, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	s, ok := l.entries[name]
	if !ok {
		return Stats{}, false
	}

	return *s, true
}

func (l *Leaderboard) Len() int {
	l.mu.RLock()
	defer l.mu.RUnlock()

	return len(l.entries)
}

// Top returns up to k rows ordered by average score per game. Equal averages
// keep the order in which names were first recorded.
func (l *Leaderboard) Top(k int) LeaderboardSnapshot {
	l.mu.RLock()
	rows := make(LeaderboardSnapshot, 0, len(l.order))
	for _, name := range l.order {
		rows = append(rows, l.entries[name].row())
	}
	l.mu.RUnlock()

	slices.SortStableFunc(rows, func(a, b LeaderboardRow) int {
		return cmp.Compare(b.AvgScore, a.AvgScore)
	})

	if k >= 0 && len(rows) > k {
		rows = rows[:k]
	}

	return rows
}

func (s *Stats) row() LeaderboardRow {
	best := s.BestReaction
	if best == math.MaxInt64 {
		best = 0
	}

	return LeaderboardRow{
		Name:             s.Name,
		GamesPlayed:      s.GamesPlayed,
		TotalScore:       s.TotalScore,
		AvgScore:         float64(s.TotalScore) / float64(s.GamesPlayed),
		BestReactionTime: best,
		AvgReactionTime:  int64(math.Round(s.AvgReaction)),
	}
}
