/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package game

import "time"

// Player belongs to exactly one Room.
type Player struct {
	ID            string
	Name          string
	Score         int
	ReactionTimes []int64
	Ready         bool
	LastTap       time.Time
	JoinedAt      time.Time
}

// PlayerView is the wire form of a Player.
type PlayerView struct {
	ID            string  `json:"id"`
	Name          string  `json:"name"`
	Score         int     `json:"score"`
	ReactionTimes []int64 `json:"reactionTimes"`
	IsReady       bool    `json:"isReady"`
	HasTapped     bool    `json:"hasTapped"`
}

func (p *Player) tapped() bool {
	return !p.LastTap.IsZero()
}

func (p *Player) resetRound() {
	p.LastTap = time.Time{}
}

func (p *Player) resetGame() {
	p.Score = 0
	p.ReactionTimes = nil
	p.Ready = false
	p.LastTap = time.Time{}
}

func (p *Player) averageReaction() float64 {
	if len(p.ReactionTimes) == 0 {
		return 0
	}

	var sum int64
	for _, rt := range p.ReactionTimes {
		sum += rt
	}

	return float64(sum) / float64(len(p.ReactionTimes))
}

func (p *Player) bestReaction() (int64, bool) {
	if len(p.ReactionTimes) == 0 {
		return 0, false
	}

	best := p.ReactionTimes[0]
	for _, rt := range p.ReactionTimes[1:] {
		best = min(best, rt)
	}

	return best, true
}

func (p *Player) view() PlayerView {
	times := make([]int64, len(p.ReactionTimes))
	copy(times, p.ReactionTimes)

	return PlayerView{
		ID:            p.ID,
		Name:          p.Name,
		Score:         p.Score,
		ReactionTimes: times,
		IsReady:       p.Ready,
		HasTapped:     p.tapped(),
	}
}
