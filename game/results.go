/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package game

import (
	"cmp"
	"slices"
	"time"
)

// RoundResult is one player's line in a round ranking. ReactionTime is nil
// for players who did not tap.
type RoundResult struct {
	ID           string `json:"id"`
	Name         string `json:"name"`
	ReactionTime *int64 `json:"reactionTime"`
	Score        int    `json:"score"`
}

// Standing is one player's line in the final game ranking.
type Standing struct {
	Rank            int     `json:"rank"`
	ID              string  `json:"id"`
	Name            string  `json:"name"`
	Score           int     `json:"score"`
	AvgReactionTime float64 `json:"avgReactionTime"`
}

// rankRound orders tappers by ascending reaction time, followed by everyone
// who did not tap. players must be in join order; ties keep that order.
func rankRound(players []*Player, start time.Time) []RoundResult {
	results := make([]RoundResult, 0, len(players))

	for _, p := range players {
		r := RoundResult{
			ID:    p.ID,
			Name:  p.Name,
			Score: p.Score,
		}

		if p.tapped() {
			rt := reactionMillis(start, p.LastTap)
			r.ReactionTime = &rt
		}

		results = append(results, r)
	}

	slices.SortStableFunc(results, func(a, b RoundResult) int {
		switch {
		case a.ReactionTime == nil && b.ReactionTime == nil:
			return 0
		case a.ReactionTime == nil:
			return 1
		case b.ReactionTime == nil:
			return -1
		default:
			return cmp.Compare(*a.ReactionTime, *b.ReactionTime)
		}
	})

	return results
}

// rankGame orders players by descending score and assigns 1-based ranks.
func rankGame(players []*Player) []Standing {
	standings := make([]Standing, 0, len(players))

	for _, p := range players {
		standings = append(standings, Standing{
			ID:              p.ID,
			Name:            p.Name,
			Score:           p.Score,
			AvgReactionTime: p.averageReaction(),
		})
	}

	slices.SortStableFunc(standings, func(a, b Standing) int {
		return cmp.Compare(b.Score, a.Score)
	})

	for i := range standings {
		standings[i].Rank = i + 1
	}

	return standings
}

func reactionMillis(start, tap time.Time) int64 {
	return max(tap.Sub(start).Milliseconds(), 0)
}
