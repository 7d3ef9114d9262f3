/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package game

// Points awards a tap by reaction time band. The bands are floors, so 199ms
// scores 100 and 200ms scores 80.
func Points(reactionMs int64) int {
	switch {
	case reactionMs < 200:
		return 100
	case reactionMs < 300:
		return 80
	case reactionMs < 500:
		return 60
	case reactionMs < 700:
		return 40
	default:
		return 20
	}
}
