/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package game

type PowerUp struct {
	ID     string  `json:"id"`
	Name   string  `json:"name"`
	Icon   string  `json:"icon"`
	Rarity float64 `json:"rarity"`
}

var powerUps = map[string]PowerUp{
	"speedBoost":   {ID: "speedBoost", Name: "Speed Boost", Icon: "⚡", Rarity: 0.3},
	"doublePoints": {ID: "doublePoints", Name: "Double Points", Icon: "💎", Rarity: 0.2},
	"shield":       {ID: "shield", Name: "Shield", Icon: "🛡️", Rarity: 0.15},
	"freeze":       {ID: "freeze", Name: "Freeze Others", Icon: "❄️", Rarity: 0.1},
	"precision":    {ID: "precision", Name: "Precision", Icon: "🎯", Rarity: 0.25},
}

func LookupPowerUp(id string) (PowerUp, bool) {
	p, ok := powerUps[id]

	return p, ok
}
