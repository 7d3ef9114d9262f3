/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package game

import "time"

type Mode string

const (
	ModeClassic     Mode = "classic"
	ModeBlitz       Mode = "blitz"
	ModePowerUp     Mode = "powerUp"
	ModeElimination Mode = "elimination"
	ModeMarathon    Mode = "marathon"
	ModePrecision   Mode = "precision"
)

// ModeConfig is fixed for the lifetime of a room.
type ModeConfig struct {
	MaxRounds    int
	PowerUps     bool
	CountdownMin time.Duration
	CountdownMax time.Duration
}

const (
	defaultCountdownMin = 2000 * time.Millisecond
	defaultCountdownMax = 6000 * time.Millisecond
)

var modeTable = map[Mode]ModeConfig{
	ModeClassic:   {MaxRounds: 5, CountdownMin: defaultCountdownMin, CountdownMax: defaultCountdownMax},
	ModeBlitz:     {MaxRounds: 10, CountdownMin: 1500 * time.Millisecond, CountdownMax: 4000 * time.Millisecond},
	ModePowerUp:   {MaxRounds: 5, PowerUps: true, CountdownMin: defaultCountdownMin, CountdownMax: defaultCountdownMax},
	ModeMarathon:  {MaxRounds: 20, PowerUps: true, CountdownMin: defaultCountdownMin, CountdownMax: defaultCountdownMax},
	ModePrecision: {MaxRounds: 7, CountdownMin: defaultCountdownMin, CountdownMax: defaultCountdownMax},
	// Elimination takes its round cap from Settings.EliminationRounds.
	ModeElimination: {CountdownMin: defaultCountdownMin, CountdownMax: defaultCountdownMax},
}

// ParseMode maps a client-supplied mode name onto a known Mode, falling back
// to classic.
func ParseMode(name string) Mode {
	if _, ok := modeTable[Mode(name)]; ok {
		return Mode(name)
	}

	return ModeClassic
}

// Settings holds the timings and limits shared by every room.
type Settings struct {
	ReadyDelay        time.Duration
	RoundTimeout      time.Duration
	RoundGrace        time.Duration
	Intermission      time.Duration
	ResetCooldown     time.Duration
	MinReaction       time.Duration
	EliminationRounds int

	ChatHistory     int
	ChatMaxLength   int
	NameMaxLength   int
	RoomIDMaxLength int
	LeaderboardSize int
}

func DefaultSettings() Settings {
	return Settings{
		ReadyDelay:        1000 * time.Millisecond,
		RoundTimeout:      3000 * time.Millisecond,
		RoundGrace:        1000 * time.Millisecond,
		Intermission:      3000 * time.Millisecond,
		ResetCooldown:     10000 * time.Millisecond,
		EliminationRounds: 30,
		ChatHistory:       50,
		ChatMaxLength:     200,
		NameMaxLength:     20,
		RoomIDMaxLength:   32,
		LeaderboardSize:   10,
	}
}

// Mode resolves the configuration of m under these settings.
func (s Settings) Mode(m Mode) ModeConfig {
	cfg, ok := modeTable[m]
	if !ok {
		cfg = modeTable[ModeClassic]
	}

	if m == ModeElimination {
		cfg.MaxRounds = max(s.EliminationRounds, 1)
	}

	return cfg
}
