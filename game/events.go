/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package game

import (
	"bytes"
	"encoding/json"
	"fmt"
)

type Kind string

// Inbound kinds.
const (
	KindJoinRoom       Kind = "join-room"
	KindReadyToPlay    Kind = "ready-to-play"
	KindTap            Kind = "tap"
	KindLeaveRoom      Kind = "leave-room"
	KindGetLeaderboard Kind = "get-leaderboard"
	KindChatMessage    Kind = "chat-message" // also outbound
	KindUsePowerUp     Kind = "use-powerup"
)

// Outbound kinds.
const (
	KindJoinedRoom       Kind = "joined-room"
	KindPlayerJoined     Kind = "player-joined"
	KindPlayerLeft       Kind = "player-left"
	KindPlayerReady      Kind = "player-ready"
	KindCountdownStart   Kind = "countdown-start"
	KindRoundStart       Kind = "round-start"
	KindPlayerTapped     Kind = "player-tapped"
	KindRoundEnd         Kind = "round-end"
	KindGameEnd          Kind = "game-end"
	KindRoomReset        Kind = "room-reset"
	KindLeaderboard      Kind = "leaderboard"
	KindPowerUpActivated Kind = "powerup-activated"
	KindError            Kind = "error"
)

// Message is the envelope for every frame in both directions.
type Message[T any] struct {
	Type Kind `json:"type"`
	Data T    `json:"data,omitempty"`
}

// Command is a decoded client event. The set of implementations is closed.
type Command interface {
	command() Kind
}

type JoinRoom struct {
	RoomID     string `json:"roomId"`
	PlayerName string `json:"playerName"`
	GameMode   string `json:"gameMode"`
	Password   string `json:"password,omitempty"`
}

type ReadyToPlay struct{}

type Tap struct{}

type LeaveRoom struct{}

type GetLeaderboard struct{}

type ChatMessage struct {
	RoomID  string `json:"roomId"`
	Message string `json:"message"`
}

type UsePowerUp struct {
	PowerUpID string `json:"powerUpId"`
}

func (JoinRoom) command() Kind       { return KindJoinRoom }
func (ReadyToPlay) command() Kind    { return KindReadyToPlay }
func (Tap) command() Kind            { return KindTap }
func (LeaveRoom) command() Kind      { return KindLeaveRoom }
func (GetLeaderboard) command() Kind { return KindGetLeaderboard }
func (ChatMessage) command() Kind    { return KindChatMessage }
func (UsePowerUp) command() Kind     { return KindUsePowerUp }

// DecodeCommand parses one client frame.
func DecodeCommand(raw []byte) (Command, error) {
	var msg Message[json.RawMessage]
	if err := json.Unmarshal(raw, &msg); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}

	switch msg.Type {
	case KindJoinRoom:
		var c JoinRoom
		if err := decodeData(msg.Data, &c); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidJoin, err)
		}
		return c, nil
	case KindReadyToPlay:
		return ReadyToPlay{}, nil
	case KindTap:
		return Tap{}, nil
	case KindLeaveRoom:
		return LeaveRoom{}, nil
	case KindGetLeaderboard:
		return GetLeaderboard{}, nil
	case KindChatMessage:
		var c ChatMessage
		if err := decodeData(msg.Data, &c); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidMessage, err)
		}
		return c, nil
	case KindUsePowerUp:
		var c UsePowerUp
		if err := decodeData(msg.Data, &c); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
		}
		return c, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownCommand, msg.Type)
	}
}

func decodeData(data json.RawMessage, v any) error {
	if len(bytes.TrimSpace(data)) == 0 || bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		return nil
	}

	return json.Unmarshal(data, v)
}

// Event is a server notification. The set of implementations is closed.
type Event interface {
	Kind() Kind
}

// Encode wraps ev in its envelope.
func Encode(ev Event) ([]byte, error) {
	return json.Marshal(Message[Event]{Type: ev.Kind(), Data: ev})
}

type JoinedRoom struct {
	RoomID          string       `json:"roomId"`
	GameMode        Mode         `json:"gameMode"`
	MaxRounds       int          `json:"maxRounds"`
	PowerUpsEnabled bool         `json:"powerUpsEnabled"`
	Players         []PlayerView `json:"players"`
	GameState       Phase        `json:"gameState"`
	RoundNumber     int          `json:"roundNumber"`
	ChatMessages    []ChatEntry  `json:"chatMessages"`
}

type PlayerJoined struct {
	PlayerID   string       `json:"playerId"`
	PlayerName string       `json:"playerName"`
	Players    []PlayerView `json:"players"`
}

type PlayerLeft struct {
	PlayerID   string       `json:"playerId"`
	PlayerName string       `json:"playerName"`
	Players    []PlayerView `json:"players"`
}

type PlayerReady struct {
	PlayerID string       `json:"playerId"`
	AllReady bool         `json:"allReady"`
	Players  []PlayerView `json:"players"`
}

type CountdownStart struct {
	RoundNumber int `json:"roundNumber"`
	MaxRounds   int `json:"maxRounds"`
}

type RoundStart struct {
	RoundNumber int   `json:"roundNumber"`
	Timestamp   int64 `json:"timestamp"`
}

type PlayerTapped struct {
	PlayerID     string `json:"playerId"`
	PlayerName   string `json:"playerName"`
	ReactionTime int64  `json:"reactionTime"`
	Points       int    `json:"points"`
	AllTapped    bool   `json:"allTapped"`
}

type RoundEnd struct {
	Results     []RoundResult `json:"results"`
	RoundNumber int           `json:"roundNumber"`
	MaxRounds   int           `json:"maxRounds"`
}

type GameEnd struct {
	FinalResults []Standing `json:"finalResults"`
}

type RoomReset struct {
	Players     []PlayerView `json:"players"`
	GameState   Phase        `json:"gameState"`
	RoundNumber int          `json:"roundNumber"`
}

// LeaderboardSnapshot is sent as a bare array.
type LeaderboardSnapshot []LeaderboardRow

type ChatEntry struct {
	PlayerName string `json:"playerName"`
	Message    string `json:"message"`
	Timestamp  int64  `json:"timestamp"`
}

type PowerUpActivated struct {
	PowerUp        PowerUp   `json:"powerUp"`
	ActivePowerUps []PowerUp `json:"activePowerUps"`
}

// Error is sent as a bare string reason.
type Error string

func (JoinedRoom) Kind() Kind          { return KindJoinedRoom }
func (PlayerJoined) Kind() Kind        { return KindPlayerJoined }
func (PlayerLeft) Kind() Kind          { return KindPlayerLeft }
func (PlayerReady) Kind() Kind         { return KindPlayerReady }
func (CountdownStart) Kind() Kind      { return KindCountdownStart }
func (RoundStart) Kind() Kind          { return KindRoundStart }
func (PlayerTapped) Kind() Kind        { return KindPlayerTapped }
func (RoundEnd) Kind() Kind            { return KindRoundEnd }
func (GameEnd) Kind() Kind             { return KindGameEnd }
func (RoomReset) Kind() Kind           { return KindRoomReset }
func (LeaderboardSnapshot) Kind() Kind { return KindLeaderboard }
func (ChatEntry) Kind() Kind           { return KindChatMessage }
func (PowerUpActivated) Kind() Kind    { return KindPowerUpActivated }
func (Error) Kind() Kind               { return KindError }
