/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package game

import (
	"errors"
	"math/rand/v2"
	"strings"
	"unicode/utf8"
)

// Options wires a Gateway to its collaborators. Scheduler and Sink are
// required; everything else has a default.
type Options struct {
	Settings    Settings
	Clock       Clock
	Scheduler   Scheduler
	Rand        func() float64
	Sink        Sink
	Leaderboard *Leaderboard
	Logf        Logf
}

// Gateway routes decoded client commands to rooms. Like Room, it must only
// be called from the event loop.
type Gateway struct {
	store    *Store
	conns    *Registry
	board    *Leaderboard
	settings Settings
	sink     Sink
	logf     Logf
}

func NewGateway(opts Options) *Gateway {
	if opts.Scheduler == nil || opts.Sink == nil {
		panic("game: NewGateway requires a Scheduler and a Sink")
	}

	if opts.Settings == (Settings{}) {
		opts.Settings = DefaultSettings()
	}
	if opts.Clock == nil {
		opts.Clock = systemClock{}
	}
	if opts.Rand == nil {
		opts.Rand = rand.Float64
	}
	if opts.Leaderboard == nil {
		opts.Leaderboard = NewLeaderboard()
	}
	if opts.Logf == nil {
		opts.Logf = nopLogf
	}

	conns := NewRegistry()

	return &Gateway{
		store: newStore(conns, roomDeps{
			settings: opts.Settings,
			clock:    opts.Clock,
			sched:    opts.Scheduler,
			rand:     opts.Rand,
			sink:     opts.Sink,
			board:    opts.Leaderboard,
			logf:     opts.Logf,
		}),
		conns:    conns,
		board:    opts.Leaderboard,
		settings: opts.Settings,
		sink:     opts.Sink,
		logf:     opts.Logf,
	}
}

func (g *Gateway) Store() *Store             { return g.store }
func (g *Gateway) Registry() *Registry       { return g.conns }
func (g *Gateway) Leaderboard() *Leaderboard { return g.board }

// Handle dispatches one command from connID.
func (g *Gateway) Handle(connID string, cmd Command) {
	switch c := cmd.(type) {
	case JoinRoom:
		g.join(connID, c)
	case ReadyToPlay:
		if room, ok := g.resolve(connID); ok {
			room.ready(connID)
		}
	case Tap:
		if room, ok := g.resolve(connID); ok {
			room.tap(connID)
		}
	case LeaveRoom:
		g.leave(connID)
	case GetLeaderboard:
		g.sink.Send([]string{connID}, g.board.Top(g.settings.LeaderboardSize))
	case ChatMessage:
		room, ok := g.resolve(connID)
		if !ok {
			return
		}
		if c.Message == "" {
			g.Reject(connID, ErrInvalidMessage)
			return
		}
		room.chat(connID, c.Message)
	case UsePowerUp:
		roomID, ok := g.conns.Lookup(connID)
		if !ok {
			return
		}
		if room, ok := g.store.Get(roomID); ok {
			room.usePowerUp(connID, c.PowerUpID)
		}
	default:
		g.Reject(connID, ErrUnknownCommand)
	}
}

// Disconnect is a leave initiated by the transport.
func (g *Gateway) Disconnect(connID string) {
	g.leave(connID)
}

// Reject sends err to connID alone.
func (g *Gateway) Reject(connID string, err error) {
	g.sink.Send([]string{connID}, Reason(err))
}

var reasons = []error{
	ErrInvalidJoin,
	ErrNameTooLong,
	ErrRoomIDTooLong,
	ErrWrongPassword,
	ErrNotInRoom,
	ErrRoomNotFound,
	ErrInvalidMessage,
	ErrUnknownCommand,
	ErrMalformed,
}

// Reason converts err into the client-facing error event, dropping any
// wrapped detail.
func Reason(err error) Error {
	for _, known := range reasons {
		if errors.Is(err, known) {
			return Error(known.Error())
		}
	}

	return Error(err.Error())
}

func (g *Gateway) join(connID string, c JoinRoom) {
	c.RoomID = strings.TrimSpace(c.RoomID)
	name := strings.TrimSpace(c.PlayerName)

	switch {
	case c.RoomID == "" || name == "":
		g.Reject(connID, ErrInvalidJoin)
		return
	case utf8.RuneCountInString(name) > g.settings.NameMaxLength:
		g.Reject(connID, ErrNameTooLong)
		return
	case utf8.RuneCountInString(c.RoomID) > g.settings.RoomIDMaxLength:
		g.Reject(connID, ErrRoomIDTooLong)
		return
	}

	current, inRoom := g.conns.Lookup(connID)
	if inRoom && current == c.RoomID {
		if _, exists := g.store.Get(current); exists {
			return
		}
	}

	// A rejected join must leave the caller where it was.
	if target, ok := g.store.Get(c.RoomID); ok {
		if err := target.checkPassword(c.Password); err != nil {
			g.Reject(connID, err)
			return
		}
	}

	if inRoom {
		g.store.RemovePlayer(connID)
	}

	if _, err := g.store.Join(connID, c, name); err != nil {
		g.Reject(connID, err)
	}
}

func (g *Gateway) leave(connID string) {
	roomID, destroyed := g.store.RemovePlayer(connID)
	if roomID != "" && destroyed {
		g.logf("GAMES: Last player left %s", roomID)
	}
}

// resolve finds the caller's room, reporting stale or missing membership
// back to the caller.
func (g *Gateway) resolve(connID string) (*Room, bool) {
	roomID, ok := g.conns.Lookup(connID)
	if !ok {
		g.Reject(connID, ErrNotInRoom)
		return nil, false
	}

	room, ok := g.store.Get(roomID)
	if !ok || room.Closed() {
		g.conns.Clear(connID)
		g.Reject(connID, ErrRoomNotFound)
		return nil, false
	}

	return room, true
}
