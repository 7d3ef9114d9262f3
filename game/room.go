/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package game

import (
	"slices"
	"strings"
	"time"
	"unicode/utf8"
)

type Phase string

const (
	PhaseWaiting   Phase = "waiting"
	PhaseCountdown Phase = "countdown"
	PhaseActive    Phase = "active"
	PhaseFinished  Phase = "finished"
	PhaseCompleted Phase = "completed"
)

// Sink delivers an event to a set of connections.
type Sink interface {
	Send(connIDs []string, ev Event)
}

type roomDeps struct {
	settings Settings
	clock    Clock
	sched    Scheduler
	rand     func() float64
	sink     Sink
	board    *Leaderboard
	logf     Logf
}

// Room runs one game session. It is not safe for concurrent use; every call
// must come from the event loop.
type Room struct {
	id       string
	mode     Mode
	cfg      ModeConfig
	password string

	phase       Phase
	round       int
	roundStart  time.Time
	roundEnding bool
	history     [][]RoundResult
	chatLog     []ChatEntry

	players map[string]*Player
	order   []string

	// pending is the only outstanding timer. gen invalidates callbacks that
	// were already queued when pending was replaced or cancelled.
	pending Timer
	gen     uint64
	closed  bool

	roomDeps
}

func newRoom(id string, mode Mode, password string, deps roomDeps) *Room {
	return &Room{
		id:       id,
		mode:     mode,
		cfg:      deps.settings.Mode(mode),
		password: password,
		phase:    PhaseWaiting,
		players:  make(map[string]*Player),
		roomDeps: deps,
	}
}

func (r *Room) ID() string     { return r.id }
func (r *Room) Mode() Mode     { return r.mode }
func (r *Room) Phase() Phase   { return r.phase }
func (r *Room) Round() int     { return r.round }
func (r *Room) MaxRounds() int { return r.cfg.MaxRounds }
func (r *Room) Len() int       { return len(r.players) }
func (r *Room) Closed() bool   { return r.closed }

// History returns the ranking of every finished round of the current game.
func (r *Room) History() [][]RoundResult {
	return slices.Clone(r.history)
}

// Players returns the members in join order.
func (r *Room) Players() []PlayerView {
	views := make([]PlayerView, 0, len(r.order))
	for _, p := range r.ordered() {
		views = append(views, p.view())
	}

	return views
}

func (r *Room) ordered() []*Player {
	players := make([]*Player, 0, len(r.order))
	for _, id := range r.order {
		players = append(players, r.players[id])
	}

	return players
}

func (r *Room) allReady() bool {
	if len(r.players) == 0 {
		return false
	}

	for _, p := range r.players {
		if !p.Ready {
			return false
		}
	}

	return true
}

func (r *Room) allTapped() bool {
	if len(r.players) == 0 {
		return false
	}

	for _, p := range r.players {
		if !p.tapped() {
			return false
		}
	}

	return true
}

func (r *Room) broadcast(ev Event) {
	r.sink.Send(slices.Clone(r.order), ev)
}

func (r *Room) broadcastExcept(connID string, ev Event) {
	ids := make([]string, 0, len(r.order))
	for _, id := range r.order {
		if id != connID {
			ids = append(ids, id)
		}
	}

	if len(ids) > 0 {
		r.sink.Send(ids, ev)
	}
}

func (r *Room) send(connID string, ev Event) {
	r.sink.Send([]string{connID}, ev)
}

func (r *Room) schedule(d time.Duration, f func()) {
	r.cancelPending()

	gen := r.gen
	r.pending = r.sched.AfterFunc(d, func() {
		if r.closed || gen != r.gen {
			return
		}
		r.pending = nil
		f()
	})
}

func (r *Room) cancelPending() {
	if r.pending != nil {
		r.pending.Stop()
		r.pending = nil
	}
	r.gen++
}

func (r *Room) close() {
	r.closed = true
	r.cancelPending()
}

func (r *Room) snapshot() JoinedRoom {
	return JoinedRoom{
		RoomID:          r.id,
		GameMode:        r.mode,
		MaxRounds:       r.cfg.MaxRounds,
		PowerUpsEnabled: r.cfg.PowerUps,
		Players:         r.Players(),
		GameState:       r.phase,
		RoundNumber:     r.round,
		ChatMessages:    slices.Clone(r.chatLog),
	}
}

func (r *Room) checkPassword(password string) error {
	if r.password != "" && password != r.password {
		return ErrWrongPassword
	}

	return nil
}

// admit adds connID to the room. Joining twice is a no-op.
func (r *Room) admit(connID, name, password string) error {
	if err := r.checkPassword(password); err != nil {
		return err
	}

	if _, ok := r.players[connID]; ok {
		return nil
	}

	r.players[connID] = &Player{
		ID:       connID,
		Name:     name,
		JoinedAt: r.clock.Now(),
	}
	r.order = append(r.order, connID)

	r.send(connID, r.snapshot())
	r.broadcastExcept(connID, PlayerJoined{
		PlayerID:   connID,
		PlayerName: name,
		Players:    r.Players(),
	})

	return nil
}

// remove drops connID and reports whether the room is now empty. An empty
// room is closed before remove returns.
func (r *Room) remove(connID string) bool {
	p, ok := r.players[connID]
	if !ok {
		return len(r.players) == 0
	}

	delete(r.players, connID)
	r.order = slices.DeleteFunc(r.order, func(id string) bool {
		return id == connID
	})

	if len(r.players) == 0 {
		r.close()
		return true
	}

	r.broadcast(PlayerLeft{
		PlayerID:   connID,
		PlayerName: p.Name,
		Players:    r.Players(),
	})

	switch r.phase {
	case PhaseActive:
		if r.allTapped() {
			r.closeRound()
		}
	case PhaseWaiting:
		r.maybeStart()
	}

	return false
}

func (r *Room) ready(connID string) {
	p, ok := r.players[connID]
	if !ok || p.Ready {
		return
	}

	p.Ready = true

	r.broadcast(PlayerReady{
		PlayerID: connID,
		AllReady: r.allReady(),
		Players:  r.Players(),
	})

	r.maybeStart()
}

func (r *Room) maybeStart() {
	if r.phase != PhaseWaiting || !r.allReady() {
		return
	}

	// While waiting, the only pending timer is a start that rechecks
	// readiness when it fires.
	if r.pending != nil {
		return
	}

	r.schedule(r.settings.ReadyDelay, func() {
		if r.phase != PhaseWaiting || !r.allReady() {
			return
		}
		r.startCountdown()
	})
}

func (r *Room) startCountdown() {
	if len(r.players) == 0 {
		return
	}

	r.phase = PhaseCountdown
	r.round++

	r.broadcast(CountdownStart{
		RoundNumber: r.round,
		MaxRounds:   r.cfg.MaxRounds,
	})

	r.schedule(r.countdownDelay(), r.startRound)
}

func (r *Room) countdownDelay() time.Duration {
	lo, hi := r.cfg.CountdownMin, r.cfg.CountdownMax
	if hi <= lo {
		return lo
	}

	return lo + time.Duration(r.rand()*float64(hi-lo))
}

func (r *Room) startRound() {
	r.phase = PhaseActive
	r.roundStart = r.clock.Now()
	r.roundEnding = false

	for _, p := range r.players {
		p.resetRound()
	}

	r.broadcast(RoundStart{
		RoundNumber: r.round,
		Timestamp:   r.roundStart.UnixMilli(),
	})

	r.schedule(r.settings.RoundTimeout, r.endRound)
}

// tap records connID's reaction for the current round and reports whether it
// was accepted.
func (r *Room) tap(connID string) bool {
	if r.phase != PhaseActive {
		return false
	}

	p, ok := r.players[connID]
	if !ok || p.tapped() {
		return false
	}

	now := r.clock.Now()
	rt := reactionMillis(r.roundStart, now)

	if rt < r.settings.MinReaction.Milliseconds() {
		r.logf("GAMES: Ignored %dms tap from %q in %s", rt, p.Name, r.id)
		return false
	}

	points := Points(rt)

	p.LastTap = now
	p.ReactionTimes = append(p.ReactionTimes, rt)
	p.Score += points

	all := r.allTapped()

	r.broadcast(PlayerTapped{
		PlayerID:     connID,
		PlayerName:   p.Name,
		ReactionTime: rt,
		Points:       points,
		AllTapped:    all,
	})

	if all {
		r.closeRound()
	}

	return true
}

// closeRound replaces the round timeout with the shorter grace period.
func (r *Room) closeRound() {
	if r.roundEnding {
		return
	}

	r.roundEnding = true
	r.schedule(r.settings.RoundGrace, r.endRound)
}

func (r *Room) endRound() {
	if r.phase != PhaseActive {
		return
	}

	r.phase = PhaseFinished

	results := rankRound(r.ordered(), r.roundStart)
	r.history = append(r.history, results)

	r.broadcast(RoundEnd{
		Results:     results,
		RoundNumber: r.round,
		MaxRounds:   r.cfg.MaxRounds,
	})

	if r.round < r.cfg.MaxRounds {
		r.schedule(r.settings.Intermission, func() {
			r.phase = PhaseWaiting
			r.startCountdown()
		})
		return
	}

	r.schedule(r.settings.Intermission, r.endGame)
}

func (r *Room) endGame() {
	r.phase = PhaseCompleted

	players := r.ordered()

	r.broadcast(GameEnd{
		FinalResults: rankGame(players),
	})

	for _, p := range players {
		best, _ := p.bestReaction()

		r.board.RecordGameResult(GameResult{
			Name:            p.Name,
			Score:           p.Score,
			AverageReaction: p.averageReaction(),
			BestReaction:    best,
			Taps:            len(p.ReactionTimes),
		})
	}

	r.logf("GAMES: Game finished in %s after %d rounds", r.id, r.round)

	r.schedule(r.settings.ResetCooldown, r.reset)
}

func (r *Room) reset() {
	r.phase = PhaseWaiting
	r.round = 0
	r.history = nil
	r.roundEnding = false

	for _, p := range r.players {
		p.resetGame()
	}

	r.broadcast(RoomReset{
		Players:     r.Players(),
		GameState:   r.phase,
		RoundNumber: r.round,
	})
}

func (r *Room) chat(connID, text string) {
	p, ok := r.players[connID]
	if !ok {
		return
	}

	msg := strings.TrimSpace(text)
	if utf8.RuneCountInString(msg) > r.settings.ChatMaxLength {
		msg = string([]rune(msg)[:r.settings.ChatMaxLength])
	}
	if msg == "" {
		return
	}

	entry := ChatEntry{
		PlayerName: p.Name,
		Message:    msg,
		Timestamp:  r.clock.Now().UnixMilli(),
	}

	r.chatLog = append(r.chatLog, entry)
	if n := len(r.chatLog) - r.settings.ChatHistory; n > 0 {
		r.chatLog = slices.Clone(r.chatLog[n:])
	}

	r.broadcast(entry)
}

func (r *Room) usePowerUp(connID, id string) {
	if !r.cfg.PowerUps {
		return
	}

	if _, ok := r.players[connID]; !ok {
		return
	}

	p, ok := LookupPowerUp(id)
	if !ok {
		return
	}

	r.send(connID, PowerUpActivated{
		PowerUp:        p,
		ActivePowerUps: []PowerUp{p},
	})
}

// RoomSummary is a read-only view used by the debug endpoint.
type RoomSummary struct {
	ID          string       `json:"id"`
	PlayerCount int          `json:"playerCount"`
	GameState   Phase        `json:"gameState"`
	GameMode    Mode         `json:"gameMode"`
	RoundNumber int          `json:"roundNumber"`
	MaxRounds   int          `json:"maxRounds"`
	Locked      bool         `json:"locked"`
	Players     []PlayerView `json:"players"`
}

func (r *Room) summary() RoomSummary {
	return RoomSummary{
		ID:          r.id,
		PlayerCount: len(r.players),
		GameState:   r.phase,
		GameMode:    r.mode,
		RoundNumber: r.round,
		MaxRounds:   r.cfg.MaxRounds,
		Locked:      r.password != "",
		Players:     r.Players(),
	}
}
