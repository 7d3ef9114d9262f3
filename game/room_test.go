package game

import (
	"math/rand/v2"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// startRound readies everyone in room and fires timers until the round is live.
func (h *harness) startRound(t *testing.T, roomID string, conns ...string) {
	t.Helper()

	for _, c := range conns {
		h.g.Handle(c, ReadyToPlay{})
	}

	h.sched.fireNext(t) // ready delay
	require.Equal(t, PhaseCountdown, h.room(t, roomID).Phase())
	h.sched.fireNext(t) // countdown
	require.Equal(t, PhaseActive, h.room(t, roomID).Phase())
}

func TestTwoPlayerGameScenario(t *testing.T) {
	h := newHarness(t)

	h.join("a", "ABCD", "Alice")
	h.join("b", "ABCD", "Bob")

	room := h.room(t, "ABCD")
	require.Equal(t, 5, room.MaxRounds())

	h.g.Handle("a", ReadyToPlay{})
	h.g.Handle("b", ReadyToPlay{})

	ready := h.sink.last(t, KindPlayerReady).ev.(PlayerReady)
	assert.True(t, ready.AllReady)

	h.sched.fireNext(t)

	for round := 1; round <= 5; round++ {
		require.Equal(t, PhaseCountdown, room.Phase())
		countdown := h.sink.last(t, KindCountdownStart).ev.(CountdownStart)
		assert.Equal(t, round, countdown.RoundNumber)
		assert.Equal(t, 5, countdown.MaxRounds)

		delay := h.sched.pending()[0].delay
		assert.GreaterOrEqual(t, delay, 2000*time.Millisecond)
		assert.Less(t, delay, 6000*time.Millisecond)

		h.sched.fireNext(t)
		require.Equal(t, PhaseActive, room.Phase())

		h.clock.Advance(150 * time.Millisecond)
		h.g.Handle("a", Tap{})
		h.clock.Advance(500 * time.Millisecond)
		h.g.Handle("b", Tap{})

		tapped := h.sink.last(t, KindPlayerTapped).ev.(PlayerTapped)
		assert.Equal(t, int64(650), tapped.ReactionTime)
		assert.Equal(t, 40, tapped.Points)
		assert.True(t, tapped.AllTapped)

		grace := h.sched.fireNext(t)
		assert.Equal(t, time.Second, grace.delay)

		end := h.sink.last(t, KindRoundEnd).ev.(RoundEnd)
		require.Len(t, end.Results, 2)
		assert.Equal(t, "a", end.Results[0].ID)
		assert.Equal(t, "b", end.Results[1].ID)
		assert.Equal(t, round, end.RoundNumber)

		h.sched.fireNext(t) // intermission
	}

	final := h.sink.last(t, KindGameEnd).ev.(GameEnd)
	require.Len(t, final.FinalResults, 2)
	assert.Equal(t, Standing{Rank: 1, ID: "a", Name: "Alice", Score: 500, AvgReactionTime: 150}, final.FinalResults[0])
	assert.Equal(t, Standing{Rank: 2, ID: "b", Name: "Bob", Score: 200, AvgReactionTime: 650}, final.FinalResults[1])
	assert.Equal(t, PhaseCompleted, room.Phase())
	assert.Len(t, room.History(), 5)

	alice, ok := h.g.Leaderboard().Get("Alice")
	require.True(t, ok)
	assert.Equal(t, 1, alice.GamesPlayed)
	assert.Equal(t, 500, alice.TotalScore)
	assert.Equal(t, int64(150), alice.BestReaction)

	reset := h.sched.fireNext(t)
	assert.Equal(t, 10*time.Second, reset.delay)

	assert.Equal(t, PhaseWaiting, room.Phase())
	assert.Equal(t, 0, room.Round())
	assert.Empty(t, room.History())
	for _, p := range room.Players() {
		assert.Zero(t, p.Score)
		assert.Empty(t, p.ReactionTimes)
		assert.False(t, p.IsReady)
		assert.False(t, p.HasTapped)
	}
	assert.Equal(t, 2, room.Len())
	assert.Empty(t, h.sched.pending())
}

func TestDuplicateTapIsIgnored(t *testing.T) {
	h := newHarness(t)
	h.join("a", "R", "Alice")
	h.join("b", "R", "Bob")
	h.startRound(t, "R", "a", "b")

	h.clock.Advance(250 * time.Millisecond)
	h.g.Handle("a", Tap{})
	h.clock.Advance(100 * time.Millisecond)
	h.g.Handle("a", Tap{})

	p := h.player(t, "R", "a")
	assert.Equal(t, []int64{250}, p.ReactionTimes)
	assert.Equal(t, 80, p.Score)
	assert.Len(t, h.sink.ofKind(KindPlayerTapped), 1)
	assert.Empty(t, h.sink.ofKind(KindError))
}

func TestTapOutsideActiveRoundIsIgnored(t *testing.T) {
	h := newHarness(t)
	h.join("a", "R", "Alice")

	h.g.Handle("a", Tap{})
	h.g.Handle("a", ReadyToPlay{})
	h.sched.fireNext(t)
	require.Equal(t, PhaseCountdown, h.room(t, "R").Phase())

	h.g.Handle("a", Tap{})

	assert.Empty(t, h.player(t, "R", "a").ReactionTimes)
	assert.Empty(t, h.sink.ofKind(KindPlayerTapped))
}

func TestRoundTimeoutRanksNonTappersLast(t *testing.T) {
	h := newHarness(t)
	h.join("a", "R", "Alice")
	h.join("b", "R", "Bob")
	h.join("c", "R", "Carol")
	h.startRound(t, "R", "a", "b", "c")

	h.clock.Advance(420 * time.Millisecond)
	h.g.Handle("c", Tap{})
	h.clock.Advance(10 * time.Millisecond)
	h.g.Handle("a", Tap{})

	timeout := h.sched.fireNext(t)
	assert.Equal(t, 3*time.Second, timeout.delay)

	end := h.sink.last(t, KindRoundEnd).ev.(RoundEnd)
	require.Len(t, end.Results, 3)
	assert.Equal(t, "c", end.Results[0].ID)
	assert.Equal(t, int64(420), *end.Results[0].ReactionTime)
	assert.Equal(t, "a", end.Results[1].ID)
	assert.Equal(t, "b", end.Results[2].ID)
	assert.Nil(t, end.Results[2].ReactionTime)
}

func TestDisconnectMidRoundUpdatesLiveSet(t *testing.T) {
	h := newHarness(t)
	h.join("a", "R", "Alice")
	h.join("b", "R", "Bob")
	h.startRound(t, "R", "a", "b")

	h.g.Disconnect("b")

	h.clock.Advance(300 * time.Millisecond)
	h.g.Handle("a", Tap{})

	tapped := h.sink.last(t, KindPlayerTapped).ev.(PlayerTapped)
	assert.True(t, tapped.AllTapped)

	pending := h.sched.pending()
	require.Len(t, pending, 1)
	assert.Equal(t, time.Second, pending[0].delay)
}

func TestLeavingNonTapperClosesRound(t *testing.T) {
	h := newHarness(t)
	h.join("a", "R", "Alice")
	h.join("b", "R", "Bob")
	h.startRound(t, "R", "a", "b")

	h.clock.Advance(180 * time.Millisecond)
	h.g.Handle("a", Tap{})
	h.g.Handle("b", LeaveRoom{})

	left := h.sink.last(t, KindPlayerLeft)
	assert.Equal(t, []string{"a"}, left.to)

	pending := h.sched.pending()
	require.Len(t, pending, 1)
	assert.Equal(t, time.Second, pending[0].delay)

	h.sched.fireNext(t)
	assert.Equal(t, PhaseFinished, h.room(t, "R").Phase())
}

func TestDestroyedRoomCancelsTimers(t *testing.T) {
	h := newHarness(t)
	h.join("a", "R", "Alice")
	h.startRound(t, "R", "a")

	room := h.room(t, "R")
	timeout := h.sched.pending()[0]

	h.g.Disconnect("a")

	_, ok := h.g.Store().Get("R")
	assert.False(t, ok)
	assert.True(t, room.Closed())
	assert.True(t, timeout.stopped)

	h.sink.reset()
	timeout.f()

	assert.Equal(t, PhaseActive, room.Phase())
	assert.Empty(t, h.sink.sent)
}

func TestJoinerCancelsPendingStart(t *testing.T) {
	h := newHarness(t)
	h.join("a", "R", "Alice")
	h.g.Handle("a", ReadyToPlay{})

	require.Len(t, h.sched.pending(), 1)

	h.join("b", "R", "Bob")
	h.sched.fireNext(t)

	assert.Equal(t, PhaseWaiting, h.room(t, "R").Phase())
	assert.Empty(t, h.sink.ofKind(KindCountdownStart))
}

func TestLeavingUnreadyPlayerStartsCountdown(t *testing.T) {
	h := newHarness(t)
	h.join("a", "R", "Alice")
	h.join("b", "R", "Bob")
	h.g.Handle("a", ReadyToPlay{})
	require.Empty(t, h.sched.pending())

	h.g.Handle("b", LeaveRoom{})
	h.sched.fireNext(t)

	assert.Equal(t, PhaseCountdown, h.room(t, "R").Phase())
	assert.Equal(t, 1, h.room(t, "R").Round())
}

func TestPendingStartSurvivesJoinAndLeave(t *testing.T) {
	h := newHarness(t)
	h.join("a", "R", "Alice")
	h.g.Handle("a", ReadyToPlay{})

	pending := h.sched.pending()
	require.Len(t, pending, 1)
	start := pending[0]

	h.clock.Advance(600 * time.Millisecond)
	h.join("b", "R", "Bob")
	h.g.Handle("b", LeaveRoom{})

	pending = h.sched.pending()
	require.Len(t, pending, 1)
	assert.Same(t, start, pending[0])

	h.sched.fireNext(t)
	assert.Equal(t, PhaseCountdown, h.room(t, "R").Phase())
	assert.Equal(t, 1, h.room(t, "R").Round())
}

func TestDuplicateReadyIsIgnored(t *testing.T) {
	h := newHarness(t)
	h.join("a", "R", "Alice")
	h.join("b", "R", "Bob")

	h.g.Handle("a", ReadyToPlay{})
	h.g.Handle("a", ReadyToPlay{})

	assert.Len(t, h.sink.ofKind(KindPlayerReady), 1)
	assert.Empty(t, h.sched.pending())
}

func TestCountdownDelayBounds(t *testing.T) {
	for _, tc := range []struct {
		name string
		rand float64
		want time.Duration
	}{
		{"lower", 0, 2000 * time.Millisecond},
		{"middle", 0.5, 4000 * time.Millisecond},
		{"upper", 0.75, 5000 * time.Millisecond},
	} {
		t.Run(tc.name, func(t *testing.T) {
			deps := roomDeps{settings: DefaultSettings(), rand: func() float64 { return tc.rand }}
			r := newRoom("R", ModeClassic, "", deps)

			assert.Equal(t, tc.want, r.countdownDelay())
		})
	}
}

func TestEliminationRoundCapComesFromSettings(t *testing.T) {
	h := newHarness(t, func(s *Settings) { s.EliminationRounds = 2 })
	h.g.Handle("a", JoinRoom{RoomID: "E", PlayerName: "Alice", GameMode: "elimination"})
	h.startRound(t, "E", "a")

	room := h.room(t, "E")
	assert.Equal(t, 2, room.MaxRounds())

	h.clock.Advance(100 * time.Millisecond)
	h.g.Handle("a", Tap{})
	h.sched.fireNext(t) // grace
	h.sched.fireNext(t) // intermission
	h.sched.fireNext(t) // countdown
	h.g.Handle("a", Tap{})
	h.sched.fireNext(t) // grace
	h.sched.fireNext(t) // intermission

	assert.Equal(t, PhaseCompleted, room.Phase())
	assert.Equal(t, 2, room.Round())
}

func TestMinReactionRejectsAnticipation(t *testing.T) {
	h := newHarness(t, func(s *Settings) { s.MinReaction = 100 * time.Millisecond })
	h.join("a", "R", "Alice")
	h.startRound(t, "R", "a")

	h.clock.Advance(40 * time.Millisecond)
	h.g.Handle("a", Tap{})
	assert.Empty(t, h.player(t, "R", "a").ReactionTimes)

	h.clock.Advance(120 * time.Millisecond)
	h.g.Handle("a", Tap{})
	assert.Equal(t, []int64{160}, h.player(t, "R", "a").ReactionTimes)
}

func TestMidGameJoinerTapsAlongside(t *testing.T) {
	h := newHarness(t)
	h.join("a", "R", "Alice")
	h.startRound(t, "R", "a")

	h.join("b", "R", "Bob")

	h.clock.Advance(100 * time.Millisecond)
	h.g.Handle("a", Tap{})
	assert.False(t, h.sink.last(t, KindPlayerTapped).ev.(PlayerTapped).AllTapped)

	h.g.Handle("b", Tap{})
	assert.True(t, h.sink.last(t, KindPlayerTapped).ev.(PlayerTapped).AllTapped)
}

func TestChatTranscriptIsBounded(t *testing.T) {
	h := newHarness(t)
	h.join("a", "R", "Alice")

	for i := 0; i < 55; i++ {
		h.g.Handle("a", ChatMessage{Message: string(rune('a' + i%26))})
	}

	room := h.room(t, "R")
	require.Len(t, room.chatLog, 50)
	assert.Equal(t, string(rune('a'+5)), room.chatLog[0].Message)

	long := make([]rune, 250)
	for i := range long {
		long[i] = 'x'
	}
	h.g.Handle("a", ChatMessage{Message: "  " + string(long) + "  "})

	entry := h.sink.last(t, KindChatMessage).ev.(ChatEntry)
	assert.Len(t, entry.Message, 200)
	assert.Equal(t, "Alice", entry.PlayerName)

	before := len(h.sink.sent)
	h.g.Handle("a", ChatMessage{Message: "   "})
	assert.Len(t, h.sink.sent, before)

	h.g.Handle("a", ChatMessage{})
	assert.Equal(t, Error("Invalid message data"), h.sink.last(t, KindError).ev)
}

func TestUsePowerUpOnlyInPowerUpModes(t *testing.T) {
	h := newHarness(t)
	h.g.Handle("a", JoinRoom{RoomID: "P", PlayerName: "Alice", GameMode: "powerUp"})
	h.join("b", "C", "Bob")

	h.g.Handle("a", UsePowerUp{PowerUpID: "shield"})
	h.g.Handle("a", UsePowerUp{PowerUpID: "nope"})
	h.g.Handle("b", UsePowerUp{PowerUpID: "shield"})

	activated := h.sink.ofKind(KindPowerUpActivated)
	require.Len(t, activated, 1)
	assert.Equal(t, []string{"a"}, activated[0].to)
	assert.Equal(t, "Shield", activated[0].ev.(PowerUpActivated).PowerUp.Name)
}

// Random interleavings of joins, leaves and taps must never leave an empty
// room in the store or a second reaction time in a round.
func TestRandomInterleavingsKeepInvariants(t *testing.T) {
	h := newHarness(t)
	rng := rand.New(rand.NewPCG(7, 11))

	conns := []string{"c1", "c2", "c3", "c4", "c5", "c6"}
	rooms := []string{"R1", "R2"}

	for step := 0; step < 2000; step++ {
		conn := conns[rng.IntN(len(conns))]

		switch rng.IntN(6) {
		case 0:
			h.join(conn, rooms[rng.IntN(len(rooms))], conn)
		case 1:
			h.g.Handle(conn, LeaveRoom{})
		case 2:
			h.g.Handle(conn, ReadyToPlay{})
		case 3:
			h.clock.Advance(time.Duration(rng.IntN(400)) * time.Millisecond)
			h.g.Handle(conn, Tap{})
		case 4:
			if len(h.sched.pending()) > 0 {
				h.sched.fireNext(t)
			}
		case 5:
			h.g.Disconnect(conn)
		}

		for _, summary := range h.g.Store().Snapshot() {
			room := h.room(t, summary.ID)
			require.Positive(t, room.Len(), "empty room %s at step %d", summary.ID, step)
			require.LessOrEqual(t, room.Round(), room.MaxRounds())

			for _, p := range room.players {
				require.LessOrEqual(t, len(p.ReactionTimes), room.Round())
			}
		}

		for _, c := range conns {
			if roomID, ok := h.g.Registry().Lookup(c); ok {
				room := h.room(t, roomID)
				_, member := room.players[c]
				require.True(t, member, "%s registered to %s but not a member", c, roomID)
			}
		}
	}
}
