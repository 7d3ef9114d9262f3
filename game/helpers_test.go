package game

import (
	"slices"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

type fakeClock struct {
	now time.Time
}

func (c *fakeClock) Now() time.Time { return c.now }

func (c *fakeClock) Advance(d time.Duration) { c.now = c.now.Add(d) }

type fakeTimer struct {
	delay   time.Duration
	due     time.Time
	f       func()
	stopped bool
	fired   bool
}

func (t *fakeTimer) Stop() bool {
	if t.stopped || t.fired {
		return false
	}
	t.stopped = true

	return true
}

// fakeScheduler only runs callbacks when a test fires them.
type fakeScheduler struct {
	clock  *fakeClock
	timers []*fakeTimer
}

func (s *fakeScheduler) AfterFunc(d time.Duration, f func()) Timer {
	t := &fakeTimer{delay: d, due: s.clock.now.Add(d), f: f}
	s.timers = append(s.timers, t)

	return t
}

func (s *fakeScheduler) pending() []*fakeTimer {
	var out []*fakeTimer
	for _, t := range s.timers {
		if !t.stopped && !t.fired {
			out = append(out, t)
		}
	}

	return out
}

// fireNext moves the clock to the earliest pending timer and runs it.
func (s *fakeScheduler) fireNext(t *testing.T) *fakeTimer {
	t.Helper()

	pending := s.pending()
	require.NotEmpty(t, pending, "no pending timers")

	next := slices.MinFunc(pending, func(a, b *fakeTimer) int {
		return a.due.Compare(b.due)
	})

	if next.due.After(s.clock.now) {
		s.clock.now = next.due
	}
	next.fired = true
	next.f()

	return next
}

type delivery struct {
	to []string
	ev Event
}

type recordingSink struct {
	sent []delivery
}

func (s *recordingSink) Send(ids []string, ev Event) {
	s.sent = append(s.sent, delivery{to: slices.Clone(ids), ev: ev})
}

func (s *recordingSink) ofKind(k Kind) []delivery {
	var out []delivery
	for _, d := range s.sent {
		if d.ev.Kind() == k {
			out = append(out, d)
		}
	}

	return out
}

func (s *recordingSink) last(t *testing.T, k Kind) delivery {
	t.Helper()

	all := s.ofKind(k)
	require.NotEmpty(t, all, "no %s event sent", k)

	return all[len(all)-1]
}

func (s *recordingSink) reset() {
	s.sent = nil
}

type harness struct {
	g     *Gateway
	clock *fakeClock
	sched *fakeScheduler
	sink  *recordingSink
}

func newHarness(t *testing.T, mutate ...func(*Settings)) *harness {
	t.Helper()

	settings := DefaultSettings()
	for _, m := range mutate {
		m(&settings)
	}

	clock := &fakeClock{now: time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)}
	sched := &fakeScheduler{clock: clock}
	sink := &recordingSink{}

	g := NewGateway(Options{
		Settings:  settings,
		Clock:     clock,
		Scheduler: sched,
		Rand:      func() float64 { return 0.5 },
		Sink:      sink,
	})

	return &harness{g: g, clock: clock, sched: sched, sink: sink}
}

func (h *harness) join(conn, room, name string) {
	h.g.Handle(conn, JoinRoom{RoomID: room, PlayerName: name, GameMode: "classic"})
}

func (h *harness) room(t *testing.T, id string) *Room {
	t.Helper()

	room, ok := h.g.Store().Get(id)
	require.True(t, ok, "room %s missing", id)

	return room
}

func (h *harness) player(t *testing.T, roomID, conn string) *Player {
	t.Helper()

	p, ok := h.room(t, roomID).players[conn]
	require.True(t, ok, "player %s missing from %s", conn, roomID)

	return p
}
