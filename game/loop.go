/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package game

import (
	"context"
	"runtime/debug"
	"sync/atomic"
	"time"
)

// Logf matches log.Printf.
type Logf func(format string, args ...any)

func nopLogf(string, ...any) {}

type Clock interface {
	Now() time.Time
}

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now() }

// Timer is a cancellable handle returned by a Scheduler.
type Timer interface {
	Stop() bool
}

// Scheduler runs f after d on the same logical thread as every other room
// mutation.
type Scheduler interface {
	AfterFunc(d time.Duration, f func()) Timer
}

// Loop serializes all room mutations onto a single goroutine.
type Loop struct {
	tasks chan func()
	done  chan struct{}
	logf  Logf
}

func NewLoop(buffer int, logf Logf) *Loop {
	if logf == nil {
		logf = nopLogf
	}

	return &Loop{
		tasks: make(chan func(), buffer),
		done:  make(chan struct{}),
		logf:  logf,
	}
}

// Run processes tasks until ctx is cancelled.
func (l *Loop) Run(ctx context.Context) {
	defer close(l.done)

	for {
		select {
		case <-ctx.Done():
			return
		case f := <-l.tasks:
			l.exec(f)
		}
	}
}

func (l *Loop) exec(f func()) {
	defer func() {
		if r := recover(); r != nil {
			l.logf("ERROR: recovered from panic in event loop: %v\n%s", r, debug.Stack())
		}
	}()

	f()
}

// Post queues f. It reports false once the loop has stopped.
func (l *Loop) Post(f func()) bool {
	select {
	case l.tasks <- f:
		return true
	case <-l.done:
		return false
	}
}

// Call runs f on the loop and waits for it to return.
func (l *Loop) Call(f func()) bool {
	finished := make(chan struct{})

	if !l.Post(func() {
		defer close(finished)
		f()
	}) {
		return false
	}

	select {
	case <-finished:
		return true
	case <-l.done:
		return false
	}
}

type loopTimer struct {
	timer   *time.Timer
	stopped atomic.Bool
}

func (t *loopTimer) Stop() bool {
	t.stopped.Store(true)

	return t.timer.Stop()
}

// AfterFunc implements Scheduler. A timer stopped after it expired but
// before its task ran is still skipped.
func (l *Loop) AfterFunc(d time.Duration, f func()) Timer {
	t := &loopTimer{}

	t.timer = time.AfterFunc(d, func() {
		l.Post(func() {
			if t.stopped.Load() {
				return
			}
			f()
		})
	})

	return t
}
