// Package engine provides the production scheduler for transition work.
//
// A Loop owns one goroutine and feeds it three kinds of work: dispatched
// functions, frame callbacks, and timer callbacks. Coordinators and
// elements are not concurrency safe on their own; running everything that
// touches them through one Loop is what makes them safe to use.
package engine

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/go-drift/segue/pkg/errors"
	"github.com/go-drift/segue/pkg/surface"
)

// DefaultFrameInterval is the frame pacing used when NewLoop is given a
// non-positive interval. 16ms approximates a 60Hz display.
const DefaultFrameInterval = 16 * time.Millisecond

// Loop is the production surface.Scheduler. It owns a single goroutine on
// which all scheduled work runs, so callers never need their own locking
// around coordinator or element state.
//
// Work enters the loop through three doors:
//
//   - Dispatch(fn) runs fn on the loop goroutine as soon as possible,
//     without waiting for a frame boundary. Safe from any goroutine.
//   - RequestFrame(fn) runs fn at the next frame boundary. Callbacks
//     registered while a frame is being processed run on the following
//     frame, never the current one.
//   - After(d, fn) arms a timer whose callback is re-dispatched onto the
//     loop goroutine, so it observes the same single-threaded world as
//     everything else.
//
// A panicking callback is reported through pkg/errors and does not take
// the loop down.
type Loop struct {
	interval time.Duration

	mu       sync.Mutex
	dispatch []func()
	frames   []func()

	wake    chan struct{}
	running atomic.Bool
}

var _ surface.Scheduler = (*Loop)(nil)

// NewLoop returns a loop pacing frame callbacks at the given interval.
// Non-positive intervals fall back to DefaultFrameInterval.
func NewLoop(interval time.Duration) *Loop {
	if interval <= 0 {
		interval = DefaultFrameInterval
	}
	return &Loop{
		interval: interval,
		wake:     make(chan struct{}, 1),
	}
}

// Run processes dispatched work and frame callbacks until ctx is cancelled,
// then returns ctx.Err(). Dispatched functions run as soon as the loop
// notices them; frame callbacks run at interval boundaries. Boundaries with
// no pending work are skipped.
//
// Run may be called once per Loop.
func (l *Loop) Run(ctx context.Context) error {
	if !l.running.CompareAndSwap(false, true) {
		return fmt.Errorf("engine: loop is already running")
	}

	ticker := time.NewTicker(l.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-l.wake:
			l.runBatch("engine.dispatch", l.drainDispatch())
		case <-ticker.C:
			l.runBatch("engine.dispatch", l.drainDispatch())
			l.runBatch("engine.frame", l.drainFrames())
		}
	}
}

// Dispatch queues fn to run on the loop goroutine ahead of the next frame.
// It is safe to call from any goroutine. A nil fn is ignored.
func (l *Loop) Dispatch(fn func()) {
	if fn == nil {
		return
	}
	l.mu.Lock()
	l.dispatch = append(l.dispatch, fn)
	l.mu.Unlock()
	l.wakeUp()
}

// RequestFrame queues fn for the next frame boundary. Callbacks queued
// during a frame run on the frame after it.
func (l *Loop) RequestFrame(fn func()) {
	if fn == nil {
		return
	}
	l.mu.Lock()
	l.frames = append(l.frames, fn)
	l.mu.Unlock()
}

// After arms a one-shot timer. When it fires, fn is dispatched onto the
// loop goroutine. The returned cancel is safe from any goroutine and
// guarantees fn will not run if it has not started yet; cancelling after
// fn ran is a no-op.
func (l *Loop) After(d time.Duration, fn func()) (cancel func()) {
	var stopped atomic.Bool
	timer := time.AfterFunc(d, func() {
		l.Dispatch(func() {
			if stopped.Load() {
				return
			}
			fn()
		})
	})
	return func() {
		stopped.Store(true)
		timer.Stop()
	}
}

func (l *Loop) wakeUp() {
	select {
	case l.wake <- struct{}{}:
	default:
	}
}

// drainDispatch takes ownership of the queued dispatch functions. New
// dispatches issued while the batch runs land in a fresh queue.
func (l *Loop) drainDispatch() []func() {
	l.mu.Lock()
	defer l.mu.Unlock()
	queue := l.dispatch
	l.dispatch = nil
	return queue
}

func (l *Loop) drainFrames() []func() {
	l.mu.Lock()
	defer l.mu.Unlock()
	queue := l.frames
	l.frames = nil
	return queue
}

func (l *Loop) runBatch(op string, batch []func()) {
	for _, fn := range batch {
		l.invoke(op, fn)
	}
}

// invoke runs one callback with panic containment so a single bad
// callback cannot stall the loop or the batch behind it.
func (l *Loop) invoke(op string, fn func()) {
	defer errors.Recover(op)
	fn()
}
