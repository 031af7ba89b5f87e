package testing

import (
	"time"

	"github.com/go-drift/segue/pkg/surface"
)

// Harness implements [surface.Scheduler] with fully manual control: frame
// callbacks run only when the test pumps a frame, and timers fire only when
// the test advances the fake clock. Nothing happens between test
// statements, so every interleaving of frames, timers and events is
// reproducible.
//
// Harness is not safe for concurrent use; the test goroutine is the frame
// thread.
type Harness struct {
	clock       *FakeClock
	frames      []func()
	timers      []*fakeTimer
	nextTimerID int
}

type fakeTimer struct {
	id       int
	deadline time.Time
	fn       func()
	stopped  bool
}

// NewHarness returns a harness whose clock starts at the FakeClock epoch.
func NewHarness() *Harness {
	return &Harness{clock: NewFakeClock()}
}

// Clock returns the harness's fake clock.
func (h *Harness) Clock() *FakeClock {
	return h.clock
}

// RequestFrame queues fn for the next pumped frame boundary.
func (h *Harness) RequestFrame(fn func()) {
	h.frames = append(h.frames, fn)
}

// After arms a timer d from the fake clock's current time. The returned
// cancel prevents the callback from firing; cancelling a fired timer is a
// no-op. A non-positive d is due immediately on the next Advance.
func (h *Harness) After(d time.Duration, fn func()) (cancel func()) {
	if d < 0 {
		d = 0
	}
	h.nextTimerID++
	t := &fakeTimer{id: h.nextTimerID, deadline: h.clock.Now().Add(d), fn: fn}
	h.timers = append(h.timers, t)
	return func() { t.stopped = true }
}

// Pump runs exactly one frame boundary: every callback queued before the
// call runs in order, and callbacks queued during the pump wait for the
// next one.
func (h *Harness) Pump() {
	batch := h.frames
	h.frames = nil
	for _, fn := range batch {
		fn()
	}
}

// PumpFrames pumps n frame boundaries.
func (h *Harness) PumpFrames(n int) {
	for i := 0; i < n; i++ {
		h.Pump()
	}
}

// Advance moves the fake clock forward by d, firing due timers in deadline
// order (arming order breaks ties). A timer armed from inside another
// timer's callback fires in the same advance when its deadline falls within
// the window. Frame callbacks never run here; pump those explicitly.
func (h *Harness) Advance(d time.Duration) {
	target := h.clock.Now().Add(d)
	for {
		t := h.popDue(target)
		if t == nil {
			break
		}
		if t.deadline.After(h.clock.Now()) {
			h.clock.Set(t.deadline)
		}
		t.fn()
	}
	h.clock.Set(target)
	h.prune()
}

// PendingFrames returns how many frame callbacks await the next pump.
func (h *Harness) PendingFrames() int {
	return len(h.frames)
}

// ActiveTimers returns how many armed timers have neither fired nor been
// cancelled.
func (h *Harness) ActiveTimers() int {
	active := 0
	for _, t := range h.timers {
		if !t.stopped {
			active++
		}
	}
	return active
}

// popDue removes and returns the earliest live timer due at or before
// target, or nil when none is due.
func (h *Harness) popDue(target time.Time) *fakeTimer {
	best := -1
	for i, t := range h.timers {
		if t.stopped || t.deadline.After(target) {
			continue
		}
		if best == -1 || t.deadline.Before(h.timers[best].deadline) {
			best = i
		}
	}
	if best == -1 {
		return nil
	}
	t := h.timers[best]
	h.timers = append(h.timers[:best], h.timers[best+1:]...)
	return t
}

// prune drops cancelled timers.
func (h *Harness) prune() {
	live := h.timers[:0]
	for _, t := range h.timers {
		if !t.stopped {
			live = append(live, t)
		}
	}
	h.timers = live
}

var _ surface.Scheduler = (*Harness)(nil)
