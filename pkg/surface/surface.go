// Package surface defines the contracts between the transition engine and
// whatever renders it.
//
// The engine never talks to a concrete rendering backend. It sees elements
// through [Element] (class mutation, computed-style reads, completion-event
// subscription) and time through [Scheduler] (paint-frame boundaries and
// macrotask timers). Backends provide both: pkg/dom implements Element for
// headless use, pkg/engine implements Scheduler with a real frame loop, and
// pkg/testing implements Scheduler with manually pumped frames and a fake
// clock.
//
// # Frame boundaries
//
// A class mutation is only observable as a transition if the state before it
// was committed in its own paint frame. [NextFrame] is the primitive for
// that: it schedules a callback two frame boundaries ahead, giving the
// backend one full frame to commit the current state before the next
// mutation lands.
package surface

import "time"

// Completion event names delivered by rendering backends.
const (
	// TransitionEnd fires once per transitioned property.
	TransitionEnd = "transitionend"
	// AnimationEnd fires once per finished animation.
	AnimationEnd = "animationend"
)

// Computed-style property names the engine reads. Values are comma-separated
// lists with one entry per animated property, in seconds (for example
// "0.3s" or "0.1s, 0.2s"). A backend that does not compute styles returns
// the empty string.
const (
	TransitionDelay    = "transition-delay"
	TransitionDuration = "transition-duration"
	AnimationDelay     = "animation-delay"
	AnimationDuration  = "animation-duration"
	TransitionProperty = "transition-property"
	AnimationName      = "animation-name"
)

// Element is the minimal contract a rendered element must satisfy for the
// transition engine to drive it.
//
// Implementations must be comparable (in practice: a pointer type), because
// the engine keys per-element bookkeeping on Element values.
type Element interface {
	// AddClass adds a class name to the element. Adding a name that is
	// already present is a no-op.
	AddClass(name string)

	// RemoveClass removes a class name from the element. Removing a name
	// that is not present is a no-op.
	RemoveClass(name string)

	// ComputedStyle returns the computed value of a style property, or ""
	// when the property is missing or the backend does not compute styles.
	ComputedStyle(property string) string

	// On subscribes handler to an event by name and returns a function
	// that detaches the subscription. Events may be delivered for
	// descendant targets (bubbling); handlers filter on Event.Target.
	On(event string, handler func(Event)) (off func())
}

// Event is a completion event delivered to an element subscription.
type Event struct {
	// Type is the event name, e.g. TransitionEnd.
	Type string
	// Target is the element the event originated on. With bubbling
	// delivery this can differ from the subscribed element.
	Target Element
}

// Scheduler supplies the two timing primitives the transition engine
// suspends on: paint-frame boundaries and millisecond timers.
//
// All callbacks run on the scheduler's frame thread, one at a time.
type Scheduler interface {
	// RequestFrame schedules fn to run at the next paint-frame boundary.
	// Callbacks scheduled during a frame run on the following frame.
	RequestFrame(fn func())

	// After schedules fn to run once d has elapsed. The returned cancel
	// function prevents fn from running if it has not run yet; calling it
	// afterwards is a no-op.
	After(d time.Duration, fn func()) (cancel func())
}

// NextFrame schedules fn two successive frame boundaries ahead.
//
// The first boundary lets the backend commit the current element state as a
// distinct paint frame; only then may the next state be applied, otherwise
// the two states coalesce into one frame and no visible transition occurs.
func NextFrame(s Scheduler, fn func()) {
	s.RequestFrame(func() {
		s.RequestFrame(fn)
	})
}
