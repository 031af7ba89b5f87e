// Package testing provides a deterministic harness for transition tests.
//
// # Quick Start
//
// Create a harness, use it as the coordinator's scheduler, and drive frames
// and time by hand:
//
//	func TestFade(t *testing.T) {
//	    h := seguetest.NewHarness()
//	    coord := segue.NewCoordinator(segue.Spec{Name: "fade"}, segue.Options{
//	        Scheduler: h,
//	    })
//
//	    el := dom.NewNode("div")
//	    done := false
//	    coord.BeforeEnter(el)
//	    coord.Enter(el, func() { done = true })
//
//	    h.PumpFrames(2) // cross the double-frame deferral
//	    if !done {
//	        t.Error("expected enter to resolve")
//	    }
//	}
//
// # Time Control
//
// Timers armed through the harness fire only when the fake clock moves:
//
//	h.Advance(300 * time.Millisecond)
//
// Frame callbacks and timers never fire on their own; a test that pumps
// nothing observes nothing.
//
// # Error Capture
//
// RecordingHandler captures reported errors for assertions:
//
//	rec := &seguetest.RecordingHandler{}
//	coord := segue.NewCoordinator(spec, segue.Options{Scheduler: h, Sink: rec})
//
// # Import Alias
//
// Since this package has the same name as the standard library testing
// package, import it with an alias:
//
//	import seguetest "github.com/go-drift/segue/pkg/testing"
package testing
