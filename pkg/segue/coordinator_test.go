package segue

import (
	"math"
	"reflect"
	"testing"
	"time"

	"github.com/go-drift/segue/pkg/dom"
	"github.com/go-drift/segue/pkg/errors"
	"github.com/go-drift/segue/pkg/surface"
	seguetest "github.com/go-drift/segue/pkg/testing"
)

func TestCoordinator_Enter_ResolvesOnEndEvents(t *testing.T) {
	h := seguetest.NewHarness()
	el := dom.NewNode("div")
	el.SetStyle(surface.TransitionDuration, "0.1s, 0.2s")
	el.SetStyle(surface.TransitionDelay, "0s")
	c := NewCoordinator(Spec{Name: "fade"}, Options{Scheduler: h})

	done := 0
	c.BeforeEnter(el)
	if !el.HasClass("fade-enter-from") || !el.HasClass("fade-enter-active") {
		t.Fatal("expected from and active classes after BeforeEnter")
	}
	c.Enter(el, func() { done++ })

	h.Pump()
	if !el.HasClass("fade-enter-from") {
		t.Fatal("expected from class still applied after one frame")
	}
	h.Pump()
	if el.HasClass("fade-enter-from") {
		t.Error("expected from class removed after the deferral")
	}
	if !el.HasClass("fade-enter-to") || !el.HasClass("fade-enter-active") {
		t.Error("expected to and active classes while watching")
	}
	if h.ActiveTimers() != 1 {
		t.Errorf("expected the fallback timer armed, got %d timers", h.ActiveTimers())
	}

	el.DispatchEvent(surface.Event{Type: surface.TransitionEnd})
	if done != 0 {
		t.Fatal("expected completion only after both property events")
	}
	el.DispatchEvent(surface.Event{Type: surface.TransitionEnd})
	if done != 1 {
		t.Fatalf("expected done once, got %d", done)
	}
	if el.HasClass("fade-enter-to") || el.HasClass("fade-enter-active") {
		t.Error("expected to and active classes removed on resolution")
	}
	if h.ActiveTimers() != 0 {
		t.Errorf("expected fallback timer disarmed, got %d", h.ActiveTimers())
	}

	// The fallback deadline passing later changes nothing.
	h.Advance(300 * time.Millisecond)
	if done != 1 {
		t.Errorf("expected done exactly once, got %d", done)
	}
}

func TestCoordinator_Enter_ExplicitDurationTimer(t *testing.T) {
	h := seguetest.NewHarness()
	el := dom.NewNode("div")
	el.SetStyle(surface.TransitionDuration, "9s") // ignored: explicit duration wins
	c := NewCoordinator(Spec{Duration: Millis(250)}, Options{Scheduler: h})

	done := 0
	c.BeforeEnter(el)
	c.Enter(el, func() { done++ })
	h.PumpFrames(2)

	if !el.HasClass("v-enter-to") {
		t.Fatal("expected to class applied before the timer resolves")
	}
	h.Advance(249 * time.Millisecond)
	if done != 0 {
		t.Fatal("expected completion no earlier than the explicit duration")
	}
	h.Advance(1 * time.Millisecond)
	if done != 1 {
		t.Fatalf("expected done once after 250ms, got %d", done)
	}
	// End events play no part under an explicit duration.
	el.DispatchEvent(surface.Event{Type: surface.TransitionEnd})
	if done != 1 {
		t.Errorf("expected done exactly once, got %d", done)
	}
}

func TestCoordinator_Enter_NoEffect_ResolvesSynchronously(t *testing.T) {
	h := seguetest.NewHarness()
	el := dom.NewNode("div")
	c := NewCoordinator(Spec{}, Options{Scheduler: h})

	done := 0
	c.BeforeEnter(el)
	c.Enter(el, func() { done++ })
	h.PumpFrames(2)

	if done != 1 {
		t.Fatalf("expected synchronous resolution during the swap frame, got %d", done)
	}
	if h.ActiveTimers() != 0 {
		t.Errorf("expected nothing armed, got %d timers", h.ActiveTimers())
	}
	if got := el.Classes(); len(got) != 0 {
		t.Errorf("expected no classes left, got %v", got)
	}
}

func TestCoordinator_Enter_FallbackResolvesUnderDelivery(t *testing.T) {
	h := seguetest.NewHarness()
	el := dom.NewNode("div")
	el.SetStyle(surface.TransitionDuration, "0.1s, 0.2s")
	c := NewCoordinator(Spec{}, Options{Scheduler: h})

	done := 0
	c.BeforeEnter(el)
	c.Enter(el, func() { done++ })
	h.PumpFrames(2)

	// Only one of the two expected events arrives.
	el.DispatchEvent(surface.Event{Type: surface.TransitionEnd})
	if done != 0 {
		t.Fatal("expected the phase still watching after one event")
	}
	h.Advance(201 * time.Millisecond)
	if done != 1 {
		t.Fatalf("expected the fallback timer to resolve, got done=%d", done)
	}
	// A straggler event after resolution is a no-op.
	el.DispatchEvent(surface.Event{Type: surface.TransitionEnd})
	if done != 1 {
		t.Errorf("expected done exactly once, got %d", done)
	}
}

func TestCoordinator_Enter_IgnoresBubbledEventsFromDescendants(t *testing.T) {
	h := seguetest.NewHarness()
	parent := dom.NewNode("div")
	child := dom.NewNode("span")
	parent.AppendChild(child)
	parent.SetStyle(surface.TransitionDuration, "0.3s")
	c := NewCoordinator(Spec{}, Options{Scheduler: h})

	done := 0
	c.BeforeEnter(parent)
	c.Enter(parent, func() { done++ })
	h.PumpFrames(2)

	// The child's event bubbles through the parent's listener but must
	// not count toward the parent's completion.
	child.DispatchEvent(surface.Event{Type: surface.TransitionEnd})
	if done != 0 {
		t.Fatal("expected bubbled child event to be ignored")
	}
	parent.DispatchEvent(surface.Event{Type: surface.TransitionEnd})
	if done != 1 {
		t.Fatalf("expected the parent's own event to resolve, got %d", done)
	}
}

func TestCoordinator_EnterCancelled_MidWatching(t *testing.T) {
	h := seguetest.NewHarness()
	el := dom.NewNode("div")
	el.SetStyle(surface.TransitionDuration, "0.3s")
	cancelled := 0
	c := NewCoordinator(Spec{Name: "fade"}, Options{
		Scheduler: h,
		Hooks: Hooks{
			EnterCancelled: func(surface.Element) { cancelled++ },
		},
	})

	done := 0
	c.BeforeEnter(el)
	c.Enter(el, func() { done++ })
	h.PumpFrames(2)
	if h.ActiveTimers() != 1 {
		t.Fatalf("expected fallback armed, got %d", h.ActiveTimers())
	}

	c.EnterCancelled(el)
	if done != 1 {
		t.Fatalf("expected done fired on cancellation, got %d", done)
	}
	if cancelled != 1 {
		t.Fatalf("expected cancelled hook once, got %d", cancelled)
	}
	if got := el.Classes(); len(got) != 0 {
		t.Errorf("expected classes finalized immediately, got %v", got)
	}

	// The already-armed fallback deadline passing later is a no-op.
	h.Advance(400 * time.Millisecond)
	if done != 1 {
		t.Errorf("expected done exactly once, got %d", done)
	}
	// Cancelling again with nothing in flight is a no-op.
	c.EnterCancelled(el)
	if done != 1 || cancelled != 1 {
		t.Errorf("expected idempotent cancellation, got done=%d hooks=%d", done, cancelled)
	}
}

func TestCoordinator_EnterCancelled_BeforeSwap_RemovesFromClass(t *testing.T) {
	h := seguetest.NewHarness()
	el := dom.NewNode("div")
	el.SetStyle(surface.TransitionDuration, "0.3s")
	c := NewCoordinator(Spec{Name: "fade"}, Options{Scheduler: h})

	done := 0
	c.BeforeEnter(el)
	c.Enter(el, func() { done++ })
	h.Pump() // still mid-deferral, from class applied

	c.EnterCancelled(el)
	if done != 1 {
		t.Fatalf("expected done on cancellation, got %d", done)
	}
	if got := el.Classes(); len(got) != 0 {
		t.Errorf("expected from and active removed, got %v", got)
	}

	// The pending deferral callback must not re-apply anything.
	h.Pump()
	if got := el.Classes(); len(got) != 0 {
		t.Errorf("expected no classes after the stale frame, got %v", got)
	}
	if done != 1 {
		t.Errorf("expected done exactly once, got %d", done)
	}
}

func TestCoordinator_Leave_SupersedesInFlightEnter(t *testing.T) {
	h := seguetest.NewHarness()
	el := dom.NewNode("div")
	el.SetStyle(surface.TransitionDuration, "0.3s")
	enterCancelled := 0
	c := NewCoordinator(Spec{Name: "fade"}, Options{
		Scheduler: h,
		Hooks: Hooks{
			EnterCancelled: func(surface.Element) { enterCancelled++ },
		},
	})

	enterDone, leaveDone := 0, 0
	c.BeforeEnter(el)
	c.Enter(el, func() { enterDone++ })
	h.PumpFrames(2) // enter now watching

	c.Leave(el, func() { leaveDone++ })
	if enterCancelled != 1 || enterDone != 1 {
		t.Fatalf("expected the enter run cancelled, got hook=%d done=%d", enterCancelled, enterDone)
	}
	if el.HasClass("fade-enter-to") || el.HasClass("fade-enter-active") {
		t.Error("expected enter classes finalized on supersede")
	}
	if !el.HasClass("fade-leave-from") || !el.HasClass("fade-leave-active") {
		t.Error("expected leave classes applied synchronously")
	}

	h.PumpFrames(2)
	if el.HasClass("fade-leave-from") {
		t.Error("expected leave-from swapped for leave-to")
	}
	if !el.HasClass("fade-leave-to") {
		t.Error("expected leave-to applied")
	}

	el.DispatchEvent(surface.Event{Type: surface.TransitionEnd})
	if leaveDone != 1 {
		t.Fatalf("expected leave resolved once, got %d", leaveDone)
	}
	if got := el.Classes(); len(got) != 0 {
		t.Errorf("expected all classes gone, got %v", got)
	}
}

func TestCoordinator_Enter_TwiceSupersedesFirstRun(t *testing.T) {
	h := seguetest.NewHarness()
	el := dom.NewNode("div")
	el.SetStyle(surface.TransitionDuration, "0.3s")
	c := NewCoordinator(Spec{}, Options{Scheduler: h})

	first, second := 0, 0
	c.BeforeEnter(el)
	c.Enter(el, func() { first++ })
	h.PumpFrames(2) // first run watching

	c.Enter(el, func() { second++ })
	if first != 1 {
		t.Fatalf("expected the first run cancelled with its done fired, got %d", first)
	}
	h.PumpFrames(2)
	el.DispatchEvent(surface.Event{Type: surface.TransitionEnd})
	if second != 1 {
		t.Fatalf("expected the second run to resolve, got %d", second)
	}
	if first != 1 {
		t.Errorf("expected first done exactly once, got %d", first)
	}
}

func TestCoordinator_Enter_DelegatedResolution(t *testing.T) {
	h := seguetest.NewHarness()
	el := dom.NewNode("div")
	el.SetStyle(surface.TransitionDuration, "0.3s") // ignored for a delegated phase
	var resolve func()
	c := NewCoordinator(Spec{Name: "fade"}, Options{
		Scheduler: h,
		Hooks: Hooks{
			Enter:         func(_ surface.Element, r func()) { resolve = r },
			EnterResolves: true,
		},
	})

	done := 0
	c.BeforeEnter(el)
	c.Enter(el, func() { done++ })
	h.PumpFrames(2)

	if resolve == nil {
		t.Fatal("expected the enter hook to receive resolve")
	}
	if h.ActiveTimers() != 0 {
		t.Errorf("expected no watcher armed for a delegated phase, got %d", h.ActiveTimers())
	}
	if done != 0 {
		t.Fatal("expected the coordinator to wait for the hook")
	}

	resolve()
	if done != 1 {
		t.Fatalf("expected done once, got %d", done)
	}
	resolve()
	if done != 1 {
		t.Errorf("expected resolve to be one-shot, got %d", done)
	}
}

func TestCoordinator_EnterHookPanic_ReportedAndPhaseCompletes(t *testing.T) {
	h := seguetest.NewHarness()
	rec := &seguetest.RecordingHandler{}
	el := dom.NewNode("div")
	c := NewCoordinator(Spec{}, Options{
		Scheduler: h,
		Sink:      rec,
		Hooks: Hooks{
			Enter: func(surface.Element, func()) { panic("hook failure") },
		},
	})

	done := 0
	c.BeforeEnter(el)
	c.Enter(el, func() { done++ })
	h.PumpFrames(2)

	if done != 1 {
		t.Fatalf("expected the phase to complete despite the panic, got %d", done)
	}
	hookErrs := rec.ErrorsOfKind(errors.KindHook)
	if len(hookErrs) != 1 {
		t.Fatalf("expected 1 hook error, got %d", len(hookErrs))
	}
	if hookErrs[0].Op != "segue.enter" {
		t.Errorf("expected op segue.enter, got %q", hookErrs[0].Op)
	}
	if hookErrs[0].Element == "" {
		t.Error("expected an element description in the report")
	}
}

func TestCoordinator_DelegatedHookPanic_StillResolves(t *testing.T) {
	h := seguetest.NewHarness()
	rec := &seguetest.RecordingHandler{}
	el := dom.NewNode("div")
	c := NewCoordinator(Spec{}, Options{
		Scheduler: h,
		Sink:      rec,
		Hooks: Hooks{
			Enter:         func(surface.Element, func()) { panic("before arranging resolve") },
			EnterResolves: true,
		},
	})

	done := 0
	c.BeforeEnter(el)
	c.Enter(el, func() { done++ })
	h.PumpFrames(2)

	if done != 1 {
		t.Fatalf("expected the coordinator to resolve for the dead hook, got %d", done)
	}
	if len(rec.ErrorsOfKind(errors.KindHook)) != 1 {
		t.Error("expected the panic reported as a hook error")
	}
}

func TestCoordinator_Appear_UsesAppearClassesOnlyOnFirstAppearance(t *testing.T) {
	h := seguetest.NewHarness()
	el := dom.NewNode("div")
	el.SetStyle(surface.TransitionDuration, "0.2s")
	c := NewCoordinator(Spec{
		Name:            "fade",
		Appear:          true,
		AppearFromClass: "pop-from",
		AppearToClass:   "pop-to",
	}, Options{Scheduler: h})

	done := 0
	c.BeforeAppear(el)
	if !el.HasClass("pop-from") || !el.HasClass("fade-enter-active") {
		t.Fatalf("expected appear classes, got %v", el.Classes())
	}
	c.Appear(el, func() { done++ })
	h.PumpFrames(2)
	if el.HasClass("pop-from") {
		t.Error("expected pop-from swapped away")
	}
	if !el.HasClass("pop-to") {
		t.Error("expected pop-to applied")
	}
	el.DispatchEvent(surface.Event{Type: surface.TransitionEnd})
	if done != 1 {
		t.Fatalf("expected appear resolved, got %d", done)
	}

	// Subsequent enters use enter classes, never appear classes.
	c.BeforeEnter(el)
	if el.HasClass("pop-from") {
		t.Error("expected enter to use enter-from, not appear-from")
	}
	if !el.HasClass("fade-enter-from") {
		t.Errorf("expected fade-enter-from, got %v", el.Classes())
	}
}

func TestCoordinator_Appear_DisabledResolvesImmediately(t *testing.T) {
	h := seguetest.NewHarness()
	el := dom.NewNode("div")
	c := NewCoordinator(Spec{Name: "fade"}, Options{Scheduler: h})

	c.BeforeAppear(el)
	if got := el.Classes(); len(got) != 0 {
		t.Errorf("expected no classes with appear disabled, got %v", got)
	}
	done := 0
	c.Appear(el, func() { done++ })
	if done != 1 {
		t.Fatalf("expected immediate resolution, got %d", done)
	}
	if h.PendingFrames() != 0 {
		t.Errorf("expected no frames scheduled, got %d", h.PendingFrames())
	}
	c.AppearCancelled(el)
	if done != 1 {
		t.Errorf("expected done exactly once, got %d", done)
	}
}

func TestCoordinator_AppearHooks_DefaultToEnterHooks(t *testing.T) {
	h := seguetest.NewHarness()
	el := dom.NewNode("div")
	var calls []string
	c := NewCoordinator(Spec{Appear: true}, Options{
		Scheduler: h,
		Hooks: Hooks{
			BeforeEnter: func(surface.Element) { calls = append(calls, "before") },
			Enter:       func(surface.Element, func()) { calls = append(calls, "enter") },
		},
	})

	c.BeforeAppear(el)
	c.Appear(el, nil)
	h.PumpFrames(2)

	want := []string{"before", "enter"}
	if !reflect.DeepEqual(calls, want) {
		t.Errorf("expected enter hooks to serve appear, got %v", calls)
	}
}

func TestCoordinator_DisableCSS_NoClassesNoProbe(t *testing.T) {
	h := seguetest.NewHarness()
	el := dom.NewNode("div")
	el.SetStyle(surface.TransitionDuration, "5s") // must never be probed
	hookSeen := false
	c := NewCoordinator(Spec{DisableCSS: true}, Options{
		Scheduler: h,
		Hooks: Hooks{
			Enter: func(surface.Element, func()) { hookSeen = true },
		},
	})

	done := 0
	c.BeforeEnter(el)
	if got := el.Classes(); len(got) != 0 {
		t.Fatalf("expected no classes, got %v", got)
	}
	c.Enter(el, func() { done++ })
	if done != 0 {
		t.Fatal("expected the frame deferral to be preserved")
	}
	h.PumpFrames(2)
	if !hookSeen {
		t.Error("expected the enter hook to run")
	}
	if done != 1 {
		t.Fatalf("expected immediate resolution after the hook, got %d", done)
	}
	if h.ActiveTimers() != 0 {
		t.Errorf("expected no probe watcher, got %d timers", h.ActiveTimers())
	}
	if got := el.Classes(); len(got) != 0 {
		t.Errorf("expected no classes, got %v", got)
	}
}

func TestCoordinator_Leave_UsesLeaveDuration(t *testing.T) {
	h := seguetest.NewHarness()
	el := dom.NewNode("div")
	c := NewCoordinator(Spec{Duration: PerPhase(100, 300)}, Options{Scheduler: h})

	done := 0
	c.Leave(el, func() { done++ })
	if !el.HasClass("v-leave-from") || !el.HasClass("v-leave-active") {
		t.Fatal("expected leave classes applied synchronously")
	}
	h.PumpFrames(2)
	h.Advance(100 * time.Millisecond)
	if done != 0 {
		t.Fatal("expected the leave duration, not the enter duration")
	}
	h.Advance(200 * time.Millisecond)
	if done != 1 {
		t.Fatalf("expected done after 300ms, got %d", done)
	}
}

func TestCoordinator_LeaveCancelled_FinalizesLeaveClasses(t *testing.T) {
	h := seguetest.NewHarness()
	el := dom.NewNode("div")
	el.SetStyle(surface.TransitionDuration, "0.3s")
	leaveCancelled := 0
	c := NewCoordinator(Spec{Name: "fade"}, Options{
		Scheduler: h,
		Hooks:     Hooks{LeaveCancelled: func(surface.Element) { leaveCancelled++ }},
	})

	done := 0
	c.Leave(el, func() { done++ })
	h.Pump() // cancel mid-deferral, leave-from still applied

	c.LeaveCancelled(el)
	if done != 1 || leaveCancelled != 1 {
		t.Fatalf("expected one done and one hook call, got done=%d hook=%d", done, leaveCancelled)
	}
	if got := el.Classes(); len(got) != 0 {
		t.Errorf("expected leave classes finalized, got %v", got)
	}
}

func TestCoordinator_CancelledHookPanic_DoneStillFires(t *testing.T) {
	h := seguetest.NewHarness()
	rec := &seguetest.RecordingHandler{}
	el := dom.NewNode("div")
	el.SetStyle(surface.TransitionDuration, "0.3s")
	c := NewCoordinator(Spec{}, Options{
		Scheduler: h,
		Sink:      rec,
		Hooks: Hooks{
			EnterCancelled: func(surface.Element) { panic("cancel failure") },
		},
	})

	done := 0
	c.BeforeEnter(el)
	c.Enter(el, func() { done++ })
	h.PumpFrames(2)
	c.EnterCancelled(el)

	if done != 1 {
		t.Fatalf("expected done despite the panicking hook, got %d", done)
	}
	if len(rec.ErrorsOfKind(errors.KindHook)) != 1 {
		t.Error("expected the panic reported as a hook error")
	}
}

func TestCoordinator_BeforeEnterHook_RunsBeforeClasses(t *testing.T) {
	h := seguetest.NewHarness()
	el := dom.NewNode("div")
	classesAtHook := []string{"sentinel"}
	c := NewCoordinator(Spec{}, Options{
		Scheduler: h,
		Hooks: Hooks{
			BeforeEnter: func(surface.Element) { classesAtHook = el.Classes() },
		},
	})

	c.BeforeEnter(el)
	if len(classesAtHook) != 0 {
		t.Errorf("expected the before hook to run ahead of class application, got %v", classesAtHook)
	}
	want := []string{"v-enter-from", "v-enter-active"}
	if got := el.Classes(); !reflect.DeepEqual(got, want) {
		t.Errorf("expected classes applied in from, active order, got %v", got)
	}
}

func TestCoordinator_InvalidDuration_FallsBackToProbedTiming(t *testing.T) {
	h := seguetest.NewHarness()
	rec := &seguetest.RecordingHandler{}
	el := dom.NewNode("div")
	el.SetStyle(surface.TransitionDuration, "0.3s")
	c := NewCoordinator(Spec{Duration: PerPhase(math.NaN(), 100)}, Options{Scheduler: h, Sink: rec})

	if len(rec.ErrorsOfKind(errors.KindConfig)) != 1 {
		t.Fatal("expected the NaN duration reported at construction")
	}
	done := 0
	c.BeforeEnter(el)
	c.Enter(el, func() { done++ })
	h.PumpFrames(2)

	el.DispatchEvent(surface.Event{Type: surface.TransitionEnd})
	if done != 1 {
		t.Fatalf("expected the probed end event to resolve enter, got %d", done)
	}
}

func TestCoordinator_RunStates(t *testing.T) {
	h := seguetest.NewHarness()
	el := dom.NewNode("div")
	el.SetStyle(surface.TransitionDuration, "0.3s")
	c := NewCoordinator(Spec{}, Options{Scheduler: h})

	c.BeforeEnter(el)
	run := c.runs[el]
	if run == nil || run.state != stateClassesApplied {
		t.Fatalf("expected a run in classes-applied after BeforeEnter, got %+v", run)
	}
	c.Enter(el, nil)
	if run.state != stateFrameDeferred {
		t.Errorf("expected frame-deferred, got %v", run.state)
	}
	h.PumpFrames(2)
	if run.state != stateWatching {
		t.Errorf("expected watching, got %v", run.state)
	}
	h.Advance(301 * time.Millisecond)
	if run.state != stateResolved {
		t.Errorf("expected resolved, got %v", run.state)
	}
	if c.runs[el] != nil {
		t.Error("expected the run dropped from the table")
	}
}

func TestNewCoordinator_RequiresScheduler(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Error("expected panic without a scheduler")
		}
	}()
	NewCoordinator(Spec{}, Options{})
}
