// Package segue coordinates class-driven enter/leave transitions and decides,
// exactly once per phase, when the visual effect has finished.
//
// A lifecycle orchestrator (whatever inserts and removes elements) drives a
// [Coordinator] through the [LifecycleHooks] bundle. For each phase the
// coordinator applies the phase's from/active classes, waits two frame
// boundaries so the starting state is committed as its own paint frame, swaps
// from for to, and then resolves completion through exactly one of three
// signals: an explicit configured duration, a probed timeout derived from the
// element's computed style (end events counted against a fallback timer), or
// a user hook that owns resolution.
//
// # Phase lifecycle
//
// Each phase instance moves through a fixed state sequence:
//
//	Idle ──► ClassesApplied ──► FrameDeferred ──► Watching ──► Resolved
//	              │                   │               │
//	              └───────────────────┴───────────────┴──────► Cancelled
//
// Class mutations within a phase always happen in the order from, active,
// (frame boundary), to. Both terminal states remove every class the phase
// applied and invoke the orchestrator's completion callback exactly once; a
// watcher firing after the run reached a terminal state is a no-op.
//
// # Configuration
//
// [Spec] is plain data: a class-name prefix, optional per-class overrides,
// an optional effect-type hint, and an optional explicit [Duration]. It is
// resolved once in [NewCoordinator]; invalid durations are reported through
// the error sink and the phase falls back to probed timing.
//
//	coord := segue.NewCoordinator(segue.Spec{Name: "fade"}, segue.Options{
//	    Scheduler: loop,
//	})
//	coord.BeforeEnter(el)
//	// ... orchestrator inserts el ...
//	coord.Enter(el, func() { /* phase done */ })
//
// # Collaborators
//
// The coordinator sees the rendering backend only through
// [surface.Element] and [surface.Scheduler]. pkg/dom provides a headless
// element, pkg/engine a real frame loop, and pkg/testing a manually pumped
// scheduler for deterministic tests.
package segue
