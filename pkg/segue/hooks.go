package segue

import "github.com/go-drift/segue/pkg/surface"

// Hooks carries user-supplied lifecycle callbacks. Every field is optional.
//
// Before hooks run synchronously, before any classes are applied; an error
// or panic there propagates to the orchestrator's call. Phase hooks (Enter,
// Appear, Leave) run after the frame deferral with a resolve callback; they
// are panic-isolated, reported through the error sink, and never prevent the
// phase from completing. Cancelled hooks run during cancellation, before the
// completion callback, and are panic-isolated the same way.
//
// Appear hooks default to their enter counterparts: when Appear is nil the
// appear phase runs the Enter hook (and inherits EnterResolves), and nil
// BeforeAppear and AppearCancelled fall back to BeforeEnter and
// EnterCancelled.
type Hooks struct {
	BeforeEnter    func(el surface.Element)
	Enter          func(el surface.Element, resolve func())
	EnterCancelled func(el surface.Element)

	BeforeAppear    func(el surface.Element)
	Appear          func(el surface.Element, resolve func())
	AppearCancelled func(el surface.Element)

	Leave          func(el surface.Element, resolve func())
	LeaveCancelled func(el surface.Element)

	// EnterResolves, AppearResolves and LeaveResolves hand completion
	// ownership to the corresponding phase hook: the coordinator arms no
	// timer or event watcher and waits for the hook to call resolve. The
	// flag has no effect while the hook itself is nil.
	EnterResolves  bool
	AppearResolves bool
	LeaveResolves  bool
}

// normalize fills the appear hooks from the enter hooks where unset.
func (h Hooks) normalize() Hooks {
	if h.BeforeAppear == nil {
		h.BeforeAppear = h.BeforeEnter
	}
	if h.Appear == nil {
		h.Appear = h.Enter
		h.AppearResolves = h.EnterResolves
	}
	if h.AppearCancelled == nil {
		h.AppearCancelled = h.EnterCancelled
	}
	return h
}

// LifecycleHooks is the hook bundle a lifecycle orchestrator drives. The
// orchestrator decides when an element enters or leaves and which phase
// applies; the bundle implementation owns classes, timing and completion.
//
// For an element's first-ever appearance the orchestrator calls the Appear
// methods, otherwise the Enter methods. The done callback passed to a phase
// method is invoked exactly once, whether the phase resolves or is
// cancelled. Cancel methods interrupt an in-flight phase; each tolerates
// being called when no phase is in flight.
//
// [Coordinator] implements this interface.
type LifecycleHooks interface {
	BeforeEnter(el surface.Element)
	Enter(el surface.Element, done func())
	EnterCancelled(el surface.Element)

	BeforeAppear(el surface.Element)
	Appear(el surface.Element, done func())
	AppearCancelled(el surface.Element)

	Leave(el surface.Element, done func())
	LeaveCancelled(el surface.Element)
}
