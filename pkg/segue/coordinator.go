package segue

import (
	"fmt"
	"time"

	"github.com/go-drift/segue/pkg/errors"
	"github.com/go-drift/segue/pkg/surface"
)

// phaseKind distinguishes the three phase variants a coordinator runs.
type phaseKind int

const (
	phaseEnter phaseKind = iota
	phaseAppear
	phaseLeave
)

func (k phaseKind) String() string {
	switch k {
	case phaseAppear:
		return "appear"
	case phaseLeave:
		return "leave"
	default:
		return "enter"
	}
}

// phaseState tracks where a phase instance is in its lifecycle. A run is
// created when its from/active classes are applied; before that the element
// is simply absent from the run table.
type phaseState int

const (
	stateClassesApplied phaseState = iota
	stateFrameDeferred
	stateWatching
	stateResolved
	stateCancelled
)

func (s phaseState) String() string {
	switch s {
	case stateClassesApplied:
		return "classes-applied"
	case stateFrameDeferred:
		return "frame-deferred"
	case stateWatching:
		return "watching"
	case stateResolved:
		return "resolved"
	case stateCancelled:
		return "cancelled"
	default:
		return fmt.Sprintf("phaseState(%d)", int(s))
	}
}

// phaseRun is one in-flight execution of a phase on one element. It holds
// the completion callback and whatever watcher the run armed, so that the
// first completion signal can disarm the rest.
type phaseRun struct {
	el    surface.Element
	kind  phaseKind
	state phaseState

	// done is the orchestrator's completion callback. Unset until the
	// phase method runs; a run cancelled straight out of the before hook
	// has nothing to invoke.
	done func()

	// resolved is the one-shot guard. Every completion path checks it
	// before acting, so a watcher that cannot be torn down still fires
	// as a no-op.
	resolved bool

	cancelTimer func()
	detach      func()
	ended       int
}

// phaseClasses groups the three class names one phase variant mutates.
type phaseClasses struct {
	from, active, to string
}

// Options configures a Coordinator beyond its Spec.
type Options struct {
	// Hooks are the user lifecycle callbacks.
	Hooks Hooks

	// Scheduler supplies frame boundaries and timers. Required.
	Scheduler surface.Scheduler

	// Sink receives config errors and contained hook panics. Leave nil
	// to use the package-global handler.
	Sink errors.ErrorHandler
}

// Coordinator drives class transition phases for elements and resolves each
// phase's completion exactly once. It implements [LifecycleHooks].
//
// A coordinator is bound to one resolved [Spec] and one scheduler. All
// methods must be called on the scheduler's frame thread; the coordinator
// holds no locks.
type Coordinator struct {
	spec    resolvedSpec
	hooks   Hooks
	sched   surface.Scheduler
	sink    errors.ErrorHandler
	classes *Tracker
	runs    map[surface.Element]*phaseRun
}

var _ LifecycleHooks = (*Coordinator)(nil)

// NewCoordinator resolves spec once and returns a coordinator bound to the
// options' scheduler. Invalid explicit durations are reported through the
// sink and dropped. It panics if no scheduler is provided.
func NewCoordinator(spec Spec, opts Options) *Coordinator {
	if opts.Scheduler == nil {
		panic("segue: Options.Scheduler is required")
	}
	return &Coordinator{
		spec:    resolveSpec(spec, opts.Sink),
		hooks:   opts.Hooks.normalize(),
		sched:   opts.Scheduler,
		sink:    opts.Sink,
		classes: NewTracker(),
		runs:    make(map[surface.Element]*phaseRun),
	}
}

// BeforeEnter runs the user before-hook and applies the enter from and
// active classes. The orchestrator calls it before inserting el; the before
// hook runs synchronously and its panics propagate to the caller.
func (c *Coordinator) BeforeEnter(el surface.Element) {
	c.applyStart(el, phaseEnter, c.hooks.BeforeEnter)
}

// Enter starts the enter phase on el. done is invoked exactly once when the
// phase resolves or is cancelled. Starting a phase on an element with one
// already in flight cancels the old run first.
func (c *Coordinator) Enter(el surface.Element, done func()) {
	c.startPhase(el, phaseEnter, done)
}

// EnterCancelled interrupts an in-flight enter on el: classes are finalized
// immediately, the user cancelled hook runs, and the pending done fires.
// Without an in-flight enter it is a no-op.
func (c *Coordinator) EnterCancelled(el surface.Element) {
	c.cancelPhase(el, phaseEnter)
}

// BeforeAppear is BeforeEnter for an element's first-ever appearance. A
// no-op unless Spec.Appear is set.
func (c *Coordinator) BeforeAppear(el surface.Element) {
	if !c.spec.appear {
		return
	}
	c.applyStart(el, phaseAppear, c.hooks.BeforeAppear)
}

// Appear starts the appear phase. With appear disabled it applies nothing
// and resolves done immediately.
func (c *Coordinator) Appear(el surface.Element, done func()) {
	if !c.spec.appear {
		if done != nil {
			done()
		}
		return
	}
	c.startPhase(el, phaseAppear, done)
}

// AppearCancelled interrupts an in-flight appear on el. A no-op unless
// Spec.Appear is set.
func (c *Coordinator) AppearCancelled(el surface.Element) {
	if !c.spec.appear {
		return
	}
	c.cancelPhase(el, phaseAppear)
}

// Leave starts the leave phase on el. The leave from and active classes are
// applied synchronously, with no before hook: a leaving element is already
// in its final layout. From there the phase proceeds like enter.
func (c *Coordinator) Leave(el surface.Element, done func()) {
	c.applyStart(el, phaseLeave, nil)
	c.startPhase(el, phaseLeave, done)
}

// LeaveCancelled interrupts an in-flight leave on el.
func (c *Coordinator) LeaveCancelled(el surface.Element) {
	c.cancelPhase(el, phaseLeave)
}

// applyStart begins a phase instance: any in-flight run on el is cancelled,
// the before hook (if any) runs synchronously, and the phase's from and
// active classes are applied, in that order.
func (c *Coordinator) applyStart(el surface.Element, kind phaseKind, before func(surface.Element)) {
	if prev := c.runs[el]; prev != nil {
		c.cancelRun(prev)
	}
	if before != nil {
		before(el)
	}
	if c.spec.css {
		cls := c.phaseClasses(kind)
		c.classes.Add(el, cls.from)
		c.classes.Add(el, cls.active)
	}
	c.runs[el] = &phaseRun{el: el, kind: kind, state: stateClassesApplied}
}

// startPhase attaches done to the run begun by applyStart and schedules the
// double-frame deferral. A run of the wrong kind or past the classes-applied
// state is superseded through the full cancellation path.
func (c *Coordinator) startPhase(el surface.Element, kind phaseKind, done func()) {
	run := c.runs[el]
	if run != nil && (run.kind != kind || run.state != stateClassesApplied) {
		c.cancelRun(run)
		run = nil
	}
	if run == nil {
		run = &phaseRun{el: el, kind: kind, state: stateClassesApplied}
		c.runs[el] = run
	}
	run.done = done
	run.state = stateFrameDeferred
	surface.NextFrame(c.sched, func() {
		c.afterDefer(run)
	})
}

// afterDefer runs two frame boundaries after startPhase: it swaps the from
// class for the to class, invokes the phase hook, and arms the completion
// watcher unless the hook owns resolution.
func (c *Coordinator) afterDefer(run *phaseRun) {
	if run.resolved {
		return
	}
	cls := c.phaseClasses(run.kind)
	if c.spec.css {
		c.classes.Remove(run.el, cls.from)
		c.classes.Add(run.el, cls.to)
	}
	run.state = stateWatching

	resolve := func() { c.resolveRun(run) }
	panicked := c.callPhaseHook(run, resolve)
	if run.resolved {
		return
	}
	if c.delegated(run.kind) {
		if panicked {
			// The hook owned resolution and died before arranging
			// it. Resolve so done still fires.
			resolve()
		}
		return
	}
	if !c.spec.css {
		resolve()
		return
	}
	c.armWatcher(run)
}

// armWatcher arms exactly one completion mechanism: the explicit duration
// timer when one is configured, otherwise the probed watcher. A probe that
// finds no effect resolves synchronously with nothing armed.
func (c *Coordinator) armWatcher(run *phaseRun) {
	if explicit := c.explicitDuration(run.kind); explicit != nil {
		run.cancelTimer = c.sched.After(msDuration(*explicit), func() {
			c.resolveRun(run)
		})
		return
	}

	info := Probe(run.el, c.spec.hint)
	if info.Mode == EffectNone {
		c.resolveRun(run)
		return
	}
	expected := info.PropCount
	run.detach = run.el.On(info.EndEvent(), func(ev surface.Event) {
		if ev.Target != run.el {
			return
		}
		run.ended++
		if run.ended >= expected {
			c.resolveRun(run)
		}
	})
	// End events are not guaranteed for every property; the fallback
	// timer resolves whatever the events left unfinished.
	run.cancelTimer = c.sched.After(info.Timeout+time.Millisecond, func() {
		c.resolveRun(run)
	})
}

// resolveRun is the single completion path. The first caller wins: the
// watcher is disarmed, the to and active classes are released, the run is
// dropped, and done fires. Every later call is a no-op, which is what
// logically disarms a watcher that cannot be torn down.
func (c *Coordinator) resolveRun(run *phaseRun) {
	if run.resolved {
		return
	}
	run.resolved = true
	run.state = stateResolved
	c.disarm(run)
	if c.spec.css {
		cls := c.phaseClasses(run.kind)
		c.classes.Remove(run.el, cls.to)
		c.classes.Remove(run.el, cls.active)
	}
	if c.runs[run.el] == run {
		delete(c.runs, run.el)
	}
	if run.done != nil {
		run.done()
	}
}

// cancelRun interrupts a run before it resolved: classes are finalized
// immediately without waiting for the watcher, including the from class
// when the deferral has not swapped it yet, then the cancelled hook and the
// pending done run, in that order.
func (c *Coordinator) cancelRun(run *phaseRun) {
	if run.resolved {
		return
	}
	run.resolved = true
	run.state = stateCancelled
	c.disarm(run)
	if c.spec.css {
		cls := c.phaseClasses(run.kind)
		c.classes.Remove(run.el, cls.from)
		c.classes.Remove(run.el, cls.to)
		c.classes.Remove(run.el, cls.active)
	}
	if c.runs[run.el] == run {
		delete(c.runs, run.el)
	}
	c.callCancelledHook(run.kind, run.el)
	if run.done != nil {
		run.done()
	}
}

func (c *Coordinator) cancelPhase(el surface.Element, kind phaseKind) {
	if run := c.runs[el]; run != nil && run.kind == kind {
		c.cancelRun(run)
	}
}

// disarm releases whatever the run armed. Safe when nothing is armed, and
// safe from inside the armed callback itself.
func (c *Coordinator) disarm(run *phaseRun) {
	if run.cancelTimer != nil {
		run.cancelTimer()
		run.cancelTimer = nil
	}
	if run.detach != nil {
		run.detach()
		run.detach = nil
	}
}

// phaseClasses returns the three class names a phase variant mutates.
func (c *Coordinator) phaseClasses(kind phaseKind) phaseClasses {
	switch kind {
	case phaseAppear:
		return phaseClasses{c.spec.appearFrom, c.spec.appearActive, c.spec.appearTo}
	case phaseLeave:
		return phaseClasses{c.spec.leaveFrom, c.spec.leaveActive, c.spec.leaveTo}
	default:
		return phaseClasses{c.spec.enterFrom, c.spec.enterActive, c.spec.enterTo}
	}
}

// explicitDuration returns the configured fixed wait for a phase variant,
// or nil to probe. Appear shares the enter duration.
func (c *Coordinator) explicitDuration(kind phaseKind) *float64 {
	if kind == phaseLeave {
		return c.spec.leaveDuration
	}
	return c.spec.enterDuration
}

// delegated reports whether the phase hook owns resolution. A delegation
// flag without a hook is inert.
func (c *Coordinator) delegated(kind phaseKind) bool {
	switch kind {
	case phaseAppear:
		return c.hooks.AppearResolves && c.hooks.Appear != nil
	case phaseLeave:
		return c.hooks.LeaveResolves && c.hooks.Leave != nil
	default:
		return c.hooks.EnterResolves && c.hooks.Enter != nil
	}
}

func (c *Coordinator) phaseHook(kind phaseKind) func(surface.Element, func()) {
	switch kind {
	case phaseAppear:
		return c.hooks.Appear
	case phaseLeave:
		return c.hooks.Leave
	default:
		return c.hooks.Enter
	}
}

func (c *Coordinator) cancelledHook(kind phaseKind) func(surface.Element) {
	switch kind {
	case phaseAppear:
		return c.hooks.AppearCancelled
	case phaseLeave:
		return c.hooks.LeaveCancelled
	default:
		return c.hooks.EnterCancelled
	}
}

// callPhaseHook invokes the phase hook with panic containment. A panic is
// reported as a hook error and the phase continues as if the hook had
// returned normally.
func (c *Coordinator) callPhaseHook(run *phaseRun, resolve func()) (panicked bool) {
	hook := c.phaseHook(run.kind)
	if hook == nil {
		return false
	}
	defer func() {
		if r := recover(); r != nil {
			panicked = true
			c.report(&errors.SegueError{
				Op:         "segue." + run.kind.String(),
				Kind:       errors.KindHook,
				Err:        fmt.Errorf("%s hook panicked: %v", run.kind, r),
				Element:    describe(run.el),
				StackTrace: errors.CaptureStack(),
			})
		}
	}()
	hook(run.el, resolve)
	return false
}

// callCancelledHook invokes the cancelled hook with panic containment, so a
// hook failure cannot break the done-exactly-once guarantee.
func (c *Coordinator) callCancelledHook(kind phaseKind, el surface.Element) {
	hook := c.cancelledHook(kind)
	if hook == nil {
		return
	}
	defer func() {
		if r := recover(); r != nil {
			c.report(&errors.SegueError{
				Op:         "segue." + kind.String() + "Cancelled",
				Kind:       errors.KindHook,
				Err:        fmt.Errorf("%s cancelled hook panicked: %v", kind, r),
				Element:    describe(el),
				StackTrace: errors.CaptureStack(),
			})
		}
	}()
	hook(el)
}

func (c *Coordinator) report(err *errors.SegueError) {
	report(c.sink, err)
}

// describe renders an element for diagnostics.
func describe(el surface.Element) string {
	if s, ok := el.(fmt.Stringer); ok {
		return s.String()
	}
	return fmt.Sprintf("%T", el)
}
