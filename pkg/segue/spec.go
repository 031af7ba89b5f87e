package segue

import (
	"fmt"
	"math"
	"time"

	"github.com/go-drift/segue/pkg/errors"
)

// EffectType identifies a style effect family.
//
// In a [Spec] it is a hint restricting which family the prober considers;
// the zero value EffectAuto leaves detection to the probe. In an [Info] it
// is the probe's verdict, where EffectNone means no effect is configured and
// the phase resolves synchronously.
type EffectType int

const (
	// EffectAuto lets the probe pick whichever family runs longer.
	EffectAuto EffectType = iota
	// EffectTransition restricts timing to transition-duration/-delay.
	EffectTransition
	// EffectAnimation restricts timing to animation-duration/-delay.
	EffectAnimation
	// EffectNone means no effect is in play.
	EffectNone
)

// String returns a human-readable representation of the effect type.
func (t EffectType) String() string {
	switch t {
	case EffectAuto:
		return "auto"
	case EffectTransition:
		return "transition"
	case EffectAnimation:
		return "animation"
	case EffectNone:
		return "none"
	default:
		return fmt.Sprintf("EffectType(%d)", int(t))
	}
}

// Duration is an explicit completion override in milliseconds, one value per
// phase. When set on a [Spec] the coordinator resolves the phase on a plain
// timer instead of probing computed style.
type Duration struct {
	Enter float64
	Leave float64
}

// Millis returns a Duration applying ms to both phases.
func Millis(ms float64) *Duration {
	return &Duration{Enter: ms, Leave: ms}
}

// PerPhase returns a Duration with distinct enter and leave lengths.
func PerPhase(enter, leave float64) *Duration {
	return &Duration{Enter: enter, Leave: leave}
}

// Spec configures a [Coordinator]. It is plain data, resolved once by
// [NewCoordinator].
//
// The nine class fields override the defaults derived from Name; an empty
// field keeps the default. Appear classes default to the resolved enter
// classes, so overriding EnterFromClass alone also changes the appear-from
// class.
type Spec struct {
	// Name is the class prefix. Defaults to "v", yielding v-enter-from,
	// v-enter-active, v-enter-to and the leave counterparts.
	Name string

	// Type restricts the style probe to one effect family. Leave as
	// EffectAuto to detect whichever family runs longer.
	Type EffectType

	// Duration overrides probed timing with fixed per-phase waits.
	// NaN, infinite or negative values are reported as config errors and
	// the affected phase falls back to probing.
	Duration *Duration

	// Appear enables a transition on an element's first-ever appearance.
	// When false, Appear phases resolve immediately with no classes.
	Appear bool

	// DisableCSS skips class mutation and style probing entirely. Frame
	// deferral and hook timing are unchanged; completion comes from the
	// phase hook when it owns resolution, or immediately after it returns.
	DisableCSS bool

	EnterFromClass   string
	EnterActiveClass string
	EnterToClass     string

	AppearFromClass   string
	AppearActiveClass string
	AppearToClass     string

	LeaveFromClass   string
	LeaveActiveClass string
	LeaveToClass     string
}

// resolvedSpec is a Spec after one-time resolution: defaults filled in,
// explicit durations validated, nothing left optional except the durations
// themselves.
type resolvedSpec struct {
	name   string
	hint   EffectType
	css    bool
	appear bool

	enterFrom   string
	enterActive string
	enterTo     string

	appearFrom   string
	appearActive string
	appearTo     string

	leaveFrom   string
	leaveActive string
	leaveTo     string

	// nil means no explicit duration: probe instead.
	enterDuration *float64
	leaveDuration *float64
}

// resolveSpec fills in class defaults and validates explicit durations,
// reporting invalid values through sink as config errors. An invalid
// duration leaves the phase on probed timing, as if it were absent.
func resolveSpec(s Spec, sink errors.ErrorHandler) resolvedSpec {
	name := s.Name
	if name == "" {
		name = "v"
	}
	pick := func(override, def string) string {
		if override != "" {
			return override
		}
		return def
	}

	r := resolvedSpec{
		name:   name,
		hint:   s.Type,
		css:    !s.DisableCSS,
		appear: s.Appear,
	}
	r.enterFrom = pick(s.EnterFromClass, name+"-enter-from")
	r.enterActive = pick(s.EnterActiveClass, name+"-enter-active")
	r.enterTo = pick(s.EnterToClass, name+"-enter-to")
	r.appearFrom = pick(s.AppearFromClass, r.enterFrom)
	r.appearActive = pick(s.AppearActiveClass, r.enterActive)
	r.appearTo = pick(s.AppearToClass, r.enterTo)
	r.leaveFrom = pick(s.LeaveFromClass, name+"-leave-from")
	r.leaveActive = pick(s.LeaveActiveClass, name+"-leave-active")
	r.leaveTo = pick(s.LeaveToClass, name+"-leave-to")

	if s.Duration != nil {
		if ms, ok := checkDuration(s.Duration.Enter, "enter", sink); ok {
			r.enterDuration = &ms
		}
		if ms, ok := checkDuration(s.Duration.Leave, "leave", sink); ok {
			r.leaveDuration = &ms
		}
	}
	return r
}

// checkDuration validates one explicit phase duration. Invalid values are
// reported as KindConfig and rejected, which drops the phase back to probed
// timing.
func checkDuration(ms float64, phase string, sink errors.ErrorHandler) (float64, bool) {
	var err error
	switch {
	case math.IsNaN(ms):
		err = fmt.Errorf("explicit %s duration is NaN", phase)
	case math.IsInf(ms, 0):
		err = fmt.Errorf("explicit %s duration is infinite", phase)
	case ms < 0:
		err = fmt.Errorf("explicit %s duration is negative: %v", phase, ms)
	default:
		return ms, true
	}
	report(sink, &errors.SegueError{
		Op:   "segue.resolveSpec",
		Kind: errors.KindConfig,
		Err:  err,
	})
	return 0, false
}

// report routes a structured error to sink, falling back to the package
// global handler when sink is nil.
func report(sink errors.ErrorHandler, err *errors.SegueError) {
	if sink == nil {
		errors.Report(err)
		return
	}
	if err.Timestamp.IsZero() {
		err.Timestamp = time.Now()
	}
	sink.HandleError(err)
}
