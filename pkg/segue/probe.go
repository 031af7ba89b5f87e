package segue

import (
	"strconv"
	"strings"
	"time"

	"github.com/go-drift/segue/pkg/surface"
)

// Info is the wait model derived from probing an element's computed style at
// one instant: which effect family governs the phase, how long to wait at
// most, and how many per-property completion events to expect.
//
// Info is ephemeral. Computed style can change between frames, so a probe
// result is derived fresh for every phase and never cached.
type Info struct {
	// Mode is the winning effect family, or EffectNone when no effect is
	// configured.
	Mode EffectType

	// Timeout is the longest duration+delay across the winning family's
	// properties. Zero when Mode is EffectNone.
	Timeout time.Duration

	// PropCount is the length of the winning family's duration list: the
	// number of completion events expected. Zero when Mode is EffectNone.
	PropCount int
}

// Probe reads el's computed timing properties and derives the wait model for
// one phase.
//
// A hint of EffectTransition or EffectAnimation restricts the probe to that
// family; the hint cannot manufacture an effect, so a hinted family with a
// zero timeout still resolves to EffectNone. Any other hint auto-detects:
// whichever family has the larger timeout wins, and ties (including both
// zero) resolve to EffectNone.
//
// A backend that does not compute styles returns empty strings, which parse
// as zero-length effects and yield EffectNone.
func Probe(el surface.Element, hint EffectType) Info {
	transitionDurations := styleList(el.ComputedStyle(surface.TransitionDuration))
	transitionTimeout := familyTimeout(
		styleList(el.ComputedStyle(surface.TransitionDelay)),
		transitionDurations,
	)
	animationDurations := styleList(el.ComputedStyle(surface.AnimationDuration))
	animationTimeout := familyTimeout(
		styleList(el.ComputedStyle(surface.AnimationDelay)),
		animationDurations,
	)

	mode := EffectNone
	var timeout float64
	var propCount int
	switch hint {
	case EffectTransition:
		if transitionTimeout > 0 {
			mode, timeout, propCount = EffectTransition, transitionTimeout, len(transitionDurations)
		}
	case EffectAnimation:
		if animationTimeout > 0 {
			mode, timeout, propCount = EffectAnimation, animationTimeout, len(animationDurations)
		}
	default:
		switch {
		case transitionTimeout > animationTimeout && transitionTimeout > 0:
			mode, timeout, propCount = EffectTransition, transitionTimeout, len(transitionDurations)
		case animationTimeout > transitionTimeout && animationTimeout > 0:
			mode, timeout, propCount = EffectAnimation, animationTimeout, len(animationDurations)
		}
	}
	if mode == EffectNone {
		return Info{Mode: EffectNone}
	}
	return Info{Mode: mode, Timeout: msDuration(timeout), PropCount: propCount}
}

// EndEvent returns the completion event name for the info's effect family,
// or "" when no effect is in play.
func (i Info) EndEvent() string {
	switch i.Mode {
	case EffectTransition:
		return surface.TransitionEnd
	case EffectAnimation:
		return surface.AnimationEnd
	default:
		return ""
	}
}

// styleList splits a computed timing property into its per-property tokens.
// Computed values separate entries with a comma and a space. An empty value
// yields a single empty token, which parses to zero.
func styleList(value string) []string {
	return strings.Split(value, ", ")
}

// familyTimeout computes the total wait for one effect family: the maximum
// over properties of duration+delay.
//
// A delay list shorter than the duration list is broadcast by concatenating
// it to itself until it covers every duration, matching platform shorthand
// expansion.
func familyTimeout(delays, durations []string) float64 {
	for len(delays) < len(durations) {
		delays = append(delays, delays...)
	}
	var timeout float64
	for i, d := range durations {
		total := toMS(d) + toMS(delays[i])
		if i == 0 || total > timeout {
			timeout = total
		}
	}
	return timeout
}

// toMS parses a single duration/delay token, expressed in seconds, into
// milliseconds. The trailing unit is stripped and a legacy decimal comma is
// accepted in place of a decimal point ("0,5s" parses as 500). Non-numeric
// or empty tokens parse to zero.
func toMS(token string) float64 {
	token = strings.TrimSuffix(token, "s")
	token = strings.Replace(token, ",", ".", 1)
	v, err := strconv.ParseFloat(token, 64)
	if err != nil {
		return 0
	}
	return v * 1000
}

// msDuration converts fractional milliseconds to a time.Duration.
func msDuration(ms float64) time.Duration {
	return time.Duration(ms * float64(time.Millisecond))
}
