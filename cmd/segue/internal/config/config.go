// Package config loads transition presets from segue.yaml.
//
// A preset file names transitions and their timing so the CLI can lint,
// diagram and replay them without a running app:
//
//	defaults:
//	  name: fade
//	transitions:
//	  fade:
//	    duration: 300
//	  panel:
//	    type: transition
//	    duration: {enter: 250, leave: 150}
//	    appear: true
//	    enter-active: panel-slide-in
//
// Malformed values inside a preset (an unparseable duration, a blank class
// override, an unknown type hint) never fail the load; they come back as
// Findings so `segue lint` can print them all at once.
package config

import (
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"golang.org/x/mod/modfile"
	"golang.org/x/mod/module"
	"gopkg.in/yaml.v3"

	"github.com/go-drift/segue/pkg/segue"
)

// File is the parsed shape of segue.yaml.
type File struct {
	Defaults    Defaults              `yaml:"defaults"`
	Transitions map[string]Transition `yaml:"transitions"`
}

// Defaults apply to every transition that does not override them.
type Defaults struct {
	// Name is the fallback class prefix. When empty, the prefix is
	// derived from the enclosing module path.
	Name string `yaml:"name,omitempty"`
}

// Transition is one named preset.
type Transition struct {
	Name     string    `yaml:"name,omitempty"`
	Type     string    `yaml:"type,omitempty"`
	Duration *Duration `yaml:"duration,omitempty"`
	Appear   bool      `yaml:"appear,omitempty"`
	// CSS defaults to true; `css: false` turns off class-driven timing.
	CSS *bool `yaml:"css,omitempty"`

	EnterFrom   string `yaml:"enter-from,omitempty"`
	EnterActive string `yaml:"enter-active,omitempty"`
	EnterTo     string `yaml:"enter-to,omitempty"`

	AppearFrom   string `yaml:"appear-from,omitempty"`
	AppearActive string `yaml:"appear-active,omitempty"`
	AppearTo     string `yaml:"appear-to,omitempty"`

	LeaveFrom   string `yaml:"leave-from,omitempty"`
	LeaveActive string `yaml:"leave-active,omitempty"`
	LeaveTo     string `yaml:"leave-to,omitempty"`
}

// Duration is a preset duration in milliseconds: either a single number
// applied to both phases or a {enter, leave} pair. A pair with one side
// missing inherits the other side.
//
// Values that cannot be parsed do not fail the YAML load. The raw text is
// kept so Resolve can report it as a finding.
type Duration struct {
	Enter *float64
	Leave *float64

	// Raw holds the original YAML text when parsing failed.
	Raw string
}

// UnmarshalYAML accepts a bare number or an {enter, leave} mapping.
func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	var ms float64
	if err := value.Decode(&ms); err == nil {
		e, l := ms, ms
		d.Enter, d.Leave = &e, &l
		return nil
	}

	var pair struct {
		Enter *float64 `yaml:"enter"`
		Leave *float64 `yaml:"leave"`
	}
	if err := value.Decode(&pair); err == nil && (pair.Enter != nil || pair.Leave != nil) {
		d.Enter, d.Leave = pair.Enter, pair.Leave
		return nil
	}

	d.Raw = renderNode(value)
	return nil
}

// renderNode turns a YAML node back into compact text for diagnostics.
func renderNode(value *yaml.Node) string {
	if value.Kind == yaml.ScalarNode {
		return value.Value
	}
	out, err := yaml.Marshal(value)
	if err != nil {
		return value.Tag
	}
	return strings.TrimSpace(string(out))
}

// Finding is a non-fatal problem in one preset. Lint prints findings and
// exits non-zero; resolution still produces a usable Spec with the broken
// field dropped.
type Finding struct {
	Preset  string
	Field   string
	Message string
}

func (f Finding) String() string {
	return fmt.Sprintf("%s: %s: %s", f.Preset, f.Field, f.Message)
}

// Preset is a resolved transition ready to hand to segue.NewCoordinator.
type Preset struct {
	// Key is the preset's name in segue.yaml.
	Key  string
	Spec segue.Spec
}

// Load reads segue.yaml from dir. A missing or malformed file is a hard
// error; problems inside individual presets are not detected here (see
// Resolve).
func Load(dir string) (*File, error) {
	path := filepath.Join(dir, "segue.yaml")
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("no segue.yaml in %s", dir)
		}
		return nil, fmt.Errorf("failed to read segue.yaml: %w", err)
	}

	var f File
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("failed to parse segue.yaml: %w", err)
	}
	return &f, nil
}

// Resolve turns every transition in f into a Preset, sorted by key. The
// defaultName is used when neither the preset nor defaults.name set a class
// prefix; derive it with DefaultName.
func Resolve(f *File, defaultName string) ([]Preset, []Finding) {
	var presets []Preset
	var findings []Finding

	keys := make([]string, 0, len(f.Transitions))
	for key := range f.Transitions {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	for _, key := range keys {
		t := f.Transitions[key]
		spec, fs := resolveOne(key, t, pickName(t.Name, f.Defaults.Name, defaultName, key))
		presets = append(presets, Preset{Key: key, Spec: spec})
		findings = append(findings, fs...)
	}
	return presets, findings
}

func pickName(own, fileDefault, derived, key string) string {
	for _, candidate := range []string{own, fileDefault, derived} {
		if strings.TrimSpace(candidate) != "" {
			return candidate
		}
	}
	return key
}

func resolveOne(key string, t Transition, name string) (segue.Spec, []Finding) {
	var findings []Finding

	spec := segue.Spec{
		Name:   name,
		Appear: t.Appear,
	}
	if t.CSS != nil && !*t.CSS {
		spec.DisableCSS = true
	}

	switch strings.ToLower(strings.TrimSpace(t.Type)) {
	case "", "auto":
		spec.Type = segue.EffectAuto
	case "transition":
		spec.Type = segue.EffectTransition
	case "animation":
		spec.Type = segue.EffectAnimation
	default:
		findings = append(findings, Finding{
			Preset:  key,
			Field:   "type",
			Message: fmt.Sprintf("unknown effect type %q (want transition, animation or auto)", t.Type),
		})
	}

	if t.Duration != nil {
		d, fs := resolveDuration(key, t.Duration)
		spec.Duration = d
		findings = append(findings, fs...)
	}

	classes := []struct {
		field string
		value string
		dst   *string
	}{
		{"enter-from", t.EnterFrom, &spec.EnterFromClass},
		{"enter-active", t.EnterActive, &spec.EnterActiveClass},
		{"enter-to", t.EnterTo, &spec.EnterToClass},
		{"appear-from", t.AppearFrom, &spec.AppearFromClass},
		{"appear-active", t.AppearActive, &spec.AppearActiveClass},
		{"appear-to", t.AppearTo, &spec.AppearToClass},
		{"leave-from", t.LeaveFrom, &spec.LeaveFromClass},
		{"leave-active", t.LeaveActive, &spec.LeaveActiveClass},
		{"leave-to", t.LeaveTo, &spec.LeaveToClass},
	}
	for _, c := range classes {
		if c.value == "" {
			continue
		}
		if finding, ok := checkClass(key, c.field, c.value); !ok {
			findings = append(findings, finding)
			continue
		}
		*c.dst = c.value
	}

	return spec, findings
}

// resolveDuration validates one preset duration. Invalid sides are dropped
// so the phase falls back to probed timing, matching how the coordinator
// treats bad explicit durations.
func resolveDuration(key string, d *Duration) (*segue.Duration, []Finding) {
	if d.Raw != "" {
		return nil, []Finding{{
			Preset:  key,
			Field:   "duration",
			Message: fmt.Sprintf("cannot parse %q (want a number or {enter, leave})", d.Raw),
		}}
	}

	var findings []Finding
	check := func(side string, v *float64) *float64 {
		if v == nil {
			return nil
		}
		switch {
		case math.IsNaN(*v):
			findings = append(findings, Finding{key, "duration", side + " is NaN"})
		case math.IsInf(*v, 0):
			findings = append(findings, Finding{key, "duration", side + " is infinite"})
		case *v < 0:
			findings = append(findings, Finding{key, "duration", fmt.Sprintf("%s is negative: %v", side, *v)})
		default:
			return v
		}
		return nil
	}

	enter := check("enter", d.Enter)
	leave := check("leave", d.Leave)
	if enter == nil {
		enter = leave
	}
	if leave == nil {
		leave = enter
	}
	if enter == nil || leave == nil {
		return nil, findings
	}
	return segue.PerPhase(*enter, *leave), findings
}

func checkClass(key, field, value string) (Finding, bool) {
	if strings.TrimSpace(value) == "" {
		return Finding{key, field, "class override is blank"}, false
	}
	if strings.ContainsAny(value, " \t") {
		return Finding{key, field, fmt.Sprintf("class %q contains whitespace", value)}, false
	}
	return Finding{}, true
}

// FindProjectRoot walks up from the current directory to the nearest go.mod.
func FindProjectRoot() (string, error) {
	dir, err := os.Getwd()
	if err != nil {
		return "", err
	}

	for {
		if _, err := os.Stat(filepath.Join(dir, "go.mod")); err == nil {
			return dir, nil
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			return "", fmt.Errorf("not in a Go module (no go.mod found)")
		}
		dir = parent
	}
}

// ModulePath reads the module path from dir's go.mod.
func ModulePath(dir string) (string, error) {
	data, err := os.ReadFile(filepath.Join(dir, "go.mod"))
	if err != nil {
		return "", fmt.Errorf("failed to read go.mod: %w", err)
	}
	path := modfile.ModulePath(data)
	if path == "" {
		return "", fmt.Errorf("could not determine module path from go.mod")
	}
	return path, nil
}

// DefaultName derives a class prefix from dir's module path tail, so a
// project at example.com/apps/checkout gets checkout-enter-from and
// friends. Falls back to the directory name, then to "v".
func DefaultName(dir string) string {
	base := filepath.Base(dir)
	if path, err := ModulePath(dir); err == nil {
		if name, _, ok := module.SplitPathVersion(path); ok {
			parts := strings.Split(name, "/")
			if len(parts) > 0 && parts[len(parts)-1] != "" {
				base = parts[len(parts)-1]
			}
		}
	}
	if base == "" || base == "." || base == string(filepath.Separator) {
		return "v"
	}
	return base
}
