package cmd

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-drift/segue/cmd/segue/internal/config"
	"github.com/go-drift/segue/cmd/segue/internal/timeline"
	"github.com/go-drift/segue/pkg/dom"
	"github.com/go-drift/segue/pkg/engine"
	"github.com/go-drift/segue/pkg/segue"
)

func init() {
	RegisterCommand(&Command{
		Name:  "timeline",
		Short: "Render preset timing diagrams as PNG",
		Long: `Render a timing diagram for each preset in segue.yaml.

Every diagram shows one bar per phase: the two-frame deferral before the
to-class lands, the active span, and the fallback margin the watcher arms
past the expected end.

Explicit durations are drawn directly. For style-probed presets pass
--style pairs so the probe has computed styles to read; without styles the
bar is annotated "probed at runtime".

Examples:
  segue timeline                             All presets, diagrams in .
  segue timeline fade --out build/
  segue timeline panel --style transition-duration=0.3s`,
		Usage: "segue timeline [preset...] [--out dir] [--dir root] [--style prop=value]...",
		Run:   runTimeline,
	})
}

type timelineOptions struct {
	out     string
	dir     string
	styles  map[string]string
	presets []string
}

func parseTimelineArgs(args []string) (timelineOptions, error) {
	opts := timelineOptions{out: ".", styles: map[string]string{}}
	for i := 0; i < len(args); i++ {
		switch args[i] {
		case "--out":
			if i+1 < len(args) {
				opts.out = args[i+1]
				i++
			}
		case "--dir":
			if i+1 < len(args) {
				opts.dir = args[i+1]
				i++
			}
		case "--style":
			if i+1 < len(args) {
				prop, value, ok := strings.Cut(args[i+1], "=")
				if !ok {
					return opts, fmt.Errorf("--style wants prop=value, got %q", args[i+1])
				}
				opts.styles[prop] = value
				i++
			}
		default:
			if strings.HasPrefix(args[i], "--") {
				return opts, fmt.Errorf("unknown flag %q", args[i])
			}
			opts.presets = append(opts.presets, args[i])
		}
	}
	return opts, nil
}

func runTimeline(args []string) error {
	opts, err := parseTimelineArgs(args)
	if err != nil {
		return err
	}

	dir := opts.dir
	if dir == "" {
		if dir, err = presetDir(nil); err != nil {
			return err
		}
	}

	f, err := config.Load(dir)
	if err != nil {
		return err
	}
	presets, findings := config.Resolve(f, config.DefaultName(dir))
	for _, finding := range findings {
		fmt.Printf("warning: %s\n", finding)
	}

	selected, err := selectPresets(presets, opts.presets)
	if err != nil {
		return err
	}

	for _, p := range selected {
		d := diagramForPreset(p, opts.styles)
		path := filepath.Join(opts.out, p.Key+".png")
		if err := timeline.WritePNG(path, d); err != nil {
			return err
		}
		fmt.Printf("wrote %s\n", path)
	}
	return nil
}

func selectPresets(all []config.Preset, keys []string) ([]config.Preset, error) {
	if len(keys) == 0 {
		return all, nil
	}
	byKey := make(map[string]config.Preset, len(all))
	for _, p := range all {
		byKey[p.Key] = p
	}
	var selected []config.Preset
	for _, key := range keys {
		p, ok := byKey[key]
		if !ok {
			return nil, fmt.Errorf("no preset named %q in segue.yaml", key)
		}
		selected = append(selected, p)
	}
	return selected, nil
}

// frameLead is the deferral every phase pays before its to-class lands:
// two frame boundaries at the loop's nominal pacing.
const frameLead = 2 * engine.DefaultFrameInterval

func diagramForPreset(p config.Preset, styles map[string]string) timeline.Diagram {
	d := timeline.Diagram{Title: fmt.Sprintf("%s (%s)", p.Key, specName(p.Spec))}

	d.Phases = append(d.Phases, phaseBar(p.Spec, "enter", styles))
	if p.Spec.Appear {
		d.Phases = append(d.Phases, phaseBar(p.Spec, "appear", styles))
	}
	d.Phases = append(d.Phases, phaseBar(p.Spec, "leave", styles))
	return d
}

func phaseBar(spec segue.Spec, phase string, styles map[string]string) timeline.Phase {
	bar := timeline.Phase{Label: phase, Lead: frameLead}

	if spec.DisableCSS {
		bar.Note = "hook-driven"
		return bar
	}

	if spec.Duration != nil {
		ms := spec.Duration.Enter
		if phase == "leave" {
			ms = spec.Duration.Leave
		}
		bar.Active = time.Duration(ms * float64(time.Millisecond))
		bar.Note = "explicit"
		return bar
	}

	if len(styles) > 0 {
		el := dom.NewNode("div")
		for prop, value := range styles {
			el.SetStyle(prop, value)
		}
		info := segue.Probe(el, spec.Type)
		if info.Mode == segue.EffectNone {
			bar.Note = "no effect"
			return bar
		}
		bar.Active = info.Timeout
		bar.Fallback = time.Millisecond
		bar.Note = fmt.Sprintf("probed %s", info.Mode)
		return bar
	}

	bar.Note = "probed at runtime"
	return bar
}

// specName exposes the class prefix a spec will resolve to.
func specName(s segue.Spec) string {
	if s.Name != "" {
		return s.Name
	}
	return "v"
}
