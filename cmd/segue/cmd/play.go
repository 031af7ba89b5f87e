package cmd

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/go-drift/segue/cmd/segue/internal/config"
	"github.com/go-drift/segue/pkg/dom"
	"github.com/go-drift/segue/pkg/engine"
	"github.com/go-drift/segue/pkg/segue"
	"github.com/go-drift/segue/pkg/surface"
)

func init() {
	RegisterCommand(&Command{
		Name:  "play",
		Short: "Replay a preset against a headless element",
		Long: `Replay one phase of a preset against a headless element on the real
scheduler, logging every class mutation and lifecycle hook with timestamps.

No style engine is attached, so end events never arrive; a probed phase
completes through the watcher's fallback timer exactly as it would when
events get lost. Pass --style pairs to give the probe computed styles, or
--duration to override the preset with an explicit duration.

Examples:
  segue play fade
  segue play fade --leave --duration 150
  segue play panel --style transition-duration=0.3s,0.5s`,
		Usage: "segue play <preset> [--enter|--leave|--appear] [--style prop=value]... [--duration ms] [--dir root] [--grace ms]",
		Run:   runPlay,
	})
}

type playOptions struct {
	preset   string
	phase    string
	dir      string
	styles   map[string]string
	duration *float64
	grace    time.Duration
}

func parsePlayArgs(args []string) (playOptions, error) {
	opts := playOptions{phase: "enter", styles: map[string]string{}, grace: 10 * time.Second}
	for i := 0; i < len(args); i++ {
		switch args[i] {
		case "--enter":
			opts.phase = "enter"
		case "--leave":
			opts.phase = "leave"
		case "--appear":
			opts.phase = "appear"
		case "--style":
			if i+1 < len(args) {
				prop, value, ok := strings.Cut(args[i+1], "=")
				if !ok {
					return opts, fmt.Errorf("--style wants prop=value, got %q", args[i+1])
				}
				opts.styles[prop] = value
				i++
			}
		case "--duration":
			if i+1 < len(args) {
				ms, err := strconv.ParseFloat(args[i+1], 64)
				if err != nil {
					return opts, fmt.Errorf("--duration wants milliseconds, got %q", args[i+1])
				}
				opts.duration = &ms
				i++
			}
		case "--dir":
			if i+1 < len(args) {
				opts.dir = args[i+1]
				i++
			}
		case "--grace":
			if i+1 < len(args) {
				ms, err := strconv.ParseFloat(args[i+1], 64)
				if err != nil {
					return opts, fmt.Errorf("--grace wants milliseconds, got %q", args[i+1])
				}
				opts.grace = time.Duration(ms * float64(time.Millisecond))
				i++
			}
		default:
			if strings.HasPrefix(args[i], "--") {
				return opts, fmt.Errorf("unknown flag %q", args[i])
			}
			if opts.preset != "" {
				return opts, fmt.Errorf("only one preset can play at a time")
			}
			opts.preset = args[i]
		}
	}
	if opts.preset == "" {
		return opts, fmt.Errorf("preset name is required\n\nUsage: segue play <preset> [flags]")
	}
	return opts, nil
}

func runPlay(args []string) error {
	opts, err := parsePlayArgs(args)
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

	selected, err := selectPresets(presets, []string{opts.preset})
	if err != nil {
		return err
	}
	spec := selected[0].Spec
	if opts.duration != nil {
		spec.Duration = segue.Millis(*opts.duration)
	}
	if opts.phase == "appear" && !spec.Appear {
		fmt.Println("note: preset has appear disabled; the phase resolves immediately")
	}

	node := dom.NewNode("div")
	for prop, value := range opts.styles {
		node.SetStyle(prop, value)
	}

	start := time.Now()
	logf := func(format string, args ...any) {
		elapsed := float64(time.Since(start).Microseconds()) / 1000
		fmt.Printf("[%8.1fms] %s\n", elapsed, fmt.Sprintf(format, args...))
	}
	el := &loggedNode{Node: node, logf: logf}

	loop := engine.NewLoop(0)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go loop.Run(ctx)

	coord := segue.NewCoordinator(spec, segue.Options{
		Scheduler: loop,
		Hooks:     loggingHooks(logf),
	})

	done := make(chan struct{})
	resolve := func() {
		logf("phase resolved")
		close(done)
	}

	logf("playing %s %s (prefix %s)", opts.preset, opts.phase, specName(spec))
	loop.Dispatch(func() {
		switch opts.phase {
		case "enter":
			coord.BeforeEnter(el)
			coord.Enter(el, resolve)
		case "appear":
			coord.BeforeAppear(el)
			coord.Appear(el, resolve)
		case "leave":
			coord.Leave(el, resolve)
		}
	})

	select {
	case <-done:
	case <-time.After(opts.grace):
		return fmt.Errorf("phase did not resolve within %v", opts.grace)
	}

	classes := make(chan []string, 1)
	loop.Dispatch(func() { classes <- node.Classes() })
	select {
	case got := <-classes:
		if len(got) == 0 {
			logf("element clean, no classes left behind")
		} else {
			logf("classes left behind: %s", strings.Join(got, " "))
		}
	case <-time.After(time.Second):
		return fmt.Errorf("loop did not answer while reading classes")
	}

	fmt.Printf("done in %v\n", time.Since(start).Round(time.Millisecond))
	return nil
}

// loggedNode wraps a dom.Node so every class mutation is logged as the
// coordinator performs it.
type loggedNode struct {
	*dom.Node
	logf func(format string, args ...any)
}

func (n *loggedNode) AddClass(name string) {
	n.logf("class +%s", name)
	n.Node.AddClass(name)
}

func (n *loggedNode) RemoveClass(name string) {
	if n.HasClass(name) {
		n.logf("class -%s", name)
	}
	n.Node.RemoveClass(name)
}

var _ surface.Element = (*loggedNode)(nil)

func loggingHooks(logf func(format string, args ...any)) segue.Hooks {
	return segue.Hooks{
		BeforeEnter:     func(el surface.Element) { logf("hook before-enter") },
		Enter:           func(el surface.Element, resolve func()) { logf("hook enter") },
		EnterCancelled:  func(el surface.Element) { logf("hook enter-cancelled") },
		BeforeAppear:    func(el surface.Element) { logf("hook before-appear") },
		Appear:          func(el surface.Element, resolve func()) { logf("hook appear") },
		AppearCancelled: func(el surface.Element) { logf("hook appear-cancelled") },
		Leave:           func(el surface.Element, resolve func()) { logf("hook leave") },
		LeaveCancelled:  func(el surface.Element) { logf("hook leave-cancelled") },
	}
}
