// Package main provides the segue demo application.
// It walks one element through appear, leave and enter phases on the real
// scheduler, printing every hook and class mutation as it happens.
package main

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/go-drift/segue/pkg/dom"
	"github.com/go-drift/segue/pkg/engine"
	"github.com/go-drift/segue/pkg/segue"
	"github.com/go-drift/segue/pkg/surface"
)

var start = time.Now()

func logf(format string, args ...any) {
	elapsed := float64(time.Since(start).Microseconds()) / 1000
	fmt.Printf("[%8.1fms] %s\n", elapsed, fmt.Sprintf(format, args...))
}

// tracedNode logs class mutations as the coordinator performs them.
type tracedNode struct {
	*dom.Node
}

func (n *tracedNode) AddClass(name string) {
	logf("  class +%s", name)
	n.Node.AddClass(name)
}

func (n *tracedNode) RemoveClass(name string) {
	if n.HasClass(name) {
		logf("  class -%s", name)
	}
	n.Node.RemoveClass(name)
}

var _ surface.Element = (*tracedNode)(nil)

func main() {
	loop := engine.NewLoop(0)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go loop.Run(ctx)

	// A panel with styled transition timing. No style engine runs here, so
	// end events never arrive and each phase completes through the
	// watcher's fallback timer, just as it would if events got lost.
	node := dom.NewNode("div")
	node.SetStyle("transition-duration", "0.25s, 0.1s")
	node.SetStyle("transition-delay", "0s")
	panel := &tracedNode{Node: node}

	coord := segue.NewCoordinator(segue.Spec{
		Name:   "panel",
		Appear: true,
	}, segue.Options{
		Scheduler: loop,
		Hooks: segue.Hooks{
			BeforeEnter: func(el surface.Element) { logf("  hook before-enter") },
			Enter:       func(el surface.Element, _ func()) { logf("  hook enter") },
			Leave:       func(el surface.Element, _ func()) { logf("  hook leave") },
		},
	})

	finished := make(chan struct{})

	// Each step starts one phase; its completion callback schedules the
	// next step back onto the loop.
	var steps []func()
	step := func(i int) func() {
		return func() {
			if i >= len(steps) {
				close(finished)
				return
			}
			steps[i]()
		}
	}
	next := func(i int) {
		loop.Dispatch(step(i))
	}

	steps = []func(){
		func() {
			logf("appear: first show of the panel")
			coord.BeforeAppear(panel)
			coord.Appear(panel, func() {
				logf("appear done, classes: %s", classList(node))
				next(1)
			})
		},
		func() {
			logf("leave: hiding the panel")
			coord.Leave(panel, func() {
				logf("leave done, classes: %s", classList(node))
				next(2)
			})
		},
		func() {
			logf("enter: showing the panel again")
			coord.BeforeEnter(panel)
			coord.Enter(panel, func() {
				logf("enter done, classes: %s", classList(node))
				next(3)
			})
		},
	}

	loop.Dispatch(step(0))

	select {
	case <-finished:
		logf("showcase finished")
	case <-time.After(10 * time.Second):
		logf("showcase timed out")
	}
}

func classList(node *dom.Node) string {
	classes := node.Classes()
	if len(classes) == 0 {
		return "(none)"
	}
	return strings.Join(classes, " ")
}
