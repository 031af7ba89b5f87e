// Package dom provides a headless element tree implementing
// [surface.Element].
//
// Nodes carry an ordered class list, an inline style map and event
// listeners, plus just enough tree structure for completion events to
// bubble. They render nothing; tests, the CLI and embedders without a
// native surface use them to observe what the transition engine does.
//
// Nodes are not safe for concurrent use. Like the rest of the engine they
// belong to a single frame thread.
package dom

import (
	"fmt"
	"sort"
	"strings"

	"github.com/go-drift/segue/pkg/surface"
)

// Node is an in-memory element.
type Node struct {
	// Tag is the element name used by String, e.g. "div".
	Tag string

	classes  []string
	styles   map[string]string
	parent   *Node
	children []*Node

	listeners  map[string][]listener
	nextListID int
}

type listener struct {
	id int
	fn func(surface.Event)
}

var _ surface.Element = (*Node)(nil)

// NewNode returns an element with the given tag and no classes, styles,
// listeners or children.
func NewNode(tag string) *Node {
	return &Node{
		Tag:       tag,
		styles:    make(map[string]string),
		listeners: make(map[string][]listener),
	}
}

// AddClass appends name to the class list unless already present.
func (n *Node) AddClass(name string) {
	if n.HasClass(name) {
		return
	}
	n.classes = append(n.classes, name)
}

// RemoveClass removes name from the class list. Removing an absent name is
// a no-op.
func (n *Node) RemoveClass(name string) {
	for i, c := range n.classes {
		if c == name {
			n.classes = append(n.classes[:i], n.classes[i+1:]...)
			return
		}
	}
}

// HasClass reports whether name is in the class list.
func (n *Node) HasClass(name string) bool {
	for _, c := range n.classes {
		if c == name {
			return true
		}
	}
	return false
}

// Classes returns the class list in application order. The returned slice
// is a copy.
func (n *Node) Classes() []string {
	out := make([]string, len(n.classes))
	copy(out, n.classes)
	return out
}

// SetStyle sets an inline style property, e.g.
// SetStyle(surface.TransitionDuration, "0.3s").
func (n *Node) SetStyle(property, value string) {
	n.styles[property] = value
}

// RemoveStyle removes an inline style property.
func (n *Node) RemoveStyle(property string) {
	delete(n.styles, property)
}

// ComputedStyle returns the inline value of property, or "" when unset.
// Headless nodes compute nothing beyond their inline styles, which is
// exactly the degraded-backend case the probe treats as no effect.
func (n *Node) ComputedStyle(property string) string {
	return n.styles[property]
}

// On subscribes handler to events of the given type dispatched to this node
// or bubbling through it. The returned function detaches the subscription;
// calling it more than once is a no-op.
func (n *Node) On(event string, handler func(surface.Event)) (off func()) {
	n.nextListID++
	id := n.nextListID
	n.listeners[event] = append(n.listeners[event], listener{id: id, fn: handler})
	return func() {
		list := n.listeners[event]
		for i, l := range list {
			if l.id == id {
				n.listeners[event] = append(list[:i], list[i+1:]...)
				return
			}
		}
	}
}

// DispatchEvent delivers ev to this node's listeners and then bubbles it
// through each ancestor's listeners, preserving ev.Target throughout. A nil
// Target is filled in with this node first.
func (n *Node) DispatchEvent(ev surface.Event) {
	if ev.Target == nil {
		ev.Target = n
	}
	for node := n; node != nil; node = node.parent {
		// Snapshot, since handlers detach themselves mid-dispatch.
		list := make([]listener, len(node.listeners[ev.Type]))
		copy(list, node.listeners[ev.Type])
		for _, l := range list {
			l.fn(ev)
		}
	}
}

// AppendChild adds child to this node, detaching it from any previous
// parent.
func (n *Node) AppendChild(child *Node) {
	if child.parent != nil {
		child.parent.RemoveChild(child)
	}
	child.parent = n
	n.children = append(n.children, child)
}

// RemoveChild detaches child from this node. Removing a non-child is a
// no-op.
func (n *Node) RemoveChild(child *Node) {
	for i, c := range n.children {
		if c == child {
			n.children = append(n.children[:i], n.children[i+1:]...)
			child.parent = nil
			return
		}
	}
}

// Parent returns the node's parent, or nil at the root.
func (n *Node) Parent() *Node {
	return n.parent
}

// Children returns the node's children in insertion order. The returned
// slice is a copy.
func (n *Node) Children() []*Node {
	out := make([]*Node, len(n.children))
	copy(out, n.children)
	return out
}

// Styles returns the inline style properties in sorted order, as
// "property: value" strings.
func (n *Node) Styles() []string {
	out := make([]string, 0, len(n.styles))
	for p, v := range n.styles {
		out = append(out, p+": "+v)
	}
	sort.Strings(out)
	return out
}

// String renders the node as an opening tag with its current classes.
func (n *Node) String() string {
	if len(n.classes) == 0 {
		return fmt.Sprintf("<%s>", n.Tag)
	}
	return fmt.Sprintf("<%s class=%q>", n.Tag, strings.Join(n.classes, " "))
}
