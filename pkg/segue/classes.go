package segue

import (
	"sort"

	"github.com/go-drift/segue/pkg/surface"
)

// Tracker records which class names the transition engine currently has
// applied on each element, so that removing a phase's classes never clobbers
// classes applied by anyone else.
//
// The ownership record is an explicit side table keyed by element identity.
// It is never reconstructed from the element's class list: a class is owned
// iff the tracker added it and has not yet removed it, regardless of outside
// mutation.
//
// The tracker assumes exclusive ownership of the class names it adds for the
// lifetime of a phase. Multiple independent writers of the same class name on
// the same element are not supported.
type Tracker struct {
	owned map[surface.Element]map[string]struct{}
}

// NewTracker returns an empty tracker.
func NewTracker() *Tracker {
	return &Tracker{owned: make(map[surface.Element]map[string]struct{})}
}

// Add applies name to el's class list and records ownership. Adding a name
// that is already owned is a no-op.
func (t *Tracker) Add(el surface.Element, name string) {
	el.AddClass(name)
	set := t.owned[el]
	if set == nil {
		set = make(map[string]struct{})
		t.owned[el] = set
	}
	set[name] = struct{}{}
}

// Remove removes name from el's class list and releases ownership. The class
// list removal happens regardless of ownership; removing a name that is not
// owned only affects the element. When the last owned name on el is removed,
// el's entry is discarded entirely.
func (t *Tracker) Remove(el surface.Element, name string) {
	el.RemoveClass(name)
	set, ok := t.owned[el]
	if !ok {
		return
	}
	delete(set, name)
	if len(set) == 0 {
		delete(t.owned, el)
	}
}

// Owned returns the class names currently owned on el, sorted. It returns
// nil when nothing is owned.
func (t *Tracker) Owned(el surface.Element) []string {
	set := t.owned[el]
	if len(set) == 0 {
		return nil
	}
	names := make([]string, 0, len(set))
	for name := range set {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
