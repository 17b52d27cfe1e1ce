package domain

import "slices"

// Actor is the authenticated identity making a request: an opaque identifier
// plus the capabilities granted to it. The capability set is unexported so an
// Actor cannot be mutated once it has been resolved.
type Actor struct {
	ID           ActorID
	capabilities map[string]struct{}
}

// NewActor builds an Actor from the resolved subject and its capabilities.
// Blank and duplicate capabilities are ignored.
func NewActor(id ActorID, capabilities ...string) Actor {
	set := make(map[string]struct{}, len(capabilities))
	for _, c := range capabilities {
		if c == "" {
			continue
		}
		set[c] = struct{}{}
	}
	return Actor{ID: id, capabilities: set}
}

// HasCapability reports whether the actor was granted capability c.
func (a Actor) HasCapability(c string) bool {
	_, ok := a.capabilities[c]
	return ok
}

// Capabilities returns a sorted copy of the capability set.
func (a Actor) Capabilities() []string {
	out := make([]string, 0, len(a.capabilities))
	for c := range a.capabilities {
		out = append(out, c)
	}
	slices.Sort(out)
	return out
}

func (a Actor) IsZero() bool { return a.ID.IsNil() }
