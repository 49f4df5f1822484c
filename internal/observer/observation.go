package observer

import (
	"sizewatch/internal/geometry"
	"sizewatch/pkg/dom"
	"sizewatch/pkg/types"
)

// Observation tracks one watched element for one observer instance. It
// does not own the element's lifecycle: a target torn down externally
// simply measures as a zero rect from then on.
type Observation struct {
	target *dom.Element

	// lastRect is the most recent measurement, updated on every Measure
	// regardless of activity.
	lastRect types.Rect

	// broadcastWidth/broadcastHeight are the dimensions as of the last
	// committed broadcast. They start at zero so a fresh observation of a
	// non-empty element is immediately active.
	broadcastWidth  float64
	broadcastHeight float64
}

func newObservation(target *dom.Element) *Observation {
	return &Observation{target: target}
}

// Target returns the watched element.
func (o *Observation) Target() *dom.Element { return o.target }

// Measure fetches the element's current content rect, stores it, and
// reports whether the observation is active: width or height differs from
// the last broadcast dimensions. The stored rect is updated even when the
// result is false; every registered target is re-measured every cycle.
func (o *Observation) Measure() bool {
	o.lastRect = geometry.Measure(o.target)
	return o.lastRect.Width != o.broadcastWidth ||
		o.lastRect.Height != o.broadcastHeight
}

// Commit marks the last measured rect as broadcast and returns it for
// inclusion in a notification entry. Without a fresh Measure in between,
// a second Commit re-commits the same data; broadcast always reflects
// whatever was measured last.
func (o *Observation) Commit() types.Rect {
	o.broadcastWidth = o.lastRect.Width
	o.broadcastHeight = o.lastRect.Height
	return o.lastRect
}

// LastRect returns the most recent measurement.
func (o *Observation) LastRect() types.Rect { return o.lastRect }
