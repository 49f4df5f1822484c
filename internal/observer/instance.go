package observer

import (
	"sync"

	"sizewatch/pkg/dom"
	"sizewatch/pkg/types"
)

// Controller is the scheduler surface an Instance signals into: membership
// in the shared refresh loop plus the throttled refresh request.
type Controller interface {
	AddObserver(*Instance)
	RemoveObserver(*Instance)
	RequestRefresh()
}

// Entry is one immutable (target, contentRect) pair of a notification
// batch.
type Entry struct {
	Target      *dom.Element
	ContentRect types.Rect
}

// Callback receives a notification batch. handle is the consumer-facing
// observer value the batch belongs to, passed through verbatim.
type Callback func(entries []Entry, handle any)

// Instance is one consumer's observation bookkeeping: an insertion-ordered
// registry of targets and the transient set of observations found active
// in the current gather cycle. An Instance registers itself with its
// Controller while it has targets and drops out when it empties.
type Instance struct {
	ctrl     Controller
	callback Callback
	handle   any

	mu       sync.Mutex
	registry *registry
	active   []*Observation
}

// NewInstance builds an Instance bound to ctrl. The callback must be
// non-nil; a nil callback is a construction error, surfaced before any
// target can be registered.
func NewInstance(ctrl Controller, callback Callback, handle any) (*Instance, error) {
	if callback == nil {
		return nil, ErrConstruction("observer callback must be a function")
	}
	return &Instance{
		ctrl:     ctrl,
		callback: callback,
		handle:   handle,
		registry: newRegistry(),
	}, nil
}

// Register starts observing target. Duplicate registration is a no-op.
// Targets must be elements owned by a host document; anything else fails
// with an invalid-target error. A successful first-time registration adds
// the instance to the controller and requests an immediate refresh pass.
func (in *Instance) Register(target *dom.Element) error {
	if err := checkTarget(target); err != nil {
		return err
	}
	in.mu.Lock()
	if in.registry.Has(target) {
		in.mu.Unlock()
		return nil
	}
	in.registry.Add(newObservation(target))
	in.mu.Unlock()

	in.ctrl.AddObserver(in)
	in.ctrl.RequestRefresh()
	return nil
}

// Deregister stops observing target. Unknown targets are a no-op. When the
// registry empties the instance drops out of the controller, which tears
// down shared signal subscriptions if it was the last one.
func (in *Instance) Deregister(target *dom.Element) error {
	if err := checkTarget(target); err != nil {
		return err
	}
	in.mu.Lock()
	if !in.registry.Has(target) {
		in.mu.Unlock()
		return nil
	}
	in.registry.Delete(target)
	empty := in.registry.Len() == 0
	in.mu.Unlock()

	if empty {
		in.ctrl.RemoveObserver(in)
	}
	return nil
}

// DisconnectAll clears the active set, empties the registry and drops the
// instance from the controller.
func (in *Instance) DisconnectAll() {
	in.mu.Lock()
	in.active = nil
	in.registry.Clear()
	in.mu.Unlock()

	in.ctrl.RemoveObserver(in)
}

// GatherActive re-measures every registered target and rebuilds the active
// set with the observations whose dimensions changed since their last
// broadcast, in registration order.
func (in *Instance) GatherActive() {
	in.mu.Lock()
	defer in.mu.Unlock()
	in.active = in.active[:0]
	in.registry.Each(func(o *Observation) {
		if o.Measure() {
			in.active = append(in.active, o)
		}
	})
}

// HasActive reports whether the last gather found any changed observation.
func (in *Instance) HasActive() bool {
	in.mu.Lock()
	defer in.mu.Unlock()
	return len(in.active) > 0
}

// BroadcastActive commits every active observation, hands the resulting
// entries to the consumer callback in gather order, then clears the active
// set. No-op when nothing is active. The callback runs outside the
// instance lock so it may re-enter Register/Deregister; it is not
// sandboxed, so a panicking consumer aborts the caller's remaining pass.
func (in *Instance) BroadcastActive() {
	in.mu.Lock()
	if len(in.active) == 0 {
		in.mu.Unlock()
		return
	}
	entries := make([]Entry, len(in.active))
	for i, o := range in.active {
		entries[i] = Entry{Target: o.Target(), ContentRect: o.Commit()}
	}
	in.mu.Unlock()

	in.callback(entries, in.handle)

	in.mu.Lock()
	in.active = nil
	in.mu.Unlock()
}

// Size returns the number of registered targets.
func (in *Instance) Size() int {
	in.mu.Lock()
	defer in.mu.Unlock()
	return in.registry.Len()
}

// Targets returns the registered elements in registration order.
func (in *Instance) Targets() []*dom.Element {
	in.mu.Lock()
	defer in.mu.Unlock()
	out := make([]*dom.Element, 0, in.registry.Len())
	in.registry.Each(func(o *Observation) {
		out = append(out, o.Target())
	})
	return out
}

// checkTarget enforces the watched-element capability: a non-nil element
// with an owning host.
func checkTarget(target *dom.Element) error {
	if target == nil {
		return ErrInvalidTarget("target is nil")
	}
	if target.Owner() == nil {
		return ErrInvalidTarget("target has no owning document")
	}
	return nil
}
