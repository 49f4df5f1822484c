// Package sizewatch detects changes in the rendered content dimensions of
// watched elements of a hosted document and delivers batched change
// notifications, without any native size-change signal from the host.
// Detection is polling corroborated by resize, mutation, transition-end
// and sub-tree attachment signals, multiplexed through one process-wide
// throttled refresh scheduler shared by every observer.
package sizewatch

import (
	"sizewatch/internal/observer"
	"sizewatch/internal/scheduler"
	"sizewatch/pkg/dom"
	"sizewatch/pkg/types"
)

// Entry is one (target, contentRect) pair of a notification batch. Entries
// are immutable snapshots; the rect does not track the element afterwards.
type Entry struct {
	Target      *dom.Element
	ContentRect types.Rect
}

// Callback receives notification batches. entries holds one entry per
// observation whose dimensions changed this cycle, in registration order;
// obs is the observer the batch belongs to.
type Callback func(entries []Entry, obs *ResizeObserver)

// ResizeObserver is the consumer-facing handle: three methods delegating
// 1:1 to its underlying instance after argument validation.
type ResizeObserver struct {
	inst *observer.Instance
}

// NewObserver creates an observer whose callback runs against the shared
// process-wide scheduler (bound to dom.Default() on first use). The
// callback must be non-nil.
func NewObserver(callback Callback) (*ResizeObserver, error) {
	return newObserver(scheduler.Instance(), callback)
}

// NewObserverWith creates an observer against an explicit scheduler.
// Intended for hosts other than the process default, and for tests.
func NewObserverWith(s *scheduler.Scheduler, callback Callback) (*ResizeObserver, error) {
	return newObserver(s, callback)
}

func newObserver(s *scheduler.Scheduler, callback Callback) (*ResizeObserver, error) {
	ro := &ResizeObserver{}
	if callback == nil {
		// Same construction failure the core raises, surfaced before the
		// instance exists.
		return nil, observer.ErrConstruction("observer callback must be a function")
	}
	inst, err := observer.NewInstance(s, func(entries []observer.Entry, handle any) {
		out := make([]Entry, len(entries))
		for i, e := range entries {
			out[i] = Entry{Target: e.Target, ContentRect: e.ContentRect}
		}
		callback(out, handle.(*ResizeObserver))
	}, ro)
	if err != nil {
		return nil, err
	}
	ro.inst = inst
	return ro, nil
}

// Observe starts watching target. Watching an already-watched target is a
// no-op. Returns a missing-argument error for nil targets and an
// invalid-target error for elements without an owning document.
func (ro *ResizeObserver) Observe(target *dom.Element) error {
	if target == nil {
		return observer.ErrMissingArgument("target")
	}
	return ro.inst.Register(target)
}

// Unobserve stops watching target. Unknown targets are a no-op.
func (ro *ResizeObserver) Unobserve(target *dom.Element) error {
	if target == nil {
		return observer.ErrMissingArgument("target")
	}
	return ro.inst.Deregister(target)
}

// Disconnect stops watching everything and detaches the observer from the
// shared scheduler. The observer may be reused afterwards.
func (ro *ResizeObserver) Disconnect() {
	ro.inst.DisconnectAll()
}

// Targets returns the currently watched elements in registration order.
func (ro *ResizeObserver) Targets() []*dom.Element {
	return ro.inst.Targets()
}

// IsInvalidTarget reports whether err is a target capability failure.
func IsInvalidTarget(err error) bool { return observer.IsInvalidTarget(err) }

// IsMissingArgument reports whether err is an arity validation failure.
func IsMissingArgument(err error) bool { return observer.IsMissingArgument(err) }

// IsConstruction reports whether err was raised at observer construction.
func IsConstruction(err error) bool { return observer.IsConstruction(err) }
