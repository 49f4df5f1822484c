package dom

// Signal subscription surface consumed by the refresh scheduler. Every
// subscribe returns a cancel func; capability-gated channels additionally
// report availability so callers can probe at subscribe time and fall back.

// OnResize subscribes fn to viewport resize. Always available.
func (h *Host) OnResize(fn func()) (cancel func()) {
	h.mu.Lock()
	id := h.nextSubID
	h.nextSubID++
	h.resizeSubs = append(h.resizeSubs, resizeSub{id: id, fn: fn})
	h.mu.Unlock()
	return func() {
		h.mu.Lock()
		defer h.mu.Unlock()
		for i, s := range h.resizeSubs {
			if s.id == id {
				h.resizeSubs = append(h.resizeSubs[:i], h.resizeSubs[i+1:]...)
				return
			}
		}
	}
}

// OnTransitionEnd subscribes fn to transition-completion events. The
// handler receives the name of the CSS property that finished
// transitioning. Always available.
func (h *Host) OnTransitionEnd(fn func(property string)) (cancel func()) {
	h.mu.Lock()
	id := h.nextSubID
	h.nextSubID++
	h.transitionSubs = append(h.transitionSubs, transitionSub{id: id, fn: fn})
	h.mu.Unlock()
	return func() {
		h.mu.Lock()
		defer h.mu.Unlock()
		for i, s := range h.transitionSubs {
			if s.id == id {
				h.transitionSubs = append(h.transitionSubs[:i], h.transitionSubs[i+1:]...)
				return
			}
		}
	}
}

// OnSubtreeModified subscribes fn to the coarse "any subtree modified"
// channel: it fires for every mutation anywhere in the host, shadow trees
// included. This is the degraded fallback for hosts without structural
// mutation observation. Always available.
func (h *Host) OnSubtreeModified(fn func()) (cancel func()) {
	h.mu.Lock()
	id := h.nextSubID
	h.nextSubID++
	h.subtreeModSubs = append(h.subtreeModSubs, resizeSub{id: id, fn: fn})
	h.mu.Unlock()
	return func() {
		h.mu.Lock()
		defer h.mu.Unlock()
		for i, s := range h.subtreeModSubs {
			if s.id == id {
				h.subtreeModSubs = append(h.subtreeModSubs[:i], h.subtreeModSubs[i+1:]...)
				return
			}
		}
	}
}

// SupportsMutationObserver reports whether ObserveMutations is available.
func (h *Host) SupportsMutationObserver() bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.supportsMutation
}

// ObserveMutations subscribes fn to structural mutations under root,
// filtered by opts. ok is false (and cancel nil) when the host has no
// mutation observation capability.
func (h *Host) ObserveMutations(root *Element, opts MutationOptions, fn func()) (cancel func(), ok bool) {
	h.mu.Lock()
	if !h.supportsMutation {
		h.mu.Unlock()
		return nil, false
	}
	id := h.nextSubID
	h.nextSubID++
	h.mutationSubs = append(h.mutationSubs, mutationSub{id: id, root: root, opts: opts, fn: fn})
	h.mu.Unlock()
	return func() {
		h.mu.Lock()
		defer h.mu.Unlock()
		for i, s := range h.mutationSubs {
			if s.id == id {
				h.mutationSubs = append(h.mutationSubs[:i], h.mutationSubs[i+1:]...)
				return
			}
		}
	}, true
}

// SupportsShadowHook reports whether HookShadowAttach is available.
func (h *Host) SupportsShadowHook() bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.supportsShadow
}

// HookShadowAttach installs fn as the attach-shadow extension point: it
// runs for every sub-tree root attached after installation, nested roots
// included. restore puts back whatever hook was installed before (usually
// none), returning the host to its default behavior. ok is false when the
// host does not expose the attachment API for interception.
func (h *Host) HookShadowAttach(fn func(root *Element)) (restore func(), ok bool) {
	h.mu.Lock()
	if !h.supportsShadow {
		h.mu.Unlock()
		return nil, false
	}
	prev := h.shadowHook
	h.shadowHook = fn
	h.mu.Unlock()
	return func() {
		h.mu.Lock()
		defer h.mu.Unlock()
		h.shadowHook = prev
	}, true
}

// pendingSignals carries handler funcs collected under the host lock, to
// be invoked after the lock is released.
type pendingSignals struct {
	fns []func()
}

func (p pendingSignals) fire() {
	for _, fn := range p.fns {
		fn()
	}
}

// mutationLocked collects the handlers to notify for a mutation of kind at
// element e. Must be called with h.mu held (write).
func (h *Host) mutationLocked(e *Element, kind MutationKind) pendingSignals {
	var p pendingSignals
	for _, s := range h.mutationSubs {
		if !s.opts.wants(kind) {
			continue
		}
		if !inScopeLocked(s.root, e, s.opts.Subtree) {
			continue
		}
		p.fns = append(p.fns, s.fn)
	}
	// The coarse channel sees everything, shadow trees included.
	for _, s := range h.subtreeModSubs {
		p.fns = append(p.fns, s.fn)
	}
	return p
}

func (o MutationOptions) wants(kind MutationKind) bool {
	switch kind {
	case MutationAttributes:
		return o.Attributes
	case MutationChildList:
		return o.ChildList
	case MutationCharacterData:
		return o.CharacterData
	}
	return false
}

// inScopeLocked reports whether a mutation at e is visible to an observer
// rooted at root. Walks parents only; shadow boundaries are never crossed,
// so a mutation inside a shadow tree is invisible to document observers.
func inScopeLocked(root, e *Element, subtree bool) bool {
	if root == e {
		return true
	}
	if !subtree {
		return false
	}
	for cur := e.parent; cur != nil; cur = cur.parent {
		if cur == root {
			return true
		}
	}
	return false
}
