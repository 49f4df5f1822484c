package dom

import "fmt"

// Element is a node of the hosted document tree. Elements are created by a
// Host and keep their owner for life; an element detached from the tree is
// still a valid observation target (it measures as a zero rect).
//
// All mutating methods fire the matching change signals after the host's
// internal lock is released, so signal handlers may safely call back into
// the host.
type Element struct {
	host *Host
	id   string

	parent   *Element
	children []*Element
	style    Style
	text     string

	// shadow is the isolated sub-tree root attached to this element, if any.
	shadow *Element
	// shadowHost is set on shadow roots and points back at the hosting
	// element; nil for ordinary elements and the document root.
	shadowHost *Element
}

// ID returns the element's stable id.
func (e *Element) ID() string { return e.id }

// Owner returns the Host this element belongs to, or nil for a nil element.
func (e *Element) Owner() *Host {
	if e == nil {
		return nil
	}
	return e.host
}

// Style returns a copy of the element's current style.
func (e *Element) Style() Style {
	e.host.mu.RLock()
	defer e.host.mu.RUnlock()
	return e.style
}

// Parent returns the element's parent, or nil when detached. For a shadow
// root this is always nil; use ShadowHost.
func (e *Element) Parent() *Element {
	e.host.mu.RLock()
	defer e.host.mu.RUnlock()
	return e.parent
}

// Children returns a snapshot of the element's children.
func (e *Element) Children() []*Element {
	e.host.mu.RLock()
	defer e.host.mu.RUnlock()
	out := make([]*Element, len(e.children))
	copy(out, e.children)
	return out
}

// ShadowRoot returns the attached shadow root, or nil.
func (e *Element) ShadowRoot() *Element {
	e.host.mu.RLock()
	defer e.host.mu.RUnlock()
	return e.shadow
}

// ShadowHost returns the hosting element when e is a shadow root.
func (e *Element) ShadowHost() *Element {
	e.host.mu.RLock()
	defer e.host.mu.RUnlock()
	return e.shadowHost
}

// IsShadowRoot reports whether e is the root of an isolated sub-tree.
func (e *Element) IsShadowRoot() bool {
	e.host.mu.RLock()
	defer e.host.mu.RUnlock()
	return e.shadowHost != nil
}

// Connected reports whether the element is reachable from the document
// root. A shadow root is connected iff its hosting element is.
func (e *Element) Connected() bool {
	e.host.mu.RLock()
	defer e.host.mu.RUnlock()
	return e.connectedLocked()
}

func (e *Element) connectedLocked() bool {
	cur := e
	for cur != nil {
		if cur == e.host.doc {
			return true
		}
		if cur.shadowHost != nil {
			cur = cur.shadowHost
			continue
		}
		cur = cur.parent
	}
	return false
}

// treeRootLocked returns the root of the tree e lives in: either the
// document root, a shadow root, or the top of a detached sub-tree.
func (e *Element) treeRootLocked() *Element {
	cur := e
	for cur.parent != nil {
		cur = cur.parent
	}
	return cur
}

// AppendChild attaches child as the last child of e, detaching it from any
// previous parent first. Fires a childList mutation on both trees involved.
func (e *Element) AppendChild(child *Element) error {
	if child == nil {
		return fmt.Errorf("append nil child to %q", e.id)
	}
	if child.host != e.host {
		return fmt.Errorf("element %q belongs to a different host", child.id)
	}
	if child.shadowHost != nil {
		return fmt.Errorf("shadow root %q cannot be re-parented", child.id)
	}
	e.host.mu.Lock()
	for cur := e; cur != nil; cur = cur.parent {
		if cur == child {
			e.host.mu.Unlock()
			return fmt.Errorf("appending %q to %q would create a cycle", child.id, e.id)
		}
	}
	if child.parent != nil {
		child.parent.removeChildLocked(child)
	}
	child.parent = e
	e.children = append(e.children, child)
	pending := e.host.mutationLocked(e, MutationChildList)
	e.host.mu.Unlock()
	pending.fire()
	return nil
}

// Detach removes e from its parent. No-op when already detached. Fires a
// childList mutation on the tree it was removed from.
func (e *Element) Detach() {
	e.host.mu.Lock()
	parent := e.parent
	if parent == nil {
		e.host.mu.Unlock()
		return
	}
	parent.removeChildLocked(e)
	e.parent = nil
	pending := e.host.mutationLocked(parent, MutationChildList)
	e.host.mu.Unlock()
	pending.fire()
}

func (e *Element) removeChildLocked(child *Element) {
	for i, c := range e.children {
		if c == child {
			e.children = append(e.children[:i], e.children[i+1:]...)
			return
		}
	}
}

// SetStyle replaces the element's style. Fires an attributes mutation.
func (e *Element) SetStyle(s Style) {
	e.host.mu.Lock()
	e.style = s
	pending := e.host.mutationLocked(e, MutationAttributes)
	e.host.mu.Unlock()
	pending.fire()
}

// UpdateStyle applies fn to a copy of the current style and stores the
// result. Fires an attributes mutation.
func (e *Element) UpdateStyle(fn func(*Style)) {
	e.host.mu.Lock()
	s := e.style
	fn(&s)
	e.style = s
	pending := e.host.mutationLocked(e, MutationAttributes)
	e.host.mu.Unlock()
	pending.fire()
}

// SetText replaces the element's text content. Fires a characterData
// mutation.
func (e *Element) SetText(text string) {
	e.host.mu.Lock()
	e.text = text
	pending := e.host.mutationLocked(e, MutationCharacterData)
	e.host.mu.Unlock()
	pending.fire()
}

// Text returns the element's text content.
func (e *Element) Text() string {
	e.host.mu.RLock()
	defer e.host.mu.RUnlock()
	return e.text
}

// AttachShadow creates and attaches an isolated sub-tree root to e.
// Mutations inside the shadow tree notify only observers of that root, not
// document-root observers. The host's attach-shadow hook (if installed)
// runs after attachment with the new root.
func (e *Element) AttachShadow() (*Element, error) {
	e.host.mu.Lock()
	if e.shadowHost != nil {
		e.host.mu.Unlock()
		return nil, fmt.Errorf("shadow root %q cannot host another shadow root", e.id)
	}
	if e.shadow != nil {
		e.host.mu.Unlock()
		return nil, fmt.Errorf("element %q already has a shadow root", e.id)
	}
	root := &Element{
		host:       e.host,
		id:         e.id + "#shadow",
		shadowHost: e,
	}
	e.shadow = root
	hook := e.host.shadowHook
	e.host.mu.Unlock()
	if hook != nil {
		hook(root)
	}
	return root, nil
}

// CompleteTransition reports that a CSS transition on the named property
// just finished. Fires the transition-end signal with the property name.
func (e *Element) CompleteTransition(property string) {
	e.host.mu.RLock()
	subs := make([]func(string), 0, len(e.host.transitionSubs))
	for _, s := range e.host.transitionSubs {
		subs = append(subs, s.fn)
	}
	e.host.mu.RUnlock()
	for _, fn := range subs {
		fn(property)
	}
}
