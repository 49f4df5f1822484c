package dom

import (
	"fmt"
	"sync"
)

// Host is one hosted document environment: an element tree, a viewport and
// the change-signal channels a scheduler subscribes to. A Host is safe for
// concurrent use; every signal is dispatched outside the internal lock.
type Host struct {
	mu  sync.RWMutex
	doc *Element
	// elements indexes ordinary elements by id. Shadow roots are not
	// listed here.
	elements map[string]*Element

	viewportW float64
	viewportH float64

	supportsMutation bool
	supportsShadow   bool

	nextSubID      int
	resizeSubs     []resizeSub
	transitionSubs []transitionSub
	subtreeModSubs []resizeSub
	mutationSubs   []mutationSub

	// shadowHook is the registered attach-shadow extension point. At most
	// one hook is installed at a time; installing returns a restore func.
	shadowHook func(*Element)
}

type resizeSub struct {
	id int
	fn func()
}

type transitionSub struct {
	id int
	fn func(property string)
}

// MutationKind classifies a structural mutation.
type MutationKind int

const (
	MutationAttributes MutationKind = iota
	MutationChildList
	MutationCharacterData
)

// MutationOptions selects which mutations an observer receives.
type MutationOptions struct {
	Attributes    bool
	ChildList     bool
	CharacterData bool
	// Subtree extends observation to all descendants of the root within
	// the same tree. Shadow boundaries are never crossed.
	Subtree bool
}

type mutationSub struct {
	id   int
	root *Element
	opts MutationOptions
	fn   func()
}

// Option configures a Host at construction.
type Option func(*Host)

// WithoutMutationObserver simulates a host with no structural-mutation
// observation capability, forcing the coarse fallback signal path.
func WithoutMutationObserver() Option {
	return func(h *Host) { h.supportsMutation = false }
}

// WithoutShadowHook simulates a host whose sub-tree attachment API cannot
// be intercepted.
func WithoutShadowHook() Option {
	return func(h *Host) { h.supportsShadow = false }
}

// WithViewport sets the initial viewport size without firing resize.
func WithViewport(w, hgt float64) Option {
	return func(h *Host) { h.viewportW, h.viewportH = w, hgt }
}

// New constructs a Host with an empty document.
func New(opts ...Option) *Host {
	h := &Host{
		elements:         make(map[string]*Element),
		viewportW:        1024,
		viewportH:        768,
		supportsMutation: true,
		supportsShadow:   true,
	}
	h.doc = &Element{host: h, id: "#document"}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Root returns the document root element.
func (h *Host) Root() *Element { return h.doc }

// CreateElement creates a detached element owned by this host. Ids must be
// unique within the host.
func (h *Host) CreateElement(id string) (*Element, error) {
	if id == "" {
		return nil, fmt.Errorf("empty element id")
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, exists := h.elements[id]; exists {
		return nil, fmt.Errorf("element id already in use: %s", id)
	}
	e := &Element{host: h, id: id}
	h.elements[id] = e
	return e, nil
}

// Lookup returns the element with the given id, if it exists.
func (h *Host) Lookup(id string) (*Element, bool) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	e, ok := h.elements[id]
	return e, ok
}

// ElementIDs returns all known element ids in unspecified order.
func (h *Host) ElementIDs() []string {
	h.mu.RLock()
	defer h.mu.RUnlock()
	ids := make([]string, 0, len(h.elements))
	for id := range h.elements {
		ids = append(ids, id)
	}
	return ids
}

// Forget drops a detached element from the id index so the id can be
// reused. The element itself stays valid for anyone still holding it.
func (h *Host) Forget(id string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	delete(h.elements, id)
}

// Viewport returns the current viewport size.
func (h *Host) Viewport() (w, hgt float64) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.viewportW, h.viewportH
}

// SetViewport resizes the viewport and fires the resize signal.
func (h *Host) SetViewport(w, hgt float64) {
	h.mu.Lock()
	h.viewportW, h.viewportH = w, hgt
	subs := make([]func(), 0, len(h.resizeSubs))
	for _, s := range h.resizeSubs {
		subs = append(subs, s.fn)
	}
	h.mu.Unlock()
	for _, fn := range subs {
		fn()
	}
}

// process-wide default host, analogous to the global window of a browser
// environment. Lazily constructed; the daemon installs its own before any
// observer is created.
var (
	defaultMu   sync.Mutex
	defaultHost *Host
)

// Default returns the process-wide default Host, constructing an empty one
// on first use.
func Default() *Host {
	defaultMu.Lock()
	defer defaultMu.Unlock()
	if defaultHost == nil {
		defaultHost = New()
	}
	return defaultHost
}

// SetDefault installs h as the process-wide default Host. Call before the
// first observer is created: the singleton scheduler binds to the default
// host on first use and never rebinds.
func SetDefault(h *Host) {
	defaultMu.Lock()
	defer defaultMu.Unlock()
	defaultHost = h
}
