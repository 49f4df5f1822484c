// Package scheduler owns the shared refresh loop: one coordinator
// multiplexing host change signals into throttled, convergent
// gather/broadcast passes over every live observer instance.
package scheduler

import (
	"log"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"sizewatch/internal/observer"
	"sizewatch/pkg/dom"
)

// DefaultRefreshInterval is the minimum spacing between externally
// triggered refresh executions.
const DefaultRefreshInterval = 20 * time.Millisecond

// softCycleWarn is a diagnostic threshold only: the convergence loop is
// deliberately uncapped (a consumer that keeps reintroducing a delta loops
// forever, and silently capping would change observable semantics), but
// passing this many cycles in one refresh is worth a warning.
const softCycleWarn = 64

// transitionKeys are substrings of CSS property names whose transitions
// can plausibly change box dimensions. Substring match on purpose, so
// shorthands and vendor prefixes ("max-width", "-webkit-border-top-width")
// are caught too.
var transitionKeys = []string{
	"top", "right", "bottom", "left", "width", "height", "size", "weight",
}

// zlog is an optional structured logger. If unset, falls back to log.Printf
// for connection events and stays quiet otherwise.
var zlog *zerolog.Logger

// SetLogger installs a structured logger used by the scheduler.
func SetLogger(l zerolog.Logger) { zlog = &l }

// trigger channel labels for metrics.
const (
	triggerResize     = "resize"
	triggerMutation   = "mutation"
	triggerTransition = "transition"
	triggerSubtree    = "subtree"
	triggerFallback   = "fallback"
	triggerRegister   = "register"
)

// Scheduler multiplexes host change signals into a single refresh loop
// shared by every observer instance in the process. Signal subscriptions
// are installed when the first instance arrives and torn down when the
// last one leaves; construction itself subscribes to nothing.
type Scheduler struct {
	host *dom.Host
	thr  *throttle

	mu           sync.Mutex
	instances    []*observer.Instance
	connected    bool
	usesFallback bool
	teardowns    []func()

	// refreshMu makes a full convergence run single-flight. The throttle
	// already serializes the external entry point; this also covers direct
	// Refresh calls.
	refreshMu sync.Mutex
}

// Option configures a Scheduler at construction.
type Option func(*Scheduler)

// WithRefreshInterval overrides the throttle window.
func WithRefreshInterval(d time.Duration) Option {
	return func(s *Scheduler) { s.thr.SetDelay(d) }
}

// New constructs a Scheduler bound to h. Nothing is subscribed until the
// first observer instance registers.
func New(h *dom.Host, opts ...Option) *Scheduler {
	s := &Scheduler{host: h}
	s.thr = newThrottle(s.refreshFromThrottle, DefaultRefreshInterval)
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// process-wide singleton, lazily constructed on first use and bound to the
// default host for the life of the process.
var (
	once      sync.Once
	singleton *Scheduler

	defaultIntervalMu sync.Mutex
	defaultInterval   = DefaultRefreshInterval
)

// SetDefaultRefreshInterval sets the throttle window used by the singleton.
// Applies to the singleton immediately if it already exists.
func SetDefaultRefreshInterval(d time.Duration) {
	if d <= 0 {
		d = DefaultRefreshInterval
	}
	defaultIntervalMu.Lock()
	defaultInterval = d
	defaultIntervalMu.Unlock()
	if s := peek(); s != nil {
		s.thr.SetDelay(d)
	}
}

func peek() *Scheduler {
	defaultIntervalMu.Lock()
	defer defaultIntervalMu.Unlock()
	return singleton
}

// Instance returns the process-wide Scheduler, constructing it on first
// call against dom.Default().
func Instance() *Scheduler {
	once.Do(func() {
		defaultIntervalMu.Lock()
		d := defaultInterval
		s := New(dom.Default(), WithRefreshInterval(d))
		singleton = s
		defaultIntervalMu.Unlock()
	})
	return singleton
}

// Host returns the host this scheduler is bound to.
func (s *Scheduler) Host() *dom.Host { return s.host }

// RefreshInterval returns the current throttle window.
func (s *Scheduler) RefreshInterval() time.Duration { return s.thr.Delay() }

// AddObserver adds in to the tracked set. Set semantics: re-adding a
// tracked instance is a no-op. The 0→1 transition installs the shared
// signal subscriptions.
func (s *Scheduler) AddObserver(in *observer.Instance) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.instances {
		if existing == in {
			return
		}
	}
	s.instances = append(s.instances, in)
	observersGauge.Set(float64(len(s.instances)))
	if !s.connected {
		s.connectLocked()
	}
}

// RemoveObserver drops in from the tracked set. The 1→0 transition tears
// down every signal subscription, including the attach-shadow hook.
func (s *Scheduler) RemoveObserver(in *observer.Instance) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, existing := range s.instances {
		if existing == in {
			s.instances = append(s.instances[:i], s.instances[i+1:]...)
			break
		}
	}
	observersGauge.Set(float64(len(s.instances)))
	if len(s.instances) == 0 && s.connected {
		s.disconnectLocked()
	}
}

// RequestRefresh is the throttled external entry point: at most one
// refresh execution per window, trailing, single-flight.
func (s *Scheduler) RequestRefresh() {
	refreshTriggers.WithLabelValues(triggerRegister).Inc()
	s.thr.Trigger()
}

func (s *Scheduler) trigger(channel string) {
	refreshTriggers.WithLabelValues(channel).Inc()
	s.thr.Trigger()
}

func (s *Scheduler) refreshFromThrottle() { s.Refresh() }

// Refresh runs gather/broadcast cycles until a full gather pass finds no
// active observation anywhere. The gather phase of a cycle completes for
// every instance before any broadcast of that cycle starts, so one
// consumer's callback cannot corrupt another's measurement for the same
// cycle. Broadcast side effects are picked up by the immediately following
// cycle rather than waiting for the next external signal. There is no
// iteration cap; a callback that keeps reintroducing a delta will loop
// here forever. Consumer panics are not recovered and abort the remaining
// pass.
func (s *Scheduler) Refresh() {
	s.refreshMu.Lock()
	defer s.refreshMu.Unlock()

	refreshRuns.Inc()
	cycles := 0
	for {
		cycles++
		insts := s.snapshot()
		for _, in := range insts {
			in.GatherActive()
		}
		var active []*observer.Instance
		for _, in := range insts {
			if in.HasActive() {
				active = append(active, in)
			}
		}
		if len(active) == 0 {
			break
		}
		for _, in := range active {
			in.BroadcastActive()
			broadcastsTotal.Inc()
		}
		if cycles == softCycleWarn && zlog != nil {
			zlog.Warn().Int("cycles", cycles).
				Msg("refresh has not converged; callbacks keep changing dimensions")
		}
	}
	refreshCycles.Observe(float64(cycles))
	observationsGauge.Set(float64(s.ObservationCount()))
	if zlog != nil {
		zlog.Debug().Int("cycles", cycles).Msg("refresh converged")
	}
}

// snapshot copies the instance list so a cycle survives reentrant
// add/remove from inside consumer callbacks.
func (s *Scheduler) snapshot() []*observer.Instance {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]*observer.Instance, len(s.instances))
	copy(out, s.instances)
	return out
}

// Connected reports whether signal subscriptions are installed.
func (s *Scheduler) Connected() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.connected
}

// UsesFallbackSignal reports whether the coarse single-signal path is
// active in place of structural mutation observation.
func (s *Scheduler) UsesFallbackSignal() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.usesFallback
}

// ObserverCount returns the number of tracked instances.
func (s *Scheduler) ObserverCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.instances)
}

// ObservationCount sums registered targets across tracked instances.
func (s *Scheduler) ObservationCount() int {
	total := 0
	for _, in := range s.snapshot() {
		total += in.Size()
	}
	return total
}

var mutationOpts = dom.MutationOptions{
	Attributes:    true,
	ChildList:     true,
	CharacterData: true,
	Subtree:       true,
}

// connectLocked installs every signal subscription. Caller holds s.mu.
func (s *Scheduler) connectLocked() {
	s.teardowns = append(s.teardowns,
		s.host.OnResize(func() { s.trigger(triggerResize) }))

	if s.host.SupportsMutationObserver() {
		s.usesFallback = false
		s.observeTreeLocked(s.host.Root())
		if restore, ok := s.host.HookShadowAttach(s.onShadowAttached); ok {
			s.teardowns = append(s.teardowns, restore)
		}
	} else {
		// Degraded path: one coarse channel instead of per-root observers.
		s.usesFallback = true
		s.teardowns = append(s.teardowns,
			s.host.OnSubtreeModified(func() { s.trigger(triggerFallback) }))
	}

	s.teardowns = append(s.teardowns,
		s.host.OnTransitionEnd(s.onTransitionEnd))

	s.connected = true
	if zlog != nil {
		zlog.Debug().Bool("fallback", s.usesFallback).Msg("scheduler connected")
	} else {
		log.Printf("scheduler connected (fallback=%v)", s.usesFallback)
	}
}

// disconnectLocked reverses every subscription installed by connectLocked,
// restoring the attach-shadow hook too. Caller holds s.mu.
func (s *Scheduler) disconnectLocked() {
	for i := len(s.teardowns) - 1; i >= 0; i-- {
		s.teardowns[i]()
	}
	s.teardowns = nil
	s.connected = false
	s.usesFallback = false
	if zlog != nil {
		zlog.Debug().Msg("scheduler disconnected")
	} else {
		log.Printf("scheduler disconnected")
	}
}

// observeTreeLocked puts root under mutation observation together with
// every shadow root already attached anywhere below it, recursively, so
// sub-trees that existed before connection are covered. Caller holds s.mu.
func (s *Scheduler) observeTreeLocked(root *dom.Element) {
	cancel, ok := s.host.ObserveMutations(root, mutationOpts,
		func() { s.trigger(triggerMutation) })
	if ok {
		s.teardowns = append(s.teardowns, cancel)
	}
	var walk func(e *dom.Element)
	walk = func(e *dom.Element) {
		if sr := e.ShadowRoot(); sr != nil {
			s.observeTreeLocked(sr)
		}
		for _, c := range e.Children() {
			walk(c)
		}
	}
	walk(root)
}

// onShadowAttached is the attach-shadow hook: a newly created sub-tree
// root goes straight under observation (nested roots included once they
// attach in turn, since the hook stays installed), and the structural
// change itself schedules a refresh.
func (s *Scheduler) onShadowAttached(root *dom.Element) {
	s.mu.Lock()
	if s.connected && !s.usesFallback {
		s.observeTreeLocked(root)
	}
	s.mu.Unlock()
	s.trigger(triggerSubtree)
}

// onTransitionEnd schedules a refresh only for properties whose names
// suggest a dimension change.
func (s *Scheduler) onTransitionEnd(property string) {
	if !dimensionProperty(property) {
		return
	}
	s.trigger(triggerTransition)
}

func dimensionProperty(property string) bool {
	for _, key := range transitionKeys {
		if strings.Contains(property, key) {
			return true
		}
	}
	return false
}
