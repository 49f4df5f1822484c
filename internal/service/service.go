// Package service is the daemon core: it owns the hosted document, keeps
// it in sync with the scene file, manages observers created over the API,
// and fans delivered notification batches out on an event bus.
package service

import (
	"fmt"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"

	"sizewatch"
	"sizewatch/internal/event"
	"sizewatch/internal/geometry"
	"sizewatch/internal/scene"
	"sizewatch/internal/scheduler"
	"sizewatch/pkg/dom"
	"sizewatch/pkg/types"
)

// builtinID is the well-known id of the scene-driven observer.
const builtinID = "builtin"

type apiObserver struct {
	id      string
	ro      *sizewatch.ResizeObserver
	batches atomic.Uint64
}

// Service wires the host document, scheduler and observers together.
type Service struct {
	host  *dom.Host
	sched *scheduler.Scheduler
	bus   *event.Bus[types.BatchPayload]
	log   zerolog.Logger
	start time.Time

	mu        sync.Mutex
	scenePath string
	watched   map[string]bool
	builtin   *apiObserver
	observers map[string]*apiObserver
	nextObsID int

	batchesTotal atomic.Uint64
}

// New builds a Service over host and sched. No scene is loaded yet.
func New(host *dom.Host, sched *scheduler.Scheduler, log zerolog.Logger) *Service {
	return &Service{
		host:      host,
		sched:     sched,
		bus:       event.New[types.BatchPayload](),
		log:       log,
		start:     time.Now(),
		watched:   make(map[string]bool),
		observers: make(map[string]*apiObserver),
	}
}

// LoadScene loads path into the document and points the builtin observer
// at the elements the scene marks watch:true. Called at startup and by the
// file watcher on every change.
func (s *Service) LoadScene(path string) error {
	sc, err := scene.Load(path)
	if err != nil {
		return err
	}

	s.mu.Lock()
	s.scenePath = path
	if s.builtin == nil {
		obs := &apiObserver{id: builtinID}
		ro, err := sizewatch.NewObserverWith(s.sched, s.deliver(obs))
		if err != nil {
			s.mu.Unlock()
			return err
		}
		obs.ro = ro
		s.builtin = obs
	}
	builtin := s.builtin
	newWatched := make(map[string]bool)
	for _, id := range sc.WatchedIDs() {
		newWatched[id] = true
	}
	s.watched = newWatched
	s.mu.Unlock()

	// Drop stale observations before the apply prunes elements the scene no
	// longer mentions: once an element is forgotten its id can no longer be
	// resolved, but the observer still holds the element itself.
	for _, el := range builtin.ro.Targets() {
		if newWatched[el.ID()] {
			continue
		}
		if err := builtin.ro.Unobserve(el); err != nil {
			return err
		}
	}

	if err := scene.Apply(s.host, sc); err != nil {
		return err
	}

	for id := range newWatched {
		el, ok := s.host.Lookup(id)
		if !ok {
			return ErrNotFound("element", id)
		}
		if err := builtin.ro.Observe(el); err != nil {
			return err
		}
	}
	s.log.Info().Str("scene", path).Int("elements", len(sc.Elements)).
		Int("watched", len(newWatched)).Msg("scene applied")
	return nil
}

// ReloadScene re-applies the current scene file, logging instead of
// failing: a broken intermediate save should not take the daemon down.
func (s *Service) ReloadScene() {
	s.mu.Lock()
	path := s.scenePath
	s.mu.Unlock()
	if path == "" {
		return
	}
	if err := s.LoadScene(path); err != nil {
		s.log.Error().Err(err).Str("scene", path).Msg("scene reload failed")
	}
}

// deliver builds the callback for one observer: publish the batch on the
// bus and bump counters.
func (s *Service) deliver(obs *apiObserver) sizewatch.Callback {
	return func(entries []sizewatch.Entry, _ *sizewatch.ResizeObserver) {
		payload := types.BatchPayload{
			Observer:   obs.id,
			Entries:    make([]types.EntryPayload, len(entries)),
			TimeUnixMS: time.Now().UnixMilli(),
		}
		for i, e := range entries {
			payload.Entries[i] = types.EntryPayload{
				Target:      e.Target.ID(),
				ContentRect: e.ContentRect,
			}
		}
		obs.batches.Add(1)
		s.batchesTotal.Add(1)
		s.bus.Publish(payload)
	}
}

// Subscribe attaches a new batch-stream subscriber.
func (s *Service) Subscribe() (<-chan types.BatchPayload, func()) {
	return s.bus.Subscribe()
}

// ListElements returns the current elements sorted by id.
func (s *Service) ListElements() []types.ElementStatus {
	ids := s.host.ElementIDs()
	sort.Strings(ids)
	s.mu.Lock()
	watched := make(map[string]bool, len(s.watched))
	for id := range s.watched {
		watched[id] = true
	}
	s.mu.Unlock()

	out := make([]types.ElementStatus, 0, len(ids))
	for _, id := range ids {
		el, ok := s.host.Lookup(id)
		if !ok {
			continue
		}
		out = append(out, s.elementStatus(el, watched[id]))
	}
	return out
}

// GetElement returns one element's status.
func (s *Service) GetElement(id string) (types.ElementStatus, error) {
	el, ok := s.host.Lookup(id)
	if !ok {
		return types.ElementStatus{}, ErrNotFound("element", id)
	}
	s.mu.Lock()
	watched := s.watched[id]
	s.mu.Unlock()
	return s.elementStatus(el, watched), nil
}

func (s *Service) elementStatus(el *dom.Element, watched bool) types.ElementStatus {
	parent := ""
	if p := el.Parent(); p != nil && p != s.host.Root() {
		parent = p.ID()
	}
	return types.ElementStatus{
		ID:          el.ID(),
		Parent:      parent,
		Attached:    el.Connected(),
		Watched:     watched,
		ContentRect: geometry.Measure(el),
	}
}

// PatchStyle applies a partial style update to one element. Every applied
// patch fires an attributes mutation on the host, which is what schedules
// a refresh.
func (s *Service) PatchStyle(id string, patch types.StylePatch) error {
	el, ok := s.host.Lookup(id)
	if !ok {
		return ErrNotFound("element", id)
	}
	el.UpdateStyle(func(st *dom.Style) {
		applyPatch(st, patch)
	})
	return nil
}

func applyPatch(st *dom.Style, p types.StylePatch) {
	setF := func(dst *float64, src *float64) {
		if src != nil {
			*dst = *src
		}
	}
	if p.Display != nil {
		st.Display = *p.Display
	}
	setF(&st.Width, p.Width)
	setF(&st.Height, p.Height)
	setF(&st.PaddingTop, p.PaddingTop)
	setF(&st.PaddingRight, p.PaddingRight)
	setF(&st.PaddingBottom, p.PaddingBottom)
	setF(&st.PaddingLeft, p.PaddingLeft)
	setF(&st.BorderTop, p.BorderTop)
	setF(&st.BorderRight, p.BorderRight)
	setF(&st.BorderBottom, p.BorderBottom)
	setF(&st.BorderLeft, p.BorderLeft)
	if p.BoxSizing != nil {
		if *p.BoxSizing == string(dom.BorderBox) {
			st.BoxSizing = dom.BorderBox
		} else {
			st.BoxSizing = dom.ContentBox
		}
	}
}

// CompleteTransition fires a transition-end for property on one element.
func (s *Service) CompleteTransition(id, property string) error {
	el, ok := s.host.Lookup(id)
	if !ok {
		return ErrNotFound("element", id)
	}
	el.CompleteTransition(property)
	return nil
}

// SetViewport resizes the host viewport, firing the resize signal.
func (s *Service) SetViewport(w, h float64) {
	s.host.SetViewport(w, h)
}

// CreateObserver registers a new observer over the given element ids.
func (s *Service) CreateObserver(targets []string) (types.ObserverStatus, error) {
	if len(targets) == 0 {
		return types.ObserverStatus{}, fmt.Errorf("observer needs at least one target")
	}
	els := make([]*dom.Element, len(targets))
	for i, id := range targets {
		el, ok := s.host.Lookup(id)
		if !ok {
			return types.ObserverStatus{}, ErrNotFound("element", id)
		}
		els[i] = el
	}

	s.mu.Lock()
	s.nextObsID++
	obs := &apiObserver{id: fmt.Sprintf("obs-%d", s.nextObsID)}
	s.mu.Unlock()

	ro, err := sizewatch.NewObserverWith(s.sched, s.deliver(obs))
	if err != nil {
		return types.ObserverStatus{}, err
	}
	obs.ro = ro
	for _, el := range els {
		if err := ro.Observe(el); err != nil {
			ro.Disconnect()
			return types.ObserverStatus{}, err
		}
	}

	s.mu.Lock()
	s.observers[obs.id] = obs
	s.mu.Unlock()
	s.log.Info().Str("observer", obs.id).Strs("targets", targets).Msg("observer created")
	return observerStatus(obs), nil
}

// DeleteObserver disconnects and removes an API-created observer. The
// builtin observer cannot be deleted.
func (s *Service) DeleteObserver(id string) error {
	s.mu.Lock()
	obs, ok := s.observers[id]
	if ok {
		delete(s.observers, id)
	}
	s.mu.Unlock()
	if !ok {
		return ErrNotFound("observer", id)
	}
	obs.ro.Disconnect()
	s.log.Info().Str("observer", id).Msg("observer deleted")
	return nil
}

// ListObservers returns all live observers, builtin first, then by id.
func (s *Service) ListObservers() []types.ObserverStatus {
	s.mu.Lock()
	all := make([]*apiObserver, 0, len(s.observers)+1)
	if s.builtin != nil {
		all = append(all, s.builtin)
	}
	rest := make([]*apiObserver, 0, len(s.observers))
	for _, obs := range s.observers {
		rest = append(rest, obs)
	}
	s.mu.Unlock()

	sort.Slice(rest, func(i, j int) bool { return rest[i].id < rest[j].id })
	all = append(all, rest...)

	out := make([]types.ObserverStatus, len(all))
	for i, obs := range all {
		out[i] = observerStatus(obs)
	}
	return out
}

func observerStatus(obs *apiObserver) types.ObserverStatus {
	targets := obs.ro.Targets()
	ids := make([]string, len(targets))
	for i, el := range targets {
		ids[i] = el.ID()
	}
	return types.ObserverStatus{
		ID:      obs.id,
		Targets: ids,
		Batches: obs.batches.Load(),
	}
}

// Status assembles the /status payload.
func (s *Service) Status() types.StatusResponse {
	s.mu.Lock()
	scenePath := s.scenePath
	observers := len(s.observers)
	if s.builtin != nil {
		observers++
	}
	s.mu.Unlock()
	return types.StatusResponse{
		Elements:          len(s.host.ElementIDs()),
		Observers:         observers,
		Observations:      s.sched.ObservationCount(),
		Connected:         s.sched.Connected(),
		FallbackSignal:    s.sched.UsesFallbackSignal(),
		RefreshIntervalMS: int(s.sched.RefreshInterval().Milliseconds()),
		BatchesTotal:      s.batchesTotal.Load(),
		ScenePath:         scenePath,
		UptimeSeconds:     int64(time.Since(s.start).Seconds()),
		ServerTimeUnix:    time.Now().Unix(),
	}
}

// Ready reports whether the daemon can serve: the document exists and, if
// anything is observed, the scheduler is connected.
func (s *Service) Ready() bool {
	if s.sched.ObserverCount() == 0 {
		return true
	}
	return s.sched.Connected()
}
