package sizewatch

import (
	"sync"
	"testing"
	"time"

	"sizewatch/internal/scheduler"
	"sizewatch/pkg/dom"
)

func newHarness(t *testing.T) (*dom.Host, *scheduler.Scheduler) {
	t.Helper()
	h := dom.New()
	return h, scheduler.New(h, scheduler.WithRefreshInterval(time.Millisecond))
}

func attach(t *testing.T, h *dom.Host, id string, s dom.Style) *dom.Element {
	t.Helper()
	el, err := h.CreateElement(id)
	if err != nil {
		t.Fatalf("create %s: %v", id, err)
	}
	if err := h.Root().AppendChild(el); err != nil {
		t.Fatalf("append %s: %v", id, err)
	}
	el.SetStyle(s)
	return el
}

func waitFor(t *testing.T, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(2 * time.Millisecond)
	}
	t.Fatalf("timed out waiting for %s", what)
}

func TestNewObserverRequiresCallback(t *testing.T) {
	_, s := newHarness(t)
	if _, err := NewObserverWith(s, nil); !IsConstruction(err) {
		t.Fatalf("expected construction error, got %v", err)
	}
}

func TestObserveArgumentValidation(t *testing.T) {
	_, s := newHarness(t)
	ro, err := NewObserverWith(s, func([]Entry, *ResizeObserver) {})
	if err != nil {
		t.Fatalf("new observer: %v", err)
	}
	if err := ro.Observe(nil); !IsMissingArgument(err) {
		t.Fatalf("expected missing-argument error, got %v", err)
	}
	if err := ro.Unobserve(nil); !IsMissingArgument(err) {
		t.Fatalf("expected missing-argument error, got %v", err)
	}

	orphan := &dom.Element{}
	if err := ro.Observe(orphan); !IsInvalidTarget(err) {
		t.Fatalf("expected invalid-target error, got %v", err)
	}
}

func TestObserveDeliversBatches(t *testing.T) {
	h, s := newHarness(t)
	target := attach(t, h, "panel", dom.Style{Width: 100, Height: 50})

	var mu sync.Mutex
	var batches [][]Entry
	var handle *ResizeObserver
	ro, err := NewObserverWith(s, func(entries []Entry, obs *ResizeObserver) {
		mu.Lock()
		defer mu.Unlock()
		batches = append(batches, entries)
		handle = obs
	})
	if err != nil {
		t.Fatalf("new observer: %v", err)
	}
	if err := ro.Observe(target); err != nil {
		t.Fatalf("observe: %v", err)
	}

	waitFor(t, "initial batch", func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(batches) == 1
	})
	mu.Lock()
	if len(batches[0]) != 1 || batches[0][0].Target != target {
		mu.Unlock()
		t.Fatalf("unexpected initial batch: %+v", batches[0])
	}
	if r := batches[0][0].ContentRect; r.Width != 100 || r.Height != 50 {
		mu.Unlock()
		t.Fatalf("initial rect: %+v", r)
	}
	if handle != ro {
		mu.Unlock()
		t.Fatalf("callback handle is not the owning observer")
	}
	mu.Unlock()

	target.UpdateStyle(func(st *dom.Style) { st.Height = 80 })
	waitFor(t, "change batch", func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(batches) == 2 && batches[1][0].ContentRect.Height == 80
	})

	if got := ro.Targets(); len(got) != 1 || got[0] != target {
		t.Fatalf("targets: %v", got)
	}
}

func TestUnobserveStopsDelivery(t *testing.T) {
	h, s := newHarness(t)
	a := attach(t, h, "a", dom.Style{Width: 10, Height: 10})
	b := attach(t, h, "b", dom.Style{Width: 10, Height: 10})

	var mu sync.Mutex
	seen := map[string]int{}
	ro, err := NewObserverWith(s, func(entries []Entry, _ *ResizeObserver) {
		mu.Lock()
		defer mu.Unlock()
		for _, e := range entries {
			seen[e.Target.ID()]++
		}
	})
	if err != nil {
		t.Fatalf("new observer: %v", err)
	}
	for _, el := range []*dom.Element{a, b} {
		if err := ro.Observe(el); err != nil {
			t.Fatalf("observe: %v", err)
		}
	}
	waitFor(t, "initial batch", func() bool {
		mu.Lock()
		defer mu.Unlock()
		return seen["a"] == 1 && seen["b"] == 1
	})

	if err := ro.Unobserve(a); err != nil {
		t.Fatalf("unobserve: %v", err)
	}
	// Unknown target: no-op, no error.
	if err := ro.Unobserve(a); err != nil {
		t.Fatalf("unobserve unknown: %v", err)
	}

	a.UpdateStyle(func(st *dom.Style) { st.Width = 99 })
	b.UpdateStyle(func(st *dom.Style) { st.Width = 99 })
	waitFor(t, "b's second batch", func() bool {
		mu.Lock()
		defer mu.Unlock()
		return seen["b"] == 2
	})
	mu.Lock()
	defer mu.Unlock()
	if seen["a"] != 1 {
		t.Fatalf("unobserved target still delivered: %d", seen["a"])
	}
}

func TestDisconnectReleasesScheduler(t *testing.T) {
	h, s := newHarness(t)
	target := attach(t, h, "a", dom.Style{Width: 10, Height: 10})

	ro, err := NewObserverWith(s, func([]Entry, *ResizeObserver) {})
	if err != nil {
		t.Fatalf("new observer: %v", err)
	}
	if err := ro.Observe(target); err != nil {
		t.Fatalf("observe: %v", err)
	}
	if !s.Connected() {
		t.Fatalf("scheduler not connected after first observe")
	}

	ro.Disconnect()
	if s.Connected() {
		t.Fatalf("scheduler still connected after disconnect")
	}
	if len(ro.Targets()) != 0 {
		t.Fatalf("targets survive disconnect: %v", ro.Targets())
	}

	// Reuse after disconnect.
	if err := ro.Observe(target); err != nil {
		t.Fatalf("re-observe: %v", err)
	}
	if !s.Connected() {
		t.Fatalf("scheduler not reconnected on reuse")
	}
	ro.Disconnect()
}
