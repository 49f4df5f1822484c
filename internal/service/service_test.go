package service

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"sizewatch/internal/scheduler"
	"sizewatch/pkg/dom"
	"sizewatch/pkg/types"
)

const testScene = `
viewport:
  width: 800
  height: 600
elements:
  - id: sidebar
    watch: true
    style:
      width: 200
      height: 600
  - id: content
    style:
      width: 600
      height: 600
`

// newTestService loads the sample scene into a fresh host. The returned
// channel was subscribed before the load, so it sees the initial batch.
func newTestService(t *testing.T) (*Service, *dom.Host, string, <-chan types.BatchPayload) {
	t.Helper()
	h := dom.New()
	sched := scheduler.New(h, scheduler.WithRefreshInterval(time.Millisecond))
	svc := New(h, sched, zerolog.Nop())
	ch, cancel := svc.Subscribe()
	t.Cleanup(cancel)

	path := filepath.Join(t.TempDir(), "scene.yaml")
	if err := os.WriteFile(path, []byte(testScene), 0o644); err != nil {
		t.Fatalf("write scene: %v", err)
	}
	if err := svc.LoadScene(path); err != nil {
		t.Fatalf("load scene: %v", err)
	}
	return svc, h, path, ch
}

func waitBatch(t *testing.T, ch <-chan types.BatchPayload) types.BatchPayload {
	t.Helper()
	select {
	case b := <-ch:
		return b
	case <-time.After(2 * time.Second):
		t.Fatalf("no batch delivered")
		return types.BatchPayload{}
	}
}

func TestLoadSceneWiresBuiltinObserver(t *testing.T) {
	_, _, _, ch := newTestService(t)

	// The watch:true element produces its initial batch shortly after load.
	b := waitBatch(t, ch)
	if b.Observer != builtinID {
		t.Fatalf("batch observer = %q", b.Observer)
	}
	if len(b.Entries) != 1 || b.Entries[0].Target != "sidebar" {
		t.Fatalf("batch entries: %+v", b.Entries)
	}
	if b.Entries[0].ContentRect.Width != 200 {
		t.Fatalf("batch rect: %+v", b.Entries[0].ContentRect)
	}
}

func TestReloadSceneRetargetsBuiltin(t *testing.T) {
	svc, _, path, ch := newTestService(t)
	waitBatch(t, ch) // initial sidebar batch

	// Swap the watch flag to the other element.
	next := `
elements:
  - id: sidebar
    style:
      width: 200
      height: 600
  - id: content
    watch: true
    style:
      width: 640
      height: 600
`
	if err := os.WriteFile(path, []byte(next), 0o644); err != nil {
		t.Fatalf("rewrite scene: %v", err)
	}
	if err := svc.LoadScene(path); err != nil {
		t.Fatalf("reload: %v", err)
	}

	b := waitBatch(t, ch)
	if len(b.Entries) != 1 || b.Entries[0].Target != "content" {
		t.Fatalf("post-reload batch: %+v", b.Entries)
	}
}

func TestReloadDropsRemovedWatchedElement(t *testing.T) {
	svc, _, path, ch := newTestService(t)
	waitBatch(t, ch) // initial sidebar batch

	// The watched element disappears from the scene entirely.
	next := `
elements:
  - id: content
    style:
      width: 600
      height: 600
`
	if err := os.WriteFile(path, []byte(next), 0o644); err != nil {
		t.Fatalf("rewrite scene: %v", err)
	}
	if err := svc.LoadScene(path); err != nil {
		t.Fatalf("reload: %v", err)
	}

	st := svc.Status()
	if st.Observations != 0 {
		t.Fatalf("observation count after removing watched element = %d, want 0", st.Observations)
	}
	if st.Connected {
		t.Fatalf("scheduler still connected with nothing watched")
	}
	if _, err := svc.GetElement("sidebar"); !IsNotFound(err) {
		t.Fatalf("pruned element still resolvable: %v", err)
	}

	// No batch for the element that left the scene, zero-sized or otherwise.
	select {
	case b := <-ch:
		t.Fatalf("unexpected batch after reload: %+v", b)
	case <-time.After(50 * time.Millisecond):
	}
}

func TestReloadSceneSurvivesBrokenFile(t *testing.T) {
	svc, _, path, _ := newTestService(t)
	if err := os.WriteFile(path, []byte("elements: [broken"), 0o644); err != nil {
		t.Fatalf("rewrite scene: %v", err)
	}
	// Must log and carry on, not fail.
	svc.ReloadScene()
	if _, err := svc.GetElement("sidebar"); err != nil {
		t.Fatalf("document lost after broken reload: %v", err)
	}
}

func TestElementQueries(t *testing.T) {
	svc, _, _, _ := newTestService(t)

	els := svc.ListElements()
	if len(els) != 2 {
		t.Fatalf("elements: %d", len(els))
	}
	// Sorted by id.
	if els[0].ID != "content" || els[1].ID != "sidebar" {
		t.Fatalf("order: %s %s", els[0].ID, els[1].ID)
	}
	if !els[1].Watched || els[0].Watched {
		t.Fatalf("watched flags wrong: %+v", els)
	}

	st, err := svc.GetElement("sidebar")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if !st.Attached || st.ContentRect.Width != 200 {
		t.Fatalf("status: %+v", st)
	}
	if _, err := svc.GetElement("ghost"); !IsNotFound(err) {
		t.Fatalf("expected not-found, got %v", err)
	}
}

func TestPatchStyleSchedulesDelivery(t *testing.T) {
	svc, _, _, ch := newTestService(t)
	waitBatch(t, ch) // initial

	w := 320.0
	if err := svc.PatchStyle("sidebar", types.StylePatch{Width: &w}); err != nil {
		t.Fatalf("patch: %v", err)
	}
	b := waitBatch(t, ch)
	if b.Entries[0].ContentRect.Width != 320 {
		t.Fatalf("patched rect: %+v", b.Entries[0].ContentRect)
	}

	if err := svc.PatchStyle("ghost", types.StylePatch{Width: &w}); !IsNotFound(err) {
		t.Fatalf("expected not-found, got %v", err)
	}
}

func TestCompleteTransitionValidatesTarget(t *testing.T) {
	svc, _, _, _ := newTestService(t)
	if err := svc.CompleteTransition("sidebar", "width"); err != nil {
		t.Fatalf("transition: %v", err)
	}
	if err := svc.CompleteTransition("ghost", "width"); !IsNotFound(err) {
		t.Fatalf("expected not-found, got %v", err)
	}
}

func TestObserverLifecycle(t *testing.T) {
	svc, _, _, _ := newTestService(t)

	if _, err := svc.CreateObserver(nil); err == nil {
		t.Fatalf("expected error for empty target list")
	}
	if _, err := svc.CreateObserver([]string{"ghost"}); !IsNotFound(err) {
		t.Fatalf("expected not-found, got %v", err)
	}

	st, err := svc.CreateObserver([]string{"content"})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if st.ID != "obs-1" || len(st.Targets) != 1 || st.Targets[0] != "content" {
		t.Fatalf("observer status: %+v", st)
	}

	list := svc.ListObservers()
	if len(list) != 2 || list[0].ID != builtinID || list[1].ID != "obs-1" {
		t.Fatalf("observer list: %+v", list)
	}

	if err := svc.DeleteObserver("obs-1"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if err := svc.DeleteObserver("obs-1"); !IsNotFound(err) {
		t.Fatalf("double delete: %v", err)
	}
	// The builtin observer is not deletable through the API.
	if err := svc.DeleteObserver(builtinID); !IsNotFound(err) {
		t.Fatalf("builtin delete: %v", err)
	}
}

func TestStatusAndReady(t *testing.T) {
	svc, _, path, _ := newTestService(t)
	st := svc.Status()
	if st.Elements != 2 || st.Observers != 1 {
		t.Fatalf("status counts: %+v", st)
	}
	if !st.Connected {
		t.Fatalf("scheduler should be connected with a watched element")
	}
	if st.FallbackSignal {
		t.Fatalf("full host should not use the fallback signal")
	}
	if st.ScenePath != path {
		t.Fatalf("scene path: %q", st.ScenePath)
	}
	if st.RefreshIntervalMS != 1 {
		t.Fatalf("refresh interval: %d", st.RefreshIntervalMS)
	}
	if !svc.Ready() {
		t.Fatalf("service should be ready")
	}
}

func TestSetViewport(t *testing.T) {
	svc, h, _, _ := newTestService(t)
	svc.SetViewport(1920, 1080)
	if w, hgt := h.Viewport(); w != 1920 || hgt != 1080 {
		t.Fatalf("viewport: %v %v", w, hgt)
	}
}
