package geometry

import (
	"testing"

	"sizewatch/pkg/dom"
	"sizewatch/pkg/types"
)

func attach(t *testing.T, h *dom.Host, id string, s dom.Style) *dom.Element {
	t.Helper()
	el, err := h.CreateElement(id)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if err := h.Root().AppendChild(el); err != nil {
		t.Fatalf("append: %v", err)
	}
	el.SetStyle(s)
	return el
}

func TestMeasureContentBox(t *testing.T) {
	h := dom.New()
	el := attach(t, h, "a", dom.Style{
		Width: 100, Height: 50,
		PaddingTop: 4, PaddingLeft: 6,
	})
	got := Measure(el)
	want := types.Rect{Width: 100, Height: 50, Top: 4, Left: 6, Right: 106, Bottom: 54}
	if got != want {
		t.Fatalf("got %+v want %+v", got, want)
	}
}

func TestMeasureBorderBox(t *testing.T) {
	h := dom.New()
	el := attach(t, h, "a", dom.Style{
		Width: 100, Height: 60,
		PaddingTop: 5, PaddingRight: 5, PaddingBottom: 5, PaddingLeft: 5,
		BorderTop: 2, BorderRight: 2, BorderBottom: 2, BorderLeft: 2,
		BoxSizing: dom.BorderBox,
	})
	got := Measure(el)
	// 100 - 10 padding - 4 border = 86; 60 - 10 - 4 = 46.
	if got.Width != 86 || got.Height != 46 {
		t.Fatalf("border-box size wrong: %+v", got)
	}
	if got.Top != 5 || got.Left != 5 {
		t.Fatalf("offsets wrong: %+v", got)
	}
}

func TestMeasureBorderBoxNeverNegative(t *testing.T) {
	h := dom.New()
	el := attach(t, h, "a", dom.Style{
		Width: 4, Height: 4,
		PaddingTop: 10, PaddingRight: 10, PaddingBottom: 10, PaddingLeft: 10,
		BoxSizing: dom.BorderBox,
	})
	got := Measure(el)
	if got.Width != 0 || got.Height != 0 {
		t.Fatalf("expected clamped zero size: %+v", got)
	}
}

func TestMeasureDegenerateCases(t *testing.T) {
	h := dom.New()
	if got := Measure(nil); got != (types.Rect{}) {
		t.Fatalf("nil element should measure zero: %+v", got)
	}

	detached, err := h.CreateElement("loose")
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	detached.SetStyle(dom.Style{Width: 10, Height: 10})
	if got := Measure(detached); got != (types.Rect{}) {
		t.Fatalf("detached element should measure zero: %+v", got)
	}

	hidden := attach(t, h, "hidden", dom.Style{Display: "none", Width: 10, Height: 10})
	if got := Measure(hidden); got != (types.Rect{}) {
		t.Fatalf("display:none element should measure zero: %+v", got)
	}
}

func TestMeasureDetachMidLifeYieldsZero(t *testing.T) {
	h := dom.New()
	el := attach(t, h, "a", dom.Style{Width: 20, Height: 20})
	if got := Measure(el); got.Width != 20 {
		t.Fatalf("attached measure wrong: %+v", got)
	}
	el.Detach()
	if got := Measure(el); got != (types.Rect{}) {
		t.Fatalf("post-detach measure should be zero: %+v", got)
	}
}
