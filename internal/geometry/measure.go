// Package geometry extracts content rectangles from watched elements.
// It is a pure read of host state: measuring never touches scheduler or
// observer bookkeeping.
package geometry

import (
	"sizewatch/pkg/dom"
	"sizewatch/pkg/types"
)

// Measure returns the current content rectangle of el. Elements that are
// nil, hidden, or not connected to their document produce a zero rect
// rather than an error: a watched element may be torn down externally at
// any time and measurement must degrade, not fail.
func Measure(el *dom.Element) types.Rect {
	if el == nil || el.Owner() == nil {
		return types.Rect{}
	}
	if !el.Connected() {
		return types.Rect{}
	}
	s := el.Style()
	if s.Hidden() {
		return types.Rect{}
	}
	w, h := s.Width, s.Height
	if s.BoxSizing == dom.BorderBox {
		w -= s.PaddingX() + s.BorderX()
		h -= s.PaddingY() + s.BorderY()
		if w < 0 {
			w = 0
		}
		if h < 0 {
			h = 0
		}
	}
	return contentRect(w, h, s)
}

// contentRect positions the content box inside the padding edge, the same
// shape DOMRectReadOnly exposes: top/left are the paddings, right/bottom
// derive from size.
func contentRect(w, h float64, s dom.Style) types.Rect {
	return types.Rect{
		Width:  w,
		Height: h,
		Top:    s.PaddingTop,
		Left:   s.PaddingLeft,
		Right:  s.PaddingLeft + w,
		Bottom: s.PaddingTop + h,
	}
}
