package types

// Rect is the content rectangle of a watched element at one measurement.
// Values are immutable once handed to a consumer: producers always build a
// fresh Rect rather than mutating one in place.
type Rect struct {
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
	Top    float64 `json:"top"`
	Right  float64 `json:"right"`
	Bottom float64 `json:"bottom"`
	Left   float64 `json:"left"`
}

// SameSize reports whether two rects have equal width and height.
// Edge offsets are deliberately ignored: activity detection compares
// dimensions only.
func (r Rect) SameSize(o Rect) bool {
	return r.Width == o.Width && r.Height == o.Height
}
