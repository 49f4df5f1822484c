package dom

// BoxSizing selects how Width/Height relate to the content box.
type BoxSizing string

const (
	ContentBox BoxSizing = "content-box"
	BorderBox  BoxSizing = "border-box"
)

// Style is the computed style of an element, reduced to the properties that
// matter for content-rect extraction. Zero Display means "block".
type Style struct {
	Display string
	Width   float64
	Height  float64

	PaddingTop    float64
	PaddingRight  float64
	PaddingBottom float64
	PaddingLeft   float64

	BorderTop    float64
	BorderRight  float64
	BorderBottom float64
	BorderLeft   float64

	BoxSizing BoxSizing
}

// Hidden reports whether the element generates no box at all.
func (s Style) Hidden() bool { return s.Display == "none" }

// PaddingX returns the horizontal padding sum.
func (s Style) PaddingX() float64 { return s.PaddingLeft + s.PaddingRight }

// PaddingY returns the vertical padding sum.
func (s Style) PaddingY() float64 { return s.PaddingTop + s.PaddingBottom }

// BorderX returns the horizontal border sum.
func (s Style) BorderX() float64 { return s.BorderLeft + s.BorderRight }

// BorderY returns the vertical border sum.
func (s Style) BorderY() float64 { return s.BorderTop + s.BorderBottom }
