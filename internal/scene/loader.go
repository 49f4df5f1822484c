// Package scene loads the YAML description of the hosted document tree
// and keeps a live host in sync with it.
package scene

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"sizewatch/pkg/dom"
)

// StyleSpec is the YAML form of an element style. Padding/Border set all
// four edges; per-edge fields override the shorthand.
type StyleSpec struct {
	Display string  `yaml:"display"`
	Width   float64 `yaml:"width"`
	Height  float64 `yaml:"height"`

	Padding       float64  `yaml:"padding"`
	PaddingTop    *float64 `yaml:"padding_top"`
	PaddingRight  *float64 `yaml:"padding_right"`
	PaddingBottom *float64 `yaml:"padding_bottom"`
	PaddingLeft   *float64 `yaml:"padding_left"`

	Border       float64  `yaml:"border"`
	BorderTop    *float64 `yaml:"border_top"`
	BorderRight  *float64 `yaml:"border_right"`
	BorderBottom *float64 `yaml:"border_bottom"`
	BorderLeft   *float64 `yaml:"border_left"`

	BoxSizing string `yaml:"box_sizing"`
}

// Style resolves the spec into a concrete dom.Style.
func (s StyleSpec) Style() dom.Style {
	edge := func(override *float64, shorthand float64) float64 {
		if override != nil {
			return *override
		}
		return shorthand
	}
	out := dom.Style{
		Display: s.Display,
		Width:   s.Width,
		Height:  s.Height,

		PaddingTop:    edge(s.PaddingTop, s.Padding),
		PaddingRight:  edge(s.PaddingRight, s.Padding),
		PaddingBottom: edge(s.PaddingBottom, s.Padding),
		PaddingLeft:   edge(s.PaddingLeft, s.Padding),

		BorderTop:    edge(s.BorderTop, s.Border),
		BorderRight:  edge(s.BorderRight, s.Border),
		BorderBottom: edge(s.BorderBottom, s.Border),
		BorderLeft:   edge(s.BorderLeft, s.Border),
	}
	if s.BoxSizing == string(dom.BorderBox) {
		out.BoxSizing = dom.BorderBox
	} else {
		out.BoxSizing = dom.ContentBox
	}
	return out
}

// ElementSpec describes one element of the scene. Parent refers to another
// scene element by id; empty means a child of the document root.
type ElementSpec struct {
	ID     string    `yaml:"id"`
	Parent string    `yaml:"parent"`
	Watch  bool      `yaml:"watch"`
	Style  StyleSpec `yaml:"style"`
}

// Scene is a full document description.
type Scene struct {
	Viewport *struct {
		Width  float64 `yaml:"width"`
		Height float64 `yaml:"height"`
	} `yaml:"viewport"`
	Elements []ElementSpec `yaml:"elements"`
}

// Load reads and validates a scene file.
func Load(path string) (Scene, error) {
	var sc Scene
	b, err := os.ReadFile(path)
	if err != nil {
		return sc, err
	}
	if err := yaml.Unmarshal(b, &sc); err != nil {
		return sc, fmt.Errorf("parse scene: %w", err)
	}
	if err := sc.validate(); err != nil {
		return sc, err
	}
	return sc, nil
}

func (sc Scene) validate() error {
	ids := make(map[string]bool, len(sc.Elements))
	for _, el := range sc.Elements {
		if el.ID == "" {
			return fmt.Errorf("scene element with empty id")
		}
		if ids[el.ID] {
			return fmt.Errorf("duplicate scene element id: %s", el.ID)
		}
		ids[el.ID] = true
	}
	for _, el := range sc.Elements {
		if el.Parent != "" && !ids[el.Parent] {
			return fmt.Errorf("element %q references unknown parent %q", el.ID, el.Parent)
		}
	}
	return nil
}

// WatchedIDs returns the ids of elements marked watch:true, in scene order.
func (sc Scene) WatchedIDs() []string {
	var out []string
	for _, el := range sc.Elements {
		if el.Watch {
			out = append(out, el.ID)
		}
	}
	return out
}
