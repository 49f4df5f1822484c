package scene

import (
	"fmt"

	"sizewatch/pkg/dom"
)

// Apply brings the host document in line with the scene: missing elements
// are created and attached, changed styles are patched, and elements no
// longer present in the scene are detached and forgotten. Style writes
// happen only when the style actually differs, so an unchanged scene
// reload fires no mutation signals.
func Apply(h *dom.Host, sc Scene) error {
	if sc.Viewport != nil {
		w, hgt := h.Viewport()
		if w != sc.Viewport.Width || hgt != sc.Viewport.Height {
			h.SetViewport(sc.Viewport.Width, sc.Viewport.Height)
		}
	}

	inScene := make(map[string]bool, len(sc.Elements))
	for _, spec := range sc.Elements {
		inScene[spec.ID] = true
	}

	// Drop elements the scene no longer mentions before creating new ones,
	// so an id can migrate between reloads.
	for _, id := range h.ElementIDs() {
		if inScene[id] {
			continue
		}
		if el, ok := h.Lookup(id); ok {
			el.Detach()
		}
		h.Forget(id)
	}

	// Two passes: materialize every element first, then attach and style,
	// so parents may be declared in any order.
	for _, spec := range sc.Elements {
		if _, ok := h.Lookup(spec.ID); ok {
			continue
		}
		if _, err := h.CreateElement(spec.ID); err != nil {
			return fmt.Errorf("scene apply: %w", err)
		}
	}
	for _, spec := range sc.Elements {
		el, _ := h.Lookup(spec.ID)
		parent := h.Root()
		if spec.Parent != "" {
			p, ok := h.Lookup(spec.Parent)
			if !ok {
				return fmt.Errorf("scene apply: unknown parent %q", spec.Parent)
			}
			parent = p
		}
		if el.Parent() != parent {
			if err := parent.AppendChild(el); err != nil {
				return fmt.Errorf("scene apply: %w", err)
			}
		}
		want := spec.Style.Style()
		if el.Style() != want {
			el.SetStyle(want)
		}
	}
	return nil
}
