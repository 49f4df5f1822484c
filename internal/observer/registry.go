package observer

import "sizewatch/pkg/dom"

// registry is an insertion-ordered map from watched element to its
// Observation. Gather iterates in registration order, which is what makes
// broadcast entry order deterministic, so a plain Go map cannot serve
// here.
type registry struct {
	index map[*dom.Element]int
	obs   []*Observation
}

func newRegistry() *registry {
	return &registry{index: make(map[*dom.Element]int)}
}

func (r *registry) Len() int { return len(r.obs) }

func (r *registry) Has(target *dom.Element) bool {
	_, ok := r.index[target]
	return ok
}

func (r *registry) Get(target *dom.Element) (*Observation, bool) {
	i, ok := r.index[target]
	if !ok {
		return nil, false
	}
	return r.obs[i], true
}

// Add appends an observation for target. Caller checks Has first.
func (r *registry) Add(o *Observation) {
	r.index[o.target] = len(r.obs)
	r.obs = append(r.obs, o)
}

// Delete removes the observation for target, preserving the order of the
// rest. No-op when absent.
func (r *registry) Delete(target *dom.Element) {
	i, ok := r.index[target]
	if !ok {
		return
	}
	delete(r.index, target)
	r.obs = append(r.obs[:i], r.obs[i+1:]...)
	for j := i; j < len(r.obs); j++ {
		r.index[r.obs[j].target] = j
	}
}

// Each visits observations in insertion order.
func (r *registry) Each(fn func(*Observation)) {
	for _, o := range r.obs {
		fn(o)
	}
}

func (r *registry) Clear() {
	r.index = make(map[*dom.Element]int)
	r.obs = nil
}
