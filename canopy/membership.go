package canopy

import (
	"github.com/teranos/canopy/distance"
	"github.com/teranos/canopy/sequence"
)

// Membership resolves which canopies of a fixed set a point belongs to
// under T1. It is read-only and safe for concurrent use.
type Membership struct {
	measure  distance.Measure
	canopies []Canopy
	t1       float64
}

// NewMembership creates a membership index over canopies
func NewMembership(measure distance.Measure, canopies []Canopy, t1 float64) *Membership {
	return &Membership{measure: measure, canopies: canopies, t1: t1}
}

// Members returns the positions (not ids) of every canopy within T1 of seq
func (m *Membership) Members(seq sequence.Sequence) []int {
	var out []int
	for i := range m.canopies {
		if m.canopies[i].Distance(m.measure, seq) < m.t1 {
			out = append(out, i)
		}
	}
	return out
}

// Len returns the number of canopies in the index
func (m *Membership) Len() int {
	return len(m.canopies)
}

// WithSupport returns copies of the canopies whose observation counts are
// replaced by support, which must be indexed by position.
func (m *Membership) WithSupport(support []int64) []Canopy {
	out := make([]Canopy, len(m.canopies))
	for i, c := range m.canopies {
		c.Observations = support[i]
		out[i] = c
	}
	return out
}
