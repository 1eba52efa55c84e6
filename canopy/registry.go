package canopy

import (
	"github.com/teranos/canopy/distance"
	"github.com/teranos/canopy/errors"
	"github.com/teranos/canopy/sequence"
)

// Thresholds for one round. T2 <= T1.
type Thresholds struct {
	T1 float64
	T2 float64
}

// Validate checks the threshold ordering and range
func (t Thresholds) Validate() error {
	if t.T1 <= 0 || t.T1 > 1 || t.T2 <= 0 || t.T2 > 1 {
		return errors.NewInvalidArgumentf("thresholds must be in (0, 1], got t1=%g t2=%g", t.T1, t.T2)
	}
	if t.T2 > t.T1 {
		return errors.NewInvalidArgumentf("t2 (%g) must be <= t1 (%g)", t.T2, t.T1)
	}
	return nil
}

// Member is a sequence flowing through a round together with the number of
// observations it stands for. First-round inputs weigh 1; later rounds feed
// back canopy centers weighted by their counts.
type Member struct {
	Seq    sequence.Sequence
	Weight int64
}

// Assignment is a member emitted under a provisional canopy key. Weight is
// the member's weight when it is strongly bound to that canopy and 0 for a
// weak (T1 only) membership, so recentering never double counts.
type Assignment struct {
	Key    string
	Member Member
}

// Registry is the ordered, growing set of live canopies of one partition in
// one round. It is not safe for concurrent use; each partition owns one.
type Registry struct {
	measure    distance.Measure
	thresholds Thresholds
	canopies   []*Canopy
	nextID     int32
}

// NewRegistry creates an empty registry
func NewRegistry(measure distance.Measure, thresholds Thresholds) (*Registry, error) {
	if measure == nil {
		return nil, errors.ErrMeasureUnconfigured
	}
	if err := thresholds.Validate(); err != nil {
		return nil, err
	}
	return &Registry{measure: measure, thresholds: thresholds}, nil
}

// AddPoint streams one member through the registry. The member is emitted
// under the key of every canopy within T1, and under a new canopy of its own
// when no existing canopy is within T2. At least one assignment is returned.
func (r *Registry) AddPoint(m Member) []Assignment {
	var out []Assignment
	stronglyBound := false

	for _, c := range r.canopies {
		d := c.Distance(r.measure, m.Seq)
		strong := d < r.thresholds.T2
		if d < r.thresholds.T1 {
			c.Observe()
			weight := int64(0)
			if strong {
				weight = m.Weight
			}
			out = append(out, Assignment{Key: c.Key(), Member: Member{Seq: m.Seq, Weight: weight}})
		}
		stronglyBound = stronglyBound || strong
	}

	if !stronglyBound {
		c := &Canopy{ID: r.nextID, Center: m.Seq, Observations: 1}
		r.nextID++
		r.canopies = append(r.canopies, c)
		out = append(out, Assignment{Key: c.Key(), Member: m})
	}
	return out
}

// Canopies returns the live canopies in creation order
func (r *Registry) Canopies() []*Canopy {
	return r.canopies
}

// Len returns the number of live canopies
func (r *Registry) Len() int {
	return len(r.canopies)
}
