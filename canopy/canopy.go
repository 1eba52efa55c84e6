// Package canopy implements Canopy clustering over integer sequences: the
// per-partition assignment registry, medoid recentering, support filtering
// and classification against a canonical canopy set.
package canopy

import (
	"github.com/teranos/canopy/codec"
	"github.com/teranos/canopy/distance"
	"github.com/teranos/canopy/errors"
	"github.com/teranos/canopy/sequence"
)

// Counter names reported by the passes
const (
	CounterCanopiesCreated   = "canopies.created"
	CounterCanopiesRetained  = "canopies.retained"
	CounterCanopiesRejected  = "canopies.rejected"
	CounterPointsClustered   = "points.clustered"
	CounterPointsUnclustered = "points.unclustered"
	CounterAssignments       = "assignments.emitted"
)

// Counters receives named increments. A nil Counters is ignored.
type Counters interface {
	Inc(name string, delta int64)
}

func inc(c Counters, name string, delta int64) {
	if c != nil {
		c.Inc(name, delta)
	}
}

// Canopy is a provisional cluster. Its center is always an observed
// sequence; its id is only unique within the round that produced it.
type Canopy struct {
	ID           int32
	Center       sequence.Sequence
	Observations int64
}

// Key identifies the canopy in a shuffle
func (c *Canopy) Key() string {
	return c.Center.String()
}

// Observe records one more member
func (c *Canopy) Observe() {
	c.Observations++
}

// Distance from the canopy center to seq
func (c *Canopy) Distance(m distance.Measure, seq sequence.Sequence) float64 {
	return m.Distance(c.Center, seq)
}

// Similarity is 1 - Distance
func (c *Canopy) Similarity(m distance.Measure, seq sequence.Sequence) float64 {
	return 1 - m.Distance(c.Center, seq)
}

// Record converts the canopy to its codec form
func (c *Canopy) Record() codec.Record {
	return codec.Record{ID: c.ID, Observations: c.Observations, Center: codec.IntArray(c.Center)}
}

// FromRecord converts a decoded record. Any integral element type is
// accepted for the center.
func FromRecord(rec codec.Record) (Canopy, error) {
	center, err := codec.AsInt32s(rec.Center)
	if err != nil {
		return Canopy{}, errors.Wrapf(err, "canopy %d", rec.ID)
	}
	if rec.Observations < 0 {
		return Canopy{}, errors.NewCodecErrorf("canopy %d: negative observation count %d", rec.ID, rec.Observations)
	}
	return Canopy{ID: rec.ID, Center: sequence.Sequence(center), Observations: rec.Observations}, nil
}
