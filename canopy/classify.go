package canopy

import (
	"github.com/teranos/canopy/distance"
	"github.com/teranos/canopy/errors"
	"github.com/teranos/canopy/sequence"
)

// Match is the best canopy for a classified point
type Match struct {
	CanopyID   int32
	Similarity float64
}

// Classifier assigns points to the canopy of highest similarity. It never
// mutates its canopy set and is safe for concurrent use.
type Classifier struct {
	measure       distance.Measure
	canopies      []Canopy
	minSimilarity float64
}

// NewClassifier creates a classifier over a non-empty canonical canopy set
func NewClassifier(measure distance.Measure, canopies []Canopy, minSimilarity float64) (*Classifier, error) {
	if measure == nil {
		return nil, errors.ErrMeasureUnconfigured
	}
	if len(canopies) == 0 {
		return nil, errors.WithHint(errors.ErrNoClusters, "rebuild the canopies or lower min_observations")
	}
	if minSimilarity < 0 || minSimilarity > 1 {
		return nil, errors.NewInvalidArgumentf("min similarity must be in [0, 1], got %g", minSimilarity)
	}
	return &Classifier{measure: measure, canopies: canopies, minSimilarity: minSimilarity}, nil
}

// Best returns the canopy maximizing similarity, earliest canopy on ties,
// regardless of the cutoff.
func (c *Classifier) Best(seq sequence.Sequence) Match {
	best := Match{CanopyID: c.canopies[0].ID, Similarity: c.canopies[0].Similarity(c.measure, seq)}
	for i := 1; i < len(c.canopies); i++ {
		sim := c.canopies[i].Similarity(c.measure, seq)
		if sim > best.Similarity {
			best = Match{CanopyID: c.canopies[i].ID, Similarity: sim}
		}
	}
	return best
}

// Classify returns the best match and whether it clears the cutoff
func (c *Classifier) Classify(seq sequence.Sequence, counters Counters) (Match, bool) {
	best := c.Best(seq)
	if best.Similarity < c.minSimilarity {
		inc(counters, CounterPointsUnclustered, 1)
		return best, false
	}
	inc(counters, CounterPointsClustered, 1)
	return best, true
}

// Len returns the number of canopies in the reference set
func (c *Classifier) Len() int {
	return len(c.canopies)
}
