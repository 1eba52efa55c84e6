package canopy

import (
	"gonum.org/v1/gonum/floats"

	"github.com/teranos/canopy/distance"
	"github.com/teranos/canopy/errors"
	"github.com/teranos/canopy/sequence"
)

// Medoid returns the index of the sequence with the smallest mean distance
// to all others. The measure must be symmetric. Ties go to the lowest index.
func Medoid(m distance.Measure, seqs []sequence.Sequence) int {
	n := len(seqs)
	if n <= 1 {
		return 0
	}

	sums := make([]float64, n)
	for i := 0; i < n; i++ {
		for j := i + 1; j < n; j++ {
			d := m.Distance(seqs[i], seqs[j])
			sums[i] += d
			sums[j] += d
		}
	}
	// every sum shares the n-1 divisor, so the argmin is the same
	floats.Scale(1/float64(n-1), sums)
	return floats.MinIdx(sums)
}

// Recenter collapses all members gathered under one key into a single
// canopy centered on their medoid. Its count is the sum of member weights.
func Recenter(m distance.Measure, id int32, group []Member) (Canopy, error) {
	if len(group) == 0 {
		return Canopy{}, errors.NewInvalidArgumentf("cannot recenter empty group for canopy %d", id)
	}

	var total int64
	seqs := make([]sequence.Sequence, len(group))
	for i, member := range group {
		seqs[i] = member.Seq
		total += member.Weight
	}

	center := seqs[Medoid(m, seqs)]
	return Canopy{ID: id, Center: center.Clone(), Observations: total}, nil
}
