// Package pipeline drives canopy builds and classification over the
// in-process execution service.
package pipeline

import (
	"math/bits"

	"github.com/teranos/canopy/canopy"
	"github.com/teranos/canopy/errors"
)

// IterationState is the (thresholds, parallelism) triple of one round
type IterationState struct {
	Round       int
	Thresholds  canopy.Thresholds
	Parallelism int
}

// Rounds returns floor(log2(reducers)) + 1
func Rounds(reducers int) int {
	if reducers < 1 {
		return 0
	}
	return bits.Len(uint(reducers))
}

// Schedule plans every round. Thresholds grow linearly from final/R by
// final/R per round and reach the final values at round R. Parallelism
// starts at reducers and halves each round, reaching 1 exactly at round R.
func Schedule(reducers int, final canopy.Thresholds) ([]IterationState, error) {
	if reducers < 1 {
		return nil, errors.NewInvalidArgumentf("reducers must be >= 1, got %d", reducers)
	}
	if err := final.Validate(); err != nil {
		return nil, err
	}

	n := Rounds(reducers)
	states := make([]IterationState, n)
	parallelism := reducers
	for r := 1; r <= n; r++ {
		frac := float64(r) / float64(n)
		t := canopy.Thresholds{T1: final.T1 * frac, T2: final.T2 * frac}
		if r == n {
			// exact final values, free of rounding
			t = final
		}
		states[r-1] = IterationState{Round: r, Thresholds: t, Parallelism: parallelism}
		parallelism /= 2
	}
	return states, nil
}
