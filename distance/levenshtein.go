package distance

import (
	"math"

	"github.com/teranos/canopy/sequence"
)

// unreachable marks DP cells outside the band. Kept well below MaxInt so
// 1+unreachable cannot overflow.
const unreachable = math.MaxInt32

// Levenshtein is the edit distance normalized by the longer sequence length.
// The raw distance is only computed inside a diagonal band derived from the
// ceiling; pairs beyond it report MaxDistance.
type Levenshtein struct {
	maxNormalized float64
}

// NewLevenshtein creates the measure. A ceiling outside (0, 1] means none.
func NewLevenshtein(maxNormalized float64) Levenshtein {
	if maxNormalized <= 0 || maxNormalized > MaxDistance {
		maxNormalized = MaxDistance
	}
	return Levenshtein{maxNormalized: maxNormalized}
}

func (Levenshtein) Kind() Kind { return KindLevenshtein }

// Ceiling returns the configured normalized ceiling
func (l Levenshtein) Ceiling() float64 {
	if l.maxNormalized == 0 {
		return MaxDistance
	}
	return l.maxNormalized
}

func (l Levenshtein) WithCeiling(ceiling float64) Measure {
	return NewLevenshtein(ceiling)
}

func (l Levenshtein) Distance(a, b sequence.Sequence) float64 {
	longest := len(a)
	if len(b) > longest {
		longest = len(b)
	}
	if longest == 0 {
		return 0
	}

	// small epsilon so 0.2*10 lands on 2, not 1
	threshold := int(math.Floor(l.Ceiling()*float64(longest) + 1e-9))
	raw := bandedEditDistance(a, b, threshold)
	if raw < 0 {
		return MaxDistance
	}
	return float64(raw) / float64(longest)
}

// bandedEditDistance returns the edit distance between a and b if it is at
// most threshold, else -1. Only the band |i-j| <= threshold is filled.
func bandedEditDistance(a, b sequence.Sequence, threshold int) int {
	// s is the shorter sequence; the DP rows are sized by it
	s, t := a, b
	if len(s) > len(t) {
		s, t = t, s
	}
	n, m := len(s), len(t)

	if n == 0 {
		if m <= threshold {
			return m
		}
		return -1
	}
	if m-n > threshold {
		return -1
	}

	prev := make([]int, n+1)
	cur := make([]int, n+1)

	boundary := min(n, threshold) + 1
	for i := 0; i < boundary; i++ {
		prev[i] = i
	}
	for i := boundary; i <= n; i++ {
		prev[i] = unreachable
	}
	for i := range cur {
		cur[i] = unreachable
	}

	for j := 1; j <= m; j++ {
		tj := t[j-1]
		cur[0] = j

		lo := max(1, j-threshold)
		hi := min(n, j+threshold)
		if lo > hi {
			return -1
		}
		if lo > 1 {
			cur[lo-1] = unreachable
		}

		rowMin := unreachable
		if lo == 1 {
			rowMin = cur[0]
		}
		for i := lo; i <= hi; i++ {
			if s[i-1] == tj {
				cur[i] = prev[i-1]
			} else {
				cur[i] = 1 + min(cur[i-1], prev[i], prev[i-1])
			}
			rowMin = min(rowMin, cur[i])
		}
		if hi < n {
			cur[hi+1] = unreachable
		}
		if rowMin > threshold {
			return -1
		}

		prev, cur = cur, prev
	}

	if prev[n] <= threshold {
		return prev[n]
	}
	return -1
}
