package distance

import "github.com/teranos/canopy/sequence"

// Tanimoto is the Jaccard distance between the element sets of two
// sequences. Duplicates and order are ignored and the result is exact.
type Tanimoto struct{}

func (Tanimoto) Kind() Kind { return KindTanimoto }

func (t Tanimoto) WithCeiling(float64) Measure { return t }

func (Tanimoto) Distance(a, b sequence.Sequence) float64 {
	if len(a) == 0 && len(b) == 0 {
		return 0
	}

	setA := make(map[int32]struct{}, len(a))
	for _, v := range a {
		setA[v] = struct{}{}
	}
	setB := make(map[int32]struct{}, len(b))
	for _, v := range b {
		setB[v] = struct{}{}
	}

	intersection := 0
	for v := range setB {
		if _, ok := setA[v]; ok {
			intersection++
		}
	}
	union := len(setA) + len(setB) - intersection
	return 1 - float64(intersection)/float64(union)
}
